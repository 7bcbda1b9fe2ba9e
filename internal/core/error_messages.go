package core

// error_messages.go maps technical errors to user-friendly messages with
// codes for support reference.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large               Patterns: "file too large"
//	FILE002 - Invalid CSV                  Patterns: "invalid csv"
//	FILE003 - Not a CSV file               Patterns: "not a csv file"
//	FILE004 - No file                      Patterns: "no file provided"
//	FILE005 - Empty file                   Patterns: "empty file"
//	FILE006 - File not uploaded            Patterns: "file not found"
//
// # Row and Edit Errors (ROW001, EDIT001-EDIT099)
//
//	ROW001  - Row does not exist           Patterns: "row index"
//	EDIT001 - Unknown column               Patterns: "unknown column"
//	EDIT002 - Value does not fit column    Patterns: "cannot coerce"
//	EDIT003 - Edit form out of date        Patterns: "edit buffer"
//
// # Schema Errors (SCH001-SCH099)
//
//	SCH001 - Required columns missing      Patterns: "missing columns for schema"
//	SCH002 - Optional column missing       Patterns: "missing optional column"
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Table cannot be exported      Patterns: "serialization failed"
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Session expired               Patterns: "session not found"
//	SES002 - Too many sessions             Patterns: "too many sessions"
//	SES003 - Nothing selected              Patterns: "no table selected"
//
// # Upload Errors (UPL002-UPL099)
//
//	UPL002 - System busy                   Patterns: "too many concurrent parses"
//	UPL003 - Chart not found               Patterns: "chart not found"
//	UPL004 - Request cancelled             Patterns: "context canceled"
//	UPL005 - Request timeout               Patterns: "deadline exceeded"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests            Patterns: "rate limit"
//
// # Request Errors (REQ001)
//
//	REQ001 - Malformed request             Patterns: "bad request"
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Check the logs for the technical error.
//
// Errors are matched against each entry's sentinel with errors.Is, so the
// text of column names, values and file names never picks the code. Patterns
// are matched case-insensitively with strings.Contains only for errors that
// wrap no sentinel. The first match wins: "empty file" precedes "invalid csv"
// because an empty upload is reported as a parse error.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/csvexplorer/internal/dataset"
	"github.com/JonMunkholm/csvexplorer/internal/export"
	"github.com/JonMunkholm/csvexplorer/internal/schema"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern maps a sentinel, or for untyped errors a lowercase message
// fragment, to its user message.
type errorPattern struct {
	err     error
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors
	{
		err:     ErrFileTooLarge,
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Upload a smaller file",
			Code:    "FILE001",
		},
	},
	{
		err:     dataset.ErrEmptyFile,
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a CSV file with a header row",
			Code:    "FILE005",
		},
	},
	{
		err:     dataset.ErrParse,
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure the file is comma-separated with consistent columns",
			Code:    "FILE002",
		},
	},
	{
		err:     ErrNotCSV,
		pattern: "not a csv file",
		msg: UserMessage{
			Message: "Only .csv files can be uploaded",
			Action:  "Save the file as CSV and upload it again",
			Code:    "FILE003",
		},
	},
	{
		err:     ErrNoFile,
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Choose one or more CSV files to upload",
			Code:    "FILE004",
		},
	},
	{
		err:     ErrFileNotFound,
		pattern: "file not found",
		msg: UserMessage{
			Message: "That file has not been uploaded",
			Action:  "Pick a file from the uploaded list",
			Code:    "FILE006",
		},
	},

	// Row and edit errors
	{
		err:     dataset.ErrIndexOutOfRange,
		pattern: "row index",
		msg: UserMessage{
			Message: "That row does not exist",
			Action:  "Choose a row number shown in the table",
			Code:    "ROW001",
		},
	},
	{
		err:     dataset.ErrUnknownColumn,
		pattern: "unknown column",
		msg: UserMessage{
			Message: "The edit names a column the table does not have",
			Action:  "Edit only the columns shown in the table",
			Code:    "EDIT001",
		},
	},
	{
		err:     dataset.ErrCoercion,
		pattern: "cannot coerce",
		msg: UserMessage{
			Message: "A value does not fit its column's type",
			Action:  "Enter a value of the column's type, or leave it empty",
			Code:    "EDIT002",
		},
	},
	{
		err:     dataset.ErrStaleEditBuffer,
		pattern: "edit buffer",
		msg: UserMessage{
			Message: "The table changed while the row was being edited",
			Action:  "Reopen the row and apply the edit again",
			Code:    "EDIT003",
		},
	},
	{
		err:     dataset.ErrEditBufferClosed,
		pattern: "edit buffer",
		msg: UserMessage{
			Message: "The table changed while the row was being edited",
			Action:  "Reopen the row and apply the edit again",
			Code:    "EDIT003",
		},
	},

	// Schema errors
	{
		err:     schema.ErrMissingColumns,
		pattern: "missing columns for schema",
		msg: UserMessage{
			Message: "The file lacks columns its name requires",
			Action:  "Add the required columns or rename the file",
			Code:    "SCH001",
		},
	},
	{
		err:     schema.ErrMissingOptionalColumn,
		pattern: "missing optional column",
		msg: UserMessage{
			Message: "A chart was skipped because a column is missing",
			Action:  "Add the column to see the chart",
			Code:    "SCH002",
		},
	},

	// Export errors
	{
		err:     export.ErrSerialization,
		pattern: "serialization failed",
		msg: UserMessage{
			Message: "The table cannot be written as a spreadsheet",
			Action:  "Edit the value named in the error and export again",
			Code:    "EXP001",
		},
	},

	// Session errors
	{
		err:     ErrSessionNotFound,
		pattern: "session not found",
		msg: UserMessage{
			Message: "Your session has expired",
			Action:  "Upload the file again",
			Code:    "SES001",
		},
	},
	{
		err:     ErrTooManySessions,
		pattern: "too many sessions",
		msg: UserMessage{
			Message: "The server is serving too many users",
			Action:  "Please wait a moment and try again",
			Code:    "SES002",
		},
	},
	{
		err:     ErrNoTable,
		pattern: "no table selected",
		msg: UserMessage{
			Message: "No file is selected",
			Action:  "Upload a CSV file or select one from the list",
			Code:    "SES003",
		},
	},

	// Upload errors
	{
		err:     ErrTooManyParses,
		pattern: "too many concurrent parses",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		err:     ErrChartNotFound,
		pattern: "chart not found",
		msg: UserMessage{
			Message: "That chart does not exist",
			Action:  "Reload the page to refresh the chart list",
			Code:    "UPL003",
		},
	},
	{
		err:     context.Canceled,
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		err:     context.DeadlineExceeded,
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},

	// Rate limiting
	{
		err:     ErrRateLimited,
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},

	{
		err:     ErrBadRequest,
		pattern: "bad request",
		msg: UserMessage{
			Message: "The request could not be understood",
			Action:  "Check the form values and try again",
			Code:    "REQ001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Sentinels
// are matched with errors.Is first; message patterns only apply to errors
// that wrap none of them. If nothing matches, the ERR000 fallback is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	if msg, ok := mapSentinel(err); ok {
		return msg
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

func mapSentinel(err error) (UserMessage, bool) {
	for _, ep := range errorPatterns {
		if errors.Is(err, ep.err) {
			return ep.msg, true
		}
	}
	return UserMessage{}, false
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err wraps a known sentinel, meaning its own
// text is safe and useful to show.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	_, ok := mapSentinel(err)
	return ok
}
