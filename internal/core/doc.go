// Package core provides the application logic of the explorer.
//
// It sits between the transport layers (HTTP handlers, CLI commands) and the
// domain packages: dataset for tables and row mutations, schema for
// classification, chart for plans, render for images and export for xlsx.
//
// # Sessions
//
// Every user works in a [Session] holding the uploaded files, the selected
// file and the current table snapshot. Web sessions live in a [SessionStore]
// that expires idle ones; the CLI uses a standalone [NewSession].
//
// # Service
//
// [Service] implements the user actions: upload, select, delete_row,
// edit_row, plan, render and export. Mutations replace the session snapshot
// atomically and leave it untouched on error. Uploads are parsed under a
// [ParseLimiter].
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each category has a code for support reference (FILE, ROW, EDIT, SCH, EXP,
// SES, UPL, RATE, REQ); see error_messages.go.
package core
