package dataset

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// NewIntakeReader wraps raw upload bytes for CSV parsing: a leading UTF-8 BOM
// is dropped and every invalid UTF-8 byte is replaced with '?'.
func NewIntakeReader(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}
	return &utf8Sanitizer{r: br}
}

// utf8Sanitizer re-encodes its input rune by rune. Output that does not fit
// the caller's buffer is held in pending for the next Read.
type utf8Sanitizer struct {
	r       *bufio.Reader
	pending []byte
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	n := copy(p, s.pending)
	s.pending = s.pending[n:]

	var buf [utf8.UTFMax]byte
	for n < len(p) {
		r, size, err := s.r.ReadRune()
		if err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}

		enc := buf[:utf8.EncodeRune(buf[:], r)]
		if r == utf8.RuneError && size == 1 {
			enc = buf[:1]
			enc[0] = '?'
		}

		c := copy(p[n:], enc)
		n += c
		if c < len(enc) {
			s.pending = append(s.pending, enc[c:]...)
		}
	}
	return n, nil
}
