package format

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/eliteGoblin/focusd/tracklog/internal/domain"
)

// cursor reads little-endian fields from a fully buffered file.
// Every read is bounds-checked and reports truncation as a format error.
type cursor struct {
	op  string
	buf []byte
	off int
}

func newCursor(op string, buf []byte) *cursor {
	return &cursor{op: op, buf: buf}
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.off
}

func (c *cursor) seek(off uint32) error {
	if uint64(off) > uint64(len(c.buf)) {
		return domain.FormatErrorf(c.op, "offset %d beyond end of file (%d bytes)", off, len(c.buf))
	}
	c.off = int(off)
	return nil
}

func (c *cursor) take(n int, what string) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, domain.FormatErrorf(c.op, "truncated %s at offset %d: need %d bytes, have %d",
			what, c.off, n, c.remaining())
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, nil
}

func (c *cursor) magic(want string) error {
	b, err := c.take(len(want), "header")
	if err != nil {
		return err
	}
	if string(b) != want {
		return domain.FormatErrorf(c.op, "invalid file header %q, want %q", b, want)
	}
	return nil
}

func (c *cursor) u8(what string) (uint8, error) {
	b, err := c.take(1, what)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) u16(what string) (uint16, error) {
	b, err := c.take(2, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *cursor) u32(what string) (uint32, error) {
	b, err := c.take(4, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// str reads a one-byte length prefixed UTF-8 string.
func (c *cursor) str(what string) (string, error) {
	n, err := c.u8(what + " length")
	if err != nil {
		return "", err
	}
	b, err := c.take(int(n), what)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", domain.FormatErrorf(c.op, "%s at offset %d is not valid UTF-8", what, c.off-int(n))
	}
	return string(b), nil
}
