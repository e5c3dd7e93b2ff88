package format

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

// writer builds a little-endian file image in memory.
type writer struct {
	buf []byte
}

func newWriter(magic string) *writer {
	return &writer{buf: append([]byte(nil), magic...)}
}

func (w *writer) len() int      { return len(w.buf) }
func (w *writer) bytes() []byte { return w.buf }

func (w *writer) u8(v uint8) { w.buf = append(w.buf, v) }

func (w *writer) u16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }

func (w *writer) u32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }

// reserve32 appends a placeholder and returns its position for patch32.
func (w *writer) reserve32() int {
	pos := len(w.buf)
	w.u32(0)
	return pos
}

func (w *writer) patch32(pos int, v uint32) {
	binary.LittleEndian.PutUint32(w.buf[pos:], v)
}

func (w *writer) str(s string) error {
	if len(s) > math.MaxUint8 {
		return fmt.Errorf("name is %d bytes, max %d", len(s), math.MaxUint8)
	}
	if !utf8.ValidString(s) {
		return fmt.Errorf("name is not valid UTF-8")
	}
	w.u8(uint8(len(s)))
	w.buf = append(w.buf, s...)
	return nil
}
