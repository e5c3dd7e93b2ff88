package format

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/tracklog/internal/domain"
)

// TraceMagic tags trace files.
const TraceMagic = "TTE"

const eventRecordSize = 4

// TraceFile is a decoded trace (.tte): one flat event sequence spanning every
// date block in file order. By convention its first event is the synthetic
// Runtime startup marker and is not looked up in the registry.
type TraceFile struct {
	path   string
	events []domain.RawEvent
	ready  bool
	err    error
}

// OpenTrace reads and decodes the trace at path.
func OpenTrace(path string, diag domain.Diagnostics) *TraceFile {
	diag = diagOrNop(diag)
	data, err := readFile("open trace", path, diag)
	if err != nil {
		diag.Note("failed to open file", zap.String("path", path))
		return &TraceFile{path: path, err: err}
	}
	t := DecodeTrace(data, diag)
	t.path = path
	if t.err != nil {
		t.err = withPath(t.err, path)
		diag.Note("failed to parse file", zap.String("path", path))
	}
	return t
}

// DecodeTrace decodes a trace from its raw bytes.
func DecodeTrace(data []byte, diag domain.Diagnostics) *TraceFile {
	diag = diagOrNop(diag)
	t := &TraceFile{}
	events, err := parseTrace(data, diag)
	if err != nil {
		t.err = err
		diag.Error("failed to parse trace", zap.Error(err))
		return t
	}
	t.events = events
	t.ready = true
	return t
}

func parseTrace(data []byte, diag domain.Diagnostics) ([]domain.RawEvent, error) {
	c := newCursor("decode trace", data)
	if err := c.magic(TraceMagic); err != nil {
		return nil, err
	}
	dates, err := c.u16("date block count")
	if err != nil {
		return nil, err
	}

	var events []domain.RawEvent
	for i := 0; i < int(dates); i++ {
		rawDate, err := c.u16(fmt.Sprintf("date block %d date", i))
		if err != nil {
			return nil, err
		}
		date := DecodeDate(int16(rawDate))
		if !date.Valid() {
			diag.Warn("date out of range", zap.Int("block", i), zap.Stringer("date", date))
		}

		count, err := c.u32(fmt.Sprintf("date block %d event count", i))
		if err != nil {
			return nil, err
		}
		if uint64(count)*eventRecordSize > uint64(c.remaining()) {
			return nil, domain.FormatErrorf(c.op, "date block %d declares %d events but only %d bytes remain",
				i, count, c.remaining())
		}
		if events == nil {
			events = make([]domain.RawEvent, 0, count)
		}
		for j := uint32(0); j < count; j++ {
			raw, err := c.u32("event")
			if err != nil {
				return nil, err
			}
			ev := DecodeEvent(date, raw)
			if !ev.Valid() {
				diag.Warn("event time out of range",
					zap.Int("block", i),
					zap.Uint32("index", j),
					zap.Uint8("hour", ev.Hour),
					zap.Uint8("minute", ev.Minute),
					zap.Uint8("second", ev.Second))
			}
			events = append(events, ev)
		}
	}
	return events, nil
}

// Path returns the file the trace was read from, if any.
func (t *TraceFile) Path() string { return t.path }

// Ready reports whether decoding completed.
func (t *TraceFile) Ready() bool { return t.ready }

// Err returns the decode failure, or nil.
func (t *TraceFile) Err() error { return t.err }

// Len returns the number of decoded events.
func (t *TraceFile) Len() int { return len(t.events) }

// Events returns a copy of every event in file order.
func (t *TraceFile) Events() []domain.RawEvent {
	if !t.ready {
		return nil
	}
	return append([]domain.RawEvent(nil), t.events...)
}

// Dates returns the distinct dates in first-seen order.
func (t *TraceFile) Dates() []domain.Date {
	var dates []domain.Date
	seen := make(map[domain.Date]bool)
	for _, e := range t.events {
		if !seen[e.Date] {
			seen[e.Date] = true
			dates = append(dates, e.Date)
		}
	}
	return dates
}

// DateExists reports whether any event falls on d.
func (t *TraceFile) DateExists(d domain.Date) bool {
	for _, e := range t.events {
		if e.Date == d {
			return true
		}
	}
	return false
}

// EventsForDate returns the events dated d in file order.
func (t *TraceFile) EventsForDate(d domain.Date) []domain.RawEvent {
	var out []domain.RawEvent
	for _, e := range t.events {
		if e.Date == d {
			out = append(out, e)
		}
	}
	return out
}

// EventsForEntity returns the events referencing entity id in file order.
func (t *TraceFile) EventsForEntity(id uint16) []domain.RawEvent {
	var out []domain.RawEvent
	for _, e := range t.events {
		if e.EntityID == id {
			out = append(out, e)
		}
	}
	return out
}

// LastEvent returns the final event, if any.
func (t *TraceFile) LastEvent() (domain.RawEvent, bool) {
	if len(t.events) == 0 {
		return domain.RawEvent{}, false
	}
	return t.events[len(t.events)-1], true
}

// EncodeTrace produces the byte layout of a trace file holding events.
// Consecutive events sharing a date form one date block.
func EncodeTrace(events []domain.RawEvent) ([]byte, error) {
	type block struct {
		date   domain.Date
		events []domain.RawEvent
	}
	var blocks []block
	for _, e := range events {
		if n := len(blocks); n > 0 && blocks[n-1].date == e.Date {
			blocks[n-1].events = append(blocks[n-1].events, e)
			continue
		}
		blocks = append(blocks, block{date: e.Date, events: []domain.RawEvent{e}})
	}
	if len(blocks) > math.MaxUint16 {
		return nil, fmt.Errorf("too many date blocks: %d", len(blocks))
	}

	w := newWriter(TraceMagic)
	w.u16(uint16(len(blocks)))
	for _, b := range blocks {
		w.u16(uint16(EncodeDate(b.date)))
		w.u32(uint32(len(b.events)))
		for _, e := range b.events {
			w.u32(EncodeEvent(e))
		}
	}
	return w.bytes(), nil
}

var _ domain.EventSource = (*TraceFile)(nil)
