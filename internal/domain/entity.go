// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies
// beyond the structured logging field type.
package domain

import (
	"fmt"
	"time"
)

// Kind identifies one of the tracked domains the reconciler understands.
type Kind int

const (
	KindUnknown Kind = iota
	KindRuntime
	KindSystem
	KindActivity
	KindBrowser
	KindVSCode
)

var kindNames = map[Kind]string{
	KindRuntime:  "Runtime",
	KindSystem:   "System",
	KindActivity: "Activity",
	KindBrowser:  "Browser",
	KindVSCode:   "VSCode",
}

// Kinds lists the tracked domains in slot order.
var Kinds = []Kind{KindRuntime, KindSystem, KindActivity, KindBrowser, KindVSCode}

// String returns the registry name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// ParseKind maps a registry domain name to its kind.
// Names outside the tracked set map to KindUnknown.
func ParseKind(name string) Kind {
	for k, n := range kindNames {
		if n == name {
			return k
		}
	}
	return KindUnknown
}

// Well-known entity names written by the tracker agent.
const (
	StartupEntity  = "Startup"
	ShutdownEntity = "Shutdown"
	PowerOffLabel  = "power off"
)

// BaseYear is added to the stored year offset.
const BaseYear = 2000

// Date is a calendar date as stored in the trace file.
type Date struct {
	Year  uint8 // offset from BaseYear, 0-127
	Month uint8 // 1-12
	Day   uint8 // 1-31
}

// Valid reports whether the fields are in the ranges the tracker writes.
func (d Date) Valid() bool {
	return d.Year <= 127 && d.Month >= 1 && d.Month <= 12 && d.Day >= 1 && d.Day <= 31
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", BaseYear+int(d.Year), d.Month, d.Day)
}

// Entity is a named instance within a domain.
type Entity struct {
	DomainID uint8
	Name     string
}

// RawEvent is a single decoded trace record.
type RawEvent struct {
	Date     Date
	Hour     uint8
	Minute   uint8
	Second   uint8
	EntityID uint16
}

// Valid reports whether the time of day is one a clock can produce.
func (e RawEvent) Valid() bool {
	return e.Hour <= 23 && e.Minute <= 59 && e.Second <= 59
}

// Timestamp returns the event time. Trace files carry no zone, so UTC is used.
func (e RawEvent) Timestamp() time.Time {
	return time.Date(BaseYear+int(e.Date.Year), time.Month(e.Date.Month), int(e.Date.Day),
		int(e.Hour), int(e.Minute), int(e.Second), 0, time.UTC)
}

// Interval is a closed time span attributed to one domain.
// Label is nil when no entity informed it.
type Interval struct {
	Domain Kind
	Label  *string
	Start  time.Time
	End    time.Time
}

// LabelOr returns the label or fallback when the label is absent.
func (i Interval) LabelOr(fallback string) string {
	if i.Label == nil {
		return fallback
	}
	return *i.Label
}

// Duration returns End - Start.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Label returns a pointer to a copy of s.
func Label(s string) *string {
	return &s
}
