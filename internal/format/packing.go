// Package format decodes and encodes the tracker agent's binary files:
// the registry (.ttr) and the trace (.tte).
package format

import (
	"github.com/eliteGoblin/focusd/tracklog/internal/domain"
)

// Packed date layout, bit 15 = MSB: year offset [15:9], month [8:5], day [4:0].
const (
	dateYearShift  = 9
	dateYearMask   = 0x7F
	dateMonthShift = 5
	dateMonthMask  = 0x0F
	dateDayMask    = 0x1F
)

// Packed event layout: entity [31:17], hour [16:12], minute [11:6], second [5:0].
const (
	eventEntityShift = 17
	eventEntityMask  = 0x7FFF
	eventHourShift   = 12
	eventHourMask    = 0x1F
	eventMinuteShift = 6
	eventMinuteMask  = 0x3F
	eventSecondMask  = 0x3F
)

// DecodeDate unpacks a date field. The field is stored signed on disk; the
// conversion to uint16 keeps the two's-complement bit pattern so masking sees
// the raw bits regardless of sign.
func DecodeDate(raw int16) domain.Date {
	bits := uint16(raw)
	return domain.Date{
		Year:  uint8((bits >> dateYearShift) & dateYearMask),
		Month: uint8((bits >> dateMonthShift) & dateMonthMask),
		Day:   uint8(bits & dateDayMask),
	}
}

// EncodeDate packs d into its on-disk signed representation.
// Out-of-range fields are truncated to their bit width.
func EncodeDate(d domain.Date) int16 {
	bits := (uint16(d.Year)&dateYearMask)<<dateYearShift |
		(uint16(d.Month)&dateMonthMask)<<dateMonthShift |
		uint16(d.Day)&dateDayMask
	return int16(bits)
}

// DecodeEvent unpacks an event record belonging to date.
func DecodeEvent(date domain.Date, raw uint32) domain.RawEvent {
	return domain.RawEvent{
		Date:     date,
		EntityID: uint16((raw >> eventEntityShift) & eventEntityMask),
		Hour:     uint8((raw >> eventHourShift) & eventHourMask),
		Minute:   uint8((raw >> eventMinuteShift) & eventMinuteMask),
		Second:   uint8(raw & eventSecondMask),
	}
}

// EncodeEvent packs the time and entity of e. The date is stored by the
// enclosing block.
func EncodeEvent(e domain.RawEvent) uint32 {
	return (uint32(e.EntityID)&eventEntityMask)<<eventEntityShift |
		(uint32(e.Hour)&eventHourMask)<<eventHourShift |
		(uint32(e.Minute)&eventMinuteMask)<<eventMinuteShift |
		uint32(e.Second)&eventSecondMask
}
