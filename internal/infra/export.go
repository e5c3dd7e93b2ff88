package infra

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/eliteGoblin/focusd/tracklog/internal/domain"
)

// IntervalRecord is the JSON form of a domain.Interval. A missing label is
// written as null, distinct from an empty string.
type IntervalRecord struct {
	Domain   string    `json:"domain"`
	Label    *string   `json:"label"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Duration int64     `json:"duration_seconds"`
}

// TimelineDocument is the exported file layout.
type TimelineDocument struct {
	Version   int              `json:"version"`
	Source    string           `json:"source"`
	Intervals []IntervalRecord `json:"intervals"`
}

// NewIntervalRecord converts iv to its JSON form.
func NewIntervalRecord(iv domain.Interval) IntervalRecord {
	return IntervalRecord{
		Domain:   iv.Domain.String(),
		Label:    iv.Label,
		Start:    iv.Start,
		End:      iv.End,
		Duration: int64(iv.Duration() / time.Second),
	}
}

// IntervalRecords converts intervals to their JSON form.
func IntervalRecords(intervals []domain.Interval) []IntervalRecord {
	out := make([]IntervalRecord, 0, len(intervals))
	for _, iv := range intervals {
		out = append(out, NewIntervalRecord(iv))
	}
	return out
}

// ToInterval converts the record back to a domain.Interval.
func (r IntervalRecord) ToInterval() domain.Interval {
	return domain.Interval{
		Domain: domain.ParseKind(r.Domain),
		Label:  r.Label,
		Start:  r.Start,
		End:    r.End,
	}
}

// JSONExporter writes timelines to a JSON file.
type JSONExporter struct {
	path string
}

// NewJSONExporter creates an exporter writing to path.
func NewJSONExporter(path string) *JSONExporter {
	return &JSONExporter{path: path}
}

// Export writes the intervals for source, replacing any existing file.
func (e *JSONExporter) Export(source string, intervals []domain.Interval) error {
	doc := TimelineDocument{
		Version:   1,
		Source:    source,
		Intervals: IntervalRecords(intervals),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(e.path, append(data, '\n'))
}

// ReadTimelineDocument reads a file written by Export.
func ReadTimelineDocument(path string) (*TimelineDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc TimelineDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse timeline document: %w", err)
	}
	return &doc, nil
}

// atomicWrite writes data to path atomically (write + rename).
func atomicWrite(path string, data []byte) error {
	// Temp file is unique per process to avoid races between writers.
	tmpPath := fmt.Sprintf("%s.%d.tmp", path, os.Getpid())
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath) // Clean up on failure
		return err
	}
	return nil
}
