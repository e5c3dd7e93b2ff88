package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/eliteGoblin/focusd/tracklog/internal/domain"
	"github.com/eliteGoblin/focusd/tracklog/internal/infra"
)

const (
	timeLayout   = "2006-01-02 15:04:05"
	missingLabel = "<none>"
)

// renderIntervals writes intervals as an aligned table.
func renderIntervals(w io.Writer, intervals []domain.Interval) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DOMAIN\tLABEL\tSTART\tEND\tDURATION")
	for _, iv := range intervals {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			iv.Domain,
			iv.LabelOr(missingLabel),
			iv.Start.Format(timeLayout),
			iv.End.Format(timeLayout),
			formatDuration(iv.Duration()))
	}
	return tw.Flush()
}

// renderIntervalsJSON writes intervals as a JSON array.
func renderIntervalsJSON(w io.Writer, intervals []domain.Interval) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(infra.IntervalRecords(intervals))
}

// formatDuration prints d as HH:MM:SS.
func formatDuration(d time.Duration) string {
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

// renderDates writes each distinct date with its event count.
func renderDates(w io.Writer, dates []domain.Date, counts map[domain.Date]int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tEVENTS")
	for _, d := range dates {
		fmt.Fprintf(tw, "%s\t%d\n", d, counts[d])
	}
	return tw.Flush()
}
