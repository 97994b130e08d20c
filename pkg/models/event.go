package models

import "encoding/json"

// RawEvent is one tab-separated row of the event log, as extracted.
type RawEvent struct {
	Date      string
	Time      string
	UserID    string
	URL       string
	IP        string
	UserAgent string
}

// RawKey returns the deterministic uniqueness key for the row: the six
// original fields concatenated in file order with no separator. It must be
// derived before any enrichment or column renaming.
func (e RawEvent) RawKey() string {
	return e.Date + e.Time + e.UserID + e.URL + e.IP + e.UserAgent
}

// EnrichedRecord is a RawEvent with the ip and user agent columns replaced
// by their derived dimensions. Records are never mutated after enrichment;
// the events_log table is fully replaced on each ingestion run.
type EnrichedRecord struct {
	RawKey    string
	Timestamp string // "2006-01-02 15:04:05", UTC-naive
	UserID    string
	URL       string
	Device    string
	OS        string
	Browser   string
	Country   string
	City      string
}

// BreakdownRow is one entry of a percentage breakdown. It serializes as a
// two-element array, e.g. ["Mobile Safari","66.67%"].
type BreakdownRow struct {
	Label      string
	Percentage string
}

func (b BreakdownRow) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{b.Label, b.Percentage})
}

// CountLabel is a (count, label) summary pair, used by the country and
// city top lists.
type CountLabel struct {
	Count int
	Label string
}

// LabelCount is a (label, count) summary pair, used by the browser and OS
// top lists. The reversed field order relative to CountLabel is part of
// the summary output contract.
type LabelCount struct {
	Label string
	Count int
}
