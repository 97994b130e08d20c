package enrich

import (
	"runtime"
	"sort"
	"strings"
	"sync"

	"eventstats/internal/metrics"
	"eventstats/pkg/models"
)

// GeoResolver maps an ip column value to a "countries/cities" string.
type GeoResolver interface {
	Resolve(field string) (string, bool)
}

// AgentResolver maps a user agent string to "device/os/browser".
type AgentResolver interface {
	Resolve(ua string) string
}

// Builder enriches raw event rows with their derived dimensions. Rows are
// independent, so enrichment runs on a bounded worker pool; results are
// re-associated with their origin row by index, never by completion order.
type Builder struct {
	geo     GeoResolver
	agent   AgentResolver
	workers int
}

// NewBuilder creates a builder. workers <= 0 means one worker per CPU.
func NewBuilder(geo GeoResolver, agent AgentResolver, workers int) *Builder {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Builder{geo: geo, agent: agent, workers: workers}
}

// Build enriches every row, preserving input order.
func (b *Builder) Build(events []models.RawEvent) []models.EnrichedRecord {
	records := make([]models.EnrichedRecord, len(events))

	jobs := make(chan int, b.workers*4)
	var wg sync.WaitGroup
	for w := 0; w < b.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				records[i] = b.enrich(events[i])
			}
		}()
	}
	for i := range events {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return records
}

func (b *Builder) enrich(ev models.RawEvent) models.EnrichedRecord {
	// The uniqueness key is derived from the original columns before any
	// enrichment or renaming.
	rec := models.EnrichedRecord{
		RawKey:    ev.RawKey(),
		Timestamp: ev.Date + " " + ev.Time,
		UserID:    ev.UserID,
		URL:       ev.URL,
	}

	if v, ok := b.geo.Resolve(ev.IP); ok && v != "" {
		parts := strings.SplitN(v, "/", 2)
		rec.Country = parts[0]
		if len(parts) == 2 {
			rec.City = parts[1]
		}
	} else {
		metrics.GeoFailures.Inc()
	}

	agentParts := strings.SplitN(b.agent.Resolve(ev.UserAgent), "/", 3)
	rec.Device = agentParts[0]
	if len(agentParts) > 1 {
		rec.OS = agentParts[1]
	}
	if len(agentParts) > 2 {
		rec.Browser = agentParts[2]
	}
	if rec.Device == "Other" && rec.OS == "Other" && rec.Browser == "Other" {
		metrics.AgentFallbacks.Inc()
	}

	return rec
}

// Dedup removes whole-row duplicates, keeping the last occurrence of each
// raw event key. This is the storage-identity dedup pass; it is idempotent.
func Dedup(records []models.EnrichedRecord) []models.EnrichedRecord {
	last := make(map[string]int, len(records))
	for i, r := range records {
		last[r.RawKey] = i
	}

	out := make([]models.EnrichedRecord, 0, len(last))
	for i, r := range records {
		if last[r.RawKey] == i {
			out = append(out, r)
		}
	}
	metrics.DuplicatesDropped.Add(float64(len(records) - len(out)))
	return out
}

// UniqueUsers returns the records whose user_id appears exactly once,
// sorted by user_id. Users with more than one row are dropped entirely so
// the summary top lists count unique users, not events. This is distinct
// from Dedup and must stay that way.
func UniqueUsers(records []models.EnrichedRecord) []models.EnrichedRecord {
	counts := make(map[string]int, len(records))
	for _, r := range records {
		counts[r.UserID]++
	}

	out := make([]models.EnrichedRecord, 0, len(records))
	for _, r := range records {
		if counts[r.UserID] == 1 {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}
