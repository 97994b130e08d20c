package rank

import (
	"sort"
	"strings"

	"eventstats/pkg/models"
)

// TopCountriesCities counts geographic occurrences across records and
// returns the n most frequent countries and cities, by event count.
//
// Each row feeds exactly one branch: a multi-value country credits its
// first two comma-split tokens to the country tally (its city is ignored),
// a multi-value city credits its first two tokens to the city tally, a
// single-valued row with a city credits both tallies, and a row with only
// a country credits the country tally. Rows that resolved to nothing are
// not counted.
func TopCountriesCities(records []models.EnrichedRecord, n int) (countries, cities []models.CountLabel) {
	countryCounts := make(map[string]int)
	cityCounts := make(map[string]int)

	for _, r := range records {
		switch {
		case strings.Contains(r.Country, ","):
			parts := strings.Split(r.Country, ",")
			countryCounts[parts[0]]++
			countryCounts[parts[1]]++
		case strings.Contains(r.City, ","):
			parts := strings.Split(r.City, ",")
			cityCounts[parts[0]]++
			cityCounts[parts[1]]++
		case r.City != "":
			countryCounts[r.Country]++
			cityCounts[r.City]++
		case r.Country != "":
			countryCounts[r.Country]++
		}
	}

	return topCounts(countryCounts, n), topCounts(cityCounts, n)
}

// TopBrowsersOS returns the n most frequent browser and OS labels. The
// caller passes the user-unique record subset, so these lists count
// unique users rather than events.
func TopBrowsersOS(records []models.EnrichedRecord, n int) (browsers, oses []models.LabelCount) {
	browserCounts := make(map[string]int)
	osCounts := make(map[string]int)
	for _, r := range records {
		browserCounts[r.Browser]++
		osCounts[r.OS]++
	}
	return topLabels(browserCounts, n), topLabels(osCounts, n)
}

// Ordering is count descending with ties broken by label ascending, so
// results are stable across runs.

func topCounts(counts map[string]int, n int) []models.CountLabel {
	out := make([]models.CountLabel, 0, len(counts))
	for label, count := range counts {
		out = append(out, models.CountLabel{Count: count, Label: label})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func topLabels(counts map[string]int, n int) []models.LabelCount {
	out := make([]models.LabelCount, 0, len(counts))
	for label, count := range counts {
		out = append(out, models.LabelCount{Label: label, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
