package geo

import (
	"strings"
)

// Location is the result of a single-address lookup.
type Location struct {
	Country string
	City    string
}

// Source looks up one IP address. The boolean reports whether the source
// knows anything about the address; an error means the address could not
// be interpreted at all.
type Source interface {
	Lookup(addr string) (Location, bool, error)
	Close() error
}

// Resolver maps the raw ip column of an event row to a combined
// "countries/cities" value.
type Resolver struct {
	src Source
}

// NewResolver creates a resolver backed by the given source.
func NewResolver(src Source) *Resolver {
	return &Resolver{src: src}
}

// Resolve maps an ip field, which holds either one address or several
// joined by ", ", to "<countries-joined-by-comma>/<cities-joined-by-comma>".
// A lookup error for any address degrades the whole field to the empty
// string. The boolean is false only for a single address the source knows
// nothing about; downstream treats that the same as the empty string.
func (r *Resolver) Resolve(field string) (string, bool) {
	if strings.Contains(field, ",") {
		var countries, cities []string
		for _, token := range strings.Split(field, ",") {
			loc, ok, err := r.src.Lookup(strings.TrimSpace(token))
			if err != nil {
				return "", true
			}
			if !ok {
				continue
			}
			if loc.Country != "" {
				countries = append(countries, loc.Country)
			}
			if loc.City != "" {
				cities = append(cities, loc.City)
			}
		}
		return strings.Join(countries, ",") + "/" + strings.Join(cities, ","), true
	}

	loc, ok, err := r.src.Lookup(field)
	if err != nil {
		return "", true
	}
	if !ok {
		return "", false
	}
	switch {
	case loc.Country != "" && loc.City != "":
		return loc.Country + "/" + loc.City, true
	case loc.City == "":
		return loc.Country, true
	default:
		return "/" + loc.City, true
	}
}

// Close releases the underlying source.
func (r *Resolver) Close() error {
	return r.src.Close()
}
