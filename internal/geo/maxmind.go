package geo

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// MaxMind is a Source backed by a MaxMind city database file.
type MaxMind struct {
	db *geoip2.Reader
}

// OpenMaxMind opens the mmdb file at path.
func OpenMaxMind(path string) (*MaxMind, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open geo database %s: %w", path, err)
	}
	return &MaxMind{db: db}, nil
}

// Lookup resolves one dotted-quad address. Syntactically invalid input is
// an error; an address the database has no country or city names for is
// reported as not found.
func (m *MaxMind) Lookup(addr string) (Location, bool, error) {
	ip := net.ParseIP(addr)
	if ip == nil {
		return Location{}, false, fmt.Errorf("invalid ip address %q", addr)
	}
	rec, err := m.db.City(ip)
	if err != nil {
		return Location{}, false, err
	}
	loc := Location{
		Country: rec.Country.Names["en"],
		City:    rec.City.Names["en"],
	}
	if loc.Country == "" && loc.City == "" {
		return Location{}, false, nil
	}
	return loc, true, nil
}

// Close closes the database file.
func (m *MaxMind) Close() error {
	return m.db.Close()
}
