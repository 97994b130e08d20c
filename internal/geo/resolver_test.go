package geo

import (
	"errors"
	"testing"
)

type fakeSource struct {
	known map[string]Location
	bad   map[string]bool
}

func (f *fakeSource) Lookup(addr string) (Location, bool, error) {
	if f.bad[addr] {
		return Location{}, false, errors.New("invalid ip address")
	}
	loc, ok := f.known[addr]
	return loc, ok, nil
}

func (f *fakeSource) Close() error { return nil }

func newTestResolver() *Resolver {
	return NewResolver(&fakeSource{
		known: map[string]Location{
			"86.40.128.3":    {Country: "Ireland", City: "Edgeworthstown"},
			"94.14.226.156":  {Country: "United Kingdom", City: "Greenwich"},
			"212.0.138.134":  {Country: "Spain", City: "Almuñécar"},
			"83.168.247.115": {Country: "Sweden", City: "Lindesberg"},
			"193.110.128.5":  {Country: "Spain"},
			"10.44.12.9":     {City: "Jarrow"},
		},
		bad: map[string]bool{
			"not-an-ip": true,
			"999.999":   true,
			"":          true,
		},
	})
}

func TestResolveSingleAddress(t *testing.T) {
	r := newTestResolver()

	cases := []struct {
		field string
		want  string
		ok    bool
	}{
		{"86.40.128.3", "Ireland/Edgeworthstown", true},
		{"193.110.128.5", "Spain", true},
		{"10.44.12.9", "/Jarrow", true},
		{"8.8.8.8", "", false}, // unknown to the source
		{"not-an-ip", "", true},
		{"", "", true},
	}
	for _, c := range cases {
		got, ok := r.Resolve(c.field)
		if got != c.want || ok != c.ok {
			t.Fatalf("Resolve(%q) = (%q, %v), want (%q, %v)", c.field, got, ok, c.want, c.ok)
		}
	}
}

func TestResolveMultipleAddressesPreservesOrder(t *testing.T) {
	r := newTestResolver()

	got, ok := r.Resolve("212.0.138.134, 83.168.247.115")
	if !ok || got != "Spain,Sweden/Almuñécar,Lindesberg" {
		t.Fatalf("unexpected multi-address result: (%q, %v)", got, ok)
	}
}

func TestResolveMultipleAddressesPartialLookups(t *testing.T) {
	r := newTestResolver()

	// Country-only and city-only tokens feed only their own list; an
	// unknown token contributes nothing.
	got, ok := r.Resolve("193.110.128.5, 8.8.8.8, 10.44.12.9")
	if !ok || got != "Spain/Jarrow" {
		t.Fatalf("unexpected partial result: (%q, %v)", got, ok)
	}
}

func TestResolveMultipleAddressesFailsWholeField(t *testing.T) {
	r := newTestResolver()

	// One malformed token degrades the entire field, including tokens
	// that already resolved.
	got, ok := r.Resolve("86.40.128.3, 999.999")
	if !ok || got != "" {
		t.Fatalf("expected empty field, got (%q, %v)", got, ok)
	}
}

func TestResolveMultipleUnknownAddresses(t *testing.T) {
	r := newTestResolver()

	got, ok := r.Resolve("8.8.8.8, 8.8.4.4")
	if !ok || got != "/" {
		t.Fatalf("expected bare separator for unknown tokens, got (%q, %v)", got, ok)
	}
}
