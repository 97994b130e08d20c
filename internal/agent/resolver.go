package agent

import (
	"strings"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/ua-parser/uap-go/uaparser"
)

// Fallback is the label used for every dimension of an unrecognized or
// empty user agent string.
const Fallback = "Other"

// Resolver maps a user agent string to "device/os/browser" family labels.
// Parse results are cached; event logs repeat the same agent strings
// heavily.
type Resolver struct {
	parser *uaparser.Parser
	cache  *fastcache.Cache
}

// NewResolver creates a resolver using the parser's bundled definitions.
func NewResolver() *Resolver {
	return &Resolver{
		parser: uaparser.NewFromSaved(),
		cache:  fastcache.New(16 << 20),
	}
}

// Resolve returns the "device/os/browser" value for ua. Resolution never
// fails: anything the parser cannot classify comes back as "Other" in
// each position.
func (r *Resolver) Resolve(ua string) string {
	if v := r.cache.Get(nil, []byte(ua)); v != nil {
		return string(v)
	}

	client := r.parser.Parse(ua)

	// The device family is the leading token of the parser's summary
	// form; anything past a slash belongs to the model detail.
	device := strings.TrimSpace(strings.SplitN(client.Device.Family, "/", 2)[0])
	if device == "" {
		device = Fallback
	}
	os := client.Os.Family
	if os == "" {
		os = Fallback
	}
	browser := client.UserAgent.Family
	if browser == "" {
		browser = Fallback
	}

	v := device + "/" + os + "/" + browser
	r.cache.Set([]byte(ua), []byte(v))
	return v
}
