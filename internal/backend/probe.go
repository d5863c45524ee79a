package backend

import (
	"os/exec"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/loomworks/loom/internal/constants"
)

// Prober answers whether a backend CLI binary is installed. Lookups are
// cached with a TTL so repeated selection passes and doctor runs do not
// hammer the filesystem.
type Prober struct {
	cache    *gocache.Cache
	lookPath func(string) (string, error)
}

// ProberOption is a functional option for configuring Prober.
type ProberOption func(*Prober)

// WithLookPath overrides the binary lookup function. Tests use this to
// fabricate installed and missing backends.
func WithLookPath(fn func(string) (string, error)) ProberOption {
	return func(p *Prober) {
		p.lookPath = fn
	}
}

// WithProbeTTL overrides how long a lookup result is trusted.
func WithProbeTTL(ttl time.Duration) ProberOption {
	return func(p *Prober) {
		p.cache = gocache.New(ttl, 2*ttl)
	}
}

// NewProber creates a Prober with the default TTL.
func NewProber(opts ...ProberOption) *Prober {
	p := &Prober{
		cache:    gocache.New(constants.ProbeCacheTTL, 2*constants.ProbeCacheTTL),
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// probeResult is what the cache stores per binary name.
type probeResult struct {
	path string
	err  error
}

// Path returns the resolved binary path, or the lookup error. Results
// are cached for the configured TTL, including negative ones.
func (p *Prober) Path(name string) (string, error) {
	if cached, ok := p.cache.Get(name); ok {
		result := cached.(probeResult)
		return result.path, result.err
	}

	path, err := p.lookPath(name)
	p.cache.Set(name, probeResult{path: path, err: err}, gocache.DefaultExpiration)
	return path, err
}

// Available reports whether the named binary is on PATH.
func (p *Prober) Available(name string) bool {
	_, err := p.Path(name)
	return err == nil
}

// Flush drops all cached lookups so the next probe hits the filesystem.
func (p *Prober) Flush() {
	p.cache.Flush()
}
