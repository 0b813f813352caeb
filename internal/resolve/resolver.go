// Package resolve turns a social-media post URL into a media descriptor by
// asking a configured, ordered list of extraction endpoints until one of
// them answers with a usable payload.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"malpha/internal/httputil"
	"malpha/internal/media"
	"malpha/internal/platform"
)

// DefaultAttemptTimeout bounds a single endpoint attempt.
const DefaultAttemptTimeout = 8 * time.Second

// Mode selects how a strategy reaches its endpoints.
type Mode string

const (
	// ModeRelay posts to a same-origin relay that forwards the body upstream.
	ModeRelay Mode = "relay"
	// ModeDirect posts straight to a public extraction mirror.
	ModeDirect Mode = "direct"
)

// Strategy is one entry of the ordered fallback list.
type Strategy struct {
	Name      string
	Mode      Mode
	Endpoints []string // Base URLs, tried in order
	Paths     []string // Suffixes appended to every endpoint, tried in order
}

// Enricher fills placeholder fields of a freshly built descriptor.
// Failures are its own concern; it must never clear Sources.
type Enricher interface {
	Enrich(ctx context.Context, d *media.Descriptor)
}

// Options configures a Resolver.
type Options struct {
	Platform       platform.Platform
	Strategies     []Strategy
	AttemptTimeout time.Duration
	Client         httputil.Doer
	UserAgent      string
	APIKey         string // Sent as "Authorization: Api-Key <key>" to direct mirrors
	Logger         logrus.FieldLogger
	Enricher       Enricher
}

// candidate is a single endpoint attempt expanded from a Strategy.
type candidate struct {
	strategy string
	mode     Mode
	endpoint string
}

// Resolver is immutable after New and safe for concurrent use.
type Resolver struct {
	platform   platform.Platform
	candidates []candidate
	timeout    time.Duration
	client     httputil.Doer
	userAgent  string
	apiKey     string
	log        logrus.FieldLogger
	enricher   Enricher
	now        func() time.Time
}

// New builds a Resolver. The strategy list is copied.
func New(opts Options) *Resolver {
	r := &Resolver{
		platform:   opts.Platform,
		candidates: expand(opts.Strategies),
		timeout:    opts.AttemptTimeout,
		client:     opts.Client,
		userAgent:  opts.UserAgent,
		apiKey:     opts.APIKey,
		log:        opts.Logger,
		enricher:   opts.Enricher,
		now:        time.Now,
	}
	if r.timeout <= 0 {
		r.timeout = DefaultAttemptTimeout
	}
	if r.client == nil {
		r.client = httputil.NewClient()
	}
	if r.userAgent == "" {
		r.userAgent = httputil.UserAgent
	}
	if r.log == nil {
		r.log = logrus.StandardLogger()
	}
	return r
}

// expand flattens strategies into endpoint × path candidates, preserving order.
func expand(strategies []Strategy) []candidate {
	var out []candidate
	for _, s := range strategies {
		paths := s.Paths
		if len(paths) == 0 {
			paths = []string{""}
		}
		for _, ep := range s.Endpoints {
			for _, p := range paths {
				out = append(out, candidate{
					strategy: s.Name,
					mode:     s.Mode,
					endpoint: httputil.JoinEndpoint(ep, p),
				})
			}
		}
	}
	return out
}

// Endpoints returns the expanded candidate URLs in attempt order.
func (r *Resolver) Endpoints() []string {
	return lo.Map(r.candidates, func(c candidate, _ int) string { return c.endpoint })
}

// Resolve validates rawURL and tries every candidate endpoint in order until
// one yields a usable payload. It fails with ErrInvalidInput or
// ErrUnsupportedDomain before any request is made, and with an error
// matching ErrAllStrategiesFailed once every candidate has failed.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*media.Descriptor, error) {
	target, err := validate(rawURL, r.platform)
	if err != nil {
		return nil, err
	}

	plat := r.platform
	if p, ok := platform.Detect(target.Host); ok {
		plat = p
	}

	log := r.log.WithField("url", target.String())

	var last error
	attempts := 0
	for _, c := range r.candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		attempts++
		d, err := r.attempt(ctx, c, target, plat)
		if err == nil {
			log.WithFields(logrus.Fields{
				"strategy": c.strategy,
				"attempt":  attempts,
				"kind":     d.Kind,
				"sources":  len(d.Sources),
			}).Debug("resolved")
			r.enrich(ctx, d)
			return d, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		entry := log.WithFields(logrus.Fields{
			"strategy": c.strategy,
			"endpoint": c.endpoint,
			"attempt":  attempts,
		})
		if errors.Is(err, ErrNormalization) {
			entry.WithField("normalization_bug", true).Error("payload looked successful but produced no sources")
		} else {
			entry.WithError(err).Warn("attempt failed")
		}
		last = err
	}

	log.WithFields(logrus.Fields{"attempts": attempts}).WithError(last).Warn("all strategies failed")
	return nil, &FailedError{Attempts: attempts, Last: last}
}

// attempt performs one request against one candidate with its own deadline.
func (r *Resolver) attempt(ctx context.Context, c candidate, target *url.URL, plat platform.Platform) (*media.Descriptor, error) {
	actx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	fail := func(err error) error {
		return &attemptError{Strategy: c.strategy, Endpoint: c.endpoint, Err: err}
	}

	body, err := httputil.PostJSON(actx, r.client, c.endpoint, request{URL: target.String()}, r.header(c.mode))
	if err != nil {
		return nil, fail(err)
	}

	p, err := decodePayload(body)
	if err != nil {
		return nil, fail(err)
	}
	if p.Kind == PayloadError {
		return nil, fail(&UpstreamError{Status: p.Status, Text: p.Text})
	}

	d, err := normalize(p, target, plat, r.now())
	if err != nil {
		return nil, fail(err)
	}
	return d, nil
}

type request struct {
	URL string `json:"url"`
}

func (r *Resolver) header(mode Mode) http.Header {
	h := http.Header{}
	if mode == ModeRelay {
		return h
	}
	h.Set("User-Agent", r.userAgent)
	if r.apiKey != "" {
		h.Set("Authorization", "Api-Key "+r.apiKey)
	}
	return h
}

func (r *Resolver) enrich(ctx context.Context, d *media.Descriptor) {
	if r.enricher == nil {
		return
	}
	ectx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	r.enricher.Enrich(ectx, d)
}

// String describes the resolver for debug output without listing endpoints.
func (r *Resolver) String() string {
	return fmt.Sprintf("resolver(%s, %d candidates, %s per attempt)", r.platform.Name, len(r.candidates), r.timeout)
}
