// Package instances checks whether extraction mirrors are reachable and
// whether they accept cross-origin requests.
package instances

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"malpha/internal/httputil"
)

// Result is the outcome of probing one mirror.
type Result struct {
	Endpoint    string
	AllowOrigin string // Access-Control-Allow-Origin returned for OPTIONS /
	Version     string
	Latency     time.Duration
	Err         error
}

// CORSOpen reports whether browsers may call the mirror from any origin.
func (r Result) CORSOpen() bool {
	return r.AllowOrigin == "*" || r.AllowOrigin == "null"
}

// Online reports whether the mirror answered the version probe.
func (r Result) Online() bool {
	return r.Err == nil
}

// Prober probes mirrors with a per-endpoint deadline.
type Prober struct {
	Client  httputil.Doer
	Timeout time.Duration
	Origin  string // Sent as Origin on the OPTIONS preflight
}

// ProbeAll probes every endpoint concurrently and returns results in input
// order.
func (p *Prober) ProbeAll(ctx context.Context, endpoints []string) []Result {
	results := make([]Result, len(endpoints))
	var wg sync.WaitGroup
	for i, ep := range endpoints {
		wg.Add(1)
		go func(i int, ep string) {
			defer wg.Done()
			results[i] = p.Probe(ctx, ep)
		}(i, ep)
	}
	wg.Wait()
	return results
}

// Probe sends an OPTIONS preflight to the mirror root and reads its version
// from /api/serverInfo, falling back to the root document of newer mirrors.
func (p *Prober) Probe(ctx context.Context, endpoint string) Result {
	res := Result{Endpoint: endpoint}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	res.AllowOrigin = p.preflight(ctx, endpoint)

	for _, path := range []string{"/api/serverInfo", "/"} {
		body, err := httputil.GetJSON(ctx, p.Client, httputil.JoinEndpoint(endpoint, path))
		if err != nil {
			res.Err = err
			continue
		}
		v := gjson.GetManyBytes(body, "version", "cobalt.version")
		switch {
		case v[0].String() != "":
			res.Version = v[0].String()
		case v[1].String() != "":
			res.Version = v[1].String()
		default:
			res.Err = fmt.Errorf("%s: no version in response", path)
			continue
		}
		res.Err = nil
		break
	}
	res.Latency = time.Since(start)
	return res
}

func (p *Prober) preflight(ctx context.Context, endpoint string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodOptions, httputil.JoinEndpoint(endpoint, "/"), nil)
	if err != nil {
		return ""
	}
	origin := p.Origin
	if origin == "" {
		origin = "https://example.com"
	}
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("User-Agent", httputil.UserAgent)

	resp, err := p.Client.Do(req)
	if err != nil {
		return ""
	}
	resp.Body.Close()
	return resp.Header.Get("Access-Control-Allow-Origin")
}
