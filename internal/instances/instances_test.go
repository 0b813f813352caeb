package instances

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newMirror(allowOrigin string, handler http.HandlerFunc) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			if allowOrigin != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
		handler(w, r)
	}))
}

func TestProbeLegacyServerInfo(t *testing.T) {
	srv := newMirror("*", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/serverInfo" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"version":"7.15","name":"test"}`))
	})
	defer srv.Close()

	p := &Prober{Client: srv.Client(), Timeout: time.Second}
	res := p.Probe(context.Background(), srv.URL)

	if !res.Online() || res.Version != "7.15" {
		t.Errorf("result = %+v", res)
	}
	if !res.CORSOpen() {
		t.Errorf("AllowOrigin = %q, want open", res.AllowOrigin)
	}
}

func TestProbeRootInfo(t *testing.T) {
	srv := newMirror("https://cobalt.tools", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"cobalt":{"version":"10.1.0"}}`))
	})
	defer srv.Close()

	p := &Prober{Client: srv.Client(), Timeout: time.Second}
	res := p.Probe(context.Background(), srv.URL)

	if !res.Online() || res.Version != "10.1.0" {
		t.Errorf("result = %+v", res)
	}
	if res.CORSOpen() {
		t.Error("a single allowed origin is not open CORS")
	}
}

func TestProbeOffline(t *testing.T) {
	srv := newMirror("", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	})
	defer srv.Close()

	p := &Prober{Client: srv.Client(), Timeout: time.Second}
	res := p.Probe(context.Background(), srv.URL)
	if res.Online() {
		t.Errorf("result = %+v, want offline", res)
	}
}

func TestProbeAllKeepsOrder(t *testing.T) {
	ok := newMirror("*", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"version":"7"}`))
	})
	defer ok.Close()

	p := &Prober{Client: http.DefaultClient, Timeout: 200 * time.Millisecond}
	results := p.ProbeAll(context.Background(), []string{"http://127.0.0.1:1", ok.URL})

	if len(results) != 2 {
		t.Fatalf("len = %d", len(results))
	}
	if results[0].Online() || results[0].Endpoint != "http://127.0.0.1:1" {
		t.Errorf("first = %+v", results[0])
	}
	if !results[1].Online() || results[1].Endpoint != ok.URL {
		t.Errorf("second = %+v", results[1])
	}
}
