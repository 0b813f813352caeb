package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		if got := r.Header.Get("X-Extra"); got != "yes" {
			t.Errorf("X-Extra = %q, want yes", got)
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		w.Write([]byte(`{"echo":"` + body["url"] + `"}`))
	}))
	defer srv.Close()

	header := http.Header{}
	header.Set("X-Extra", "yes")

	got, err := PostJSON(context.Background(), srv.Client(), srv.URL, map[string]string{"url": "https://instagram.com/p/x"}, header)
	if err != nil {
		t.Fatalf("PostJSON() error: %v", err)
	}
	if string(got) != `{"echo":"https://instagram.com/p/x"}` {
		t.Errorf("body = %s", got)
	}
}

func TestPostJSONStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := PostJSON(context.Background(), srv.Client(), srv.URL, map[string]string{}, nil)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Fatalf("error = %v, want StatusError 404", err)
	}
}

func TestPostJSONRejectsBadURL(t *testing.T) {
	if _, err := PostJSON(context.Background(), http.DefaultClient, "ftp://example.com", nil, nil); err == nil {
		t.Error("expected error for ftp URL")
	}
}

func TestNewProxiedClient(t *testing.T) {
	tests := []struct {
		name    string
		proxy   string
		wantErr bool
	}{
		{"none", "", false},
		{"socks5", "socks5://127.0.0.1:1080", false},
		{"http", "http://127.0.0.1:3128", false},
		{"bad scheme", "gopher://127.0.0.1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewProxiedClient(tt.proxy)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewProxiedClient(%q) error = %v, wantErr %v", tt.proxy, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if c == nil {
				t.Fatal("nil client without error")
			}
			assertStreamingClient(t, c)
		})
	}
}

// assertStreamingClient checks that a client bounds connection setup but
// leaves body reads to the request context.
func assertStreamingClient(t *testing.T, c *http.Client) {
	t.Helper()
	if c.Timeout != 0 {
		t.Errorf("client Timeout = %s, want none", c.Timeout)
	}
	tr, ok := c.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("Transport = %T, want *http.Transport", c.Transport)
	}
	if tr.ResponseHeaderTimeout <= 0 || tr.TLSHandshakeTimeout <= 0 {
		t.Errorf("setup timeouts = %s/%s, want both set", tr.ResponseHeaderTimeout, tr.TLSHandshakeTimeout)
	}
	if tr.DialContext == nil && tr.Dial == nil {
		t.Error("transport has no dialer")
	}
}

func TestNewClientHasNoOverallTimeout(t *testing.T) {
	assertStreamingClient(t, NewClient())
}
