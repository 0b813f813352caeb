package cmd

import (
	"reflect"
	"testing"

	"malpha/internal/config"
	"malpha/internal/media"
	"malpha/internal/resolve"
)

func TestStrategies(t *testing.T) {
	in := []config.Strategy{
		{Name: "relay", Mode: "relay", Endpoints: []string{"https://example.com/api/cobalt"}},
		{Name: "mirrors", Mode: "direct", Endpoints: []string{"https://a", "https://b"}, Paths: []string{"/"}},
	}

	got := strategies(in)
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Mode != resolve.ModeRelay || got[1].Mode != resolve.ModeDirect {
		t.Errorf("modes = %s, %s", got[0].Mode, got[1].Mode)
	}
	if !reflect.DeepEqual(got[1].Endpoints, in[1].Endpoints) || got[1].Paths[0] != "/" {
		t.Errorf("second = %+v", got[1])
	}
}

func TestDirectEndpoints(t *testing.T) {
	in := []config.Strategy{
		{Mode: "relay", Endpoints: []string{"https://relay"}},
		{Mode: "direct", Endpoints: []string{"https://a", "https://b"}},
		{Mode: "direct", Endpoints: []string{"https://b", "https://c"}},
	}

	got := directEndpoints(in)
	want := []string{"https://a", "https://b", "https://c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("directEndpoints() = %v, want %v", got, want)
	}
}

func TestChooseSources(t *testing.T) {
	d := &media.Descriptor{Sources: []media.Source{{URI: "a"}, {URI: "b"}, {URI: "c"}}}

	flagAll = true
	t.Cleanup(func() { flagAll = false })
	got, err := chooseSources(d)
	if err != nil || !reflect.DeepEqual(got, []int{0, 1, 2}) {
		t.Errorf("--all = %v, %v", got, err)
	}

	// JSON output never opens the picker, so the first source wins.
	flagAll = false
	flagJSON = true
	t.Cleanup(func() { flagJSON = false })
	got, err = chooseSources(d)
	if err != nil || !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("default = %v, %v", got, err)
	}
}

func TestHistoryEntry(t *testing.T) {
	d := &media.Descriptor{
		ID:       "media_1",
		Kind:     media.Clip,
		Platform: "tiktok",
		Author:   "someone",
		Sources:  []media.Source{{URI: "https://cdn/1.mp4"}, {URI: "https://cdn/2.mp4"}},
	}

	e := historyEntry(d, 1, "/tmp/x.mp4")
	if e.ID != "media_1" || e.SourceURI != "https://cdn/2.mp4" || e.Path != "/tmp/x.mp4" || e.Kind != media.Clip {
		t.Errorf("historyEntry() = %+v", e)
	}
	if e.DownloadedAt.IsZero() {
		t.Error("DownloadedAt not set")
	}
}
