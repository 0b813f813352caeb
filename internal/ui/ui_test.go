package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"malpha/internal/media"
)

func sampleDescriptor() *media.Descriptor {
	return &media.Descriptor{
		ID:           "media_1",
		Kind:         media.Image,
		Author:       "Jane Doe",
		Caption:      "sunset\nat the pier",
		ThumbnailURL: "https://cdn/t.jpg",
		PrimaryURL:   "https://cdn/1.jpg",
		Platform:     "instagram",
		Sources: []media.Source{
			{URI: "https://cdn/1.jpg", Label: "Download Item 1"},
			{URI: "https://cdn/2.jpg", Label: "Download Item 2"},
		},
	}
}

func TestCard(t *testing.T) {
	out := Card(sampleDescriptor())

	for _, want := range []string{"IMAGE", "Jane Doe", "sunset at the pier", "instagram", "Download Item 2", "https://cdn/2.jpg"} {
		if !strings.Contains(out, want) {
			t.Errorf("Card() missing %q:\n%s", want, out)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("abcdefghij", 5); got != "abcd…" {
		t.Errorf("truncate long = %q", got)
	}
	if got := truncate("a\n\tb", 10); got != "a b" {
		t.Errorf("truncate whitespace = %q", got)
	}
}

func TestSourceLabels(t *testing.T) {
	labels := SourceLabels(sampleDescriptor())
	if len(labels) != 2 || !strings.HasPrefix(labels[1], "Download Item 2") {
		t.Errorf("SourceLabels() = %v", labels)
	}
}

func TestSelectModelEnter(t *testing.T) {
	m := newSelectModel("pick", []string{"first", "second", "third"})

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, cmd := next.(selectModel).Update(tea.KeyMsg{Type: tea.KeyEnter})

	got := next.(selectModel)
	if got.chosen != 1 {
		t.Errorf("chosen = %d, want 1", got.chosen)
	}
	if cmd == nil {
		t.Error("enter should quit")
	}
}

func TestSelectModelCancel(t *testing.T) {
	m := newSelectModel("pick", []string{"first", "second"})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if next.(selectModel).chosen != -1 {
		t.Error("esc should not choose")
	}
	if cmd == nil {
		t.Error("esc should quit")
	}
	if next.(selectModel).View() != "" {
		t.Error("view should be empty after quitting")
	}
}

func TestSelectShortcuts(t *testing.T) {
	if _, err := selectWith("pick", nil, strings.NewReader(""), &strings.Builder{}); err == nil {
		t.Error("empty list should fail")
	}
	idx, err := selectWith("pick", []string{"only"}, strings.NewReader(""), &strings.Builder{})
	if err != nil || idx != 0 {
		t.Errorf("single item = %d, %v", idx, err)
	}
}
