package resolve

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"malpha/internal/media"
	"malpha/internal/platform"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("url.Parse(%q): %v", raw, err)
	}
	return u
}

func TestNormalizeSingleKinds(t *testing.T) {
	ig, _ := platform.Lookup("instagram")
	input := mustParse(t, "https://www.instagram.com/p/abc/")
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name string
		p    Payload
		want media.Kind
	}{
		{"mp4 url", Payload{Kind: PayloadSingle, URL: "https://cdn/x.mp4"}, media.Clip},
		{"jpeg url", Payload{Kind: PayloadSingle, URL: "https://cdn/x.jpeg?sig=1"}, media.Image},
		{"webp url", Payload{Kind: PayloadSingle, URL: "https://cdn/x.webp"}, media.Image},
		{"mp3 url", Payload{Kind: PayloadSingle, URL: "https://cdn/x.mp3"}, media.Audio},
		{"opus url", Payload{Kind: PayloadSingle, URL: "https://cdn/x.opus"}, media.Audio},
		{"opaque url defaults to clip", Payload{Kind: PayloadSingle, URL: "https://cdn/tunnel?id=1"}, media.Clip},
		{"filename hint", Payload{Kind: PayloadSingle, URL: "https://cdn/tunnel?id=1", Filename: "photo.png"}, media.Image},
		{"type marker wins over extension", Payload{Kind: PayloadSingle, URL: "https://cdn/x.jpg", Type: "video"}, media.Clip},
		{"audio marker wins", Payload{Kind: PayloadSingle, URL: "https://cdn/x.mp4", Audio: true}, media.Audio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.p
			d, err := normalize(&p, input, ig, now)
			if err != nil {
				t.Fatalf("normalize error: %v", err)
			}
			if d.Kind != tt.want {
				t.Errorf("Kind = %s, want %s", d.Kind, tt.want)
			}
			if len(d.Sources) != 1 || d.Sources[0].Label != "Download Media" {
				t.Errorf("Sources = %+v", d.Sources)
			}
			if d.PrimaryURL != tt.p.URL {
				t.Errorf("PrimaryURL = %q, want %q", d.PrimaryURL, tt.p.URL)
			}
			if !d.ResolvedAt.Equal(now) {
				t.Errorf("ResolvedAt = %v, want %v", d.ResolvedAt, now)
			}
			if d.Platform != "instagram" || d.InputURL != input.String() {
				t.Errorf("Platform/InputURL = %q/%q", d.Platform, d.InputURL)
			}
		})
	}
}

func TestNormalizePlaceholders(t *testing.T) {
	d, err := normalize(&Payload{Kind: PayloadSingle, URL: "https://cdn/x.mp4"},
		mustParse(t, "https://fb.watch/abc"), platform.Platform{Name: "facebook"}, time.Now())
	if err != nil {
		t.Fatalf("normalize error: %v", err)
	}
	if d.Author != media.PlaceholderAuthor {
		t.Errorf("Author = %q", d.Author)
	}
	if d.Caption != media.PlaceholderCaption {
		t.Errorf("Caption = %q", d.Caption)
	}
	if d.ThumbnailURL != media.PlaceholderThumbnail {
		t.Errorf("ThumbnailURL = %q", d.ThumbnailURL)
	}
	if !strings.HasPrefix(d.ID, "media_") {
		t.Errorf("ID = %q, want media_ prefix", d.ID)
	}
}

func TestNormalizeFilenameBecomesCaption(t *testing.T) {
	p := &Payload{Kind: PayloadSingle, URL: "https://cdn/x", Filename: "instagram_abc.mp4"}
	d, err := normalize(p, mustParse(t, "https://instagram.com/p/abc"), platform.Platform{Name: "instagram"}, time.Now())
	if err != nil {
		t.Fatalf("normalize error: %v", err)
	}
	if d.Caption != "instagram_abc.mp4" || d.Filename != "instagram_abc.mp4" {
		t.Errorf("Caption/Filename = %q/%q", d.Caption, d.Filename)
	}
}

func TestNormalizeMulti(t *testing.T) {
	p := &Payload{
		Kind: PayloadMulti,
		Items: []PickerItem{
			{URL: "https://cdn/1.jpg", Type: "photo", Thumb: "https://cdn/1t.jpg"},
			{URL: ""},
			{URL: "https://cdn/2.mp4", Type: "video"},
		},
		AudioURL: "https://cdn/bg.mp3",
	}

	d, err := normalize(p, mustParse(t, "https://www.instagram.com/p/xyz/"), platform.Platform{Name: "instagram"}, time.Now())
	if err != nil {
		t.Fatalf("normalize error: %v", err)
	}

	want := []media.Source{
		{URI: "https://cdn/1.jpg", Label: "Download Item 1"},
		{URI: "https://cdn/2.mp4", Label: "Download Item 2"},
		{URI: "https://cdn/bg.mp3", Label: "Download Audio"},
	}
	if len(d.Sources) != len(want) {
		t.Fatalf("Sources = %+v", d.Sources)
	}
	for i := range want {
		if d.Sources[i] != want[i] {
			t.Errorf("Sources[%d] = %+v, want %+v", i, d.Sources[i], want[i])
		}
	}
	if d.Kind != media.Image {
		t.Errorf("Kind = %s, want image", d.Kind)
	}
	if d.ThumbnailURL != "https://cdn/1t.jpg" {
		t.Errorf("ThumbnailURL = %q", d.ThumbnailURL)
	}
	if d.PrimaryURL != "https://cdn/1.jpg" {
		t.Errorf("PrimaryURL = %q", d.PrimaryURL)
	}
}

func TestNormalizeMultiKindFromExtension(t *testing.T) {
	p := &Payload{Kind: PayloadMulti, Items: []PickerItem{{URL: "https://cdn/1.mp4"}}}
	d, err := normalize(p, mustParse(t, "https://www.tiktok.com/@u/video/1"), platform.Platform{Name: "tiktok"}, time.Now())
	if err != nil {
		t.Fatalf("normalize error: %v", err)
	}
	if d.Kind != media.Clip {
		t.Errorf("Kind = %s, want clip", d.Kind)
	}
	if d.ThumbnailURL != media.PlaceholderThumbnail {
		t.Errorf("ThumbnailURL = %q", d.ThumbnailURL)
	}
}

func TestNormalizeProfile(t *testing.T) {
	ig, _ := platform.Lookup("instagram")
	tt, _ := platform.Lookup("tiktok")
	p := &Payload{Kind: PayloadSingle, URL: "https://cdn/avatar.jpg"}

	d, err := normalize(p, mustParse(t, "https://www.instagram.com/natgeo/"), ig, time.Now())
	if err != nil {
		t.Fatalf("normalize error: %v", err)
	}
	if d.Kind != media.Profile {
		t.Errorf("instagram profile Kind = %s, want profile", d.Kind)
	}

	d, err = normalize(p, mustParse(t, "https://www.tiktok.com/@someone"), tt, time.Now())
	if err != nil {
		t.Fatalf("normalize error: %v", err)
	}
	if d.Kind != media.Profile {
		t.Errorf("tiktok profile Kind = %s, want profile", d.Kind)
	}

	posts := []struct {
		plat  string
		input string
	}{
		{"instagram", "https://www.instagram.com/p/abc/"},
		{"pinterest", "https://pin.it/4XyZabc"},
		{"facebook", "https://www.facebook.com/permalink.php?story_fbid=1&id=2"},
		{"facebook", "https://fb.watch/abcDEF/"},
		{"any", "https://pin.it/4XyZabc"},
		{"any", "https://www.facebook.com/permalink.php?story_fbid=1&id=2"},
	}
	for _, tc := range posts {
		plat, _ := platform.Lookup(tc.plat)
		d, err := normalize(p, mustParse(t, tc.input), plat, time.Now())
		if err != nil {
			t.Fatalf("normalize(%s) error: %v", tc.input, err)
		}
		if d.Kind != media.Image {
			t.Errorf("%s via %s: Kind = %s, want image", tc.input, tc.plat, d.Kind)
		}
	}
}

func TestNormalizeNoSources(t *testing.T) {
	input := mustParse(t, "https://instagram.com/p/abc")
	plat := platform.Platform{Name: "instagram"}

	cases := []*Payload{
		{Kind: PayloadSingle, Status: "tunnel"},
		{Kind: PayloadMulti},
		{Kind: PayloadMulti, Items: []PickerItem{{Type: "photo"}}, AudioURL: "https://cdn/bg.mp3"},
	}
	for i, p := range cases {
		if _, err := normalize(p, input, plat, time.Now()); !errors.Is(err, ErrNormalization) {
			t.Errorf("case %d: error = %v, want ErrNormalization", i, err)
		}
	}

	if _, err := normalize(&Payload{Kind: PayloadError}, input, plat, time.Now()); err == nil {
		t.Error("normalize(error payload) should fail")
	}
}

func TestNormalizeUniqueIDs(t *testing.T) {
	input := mustParse(t, "https://instagram.com/p/abc")
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		d, err := normalize(&Payload{Kind: PayloadSingle, URL: "https://cdn/x.mp4"}, input, platform.Platform{}, time.Now())
		if err != nil {
			t.Fatal(err)
		}
		if seen[d.ID] {
			t.Fatalf("duplicate ID %q", d.ID)
		}
		seen[d.ID] = true
	}
}
