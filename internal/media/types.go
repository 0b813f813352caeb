// Package media defines shared types for the malpha application.
package media

import "time"

// Kind classifies how the primary asset of a descriptor should be rendered.
type Kind int

const (
	Unknown Kind = iota
	Profile
	Clip
	Audio
	Image
)

func (k Kind) String() string {
	switch k {
	case Profile:
		return "profile"
	case Clip:
		return "clip"
	case Audio:
		return "audio"
	case Image:
		return "image"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String. Unrecognized names map to Unknown.
func ParseKind(s string) Kind {
	switch s {
	case "profile":
		return Profile
	case "clip":
		return Clip
	case "audio":
		return Audio
	case "image":
		return Image
	default:
		return Unknown
	}
}

// MarshalText encodes the kind by name so JSON output stays readable.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	*k = ParseKind(string(b))
	return nil
}

// Placeholders used when the upstream payload carries no value.
const (
	PlaceholderAuthor    = "Unknown User"
	PlaceholderCaption   = "Video Download"
	PlaceholderThumbnail = "https://placehold.co/600x400?text=No+Thumbnail"
)

// Source is one downloadable variant of a resolved post.
type Source struct {
	URI   string `json:"uri"`
	Label string `json:"label"`
}

// Descriptor is the platform-neutral result of a successful resolution.
type Descriptor struct {
	ID           string    `json:"id"`
	Kind         Kind      `json:"kind"`
	Author       string    `json:"author"`
	PrimaryURL   string    `json:"primaryAssetUrl"`
	Caption      string    `json:"caption"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Sources      []Source  `json:"sources"`
	Filename     string    `json:"filename,omitempty"` // Upstream file name hint
	Platform     string    `json:"platform"`
	InputURL     string    `json:"inputUrl"` // Normalized input URL
	ResolvedAt   time.Time `json:"resolvedAt"`
}

// HistoryEntry is a downloaded descriptor recorded in the local history.
type HistoryEntry struct {
	ID           string
	InputURL     string
	Platform     string
	Kind         Kind
	Author       string
	Caption      string
	ThumbnailURL string
	SourceURI    string // The source that was downloaded
	Path         string // Local file path
	DownloadedAt time.Time
}
