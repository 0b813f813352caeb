package resolve

import (
	"fmt"
	"net/url"
	"time"

	"github.com/h2non/filetype"
	"github.com/rs/xid"
	"github.com/samber/lo"

	"malpha/internal/httputil"
	"malpha/internal/media"
	"malpha/internal/platform"
)

// extAliases maps extensions filetype does not register to ones it does.
var extAliases = map[string]string{
	"jpeg": "jpg",
	"jfif": "jpg",
	"opus": "ogg",
	"oga":  "ogg",
	"qt":   "mov",
}

// newID returns an identifier unique within the process.
func newID() string {
	return "media_" + xid.New().String()
}

// normalize turns a successful payload into a Descriptor.
func normalize(p *Payload, input *url.URL, plat platform.Platform, now time.Time) (*media.Descriptor, error) {
	d := &media.Descriptor{
		ID:           newID(),
		Kind:         media.Clip,
		Author:       media.PlaceholderAuthor,
		Caption:      media.PlaceholderCaption,
		ThumbnailURL: media.PlaceholderThumbnail,
		Platform:     plat.Name,
		InputURL:     input.String(),
		ResolvedAt:   now,
	}

	switch p.Kind {
	case PayloadMulti:
		items := lo.Filter(p.Items, func(it PickerItem, _ int) bool { return it.URL != "" })
		d.Sources = lo.Map(items, func(it PickerItem, i int) media.Source {
			return media.Source{URI: it.URL, Label: fmt.Sprintf("Download Item %d", i+1)}
		})
		if p.AudioURL != "" && len(d.Sources) > 0 {
			d.Sources = append(d.Sources, media.Source{URI: p.AudioURL, Label: "Download Audio"})
		}
		if len(items) > 0 {
			first := items[0]
			if k := kindFromType(first.Type); k != media.Unknown {
				d.Kind = k
			} else if k := kindFromExt(httputil.FileExt(first.URL)); k != media.Unknown {
				d.Kind = k
			}
			if first.Thumb != "" {
				d.ThumbnailURL = first.Thumb
			}
		}

	case PayloadSingle:
		if p.URL != "" {
			d.Sources = []media.Source{{URI: p.URL, Label: "Download Media"}}
		}
		d.Filename = p.Filename
		if p.Filename != "" {
			d.Caption = p.Filename
		}
		switch {
		case p.Audio:
			d.Kind = media.Audio
		case kindFromType(p.Type) != media.Unknown:
			d.Kind = kindFromType(p.Type)
		default:
			k := kindFromExt(httputil.FileExt(p.URL))
			if k == media.Unknown {
				k = kindFromExt(httputil.FileExt(p.Filename))
			}
			if k != media.Unknown {
				d.Kind = k
			}
		}

	default:
		return nil, fmt.Errorf("cannot normalize %s payload", p.Kind)
	}

	if len(d.Sources) == 0 {
		return nil, ErrNormalization
	}
	d.PrimaryURL = d.Sources[0].URI

	if d.Kind == media.Image && plat.IsProfile(input.Host, input.Path) {
		d.Kind = media.Profile
	}

	return d, nil
}

// kindFromType maps an upstream type marker to a Kind.
func kindFromType(t string) media.Kind {
	switch t {
	case "photo", "image", "gif":
		return media.Image
	case "video":
		return media.Clip
	case "audio":
		return media.Audio
	default:
		return media.Unknown
	}
}

// kindFromExt classifies a file extension by its registered MIME type.
func kindFromExt(ext string) media.Kind {
	if ext == "" {
		return media.Unknown
	}
	if alias, ok := extAliases[ext]; ok {
		ext = alias
	}
	switch filetype.GetType(ext).MIME.Type {
	case "video":
		return media.Clip
	case "image":
		return media.Image
	case "audio":
		return media.Audio
	default:
		return media.Unknown
	}
}
