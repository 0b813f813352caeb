package resolve

import (
	"strings"

	"github.com/tidwall/gjson"
)

// PayloadKind tags the decoded shape of an upstream response.
type PayloadKind int

const (
	PayloadSingle PayloadKind = iota + 1
	PayloadMulti
	PayloadError
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadSingle:
		return "single"
	case PayloadMulti:
		return "multi"
	case PayloadError:
		return "error"
	default:
		return "unknown"
	}
}

// Payload is an upstream extraction response decoded into one of three shapes.
type Payload struct {
	Kind   PayloadKind
	Status string

	// Single
	URL      string
	Filename string
	Type     string // Upstream media type hint, lower-cased
	Audio    bool   // Explicit audio-only marker

	// Multi
	Items    []PickerItem
	AudioURL string // Background track some pickers carry

	// Error
	Text string
}

// PickerItem is one entry of a multi-item response.
type PickerItem struct {
	URL   string
	Type  string
	Thumb string
}

// singleStatuses are status markers that signal a single resolved asset.
var singleStatuses = map[string]bool{
	"stream":   true,
	"redirect": true,
	"tunnel":   true,
}

// decodePayload classifies an upstream JSON body. Shapes that are neither
// single, multi nor error are reported as errUnrecognizedPayload.
func decodePayload(body []byte) (*Payload, error) {
	if !gjson.ValidBytes(body) {
		return nil, errNotJSON
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, errUnrecognizedPayload
	}

	status := strings.ToLower(root.Get("status").String())
	p := &Payload{Status: status}

	if status == "error" || status == "rate-limit" || isErrorIndicator(root.Get("error")) {
		p.Kind = PayloadError
		p.Text = errorText(root)
		return p, nil
	}

	if picker := root.Get("picker"); picker.IsArray() {
		p.Kind = PayloadMulti
		picker.ForEach(func(_, item gjson.Result) bool {
			p.Items = append(p.Items, PickerItem{
				URL:   item.Get("url").String(),
				Type:  strings.ToLower(item.Get("type").String()),
				Thumb: item.Get("thumb").String(),
			})
			return true
		})
		if audio := root.Get("audio"); audio.Type == gjson.String {
			p.AudioURL = audio.Str
		}
		return p, nil
	}

	p.URL = root.Get("url").String()
	if p.URL != "" || singleStatuses[status] {
		p.Kind = PayloadSingle
		p.Filename = root.Get("filename").String()
		p.Type = strings.ToLower(root.Get("type").String())
		p.Audio = root.Get("audio").Type == gjson.True || root.Get("isAudioOnly").Bool()
		return p, nil
	}

	return nil, errUnrecognizedPayload
}

// isErrorIndicator reports whether an "error" field marks the payload as failed:
// true, a non-empty string, or an object.
func isErrorIndicator(r gjson.Result) bool {
	switch {
	case !r.Exists():
		return false
	case r.Type == gjson.True:
		return true
	case r.Type == gjson.String:
		return r.Str != ""
	default:
		return r.IsObject()
	}
}

func errorText(root gjson.Result) string {
	for _, path := range []string{"text", "error.code", "message"} {
		if s := root.Get(path).String(); s != "" {
			return s
		}
	}
	if e := root.Get("error"); e.Type == gjson.String {
		return e.Str
	}
	return ""
}
