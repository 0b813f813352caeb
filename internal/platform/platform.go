// Package platform defines the social-media platforms malpha accepts links
// for, and the domain allow-lists that gate resolution.
package platform

import (
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Any is the name of the platform that accepts every known domain.
const Any = "any"

// Platform is an allow-listed link source.
type Platform struct {
	Name    string   // e.g., "instagram"
	Title   string   // Display name, e.g., "Instagram"
	Domains []string // Registrable domains; subdomains are accepted too

	// reserved lists first path segments that are never profile names.
	reserved []string
	// profilePrefix marks profile paths that carry a leading sigil (TikTok's "@").
	profilePrefix string
	// shortLinks are share domains whose paths are opaque codes, never profiles.
	shortLinks []string
}

var builtin = map[string]Platform{
	"instagram": {
		Name:     "instagram",
		Title:    "Instagram",
		Domains:  []string{"instagram.com", "instagr.am"},
		reserved: []string{"p", "reel", "reels", "tv", "stories", "explore", "accounts", "direct"},
	},
	"facebook": {
		Name:    "facebook",
		Title:   "Facebook",
		Domains: []string{"facebook.com", "fb.watch", "fb.com"},
		reserved: []string{
			"watch", "reel", "reels", "share", "photo", "photo.php", "photos", "story.php",
			"permalink.php", "video.php", "posts", "people", "groups", "videos", "events",
		},
		shortLinks: []string{"fb.watch"},
	},
	"tiktok": {
		Name:          "tiktok",
		Title:         "TikTok",
		Domains:       []string{"tiktok.com", "vm.tiktok.com", "vt.tiktok.com"},
		profilePrefix: "@",
		shortLinks:    []string{"vm.tiktok.com", "vt.tiktok.com"},
	},
	"pinterest": {
		Name:       "pinterest",
		Title:      "Pinterest",
		Domains:    []string{"pinterest.com", "pin.it"},
		reserved:   []string{"pin", "search", "ideas", "today"},
		shortLinks: []string{"pin.it"},
	},
}

// Names returns the names of all platforms, including Any, sorted.
func Names() []string {
	names := lo.Keys(builtin)
	names = append(names, Any)
	sort.Strings(names)
	return names
}

// Lookup returns the named platform. Any yields the union of every
// built-in allow-list.
func Lookup(name string) (Platform, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == Any {
		var domains []string
		for _, n := range Names() {
			if p, ok := builtin[n]; ok {
				domains = append(domains, p.Domains...)
			}
		}
		return Platform{Name: Any, Title: "Instagram, Facebook, TikTok or Pinterest", Domains: lo.Uniq(domains)}, true
	}
	p, ok := builtin[name]
	if !ok {
		return Platform{}, false
	}
	p.Domains = append([]string(nil), p.Domains...)
	return p, true
}

// Detect returns the built-in platform whose allow-list contains host.
func Detect(host string) (Platform, bool) {
	for _, n := range Names() {
		p, ok := builtin[n]
		if ok && p.Allows(host) {
			return p, true
		}
	}
	return Platform{}, false
}

// WithDomains returns a copy of p whose allow-list is extended by extra.
func (p Platform) WithDomains(extra ...string) Platform {
	cleaned := lo.FilterMap(extra, func(d string, _ int) (string, bool) {
		d = strings.Trim(strings.ToLower(strings.TrimSpace(d)), ".")
		return d, d != ""
	})
	p.Domains = lo.Uniq(append(append([]string(nil), p.Domains...), cleaned...))
	return p
}

// Allows reports whether host (optionally with a port) is one of the
// allow-listed domains or a subdomain of one.
func (p Platform) Allows(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(stripPort(host), "."))
	if host == "" {
		return false
	}
	return lo.SomeBy(p.Domains, func(d string) bool {
		return host == d || strings.HasSuffix(host, "."+d)
	})
}

// IsProfile reports whether a link on host with the given path points at a
// user profile rather than at a single post. Short-link hosts never do.
func (p Platform) IsProfile(host, path string) bool {
	if p.Name == Any {
		b, ok := Detect(host)
		return ok && b.IsProfile(host, path)
	}

	host = strings.ToLower(strings.TrimSuffix(stripPort(host), "."))
	if lo.SomeBy(p.shortLinks, func(d string) bool {
		return host == d || strings.HasSuffix(host, "."+d)
	}) {
		return false
	}

	segments := lo.Compact(strings.Split(path, "/"))
	if len(segments) != 1 {
		return false
	}
	seg := strings.ToLower(segments[0])

	if p.profilePrefix != "" {
		return strings.HasPrefix(seg, p.profilePrefix) && len(seg) > len(p.profilePrefix)
	}
	if len(p.reserved) == 0 {
		return false
	}
	return !lo.Contains(p.reserved, seg)
}

func stripPort(host string) string {
	if strings.HasPrefix(host, "[") {
		if i := strings.Index(host, "]"); i != -1 {
			return host[1:i]
		}
		return host
	}
	if i := strings.LastIndex(host, ":"); i != -1 {
		return host[:i]
	}
	return host
}
