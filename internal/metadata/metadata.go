// Package metadata fills descriptor placeholders from the Open Graph tags of
// the original post page.
package metadata

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"malpha/internal/httputil"
	"malpha/internal/media"
)

// Tags holds the page metadata the enricher cares about.
type Tags struct {
	Title       string
	Description string
	Image       string
}

// titleSeparators split a platform's og:title into author and trailing text.
var titleSeparators = []string{" on Instagram", " | Facebook", " on TikTok", " on Pinterest", " | TikTok", " | Pinterest"}

// Enricher fetches the input page and copies og: values into fields that
// still hold placeholders. It never touches sources or the kind.
type Enricher struct {
	client httputil.Doer
	log    logrus.FieldLogger
}

// NewEnricher creates an Enricher. A nil client uses httputil.NewClient.
func NewEnricher(client httputil.Doer, log logrus.FieldLogger) *Enricher {
	if client == nil {
		client = httputil.NewClient()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Enricher{client: client, log: log}
}

// Enrich is best effort: fetch or parse failures are logged and ignored.
func (e *Enricher) Enrich(ctx context.Context, d *media.Descriptor) {
	tags, err := e.Fetch(ctx, d.InputURL)
	if err != nil {
		e.log.WithError(err).WithField("url", d.InputURL).Debug("metadata enrichment skipped")
		return
	}
	Apply(d, tags)
}

// Fetch downloads pageURL and extracts its Open Graph tags.
func (e *Enricher) Fetch(ctx context.Context, pageURL string) (Tags, error) {
	resp, err := httputil.Get(ctx, e.client, pageURL)
	if err != nil {
		return Tags{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Tags{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Tags{}, fmt.Errorf("parsing HTML: %w", err)
	}

	return Parse(doc), nil
}

// Parse reads og:title, og:description and og:image, falling back to the
// twitter card and the plain description tag where a page omits them.
func Parse(doc *goquery.Document) Tags {
	return Tags{
		Title:       firstMeta(doc, `meta[property="og:title"]`, `meta[name="twitter:title"]`),
		Description: firstMeta(doc, `meta[property="og:description"]`, `meta[name="description"]`),
		Image: firstMeta(doc, `meta[property="og:image:secure_url"]`, `meta[property="og:image"]`,
			`meta[name="twitter:image"]`),
	}
}

func firstMeta(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if v, ok := doc.Find(sel).First().Attr("content"); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// Apply copies tags into placeholder fields of d.
func Apply(d *media.Descriptor, t Tags) {
	if d.Author == media.PlaceholderAuthor {
		if author := AuthorFromTitle(t.Title); author != "" {
			d.Author = author
		}
	}
	if d.Caption == media.PlaceholderCaption || (d.Filename != "" && d.Caption == d.Filename) {
		if t.Description != "" {
			d.Caption = t.Description
		}
	}
	if d.ThumbnailURL == media.PlaceholderThumbnail && httputil.ValidateURL(t.Image) == nil {
		d.ThumbnailURL = t.Image
	}
}

// AuthorFromTitle strips the platform suffix from an og:title such as
// `Jane Doe on Instagram: "sunset"` or `Jane Doe | Facebook`.
func AuthorFromTitle(title string) string {
	title = strings.TrimSpace(title)
	cut := lo.FilterMap(titleSeparators, func(sep string, _ int) (int, bool) {
		i := strings.Index(title, sep)
		return i, i > 0
	})
	if len(cut) > 0 {
		title = title[:lo.Min(cut)]
	}
	return strings.TrimSpace(title)
}
