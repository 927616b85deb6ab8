package retail

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// RewriteRule substitutes a size/format suffix so the stored URL requests
// the highest-quality variant the retailer serves.
type RewriteRule struct {
	Pattern *regexp.Regexp
	Replace string
}

func (r RewriteRule) apply(u string) string {
	return r.Pattern.ReplaceAllString(u, r.Replace)
}

// URL fragments that mark known non-product assets. Matched against the
// filename, not the whole URL, so a CDN path containing "logo" elsewhere
// still passes.
var rejectedAssetMarkers = []string{
	"play-button",
	"play_button",
	"transparent",
	"pixel",
	"placeholder",
	"sprite",
	"logo",
}

var imageIdRegex = regexp.MustCompile(`[A-Za-z0-9+\-]{10,}`)

// ImageCollector accumulates product image URLs in insertion order,
// collapsing resolution variants of the same image into one entry and
// rewriting each kept URL to its highest-quality variant.
type ImageCollector struct {
	max   int
	rules []RewriteRule
	seen  map[string]bool
	urls  []string
}

func NewImageCollector(max int, rules []RewriteRule) *ImageCollector {
	return &ImageCollector{
		max:   max,
		rules: rules,
		seen:  map[string]bool{},
	}
}

// Add reports whether the URL survived filtering and was newly stored.
func (c *ImageCollector) Add(raw string) bool {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return false
	}
	if c.max > 0 && len(c.urls) >= c.max {
		return false
	}

	rewritten := raw
	for _, rule := range c.rules {
		rewritten = rule.apply(rewritten)
	}

	parsed, err := url.Parse(rewritten)
	if err != nil {
		return false
	}
	filename := strings.ToLower(path.Base(parsed.Path))
	for _, marker := range rejectedAssetMarkers {
		if strings.Contains(filename, marker) {
			return false
		}
	}

	id := canonicalIdentity(parsed.Path)
	if c.seen[id] {
		return false
	}
	c.seen[id] = true
	c.urls = append(c.urls, rewritten)
	return true
}

func (c *ImageCollector) Urls() []string {
	return c.urls
}

func (c *ImageCollector) Len() int {
	return len(c.urls)
}

// canonicalIdentity extracts the retailer's opaque image id from the URL
// path: the first run of 10+ id characters, which sits before any
// size/format suffix. Two variants of one image share this id regardless
// of resolution. Short filenames fall back to their bare stem.
func canonicalIdentity(urlPath string) string {
	filename := path.Base(urlPath)
	if id := imageIdRegex.FindString(filename); id != "" {
		return id
	}
	stem := strings.TrimSuffix(filename, path.Ext(filename))
	return stem
}
