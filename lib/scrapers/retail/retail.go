// Package retail extracts structured product data (title, price, discount,
// images) from the product pages of supported Brazilian e-commerce
// retailers. Retailer markup is uncontrolled and drifts silently, so every
// field is extracted through an ordered fallback chain and a partial result
// with a diagnostic note is a normal outcome, not an error.
package retail

import (
	"errors"
	"fmt"
	"time"
)

type Kind int

const (
	MercadoLivre Kind = iota
	Amazon
	Kabum
	AliExpress
	Shopee
)

type Status string

const (
	// title plus at least one of price/image extracted
	StatusSuccess Status = "success"
	// a usable partial result, note explains what is missing and why
	StatusDegraded Status = "degraded"
	// the page could not be fetched at all
	StatusFailed Status = "failed"
)

// Extraction is the canonical result every retailer profile normalizes
// into. A nil Price is valid: it means the offer needs manual entry.
type Extraction struct {
	Source     string `json:"source"`
	Url        string `json:"url"`
	ExtractUrl string `json:"extract_url"`
	Title      string `json:"title"`

	Price         *float64 `json:"price,omitempty"`
	OriginalPrice *float64 `json:"original_price,omitempty"`
	Discount      string   `json:"discount,omitempty"`
	Installments  string   `json:"installments,omitempty"`
	Currency      string   `json:"currency"`

	Images      []string `json:"images"`
	Description string   `json:"description,omitempty"`
	Note        string   `json:"note,omitempty"`

	Category     string `json:"category,omitempty"`
	Brand        string `json:"brand,omitempty"`
	Sku          string `json:"sku,omitempty"`
	Rating       string `json:"rating,omitempty"`
	ReviewsCount string `json:"reviews_count,omitempty"`
	Availability string `json:"availability,omitempty"`

	Status Status `json:"status"`
}

// PrimaryImage returns the first extracted image, usually the og:image.
func (e Extraction) PrimaryImage() string {
	if len(e.Images) == 0 {
		return ""
	}
	return e.Images[0]
}

// ErrUnsupportedDomain means no retailer profile matches the URL's host.
// There is deliberately no generic fallback extractor: heuristics over
// arbitrary shop markup produce unreliable commerce data.
var ErrUnsupportedDomain = errors.New("unsupported retailer domain")

// NetworkError wraps a failure to resolve or fetch a page. It is the only
// extraction outcome surfaced as an error, and the only one worth retrying.
type NetworkError struct {
	Op  string
	Url string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Url, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// fields holds the raw per-field strings a profile's fallback chains
// produced. The engine crosses the string→decimal boundary when it
// assembles the Extraction, so profiles never parse prices themselves.
type fields struct {
	title         string
	price         string
	originalPrice string
	discount      string
	installments  string
	currency      string
	description   string
	note          string

	category     string
	brand        string
	sku          string
	rating       string
	reviewsCount string
	availability string

	images *ImageCollector
}

// Profile is the strategy bundle for one supported retailer: header set,
// timeouts, image rules and the markup-specific field extraction.
type Profile struct {
	Kind       Kind
	Source     string
	Headers    map[string]string
	Timeout    time.Duration
	MaxImages  int
	ImageRules []RewriteRule
	// markers whose presence in the body means the retailer served a
	// bot wall instead of the product page
	BlockMarkers []string
	// bodies shorter than this are treated as a bot-block signal
	MinBodyBytes int
	// degrade to the submitted URL when the short link cannot be
	// resolved; the landing page may still yield title and images
	TolerateResolveFailure bool
	DefaultCurrency        string

	parse func(doc *document, out *fields)
}

var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language": "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7",
}

// some retailers block anything short of a full desktop browser header
// profile on the first request
var fullBrowserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
	"Accept-Language":           "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7",
	"Accept-Encoding":           "gzip, deflate, br",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
	"Cache-Control":             "max-age=0",
}
