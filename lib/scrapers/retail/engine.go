package retail

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"garimpo-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/retail")

const maxDescriptionLen = 500

// document bundles the parsed DOM with the raw body; some fallback chains
// (embedded script JSON, bot markers) work on the text, not the tree.
type document struct {
	doc  *goquery.Document
	body string
}

// Engine runs one extraction attempt per call:
// resolve → fetch → parse → assemble. It holds no per-URL state, so a
// single engine serves concurrent extractions.
type Engine struct {
	client *resty.Client
}

// NewEngine wraps the given HTTP client. Inject a client backed by a test
// transport to extract from fixtures deterministically.
func NewEngine(client *resty.Client) Engine {
	return Engine{client: client}
}

// Extract produces the canonical extraction for one product URL.
//
// Only a network-level failure returns an error (alongside a
// StatusFailed extraction). Bot walls, CAPTCHAs and dynamically rendered
// pages come back as a StatusDegraded result with Note populated: retailer
// markup instability is the steady state, not an exception.
func (e Engine) Extract(ctx context.Context, rawUrl string) (Extraction, error) {
	ctx, span := tracer.Start(ctx, "Extract")
	defer span.End()
	span.SetAttributes(attribute.String("url", rawUrl))

	profile, err := Dispatch(rawUrl)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Extraction{ExtractUrl: rawUrl, Status: StatusFailed}, err
	}
	span.SetAttributes(attribute.String("retailer", profile.Source))

	out := fields{images: NewImageCollector(profile.MaxImages, profile.ImageRules)}

	// Resolving
	pageUrl, err := Resolve(ctx, e.client, profile, rawUrl)
	if err != nil {
		if !profile.TolerateResolveFailure {
			span.SetStatus(codes.Error, err.Error())
			return Extraction{Source: profile.Source, ExtractUrl: rawUrl, Status: StatusFailed}, err
		}
		// the landing page behind the short link may still render
		// enough markup for title and images
		slog.WarnContext(ctx, "short link resolution failed, degrading to submitted url",
			"retailer", profile.Source, "url", rawUrl, "err", err)
		pageUrl = rawUrl
		out.note = joinNotes(out.note, "short link could not be resolved; extracted from the submitted URL")
	}

	// Fetching
	doc, fetchNote, err := e.fetch(ctx, profile, pageUrl)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Extraction{Source: profile.Source, Url: pageUrl, ExtractUrl: rawUrl, Status: StatusFailed}, err
	}
	out.note = joinNotes(out.note, fetchNote)

	// Parsing: every field runs its own fallback chain independently, so
	// drift in one widget doesn't take down the rest of the extraction.
	if doc != nil {
		profile.parse(doc, &out)
	}

	extraction := e.assemble(profile, rawUrl, pageUrl, out)
	span.SetAttributes(
		attribute.String("status", string(extraction.Status)),
		attribute.Int("images", len(extraction.Images)),
		attribute.Bool("has_price", extraction.Price != nil),
	)
	return extraction, nil
}

// fetch GETs the resolved page. A non-2xx status or an implausibly short
// body is a bot-block signal: no internal retry, the suspected cause goes
// into the note and parsing proceeds with whatever markup came back.
func (e Engine) fetch(ctx context.Context, profile *Profile, pageUrl string) (*document, string, error) {
	ctx, cancel := context.WithTimeout(ctx, profile.Timeout)
	defer cancel()

	res, err := e.client.R().
		SetContext(ctx).
		SetHeaders(profile.Headers).
		Get(pageUrl)
	if err != nil {
		return nil, "", &NetworkError{Op: "fetch", Url: pageUrl, Err: err}
	}

	body := string(res.Body())
	note := ""
	switch {
	case textutil.ContainsAny(body, []string{"captcha"}):
		note = fmt.Sprintf("%s: CAPTCHA detected, data may be incomplete", profile.Source)
	case textutil.ContainsAny(body, profile.BlockMarkers):
		note = fmt.Sprintf("%s: bot detection suspected, open the link in a browser", profile.Source)
	case !res.IsSuccess():
		note = fmt.Sprintf("%s: bot detection suspected (status %d)", profile.Source, res.StatusCode())
	case len(body) < profile.MinBodyBytes:
		note = fmt.Sprintf("%s: limited content returned, data may be incomplete", profile.Source)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		// pathologically broken markup; report whatever the fetch
		// already told us
		slog.WarnContext(ctx, "unparseable body", "url", pageUrl, "err", err)
		return nil, joinNotes(note, fmt.Sprintf("%s: page markup could not be parsed", profile.Source)), nil
	}
	return &document{doc: doc, body: body}, note, nil
}

// assemble crosses the string→decimal boundary and decides the terminal
// state.
func (e Engine) assemble(profile *Profile, extractUrl, pageUrl string, out fields) Extraction {
	extraction := Extraction{
		Source:       profile.Source,
		Url:          pageUrl,
		ExtractUrl:   extractUrl,
		Title:        strings.TrimSpace(out.title),
		Discount:     strings.TrimSpace(out.discount),
		Installments: strings.TrimSpace(out.installments),
		Currency:     out.currency,
		Images:       out.images.Urls(),
		Description:  textutil.Truncate(strings.TrimSpace(out.description), maxDescriptionLen),
		Note:         out.note,
		Category:     out.category,
		Brand:        out.brand,
		Sku:          out.sku,
		Rating:       out.rating,
		ReviewsCount: out.reviewsCount,
		Availability: out.availability,
	}
	if extraction.Currency == "" {
		extraction.Currency = profile.DefaultCurrency
	}

	if price, ok := ParsePrice(out.price); ok {
		extraction.Price = &price
	}
	if original, ok := ParsePrice(out.originalPrice); ok {
		extraction.OriginalPrice = &original
	}
	if extraction.Discount == "" && extraction.Price != nil && extraction.OriginalPrice != nil {
		extraction.Discount = DeriveDiscount(*extraction.Price, *extraction.OriginalPrice)
	}

	switch {
	case extraction.Title != "" && (extraction.Price != nil || len(extraction.Images) > 0) && extraction.Note == "":
		extraction.Status = StatusSuccess
	default:
		extraction.Status = StatusDegraded
		if extraction.Note == "" {
			extraction.Note = fmt.Sprintf("%s: page yielded incomplete data, fill the missing fields manually", profile.Source)
		}
	}
	return extraction
}

func joinNotes(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " | " + b
	}
}
