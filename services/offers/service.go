package offers

import (
	"context"
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strings"
	"time"

	"garimpo-backend/lib/keyval"
	"garimpo-backend/lib/scrapers/retail"
	"garimpo-backend/lib/timezone"
	"garimpo-backend/services/offers/db"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("services/offers")

// DefaultChannels is the publication fan-out applied to every newly
// saved offer.
var DefaultChannels = []string{"telegram", "whatsapp", "site", "instagram"}

const extractCacheTtl = time.Hour

type Service struct {
	db       *sql.DB
	qry      *db.Queries
	engine   retail.Engine
	cache    keyval.Client
	channels []string
	ingest   *singleflight.Group
}

func NewService(database *sql.DB, engine retail.Engine, cache keyval.Client, channels []string) Service {
	if len(channels) == 0 {
		channels = DefaultChannels
	}
	return Service{
		db:       database,
		qry:      db.New(database),
		engine:   engine,
		cache:    cache,
		channels: channels,
		ingest:   &singleflight.Group{},
	}
}

func extractCacheKey(rawUrl string) string {
	sum := md5.Sum([]byte(rawUrl))
	return "extract:" + hex.EncodeToString(sum[:])
}

// ErrInvalidUrl rejects input before any network or cache access.
var ErrInvalidUrl = errors.New("invalid url")

func validateUrl(rawUrl string) error {
	parsed, err := url.Parse(rawUrl)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidUrl, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidUrl, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidUrl)
	}
	return nil
}

// Extract runs the extraction engine against a product url, serving
// repeated requests for the same url from cache for up to an hour.
// Network failures are retried with exponential backoff before giving
// up; every other failure mode is returned immediately.
func (s Service) Extract(ctx context.Context, rawUrl string) (retail.Extraction, error) {
	ctx, span := tracer.Start(ctx, "Extract")
	defer span.End()

	span.SetAttributes(attribute.String("url", rawUrl))

	err := validateUrl(rawUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return retail.Extraction{}, err
	}

	cacheKey := extractCacheKey(rawUrl)
	if cached, ok := s.cache.Get(ctx, cacheKey); ok {
		var extraction retail.Extraction
		err := json.Unmarshal([]byte(cached), &extraction)
		if err == nil {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return extraction, nil
		}
		slog.WarnContext(ctx, "discarding unreadable cached extraction", "key", cacheKey, "err", err)
	}

	var extraction retail.Extraction
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second * 2
	policy.MaxInterval = time.Second * 10

	err = backoff.Retry(func() error {
		var err error
		extraction, err = s.engine.Extract(ctx, rawUrl)
		if err == nil {
			return nil
		}
		if retail.IsNetworkError(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(backoff.WithMaxRetries(policy, 2), ctx))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return retail.Extraction{}, err
	}

	encoded, err := json.Marshal(extraction)
	if err == nil {
		s.cache.Set(ctx, cacheKey, string(encoded), extractCacheTtl)
	}

	span.SetAttributes(attribute.String("status", string(extraction.Status)))
	return extraction, nil
}

type IngestResult struct {
	OfferId    string            `json:"offerId"`
	Duplicate  bool              `json:"duplicate"`
	Extraction retail.Extraction `json:"extraction"`
	// Warnings reports best-effort steps that failed after the offer
	// itself was saved.
	Warnings []string `json:"warnings,omitempty"`
}

// Ingest extracts an offer and saves it to the catalog, recording its
// first price history entry and queueing a publication job per channel.
// An offer already known by its resolved url, or seen today with the same
// title and discounted price, is reported as a duplicate instead of being
// saved again. Concurrent ingestions of the same url share a single
// execution.
func (s Service) Ingest(ctx context.Context, rawUrl string) (IngestResult, error) {
	result, err, _ := s.ingest.Do(rawUrl, func() (interface{}, error) {
		return s.ingestOne(ctx, rawUrl)
	})
	if err != nil {
		return IngestResult{}, err
	}
	return result.(IngestResult), nil
}

func (s Service) ingestOne(ctx context.Context, rawUrl string) (IngestResult, error) {
	ctx, span := tracer.Start(ctx, "Ingest")
	defer span.End()

	span.SetAttributes(attribute.String("url", rawUrl))

	extraction, err := s.Extract(ctx, rawUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return IngestResult{}, err
	}

	// the catalog is keyed on the resolved canonical url; the submitted
	// url (often a shortlink) is kept alongside as extract_url. When
	// resolution degraded the engine already fell back to the submitted
	// url itself.
	canonicalUrl := extraction.Url
	if canonicalUrl == "" {
		canonicalUrl = rawUrl
	}

	existing, err := s.findDuplicate(ctx, canonicalUrl, extraction)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return IngestResult{}, err
	}
	if existing != nil {
		span.SetAttributes(attribute.Bool("duplicate", true))
		return IngestResult{
			OfferId:    existing.ID,
			Duplicate:  true,
			Extraction: extraction,
		}, nil
	}

	now := timezone.Now().Unix()
	offerId := uuid.NewString()
	category, tags := Categorize(extraction.Title)
	if extraction.Category != "" {
		category = extraction.Category
	}

	err = s.qry.CreateOffer(ctx, db.CreateOfferParams{
		ID:              offerId,
		Source:          extraction.Source,
		Url:             canonicalUrl,
		ExtractUrl:      rawUrl,
		Title:           extraction.Title,
		PriceOriginal:   nullFloat(extraction.OriginalPrice),
		PriceDiscounted: nullFloat(extraction.Price),
		Discount:        extraction.Discount,
		Installments:    extraction.Installments,
		Currency:        extraction.Currency,
		Images:          encodeStrings(extraction.Images),
		Description:     extraction.Description,
		Category:        category,
		Tags:            encodeStrings(tags),
		Note:            extraction.Note,
		Status:          "pending",
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return IngestResult{}, err
	}

	result := IngestResult{
		OfferId:    offerId,
		Extraction: extraction,
	}

	// Past this point the offer exists: history and publication jobs
	// are best-effort and only surface as warnings.
	err = s.qry.CreatePriceHistory(ctx, db.CreatePriceHistoryParams{
		OfferID:         offerId,
		PriceOriginal:   nullFloat(extraction.OriginalPrice),
		PriceDiscounted: nullFloat(extraction.Price),
		Discount:        extraction.Discount,
		Currency:        extraction.Currency,
		Source:          "scraping",
		CreatedAt:       now,
	})
	if err != nil {
		warning := fmt.Sprintf("failed to record price history: %v", err)
		slog.WarnContext(ctx, "failed to record price history", "offer", offerId, "err", err)
		result.Warnings = append(result.Warnings, warning)
	}

	for _, channel := range s.channels {
		err := s.qry.CreatePublicationJob(ctx, db.CreatePublicationJobParams{
			OfferID:   offerId,
			Channel:   channel,
			Status:    "pending",
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			warning := fmt.Sprintf("failed to queue publication to %s: %v", channel, err)
			slog.WarnContext(ctx, "failed to queue publication job", "offer", offerId, "channel", channel, "err", err)
			result.Warnings = append(result.Warnings, warning)
		}
	}

	return result, nil
}

func (s Service) findDuplicate(ctx context.Context, canonicalUrl string, extraction retail.Extraction) (*db.Offer, error) {
	offer, err := s.qry.GetOfferByUrl(ctx, canonicalUrl)
	if err == nil {
		return &offer, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if extraction.Title == "" || extraction.Price == nil {
		return nil, nil
	}

	dayStart, dayEnd := timezone.DayWindow(timezone.Now())
	offer, err = s.qry.GetOfferByTitlePrice(ctx, db.GetOfferByTitlePriceParams{
		Title:           extraction.Title,
		PriceDiscounted: nullFloat(extraction.Price),
		After:           dayStart.Unix(),
		Before:          dayEnd.Unix(),
	})
	if err == nil {
		return &offer, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return nil, err
}

// GetOffer returns a saved offer by id.
func (s Service) GetOffer(ctx context.Context, id string) (db.Offer, error) {
	return s.qry.GetOffer(ctx, id)
}

// ListOffers returns the most recently saved offers.
func (s Service) ListOffers(ctx context.Context, limit int64) ([]db.Offer, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.qry.ListOffers(ctx, limit)
}

// ErrUnknownStatus rejects lifecycle states the catalog does not track.
var ErrUnknownStatus = errors.New("unknown offer status")

var offerStatuses = map[string]bool{
	"pending":  true,
	"approved": true,
}

// ListOffersByStatus returns the most recent offers in one lifecycle
// state.
func (s Service) ListOffersByStatus(ctx context.Context, status string, limit int64) ([]db.Offer, error) {
	if !offerStatuses[status] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	if limit <= 0 {
		limit = 50
	}
	return s.qry.ListOffersByStatus(ctx, db.ListOffersByStatusParams{
		Status: status,
		Limit:  limit,
	})
}

// SetOfferStatus moves an offer through its moderation lifecycle
// (pending, approved). The state is set by operators, never by the
// ingestion pipeline itself.
func (s Service) SetOfferStatus(ctx context.Context, id, status string) error {
	if !offerStatuses[status] {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	affected, err := s.qry.SetOfferStatus(ctx, db.SetOfferStatusParams{
		Status:    status,
		UpdatedAt: timezone.Now().Unix(),
		ID:        id,
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// PriceHistory returns the recorded price points of an offer since the
// given time, oldest first.
func (s Service) PriceHistory(ctx context.Context, offerId string, since time.Time) ([]db.PriceHistory, error) {
	return s.qry.ListPriceHistorySince(ctx, db.ListPriceHistorySinceParams{
		OfferID:   offerId,
		CreatedAt: since.Unix(),
	})
}

// LowestPrice returns the lowest discounted price recorded for an offer
// since the given time, or nil when no priced entries exist.
func (s Service) LowestPrice(ctx context.Context, offerId string, since time.Time) (*float64, error) {
	min, err := s.qry.LowestPriceSince(ctx, db.LowestPriceSinceParams{
		OfferID:   offerId,
		CreatedAt: since.Unix(),
	})
	if err != nil {
		return nil, err
	}
	if !min.Valid {
		return nil, nil
	}
	return &min.Float64, nil
}

type PriceVariation struct {
	CurrentPrice     float64 `json:"current_price"`
	InitialPrice     float64 `json:"initial_price"`
	VariationPercent float64 `json:"variation_percent"`
	Trend            string  `json:"trend"`
}

// PriceVariation compares the newest priced history entry of an offer
// against the oldest one. It returns nil when fewer than two priced
// entries exist, since a single point has no variation.
func (s Service) PriceVariation(ctx context.Context, offerId string) (*PriceVariation, error) {
	history, err := s.qry.ListPriceHistorySince(ctx, db.ListPriceHistorySinceParams{
		OfferID:   offerId,
		CreatedAt: 0,
	})
	if err != nil {
		return nil, err
	}

	var priced []db.PriceHistory
	for _, entry := range history {
		if entry.PriceDiscounted.Valid && entry.PriceDiscounted.Float64 != 0 {
			priced = append(priced, entry)
		}
	}
	if len(priced) < 2 {
		return nil, nil
	}

	oldest := priced[0].PriceDiscounted.Float64
	latest := priced[len(priced)-1].PriceDiscounted.Float64
	variation := (latest - oldest) / oldest * 100
	variation = math.Round(variation*100) / 100

	trend := "stable"
	switch {
	case variation > 0:
		trend = "up"
	case variation < 0:
		trend = "down"
	}
	return &PriceVariation{
		CurrentPrice:     latest,
		InitialPrice:     oldest,
		VariationPercent: variation,
		Trend:            trend,
	}, nil
}

// CountOffersMissingHistory reports offers that have no price history
// row, which only happens when the best-effort history write failed
// during ingestion.
func (s Service) CountOffersMissingHistory(ctx context.Context) (int64, error) {
	return s.qry.CountOffersMissingHistory(ctx)
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func encodeStrings(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(encoded)
}

// DecodeStrings reverses the json encoding applied to image and tag
// lists before storage.
func DecodeStrings(encoded string) []string {
	var values []string
	err := json.Unmarshal([]byte(encoded), &values)
	if err != nil {
		return nil
	}
	return values
}

var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"hardware", []string{"placa de vídeo", "processador", "ssd", "memória ram", "gabinete", "fonte", "placa-mãe", "water cooler"}},
	{"periféricos", []string{"teclado", "mouse", "headset", "fone", "webcam", "microfone", "mousepad"}},
	{"celulares", []string{"smartphone", "celular", "iphone", "galaxy", "xiaomi", "redmi", "motorola"}},
	{"computadores", []string{"notebook", "laptop", "macbook", "desktop", "all in one", "chromebook"}},
	{"tv e áudio", []string{"smart tv", "televisão", "soundbar", "caixa de som", "home theater"}},
	{"games", []string{"playstation", "xbox", "nintendo", "console", "controle", "jogo"}},
	{"casa", []string{"air fryer", "aspirador", "geladeira", "micro-ondas", "cafeteira", "liquidificador"}},
}

// Categorize assigns a coarse category and matching keyword tags to an
// offer based on its title. Unknown titles fall back to "outros" with
// no tags.
func Categorize(title string) (string, []string) {
	lowered := strings.ToLower(title)

	var category string
	var tags []string
	for _, entry := range categoryKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lowered, keyword) {
				if category == "" {
					category = entry.category
				}
				tags = append(tags, keyword)
			}
		}
	}
	if category == "" {
		category = "outros"
	}
	return category, tags
}
