package offers

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"garimpo-backend/lib/keyval"
	"garimpo-backend/lib/scrapers/retail"
	"garimpo-backend/lib/testutil"
	"garimpo-backend/lib/timezone"
	"garimpo-backend/services/offers/db"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

// rewriteTransport routes every request to the fixture server regardless
// of the host in the URL, so retailer-looking URLs dispatch normally but
// never leave the test process.
type rewriteTransport struct {
	target   *url.URL
	requests *atomic.Int64
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.requests.Add(1)
	req.URL.Scheme = t.target.Scheme
	req.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func setupService(t *testing.T, handler http.Handler) (Service, *atomic.Int64) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/offers",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	target, err := url.Parse(server.URL)
	require.NoError(t, err)

	requests := &atomic.Int64{}
	client := resty.New()
	client.GetClient().Transport = rewriteTransport{target: target, requests: requests}

	redis := miniredis.RunT(t)
	cache := keyval.NewClient(context.Background(), redis.Addr(), "")

	return NewService(setup.DB, retail.NewEngine(client), cache, nil), requests
}

func productPage(title string, price float64) string {
	page := fmt.Sprintf(`<html><head>
<meta property="og:title" content="%s"/>
<meta property="og:image" content="https://http2.mlstatic.com/D_NQ_NP_936553-MLB12345678901_102023-O.webp"/>
<meta property="product:price:amount" content="%.2f"/>
<meta property="product:price:currency" content="BRL"/>
</head><body></body></html>`, title, price)
	// clear the short-body bot-block threshold
	return page + "<!-- " + strings.Repeat("x", 2100) + " -->"
}

func TestIngest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/produto/MLB123", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, productPage("Notebook Gamer X", 4599.90))
	})
	service, _ := setupService(t, mux)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	result, err := service.Ingest(ctx, "https://mercadolivre.com.br/produto/MLB123")
	require.NoError(t, err)
	require.False(t, result.Duplicate)
	require.NotEmpty(t, result.OfferId)
	require.Empty(t, result.Warnings)
	require.Equal(t, retail.StatusSuccess, result.Extraction.Status)

	offer, err := service.GetOffer(ctx, result.OfferId)
	require.NoError(t, err)
	require.Equal(t, "Notebook Gamer X", offer.Title)
	// url holds the resolved canonical page, extract_url the submitted one
	require.Contains(t, offer.Url, "/produto/MLB123")
	require.Equal(t, "https://mercadolivre.com.br/produto/MLB123", offer.ExtractUrl)
	require.Equal(t, "pending", offer.Status)
	require.True(t, offer.PriceDiscounted.Valid)
	require.InDelta(t, 4599.90, offer.PriceDiscounted.Float64, 0.001)
	require.Equal(t, "BRL", offer.Currency)
	require.Equal(t, "computadores", offer.Category)
	require.Equal(t, []string{"notebook"}, DecodeStrings(offer.Tags))
	require.Equal(t,
		[]string{"https://http2.mlstatic.com/D_NQ_NP_936553-MLB12345678901_102023-O.webp"},
		DecodeStrings(offer.Images))

	history, err := service.PriceHistory(ctx, result.OfferId, time.Unix(0, 0))
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "scraping", history[0].Source)
	require.InDelta(t, 4599.90, history[0].PriceDiscounted.Float64, 0.001)

	jobs, err := service.qry.ListPublicationJobsForOffer(ctx, result.OfferId)
	require.NoError(t, err)
	var channels []string
	for _, job := range jobs {
		require.Equal(t, "pending", job.Status)
		channels = append(channels, job.Channel)
	}
	require.Equal(t, DefaultChannels, channels)

	missing, err := service.CountOffersMissingHistory(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(0), missing)
}

func TestIngestAbsorbsPostOfferWriteFailures(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/produto/MLB123", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, productPage("Produto X", 199.90))
	})
	service, _ := setupService(t, mux)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	// break everything past the commit point: the offer insert must still
	// go through, with the failed writes absorbed as warnings
	_, err := service.db.ExecContext(ctx, "DROP TABLE price_history")
	require.NoError(t, err)
	_, err = service.db.ExecContext(ctx, "DROP TABLE publication_jobs")
	require.NoError(t, err)

	result, err := service.Ingest(ctx, "https://mercadolivre.com.br/produto/MLB123")
	require.NoError(t, err)
	require.False(t, result.Duplicate)
	require.Len(t, result.Warnings, 1+len(DefaultChannels))

	offer, err := service.GetOffer(ctx, result.OfferId)
	require.NoError(t, err)
	require.Equal(t, "pending", offer.Status)

	// the repair probe sees the offer with no history row once the
	// tables are back
	_, err = service.db.ExecContext(ctx, db.Schema)
	require.NoError(t, err)

	missing, err := service.CountOffersMissingHistory(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), missing)

	jobs, err := service.qry.ListPublicationJobsForOffer(ctx, result.OfferId)
	require.NoError(t, err)
	require.Empty(t, jobs)
}

func TestIngestDuplicateByUrl(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/produto/MLB123", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, productPage("Produto X", 199.90))
	})
	service, _ := setupService(t, mux)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	first, err := service.Ingest(ctx, "https://mercadolivre.com.br/produto/MLB123")
	require.NoError(t, err)
	require.False(t, first.Duplicate)

	second, err := service.Ingest(ctx, "https://mercadolivre.com.br/produto/MLB123")
	require.NoError(t, err)
	require.True(t, second.Duplicate)
	require.Equal(t, first.OfferId, second.OfferId)

	offers, err := service.ListOffers(ctx, 10)
	require.NoError(t, err)
	require.Len(t, offers, 1)
}

func TestIngestShortLinkDeduplicatesAgainstCanonicalUrl(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sec/1abcd", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/produto/MLB123", http.StatusFound)
	})
	mux.HandleFunc("/produto/MLB123", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, productPage("Produto X", 199.90))
	})
	service, _ := setupService(t, mux)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	first, err := service.Ingest(ctx, "https://mercadolivre.com/sec/1abcd")
	require.NoError(t, err)
	require.False(t, first.Duplicate)

	offer, err := service.GetOffer(ctx, first.OfferId)
	require.NoError(t, err)
	require.Equal(t, "https://mercadolivre.com/sec/1abcd", offer.ExtractUrl)
	require.Contains(t, offer.Url, "/produto/MLB123")
	require.NotContains(t, offer.Url, "/sec/")

	// backdate past the same-day title+price window: the url duplicate
	// rule alone must catch the canonical form of the shortlink
	yesterday := timezone.Now().AddDate(0, 0, -1).Unix()
	_, err = service.db.ExecContext(ctx,
		"UPDATE offers SET created_at = ? WHERE id = ?", yesterday, first.OfferId)
	require.NoError(t, err)

	second, err := service.Ingest(ctx, "https://mercadolivre.com/produto/MLB123")
	require.NoError(t, err)
	require.True(t, second.Duplicate)
	require.Equal(t, first.OfferId, second.OfferId)
}

func TestIngestDuplicateByTitleAndPriceSameDay(t *testing.T) {
	mux := http.NewServeMux()
	page := func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, productPage("Air Fryer 5L", 299.00))
	}
	mux.HandleFunc("/produto/MLB111", page)
	mux.HandleFunc("/produto/MLB222", page)
	service, _ := setupService(t, mux)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	first, err := service.Ingest(ctx, "https://mercadolivre.com.br/produto/MLB111")
	require.NoError(t, err)
	require.False(t, first.Duplicate)

	// different url, same product listed today
	second, err := service.Ingest(ctx, "https://mercadolivre.com.br/produto/MLB222")
	require.NoError(t, err)
	require.True(t, second.Duplicate)
	require.Equal(t, first.OfferId, second.OfferId)
}

func TestIngestSameTitleAndPriceOnDifferentDays(t *testing.T) {
	mux := http.NewServeMux()
	page := func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, productPage("Air Fryer 5L", 299.00))
	}
	mux.HandleFunc("/produto/MLB111", page)
	mux.HandleFunc("/produto/MLB222", page)
	service, _ := setupService(t, mux)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	first, err := service.Ingest(ctx, "https://mercadolivre.com.br/produto/MLB111")
	require.NoError(t, err)
	require.False(t, first.Duplicate)

	// backdate the first offer to yesterday: the title+price window
	// only spans the current calendar day
	yesterday := timezone.Now().AddDate(0, 0, -1).Unix()
	_, err = service.db.ExecContext(ctx,
		"UPDATE offers SET created_at = ? WHERE id = ?", yesterday, first.OfferId)
	require.NoError(t, err)

	second, err := service.Ingest(ctx, "https://mercadolivre.com.br/produto/MLB222")
	require.NoError(t, err)
	require.False(t, second.Duplicate)
	require.NotEqual(t, first.OfferId, second.OfferId)
}

func TestExtractCaching(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/produto/MLB123", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, productPage("Produto X", 199.90))
	})
	service, requests := setupService(t, mux)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	first, err := service.Extract(ctx, "https://mercadolivre.com.br/produto/MLB123")
	require.NoError(t, err)
	fetched := requests.Load()
	require.Greater(t, fetched, int64(0))

	second, err := service.Extract(ctx, "https://mercadolivre.com.br/produto/MLB123")
	require.NoError(t, err)
	require.Equal(t, fetched, requests.Load())
	require.Equal(t, first, second)
}

func TestExtractRejectsBadUrls(t *testing.T) {
	service, requests := setupService(t, http.NewServeMux())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	for _, rawUrl := range []string{
		"",
		"ftp://mercadolivre.com.br/produto",
		"not a url at all",
	} {
		_, err := service.Extract(ctx, rawUrl)
		require.ErrorIs(t, err, ErrInvalidUrl, rawUrl)
	}

	_, err := service.Extract(ctx, "https://example.com/produto/123")
	require.ErrorIs(t, err, retail.ErrUnsupportedDomain)
	require.Equal(t, int64(0), requests.Load())
}

func TestLowestPrice(t *testing.T) {
	service, _ := setupService(t, http.NewServeMux())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	now := timezone.Now().Unix()
	for i, price := range []float64{349.90, 329.90, 399.90} {
		err := service.qry.CreatePriceHistory(ctx, db.CreatePriceHistoryParams{
			OfferID:         "offer-1",
			PriceDiscounted: nullFloat(&price),
			Currency:        "BRL",
			Source:          "scraping",
			CreatedAt:       now + int64(i),
		})
		require.NoError(t, err)
	}

	lowest, err := service.LowestPrice(ctx, "offer-1", time.Unix(0, 0))
	require.NoError(t, err)
	require.NotNil(t, lowest)
	require.InDelta(t, 329.90, *lowest, 0.001)

	lowest, err = service.LowestPrice(ctx, "offer-2", time.Unix(0, 0))
	require.NoError(t, err)
	require.Nil(t, lowest)
}

func TestOfferStatusLifecycle(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/produto/MLB123", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, productPage("Produto X", 199.90))
	})
	service, _ := setupService(t, mux)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	result, err := service.Ingest(ctx, "https://mercadolivre.com.br/produto/MLB123")
	require.NoError(t, err)

	pending, err := service.ListOffersByStatus(ctx, "pending", 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	err = service.SetOfferStatus(ctx, result.OfferId, "approved")
	require.NoError(t, err)

	offer, err := service.GetOffer(ctx, result.OfferId)
	require.NoError(t, err)
	require.Equal(t, "approved", offer.Status)

	pending, err = service.ListOffersByStatus(ctx, "pending", 10)
	require.NoError(t, err)
	require.Empty(t, pending)

	approved, err := service.ListOffersByStatus(ctx, "approved", 10)
	require.NoError(t, err)
	require.Len(t, approved, 1)

	err = service.SetOfferStatus(ctx, result.OfferId, "published")
	require.ErrorIs(t, err, ErrUnknownStatus)

	_, err = service.ListOffersByStatus(ctx, "published", 10)
	require.ErrorIs(t, err, ErrUnknownStatus)

	err = service.SetOfferStatus(ctx, "no-such-offer", "approved")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestPriceVariation(t *testing.T) {
	service, _ := setupService(t, http.NewServeMux())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	variation, err := service.PriceVariation(ctx, "offer-1")
	require.NoError(t, err)
	require.Nil(t, variation)

	now := timezone.Now().Unix()
	for i, price := range []float64{400.00, 380.00, 350.00} {
		err := service.qry.CreatePriceHistory(ctx, db.CreatePriceHistoryParams{
			OfferID:         "offer-1",
			PriceDiscounted: nullFloat(&price),
			Currency:        "BRL",
			Source:          "scraping",
			CreatedAt:       now + int64(i),
		})
		require.NoError(t, err)
	}

	variation, err = service.PriceVariation(ctx, "offer-1")
	require.NoError(t, err)
	require.NotNil(t, variation)
	require.InDelta(t, 350.00, variation.CurrentPrice, 0.001)
	require.InDelta(t, 400.00, variation.InitialPrice, 0.001)
	require.InDelta(t, -12.5, variation.VariationPercent, 0.001)
	require.Equal(t, "down", variation.Trend)
}

func TestCategorize(t *testing.T) {
	for _, test := range []struct {
		title    string
		category string
		tags     []string
	}{
		{"Smartphone Xiaomi Redmi Note 13", "celulares", []string{"smartphone", "xiaomi", "redmi"}},
		{"Teclado Mecânico RGB", "periféricos", []string{"teclado"}},
		{"Obra de arte abstrata", "outros", nil},
	} {
		category, tags := Categorize(test.title)
		require.Equal(t, test.category, category, test.title)
		require.Equal(t, test.tags, tags, test.title)
	}
}
