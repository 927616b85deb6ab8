package retail

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"garimpo-backend/lib/telemetry"

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

func setupEngine(t *testing.T, handler http.Handler) (Engine, *atomic.Int64) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/retail")
	t.Cleanup(cleanup)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	target, err := url.Parse(server.URL)
	require.NoError(t, err)

	requests := &atomic.Int64{}
	client := resty.New()
	client.GetClient().Transport = rewriteTransport{target: target, requests: requests}
	return NewEngine(client), requests
}

func padPage(body string) string {
	// fixtures must clear the profiles' short-body bot-block threshold
	return body + "<!-- " + strings.Repeat("x", 2100) + " -->"
}

const mercadoLivreFixture = `<html><head>
<meta property="og:title" content="Produto X"/>
<meta property="og:image" content="https://http2.mlstatic.com/D_NQ_NP_936553-MLB12345678901_102023-O.webp"/>
<meta property="product:price:amount" content="199.90"/>
<meta property="product:price:currency" content="BRL"/>
<meta name="description" content="Um produto de teste"/>
</head><body>
<figure class="ui-pdp-gallery__figure"><img src="https://http2.mlstatic.com/D_NQ_NP_936553-MLB12345678901_102023-I.webp"/></figure>
<figure class="ui-pdp-gallery__figure"><img src="https://http2.mlstatic.com/D_NQ_NP_841921-MLB98765432109_102023-I.webp"/></figure>
</body></html>`

func TestExtractMercadoLivre(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sec/1abcd", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/produto/MLB123", http.StatusFound)
	})
	mux.HandleFunc("/produto/MLB123", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, padPage(mercadoLivreFixture))
	})
	engine, _ := setupEngine(t, mux)

	ex, err := engine.Extract(context.Background(), "https://mercadolivre.com/sec/1abcd")
	require.NoError(t, err)

	require.Equal(t, StatusSuccess, ex.Status)
	require.Equal(t, "Mercado Livre", ex.Source)
	require.Equal(t, "Produto X", ex.Title)
	require.Equal(t, "https://mercadolivre.com/sec/1abcd", ex.ExtractUrl)
	require.Contains(t, ex.Url, "/produto/MLB123")
	require.NotNil(t, ex.Price)
	require.InDelta(t, 199.90, *ex.Price, 0.001)
	require.Equal(t, "BRL", ex.Currency)
	// og:image and its -I gallery variant collapse into one entry; the
	// second gallery image is distinct
	require.Equal(t, []string{
		"https://http2.mlstatic.com/D_NQ_NP_936553-MLB12345678901_102023-O.webp",
		"https://http2.mlstatic.com/D_NQ_NP_841921-MLB98765432109_102023-O.webp",
	}, ex.Images)
	require.Empty(t, ex.Note)
}

const mercadoLivreWidgetFixture = `<html><head>
<meta property="og:title" content="Produto Y"/>
<meta property="og:image" content="https://http2.mlstatic.com/D_NQ_NP_111111-MLB11111111111_102023-O.webp"/>
</head><body>
<div class="poly-price__current">
  <span class="andes-money-amount__fraction">3.254</span>
  <span class="andes-money-amount__cents">99</span>
</div>
<s class="andes-money-amount--previous">
  <span class="andes-money-amount__fraction">4.199</span>
</s>
<span class="poly-price__installments">em 10x R$ 325,50 sem juros</span>
</body></html>`

func TestExtractMercadoLivrePriceWidgetFallback(t *testing.T) {
	// price meta tags stripped; the andes widget chain takes over without
	// disturbing title or image extraction
	engine, _ := setupEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, padPage(mercadoLivreWidgetFixture))
	}))

	ex, err := engine.Extract(context.Background(), "https://produto.mercadolivre.com.br/MLB-111")
	require.NoError(t, err)

	require.Equal(t, StatusSuccess, ex.Status)
	require.NotNil(t, ex.Price)
	require.InDelta(t, 3254.99, *ex.Price, 0.001)
	require.NotNil(t, ex.OriginalPrice)
	require.InDelta(t, 4199.00, *ex.OriginalPrice, 0.001)
	// no native label on the page: derived from the two prices
	require.Equal(t, "-22%", ex.Discount)
	require.Equal(t, "em 10x R$ 325,50 sem juros", ex.Installments)
}

const kabumFixture = `<html><head>
<script type="application/ld+json">
{
  "@type": "Product",
  "name": "Placa de Vídeo RTX 4070",
  "description": "12GB GDDR6X",
  "sku": "461024",
  "brand": {"name": "Galax"},
  "image": ["https://images.kabum.com.br/produtos/fotos/461024/placa-461024_m.jpg"],
  "offers": {"price": 3599.99, "availability": "https://schema.org/InStock"}
}
</script>
</head><body>
<span class="oldPrice">R$ 4.299,99</span>
<p class="regularPrice">em até 10x de R$ 359,99</p>
</body></html>`

func TestExtractKabumJsonLd(t *testing.T) {
	engine, _ := setupEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, padPage(kabumFixture))
	}))

	ex, err := engine.Extract(context.Background(), "https://www.kabum.com.br/produto/461024")
	require.NoError(t, err)

	require.Equal(t, StatusSuccess, ex.Status)
	require.Equal(t, "Placa de Vídeo RTX 4070", ex.Title)
	require.NotNil(t, ex.Price)
	require.InDelta(t, 3599.99, *ex.Price, 0.001)
	require.NotNil(t, ex.OriginalPrice)
	require.InDelta(t, 4299.99, *ex.OriginalPrice, 0.001)
	require.Equal(t, "-16%", ex.Discount)
	require.Equal(t, "Galax", ex.Brand)
	require.Equal(t, "461024", ex.Sku)
	require.Equal(t, "in stock", ex.Availability)
	require.Equal(t, []string{
		"https://images.kabum.com.br/produtos/fotos/461024/placa-461024_g.jpg",
	}, ex.Images)
}

func TestExtractDegradedOnCaptcha(t *testing.T) {
	engine, _ := setupEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>please solve this CAPTCHA to continue</body></html>")
	}))

	ex, err := engine.Extract(context.Background(), "https://shopee.com.br/product/1/2")
	require.NoError(t, err, "a bot wall is a degraded result, not an error")

	require.Equal(t, StatusDegraded, ex.Status)
	require.Contains(t, ex.Note, "CAPTCHA")
	require.Nil(t, ex.Price)
}

func TestExtractDegradedOnShortBody(t *testing.T) {
	engine, _ := setupEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html></html>")
	}))

	ex, err := engine.Extract(context.Background(), "https://mercadolivre.com.br/p/MLB1")
	require.NoError(t, err)

	require.Equal(t, StatusDegraded, ex.Status)
	require.Contains(t, ex.Note, "limited content")
}

func TestExtractUnsupportedDomainMakesNoRequest(t *testing.T) {
	engine, requests := setupEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "should never be reached")
	}))

	_, err := engine.Extract(context.Background(), "https://unknown-shop.example/x")
	require.ErrorIs(t, err, ErrUnsupportedDomain)
	require.Equal(t, int64(0), requests.Load())
}

func TestExtractNetworkFailure(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/retail")
	t.Cleanup(cleanup)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target, err := url.Parse(server.URL)
	require.NoError(t, err)
	server.Close() // connection refused from here on

	requests := &atomic.Int64{}
	client := resty.New()
	client.GetClient().Transport = rewriteTransport{target: target, requests: requests}
	engine := NewEngine(client)

	ex, err := engine.Extract(context.Background(), "https://mercadolivre.com.br/p/MLB1")
	require.Error(t, err)
	require.True(t, IsNetworkError(err))
	require.Equal(t, StatusFailed, ex.Status)
}
