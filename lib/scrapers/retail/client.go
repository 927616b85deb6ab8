package retail

import (
	"net/http/cookiejar"

	"garimpo-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

const maxRedirects = 10

// NewClient builds the outbound HTTP client the engine scrapes with.
// Timeouts are applied per request from the retailer profile, not on the
// client, since profiles disagree on how patient to be.
func NewClient() *resty.Client {
	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err == nil {
		client.SetCookieJar(jar)
	}
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects))

	telemetry.InstrumentResty(client, "scrapers/retail/http")
	return client
}
