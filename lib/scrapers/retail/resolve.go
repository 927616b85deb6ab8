package retail

import (
	"context"
	"log/slog"

	"github.com/go-resty/resty/v2"
)

// Resolve follows the redirect chain of a (possibly shortened) product URL
// to its canonical form using the profile's header bundle. On timeout or
// connection failure it reports a NetworkError rather than silently
// handing back the input; the caller decides whether to degrade.
func Resolve(ctx context.Context, client *resty.Client, profile *Profile, rawUrl string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, profile.Timeout)
	defer cancel()

	res, err := client.R().
		SetContext(ctx).
		SetHeaders(profile.Headers).
		Get(rawUrl)
	if err != nil {
		return "", &NetworkError{Op: "resolve", Url: rawUrl, Err: err}
	}

	final := res.RawResponse.Request.URL.String()
	if final != rawUrl {
		slog.DebugContext(ctx, "resolved short link", "from", rawUrl, "to", final)
	}
	return final, nil
}
