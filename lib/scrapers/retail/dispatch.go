package retail

import (
	"fmt"
	"net/url"
	"strings"
)

// domain-substring dispatch table, first match wins. Short-link domains
// map to the retailer that owns them so shortened affiliate URLs route
// without a resolution round-trip.
var dispatchTable = []struct {
	substr string
	kind   Kind
}{
	{"mercadolivre", MercadoLivre},
	{"mercadolibre", MercadoLivre},
	{"amzn.to", Amazon},
	{"amazon", Amazon},
	{"tidd.ly", Kabum},
	{"kabum", Kabum},
	{"aliexpress", AliExpress},
	{"shopee", Shopee},
}

// Dispatch selects the retailer profile owning the URL's host. Unknown
// domains fail closed with ErrUnsupportedDomain before any network call.
func Dispatch(rawUrl string) (*Profile, error) {
	parsed, err := url.Parse(rawUrl)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a valid url", ErrUnsupportedDomain, rawUrl)
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return nil, fmt.Errorf("%w: %q has no host", ErrUnsupportedDomain, rawUrl)
	}

	for _, rule := range dispatchTable {
		if strings.Contains(host, rule.substr) {
			return profiles[rule.kind], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedDomain, host)
}

var profiles = map[Kind]*Profile{
	MercadoLivre: mercadoLivreProfile,
	Amazon:       amazonProfile,
	Kabum:        kabumProfile,
	AliExpress:   aliExpressProfile,
	Shopee:       shopeeProfile,
}
