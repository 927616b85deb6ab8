package retail

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDispatch(t *testing.T) {
	cases := []struct {
		url    string
		source string
	}{
		{"https://mercadolivre.com.br/produto/MLB123", "Mercado Livre"},
		{"https://www.mercadolivre.com/sec/1abcd", "Mercado Livre"},
		{"https://articulo.mercadolibre.com.ar/MLA-123", "Mercado Livre"},
		{"https://amzn.to/3xYz12", "Amazon"},
		{"https://www.amazon.com.br/dp/B0ABCDEF", "Amazon"},
		{"https://tidd.ly/3abcde", "Kabum"},
		{"https://www.kabum.com.br/produto/123456", "Kabum"},
		{"https://pt.aliexpress.com/item/100500123.html", "AliExpress"},
		{"https://s.click.aliexpress.com/e/_Dabcde", "AliExpress"},
		{"https://shopee.com.br/product/1/2", "Shopee"},
		{"https://s.shopee.com.br/abcdef", "Shopee"},
	}

	for _, test := range cases {
		profile, err := Dispatch(test.url)
		require.NoError(t, err, "url=%s", test.url)
		require.Equal(t, test.source, profile.Source, "url=%s", test.url)
	}
}

func TestDispatchUnsupportedDomain(t *testing.T) {
	_, err := Dispatch("https://unknown-shop.example/x")
	require.True(t, errors.Is(err, ErrUnsupportedDomain))

	_, err = Dispatch("not a url at all")
	require.True(t, errors.Is(err, ErrUnsupportedDomain))
}
