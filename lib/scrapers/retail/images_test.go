package retail

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImageCollectorDedupAcrossVariants(t *testing.T) {
	c := NewImageCollector(10, amazonImageRules)

	// the same image under three resolution suffixes collapses into one
	// entry, rewritten to the high-quality variant
	require.True(t, c.Add("https://m.media-amazon.com/images/I/61abcDEF1234L._SS40_.jpg"))
	require.False(t, c.Add("https://m.media-amazon.com/images/I/61abcDEF1234L._AC_SX466_.jpg"))
	require.False(t, c.Add("https://m.media-amazon.com/images/I/61abcDEF1234L._SL1500_.jpg"))

	require.Equal(t, []string{
		"https://m.media-amazon.com/images/I/61abcDEF1234L._SL1500_.jpg",
	}, c.Urls())
}

func TestImageCollectorMercadoLivreVariants(t *testing.T) {
	c := NewImageCollector(10, mercadoLivreImageRules)

	require.True(t, c.Add("https://http2.mlstatic.com/D_NQ_NP_2X_936553-MLB12345678901_102023-I.webp"))
	require.False(t, c.Add("https://http2.mlstatic.com/D_NQ_NP_2X_936553-MLB12345678901_102023-F.webp"))

	require.Equal(t, []string{
		"https://http2.mlstatic.com/D_NQ_NP_2X_936553-MLB12345678901_102023-O.webp",
	}, c.Urls())
}

func TestImageCollectorRejections(t *testing.T) {
	c := NewImageCollector(10, nil)

	require.False(t, c.Add("data:image/gif;base64,R0lGODlh"))
	require.False(t, c.Add("//cdn.example.com/img/relative.jpg"))
	require.False(t, c.Add("https://cdn.example.com/assets/play-button.png"))
	require.False(t, c.Add("https://cdn.example.com/img/transparent-1x1.gif"))
	require.False(t, c.Add("https://static.kabum.com.br/conteudo/logo-nulo.png"))
	require.Equal(t, 0, c.Len())

	// a path containing "logo" outside the filename still passes
	require.True(t, c.Add("https://cdn.example.com/logos-dept/productshot123.jpg"))
}

func TestImageCollectorOrderAndCap(t *testing.T) {
	c := NewImageCollector(3, nil)

	require.True(t, c.Add("https://cdn.example.com/product-AAAAAAAAAA.jpg"))
	require.True(t, c.Add("https://cdn.example.com/product-BBBBBBBBBB.jpg"))
	require.True(t, c.Add("https://cdn.example.com/product-CCCCCCCCCC.jpg"))
	require.False(t, c.Add("https://cdn.example.com/product-DDDDDDDDDD.jpg"))

	require.Equal(t, []string{
		"https://cdn.example.com/product-AAAAAAAAAA.jpg",
		"https://cdn.example.com/product-BBBBBBBBBB.jpg",
		"https://cdn.example.com/product-CCCCCCCCCC.jpg",
	}, c.Urls())
}
