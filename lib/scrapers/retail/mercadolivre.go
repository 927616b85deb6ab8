package retail

import (
	"regexp"
	"strings"
	"time"

	"garimpo-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Mercado Livre serves thumbnails with -I/-F size markers; -O is the
// original resolution.
var mercadoLivreImageRules = []RewriteRule{
	{Pattern: regexp.MustCompile(`-[IF]\.(jpg|webp|png)$`), Replace: "-O.$1"},
}

var mercadoLivreProfile = &Profile{
	Kind:            MercadoLivre,
	Source:          "Mercado Livre",
	Headers:         browserHeaders,
	Timeout:         10 * time.Second,
	MaxImages:       10,
	ImageRules:      mercadoLivreImageRules,
	BlockMarkers:    []string{"robot", "access denied"},
	MinBodyBytes:    1000,
	DefaultCurrency: "BRL",
	parse:           parseMercadoLivre,
}

func parseMercadoLivre(d *document, out *fields) {
	doc := d.doc

	out.title = htmlutil.MetaContent(doc, "og:title")
	out.currency = htmlutil.MetaContent(doc, "product:price:currency")
	out.description = htmlutil.MetaContent(doc, "description")

	// product meta tags carry the price on server-rendered pages; the
	// andes widgets are the fallback when the tags are stripped
	out.price = htmlutil.MetaContent(doc, "product:price:amount")
	if out.price == "" {
		out.price = andesAmount(doc.Find("div.poly-price__current").First())
		out.originalPrice = andesAmount(doc.Find("s.andes-money-amount--previous").First())
		out.discount = htmlutil.FirstText(doc, "span.andes-money-amount__discount")
		out.installments = htmlutil.FirstText(doc, "span.poly-price__installments")
	}

	if og := htmlutil.MetaContent(doc, "og:image"); og != "" {
		out.images.Add(og)
	}

	gallerySelectors := []string{
		"figure.ui-pdp-gallery__figure img",
		"img.ui-pdp-thumbnail__image",
	}
	for _, sel := range gallerySelectors {
		doc.Find(sel).Each(func(_ int, img *goquery.Selection) {
			out.images.Add(htmlutil.FirstAttr(img, "data-src", "src"))
		})
	}

	// looser selectors only when the gallery markup drifted away
	if out.images.Len() <= 1 {
		doc.Find("img.ui-pdp-image, img[class*='gallery'], img[class*='carousel']").Each(func(_ int, img *goquery.Selection) {
			src := htmlutil.FirstAttr(img, "data-zoom", "data-src", "src")
			if strings.Contains(src, "mlstatic.com") {
				out.images.Add(src)
			}
		})
	}
	if out.images.Len() <= 1 {
		doc.Find("img[src*='mlstatic.com']").Each(func(_ int, img *goquery.Selection) {
			src, _ := img.Attr("src")
			// NQ_NP marks product shots; everything else on the CDN is
			// chrome
			if strings.Contains(src, "NQ_NP") {
				out.images.Add(src)
			}
		})
	}
}

// andesAmount reassembles a price split across fraction/cents spans.
func andesAmount(sel *goquery.Selection) string {
	fraction := strings.TrimSpace(sel.Find("span.andes-money-amount__fraction").First().Text())
	if fraction == "" {
		return ""
	}
	cents := strings.TrimSpace(sel.Find("span.andes-money-amount__cents").First().Text())
	if cents == "" {
		return fraction
	}
	return fraction + "," + cents
}
