package retail

import (
	"time"

	"garimpo-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

var shopeeProfile = &Profile{
	Kind:            Shopee,
	Source:          "Shopee",
	Headers:         fullBrowserHeaders,
	Timeout:         15 * time.Second,
	MaxImages:       10,
	BlockMarkers:    []string{"robot", "access denied"},
	MinBodyBytes:    1000,
	DefaultCurrency: "BRL",
	parse:           parseShopee,
}

// Shopee is the most aggressively bot-walled of the supported retailers
// and renders prices client-side; title and images from the meta tags are
// the realistic ceiling without a browser.
func parseShopee(d *document, out *fields) {
	doc := d.doc

	out.title = htmlutil.MetaContent(doc, "og:title")
	if out.title == "" {
		out.title = htmlutil.FirstText(doc, "title")
	}
	out.description = htmlutil.MetaContent(doc, "description")

	if og := htmlutil.MetaContent(doc, "og:image"); og != "" {
		out.images.Add(og)
	}
	doc.Find("div.shopee-image-viewer img").Each(func(_ int, img *goquery.Selection) {
		out.images.Add(htmlutil.FirstAttr(img, "data-src", "src"))
	})

	if out.price == "" && out.note == "" {
		out.note = "Shopee: price not in the server-rendered page, enter it manually"
	}
}
