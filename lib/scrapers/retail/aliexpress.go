package retail

import (
	"time"

	"garimpo-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

var aliExpressProfile = &Profile{
	Kind:            AliExpress,
	Source:          "AliExpress",
	Headers:         browserHeaders,
	Timeout:         15 * time.Second,
	MaxImages:       10,
	BlockMarkers:    []string{"punish", "unusual traffic"},
	MinBodyBytes:    1000,
	DefaultCurrency: "USD",
	parse:           parseAliExpress,
}

// AliExpress renders the product client-side; the meta tags are the only
// data in the initial HTML, and the price tag is usually absent.
func parseAliExpress(d *document, out *fields) {
	doc := d.doc

	out.title = htmlutil.MetaContent(doc, "og:title")
	out.price = htmlutil.MetaContent(doc, "product:price:amount")
	out.currency = htmlutil.MetaContent(doc, "product:price:currency")
	out.description = htmlutil.MetaContent(doc, "og:description")

	if og := htmlutil.MetaContent(doc, "og:image"); og != "" {
		out.images.Add(og)
	}
	doc.Find("img.magnifier-image, div.images-view-item img").Each(func(_ int, img *goquery.Selection) {
		out.images.Add(htmlutil.FirstAttr(img, "data-src", "src"))
	})

	if out.price == "" {
		out.note = joinNotes(out.note, "AliExpress: price not in the server-rendered page, enter it manually")
	}
}
