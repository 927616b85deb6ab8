package retail

import (
	"regexp"
	"strings"
	"time"

	"garimpo-backend/lib/htmlutil"
	"garimpo-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// _m/_p are thumbnail sizes, _g/_gg the large ones
var kabumImageRules = []RewriteRule{
	{Pattern: regexp.MustCompile(`_small`), Replace: ""},
	{Pattern: regexp.MustCompile(`_medium`), Replace: ""},
	{Pattern: regexp.MustCompile(`_m\.jpg$`), Replace: "_g.jpg"},
	{Pattern: regexp.MustCompile(`_p\.jpg$`), Replace: "_gg.jpg"},
}

// product photos live under these path markers on the Kabum CDN
var kabumImagePathMarkers = []string{"produto", "fotos", "sync_mirakl"}

var kabumProfile = &Profile{
	Kind:            Kabum,
	Source:          "Kabum",
	Headers:         fullBrowserHeaders,
	Timeout:         15 * time.Second,
	MaxImages:       15,
	ImageRules:      kabumImageRules,
	BlockMarkers:    []string{"access denied"},
	MinBodyBytes:    1000,
	DefaultCurrency: "BRL",
	// tidd.ly affiliate links resolve through a third-party tracker that
	// flakes independently of kabum.com.br
	TolerateResolveFailure: true,
	parse:                  parseKabum,
}

func parseKabum(d *document, out *fields) {
	doc := d.doc
	product, hasJsonLd := ProductFromDocument(doc)

	// the JSON-LD Product block is the primary source; selectors cover
	// pages where it is missing or partial
	out.title = product.Name
	if out.title == "" {
		out.title = htmlutil.FirstText(doc, "h1.finalPrice, h1[itemprop='name']")
	}
	if out.title == "" {
		out.title = htmlutil.MetaContent(doc, "og:title")
	}

	out.price = product.Price
	if out.price == "" {
		out.price = htmlutil.FirstText(doc, "h4.finalPrice")
	}
	out.originalPrice = htmlutil.FirstText(doc, "span.oldPrice")
	out.installments = htmlutil.FirstText(doc, "p.regularPrice")

	out.description = product.Description
	if out.description == "" {
		out.description = htmlutil.MetaContent(doc, "description")
	}

	parseKabumImages(doc, product, out)

	out.brand = product.Brand
	out.sku = product.Sku
	out.rating = product.Rating
	if out.rating == "" {
		out.rating = htmlutil.FirstText(doc, "span[itemprop='ratingValue']")
	}
	out.reviewsCount = product.ReviewsCount
	if out.reviewsCount == "" {
		out.reviewsCount = htmlutil.FirstText(doc, "span[itemprop='reviewCount']")
	}

	out.availability = kabumAvailability(d, product, hasJsonLd)

	crumbs := doc.Find("nav.breadcrumb a")
	if crumbs.Length() > 1 {
		out.category = strings.TrimSpace(crumbs.Last().Text())
	}
}

func parseKabumImages(doc *goquery.Document, product Product, out *fields) {
	for _, imageUrl := range product.Images {
		out.images.Add(imageUrl)
	}

	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		for _, attr := range []string{"src", "data-src"} {
			src, _ := img.Attr(attr)
			if src == "" {
				continue
			}
			for _, marker := range kabumImagePathMarkers {
				if strings.Contains(src, marker) {
					out.images.Add(src)
					break
				}
			}
		}
	})

	if out.images.Len() == 0 {
		if og := htmlutil.MetaContent(doc, "og:image"); og != "" {
			out.images.Add(og)
		}
	}
}

func kabumAvailability(d *document, product Product, hasJsonLd bool) string {
	if hasJsonLd {
		switch {
		case strings.Contains(product.Availability, "InStock"):
			return "in stock"
		case strings.Contains(product.Availability, "OutOfStock"):
			return "out of stock"
		case strings.Contains(product.Availability, "PreOrder"):
			return "pre-order"
		}
	}
	if text := htmlutil.FirstText(d.doc, "span.availability"); text != "" {
		return text
	}
	if textutil.ContainsAny(d.body, []string{"indisponível", "esgotado"}) {
		return "out of stock"
	}
	return ""
}
