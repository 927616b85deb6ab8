package retail

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"garimpo-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// any size marker (._SS40_., ._AC_SX466_., ...) swaps for the 1500px
// variant
var amazonImageRules = []RewriteRule{
	{Pattern: regexp.MustCompile(`\._AC_[A-Za-z0-9,_]+_\.`), Replace: "._SL1500_."},
	{Pattern: regexp.MustCompile(`\._[A-Z]{2}\d+_\.`), Replace: "._SL1500_."},
}

var amazonMediaUrlRegex = regexp.MustCompile(`https://m\.media-amazon\.com/images/I/[^"'\\]+\.jpg`)

var amazonProfile = &Profile{
	Kind:            Amazon,
	Source:          "Amazon",
	Headers:         fullBrowserHeaders,
	Timeout:         15 * time.Second,
	MaxImages:       10,
	ImageRules:      amazonImageRules,
	BlockMarkers:    []string{"to discuss automated access", "api-services-support@amazon.com"},
	MinBodyBytes:    2000,
	DefaultCurrency: "BRL",
	// amzn.to short links sometimes stall while the product page itself
	// loads fine; keep going with whatever URL we have
	TolerateResolveFailure: true,
	parse:                  parseAmazon,
}

func parseAmazon(d *document, out *fields) {
	doc := d.doc

	out.title = htmlutil.FirstText(doc, "#productTitle")
	if out.title == "" {
		out.title = htmlutil.MetaContent(doc, "og:title")
	}

	parseAmazonPrices(doc, out)

	out.discount = htmlutil.FirstText(doc, "span.savingsPercentage")

	out.description = htmlutil.MetaContent(doc, "description")
	if out.description == "" {
		var features []string
		doc.Find("#feature-bullets ul.a-unordered-list li span.a-list-item").Each(func(_ int, sel *goquery.Selection) {
			if text := strings.TrimSpace(sel.Text()); text != "" && len(features) < 3 {
				features = append(features, text)
			}
		})
		out.description = strings.Join(features, " | ")
	}

	parseAmazonImages(d, out)

	if rating := htmlutil.FirstText(doc, "span.a-icon-alt"); rating != "" {
		// "4,5 de 5 estrelas" → "4.5"
		if m := regexp.MustCompile(`[\d,]+`).FindString(rating); m != "" {
			out.rating = strings.ReplaceAll(m, ",", ".")
		}
	}
	if reviews := htmlutil.FirstText(doc, "#acrCustomerReviewText"); reviews != "" {
		out.reviewsCount = regexp.MustCompile(`\d+`).FindString(strings.ReplaceAll(reviews, ".", ""))
	}
	out.availability = htmlutil.FirstText(doc, "#availability span")

	var crumbs []string
	doc.Find("#wayfinding-breadcrumbs_feature_div ul li a").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			crumbs = append(crumbs, text)
		}
	})
	if len(crumbs) > 0 {
		out.category = crumbs[len(crumbs)-1]
	}
}

func parseAmazonPrices(doc *goquery.Document, out *fields) {
	// current (discounted) price: the offscreen text of the main price
	// widget is the most stable source
	out.price = htmlutil.FirstText(doc,
		"span.a-price[data-a-size='xl'] span.a-offscreen",
		"span.priceToPay span.a-offscreen",
	)
	if out.price == "" {
		whole := htmlutil.FirstText(doc, "span.a-price:not(.a-text-price) span.a-price-whole")
		fraction := htmlutil.FirstText(doc, "span.a-price:not(.a-text-price) span.a-price-fraction")
		if whole != "" {
			out.price = strings.TrimSuffix(whole, ",")
			if fraction != "" {
				out.price = out.price + "," + fraction
			}
		}
	}
	price, havePrice := ParsePrice(out.price)

	// original price: strike-through "De: R$ ..." text, then the a-text-price
	// widget, then basisPrice. Anything not above the current price is some
	// other widget's price leaking in.
	higherThanCurrent := func(raw string) bool {
		value, ok := ParsePrice(raw)
		return ok && (!havePrice || value > price)
	}
	doc.Find("span.a-text-strike").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if text := strings.TrimSpace(sel.Text()); higherThanCurrent(text) {
			out.originalPrice = text
			return false
		}
		return true
	})
	if out.originalPrice == "" {
		doc.Find("span.a-price.a-text-price span.a-offscreen").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if text := strings.TrimSpace(sel.Text()); higherThanCurrent(text) {
				out.originalPrice = text
				return false
			}
			return true
		})
	}
	if out.originalPrice == "" {
		if text := htmlutil.FirstText(doc, "span.basisPrice span.a-offscreen"); higherThanCurrent(text) {
			out.originalPrice = text
		}
	}
}

func parseAmazonImages(d *document, out *fields) {
	doc := d.doc

	if og := htmlutil.MetaContent(doc, "og:image"); og != "" {
		out.images.Add(og)
	}

	// the image gallery lives in an embedded colorImages script blob, not
	// in the DOM
	if strings.Contains(d.body, "colorImages") {
		for _, imageUrl := range amazonMediaUrlRegex.FindAllString(d.body, -1) {
			out.images.Add(imageUrl)
		}
	}

	doc.Find("img.a-dynamic-image").Each(func(_ int, img *goquery.Selection) {
		src := htmlutil.FirstAttr(img, "data-old-hires", "src")
		if src == "" {
			// data-a-dynamic-image is a {"url": [w, h], ...} json blob
			if blob, ok := img.Attr("data-a-dynamic-image"); ok && strings.HasPrefix(blob, "{") {
				var sizes map[string][]float64
				if err := json.Unmarshal([]byte(blob), &sizes); err == nil {
					for imageUrl := range sizes {
						src = imageUrl
						break
					}
				}
			}
		}
		out.images.Add(src)
	})

	doc.Find("#altImages ul li.imageThumbnail img").Each(func(_ int, img *goquery.Selection) {
		if src, ok := img.Attr("src"); ok {
			out.images.Add(src)
		}
	})
}
