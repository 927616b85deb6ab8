package retail

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Product is the subset of a schema.org Product JSON-LD block the profiles
// care about. Retailers are sloppy with types (price as number or string,
// brand as object or string, image as string or list), so everything is
// normalized to strings during decoding.
type Product struct {
	Name         string
	Description  string
	Sku          string
	Brand        string
	Images       []string
	Price        string
	Availability string
	Rating       string
	ReviewsCount string
}

// ProductFromDocument scans the document's ld+json script blocks for the
// first @type=Product entry. Malformed blocks are skipped, not errors.
func ProductFromDocument(doc *goquery.Document) (Product, bool) {
	var product Product
	found := false

	doc.Find("script[type='application/ld+json']").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		var block map[string]any
		if err := json.Unmarshal([]byte(sel.Text()), &block); err != nil {
			return true
		}
		if asString(block["@type"]) != "Product" {
			return true
		}
		product = productFromBlock(block)
		found = true
		return false
	})

	return product, found
}

func productFromBlock(block map[string]any) Product {
	p := Product{
		Name:        asString(block["name"]),
		Description: asString(block["description"]),
		Sku:         asString(block["sku"]),
	}

	switch brand := block["brand"].(type) {
	case string:
		p.Brand = brand
	case map[string]any:
		p.Brand = asString(brand["name"])
	}

	switch image := block["image"].(type) {
	case string:
		p.Images = []string{image}
	case []any:
		for _, entry := range image {
			if u := asString(entry); strings.HasPrefix(u, "http") {
				p.Images = append(p.Images, u)
			}
		}
	}

	if offers, ok := block["offers"].(map[string]any); ok {
		p.Price = asString(offers["price"])
		p.Availability = asString(offers["availability"])
	}

	if rating, ok := block["aggregateRating"].(map[string]any); ok {
		p.Rating = asString(rating["ratingValue"])
		p.ReviewsCount = asString(rating["reviewCount"])
	}

	return p
}

func asString(v any) string {
	switch value := v.(type) {
	case string:
		return strings.TrimSpace(value)
	case float64:
		// json numbers decode as float64; avoid trailing zeros on
		// integral values
		if value == float64(int64(value)) {
			return fmt.Sprintf("%d", int64(value))
		}
		return fmt.Sprintf("%g", value)
	default:
		return ""
	}
}
