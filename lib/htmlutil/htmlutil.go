package htmlutil

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// MetaContent returns the content attribute of the first <meta> matching
// the given property (og:*, product:*) or name.
func MetaContent(doc *goquery.Document, key string) string {
	content, ok := doc.Find("meta[property='" + key + "']").First().Attr("content")
	if !ok {
		content, _ = doc.Find("meta[name='" + key + "']").First().Attr("content")
	}
	return strings.TrimSpace(removeNonPrintable(content))
}

// FirstText walks an ordered list of selectors and returns the trimmed text
// of the first selector that matches a non-empty node.
func FirstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text != "" {
			return removeNonPrintable(text)
		}
	}
	return ""
}

// FirstAttr is FirstText for attributes; attrs are tried in order on each
// selector before moving to the next one.
func FirstAttr(sel *goquery.Selection, attrs ...string) string {
	for _, attr := range attrs {
		value, ok := sel.Attr(attr)
		value = strings.TrimSpace(value)
		if ok && value != "" {
			return value
		}
	}
	return ""
}
