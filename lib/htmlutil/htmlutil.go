package htmlutil

import (
	"bytes"
	"medprice-backend/lib/textutil"
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GetText concatenates every text node below `node`.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		// text nodes in separate elements should not be glued together
		buffer.WriteByte(' ')
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		getTextRecursive(child, buffer)
	}
}

func removeNonPrintable(s string) string {
	var out strings.Builder
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			out.WriteRune(c)
		}
	}
	return out.String()
}

// CleanText removes non-printable characters and collapses whitespace.
func CleanText(s string) string {
	return textutil.CollapseWhitespace(removeNonPrintable(s))
}

// SelectionText is the cleaned text of the first node in the selection.
func SelectionText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	return CleanText(GetText(sel.Nodes[0]))
}

// FirstAttr returns the first non-empty value among `attrs` on the first node in the selection.
func FirstAttr(sel *goquery.Selection, attrs ...string) string {
	if sel.Length() == 0 {
		return ""
	}
	first := sel.First()
	for _, a := range attrs {
		value := strings.TrimSpace(first.AttrOr(a, ""))
		if value != "" {
			return value
		}
	}
	return ""
}

// ResolveURL resolves a possibly relative reference against the page url.
func ResolveURL(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base == nil {
		return parsed.String()
	}
	return base.ResolveReference(parsed).String()
}
