package stores

import (
	"bytes"
	"context"
	"fmt"
	"medprice-backend/internal/offer"
	"medprice-backend/internal/telemetry"
	"medprice-backend/lib/htmlutil"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_html_fetch       = "html.fetch"
	report_html_parse_price = "html.parse-price"
)

// Html scrapes a storefront's search results page using the store's CSS selectors.
type Html struct {
	base
}

func NewHtml(store Store, tel telemetry.API) Html {
	return Html{base: newBase(store, tel)}
}

// searchUrl substitutes {query}, escaped as a path segment before the '?' and as
// a query value after it.
func (h Html) searchUrl(query string) string {
	path, rawQuery, hasQuery := strings.Cut(h.store.SearchUrl, "?")
	path = strings.ReplaceAll(path, "{query}", url.PathEscape(query))
	if !hasQuery {
		return path
	}
	return path + "?" + strings.ReplaceAll(rawQuery, "{query}", url.QueryEscape(query))
}

// find evaluates a selector relative to the item, an empty selector is the item itself.
func find(item *goquery.Selection, selector string) *goquery.Selection {
	if selector == "" {
		return item
	}
	return item.Find(selector)
}

func (h Html) Fetch(ctx context.Context, query string) []offer.Offer {
	ctx, span := h.startSpan(ctx, query)
	defer span.End()

	link := h.searchUrl(query)
	body, err := h.get(h.http.R().SetContext(ctx), link)
	if err != nil {
		return h.broken(span, report_html_fetch, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return h.broken(span, report_html_fetch, fmt.Errorf("parse html: %w", err))
	}

	pageUrl, err := url.Parse(link)
	if err != nil {
		return h.broken(span, report_html_fetch, fmt.Errorf("parse url: %w", err))
	}

	selectors := h.store.Selectors
	offers := []offer.Offer{}
	doc.Find(selectors.Item).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if len(offers) >= h.store.limit() {
			return false
		}

		priceSel := find(item, selectors.Price)
		priceText := htmlutil.FirstAttr(priceSel, "content")
		if priceText == "" {
			priceText = htmlutil.SelectionText(priceSel)
		}
		price, err := offer.ParsePriceText(priceText)
		if err != nil {
			h.tel.ReportWarning(report_html_parse_price, err, h.store.Name)
			return true
		}

		o := offer.Offer{
			Store: h.store.Name,
			Name:  htmlutil.SelectionText(find(item, selectors.Name)),
			Price: price,
			Link:  htmlutil.ResolveURL(pageUrl, htmlutil.FirstAttr(find(item, selectors.Link), "href")),
			Image: htmlutil.ResolveURL(pageUrl, htmlutil.FirstAttr(find(item, selectors.Image), "src", "data-src")),
		}
		if o.Valid() {
			offers = append(offers, o)
		}
		return true
	})

	h.tel.ReportDebug("html offers", h.store.Name, len(offers))
	return offers
}
