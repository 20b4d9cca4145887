package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"medprice-backend/internal/offer"
	"medprice-backend/internal/telemetry"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	report_raiadrogasil_fetch          = "raiadrogasil.fetch"
	report_raiadrogasil_decode_product = "raiadrogasil.decode-product"
)

type rdSearchResponse struct {
	Results struct {
		Products []json.RawMessage `json:"products"`
	} `json:"results"`
}

type rdProduct struct {
	Name  string `json:"name"`
	Url   string `json:"url"`
	Price struct {
		// the gateway sends either a number or a numeric string
		FinalPrice decimal.NullDecimal `json:"finalPrice"`
	} `json:"price"`
	Images []struct {
		Url string `json:"url"`
	} `json:"images"`
}

// RaiaDrogasil searches the RD group's product search gateway.
type RaiaDrogasil struct {
	base
}

func NewRaiaDrogasil(store Store, tel telemetry.API) RaiaDrogasil {
	return RaiaDrogasil{base: newBase(store, tel)}
}

func (r RaiaDrogasil) searchUrl() string {
	return fmt.Sprintf(
		"%s/search/v2/br/%s/search",
		r.store.origin(),
		url.PathEscape(r.store.Brand),
	)
}

func (r RaiaDrogasil) Fetch(ctx context.Context, query string) []offer.Offer {
	ctx, span := r.startSpan(ctx, query)
	defer span.End()

	body, err := r.get(
		r.http.R().
			SetContext(ctx).
			SetHeader("accept", "application/json").
			SetHeader("x-api-key", r.store.apiKey()).
			SetQueryParam("term", query).
			SetQueryParam("limit", strconv.Itoa(r.store.limit())).
			SetQueryParam("offset", "0"),
		r.searchUrl(),
	)
	if err != nil {
		return r.broken(span, report_raiadrogasil_fetch, err)
	}

	var parsed rdSearchResponse
	err = json.Unmarshal(body, &parsed)
	if err != nil {
		return r.broken(span, report_raiadrogasil_fetch, fmt.Errorf("unmarshal json: %w", err))
	}

	offers := make([]offer.Offer, 0, len(parsed.Results.Products))
	for _, raw := range parsed.Results.Products {
		var product rdProduct
		err := json.Unmarshal(raw, &product)
		if err != nil {
			r.tel.ReportWarning(report_raiadrogasil_decode_product, err, r.store.Name)
			continue
		}
		o, ok := r.toOffer(product)
		if !ok {
			continue
		}
		offers = append(offers, o)
	}

	r.tel.ReportDebug("raiadrogasil offers", r.store.Name, len(offers))
	return offers
}

func (r RaiaDrogasil) toOffer(product rdProduct) (offer.Offer, bool) {
	if !product.Price.FinalPrice.Valid {
		return offer.Offer{}, false
	}

	o := offer.Offer{
		Store: r.store.Name,
		Name:  product.Name,
		Price: product.Price.FinalPrice.Decimal,
		Link:  r.productLink(product.Url),
	}
	if len(product.Images) > 0 {
		o.Image = product.Images[0].Url
	}
	if !o.Valid() {
		return offer.Offer{}, false
	}
	return o, true
}

func (r RaiaDrogasil) productLink(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(r.store.SiteUrl, "/") + "/" + strings.TrimLeft(path, "/")
}
