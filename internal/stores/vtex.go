package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"medprice-backend/internal/offer"
	"medprice-backend/internal/telemetry"
	"strconv"

	"github.com/shopspring/decimal"
)

const (
	report_vtex_fetch          = "vtex.fetch"
	report_vtex_decode_product = "vtex.decode-product"
)

const vtexSearchPath = "/api/catalog_system/pub/products/search"

type vtexProduct struct {
	ProductName string `json:"productName"`
	Link        string `json:"link"`
	Items       []struct {
		Images []struct {
			ImageUrl string `json:"imageUrl"`
		} `json:"images"`
		Sellers []struct {
			CommertialOffer struct {
				Price decimal.Decimal `json:"Price"`
			} `json:"commertialOffer"`
		} `json:"sellers"`
	} `json:"items"`
}

// Vtex searches a store's public VTEX catalog.
type Vtex struct {
	base
}

func NewVtex(store Store, tel telemetry.API) Vtex {
	return Vtex{base: newBase(store, tel)}
}

func (v Vtex) Fetch(ctx context.Context, query string) []offer.Offer {
	ctx, span := v.startSpan(ctx, query)
	defer span.End()

	body, err := v.get(
		v.http.R().
			SetContext(ctx).
			SetQueryParam("ft", query).
			SetQueryParam("_from", "0").
			SetQueryParam("_to", strconv.Itoa(v.store.limit())),
		v.store.origin()+vtexSearchPath,
	)
	if err != nil {
		return v.broken(span, report_vtex_fetch, err)
	}

	// products are decoded one by one so a single odd product does not
	// throw away the rest of the page
	var rawProducts []json.RawMessage
	err = json.Unmarshal(body, &rawProducts)
	if err != nil {
		return v.broken(span, report_vtex_fetch, fmt.Errorf("unmarshal json: %w", err))
	}

	offers := make([]offer.Offer, 0, len(rawProducts))
	for _, raw := range rawProducts {
		var product vtexProduct
		err := json.Unmarshal(raw, &product)
		if err != nil {
			v.tel.ReportWarning(report_vtex_decode_product, err, v.store.Name)
			continue
		}
		o, ok := v.toOffer(product)
		if !ok {
			continue
		}
		offers = append(offers, o)
	}

	v.tel.ReportDebug("vtex offers", v.store.Name, len(offers))
	return offers
}

func (v Vtex) toOffer(product vtexProduct) (offer.Offer, bool) {
	if len(product.Items) == 0 {
		return offer.Offer{}, false
	}
	item := product.Items[0]
	if len(item.Sellers) == 0 {
		return offer.Offer{}, false
	}

	o := offer.Offer{
		Store: v.store.Name,
		Name:  product.ProductName,
		Price: item.Sellers[0].CommertialOffer.Price,
		Link:  product.Link,
	}
	if len(item.Images) > 0 {
		o.Image = item.Images[0].ImageUrl
	}
	if !o.Valid() {
		return offer.Offer{}, false
	}
	return o, true
}
