package search

import (
	"medprice-backend/internal/offer"
	"strings"
)

// OfferJSON is an offer as it appears on the wire.
type OfferJSON struct {
	Loja   string  `json:"loja"`
	Nome   string  `json:"nome"`
	Preco  float64 `json:"preco"`
	Link   string  `json:"link"`
	Imagem string  `json:"imagem"`
}

type SearchRequest struct {
	Remedio string `json:"remedio"`
	// Q is an alias of Remedio.
	Q     string   `json:"q,omitempty"`
	Lojas []string `json:"lojas,omitempty"`
}

type SearchResponse struct {
	Ofertas []OfferJSON `json:"ofertas"`
}

type StoreJSON struct {
	Nome string `json:"nome"`
	Tipo string `json:"tipo"`
}

type StoresResponse struct {
	Lojas []StoreJSON `json:"lojas"`
}

func (r SearchRequest) query() string {
	if strings.TrimSpace(r.Remedio) != "" {
		return r.Remedio
	}
	return r.Q
}

// storeNames splits every comma separated entry, so ["a,b", "c"] is [a b c].
func (r SearchRequest) storeNames() []string {
	return splitStoreNames(r.Lojas)
}

func splitStoreNames(values []string) []string {
	var out []string
	for _, v := range values {
		for _, name := range strings.Split(v, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

// ToOffersJSON converts offers to their wire form, prices become json numbers.
func ToOffersJSON(offers []offer.Offer) []OfferJSON {
	out := make([]OfferJSON, len(offers))
	for i, o := range offers {
		out[i] = OfferJSON{
			Loja:   o.Store,
			Nome:   o.Name,
			Preco:  o.Price.InexactFloat64(),
			Link:   o.Link,
			Imagem: o.Image,
		}
	}
	return out
}

func toStoresJSON(infos []StoreInfo) []StoreJSON {
	out := make([]StoreJSON, len(infos))
	for i, info := range infos {
		out[i] = StoreJSON{Nome: info.Name, Tipo: string(info.Kind)}
	}
	return out
}
