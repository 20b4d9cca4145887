package stores

import (
	"context"
	"errors"
	"fmt"
	"medprice-backend/internal/offer"
	"medprice-backend/internal/telemetry"
	"medprice-backend/lib/textutil"
)

// Fetcher searches a single store.
//
// Fetch never fails: network errors, timeouts, unexpected statuses and malformed payloads
// are reported through telemetry and result in an empty (non-nil) list, so that one store
// never blocks the others. There are no retries.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, query string) []offer.Offer
}

// New creates the fetcher for a store's kind.
func New(store Store, tel telemetry.API) (Fetcher, error) {
	err := store.Validate()
	if err != nil {
		return nil, err
	}

	switch store.Kind {
	case KindVtex:
		return NewVtex(store, tel), nil
	case KindRaiaDrogasil:
		return NewRaiaDrogasil(store, tel), nil
	case KindHtml:
		return NewHtml(store, tel), nil
	}
	return nil, fmt.Errorf("store %s: unknown kind %q", store.Name, store.Kind)
}

// Build creates fetchers for every enabled store, keeping their order.
// Store names must be unique (ignoring case, spacing and accents).
func Build(stores []Store, tel telemetry.API) ([]Fetcher, error) {
	var errs []error
	seen := make(map[string]string)
	fetchers := make([]Fetcher, 0, len(stores))

	for _, store := range stores {
		if store.Disabled {
			continue
		}

		key := textutil.NormalizeName(store.Name)
		previous, duplicate := seen[key]
		if duplicate && key != "" {
			errs = append(errs, fmt.Errorf("store %s: duplicates store %s", store.Name, previous))
			continue
		}
		seen[key] = store.Name

		fetcher, err := New(store, tel)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		fetchers = append(fetchers, fetcher)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return fetchers, nil
}
