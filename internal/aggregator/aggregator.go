// Package aggregator fans a search out to every store and merges the answers into one
// price-ordered list.
package aggregator

import (
	"context"
	"fmt"
	"medprice-backend/internal/offer"
	"medprice-backend/internal/stores"
	"medprice-backend/internal/telemetry"
	"runtime/debug"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

const report_aggregator_fetch_panic = "aggregator.fetch-panic"

var (
	tracer = otel.Tracer("medprice.internal.aggregator")
	meter  = otel.Meter("medprice.internal.aggregator")
)

type Aggregator struct {
	// maxConcurrency <= 0 means every store is queried at once.
	maxConcurrency int
	tel            telemetry.API

	offerCounter metric.Int64Counter
	panicCounter metric.Int64Counter
}

func New(maxConcurrency int, tel telemetry.API) Aggregator {
	offerCounter, err := meter.Int64Counter(
		"store_offers",
		metric.WithDescription("Valid offers returned per store."),
	)
	if err != nil {
		tel.ReportWarning("aggregator.init-metrics", err)
	}
	panicCounter, err := meter.Int64Counter(
		"store_panics",
		metric.WithDescription("Store fetches that panicked."),
	)
	if err != nil {
		tel.ReportWarning("aggregator.init-metrics", err)
	}

	return Aggregator{
		maxConcurrency: maxConcurrency,
		tel:            telemetry.NewScopedAPI("aggregator", tel),
		offerCounter:   offerCounter,
		panicCounter:   panicCounter,
	}
}

// Aggregate queries every fetcher concurrently and waits for all of them to settle.
//
// The offers are concatenated in the order of `fetchers` (not the order stores answered
// in), invalid offers are dropped per store and the result is stable sorted by ascending price,
// so equal prices keep store order and then the store's own order. The result is never
// nil, a search where every store fails is an empty list.
func (a Aggregator) Aggregate(ctx context.Context, query string, fetchers []stores.Fetcher) []offer.Offer {
	ctx, span := tracer.Start(ctx, "Aggregate")
	defer span.End()
	span.SetAttributes(
		attribute.String("query", query),
		attribute.Int("stores", len(fetchers)),
	)

	results := make([][]offer.Offer, len(fetchers))

	var group errgroup.Group
	if a.maxConcurrency > 0 {
		group.SetLimit(a.maxConcurrency)
	}
	for i, fetcher := range fetchers {
		group.Go(func() error {
			results[i] = a.fetch(ctx, fetcher, query)
			return nil
		})
	}
	// fetch never returns an error
	_ = group.Wait()

	total := 0
	for _, r := range results {
		total += len(r)
	}
	merged := make([]offer.Offer, 0, total)
	for _, r := range results {
		merged = append(merged, r...)
	}

	offer.SortByPrice(merged)

	span.SetAttributes(attribute.Int("offers", len(merged)))
	return merged
}

func (a Aggregator) fetch(ctx context.Context, fetcher stores.Fetcher, query string) (offers []offer.Offer) {
	storeAttr := metric.WithAttributes(attribute.String("store", fetcher.Name()))

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		a.tel.ReportBroken(
			report_aggregator_fetch_panic,
			fmt.Errorf("%v", r),
			fetcher.Name(),
			string(debug.Stack()),
		)
		if a.panicCounter != nil {
			a.panicCounter.Add(ctx, 1, storeAttr)
		}
		offers = nil
	}()

	offers = offer.Filter(fetcher.Fetch(ctx, query))

	a.tel.ReportCount(fmt.Sprintf("offers.%s", fetcher.Name()), int64(len(offers)))
	if a.offerCounter != nil {
		a.offerCounter.Add(ctx, int64(len(offers)), storeAttr)
	}
	return offers
}
