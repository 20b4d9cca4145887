package search

import (
	"context"
	"errors"
	"fmt"
	"medprice-backend/internal/aggregator"
	"medprice-backend/internal/offer"
	"medprice-backend/internal/stores"
	"medprice-backend/internal/telemetry"
	"medprice-backend/lib/textutil"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("medprice.services.search")

var (
	ErrMissingQuery = errors.New("missing query")
	ErrUnknownStore = errors.New("unknown store")
)

// similarity a requested store name must reach to match a configured one
const storeMatchThreshold = 0.9

const cacheSize = 256

type Options struct {
	// CacheTTL of 0 disables caching.
	CacheTTL       time.Duration
	MaxConcurrency int
}

// StoreInfo describes an enabled store.
type StoreInfo struct {
	Name string
	Kind stores.Kind
}

type Service struct {
	infos      []StoreInfo
	fetchers   []stores.Fetcher
	aggregator aggregator.Aggregator
	cache      *expirable.LRU[string, []offer.Offer]
	tel        telemetry.API
}

func NewService(storeList []stores.Store, opts Options, tel telemetry.API) (Service, error) {
	fetchers, err := stores.Build(storeList, tel)
	if err != nil {
		return Service{}, err
	}

	var infos []StoreInfo
	for _, s := range storeList {
		if s.Disabled {
			continue
		}
		infos = append(infos, StoreInfo{Name: s.Name, Kind: s.Kind})
	}

	return newService(infos, fetchers, opts, tel), nil
}

func newService(infos []StoreInfo, fetchers []stores.Fetcher, opts Options, tel telemetry.API) Service {
	s := Service{
		infos:      infos,
		fetchers:   fetchers,
		aggregator: aggregator.New(opts.MaxConcurrency, tel),
		tel:        telemetry.NewScopedAPI("search", tel),
	}
	if opts.CacheTTL > 0 {
		s.cache = expirable.NewLRU[string, []offer.Offer](cacheSize, nil, opts.CacheTTL)
	}
	return s
}

// Stores lists the enabled stores in the order they are searched in.
func (s Service) Stores() []StoreInfo {
	return slices.Clone(s.infos)
}

// Search returns the offers of every requested store for `query`, cheapest first.
//
// An empty `storeNames` searches every store. Store names are matched ignoring case,
// spacing and accents, with some tolerance for typos. ErrUnknownStore is returned (wrapped,
// listing them) for names that match nothing, and ErrMissingQuery for a blank query.
// Store failures are never errors, they only contribute no offers.
func (s Service) Search(ctx context.Context, query string, storeNames []string) ([]offer.Offer, error) {
	query = textutil.CollapseWhitespace(query)
	if query == "" {
		return nil, ErrMissingQuery
	}

	ctx, span := tracer.Start(ctx, "Search", trace.WithAttributes(
		attribute.String("query", query),
		attribute.StringSlice("stores", storeNames),
	))
	defer span.End()

	fetchers, err := s.resolve(storeNames)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	key := cacheKey(query, fetchers)
	if s.cache != nil {
		cached, ok := s.cache.Get(key)
		if ok {
			span.SetAttributes(attribute.Bool("cached", true))
			s.tel.ReportDebug("cache hit", query)
			return slices.Clone(cached), nil
		}
	}

	offers := s.aggregator.Aggregate(ctx, query, fetchers)
	if s.cache != nil && ctx.Err() == nil {
		s.cache.Add(key, slices.Clone(offers))
	}
	return offers, nil
}

func (s Service) resolve(storeNames []string) ([]stores.Fetcher, error) {
	var requested []string
	for _, name := range storeNames {
		name = strings.TrimSpace(name)
		if name != "" {
			requested = append(requested, name)
		}
	}
	if len(requested) == 0 {
		return s.fetchers, nil
	}

	candidates := make([]string, len(s.fetchers))
	for i, f := range s.fetchers {
		candidates[i] = f.Name()
	}

	selected := make(map[string]bool)
	var unknown []string
	for _, name := range requested {
		match, ok := textutil.BestMatch(name, candidates, storeMatchThreshold)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		selected[match] = true
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStore, strings.Join(unknown, ", "))
	}

	// registration order, regardless of the order stores were requested in
	var fetchers []stores.Fetcher
	for _, f := range s.fetchers {
		if selected[f.Name()] {
			fetchers = append(fetchers, f)
		}
	}
	return fetchers, nil
}

func cacheKey(query string, fetchers []stores.Fetcher) string {
	var sb strings.Builder
	sb.WriteString(strings.ToLower(query))
	for _, f := range fetchers {
		sb.WriteByte(0)
		sb.WriteString(f.Name())
	}
	return sb.String()
}
