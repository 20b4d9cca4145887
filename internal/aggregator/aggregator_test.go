package aggregator

import (
	"context"
	"fmt"
	"math/rand"
	"medprice-backend/internal/offer"
	"medprice-backend/internal/stores"
	"medprice-backend/internal/telemetry"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeFetcher struct {
	name   string
	offers []offer.Offer
	delay  time.Duration
	panics bool
	calls  *atomic.Int32
}

func (f fakeFetcher) Name() string {
	return f.name
}

func (f fakeFetcher) Fetch(ctx context.Context, query string) []offer.Offer {
	if f.calls != nil {
		f.calls.Add(1)
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return []offer.Offer{}
		}
	}
	if f.panics {
		panic("upstream exploded")
	}
	return f.offers
}

func newOffer(store, name, price string) offer.Offer {
	return offer.Offer{
		Store: store,
		Name:  name,
		Price: decimal.RequireFromString(price),
		Link:  fmt.Sprintf("https://%s.example.com/%s", store, name),
	}
}

func failing(name string) fakeFetcher {
	return fakeFetcher{name: name, offers: []offer.Offer{}}
}

func names(offers []offer.Offer) []string {
	out := make([]string, len(offers))
	for i, o := range offers {
		out[i] = fmt.Sprintf("%s/%s", o.Store, o.Name)
	}
	return out
}

func TestAggregateTies(t *testing.T) {
	fetchers := []stores.Fetcher{
		fakeFetcher{name: "A", offers: []offer.Offer{newOffer("A", "dipirona", "25.90")}},
		fakeFetcher{name: "B", offers: []offer.Offer{newOffer("B", "dipirona", "12.30")}, delay: 20 * time.Millisecond},
		fakeFetcher{name: "C", offers: []offer.Offer{newOffer("C", "dipirona", "12.30")}},
	}

	result := New(0, &telemetry.Recorder{}).Aggregate(context.Background(), "dipirona", fetchers)
	// B answers last but is registered before C
	require.Equal(t, []string{"B/dipirona", "C/dipirona", "A/dipirona"}, names(result))
}

func TestAggregateSortsAscending(t *testing.T) {
	var fetchers []stores.Fetcher
	for s := 0; s < 5; s++ {
		store := fmt.Sprintf("store%d", s)
		var offers []offer.Offer
		for i := 0; i < 10; i++ {
			price := decimal.New(rand.Int63n(100_000)+1, -2)
			offers = append(offers, newOffer(store, fmt.Sprint(i), price.String()))
		}
		fetchers = append(fetchers, fakeFetcher{
			name:   store,
			offers: offers,
			delay:  time.Duration(rand.Intn(10)) * time.Millisecond,
		})
	}

	result := New(2, &telemetry.Recorder{}).Aggregate(context.Background(), "dipirona", fetchers)
	require.Len(t, result, 50)
	for i := 1; i < len(result); i++ {
		require.True(t, result[i-1].Price.LessThanOrEqual(result[i].Price))
	}
}

func TestAggregateDropsInvalid(t *testing.T) {
	fetchers := []stores.Fetcher{
		fakeFetcher{name: "A", offers: []offer.Offer{
			newOffer("A", "zero", "0"),
			newOffer("A", "negative", "-3.50"),
			{Store: "A", Name: "no price"},
			newOffer("A", "ok", "4.99"),
		}},
	}

	result := New(0, &telemetry.Recorder{}).Aggregate(context.Background(), "dipirona", fetchers)
	require.Equal(t, []string{"A/ok"}, names(result))
}

func TestAggregateAllFail(t *testing.T) {
	fetchers := []stores.Fetcher{failing("A"), failing("B"), fakeFetcher{name: "C"}}

	result := New(0, &telemetry.Recorder{}).Aggregate(context.Background(), "dipirona", fetchers)
	require.NotNil(t, result)
	require.Empty(t, result)

	result = New(0, &telemetry.Recorder{}).Aggregate(context.Background(), "dipirona", nil)
	require.NotNil(t, result)
	require.Empty(t, result)
}

func TestAggregateOneSucceeds(t *testing.T) {
	fetchers := []stores.Fetcher{
		failing("A"),
		fakeFetcher{name: "B", offers: []offer.Offer{
			newOffer("B", "1", "3"),
			newOffer("B", "2", "1"),
			newOffer("B", "3", "2"),
		}},
		failing("C"),
	}

	result := New(0, &telemetry.Recorder{}).Aggregate(context.Background(), "dipirona", fetchers)
	require.Equal(t, []string{"B/2", "B/3", "B/1"}, names(result))
}

func TestAggregateRecoversPanic(t *testing.T) {
	tel := &telemetry.Recorder{}
	fetchers := []stores.Fetcher{
		fakeFetcher{name: "A", panics: true},
		fakeFetcher{name: "B", offers: []offer.Offer{newOffer("B", "dipirona", "7")}},
	}

	result := New(0, tel).Aggregate(context.Background(), "dipirona", fetchers)
	require.Equal(t, []string{"B/dipirona"}, names(result))

	broken := tel.Reports(telemetry.KindBroken, report_aggregator_fetch_panic)
	require.Len(t, broken, 1)
	require.Equal(t, "A", broken[0].Params[1])
}

func TestAggregateReportsCounts(t *testing.T) {
	tel := &telemetry.Recorder{}
	fetchers := []stores.Fetcher{
		failing("A"),
		fakeFetcher{name: "B", offers: []offer.Offer{newOffer("B", "1", "3"), newOffer("B", "2", "0")}},
	}

	New(0, tel).Aggregate(context.Background(), "dipirona", fetchers)

	countA := tel.Reports(telemetry.KindCount, "offers.A")
	require.Len(t, countA, 1)
	require.Equal(t, int64(0), countA[0].Count)

	countB := tel.Reports(telemetry.KindCount, "offers.B")
	require.Len(t, countB, 1)
	require.Equal(t, int64(1), countB[0].Count)
}

func TestAggregateConcurrencyLimit(t *testing.T) {
	var running, peak atomic.Int32
	var fetchers []stores.Fetcher
	for i := 0; i < 6; i++ {
		fetchers = append(fetchers, trackingFetcher{
			name:    fmt.Sprint(i),
			running: &running,
			peak:    &peak,
		})
	}

	New(2, &telemetry.Recorder{}).Aggregate(context.Background(), "dipirona", fetchers)
	require.LessOrEqual(t, peak.Load(), int32(2))
	require.Equal(t, int32(0), running.Load())
}

func TestAggregateCallsEveryStoreOnce(t *testing.T) {
	var calls atomic.Int32
	var fetchers []stores.Fetcher
	for i := 0; i < 4; i++ {
		fetchers = append(fetchers, fakeFetcher{name: fmt.Sprint(i), calls: &calls})
	}

	New(0, &telemetry.Recorder{}).Aggregate(context.Background(), "dipirona", fetchers)
	require.Equal(t, int32(4), calls.Load())
}

func TestAggregateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetchers := []stores.Fetcher{
		fakeFetcher{name: "A", offers: []offer.Offer{newOffer("A", "1", "1")}, delay: time.Hour},
	}
	result := New(0, &telemetry.Recorder{}).Aggregate(ctx, "dipirona", fetchers)
	require.NotNil(t, result)
	require.Empty(t, result)
}

type trackingFetcher struct {
	name    string
	running *atomic.Int32
	peak    *atomic.Int32
}

func (f trackingFetcher) Name() string {
	return f.name
}

func (f trackingFetcher) Fetch(ctx context.Context, query string) []offer.Offer {
	current := f.running.Add(1)
	defer f.running.Add(-1)
	for {
		peak := f.peak.Load()
		if current <= peak || f.peak.CompareAndSwap(peak, current) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return []offer.Offer{}
}
