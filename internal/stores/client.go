package stores

import (
	"context"
	"fmt"
	"math"
	"medprice-backend/internal/offer"
	"medprice-backend/internal/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("medprice.internal.stores")

var (
	restyInstrumentOutput telemetry.InstrumentOutput
	restyRequestCounter   telemetry.RequestCounter
)

// SetRestyInstrumentOutput makes every store client built afterwards dump its HTTP
// exchanges to `output`, pass nil to stop.
func SetRestyInstrumentOutput(output telemetry.InstrumentOutput) {
	restyInstrumentOutput = output
}

func newHttpClient(store Store, tel telemetry.API) *resty.Client {
	client := resty.New()
	client.SetTimeout(store.timeout())
	client.SetHeader("user-agent", store.userAgent())

	if store.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	if store.RateLimit > 0 {
		// burst >= the rate so that no requests are dropped
		burst := int(math.Max(1, math.Ceil(store.RateLimit)))
		limiter := rate.NewLimiter(rate.Limit(store.RateLimit), burst)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(client, tel, tracer, restyInstrumentOutput, &restyRequestCounter)
	return client
}

// base carries what every fetcher kind shares, the store metadata, its http
// client and its telemetry.
type base struct {
	store Store
	http  *resty.Client
	tel   telemetry.API
}

func newBase(store Store, tel telemetry.API) base {
	tel = telemetry.NewScopedAPI("stores", tel)
	return base{
		store: store,
		http:  newHttpClient(store, tel),
		tel:   tel,
	}
}

func (b base) Name() string {
	return b.store.Name
}

func (b base) startSpan(ctx context.Context, query string) (context.Context, trace.Span) {
	return tracer.Start(ctx, fmt.Sprintf("%s.Fetch", b.store.Kind), trace.WithAttributes(
		attribute.String("store", b.store.Name),
		attribute.String("query", query),
	))
}

// broken reports the failure and marks the span, fetchers then return no offers.
func (b base) broken(span trace.Span, report string, err error) []offer.Offer {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	b.tel.ReportBroken(report, err, b.store.Name)
	return []offer.Offer{}
}

// get performs the request and returns the body of a 2xx response.
func (b base) get(req *resty.Request, link string) ([]byte, error) {
	res, err := req.Get(link)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	if !res.IsSuccess() {
		return nil, fmt.Errorf("fetch: unexpected status %s", res.Status())
	}
	return res.Body(), nil
}
