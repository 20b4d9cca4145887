package telemetry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/semconv/v1.13.0/httpconv"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_resty_request  = "resty.request"
	report_resty_response = "resty.response"
)

// InstrumentOutput receives a full dump of every HTTP exchange, keyed by a request id.
type InstrumentOutput interface {
	Write(id string, contents string)
}

type instrumentResty struct {
	tel       API
	tracer    trace.Tracer
	output    InstrumentOutput
	idcounter *atomic.Uint64
}

// RequestCounter hands out request ids, clients sharing an InstrumentOutput
// must share a counter so their dumps do not overwrite each other.
type RequestCounter = atomic.Uint64

// InstrumentResty attaches tracing and reporting hooks to a resty client.
// `tracer` can be nil, it defaults to a tracer named "resty".
// `output` can be nil, in which case exchanges are not dumped.
// `counter` can be nil, in which case the client numbers its requests from 1.
func InstrumentResty(client *resty.Client, tel API, tracer trace.Tracer, output InstrumentOutput, counter *RequestCounter) {
	if tracer == nil {
		tracer = otel.Tracer("resty")
	}
	if counter == nil {
		counter = &RequestCounter{}
	}
	i := instrumentResty{
		tel:       tel,
		tracer:    tracer,
		output:    output,
		idcounter: counter,
	}

	client.OnBeforeRequest(i.onBeforeRequest)
	client.OnAfterResponse(i.onAfterResponse)
	client.OnError(i.onError)
}

type reqCtxKeyType int

var reqCtxKey reqCtxKeyType

type reqCtx struct {
	id        uint64
	startTime time.Time
}

func (i instrumentResty) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	ctx, _ := i.tracer.Start(req.Context(), fmt.Sprintf("http %s", req.Method))

	id := i.idcounter.Add(1)
	ctx = context.WithValue(ctx, reqCtxKey, reqCtx{
		id:        id,
		startTime: time.Now(),
	})
	i.tel.ReportDebug(report_resty_request, id, req.Method, req.URL)

	req.SetContext(ctx)
	return nil
}

func (i instrumentResty) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	ctx := res.Request.Context()
	span := trace.SpanFromContext(ctx)
	defer span.End()

	// request attributes are only available here, RawRequest is nil in onBeforeRequest
	if res.Request.RawRequest != nil {
		span.SetAttributes(httpconv.ClientRequest(res.Request.RawRequest)...)
	}
	if res.RawResponse != nil {
		span.SetAttributes(httpconv.ClientResponse(res.RawResponse)...)
	}
	if res.IsError() {
		span.SetStatus(codes.Error, res.Status())
	}

	rc, ok := ctx.Value(reqCtxKey).(reqCtx)
	if !ok {
		return nil
	}
	i.tel.ReportDebug(
		report_resty_response,
		rc.id,
		time.Since(rc.startTime).String(),
		res.Status(),
	)
	if i.output != nil {
		i.output.Write(strconv.FormatUint(rc.id, 10), formatHttpMessage(res))
	}

	return nil
}

func (i instrumentResty) onError(req *resty.Request, err error) {
	ctx := req.Context()

	// without a reqCtx the request failed before onBeforeRequest started its span
	// (ex. the rate limiter gave up), so the span in ctx belongs to the caller
	var duration time.Duration
	rc, ok := ctx.Value(reqCtxKey).(reqCtx)
	if ok {
		duration = time.Since(rc.startTime)

		span := trace.SpanFromContext(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		if req.RawRequest != nil {
			span.SetAttributes(httpconv.ClientRequest(req.RawRequest)...)
		}
		span.End()
	}
	i.tel.ReportWarning(report_resty_response, err, req.Method, req.URL, duration.String())
}

func formatHeaders(headers http.Header) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []string
	for _, k := range keys {
		for _, v := range headers[k] {
			out = append(out, fmt.Sprintf("%s: %s", k, v))
		}
	}
	return strings.Join(out, "\n")
}

func formatRequestBody(req *http.Request) string {
	if req == nil || req.GetBody == nil {
		return "<NO BODY>"
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Sprintf("failed to get request body: %s", err.Error())
	}
	if body == nil {
		return "<NO BODY>"
	}
	readBody, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("failed to read request body: %s", err.Error())
	}
	return string(readBody)
}

// 1: request method
// 2: request url
// 3: request headers in ("Key: Value" format)
// 4: request body
// 5: response status
// 6: response headers in ("Key: Value" format)
// 7: response body
const messageInfoTemplate = `---- REQUEST ----

%s %s

%s

%s

---- RESPONSE ----

%s

%s

%s`

func formatHttpMessage(res *resty.Response) string {
	var requestHeaders string
	if res.Request.RawRequest != nil {
		requestHeaders = formatHeaders(res.Request.RawRequest.Header)
	}

	return fmt.Sprintf(
		messageInfoTemplate,

		res.Request.Method, res.Request.URL,
		requestHeaders,
		formatRequestBody(res.Request.RawRequest),

		res.Status(),
		formatHeaders(res.Header()),
		res.String(),
	)
}
