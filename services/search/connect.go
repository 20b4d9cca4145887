package search

import (
	"context"
	"encoding/json"
	"errors"
	"medprice-backend/lib/serviceutil"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const (
	SearchServiceName = "medprice.v1.SearchService"
	// SearchProcedure is the Connect procedure of Search, ex. POST /medprice.v1.SearchService/Search
	SearchProcedure = "/" + SearchServiceName + "/Search"
)

// jsonCodec lets Connect carry plain go structs, the messages of this service are not
// protobuf generated.
type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	return json.Unmarshal(data, msg)
}

// NewConnectHandler returns the procedure path and handler of the Search rpc.
func NewConnectHandler(service Service) (string, http.Handler) {
	handler := connect.NewUnaryHandler(
		SearchProcedure,
		func(ctx context.Context, req *connect.Request[SearchRequest]) (*connect.Response[SearchResponse], error) {
			offers, err := service.Search(ctx, req.Msg.query(), req.Msg.storeNames())
			if errors.Is(err, ErrMissingQuery) || errors.Is(err, ErrUnknownStore) {
				return nil, connect.NewError(connect.CodeInvalidArgument, err)
			}
			if err != nil {
				return nil, connect.NewError(connect.CodeInternal, err)
			}
			return connect.NewResponse(&SearchResponse{Ofertas: ToOffersJSON(offers)}), nil
		},
		connect.WithCodec(jsonCodec{}),
		connect.WithInterceptors(serviceutil.NewConnectOtelInterceptor()),
	)
	return SearchProcedure, handler
}

// Client calls the Search rpc of a running server.
type Client struct {
	search *connect.Client[SearchRequest, SearchResponse]
}

// NewClient creates a client for the server at `baseUrl`, ex. http://localhost:8000
func NewClient(httpClient connect.HTTPClient, baseUrl string) Client {
	return Client{
		search: connect.NewClient[SearchRequest, SearchResponse](
			httpClient,
			strings.TrimRight(baseUrl, "/")+SearchProcedure,
			connect.WithCodec(jsonCodec{}),
			connect.WithInterceptors(serviceutil.NewConnectOtelInterceptor()),
		),
	}
}

func (c Client) Search(ctx context.Context, req SearchRequest) ([]OfferJSON, error) {
	res, err := c.search.CallUnary(ctx, connect.NewRequest(&req))
	if err != nil {
		return nil, err
	}
	if res.Msg.Ofertas == nil {
		return []OfferJSON{}, nil
	}
	return res.Msg.Ofertas, nil
}
