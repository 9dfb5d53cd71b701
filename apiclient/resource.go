package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/itchan-dev/strapikit/shared/api"
	"github.com/itchan-dev/strapikit/shared/utils"
)

// CallOption tweaks a single content-type call.
type CallOption func(*callOptions)

type callOptions struct {
	forAdmin bool
	header   http.Header
	query    RawQuery
}

// ForAdmin sends the call to the admin base URL.
func ForAdmin() CallOption {
	return func(o *callOptions) { o.forAdmin = true }
}

func WithHeader(key, value string) CallOption {
	return func(o *callOptions) {
		if o.header == nil {
			o.header = make(http.Header)
		}
		o.header.Add(key, value)
	}
}

// WithQuery sends an already encoded query string in place of the params
// argument. The proxy uses it to forward the browser's query untouched.
func WithQuery(query RawQuery) CallOption {
	return func(o *callOptions) { o.query = query }
}

func applyCallOptions(opts []CallOption) callOptions {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// entryPath joins the non-empty segments with "/".
func entryPath(contentType, id string) string {
	segments := make([]string, 0, 2)
	for _, s := range []string{strings.Trim(contentType, "/"), strings.Trim(id, "/")} {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return strings.Join(segments, "/")
}

// Find lists entries of contentType.
func Find[T any](ctx context.Context, c *APIClient, contentType string, params *api.Params, opts ...CallOption) (*api.ResponseMany[T], error) {
	var resp api.ResponseMany[T]
	if err := c.callResource(ctx, http.MethodGet, entryPath(contentType, ""), params, nil, opts, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FindOne fetches one entry. An empty id queries the content type itself,
// which is how single types are read.
func FindOne[T any](ctx context.Context, c *APIClient, contentType, id string, params *api.Params, opts ...CallOption) (*api.ResponseSingle[T], error) {
	var resp api.ResponseSingle[T]
	if err := c.callResource(ctx, http.MethodGet, entryPath(contentType, id), params, nil, opts, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Create posts data as is; wrap attributes in api.Payload for the usual
// {"data": ...} body.
func Create[T any](ctx context.Context, c *APIClient, contentType string, data any, opts ...CallOption) (*api.ResponseSingle[T], error) {
	var resp api.ResponseSingle[T]
	if err := c.callResource(ctx, http.MethodPost, entryPath(contentType, ""), nil, data, opts, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Update puts data to contentType/id, or to contentType for single types.
func Update[T any](ctx context.Context, c *APIClient, contentType, id string, data any, opts ...CallOption) (*api.ResponseSingle[T], error) {
	var resp api.ResponseSingle[T]
	if err := c.callResource(ctx, http.MethodPut, entryPath(contentType, id), nil, data, opts, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func Delete[T any](ctx context.Context, c *APIClient, contentType, id string, opts ...CallOption) (*api.ResponseSingle[T], error) {
	var resp api.ResponseSingle[T]
	if err := c.callResource(ctx, http.MethodDelete, entryPath(contentType, id), nil, nil, opts, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) callResource(ctx context.Context, method, path string, params *api.Params, data any, opts []CallOption, out any) error {
	o := applyCallOptions(opts)
	reqOpts := RequestOptions{Method: method, Data: data, Header: o.header}
	switch {
	case o.query != "":
		reqOpts.Params = o.query
	case params != nil:
		reqOpts.Params = params
	}
	if err := c.Request(ctx, path, reqOpts, o.forAdmin, out); err != nil {
		return err
	}
	if err := utils.Validate(out); err != nil {
		return fmt.Errorf("%w from %s %s: %v", ErrInvalidEnvelope, method, path, err)
	}
	return nil
}

// Collection binds the five content-type calls to one type.
type Collection[T any] struct {
	client      *APIClient
	contentType string
}

func NewCollection[T any](c *APIClient, contentType string) *Collection[T] {
	return &Collection[T]{client: c, contentType: contentType}
}

func (col *Collection[T]) Find(ctx context.Context, params *api.Params, opts ...CallOption) (*api.ResponseMany[T], error) {
	return Find[T](ctx, col.client, col.contentType, params, opts...)
}

func (col *Collection[T]) FindOne(ctx context.Context, id string, params *api.Params, opts ...CallOption) (*api.ResponseSingle[T], error) {
	return FindOne[T](ctx, col.client, col.contentType, id, params, opts...)
}

func (col *Collection[T]) Create(ctx context.Context, attributes T, opts ...CallOption) (*api.ResponseSingle[T], error) {
	return Create[T](ctx, col.client, col.contentType, api.Payload[T]{Data: attributes}, opts...)
}

func (col *Collection[T]) Update(ctx context.Context, id string, data any, opts ...CallOption) (*api.ResponseSingle[T], error) {
	return Update[T](ctx, col.client, col.contentType, id, data, opts...)
}

func (col *Collection[T]) Delete(ctx context.Context, id string, opts ...CallOption) (*api.ResponseSingle[T], error) {
	return Delete[T](ctx, col.client, col.contentType, id, opts...)
}
