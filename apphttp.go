// Package apphttp exposes the client builder and one-shot helpers backed by
// the default client.
package apphttp

import (
	"context"

	"github.com/entao/apphttp/client"
)

// NewClient instantiates a new *Client with the provided options.
// If not specified, the built-in transport and slog.Default() are used.
func NewClient(opts ...client.Option) (*client.Client, error) {
	return client.Build(opts...)
}

// Get sends a GET request with the default client.
func Get(ctx context.Context, url string, opts ...client.RequestOption) *client.Result {
	return client.Default().Get(url, opts...).Do(ctx)
}

// Post sends a url-encoded form with the default client.
func Post(ctx context.Context, url string, opts ...client.RequestOption) *client.Result {
	return client.Default().Post(url, opts...).Do(ctx)
}

// Raw posts data verbatim with the default client.
func Raw(ctx context.Context, url, contentType string, data []byte, opts ...client.RequestOption) *client.Result {
	return client.Default().Raw(url, contentType, data, opts...).Do(ctx)
}

// JSON posts a JSON document with the default client.
func JSON(ctx context.Context, url, doc string, opts ...client.RequestOption) *client.Result {
	return client.Default().JSON(url, doc, opts...).Do(ctx)
}

// Multipart uploads text arguments and files with the default client.
func Multipart(ctx context.Context, url string, opts ...client.RequestOption) *client.Result {
	return client.Default().Multipart(url, opts...).Do(ctx)
}

// Download saves the body of a GET response to path with the default client.
func Download(ctx context.Context, url, path string, opts ...client.RequestOption) *client.Result {
	return client.Default().Get(url, append(opts, client.WithSaveTo(path))...).Do(ctx)
}
