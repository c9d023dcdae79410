// Package transport defines the request capability the catalog consumes.
// Implementations attach credentials and retry transient failures; they never
// interpret GeoServer-specific status semantics.
package transport

import (
	"context"
	"net/http"
)

const (
	MediaTypeXML  = "application/xml"
	MediaTypeJSON = "application/json"
	MediaTypeSLD  = "application/vnd.ogc.sld+xml"
	MediaTypeZip  = "application/zip"
)

type Request struct {
	Method string
	// Path is relative to the service root (for example "/workspaces.xml")
	// or an absolute URL below it.
	Path        string
	Query       map[string]string
	Headers     map[string]string
	Accept      string
	ContentType string
	Body        []byte
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) Success() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

type Channel interface {
	// Do sends the request and returns the final response, whatever its status.
	// Errors are reserved for requests that never produced a response.
	Do(ctx context.Context, request Request) (*Response, error)
	ServiceURL() string
}
