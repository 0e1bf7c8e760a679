// Package http implements the sync server's HTTP transport layer.
//
// It exposes route wiring, request handlers, and middleware for the REST
// API. Authentication, request tracing, and access logging are handled in
// this package before requests are delegated to the sync repository.
package http
