package interfaces

import "net/http"

// HTTPHandler is the transport surface mounted by cmd/server.
type HTTPHandler interface {
	http.Handler
}
