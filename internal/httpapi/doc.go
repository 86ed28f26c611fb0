// Package httpapi serves the placement engine and card catalog over HTTP
// for clients that cannot reach the session bus.
//
// Routes:
//
//	GET  /healthz            also reports D-Bus name ownership when known
//	GET  /api/v1/cards
//	GET  /api/v1/cards/{name}
//	GET  /api/v1/options
//	POST /api/v1/place
package httpapi
