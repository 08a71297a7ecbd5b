// Package http contains the HTTP handlers for the bitewatch API. Handlers
// stay thin: they decode and validate a request, call one service method,
// and render the outcome. Anything resembling business logic lives below
// them in the service layer.
//
// Each handler depends on small consumer-side interfaces declared next to
// it in this package rather than on concrete service types, so tests can
// substitute exactly the surface a handler touches and nothing more.
//
// Failures render as RFC 7807 problem documents through the shared error
// handler:
//
//	{
//	    "type": "/errors/dataset/not-loaded",
//	    "title": "Dataset Not Loaded",
//	    "status": 503,
//	    "detail": "The clean dataset has not been loaded yet. Trigger a reload or wait for the watcher.",
//	    "instance": "/api/query/records"
//	}
//
// Successful responses wrap the payload in a small envelope, with a count
// for list results:
//
//	{"status": "success", "data": {...}, "count": 42}
//
// Handler tests drive the real chi routes through httptest against mocked
// service interfaces, asserting on both the envelopes and the problem
// bodies.
package http
