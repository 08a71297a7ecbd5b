package http

import (
	"net/http"
	"time"
)

// StructValidator checks a decoded request payload against its validation
// tags. Implemented by middleware.ValidationMiddleware.
type StructValidator interface {
	ValidateStruct(v interface{}) error
}

// DateParamValidator parses an optional YYYY-MM-DD query parameter, writing
// the problem response itself when the value is malformed. Implemented by
// middleware.QueryParamValidator.
type DateParamValidator interface {
	ValidateDate(w http.ResponseWriter, r *http.Request, param string) (*time.Time, bool)
}
