// Package requestid assigns each request a correlation ID used in logs
// and error responses.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/bidurkhatri/veridity-ledger/pkg/requestcontext"
)

// Header is the inbound and outbound correlation header.
const Header = "X-Request-ID"

// Middleware honors an inbound X-Request-ID when present, otherwise
// mints one. The chosen ID is echoed on the response and stored in the
// request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(Header, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
