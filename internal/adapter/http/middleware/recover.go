package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
)

// Recover turns a handler panic into a 500 response. Websocket handlers have
// hijacked the connection by then, and a handler that already wrote its
// header keeps it, so only the log entry is written for those.
func (m *Middleware) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := wrapWriter(w)
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			if p == http.ErrAbortHandler {
				panic(p)
			}

			m.log.Error(r.Context(), "panic recovered", fmt.Errorf("%v", p),
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			if rw.hijacked || rw.status != 0 {
				return
			}
			rw.Header().Set("Connection", "close")
			errorResponse(rw, http.StatusInternalServerError, "internal server error")
		}()

		next.ServeHTTP(rw, r)
	})
}
