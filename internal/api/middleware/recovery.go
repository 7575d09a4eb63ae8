package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/mcoot/expense-tracker-go/internal/api/apierr"
)

// Recovery turns a panicking handler into a 500 JSON error response
func Recovery(logger *slog.Logger, errs *apierr.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("panic recovered",
						slog.Any("error", rec),
						slog.String("stack", string(debug.Stack())),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
					)
					errs.WriteError(w, r, apierr.NewInternalError())
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
