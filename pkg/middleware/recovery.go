package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recovery turns a handler panic into a 500 response instead of killing the
// process. It sits outermost in the chain so a panic anywhere below it,
// including in other middleware, still produces a well-formed error body.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					l.ErrorContext(r.Context(), "panic recovered",
						slog.Any("panic", rec),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("stack", string(debug.Stack())),
					)
					writePanicResponse(w, l)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// writePanicResponse emits the same envelope shape the handlers use, without
// importing them. Nothing recovered from a panic is ever echoed to the
// caller.
func writePanicResponse(w http.ResponseWriter, l *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	body := map[string]map[string]string{
		"error": {
			"code":    "INTERNAL_ERROR",
			"message": "an internal error occurred",
		},
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		l.Error("failed to encode panic response", slog.String("error", err.Error()))
	}
}
