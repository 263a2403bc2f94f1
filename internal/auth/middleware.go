package auth

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/yosseffehabb/illusion-studios/pkg/errors"
	"github.com/yosseffehabb/illusion-studios/pkg/httputil"
	"github.com/yosseffehabb/illusion-studios/pkg/logger"
)

type contextKey struct{}

var operatorKey contextKey

// OperatorFromContext returns the operator resolved by RequireOperator.
func OperatorFromContext(ctx context.Context) (*Operator, bool) {
	op, ok := ctx.Value(operatorKey).(*Operator)
	return op, ok
}

// RequireOperator gates a route on a valid bearer token. The resolved
// operator lands in the request context and in the request logger.
func RequireOperator(manager *Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				httputil.WriteError(w, r, apperrors.Unauthorized("missing bearer token"), manager.logger)
				return
			}

			op, err := manager.CurrentOperator(r.Context(), token)
			if err != nil {
				httputil.WriteError(w, r, err, manager.logger)
				return
			}

			ctx := context.WithValue(r.Context(), operatorKey, op)
			ctx = logger.WithOperatorID(ctx, op.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimPrefix(header, prefix)
}
