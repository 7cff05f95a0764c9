package httpx

import (
	"context"
	"net/http"
	"sync"

	"github.com/redbrickhq/gatehouse/pkg/slogx"
)

// authFailure collects a token-validation failure raised deeper in the
// pipeline so the boundary can render it exactly once. Go has no
// cross-middleware exceptions, so the failure travels through a sink
// instead of an unwound stack.
type authFailure struct {
	mu  sync.Mutex
	err error
}

func (f *authFailure) set(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err == nil {
		f.err = err
	}
}

func (f *authFailure) get() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

type sinkKey struct{}

// ExceptionBoundary wraps the rest of the pipeline in a scoped error
// boundary. Token-validation failures recorded via FailAuth become a
// uniform 401 envelope; panics become a 500 with a generic message and
// a server-side log entry. Everything else passes through unchanged.
func ExceptionBoundary() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sink := &authFailure{}
			ctx := context.WithValue(r.Context(), sinkKey{}, sink)
			log := slogx.FromContext(ctx)

			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic recovered at pipeline boundary", "panic", rec)
					WriteEnvelope(w, http.StatusInternalServerError,
						CodeInternalError, "internal server error", nil)
				}
			}()

			next.ServeHTTP(w, r.WithContext(ctx))

			if err := sink.get(); err != nil {
				log.Warn("token validation failed", "err", err)
				WriteEnvelope(w, http.StatusUnauthorized,
					CodeUnauthorized, "invalid or expired token", nil)
			}
		})
	}
}

// FailAuth records a token-validation failure for the boundary to
// render. It reports false when no boundary is installed, in which case
// the caller must write the response itself.
func FailAuth(ctx context.Context, err error) bool {
	sink, ok := ctx.Value(sinkKey{}).(*authFailure)
	if !ok {
		return false
	}
	sink.set(err)
	return true
}
