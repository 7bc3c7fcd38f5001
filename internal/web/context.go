package web

import (
	"context"
	"net/http"

	"github.com/aasthagit2025/checkdv/internal/core"
)

// WithRequestMetadata records who asked for a run so run logs can name the
// client.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithOrigin(ctx, core.Origin{
		Channel:   "http",
		Address:   r.RemoteAddr, // already rewritten by TrustedRealIP
		UserAgent: r.UserAgent(),
	})
}
