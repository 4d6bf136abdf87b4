package web

import (
	"context"
	"net/http"

	"github.com/dpmglangsa/gampong/internal/core"
	mw "github.com/dpmglangsa/gampong/internal/web/middleware"
)

// requestContext carries the client IP and User-Agent into the request
// context so audit entries can record who made an edit.
func requestContext(r *http.Request) context.Context {
	ctx := core.ContextWithIPAddress(r.Context(), mw.ClientIP(r))
	return core.ContextWithUserAgent(ctx, r.UserAgent())
}
