package core

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const ctxKeyRequestMeta contextKey = "audit_meta"

// RequestMeta is the request information attached to audit entries.
type RequestMeta struct {
	IPAddress string
	UserAgent string
	// BatchID groups the entries written by one logical edit.
	BatchID string
}

// ContextWithIPAddress adds the client IP address for audit logging.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	m := RequestMetaFromContext(ctx)
	m.IPAddress = ip
	return context.WithValue(ctx, ctxKeyRequestMeta, m)
}

// ContextWithUserAgent adds the User-Agent for audit logging.
func ContextWithUserAgent(ctx context.Context, ua string) context.Context {
	m := RequestMetaFromContext(ctx)
	m.UserAgent = ua
	return context.WithValue(ctx, ctxKeyRequestMeta, m)
}

// withBatch starts a new batch unless ctx already carries one.
func withBatch(ctx context.Context) context.Context {
	m := RequestMetaFromContext(ctx)
	if m.BatchID != "" {
		return ctx
	}
	m.BatchID = uuid.New().String()
	return context.WithValue(ctx, ctxKeyRequestMeta, m)
}

// RequestMetaFromContext returns the audit metadata stored in ctx.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if m, ok := ctx.Value(ctxKeyRequestMeta).(RequestMeta); ok {
		return m
	}
	return RequestMeta{}
}
