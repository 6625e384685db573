package models

import (
	"context"
)

type originContextKey struct{}

// Origin identifies who triggered a ledger mutation. It travels through
// context so that audit fields reach the logs without widening every
// service signature.
type Origin struct {
	RequestId string // caller-supplied correlation id
	ActorId   string // admin or system actor performing the call
	Channel   string // e.g. "cli", "webhook", "listener"
}

// WithOrigin attaches origin data to a context.
func WithOrigin(ctx context.Context, o *Origin) context.Context {
	return context.WithValue(ctx, originContextKey{}, o)
}

// GetOrigin retrieves origin data from context, or nil if absent.
func GetOrigin(ctx context.Context) *Origin {
	o, _ := ctx.Value(originContextKey{}).(*Origin)
	return o
}
