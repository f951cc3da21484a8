// Package requestid carries the X-Request-ID of an inbound console request to
// the backend calls made on its behalf.
package requestid

import (
	"context"

	"github.com/google/uuid"
)

const Header = "X-Request-ID"

type ctxKey struct{}

func Into(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func From(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// FromOrNew returns the id stored in ctx or a fresh one.
func FromOrNew(ctx context.Context) string {
	if id, ok := From(ctx); ok {
		return id
	}
	return uuid.NewString()
}
