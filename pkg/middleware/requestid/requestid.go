// Package requestid tags every request with an id that follows it into logs
// and published events.
package requestid

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header carries the id in and out of the API.
const Header = "X-Request-ID"

const ginKey = "request_id"

type ctxKey struct{}

// Middleware keeps a well-formed inbound id or mints a new one, and exposes it
// on the gin context, the request context and the response.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Set(ginKey, id)
		c.Request = c.Request.WithContext(WithContext(c.Request.Context(), id))
		c.Writer.Header().Set(Header, id)

		c.Next()
	}
}

// Value returns the id stored on the gin context.
func Value(c *gin.Context) string {
	return c.GetString(ginKey)
}

// WithContext returns ctx carrying id.
func WithContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the id carried by ctx, or "".
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
