package core

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// RequestIDHeader is set on responses and forwarded to the API.
const RequestIDHeader = "X-Request-ID"

const requestIDAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type requestIDKey struct{}

// NewRequestID returns a short URL-safe id like "req-4fKz09LmQa1b".
func NewRequestID() string {
	id, err := nanoid.Generate(requestIDAlphabet, 12)
	if err != nil {
		return "req-" + randomHex(6)
	}
	return "req-" + id
}

// WithRequestID stores id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the id stored by WithRequestID, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		for i := range b {
			b[i] = byte(i + 1)
		}
	}
	return hex.EncodeToString(b)
}
