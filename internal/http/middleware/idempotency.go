// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file handles the transport side of idempotent submission creation: it
// validates the Idempotency-Key header, stashes the normalized key in the Gin
// context, and optionally consults a lookup to flag requests that replay a
// previously completed operation. Replays are additionally marked for
// rate-limit bypass so retries are never throttled.
//
// Persistence stays out of this file: the lookup is a narrow function type
// backed by the idempotency repository, and handlers remain in charge of how
// a replay is actually served.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header clients use to deduplicate
// retried submission creates.
const HeaderIdempotencyKey = "Idempotency-Key"

// Context keys stashing idempotency state, read back via the helpers below.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

// GetIdempotencyKey returns the validated key stored by IdempotencyValidator.
// Handlers should use this instead of reading the header themselves.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether the validator found a still-valid record for this
// (user, key) pair, meaning the request repeats a completed operation.
func IsReplay(c *gin.Context) bool {
	v, _ := c.Get(ctxKeyIdemReplay)
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions tunes header validation. TTL enforcement belongs to the
// lookup, not here.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length; values <= 0 default to 200.
	MaxLen int
	// Pattern restricts the key charset; nil means a conservative token
	// pattern of letters, digits, and ._~-: characters.
	Pattern *regexp.Regexp
}

// IdempotencyLookup reports whether a still-valid replay record exists for
// (userID, key) at now. Lookup failures should be returned as errors and are
// treated as "no replay" rather than blocking the request.
type IdempotencyLookup func(ctx context.Context, userID, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator validates the Idempotency-Key header when present and
// marks detected replays in the context. Requests without the header pass
// through untouched; malformed keys fail fast with a 400.
//
// Install it after RequireAuth so the lookup sees the authenticated user.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}

		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			if uid := UserIDFrom(c); uid != "" {
				if exists, _ := lookup(c.Request.Context(), uid, key, time.Now().UTC()); exists {
					c.Set(ctxKeyIdemReplay, true)
					c.Set(ctxKeyRateBypass, true)
				}
			}
		}

		c.Next()
	}
}
