package testutil

import (
	"net/http"
	"time"

	"cardscan/pkg/requestcontext"
)

// WithSubject adds the authenticated host application to the request context,
// as the auth middleware would.
func WithSubject(req *http.Request, subject string) *http.Request {
	return req.WithContext(requestcontext.WithSubject(req.Context(), subject))
}

// WithUserAgent sets the header and the client metadata the metadata
// middleware would derive from it.
func WithUserAgent(req *http.Request, userAgent string) *http.Request {
	req.Header.Set("User-Agent", userAgent)
	ctx := requestcontext.WithClientMetadata(req.Context(), requestcontext.ClientIP(req.Context()), userAgent)
	return req.WithContext(ctx)
}

// AtTime pins the request clock.
func AtTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}
