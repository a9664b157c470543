package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/forum/internal/reqctx"
)

// Query parameters that shape listings and conditional reads.
const (
	ParamPage  = "page"
	ParamSort  = "sort"
	ParamSince = "since"
)

// RequestContext stores the client address, the clock and the display
// settings of the request in its context.
//
//	?page=2            zero based page of a listing
//	?sort=asc|desc     ascending is the default
//	?since=<RFC 3339>  NOT_UPDATED_SINCE_LAST_CHECK unless changed after it
//
// Malformed values fall back to the defaults.
func RequestContext(clock reqctx.Clock) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := reqctx.WithClock(r.Context(), clock)
			ctx = reqctx.WithIP(ctx, clientIP(r))
			ctx = reqctx.WithDisplay(ctx, ParseDisplay(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ParseDisplay reads the display settings from the query string.
func ParseDisplay(r *http.Request) reqctx.Display {
	q := r.URL.Query()
	d := reqctx.Display{Ascending: true}

	if page, err := strconv.Atoi(q.Get(ParamPage)); err == nil && page > 0 {
		d.Page = page
	}
	if strings.EqualFold(q.Get(ParamSort), "desc") {
		d.Ascending = false
	}
	if since, err := time.Parse(time.RFC3339Nano, q.Get(ParamSince)); err == nil {
		d.CheckNotChangedSince = since.UTC()
	}
	return d
}

// clientIP strips the port from RemoteAddr. chi's RealIP has already
// replaced it with the forwarded address when there is one.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
