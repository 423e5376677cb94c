package httputil

import (
	"strings"
	"time"

	"github.com/fasthttp/router"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

// CallerHeader carries the opaque caller identity set by the gateway
const CallerHeader = "X-Caller-ID"

const callerKey = "caller_id"

// Middleware is a function that wraps a handler
type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

// MiddlewareGroup wraps a router group with middleware support
type MiddlewareGroup struct {
	group      *router.Group
	middleware []Middleware
}

// NewMiddlewareGroup creates a new middleware group
func NewMiddlewareGroup(group *router.Group) *MiddlewareGroup {
	return &MiddlewareGroup{
		group:      group,
		middleware: make([]Middleware, 0),
	}
}

// Use adds middleware to the group
func (g *MiddlewareGroup) Use(m ...Middleware) *MiddlewareGroup {
	g.middleware = append(g.middleware, m...)
	return g
}

// Group creates a new sub-group with inherited middleware
func (g *MiddlewareGroup) Group(path string) *MiddlewareGroup {
	return &MiddlewareGroup{
		group:      g.group.Group(path),
		middleware: append([]Middleware{}, g.middleware...),
	}
}

// applyMiddleware applies all middleware to a handler in reverse order
func (g *MiddlewareGroup) applyMiddleware(handler fasthttp.RequestHandler) fasthttp.RequestHandler {
	for i := len(g.middleware) - 1; i >= 0; i-- {
		handler = g.middleware[i](handler)
	}
	return handler
}

// GET registers a GET handler
func (g *MiddlewareGroup) GET(path string, handler fasthttp.RequestHandler) {
	g.group.GET(path, g.applyMiddleware(handler))
}

// POST registers a POST handler
func (g *MiddlewareGroup) POST(path string, handler fasthttp.RequestHandler) {
	g.group.POST(path, g.applyMiddleware(handler))
}

// PUT registers a PUT handler
func (g *MiddlewareGroup) PUT(path string, handler fasthttp.RequestHandler) {
	g.group.PUT(path, g.applyMiddleware(handler))
}

// DELETE registers a DELETE handler
func (g *MiddlewareGroup) DELETE(path string, handler fasthttp.RequestHandler) {
	g.group.DELETE(path, g.applyMiddleware(handler))
}

// RequireCaller rejects requests without a caller identity and stores it on the context
func RequireCaller() Middleware {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			caller := strings.TrimSpace(string(ctx.Request.Header.Peek(CallerHeader)))
			if caller == "" {
				WriteErrorResponse(ctx, "missing_caller", "missing "+CallerHeader+" header", fasthttp.StatusUnauthorized)
				return
			}
			ctx.SetUserValue(callerKey, caller)
			next(ctx)
		}
	}
}

// Caller returns the identity stored by RequireCaller
func Caller(ctx *fasthttp.RequestCtx) string {
	caller, _ := ctx.UserValue(callerKey).(string)
	return caller
}

// AccessLog logs method, path, status and latency of every request
func AccessLog(logger zerolog.Logger) Middleware {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			start := time.Now()
			next(ctx)
			logger.Debug().
				Bytes("method", ctx.Method()).
				Bytes("path", ctx.Path()).
				Int("status", ctx.Response.StatusCode()).
				Dur("latency", time.Since(start)).
				Msg("http request")
		}
	}
}
