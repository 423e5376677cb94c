package httputil

import (
	"encoding/json"

	"github.com/valyala/fasthttp"
)

// Response represents a standard API response
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// WriteResponse writes a successful JSON response
func WriteResponse(ctx *fasthttp.RequestCtx, data any) {
	WriteResponseWithStatus(ctx, data, fasthttp.StatusOK)
}

// WriteResponseWithStatus writes a successful JSON response with custom status
func WriteResponseWithStatus(ctx *fasthttp.RequestCtx, data any, status int) {
	writeJSON(ctx, Response{Success: true, Data: data}, status)
}

// WriteErrorResponse writes an error JSON response
func WriteErrorResponse(ctx *fasthttp.RequestCtx, code, message string, status int) {
	writeJSON(ctx, Response{Success: false, Error: message, Code: code}, status)
}

// ReadJSON decodes the request body into v
func ReadJSON(ctx *fasthttp.RequestCtx, v any) error {
	return json.Unmarshal(ctx.PostBody(), v)
}

// writeJSON writes JSON response to context
func writeJSON(ctx *fasthttp.RequestCtx, data any, status int) {
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)

	body, err := json.Marshal(data)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBody([]byte(`{"success":false,"error":"failed to marshal response"}`))
		return
	}

	ctx.SetBody(body)
}

// WriteHealthResponse writes a health check response
func WriteHealthResponse(ctx *fasthttp.RequestCtx, data any, healthy bool) {
	status := fasthttp.StatusOK
	if !healthy {
		status = fasthttp.StatusServiceUnavailable
	}
	writeJSON(ctx, data, status)
}
