package pool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// HTTPPool talks to a liquid staking gateway over JSON/HTTP
type HTTPPool struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
}

func NewHTTPPool(client *fasthttp.Client, baseURL string, timeout time.Duration) *HTTPPool {
	return &HTTPPool{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

type delegateRequest struct {
	Amount uint64 `json:"amount"`
}

type delegateResponse struct {
	ReceiptTokens uint64 `json:"receipt_tokens"`
}

type undelegateRequest struct {
	ReceiptTokens uint64 `json:"receipt_tokens"`
}

type undelegateResponse struct {
	NativeReturned uint64 `json:"native_returned"`
}

// Delegate implements domain.StakingPool
func (p *HTTPPool) Delegate(ctx context.Context, amount uint64) (uint64, error) {
	var resp delegateResponse
	if err := p.post(ctx, "/delegate", delegateRequest{Amount: amount}, &resp); err != nil {
		return 0, err
	}
	return resp.ReceiptTokens, nil
}

// Undelegate implements domain.StakingPool
func (p *HTTPPool) Undelegate(ctx context.Context, receiptTokens uint64) (uint64, error) {
	var resp undelegateResponse
	if err := p.post(ctx, "/undelegate", undelegateRequest{ReceiptTokens: receiptTokens}, &resp); err != nil {
		return 0, err
	}
	return resp.NativeReturned, nil
}

func (p *HTTPPool) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(p.baseURL + path)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	timeout := p.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	if err := p.client.DoTimeout(req, resp, timeout); err != nil {
		return fmt.Errorf("staking %s failed: %w", path, err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return fmt.Errorf("staking %s returned status %d", path, resp.StatusCode())
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode staking %s response: %w", path, err)
	}

	return nil
}
