package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/yukikm/subly/internal/domain"
)

// HermesSource reads the latest price update from a Pyth Hermes endpoint
type HermesSource struct {
	client  *fasthttp.Client
	baseURL string
	feedID  string
	timeout time.Duration
}

func NewHermesSource(client *fasthttp.Client, baseURL, feedID string, timeout time.Duration) *HermesSource {
	return &HermesSource{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		feedID:  feedID,
		timeout: timeout,
	}
}

type hermesResponse struct {
	Parsed []struct {
		ID    string `json:"id"`
		Price struct {
			Price       string `json:"price"`
			Conf        string `json:"conf"`
			Expo        int32  `json:"expo"`
			PublishTime int64  `json:"publish_time"`
		} `json:"price"`
	} `json:"parsed"`
}

// Latest implements domain.PriceSource
func (s *HermesSource) Latest(ctx context.Context) (domain.PriceQuote, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.baseURL + "/v2/updates/price/latest?parsed=true&ids[]=" + url.QueryEscape(s.feedID))
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	if err := s.client.DoTimeout(req, resp, timeout); err != nil {
		return domain.PriceQuote{}, fmt.Errorf("hermes request failed: %w", err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return domain.PriceQuote{}, fmt.Errorf("hermes returned status %d", resp.StatusCode())
	}

	var body hermesResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return domain.PriceQuote{}, fmt.Errorf("failed to decode hermes response: %w", err)
	}

	for _, update := range body.Parsed {
		if !strings.EqualFold(strings.TrimPrefix(update.ID, "0x"), strings.TrimPrefix(s.feedID, "0x")) {
			continue
		}

		price, err := strconv.ParseInt(update.Price.Price, 10, 64)
		if err != nil {
			return domain.PriceQuote{}, fmt.Errorf("invalid price %q: %w", update.Price.Price, err)
		}

		return domain.PriceQuote{
			Price:       price,
			Expo:        update.Price.Expo,
			PublishTime: time.Unix(update.Price.PublishTime, 0).UTC(),
		}, nil
	}

	return domain.PriceQuote{}, fmt.Errorf("feed %s not present in hermes response", s.feedID)
}
