// Package geocode performs reverse geocoding of coordinates to a readable
// address.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/metrics"
)

var ErrNotFound = errors.New("geocode: no result for coordinates")

// Place is the best match for a coordinate pair.
type Place struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Formatted string  `json:"formatted"`
}

type Client struct {
	http   *resty.Client
	url    string
	apiKey string
}

func New(url, apiKey string, timeout time.Duration) *Client {
	return &Client{
		http:   resty.New().SetTimeout(timeout).SetHeader("Accept", "application/json"),
		url:    url,
		apiKey: apiKey,
	}
}

type reverseResponse struct {
	Results []struct {
		Formatted string `json:"formatted"`
	} `json:"results"`
	Status struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
}

// Reverse resolves lat/lng. Coordinates outside the valid range are rejected
// before any request is made.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (*Place, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, fmt.Errorf("geocode: coordinates out of range (%v, %v)", lat, lng)
	}

	start := time.Now()
	var out reverseResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":              formatCoord(lat) + "," + formatCoord(lng),
			"key":            c.apiKey,
			"no_annotations": "1",
			"limit":          "1",
		}).
		SetResult(&out).
		SetError(&out).
		Get(c.url)
	if err != nil {
		err = fmt.Errorf("geocode request: %w", err)
	} else if resp.IsError() {
		err = fmt.Errorf("geocode: %s (status %d)", out.Status.Message, resp.StatusCode())
	}
	metrics.ObserveUpstream("geocode", start, err)
	if err != nil {
		return nil, err
	}

	if len(out.Results) == 0 || out.Results[0].Formatted == "" {
		return nil, ErrNotFound
	}
	return &Place{Lat: lat, Lng: lng, Formatted: out.Results[0].Formatted}, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
