package geo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"

	"playaway/internal/apperr"
	"playaway/internal/config"
)

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Geocoder resolves free-text locations to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, location string) (Coordinates, error)
}

// NominatimClient talks to a Nominatim-compatible search endpoint.
type NominatimClient struct {
	client   *resty.Client
	endpoint string
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func NewNominatimClient(cfg config.GeocodeConfig) *NominatimClient {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "playaway/1.0")

	return &NominatimClient{
		client:   client,
		endpoint: cfg.Endpoint,
	}
}

func (c *NominatimClient) Geocode(ctx context.Context, location string) (Coordinates, error) {
	var results []nominatimResult

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":      location,
			"format": "json",
			"limit":  "1",
		}).
		SetResult(&results).
		Get(c.endpoint)
	if err != nil {
		return Coordinates{}, apperr.Wrap(apperr.KindUpstreamUnavailable, "geocode request failed", err)
	}
	if resp.IsError() {
		return Coordinates{}, apperr.Newf(apperr.KindUpstreamUnavailable, "geocode upstream status %d", resp.StatusCode())
	}
	if len(results) == 0 {
		return Coordinates{}, apperr.New(apperr.KindNotFound, "no geocode match")
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("parse lat: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("parse lon: %w", err)
	}

	return Coordinates{Latitude: lat, Longitude: lon}, nil
}
