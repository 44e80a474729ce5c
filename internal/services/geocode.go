package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"mixins/internal/models"
)

// Geocoder resolves a free-form address to candidate points.
type Geocoder interface {
	Geocode(ctx context.Context, address string) ([]models.GeoPoint, error)
}

// GoogleGeocoder talks to the Google geocoding JSON API.
type GoogleGeocoder struct {
	Key    string
	URL    string
	Client *http.Client
}

func NewGoogleGeocoder(key, endpoint string) *GoogleGeocoder {
	return &GoogleGeocoder{
		Key:    key,
		URL:    endpoint,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

type googleResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) ([]models.GeoPoint, error) {
	q := url.Values{}
	q.Set("address", address)
	q.Set("key", g.Key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.URL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode %q: status %d", address, resp.StatusCode)
	}

	var body googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}

	switch body.Status {
	case "OK":
	case "ZERO_RESULTS":
		return []models.GeoPoint{}, nil
	default:
		return nil, fmt.Errorf("geocode %q: %s %s", address, body.Status, body.ErrorMessage)
	}

	points := make([]models.GeoPoint, len(body.Results))
	for i, r := range body.Results {
		points[i] = models.GeoPoint{
			Address:   r.FormattedAddress,
			Latitude:  r.Geometry.Location.Lat,
			Longitude: r.Geometry.Location.Lng,
		}
	}
	return points, nil
}
