package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleGeocoder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		switch r.URL.Query().Get("address") {
		case "1 Main St US":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "OK",
				"results": []map[string]interface{}{{
					"formatted_address": "1 Main St, Springfield",
					"geometry":          map[string]interface{}{"location": map[string]float64{"lat": 1.5, "lng": -2.5}},
				}},
			})
		case "nowhere":
			json.NewEncoder(w).Encode(map[string]string{"status": "ZERO_RESULTS"})
		case "broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			json.NewEncoder(w).Encode(map[string]string{"status": "REQUEST_DENIED", "error_message": "bad key"})
		}
	}))
	defer server.Close()

	g := NewGoogleGeocoder("test-key", server.URL)
	ctx := context.Background()

	points, err := g.Geocode(ctx, "1 Main St US")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "1 Main St, Springfield", points[0].Address)
	assert.Equal(t, 1.5, points[0].Latitude)
	assert.Equal(t, -2.5, points[0].Longitude)

	points, err = g.Geocode(ctx, "nowhere")
	require.NoError(t, err)
	assert.Empty(t, points)

	_, err = g.Geocode(ctx, "broken")
	assert.Error(t, err)

	_, err = g.Geocode(ctx, "denied")
	assert.ErrorContains(t, err, "REQUEST_DENIED")
}
