package geocoding

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client resolves free-text postal addresses to coordinates through the
// Google geocoding HTTP API. Calls are synchronous, best-effort and carry a
// single timeout; the caller decides how to degrade on failure.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// Geocode resolves an address. Any transport error, non-2xx status, non-OK
// payload status or empty result set is a failure.
func (c *Client) Geocode(address string) (*Coordinates, error) {
	endpoint := fmt.Sprintf("%s/maps/api/geocode/json?address=%s&key=%s",
		c.baseURL, url.QueryEscape(address), url.QueryEscape(c.apiKey))

	resp, err := c.httpClient.Get(endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("geocoding API returned non-OK status: " + resp.Status)
	}

	var apiResp geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, err
	}

	if apiResp.Status != "OK" || len(apiResp.Results) == 0 {
		return nil, errors.New("geocoding failed with provider status: " + apiResp.Status)
	}

	coords := apiResp.Results[0].Geometry.Location
	return &coords, nil
}
