// Copyright 2026 The LandGods Authors
// SPDX-License-Identifier: Apache-2.0

package shrine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// NominatimGeocoder uses the OpenStreetMap Nominatim reverse endpoint.
type NominatimGeocoder struct {
	baseURL    string
	httpClient *http.Client
}

// Nominatim usage policy requires an identifying User-Agent.
const nominatimUserAgent = "landgods/1.0 (shrine map)"

// NewNominatimGeocoder creates a new Nominatim reverse geocoder.
func NewNominatimGeocoder(baseURL string) *NominatimGeocoder {
	return &NominatimGeocoder{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		Village       string `json:"village"`
		Neighbourhood string `json:"neighbourhood"`
		Town          string `json:"town"`
	} `json:"address"`
	Error string `json:"error"`
}

func (g *NominatimGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64, locale language.Tag) (*Address, error) {
	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("accept-language", locale.String())

	reqURL := g.baseURL + "/reverse?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building reverse geocode request: %w", err)
	}

	req.Header.Set("User-Agent", nominatimUserAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reverse geocode request failed: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var nResp nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&nResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	// Nominatim reports "Unable to geocode" as a 200 with an error field.
	if nResp.Error != "" {
		return nil, fmt.Errorf("nominatim error: %s", nResp.Error)
	}

	return &Address{
		Village:       nResp.Address.Village,
		Neighbourhood: nResp.Address.Neighbourhood,
		Town:          nResp.Address.Town,
		DisplayName:   nResp.DisplayName,
		Provider:      "nominatim",
	}, nil
}
