// Copyright 2026 The LandGods Authors
// SPDX-License-Identifier: Apache-2.0

package shrine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	apikeys "cloud.google.com/go/apikeys/apiv2"
	"cloud.google.com/go/apikeys/apiv2/apikeyspb"
	"golang.org/x/oauth2/google"
	"golang.org/x/text/language"
	"google.golang.org/api/iterator"
)

// GoogleMapsGeocoder uses the Google Maps reverse geocoding API.
type GoogleMapsGeocoder struct {
	apiKey     string
	httpClient *http.Client
}

// NewGoogleMapsGeocoder creates a new Google Maps reverse geocoder.
func NewGoogleMapsGeocoder(apiKey string) *GoogleMapsGeocoder {
	return &GoogleMapsGeocoder{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type googleReverseResponse struct {
	Results []struct {
		AddressComponents []struct {
			LongName string   `json:"long_name"`
			Types    []string `json:"types"`
		} `json:"address_components"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	Status string `json:"status"` // OK, ZERO_RESULTS, etc.
}

func (g *GoogleMapsGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64, locale language.Tag) (*Address, error) {
	params := url.Values{}
	params.Set("latlng", fmt.Sprintf("%f,%f", lat, lng))
	params.Set("language", locale.String())
	params.Set("key", g.apiKey)

	reqURL := "https://maps.googleapis.com/maps/api/geocode/json?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building reverse geocode request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reverse geocode request failed: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google maps returned status %d", resp.StatusCode)
	}

	var gResp googleReverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&gResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if gResp.Status != "OK" {
		return nil, fmt.Errorf("google maps status: %s", gResp.Status)
	}

	if len(gResp.Results) == 0 {
		return nil, fmt.Errorf("no results for %f,%f", lat, lng)
	}

	result := gResp.Results[0]
	addr := &Address{
		DisplayName: result.FormattedAddress,
		Provider:    "google_maps",
	}

	// Map Google's component types onto the subdivision ladder Nominatim
	// reports natively, so the resolver treats both providers the same.
	for _, component := range result.AddressComponents {
		for _, t := range component.Types {
			switch t {
			case "administrative_area_level_4":
				if addr.Village == "" {
					addr.Village = component.LongName
				}
			case "neighborhood", "sublocality_level_1":
				if addr.Neighbourhood == "" {
					addr.Neighbourhood = component.LongName
				}
			case "administrative_area_level_3", "locality":
				if addr.Town == "" {
					addr.Town = component.LongName
				}
			}
		}
	}

	return addr, nil
}

// ResolveGoogleMapsAPIKey returns the configured key, falling back to the
// project's geocoding key retrieved via Application Default Credentials.
func ResolveGoogleMapsAPIKey(ctx context.Context, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}

	log.Println("GOOGLE_MAPS_API_KEY is not set. Attempting to retrieve via ADC...")

	return getAPIKeyFromADC(ctx)
}

func getAPIKeyFromADC(ctx context.Context) (string, error) {
	creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return "", fmt.Errorf("finding default credentials: %w", err)
	}

	projectID := creds.ProjectID
	if projectID == "" {
		return "", errors.New("no project ID in default credentials")
	}

	client, err := apikeys.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("creating apikeys client: %w", err)
	}
	defer client.Close()

	const targetDisplayName = "LandGods Geocoding Key"

	req := &apikeyspb.ListKeysRequest{
		Parent: fmt.Sprintf("projects/%s/locations/global", projectID),
	}

	it := client.ListKeys(ctx, req)

	for {
		key, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			return "", fmt.Errorf("listing keys: %w", err)
		}

		if key.DisplayName != targetDisplayName {
			continue
		}

		// ListKeys redacts KeyString; GetKeyString returns the secret.
		getReq := &apikeyspb.GetKeyStringRequest{
			Name: key.Name,
		}

		resp, err := client.GetKeyString(ctx, getReq)
		if err != nil {
			return "", fmt.Errorf("getting key string: %w", err)
		}

		if resp.KeyString == "" {
			return "", fmt.Errorf("key %q found but KeyString is empty", targetDisplayName)
		}

		return resp.KeyString, nil
	}

	return "", fmt.Errorf("key with display name %q not found in project %s", targetDisplayName, projectID)
}
