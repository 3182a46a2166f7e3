// Copyright 2026 The LandGods Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"bytes"
	"context"
	"crypto/sha1" // #nosec G505 - mandated by the Cloudinary signature scheme
	"encoding/hex"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Cloudinary talks to the Cloudinary REST API. The upload endpoint signs
// requests with SHA-1 over the sorted parameters; the admin listing uses
// basic auth.
type Cloudinary struct {
	cloudName  string
	apiKey     string
	apiSecret  string
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// CloudinaryOption adjusts the client, mostly for tests.
type CloudinaryOption func(*Cloudinary)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(base string) CloudinaryOption {
	return func(c *Cloudinary) { c.baseURL = strings.TrimSuffix(base, "/") }
}

// WithHTTPClient overrides the HTTP client, e.g. to add tracing.
func WithHTTPClient(client *http.Client) CloudinaryOption {
	return func(c *Cloudinary) { c.httpClient = client }
}

// WithClock overrides the timestamp source used for signing.
func WithClock(now func() time.Time) CloudinaryOption {
	return func(c *Cloudinary) { c.now = now }
}

// NewCloudinary creates a client for the given cloud.
func NewCloudinary(cloudName, apiKey, apiSecret string, opts ...CloudinaryOption) *Cloudinary {
	c := &Cloudinary{
		cloudName: cloudName,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   "https://api.cloudinary.com/v1_1",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		now: time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type cloudinaryUploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	CreatedAt string `json:"created_at"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload stores a photo and returns its canonical secure URL. Metadata is
// attached as Cloudinary context so listings can return it.
func (c *Cloudinary) Upload(ctx context.Context, photo []byte, meta Metadata) (*UploadResult, error) {
	if len(photo) == 0 {
		return nil, fmt.Errorf("empty photo")
	}

	timestamp := strconv.FormatInt(c.now().Unix(), 10)
	contextValue := encodeContext(meta)

	signedParams := map[string]string{
		"timestamp": timestamp,
	}
	if contextValue != "" {
		signedParams["context"] = contextValue
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for k, v := range signedParams {
		if err := writer.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("writing field %s: %w", k, err)
		}
	}

	if err := writer.WriteField("api_key", c.apiKey); err != nil {
		return nil, fmt.Errorf("writing api key: %w", err)
	}

	if err := writer.WriteField("signature", c.sign(signedParams)); err != nil {
		return nil, fmt.Errorf("writing signature: %w", err)
	}

	part, err := writer.CreateFormFile("file", "photo")
	if err != nil {
		return nil, fmt.Errorf("creating file part: %w", err)
	}

	if _, err := part.Write(photo); err != nil {
		return nil, fmt.Errorf("writing photo: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	reqURL := fmt.Sprintf("%s/%s/image/upload", c.baseURL, c.cloudName)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("building upload request: %w", err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}

	defer resp.Body.Close()

	var uResp cloudinaryUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uResp); err != nil {
		return nil, fmt.Errorf("decoding upload response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if uResp.Error.Message != "" {
			return nil, fmt.Errorf("cloudinary upload failed: %s", uResp.Error.Message)
		}

		return nil, fmt.Errorf("cloudinary upload returned status %d", resp.StatusCode)
	}

	if uResp.SecureURL == "" {
		return nil, fmt.Errorf("cloudinary upload returned no URL")
	}

	createdAt, err := time.Parse(time.RFC3339, uResp.CreatedAt)
	if err != nil {
		createdAt = c.now()
	}

	return &UploadResult{
		URL:       uResp.SecureURL,
		CreatedAt: createdAt,
	}, nil
}

type cloudinaryListResponse struct {
	Resources []struct {
		SecureURL string `json:"secure_url"`
		CreatedAt string `json:"created_at"`
		Context   struct {
			Custom map[string]string `json:"custom"`
		} `json:"context"`
	} `json:"resources"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// List returns up to limit stored photos with their context metadata.
func (c *Cloudinary) List(ctx context.Context, limit int) ([]*Object, error) {
	params := url.Values{}
	params.Set("max_results", strconv.Itoa(limit))
	params.Set("context", "true")

	reqURL := fmt.Sprintf("%s/%s/resources/image?%s", c.baseURL, c.cloudName, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building list request: %w", err)
	}

	req.SetBasicAuth(c.apiKey, c.apiSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list request failed: %w", err)
	}

	defer resp.Body.Close()

	var lResp cloudinaryListResponse
	if err := json.NewDecoder(resp.Body).Decode(&lResp); err != nil {
		return nil, fmt.Errorf("decoding list response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if lResp.Error.Message != "" {
			return nil, fmt.Errorf("cloudinary list failed: %s", lResp.Error.Message)
		}

		return nil, fmt.Errorf("cloudinary list returned status %d", resp.StatusCode)
	}

	objects := make([]*Object, 0, len(lResp.Resources))

	for _, res := range lResp.Resources {
		if res.SecureURL == "" {
			continue
		}

		createdAt, err := time.Parse(time.RFC3339, res.CreatedAt)
		if err != nil {
			createdAt = time.Time{}
		}

		objects = append(objects, &Object{
			URL:       res.SecureURL,
			Metadata:  Metadata(res.Context.Custom),
			CreatedAt: createdAt,
		})
	}

	return objects, nil
}

// sign computes the SHA-1 signature over the sorted parameters, per the
// Cloudinary authentication scheme.
func (c *Cloudinary) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + c.apiSecret)) // #nosec G401

	return hex.EncodeToString(sum[:])
}

// encodeContext renders metadata as Cloudinary's "k=v|k=v" context
// string. The separators can't be escaped, so they are replaced.
func encodeContext(meta Metadata) string {
	if len(meta) == 0 {
		return ""
	}

	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))

	for _, k := range keys {
		v := strings.NewReplacer("|", " ", "=", " ").Replace(meta[k])
		pairs = append(pairs, k+"="+v)
	}

	return strings.Join(pairs, "|")
}
