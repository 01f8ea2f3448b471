package vin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// vinPattern is the 17-character VIN alphabet; I, O and Q are excluded
var vinPattern = regexp.MustCompile(`(?i)^[A-HJ-NPR-Z0-9]{17}$`)

// decodedVariables are the registry result variables kept in decoded VIN data
var decodedVariables = map[string]bool{
	"Make":                       true,
	"Model":                      true,
	"Model Year":                 true,
	"Body Class":                 true,
	"Engine Number of Cylinders": true,
	"Engine Model":               true,
	"Fuel Type - Primary":        true,
	"Manufacturer Name":          true,
	"Vehicle Type":               true,
	"Plant Country":              true,
}

// Client decodes VINs against an NHTSA-style vehicle registry. Transient
// registry failures are retried with exponential backoff; client errors are
// not.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxElapsed time.Duration
	logger     *zap.Logger
}

// NewClient creates a registry client. baseURL points at the registry API
// root, e.g. https://vpic.nhtsa.dot.gov/api.
func NewClient(baseURL string, timeout, maxElapsed time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		maxElapsed: maxElapsed,
		logger:     logger,
	}
}

// Validate reports whether vin is a syntactically valid 17-character VIN
func (c *Client) Validate(vin string) bool {
	return vinPattern.MatchString(vin)
}

type registryResponse struct {
	Results []struct {
		Variable string `json:"Variable"`
		Value    string `json:"Value"`
	} `json:"Results"`
}

// Decode fetches and filters decoded vehicle data for a VIN. The returned
// document maps registry variable names to their values; empty values are
// dropped.
func (c *Client) Decode(ctx context.Context, vin string) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/vehicles/DecodeVin/%s?format=json", c.baseURL, url.PathEscape(vin))

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to build registry request: %w", err))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("registry request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("registry returned status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("registry returned status %d", resp.StatusCode))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read registry response: %w", err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.maxElapsed

	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}

	var parsed registryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse registry response: %w", err)
	}

	decoded := make(map[string]string)
	for _, result := range parsed.Results {
		if decodedVariables[result.Variable] && result.Value != "" {
			decoded[result.Variable] = result.Value
		}
	}

	data, err := json.Marshal(decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to encode decoded data: %w", err)
	}

	c.logger.Debug("decoded vin", zap.String("vin", vin), zap.Int("fields", len(decoded)))
	return data, nil
}
