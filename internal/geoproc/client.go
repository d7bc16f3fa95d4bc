package geoproc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/glacierwatch/internal/models"
)

const defaultTimeout = 5 * time.Minute

// APIError is a non-2xx response from the platform.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("platform returned status %d: %s", e.Status, e.Message)
}

// Client implements Platform over the platform's JSON HTTP API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets a logger for request tracing.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.client = h }
}

// NewClient creates a platform client. A zero timeout uses five minutes, long enough
// for a tracking run over a 15 km buffer.
func NewClient(baseURL, apiKey string, timeout time.Duration, opts ...ClientOption) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sceneSearchResponse struct {
	Scenes []models.Scene `json:"scenes"`
}

// SearchScenes returns scenes matching q. Order is whatever the platform returns.
func (c *Client) SearchScenes(ctx context.Context, q SceneQuery) ([]models.Scene, error) {
	var resp sceneSearchResponse
	if err := c.call(ctx, "scenes:search", q, &resp); err != nil {
		return nil, err
	}
	return resp.Scenes, nil
}

type featureCountResponse struct {
	Count int `json:"count"`
}

// CountFeatures returns the number of features of q.Collection intersecting q.Geometry.
func (c *Client) CountFeatures(ctx context.Context, q FeatureQuery) (int, error) {
	var resp featureCountResponse
	if err := c.call(ctx, "features:count", q, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// displacementResponse carries masked pixels as JSON null.
type displacementResponse struct {
	Handle          string     `json:"handle"`
	Width           int        `json:"width"`
	Height          int        `json:"height"`
	PixelSizeMeters float64    `json:"pixel_size_m"`
	DX              []*float64 `json:"dx"`
	DY              []*float64 `json:"dy"`
}

// TrackDisplacement runs the platform's displacement primitive and returns the sampled raster.
func (c *Client) TrackDisplacement(ctx context.Context, req TrackingRequest) (*DisplacementRaster, error) {
	var resp displacementResponse
	if err := c.call(ctx, "displacement:track", req, &resp); err != nil {
		return nil, err
	}
	n := resp.Width * resp.Height
	if n <= 0 || len(resp.DX) != n || len(resp.DY) != n {
		return nil, fmt.Errorf("malformed displacement raster: %dx%d with %d/%d samples",
			resp.Width, resp.Height, len(resp.DX), len(resp.DY))
	}
	return &DisplacementRaster{
		Handle:          resp.Handle,
		Width:           resp.Width,
		Height:          resp.Height,
		PixelSizeMeters: resp.PixelSizeMeters,
		DX:              unmask(resp.DX),
		DY:              unmask(resp.DY),
	}, nil
}

// SampleClimate composites and reduces a climate band over q.
func (c *Client) SampleClimate(ctx context.Context, q ClimateQuery) (*ClimateSample, error) {
	var resp ClimateSample
	if err := c.call(ctx, "climate:sample", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) call(ctx context.Context, op string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshaling %s request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/"+op, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling platform %s: %w", op, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("platform call", zap.String("op", op), zap.Int("status", resp.StatusCode), zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return fmt.Errorf("%w: %v", models.ErrCredential, apiErr)
		}
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", op, err)
	}
	return nil
}

func readErrorMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(data))
}

func unmask(values []*float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	return out
}
