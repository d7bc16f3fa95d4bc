package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/glacierwatch/internal/models"
	"github.com/hyperjump/glacierwatch/internal/server"
)

// apiError is a non-2xx response from the glacierwatch server.
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s, HTTP %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// apiClient calls the glacierwatch HTTP API.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Minute},
	}
}

func (c *apiClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var e server.ErrorResponse
	if json.Unmarshal(b, &e) == nil && e.Error != "" {
		return &apiError{Status: resp.StatusCode, Code: e.Code, Message: e.Error}
	}
	return &apiError{Status: resp.StatusCode, Message: strings.TrimSpace(string(b))}
}

func (c *apiClient) Glaciers(ctx context.Context) ([]models.GlacierPreset, error) {
	var out struct {
		Glaciers []models.GlacierPreset `json:"glaciers"`
	}
	err := c.do(ctx, http.MethodGet, "/api/v1/glaciers", nil, &out)
	return out.Glaciers, err
}

func (c *apiClient) Variables(ctx context.Context) ([]models.ClimateVariable, error) {
	var out struct {
		Variables []server.VariableInfo `json:"variables"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/climate/variables", nil, &out); err != nil {
		return nil, err
	}
	vars := make([]models.ClimateVariable, 0, len(out.Variables))
	for _, v := range out.Variables {
		vars = append(vars, v.ClimateVariable)
	}
	return vars, nil
}

func (c *apiClient) CreateSession(ctx context.Context, req server.CreateSessionRequest) (*models.Session, error) {
	var s models.Session
	if err := c.do(ctx, http.MethodPost, "/api/v1/sessions", req, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *apiClient) Session(ctx context.Context, id string) (*models.Session, error) {
	var s models.Session
	if err := c.do(ctx, http.MethodGet, "/api/v1/sessions/"+id, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *apiClient) Sessions(ctx context.Context) ([]*models.Session, error) {
	var out struct {
		Sessions []*models.Session `json:"sessions"`
	}
	err := c.do(ctx, http.MethodGet, "/api/v1/sessions", nil, &out)
	return out.Sessions, err
}

func (c *apiClient) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/sessions/"+id, nil, nil)
}

func (c *apiClient) Velocity(ctx context.Context, id string, req server.VelocityRequest) (*models.VelocityField, error) {
	var v models.VelocityField
	if err := c.do(ctx, http.MethodPost, "/api/v1/sessions/"+id+"/velocity", req, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *apiClient) Climate(ctx context.Context, id string, req server.ClimateRequest) (*models.ClimateLayer, error) {
	var l models.ClimateLayer
	if err := c.do(ctx, http.MethodPost, "/api/v1/sessions/"+id+"/climate", req, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (c *apiClient) Ask(ctx context.Context, id, question string) (models.ConversationTurn, error) {
	var t models.ConversationTurn
	err := c.do(ctx, http.MethodPost, "/api/v1/sessions/"+id+"/ask", server.AskRequest{Question: question}, &t)
	return t, err
}

func (c *apiClient) Turns(ctx context.Context, id string) ([]models.ConversationTurn, error) {
	var out struct {
		Turns []models.ConversationTurn `json:"turns"`
	}
	err := c.do(ctx, http.MethodGet, "/api/v1/sessions/"+id+"/turns", nil, &out)
	return out.Turns, err
}

func (c *apiClient) Suggestions(ctx context.Context, id string) ([]string, error) {
	var out struct {
		Questions []string `json:"questions"`
	}
	err := c.do(ctx, http.MethodGet, "/api/v1/sessions/"+id+"/suggestions", nil, &out)
	return out.Questions, err
}

// Export downloads a report and returns its bytes and the server-suggested filename.
func (c *apiClient) Export(ctx context.Context, id, format string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/v1/sessions/"+id+"/export?format="+format, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", readAPIError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read report: %w", err)
	}
	filename := ""
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		filename = params["filename"]
	}
	return data, filename, nil
}
