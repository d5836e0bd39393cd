package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	envAPIKey = "MCQGEN_API_KEY"
	envAPIURL = "MCQGEN_API_URL"

	defaultAPIURL = "http://localhost:8080"

	// Synchronous generation runs the whole pipeline inside the request.
	defaultTimeout = 5 * time.Minute
)

type APIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewAPIClientWithCmd resolves the server and key from flags, then the
// environment (including .env), then the default URL. The key may be empty
// when the server runs without one.
func NewAPIClientWithCmd(cmd *cobra.Command) *APIClient {
	_ = godotenv.Load()

	var apiKey, baseURL string
	if cmd != nil {
		apiKey, _ = cmd.Flags().GetString("api-key")
		baseURL, _ = cmd.Flags().GetString("api-url")
	}

	if apiKey == "" {
		apiKey = os.Getenv(envAPIKey)
	}
	if baseURL == "" {
		baseURL = os.Getenv(envAPIURL)
	}
	if baseURL == "" {
		baseURL = defaultAPIURL
	}

	return NewAPIClientWithConfig(apiKey, baseURL)
}

func NewAPIClientWithConfig(apiKey, baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// APIError represents an error from the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error (%d %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Get performs a GET request and decodes the "data" envelope into out.
func (c *APIClient) Get(ctx context.Context, path string, out any) error {
	return c.doEnveloped(ctx, http.MethodGet, path, nil, out)
}

// Post performs a POST request and decodes the "data" envelope into out.
func (c *APIClient) Post(ctx context.Context, path string, body, out any) error {
	return c.doEnveloped(ctx, http.MethodPost, path, body, out)
}

// PostRaw performs a POST request and decodes the whole body into out.
func (c *APIClient) PostRaw(ctx context.Context, path string, body, out any) error {
	data, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *APIClient) doEnveloped(ctx context.Context, method, path string, body, out any) error {
	data, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to parse response data: %w", err)
	}
	return nil
}

func (c *APIClient) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var eb errorBody
		if err := json.Unmarshal(respBody, &eb); err != nil || eb.Error == "" {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Code: eb.Code, Message: eb.Error}
	}

	return respBody, nil
}

// DownloadFile saves the body of url to outputPath.
func (c *APIClient) DownloadFile(ctx context.Context, url, outputPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
