package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"quiz-service/internal/app"
)

// Client calls the external code-execution service:
//
//	POST {baseURL}/execute {"language","code","stdin"} -> {"output","error"}
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

type executeRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
	Stdin    string `json:"stdin"`
}

func (c *Client) Execute(ctx context.Context, language, code, stdin string) (app.ExecResult, error) {
	body, err := json.Marshal(executeRequest{Language: language, Code: code, Stdin: stdin})
	if err != nil {
		return app.ExecResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/execute", bytes.NewReader(body))
	if err != nil {
		return app.ExecResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return app.ExecResult{}, fmt.Errorf("sandbox request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return app.ExecResult{}, fmt.Errorf("sandbox returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	var result app.ExecResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return app.ExecResult{}, fmt.Errorf("decode sandbox response: %w", err)
	}
	return result, nil
}
