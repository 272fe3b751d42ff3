package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/star/telemetrygen/internal/status"
)

// Client queries a running status server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient returns a client for the server at baseURL. token may be empty.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Run fetches the current run snapshot.
func (c *Client) Run(ctx context.Context) (*status.Run, error) {
	var run status.Run
	if err := c.get(ctx, "/api/v1/run", &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// Sensors fetches the sensor catalogue.
func (c *Client) Sensors(ctx context.Context) (*SensorsResponse, error) {
	var resp SensorsResponse
	if err := c.get(ctx, "/api/v1/sensors", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Follow streams run snapshots from /api/v1/run/stream, calling fn for
// each one, until the server ends the stream or ctx is cancelled.
func (c *Client) Follow(ctx context.Context, fn func(*status.Run)) error {
	const path = "/api/v1/run/stream"
	// Streams outlive the request timeout.
	streaming := &http.Client{Transport: c.http.Transport}
	resp, err := c.do(ctx, streaming, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		data, ok := strings.CutPrefix(scanner.Text(), "data: ")
		if !ok {
			continue
		}
		var msg struct {
			Type string      `json:"type"`
			Run  *status.Run `json:"run"`
		}
		if err := json.Unmarshal([]byte(data), &msg); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		if msg.Run != nil {
			fn(msg.Run)
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return ctx.Err()
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, c.http, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// do issues an authenticated GET and turns non-200 answers into errors.
func (c *Client) do(ctx context.Context, hc *http.Client, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.StatusCode == http.StatusOK {
		return resp, nil
	}
	defer resp.Body.Close()

	var body struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return nil, fmt.Errorf("GET %s: %s: %s", path, resp.Status, body.Error)
	}
	return nil, fmt.Errorf("GET %s: %s", path, resp.Status)
}
