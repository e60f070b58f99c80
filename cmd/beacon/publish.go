package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/npratt/beacon/internal/progress"
)

const maxResponseBytes = 4096

// publishResult is the feed server's answer to a publish.
type publishResult struct {
	Delivered int `json:"delivered"`
	Dropped   int `json:"dropped"`
}

// readFrameArg returns the frame named by args: inline JSON, a file path, or
// stdin when args is empty or "-".
func readFrameArg(args []string, stdin io.Reader) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	arg := strings.TrimSpace(args[0])
	if strings.HasPrefix(arg, "{") {
		return []byte(arg), nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return nil, fmt.Errorf("read frame file: %w", err)
	}
	return data, nil
}

// publishFrame validates frame locally and posts it to the server's
// progress endpoint.
func publishFrame(ctx context.Context, client *http.Client, server, token string, frame []byte) (*publishResult, error) {
	if err := progress.ValidateFrame(frame); err != nil {
		return nil, err
	}
	if client == nil {
		client = http.DefaultClient
	}

	endpoint, err := url.JoinPath(server, "observability", "progress")
	if err != nil {
		return nil, fmt.Errorf("server url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("publish: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var result publishResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}
