package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/suar-net/foodscan-be/internal/config"
	"github.com/suar-net/foodscan-be/internal/model"
)

const (
	maxResponseBodySize = 1 * 1024 * 1024 // 1 MB
	maxErrorBodySize    = 4 * 1024
)

// OutboundRequest is a fully prepared call to the model service.
type OutboundRequest struct {
	Method  string
	URL     *url.URL
	Headers http.Header
	Body    []byte
	Timeout time.Duration
}

// ChatClient talks to an OpenAI-compatible chat completion endpoint.
type ChatClient struct {
	httpClient *http.Client
	baseURL    *url.URL
	apiKey     string
	timeout    time.Duration
}

func NewChatClient(cfg config.ModelConfig) (*ChatClient, error) {
	baseURL, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse model base URL: %v", ErrInvalidInput, err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("%w: invalid model base URL scheme: %s", ErrInvalidInput, baseURL.Scheme)
	}

	transport := &http.Transport{
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &ChatClient{
		httpClient: &http.Client{
			Transport: transport,
		},
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
	}, nil
}

// CreateCompletion sends one chat completion request and returns the text
// of the first choice.
func (c *ChatClient) CreateCompletion(ctx context.Context, req *model.ChatCompletionRequest) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	outboundRequest, err := c.newOutboundRequest(req)
	if err != nil {
		return "", err
	}

	respBody, err := c.Execute(ctx, outboundRequest)
	if err != nil {
		return "", err
	}

	var completion model.ChatCompletionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return "", fmt.Errorf("%w: failed to decode completion: %v", ErrUpstream, err)
	}
	if len(completion.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	content, ok := completion.Choices[0].Message.Content.(string)
	if !ok {
		return "", ErrEmptyCompletion
	}
	return content, nil
}

func (c *ChatClient) newOutboundRequest(req *model.ChatCompletionRequest) (*OutboundRequest, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal completion request: %v", ErrInvalidInput, err)
	}

	headers := make(http.Header)
	headers.Set("Content-Type", "application/json")
	headers.Set("Authorization", "Bearer "+c.apiKey)

	return &OutboundRequest{
		Method:  http.MethodPost,
		URL:     c.baseURL.JoinPath("chat", "completions"),
		Headers: headers,
		Body:    body,
		Timeout: c.timeout,
	}, nil
}

// Execute performs the request under its own timeout and returns the
// response body of a 2xx answer.
func (c *ChatClient) Execute(ctx context.Context, outboundRequest *OutboundRequest) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, outboundRequest.Timeout)
	defer cancel()

	httpRequest, err := http.NewRequestWithContext(
		reqCtx,
		outboundRequest.Method,
		outboundRequest.URL.String(),
		bytes.NewReader(outboundRequest.Body),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	httpRequest.Header = outboundRequest.Headers

	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrRequestTimeout, err)
		}
		return nil, fmt.Errorf("failed to execute request to model service: %w", err)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode > 299 {
		return nil, upstreamError(httpResponse)
	}

	limitedReader := &io.LimitedReader{R: httpResponse.Body, N: maxResponseBodySize + 1}
	bodyBytes, err := io.ReadAll(limitedReader)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrRequestTimeout, err)
		}
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(bodyBytes) > maxResponseBodySize {
		return nil, fmt.Errorf("%w: response body exceeds %d bytes", ErrUpstream, maxResponseBodySize)
	}

	return bodyBytes, nil
}

func upstreamError(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))

	var payload model.ChatCompletionResponse
	if err := json.Unmarshal(bodyBytes, &payload); err == nil && payload.Error != nil && payload.Error.Message != "" {
		return fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, payload.Error.Message)
	}
	return fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
}
