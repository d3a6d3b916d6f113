package gemini

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	baseURL    = "https://generativelanguage.googleapis.com/v1beta/models"
	apiTimeout = 90 * time.Second
)

// Client defines the generateContent operation used by the services.
type Client interface {
	GenerateContent(ctx context.Context, req *Request) (*Response, error)
}

type apiClient struct {
	httpClient *resty.Client
	model      string
	apiKey     string
}

// NewClient creates a configured Gemini client for the given model.
func NewClient(apiKey, model string) Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(apiTimeout)

	return &apiClient{httpClient: client, model: model, apiKey: apiKey}
}

// apiError mirrors the error payload returned by the Generative Language API.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *apiClient) GenerateContent(ctx context.Context, req *Request) (*Response, error) {
	result := new(Response)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(req).
		SetResult(result).
		SetError(apiErr).
		Post(fmt.Sprintf("/%s:generateContent", c.model))
	if err != nil {
		return nil, fmt.Errorf("gemini api call: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		message := apiErr.Error.Message
		code := resp.StatusCode()
		if apiErr.Error.Code != 0 {
			code = apiErr.Error.Code
		}
		return nil, fmt.Errorf("gemini api error: code=%d, message=%s", code, message)
	}

	return result, nil
}
