package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"trailerhub-backend/internal/logger"
)

// HTTPClient is a minimal client for a Stripe-style payment intent API.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewHTTPClient(httpClient *http.Client, baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &HTTPClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

func (c *HTTPClient) CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error) {
	payload := map[string]interface{}{
		"amount":   req.AmountCents,
		"currency": req.Currency,
		"metadata": req.Metadata,
	}
	headers := map[string]string{}
	if req.IdempotencyKey != "" {
		headers["Idempotency-Key"] = req.IdempotencyKey
	}
	return c.do(ctx, "CreateIntent", http.MethodPost, "/v1/payment_intents", payload, headers)
}

func (c *HTTPClient) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	return c.do(ctx, "GetIntent", http.MethodGet, "/v1/payment_intents/"+url.PathEscape(intentID), nil, nil)
}

func (c *HTTPClient) FindByIdempotencyKey(ctx context.Context, key string) (*Intent, error) {
	return c.do(ctx, "FindByIdempotencyKey", http.MethodGet, "/v1/payment_intents?idempotency_key="+url.QueryEscape(key), nil, nil)
}

func (c *HTTPClient) CancelIntent(ctx context.Context, intentID string) (*Intent, error) {
	return c.do(ctx, "CancelIntent", http.MethodPost, "/v1/payment_intents/"+url.PathEscape(intentID)+"/cancel", nil, nil)
}

func (c *HTTPClient) CaptureIntent(ctx context.Context, intentID string, amount *int64) (*Intent, error) {
	payload := map[string]interface{}{}
	if amount != nil {
		payload["amount_to_capture"] = *amount
	}
	return c.do(ctx, "CaptureIntent", http.MethodPost, "/v1/payment_intents/"+url.PathEscape(intentID)+"/capture", payload, nil)
}

func (c *HTTPClient) do(ctx context.Context, op, method, path string, payload interface{}, headers map[string]string) (*Intent, error) {
	logger.ExternalServiceCall("PaymentGateway", op, "path", path)

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.ExternalServiceResult("PaymentGateway", op, err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		err := decodeError(resp)
		logger.ExternalServiceResult("PaymentGateway", op, err, "status", resp.StatusCode)
		return nil, err
	}

	var intent Intent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		logger.ExternalServiceResult("PaymentGateway", op, err)
		return nil, fmt.Errorf("gateway: decode %s response: %w", op, err)
	}
	logger.ExternalServiceResult("PaymentGateway", op, nil, "intentID", intent.ID, "status", intent.Status)
	return &intent, nil
}

func decodeError(resp *http.Response) error {
	var apiResp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&apiResp)

	apiErr := &APIError{StatusCode: resp.StatusCode, Code: apiResp.Error.Code, Message: apiResp.Error.Message}
	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %v", ErrIntentNotFound, apiErr)
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %v", ErrInvalidState, apiErr)
	}
	return apiErr
}
