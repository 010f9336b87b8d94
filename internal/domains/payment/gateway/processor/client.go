package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"roastery-backend/internal/domains/payment/gateway"
	"roastery-backend/internal/domains/payment/model"
)

const maxResponseBytes = 1 << 20

// =====================================================
// PROCESSOR CLIENT
// =====================================================

type Client struct {
	config     *Config
	httpClient *http.Client
	now        func() time.Time
}

func NewClient(config *Config) (gateway.Processor, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid processor config: %w", err)
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		now: time.Now,
	}, nil
}

// APIError là lỗi processor trả về (HTTP status >= 400)
type APIError struct {
	Status  int
	Type    string
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("processor %d %s/%s: %s", e.Status, e.Type, e.Code, e.Message)
}

// =====================================================
// CREATE INTENT
// =====================================================

func (c *Client) CreateIntent(ctx context.Context, req gateway.CreateIntentParams) (*model.ProcessorIntent, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.Amount, 10))
	form.Set("currency", req.Currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	if req.ReceiptEmail != "" {
		form.Set("receipt_email", req.ReceiptEmail)
	}
	for k, v := range req.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	headers := map[string]string{"Content-Type": "application/x-www-form-urlencoded"}
	if req.IdempotencyKey != "" {
		headers["Idempotency-Key"] = req.IdempotencyKey
	}

	body, err := c.do(ctx, http.MethodPost, "/v1/payment_intents", strings.NewReader(form.Encode()), headers)
	if err != nil {
		return nil, err
	}

	intent, err := gateway.DecodeIntent(body)
	if err != nil {
		return nil, fmt.Errorf("decode intent: %w", err)
	}
	if intent.ID == "" || intent.ClientSecret == "" {
		return nil, fmt.Errorf("processor returned intent without id or client_secret")
	}
	return intent, nil
}

// =====================================================
// RETRIEVE INTENT
// =====================================================

func (c *Client) RetrieveIntent(ctx context.Context, intentID string) (*model.ProcessorIntent, error) {
	if intentID == "" {
		return nil, model.ErrIntentNotFound
	}

	path := "/v1/payment_intents/" + url.PathEscape(intentID) + "?expand[]=latest_charge"
	body, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, model.ErrIntentNotFound
		}
		return nil, err
	}

	intent, err := gateway.DecodeIntent(body)
	if err != nil {
		return nil, fmt.Errorf("decode intent: %w", err)
	}
	return intent, nil
}

// =====================================================
// SIGNATURE
// =====================================================

func (c *Client) VerifySignature(payload []byte, header string) error {
	return VerifyHeader(payload, header, c.config.WebhookSecret, c.config.SignatureTolerance, c.now())
}

// =====================================================
// HTTP
// =====================================================

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, headers map[string]string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.config.APIURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.SecretKey)
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		var w wireErrorBody
		if json.Unmarshal(raw, &w) == nil {
			apiErr.Type = w.Error.Type
			apiErr.Code = w.Error.Code
			apiErr.Message = w.Error.Message
		}
		return nil, apiErr
	}
	return raw, nil
}

type wireErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
