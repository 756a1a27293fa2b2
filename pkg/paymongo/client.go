package paymongo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shophub-dev/shophub-backend/pkg/config"
	pkgerrors "github.com/shophub-dev/shophub-backend/pkg/errors"
	"github.com/shophub-dev/shophub-backend/pkg/logger"
)

const defaultBaseURL = "https://api.paymongo.com/v1"

var (
	errSecretKeyRequired = errors.New("paymongo secret key is required")
	errLoggerRequired    = errors.New("paymongo logger is required")
)

// Client exposes PayMongo primitives with centralized auth, logging, and error mapping.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
	currency   string
	logger     *logger.Logger
}

// NewClient initializes the PayMongo wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.PayMongoConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	secretKey := strings.TrimSpace(cfg.SecretKey)
	if secretKey == "" {
		return nil, errSecretKeyRequired
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		secretKey:  secretKey,
		currency:   strings.ToUpper(strings.TrimSpace(cfg.Currency)),
		logger:     logg,
	}

	logg.Info(ctx, "paymongo client initialized")
	return c, nil
}

// Currency returns the configured ISO currency code.
func (c *Client) Currency() string {
	if c == nil || c.currency == "" {
		return "PHP"
	}
	return c.currency
}

// apiError is the PayMongo error envelope.
type apiError struct {
	Errors []struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

func (e apiError) message() string {
	parts := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		if item.Detail != "" {
			parts = append(parts, item.Detail)
		} else if item.Code != "" {
			parts = append(parts, item.Code)
		}
	}
	if len(parts) == 0 {
		return "paymongo request failed"
	}
	return strings.Join(parts, "; ")
}

// do issues an authenticated JSON request and decodes the data envelope into out.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	if c == nil || c.httpClient == nil {
		return errors.New("paymongo client not initialized")
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode paymongo request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build paymongo request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+basicAuth(c.secretKey))
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log(ctx, "request", method+" "+path, nil)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log(ctx, "error", method+" "+path, map[string]any{"error": err.Error()})
		return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "paymongo request failed")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "paymongo response read failed")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var parsed apiError
		_ = json.Unmarshal(payload, &parsed)
		msg := parsed.message()
		c.log(ctx, "error", method+" "+path, map[string]any{"status": resp.StatusCode, "error": msg})
		return pkgerrors.New(pkgerrors.CodeGateway, msg).
			WithDetails(map[string]any{"provider_status": resp.StatusCode})
	}

	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "paymongo response decode failed")
		}
	}

	c.log(ctx, "response", method+" "+path, map[string]any{"status": resp.StatusCode})
	return nil
}

func basicAuth(secretKey string) string {
	return base64.StdEncoding.EncodeToString([]byte(secretKey + ":"))
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, "paymongo "+op, errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, "paymongo "+phase)
	}
}
