package pesapal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/orderledger/internal/domain/errors"
	"github.com/polkiloo/orderledger/internal/domain/model"
)

// tokenSlack refreshes a cached token this long before it expires.
const tokenSlack = time.Minute

// Client exposes the mobile-money provider operations.
type Client interface {
	SubmitOrder(ctx context.Context, req OrderRequest) (*model.ProviderSession, error)
	TransactionStatus(ctx context.Context, trackingID string) (*model.MobileMoneyStatus, error)
}

// Credentials holds merchant API credentials.
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	IPNID          string
}

func (c Credentials) complete() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != ""
}

// OrderRequest describes one mobile-money charge.
type OrderRequest struct {
	Reference   string
	Amount      decimal.Decimal
	Currency    string
	Description string
	CallbackURL string
	Email       string
	FirstName   string
	LastName    string
}

// HTTPClient implements Client via the provider REST API.
type HTTPClient struct {
	baseURL    *url.URL
	creds      Credentials
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
}

type tokenRequest struct {
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`
}

type apiError struct {
	ErrorType string `json:"error_type"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

type tokenResponse struct {
	Token      string    `json:"token"`
	ExpiryDate string    `json:"expiryDate"`
	ExpiresIn  int64     `json:"expires_in"`
	Error      *apiError `json:"error"`
}

type billingAddress struct {
	EmailAddress string `json:"email_address,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
}

type submitRequest struct {
	ID             string         `json:"id"`
	Currency       string         `json:"currency"`
	Amount         json.Number    `json:"amount"`
	Description    string         `json:"description"`
	CallbackURL    string         `json:"callback_url"`
	NotificationID string         `json:"notification_id,omitempty"`
	BillingAddress billingAddress `json:"billing_address"`
}

type submitResponse struct {
	OrderTrackingID   string    `json:"order_tracking_id"`
	MerchantReference string    `json:"merchant_reference"`
	RedirectURL       string    `json:"redirect_url"`
	Error             *apiError `json:"error"`
}

type statusResponse struct {
	StatusCode        int             `json:"status_code"`
	Description       string          `json:"payment_status_description"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	ConfirmationCode  string          `json:"confirmation_code"`
	MerchantReference string          `json:"merchant_reference"`
	Error             *apiError       `json:"error"`
}

// NewHTTPClient creates a provider client with default timeout.
func NewHTTPClient(baseURL string, creds Credentials, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse pesapal url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("pesapal url must be absolute")
	}
	return &HTTPClient{
		baseURL: parsed,
		creds:   creds,
		logger:  logger,
		now:     time.Now,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}, nil
}

// SubmitOrder registers a charge and returns the tracking id and redirect URL.
func (c *HTTPClient) SubmitOrder(ctx context.Context, req OrderRequest) (*model.ProviderSession, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	body := submitRequest{
		ID:             req.Reference,
		Currency:       strings.ToUpper(req.Currency),
		Amount:         json.Number(req.Amount.StringFixed(2)),
		Description:    truncate(req.Description, 100),
		CallbackURL:    req.CallbackURL,
		NotificationID: c.creds.IPNID,
		BillingAddress: billingAddress{
			EmailAddress: req.Email,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
		},
	}

	var data submitResponse
	if err := c.do(ctx, http.MethodPost, "/api/Transactions/SubmitOrderRequest", nil, token, body, &data); err != nil {
		return nil, err
	}
	if data.Error != nil && data.Error.Code != "" {
		return nil, fmt.Errorf("%w: pesapal submit order: %s", domainErrors.ErrUpstream, data.Error.Message)
	}
	if data.OrderTrackingID == "" || data.RedirectURL == "" {
		return nil, fmt.Errorf("%w: pesapal submit order: incomplete response", domainErrors.ErrUpstream)
	}
	ref := data.MerchantReference
	if ref == "" {
		ref = req.Reference
	}
	return &model.ProviderSession{
		SessionID:         data.OrderTrackingID,
		RedirectURL:       data.RedirectURL,
		MerchantReference: ref,
	}, nil
}

// TransactionStatus pulls the current state of a tracked order.
func (c *HTTPClient) TransactionStatus(ctx context.Context, trackingID string) (*model.MobileMoneyStatus, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{"orderTrackingId": []string{trackingID}}
	var data statusResponse
	if err := c.do(ctx, http.MethodGet, "/api/Transactions/GetTransactionStatus", query, token, nil, &data); err != nil {
		return nil, err
	}
	if data.Error != nil && data.Error.Code != "" {
		return nil, fmt.Errorf("%w: pesapal status: %s", domainErrors.ErrUpstream, data.Error.Message)
	}
	return &model.MobileMoneyStatus{
		TrackingID:        trackingID,
		MerchantReference: data.MerchantReference,
		StatusCode:        data.StatusCode,
		Description:       data.Description,
		Amount:            data.Amount,
		Currency:          strings.ToLower(data.Currency),
		ConfirmationCode:  data.ConfirmationCode,
	}, nil
}

func (c *HTTPClient) accessToken(ctx context.Context) (string, error) {
	if !c.creds.complete() {
		return "", fmt.Errorf("%w: pesapal consumer key and secret are required", domainErrors.ErrConfiguration)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.token != "" && now.Before(c.expiry.Add(-tokenSlack)) {
		return c.token, nil
	}

	var data tokenResponse
	req := tokenRequest{ConsumerKey: c.creds.ConsumerKey, ConsumerSecret: c.creds.ConsumerSecret}
	if err := c.do(ctx, http.MethodPost, "/api/Auth/RequestToken", nil, "", req, &data); err != nil {
		return "", err
	}
	if data.Token == "" {
		msg := "empty token"
		if data.Error != nil && data.Error.Message != "" {
			msg = data.Error.Message
		}
		return "", fmt.Errorf("%w: pesapal auth: %s", domainErrors.ErrUpstream, msg)
	}

	c.token = data.Token
	c.expiry = tokenExpiry(now, data)
	return c.token, nil
}

func tokenExpiry(now time.Time, data tokenResponse) time.Time {
	if data.ExpiryDate != "" {
		if t, err := time.Parse(time.RFC3339Nano, data.ExpiryDate); err == nil {
			return t
		}
	}
	if data.ExpiresIn > 0 {
		return now.Add(time.Duration(data.ExpiresIn) * time.Second)
	}
	return now.Add(time.Hour)
}

func (c *HTTPClient) do(ctx context.Context, method, p string, query url.Values, token string, in, out any) error {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, p)
	if query != nil {
		endpoint.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: pesapal %s: %v", domainErrors.ErrUpstream, p, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: pesapal %s: read body: %v", domainErrors.ErrUpstream, p, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("pesapal request failed",
			slog.String("path", p),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(raw)))
		return fmt.Errorf("%w: pesapal %s: %s", domainErrors.ErrUpstream, p, resp.Status)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: pesapal %s: decode: %v", domainErrors.ErrUpstream, p, err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// StatusName renders a transaction status code for logs.
func StatusName(code int) string {
	switch code {
	case model.MobileMoneyCompleted:
		return "COMPLETED"
	case model.MobileMoneyFailed:
		return "FAILED"
	case model.MobileMoneyReversed:
		return "REVERSED"
	case model.MobileMoneyInvalid:
		return "INVALID"
	default:
		return "UNKNOWN(" + strconv.Itoa(code) + ")"
	}
}
