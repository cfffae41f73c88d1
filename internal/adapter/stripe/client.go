// Package stripe adapts the card payment provider: hosted checkout sessions,
// session line items and signed webhook events.
package stripe

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	stripeapi "github.com/stripe/stripe-go/v84"

	domainErrors "github.com/polkiloo/orderledger/internal/domain/errors"
	"github.com/polkiloo/orderledger/internal/domain/model"
	"github.com/polkiloo/orderledger/internal/pricing"
)

// Settings configures the card provider adapter.
type Settings struct {
	SecretKey     string
	WebhookSecret string
	FrontendURL   string
	Currency      string
}

// SessionRequest is a priced cart ready to be turned into a hosted session.
type SessionRequest struct {
	Quote         model.Quote
	CustomerEmail string
	Metadata      map[string]string
}

// sessionAPI is the subset of the SDK used here.
type sessionAPI interface {
	Create(ctx context.Context, params *stripeapi.CheckoutSessionCreateParams) (*stripeapi.CheckoutSession, error)
	LineItems(ctx context.Context, sessionID string) ([]*stripeapi.LineItem, error)
}

type sdkSessions struct {
	api *stripeapi.Client
}

func (s sdkSessions) Create(ctx context.Context, params *stripeapi.CheckoutSessionCreateParams) (*stripeapi.CheckoutSession, error) {
	return s.api.V1CheckoutSessions.Create(ctx, params)
}

func (s sdkSessions) LineItems(ctx context.Context, sessionID string) ([]*stripeapi.LineItem, error) {
	params := &stripeapi.CheckoutSessionListLineItemsParams{Session: stripeapi.String(sessionID)}
	params.AddExpand("data.price.product")

	var items []*stripeapi.LineItem
	for li, err := range s.api.V1CheckoutSessions.ListLineItems(ctx, params) {
		if err != nil {
			return nil, err
		}
		items = append(items, li)
	}
	return items, nil
}

// Client wraps the SDK client together with the webhook signing secret.
type Client struct {
	settings Settings
	sessions sessionAPI
	logger   *slog.Logger
}

// NewClient builds the adapter. A missing secret key is not an error here;
// operations needing it fail with a configuration error instead.
func NewClient(settings Settings, logger *slog.Logger) *Client {
	settings.SecretKey = strings.TrimSpace(settings.SecretKey)
	settings.WebhookSecret = strings.TrimSpace(settings.WebhookSecret)
	settings.FrontendURL = strings.TrimRight(strings.TrimSpace(settings.FrontendURL), "/")
	settings.Currency = strings.ToLower(strings.TrimSpace(settings.Currency))
	if settings.Currency == "" {
		settings.Currency = "usd"
	}

	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{settings: settings, logger: logger}
	if settings.SecretKey != "" {
		c.sessions = sdkSessions{api: stripeapi.NewClient(settings.SecretKey)}
	}
	return c
}

// Currency returns the lowercase ISO currency sessions are created in.
func (c *Client) Currency() string {
	return c.settings.Currency
}

// CreateSession opens a hosted checkout session for the priced cart. Product
// lines come first, followed by tip, shipping and tax.
func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (*model.ProviderSession, error) {
	if c.sessions == nil {
		return nil, fmt.Errorf("%w: card provider secret key is not set", domainErrors.ErrConfiguration)
	}

	lines, err := c.lineItems(req.Quote)
	if err != nil {
		return nil, err
	}
	params := &stripeapi.CheckoutSessionCreateParams{
		Mode:               stripeapi.String(string(stripeapi.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripeapi.StringSlice([]string{"card"}),
		SuccessURL:         stripeapi.String(c.settings.FrontendURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:          stripeapi.String(c.settings.FrontendURL + "/checkout/canceled"),
		LineItems:          lines,
		Metadata:           req.Metadata,
	}
	if email := strings.TrimSpace(req.CustomerEmail); email != "" {
		params.CustomerEmail = stripeapi.String(email)
	}

	session, err := c.sessions.Create(ctx, params)
	if err != nil {
		c.logger.Error("create checkout session failed", slog.Any("error", err))
		return nil, fmt.Errorf("%w: create checkout session: %v", domainErrors.ErrUpstream, err)
	}
	if session == nil || session.ID == "" || session.URL == "" {
		return nil, fmt.Errorf("%w: create checkout session: incomplete response", domainErrors.ErrUpstream)
	}
	return &model.ProviderSession{SessionID: session.ID, RedirectURL: session.URL}, nil
}

func (c *Client) lineItems(q model.Quote) ([]*stripeapi.CheckoutSessionCreateLineItemParams, error) {
	items := make([]*stripeapi.CheckoutSessionCreateLineItemParams, 0, len(q.Items)+len(q.Surcharges))
	for _, it := range q.Items {
		product := &stripeapi.CheckoutSessionCreateLineItemPriceDataProductDataParams{
			Name: stripeapi.String(it.Name),
		}
		if img := NormalizeImage(c.settings.FrontendURL, it.Image); img != "" {
			product.Images = stripeapi.StringSlice([]string{img})
		}
		unit, err := pricing.ToCents(it.DiscountedPrice)
		if err != nil {
			return nil, err
		}
		items = append(items, &stripeapi.CheckoutSessionCreateLineItemParams{
			Quantity: stripeapi.Int64(it.Quantity),
			PriceData: &stripeapi.CheckoutSessionCreateLineItemPriceDataParams{
				Currency:    stripeapi.String(c.settings.Currency),
				UnitAmount:  stripeapi.Int64(unit),
				ProductData: product,
			},
		})
	}
	for _, s := range q.Surcharges {
		amount, err := pricing.ToCents(s.Amount)
		if err != nil {
			return nil, err
		}
		items = append(items, &stripeapi.CheckoutSessionCreateLineItemParams{
			Quantity: stripeapi.Int64(1),
			PriceData: &stripeapi.CheckoutSessionCreateLineItemPriceDataParams{
				Currency:   stripeapi.String(c.settings.Currency),
				UnitAmount: stripeapi.Int64(amount),
				ProductData: &stripeapi.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name: stripeapi.String(s.Name),
				},
			},
		})
	}
	return items, nil
}

// ListLineItems returns the provider's record of a session's lines.
func (c *Client) ListLineItems(ctx context.Context, sessionID string) ([]model.ProviderLineItem, error) {
	if c.sessions == nil {
		return nil, fmt.Errorf("%w: card provider secret key is not set", domainErrors.ErrConfiguration)
	}
	raw, err := c.sessions.LineItems(ctx, sessionID)
	if err != nil {
		c.logger.Warn("list line items failed", slog.String("session_id", sessionID), slog.Any("error", err))
		return nil, fmt.Errorf("%w: list line items: %v", domainErrors.ErrUpstream, err)
	}

	items := make([]model.ProviderLineItem, 0, len(raw))
	for _, li := range raw {
		if li == nil {
			continue
		}
		item := model.ProviderLineItem{
			Description: li.Description,
			Quantity:    li.Quantity,
			AmountTotal: li.AmountTotal,
		}
		if li.Price != nil {
			item.UnitAmount = li.Price.UnitAmount
			if p := li.Price.Product; p != nil {
				if item.Description == "" {
					item.Description = p.Name
				}
				if len(p.Images) > 0 {
					item.Image = p.Images[0]
				}
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// NormalizeImage keeps absolute http(s) URLs, prefixes root-relative paths
// with the storefront origin and drops anything else.
func NormalizeImage(frontendURL, image string) string {
	image = strings.TrimSpace(image)
	if image == "" {
		return ""
	}
	if strings.HasPrefix(image, "/") && !strings.HasPrefix(image, "//") {
		if frontendURL == "" {
			return ""
		}
		return strings.TrimRight(frontendURL, "/") + image
	}
	u, err := url.Parse(image)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return image
}
