package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

var ErrNotConfigured = errors.New("payment provider not configured")

// PayPalStatusCompleted is the capture status that finalises a checkout.
const PayPalStatusCompleted = "COMPLETED"

type Item struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

type Order struct {
	ID          string
	ApprovalURL string
}

type Capture struct {
	ID     string
	Status string
}

// PayPal talks to the Orders v2 REST API.
type PayPal struct {
	API       string
	ClientID  string
	Secret    string
	Currency  string
	ReturnURL string
	Timeout   time.Duration
}

// NewPayPal returns nil when no client id is configured.
func NewPayPal(api, clientID, secret, currency, returnURL string, timeout time.Duration) *PayPal {
	if clientID == "" || secret == "" {
		return nil
	}
	return &PayPal{
		API:       strings.TrimRight(api, "/"),
		ClientID:  clientID,
		Secret:    secret,
		Currency:  currency,
		ReturnURL: strings.TrimRight(returnURL, "/"),
		Timeout:   timeout,
	}
}

type money struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type orderItem struct {
	Name       string `json:"name"`
	Quantity   string `json:"quantity"`
	UnitAmount money  `json:"unit_amount"`
}

type purchaseUnit struct {
	Amount struct {
		money
		Breakdown struct {
			ItemTotal money `json:"item_total"`
		} `json:"breakdown"`
	} `json:"amount"`
	Items []orderItem `json:"items"`
}

type createOrderReq struct {
	Intent             string         `json:"intent"`
	PurchaseUnits      []purchaseUnit `json:"purchase_units"`
	ApplicationContext struct {
		ReturnURL string `json:"return_url"`
		CancelURL string `json:"cancel_url"`
	} `json:"application_context"`
}

type link struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type orderResp struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []link `json:"links"`
}

func (p *PayPal) accessToken(ctx context.Context) (string, error) {
	a := fiber.Post(p.API + "/v1/oauth2/token")
	a.BasicAuth(p.ClientID, p.Secret)
	a.ContentType(fiber.MIMEApplicationForm)
	a.BodyString("grant_type=client_credentials")
	a.Timeout(timeoutFor(ctx, p.Timeout))

	var out struct {
		AccessToken string `json:"access_token"`
	}
	code, body, errs := a.Struct(&out)
	if err := agentErr("paypal token", code, body, errs); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", errors.New("paypal token: empty access token")
	}
	return out.AccessToken, nil
}

// CreateOrder registers an order for amount and returns the buyer approval link.
func (p *PayPal) CreateOrder(ctx context.Context, amount decimal.Decimal, items []Item) (Order, error) {
	token, err := p.accessToken(ctx)
	if err != nil {
		return Order{}, err
	}

	var req createOrderReq
	req.Intent = "CAPTURE"
	req.ApplicationContext.ReturnURL = p.ReturnURL + "/paypal/capture-order"
	req.ApplicationContext.CancelURL = p.ReturnURL + "/paypal/cancel-order"
	var pu purchaseUnit
	pu.Amount.money = money{CurrencyCode: p.Currency, Value: amount.StringFixed(2)}
	pu.Amount.Breakdown.ItemTotal = pu.Amount.money
	for _, it := range items {
		pu.Items = append(pu.Items, orderItem{
			Name:       it.Name,
			Quantity:   strconv.Itoa(it.Quantity),
			UnitAmount: money{CurrencyCode: p.Currency, Value: it.UnitPrice.StringFixed(2)},
		})
	}
	req.PurchaseUnits = []purchaseUnit{pu}

	a := fiber.Post(p.API + "/v2/checkout/orders")
	a.Set(fiber.HeaderAuthorization, "Bearer "+token)
	a.JSON(req)
	a.Timeout(timeoutFor(ctx, p.Timeout))

	var out orderResp
	code, body, errs := a.Struct(&out)
	if err := agentErr("paypal create order", code, body, errs); err != nil {
		return Order{}, err
	}
	if out.ID == "" {
		return Order{}, errors.New("paypal create order: missing order id")
	}
	for _, l := range out.Links {
		if l.Rel == "approve" {
			return Order{ID: out.ID, ApprovalURL: l.Href}, nil
		}
	}
	return Order{}, errors.New("paypal create order: missing approval link")
}

// CaptureOrder captures an approved order. The caller decides what a non
// COMPLETED status means.
func (p *PayPal) CaptureOrder(ctx context.Context, orderID string) (Capture, error) {
	token, err := p.accessToken(ctx)
	if err != nil {
		return Capture{}, err
	}
	a := fiber.Post(p.API + "/v2/checkout/orders/" + orderID + "/capture")
	a.Set(fiber.HeaderAuthorization, "Bearer "+token)
	a.ContentType(fiber.MIMEApplicationJSON)
	a.Timeout(timeoutFor(ctx, p.Timeout))

	var out orderResp
	code, body, errs := a.Struct(&out)
	if err := agentErr("paypal capture", code, body, errs); err != nil {
		return Capture{}, err
	}
	if out.Status == "" {
		return Capture{}, errors.New("paypal capture: missing status")
	}
	return Capture{ID: out.ID, Status: out.Status}, nil
}

// timeoutFor shortens def to the context deadline when there is one.
func timeoutFor(ctx context.Context, def time.Duration) time.Duration {
	if def <= 0 {
		def = 15 * time.Second
	}
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < def {
			if left <= 0 {
				return time.Millisecond
			}
			return left
		}
	}
	return def
}

func agentErr(op string, code int, body []byte, errs []error) error {
	if code != 0 && (code < 200 || code >= 300) {
		b := string(body)
		if len(b) > 200 {
			b = b[:200]
		}
		return fmt.Errorf("%s: http %d: %s", op, code, b)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s: %w", op, errors.Join(errs...))
	}
	return nil
}
