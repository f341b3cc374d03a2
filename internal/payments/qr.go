package payments

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type QRStatus string

const (
	QRPaid    QRStatus = "paid"
	QRPending QRStatus = "pending"
	QRFailed  QRStatus = "failed"
)

type QRRequest struct {
	TxnRef  string
	QRImage string // base64 PNG, may be empty for the offline provider
}

// QRClient calls a QR payment gateway that issues a code per transaction
// reference and reports its status.
type QRClient struct {
	API       string
	APIKey    string
	ProjectID string
	Timeout   time.Duration
}

func NewQRClient(api, apiKey, projectID string, timeout time.Duration) *QRClient {
	return &QRClient{API: strings.TrimRight(api, "/"), APIKey: apiKey, ProjectID: projectID, Timeout: timeout}
}

type qrRequestBody struct {
	ProjectID string `json:"project_id,omitempty"`
	TxnRef    string `json:"txn_ref"`
	Amount    string `json:"amount"`
}

type qrRequestResp struct {
	TxnRef string `json:"txn_ref"`
	QRCode string `json:"qr_code"`
}

func (q *QRClient) Request(ctx context.Context, amount decimal.Decimal, ref string) (QRRequest, error) {
	a := fiber.Post(q.API + "/qr/request")
	q.auth(a)
	a.JSON(qrRequestBody{ProjectID: q.ProjectID, TxnRef: ref, Amount: amount.StringFixed(2)})
	a.Timeout(timeoutFor(ctx, q.Timeout))

	var out qrRequestResp
	code, body, errs := a.Struct(&out)
	if err := agentErr("qr request", code, body, errs); err != nil {
		return QRRequest{}, err
	}
	if out.TxnRef == "" {
		out.TxnRef = ref
	}
	return QRRequest{TxnRef: out.TxnRef, QRImage: out.QRCode}, nil
}

func (q *QRClient) Status(ctx context.Context, txnRef string) (QRStatus, error) {
	a := fiber.Get(q.API + "/qr/status/" + url.PathEscape(txnRef))
	q.auth(a)
	a.Timeout(timeoutFor(ctx, q.Timeout))

	var out struct {
		Status string `json:"status"`
	}
	code, body, errs := a.Struct(&out)
	if err := agentErr("qr status", code, body, errs); err != nil {
		return "", err
	}
	switch s := QRStatus(strings.ToLower(out.Status)); s {
	case QRPaid, QRPending, QRFailed:
		return s, nil
	default:
		return "", fmt.Errorf("qr status: unknown status %q", out.Status)
	}
}

func (q *QRClient) auth(a *fiber.Agent) {
	if q.APIKey != "" {
		a.Set("api-key", q.APIKey)
	}
	if q.ProjectID != "" {
		a.Set("project-id", q.ProjectID)
	}
}

// OfflineQR is used when no gateway is configured: the shopper confirms the
// scan on the QR page and the success callback is trusted.
type OfflineQR struct{}

func (OfflineQR) Request(_ context.Context, _ decimal.Decimal, ref string) (QRRequest, error) {
	return QRRequest{TxnRef: ref}, nil
}

func (OfflineQR) Status(context.Context, string) (QRStatus, error) { return QRPaid, nil }
