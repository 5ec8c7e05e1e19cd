// AngelaMos | 2026
// gateway.go

package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/storefront/internal/config"
	"github.com/carterperez-dev/storefront/internal/core"
)

const defaultBaseURL = "https://api.razorpay.com"

var (
	ErrInvalidAmount = errors.New("invalid amount")

	maxMinorUnits = decimal.NewFromInt(math.MaxInt64)
)

type Order struct {
	ID       string            `json:"id"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Status   string            `json:"status"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type providerError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// Gateway talks to a Razorpay-compatible orders API and checks checkout
// signatures.
type Gateway struct {
	client   *http.Client
	keyID    string
	secret   string
	baseURL  string
	currency string
	timeout  time.Duration
}

func NewGateway(cfg config.PaymentConfig, timeout time.Duration, client *http.Client) *Gateway {
	if client == nil {
		client = &http.Client{}
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	currency := cfg.Currency
	if currency == "" {
		currency = "INR"
	}
	return &Gateway{
		client:   client,
		keyID:    cfg.KeyID,
		secret:   cfg.KeySecret,
		baseURL:  baseURL,
		currency: currency,
		timeout:  timeout,
	}
}

func (g *Gateway) KeyID() string {
	return g.keyID
}

// ToMinorUnits converts a major-unit amount to paise/cents. Amounts with
// more than two decimal places, below one minor unit or beyond int64 are
// rejected.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	minor := amount.Shift(2)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("%s has sub-minor precision: %w", amount, ErrInvalidAmount)
	}
	if minor.LessThan(decimal.NewFromInt(1)) {
		return 0, fmt.Errorf("%s is not positive: %w", amount, ErrInvalidAmount)
	}
	if minor.GreaterThan(maxMinorUnits) {
		return 0, fmt.Errorf("%s exceeds the largest chargeable amount: %w", amount, ErrInvalidAmount)
	}
	return minor.IntPart(), nil
}

func (g *Gateway) CreateOrder(
	ctx context.Context,
	amount decimal.Decimal,
	currency, receipt string,
	notes map[string]string,
) (*Order, error) {
	minor, err := ToMinorUnits(amount)
	if err != nil {
		return nil, err
	}
	if currency == "" {
		currency = g.currency
	}

	payload, err := json.Marshal(orderRequest{
		Amount:   minor,
		Currency: strings.ToUpper(currency),
		Receipt:  receipt,
		Notes:    notes,
	})
	if err != nil {
		return nil, fmt.Errorf("encode order: %w", err)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		g.baseURL+"/v1/orders",
		bytes.NewReader(payload),
	)
	if err != nil {
		return nil, fmt.Errorf("build order request: %w", err)
	}
	req.SetBasicAuth(g.keyID, g.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, core.Upstream("create order", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, core.Upstream("read order response", err)
	}

	if resp.StatusCode >= 500 {
		return nil, core.Upstream("create order",
			fmt.Errorf("provider returned %d", resp.StatusCode))
	}
	if resp.StatusCode >= 300 {
		var perr providerError
		_ = json.Unmarshal(body, &perr) //nolint:errcheck // description is optional
		return nil, fmt.Errorf("create order: provider rejected request (%d %s): %w",
			resp.StatusCode, perr.Error.Description, core.ErrInvalidInput)
	}

	var order Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}

	return &order, nil
}

// VerifySignature checks the HMAC-SHA256 of "orderID|paymentID" under the
// key secret in constant time.
func (g *Gateway) VerifySignature(orderID, paymentID, signature string) bool {
	if g.secret == "" || orderID == "" || paymentID == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
