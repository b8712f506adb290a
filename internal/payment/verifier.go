package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"nymph/internal/domain"
)

// ErrUnreachable means the verification round-trip itself failed; the payment
// state is unknown.
var ErrUnreachable = errors.New("verification unreachable")

// Verifier confirms a gateway-reported payment server-side.
type Verifier interface {
	Verify(ctx context.Context, token string, amount domain.Money) (bool, error)
}

type VerifierFunc func(ctx context.Context, token string, amount domain.Money) (bool, error)

func (f VerifierFunc) Verify(ctx context.Context, token string, amount domain.Money) (bool, error) {
	return f(ctx, token, amount)
}

// VerifyRequest is the body of POST /verify-khalti. Amount is in paisa.
type VerifyRequest struct {
	Token  string `json:"token"`
	Amount int64  `json:"amount"`
}

type VerifyResponse struct {
	Success bool `json:"success"`
}

const DefaultVerifyTimeout = 10 * time.Second

// HTTPVerifier calls a verification endpoint that answers {"success": bool}.
type HTTPVerifier struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

func NewHTTPVerifier(url string, timeout time.Duration) *HTTPVerifier {
	if timeout <= 0 {
		timeout = DefaultVerifyTimeout
	}
	return &HTTPVerifier{url: url, client: &http.Client{}, timeout: timeout}
}

func (v *HTTPVerifier) Verify(ctx context.Context, token string, amount domain.Money) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	body, err := json.Marshal(VerifyRequest{Token: token, Amount: amount.Minor()})
	if err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return false, fmt.Errorf("%w: verify endpoint status %d", ErrUnreachable, resp.StatusCode)
	}

	var out VerifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&out); err != nil {
		return false, fmt.Errorf("%w: decode response (status %d): %v", ErrUnreachable, resp.StatusCode, err)
	}
	return out.Success, nil
}
