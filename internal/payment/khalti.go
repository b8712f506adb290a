package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nymph/internal/domain"
)

const DefaultKhaltiAPI = "https://khalti.com/api/v2"

// KhaltiVerifier asks Khalti whether a widget token was really paid. It backs
// the /verify-khalti endpoint.
type KhaltiVerifier struct {
	baseURL   string
	secretKey string
	client    *http.Client
	timeout   time.Duration
}

func NewKhaltiVerifier(baseURL, secretKey string, timeout time.Duration) *KhaltiVerifier {
	if baseURL == "" {
		baseURL = DefaultKhaltiAPI
	}
	if timeout <= 0 {
		timeout = DefaultVerifyTimeout
	}
	return &KhaltiVerifier{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		client:    &http.Client{},
		timeout:   timeout,
	}
}

// Verify returns true on 2xx, false on 4xx (Khalti rejected the token or amount)
// and ErrUnreachable for anything else.
func (k *KhaltiVerifier) Verify(ctx context.Context, token string, amount domain.Money) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	body, err := json.Marshal(VerifyRequest{Token: token, Amount: amount.Minor()})
	if err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.baseURL+"/payment/verify/", bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+k.secretKey)

	resp, err := k.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return false, nil
	default:
		return false, fmt.Errorf("%w: khalti status %d", ErrUnreachable, resp.StatusCode)
	}
}
