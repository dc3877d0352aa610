package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/domain"
)

// WalletProvider integrates the municipal citizen-wallet service. The
// wallet has no SDK; payment is a signed redirect URL the citizen opens
// in the wallet app, and the wallet calls our callback when the money
// moved. Refunds go over its small REST API.
type WalletProvider struct {
	baseURL    string
	apiKey     string
	signingKey []byte
	client     *http.Client
}

func NewWalletProvider(baseURL, apiKey, signingKey string) *WalletProvider {
	return &WalletProvider{
		baseURL:    baseURL,
		apiKey:     apiKey,
		signingKey: []byte(signingKey),
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *WalletProvider) CreateIntent(ctx context.Context, amountCents int64, description, correlationID string) (*Handle, error) {
	ref := "wal_" + uuid.NewString()

	q := url.Values{}
	q.Set("ref", ref)
	q.Set("amount", fmt.Sprintf("%d", amountCents))
	q.Set("booking", correlationID)
	q.Set("desc", description)
	q.Set("sig", p.Sign(ref, correlationID, amountCents))

	return &Handle{
		Method:    domain.MethodWallet,
		Reference: ref,
		URL:       p.baseURL + "/pay?" + q.Encode(),
	}, nil
}

func (p *WalletProvider) Refund(ctx context.Context, reference string, amountCents int64) error {
	body, err := json.Marshal(map[string]any{
		"reference":    reference,
		"amount_cents": amountCents,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/refunds", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.ExternalError("wallet refund failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return domain.ExternalError("wallet refund failed", fmt.Errorf("wallet returned %s", resp.Status))
	}
	return nil
}

// Sign computes the HMAC the wallet service expects on redirect URLs
// and sends back on its payment callbacks.
func (p *WalletProvider) Sign(reference, correlationID string, amountCents int64) string {
	mac := hmac.New(sha256.New, p.signingKey)
	fmt.Fprintf(mac, "%s|%s|%d", reference, correlationID, amountCents)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCallback checks the signature on a wallet payment callback.
func (p *WalletProvider) VerifyCallback(reference, correlationID string, amountCents int64, signature string) bool {
	expected := p.Sign(reference, correlationID, amountCents)
	return hmac.Equal([]byte(expected), []byte(signature))
}
