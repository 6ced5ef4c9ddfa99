package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const minterTokenLeeway = 30 * time.Second

// Minter is the opaque blockchain settlement capability. The engine never
// interprets settlement semantics beyond success plus a transaction hash.
type Minter interface {
	Mint(ctx context.Context, address string, amount int64) (string, error)
	GetBalance(ctx context.Context, address string) (int64, error)
}

// MinterClient talks to the external minter over HTTP with a cached bearer
// token. Injected into the token service; no package-level instance.
type MinterClient struct {
	baseURL string
	secret  string
	client  *http.Client

	mu          sync.RWMutex
	token       string
	tokenExpiry time.Time
}

// NewMinterClient constructs a minter client for the given base URL.
func NewMinterClient(baseURL, secret string) *MinterClient {
	return &MinterClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type minterAuthResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type mintRequest struct {
	Address string `json:"address"`
	Amount  int64  `json:"amount"`
}

type mintResponse struct {
	Success         bool   `json:"success"`
	TransactionHash string `json:"transaction_hash"`
	Error           string `json:"error,omitempty"`
}

type balanceResponse struct {
	Balance int64 `json:"balance"`
}

// Mint submits a settlement mint and returns the transaction hash.
func (m *MinterClient) Mint(ctx context.Context, address string, amount int64) (string, error) {
	var res mintResponse
	if err := m.do(ctx, http.MethodPost, "/mint", mintRequest{Address: address, Amount: amount}, &res); err != nil {
		return "", err
	}
	if !res.Success {
		return "", fmt.Errorf("minter rejected mint: %s", res.Error)
	}
	return res.TransactionHash, nil
}

// GetBalance reads the on-chain balance for an address.
func (m *MinterClient) GetBalance(ctx context.Context, address string) (int64, error) {
	var res balanceResponse
	if err := m.do(ctx, http.MethodGet, "/balance/"+address, nil, &res); err != nil {
		return 0, err
	}
	return res.Balance, nil
}

func (m *MinterClient) do(ctx context.Context, method, path string, body, out any) error {
	token, err := m.getToken(ctx, false)
	if err != nil {
		return err
	}

	status, raw, err := m.roundTrip(ctx, method, path, body, token)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized {
		if token, err = m.getToken(ctx, true); err != nil {
			return err
		}
		if status, raw, err = m.roundTrip(ctx, method, path, body, token); err != nil {
			return err
		}
	}

	if status < 200 || status >= 300 {
		return fmt.Errorf("minter %s %s: status %d: %s", method, path, status, truncate(string(raw), 256))
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (m *MinterClient) roundTrip(ctx context.Context, method, path string, body any, token string) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, raw, nil
}

func (m *MinterClient) getToken(ctx context.Context, force bool) (string, error) {
	if !force {
		m.mu.RLock()
		if m.token != "" && time.Now().Before(m.tokenExpiry.Add(-minterTokenLeeway)) {
			token := m.token
			m.mu.RUnlock()
			return token, nil
		}
		m.mu.RUnlock()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Check again in case another goroutine refreshed while we waited.
	if !force && m.token != "" && time.Now().Before(m.tokenExpiry.Add(-minterTokenLeeway)) {
		return m.token, nil
	}

	payload, err := json.Marshal(map[string]string{"secret": m.secret})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/auth/token", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("minter auth failed: status %d: %s", resp.StatusCode, truncate(string(raw), 256))
	}

	var auth minterAuthResponse
	if err := json.Unmarshal(raw, &auth); err != nil {
		return "", err
	}
	if auth.AccessToken == "" {
		return "", fmt.Errorf("minter auth returned empty token")
	}

	m.token = auth.AccessToken
	m.tokenExpiry = time.Now().Add(time.Duration(auth.ExpiresIn) * time.Second)
	return m.token, nil
}

// NoopMinter settles nothing and fabricates hashes. Used when no minter URL
// is configured (local development).
type NoopMinter struct{}

func (NoopMinter) Mint(_ context.Context, _ string, _ int64) (string, error) {
	return "0xnoop-" + uuid.NewString(), nil
}

func (NoopMinter) GetBalance(_ context.Context, _ string) (int64, error) {
	return 0, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
