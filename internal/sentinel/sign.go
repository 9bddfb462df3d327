package sentinel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/AgyeDark/galamsey-sentinel/internal/properties"
)

// DefaultSASEndpoint issues read tokens for Planetary Computer assets.
const DefaultSASEndpoint = "https://planetarycomputer.microsoft.com/api/sas/v1"

// sasRefreshMargin forces a new token this long before the old one expires.
const sasRefreshMargin = 5 * time.Minute

// AssetSigner turns an asset href into one the reader may actually fetch.
type AssetSigner interface {
	Sign(ctx context.Context, href string) (string, error)
}

type identitySigner struct{}

func (identitySigner) Sign(_ context.Context, href string) (string, error) {
	return href, nil
}

// IdentitySigner returns hrefs untouched, for catalogs whose assets are
// publicly readable.
func IdentitySigner() AssetSigner {
	return identitySigner{}
}

// SASSigner appends a shared access signature to asset hrefs. One token is
// fetched per collection and reused until shortly before expiry.
type SASSigner struct {
	endpoint   string
	collection string
	client     *http.Client

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func NewSASSigner(endpoint, collection string, client *http.Client) *SASSigner {
	if endpoint == "" {
		endpoint = DefaultSASEndpoint
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &SASSigner{
		endpoint:   endpoint,
		collection: collection,
		client:     client,
	}
}

func (s *SASSigner) Sign(ctx context.Context, href string) (string, error) {
	if !strings.HasPrefix(href, "http") || strings.Contains(href, "sig=") {
		return href, nil
	}
	token, err := s.currentToken(ctx)
	if err != nil {
		return "", err
	}
	if token == "" {
		return href, nil
	}
	sep := "?"
	if strings.Contains(href, "?") {
		sep = "&"
	}
	return href + sep + token, nil
}

func (s *SASSigner) currentToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" && time.Now().Before(s.expiry.Add(-sasRefreshMargin)) {
		return s.token, nil
	}

	url := fmt.Sprintf("%s/token/%s", s.endpoint, s.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request sas token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("sas token endpoint returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		Expiry string `json:"msft:expiry"`
		Token  string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode sas token: %w", err)
	}

	s.token = parsed.Token
	s.expiry = time.Now().Add(30 * time.Minute)
	if t, err := time.Parse(time.RFC3339, parsed.Expiry); err == nil {
		s.expiry = t
	}
	return s.token, nil
}

// NewAuthenticatedClient builds the HTTP client used against the catalog.
// With Copernicus client credentials configured it carries OAuth2 tokens,
// otherwise it is a plain client.
func NewAuthenticatedClient(ctx context.Context) *http.Client {
	id := properties.CopernicusClientID()
	secret := properties.CopernicusClientSecret()
	if id == "" || secret == "" {
		return &http.Client{Timeout: 60 * time.Second}
	}
	conf := &clientcredentials.Config{
		ClientID:     id,
		ClientSecret: secret,
		TokenURL:     properties.CopernicusTokenURL(),
	}
	return conf.Client(ctx)
}
