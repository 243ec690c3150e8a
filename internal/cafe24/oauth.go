package cafe24

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	authScope        = "mall.read_order mall.read_product mall.read_store"
	authState        = "cafe24_auth"
	defaultExpiresIn = 3600
	expiryMargin     = 5 * time.Minute
)

// Token is the stored OAuth grant of the mall
type Token struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Fresh reports whether the access token stays valid for at least five more minutes
func (t Token) Fresh(now time.Time) bool {
	return t.AccessToken != "" && t.ExpiresAt.After(now.Add(expiryMargin))
}

type OAuthConfig struct {
	MallID       string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	// BaseURL defaults to the mall's API host
	BaseURL    string
	HTTPClient *http.Client
}

// OAuth runs the authorization-code and refresh grants against the mall
type OAuth struct {
	cfg        OAuthConfig
	httpClient *http.Client
	now        func() time.Time
}

func NewOAuth(cfg OAuthConfig) *OAuth {
	if cfg.BaseURL == "" {
		cfg.BaseURL = MallURL(cfg.MallID)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &OAuth{cfg: cfg, httpClient: hc, now: time.Now}
}

// AuthURL is where an admin is sent to grant read access to the mall
func (o *OAuth) AuthURL() string {
	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", o.cfg.ClientID)
	params.Set("redirect_uri", o.cfg.RedirectURI)
	params.Set("scope", authScope)
	params.Set("state", authState)
	return o.cfg.BaseURL + "/api/v2/oauth/authorize?" + params.Encode()
}

// ExchangeCode trades an authorization code for a token
func (o *OAuth) ExchangeCode(ctx context.Context, code string) (Token, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", o.cfg.RedirectURI)

	tok, err := o.requestToken(ctx, form)
	if err != nil {
		return Token{}, fmt.Errorf("exchange code: %w", err)
	}
	return tok, nil
}

// Refresh renews the access token. The old refresh token is kept when the
// response does not rotate it.
func (o *OAuth) Refresh(ctx context.Context, refreshToken string) (Token, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	tok, err := o.requestToken(ctx, form)
	if err != nil {
		return Token{}, fmt.Errorf("refresh token: %w", err)
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}
	return tok, nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

func (o *OAuth) requestToken(ctx context.Context, form url.Values) (Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+"/api/v2/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(o.cfg.ClientID, o.cfg.ClientSecret)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return Token{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Token{}, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return Token{}, fmt.Errorf("decode token: %w", err)
	}
	if tr.AccessToken == "" {
		return Token{}, fmt.Errorf("token response without access_token")
	}

	expiresIn := tr.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}
	return Token{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    o.now().Add(time.Duration(expiresIn) * time.Second),
	}, nil
}
