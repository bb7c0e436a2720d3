package handlers

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"

	"triproom/internal/config"
	"triproom/internal/security"
)

const (
	oauthCookieTTL = 10 * time.Minute
	appleIssuer    = "https://appleid.apple.com"
	appleKeysURL   = "https://appleid.apple.com/auth/keys"
)

// OAuthProvider defines provider configuration and metadata
type OAuthProvider struct {
	Name        string
	Label       string
	Config      *oauth2.Config
	UserInfoURL string
	AuthParams  map[string]string
}

func (p OAuthProvider) configured() bool {
	return p.Config != nil && p.Config.ClientID != "" && p.Config.ClientSecret != ""
}

// OAuthProviderView is a configured provider as listed to clients
type OAuthProviderView struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

type oauthUserInfo struct {
	Subject string
	Email   string
	Name    string
}

// NewOAuthProviders builds the Google, Facebook and Apple providers from
// cfg. Providers without credentials are kept but never offered.
func NewOAuthProviders(cfg *config.Config) map[string]OAuthProvider {
	return map[string]OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
		"facebook": {
			Name:  "facebook",
			Label: "Facebook",
			Config: &oauth2.Config{
				ClientID:     cfg.FacebookClientID,
				ClientSecret: cfg.FacebookClientSecret,
				Endpoint:     facebook.Endpoint,
				Scopes:       []string{"email", "public_profile"},
			},
			UserInfoURL: "https://graph.facebook.com/me?fields=id,name,email",
		},
		"apple": {
			Name:  "apple",
			Label: "Apple",
			Config: &oauth2.Config{
				ClientID:     cfg.AppleClientID,
				ClientSecret: cfg.AppleClientSecret,
				Endpoint: oauth2.Endpoint{
					AuthURL:  "https://appleid.apple.com/auth/authorize",
					TokenURL: "https://appleid.apple.com/auth/token",
				},
				Scopes: []string{"name", "email"},
			},
			AuthParams: map[string]string{
				"response_mode": "query",
			},
		},
	}
}

// OAuthProviders lists the providers a client can start a login with
func (h *AuthHandler) OAuthProviders(w http.ResponseWriter, r *http.Request) {
	views := []OAuthProviderView{}
	for key, provider := range h.oauthProviders {
		if !provider.configured() {
			continue
		}
		views = append(views, OAuthProviderView{
			Name:  key,
			Label: provider.Label,
			URL:   fmt.Sprintf("/auth/%s/start", key),
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })
	respondWithJSON(w, http.StatusOK, views)
}

func (h *AuthHandler) provider(w http.ResponseWriter, r *http.Request) (string, OAuthProvider, bool) {
	key := r.PathValue("provider")
	provider, ok := h.oauthProviders[key]
	if !ok || !provider.configured() {
		respondWithError(w, http.StatusNotFound, "OAuth provider not configured", "", nil)
		return "", OAuthProvider{}, false
	}
	return key, provider, true
}

// StartOAuth initiates the OAuth flow for a provider
func (h *AuthHandler) StartOAuth(w http.ResponseWriter, r *http.Request) {
	key, provider, ok := h.provider(w, r)
	if !ok {
		return
	}

	state := security.GenerateSessionID()
	nonce := security.GenerateSessionID()

	setTempCookie(w, r, "oauth_state", state)
	setTempCookie(w, r, "oauth_provider", key)
	setTempCookie(w, r, "oauth_nonce", nonce)

	oauthConfig := *provider.Config
	oauthConfig.RedirectURL = h.oauthRedirectURL(r, key)

	options := []oauth2.AuthCodeOption{oauth2.AccessTypeOnline}
	for name, value := range provider.AuthParams {
		options = append(options, oauth2.SetAuthURLParam(name, value))
	}
	if key == "apple" {
		options = append(options, oauth2.SetAuthURLParam("nonce", nonce))
	}

	http.Redirect(w, r, oauthConfig.AuthCodeURL(state, options...), http.StatusFound)
}

// OAuthCallback handles the OAuth provider callback
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	key, provider, ok := h.provider(w, r)
	if !ok {
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		respondWithError(w, http.StatusBadRequest, "Missing authorization code", "", nil)
		return
	}
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		respondWithError(w, http.StatusBadRequest, "Invalid OAuth state", "", nil)
		return
	}
	if providerCookie, err := r.Cookie("oauth_provider"); err == nil && providerCookie.Value != key {
		respondWithError(w, http.StatusBadRequest, "OAuth provider mismatch", "", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	oauthConfig := *provider.Config
	oauthConfig.RedirectURL = h.oauthRedirectURL(r, key)

	token, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to exchange OAuth code", "OAuth code exchange failed", err)
		return
	}

	userInfo, err := fetchOAuthUserInfo(ctx, key, provider, token, r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to read OAuth profile", "OAuth profile lookup failed", err)
		return
	}

	clearTempCookie(w, r, "oauth_state")
	clearTempCookie(w, r, "oauth_provider")
	clearTempCookie(w, r, "oauth_nonce")

	session, _, err := h.authService.OAuthLogin(r.Context(), key, userInfo.Subject, userInfo.Email, userInfo.Name)
	if err != nil {
		respondWithServiceError(w, "OAuth login failed", err)
		return
	}

	slog.Info("OAuth login", "provider", key)
	http.SetCookie(w, security.CreateSessionCookie(r, session.ID, session.ExpiresAt))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func fetchOAuthUserInfo(ctx context.Context, key string, provider OAuthProvider, token *oauth2.Token, r *http.Request) (oauthUserInfo, error) {
	switch key {
	case "google", "facebook":
		return fetchProfile(ctx, provider, token)
	case "apple":
		return fetchAppleUser(ctx, provider, token, r)
	default:
		return oauthUserInfo{}, errors.New("unsupported OAuth provider")
	}
}

// fetchProfile reads the Google or Facebook profile endpoint; both return
// id, email and name at the top level.
func fetchProfile(ctx context.Context, provider OAuthProvider, token *oauth2.Token) (oauthUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	resp, err := client.Get(provider.UserInfoURL)
	if err != nil {
		return oauthUserInfo{}, fmt.Errorf("failed to fetch %s user info: %w", provider.Label, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return oauthUserInfo{}, fmt.Errorf("failed to fetch %s user info: status %d", provider.Label, resp.StatusCode)
	}

	var payload struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return oauthUserInfo{}, fmt.Errorf("failed to parse %s user info: %w", provider.Label, err)
	}
	return oauthUserInfo{Subject: payload.ID, Email: payload.Email, Name: payload.Name}, nil
}

func fetchAppleUser(ctx context.Context, provider OAuthProvider, token *oauth2.Token, r *http.Request) (oauthUserInfo, error) {
	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return oauthUserInfo{}, errors.New("missing Apple id_token")
	}

	nonce := ""
	if cookie, err := r.Cookie("oauth_nonce"); err == nil {
		nonce = cookie.Value
	}

	claims, err := parseAppleIDToken(idToken, provider.Config.ClientID, nonce, func(kid string) (*rsa.PublicKey, error) {
		return fetchApplePublicKey(ctx, kid)
	})
	if err != nil {
		return oauthUserInfo{}, err
	}
	return oauthUserInfo{Subject: claims.Subject, Email: claims.Email}, nil
}

func (h *AuthHandler) oauthRedirectURL(r *http.Request, key string) string {
	baseURL := strings.TrimSpace(h.oauthRedirectBaseURL)
	if baseURL == "" {
		scheme := "http"
		if security.IsSecureRequest(r) {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s", scheme, r.Host)
	}
	return fmt.Sprintf("%s/auth/%s/callback", strings.TrimRight(baseURL, "/"), key)
}

func setTempCookie(w http.ResponseWriter, r *http.Request, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   security.IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(oauthCookieTTL),
		MaxAge:   int(oauthCookieTTL.Seconds()),
	})
}

func clearTempCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, security.CreateDeleteCookie(r, name))
}

type appleTokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Nonce string `json:"nonce"`
}

type appleJWKKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// parseAppleIDToken verifies an Apple ID token's RS256 signature, issuer,
// audience and nonce. keyFor resolves the signing key by key id.
func parseAppleIDToken(idToken, clientID, nonce string, keyFor func(kid string) (*rsa.PublicKey, error)) (*appleTokenClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(appleIssuer),
		jwt.WithAudience(clientID),
	)
	claims := &appleTokenClaims{}

	_, err := parser.ParseWithClaims(idToken, claims, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing key id")
		}
		return keyFor(kid)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid Apple token: %w", err)
	}

	if nonce != "" && claims.Nonce != "" && claims.Nonce != nonce {
		return nil, errors.New("invalid Apple nonce")
	}
	if claims.Email == "" {
		return nil, errors.New("Apple email not available")
	}
	return claims, nil
}

func fetchApplePublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, appleKeysURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("failed to fetch Apple public keys")
	}

	var jwks struct {
		Keys []appleJWKKey `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, err
	}

	idx := slices.IndexFunc(jwks.Keys, func(k appleJWKKey) bool { return k.Kid == kid })
	if idx < 0 {
		return nil, errors.New("Apple public key not found")
	}
	return rsaKeyFromJWK(jwks.Keys[idx])
}

func rsaKeyFromJWK(key appleJWKKey) (*rsa.PublicKey, error) {
	if key.Kty != "RSA" {
		return nil, errors.New("unexpected key type")
	}
	modulus, err := base64.RawURLEncoding.DecodeString(key.N)
	if err != nil {
		return nil, err
	}
	exponentBytes, err := base64.RawURLEncoding.DecodeString(key.E)
	if err != nil {
		return nil, err
	}
	exponent := 0
	for _, b := range exponentBytes {
		exponent = exponent*256 + int(b)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(modulus), E: exponent}, nil
}
