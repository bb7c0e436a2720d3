package handlers

import (
	"errors"
	"net/http"
	"time"

	"triproom/internal/models"
	"triproom/internal/security"
	"triproom/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService          *service.AuthService
	csrf                 *security.CSRFGenerator
	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, csrf *security.CSRFGenerator, oauthProviders map[string]OAuthProvider, oauthRedirectBaseURL string) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		csrf:                 csrf,
		oauthProviders:       oauthProviders,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

type authResponse struct {
	User      *models.User `json:"user"`
	CSRFToken string       `json:"csrf_token,omitempty"`
}

// Signup creates an account and logs it in
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Name, req.Phone); err != nil {
		respondWithServiceError(w, "Failed to register user", err)
		return
	}

	session, user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Login after signup failed", err)
		return
	}
	h.startSession(w, r, http.StatusCreated, session, user)
}

// Login handles email and password login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		respondWithError(w, http.StatusUnauthorized, "Invalid email or password", "", nil)
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Login failed", err)
		return
	}
	h.startSession(w, r, http.StatusOK, session, user)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, status int, session *models.Session, user *models.User) {
	http.SetCookie(w, security.CreateSessionCookie(r, session.ID, session.ExpiresAt))
	respondWithJSON(w, status, authResponse{User: user, CSRFToken: h.csrfToken(session.ID)})
}

func (h *AuthHandler) csrfToken(sessionID string) string {
	if h.csrf == nil || sessionID == "" {
		return ""
	}
	token, err := h.csrf.GenerateToken(sessionID)
	if err != nil {
		return ""
	}
	return token
}

// Logout ends the cookie session, if any
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(security.SessionCookieName); err == nil {
		if err := h.authService.Logout(r.Context(), cookie.Value); err != nil {
			respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Logout failed", err)
			return
		}
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, security.SessionCookieName))
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// CheckEmail reports whether an email address is still free
func (h *AuthHandler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	available, err := h.authService.EmailAvailable(r.Context(), req.Email)
	if err != nil {
		respondWithServiceError(w, "Failed to check email", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"available": available})
}

// Me returns the acting user and, for cookie sessions, the CSRF token
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	respondWithJSON(w, http.StatusOK, authResponse{User: user, CSRFToken: h.csrfToken(GetSessionFromContext(r.Context()))})
}

// IssueToken returns a bearer token for API clients
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	token, expiresAt, err := h.authService.IssueToken(user)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to issue token", err)
		return
	}
	respondWithJSON(w, http.StatusOK, struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}{token, expiresAt})
}
