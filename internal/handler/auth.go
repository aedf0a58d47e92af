package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rs/xid"
	"github.com/sakif/game-store/internal/auth"
	"github.com/sakif/game-store/internal/service"
)

// AuthHandler exposes registration, login, GitHub sign-in, and the /api/me
// profile endpoint.
//
// The handler owns only HTTP concerns — parsing bodies, picking status
// codes, setting cookies for the OAuth state. All rules (validation,
// hashing, token issuance) live in AuthService.
type AuthHandler struct {
	service *service.AuthService
	github  *auth.GitHubProvider // nil when GitHub sign-in isn't configured
	logger  *slog.Logger
}

// NewAuthHandler creates an AuthHandler. github may be nil; the server only
// registers the OAuth routes when a provider is configured.
func NewAuthHandler(svc *service.AuthService, github *auth.GitHubProvider, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service: svc,
		github:  github,
		logger:  logger,
	}
}

// credentialsRequest is the body of both POST /api/register and /api/login.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// registerResponse matches what the storefront expects from a successful
// registration.
type registerResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// tokenResponse is the login (and OAuth callback) success body.
type tokenResponse struct {
	Token string `json:"token"`
}

// HandleRegister creates a new account.
//
// HTTP: POST /api/register
// BODY: {"email": "...", "password": "..."}
//
// 201 with a session token on success, 400 for missing fields, 409 when the
// email is already registered.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid register JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "request body must be valid JSON",
		})
		return
	}

	result, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		Message: "user registered successfully",
		Token:   result.Token,
	})
}

// HandleLogin verifies credentials and returns a session token.
//
// HTTP: POST /api/login
// BODY: {"email": "...", "password": "..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid login JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "request body must be valid JSON",
		})
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: result.Token})
}

// HandleMe returns the authenticated user's profile projection.
//
// HTTP: GET /api/me (behind RequireAuth)
//
// The middleware has already validated the bearer token and stored the
// userID in the context; a 404 here means the token outlived its account.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return
	}

	profile, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// HandleGitHubLogin redirects the browser to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// A random state value goes into a short-lived HttpOnly cookie; the
// callback verifies it to block CSRF-initiated logins.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow and returns a session token.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// On success the response is the same {"token": ...} body a password login
// produces — the SPA treats both sign-in paths identically.
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("github callback: state mismatch or missing")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid OAuth state",
		})
		return
	}

	// The state is single-use — clear it regardless of outcome.
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("github callback: authorization denied", slog.String("error", errParam))
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "GitHub authorization was denied",
		})
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.logger.Error("github callback: exchange failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "GitHub sign-in failed",
		})
		return
	}

	result, err := h.service.LoginWithGitHub(r.Context(), ghUser)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: result.Token})
}
