package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/bugtracker/internal/apperror"
	"github.com/sakif/bugtracker/internal/auth"
	"github.com/sakif/bugtracker/internal/model"
	"github.com/sakif/bugtracker/internal/service"
)

// AuthHandler exposes registration and session management over HTTP.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister       → create an account
//   - HandleLogin          → verify credentials, issue JWT cookie
//   - HandleLogout         → clear the JWT cookie
//   - HandleMe             → return the logged-in user's profile
//   - HandleChangePassword → rotate the caller's own password
//   - HandleListUsers      → list all accounts
//   - HandleDeleteUser     → admin-only hard delete (backend permitting)
type AuthHandler struct {
	svc    *service.AuthService
	tokens *auth.TokenService
	logger *slog.Logger
}

func NewAuthHandler(svc *service.AuthService, tokens *auth.TokenService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, tokens: tokens, logger: logger}
}

// Session rebuilds the caller's session from the authenticated user ID
// the middleware put in the request context. BugHandler borrows it too.
//
// WHY REBUILD PER REQUEST?
// The token is the only state the client holds. Loading the user fresh
// on each request means a deactivated account or changed role takes
// effect immediately instead of living on inside a stale session.
func (h *AuthHandler) Session(r *http.Request) (*service.Session, error) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return nil, apperror.Unauthorized("not logged in")
	}
	user, err := h.svc.GetUser(r.Context(), userID)
	if err != nil {
		return nil, apperror.Unauthorized("not logged in")
	}
	if !user.Active {
		return nil, apperror.Unauthorized("account is deactivated")
	}
	return &service.Session{User: *user}, nil
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// HandleRegister creates a new account.
//
// HTTP: POST /api/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON"))
		return
	}

	role := model.RoleDeveloper
	if req.Role != "" {
		parsed, err := model.ParseRole(req.Role)
		if err != nil {
			writeError(w, err)
			return
		}
		role = parsed
	}

	user, err := h.svc.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     role,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	SessionID string     `json:"sessionId"`
	User      model.User `json:"user"`
	LoginAt   time.Time  `json:"loginAt"`
}

// HandleLogin verifies credentials and issues the JWT cookie.
//
// HTTP: POST /api/auth/login
//
// The token rides in an HttpOnly cookie: JavaScript cannot read it, so
// an XSS bug cannot exfiltrate it. SameSite=Lax keeps it off cross-site
// POSTs.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON"))
		return
	}

	session, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	tokenStr, err := h.tokens.Generate(session.User.ID)
	if err != nil {
		h.logger.Error("login: token generation failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    tokenStr,
		Path:     "/",
		MaxAge:   int((8 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		// Secure: true, // Enable in production (requires HTTPS)
	})

	writeJSON(w, http.StatusOK, loginResponse{
		SessionID: session.ID,
		User:      session.User,
		LoginAt:   session.LoginAt,
	})
}

// HandleLogout records the logout and clears the JWT cookie.
//
// HTTP: POST /api/auth/logout
//
// WHY POST AND NOT GET?
// Logout is a state-changing operation. GET would be vulnerable to CSRF
// and to browsers pre-fetching the URL.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if session, err := h.Session(r); err == nil {
		h.svc.Logout(r.Context(), session)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // tells the browser to delete the cookie immediately
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the currently authenticated user's profile.
//
// HTTP: GET /api/me
// Auth: Required
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	session, err := h.Session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.User)
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// HandleChangePassword rotates the caller's own password.
//
// HTTP: POST /api/auth/change-password
// Auth: Required
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	session, err := h.Session(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON"))
		return
	}

	if err := h.svc.ChangePassword(r.Context(), session, req.OldPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

// HandleListUsers returns all accounts.
//
// HTTP: GET /api/users
// Auth: Required
func (h *AuthHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleDeleteUser hard-deletes an account.
//
// HTTP: DELETE /api/users/{id}
// Auth: Required (admin)
func (h *AuthHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	session, err := h.Session(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id := r.PathValue("id")
	if err := h.svc.DeleteUser(r.Context(), session, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}
