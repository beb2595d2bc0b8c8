package handlers

import (
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"themesandbox/internal/middleware"
	"themesandbox/internal/session"
	"themesandbox/internal/store"
)

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	sessions  *session.Store
	userStore *store.UserStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(sessions *session.Store, userStore *store.UserStore) *Auth {
	return &Auth{
		sessions:  sessions,
		userStore: userStore,
	}
}

type loginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login validates credentials and opens a session. Shadow identities have
// no credentials and can never log in here.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeFieldErrors(w, fieldErrors(err))
		return
	}
	if err := validate.Struct(payload); err != nil {
		writeFieldErrors(w, fieldErrors(err))
		return
	}

	user, err := a.userStore.FindByEmail(payload.Email)
	if err != nil {
		internalError(w, "login lookup failed", err)
		return
	}

	if user == nil || user.Anonymous || !a.userStore.CheckPassword(user, payload.Password) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid email or password"})
		return
	}

	// TwoFADone starts as false — user must complete 2FA.
	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		TwoFADone:   false,
	})
	if err != nil {
		internalError(w, "session create failed", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"two_fa_required": true,
		"two_fa_enrolled": !user.Needs2FASetup(),
	})
}

// TwoFASetup generates a TOTP secret and returns the QR code.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil || sess.Anonymous {
		forbidden(w)
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "ThemeSandbox",
		AccountName: sess.Email,
	})
	if err != nil {
		internalError(w, "totp generate failed", err)
		return
	}

	if err := a.userStore.SetTOTPSecret(sess.UserID, key.Secret()); err != nil {
		internalError(w, "save totp secret failed", err)
		return
	}

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		internalError(w, "qr code generation failed", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"secret":  key.Secret(),
		"qr_code": base64.StdEncoding.EncodeToString(qrPNG),
	})
}

type twoFAPayload struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// TwoFAVerify validates the TOTP code and completes authentication.
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil || sess.Anonymous {
		forbidden(w)
		return
	}

	var payload twoFAPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeFieldErrors(w, fieldErrors(err))
		return
	}
	if err := validate.Struct(payload); err != nil {
		writeFieldErrors(w, fieldErrors(err))
		return
	}

	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil || user == nil {
		slog.Error("user lookup for 2fa failed", "error", err)
		internalError(w, "user lookup failed", err)
		return
	}

	if user.TOTPSecret == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "2fa not set up"})
		return
	}

	if !totp.Validate(payload.Code, *user.TOTPSecret) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid code"})
		return
	}

	// First-time setup: enable TOTP in the database.
	if !user.TOTPEnabled {
		if err := a.userStore.EnableTOTP(user.ID); err != nil {
			internalError(w, "enable totp failed", err)
			return
		}
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		internalError(w, "session update failed", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Error("session destroy failed", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
