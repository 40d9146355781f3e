package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/session"
)

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var form model.RegisterForm
	if err := decodeJSON(w, r, &form); err != nil {
		h.writeError(w, err)
		return
	}
	if err := model.Validate(form); err != nil {
		h.writeError(w, err)
		return
	}
	user, err := s.Backend.Register(r.Context(), form)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

// handleLogin signs in, stores the credentials, then observes the new
// authentication so reconciliation runs before the response.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request, s *session.Session) {
	ctx := r.Context()
	var form model.LoginForm
	if err := decodeJSON(w, r, &form); err != nil {
		h.writeError(w, err)
		return
	}
	if err := model.Validate(form); err != nil {
		h.writeError(w, err)
		return
	}

	result, err := s.Backend.Login(ctx, form)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := s.Creds.Save(ctx, form.Email, form.Password, result.Token, result.User); err != nil {
		h.writeError(w, err)
		return
	}
	user := result.User
	if user == nil {
		// Older backends return only the token.
		if me, err := s.Backend.Me(ctx); err == nil {
			user = me
			if err := s.Creds.SetUser(ctx, me); err != nil {
				s.Logger.Warn("caching profile failed", "error", err)
			}
		} else {
			s.Logger.Warn("loading profile after login failed", "error", err)
		}
	}
	s.Logger.Info("signed in", "admin", user.Admin())

	s.Observe(ctx)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"user":  user,
		"state": s.Shop.Snapshot(),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request, s *session.Session) {
	if err := s.Logout(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "signed_out"})
}

// handleProfile refreshes the cached profile from the backend.
func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request, s *session.Session) {
	user, err := s.Backend.Me(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := s.Creds.SetUser(r.Context(), user); err != nil {
		s.Logger.Warn("caching profile failed", "error", err)
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var form model.ProfileForm
	if err := decodeJSON(w, r, &form); err != nil {
		h.writeError(w, err)
		return
	}
	if err := model.Validate(form); err != nil {
		h.writeError(w, err)
		return
	}
	user, err := s.Backend.UpdateMe(r.Context(), form)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := s.Creds.SetUser(r.Context(), user); err != nil {
		s.Logger.Warn("caching profile failed", "error", err)
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// handleChangePassword updates the password and the stored Basic pair, so
// later calls keep authenticating.
func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var form model.PasswordForm
	if err := decodeJSON(w, r, &form); err != nil {
		h.writeError(w, err)
		return
	}
	if err := model.Validate(form); err != nil {
		h.writeError(w, err)
		return
	}
	if err := s.Backend.ChangePassword(r.Context(), form); err != nil {
		h.writeError(w, err)
		return
	}
	if err := s.Creds.SetPassword(r.Context(), form.NewPassword); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "password_changed"})
}
