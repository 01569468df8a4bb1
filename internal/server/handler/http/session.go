package http

import (
	"net/http"

	"github.com/atinyakov/AgriVision/internal/app"
	"github.com/atinyakov/AgriVision/internal/locale"
	"github.com/atinyakov/AgriVision/internal/middleware"
	"github.com/atinyakov/AgriVision/internal/service"
)

// State returns the current session snapshot.
func (h *AppHandler) State(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.App.State())
}

// Languages lists the selectable languages and the one suggested by the
// request's Accept-Language header.
func (h *AppHandler) Languages(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"languages": locale.All(),
		"suggested": middleware.GetLocaleFromContext(r.Context()),
	})
}

// LanguageRequest selects the app language. An empty Language picks the
// negotiated one.
type LanguageRequest struct {
	Language string `json:"language"`
}

// SelectLanguage handles the language screen.
func (h *AppHandler) SelectLanguage(w http.ResponseWriter, r *http.Request) {
	var req LanguageRequest
	if !decode(w, r, &req) {
		return
	}
	code := middleware.GetLocaleFromContext(r.Context())
	if req.Language != "" {
		c, err := locale.Parse(req.Language)
		if err != nil {
			h.fail(w, err)
			return
		}
		code = c
	}
	if err := h.App.SelectLanguage(code); err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.App.State())
}

// OTPRequest starts a sign-in.
type OTPRequest struct {
	Mode  service.Mode `json:"mode"`
	Name  string       `json:"name"`
	Phone string       `json:"phone"`
}

// RequestOTP issues a one-time code. The code is returned in the response,
// standing in for the SMS.
func (h *AppHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req OTPRequest
	if !decode(w, r, &req) {
		return
	}
	ch, err := h.App.RequestOTP(r.Context(), req.Mode, req.Name, req.Phone)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ch)
}

// VerifyRequest carries the code typed by the user.
type VerifyRequest struct {
	Code string `json:"code"`
}

// VerifyOTP completes the sign-in and returns the session user.
func (h *AppHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.App.VerifyOTP(r.Context(), req.Code)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// NavigateRequest names the target view.
type NavigateRequest struct {
	View string `json:"view"`
}

// Navigate switches screens.
func (h *AppHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if !decode(w, r, &req) {
		return
	}
	v, ok := app.ParseView(req.View)
	if !ok {
		http.Error(w, "unknown view", http.StatusBadRequest)
		return
	}
	if err := h.App.Navigate(v); err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.App.State())
}

// Back returns to home.
func (h *AppHandler) Back(w http.ResponseWriter, r *http.Request) {
	if err := h.App.Back(); err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.App.State())
}

// ProfileRequest updates the session user. Absent fields are unchanged.
type ProfileRequest struct {
	Name     *string `json:"name"`
	Language *string `json:"language"`
}

// UpdateProfile handles the settings screen.
func (h *AppHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if !decode(w, r, &req) {
		return
	}
	var lang *locale.Code
	if req.Language != nil {
		c, err := locale.Parse(*req.Language)
		if err != nil {
			h.fail(w, err)
			return
		}
		lang = &c
	}
	user, err := h.App.UpdateProfile(r.Context(), req.Name, lang)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// Logout ends the session.
func (h *AppHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.App.Logout(r.Context()); err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.App.State())
}
