// Package http provides the loopback JSON API that a browser front-end on
// the same device uses to drive the app.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atinyakov/AgriVision/internal/analysis"
	"github.com/atinyakov/AgriVision/internal/app"
	"github.com/atinyakov/AgriVision/internal/locale"
	"github.com/atinyakov/AgriVision/internal/models"
	"github.com/atinyakov/AgriVision/internal/service"
	"go.uber.org/zap"
)

// Controller defines the app operations required by the HTTP handlers.
type Controller interface {
	State() app.Session
	SelectLanguage(code locale.Code) error
	RequestOTP(ctx context.Context, mode service.Mode, name, phone string) (service.Challenge, error)
	VerifyOTP(ctx context.Context, code string) (models.UserProfile, error)
	Navigate(to app.View) error
	Back() error
	Home(ctx context.Context) (service.Dashboard, error)
	Analyze(ctx context.Context, image []byte, mimeType string) (models.DiseaseResult, app.Outcome, error)
	Calculate(investment, revenue string) (models.ProfitCalculation, error)
	History(ctx context.Context) ([]models.ScanRecord, error)
	UpdateProfile(ctx context.Context, name *string, lang *locale.Code) (models.UserProfile, error)
	Logout(ctx context.Context) error
}

// AppHandler handles the local API requests.
type AppHandler struct {
	// App is the flow controller the requests are applied to.
	App Controller
	// Log records unexpected failures.
	Log *zap.Logger
}

// NewAppHandler returns an AppHandler for c.
func NewAppHandler(c Controller, log *zap.Logger) *AppHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AppHandler{App: c, Log: log}
}

// writeJSON encodes v before the status is written; an unencodable value
// is a 500.
func (h *AppHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		h.Log.Error("encode response", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// fail maps an operation error to a status code and message.
func (h *AppHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, app.ErrBusy):
		http.Error(w, err.Error(), http.StatusTooManyRequests)
	case errors.Is(err, service.ErrUserExists), errors.Is(err, service.ErrRegistrationFailed):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrUserNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrNameTooShort),
		errors.Is(err, service.ErrPhoneInvalid),
		errors.Is(err, service.ErrOTPInvalid),
		errors.Is(err, service.ErrInvalidMode),
		errors.Is(err, app.ErrNoChallenge),
		errors.Is(err, app.ErrNameEmpty),
		errors.Is(err, locale.ErrUnsupported):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, analysis.ErrAnalysisFailed):
		h.Log.Warn("analysis failed", zap.Error(err))
		http.Error(w, analysis.ErrAnalysisFailed.Error(), http.StatusBadGateway)
	default:
		h.Log.Error("request failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return false
	}
	return true
}
