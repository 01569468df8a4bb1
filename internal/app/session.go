// Package app implements the view-state machine that drives every
// presentation shell. All session state lives in an explicit Session value
// owned by a Controller; the Local Store is the only durable copy.
package app

import (
	"errors"
	"slices"

	"github.com/atinyakov/AgriVision/internal/locale"
	"github.com/atinyakov/AgriVision/internal/models"
)

var (
	// ErrInvalidTransition is returned when an action is not allowed in the
	// current view.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrBusy is returned when an analysis is already in flight.
	ErrBusy = errors.New("analysis already in progress")
	// ErrNoChallenge is returned when a code is verified before one was
	// requested.
	ErrNoChallenge = errors.New("no otp requested")
	// ErrNameEmpty is returned when a profile update clears the name.
	ErrNameEmpty = errors.New("name must not be empty")
)

// View is a screen of the app.
type View string

const (
	ViewLanguage View = "language"
	ViewAuth     View = "auth"
	ViewHome     View = "home"
	ViewDetect   View = "detect"
	ViewProfit   View = "profit"
	ViewHistory  View = "history"
	ViewSettings View = "settings"
)

// ParseView returns the View named s.
func ParseView(s string) (View, bool) {
	switch v := View(s); v {
	case ViewLanguage, ViewAuth, ViewHome, ViewDetect, ViewProfit, ViewHistory, ViewSettings:
		return v, true
	}
	return "", false
}

// navBar holds the views that show the bottom navigation bar.
var navBar = map[View]bool{ViewHome: true, ViewProfit: true, ViewHistory: true}

// subViews are reachable from home and return to it with Back.
var subViews = map[View]bool{ViewDetect: true, ViewProfit: true, ViewHistory: true, ViewSettings: true}

// canNavigate reports whether the screen may move from one view to another.
func canNavigate(from, to View) bool {
	switch {
	case from == ViewHome:
		return subViews[to] || to == ViewHome
	case navBar[from]:
		return navBar[to]
	default:
		return false
	}
}

// Outcome is how a diagnosis is presented.
type Outcome string

const (
	OutcomeUnrecognized Outcome = "unrecognized"
	OutcomeHealthy      Outcome = "healthy"
	OutcomeDiseased     Outcome = "diseased"
)

// OutcomeFor routes a diagnosis to its presentation. A healthy plant is
// shown as healthy whatever severity the model reported.
func OutcomeFor(r models.DiseaseResult) Outcome {
	switch {
	case !r.IsPlant:
		return OutcomeUnrecognized
	case r.IsHealthy:
		return OutcomeHealthy
	default:
		return OutcomeDiseased
	}
}

// Session is the state of one app instance. Values returned by
// Controller.State are snapshots.
type Session struct {
	View     View                `json:"view"`
	Language locale.Code         `json:"language"`
	User     *models.UserProfile `json:"user,omitempty"`
	// AwaitingOTP is set between RequestOTP and a successful VerifyOTP.
	AwaitingOTP bool `json:"awaitingOtp"`
	// Loading is set while an analysis is in flight.
	Loading bool                      `json:"loading"`
	Result  *models.DiseaseResult     `json:"result,omitempty"`
	Outcome Outcome                   `json:"outcome,omitempty"`
	Profit  *models.ProfitCalculation `json:"profit,omitempty"`
}

func (s Session) clone() Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	if s.Result != nil {
		r := *s.Result
		r.Causes = slices.Clone(r.Causes)
		r.OrganicTreatment = slices.Clone(r.OrganicTreatment)
		r.ChemicalTreatment = slices.Clone(r.ChemicalTreatment)
		r.Prevention = slices.Clone(r.Prevention)
		s.Result = &r
	}
	if s.Profit != nil {
		p := *s.Profit
		s.Profit = &p
	}
	return s
}
