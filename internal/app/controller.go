package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/atinyakov/AgriVision/internal/locale"
	"github.com/atinyakov/AgriVision/internal/models"
	"github.com/atinyakov/AgriVision/internal/profit"
	"github.com/atinyakov/AgriVision/internal/service"
	"go.uber.org/zap"
)

// SessionStore persists the signed-in user.
type SessionStore interface {
	GetUser(ctx context.Context) (models.UserProfile, bool)
	SaveUser(ctx context.Context, user models.UserProfile) error
	UpdateUser(ctx context.Context, user models.UserProfile) error
	LogoutUser(ctx context.Context) error
}

// Authenticator runs the sign-in simulation.
type Authenticator interface {
	Begin(ctx context.Context, mode service.Mode, name, phone string) (service.Challenge, error)
	Verify(ctx context.Context, ch service.Challenge, code string, lang locale.Code) (models.UserProfile, error)
}

// Scanner diagnoses images and lists past scans.
type Scanner interface {
	Scan(ctx context.Context, image []byte, mimeType string, lang locale.Code) (models.DiseaseResult, error)
	History(ctx context.Context) []models.ScanRecord
}

// Dashboarder builds the home screen.
type Dashboarder interface {
	Home(ctx context.Context, lang locale.Code) service.Dashboard
}

// Controller owns a Session and applies user actions to it. It is safe for
// concurrent use; analysis runs outside the lock guarded by Session.Loading.
type Controller struct {
	mu        sync.Mutex
	s         Session
	challenge *service.Challenge

	store SessionStore
	auth  Authenticator
	scans Scanner
	home  Dashboarder
	log   *zap.Logger
}

// New returns a Controller. A stored session user resumes at home in the
// user's language; otherwise the app starts at language selection.
func New(ctx context.Context, store SessionStore, auth Authenticator, scans Scanner, home Dashboarder, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{
		s:     Session{View: ViewLanguage, Language: locale.English},
		store: store,
		auth:  auth,
		scans: scans,
		home:  home,
		log:   log,
	}
	if user, ok := store.GetUser(ctx); ok {
		c.s.User = &user
		c.s.View = ViewHome
		if user.Language.Supported() {
			c.s.Language = user.Language
		}
		log.Info("resumed session", zap.String("phone", user.Phone))
	}
	return c
}

// State returns a snapshot of the session.
func (c *Controller) State() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s.clone()
}

// SelectLanguage picks the app language and moves to sign-in.
func (c *Controller) SelectLanguage(code locale.Code) error {
	if !code.Supported() {
		return fmt.Errorf("%w: %q", locale.ErrUnsupported, code)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s.View != ViewLanguage {
		return ErrInvalidTransition
	}
	c.s.Language = code
	c.s.View = ViewAuth
	return nil
}

// RequestOTP starts a sign-in and returns the challenge whose code plays
// the part of the SMS. A new request replaces any pending one.
func (c *Controller) RequestOTP(ctx context.Context, mode service.Mode, name, phone string) (service.Challenge, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s.View != ViewAuth {
		return service.Challenge{}, ErrInvalidTransition
	}

	ch, err := c.auth.Begin(ctx, mode, name, phone)
	if err != nil {
		return service.Challenge{}, err
	}
	c.challenge = &ch
	c.s.AwaitingOTP = true
	return ch, nil
}

// VerifyOTP checks code against the pending challenge. On success the user
// becomes the session user and the app moves home.
func (c *Controller) VerifyOTP(ctx context.Context, code string) (models.UserProfile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s.View != ViewAuth {
		return models.UserProfile{}, ErrInvalidTransition
	}
	if c.challenge == nil {
		return models.UserProfile{}, ErrNoChallenge
	}

	user, err := c.auth.Verify(ctx, *c.challenge, code, c.s.Language)
	if err != nil {
		return models.UserProfile{}, err
	}
	if err := c.store.SaveUser(ctx, user); err != nil {
		return models.UserProfile{}, fmt.Errorf("save session: %w", err)
	}

	c.challenge = nil
	c.s.AwaitingOTP = false
	c.s.User = &user
	c.s.View = ViewHome
	c.log.Info("signed in", zap.String("phone", user.Phone))
	return user, nil
}

// Navigate moves between the signed-in screens. Home reaches every screen;
// the screens on the navigation bar reach each other.
func (c *Controller) Navigate(to View) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s.User == nil || !canNavigate(c.s.View, to) {
		return ErrInvalidTransition
	}
	c.enter(to)
	return nil
}

// Back returns from a screen to home.
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s.User == nil || !subViews[c.s.View] {
		return ErrInvalidTransition
	}
	c.enter(ViewHome)
	return nil
}

// enter switches view, dropping screen-local results.
func (c *Controller) enter(v View) {
	if v != c.s.View {
		c.s.Result = nil
		c.s.Outcome = ""
		c.s.Profit = nil
	}
	c.s.View = v
}

// Home returns the home dashboard.
func (c *Controller) Home(ctx context.Context) (service.Dashboard, error) {
	c.mu.Lock()
	if c.s.View != ViewHome {
		c.mu.Unlock()
		return service.Dashboard{}, ErrInvalidTransition
	}
	lang := c.s.Language
	c.mu.Unlock()

	return c.home.Home(ctx, lang), nil
}

// Analyze diagnoses image on the detect screen. Only one analysis may be in
// flight; a second call fails with ErrBusy until the first returns.
func (c *Controller) Analyze(ctx context.Context, image []byte, mimeType string) (models.DiseaseResult, Outcome, error) {
	c.mu.Lock()
	if c.s.View != ViewDetect {
		c.mu.Unlock()
		return models.DiseaseResult{}, "", ErrInvalidTransition
	}
	if c.s.Loading {
		c.mu.Unlock()
		return models.DiseaseResult{}, "", ErrBusy
	}
	c.s.Loading = true
	c.s.Result = nil
	c.s.Outcome = ""
	lang := c.s.Language
	c.mu.Unlock()

	result, err := c.scans.Scan(ctx, image, mimeType, lang)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.Loading = false
	if err != nil {
		return models.DiseaseResult{}, "", err
	}
	outcome := OutcomeFor(result)
	if c.s.View == ViewDetect {
		c.s.Result = &result
		c.s.Outcome = outcome
	}
	return result, outcome, nil
}

// Calculate runs the profit calculator on the profit screen.
func (c *Controller) Calculate(investment, revenue string) (models.ProfitCalculation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s.View != ViewProfit {
		return models.ProfitCalculation{}, ErrInvalidTransition
	}
	p := profit.ParseAndCalculate(investment, revenue)
	c.s.Profit = &p
	return p, nil
}

// History lists past scans on the history screen.
func (c *Controller) History(ctx context.Context) ([]models.ScanRecord, error) {
	c.mu.Lock()
	if c.s.View != ViewHistory {
		c.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	c.mu.Unlock()
	return c.scans.History(ctx), nil
}

// UpdateProfile changes the session user's name and/or language on the
// settings screen. Nil arguments are left unchanged. The change is written
// through to the store before the session is updated.
func (c *Controller) UpdateProfile(ctx context.Context, name *string, lang *locale.Code) (models.UserProfile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s.View != ViewSettings || c.s.User == nil {
		return models.UserProfile{}, ErrInvalidTransition
	}

	user := *c.s.User
	if name != nil {
		n := strings.TrimSpace(*name)
		if n == "" {
			return models.UserProfile{}, ErrNameEmpty
		}
		user.Name = n
	}
	if lang != nil {
		if !lang.Supported() {
			return models.UserProfile{}, fmt.Errorf("%w: %q", locale.ErrUnsupported, *lang)
		}
		user.Language = *lang
	}

	if err := c.store.UpdateUser(ctx, user); err != nil {
		return models.UserProfile{}, fmt.Errorf("update profile: %w", err)
	}
	c.s.User = &user
	c.s.Language = user.Language
	return user, nil
}

// Logout clears the session user and returns to language selection. The
// user stays in the directory.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s.User == nil {
		return ErrInvalidTransition
	}
	if err := c.store.LogoutUser(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	c.log.Info("signed out", zap.String("phone", c.s.User.Phone))
	c.s = Session{View: ViewLanguage, Language: c.s.Language}
	c.challenge = nil
	return nil
}

// ShareText formats a diagnosis for sharing.
func ShareText(r models.DiseaseResult) string {
	return fmt.Sprintf("AgriVision AI Diagnosis\n\n🌱 Plant: %s\n🩺 Condition: %s\n⚠️ Severity: %s\n\nCheck this out!",
		r.CropName, r.DiseaseName, r.Severity)
}
