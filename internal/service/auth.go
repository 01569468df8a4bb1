// Package service provides the business logic behind the app screens:
// the local sign-in simulation, crop scans and the home dashboard. It
// delegates persistence and remote calls to small interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/atinyakov/AgriVision/internal/locale"
	"github.com/atinyakov/AgriVision/internal/models"
	"go.uber.org/zap"
)

// MinNameLength is the number of characters a registration name must exceed.
const MinNameLength = 6

var (
	// ErrNameTooShort is returned when a registration name is too short.
	ErrNameTooShort = errors.New("name must be longer than 6 characters")
	// ErrPhoneInvalid is returned when a phone number is not 10 digits.
	ErrPhoneInvalid = errors.New("phone number must be 10 digits")
	// ErrUserExists is returned when registering a phone that is taken.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned when logging in with an unknown phone.
	ErrUserNotFound = errors.New("user not found")
	// ErrOTPInvalid is returned when the entered code does not match.
	ErrOTPInvalid = errors.New("invalid otp")
	// ErrRegistrationFailed is returned when the directory refuses a new user.
	ErrRegistrationFailed = errors.New("registration failed")
	// ErrInvalidMode is returned for an unknown sign-in mode.
	ErrInvalidMode = errors.New("invalid auth mode")
)

var phonePattern = regexp.MustCompile(`^\d{10}$`)

// Mode selects between signing in and creating a profile.
type Mode string

const (
	ModeLogin    Mode = "login"
	ModeRegister Mode = "register"
)

// Challenge is a pending sign-in waiting for its one-time code. Code is
// handed back to the caller, which plays the part of the SMS.
type Challenge struct {
	Mode  Mode   `json:"mode"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// UserDirectory defines the user lookups required by the AuthService.
type UserDirectory interface {
	// FindUserByPhone returns the profile registered under phone.
	FindUserByPhone(ctx context.Context, phone string) (models.UserProfile, bool)
	// RegisterNewUser adds user, returning false if the phone is taken.
	RegisterNewUser(ctx context.Context, user models.UserProfile) (bool, error)
}

// AuthService simulates phone sign-in with a locally generated code.
// It is not a security mechanism: the code is returned to the caller.
type AuthService struct {
	users UserDirectory
	code  func() string
	log   *zap.Logger
}

// NewAuthService constructs an AuthService over the given directory.
func NewAuthService(users UserDirectory, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{users: users, code: randomCode, log: log}
}

// randomCode returns a 4-digit code in [1000, 9999].
func randomCode() string {
	return strconv.Itoa(1000 + rand.IntN(9000))
}

// Begin validates the form for mode and issues a one-time code.
// Register needs a name longer than MinNameLength and an unused phone;
// login needs a registered phone.
func (s *AuthService) Begin(ctx context.Context, mode Mode, name, phone string) (Challenge, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)

	switch mode {
	case ModeRegister:
		if utf8.RuneCountInString(name) <= MinNameLength {
			return Challenge{}, ErrNameTooShort
		}
	case ModeLogin:
	default:
		return Challenge{}, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	if !phonePattern.MatchString(phone) {
		return Challenge{}, ErrPhoneInvalid
	}

	_, exists := s.users.FindUserByPhone(ctx, phone)
	if mode == ModeRegister && exists {
		return Challenge{}, ErrUserExists
	}
	if mode == ModeLogin && !exists {
		return Challenge{}, ErrUserNotFound
	}

	ch := Challenge{Mode: mode, Phone: phone, Code: s.code()}
	if mode == ModeRegister {
		ch.Name = name
	}
	s.log.Info("otp issued", zap.String("mode", string(mode)), zap.String("phone", phone))
	return ch, nil
}

// Verify checks code against ch and returns the signed-in profile. A new
// profile is registered with lang; an existing one has its language
// replaced by lang, which is the language currently selected.
func (s *AuthService) Verify(ctx context.Context, ch Challenge, code string, lang locale.Code) (models.UserProfile, error) {
	if ch.Code == "" || strings.TrimSpace(code) != ch.Code {
		return models.UserProfile{}, ErrOTPInvalid
	}

	switch ch.Mode {
	case ModeRegister:
		user := models.UserProfile{Name: ch.Name, Phone: ch.Phone, Language: lang}
		ok, err := s.users.RegisterNewUser(ctx, user)
		if err != nil {
			return models.UserProfile{}, fmt.Errorf("register user: %w", err)
		}
		if !ok {
			return models.UserProfile{}, ErrRegistrationFailed
		}
		return user, nil
	case ModeLogin:
		user, ok := s.users.FindUserByPhone(ctx, ch.Phone)
		if !ok {
			return models.UserProfile{}, ErrUserNotFound
		}
		user.Language = lang
		return user, nil
	default:
		return models.UserProfile{}, fmt.Errorf("%w: %q", ErrInvalidMode, ch.Mode)
	}
}
