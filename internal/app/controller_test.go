package app

import (
	"context"
	"errors"
	"testing"

	"github.com/atinyakov/AgriVision/internal/client/storage"
	"github.com/atinyakov/AgriVision/internal/kv"
	"github.com/atinyakov/AgriVision/internal/locale"
	"github.com/atinyakov/AgriVision/internal/models"
	"github.com/atinyakov/AgriVision/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeAuth struct {
	BeginFunc  func(ctx context.Context, mode service.Mode, name, phone string) (service.Challenge, error)
	VerifyFunc func(ctx context.Context, ch service.Challenge, code string, lang locale.Code) (models.UserProfile, error)
}

func (f *fakeAuth) Begin(ctx context.Context, mode service.Mode, name, phone string) (service.Challenge, error) {
	return f.BeginFunc(ctx, mode, name, phone)
}
func (f *fakeAuth) Verify(ctx context.Context, ch service.Challenge, code string, lang locale.Code) (models.UserProfile, error) {
	return f.VerifyFunc(ctx, ch, code, lang)
}

type fakeScanner struct {
	ScanFunc func(ctx context.Context, image []byte, mimeType string, lang locale.Code) (models.DiseaseResult, error)
	history  []models.ScanRecord
}

func (f *fakeScanner) Scan(ctx context.Context, image []byte, mimeType string, lang locale.Code) (models.DiseaseResult, error) {
	return f.ScanFunc(ctx, image, mimeType, lang)
}
func (f *fakeScanner) History(context.Context) []models.ScanRecord { return f.history }

type fakeHome struct{ lang locale.Code }

func (f *fakeHome) Home(_ context.Context, lang locale.Code) service.Dashboard {
	f.lang = lang
	return service.Dashboard{Tips: []models.WeatherTip{}}
}

var ramesh = models.UserProfile{Name: "Ramesh Kumar", Phone: "9876543210", Language: locale.Hindi}

// passingAuth accepts "1234" and signs in as the challenge's phone.
func passingAuth() *fakeAuth {
	return &fakeAuth{
		BeginFunc: func(_ context.Context, mode service.Mode, name, phone string) (service.Challenge, error) {
			return service.Challenge{Mode: mode, Name: name, Phone: phone, Code: "1234"}, nil
		},
		VerifyFunc: func(_ context.Context, ch service.Challenge, code string, lang locale.Code) (models.UserProfile, error) {
			if code != ch.Code {
				return models.UserProfile{}, service.ErrOTPInvalid
			}
			return models.UserProfile{Name: ch.Name, Phone: ch.Phone, Language: lang}, nil
		},
	}
}

type harness struct {
	c       *Controller
	store   *storage.LocalStorage
	scanner *fakeScanner
	home    *fakeHome
}

func newHarness(t *testing.T, signedIn bool) harness {
	t.Helper()
	ctx := context.Background()
	ls := storage.Open(ctx, kv.NewMemoryStore(), nil)
	if signedIn {
		require.NoError(t, ls.SaveUser(ctx, ramesh))
		_, err := ls.RegisterNewUser(ctx, ramesh)
		require.NoError(t, err)
	}
	h := harness{store: ls, scanner: &fakeScanner{}, home: &fakeHome{}}
	h.c = New(ctx, ls, passingAuth(), h.scanner, h.home, nil)
	return h
}

func TestNew_StartView(t *testing.T) {
	fresh := newHarness(t, false).c.State()
	assert.Equal(t, ViewLanguage, fresh.View)
	assert.Equal(t, locale.English, fresh.Language)
	assert.Nil(t, fresh.User)

	resumed := newHarness(t, true).c.State()
	assert.Equal(t, ViewHome, resumed.View)
	assert.Equal(t, locale.Hindi, resumed.Language)
	require.NotNil(t, resumed.User)
	assert.Equal(t, ramesh, *resumed.User)
}

func TestSignInFlow(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, false)
	c := h.c

	_, err := c.RequestOTP(ctx, service.ModeRegister, "Lakshmi Devi", "1234567890")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.ErrorIs(t, c.SelectLanguage("xx"), locale.ErrUnsupported)
	require.NoError(t, c.SelectLanguage(locale.Telugu))
	assert.Equal(t, ViewAuth, c.State().View)
	assert.ErrorIs(t, c.SelectLanguage(locale.Hindi), ErrInvalidTransition)

	_, err = c.VerifyOTP(ctx, "1234")
	assert.ErrorIs(t, err, ErrNoChallenge)

	ch, err := c.RequestOTP(ctx, service.ModeRegister, "Lakshmi Devi", "1234567890")
	require.NoError(t, err)
	assert.Equal(t, "1234", ch.Code)
	assert.True(t, c.State().AwaitingOTP)

	_, err = c.VerifyOTP(ctx, "9999")
	assert.ErrorIs(t, err, service.ErrOTPInvalid)
	assert.Equal(t, ViewAuth, c.State().View)

	user, err := c.VerifyOTP(ctx, "1234")
	require.NoError(t, err)
	assert.Equal(t, locale.Telugu, user.Language)

	st := c.State()
	assert.Equal(t, ViewHome, st.View)
	assert.False(t, st.AwaitingOTP)
	stored, ok := h.store.GetUser(ctx)
	require.True(t, ok)
	assert.Equal(t, user, stored)
}

func TestRequestOTP_ValidationError(t *testing.T) {
	h := newHarness(t, false)
	h.c.auth = &fakeAuth{BeginFunc: func(context.Context, service.Mode, string, string) (service.Challenge, error) {
		return service.Challenge{}, service.ErrPhoneInvalid
	}}
	require.NoError(t, h.c.SelectLanguage(locale.English))

	_, err := h.c.RequestOTP(context.Background(), service.ModeLogin, "", "123")
	assert.ErrorIs(t, err, service.ErrPhoneInvalid)
	assert.False(t, h.c.State().AwaitingOTP)
}

func TestNavigation(t *testing.T) {
	tests := []struct {
		name    string
		from    View
		to      View
		wantErr bool
	}{
		{name: "home to detect", from: ViewHome, to: ViewDetect},
		{name: "home to settings", from: ViewHome, to: ViewSettings},
		{name: "profit to history", from: ViewProfit, to: ViewHistory},
		{name: "history to home", from: ViewHistory, to: ViewHome},
		{name: "profit to detect", from: ViewProfit, to: ViewDetect, wantErr: true},
		{name: "detect to profit", from: ViewDetect, to: ViewProfit, wantErr: true},
		{name: "settings to history", from: ViewSettings, to: ViewHistory, wantErr: true},
		{name: "home to auth", from: ViewHome, to: ViewAuth, wantErr: true},
		{name: "home to language", from: ViewHome, to: ViewLanguage, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newHarness(t, true).c
			if tt.from != ViewHome {
				require.NoError(t, c.Navigate(tt.from))
			}
			err := c.Navigate(tt.to)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTransition)
				assert.Equal(t, tt.from, c.State().View)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, c.State().View)
		})
	}
}

func TestNavigate_SignedOut(t *testing.T) {
	c := newHarness(t, false).c
	assert.ErrorIs(t, c.Navigate(ViewHome), ErrInvalidTransition)
	assert.ErrorIs(t, c.Back(), ErrInvalidTransition)
}

func TestBack(t *testing.T) {
	c := newHarness(t, true).c
	assert.ErrorIs(t, c.Back(), ErrInvalidTransition)

	for _, v := range []View{ViewDetect, ViewProfit, ViewHistory, ViewSettings} {
		require.NoError(t, c.Navigate(v))
		require.NoError(t, c.Back())
		assert.Equal(t, ViewHome, c.State().View)
	}
}

func TestAnalyze_Outcomes(t *testing.T) {
	tests := []struct {
		name   string
		result models.DiseaseResult
		want   Outcome
	}{
		{name: "not a plant", result: models.DiseaseResult{IsPlant: false, IsHealthy: true}, want: OutcomeUnrecognized},
		{name: "healthy with severity", result: models.DiseaseResult{IsPlant: true, IsHealthy: true, Severity: models.SeverityHigh}, want: OutcomeHealthy},
		{name: "diseased", result: models.DiseaseResult{IsPlant: true, CropName: "Rice", DiseaseName: "Blast", Severity: models.SeverityLow}, want: OutcomeDiseased},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, true)
			var gotLang locale.Code
			h.scanner.ScanFunc = func(_ context.Context, _ []byte, _ string, lang locale.Code) (models.DiseaseResult, error) {
				gotLang = lang
				return tt.result, nil
			}

			_, _, err := h.c.Analyze(context.Background(), []byte("img"), "image/jpeg")
			assert.ErrorIs(t, err, ErrInvalidTransition)

			require.NoError(t, h.c.Navigate(ViewDetect))
			_, outcome, err := h.c.Analyze(context.Background(), []byte("img"), "image/jpeg")
			require.NoError(t, err)
			assert.Equal(t, tt.want, outcome)
			assert.Equal(t, locale.Hindi, gotLang)

			st := h.c.State()
			assert.False(t, st.Loading)
			assert.Equal(t, tt.want, st.Outcome)
			require.NotNil(t, st.Result)

			require.NoError(t, h.c.Back())
			assert.Nil(t, h.c.State().Result)
		})
	}
}

func TestAnalyze_Busy(t *testing.T) {
	h := newHarness(t, true)
	started := make(chan struct{})
	release := make(chan struct{})
	h.scanner.ScanFunc = func(context.Context, []byte, string, locale.Code) (models.DiseaseResult, error) {
		close(started)
		<-release
		return models.DiseaseResult{IsPlant: true, IsHealthy: true}, nil
	}
	require.NoError(t, h.c.Navigate(ViewDetect))

	done := make(chan error, 1)
	go func() {
		_, _, err := h.c.Analyze(context.Background(), []byte("img"), "image/jpeg")
		done <- err
	}()
	<-started

	assert.True(t, h.c.State().Loading)
	_, _, err := h.c.Analyze(context.Background(), []byte("img"), "image/jpeg")
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, h.c.State().Loading)
}

func TestAnalyze_Failure(t *testing.T) {
	h := newHarness(t, true)
	wantErr := errors.New("failed to analyze image")
	h.scanner.ScanFunc = func(context.Context, []byte, string, locale.Code) (models.DiseaseResult, error) {
		return models.DiseaseResult{}, wantErr
	}
	require.NoError(t, h.c.Navigate(ViewDetect))

	_, _, err := h.c.Analyze(context.Background(), []byte("img"), "image/jpeg")
	assert.ErrorIs(t, err, wantErr)
	st := h.c.State()
	assert.False(t, st.Loading)
	assert.Nil(t, st.Result)
}

func TestCalculate(t *testing.T) {
	c := newHarness(t, true).c
	_, err := c.Calculate("1000", "1500")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, c.Navigate(ViewProfit))
	p, err := c.Calculate("1000", "1500")
	require.NoError(t, err)
	assert.Equal(t, 500.0, p.EstimatedProfit)
	assert.Equal(t, 50.0, p.ROI)
	require.NotNil(t, c.State().Profit)
}

func TestHistoryAndHome(t *testing.T) {
	h := newHarness(t, true)
	h.scanner.history = []models.ScanRecord{{ID: "a"}}

	_, err := h.c.History(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = h.c.Home(context.Background())
	require.NoError(t, err)
	assert.Equal(t, locale.Hindi, h.home.lang)

	require.NoError(t, h.c.Navigate(ViewHistory))
	got, err := h.c.History(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = h.c.Home(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, true)
	name := "Ramesh K. Rao"
	lang := locale.Tamil

	_, err := h.c.UpdateProfile(ctx, &name, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, h.c.Navigate(ViewSettings))

	blank := "  "
	_, err = h.c.UpdateProfile(ctx, &blank, nil)
	assert.ErrorIs(t, err, ErrNameEmpty)
	bad := locale.Code("fr")
	_, err = h.c.UpdateProfile(ctx, nil, &bad)
	assert.ErrorIs(t, err, locale.ErrUnsupported)

	user, err := h.c.UpdateProfile(ctx, &name, &lang)
	require.NoError(t, err)
	assert.Equal(t, name, user.Name)
	assert.Equal(t, locale.Tamil, h.c.State().Language)

	stored, ok := h.store.GetUser(ctx)
	require.True(t, ok)
	assert.Equal(t, user, stored)
	found, ok := h.store.FindUserByPhone(ctx, ramesh.Phone)
	require.True(t, ok)
	assert.Equal(t, name, found.Name)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, true)
	require.NoError(t, h.c.Navigate(ViewSettings))
	require.NoError(t, h.c.Logout(ctx))

	st := h.c.State()
	assert.Equal(t, ViewLanguage, st.View)
	assert.Nil(t, st.User)
	assert.Equal(t, locale.Hindi, st.Language)
	_, ok := h.store.GetUser(ctx)
	assert.False(t, ok)
	_, ok = h.store.FindUserByPhone(ctx, ramesh.Phone)
	assert.True(t, ok)

	assert.ErrorIs(t, h.c.Logout(ctx), ErrInvalidTransition)
}

func TestStateIsSnapshot(t *testing.T) {
	c := newHarness(t, true).c
	st := c.State()
	st.User.Name = "changed"
	assert.Equal(t, ramesh.Name, c.State().User.Name)
}

func TestShareText(t *testing.T) {
	got := ShareText(models.DiseaseResult{CropName: "Tomato", DiseaseName: "Early Blight", Severity: models.SeverityMedium})
	want := "AgriVision AI Diagnosis\n\n🌱 Plant: Tomato\n🩺 Condition: Early Blight\n⚠️ Severity: Medium\n\nCheck this out!"
	assert.Equal(t, want, got)
}

func TestParseView(t *testing.T) {
	v, ok := ParseView("profit")
	assert.True(t, ok)
	assert.Equal(t, ViewProfit, v)
	_, ok = ParseView("admin")
	assert.False(t, ok)
}
