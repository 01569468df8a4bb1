package service

import (
	"context"

	"github.com/atinyakov/AgriVision/internal/locale"
	"github.com/atinyakov/AgriVision/internal/models"
	"github.com/atinyakov/AgriVision/internal/weather"
	"go.uber.org/zap"
)

const (
	// DefaultLocation is advised on when the position is unknown.
	DefaultLocation = "India"
	// DefaultSeason is the season named in advisory requests.
	DefaultSeason = "Current Season"
	// UnnamedLocation labels a position that could not be geocoded.
	UnnamedLocation = "Your Location"
)

// WeatherSource reports current conditions at a position.
type WeatherSource interface {
	Current(ctx context.Context, c weather.Coordinates) (models.WeatherData, error)
}

// Geocoder names a position.
type Geocoder interface {
	Reverse(ctx context.Context, c weather.Coordinates) (string, error)
}

// Advisor writes short farming tips for a place.
type Advisor interface {
	GenerateAdvisory(ctx context.Context, season, location string, lang locale.Code) []models.WeatherTip
}

// Dashboard is the content of the home screen. Weather is nil when it could
// not be fetched.
type Dashboard struct {
	Weather       *models.WeatherData `json:"weather,omitempty"`
	Condition     weather.Condition   `json:"condition,omitempty"`
	Tips          []models.WeatherTip `json:"tips"`
	LocationError bool                `json:"locationError"`
}

// HomeService assembles the home dashboard from location, weather and
// advisory lookups.
type HomeService struct {
	locator  weather.Locator
	weather  WeatherSource
	geocoder Geocoder
	advisor  Advisor
	log      *zap.Logger
}

// NewHomeService constructs a HomeService.
func NewHomeService(locator weather.Locator, ws WeatherSource, geo Geocoder, advisor Advisor, log *zap.Logger) *HomeService {
	if log == nil {
		log = zap.NewNop()
	}
	return &HomeService{locator: locator, weather: ws, geocoder: geo, advisor: advisor, log: log}
}

// Home returns the dashboard in lang. Every lookup is best effort: without
// a position the tips are for DefaultLocation; without a place name the
// position is called UnnamedLocation; a failed weather lookup leaves
// Weather nil. Home never fails.
func (s *HomeService) Home(ctx context.Context, lang locale.Code) Dashboard {
	lookupCtx, cancel := context.WithTimeout(ctx, weather.LookupTimeout)
	defer cancel()

	coords, err := s.locator.Locate(lookupCtx)
	if err != nil {
		s.log.Warn("location unavailable", zap.Error(err))
		return Dashboard{
			Tips:          s.tips(ctx, DefaultLocation, lang),
			LocationError: true,
		}
	}

	name := UnnamedLocation
	if n, err := s.geocoder.Reverse(lookupCtx, coords); err != nil {
		s.log.Warn("reverse geocoding failed", zap.Error(err))
	} else {
		name = n
	}

	var d Dashboard
	if w, err := s.weather.Current(lookupCtx, coords); err != nil {
		s.log.Error("weather lookup failed", zap.Error(err))
	} else {
		w.LocationName = name
		d.Weather = &w
		d.Condition = weather.ConditionFor(w.ConditionCode)
	}
	d.Tips = s.tips(ctx, name, lang)
	return d
}

func (s *HomeService) tips(ctx context.Context, location string, lang locale.Code) []models.WeatherTip {
	tips := s.advisor.GenerateAdvisory(ctx, DefaultSeason, location, lang)
	if tips == nil {
		return []models.WeatherTip{}
	}
	return tips
}
