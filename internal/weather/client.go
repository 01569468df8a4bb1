package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/atinyakov/AgriVision/internal/models"
	"golang.org/x/sync/singleflight"
)

// LookupTimeout bounds location, geocoding and weather lookups.
const LookupTimeout = 15 * time.Second

const (
	defaultOpenMeteoURL = "https://api.open-meteo.com/v1"
	defaultNominatimURL = "https://nominatim.openstreetmap.org"
	userAgent           = "AgriVision/1.0"
)

var (
	// ErrLocationUnavailable is returned when no position is known.
	ErrLocationUnavailable = errors.New("location unavailable")
	// ErrNoPlaceName is returned when reverse geocoding finds no usable name.
	ErrNoPlaceName = errors.New("no place name for coordinates")
)

// Coordinates is a position in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (c Coordinates) key() string {
	return fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lon)
}

// Locator reports the device position.
type Locator interface {
	Locate(ctx context.Context) (Coordinates, error)
}

// StaticLocator returns a fixed, configured position.
type StaticLocator struct {
	coords *Coordinates
}

// NewStaticLocator returns a locator for lat/lon. Either being nil means the
// position is unknown and Locate fails with ErrLocationUnavailable.
func NewStaticLocator(lat, lon *float64) *StaticLocator {
	if lat == nil || lon == nil {
		return &StaticLocator{}
	}
	return &StaticLocator{coords: &Coordinates{Lat: *lat, Lon: *lon}}
}

func (s *StaticLocator) Locate(ctx context.Context) (Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return Coordinates{}, err
	}
	if s.coords == nil {
		return Coordinates{}, ErrLocationUnavailable
	}
	return *s.coords, nil
}

func newHTTPClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: LookupTimeout}
}

func getJSON(ctx context.Context, client *http.Client, u string, header http.Header, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	for k, vals := range header {
		for _, val := range vals {
			req.Header.Add(k, val)
		}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Host)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// shared runs fn once per key across concurrent callers. The upstream call
// is detached from any single caller's cancellation and bounded by
// LookupTimeout; each caller stops waiting when its own ctx is done.
func shared[T any](ctx context.Context, g *singleflight.Group, key string, fn func(context.Context) (T, error)) (T, error) {
	ch := g.DoChan(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), LookupTimeout)
		defer cancel()
		return fn(callCtx)
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return zero, r.Err
		}
		return r.Val.(T), nil
	}
}

// OpenMeteo fetches current conditions from the Open-Meteo forecast API.
// Concurrent requests for the same coordinates share one upstream call.
type OpenMeteo struct {
	BaseURL string
	client  *http.Client
	group   singleflight.Group
}

// NewOpenMeteo returns a client for the public Open-Meteo API. A nil
// httpClient gets a client with LookupTimeout.
func NewOpenMeteo(httpClient *http.Client) *OpenMeteo {
	return &OpenMeteo{BaseURL: defaultOpenMeteoURL, client: newHTTPClient(httpClient)}
}

type forecastResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		Humidity    float64 `json:"relative_humidity_2m"`
		WeatherCode int     `json:"weather_code"`
		WindSpeed   float64 `json:"wind_speed_10m"`
	} `json:"current"`
}

// Current returns the current weather at c. LocationName is left empty.
func (o *OpenMeteo) Current(ctx context.Context, c Coordinates) (models.WeatherData, error) {
	return shared(ctx, &o.group, c.key(), func(ctx context.Context) (models.WeatherData, error) {
		q := url.Values{}
		q.Set("latitude", strconv.FormatFloat(c.Lat, 'f', -1, 64))
		q.Set("longitude", strconv.FormatFloat(c.Lon, 'f', -1, 64))
		q.Set("current", "temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m")

		var fr forecastResponse
		if err := getJSON(ctx, o.client, strings.TrimRight(o.BaseURL, "/")+"/forecast?"+q.Encode(), nil, &fr); err != nil {
			return models.WeatherData{}, fmt.Errorf("weather lookup: %w", err)
		}
		return models.WeatherData{
			Temp:          fr.Current.Temperature,
			Humidity:      fr.Current.Humidity,
			WindSpeed:     fr.Current.WindSpeed,
			ConditionCode: fr.Current.WeatherCode,
		}, nil
	})
}

// Nominatim resolves coordinates to a place name with OpenStreetMap's
// reverse geocoder.
type Nominatim struct {
	BaseURL string
	client  *http.Client
	group   singleflight.Group
}

// NewNominatim returns a client for the public Nominatim API.
func NewNominatim(httpClient *http.Client) *Nominatim {
	return &Nominatim{BaseURL: defaultNominatimURL, client: newHTTPClient(httpClient)}
}

type reverseResponse struct {
	Address struct {
		City          string `json:"city"`
		Town          string `json:"town"`
		Village       string `json:"village"`
		County        string `json:"county"`
		StateDistrict string `json:"state_district"`
		State         string `json:"state"`
	} `json:"address"`
}

// Reverse returns "<locality>, <state>", just the locality or state when
// only one is known, or ErrNoPlaceName.
func (n *Nominatim) Reverse(ctx context.Context, c Coordinates) (string, error) {
	name, err := shared(ctx, &n.group, c.key(), func(ctx context.Context) (string, error) {
		q := url.Values{}
		q.Set("format", "json")
		q.Set("lat", strconv.FormatFloat(c.Lat, 'f', -1, 64))
		q.Set("lon", strconv.FormatFloat(c.Lon, 'f', -1, 64))

		var rr reverseResponse
		h := http.Header{"Accept-Language": []string{"en"}}
		if err := getJSON(ctx, n.client, strings.TrimRight(n.BaseURL, "/")+"/reverse?"+q.Encode(), h, &rr); err != nil {
			return "", fmt.Errorf("reverse geocode: %w", err)
		}
		return placeName(rr), nil
	})
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", ErrNoPlaceName
	}
	return name, nil
}

func placeName(rr reverseResponse) string {
	a := rr.Address
	var locality string
	for _, s := range []string{a.City, a.Town, a.Village, a.County, a.StateDistrict} {
		if s != "" {
			locality = s
			break
		}
	}
	switch {
	case locality != "" && a.State != "":
		return locality + ", " + a.State
	case locality != "":
		return locality
	default:
		return a.State
	}
}
