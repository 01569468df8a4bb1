package shell

import (
	"context"
	"strings"
	"time"

	"github.com/atinyakov/AgriVision/internal/app"
	"github.com/atinyakov/AgriVision/internal/models"
)

func (s *Shell) dashboard(ctx context.Context) error {
	s.printf("Loading weather and advisory...\n")
	d, err := s.app.Home(ctx)
	if err != nil {
		return err
	}
	switch {
	case d.Weather != nil:
		w := d.Weather
		s.printf("%s: %.0f°C, %s, humidity %.0f%%, wind %.0f km/h\n",
			w.LocationName, w.Temp, d.Condition, w.Humidity, w.WindSpeed)
	case d.LocationError:
		s.printf("Location unavailable; showing advice for India.\n")
	default:
		s.printf("Weather unavailable.\n")
	}
	for _, t := range d.Tips {
		marker := "tip"
		if t.Type == models.TipAlert {
			marker = "ALERT"
		}
		s.printf("  [%s] %s: %s\n", marker, t.Title, t.Description)
	}
	return nil
}

func (s *Shell) scan(ctx context.Context, path string) error {
	image, err := s.readFile(path)
	if err != nil {
		return err
	}
	s.printf("Analyzing...\n")
	r, outcome, err := s.app.Analyze(ctx, image, "")
	if err != nil {
		return err
	}

	switch outcome {
	case app.OutcomeUnrecognized:
		s.printf("This does not look like a plant. Try a clearer photo of a leaf.\n")
		return nil
	case app.OutcomeHealthy:
		s.printf("%s looks healthy (%.0f%% confidence).\n", r.CropName, r.Confidence)
	default:
		s.printf("%s: %s (%.0f%% confidence, severity %s)\n", r.CropName, r.DiseaseName, r.Confidence, r.Severity)
		s.list("Causes", r.Causes)
		s.list("Organic treatment", r.OrganicTreatment)
		s.list("Chemical treatment", r.ChemicalTreatment)
	}
	s.list("Prevention", r.Prevention)
	if r.VerifiedSource != "" {
		s.printf("Source: %s\n", r.VerifiedSource)
	}
	s.printf("\nShare:\n%s\n", app.ShareText(r))
	return nil
}

func (s *Shell) list(title string, items []string) {
	if len(items) == 0 {
		return
	}
	s.printf("%s:\n", title)
	for _, it := range items {
		s.printf("  - %s\n", it)
	}
}

func (s *Shell) history(ctx context.Context) error {
	scans, err := s.app.History(ctx)
	if err != nil {
		return err
	}
	if len(scans) == 0 {
		s.printf("No scans yet.\n")
		return nil
	}
	for _, sc := range scans {
		when := time.UnixMilli(sc.Timestamp).Format("02 Jan 2006 15:04")
		name := sc.Result.DiseaseName
		if sc.Result.IsHealthy {
			name = "Healthy"
		}
		s.printf("%s  %-12s %s\n", when, sc.Result.CropName, strings.TrimSpace(name))
	}
	return nil
}
