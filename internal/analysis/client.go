// Package analysis turns leaf images into structured diagnoses and
// locations into short farming advisories using a remote multimodal model.
//
// Every model call carries a strict response schema, and every answer is
// validated against it before it leaves this package. Without a configured
// model the client serves fixed demo data instead.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/atinyakov/AgriVision/internal/locale"
	"github.com/atinyakov/AgriVision/internal/models"
	"go.uber.org/zap"
)

// ErrAnalysisFailed is the single error AnalyzeImage reports, whatever went
// wrong: transport, quota, or an answer that does not match the schema.
var ErrAnalysisFailed = errors.New("failed to analyze image")

// ErrInvalidImage is wrapped in ErrAnalysisFailed when the input is empty or
// not an image.
var ErrInvalidImage = errors.New("input is not an image")

// Client is the diagnosis and advisory facade. A nil generator means no
// credential is configured.
type Client struct {
	gen Generator
	log *zap.Logger
}

// New returns a Client that sends requests through gen. Pass a nil gen to
// serve the offline fallbacks.
func New(gen Generator, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{gen: gen, log: log}
}

// Configured reports whether results come from the live model. Fallback
// results must not be stored as real scans.
func (c *Client) Configured() bool {
	return c.gen != nil
}

// AnalyzeImage diagnoses a leaf image, writing every free-text value in
// lang. mimeType may be empty, in which case it is sniffed from the bytes.
func (c *Client) AnalyzeImage(ctx context.Context, image []byte, mimeType string, lang locale.Code) (models.DiseaseResult, error) {
	if !c.Configured() {
		c.log.Warn("no model credential configured, returning demo diagnosis")
		return FallbackDiagnosis(), nil
	}

	mimeType, err := imageType(image, mimeType)
	if err != nil {
		return models.DiseaseResult{}, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	text, err := c.gen.Generate(ctx, Request{
		Prompt:   diagnosisPrompt(lang),
		Image:    image,
		MIMEType: mimeType,
		Schema:   diagnosisSchema(lang),
	})
	if err != nil {
		c.log.Error("diagnosis request failed", zap.Error(err))
		return models.DiseaseResult{}, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	res, err := decodeDiagnosis(text)
	if err != nil {
		c.log.Error("diagnosis response rejected", zap.Error(err), zap.Int("bytes", len(text)))
		return models.DiseaseResult{}, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	c.log.Info("diagnosis complete",
		zap.Bool("is_plant", res.IsPlant),
		zap.Bool("is_healthy", res.IsHealthy),
		zap.String("severity", string(res.Severity)),
		zap.String("lang", string(lang)),
	)
	return res, nil
}

// GenerateAdvisory returns up to three localized tips for location. It never
// fails: without a credential it returns the fixed tips, and on any error it
// returns an empty list.
func (c *Client) GenerateAdvisory(ctx context.Context, season, location string, lang locale.Code) []models.WeatherTip {
	if !c.Configured() {
		return FallbackTips()
	}

	text, err := c.gen.Generate(ctx, Request{
		Prompt: advisoryPrompt(season, location, lang),
		Schema: advisorySchema(lang),
	})
	if err != nil {
		c.log.Warn("advisory request failed", zap.Error(err), zap.String("location", location))
		return []models.WeatherTip{}
	}

	tips, err := decodeAdvisory(text)
	if err != nil {
		c.log.Warn("advisory response rejected", zap.Error(err), zap.String("location", location))
		return []models.WeatherTip{}
	}
	return tips
}

func imageType(image []byte, declared string) (string, error) {
	if len(image) == 0 {
		return "", ErrInvalidImage
	}
	mimeType := strings.TrimSpace(declared)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(image)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("%w: %s", ErrInvalidImage, mimeType)
	}
	return mimeType, nil
}
