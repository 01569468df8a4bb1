package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/atinyakov/AgriVision/internal/models"
)

// rawDiagnosis mirrors models.DiseaseResult with pointer fields so that
// missing keys can be told apart from zero values.
type rawDiagnosis struct {
	IsPlant           *bool            `json:"isPlant"`
	IsHealthy         *bool            `json:"isHealthy"`
	CropName          *string          `json:"cropName"`
	DiseaseName       *string          `json:"diseaseName"`
	Confidence        *float64         `json:"confidence"`
	Severity          *models.Severity `json:"severity"`
	Causes            *[]string        `json:"causes"`
	OrganicTreatment  *[]string        `json:"organicTreatment"`
	ChemicalTreatment *[]string        `json:"chemicalTreatment"`
	Prevention        *[]string        `json:"prevention"`
	VerifiedSource    *string          `json:"verifiedSource"`
}

func decodeStrict(text string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(trimJSON(text))))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("trailing data after JSON value")
	}
	return nil
}

// decodeDiagnosis parses a model answer into a DiseaseResult. Only isPlant
// is required when the image is not a plant; every other field is dropped
// in that case.
func decodeDiagnosis(text string) (models.DiseaseResult, error) {
	var raw rawDiagnosis
	if err := decodeStrict(text, &raw); err != nil {
		return models.DiseaseResult{}, fmt.Errorf("decode diagnosis: %w", err)
	}
	if raw.IsPlant == nil {
		return models.DiseaseResult{}, missingField("isPlant")
	}
	if !*raw.IsPlant {
		return models.DiseaseResult{IsPlant: false}, nil
	}

	switch {
	case raw.IsHealthy == nil:
		return models.DiseaseResult{}, missingField("isHealthy")
	case raw.CropName == nil:
		return models.DiseaseResult{}, missingField("cropName")
	case raw.DiseaseName == nil:
		return models.DiseaseResult{}, missingField("diseaseName")
	case raw.Confidence == nil:
		return models.DiseaseResult{}, missingField("confidence")
	case raw.Severity == nil:
		return models.DiseaseResult{}, missingField("severity")
	case raw.Causes == nil:
		return models.DiseaseResult{}, missingField("causes")
	case raw.OrganicTreatment == nil:
		return models.DiseaseResult{}, missingField("organicTreatment")
	case raw.ChemicalTreatment == nil:
		return models.DiseaseResult{}, missingField("chemicalTreatment")
	case raw.Prevention == nil:
		return models.DiseaseResult{}, missingField("prevention")
	}

	if !raw.Severity.Valid() {
		return models.DiseaseResult{}, fmt.Errorf("invalid severity %q", *raw.Severity)
	}
	if c := *raw.Confidence; c < 0 || c > 100 {
		return models.DiseaseResult{}, fmt.Errorf("confidence %v out of range [0,100]", c)
	}

	res := models.DiseaseResult{
		IsPlant:           true,
		IsHealthy:         *raw.IsHealthy,
		CropName:          *raw.CropName,
		DiseaseName:       *raw.DiseaseName,
		Confidence:        *raw.Confidence,
		Severity:          *raw.Severity,
		Causes:            nonNil(*raw.Causes),
		OrganicTreatment:  nonNil(*raw.OrganicTreatment),
		ChemicalTreatment: nonNil(*raw.ChemicalTreatment),
		Prevention:        nonNil(*raw.Prevention),
	}
	if raw.VerifiedSource != nil {
		res.VerifiedSource = *raw.VerifiedSource
	}
	return res, nil
}

// decodeAdvisory parses a model answer into at most AdvisoryCount tips.
// Entries with an unknown type or no title are skipped.
func decodeAdvisory(text string) ([]models.WeatherTip, error) {
	var raw []models.WeatherTip
	if err := decodeStrict(text, &raw); err != nil {
		return nil, fmt.Errorf("decode advisory: %w", err)
	}

	tips := make([]models.WeatherTip, 0, AdvisoryCount)
	for _, tip := range raw {
		if tip.Title == "" || (tip.Type != models.TipAlert && tip.Type != models.TipGeneral) {
			continue
		}
		tips = append(tips, tip)
		if len(tips) == AdvisoryCount {
			break
		}
	}
	return tips, nil
}

func missingField(name string) error {
	return fmt.Errorf("missing required field %q", name)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
