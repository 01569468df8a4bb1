// Package models defines the core data structures for users, scans,
// diagnoses and advisories.
package models

import "github.com/atinyakov/AgriVision/internal/locale"

// UserProfile represents a farmer registered on this device.
type UserProfile struct {
	// Name is the display name entered at registration.
	Name string `json:"name"`
	// Phone is the 10-digit mobile number; it is the identity key.
	Phone string `json:"phone"`
	// Language is the selected locale code.
	Language locale.Code `json:"language"`
	// PhotoURL is an optional reference to a profile picture.
	PhotoURL string `json:"photoUrl,omitempty"`
}

// ScanRecord is one entry of the local scan history.
type ScanRecord struct {
	// ID is unique and time-derived.
	ID string `json:"id"`
	// Timestamp is the scan time in epoch milliseconds.
	Timestamp int64 `json:"timestamp"`
	// ImageURL references the analysed image, usually as a data URL.
	ImageURL string `json:"imageUrl"`
	// Result is the diagnosis returned for the image.
	Result DiseaseResult `json:"result"`
}

// Severity is the coarse disease-impact level of a diagnosis.
type Severity string

const (
	// SeverityLow is used for mild infections and healthy plants.
	SeverityLow Severity = "Low"
	// SeverityMedium marks a spreading infection.
	SeverityMedium Severity = "Medium"
	// SeverityHigh marks a severe infection.
	SeverityHigh Severity = "High"
	// SeverityUnknown is used when the model cannot judge impact.
	SeverityUnknown Severity = "Unknown"
)

// Valid reports whether s is one of the enumerated severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityUnknown:
		return true
	}
	return false
}

// DiseaseResult is the structured diagnosis of a leaf image.
//
// When IsPlant is false every other field is meaningless. When IsHealthy is
// true the cause and treatment lists are empty and Prevention holds generic
// care tips.
type DiseaseResult struct {
	IsPlant           bool     `json:"isPlant"`
	IsHealthy         bool     `json:"isHealthy"`
	CropName          string   `json:"cropName"`
	DiseaseName       string   `json:"diseaseName"`
	Confidence        float64  `json:"confidence"`
	Severity          Severity `json:"severity"`
	Causes            []string `json:"causes"`
	OrganicTreatment  []string `json:"organicTreatment"`
	ChemicalTreatment []string `json:"chemicalTreatment"`
	Prevention        []string `json:"prevention"`
	VerifiedSource    string   `json:"verifiedSource,omitempty"`
}

// TipType distinguishes alerts from general advice.
type TipType string

const (
	// TipAlert is a warning about a pest, disease or weather risk.
	TipAlert TipType = "alert"
	// TipGeneral is general farming advice.
	TipGeneral TipType = "tip"
)

// WeatherTip is a short localized advisory. It is never persisted.
type WeatherTip struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Type        TipType `json:"type"`
}

// WeatherData holds the current conditions shown on the home screen.
type WeatherData struct {
	// Temp is the air temperature in degrees Celsius.
	Temp float64 `json:"temp"`
	// Humidity is the relative humidity in percent.
	Humidity float64 `json:"humidity"`
	// WindSpeed is the wind speed in km/h.
	WindSpeed float64 `json:"windSpeed"`
	// ConditionCode is the WMO weather interpretation code.
	ConditionCode int `json:"conditionCode"`
	// LocationName is a human-readable place name.
	LocationName string `json:"locationName"`
}

// ProfitCalculation is the derived result of the profit calculator.
type ProfitCalculation struct {
	TotalInvestment float64 `json:"totalInvestment"`
	ExpectedRevenue float64 `json:"expectedRevenue"`
	EstimatedProfit float64 `json:"estimatedProfit"`
	ProfitPerAcre   float64 `json:"profitPerAcre"`
	// ROI is the return on investment in percent.
	ROI float64 `json:"roi"`
}
