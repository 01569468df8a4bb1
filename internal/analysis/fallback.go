package analysis

import "github.com/atinyakov/AgriVision/internal/models"

// FallbackDiagnosis is the illustrative result served without a model
// credential. It is for demos only.
func FallbackDiagnosis() models.DiseaseResult {
	return models.DiseaseResult{
		IsPlant:           true,
		IsHealthy:         false,
		CropName:          "Tomato (Lycopersicon esculentum)",
		DiseaseName:       "Early Blight",
		Confidence:        96,
		Severity:          models.SeverityMedium,
		Causes:            []string{"Alternaria solani fungus", "High humidity"},
		OrganicTreatment:  []string{"Remove infected leaves", "Neem oil spray"},
		ChemicalTreatment: []string{"Mancozeb 75 WP", "Chlorothalonil"},
		Prevention:        []string{"Crop rotation", "Proper spacing"},
		VerifiedSource:    "ICAR",
	}
}

// FallbackTips are the advisories served without a model credential.
func FallbackTips() []models.WeatherTip {
	return []models.WeatherTip{
		{Title: "General Tip", Description: "Ensure proper drainage in fields during rain.", Type: models.TipGeneral},
		{Title: "Pest Alert", Description: "Check for aphids in cloudy weather.", Type: models.TipAlert},
	}
}
