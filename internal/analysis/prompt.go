package analysis

import (
	"fmt"
	"strings"

	"github.com/atinyakov/AgriVision/internal/locale"
	"github.com/atinyakov/AgriVision/internal/models"
	"google.golang.org/genai"
)

// AdvisoryCount is the number of tips requested from the model.
const AdvisoryCount = 3

func diagnosisPrompt(lang locale.Code) string {
	name := lang.Name()
	return fmt.Sprintf(`You are an expert agricultural AI. Analyze the provided image.

STEP 1: IDENTIFY THE LEAF OR PLANT
- Identify the exact plant or crop species from the leaf (for example "Tomato", "Rice", "Mango").
- If the image is NOT a plant or leaf (a person, a car, a random object), set "isPlant" to false and stop.

STEP 2: DETECT DISEASE STATUS
- Look for any sign of disease, pests or nutrient deficiency.
- If HEALTHY: set "isHealthy" to true, set "diseaseName" to "Healthy" translated into %[1]s, set "severity" to "Low",
  leave "causes", "organicTreatment" and "chemicalTreatment" empty, and fill "prevention" with exactly 3 generic
  care tips for this plant (watering, sunlight, soil).
- If DISEASED: set "isHealthy" to false, identify the specific disease and fill "causes", "organicTreatment",
  "chemicalTreatment" and "prevention" with concrete, verified entries.

STEP 3: LANGUAGE
- Write every string value (cropName, diseaseName, causes, treatments, prevention) in %[1]s.
- Keep the JSON keys in English.

Return the result as JSON.`, name)
}

func advisoryPrompt(season, location string, lang locale.Code) string {
	name := lang.Name()
	return fmt.Sprintf(`You are an expert agronomist.
The user is a farmer in %s. The season is: %s.
Based on the typical weather in this region at this time of year, generate %d specific, actionable farming tips or disease alerts.
Use type "alert" for pest, disease or weather warnings and "tip" for general advice.
Write the "title" and "description" fields in %s.
Return a JSON array.`, location, season, AdvisoryCount, name)
}

func stringList(desc string) *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeArray,
		Items:       &genai.Schema{Type: genai.TypeString},
		Description: desc,
	}
}

// diagnosisRequired lists the fields a plant diagnosis must carry.
var diagnosisRequired = []string{
	"isPlant", "isHealthy", "cropName", "diseaseName", "confidence", "severity",
	"causes", "organicTreatment", "chemicalTreatment", "prevention",
}

func diagnosisSchema(lang locale.Code) *genai.Schema {
	name := lang.Name()
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"isPlant":           {Type: genai.TypeBoolean},
			"isHealthy":         {Type: genai.TypeBoolean},
			"cropName":          {Type: genai.TypeString, Description: "The detected plant or crop name in " + name},
			"diseaseName":       {Type: genai.TypeString, Description: "Name of the disease, or 'Healthy', in " + name},
			"confidence":        {Type: genai.TypeNumber, Description: "Confidence score 0-100"},
			"severity":          {Type: genai.TypeString, Enum: severityEnum()},
			"causes":            stringList("List of causes in " + name),
			"organicTreatment":  stringList("List of organic treatments in " + name),
			"chemicalTreatment": stringList("List of chemical treatments in " + name),
			"prevention":        stringList("List of prevention methods or care tips in " + name),
			"verifiedSource":    {Type: genai.TypeString},
		},
		Required: diagnosisRequired,
	}
}

func advisorySchema(lang locale.Code) *genai.Schema {
	name := lang.Name()
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title":       {Type: genai.TypeString, Description: "Title in " + name},
				"description": {Type: genai.TypeString, Description: "Description in " + name},
				"type":        {Type: genai.TypeString, Enum: []string{string(models.TipAlert), string(models.TipGeneral)}},
			},
			Required: []string{"title", "description", "type"},
		},
	}
}

func severityEnum() []string {
	return []string{
		string(models.SeverityLow),
		string(models.SeverityMedium),
		string(models.SeverityHigh),
		string(models.SeverityUnknown),
	}
}

// trimJSON strips a Markdown code fence some models wrap JSON in.
func trimJSON(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
