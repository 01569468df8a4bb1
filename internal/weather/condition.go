// Package weather looks up current conditions and place names for the home
// screen and buckets WMO weather codes into display conditions.
package weather

// Condition is a coarse weather category derived from a WMO code.
type Condition string

const (
	Clear   Condition = "clear"
	Cloudy  Condition = "cloudy"
	Fog     Condition = "fog"
	Drizzle Condition = "drizzle"
	Rain    Condition = "rain"
	Storm   Condition = "storm"
)

// ConditionFor maps a WMO weather interpretation code to a Condition.
// Codes outside the known ranges fall back to Clear.
func ConditionFor(code int) Condition {
	switch {
	case code == 0:
		return Clear
	case code >= 1 && code <= 3:
		return Cloudy
	case code >= 45 && code <= 48:
		return Fog
	case code >= 51 && code <= 57:
		return Drizzle
	case code >= 61 && code <= 67, code >= 80 && code <= 82:
		return Rain
	case code >= 95 && code <= 99:
		return Storm
	default:
		return Clear
	}
}
