// Package locale defines the fixed set of languages the assistant speaks,
// both for UI text selection and for instructing the model's output language.
package locale

import (
	"errors"
	"strings"

	"golang.org/x/text/language"
)

// Code is a supported language identifier.
type Code string

const (
	English   Code = "en"
	Hindi     Code = "hi"
	Telugu    Code = "te"
	Tamil     Code = "ta"
	Kannada   Code = "kn"
	Malayalam Code = "ml"
	Marathi   Code = "mr"
	Bengali   Code = "bn"
	Gujarati  Code = "gu"
	Punjabi   Code = "pa"
)

// ErrUnsupported is returned by Parse for languages outside the supported set.
var ErrUnsupported = errors.New("unsupported language")

// Language describes one entry of the language selection screen.
type Language struct {
	Code Code `json:"code"`
	// Label is the language's own name in its script.
	Label string `json:"label"`
	// Name is the English name, also used in model prompts.
	Name string `json:"name"`
}

// The first entry is the default.
var supported = []Language{
	{Code: English, Label: "English", Name: "English"},
	{Code: Hindi, Label: "हिन्दी", Name: "Hindi"},
	{Code: Telugu, Label: "తెలుగు", Name: "Telugu"},
	{Code: Tamil, Label: "தமிழ்", Name: "Tamil"},
	{Code: Kannada, Label: "ಕನ್ನಡ", Name: "Kannada"},
	{Code: Malayalam, Label: "മലയാളം", Name: "Malayalam"},
	{Code: Marathi, Label: "मराठी", Name: "Marathi"},
	{Code: Bengali, Label: "বাংলা", Name: "Bengali"},
	{Code: Gujarati, Label: "ગુજરાતી", Name: "Gujarati"},
	{Code: Punjabi, Label: "ਪੰਜਾਬੀ", Name: "Punjabi"},
}

var matcher = func() language.Matcher {
	tags := make([]language.Tag, len(supported))
	for i, l := range supported {
		tags[i] = language.Make(string(l.Code))
	}
	return language.NewMatcher(tags)
}()

// All returns the supported languages in display order.
func All() []Language {
	out := make([]Language, len(supported))
	copy(out, supported)
	return out
}

// Supported reports whether c is one of the supported codes.
func (c Code) Supported() bool {
	for _, l := range supported {
		if l.Code == c {
			return true
		}
	}
	return false
}

// Name returns the English name of the language. Unknown codes map to
// "English", the language the model falls back to.
func (c Code) Name() string {
	for _, l := range supported {
		if l.Code == c {
			return l.Name
		}
	}
	return "English"
}

// Parse accepts a BCP 47 tag such as "hi" or "te-IN" and returns the
// supported code for its base language.
func Parse(s string) (Code, error) {
	tag, err := language.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", ErrUnsupported
	}
	base, _ := tag.Base()
	c := Code(base.String())
	if !c.Supported() {
		return "", ErrUnsupported
	}
	return c, nil
}

// Negotiate picks the best supported language for an Accept-Language
// header value, defaulting to English.
func Negotiate(acceptLanguage string) Code {
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		return English
	}
	_, idx, conf := matcher.Match(prefs...)
	if conf == language.No {
		return English
	}
	return supported[idx].Code
}
