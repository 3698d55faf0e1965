package interject

import (
	"fmt"
	"strings"
)

// Language selects the announcement voice family.
type Language string

const (
	LanguageAuto    Language = "auto"
	LanguageTurkish Language = "tr"
	LanguageEnglish Language = "en"
)

// Gender selects between the two voices of a language.
type Gender string

const (
	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
)

// turkishLetters are the letters that only appear in Turkish text.
const turkishLetters = "çğıöşüÇĞİÖŞÜ"

// Voices holds the four synthesizer voice identifiers.
type Voices struct {
	TRFemale string
	TRMale   string
	ENFemale string
	ENMale   string
}

// DefaultVoices returns the edge-tts neural voices.
func DefaultVoices() Voices {
	return Voices{
		TRFemale: "tr-TR-EmelNeural",
		TRMale:   "tr-TR-AhmetNeural",
		ENFemale: "en-US-AriaNeural",
		ENMale:   "en-US-GuyNeural",
	}
}

// ParseLanguage accepts auto, tr or en. Empty means auto.
func ParseLanguage(s string) (Language, error) {
	switch l := Language(strings.ToLower(strings.TrimSpace(s))); l {
	case "", LanguageAuto:
		return LanguageAuto, nil
	case LanguageTurkish, LanguageEnglish:
		return l, nil
	default:
		return "", fmt.Errorf("unknown language %q (want auto, tr or en)", s)
	}
}

// ParseGender accepts female or male. Empty means female.
func ParseGender(s string) (Gender, error) {
	switch g := Gender(strings.ToLower(strings.TrimSpace(s))); g {
	case "", GenderFemale:
		return GenderFemale, nil
	case GenderMale:
		return g, nil
	default:
		return "", fmt.Errorf("unknown gender %q (want female or male)", s)
	}
}

// DetectLanguage reports Turkish when text contains a Turkish-only letter.
func DetectLanguage(text string) Language {
	if strings.ContainsAny(text, turkishLetters) {
		return LanguageTurkish
	}
	return LanguageEnglish
}

// Select returns the voice for text in the given language and gender.
func (v Voices) Select(text string, lang Language, gender Gender) string {
	if lang == LanguageAuto || lang == "" {
		lang = DetectLanguage(text)
	}
	male := gender == GenderMale
	switch {
	case lang == LanguageTurkish && male:
		return v.TRMale
	case lang == LanguageTurkish:
		return v.TRFemale
	case male:
		return v.ENMale
	default:
		return v.ENFemale
	}
}
