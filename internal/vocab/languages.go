package vocab

import "strings"

// languageNames is the curated list of language names recognized as whole
// tokens inside competency strings.
var languageNames = []string{
	"English", "Spanish", "French", "German", "Italian", "Portuguese",
	"Mandarin", "Cantonese", "Chinese", "Japanese", "Korean", "Vietnamese",
	"Tagalog", "Hindi", "Urdu", "Punjabi", "Bengali", "Arabic", "Hebrew",
	"Russian", "Ukrainian", "Polish", "Greek", "Turkish", "Farsi", "Persian",
	"Swahili", "Amharic", "Somali", "Haitian Creole", "Creole", "Dutch",
	"Thai", "Khmer", "Lao", "Hmong", "Navajo", "American Sign Language",
}

// languagePrefixes and languageSuffixes are the explicit proficiency phrases
// around a language name.
var languagePrefixes = []string{
	"fluent in ", "conversational ", "native ", "proficient in ",
	"bilingual in ", "speaks ", "speak ",
}

var languageSuffixes = []string{
	" speaker", " speaking", " fluency", " fluent",
}

// DefaultProficiency is assumed when the raw data names a language without a
// proficiency of its own.
const DefaultProficiency = "Fluent"

// ExtractLanguage tests a free-text competency for a language indicator.
// It returns the canonical language name when the string is an explicit
// proficiency phrase or a whole-token match against the curated list.
func ExtractLanguage(raw string) (string, bool) {
	text := strings.TrimSpace(raw)
	lower := strings.ToLower(text)

	for _, prefix := range languagePrefixes {
		if strings.HasPrefix(lower, prefix) {
			if name, ok := matchLanguageName(text[len(prefix):]); ok {
				return name, true
			}
		}
	}
	for _, suffix := range languageSuffixes {
		if strings.HasSuffix(lower, suffix) {
			if name, ok := matchLanguageName(text[:len(text)-len(suffix)]); ok {
				return name, true
			}
		}
	}
	return matchLanguageName(text)
}

// matchLanguageName compares a candidate against the curated list as a whole
// token (the entire trimmed string, not a substring).
func matchLanguageName(candidate string) (string, bool) {
	needle := Normalize(candidate)
	if needle == "" {
		return "", false
	}
	for _, name := range languageNames {
		if Normalize(name) == needle {
			return name, true
		}
	}
	return "", false
}
