package importer

import (
	"strings"
	"time"

	"github.com/jonathan/resume-builder/internal/types"
)

// shortCourseDuration is the span under which a dated program counts as a
// short course rather than formal education.
const shortCourseDuration = 90 * 24 * time.Hour

// Formal-education keywords in the credential field force "education"
// regardless of any other signal.
var formalCredentialKeywords = []string{
	"bachelor", "master", "doctor", "phd", "associate", "diploma", "degree",
	"bsn", "msn", "dnp", "adn", "asn", "lpn program", "b.s", "m.s", "a.s",
	"bs ", "ms ", "ba ", "ma ",
}

// Short-course keywords in the credential or institution field force
// "short course".
var shortCourseKeywords = []string{
	"certification", "certificate", "course", "bootcamp", "workshop",
	"training", "seminar", "webinar", "ceu", "continuing education",
	"refresher",
}

var formalInstitutionKeywords = []string{
	"university", "college",
}

// Known training platforms in the institution field imply a short course.
var trainingPlatforms = []string{
	"udemy", "coursera", "linkedin learning", "edx", "skillshare",
	"pluralsight", "khan academy", "red cross", "american heart association",
	"relias", "medbridge",
}

var shortCourseInstitutionWords = []string{
	"course", "workshop", "training",
}

var shortCourseNarrativeKeywords = []string{
	"online course", "completed course", "short course", "certificate of completion",
	"self-paced", "ceu",
}

// classifyEducation splits raw education entries into formal education and
// short courses. Rules are applied in priority order and the first matching
// rule wins; no entry is classified by more than one rule, so the two
// buckets are mutually exclusive by construction.
func classifyEducation(entries []rawEducation) ([]types.Education, []types.ShortCourse) {
	education := []types.Education{}
	shortCourses := []types.ShortCourse{}

	for _, entry := range entries {
		if isShortCourse(entry) {
			shortCourses = append(shortCourses, types.ShortCourse{
				Name:      strings.TrimSpace(entry.Credential),
				Issuer:    strings.TrimSpace(entry.Institution),
				Date:      completionDate(entry),
				Narrative: strings.TrimSpace(entry.Narrative),
			})
			continue
		}
		education = append(education, types.Education{
			Credential:     strings.TrimSpace(entry.Credential),
			Institution:    strings.TrimSpace(entry.Institution),
			Location:       strings.TrimSpace(entry.Location),
			GraduationDate: completionDate(entry),
			Narrative:      strings.TrimSpace(entry.Narrative),
			IsInProgress:   entry.InProgress,
		})
	}
	return education, shortCourses
}

func isShortCourse(entry rawEducation) bool {
	credential := strings.ToLower(entry.Credential)
	institution := strings.ToLower(entry.Institution)

	// (a) explicit formal-education keywords win over everything.
	if containsAny(credential, formalCredentialKeywords) {
		return false
	}
	// (b) explicit short-course keywords in credential or institution.
	if containsAny(credential, shortCourseKeywords) || containsAny(institution, shortCourseKeywords) {
		return true
	}
	// (c) institution-name heuristics.
	if containsAny(institution, formalInstitutionKeywords) {
		return false
	}
	if containsAny(institution, trainingPlatforms) || containsAny(institution, shortCourseInstitutionWords) {
		return true
	}
	// (d) duration heuristic: a parseable span under ~90 days is a course.
	if start, ok := parseDate(entry.StartDate); ok {
		if end, ok := parseDate(firstNonEmpty(entry.EndDate, entry.GraduationDate)); ok {
			if end.Sub(start) >= 0 && end.Sub(start) < shortCourseDuration {
				return true
			}
		}
	}
	// (e) narrative-text keyword fallback.
	return containsAny(strings.ToLower(entry.Narrative), shortCourseNarrativeKeywords)
}

func completionDate(entry rawEducation) string {
	return firstNonEmpty(entry.GraduationDate, entry.EndDate)
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// dateLayouts are the formats imported dates commonly arrive in.
var dateLayouts = []string{
	"2006-01-02", "2006-01", "2006", "01/02/2006", "01/2006",
	"Jan 2006", "January 2006", "Jan 2, 2006", "January 2, 2006",
}

func parseDate(raw string) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
