// Package completion derives per-section completeness from canonical
// document content. Predicates are pure and always recomputed from the
// current content. Completion is never persisted as state that can drift.
package completion

import (
	"strings"

	"github.com/jonathan/resume-builder/internal/types"
)

// Thresholds for the section predicates.
const (
	// MinPositionNarrative is the shortest position narrative that counts.
	MinPositionNarrative = 40
	// MinCompetencies is the smallest competency set that counts.
	MinCompetencies = 3
	// MinSummaryLength is the shortest narrative summary that counts.
	MinSummaryLength = 50
)

// Progress returns the full section-key to completeness map for a document.
func Progress(doc *types.CanonicalDocument) map[string]bool {
	if doc == nil {
		doc = types.DefaultDocument()
	}
	return map[string]bool{
		types.SectionIdentity:     IdentityComplete(doc),
		types.SectionNarrative:    NarrativeComplete(doc),
		types.SectionPositions:    PositionsComplete(doc),
		types.SectionEducation:    EducationComplete(doc),
		types.SectionShortCourses: ShortCoursesComplete(doc),
		types.SectionCompetencies: CompetenciesComplete(doc),
		types.SectionLicenses:     LicensesComplete(doc),
		types.SectionCredentials:  CredentialsComplete(doc),
		types.SectionDomainSkills: DomainSkillsComplete(doc),
		types.SectionSupplemental: SupplementalComplete(doc),
	}
}

// IdentityComplete requires a name and at least one contact field.
func IdentityComplete(doc *types.CanonicalDocument) bool {
	id := doc.Identity
	if id == nil {
		return false
	}
	hasName := strings.TrimSpace(id.FirstName) != "" && strings.TrimSpace(id.LastName) != ""
	hasContact := strings.TrimSpace(id.Email) != "" || strings.TrimSpace(id.Phone) != ""
	return hasName && hasContact
}

// NarrativeComplete requires a summary of at least MinSummaryLength runes.
func NarrativeComplete(doc *types.CanonicalDocument) bool {
	return len(strings.TrimSpace(doc.Narrative)) >= MinSummaryLength
}

// PositionsComplete requires at least one entry with a title, an
// organization, and a narrative of at least MinPositionNarrative runes.
func PositionsComplete(doc *types.CanonicalDocument) bool {
	for _, p := range doc.Positions {
		if strings.TrimSpace(p.Title) != "" &&
			strings.TrimSpace(p.Organization) != "" &&
			len(strings.TrimSpace(p.Narrative)) >= MinPositionNarrative {
			return true
		}
	}
	return false
}

// EducationComplete requires at least one entry with a credential and an
// institution.
func EducationComplete(doc *types.CanonicalDocument) bool {
	for _, e := range doc.Education {
		if strings.TrimSpace(e.Credential) != "" && strings.TrimSpace(e.Institution) != "" {
			return true
		}
	}
	return false
}

// ShortCoursesComplete requires at least one named course.
func ShortCoursesComplete(doc *types.CanonicalDocument) bool {
	for _, c := range doc.ShortCourses {
		if strings.TrimSpace(c.Name) != "" {
			return true
		}
	}
	return false
}

// CompetenciesComplete requires at least MinCompetencies entries.
func CompetenciesComplete(doc *types.CanonicalDocument) bool {
	return len(doc.Competencies) >= MinCompetencies
}

// LicensesComplete requires at least one license with a type and a
// jurisdiction.
func LicensesComplete(doc *types.CanonicalDocument) bool {
	for _, l := range doc.Licenses {
		if strings.TrimSpace(l.Type) != "" && strings.TrimSpace(l.Jurisdiction) != "" {
			return true
		}
	}
	return false
}

// CredentialsComplete requires at least one vocabulary-matched credential.
func CredentialsComplete(doc *types.CanonicalDocument) bool {
	return len(doc.Credentials) > 0
}

// DomainSkillsComplete requires either a matched platform or skill, or a
// declared specialty.
func DomainSkillsComplete(doc *types.CanonicalDocument) bool {
	ds := doc.DomainSkills
	return len(ds.PlatformIDs) > 0 || len(ds.SkillIDs) > 0 || ds.SpecialtyID != ""
}

// SupplementalComplete requires any populated supplemental bucket.
func SupplementalComplete(doc *types.CanonicalDocument) bool {
	s := doc.Supplemental
	return len(s.ShortCoursesLegacy) > 0 ||
		len(s.Affiliations) > 0 ||
		len(s.Volunteering) > 0 ||
		len(s.Honors) > 0 ||
		len(s.Projects) > 0 ||
		len(s.Languages) > 0 ||
		len(s.CustomBlocks) > 0
}
