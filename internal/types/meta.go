package types

import (
	"strings"
	"time"
)

// Section key constants. SectionOrder in DocumentMeta is a permutation of
// these.
const (
	SectionIdentity     = "identity"
	SectionNarrative    = "narrative"
	SectionPositions    = "positions"
	SectionEducation    = "education"
	SectionShortCourses = "short_courses"
	SectionCompetencies = "competencies"
	SectionLicenses     = "licenses"
	SectionCredentials  = "credentials"
	SectionDomainSkills = "domain_skills"
	SectionSupplemental = "supplemental"
)

// DefaultTemplateID is the template applied to documents created empty.
const DefaultTemplateID = "classic"

// DocumentMeta is storage-owned metadata kept separate from content. ID is
// empty until a backend assigns one (or the ephemeral backend synthesizes
// one); at most one id is authoritative at a time.
type DocumentMeta struct {
	ID           string    `json:"id,omitempty"`
	Title        string    `json:"title,omitempty"`
	TemplateID   string    `json:"template_id,omitempty"`
	LastUpdated  time.Time `json:"last_updated,omitempty"`
	SectionOrder []string  `json:"section_order,omitempty"`
}

// SectionKeys returns the default render order of document sections.
func SectionKeys() []string {
	return []string{
		SectionIdentity,
		SectionNarrative,
		SectionPositions,
		SectionEducation,
		SectionShortCourses,
		SectionCompetencies,
		SectionLicenses,
		SectionCredentials,
		SectionDomainSkills,
		SectionSupplemental,
	}
}

// DefaultDocument builds an empty document from the fixed default template.
// The identity block is present but empty so the document is persistable.
func DefaultDocument() *CanonicalDocument {
	return &CanonicalDocument{
		Identity:     &Identity{},
		Positions:    []Position{},
		Education:    []Education{},
		ShortCourses: []ShortCourse{},
		Competencies: []string{},
		Licenses:     []License{},
		Credentials:  []Credential{},
		DomainSkills: DomainSkills{
			PlatformIDs:  []string{},
			SkillIDs:     []string{},
			CustomSkills: []string{},
		},
	}
}

// DefaultMeta builds metadata for a freshly created document.
func DefaultMeta() DocumentMeta {
	return DocumentMeta{
		TemplateID:   DefaultTemplateID,
		SectionOrder: SectionKeys(),
	}
}

// dedupeFold removes case-insensitive duplicates while preserving the order
// of first occurrence. Competencies are a set under case folding.
func dedupeFold(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
