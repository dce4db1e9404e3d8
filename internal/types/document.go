// Package types provides type definitions for the canonical resume document
// shared by every storage backend and the import pipeline.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// CanonicalDocument is the one true internal representation of a resume,
// independent of storage backend or import source. Sections are mutated only
// by whole-section replacement via ReplaceSection.
type CanonicalDocument struct {
	Identity     *Identity     `json:"identity" validate:"required"`
	Narrative    string        `json:"narrative,omitempty"`
	Positions    []Position    `json:"positions"`
	Education    []Education   `json:"education"`
	ShortCourses []ShortCourse `json:"short_courses"`
	Competencies []string      `json:"competencies"`
	Licenses     []License     `json:"licenses"`
	Credentials  []Credential  `json:"credentials"`
	DomainSkills DomainSkills  `json:"domain_skills"`
	Supplemental Supplemental  `json:"supplemental"`
}

// Identity holds the contact block. All fields are optional strings; the
// block itself must be present before a document can be persisted.
type Identity struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
}

// Position is a single work history entry. Slice order is insertion order
// and is meaningful (renders top to bottom).
type Position struct {
	Title        string `json:"title"`
	Organization string `json:"organization"`
	Location     string `json:"location,omitempty"`
	StartDate    string `json:"start_date,omitempty"`
	EndDate      string `json:"end_date,omitempty"`
	IsCurrent    bool   `json:"is_current,omitempty"`
	Narrative    string `json:"narrative,omitempty"`
}

// Education is a formal education entry (degree programs).
type Education struct {
	Credential     string `json:"credential"`
	Institution    string `json:"institution"`
	Location       string `json:"location,omitempty"`
	GraduationDate string `json:"graduation_date,omitempty"`
	Narrative      string `json:"narrative,omitempty"`
	IsInProgress   bool   `json:"is_in_progress,omitempty"`
}

// ShortCourse is a certificate-style course distinct from formal education.
// The import pipeline guarantees no entry appears in both Education and
// ShortCourses.
type ShortCourse struct {
	Name      string `json:"name"`
	Issuer    string `json:"issuer,omitempty"`
	Date      string `json:"date,omitempty"`
	Narrative string `json:"narrative,omitempty"`
}

// License is a professional license entry.
type License struct {
	Type                string `json:"type"`
	Jurisdiction        string `json:"jurisdiction,omitempty"`
	Number              string `json:"number,omitempty"`
	IsMultiJurisdiction bool   `json:"is_multi_jurisdiction,omitempty"`
	Expiration          string `json:"expiration,omitempty"`
}

// Credential is a controlled-vocabulary certification. ID is the vocabulary
// key, never free text.
type Credential struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Expiration  string `json:"expiration,omitempty"`
	Issuer      string `json:"issuer,omitempty"`
}

// DomainSkills is the structured skill bag: vocabulary-matched platform and
// skill ids plus free-text custom skills that matched nothing.
type DomainSkills struct {
	PlatformIDs  []string `json:"platform_ids"`
	SkillIDs     []string `json:"skill_ids"`
	SpecialtyID  string   `json:"specialty_id,omitempty"`
	CustomSkills []string `json:"custom_skills"`
}

// Language is an extracted language proficiency.
type Language struct {
	Language    string `json:"language"`
	Proficiency string `json:"proficiency"`
}

// Affiliation is a professional-association membership. ID is set when the
// association matched the controlled vocabulary, empty for custom entries.
type Affiliation struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// Honor is an award or recognition entry.
type Honor struct {
	ID     string `json:"id,omitempty"`
	Title  string `json:"title"`
	Issuer string `json:"issuer,omitempty"`
	Date   string `json:"date,omitempty"`
}

// VolunteerEntry is an unpaid-work entry.
type VolunteerEntry struct {
	Organization string `json:"organization"`
	Role         string `json:"role,omitempty"`
	Narrative    string `json:"narrative,omitempty"`
}

// Project is a side-project entry.
type Project struct {
	Name      string `json:"name"`
	Narrative string `json:"narrative,omitempty"`
}

// CustomBlock is a user-defined free-form section.
type CustomBlock struct {
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
}

// Supplemental is the catch-all extensible area of the document.
type Supplemental struct {
	ShortCoursesLegacy []ShortCourse    `json:"short_courses_legacy,omitempty"`
	Affiliations       []Affiliation    `json:"affiliations,omitempty"`
	Volunteering       []VolunteerEntry `json:"volunteering,omitempty"`
	Honors             []Honor          `json:"honors,omitempty"`
	Projects           []Project        `json:"projects,omitempty"`
	Languages          []Language       `json:"languages,omitempty"`
	CustomBlocks       []CustomBlock    `json:"custom_blocks,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the invariants a document must satisfy before any save is
// attempted. A document without an identity block is not persistable.
func (d *CanonicalDocument) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("document validation failed: %w", err)
	}
	return nil
}

// Clone returns a deep copy via a JSON round trip.
func (d *CanonicalDocument) Clone() (*CanonicalDocument, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to clone document: %w", err)
	}
	var out CanonicalDocument
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to clone document: %w", err)
	}
	return &out, nil
}

// Snapshot returns the serialized form used for no-op write detection.
func (d *CanonicalDocument) Snapshot() ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot document: %w", err)
	}
	return data, nil
}

// ContentEqual reports whether two documents serialize identically.
func ContentEqual(a, b *CanonicalDocument) bool {
	if a == nil || b == nil {
		return a == b
	}
	sa, err := a.Snapshot()
	if err != nil {
		return false
	}
	sb, err := b.Snapshot()
	if err != nil {
		return false
	}
	return bytes.Equal(sa, sb)
}

// ReplaceSection replaces one whole section of the document. It is the only
// supported mutation path; partial in-place field edits bypass the section
// boundary and are not allowed.
func (d *CanonicalDocument) ReplaceSection(key string, value any) error {
	switch key {
	case SectionIdentity:
		v, ok := value.(Identity)
		if !ok {
			return sectionTypeError(key, value)
		}
		d.Identity = &v
	case SectionNarrative:
		v, ok := value.(string)
		if !ok {
			return sectionTypeError(key, value)
		}
		d.Narrative = v
	case SectionPositions:
		v, ok := value.([]Position)
		if !ok {
			return sectionTypeError(key, value)
		}
		d.Positions = v
	case SectionEducation:
		v, ok := value.([]Education)
		if !ok {
			return sectionTypeError(key, value)
		}
		d.Education = v
	case SectionShortCourses:
		v, ok := value.([]ShortCourse)
		if !ok {
			return sectionTypeError(key, value)
		}
		d.ShortCourses = v
	case SectionCompetencies:
		v, ok := value.([]string)
		if !ok {
			return sectionTypeError(key, value)
		}
		d.Competencies = dedupeFold(v)
	case SectionLicenses:
		v, ok := value.([]License)
		if !ok {
			return sectionTypeError(key, value)
		}
		d.Licenses = v
	case SectionCredentials:
		v, ok := value.([]Credential)
		if !ok {
			return sectionTypeError(key, value)
		}
		d.Credentials = v
	case SectionDomainSkills:
		v, ok := value.(DomainSkills)
		if !ok {
			return sectionTypeError(key, value)
		}
		d.DomainSkills = v
	case SectionSupplemental:
		v, ok := value.(Supplemental)
		if !ok {
			return sectionTypeError(key, value)
		}
		d.Supplemental = v
	default:
		return fmt.Errorf("unknown section key: %s", key)
	}
	return nil
}

func sectionTypeError(key string, value any) error {
	return fmt.Errorf("wrong payload type %T for section %s", value, key)
}
