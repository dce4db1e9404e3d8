// Package importer is the deterministic raw-to-canonical import pipeline:
// alias adaptation, structural validation, education/short-course
// classification, competency extraction and controlled-vocabulary matching.
// Normalize is a pure function of its input; no randomness participates in
// any classification decision.
package importer

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/resume-builder/internal/types"
	"github.com/jonathan/resume-builder/internal/vocab"
)

//go:embed raw_resume.schema.json
var rawResumeSchema []byte

// RejectionError reports that a raw import failed structural validation. No
// partial canonical document is ever produced alongside one.
type RejectionError struct {
	Reasons []string
}

func (e *RejectionError) Error() string {
	if len(e.Reasons) == 0 {
		return "import rejected: raw payload failed structural validation"
	}
	return "import rejected: " + strings.Join(e.Reasons, "; ")
}

// rawResume is the canonical intermediate the adapter produces. Internal
// stages only ever see these field names.
type rawResume struct {
	Identity       *rawIdentity       `json:"identity"`
	Summary        string             `json:"summary"`
	Positions      []rawPosition      `json:"positions"`
	Education      []rawEducation     `json:"education"`
	Competencies   []string           `json:"competencies"`
	Licenses       []rawLicense       `json:"licenses"`
	Certifications []rawCertification `json:"certifications"`
	Software       []string           `json:"software"`
	Associations   []string           `json:"associations"`
	Recognitions   []string           `json:"recognitions"`
	Volunteering   []rawVolunteer     `json:"volunteering"`
	Languages      []any              `json:"languages"`
}

type rawIdentity struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	City      string `json:"city"`
	State     string `json:"state"`
}

type rawPosition struct {
	Title        string `json:"title"`
	Organization string `json:"organization"`
	Location     string `json:"location"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	IsCurrent    bool   `json:"is_current"`
	Narrative    string `json:"narrative"`
}

type rawEducation struct {
	Credential     string `json:"credential"`
	Institution    string `json:"institution"`
	Location       string `json:"location"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	GraduationDate string `json:"graduation_date"`
	Narrative      string `json:"narrative"`
	InProgress     bool   `json:"in_progress"`
}

type rawLicense struct {
	Type         string `json:"type"`
	Jurisdiction string `json:"jurisdiction"`
	Number       string `json:"number"`
	Expiration   string `json:"expiration"`
	Compact      bool   `json:"compact"`
}

type rawCertification struct {
	Name       string `json:"name"`
	Issuer     string `json:"issuer"`
	Expiration string `json:"expiration"`
	Date       string `json:"date"`
}

type rawVolunteer struct {
	Organization string `json:"organization"`
	Role         string `json:"role"`
	Narrative    string `json:"narrative"`
}

// Normalize transforms an arbitrary raw import payload into the canonical
// document. It rejects structurally invalid payloads with a RejectionError
// and otherwise applies the classification stages in fixed order.
func Normalize(raw any) (*types.CanonicalDocument, error) {
	adapted, ok := adapt(raw)
	if !ok {
		return nil, &RejectionError{Reasons: []string{"raw payload must be a non-array object"}}
	}
	if err := validateStructure(adapted); err != nil {
		return nil, err
	}

	var r rawResume
	encoded, err := json.Marshal(adapted)
	if err != nil {
		return nil, fmt.Errorf("failed to encode adapted payload: %w", err)
	}
	if err := json.Unmarshal(encoded, &r); err != nil {
		return nil, &RejectionError{Reasons: []string{"payload fields are not well-typed: " + err.Error()}}
	}

	doc := types.DefaultDocument()

	if r.Identity != nil {
		doc.Identity = &types.Identity{
			FirstName: strings.TrimSpace(r.Identity.FirstName),
			LastName:  strings.TrimSpace(r.Identity.LastName),
			Email:     strings.TrimSpace(r.Identity.Email),
			Phone:     strings.TrimSpace(r.Identity.Phone),
			City:      strings.TrimSpace(r.Identity.City),
			State:     strings.TrimSpace(r.Identity.State),
		}
	}
	doc.Narrative = strings.TrimSpace(r.Summary)

	for _, p := range r.Positions {
		doc.Positions = append(doc.Positions, types.Position{
			Title:        strings.TrimSpace(p.Title),
			Organization: strings.TrimSpace(p.Organization),
			Location:     strings.TrimSpace(p.Location),
			StartDate:    p.StartDate,
			EndDate:      p.EndDate,
			IsCurrent:    p.IsCurrent,
			Narrative:    strings.TrimSpace(p.Narrative),
		})
	}

	// Stage 2: education / short-course split. Mutually exclusive by
	// construction: each entry lands in exactly one bucket.
	doc.Education, doc.ShortCourses = classifyEducation(r.Education)

	// Stage 3 + 4: competency extraction and vocabulary matching.
	languages, platformIDs, skillIDs, generic := extractCompetencies(r.Competencies)
	doc.Competencies = generic
	doc.Supplemental.Languages = languages
	doc.DomainSkills.PlatformIDs = platformIDs
	doc.DomainSkills.SkillIDs = skillIDs

	mergeRawLanguages(doc, r.Languages)
	matchSoftware(doc, r.Software)
	matchCertifications(doc, r.Certifications)
	matchAssociations(doc, r.Associations)
	matchRecognitions(doc, r.Recognitions)

	// Stage 5: specialty inference over titles and narratives.
	doc.DomainSkills.SpecialtyID = inferSpecialty(doc)

	// Stage 6: license mapping.
	doc.Licenses = mapLicenses(r.Licenses)

	for _, v := range r.Volunteering {
		doc.Supplemental.Volunteering = append(doc.Supplemental.Volunteering, types.VolunteerEntry{
			Organization: strings.TrimSpace(v.Organization),
			Role:         strings.TrimSpace(v.Role),
			Narrative:    strings.TrimSpace(v.Narrative),
		})
	}

	return doc, nil
}

// validateStructure enforces stage 1: the adapted payload must be an object
// with at least one well-typed anchor block.
func validateStructure(adapted map[string]any) error {
	document, err := json.Marshal(adapted)
	if err != nil {
		return fmt.Errorf("failed to encode payload for validation: %w", err)
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(rawResumeSchema),
		gojsonschema.NewBytesLoader(document),
	)
	if err != nil {
		return fmt.Errorf("schema validation failed to run: %w", err)
	}
	if result.Valid() {
		return nil
	}
	reasons := make([]string, 0, len(result.Errors()))
	for _, resErr := range result.Errors() {
		reasons = append(reasons, fmt.Sprintf("%s: %s", resErr.Field(), resErr.Description()))
	}
	return &RejectionError{Reasons: reasons}
}

func inferSpecialty(doc *types.CanonicalDocument) string {
	var sb strings.Builder
	for _, p := range doc.Positions {
		sb.WriteString(p.Title)
		sb.WriteString(" ")
		sb.WriteString(p.Narrative)
		sb.WriteString(" ")
	}
	sb.WriteString(doc.Narrative)
	return vocab.InferSpecialty(sb.String())
}
