package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() *CanonicalDocument {
	doc := DefaultDocument()
	doc.Identity = &Identity{
		FirstName: "Maria",
		LastName:  "Alvarez",
		Email:     "maria@example.com",
	}
	doc.Narrative = "Telemetry nurse with six years of acute care experience."
	doc.Positions = []Position{
		{Title: "Staff Nurse", Organization: "Riverside Medical Center", IsCurrent: true},
	}
	return doc
}

func TestValidate_RequiresIdentityBlock(t *testing.T) {
	doc := sampleDocument()
	require.NoError(t, doc.Validate())

	doc.Identity = nil
	assert.Error(t, doc.Validate())
}

func TestClone_IsDeepCopy(t *testing.T) {
	doc := sampleDocument()
	clone, err := doc.Clone()
	require.NoError(t, err)
	require.True(t, ContentEqual(doc, clone))

	clone.Positions[0].Title = "Charge Nurse"
	assert.Equal(t, "Staff Nurse", doc.Positions[0].Title)
	assert.False(t, ContentEqual(doc, clone))
}

func TestContentEqual_NilHandling(t *testing.T) {
	doc := sampleDocument()
	assert.True(t, ContentEqual(nil, nil))
	assert.False(t, ContentEqual(doc, nil))
	assert.False(t, ContentEqual(nil, doc))
}

func TestReplaceSection_ReplacesWholeSection(t *testing.T) {
	doc := sampleDocument()

	err := doc.ReplaceSection(SectionPositions, []Position{
		{Title: "Charge Nurse", Organization: "Riverside Medical Center"},
		{Title: "Staff Nurse", Organization: "County General"},
	})
	require.NoError(t, err)
	require.Len(t, doc.Positions, 2)
	assert.Equal(t, "Charge Nurse", doc.Positions[0].Title)

	err = doc.ReplaceSection(SectionNarrative, "Updated summary.")
	require.NoError(t, err)
	assert.Equal(t, "Updated summary.", doc.Narrative)
}

func TestReplaceSection_DeduplicatesCompetencies(t *testing.T) {
	doc := sampleDocument()
	err := doc.ReplaceSection(SectionCompetencies, []string{
		"Wound Care", "wound care", "  ", "Triage", "TRIAGE",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Wound Care", "Triage"}, doc.Competencies)
}

func TestReplaceSection_RejectsWrongType(t *testing.T) {
	doc := sampleDocument()
	assert.Error(t, doc.ReplaceSection(SectionPositions, "not a slice"))
	assert.Error(t, doc.ReplaceSection(SectionNarrative, 42))
	assert.Error(t, doc.ReplaceSection("unknown_section", "x"))
}

func TestDefaultDocument_IsPersistable(t *testing.T) {
	doc := DefaultDocument()
	assert.NoError(t, doc.Validate())
}

func TestDefaultMeta_UsesDefaultTemplateAndOrder(t *testing.T) {
	meta := DefaultMeta()
	assert.Equal(t, DefaultTemplateID, meta.TemplateID)
	assert.Equal(t, SectionKeys(), meta.SectionOrder)
	assert.Empty(t, meta.ID)
}
