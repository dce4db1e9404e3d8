package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_StripsFormattingNoise(t *testing.T) {
	assert.Equal(t, "wound care", Normalize("  Wound-Care! "))
	assert.Equal(t, "epic ehr", Normalize("Epic / EHR"))
	assert.Equal(t, "", Normalize("  ...  "))
}

func TestMatch_ExactBeatsContainment(t *testing.T) {
	entry, ok := Match(Platforms, "Cerner")
	require.True(t, ok)
	assert.Equal(t, "platform_cerner", entry.ID)
}

func TestMatch_AliasAndContainment(t *testing.T) {
	entry, ok := Match(Platforms, "Oracle Cerner")
	require.True(t, ok)
	assert.Equal(t, "platform_cerner", entry.ID)

	entry, ok = Match(ClinicalSkills, "wound care and dressing changes")
	require.True(t, ok)
	assert.Equal(t, "skill_wound_care", entry.ID)

	_, ok = Match(ClinicalSkills, "budget planning")
	assert.False(t, ok)
}

func TestLookup_FindsByID(t *testing.T) {
	entry, ok := Lookup(Certifications, "cert_bls")
	require.True(t, ok)
	assert.Equal(t, "Basic Life Support", entry.Name)

	_, ok = Lookup(Certifications, "cert_unknown")
	assert.False(t, ok)
}

func TestExtractLanguage_ProficiencyPhrases(t *testing.T) {
	cases := map[string]string{
		"Fluent in Spanish":  "Spanish",
		"Spanish speaker":    "Spanish",
		"Bilingual in Hindi": "Hindi",
		"Tagalog":            "Tagalog",
	}
	for raw, want := range cases {
		name, ok := ExtractLanguage(raw)
		require.True(t, ok, "expected %q to extract a language", raw)
		assert.Equal(t, want, name)
	}
}

func TestExtractLanguage_RejectsNonLanguages(t *testing.T) {
	for _, raw := range []string{"Wound Care", "Fluent in Excel", "Team Player", ""} {
		_, ok := ExtractLanguage(raw)
		assert.False(t, ok, "expected %q to not extract a language", raw)
	}
}

func TestInferSpecialty_FirstHitWins(t *testing.T) {
	assert.Equal(t, "spec_icu", InferSpecialty("Critical care nurse on a telemetry unit"))
	assert.Equal(t, "spec_tele", InferSpecialty("Nurse on a telemetry unit"))
	assert.Equal(t, "", InferSpecialty("Software developer"))
}

func TestNormalizeJurisdiction(t *testing.T) {
	assert.Equal(t, "TX", NormalizeJurisdiction("Texas"))
	assert.Equal(t, "TX", NormalizeJurisdiction("tx"))
	assert.Equal(t, "CA", NormalizeJurisdiction("California"))
	assert.Equal(t, "", NormalizeJurisdiction("Ontario"))
	assert.Equal(t, "", NormalizeJurisdiction("ZZ"))
}

func TestIsCompactState(t *testing.T) {
	assert.True(t, IsCompactState("TX"))
	assert.True(t, IsCompactState("tx"))
	assert.False(t, IsCompactState("CA"))
	assert.False(t, IsCompactState(""))
}
