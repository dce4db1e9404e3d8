// Package vocab holds the controlled vocabularies the import pipeline
// matches free-text items against, and the matcher shared by all of them.
package vocab

import (
	"strings"
	"unicode"
)

// Entry is one known entity in a controlled vocabulary. Aliases cover the
// spellings the entity commonly appears under in imported resumes.
type Entry struct {
	ID      string
	Name    string
	Aliases []string
}

// Certifications is the known-certification vocabulary.
var Certifications = []Entry{
	{ID: "cert_bls", Name: "Basic Life Support", Aliases: []string{"BLS", "BLS Certification", "CPR/BLS"}},
	{ID: "cert_acls", Name: "Advanced Cardiovascular Life Support", Aliases: []string{"ACLS", "ACLS Certification"}},
	{ID: "cert_pals", Name: "Pediatric Advanced Life Support", Aliases: []string{"PALS"}},
	{ID: "cert_nrp", Name: "Neonatal Resuscitation Program", Aliases: []string{"NRP"}},
	{ID: "cert_tncc", Name: "Trauma Nursing Core Course", Aliases: []string{"TNCC"}},
	{ID: "cert_nihss", Name: "NIH Stroke Scale", Aliases: []string{"NIHSS", "NIH Stroke Scale Certification"}},
	{ID: "cert_ccrn", Name: "Critical Care Registered Nurse", Aliases: []string{"CCRN"}},
	{ID: "cert_cen", Name: "Certified Emergency Nurse", Aliases: []string{"CEN"}},
	{ID: "cert_cnor", Name: "Certified Perioperative Nurse", Aliases: []string{"CNOR"}},
	{ID: "cert_ocn", Name: "Oncology Certified Nurse", Aliases: []string{"OCN"}},
	{ID: "cert_cmsrn", Name: "Certified Medical-Surgical Registered Nurse", Aliases: []string{"CMSRN"}},
	{ID: "cert_rnc_ob", Name: "Inpatient Obstetric Nursing", Aliases: []string{"RNC-OB"}},
}

// Platforms is the known clinical-software vocabulary.
var Platforms = []Entry{
	{ID: "platform_epic", Name: "Epic", Aliases: []string{"Epic EHR", "Epic Systems", "EpicCare"}},
	{ID: "platform_cerner", Name: "Cerner", Aliases: []string{"Cerner EHR", "Oracle Cerner", "PowerChart"}},
	{ID: "platform_meditech", Name: "Meditech", Aliases: []string{"MEDITECH Expanse"}},
	{ID: "platform_allscripts", Name: "Allscripts", Aliases: []string{"Allscripts EHR"}},
	{ID: "platform_athena", Name: "athenahealth", Aliases: []string{"Athena", "athenaOne"}},
	{ID: "platform_eclinicalworks", Name: "eClinicalWorks", Aliases: []string{"eCW"}},
	{ID: "platform_pyxis", Name: "Pyxis", Aliases: []string{"Pyxis MedStation"}},
}

// ClinicalSkills is the known clinical-skill vocabulary.
var ClinicalSkills = []Entry{
	{ID: "skill_wound_care", Name: "Wound Care", Aliases: []string{"Wound Management", "Wound Dressing"}},
	{ID: "skill_iv_insertion", Name: "IV Insertion", Aliases: []string{"IV Starts", "Peripheral IV Insertion"}},
	{ID: "skill_med_admin", Name: "Medication Administration", Aliases: []string{"Med Administration", "Med Pass"}},
	{ID: "skill_patient_assessment", Name: "Patient Assessment", Aliases: []string{"Head-to-Toe Assessment"}},
	{ID: "skill_telemetry", Name: "Telemetry Monitoring", Aliases: []string{"Telemetry", "Cardiac Monitoring"}},
	{ID: "skill_phlebotomy", Name: "Phlebotomy", Aliases: []string{"Blood Draws", "Venipuncture"}},
	{ID: "skill_catheter_care", Name: "Catheter Care", Aliases: []string{"Foley Catheter", "Urinary Catheter Insertion"}},
	{ID: "skill_ventilator", Name: "Ventilator Management", Aliases: []string{"Vent Management", "Mechanical Ventilation"}},
	{ID: "skill_triage", Name: "Triage", Aliases: []string{"ESI Triage"}},
	{ID: "skill_charting", Name: "Clinical Documentation", Aliases: []string{"Charting", "Nursing Documentation"}},
}

// Associations is the known professional-body vocabulary.
var Associations = []Entry{
	{ID: "assoc_ana", Name: "American Nurses Association", Aliases: []string{"ANA"}},
	{ID: "assoc_aacn", Name: "American Association of Critical-Care Nurses", Aliases: []string{"AACN"}},
	{ID: "assoc_ena", Name: "Emergency Nurses Association", Aliases: []string{"ENA"}},
	{ID: "assoc_aorn", Name: "Association of periOperative Registered Nurses", Aliases: []string{"AORN"}},
	{ID: "assoc_awhonn", Name: "Association of Women's Health, Obstetric and Neonatal Nurses", Aliases: []string{"AWHONN"}},
	{ID: "assoc_nsna", Name: "National Student Nurses Association", Aliases: []string{"NSNA"}},
	{ID: "assoc_ons", Name: "Oncology Nursing Society", Aliases: []string{"ONS"}},
}

// Recognitions is the known-award vocabulary.
var Recognitions = []Entry{
	{ID: "recog_daisy", Name: "DAISY Award", Aliases: []string{"The DAISY Award", "DAISY Nurse Award"}},
	{ID: "recog_nurse_of_year", Name: "Nurse of the Year", Aliases: []string{}},
	{ID: "recog_deans_list", Name: "Dean's List", Aliases: []string{"Deans List"}},
	{ID: "recog_employee_of_month", Name: "Employee of the Month", Aliases: []string{}},
}

// Normalize lowercases, trims, strips punctuation and collapses whitespace
// so string comparison ignores formatting noise.
func Normalize(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '/':
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Match compares raw against a vocabulary: exact normalized match first,
// then substring containment in either direction. First match wins; entries
// are tried in order of definition.
func Match(entries []Entry, raw string) (Entry, bool) {
	needle := Normalize(raw)
	if needle == "" {
		return Entry{}, false
	}
	for _, entry := range entries {
		for _, candidate := range append([]string{entry.Name}, entry.Aliases...) {
			if Normalize(candidate) == needle {
				return entry, true
			}
		}
	}
	for _, entry := range entries {
		for _, candidate := range append([]string{entry.Name}, entry.Aliases...) {
			n := Normalize(candidate)
			if n == "" {
				continue
			}
			if strings.Contains(needle, n) || strings.Contains(n, needle) {
				return entry, true
			}
		}
	}
	return Entry{}, false
}

// Lookup finds a vocabulary entry by its id.
func Lookup(entries []Entry, id string) (Entry, bool) {
	for _, entry := range entries {
		if entry.ID == id {
			return entry, true
		}
	}
	return Entry{}, false
}
