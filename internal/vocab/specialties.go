package vocab

import "strings"

// Specialty associates a named specialty with the keyword set that implies
// it. Inference picks the first specialty whose keyword set hits any term,
// in order of definition; there is no scoring.
type Specialty struct {
	ID       string
	Name     string
	Keywords []string
}

// Specialties in inference priority order.
var Specialties = []Specialty{
	{ID: "spec_icu", Name: "Critical Care / ICU", Keywords: []string{"icu", "intensive care", "critical care", "ccu", "sicu", "micu"}},
	{ID: "spec_er", Name: "Emergency", Keywords: []string{"emergency", "er ", " ed ", "trauma", "triage"}},
	{ID: "spec_or", Name: "Perioperative / OR", Keywords: []string{"operating room", "perioperative", "surgical services", "scrub nurse", "circulating nurse"}},
	{ID: "spec_ld", Name: "Labor & Delivery", Keywords: []string{"labor and delivery", "l&d", "obstetric", "postpartum", "antepartum"}},
	{ID: "spec_peds", Name: "Pediatrics", Keywords: []string{"pediatric", "peds", "nicu", "picu", "neonatal"}},
	{ID: "spec_onc", Name: "Oncology", Keywords: []string{"oncology", "chemotherapy", "infusion"}},
	{ID: "spec_tele", Name: "Telemetry / Stepdown", Keywords: []string{"telemetry", "stepdown", "step-down", "progressive care"}},
	{ID: "spec_medsurg", Name: "Medical-Surgical", Keywords: []string{"med-surg", "med surg", "medical surgical", "medical-surgical"}},
	{ID: "spec_psych", Name: "Psychiatric / Behavioral Health", Keywords: []string{"psychiatric", "behavioral health", "mental health"}},
	{ID: "spec_home", Name: "Home Health", Keywords: []string{"home health", "home care", "hospice", "palliative"}},
}

// InferSpecialty scans text for specialty keywords and returns the id of the
// first specialty with any hit, or empty when nothing matches.
func InferSpecialty(text string) string {
	haystack := " " + strings.ToLower(text) + " "
	for _, specialty := range Specialties {
		for _, keyword := range specialty.Keywords {
			if strings.Contains(haystack, keyword) {
				return specialty.ID
			}
		}
	}
	return ""
}
