package importer

import (
	"strings"

	"github.com/jonathan/resume-builder/internal/types"
	"github.com/jonathan/resume-builder/internal/vocab"
)

// licenseTypes are the recognizable nursing license types. Unrecognized
// types pass through verbatim so no license is ever dropped.
var licenseTypes = []vocab.Entry{
	{ID: "RN", Name: "RN", Aliases: []string{"registered nurse"}},
	{ID: "LPN", Name: "LPN", Aliases: []string{"licensed practical nurse"}},
	{ID: "LVN", Name: "LVN", Aliases: []string{"licensed vocational nurse"}},
	{ID: "APRN", Name: "APRN", Aliases: []string{"advanced practice registered nurse"}},
	{ID: "NP", Name: "NP", Aliases: []string{"nurse practitioner"}},
	{ID: "CNA", Name: "CNA", Aliases: []string{"certified nursing assistant", "nursing assistant"}},
	{ID: "CNS", Name: "CNS", Aliases: []string{"clinical nurse specialist"}},
	{ID: "CRNA", Name: "CRNA", Aliases: []string{"certified registered nurse anesthetist", "nurse anesthetist"}},
	{ID: "CNM", Name: "CNM", Aliases: []string{"certified nurse midwife", "nurse midwife"}},
}

// extractCompetencies routes each free-text competency into exactly one
// bucket, tried in fixed order: language, platform, clinical skill, then the
// generic residual. Duplicates are collapsed case-insensitively within each
// bucket.
func extractCompetencies(raw []string) (languages []types.Language, platformIDs, skillIDs, generic []string) {
	languages = []types.Language{}
	platformIDs = []string{}
	skillIDs = []string{}
	generic = []string{}

	seenLanguages := map[string]bool{}
	seenPlatforms := map[string]bool{}
	seenSkills := map[string]bool{}
	seenGeneric := map[string]bool{}

	for _, item := range raw {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		if name, ok := vocab.ExtractLanguage(trimmed); ok {
			key := strings.ToLower(name)
			if !seenLanguages[key] {
				seenLanguages[key] = true
				languages = append(languages, types.Language{
					Language:    name,
					Proficiency: vocab.DefaultProficiency,
				})
			}
			continue
		}
		if entry, ok := vocab.Match(vocab.Platforms, trimmed); ok {
			if !seenPlatforms[entry.ID] {
				seenPlatforms[entry.ID] = true
				platformIDs = append(platformIDs, entry.ID)
			}
			continue
		}
		if entry, ok := vocab.Match(vocab.ClinicalSkills, trimmed); ok {
			if !seenSkills[entry.ID] {
				seenSkills[entry.ID] = true
				skillIDs = append(skillIDs, entry.ID)
			}
			continue
		}
		key := strings.ToLower(trimmed)
		if !seenGeneric[key] {
			seenGeneric[key] = true
			generic = append(generic, trimmed)
		}
	}
	return languages, platformIDs, skillIDs, generic
}

// mergeRawLanguages folds an explicit languages block into the extracted
// set. Items arrive as bare strings or {language, proficiency} objects.
func mergeRawLanguages(doc *types.CanonicalDocument, items []any) {
	seen := map[string]bool{}
	for _, l := range doc.Supplemental.Languages {
		seen[strings.ToLower(l.Language)] = true
	}

	for _, item := range items {
		lang := types.Language{Proficiency: vocab.DefaultProficiency}
		switch v := item.(type) {
		case string:
			lang.Language = strings.TrimSpace(v)
		case map[string]any:
			if name, ok := v["language"].(string); ok {
				lang.Language = strings.TrimSpace(name)
			} else if name, ok := v["name"].(string); ok {
				lang.Language = strings.TrimSpace(name)
			}
			if prof, ok := v["proficiency"].(string); ok && strings.TrimSpace(prof) != "" {
				lang.Proficiency = strings.TrimSpace(prof)
			}
		}
		if lang.Language == "" {
			continue
		}
		if name, ok := vocab.ExtractLanguage(lang.Language); ok {
			lang.Language = name
		}
		key := strings.ToLower(lang.Language)
		if seen[key] {
			continue
		}
		seen[key] = true
		doc.Supplemental.Languages = append(doc.Supplemental.Languages, lang)
	}
}

// matchSoftware folds an explicit software list into the platform ids;
// anything the vocabulary does not recognize survives as a custom skill.
func matchSoftware(doc *types.CanonicalDocument, software []string) {
	seenPlatforms := map[string]bool{}
	for _, id := range doc.DomainSkills.PlatformIDs {
		seenPlatforms[id] = true
	}
	seenCustom := map[string]bool{}
	for _, s := range doc.DomainSkills.CustomSkills {
		seenCustom[strings.ToLower(s)] = true
	}

	for _, item := range software {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		if entry, ok := vocab.Match(vocab.Platforms, trimmed); ok {
			if !seenPlatforms[entry.ID] {
				seenPlatforms[entry.ID] = true
				doc.DomainSkills.PlatformIDs = append(doc.DomainSkills.PlatformIDs, entry.ID)
			}
			continue
		}
		key := strings.ToLower(trimmed)
		if !seenCustom[key] {
			seenCustom[key] = true
			doc.DomainSkills.CustomSkills = append(doc.DomainSkills.CustomSkills, trimmed)
		}
	}
}

// matchCertifications maps recognized certifications to vocabulary-backed
// credentials. Unrecognized ones are preserved as legacy short-course
// entries rather than discarded.
func matchCertifications(doc *types.CanonicalDocument, certs []rawCertification) {
	seen := map[string]bool{}
	for _, c := range doc.Credentials {
		seen[c.ID] = true
	}

	for _, cert := range certs {
		name := strings.TrimSpace(cert.Name)
		if name == "" {
			continue
		}
		if entry, ok := vocab.Match(vocab.Certifications, name); ok {
			if seen[entry.ID] {
				continue
			}
			seen[entry.ID] = true
			doc.Credentials = append(doc.Credentials, types.Credential{
				ID:          entry.ID,
				DisplayName: entry.Name,
				Expiration:  firstNonEmpty(cert.Expiration, cert.Date),
				Issuer:      strings.TrimSpace(cert.Issuer),
			})
			continue
		}
		doc.Supplemental.ShortCoursesLegacy = append(doc.Supplemental.ShortCoursesLegacy, types.ShortCourse{
			Name:   name,
			Issuer: strings.TrimSpace(cert.Issuer),
			Date:   firstNonEmpty(cert.Date, cert.Expiration),
		})
	}
}

// matchAssociations records memberships, carrying the vocabulary id when the
// association is recognized and the raw name otherwise.
func matchAssociations(doc *types.CanonicalDocument, associations []string) {
	seen := map[string]bool{}
	for _, a := range doc.Supplemental.Affiliations {
		seen[strings.ToLower(firstNonEmpty(a.ID, a.Name))] = true
	}

	for _, item := range associations {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		affiliation := types.Affiliation{Name: trimmed}
		if entry, ok := vocab.Match(vocab.Associations, trimmed); ok {
			affiliation.ID = entry.ID
			affiliation.Name = entry.Name
		}
		key := strings.ToLower(firstNonEmpty(affiliation.ID, affiliation.Name))
		if seen[key] {
			continue
		}
		seen[key] = true
		doc.Supplemental.Affiliations = append(doc.Supplemental.Affiliations, affiliation)
	}
}

// matchRecognitions records awards the same way associations are recorded.
func matchRecognitions(doc *types.CanonicalDocument, recognitions []string) {
	seen := map[string]bool{}
	for _, h := range doc.Supplemental.Honors {
		seen[strings.ToLower(firstNonEmpty(h.ID, h.Title))] = true
	}

	for _, item := range recognitions {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		honor := types.Honor{Title: trimmed}
		if entry, ok := vocab.Match(vocab.Recognitions, trimmed); ok {
			honor.ID = entry.ID
			honor.Title = entry.Name
		}
		key := strings.ToLower(firstNonEmpty(honor.ID, honor.Title))
		if seen[key] {
			continue
		}
		seen[key] = true
		doc.Supplemental.Honors = append(doc.Supplemental.Honors, honor)
	}
}

// mapLicenses normalizes license types against the recognized set and
// jurisdictions to two-letter codes, flagging compact-state licenses as
// multi-jurisdiction.
func mapLicenses(raw []rawLicense) []types.License {
	licenses := []types.License{}
	for _, lic := range raw {
		licenseType := strings.TrimSpace(lic.Type)
		if licenseType == "" {
			continue
		}
		if entry, ok := vocab.Match(licenseTypes, licenseType); ok {
			licenseType = entry.Name
		}

		jurisdiction := vocab.NormalizeJurisdiction(lic.Jurisdiction)
		multi := lic.Compact
		if jurisdiction != "" && vocab.IsCompactState(jurisdiction) {
			multi = true
		}

		licenses = append(licenses, types.License{
			Type:                licenseType,
			Jurisdiction:        jurisdiction,
			Number:              strings.TrimSpace(lic.Number),
			IsMultiJurisdiction: multi,
			Expiration:          strings.TrimSpace(lic.Expiration),
		})
	}
	return licenses
}
