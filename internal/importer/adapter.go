package importer

import (
	"strings"
)

// Field aliases accepted at the import boundary. The adapter runs exactly
// once, at the start of Normalize; everything past it sees canonical names
// only.
var blockAliases = map[string][]string{
	"identity":       {"identity", "contact", "personal", "basics", "profile"},
	"summary":        {"summary", "narrative", "objective", "about"},
	"positions":      {"positions", "experience", "experiences", "work_history", "workHistory", "jobs", "work"},
	"education":      {"education", "educations", "academics", "schooling"},
	"competencies":   {"competencies", "skills", "skill_list", "skillList"},
	"licenses":       {"licenses", "licensure", "license_list"},
	"certifications": {"certifications", "certs", "certificates"},
	"software":       {"software", "platforms", "systems", "ehr_systems", "ehrSystems"},
	"associations":   {"associations", "memberships", "affiliations", "professional_associations"},
	"recognitions":   {"recognitions", "awards", "honors"},
	"volunteering":   {"volunteering", "volunteer", "volunteer_work"},
	"languages":      {"languages", "language_list"},
}

var identityAliases = map[string][]string{
	"first_name": {"first_name", "firstName", "given_name", "givenName", "first"},
	"last_name":  {"last_name", "lastName", "family_name", "familyName", "surname", "last"},
	"email":      {"email", "email_address", "emailAddress"},
	"phone":      {"phone", "phone_number", "phoneNumber", "mobile", "telephone"},
	"city":       {"city", "town"},
	"state":      {"state", "region", "province"},
}

var positionAliases = map[string][]string{
	"title":        {"title", "role", "position", "job_title", "jobTitle"},
	"organization": {"organization", "company", "employer", "facility", "hospital", "org"},
	"location":     {"location", "city", "place"},
	"start_date":   {"start_date", "startDate", "start", "from", "date_from"},
	"end_date":     {"end_date", "endDate", "end", "to", "date_to"},
	"is_current":   {"is_current", "isCurrent", "current", "present"},
	"narrative":    {"narrative", "description", "summary", "details", "responsibilities"},
}

var educationAliases = map[string][]string{
	"credential":      {"credential", "degree", "qualification", "program", "name"},
	"institution":     {"institution", "school", "university", "college", "issuer", "provider"},
	"location":        {"location", "city"},
	"start_date":      {"start_date", "startDate", "start", "from"},
	"end_date":        {"end_date", "endDate", "end", "to"},
	"graduation_date": {"graduation_date", "graduationDate", "graduated", "completion_date", "completionDate"},
	"narrative":       {"narrative", "description", "details", "notes"},
	"in_progress":     {"in_progress", "inProgress", "is_in_progress", "current"},
}

var licenseAliases = map[string][]string{
	"type":         {"type", "license_type", "licenseType", "kind", "name"},
	"jurisdiction": {"jurisdiction", "state", "issuing_state", "issuingState"},
	"number":       {"number", "license_number", "licenseNumber"},
	"expiration":   {"expiration", "expires", "expiration_date", "expirationDate", "expiry"},
	"compact":      {"compact", "multi_state", "multiState", "is_compact", "isCompact"},
}

var certificationAliases = map[string][]string{
	"name":       {"name", "title", "certification"},
	"issuer":     {"issuer", "organization", "authority"},
	"expiration": {"expiration", "expires", "expiration_date", "expirationDate"},
	"date":       {"date", "issued", "issue_date", "issueDate"},
}

// adapt rewrites an arbitrary raw import object into a map keyed by
// canonical field names. It returns false when raw is not a plain object.
func adapt(raw any) (map[string]any, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}

	out := map[string]any{}
	for canonical, aliases := range blockAliases {
		value, found := firstAlias(obj, aliases)
		if !found {
			continue
		}
		switch canonical {
		case "identity":
			if block, ok := value.(map[string]any); ok {
				out[canonical] = adaptFields(block, identityAliases)
			}
		case "positions":
			out[canonical] = adaptList(value, positionAliases)
		case "education":
			out[canonical] = adaptList(value, educationAliases)
		case "licenses":
			out[canonical] = adaptList(value, licenseAliases)
		case "certifications":
			out[canonical] = adaptStringOrObjectList(value, certificationAliases)
		case "summary":
			if s, ok := value.(string); ok {
				out[canonical] = s
			}
		default:
			out[canonical] = value
		}
	}
	return out, true
}

// firstAlias returns the first aliased key present in obj. Aliases are
// matched case-sensitively first, then case-insensitively; when several keys
// fold-equal the same alias, the lexicographically smallest key wins so the
// result never depends on map iteration order.
func firstAlias(obj map[string]any, aliases []string) (any, bool) {
	for _, alias := range aliases {
		if v, ok := obj[alias]; ok {
			return v, true
		}
	}
	for _, alias := range aliases {
		match := ""
		found := false
		for key := range obj {
			if !strings.EqualFold(key, alias) {
				continue
			}
			if !found || key < match {
				match = key
				found = true
			}
		}
		if found {
			return obj[match], true
		}
	}
	return nil, false
}

func adaptFields(obj map[string]any, aliases map[string][]string) map[string]any {
	out := map[string]any{}
	for canonical, names := range aliases {
		if v, ok := firstAlias(obj, names); ok {
			out[canonical] = v
		}
	}
	return out
}

func adaptList(value any, aliases map[string][]string) []map[string]any {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, adaptFields(obj, aliases))
		}
	}
	return out
}

// adaptStringOrObjectList handles lists whose items may be bare strings or
// objects (certifications commonly import both ways).
func adaptStringOrObjectList(value any, aliases map[string][]string) []map[string]any {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			out = append(out, map[string]any{"name": v})
		case map[string]any:
			out = append(out, adaptFields(v, aliases))
		}
	}
	return out
}
