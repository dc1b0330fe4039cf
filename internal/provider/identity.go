package provider

import "strings"

// ResolveIdentity fuzzy-matches a free-text name against a provider's cached
// identities. Precedence:
//
//  1. exact case-insensitive match on display name or on the local part of
//     the handle/email;
//  2. first identity (in cache order) whose display name starts with or
//     contains the query.
//
// Returns nil when nothing matches. Ties break by cache insertion order and
// there is no confidence threshold; with a large roster a short query like
// "Bob" can silently match the wrong "Bobby". That ambiguity is a documented
// limitation of the heuristic, not a bug to fix here.
func ResolveIdentity(name string, identities []Identity) *Identity {
	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return nil
	}

	for i := range identities {
		display := strings.ToLower(identities[i].DisplayName)
		local := strings.ToLower(localPart(identities[i].Handle))
		if display == query || (local != "" && local == query) {
			return &identities[i]
		}
	}

	for i := range identities {
		display := strings.ToLower(identities[i].DisplayName)
		if strings.HasPrefix(display, query) || strings.Contains(display, query) {
			return &identities[i]
		}
	}

	return nil
}

// localPart returns the part of an email/handle before the @, or the handle
// itself when there is none.
func localPart(handle string) string {
	if at := strings.Index(handle, "@"); at >= 0 {
		return handle[:at]
	}
	return handle
}
