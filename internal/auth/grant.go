package auth

import (
	"fmt"
	"strings"
)

// Wildcard matches any action or any resource.
const Wildcard = "*"

const grantSeparator = ":"

// Grant is a single (action, resource) permission, either side possibly Wildcard.
type Grant struct {
	Action   string
	Resource string
}

// AllAccess is the unconditional grant. Root authority comes from the account flag, not from this value.
var AllAccess = Grant{Action: Wildcard, Resource: Wildcard}

func (g Grant) String() string {
	return g.Action + grantSeparator + g.Resource
}

// Matches reports whether g covers the requested pair. Comparison is exact and case-sensitive.
func (g Grant) Matches(action, resource string) bool {
	return (g.Action == Wildcard || g.Action == action) &&
		(g.Resource == Wildcard || g.Resource == resource)
}

// ParseGrant parses "action:resource".
func ParseGrant(s string) (Grant, error) {
	action, resource, ok := strings.Cut(s, grantSeparator)
	if !ok || action == "" || resource == "" || strings.Contains(resource, grantSeparator) {
		return Grant{}, fmt.Errorf(msgMalformedGrantFmt, s)
	}
	return Grant{Action: action, Resource: resource}, nil
}

// ParseGrants parses every string, skipping malformed entries and reporting them.
func ParseGrants(raw []string) ([]Grant, []error) {
	grants := make([]Grant, 0, len(raw))
	var errs []error
	for _, s := range raw {
		g, err := ParseGrant(s)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		grants = append(grants, g)
	}
	return grants, errs
}

// GrantStrings renders grants back to their wire form.
func GrantStrings(grants []Grant) []string {
	out := make([]string, len(grants))
	for i, g := range grants {
		out[i] = g.String()
	}
	return out
}

// Satisfies reports whether any grant covers (action, resource). An empty set never does.
func Satisfies(grants []Grant, action, resource string) bool {
	for _, g := range grants {
		if g.Matches(action, resource) {
			return true
		}
	}
	return false
}
