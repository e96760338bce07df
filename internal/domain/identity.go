package domain

import (
	"net/mail"
	"strings"
)

// DefaultAllowedDomains are the university-affiliated email domains accepted
// when no allowlist is configured.
var DefaultAllowedDomains = []string{"nebraska.edu", "huskers.unl.edu", "unl.edu"}

// IdentityAllowed reports whether identity is a bare email address whose
// domain is exactly one of allowed. Comparison is case-insensitive.
func IdentityAllowed(identity string, allowed []string) bool {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return false
	}
	addr, err := mail.ParseAddress(identity)
	if err != nil || addr.Name != "" || addr.Address != identity {
		return false
	}
	at := strings.LastIndexByte(identity, '@')
	if at <= 0 || at == len(identity)-1 {
		return false
	}
	host := strings.ToLower(identity[at+1:])
	for _, d := range allowed {
		d = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(d), "@"))
		if d != "" && host == d {
			return true
		}
	}
	return false
}

// NormalizeIdentity lower-cases and trims an identity so owner lookups are
// not sensitive to how the seller typed their address.
func NormalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}
