package filter

import (
	"strings"

	"github.com/vijay-prabhu/mailsplit/internal/email"
)

// checkDomainWhitelist checks if the sender matches a whitelisted pattern
func (f *Filter) checkDomainWhitelist(e *email.Email) *Result {
	domain, sender := e.From.Domain(), strings.ToLower(e.From.Email)
	if domain == "" {
		return nil
	}

	for _, pattern := range f.config.DomainWhitelist {
		pattern = strings.ToLower(pattern)
		if matchesDomainPattern(domain, sender, pattern) {
			return &Result{
				Include: true,
				Layer:   LayerWhitelist,
				Reason:  "Whitelisted sender: " + pattern,
			}
		}
	}

	return nil
}

// checkDomainBlacklist checks if the sender matches a blacklisted pattern
func (f *Filter) checkDomainBlacklist(e *email.Email) *Result {
	domain, sender := e.From.Domain(), strings.ToLower(e.From.Email)
	if domain == "" {
		return nil
	}

	for _, pattern := range f.config.DomainBlacklist {
		pattern = strings.ToLower(pattern)
		if matchesDomainPattern(domain, sender, pattern) {
			return &Result{
				Include: false,
				Layer:   LayerBlacklist,
				Reason:  "Blacklisted sender: " + pattern,
			}
		}
	}

	return nil
}

// matchesDomainPattern checks if a pattern matches the domain or address.
// Patterns are a domain ("example.com", also matching subdomains), a full
// address, or a local-part prefix ending in "@" ("noreply@").
func matchesDomainPattern(domain, address, pattern string) bool {
	if pattern == "" {
		return false
	}

	// Pattern contains @ - it's an address pattern
	if strings.Contains(pattern, "@") {
		if address == pattern {
			return true
		}
		// Prefix match (e.g., "noreply@" matches any "noreply@*")
		return strings.HasSuffix(pattern, "@") && strings.HasPrefix(address, pattern)
	}

	// Exact domain match
	if domain == pattern {
		return true
	}

	// Subdomain (e.g., "mail.example.com" matches "example.com")
	return strings.HasSuffix(domain, "."+pattern)
}
