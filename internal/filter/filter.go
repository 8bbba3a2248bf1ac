// Package filter decides which fetched messages become stored activities.
// Auto-replies, bounces and bulk mail carry no CRM history and are skipped.
package filter

import (
	"fmt"
	"strings"

	"github.com/vijay-prabhu/mailsplit/internal/config"
	"github.com/vijay-prabhu/mailsplit/internal/email"
)

// Layer identifies which filtering layer made the decision
type Layer string

const (
	LayerWhitelist Layer = "whitelist"
	LayerBlacklist Layer = "blacklist"
	LayerSubject   Layer = "subject"
	LayerDefault   Layer = "default"
)

// Result represents the outcome of filtering an email
type Result struct {
	Include bool   // Whether to store this email
	Layer   Layer  // Which layer made the decision
	Reason  string // Human-readable reason
}

// Filter applies the sender and subject rules to emails
type Filter struct {
	config config.FilterConfig
}

// New creates a new Filter with the given configuration
func New(cfg config.FilterConfig) *Filter {
	return &Filter{config: cfg}
}

// Apply runs the email through the filtering layers. The first layer with an
// opinion decides; everything else is included.
func (f *Filter) Apply(e *email.Email) Result {
	// Layer 1: Sender whitelist (always include)
	if result := f.checkDomainWhitelist(e); result != nil {
		return *result
	}

	// Layer 2a: Sender blacklist
	if result := f.checkDomainBlacklist(e); result != nil {
		return *result
	}

	// Layer 2b: Subject blacklist
	if result := f.checkSubjectBlacklist(e); result != nil {
		return *result
	}

	return Result{Include: true, Layer: LayerDefault, Reason: "No rule matched"}
}

// checkSubjectBlacklist checks if the subject contains a blacklisted phrase
func (f *Filter) checkSubjectBlacklist(e *email.Email) *Result {
	subjectLower := strings.ToLower(e.Subject)
	if subjectLower == "" {
		return nil
	}

	for _, pattern := range f.config.SubjectBlacklist {
		pattern = strings.ToLower(pattern)
		if pattern != "" && strings.Contains(subjectLower, pattern) {
			return &Result{
				Include: false,
				Layer:   LayerSubject,
				Reason:  fmt.Sprintf("Subject matches blacklist pattern: %q", pattern),
			}
		}
	}

	return nil
}
