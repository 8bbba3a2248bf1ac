package email

import (
	"strings"
	"time"
)

// Email is a provider-agnostic message as fetched from a mail source
type Email struct {
	ID       string            // Source-specific ID
	ThreadID string            // Thread/conversation ID
	Subject  string            // Email subject
	From     Address           // Sender address
	To       []Address         // Recipient addresses
	Cc       []Address         // Carbon-copy addresses
	Date     time.Time         // Send/receive date
	Snippet  string            // Short preview text
	Body     string            // Plain-text body
	Labels   []string          // Provider-specific labels
	Headers  map[string]string // Selected extra headers
}

// Address represents an email address with optional name
type Address struct {
	Name  string
	Email string
}

// String returns the formatted address
func (a Address) String() string {
	if a.Name == "" {
		return a.Email
	}
	return a.Name + " <" + a.Email + ">"
}

// Domain extracts the domain from the email address
func (a Address) Domain() string {
	parts := strings.Split(a.Email, "@")
	if len(parts) != 2 {
		return ""
	}
	return strings.ToLower(parts[1])
}

// RawText renders the message in the stored activity shape: a header block,
// a blank line, then the body
func (e *Email) RawText() string {
	var b strings.Builder
	if e.Subject != "" {
		b.WriteString("Subject: " + e.Subject + "\n")
	}
	if e.From.Email != "" {
		b.WriteString("From: " + e.From.String() + "\n")
	}
	if len(e.To) > 0 {
		b.WriteString("To: " + strings.Join(FormatAddresses(e.To), ", ") + "\n")
	}
	if len(e.Cc) > 0 {
		b.WriteString("Cc: " + strings.Join(FormatAddresses(e.Cc), ", ") + "\n")
	}
	if !e.Date.IsZero() {
		b.WriteString("Date: " + e.Date.Format(time.RFC1123Z) + "\n")
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(strings.TrimRight(e.Body, "\n"))
	return b.String()
}

// ParseAddress parses an email address string like "Name <email@example.com>"
func ParseAddress(s string) Address {
	s = strings.TrimSpace(s)

	// Try to extract name and email from "Name <email>" format
	if start := strings.Index(s, "<"); start != -1 {
		if end := strings.Index(s, ">"); end > start {
			return Address{
				Name:  strings.Trim(strings.TrimSpace(s[:start]), `"`),
				Email: strings.TrimSpace(s[start+1 : end]),
			}
		}
	}

	// Just an email address
	return Address{Email: s}
}

// ParseAddresses splits a list of addresses on commas and semicolons
func ParseAddresses(s string) []Address {
	if s == "" {
		return nil
	}

	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';'
	})

	var addresses []Address
	for _, part := range parts {
		if addr := ParseAddress(part); addr.Email != "" {
			addresses = append(addresses, addr)
		}
	}
	return addresses
}
