package mailparse

import (
	"errors"
	"fmt"
)

// ErrInputTooLarge marks input that was not parsed because it exceeds the
// configured byte limit
var ErrInputTooLarge = errors.New("input exceeds parser size limit")

// Outcome tells how a parse result was produced
type Outcome int

const (
	// OutcomeEmpty means the input was empty or whitespace-only
	OutcomeEmpty Outcome = iota
	// OutcomeParsed means the heuristics ran to completion
	OutcomeParsed
	// OutcomeFallback means the heuristics failed and the raw text was returned as body
	OutcomeFallback
)

// String returns the outcome name
func (o Outcome) String() string {
	switch o {
	case OutcomeParsed:
		return "parsed"
	case OutcomeFallback:
		return "fallback"
	default:
		return "empty"
	}
}

// MarshalText implements encoding.TextMarshaler
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (o *Outcome) UnmarshalText(b []byte) error {
	switch string(b) {
	case "parsed":
		*o = OutcomeParsed
	case "fallback":
		*o = OutcomeFallback
	case "empty":
		*o = OutcomeEmpty
	default:
		return fmt.Errorf("unknown outcome %q", b)
	}
	return nil
}

// Result is a cheap-path parse tagged with how it was produced
type Result struct {
	Message *ParsedMessage `json:"message"`
	Outcome Outcome        `json:"outcome"`
	Err     error          `json:"-"`
}

// ThreadResult is a rich-path parse tagged with how it was produced
type ThreadResult struct {
	Message *ProfessionalParsedMessage `json:"message"`
	Outcome Outcome                    `json:"outcome"`
	Err     error                      `json:"-"`
}

// fallbackMessage is the cheap-path result used when parsing fails
func fallbackMessage(text string) *ParsedMessage {
	return &ParsedMessage{
		Body: text,
		To:   []string{},
		Cc:   []string{},
	}
}

// fallbackProfessional is the rich-path result used when parsing fails
func fallbackProfessional(text, subject string) *ProfessionalParsedMessage {
	return &ProfessionalParsedMessage{
		Headers: Headers{
			To:      []string{},
			Cc:      []string{},
			Bcc:     []string{},
			Subject: subject,
		},
		Content: Content{
			VisibleText: text,
			Fragments:   []Fragment{{Content: text}},
			EmailThread: []ThreadedMessage{{
				ID:      threadEntryID(0, text),
				Headers: ThreadHeaders{Subject: subject},
				Content: text,
				Type:    ThreadCurrent,
				Level:   0,
			}},
		},
	}
}
