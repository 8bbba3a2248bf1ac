package mailparse

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/vijay-prabhu/mailsplit/internal/email"
)

var forwardVocabRe = regexp.MustCompile(`(?i)(?:forwarded message|begin forwarded|original message|\bfwd?:)`)

// ParseThread runs the rich path. fallbackSubject is used when the text has
// no Subject: header. It returns nil for empty or whitespace-only input.
func (p *Parser) ParseThread(text, fallbackSubject string) *ProfessionalParsedMessage {
	return p.ParseThreadResult(text, fallbackSubject).Message
}

// ParseThreadResult runs the rich path and reports how the result was produced
func (p *Parser) ParseThreadResult(text, fallbackSubject string) (res ThreadResult) {
	if strings.TrimSpace(text) == "" {
		return ThreadResult{Outcome: OutcomeEmpty}
	}

	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("thread parse panicked: %v", rec)
			p.logger.Warn().Err(err).Int("length", len(text)).Msg("Thread parse failed, using fallback")
			res = ThreadResult{Message: fallbackProfessional(text, fallbackSubject), Outcome: OutcomeFallback, Err: err}
		}
	}()

	if p.opts.MaxInputBytes > 0 && len(text) > p.opts.MaxInputBytes {
		p.logger.Warn().Err(ErrInputTooLarge).Int("length", len(text)).Msg("Thread too large, using fallback")
		return ThreadResult{Message: fallbackProfessional(text, fallbackSubject), Outcome: OutcomeFallback, Err: ErrInputTooLarge}
	}

	return ThreadResult{Message: p.richFn(text, fallbackSubject), Outcome: OutcomeParsed}
}

// parseProfessional is the rich parsing path
func (p *Parser) parseProfessional(text, fallbackSubject string) *ProfessionalParsedMessage {
	text = normalizeNewlines(text)

	frags, sticky := decompose(text)
	headers := p.scanRichHeaders(text, sticky, fallbackSubject)

	var visible, signature, quoted strings.Builder
	var meta Metadata
	for _, f := range frags {
		switch {
		case f.IsQuoted:
			quoted.WriteString(f.Content)
			meta.HasQuotedText = true
		case f.IsSignature:
			signature.WriteString(f.Content)
			meta.HasSignature = true
		case f.Visible():
			visible.WriteString(f.Content)
		}
	}
	meta.IsReply = meta.HasQuotedText
	meta.IsForward = forwardVocabRe.MatchString(text)

	visibleText := strings.TrimSpace(visible.String())
	sigText := strings.TrimSpace(signature.String())

	thread := []ThreadedMessage{{
		ID: threadEntryID(0, visibleText),
		Headers: ThreadHeaders{
			From:    headers.From,
			To:      strings.Join(headers.To, ", "),
			Date:    headers.Date,
			Subject: headers.Subject,
		},
		Content:   visibleText,
		Signature: sigText,
		Type:      ThreadCurrent,
		Level:     0,
	}}
	if meta.HasQuotedText {
		thread = append(thread, reconstructThread(quoted.String())...)
	}

	return &ProfessionalParsedMessage{
		Headers: headers,
		Content: Content{
			VisibleText: visibleText,
			Signature:   sigText,
			Fragments:   frags,
			EmailThread: thread,
		},
		Metadata: meta,
	}
}

// scanRichHeaders reads header lines from the top of text, stopping at the
// first quote header. The first occurrence of each field wins.
func (p *Parser) scanRichHeaders(text string, sticky int, fallbackSubject string) Headers {
	h := Headers{To: []string{}, Cc: []string{}, Bcc: []string{}}

	lines := splitLinesKeepEnds(text)
	limit := min(len(lines), p.opts.ThreadHeaderScanLines)
	if sticky >= 0 && sticky < limit {
		limit = sticky
	}

	seen := make(map[string]bool)
	for _, line := range lines[:limit] {
		m := richHeaderLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		name := strings.ToLower(m[1])
		if name == "sent" {
			name = "date"
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		value := m[2]
		switch name {
		case "from":
			h.From = value
		case "to":
			h.To = email.FormatAddresses(email.ParseAddressList(value))
		case "cc":
			h.Cc = email.FormatAddresses(email.ParseAddressList(value))
		case "bcc":
			h.Bcc = email.FormatAddresses(email.ParseAddressList(value))
		case "subject":
			h.Subject = value
		case "date":
			h.Date = value
		case "reply-to":
			h.ReplyTo = value
		}
	}

	if h.Subject == "" {
		h.Subject = fallbackSubject
	}
	if h.Date != "" {
		if t, err := ParseDate(h.Date); err == nil {
			h.DateTime = &t
		}
	}
	return h
}

// ParseDate parses a free-form header date, trying RFC 5322 first
func ParseDate(s string) (time.Time, error) {
	if t, err := mail.ParseDate(s); err == nil {
		return t, nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse date %q: %w", s, err)
	}
	return t, nil
}
