package mailparse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vijay-prabhu/mailsplit/internal/logging"
)

// Options tunes the parser heuristics
type Options struct {
	MaxInputBytes         int // Inputs above this size get the fallback result (0 = unlimited)
	HeaderScanLines       int // Non-empty lines scanned for headers on the cheap path
	ThreadHeaderScanLines int // Lines scanned for headers on the rich path
	LongParagraph         int // Paragraphs longer than this are split into sentence chunks
	ParagraphChunk        int // Target size of a sentence chunk
}

// DefaultOptions returns the stock heuristic limits
func DefaultOptions() Options {
	return Options{
		MaxInputBytes:         1 << 20,
		HeaderScanLines:       20,
		ThreadHeaderScanLines: 30,
		LongParagraph:         500,
		ParagraphChunk:        300,
	}
}

// Parser decomposes raw email text. It is safe for concurrent use.
type Parser struct {
	cache  *Cache[Result]
	logger zerolog.Logger
	opts   Options

	// swapped in tests to exercise the fallback paths
	extractFn func(string) *ParsedMessage
	richFn    func(string, string) *ProfessionalParsedMessage
}

// Option configures a Parser
type Option func(*Parser)

// WithCache sets the result cache shared by Parse calls
func WithCache(c *Cache[Result]) Option {
	return func(p *Parser) {
		p.cache = c
	}
}

// WithLogger sets the logger used to report parse faults
func WithLogger(l zerolog.Logger) Option {
	return func(p *Parser) {
		p.logger = logging.Component(l, "parser")
	}
}

// WithOptions overrides the heuristic limits. Zero fields keep their defaults.
func WithOptions(o Options) Option {
	return func(p *Parser) {
		d := DefaultOptions()
		if o.MaxInputBytes < 0 {
			o.MaxInputBytes = 0
		} else if o.MaxInputBytes == 0 {
			o.MaxInputBytes = d.MaxInputBytes
		}
		if o.HeaderScanLines <= 0 {
			o.HeaderScanLines = d.HeaderScanLines
		}
		if o.ThreadHeaderScanLines <= 0 {
			o.ThreadHeaderScanLines = d.ThreadHeaderScanLines
		}
		if o.LongParagraph <= 0 {
			o.LongParagraph = d.LongParagraph
		}
		if o.ParagraphChunk <= 0 {
			o.ParagraphChunk = d.ParagraphChunk
		}
		p.opts = o
	}
}

// NewParser creates a Parser. Without WithCache it gets a private cache of
// DefaultCacheSize entries.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		logger: zerolog.Nop(),
		opts:   DefaultOptions(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cache == nil {
		p.cache = NewCache[Result](DefaultCacheSize)
	}
	p.extractFn = p.extract
	p.richFn = p.parseProfessional
	return p
}

// Cache returns the parser's result cache
func (p *Parser) Cache() *Cache[Result] {
	return p.cache
}

// Options returns the parser's heuristic limits
func (p *Parser) Options() Options {
	return p.opts
}

// Parse runs the cheap path. It returns nil for empty or whitespace-only
// input and never fails otherwise.
func (p *Parser) Parse(text string) *ParsedMessage {
	return p.ParseResult(text).Message
}

// ParseResult runs the cheap path and reports how the result was produced.
// Identical input returns the identical cached message while it stays cached.
func (p *Parser) ParseResult(text string) Result {
	if text == "" {
		return Result{Outcome: OutcomeEmpty}
	}
	if r, ok := p.cache.Get(text); ok {
		return r
	}
	return p.cache.PutIfAbsent(text, p.parseGuarded(text))
}

// parseGuarded turns any fault into the fallback result
func (p *Parser) parseGuarded(text string) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("parse panicked: %v", rec)
			p.logger.Warn().Err(err).Int("length", len(text)).Msg("Message parse failed, using fallback")
			res = Result{Message: fallbackMessage(text), Outcome: OutcomeFallback, Err: err}
		}
	}()

	if strings.TrimSpace(text) == "" {
		return Result{Outcome: OutcomeEmpty}
	}
	if p.opts.MaxInputBytes > 0 && len(text) > p.opts.MaxInputBytes {
		p.logger.Warn().Err(ErrInputTooLarge).Int("length", len(text)).Msg("Message too large, using fallback")
		return Result{Message: fallbackMessage(text), Outcome: OutcomeFallback, Err: ErrInputTooLarge}
	}

	return Result{Message: p.extractFn(text), Outcome: OutcomeParsed}
}

var (
	headerLineRe    = regexp.MustCompile(`(?i)^(subject|from|to|cc|date|sent)\s*:\s*(.*?)\s*$`)
	fwdSubjectRe    = regexp.MustCompile(`(?i)^(?:subject\s*:\s*)?(?:fwd?|fw)\s*:`)
	forwardedFromRe = regexp.MustCompile(`(?mi)^[ \t>]*\*?From:\*?[ \t]*(.+?)[ \t]*$`)
)

// forwardBanners open the original message inside a forward
var forwardBanners = []rule{
	{name: "forwarded-message", kind: kindBanner, re: regexp.MustCompile(`(?mi)^[ \t>]*-{2,}[ \t]*Forwarded message[ \t]*-{2,}[ \t]*$`)},
	{name: "begin-forwarded", kind: kindBanner, re: regexp.MustCompile(`(?mi)^[ \t>]*Begin forwarded message:[ \t]*$`)},
	{name: "original-message", kind: kindBanner, re: regexp.MustCompile(`(?mi)^[ \t>]*-{2,}[ \t]*Original Message[ \t]*-{2,}[ \t]*$`)},
}

// normalizeNewlines converts CRLF and lone CR line endings to LF
func normalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// isForwarded reports whether text carries a forward banner or a Fwd: subject
func isForwarded(text string) bool {
	if _, ok := earliest(forwardBanners, text); ok {
		return true
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return fwdSubjectRe.MatchString(line)
	}
	return false
}

// headerBlock holds the header lines found at the top of a message
type headerBlock struct {
	subject string
	from    string
	date    string
	to      []string
	cc      []string
	found   bool
}

func (h *headerBlock) set(name, value string) {
	h.found = true
	switch strings.ToLower(name) {
	case "subject":
		if h.subject == "" {
			h.subject = value
		}
	case "from":
		if h.from == "" {
			h.from = value
		}
	case "to":
		h.to = append(h.to, splitRecipients(value)...)
	case "cc":
		h.cc = append(h.cc, splitRecipients(value)...)
	case "date", "sent":
		if h.date == "" {
			h.date = value
		}
	}
}

// splitRecipients splits a recipient header value on commas and semicolons
func splitRecipients(value string) []string {
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// scanHeaders reads header lines from the top of lines, looking at no more
// than maxLines non-empty lines. It returns the index of the first body line.
func scanHeaders(lines []string, maxLines int) (headerBlock, int) {
	var hb headerBlock
	bodyStart := 0
	scanned := 0

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if hb.found {
				bodyStart = i + 1
			}
			continue
		}
		if scanned >= maxLines {
			break
		}
		scanned++

		m := headerLineRe.FindStringSubmatch(trimmed)
		if m == nil {
			bodyStart = i
			break
		}
		hb.set(m[1], m[2])
		bodyStart = i + 1
	}

	return hb, bodyStart
}

// message builds a ParsedMessage from the header block
func (h headerBlock) message() *ParsedMessage {
	msg := &ParsedMessage{
		Subject: h.subject,
		From:    h.from,
		Date:    h.date,
		To:      h.to,
		Cc:      h.cc,
	}
	if msg.To == nil {
		msg.To = []string{}
	}
	if msg.Cc == nil {
		msg.Cc = []string{}
	}
	return msg
}

// parsePlain runs the header scan and separator over text
func (p *Parser) parsePlain(text string) *ParsedMessage {
	lines := strings.Split(text, "\n")
	hb, start := scanHeaders(lines, p.opts.HeaderScanLines)

	msg := hb.message()
	msg.Body, msg.Signature = Separate(strings.Join(lines[start:], "\n"))
	return msg
}

// extract is the cheap parsing path
func (p *Parser) extract(text string) *ParsedMessage {
	text = normalizeNewlines(text)

	if !isForwarded(text) {
		return p.parsePlain(text)
	}

	banner, ok := earliest(forwardBanners, text)
	if !ok {
		// Fwd: subject without a banner
		msg := p.parsePlain(text)
		msg.IsForwarded = true
		return msg
	}

	msg := p.parsePlain(text[:banner.start])
	msg.IsForwarded = true
	msg.OriginalMessage = text[banner.start:]
	if m := forwardedFromRe.FindStringSubmatch(msg.OriginalMessage); m != nil {
		msg.ForwardedFrom = m[1]
	}
	return msg
}
