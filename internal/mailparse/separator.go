package mailparse

import (
	"regexp"
	"strings"
)

// ruleKind tags what a boundary rule recognizes
type ruleKind string

const (
	kindSeparator ruleKind = "separator"
	kindClosing   ruleKind = "closing"
	kindTitle     ruleKind = "title"
	kindContact   ruleKind = "contact"
	kindBanner    ruleKind = "banner"
)

// rule is one entry of an ordered pattern list. Patterns are line anchored,
// so a match always starts at the beginning of a line.
type rule struct {
	name string
	kind ruleKind
	re   *regexp.Regexp
}

// match is the earliest hit of a rule list
type match struct {
	rule  rule
	start int
}

// earliest returns the lowest-offset match across rules. Ties go to the rule
// listed first.
func earliest(rules []rule, text string) (match, bool) {
	best := match{start: -1}
	for _, r := range rules {
		loc := r.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if best.start == -1 || loc[0] < best.start {
			best = match{rule: r, start: loc[0]}
		}
	}
	return best, best.start >= 0
}

var closingLineRe = regexp.MustCompile(`(?mi)^[ \t]*(?:best|best regards|kind regards|warm regards|warmest regards|regards|sincerely|thanks|thank you|many thanks|cheers)[ \t]*[,.!]*[ \t]*$`)

// signatureRules are the boundaries that open a signature block
var signatureRules = []rule{
	{name: "dash-dash", kind: kindSeparator, re: regexp.MustCompile(`(?m)^[ \t]*--[ \t]*$`)},
	{name: "rule-line", kind: kindSeparator, re: regexp.MustCompile(`(?m)^[ \t]*(?:-{5,}|_{5,})[ \t]*$`)},
	{name: "closing", kind: kindClosing, re: closingLineRe},
	{name: "name-title", kind: kindTitle, re: regexp.MustCompile(`(?m)^[ \t]*[A-Z][\w.'’-]*(?:[ \t]+[A-Z][\w.'’-]*){0,3}[ \t]*\|[ \t]*\S[^\n]*$`)},
	{name: "phone", kind: kindContact, re: regexp.MustCompile(`(?mi)^[ \t]*(?:(?:m|t|p|c|o|f|tel|phone|mobile|cell|office|direct|fax)[ \t]*[:.][ \t]*)?\+?(?:1[ .-]?)?\(?\d{3}\)?[ .-]?\d{3}[ .-]\d{4}(?:[ \t]*(?:x|ext\.?)[ \t]*\d+)?[ \t]*$`)},
	{name: "url", kind: kindContact, re: regexp.MustCompile(`(?mi)^[ \t]*(?:https?://|www\.)\S+[ \t]*$`)},
	{name: "email", kind: kindContact, re: regexp.MustCompile(`(?m)^[ \t]*[\w.+'-]+@[\w-]+(?:\.[\w-]+)+[ \t]*$`)},
	{name: "linkedin-invite", kind: kindContact, re: regexp.MustCompile(`(?mi)^[^\n]*(?:I['’]d like to (?:add you to|join) my (?:professional )?network|invitation to connect on LinkedIn|connect with me on LinkedIn)[^\n]*$`)},
}

const (
	maxClosingWalkBack = 3
	bodyLikeLength     = 50
)

// sentenceEndRe finds sentence punctuation after a word long enough not to
// be an abbreviation such as "Mr." or "St."
var sentenceEndRe = regexp.MustCompile(`\w{3,}[.!?]+(?:[\s"')\]]|$)`)

// bodyLike reports whether a line reads as prose rather than a sign-off
func bodyLike(line string) bool {
	return len(line) > bodyLikeLength || sentenceEndRe.MatchString(line)
}

// signatureCut returns the offset in text where the signature begins
func signatureCut(text string) (int, bool) {
	m, ok := earliest(signatureRules, text)
	if !ok {
		return 0, false
	}

	cut := m.start
	if m.rule.kind == kindClosing {
		cut = walkBackFromClosing(text, cut)
	}
	return cut, true
}

// walkBackFromClosing pulls up to maxClosingWalkBack short lines that directly
// precede a closing line into the signature
func walkBackFromClosing(text string, cut int) int {
	for i := 0; i < maxClosingWalkBack && cut > 0; i++ {
		prevEnd := cut - 1
		prevStart := strings.LastIndexByte(text[:prevEnd], '\n') + 1
		line := strings.TrimSpace(text[prevStart:prevEnd])
		if line == "" || bodyLike(line) {
			break
		}
		cut = prevStart
	}
	return cut
}

// Separate splits normalized body text into body and signature. When no
// boundary matches, the whole text is body.
func Separate(text string) (body, signature string) {
	cut, ok := signatureCut(text)
	if !ok {
		return strings.TrimSpace(text), ""
	}
	return strings.TrimSpace(text[:cut]), strings.TrimSpace(text[cut:])
}
