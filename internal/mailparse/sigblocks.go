package mailparse

import (
	"regexp"
	"strings"
)

// sigLineKind is the shape of one signature line
type sigLineKind string

const (
	sigClosing   sigLineKind = "closing"
	sigSeparator sigLineKind = "separator"
	sigLegal     sigLineKind = "legal"
	sigLinkedIn  sigLineKind = "linkedin"
	sigPhone     sigLineKind = "phone"
	sigEmail     sigLineKind = "email"
	sigWebsite   sigLineKind = "website"
	sigAddress   sigLineKind = "address"
	sigTitle     sigLineKind = "title"
	sigCompany   sigLineKind = "company"
	sigName      sigLineKind = "name"
	sigOther     sigLineKind = "other"
)

const (
	maxJoinedNameLen  = 30
	maxJoinedTitleLen = 40
	maxTitleLen       = 60
	maxNameLen        = 40
)

// sigClassifier is one entry of the ordered line classifier list
type sigClassifier struct {
	kind  sigLineKind
	match func(line string) bool
}

func matchRe(re *regexp.Regexp) func(string) bool {
	return re.MatchString
}

var (
	sigSeparatorRe = regexp.MustCompile(`^[-_=~*]{2,}$`)
	sigLegalRe     = regexp.MustCompile(`(?i)\b(?:confidential|privileged|disclaimer|intended (?:solely |only )?for|if you (?:have )?received this|unauthori[sz]ed|strictly prohibited)`)
	sigLinkedInRe  = regexp.MustCompile(`(?i)linkedin`)
	sigPhoneRe     = regexp.MustCompile(`(?i)^(?:(?:m|t|p|c|o|f|d|tel|phone|mobile|cell|office|direct|fax|main)\s*[:.]\s*)\+?[\d(]`)
	sigBarePhoneRe = regexp.MustCompile(`(?i)^\+?\(?\d{1,4}\)?(?:[\s.-]?\d{2,4}){2,4}(?:\s*(?:x|ext\.?)\s*\d+)?$`)
	sigEmailRe     = regexp.MustCompile(`(?i)^(?:e(?:-?mail)?\s*[:.]\s*)?[\w.+'-]+@[\w-]+(?:\.[\w-]+)+$`)
	sigWebsiteRe   = regexp.MustCompile(`(?i)^(?:w(?:eb)?\s*[:.]\s*)?(?:(?:https?://|www\.)\S+|[\w-]+(?:\.[\w-]+)*\.(?:com|net|org|io|co|us|biz)(?:/\S*)?)$`)
	sigStreetRe    = regexp.MustCompile(`(?i)^\d+[\w-]*\s+[\w .'’-]*\b(?:street|st|avenue|ave|road|rd|boulevard|blvd|drive|dr|lane|ln|way|suite|ste|court|ct|place|pl|parkway|pkwy|highway|hwy|floor)\b`)
	sigCityRe      = regexp.MustCompile(`\b[A-Z]{2}\s+\d{5}(?:-\d{4})?$`)
	sigTitleRe     = regexp.MustCompile(`(?i)\b(?:president|vice president|vp|ceo|cfo|coo|cto|founder|partner|principal|director|manager|broker|agent|associate|analyst|advisor|consultant|officer|head of|chairman|executive|realtor|leasing|owner|senior|sr\.?|coordinator|assistant|specialist)\b`)
	sigCompanyRe   = regexp.MustCompile(`(?i)\b(?:inc|llc|llp|ltd|corp|corporation|company|group|partners|realty|properties|capital|advisors|holdings|real estate|commercial)\b\.?`)
	sigNameRe      = regexp.MustCompile(`^[A-Z][a-z'’-]+(?:\s+[A-Z]\.?)?(?:\s+[A-Z][a-zA-Z'’-]+){1,2}$`)
)

// sigClassifiers are tried in order; the first match names the line
var sigClassifiers = []sigClassifier{
	{sigClosing, matchRe(closingLineRe)},
	{sigSeparator, matchRe(sigSeparatorRe)},
	{sigLegal, matchRe(sigLegalRe)},
	{sigLinkedIn, matchRe(sigLinkedInRe)},
	{sigPhone, func(l string) bool { return sigPhoneRe.MatchString(l) || sigBarePhoneRe.MatchString(l) }},
	{sigEmail, matchRe(sigEmailRe)},
	{sigWebsite, matchRe(sigWebsiteRe)},
	{sigAddress, func(l string) bool { return sigStreetRe.MatchString(l) || sigCityRe.MatchString(l) }},
	{sigTitle, func(l string) bool { return len(l) <= maxTitleLen && sigTitleRe.MatchString(l) }},
	{sigCompany, matchRe(sigCompanyRe)},
	{sigName, func(l string) bool { return len(l) <= maxNameLen && sigNameRe.MatchString(l) }},
}

func classifySigLine(line string) sigLineKind {
	for _, c := range sigClassifiers {
		if c.match(line) {
			return c.kind
		}
	}
	return sigOther
}

// sigBlock accumulates lines of one display block
type sigBlock struct {
	lines []string
	kinds []sigLineKind
}

func (b *sigBlock) last() sigLineKind {
	if len(b.kinds) == 0 {
		return ""
	}
	return b.kinds[len(b.kinds)-1]
}

// FormatSignature groups the lines of a raw signature into display blocks
func FormatSignature(signature string) []string {
	var blocks []sigBlock
	var cur sigBlock

	flush := func() {
		if len(cur.lines) > 0 {
			blocks = append(blocks, cur)
		}
		cur = sigBlock{}
	}

	for _, raw := range strings.Split(normalizeNewlines(signature), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		kind := classifySigLine(line)

		switch {
		case kind == sigSeparator:
			flush()
			cur = sigBlock{lines: []string{line}, kinds: []sigLineKind{kind}}
			flush()
			continue
		case kind == sigClosing, kind == sigLegal:
			flush()
		case kind == sigWebsite && len(cur.lines) >= 2:
			flush()
		case kind == sigName && len(cur.lines) > 0 && cur.last() != sigClosing:
			flush()
		}

		// "Jane Doe" + "VP Sales" reads as one line
		if kind == sigTitle && len(cur.lines) == 1 && cur.kinds[0] == sigName &&
			len(cur.lines[0]) <= maxJoinedNameLen && len(line) <= maxJoinedTitleLen {
			cur.lines[0] = cur.lines[0] + " - " + line
			cur.kinds[0] = sigTitle
			continue
		}

		cur.lines = append(cur.lines, line)
		cur.kinds = append(cur.kinds, kind)
	}
	flush()

	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		text := strings.Join(b.lines, "\n")
		if strings.Trim(text, "-_\n ") == "" {
			continue
		}
		out = append(out, text)
	}
	return out
}
