package mailparse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	minThreadBlockLen    = 20
	threadHeaderMaxLines = 10
)

var (
	threadWroteRe     = regexp.MustCompile(`(?i)\b(?:wrote|said)\s*:\s*$`)
	threadFromRe      = regexp.MustCompile(`(?i)^\*?from\*?\s*:`)
	threadHeaderRe    = regexp.MustCompile(`(?i)^\*?(from|sent|date|to|cc|subject)\*?\s*:\*?\s*(.*?)\s*$`)
	threadSigRe       = regexp.MustCompile(`(?m)^[ \t]*[-_]{2,}[ \t]*$`)
	bareAttributionRe = regexp.MustCompile(`(?i)^(.+?)\s+(?:wrote|said)\s*:$`)
)

// attributionRules parse "On <date>, <name> wrote:" lines. The first rule
// that matches wins, most specific first.
var attributionRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^On\s+(.+?\d{1,2}:\d{2}(?::\d{2})?(?:\s*[AP]\.?M\.?)?)\s*,?\s+(.+?)\s+(?:wrote|said)\s*:$`),
	regexp.MustCompile(`(?i)^On\s+(.+?\d{4})\s*,?\s+(.+?)\s+(?:wrote|said)\s*:$`),
	regexp.MustCompile(`(?i)^On\s+(.+),\s*(.+?)\s+(?:wrote|said)\s*:$`),
}

// parseAttribution splits an attribution line into date and sender
func parseAttribution(line string) (date, from string) {
	for _, re := range attributionRules {
		if m := re.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		}
	}
	if m := bareAttributionRe.FindStringSubmatch(line); m != nil {
		return "", strings.TrimSpace(m[1])
	}
	return "", ""
}

// stripQuoteMarkers removes leading > markers from a line
func stripQuoteMarkers(line string) string {
	return quotePrefixRe.ReplaceAllString(line, "")
}

// threadEntryID is a stable ID for a thread entry
func threadEntryID(level int, content string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "%d\x00%s", level, content)).String()
}

// splitThreadBlocks cuts quoted text at attribution and From: lines. The
// returned blocks have their quote markers stripped.
func splitThreadBlocks(text string) [][]string {
	lines := strings.Split(normalizeNewlines(text), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(stripQuoteMarkers(line), " \t")
	}

	starts := []int{0}
	for i, line := range lines {
		t := strings.TrimSpace(line)
		s := -1
		switch {
		case threadFromRe.MatchString(t):
			s = i
		case threadWroteRe.MatchString(t):
			s = i
			// a wrapped attribution starts at its "On" line
			for j := i - 1; j >= 0 && j >= i-onHeaderWrapLines; j-- {
				prev := strings.TrimSpace(lines[j])
				if prev == "" || threadWroteRe.MatchString(prev) {
					break
				}
				if onLineRe.MatchString(prev) {
					s = j
					break
				}
			}
		}
		if s > starts[len(starts)-1] {
			starts = append(starts, s)
		}
	}

	blocks := make([][]string, 0, len(starts))
	for k, s := range starts {
		e := len(lines)
		if k+1 < len(starts) {
			e = starts[k+1]
		}
		blocks = append(blocks, lines[s:e])
	}
	return blocks
}

// parseThreadBlock recovers headers, content and signature of one block
func parseThreadBlock(lines []string) (ThreadHeaders, string, string) {
	var h ThreadHeaders
	headerEnd := 0
	found := false

scan:
	for i := 0; i < len(lines) && i < threadHeaderMaxLines; i++ {
		t := strings.TrimSpace(lines[i])
		switch {
		case t == "":
			if found {
				headerEnd = i + 1
			}
		case threadWroteRe.MatchString(t):
			parts := make([]string, 0, i+1)
			for _, l := range lines[headerEnd : i+1] {
				if l = strings.TrimSpace(l); l != "" {
					parts = append(parts, l)
				}
			}
			date, from := parseAttribution(strings.Join(parts, " "))
			if h.Date == "" {
				h.Date = date
			}
			if h.From == "" {
				h.From = from
			}
			headerEnd = i + 1
			break scan
		default:
			m := threadHeaderRe.FindStringSubmatch(t)
			if m == nil {
				if found || !onLineRe.MatchString(t) {
					break scan
				}
				// unterminated attribution, keep looking for "wrote:"
				continue
			}
			found = true
			headerEnd = i + 1
			setThreadHeader(&h, m[1], m[2])
		}
	}

	var kept []string
	for _, l := range lines[headerEnd:] {
		if isBannerLine(l) {
			continue
		}
		kept = append(kept, l)
	}
	body := strings.Join(kept, "\n")

	var sig string
	if loc := threadSigRe.FindStringIndex(body); loc != nil {
		body, sig = body[:loc[0]], body[loc[0]:]
	}
	return h, strings.TrimSpace(body), strings.TrimSpace(sig)
}

func setThreadHeader(h *ThreadHeaders, name, value string) {
	switch strings.ToLower(name) {
	case "from":
		if h.From == "" {
			h.From = value
		}
	case "sent", "date":
		if h.Date == "" {
			h.Date = value
		}
	case "to":
		if h.To == "" {
			h.To = value
		}
	case "subject":
		if h.Subject == "" {
			h.Subject = value
		}
	}
}

// reconstructThread turns quoted text into quoted thread entries. Blocks
// without content, or without a sender or date, are dropped.
func reconstructThread(quoted string) []ThreadedMessage {
	var out []ThreadedMessage
	for _, block := range splitThreadBlocks(quoted) {
		if len(strings.TrimSpace(strings.Join(block, "\n"))) < minThreadBlockLen {
			continue
		}
		h, content, sig := parseThreadBlock(block)
		if content == "" || (h.From == "" && h.Date == "") {
			continue
		}
		level := len(out) + 1
		out = append(out, ThreadedMessage{
			ID:        threadEntryID(level, content),
			Headers:   h,
			Content:   content,
			Signature: sig,
			Type:      ThreadQuoted,
			Level:     level,
		})
	}
	return out
}
