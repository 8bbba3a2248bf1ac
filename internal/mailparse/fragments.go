package mailparse

import (
	"regexp"
	"strings"
)

const (
	onHeaderWrapLines  = 2 // continuation lines an "On ... wrote:" header may wrap over
	outlookHeaderLines = 5
)

var (
	richHeaderLineRe  = regexp.MustCompile(`(?i)^\*?(from|to|cc|bcc|date|sent|subject|reply-to)\*?\s*:\*?\s*(.*?)\s*$`)
	wroteLineRe       = regexp.MustCompile(`(?i)\bwrote\s*:\s*$`)
	onLineRe          = regexp.MustCompile(`(?i)^On\s`)
	outlookFromRe     = regexp.MustCompile(`(?i)^\*?from\*?\s*:`)
	outlookFollowerRe = regexp.MustCompile(`(?i)^\*?(?:sent|date|to|subject)\*?\s*:`)
)

// splitLinesKeepEnds splits text into lines that keep their trailing newline,
// so joining them reproduces text exactly
func splitLinesKeepEnds(text string) []string {
	lines := strings.SplitAfter(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

func isQuoteLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), ">")
}

// leadingHeaderEnd returns the index just past a header block at the top of
// lines, or 0 when there is none
func leadingHeaderEnd(lines []string) int {
	i := 0
	for i < len(lines) && isBlank(lines[i]) {
		i++
	}
	headers := 0
	for i < len(lines) && richHeaderLineRe.MatchString(strings.TrimSpace(lines[i])) {
		i++
		headers++
	}
	if headers == 0 {
		return 0
	}
	for i < len(lines) && isBlank(lines[i]) {
		i++
	}
	return i
}

// replyHeaderAt reports whether an attribution line such as
// "On <date>, <name> wrote:" starts at lines[i]
func replyHeaderAt(lines []string, i int) bool {
	t := strings.TrimSpace(lines[i])
	if wroteLineRe.MatchString(t) {
		return true
	}
	if !onLineRe.MatchString(t) {
		return false
	}
	for j := i + 1; j < len(lines) && j <= i+onHeaderWrapLines; j++ {
		if wroteLineRe.MatchString(strings.TrimSpace(lines[j])) {
			return true
		}
	}
	return false
}

// outlookHeaderAt reports whether lines[i] opens an Outlook style header
// block: a From: line followed closely by Sent/Date/To/Subject
func outlookHeaderAt(lines []string, i int) bool {
	if !outlookFromRe.MatchString(strings.TrimSpace(lines[i])) {
		return false
	}
	seen := 0
	for j := i + 1; j < len(lines) && seen < outlookHeaderLines; j++ {
		t := strings.TrimSpace(lines[j])
		if t == "" {
			continue
		}
		seen++
		if outlookFollowerRe.MatchString(t) {
			return true
		}
	}
	return false
}

func isBannerLine(line string) bool {
	_, ok := earliest(forwardBanners, line)
	return ok
}

// findQuoteHeader returns the index of the first line, at or after from, that
// makes everything below it quoted. It returns -1 when there is none.
func findQuoteHeader(lines []string, from int) int {
	seenContent := false
	for i := from; i < len(lines); i++ {
		if isBlank(lines[i]) || isQuoteLine(lines[i]) {
			continue
		}
		if isBannerLine(lines[i]) || replyHeaderAt(lines, i) {
			return i
		}
		if seenContent && outlookHeaderAt(lines, i) {
			return i
		}
		seenContent = true
	}
	return -1
}

// decompose reads text top-down into fragments. Concatenating the fragment
// contents reproduces text exactly.
func decompose(text string) ([]Fragment, int) {
	lines := splitLinesKeepEnds(text)
	start := leadingHeaderEnd(lines)
	sticky := findQuoteHeader(lines, start)
	end := len(lines)
	if sticky >= 0 {
		end = sticky
	}

	var frags []Fragment
	if start > 0 {
		frags = append(frags, Fragment{Content: strings.Join(lines[:start], ""), IsHidden: true})
	}

	// Group the region between header and sticky quote by > prefix. Blank
	// lines stay with the fragment they follow.
	var body []Fragment
	var cur strings.Builder
	curQuoted := false
	for _, line := range lines[start:end] {
		quoted := curQuoted
		if !isBlank(line) {
			quoted = isQuoteLine(line)
		}
		if cur.Len() > 0 && quoted != curQuoted {
			body = append(body, Fragment{Content: cur.String(), IsQuoted: curQuoted})
			cur.Reset()
		}
		curQuoted = quoted
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		body = append(body, Fragment{Content: cur.String(), IsQuoted: curQuoted})
	}

	frags = append(frags, splitLastVisible(body)...)

	if sticky >= 0 {
		frags = append(frags, Fragment{Content: strings.Join(lines[sticky:], ""), IsQuoted: true})
	}

	hideTrailing(frags)
	return frags, sticky
}

// splitLastVisible runs the signature separator over the last unquoted
// fragment that has content
func splitLastVisible(frags []Fragment) []Fragment {
	idx := -1
	for i := len(frags) - 1; i >= 0; i-- {
		if !frags[i].IsQuoted && !isBlank(frags[i].Content) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return frags
	}

	content := frags[idx].Content
	cut, ok := signatureCut(content)
	if !ok {
		return frags
	}

	out := make([]Fragment, 0, len(frags)+1)
	out = append(out, frags[:idx]...)
	if cut > 0 {
		out = append(out, Fragment{Content: content[:cut]})
	}
	out = append(out, Fragment{Content: content[cut:], IsSignature: true})
	return append(out, frags[idx+1:]...)
}

// hideTrailing hides quoted, signature and blank fragments that come after the
// last visible content
func hideTrailing(frags []Fragment) {
	for i := len(frags) - 1; i >= 0; i-- {
		f := &frags[i]
		if f.IsQuoted || f.IsSignature || isBlank(f.Content) {
			f.IsHidden = true
			continue
		}
		if !f.IsHidden {
			break
		}
	}
}
