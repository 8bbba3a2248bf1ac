package mailparse

import (
	"iter"
	"regexp"
	"strings"
)

var (
	quotePrefixRe      = regexp.MustCompile(`^[ \t]*(?:>[ \t]?)+`)
	blankRunRe         = regexp.MustCompile(`\n{3,}`)
	paragraphBreakRe   = regexp.MustCompile(`\n{2,}`)
	bulletLineRe       = regexp.MustCompile(`^(?:[-*•·▪◦‣+]|\d{1,3}[.)])\s+\S`)
	capsHeaderLineRe   = regexp.MustCompile(`^[^a-z]*[A-Z]{3,}[^a-z]*$`)
	keyValueLineRe     = regexp.MustCompile(`^[A-Z][\w ./&'’-]{0,30}:\s+\S`)
	sentencePunctRe    = regexp.MustCompile(`[.!?]`)
	sentenceBoundaryRe = regexp.MustCompile(`[.!?]+["'’)\]]*\s+`)
)

// Paragraphs splits body text into display paragraphs using the default
// length limits
func Paragraphs(text string) iter.Seq[string] {
	d := DefaultOptions()
	return paragraphs(text, d.LongParagraph, d.ParagraphChunk)
}

// Paragraphs splits body text into display paragraphs using the parser's
// length limits
func (p *Parser) Paragraphs(text string) iter.Seq[string] {
	return paragraphs(text, p.opts.LongParagraph, p.opts.ParagraphChunk)
}

// paragraphs returns a lazy sequence. Work happens per iteration, so the
// sequence can be ranged over more than once.
func paragraphs(text string, long, chunk int) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, lines := range paragraphCandidates(text) {
			if isStructured(lines) {
				if !yield(strings.Join(lines, "\n")) {
					return
				}
				continue
			}

			joined := strings.Join(lines, " ")
			if len(joined) > long && sentencePunctRe.MatchString(joined) {
				for _, c := range sentenceChunks(joined, chunk) {
					if !yield(c) {
						return
					}
				}
				continue
			}
			if !yield(joined) {
				return
			}
		}
	}
}

// paragraphCandidates normalizes text and splits it on blank lines. Each
// candidate is a list of trimmed, non-empty lines.
func paragraphCandidates(text string) [][]string {
	lines := strings.Split(normalizeNewlines(text), "\n")
	for i, line := range lines {
		line = quotePrefixRe.ReplaceAllString(line, "")
		if strings.TrimSpace(line) == "" {
			line = ""
		}
		lines[i] = line
	}
	text = blankRunRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")

	var out [][]string
	for _, para := range paragraphBreakRe.Split(text, -1) {
		var kept []string
		for _, line := range strings.Split(para, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				kept = append(kept, line)
			}
		}
		if len(kept) > 0 {
			out = append(out, kept)
		}
	}
	return out
}

// isStructured reports whether any line is a list item, caps header or
// key-value pair
func isStructured(lines []string) bool {
	for _, line := range lines {
		if bulletLineRe.MatchString(line) || capsHeaderLineRe.MatchString(line) || keyValueLineRe.MatchString(line) {
			return true
		}
	}
	return false
}

// sentenceChunks regroups sentences into chunks of roughly size characters
func sentenceChunks(text string, size int) []string {
	var sentences []string
	start := 0
	for _, loc := range sentenceBoundaryRe.FindAllStringIndex(text, -1) {
		sentences = append(sentences, text[start:loc[1]])
		start = loc[1]
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}

	var chunks []string
	var cur strings.Builder
	emit := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
	}
	for _, s := range sentences {
		if cur.Len() > 0 && cur.Len()+len(s) > size {
			emit()
		}
		cur.WriteString(s)
	}
	emit()
	return chunks
}
