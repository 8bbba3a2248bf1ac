package mailparse

import "slices"

// Analysis is a cheap-path parse plus the display formatting of its body and
// signature, as returned to CLI, MCP and HTTP callers
type Analysis struct {
	Message         *ParsedMessage `json:"message"`
	Outcome         Outcome        `json:"outcome"`
	Paragraphs      []string       `json:"paragraphs,omitempty"`
	SignatureBlocks []string       `json:"signature_blocks,omitempty"`
}

// Analyze parses text and optionally formats the body into paragraphs and the
// signature into display blocks
func (p *Parser) Analyze(text string, paragraphs, signatureBlocks bool) Analysis {
	res := p.ParseResult(text)
	a := Analysis{Message: res.Message, Outcome: res.Outcome}
	if res.Message == nil {
		return a
	}
	if paragraphs {
		a.Paragraphs = slices.Collect(p.Paragraphs(res.Message.Body))
	}
	if signatureBlocks && res.Message.Signature != "" {
		a.SignatureBlocks = FormatSignature(res.Message.Signature)
	}
	return a
}
