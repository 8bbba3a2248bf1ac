package mailparse

import "time"

// ParsedMessage is the result of the cheap parsing path
type ParsedMessage struct {
	Subject         string   `json:"subject"`
	Body            string   `json:"body"`
	From            string   `json:"from"`
	To              []string `json:"to"`
	Cc              []string `json:"cc"`
	Date            string   `json:"date"`
	IsForwarded     bool     `json:"isForwarded"`
	ForwardedFrom   string   `json:"forwardedFrom,omitempty"`
	OriginalMessage string   `json:"originalMessage,omitempty"`
	Signature       string   `json:"signature,omitempty"`
}

// Fragment is a contiguous slice of message text
type Fragment struct {
	Content     string `json:"content"`
	IsQuoted    bool   `json:"isQuoted"`
	IsSignature bool   `json:"isSignature"`
	IsHidden    bool   `json:"isHidden"`
}

// Visible reports whether the fragment is author-written visible content
func (f Fragment) Visible() bool {
	return !f.IsQuoted && !f.IsSignature && !f.IsHidden
}

// Headers holds the header fields recovered by the rich parser
type Headers struct {
	To       []string   `json:"to"`
	From     string     `json:"from"`
	Cc       []string   `json:"cc"`
	Bcc      []string   `json:"bcc"`
	Subject  string     `json:"subject"`
	Date     string     `json:"date"`
	ReplyTo  string     `json:"replyTo,omitempty"`
	DateTime *time.Time `json:"dateTime,omitempty"`
}

// Content holds the decomposed body of a rich parse
type Content struct {
	VisibleText string            `json:"visibleText"`
	Signature   string            `json:"signature"`
	Fragments   []Fragment        `json:"fragments"`
	EmailThread []ThreadedMessage `json:"emailThread"`
}

// Metadata summarizes the shape of a rich parse
type Metadata struct {
	IsReply       bool `json:"isReply"`
	IsForward     bool `json:"isForward"`
	HasQuotedText bool `json:"hasQuotedText"`
	HasSignature  bool `json:"hasSignature"`
}

// ProfessionalParsedMessage is the result of the rich parsing path
type ProfessionalParsedMessage struct {
	Headers  Headers  `json:"headers"`
	Content  Content  `json:"content"`
	Metadata Metadata `json:"metadata"`
}

// ThreadType distinguishes the top-level message from quoted ones
type ThreadType string

const (
	ThreadCurrent ThreadType = "current"
	ThreadQuoted  ThreadType = "quoted"
)

// ThreadHeaders are the header fields recovered for one thread entry
type ThreadHeaders struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Date    string `json:"date"`
	Subject string `json:"subject"`
}

// ThreadedMessage is one message of a reconstructed conversation
type ThreadedMessage struct {
	ID        string        `json:"id"`
	Headers   ThreadHeaders `json:"headers"`
	Content   string        `json:"content"`
	Signature string        `json:"signature,omitempty"`
	Type      ThreadType    `json:"type"`
	Level     int           `json:"level"`
}
