// Package eml reads RFC 5322 message files into provider-agnostic emails.
package eml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"golang.org/x/text/encoding/charmap"

	"github.com/vijay-prabhu/mailsplit/internal/email"
)

func init() {
	// Charsets common in exported mail that go-message does not map by default
	charset.RegisterEncoding("windows-1252", charmap.Windows1252)
	charset.RegisterEncoding("iso-8859-1", charmap.ISO8859_1)
	charset.RegisterEncoding("iso-8859-15", charmap.ISO8859_15)
}

// Ext is the file extension of message files
const Ext = ".eml"

// ReadFile parses the message at path. When the message has no Message-Id the
// file name stands in as its ID.
func ReadFile(path string) (*email.Email, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	e, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if e.ID == "" {
		e.ID = filepath.Base(path)
	}
	return e, nil
}

// Read parses a message from r. The body is the first text/plain part, or
// the first text/html part reduced to text when there is no plain part.
func Read(r io.Reader) (*email.Email, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("failed to create mail reader: %w", err)
	}
	defer mr.Close()

	e := &email.Email{Headers: make(map[string]string)}
	readHeader(mr.Header, e)

	var plain, htmlBody string
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return nil, fmt.Errorf("failed to read part: %w", err)
		}
		if part == nil {
			continue
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue // attachments carry no body text
		}
		contentType, _, _ := h.ContentType()
		body, err := io.ReadAll(part.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain") && plain == "":
			plain = string(body)
		case strings.HasPrefix(contentType, "text/html") && htmlBody == "":
			htmlBody = string(body)
		}
	}

	switch {
	case plain != "":
		e.Body = strings.ReplaceAll(plain, "\r\n", "\n")
	case htmlBody != "":
		e.Body = email.HTMLToText(htmlBody)
	}
	e.Snippet = snippet(e.Body)
	return e, nil
}

func readHeader(h mail.Header, e *email.Email) {
	if id, err := h.MessageID(); err == nil {
		e.ID = id
	}
	e.ThreadID = strings.Trim(strings.TrimSpace(h.Get("In-Reply-To")), "<>")

	if subject, err := h.Subject(); err == nil {
		e.Subject = subject
	} else {
		e.Subject = h.Get("Subject")
	}

	if from := addressList(h, "From"); len(from) > 0 {
		e.From = from[0]
	}
	e.To = addressList(h, "To")
	e.Cc = addressList(h, "Cc")

	if date, err := h.Date(); err == nil && !date.IsZero() {
		e.Date = date
	}

	for _, key := range []string{"Reply-To", "References", "In-Reply-To"} {
		if v := h.Get(key); v != "" {
			e.Headers[strings.ToLower(key)] = v
		}
	}
}

// addressList reads an address header, falling back to the lenient parser
// for values go-message rejects
func addressList(h mail.Header, key string) []email.Address {
	list, err := h.AddressList(key)
	if err != nil {
		raw, _ := h.Text(key)
		if raw == "" {
			raw = h.Get(key)
		}
		return email.ParseAddressList(raw)
	}

	out := make([]email.Address, 0, len(list))
	for _, a := range list {
		out = append(out, email.Address{Name: a.Name, Email: a.Address})
	}
	return out
}

func snippet(body string) string {
	s := strings.Join(strings.Fields(body), " ")
	if r := []rune(s); len(r) > 140 {
		return string(r[:140])
	}
	return s
}
