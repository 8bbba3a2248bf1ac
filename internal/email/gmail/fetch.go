package gmail

import (
	"encoding/base64"
	"fmt"
	"slices"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"

	"github.com/vijay-prabhu/mailsplit/internal/email"
	"github.com/vijay-prabhu/mailsplit/internal/mailparse"
)

// keptHeaders are the extra headers carried into email.Email.Headers
var keptHeaders = []string{"message-id", "in-reply-to", "references", "reply-to"}

// buildQuery constructs a Gmail search query from FetchOptions
func buildQuery(opts email.FetchOptions) string {
	var parts []string

	if opts.After != nil {
		parts = append(parts, fmt.Sprintf("after:%s", opts.After.Format("2006/01/02")))
	}
	if opts.Query != "" {
		parts = append(parts, opts.Query)
	}

	return strings.Join(parts, " ")
}

// convertMessage converts a Gmail message to our Email type
func convertMessage(msg *gmail.Message) email.Email {
	e := email.Email{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
		Labels:   msg.LabelIds,
		Headers:  make(map[string]string),
	}

	if msg.Payload != nil {
		for _, header := range msg.Payload.Headers {
			name := strings.ToLower(header.Name)
			switch name {
			case "subject":
				e.Subject = header.Value
			case "from":
				if from := email.ParseAddressList(header.Value); len(from) > 0 {
					e.From = from[0]
				}
			case "to":
				e.To = email.ParseAddressList(header.Value)
			case "cc":
				e.Cc = email.ParseAddressList(header.Value)
			case "date":
				if t, err := mailparse.ParseDate(header.Value); err == nil {
					e.Date = t
				}
			default:
				if slices.Contains(keptHeaders, name) {
					e.Headers[name] = header.Value
				}
			}
		}
	}

	// Fallback to internal timestamp if date parsing failed
	if e.Date.IsZero() && msg.InternalDate > 0 {
		e.Date = time.UnixMilli(msg.InternalDate).UTC()
	}

	e.Body = extractBody(msg.Payload)
	return e
}

// extractBody prefers the plain text part and falls back to HTML
func extractBody(payload *gmail.MessagePart) string {
	if text := extractPartByMime(payload, "text/plain"); text != "" {
		return strings.ReplaceAll(text, "\r\n", "\n")
	}
	if html := extractPartByMime(payload, "text/html"); html != "" {
		return email.HTMLToText(html)
	}
	return ""
}

// extractPartByMime recursively finds a part with the given MIME type
func extractPartByMime(part *gmail.MessagePart, mimeType string) string {
	if part == nil {
		return ""
	}

	if strings.HasPrefix(part.MimeType, mimeType) && part.Body != nil && part.Body.Data != "" {
		if decoded, err := decodeBody(part.Body.Data); err == nil {
			return string(decoded)
		}
	}

	for _, subpart := range part.Parts {
		if result := extractPartByMime(subpart, mimeType); result != "" {
			return result
		}
	}

	return ""
}

// decodeBody decodes Gmail's base64url body data, padded or not
func decodeBody(data string) ([]byte, error) {
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return decoded, nil
	}
	return base64.RawURLEncoding.DecodeString(data)
}
