package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/vijay-prabhu/mailsplit/internal/database"
	"github.com/vijay-prabhu/mailsplit/internal/mailparse"
)

const defaultListLimit = 20

var errNoStore = errors.New("no activity store configured")

func (s *Server) registerHandlers() {
	s.handlers["parse_message"] = s.handleParseMessage
	s.handlers["parse_thread"] = s.handleParseThread
	s.handlers["format_paragraphs"] = s.handleFormatParagraphs
	s.handlers["format_signature"] = s.handleFormatSignature
	s.handlers["list_activities"] = s.handleListActivities
	s.handlers["get_activity"] = s.handleGetActivity
}

// decodeParams unmarshals tool arguments, allowing them to be absent
func decodeParams(params json.RawMessage, v any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}

type parseMessageParams struct {
	Text            string `json:"text"`
	Paragraphs      bool   `json:"paragraphs"`
	SignatureBlocks bool   `json:"signature_blocks"`
}

func (s *Server) handleParseMessage(ctx context.Context, params json.RawMessage) (any, error) {
	var p parseMessageParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return s.parser.Analyze(p.Text, p.Paragraphs, p.SignatureBlocks), nil
}

type parseThreadParams struct {
	Text    string `json:"text"`
	Subject string `json:"subject"`
}

func (s *Server) handleParseThread(ctx context.Context, params json.RawMessage) (any, error) {
	var p parseThreadParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return s.parser.ParseThreadResult(p.Text, p.Subject), nil
}

type formatParagraphsParams struct {
	Text string `json:"text"`
}

func (s *Server) handleFormatParagraphs(ctx context.Context, params json.RawMessage) (any, error) {
	var p formatParagraphsParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	paragraphs := slices.Collect(s.parser.Paragraphs(p.Text))
	if paragraphs == nil {
		paragraphs = []string{}
	}
	return paragraphs, nil
}

type formatSignatureParams struct {
	Signature string `json:"signature"`
}

func (s *Server) handleFormatSignature(ctx context.Context, params json.RawMessage) (any, error) {
	var p formatSignatureParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return mailparse.FormatSignature(p.Signature), nil
}

type listActivitiesParams struct {
	Source    string `json:"source"`
	Query     string `json:"query"`
	SinceDays int    `json:"since_days"`
	Limit     int    `json:"limit"`
}

func (s *Server) handleListActivities(ctx context.Context, params json.RawMessage) (any, error) {
	if s.db == nil {
		return nil, errNoStore
	}

	var p listActivitiesParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	opts := database.ListOptions{Query: p.Query, Limit: defaultListLimit}
	if p.Source != "" && p.Source != "all" {
		source := database.Source(p.Source)
		opts.Source = &source
	}
	if p.SinceDays > 0 {
		since := time.Now().AddDate(0, 0, -p.SinceDays)
		opts.Since = &since
	}
	if p.Limit > 0 {
		opts.Limit = p.Limit
	}

	activities, err := s.db.ListActivities(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if activities == nil {
		activities = []database.Activity{}
	}
	return activities, nil
}

type getActivityParams struct {
	ID   string `json:"id"`
	Rich bool   `json:"rich"`
}

type activityWithParse struct {
	Activity *database.Activity     `json:"activity"`
	Parsed   *mailparse.Analysis     `json:"parsed,omitempty"`
	Thread   *mailparse.ThreadResult `json:"thread,omitempty"`
}

func (s *Server) handleGetActivity(ctx context.Context, params json.RawMessage) (any, error) {
	if s.db == nil {
		return nil, errNoStore
	}

	var p getActivityParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, errors.New("id is required")
	}

	a, err := s.db.GetActivity(ctx, p.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("activity not found: %s", p.ID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	out := activityWithParse{Activity: a}
	if p.Rich {
		tr := s.parser.ParseThreadResult(a.RawBody, a.SubjectOrEmpty())
		out.Thread = &tr
	} else {
		an := s.parser.Analyze(a.RawBody, true, true)
		out.Parsed = &an
	}
	return out, nil
}

func (s *Server) handleReadResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case resourceCache:
		return s.getResourceCache(), nil
	case resourceRecent:
		return s.getResourceRecent(ctx)
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}

func (s *Server) getResourceCache() string {
	st := s.parser.Cache().Stats()

	var b strings.Builder
	b.WriteString("Parse Cache\n===========\n\n")
	fmt.Fprintf(&b, "Entries:   %d / %d\n", st.Entries, st.Capacity)
	fmt.Fprintf(&b, "Hits:      %d\n", st.Hits)
	fmt.Fprintf(&b, "Misses:    %d\n", st.Misses)
	if total := st.Hits + st.Misses; total > 0 {
		fmt.Fprintf(&b, "Hit rate:  %.1f%%\n", float64(st.Hits)*100/float64(total))
	}
	return b.String()
}

func (s *Server) getResourceRecent(ctx context.Context) (string, error) {
	if s.db == nil {
		return "", errNoStore
	}

	activities, err := s.db.ListActivities(ctx, database.ListOptions{Limit: 10})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Recent Activities (Last 10)\n===========================\n\n")

	if len(activities) == 0 {
		b.WriteString("No activities yet. Run 'mailsplit import' or 'mailsplit sync' to add some.\n")
		return b.String(), nil
	}

	for _, a := range activities {
		subject := a.SubjectOrEmpty()
		if subject == "" {
			subject = "(no subject)"
		}
		fmt.Fprintf(&b, "- %s | %s | %s | %s | %s\n",
			a.ID, a.Source, a.ReceivedAt.Format("Jan 02, 2006"), a.SenderOrEmpty(), subject)
	}
	return b.String(), nil
}
