package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vijay-prabhu/mailsplit/internal/database"
	"github.com/vijay-prabhu/mailsplit/internal/mailparse"
)

func newTestServer(t *testing.T) (*Server, *database.DB) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, mailparse.NewParser(), zerolog.Nop()), db
}

func call(t *testing.T, s *Server, method string, params any) *jsonRPCResponse {
	t.Helper()
	req := map[string]any{"jsonrpc": "2.0", "id": 1, "method": method}
	if params != nil {
		req["params"] = params
	}
	line, err := json.Marshal(req)
	require.NoError(t, err)
	return s.handleMessage(context.Background(), string(line))
}

// toolText calls a tool and returns the text content of the result
func toolText(t *testing.T, s *Server, name string, args any) (string, bool) {
	t.Helper()
	resp := call(t, s, "tools/call", map[string]any{"name": name, "arguments": args})
	require.Nil(t, resp.Error)
	result, ok := resp.Result.(callToolResult)
	require.True(t, ok)
	require.Len(t, result.Content, 1)
	return result.Content[0].Text, result.IsError
}

func TestInitialize(t *testing.T) {
	s, _ := newTestServer(t)
	resp := call(t, s, "initialize", map[string]any{})

	result, ok := resp.Result.(initializeResult)
	require.True(t, ok)
	assert.Equal(t, protocolVersion, result.ProtocolVersion)
	assert.Equal(t, "mailsplit", result.ServerInfo.Name)
}

func TestNotificationHasNoResponse(t *testing.T) {
	s, _ := newTestServer(t)
	assert.Nil(t, call(t, s, "notifications/initialized", nil))
	assert.Nil(t, call(t, s, "initialized", nil))
}

func TestParseErrorAndUnknownMethod(t *testing.T) {
	s, _ := newTestServer(t)

	resp := s.handleMessage(context.Background(), "{not json")
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeParseError, resp.Error.Code)

	resp = call(t, s, "bogus", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestToolsList(t *testing.T) {
	s, _ := newTestServer(t)
	resp := call(t, s, "tools/list", nil)

	result, ok := resp.Result.(toolsListResult)
	require.True(t, ok)

	var names []string
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
		_, registered := s.handlers[tool.Name]
		assert.True(t, registered, "tool %s has no handler", tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"parse_message", "parse_thread", "format_paragraphs",
		"format_signature", "list_activities", "get_activity",
	}, names)
}

func TestUnknownTool(t *testing.T) {
	s, _ := newTestServer(t)
	resp := call(t, s, "tools/call", map[string]any{"name": "nope"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestParseMessageTool(t *testing.T) {
	s, _ := newTestServer(t)
	text, isErr := toolText(t, s, "parse_message", map[string]any{
		"text":             "Subject: Hello\nFrom: jane@acme.com\n\nSee you at noon.\n\nThanks,\nJane",
		"signature_blocks": true,
	})
	require.False(t, isErr)

	var got mailparse.Analysis
	require.NoError(t, json.Unmarshal([]byte(text), &got))
	require.NotNil(t, got.Message)
	assert.Equal(t, "Hello", got.Message.Subject)
	assert.Equal(t, "See you at noon.", got.Message.Body)
	assert.Equal(t, "Thanks,\nJane", got.Message.Signature)
	assert.Equal(t, []string{"Thanks,\nJane"}, got.SignatureBlocks)
	assert.Contains(t, text, `"outcome": "parsed"`)
}

func TestParseThreadTool(t *testing.T) {
	s, _ := newTestServer(t)
	text, isErr := toolText(t, s, "parse_thread", map[string]any{
		"text":    "Sounds good.\n\nOn Mon, Jan 15, 2024 at 10:30 AM, Bob Smith <bob@x.com> wrote:\n> Can we meet Tuesday at the property?\n",
		"subject": "Meeting",
	})
	require.False(t, isErr)

	var got struct {
		Message struct {
			Headers  mailparse.Headers  `json:"headers"`
			Content  mailparse.Content  `json:"content"`
			Metadata mailparse.Metadata `json:"metadata"`
		} `json:"message"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &got))
	assert.Equal(t, "Meeting", got.Message.Headers.Subject)
	assert.True(t, got.Message.Metadata.IsReply)
	assert.Equal(t, "Sounds good.", got.Message.Content.VisibleText)
	require.NotEmpty(t, got.Message.Content.EmailThread)
	assert.Equal(t, mailparse.ThreadCurrent, got.Message.Content.EmailThread[0].Type)
}

func TestFormatTools(t *testing.T) {
	s, _ := newTestServer(t)

	text, _ := toolText(t, s, "format_paragraphs", map[string]any{"text": "One.\n\nTwo."})
	var paragraphs []string
	require.NoError(t, json.Unmarshal([]byte(text), &paragraphs))
	assert.Equal(t, []string{"One.", "Two."}, paragraphs)

	text, _ = toolText(t, s, "format_paragraphs", map[string]any{"text": ""})
	assert.Equal(t, "[]", text)

	text, _ = toolText(t, s, "format_signature", map[string]any{"signature": "--\nJohn Smith\nCEO"})
	var blocks []string
	require.NoError(t, json.Unmarshal([]byte(text), &blocks))
	assert.Equal(t, []string{"John Smith - CEO"}, blocks)
}

func TestActivityTools(t *testing.T) {
	s, db := newTestServer(t)
	ctx := context.Background()

	subject := "Lease renewal"
	a := &database.Activity{
		Source:     database.SourceEML,
		ExternalID: "x.eml",
		Subject:    &subject,
		RawBody:    "Subject: Lease renewal\n\nThe tenant wants two more years.\n\nBest,\nJane",
		ReceivedAt: time.Now(),
	}
	require.NoError(t, db.CreateActivity(ctx, a))

	text, isErr := toolText(t, s, "list_activities", map[string]any{"source": "eml"})
	require.False(t, isErr)
	var listed []database.Activity
	require.NoError(t, json.Unmarshal([]byte(text), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, a.ID, listed[0].ID)

	text, _ = toolText(t, s, "list_activities", map[string]any{"source": "gmail"})
	assert.Equal(t, "[]", text)

	text, isErr = toolText(t, s, "get_activity", map[string]any{"id": a.ID})
	require.False(t, isErr)
	var got activityWithParse
	require.NoError(t, json.Unmarshal([]byte(text), &got))
	require.NotNil(t, got.Parsed)
	assert.Equal(t, "The tenant wants two more years.", got.Parsed.Message.Body)
	assert.Nil(t, got.Thread)

	text, isErr = toolText(t, s, "get_activity", map[string]any{"id": a.ID, "rich": true})
	require.False(t, isErr)
	assert.Contains(t, text, `"thread"`)

	text, isErr = toolText(t, s, "get_activity", map[string]any{"id": "missing"})
	assert.True(t, isErr)
	assert.Contains(t, text, "activity not found")

	_, isErr = toolText(t, s, "get_activity", map[string]any{})
	assert.True(t, isErr)
}

func TestToolsWithoutStore(t *testing.T) {
	s := New(nil, mailparse.NewParser(), zerolog.Nop())

	text, isErr := toolText(t, s, "list_activities", nil)
	assert.True(t, isErr)
	assert.Equal(t, errNoStore.Error(), text)

	_, isErr = toolText(t, s, "parse_message", map[string]any{"text": "hi"})
	assert.False(t, isErr)
}

func TestResources(t *testing.T) {
	s, _ := newTestServer(t)
	s.parser.Parse("Subject: a\n\nbody")
	s.parser.Parse("Subject: a\n\nbody")

	resp := call(t, s, "resources/read", map[string]any{"uri": resourceCache})
	require.Nil(t, resp.Error)
	result, ok := resp.Result.(readResourceResult)
	require.True(t, ok)
	assert.Contains(t, result.Contents[0].Text, "Entries:   1 / 100")
	assert.Contains(t, result.Contents[0].Text, "Hit rate:  50.0%")

	resp = call(t, s, "resources/read", map[string]any{"uri": resourceRecent})
	require.Nil(t, resp.Error)
	result = resp.Result.(readResourceResult)
	assert.Contains(t, result.Contents[0].Text, "No activities yet")

	resp = call(t, s, "resources/read", map[string]any{"uri": "mailsplit://nope"})
	require.NotNil(t, resp.Error)
}

func TestServe(t *testing.T) {
	s, _ := newTestServer(t)
	in := strings.NewReader(
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}` + "\n" +
			`{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n" +
			"\n" +
			`{"jsonrpc":"2.0","id":2,"method":"ping"}`)
	var out bytes.Buffer

	require.NoError(t, s.Serve(context.Background(), in, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"protocolVersion":"2024-11-05"`)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":2,"result":{}}`, lines[1])
}
