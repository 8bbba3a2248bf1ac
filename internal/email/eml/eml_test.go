package eml

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const plainMessage = "Message-ID: <abc123@acme.com>\r\n" +
	"From: \"Jane Doe\" <jane@acme.com>\r\n" +
	"To: Bob <bob@example.com>, carol@example.com\r\n" +
	"Cc: dan@example.com\r\n" +
	"Subject: Re: 123 Main St\r\n" +
	"Date: Mon, 15 Jan 2024 10:30:00 -0500\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"The tenant signed the lease.\r\n" +
	"\r\n" +
	"Best regards,\r\n" +
	"Jane\r\n"

const multipartMessage = "From: jane@acme.com\r\n" +
	"Subject: Tour\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=\"b1\"\r\n" +
	"\r\n" +
	"--b1\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<p>HTML version</p>\r\n" +
	"--b1\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Plain version\r\n" +
	"--b1--\r\n"

const htmlOnlyMessage = "From: jane@acme.com\r\n" +
	"Subject: Flyer\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<div>Open house</div><div>Saturday &amp; Sunday</div>\r\n"

const latin1Message = "From: jane@acme.com\r\n" +
	"Subject: Caf\xe9\r\n" +
	"Content-Type: text/plain; charset=windows-1252\r\n" +
	"\r\n" +
	"Caf\xe9 on the ground floor\r\n"

func TestReadPlain(t *testing.T) {
	e, err := Read(strings.NewReader(plainMessage))
	require.NoError(t, err)

	assert.Equal(t, "abc123@acme.com", e.ID)
	assert.Equal(t, "Re: 123 Main St", e.Subject)
	assert.Equal(t, "Jane Doe", e.From.Name)
	assert.Equal(t, "jane@acme.com", e.From.Email)
	require.Len(t, e.To, 2)
	assert.Equal(t, "bob@example.com", e.To[0].Email)
	assert.Equal(t, "carol@example.com", e.To[1].Email)
	require.Len(t, e.Cc, 1)
	assert.Equal(t, 2024, e.Date.Year())
	assert.Equal(t, "The tenant signed the lease.\n\nBest regards,\nJane\n", e.Body)
	assert.Equal(t, "The tenant signed the lease. Best regards, Jane", e.Snippet)
}

func TestReadPrefersPlainPart(t *testing.T) {
	e, err := Read(strings.NewReader(multipartMessage))
	require.NoError(t, err)
	assert.Equal(t, "Plain version", strings.TrimSpace(e.Body))
}

func TestReadHTMLOnly(t *testing.T) {
	e, err := Read(strings.NewReader(htmlOnlyMessage))
	require.NoError(t, err)
	assert.Equal(t, "Open house\nSaturday & Sunday", e.Body)
}

func TestReadWindows1252(t *testing.T) {
	e, err := Read(strings.NewReader(latin1Message))
	require.NoError(t, err)
	assert.Equal(t, "Café on the ground floor\n", e.Body)
}

func TestReadFileUsesNameWithoutMessageID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tour.eml")
	require.NoError(t, os.WriteFile(path, []byte(multipartMessage), 0600))

	e, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "tour.eml", e.ID)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.eml"))
	assert.Error(t, err)
}

func TestRawTextRoundTrip(t *testing.T) {
	e, err := Read(strings.NewReader(plainMessage))
	require.NoError(t, err)

	raw := e.RawText()
	assert.True(t, strings.HasPrefix(raw, "Subject: Re: 123 Main St\nFrom: Jane Doe <jane@acme.com>\n"))
	assert.Contains(t, raw, "To: Bob <bob@example.com>, carol@example.com\n")
	assert.True(t, strings.HasSuffix(raw, "\n\nThe tenant signed the lease.\n\nBest regards,\nJane"))
}
