package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vijay-prabhu/mailsplit/internal/config"
	"github.com/vijay-prabhu/mailsplit/internal/database"
	"github.com/vijay-prabhu/mailsplit/internal/email"
	"github.com/vijay-prabhu/mailsplit/internal/filter"
)

type fakeProvider struct {
	emails   []email.Email
	err      error
	gotOpts  email.FetchOptions
	progress email.ProgressFunc
}

func (f *fakeProvider) Name() string                           { return "gmail" }
func (f *fakeProvider) Authenticate(ctx context.Context) error { return nil }
func (f *fakeProvider) IsAuthenticated() bool                  { return true }
func (f *fakeProvider) GetUserEmail(ctx context.Context) (string, error) {
	return "me@acme.com", nil
}

func (f *fakeProvider) SetProgressCallback(fn email.ProgressFunc) { f.progress = fn }

func (f *fakeProvider) FetchEmails(ctx context.Context, opts email.FetchOptions) ([]email.Email, error) {
	f.gotOpts = opts
	for i := range f.emails {
		if f.progress != nil {
			f.progress(i+1, len(f.emails))
		}
	}
	return f.emails, f.err
}

func (f *fakeProvider) GetEmail(ctx context.Context, id string) (*email.Email, error) {
	for i := range f.emails {
		if f.emails[i].ID == id {
			return &f.emails[i], nil
		}
	}
	return nil, errors.New("not found")
}

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testEmail(id, subject string) email.Email {
	return email.Email{
		ID:      id,
		Subject: subject,
		From:    email.Address{Name: "Jane Doe", Email: "jane@acme.com"},
		Date:    time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		Body:    "The tenant signed.\n",
	}
}

func TestSyncProvider(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	p := &fakeProvider{emails: []email.Email{testEmail("m1", "Lease"), testEmail("m2", "Tour"), {}}}

	var mu sync.Mutex
	phases := map[Phase]int{}
	progress := func(pr Progress) {
		mu.Lock()
		phases[pr.Phase]++
		mu.Unlock()
	}

	result, err := New(db, zerolog.Nop()).SyncProvider(ctx, p, SyncOptions{MaxResults: 25, Query: "label:crm"}, progress)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Found)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 25, p.gotOpts.MaxResults)
	assert.Equal(t, "label:crm", p.gotOpts.Query)
	assert.Equal(t, 3, phases[PhaseFetching])
	assert.Equal(t, 3, phases[PhaseStoring])

	a, err := db.GetActivityByExternalID(ctx, database.SourceGmail, "m1")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "Lease", a.SubjectOrEmpty())
	assert.Equal(t, "Jane Doe <jane@acme.com>", a.SenderOrEmpty())
	assert.Contains(t, a.RawBody, "Subject: Lease\n")
	assert.Contains(t, a.RawBody, "\n\nThe tenant signed.")

	state, err := db.GetSyncState(ctx, database.SourceGmail)
	require.NoError(t, err)
	require.NotNil(t, state.LastSyncAt)
	assert.Equal(t, 2, state.ActivitiesImported)

	// second run is incremental and skips what is stored
	again, err := New(db, zerolog.Nop()).SyncProvider(ctx, p, SyncOptions{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Imported)
	assert.Equal(t, 2, again.Skipped)
	require.NotNil(t, p.gotOpts.After)
	assert.WithinDuration(t, *state.LastSyncAt, *p.gotOpts.After, time.Second)
}

func TestSyncProviderFiltered(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	bounce := testEmail("m2", "Undeliverable: Lease")
	bounce.From = email.Address{Email: "MAILER-DAEMON@acme.com"}
	ooo := testEmail("m3", "Out of office")
	p := &fakeProvider{emails: []email.Email{testEmail("m1", "Lease"), bounce, ooo}}

	result, err := New(db, zerolog.Nop()).
		WithFilter(filter.New(config.Default().Filters)).
		SyncProvider(ctx, p, SyncOptions{}, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Found)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 2, result.Filtered)
	assert.Equal(t, 0, result.Failed)

	a, err := db.GetActivityByExternalID(ctx, database.SourceGmail, "m2")
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestSyncProviderDays(t *testing.T) {
	db := setupTestDB(t)
	p := &fakeProvider{}

	_, err := New(db, zerolog.Nop()).SyncProvider(context.Background(), p, SyncOptions{Days: 7}, nil)
	require.NoError(t, err)
	require.NotNil(t, p.gotOpts.After)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -7), *p.gotOpts.After, time.Minute)
}

func TestSyncProviderFetchError(t *testing.T) {
	db := setupTestDB(t)
	p := &fakeProvider{err: errors.New("quota")}

	_, err := New(db, zerolog.Nop()).SyncProvider(context.Background(), p, SyncOptions{}, nil)
	assert.ErrorContains(t, err, "quota")
}

func writeEML(t *testing.T, dir, name, messageID, subject string) {
	t.Helper()
	var header string
	if messageID != "" {
		header = "Message-ID: <" + messageID + ">\r\n"
	}
	msg := header +
		"From: jane@acme.com\r\n" +
		"Subject: " + subject + "\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Body of " + subject + "\r\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(msg), 0600))
}

func TestImportDir(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	dir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))
	for i := range 6 {
		writeEML(t, dir, fmt.Sprintf("m%d.eml", i), fmt.Sprintf("id%d@acme.com", i), fmt.Sprintf("Subject %d", i))
	}
	writeEML(t, filepath.Join(dir, "nested"), "deep.EML", "", "Deep")
	writeEML(t, dir, "dup.eml", "id0@acme.com", "Duplicate")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0600))

	var calls int
	result, err := New(db, zerolog.Nop()).WithWorkers(3).ImportDir(ctx, dir, func(Progress) { calls++ })
	require.NoError(t, err)

	assert.Equal(t, 8, result.Found)
	assert.Equal(t, 7, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 9, calls) // one scan update plus one per file

	eml := database.SourceEML
	n, err := db.CountActivities(ctx, &eml)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	deep, err := db.GetActivityByExternalID(ctx, database.SourceEML, "deep.EML")
	require.NoError(t, err)
	require.NotNil(t, deep)

	// rerun imports nothing new
	again, err := New(db, zerolog.Nop()).ImportDir(ctx, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Imported)
	assert.Equal(t, 8, again.Skipped)
}

func TestImportDirMissing(t *testing.T) {
	db := setupTestDB(t)
	_, err := New(db, zerolog.Nop()).ImportDir(context.Background(), filepath.Join(t.TempDir(), "nope"), nil)
	assert.Error(t, err)
}

func TestProgress(t *testing.T) {
	p := Progress{Current: 25, Total: 100}
	assert.Equal(t, 25, p.Percentage())
	assert.Equal(t, time.Duration(0), p.ETA())

	p.StartedAt = time.Now().Add(-10 * time.Second)
	assert.InDelta(t, 30*time.Second, p.ETA(), float64(2*time.Second))

	assert.Equal(t, 0, Progress{}.Percentage())
}
