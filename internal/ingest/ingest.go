// Package ingest moves raw email text from mail sources into the activity
// store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vijay-prabhu/mailsplit/internal/database"
	"github.com/vijay-prabhu/mailsplit/internal/email"
	"github.com/vijay-prabhu/mailsplit/internal/email/eml"
	"github.com/vijay-prabhu/mailsplit/internal/filter"
	"github.com/vijay-prabhu/mailsplit/internal/logging"
)

// Ingestor stores emails as activities, skipping ones already stored
type Ingestor struct {
	db      *database.DB
	filter  *filter.Filter
	logger  zerolog.Logger
	workers int
}

// New creates an Ingestor with runtime.NumCPU()*2 file workers
func New(db *database.DB, logger zerolog.Logger) *Ingestor {
	return &Ingestor{
		db:      db,
		logger:  logging.Component(logger, "ingest"),
		workers: runtime.NumCPU() * 2,
	}
}

// WithWorkers sets the number of concurrent file workers
func (in *Ingestor) WithWorkers(n int) *Ingestor {
	in.workers = max(n, 1)
	return in
}

// WithFilter drops emails the filter excludes before they are stored
func (in *Ingestor) WithFilter(f *filter.Filter) *Ingestor {
	in.filter = f
	return in
}

// Result summarizes an ingest run
type Result struct {
	Found       int      `json:"found"`
	Imported    int      `json:"imported"`
	Skipped     int      `json:"skipped"`
	Filtered    int      `json:"filtered"`
	Failed      int      `json:"failed"`
	FailedItems []string `json:"failed_items,omitempty"`
	Errors      []error  `json:"-"`
}

func (r *Result) add(o outcome) {
	switch o.status {
	case statusImported:
		r.Imported++
	case statusSkipped:
		r.Skipped++
	case statusFiltered:
		r.Filtered++
	case statusFailed:
		r.Failed++
		r.FailedItems = append(r.FailedItems, o.item)
		r.Errors = append(r.Errors, o.err)
	}
}

type status int

const (
	statusImported status = iota
	statusSkipped
	statusFiltered
	statusFailed
)

type outcome struct {
	item   string
	status status
	err    error
}

// SyncOptions configures SyncProvider
type SyncOptions struct {
	Days       int    // Fetch this many days back, 0 to use the last sync time
	Full       bool   // Ignore the last sync time
	MaxResults int    // Upper bound on fetched messages
	Query      string // Provider-specific search query
}

// progressSetter is implemented by providers that report fetch progress
type progressSetter interface {
	SetProgressCallback(fn email.ProgressFunc)
}

// SyncProvider fetches recent messages from p and stores the new ones
func (in *Ingestor) SyncProvider(ctx context.Context, p email.Provider, opts SyncOptions, progress ProgressCallback) (*Result, error) {
	rep := &reporter{fn: progress}
	source := database.Source(p.Name())

	state, err := in.db.GetSyncState(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}

	fetch := email.DefaultFetchOptions()
	fetch.Query = opts.Query
	if opts.MaxResults > 0 {
		fetch.MaxResults = opts.MaxResults
	}
	switch {
	case opts.Days > 0:
		after := time.Now().AddDate(0, 0, -opts.Days)
		fetch.After = &after
	case opts.Full:
		// keep the default window
	case state.LastSyncAt != nil:
		fetch.After = state.LastSyncAt
	}

	if ps, ok := p.(progressSetter); ok {
		ps.SetProgressCallback(func(current, total int) {
			rep.report(PhaseFetching, current, total, "Downloading messages from "+p.Name())
		})
	}

	in.logger.Info().Str("source", string(source)).Int("max_results", fetch.MaxResults).Msg("Sync started")

	emails, err := p.FetchEmails(ctx, fetch)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch emails: %w", err)
	}

	result := &Result{Found: len(emails)}
	for i := range emails {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		rep.report(PhaseStoring, i+1, len(emails), "Storing activities")
		result.add(in.store(ctx, source, &emails[i], emails[i].ID))
	}

	now := time.Now()
	state.LastSyncAt = &now
	state.ActivitiesImported += result.Imported
	if err := in.db.UpdateSyncState(ctx, state); err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("failed to update sync state: %w", err))
	}

	in.logger.Info().
		Str("source", string(source)).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Int("filtered", result.Filtered).
		Int("failed", result.Failed).
		Msg("Sync finished")
	return result, nil
}

// ImportDir stores every .eml file under dir using a worker pool
func (in *Ingestor) ImportDir(ctx context.Context, dir string, progress ProgressCallback) (*Result, error) {
	rep := &reporter{fn: progress}
	rep.report(PhaseScanning, 0, 0, "Scanning for message files")

	files, err := scanDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan for files: %w", err)
	}
	result := &Result{Found: len(files)}
	if len(files) == 0 {
		return result, nil
	}

	in.logger.Info().Str("dir", dir).Int("files", len(files)).Int("workers", in.workers).Msg("Import started")

	fileChan := make(chan string)
	resultChan := make(chan outcome, len(files))

	var wg sync.WaitGroup
	for range min(in.workers, len(files)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range fileChan {
				resultChan <- in.importFile(ctx, path)
			}
		}()
	}

	go func() {
		defer close(fileChan)
		for _, f := range files {
			select {
			case fileChan <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	done := 0
	for o := range resultChan {
		done++
		rep.report(PhaseStoring, done, len(files), "Importing message files")
		result.add(o)
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	now := time.Now()
	state, err := in.db.GetSyncState(ctx, database.SourceEML)
	if err == nil {
		state.LastSyncAt = &now
		state.ActivitiesImported += result.Imported
		err = in.db.UpdateSyncState(ctx, state)
	}
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("failed to update sync state: %w", err))
	}

	in.logger.Info().
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Int("filtered", result.Filtered).
		Int("failed", result.Failed).
		Msg("Import finished")
	return result, nil
}

func (in *Ingestor) importFile(ctx context.Context, path string) outcome {
	e, err := eml.ReadFile(path)
	if err != nil {
		in.logger.Warn().Err(err).Str("file", path).Msg("Failed to read message file")
		return outcome{item: path, status: statusFailed, err: err}
	}
	return in.store(ctx, database.SourceEML, e, path)
}

// store writes e as an activity unless the filter drops it or one with the
// same external ID exists
func (in *Ingestor) store(ctx context.Context, source database.Source, e *email.Email, item string) outcome {
	if e.ID == "" {
		err := errors.New("message has no ID")
		return outcome{item: item, status: statusFailed, err: err}
	}

	if in.filter != nil {
		if res := in.filter.Apply(e); !res.Include {
			in.logger.Debug().Str("item", item).Str("layer", string(res.Layer)).Str("reason", res.Reason).Msg("Filtered")
			return outcome{item: item, status: statusFiltered}
		}
	}

	existing, err := in.db.GetActivityByExternalID(ctx, source, e.ID)
	if err != nil {
		return outcome{item: item, status: statusFailed, err: err}
	}
	if existing != nil {
		return outcome{item: item, status: statusSkipped}
	}

	a := ActivityFromEmail(source, e)
	if err := in.db.CreateActivity(ctx, a); err != nil {
		// a concurrent worker may have stored the same message first
		if again, _ := in.db.GetActivityByExternalID(ctx, source, e.ID); again != nil {
			return outcome{item: item, status: statusSkipped}
		}
		in.logger.Warn().Err(err).Str("item", item).Msg("Failed to store activity")
		return outcome{item: item, status: statusFailed, err: err}
	}
	return outcome{item: item, status: statusImported}
}

// ActivityFromEmail converts a fetched message into an unsaved activity
func ActivityFromEmail(source database.Source, e *email.Email) *database.Activity {
	a := &database.Activity{
		Source:     source,
		ExternalID: e.ID,
		RawBody:    e.RawText(),
		ReceivedAt: e.Date,
	}
	if e.Subject != "" {
		a.Subject = &e.Subject
	}
	if e.From.Email != "" {
		sender := e.From.String()
		a.Sender = &sender
	}
	return a
}

// scanDir lists message files under dir in lexical order
func scanDir(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), eml.Ext) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
