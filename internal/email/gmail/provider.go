package gmail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/vijay-prabhu/mailsplit/internal/email"
)

// pageSize is the largest page Messages.List will return
const pageSize = 100

var errNotAuthenticated = errors.New("not authenticated - call Authenticate() first")

// Provider implements the email.Provider interface for Gmail
type Provider struct {
	credPath    string
	tokenPath   string
	service     *gmail.Service
	userEmail   string
	logger      zerolog.Logger
	prompt      io.Writer
	interactive bool
	progress    email.ProgressFunc
}

// Option configures a Provider
type Option func(*Provider)

// WithLogger sets the logger used for per-message warnings
func WithLogger(l zerolog.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// WithPrompt sets where consent flow instructions are written. A nil writer
// disables the browser flow so a missing token becomes an error.
func WithPrompt(w io.Writer) Option {
	return func(p *Provider) {
		p.prompt = w
		p.interactive = w != nil
	}
}

// New creates a new Gmail provider
func New(credPath, tokenPath string, opts ...Option) *Provider {
	p := &Provider{
		credPath:    credPath,
		tokenPath:   tokenPath,
		logger:      zerolog.Nop(),
		prompt:      os.Stderr,
		interactive: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "gmail"
}

// SetProgressCallback registers fn to be told about each fetched message
func (p *Provider) SetProgressCallback(fn email.ProgressFunc) {
	p.progress = fn
}

// IsAuthenticated checks if valid token exists
func (p *Provider) IsAuthenticated() bool {
	_, err := loadToken(p.tokenPath)
	return err == nil
}

// Authenticate performs OAuth authentication
func (p *Provider) Authenticate(ctx context.Context) error {
	config, err := loadCredentials(p.credPath)
	if err != nil {
		return err
	}

	client, err := p.httpClient(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to get OAuth client: %w", err)
	}

	service, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return fmt.Errorf("failed to create Gmail service: %w", err)
	}

	p.service = service

	profile, err := service.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to get user profile: %w", err)
	}

	p.userEmail = profile.EmailAddress
	return nil
}

// GetUserEmail returns the authenticated user's email address
func (p *Provider) GetUserEmail(ctx context.Context) (string, error) {
	if p.userEmail == "" {
		return "", errNotAuthenticated
	}
	return p.userEmail, nil
}

// FetchEmails retrieves emails matching criteria, newest first. Messages
// that fail to load are logged and skipped.
func (p *Provider) FetchEmails(ctx context.Context, opts email.FetchOptions) ([]email.Email, error) {
	if p.service == nil {
		return nil, errNotAuthenticated
	}
	if opts.MaxResults <= 0 {
		return nil, nil
	}

	query := buildQuery(opts)
	p.logger.Debug().Str("query", query).Int("max_results", opts.MaxResults).Msg("Listing Gmail messages")

	var emails []email.Email
	pageToken := ""

	for {
		req := p.service.Users.Messages.List("me").
			Q(query).
			MaxResults(int64(min(opts.MaxResults-len(emails), pageSize)))

		if pageToken != "" {
			req = req.PageToken(pageToken)
		}

		resp, err := req.Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list messages: %w", err)
		}

		for _, msg := range resp.Messages {
			if err := ctx.Err(); err != nil {
				return emails, err
			}

			fullMsg, err := p.service.Users.Messages.Get("me", msg.Id).
				Format("full").
				Context(ctx).
				Do()
			if err != nil {
				p.logger.Warn().Err(err).Str("message_id", msg.Id).Msg("Failed to fetch message")
				continue
			}

			emails = append(emails, convertMessage(fullMsg))
			if p.progress != nil {
				p.progress(len(emails), opts.MaxResults)
			}

			if len(emails) >= opts.MaxResults {
				return emails, nil
			}
		}

		pageToken = resp.NextPageToken
		if pageToken == "" || len(emails) >= opts.MaxResults {
			break
		}
	}

	return emails, nil
}

// GetEmail retrieves a single email by ID
func (p *Provider) GetEmail(ctx context.Context, id string) (*email.Email, error) {
	if p.service == nil {
		return nil, errNotAuthenticated
	}

	msg, err := p.service.Users.Messages.Get("me", id).
		Format("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	result := convertMessage(msg)
	return &result, nil
}
