package gmail

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
)

const (
	callbackAddr = "localhost:8080"
	authTimeout  = 5 * time.Minute
)

// Scopes are the OAuth scopes mailsplit asks for. Sync only ever reads.
var Scopes = []string{
	gmail.GmailReadonlyScope,
}

// loadCredentials loads OAuth config from credentials file
func loadCredentials(credPath string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w\n\nTo set up Gmail API:\n1. Go to https://console.cloud.google.com/\n2. Create a project and enable Gmail API\n3. Create OAuth 2.0 credentials (Desktop app)\n4. Download and save to: %s", err, credPath)
	}

	config, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	return config, nil
}

// loadToken loads a saved OAuth token
func loadToken(tokenPath string) (*oauth2.Token, error) {
	data, err := os.ReadFile(tokenPath)
	if err != nil {
		return nil, err
	}

	token := &oauth2.Token{}
	if err := json.Unmarshal(data, token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}

	return token, nil
}

// saveToken writes an OAuth token readable only by the owner
func saveToken(tokenPath string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(tokenPath, data, 0600)
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// tokenFromWeb runs the browser consent flow with a one-shot callback server.
// Prompts go to out, never stdout, since stdout may be an MCP transport.
func tokenFromWeb(ctx context.Context, config *oauth2.Config, out io.Writer) (*oauth2.Token, error) {
	state, err := randomState()
	if err != nil {
		return nil, fmt.Errorf("failed to create state: %w", err)
	}

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "invalid state", http.StatusBadRequest)
			errChan <- errors.New("invalid state parameter")
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			errChan <- errors.New("no code in callback")
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><h1>mailsplit is connected to Gmail</h1><p>You can close this window.</p></body></html>`)
		codeChan <- code
	})

	ln, err := net.Listen("tcp", callbackAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	defer server.Shutdown(context.Background())

	config.RedirectURL = "http://" + callbackAddr + "/callback"
	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	fmt.Fprintln(out, "Opening browser for Google authentication...")
	fmt.Fprintln(out, "If browser doesn't open, visit this URL:")
	fmt.Fprintln(out, authURL)
	fmt.Fprintln(out)

	openBrowser(authURL)

	var code string
	select {
	case code = <-codeChan:
	case err := <-errChan:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(authTimeout):
		return nil, errors.New("authentication timeout")
	}

	token, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return token, nil
}

// openBrowser opens the URL in the default browser
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return
	}

	_ = cmd.Start()
}

// httpClient returns an authenticated HTTP client, running the consent flow
// when no token is stored yet
func (p *Provider) httpClient(ctx context.Context, config *oauth2.Config) (*http.Client, error) {
	token, err := loadToken(p.tokenPath)
	if err != nil {
		if !p.interactive {
			return nil, fmt.Errorf("no Gmail token at %s, run 'mailsplit sync' from a terminal first", p.tokenPath)
		}
		token, err = tokenFromWeb(ctx, config, p.prompt)
		if err != nil {
			return nil, err
		}
		if err := saveToken(p.tokenPath, token); err != nil {
			return nil, fmt.Errorf("failed to save token: %w", err)
		}
		p.logger.Info().Str("token_path", p.tokenPath).Msg("Gmail authentication successful")
	}

	// Token source will auto-refresh expired tokens
	tokenSource := config.TokenSource(ctx, token)

	newToken, err := tokenSource.Token()
	if err == nil && newToken.AccessToken != token.AccessToken {
		if err := saveToken(p.tokenPath, newToken); err != nil {
			p.logger.Warn().Err(err).Msg("Failed to persist refreshed token")
		}
	}

	return oauth2.NewClient(ctx, tokenSource), nil
}
