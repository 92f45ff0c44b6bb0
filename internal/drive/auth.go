package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/term"
	drivev3 "google.golang.org/api/drive/v3"

	"gdrive-backup/internal/backup"
)

// Scope is the only permission the mirror needs.
const Scope = drivev3.DriveReadonlyScope

// ErrConsentRequired is returned when no usable token is cached and there is
// no terminal to run the browser consent from.
var ErrConsentRequired = errors.New("no cached token and no terminal for interactive consent")

// CredentialProvider produces an authorized HTTP client from an OAuth client
// secrets file, caching the user token next to it.
type CredentialProvider struct {
	credentialsFile string
	tokenFile       string
	logger          backup.Logger
	interactive     func() bool
	// consent obtains a fresh token from the user.
	consent func(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error)
}

func NewCredentialProvider(credentialsFile, tokenFile string, logger backup.Logger) *CredentialProvider {
	p := &CredentialProvider{
		credentialsFile: credentialsFile,
		tokenFile:       tokenFile,
		logger:          logger,
		interactive: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
	}
	p.consent = p.loopbackConsent
	return p
}

// Client returns an HTTP client whose requests carry a valid access token.
// A cached token is refreshed as needed and every refreshed token is written
// back to the token file.
func (p *CredentialProvider) Client(ctx context.Context) (*http.Client, error) {
	secrets, err := os.ReadFile(p.credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}
	cfg, err := google.ConfigFromJSON(secrets, Scope)
	if err != nil {
		return nil, fmt.Errorf("parsing credentials file: %w", err)
	}

	tok, err := p.loadToken()
	if err != nil {
		p.logger.Warn("ignoring unreadable token cache", "path", p.tokenFile, "error", err)
		tok = nil
	}

	if tok == nil || (!tok.Valid() && tok.RefreshToken == "") {
		if !p.interactive() {
			return nil, ErrConsentRequired
		}
		tok, err = p.consent(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("obtaining user consent: %w", err)
		}
		if err := p.saveToken(tok); err != nil {
			return nil, err
		}
	}

	src := &persistingTokenSource{
		base:   cfg.TokenSource(ctx, tok),
		last:   tok,
		save:   p.saveToken,
		logger: p.logger,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

func (p *CredentialProvider) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(p.tokenFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

func (p *CredentialProvider) saveToken(tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p.tokenFile), 0700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}
	if err := os.WriteFile(p.tokenFile, data, 0600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}

// loopbackConsent runs the installed-app flow: it listens on an ephemeral
// loopback port, prints the consent URL and waits for the redirect.
func (p *CredentialProvider) loopbackConsent(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listening for redirect: %w", err)
	}
	defer ln.Close()

	flow := *cfg
	flow.RedirectURL = fmt.Sprintf("http://%s/", ln.Addr().String())
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	codes := make(chan string, 1)
	errs := make(chan error, 1)
	srv := &http.Server{Handler: redirectHandler(state, codes, errs)}
	go srv.Serve(ln)
	defer srv.Close()

	authURL := flow.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
	fmt.Fprintf(os.Stderr, "Open this URL in your browser to authorize read-only Drive access:\n\n%s\n\n", authURL)
	p.logger.Info("waiting for authorization", "redirect", flow.RedirectURL)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-errs:
		return nil, err
	case code := <-codes:
		tok, err := flow.Exchange(ctx, code, oauth2.VerifierOption(verifier))
		if err != nil {
			return nil, fmt.Errorf("exchanging authorization code: %w", err)
		}
		return tok, nil
	}
}

// redirectHandler receives the consent redirect. Only the first redirect
// carrying the expected state is delivered; repeats are answered but dropped.
func redirectHandler(state string, codes chan<- string, errs chan<- error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		if e := q.Get("error"); e != "" {
			fmt.Fprintln(w, "Authorization failed. You may close this window.")
			select {
			case errs <- fmt.Errorf("authorization denied: %s", e):
			default:
			}
			return
		}
		fmt.Fprintln(w, "Authorization complete. You may close this window.")
		select {
		case codes <- q.Get("code"):
		default:
		}
	})
}

// persistingTokenSource writes every newly minted token to the cache.
type persistingTokenSource struct {
	mu     sync.Mutex
	base   oauth2.TokenSource
	last   *oauth2.Token
	save   func(*oauth2.Token) error
	logger backup.Logger
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil || tok.AccessToken != s.last.AccessToken {
		if err := s.save(tok); err != nil {
			s.logger.Warn("caching refreshed token failed", "error", err)
		}
		s.last = tok
	}
	return tok, nil
}
