package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/teemow/gtasks-mcp/internal/apperr"
	"github.com/teemow/gtasks-mcp/internal/instrumentation"
	"github.com/teemow/gtasks-mcp/internal/logging"
)

// ErrNoToken is returned when no token has been saved yet.
var ErrNoToken = errors.New("no Google Tasks token found")

// ErrNoCredentials is returned when no OAuth client is configured.
var ErrNoCredentials = errors.New("no OAuth client credentials configured")

// AuthProvider owns the OAuth token of the account the server acts for.
type AuthProvider interface {
	// Load returns the stored token without contacting Google.
	Load(ctx context.Context) (*oauth2.Token, error)
	// Refresh exchanges the stored refresh token for a new access token
	// and saves the result.
	Refresh(ctx context.Context) (*oauth2.Token, error)
	// Save persists token.
	Save(token *oauth2.Token) error
	// TokenSource returns a source that refreshes and saves as needed.
	// Its errors are *apperr.AuthError.
	TokenSource(ctx context.Context) (oauth2.TokenSource, error)
}

// OAuthConfig builds the OAuth client configuration. Explicit client
// credentials win over the credentials file downloaded from the Google
// Cloud console.
func OAuthConfig(credentialsFile, clientID, clientSecret, redirectURL string) (*oauth2.Config, error) {
	if clientID != "" {
		return &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  redirectURL,
			Scopes:       DefaultOAuthScopes,
		}, nil
	}

	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrNoCredentials, credentialsFile)
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	conf, err := google.ConfigFromJSON(data, DefaultOAuthScopes...)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials file %s: %w", credentialsFile, err)
	}
	if redirectURL != "" {
		conf.RedirectURL = redirectURL
	}
	return conf, nil
}

// FileAuthProvider stores the token as JSON in a file.
type FileAuthProvider struct {
	conf      *oauth2.Config
	tokenPath string
	metrics   *instrumentation.Metrics
	logger    *slog.Logger

	mu sync.Mutex
}

var _ AuthProvider = (*FileAuthProvider)(nil)

// FileAuthProviderOption configures a FileAuthProvider.
type FileAuthProviderOption func(*FileAuthProvider)

// WithMetrics records authentication and refresh outcomes in m.
func WithMetrics(m *instrumentation.Metrics) FileAuthProviderOption {
	return func(p *FileAuthProvider) { p.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) FileAuthProviderOption {
	return func(p *FileAuthProvider) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewFileAuthProvider creates a provider for conf that keeps its token at
// tokenPath.
func NewFileAuthProvider(conf *oauth2.Config, tokenPath string, opts ...FileAuthProviderOption) *FileAuthProvider {
	p := &FileAuthProvider{
		conf:      conf,
		tokenPath: tokenPath,
		logger:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// TokenPath returns where the token is stored.
func (p *FileAuthProvider) TokenPath() string { return p.tokenPath }

// Load reads the stored token.
func (p *FileAuthProvider) Load(_ context.Context) (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.load()
}

func (p *FileAuthProvider) load() (*oauth2.Token, error) {
	data, err := os.ReadFile(p.tokenPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrNoToken, p.tokenPath)
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", p.tokenPath, err)
	}
	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, fmt.Errorf("%w: %s holds no credentials", ErrNoToken, p.tokenPath)
	}
	return &token, nil
}

// Save writes token with mode 0600, creating the directory with 0700.
func (p *FileAuthProvider) Save(token *oauth2.Token) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.save(token)
}

func (p *FileAuthProvider) save(token *oauth2.Token) error {
	if token == nil {
		return errors.New("failed to save token: token is nil")
	}
	if err := os.MkdirAll(filepath.Dir(p.tokenPath), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	tmp := p.tokenPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := os.Rename(tmp, p.tokenPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Refresh forces a token refresh and saves the result.
func (p *FileAuthProvider) Refresh(ctx context.Context) (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, err := p.load()
	if err != nil {
		return nil, &apperr.AuthError{Err: err}
	}
	if current.RefreshToken == "" {
		return nil, &apperr.AuthError{Err: errors.New("stored token has no refresh token")}
	}

	// An empty access token makes the source refresh immediately.
	fresh, err := p.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: current.RefreshToken}).Token()
	if err != nil {
		p.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.StatusError)
		return nil, &apperr.AuthError{Err: fmt.Errorf("failed to refresh token: %w", err)}
	}
	p.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.StatusSuccess)

	if err := p.save(fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// TokenSource returns a refreshing source seeded with the stored token.
// Refreshed tokens are saved on the fly.
func (p *FileAuthProvider) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	token, err := p.Load(ctx)
	if err != nil {
		return nil, &apperr.AuthError{Err: err}
	}
	return &persistingTokenSource{
		ctx:      ctx,
		provider: p,
		base:     oauth2.ReuseTokenSource(token, p.conf.TokenSource(ctx, token)),
		last:     token.AccessToken,
	}, nil
}

// AuthCodeURL returns the consent page URL. verifier is the PKCE verifier
// later passed to Exchange.
func (p *FileAuthProvider) AuthCodeURL(state, verifier string) string {
	return p.conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier),
	)
}

// SetRedirectURL points the OAuth flow at the loopback listener.
func (p *FileAuthProvider) SetRedirectURL(u string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conf.RedirectURL = u
}

// Exchange trades an authorization code for a token and saves it.
func (p *FileAuthProvider) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	token, err := p.conf.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		p.metrics.RecordOAuthAuth(ctx, instrumentation.StatusError)
		return nil, &apperr.AuthError{Err: fmt.Errorf("failed to exchange auth code: %w", err)}
	}
	p.metrics.RecordOAuthAuth(ctx, instrumentation.StatusSuccess)

	if err := p.Save(token); err != nil {
		return nil, err
	}
	return token, nil
}

// persistingTokenSource saves every token that differs from the last one
// it handed out.
type persistingTokenSource struct {
	ctx      context.Context
	provider *FileAuthProvider
	base     oauth2.TokenSource

	mu   sync.Mutex
	last string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		s.provider.metrics.RecordOAuthTokenRefresh(s.ctx, instrumentation.StatusError)
		return nil, &apperr.AuthError{Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token.AccessToken == s.last {
		return token, nil
	}
	s.last = token.AccessToken
	s.provider.metrics.RecordOAuthTokenRefresh(s.ctx, instrumentation.StatusSuccess)

	if err := s.provider.Save(token); err != nil {
		// The token is still usable for this process.
		s.provider.logger.Warn("failed to persist refreshed token", logging.Err(err))
	} else {
		s.provider.logger.Debug("persisted refreshed token", "expiry", token.Expiry.Format(time.RFC3339))
	}
	return token, nil
}
