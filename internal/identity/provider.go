package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/stickerverse/internal/config"
	"github.com/iliyamo/stickerverse/internal/repository"
)

var (
	// ErrMissingToken means no assertion was presented.
	ErrMissingToken = errors.New("missing identity token")
	// ErrInvalidToken covers bad signatures, malformed or expired
	// assertions and revoked sessions.
	ErrInvalidToken = errors.New("invalid identity token")
	// ErrBadCredentials is returned by SignIn for an unknown email or a
	// wrong password; the two are not distinguished.
	ErrBadCredentials = errors.New("invalid email or password")
	// ErrInvalidInput rejects malformed sign-up data.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmailTaken is returned by SignUp for an existing account.
	ErrEmailTaken = repository.ErrEmailExists
)

// AccountStore persists credentials.  *repository.AccountRepo over the
// service tier implements it.
type AccountStore interface {
	Create(ctx context.Context, a repository.Account) error
	GetByEmail(ctx context.Context, email string) (repository.Account, error)
}

// Options configures a Provider.
type Options struct {
	Secret     string
	TTL        time.Duration
	BcryptCost int
	LocalAdmin config.LocalAdminConfig
}

// Provider signs principals up and in, and verifies their assertions.
type Provider struct {
	accounts AccountStore
	sessions SessionStore
	secret   []byte
	ttl      time.Duration
	cost     int
	local    config.LocalAdminConfig
	now      func() time.Time
	newID    func() string
	log      *zap.Logger
}

func NewProvider(accounts AccountStore, sessions SessionStore, opts Options, log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	cost := opts.BcryptCost
	if cost == 0 {
		cost = 12
	}
	local := opts.LocalAdmin
	local.Email = repository.NormalizeEmail(local.Email)
	return &Provider{
		accounts: accounts,
		sessions: sessions,
		secret:   []byte(opts.Secret),
		ttl:      ttl,
		cost:     cost,
		local:    local,
		now:      time.Now,
		newID:    uuid.NewString,
		log:      log,
	}
}

// SetClock replaces the time source used for issuing and verifying.
func (p *Provider) SetClock(now func() time.Time) { p.now = now }

// SignUp creates an account and signs it in.  The returned session's
// identity carries the new principal id; creating the users/{id} document
// is the caller's job.
func (p *Provider) SignUp(ctx context.Context, email, password string) (Session, error) {
	email = repository.NormalizeEmail(email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return Session{}, fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	}
	if p.local.Enabled() && email == p.local.Email {
		return Session{}, ErrEmailTaken
	}
	hash, err := HashPassword(password, p.cost)
	if err != nil {
		return Session{}, err
	}
	id := p.newID()
	if err := p.accounts.Create(ctx, repository.Account{Email: email, PrincipalID: id, PasswordHash: hash}); err != nil {
		return Session{}, err
	}
	p.log.Info("account created", zap.String("principal_id", id))
	return p.startSession(ctx, ProviderIdentity{ID: id, Email: email})
}

// SignIn checks credentials and starts a session.  The configured local
// admin is matched before the account collection.
func (p *Provider) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = repository.NormalizeEmail(email)
	if p.local.Enabled() && email == p.local.Email {
		if !VerifyPassword(p.local.PasswordHash, password) {
			return Session{}, ErrBadCredentials
		}
		p.log.Info("local admin signed in")
		return p.startSession(ctx, LocalAdminIdentity{Email: email})
	}
	acct, err := p.accounts.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return Session{}, ErrBadCredentials
		}
		return Session{}, err
	}
	if !VerifyPassword(acct.PasswordHash, password) {
		return Session{}, ErrBadCredentials
	}
	return p.startSession(ctx, ProviderIdentity{ID: acct.PrincipalID, Email: email})
}

func (p *Provider) startSession(ctx context.Context, id Identity) (Session, error) {
	now := p.now().UTC().Truncate(time.Second)
	s := Session{ID: p.newID(), Identity: id, IssuedAt: now, ExpiresAt: now.Add(p.ttl)}
	tok, err := signAccessToken(p.secret, s)
	if err != nil {
		return Session{}, err
	}
	s.Token = tok
	if err := p.sessions.Put(ctx, s.ID, id.Subject(), p.ttl); err != nil {
		return Session{}, fmt.Errorf("store session: %w", err)
	}
	return s, nil
}

// Verify checks an assertion and that its session is still live.  Every
// verification failure wraps ErrInvalidToken; session store outages are
// returned unwrapped.
func (p *Provider) Verify(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrMissingToken
	}
	c, err := parseAccessToken(p.secret, token, p.now)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	id, ok := identityFor(c.Kind, c.Subject, c.Email)
	if !ok {
		return Session{}, fmt.Errorf("%w: unknown principal kind", ErrInvalidToken)
	}
	subject, err := p.sessions.Subject(ctx, c.ID)
	if errors.Is(err, ErrSessionNotFound) {
		return Session{}, fmt.Errorf("%w: session revoked or expired", ErrInvalidToken)
	}
	if err != nil {
		return Session{}, fmt.Errorf("lookup session: %w", err)
	}
	if subject != c.Subject {
		return Session{}, fmt.Errorf("%w: session subject mismatch", ErrInvalidToken)
	}
	s := Session{ID: c.ID, Identity: id, Token: token}
	if c.IssuedAt != nil {
		s.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s, nil
}

// TokenSubject returns the subject of a correctly signed, unexpired
// assertion without consulting the session store.  It is only fit for
// keying, such as rate limits; access decisions must use Verify.
func (p *Provider) TokenSubject(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	c, err := parseAccessToken(p.secret, token, p.now)
	if err != nil || c.Subject == "" {
		return "", false
	}
	return c.Subject, true
}

// SignOut revokes the session behind token.  Revoking is idempotent; the
// assertion must still verify so that only its holder can end it.
func (p *Provider) SignOut(ctx context.Context, token string) (Session, error) {
	s, err := p.Verify(ctx, token)
	if err != nil {
		return Session{}, err
	}
	if err := p.sessions.Delete(ctx, s.ID); err != nil {
		return Session{}, fmt.Errorf("revoke session: %w", err)
	}
	return s, nil
}
