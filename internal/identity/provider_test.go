package identity

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/stickerverse/internal/config"
	"github.com/iliyamo/stickerverse/internal/database"
	"github.com/iliyamo/stickerverse/internal/docstore"
	"github.com/iliyamo/stickerverse/internal/repository"
)

const testSecret = "test-secret"

func newTestProvider(t *testing.T, local config.LocalAdminConfig) (*Provider, *MemorySessionStore) {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "id.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	sessions := NewMemorySessionStore()
	p := NewProvider(repository.NewAccountRepo(docstore.NewSQLStore(db)), sessions, Options{
		Secret:     testSecret,
		TTL:        time.Hour,
		BcryptCost: bcrypt.MinCost,
		LocalAdmin: local,
	}, nil)
	return p, sessions
}

func TestSignUpSignInVerify(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t, config.LocalAdminConfig{})

	up, err := p.SignUp(ctx, "Zoe@Example.com", "correct horse")
	require.NoError(t, err)
	pid := up.PrincipalID()
	require.NotEmpty(t, pid)
	assert.Equal(t, "zoe@example.com", up.Identity.EmailAddress())

	_, err = p.SignUp(ctx, "zoe@example.com", "another pass")
	assert.ErrorIs(t, err, ErrEmailTaken)

	in, err := p.SignIn(ctx, "ZOE@example.com", "correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, up.ID, in.ID)

	got, err := p.Verify(ctx, in.Token)
	require.NoError(t, err)
	assert.Equal(t, ProviderIdentity{ID: pid, Email: "zoe@example.com"}, got.Identity)
	assert.Equal(t, in.ID, got.ID)

	_, err = p.SignIn(ctx, "zoe@example.com", "wrong password")
	assert.ErrorIs(t, err, ErrBadCredentials)
	_, err = p.SignIn(ctx, "nobody@example.com", "whatever1")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestSignUp_RejectsBadInput(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t, config.LocalAdminConfig{})

	_, err := p.SignUp(ctx, "not-an-email", "long enough")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = p.SignUp(ctx, "a@b.co", "short")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestVerify_Failures(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t, config.LocalAdminConfig{})
	s, err := p.SignUp(ctx, "kim@example.com", "password123")
	require.NoError(t, err)

	_, err = p.Verify(ctx, "")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = p.Verify(ctx, "not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	forged, err := signAccessToken([]byte("other-secret"), s)
	require.NoError(t, err)
	_, err = p.Verify(ctx, forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": s.PrincipalID(), "jti": s.ID, "iss": issuer})
	raw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = p.Verify(ctx, raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t, config.LocalAdminConfig{})
	s, err := p.SignUp(ctx, "lee@example.com", "password123")
	require.NoError(t, err)

	p.SetClock(func() time.Time { return time.Now().Add(2 * time.Hour) })
	_, err = p.Verify(ctx, s.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignOut_RevokesSession(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t, config.LocalAdminConfig{})
	s, err := p.SignUp(ctx, "max@example.com", "password123")
	require.NoError(t, err)

	out, err := p.SignOut(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, s.ID, out.ID)

	_, err = p.Verify(ctx, s.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = p.SignOut(ctx, s.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLocalAdmin(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("operator-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	p, _ := newTestProvider(t, config.LocalAdminConfig{Email: "Ops@Shop.test", PasswordHash: string(hash)})

	_, err = p.SignIn(ctx, "ops@shop.test", "nope")
	assert.ErrorIs(t, err, ErrBadCredentials)

	s, err := p.SignIn(ctx, "ops@shop.test", "operator-pass")
	require.NoError(t, err)
	assert.Equal(t, LocalAdminIdentity{Email: "ops@shop.test"}, s.Identity)
	assert.Empty(t, s.PrincipalID())

	got, err := p.Verify(ctx, s.Token)
	require.NoError(t, err)
	_, isLocal := got.Identity.(LocalAdminIdentity)
	assert.True(t, isLocal)

	_, err = p.SignUp(ctx, "ops@shop.test", "password123")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestMemorySessionStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySessionStore()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put(ctx, "s1", "p1", time.Minute))
	sub, err := s.Subject(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "p1", sub)

	now = now.Add(time.Minute)
	_, err = s.Subject(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestTokenSubject(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t, config.LocalAdminConfig{})
	s, err := p.SignUp(ctx, "kit@example.com", "password123")
	require.NoError(t, err)

	sub, ok := p.TokenSubject(s.Token)
	require.True(t, ok)
	assert.Equal(t, s.Identity.Subject(), sub)

	_, ok = p.TokenSubject("")
	assert.False(t, ok)

	other := NewProvider(nil, NewMemorySessionStore(), Options{Secret: "other-secret"}, nil)
	_, ok = other.TokenSubject(s.Token)
	assert.False(t, ok, "a token signed with another key has no subject")
}
