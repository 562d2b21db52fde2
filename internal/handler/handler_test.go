package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/stickerverse/internal/admin"
	"github.com/iliyamo/stickerverse/internal/ai"
	"github.com/iliyamo/stickerverse/internal/authz"
	"github.com/iliyamo/stickerverse/internal/cart"
	"github.com/iliyamo/stickerverse/internal/database"
	"github.com/iliyamo/stickerverse/internal/docstore"
	"github.com/iliyamo/stickerverse/internal/handler"
	"github.com/iliyamo/stickerverse/internal/identity"
	"github.com/iliyamo/stickerverse/internal/model"
	"github.com/iliyamo/stickerverse/internal/repository"
	"github.com/iliyamo/stickerverse/internal/router"
)

type stubGenerator struct{ out string }

func (s stubGenerator) Generate(context.Context, ai.Request) (string, error) { return s.out, nil }

type app struct {
	e        *echo.Echo
	store    *docstore.SQLStore
	users    *repository.UserRepo
	products *repository.ProductRepo
	carts    *cart.Registry
	purges   atomic.Int32
}

func newApp(t *testing.T) *app {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "sv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	a := &app{store: docstore.NewSQLStore(db)}
	a.users = repository.NewUserRepo(a.store)
	a.products = repository.NewProductRepo(a.store)
	orders := repository.NewOrderRepo(a.store)

	provider := identity.NewProvider(repository.NewAccountRepo(a.store), identity.NewMemorySessionStore(),
		identity.Options{Secret: "test-secret", TTL: time.Hour, BcryptCost: bcrypt.MinCost}, nil)
	az := authz.New(provider, a.users, false, nil)
	svc := admin.NewService(az, a.products, a.users, nil, nil)

	gen := stubGenerator{out: `[{"name":"Space Dog","description":"A dog in orbit."}]`}
	rec := ai.NewRecommender(gen, time.Second, nil)
	a.carts = cart.NewRegistry(10*time.Millisecond, rec.Recommend, nil)
	t.Cleanup(a.carts.Close)

	purge := func(context.Context) error {
		a.purges.Add(1)
		return nil
	}
	passthrough := func(next echo.HandlerFunc) echo.HandlerFunc { return next }

	a.e = echo.New()
	router.RegisterRoutes(a.e, handler.NewHealthHandler(db, nil))
	router.RegisterAuth(a.e, handler.NewAuthHandler(provider, a.users, a.carts, nil), provider)
	router.RegisterPublic(a.e, handler.NewCatalogHandler(a.products, nil), passthrough)
	router.RegisterAI(a.e, handler.NewAIHandler(ai.NewResolutionChecker(gen, time.Second, nil), rec, nil))
	router.RegisterCart(a.e, handler.NewCartHandler(a.carts, a.products, nil), provider)
	router.RegisterAccount(a.e, handler.NewAccountHandler(a.store, nil), provider)
	router.RegisterAdmin(a.e, handler.NewAdminHandler(svc, a.users, orders, purge, nil), az)
	return a
}

type call struct {
	method, path, token string
	body                any
	header              map[string]string
}

func (a *app) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if c.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+c.token)
	}
	for k, v := range c.header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type authOut struct {
	Session struct {
		Token string `json:"token"`
	} `json:"session"`
	User struct {
		Kind      string          `json:"kind"`
		Principal model.Principal `json:"principal"`
	} `json:"user"`
}

type errOut struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// signUp returns the token and principal id of a new shopper.
func (a *app) signUp(t *testing.T, email string) (string, string) {
	t.Helper()
	rec := a.do(t, call{method: http.MethodPost, path: "/v1/auth/sign-up",
		body: map[string]string{"email": email, "password": "sticky-fingers", "display_name": "Tester"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	out := decode[authOut](t, rec)
	return out.Session.Token, out.User.Principal.ID
}

func (a *app) signUpAdmin(t *testing.T, email string) (string, string) {
	t.Helper()
	tok, id := a.signUp(t, email)
	require.NoError(t, a.users.SetRole(context.Background(), id, model.RoleAdmin))
	return tok, id
}

func retroCat() map[string]any {
	return map[string]any{
		"name": "Retro Cat", "description": "A cat in sunglasses.", "price_cents": 350,
		"stock": 10, "category": "animals", "materials": []string{"vinyl", "matte"},
	}
}

func TestHealth(t *testing.T) {
	a := newApp(t)
	rec := a.do(t, call{method: http.MethodGet, path: "/healthz"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestAuthFlow(t *testing.T) {
	a := newApp(t)
	tok, id := a.signUp(t, "Ada@Example.com")

	p, err := a.users.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", p.Email)
	assert.Equal(t, model.RoleUser, p.Role)

	rec := a.do(t, call{method: http.MethodGet, path: "/v1/me", token: tok})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"display_name":"Tester"`)

	rec = a.do(t, call{method: http.MethodPost, path: "/v1/auth/sign-up",
		body: map[string]string{"email": "ada@example.com", "password": "another-one"}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, call{method: http.MethodPost, path: "/v1/auth/sign-in",
		body: map[string]string{"email": "ada@example.com", "password": "wrong-password"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "bad_credentials", decode[errOut](t, rec).Reason)

	rec = a.do(t, call{method: http.MethodPost, path: "/v1/auth/sign-in",
		body: map[string]string{"email": "ada@example.com", "password": "sticky-fingers"}})
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode[authOut](t, rec).Session.Token
	assert.NotEqual(t, tok, second)

	rec = a.do(t, call{method: http.MethodPost, path: "/v1/auth/sign-out", token: second})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = a.do(t, call{method: http.MethodGet, path: "/v1/me", token: second})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_token", decode[errOut](t, rec).Reason)

	// the first session is unaffected
	rec = a.do(t, call{method: http.MethodGet, path: "/v1/me", token: tok})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSignUpRejectsBadInput(t *testing.T) {
	a := newApp(t)
	for _, body := range []map[string]string{
		{"email": "not-an-email", "password": "sticky-fingers"},
		{"email": "bob@example.com", "password": "short"},
		{"email": "", "password": "sticky-fingers"},
	} {
		rec := a.do(t, call{method: http.MethodPost, path: "/v1/auth/sign-up", body: body})
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestAdminCatalogLifecycle(t *testing.T) {
	a := newApp(t)
	adminTok, _ := a.signUpAdmin(t, "root@example.com")

	rec := a.do(t, call{method: http.MethodPost, path: "/v1/admin/products", token: adminTok, body: retroCat()})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[map[string]string](t, rec)["id"]
	require.NotEmpty(t, id)

	rec = a.do(t, call{method: http.MethodGet, path: "/v1/products?category=animals"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Retro Cat")

	rec = a.do(t, call{method: http.MethodPatch, path: "/v1/admin/products/" + id, token: adminTok,
		body: map[string]any{"price_cents": 400}})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	p, err := a.products.Get(context.Background(), id)
	require.NoError(t, err)
	assert.EqualValues(t, 400, p.PriceCents)
	assert.Equal(t, "Retro Cat", p.Name)

	replaced := retroCat()
	replaced["name"] = "Retro Cat II"
	replaced["materials"] = []string{"holographic"}
	rec = a.do(t, call{method: http.MethodPut, path: "/v1/admin/products/" + id, token: adminTok, body: replaced})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = a.do(t, call{method: http.MethodGet, path: "/v1/products/" + id})
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[model.Product](t, rec)
	assert.Equal(t, "Retro Cat II", got.Name)
	assert.Equal(t, []string{"holographic"}, got.Materials)

	rec = a.do(t, call{method: http.MethodDelete, path: "/v1/admin/products/" + id, token: adminTok})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = a.do(t, call{method: http.MethodDelete, path: "/v1/admin/products/" + id, token: adminTok})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = a.do(t, call{method: http.MethodGet, path: "/v1/products/" + id})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.EqualValues(t, 4, a.purges.Load())
}

func TestAdminRejections(t *testing.T) {
	a := newApp(t)
	userTok, _ := a.signUp(t, "shopper@example.com")
	adminTok, _ := a.signUpAdmin(t, "root@example.com")

	tests := []struct {
		name   string
		token  string
		body   any
		status int
		reason string
	}{
		{"no token", "", retroCat(), http.StatusUnauthorized, "missing_token"},
		{"forged token", "a.b.c", retroCat(), http.StatusUnauthorized, "invalid_token"},
		{"plain user", userTok, retroCat(), http.StatusForbidden, "insufficient_role"},
		{"no materials", adminTok, map[string]any{"name": "Blank", "price_cents": 1}, http.StatusBadRequest, "invalid_input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, call{method: http.MethodPost, path: "/v1/admin/products", token: tt.token, body: tt.body})
			assert.Equal(t, tt.status, rec.Code)
			out := decode[errOut](t, rec)
			assert.Equal(t, tt.reason, out.Reason)
			assert.NotEmpty(t, out.Error)
		})
	}

	items, err := a.products.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, a.purges.Load())
}

func TestAdminRoleChange(t *testing.T) {
	a := newApp(t)
	adminTok, adminID := a.signUpAdmin(t, "root@example.com")
	userTok, userID := a.signUp(t, "shopper@example.com")
	ctx := context.Background()

	rec := a.do(t, call{method: http.MethodPut, path: "/v1/admin/users/" + userID + "/role", token: userTok,
		body: map[string]string{"role": "admin"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "insufficient_role", decode[errOut](t, rec).Reason)

	rec = a.do(t, call{method: http.MethodPut, path: "/v1/admin/users/" + userID + "/role", token: adminTok,
		body: map[string]string{"role": "admin"}})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	role, err := a.users.Role(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, role)

	rec = a.do(t, call{method: http.MethodPut, path: "/v1/admin/users/" + adminID + "/role", token: adminTok,
		body: map[string]string{"role": "user"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "self_demotion", decode[errOut](t, rec).Reason)

	rec = a.do(t, call{method: http.MethodPut, path: "/v1/admin/users/" + userID + "/role", token: adminTok,
		body: map[string]string{"role": "owner"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, call{method: http.MethodPut, path: "/v1/admin/users/nobody/role", token: adminTok,
		body: map[string]string{"role": "admin"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminListings(t *testing.T) {
	a := newApp(t)
	adminTok, _ := a.signUpAdmin(t, "root@example.com")
	userTok, userID := a.signUp(t, "shopper@example.com")
	require.NoError(t, a.store.Set(context.Background(), docstore.Doc(docstore.Orders, "o-1"), docstore.Fields{
		"owner_id": userID, "total_cents": 700, "status": "pending",
	}))

	rec := a.do(t, call{method: http.MethodGet, path: "/v1/admin/users", token: adminTok})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "shopper@example.com")

	rec = a.do(t, call{method: http.MethodGet, path: "/v1/admin/orders", token: adminTok})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"o-1"`)

	rec = a.do(t, call{method: http.MethodGet, path: "/v1/admin/users", token: userTok})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(t, call{method: http.MethodGet, path: "/v1/admin/orders"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAccount(t *testing.T) {
	a := newApp(t)
	adaTok, adaID := a.signUp(t, "ada@example.com")
	bobTok, bobID := a.signUp(t, "bob@example.com")
	ctx := context.Background()
	for id, owner := range map[string]string{"o-ada": adaID, "o-bob": bobID} {
		require.NoError(t, a.store.Set(ctx, docstore.Doc(docstore.Orders, id), docstore.Fields{
			"owner_id": owner, "total_cents": 350, "status": "shipped",
		}))
	}

	rec := a.do(t, call{method: http.MethodGet, path: "/v1/account/address", token: adaTok})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	addr := map[string]string{"full_name": "Ada L", "line1": "1 Analytical Way", "city": "London",
		"postal_code": "N1", "country": "GB"}
	rec = a.do(t, call{method: http.MethodPut, path: "/v1/account/address", token: adaTok, body: addr})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, call{method: http.MethodGet, path: "/v1/account/address", token: adaTok})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "London", decode[model.Address](t, rec).City)

	// bob has no address of his own and cannot see ada's
	rec = a.do(t, call{method: http.MethodGet, path: "/v1/account/address", token: bobTok})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	delete(addr, "city")
	rec = a.do(t, call{method: http.MethodPut, path: "/v1/account/address", token: adaTok, body: addr})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, call{method: http.MethodGet, path: "/v1/account/orders", token: adaTok})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "o-ada")
	assert.NotContains(t, rec.Body.String(), "o-bob")

	rec = a.do(t, call{method: http.MethodGet, path: "/v1/account/orders"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type cartOut struct {
	Lines           []cart.Line       `json:"lines"`
	TotalCents      int64             `json:"total_cents"`
	CheckoutEnabled bool              `json:"checkout_enabled"`
	Adjustments     []cart.Adjustment `json:"adjustments"`
}

func TestGuestCart(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()
	id, err := a.products.Create(ctx, model.Product{Name: "Retro Cat", PriceCents: 350, Stock: 3, Materials: []string{"vinyl", "matte"}})
	require.NoError(t, err)
	guest := map[string]string{handler.CartIDHeader: "guest-1"}

	rec := a.do(t, call{method: http.MethodGet, path: "/v1/cart"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, call{method: http.MethodPost, path: "/v1/cart/items", header: guest,
		body: map[string]any{"product_id": id, "quantity": 2}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[cartOut](t, rec)
	require.Len(t, out.Lines, 1)
	assert.Equal(t, "vinyl", out.Lines[0].Material)
	assert.EqualValues(t, 700, out.TotalCents)
	assert.False(t, out.CheckoutEnabled)

	rec = a.do(t, call{method: http.MethodPost, path: "/v1/cart/items", header: guest,
		body: map[string]any{"product_id": id, "material": "glitter"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.Eventually(t, func() bool {
		rec := a.do(t, call{method: http.MethodGet, path: "/v1/cart/recommendations", header: guest})
		snap := decode[cart.Snapshot](t, rec)
		return !snap.Pending && len(snap.Items) == 1 && snap.Items[0].Name == "Space Dog"
	}, 2*time.Second, 10*time.Millisecond)

	// the catalog moves on: price up, stock down
	price, stock := int64(500), int64(1)
	require.NoError(t, a.products.Update(ctx, id, model.ProductPatch{PriceCents: &price, Stock: &stock}))
	rec = a.do(t, call{method: http.MethodGet, path: "/v1/cart", header: guest})
	require.Equal(t, http.StatusOK, rec.Code)
	out = decode[cartOut](t, rec)
	assert.EqualValues(t, 500, out.TotalCents)
	assert.Len(t, out.Adjustments, 2)

	rec = a.do(t, call{method: http.MethodPatch, path: "/v1/cart/items/" + id, header: guest,
		body: map[string]any{"material": "vinyl", "quantity": 0}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[cartOut](t, rec).Lines)

	rec = a.do(t, call{method: http.MethodDelete, path: "/v1/cart/items/" + id, header: guest})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartQuantityLimits(t *testing.T) {
	a := newApp(t)
	id, err := a.products.Create(context.Background(), model.Product{Name: "Retro Cat", PriceCents: 350, Stock: 1, Materials: []string{"vinyl"}})
	require.NoError(t, err)
	guest := map[string]string{handler.CartIDHeader: "guest-2"}

	rec := a.do(t, call{method: http.MethodPost, path: "/v1/cart/items", header: guest,
		body: map[string]any{"product_id": id, "quantity": int64(math.MaxInt64)}})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = a.do(t, call{method: http.MethodPost, path: "/v1/cart/items", header: guest,
		body: map[string]any{"product_id": id, "quantity": 2}})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "insufficient_stock", decode[errOut](t, rec).Reason)

	rec = a.do(t, call{method: http.MethodPost, path: "/v1/cart/items", header: guest,
		body: map[string]any{"product_id": id, "quantity": 1}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, call{method: http.MethodPost, path: "/v1/cart/items", header: guest,
		body: map[string]any{"product_id": id, "quantity": 1}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, call{method: http.MethodPatch, path: "/v1/cart/items/" + id, header: guest,
		body: map[string]any{"material": "vinyl", "quantity": 5}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, call{method: http.MethodGet, path: "/v1/cart", header: guest})
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[cartOut](t, rec)
	require.Len(t, out.Lines, 1)
	assert.Equal(t, 1, out.Lines[0].Quantity)
	assert.EqualValues(t, 350, out.TotalCents)
}

func TestSignedInCartIsDroppedAtSignOut(t *testing.T) {
	a := newApp(t)
	id, err := a.products.Create(context.Background(), model.Product{Name: "Retro Cat", PriceCents: 350, Stock: 3, Materials: []string{"vinyl"}})
	require.NoError(t, err)
	tok, _ := a.signUp(t, "ada@example.com")

	rec := a.do(t, call{method: http.MethodPost, path: "/v1/cart/items", token: tok, body: map[string]any{"product_id": id}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[cartOut](t, rec).CheckoutEnabled)
	assert.Equal(t, 1, a.carts.Len())

	rec = a.do(t, call{method: http.MethodPost, path: "/v1/auth/sign-out", token: tok})
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, a.carts.Len())
}

func TestAIEndpoints(t *testing.T) {
	a := newApp(t)

	img := image.NewRGBA(image.Rect(0, 0, 120, 80))
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, img))

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	fw, err := mw.CreateFormFile("image", "art.png")
	require.NoError(t, err)
	_, err = fw.Write(pngBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("min_width", "100"))
	require.NoError(t, mw.WriteField("min_height", "100"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/ai/resolution-check", &form)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[ai.Resolution](t, rec)
	assert.False(t, res.Meets)
	assert.Equal(t, 120, res.Width)
	assert.Contains(t, res.Message, "height")
	assert.NotContains(t, res.Message, "width")

	req = httptest.NewRequest(http.MethodPost, "/v1/ai/resolution-check", strings.NewReader(""))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec = httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, call{method: http.MethodPost, path: "/v1/ai/recommendations", body: map[string]any{"names": []string{"Retro Cat"}}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Space Dog")

	rec = a.do(t, call{method: http.MethodPost, path: "/v1/ai/recommendations", body: map[string]any{"names": []string{}}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())
}
