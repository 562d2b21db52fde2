package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/stickerverse/internal/cart"
	"github.com/iliyamo/stickerverse/internal/logging"
	"github.com/iliyamo/stickerverse/internal/middleware"
)

// CartIDHeader carries the client-chosen id of a guest cart.
const CartIDHeader = "X-Cart-ID"

// CartHandler serves the in-memory carts.  Routes run behind
// middleware.OptionalAuth: a signed-in visitor's cart is keyed by session,
// a guest's by the X-Cart-ID header.
type CartHandler struct {
	Carts    *cart.Registry
	Products cart.Products
	Log      *zap.Logger
}

func NewCartHandler(carts *cart.Registry, products cart.Products, log *zap.Logger) *CartHandler {
	return &CartHandler{Carts: carts, Products: products, Log: logging.OrNop(log)}
}

type addItemReq struct {
	ProductID string `json:"product_id"`
	Material  string `json:"material"`
	Quantity  int    `json:"quantity"`
}

type setQuantityReq struct {
	Material string `json:"material"`
	Quantity int    `json:"quantity"`
}

type cartResp struct {
	Lines           []cart.Line       `json:"lines"`
	TotalCents      int64             `json:"total_cents"`
	CheckoutEnabled bool              `json:"checkout_enabled"`
	Adjustments     []cart.Adjustment `json:"adjustments,omitempty"`
}

// session resolves the caller's cart.  sess is nil when a 400 has been
// written instead; err is then the result of writing it.
func (h *CartHandler) session(c echo.Context) (sess *cart.Session, signedIn bool, err error) {
	if s, ok := middleware.SessionFrom(c); ok {
		return h.Carts.Get(s.ID), true, nil
	}
	id := strings.TrimSpace(c.Request().Header.Get(CartIDHeader))
	if id == "" || len(id) > 128 {
		return nil, false, badRequest(c, "sign in or send an X-Cart-ID header")
	}
	return h.Carts.Get(cart.GuestKey(id)), false, nil
}

func (h *CartHandler) render(c echo.Context, sess *cart.Session, signedIn bool, adj []cart.Adjustment) error {
	return c.JSON(http.StatusOK, cartResp{
		Lines:           sess.Cart.Lines(),
		TotalCents:      sess.Cart.TotalCents(),
		CheckoutEnabled: signedIn,
		Adjustments:     adj,
	})
}

// GetCart reconciles the cart against the catalog and returns it with the
// changes that were made.
func (h *CartHandler) GetCart(c echo.Context) error {
	sess, signedIn, err := h.session(c)
	if sess == nil {
		return err
	}
	ctx, cancel := storeCtx(c)
	defer cancel()

	adj, err := sess.Cart.Reconcile(ctx, h.Products)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if len(adj) > 0 {
		sess.Refresher.Schedule(sess.Cart.Names())
	}
	return h.render(c, sess, signedIn, adj)
}

// AddItem: POST /v1/cart/items.  Name and price come from the catalog,
// never from the client.  An empty material picks the product's first.
// The product's lines together may not exceed its stock.
func (h *CartHandler) AddItem(c echo.Context) error {
	sess, signedIn, err := h.session(c)
	if sess == nil {
		return err
	}
	var req addItemReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" {
		return badRequest(c, "product_id is required")
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	p, err := h.Products.Get(ctx, req.ProductID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	material := strings.TrimSpace(req.Material)
	if material == "" && len(p.Materials) > 0 {
		material = p.Materials[0]
	}
	if !p.HasMaterial(material) {
		return badRequest(c, "material "+material+" is not offered for this product")
	}
	if p.Stock <= 0 {
		return fail(c, http.StatusConflict, "product is out of stock", "out_of_stock")
	}
	if err := sess.Cart.AddFromStock(cart.Line{
		ProductID:      p.ID,
		Name:           p.Name,
		Material:       material,
		Quantity:       req.Quantity,
		UnitPriceCents: p.PriceCents,
	}, p.Stock); err != nil {
		return respondError(c, h.Log, err)
	}
	sess.Refresher.Schedule(sess.Cart.Names())
	return h.render(c, sess, signedIn, nil)
}

// SetQuantity: PATCH /v1/cart/items/:product_id.  Zero removes the line;
// anything else is checked against the product's current stock.
func (h *CartHandler) SetQuantity(c echo.Context) error {
	sess, signedIn, err := h.session(c)
	if sess == nil {
		return err
	}
	var req setQuantityReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.Quantity < 0 {
		return respondError(c, h.Log, cart.ErrInvalidQuantity)
	}
	productID := c.Param("product_id")
	if req.Quantity == 0 {
		err = sess.Cart.SetQuantity(productID, req.Material, 0)
	} else {
		ctx, cancel := storeCtx(c)
		defer cancel()
		p, perr := h.Products.Get(ctx, productID)
		if perr != nil {
			return respondError(c, h.Log, perr)
		}
		err = sess.Cart.SetQuantityFromStock(productID, req.Material, req.Quantity, p.Stock)
	}
	if err != nil {
		return respondError(c, h.Log, err)
	}
	sess.Refresher.Schedule(sess.Cart.Names())
	return h.render(c, sess, signedIn, nil)
}

// RemoveItem: DELETE /v1/cart/items/:product_id[?material=].  Without a
// material every line of the product goes.
func (h *CartHandler) RemoveItem(c echo.Context) error {
	sess, signedIn, err := h.session(c)
	if sess == nil {
		return err
	}
	if !sess.Cart.Remove(c.Param("product_id"), strings.TrimSpace(c.QueryParam("material"))) {
		return respondError(c, h.Log, cart.ErrLineNotFound)
	}
	sess.Refresher.Schedule(sess.Cart.Names())
	return h.render(c, sess, signedIn, nil)
}

// Recommendations: GET /v1/cart/recommendations.  Returns the latest
// settled list; pending tells the client a fresher one is on its way.
func (h *CartHandler) Recommendations(c echo.Context) error {
	sess, _, err := h.session(c)
	if sess == nil {
		return err
	}
	return c.JSON(http.StatusOK, sess.Refresher.Latest())
}
