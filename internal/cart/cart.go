// Package cart keeps each browsing session's cart in memory.  A Cart is a
// projection of the catalog, not a source of truth: names, prices and
// availability are refreshed by Reconcile, and nothing survives a
// restart.
package cart

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/iliyamo/stickerverse/internal/docstore"
	"github.com/iliyamo/stickerverse/internal/model"
)

// MaxLineQuantity caps the quantity of a single line.
const MaxLineQuantity = 999

var (
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrQuantityLimit     = fmt.Errorf("quantity must not exceed %d per item", MaxLineQuantity)
	ErrInsufficientStock = errors.New("not enough stock for the requested quantity")
	ErrLineNotFound      = errors.New("item is not in the cart")
)

// Line is one product in one material.
type Line struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	Material       string `json:"material"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// Cart is safe for concurrent use.
type Cart struct {
	mu    sync.Mutex
	lines []Line
}

func New() *Cart { return &Cart{} }

func (c *Cart) find(productID, material string) int {
	for i, l := range c.lines {
		if l.ProductID == productID && l.Material == material {
			return i
		}
	}
	return -1
}

// Add puts l in the cart, merging it into an existing line for the same
// product and material.  The merged quantity may not pass MaxLineQuantity.
func (c *Cart) Add(l Line) error { return c.add(l, -1) }

// AddFromStock is Add for a product with stock units left.  Every line of
// the product, across materials, counts against stock.
func (c *Cart) AddFromStock(l Line, stock int64) error {
	if stock < 0 {
		stock = 0
	}
	return c.add(l, stock)
}

// add merges l.  stock < 0 means unlimited.
func (c *Cart) add(l Line, stock int64) error {
	if l.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if l.Quantity > MaxLineQuantity {
		return ErrQuantityLimit
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.find(l.ProductID, l.Material)
	if i >= 0 && c.lines[i].Quantity > MaxLineQuantity-l.Quantity {
		return ErrQuantityLimit
	}
	if stock >= 0 && int64(c.productQuantityLocked(l.ProductID))+int64(l.Quantity) > stock {
		return ErrInsufficientStock
	}
	if i >= 0 {
		c.lines[i].Quantity += l.Quantity
		c.lines[i].Name = l.Name
		c.lines[i].UnitPriceCents = l.UnitPriceCents
		return nil
	}
	c.lines = append(c.lines, l)
	return nil
}

func (c *Cart) productQuantityLocked(productID string) int {
	n := 0
	for _, l := range c.lines {
		if l.ProductID == productID {
			n += l.Quantity
		}
	}
	return n
}

// SetQuantity replaces a line's quantity.  Zero or less removes the line.
func (c *Cart) SetQuantity(productID, material string, qty int) error {
	return c.setQuantity(productID, material, qty, -1)
}

// SetQuantityFromStock is SetQuantity checked against the product's
// remaining stock, counting its other lines.
func (c *Cart) SetQuantityFromStock(productID, material string, qty int, stock int64) error {
	if stock < 0 {
		stock = 0
	}
	return c.setQuantity(productID, material, qty, stock)
}

func (c *Cart) setQuantity(productID, material string, qty int, stock int64) error {
	if qty > MaxLineQuantity {
		return ErrQuantityLimit
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.find(productID, material)
	if i < 0 {
		return ErrLineNotFound
	}
	if qty <= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		return nil
	}
	others := c.productQuantityLocked(productID) - c.lines[i].Quantity
	if stock >= 0 && int64(others)+int64(qty) > stock {
		return ErrInsufficientStock
	}
	c.lines[i].Quantity = qty
	return nil
}

// Remove drops the line for productID in material, or every line of the
// product when material is empty.  It reports whether anything was
// removed.
func (c *Cart) Remove(productID, material string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.lines[:0]
	removed := false
	for _, l := range c.lines {
		if l.ProductID == productID && (material == "" || l.Material == material) {
			removed = true
			continue
		}
		kept = append(kept, l)
	}
	c.lines = kept
	return removed
}

// Lines returns a copy of the cart's lines in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Names returns the distinct product names in the cart.
func (c *Cart) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, l := range c.lines {
		if !seen[l.Name] {
			seen[l.Name] = true
			out = append(out, l.Name)
		}
	}
	return out
}

func (c *Cart) TotalCents() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var t int64
	for _, l := range c.lines {
		t += int64(l.Quantity) * l.UnitPriceCents
	}
	return t
}

// HashNames is the content key used for recommendations: order and
// duplicates do not matter, and an empty set hashes to "".
func HashNames(names []string) string {
	set := map[string]bool{}
	for _, n := range names {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			set[n] = true
		}
	}
	if len(set) == 0 {
		return ""
	}
	keys := make([]string, 0, len(set))
	for n := range set {
		keys = append(keys, n)
	}
	sort.Strings(keys)
	sum := sha256.Sum256([]byte(strings.Join(keys, "\n")))
	return hex.EncodeToString(sum[:])
}

// Products is the catalog read Reconcile needs.
type Products interface {
	Get(ctx context.Context, id string) (model.Product, error)
}

// Adjustment records one change Reconcile made.
type Adjustment struct {
	ProductID string `json:"product_id"`
	Material  string `json:"material"`
	Reason    string `json:"reason"`
}

const (
	ReasonUnavailable     = "no longer available"
	ReasonMaterialRemoved = "material no longer offered"
	ReasonQuantityLimited = "quantity reduced to available stock"
	ReasonPriceChanged    = "price changed"
)

// Reconcile brings the cart in line with the catalog: lines for deleted
// or sold-out products and withdrawn materials are dropped, names and
// prices are refreshed and quantities are clamped to stock.  A store
// failure other than not-found aborts without changing the cart.
func (c *Cart) Reconcile(ctx context.Context, catalog Products) ([]Adjustment, error) {
	lines := c.Lines()
	products := map[string]*model.Product{}
	for _, l := range lines {
		if _, done := products[l.ProductID]; done {
			continue
		}
		p, err := catalog.Get(ctx, l.ProductID)
		switch {
		case errors.Is(err, docstore.ErrNotFound):
			products[l.ProductID] = nil
		case err != nil:
			return nil, err
		default:
			products[l.ProductID] = &p
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	var adj []Adjustment
	kept := c.lines[:0]
	for _, l := range c.lines {
		p, known := products[l.ProductID]
		if !known {
			// added while we were reading the catalog
			kept = append(kept, l)
			continue
		}
		switch {
		case p == nil || p.Stock <= 0:
			adj = append(adj, Adjustment{l.ProductID, l.Material, ReasonUnavailable})
			continue
		case !p.HasMaterial(l.Material):
			adj = append(adj, Adjustment{l.ProductID, l.Material, ReasonMaterialRemoved})
			continue
		}
		if l.UnitPriceCents != p.PriceCents {
			adj = append(adj, Adjustment{l.ProductID, l.Material, ReasonPriceChanged})
			l.UnitPriceCents = p.PriceCents
		}
		if int64(l.Quantity) > p.Stock {
			adj = append(adj, Adjustment{l.ProductID, l.Material, ReasonQuantityLimited})
			l.Quantity = int(p.Stock)
		}
		l.Name = p.Name
		kept = append(kept, l)
	}
	c.lines = kept
	return adj, nil
}
