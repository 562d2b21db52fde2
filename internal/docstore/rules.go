package docstore

import "context"

// Rule decides one kind of access for the user tier.  existing is the
// stored document when there is one; it is nil for reads of missing
// documents and for creates.
type Rule func(principal string, p Path, existing *Document) bool

// CollectionRules pairs the read and write rule of one collection.  A nil
// rule denies.
type CollectionRules struct {
	Read  Rule
	Write Rule
}

// RuleSet maps collection names to their rules.  Collections not listed
// are closed to the user tier.
type RuleSet map[string]CollectionRules

// Collection names used by the storefront.
const (
	Products  = "products"
	Users     = "users"
	Addresses = "addresses"
	Orders    = "orders"
	Accounts  = "accounts"
)

func anyone(string, Path, *Document) bool { return true }

func ownDocument(principal string, p Path, _ *Document) bool {
	return principal != "" && p.ID == principal
}

func ownedByField(field string) Rule {
	return func(principal string, _ Path, existing *Document) bool {
		return principal != "" && existing != nil && existing.StringField(field) == principal
	}
}

// DefaultRules is the storefront's access policy for the user tier.  All
// catalog writes and role changes need the service tier.
var DefaultRules = RuleSet{
	Products:  {Read: anyone},
	Users:     {Read: ownDocument},
	Addresses: {Read: ownDocument, Write: ownDocument},
	Orders:    {Read: ownedByField("owner_id")},
}

func (rs RuleSet) allowRead(principal string, p Path, existing *Document) bool {
	r := rs[p.Collection].Read
	return r != nil && r(principal, p, existing)
}

func (rs RuleSet) allowWrite(principal string, p Path, existing *Document) bool {
	w := rs[p.Collection].Write
	return w != nil && w(principal, p, existing)
}

// userClient enforces a RuleSet in front of the service tier.  It plays
// the part of a hosted store's security rules: a second line of defence
// independent of the application's own authorization checks.
type userClient struct {
	base      *SQLStore
	principal string
	rules     RuleSet
}

func (c *userClient) lookup(ctx context.Context, p Path) (*Document, error) {
	d, err := c.base.Get(ctx, p)
	if err == nil {
		return &d, nil
	}
	if CodeOf(err) == CodeNotFound {
		return nil, nil
	}
	return nil, err
}

func (c *userClient) Get(ctx context.Context, p Path) (Document, error) {
	existing, err := c.lookup(ctx, p)
	if err != nil {
		return Document{}, err
	}
	if !c.rules.allowRead(c.principal, p, existing) {
		return Document{}, denied("get", p)
	}
	if existing == nil {
		return Document{}, notFound("get", p)
	}
	return *existing, nil
}

func (c *userClient) Create(ctx context.Context, collection string, fields Fields) (string, error) {
	p := Path{Collection: collection}
	if !c.rules.allowWrite(c.principal, p, nil) {
		return "", denied("create", p)
	}
	return c.base.Create(ctx, collection, fields)
}

func (c *userClient) Set(ctx context.Context, p Path, fields Fields) error {
	existing, err := c.lookup(ctx, p)
	if err != nil {
		return err
	}
	if !c.rules.allowWrite(c.principal, p, existing) {
		return denied("set", p)
	}
	return c.base.Set(ctx, p, fields)
}

func (c *userClient) Update(ctx context.Context, p Path, fields Fields) error {
	existing, err := c.lookup(ctx, p)
	if err != nil {
		return err
	}
	if !c.rules.allowWrite(c.principal, p, existing) {
		return denied("update", p)
	}
	if existing == nil {
		return notFound("update", p)
	}
	return c.base.Update(ctx, p, fields)
}

func (c *userClient) Delete(ctx context.Context, p Path) error {
	existing, err := c.lookup(ctx, p)
	if err != nil {
		return err
	}
	if !c.rules.allowWrite(c.principal, p, existing) {
		return denied("delete", p)
	}
	return c.base.Delete(ctx, p)
}

// Query fails as a whole if any matching document is unreadable, so
// callers must constrain queries to what they may see.
func (c *userClient) Query(ctx context.Context, q Query) ([]Document, error) {
	docs, err := c.base.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		if !c.rules.allowRead(c.principal, docs[i].Path, &docs[i]) {
			return nil, denied("query", Path{Collection: q.Collection})
		}
	}
	return docs, nil
}
