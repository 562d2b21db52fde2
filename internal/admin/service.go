// Package admin implements the privileged catalog and role mutations.
// Every operation runs the role check first, then validates its input,
// then performs exactly one write with service credentials.  Nothing is
// retried.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/stickerverse/internal/authz"
	"github.com/iliyamo/stickerverse/internal/model"
	"github.com/iliyamo/stickerverse/internal/queue"
)

var (
	// ErrInvalidInput is returned, wrapped with details, for payloads that
	// fail validation.  The store is not touched.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStoreWrite wraps a failed write.  The store's own error (and
	// its code) stays reachable through errors.As.
	ErrStoreWrite = errors.New("store write failed")
)

// Catalog is the product write path.  *repository.ProductRepo over the
// service tier implements it.
type Catalog interface {
	Create(ctx context.Context, p model.Product) (string, error)
	Update(ctx context.Context, id string, patch model.ProductPatch) error
	Delete(ctx context.Context, id string) error
}

// Roles is the role write path.  *repository.UserRepo over the service
// tier implements it.
type Roles interface {
	SetRole(ctx context.Context, id string, role model.Role) error
}

// Authorizer is the role check.  *authz.Authorizer implements it.
type Authorizer interface {
	Authorize(ctx context.Context, assertion, op string) (authz.Actor, error)
	AuthorizeRoleChange(ctx context.Context, assertion, targetID string, newRole model.Role) (authz.Actor, error)
}

// Service runs the administrative mutations.
type Service struct {
	authz   Authorizer
	catalog Catalog
	roles   Roles
	events  queue.Publisher
	log     *zap.Logger
	now     func() time.Time
}

func NewService(az Authorizer, catalog Catalog, roles Roles, events queue.Publisher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &Service{authz: az, catalog: catalog, roles: roles, events: events, log: log, now: time.Now}
}

// CreateItem adds a catalog item and returns its generated id.
func (s *Service) CreateItem(ctx context.Context, assertion string, in model.Product) (string, error) {
	actor, err := s.authz.Authorize(ctx, assertion, "create-item")
	if err != nil {
		return "", err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validateProduct(in); err != nil {
		return "", err
	}
	id, err := s.catalog.Create(ctx, in)
	if err != nil {
		return "", storeWrite(err)
	}
	s.log.Info("catalog item created", zap.String("product_id", id), zap.String("actor", actorName(actor)))
	s.publishCatalog(ctx, queue.ActionCreated, id, in.Name, actor)
	return id, nil
}

// UpdateItem merges patch into an existing item.  An empty patch only
// advances updated_at.
func (s *Service) UpdateItem(ctx context.Context, assertion, id string, patch model.ProductPatch) error {
	actor, err := s.authz.Authorize(ctx, assertion, "update-item")
	if err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		patch.Name = &trimmed
	}
	if err := validatePatch(patch); err != nil {
		return err
	}
	if err := s.catalog.Update(ctx, id, patch); err != nil {
		return storeWrite(err)
	}
	s.log.Info("catalog item updated", zap.String("product_id", id), zap.String("actor", actorName(actor)))
	name := ""
	if patch.Name != nil {
		name = *patch.Name
	}
	s.publishCatalog(ctx, queue.ActionUpdated, id, name, actor)
	return nil
}

// DeleteItem removes an item.  Deleting a missing id is a store
// not-found failure, never a silent success.
func (s *Service) DeleteItem(ctx context.Context, assertion, id string) error {
	actor, err := s.authz.Authorize(ctx, assertion, "delete-item")
	if err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	if err := s.catalog.Delete(ctx, id); err != nil {
		return storeWrite(err)
	}
	s.log.Info("catalog item deleted", zap.String("product_id", id), zap.String("actor", actorName(actor)))
	s.publishCatalog(ctx, queue.ActionDeleted, id, "", actor)
	return nil
}

// ChangeRole sets targetID's role.  role is validated after the
// authorization check so that unauthenticated callers learn nothing.
func (s *Service) ChangeRole(ctx context.Context, assertion, targetID, role string) error {
	// an unparseable role can never be a self-demotion, so pass it through
	// as-is and reject it after the role check
	newRole, parseErr := model.ParseRole(role)
	actor, err := s.authz.AuthorizeRoleChange(ctx, assertion, targetID, newRole)
	if err != nil {
		return err
	}
	if parseErr != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, parseErr)
	}
	if strings.TrimSpace(targetID) == "" {
		return fmt.Errorf("%w: target id is required", ErrInvalidInput)
	}
	if err := s.roles.SetRole(ctx, targetID, newRole); err != nil {
		return storeWrite(err)
	}
	s.log.Info("role changed", zap.String("target_id", targetID), zap.String("role", string(newRole)), zap.String("actor", actorName(actor)))
	s.publish(ctx, func(ctx context.Context) error {
		return s.events.PublishRoleChanged(ctx, queue.RoleChangedEvent{
			TargetID: targetID, NewRole: string(newRole), Actor: actorName(actor), OccurredAt: s.stamp(),
		})
	})
	return nil
}

func (s *Service) publishCatalog(ctx context.Context, action, id, name string, actor authz.Actor) {
	s.publish(ctx, func(ctx context.Context) error {
		return s.events.PublishCatalogChanged(ctx, queue.CatalogChangedEvent{
			Action: action, ProductID: id, Name: name, Actor: actorName(actor), OccurredAt: s.stamp(),
		})
	})
}

// publish sends an audit event without letting a broker outage fail the
// mutation that already succeeded.
func (s *Service) publish(ctx context.Context, send func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := send(ctx); err != nil {
		s.log.Warn("audit event not published", zap.Error(err))
	}
}

func (s *Service) stamp() string { return s.now().UTC().Format(time.RFC3339) }

func actorName(a authz.Actor) string {
	if a.PrincipalID != "" {
		return a.PrincipalID
	}
	if a.Identity != nil {
		return a.Identity.Subject()
	}
	return "unknown"
}

func storeWrite(err error) error { return fmt.Errorf("%w: %w", ErrStoreWrite, err) }
