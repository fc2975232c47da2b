// Package catalog is the product CRUD façade. Every confirmed write is
// published on the realtime feed so cached views converge with callers
// that patched their state optimistically.
package catalog

import (
	"context"
	"reflect"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/deliverdesk/deliverdesk/internal/dberr"
	"github.com/deliverdesk/deliverdesk/internal/domain"
	"github.com/deliverdesk/deliverdesk/internal/realtime"
	"github.com/deliverdesk/deliverdesk/pkg/common"
)

// FeedTable is the realtime channel name for product changes.
const FeedTable = "catalog_product"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// serverManagedColumns are stripped from caller patches: the store owns
// them and stamps them itself.
var serverManagedColumns = map[string]bool{
	"id": true, "created_at": true, "updated_at": true,
}

// Service exposes product CRUD to the API layer.
type Service struct {
	repo ProductRepository
	feed *realtime.Feed
}

// NewService creates the product façade.
func NewService(repo ProductRepository, feed *realtime.Feed) *Service {
	return &Service{repo: repo, feed: feed}
}

// Create stores a new product. The server assigns key and timestamps; a
// confirmed create that somehow carries no key is reported as
// dberr.ErrNoKey rather than a backend error.
func (s *Service) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if !domain.ValidProductCategory(p.Category) {
		return nil, errors.Errorf("invalid product category %q", p.Category)
	}
	p.ID = common.UUIDint64()
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, errors.Wrap(dberr.Translate(err), "create product")
	}
	if p.ID == 0 {
		return nil, dberr.ErrNoKey
	}

	s.publish(realtime.EventInsert, p, nil)
	zap.L().Info("product created", zap.Int64("id", p.ID), zap.String("name", p.Name))
	return p, nil
}

// Get returns one product by key.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, dberr.Translate(err)
	}
	return p, nil
}

// List returns a page of products, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter, page, pageSize int) ([]*domain.Product, int64, error) {
	rows, total, err := s.repo.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, 0, dberr.Translate(err)
	}
	return rows, total, nil
}

// Update applies a column patch to the product with the given key.
// Server-managed columns are stripped, unset (nil) values dropped, and a
// fresh updated_at stamped. The row is looked up first so that a missing
// key surfaces as not-found while a patch with zero effective changes is
// a successful no-op returning the current record.
func (s *Service) Update(ctx context.Context, id int64, patch map[string]interface{}) (*domain.Product, error) {
	if id == 0 {
		// Placeholder key that was never assigned by the server.
		return nil, dberr.ErrInvalidKey
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, dberr.Translate(err)
	}

	effective := effectivePatch(current, patch)
	if len(effective) == 0 {
		// No-op update: nothing actually changed.
		return current, nil
	}
	effective["updated_at"] = time.Now()

	rows, err := s.repo.Updates(ctx, id, effective)
	if err != nil {
		return nil, errors.Wrap(dberr.Translate(err), "update product")
	}
	if rows == 0 {
		// The row existed a moment ago; it was deleted underneath us.
		return nil, dberr.ErrNotFound
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, dberr.Translate(err)
	}
	s.publish(realtime.EventUpdate, updated, current)
	zap.L().Info("product updated", zap.Int64("id", id), zap.Int("columns", len(effective)))
	return updated, nil
}

// Delete removes the product with the given key. Deleting an absent row
// is not an error; consumers drop the key from local state regardless.
func (s *Service) Delete(ctx context.Context, id int64) error {
	old, _ := s.repo.GetByID(ctx, id)
	if err := s.repo.Delete(ctx, id); err != nil {
		return errors.Wrap(dberr.Translate(err), "delete product")
	}
	s.publish(realtime.EventDelete, nil, old)
	zap.L().Info("product deleted", zap.Int64("id", id))
	return nil
}

func (s *Service) publish(kind string, newRow, oldRow *domain.Product) {
	if s.feed == nil {
		return
	}
	ev := realtime.Event{Kind: kind, Table: FeedTable}
	if newRow != nil {
		ev.New = &realtime.Record{Key: newRow.ID, Value: newRow}
	}
	if oldRow != nil {
		ev.Old = &realtime.Record{Key: oldRow.ID, Value: oldRow}
	}
	s.feed.Publish(ev)
}

// effectivePatch strips server-managed columns, drops unset values and
// removes entries equal to the stored row. Both sides are normalized
// through JSON so HTTP-decoded patches compare against gorm-loaded rows
// without type noise.
func effectivePatch(current *domain.Product, patch map[string]interface{}) map[string]interface{} {
	currentCols := normalize(current)
	out := make(map[string]interface{}, len(patch))
	for col, val := range patch {
		if serverManagedColumns[col] || val == nil {
			continue
		}
		norm := normalizeValue(val)
		if have, ok := currentCols[col]; ok && reflect.DeepEqual(have, norm) {
			continue
		}
		out[col] = val
	}
	return out
}

func normalize(v interface{}) map[string]interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

func normalizeValue(v interface{}) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}
