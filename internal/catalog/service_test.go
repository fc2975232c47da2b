package catalog

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/deliverdesk/deliverdesk/internal/dberr"
	"github.com/deliverdesk/deliverdesk/internal/domain"
	"github.com/deliverdesk/deliverdesk/internal/realtime"
)

type eventSink struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (s *eventSink) add(ev realtime.Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *eventSink) kinds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Kind)
	}
	return out
}

func newTestService(t *testing.T) (*Service, *realtime.Feed, *eventSink) {
	t.Helper()
	// Named shared-memory database: the pool may open more than one
	// connection and all of them must see the same tables.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Product{}))

	feed := realtime.NewFeed()
	sink := &eventSink{}
	_, err = feed.Subscribe(FeedTable, sink.add)
	require.NoError(t, err)

	return NewService(NewGormProductRepository(db), feed), feed, sink
}

func testProduct() *domain.Product {
	return &domain.Product{
		Name:     "X",
		Category: domain.CategoryBurger,
		Price:    10,
		Active:   true,
	}
}

func TestCreateAssignsKeyAndTimestamps(t *testing.T) {
	svc, feed, sink := newTestService(t)

	created, err := svc.Create(context.Background(), testProduct())
	require.NoError(t, err)
	assert.NotZero(t, created.ID, "server must assign the key")
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())

	feed.WaitAsync()
	assert.Equal(t, []string{realtime.EventInsert}, sink.kinds())
}

func TestCreateRejectsUnknownCategory(t *testing.T) {
	svc, _, _ := newTestService(t)
	p := testProduct()
	p.Category = "sushi"
	_, err := svc.Create(context.Background(), p)
	require.Error(t, err)
}

func TestUpdateChangesOnlyPatchedColumns(t *testing.T) {
	svc, _, _ := newTestService(t)
	created, err := svc.Create(context.Background(), testProduct())
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, map[string]interface{}{
		"price": 12.0,
	})
	require.NoError(t, err)
	assert.Equal(t, 12.0, updated.Price)
	assert.Equal(t, "X", updated.Name, "unpatched columns stay put")
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt) || updated.UpdatedAt.Equal(created.UpdatedAt))
}

func TestUpdateWithNoEffectiveChangeIsSuccessfulNoop(t *testing.T) {
	svc, feed, sink := newTestService(t)
	created, err := svc.Create(context.Background(), testProduct())
	require.NoError(t, err)
	feed.WaitAsync()
	before := len(sink.kinds())

	// Same values as stored: zero effective changes.
	got, err := svc.Update(context.Background(), created.ID, map[string]interface{}{
		"name":  "X",
		"price": 10.0,
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.UpdatedAt.Unix(), got.UpdatedAt.Unix(), "no-op must not touch the row")

	feed.WaitAsync()
	assert.Len(t, sink.kinds(), before, "no-op must not publish an event")
}

func TestUpdateEmptyPatchIsSuccessfulNoop(t *testing.T) {
	svc, _, _ := newTestService(t)
	created, err := svc.Create(context.Background(), testProduct())
	require.NoError(t, err)

	got, err := svc.Update(context.Background(), created.ID, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestUpdateStripsServerManagedColumns(t *testing.T) {
	svc, _, _ := newTestService(t)
	created, err := svc.Create(context.Background(), testProduct())
	require.NoError(t, err)

	got, err := svc.Update(context.Background(), created.ID, map[string]interface{}{
		"id":         int64(999),
		"created_at": "2001-01-01T00:00:00Z",
	})
	require.NoError(t, err, "a patch of only server-managed columns is a no-op")
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.CreatedAt.Unix(), got.CreatedAt.Unix())
}

func TestUpdateMissingKeyRaisesNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Update(context.Background(), 424242, map[string]interface{}{"price": 1.0})
	require.ErrorIs(t, err, dberr.ErrNotFound)
}

func TestUpdatePlaceholderKeyRejectedLocally(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Update(context.Background(), 0, map[string]interface{}{"price": 1.0})
	require.ErrorIs(t, err, dberr.ErrInvalidKey)
}

func TestDeleteThenUpdateScenario(t *testing.T) {
	svc, feed, sink := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, testProduct())
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, map[string]interface{}{"price": 12.0})
	require.NoError(t, err)
	assert.Equal(t, 12.0, updated.Price)
	assert.Equal(t, "X", updated.Name)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, dberr.ErrNotFound)

	_, err = svc.Update(ctx, created.ID, map[string]interface{}{"price": 13.0})
	require.ErrorIs(t, err, dberr.ErrNotFound)

	feed.WaitAsync()
	assert.Equal(t, []string{realtime.EventInsert, realtime.EventUpdate, realtime.EventDelete}, sink.kinds())
}

func TestDeleteOfNonexistentIsNotAnError(t *testing.T) {
	svc, _, _ := newTestService(t)
	require.NoError(t, svc.Delete(context.Background(), 424242))
}

func TestListFiltersActiveOnly(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	active := testProduct()
	_, err := svc.Create(ctx, active)
	require.NoError(t, err)

	inactive := testProduct()
	inactive.Name = "hidden"
	inactive.Active = false
	_, err = svc.Create(ctx, inactive)
	require.NoError(t, err)

	rows, total, err := svc.List(ctx, ListFilter{ActiveOnly: true}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, "X", rows[0].Name)

	rows, total, err = svc.List(ctx, ListFilter{}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, rows, 2)
}

func TestUpdateNestedStructures(t *testing.T) {
	svc, _, _ := newTestService(t)
	created, err := svc.Create(context.Background(), testProduct())
	require.NoError(t, err)

	sizes := []domain.ProductSize{{Name: "P", Price: 8}, {Name: "G", Price: 14}}
	updated, err := svc.Update(context.Background(), created.ID, map[string]interface{}{
		"sizes": sizes,
	})
	require.NoError(t, err)
	require.Len(t, updated.Sizes, 2)
	assert.Equal(t, "G", updated.Sizes[1].Name)
}
