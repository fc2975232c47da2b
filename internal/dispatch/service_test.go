package dispatch

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/deliverdesk/deliverdesk/internal/dberr"
	"github.com/deliverdesk/deliverdesk/internal/domain"
	"github.com/deliverdesk/deliverdesk/internal/realtime"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.DeliveryOrder{}))
	return NewService(NewGormOrderRepository(db), realtime.NewFeed()), db
}

func testOrder() *domain.DeliveryOrder {
	return &domain.DeliveryOrder{
		CustomerName:  "Maria Silva",
		CustomerPhone: "11999990001",
		Address: domain.Address{
			Street: "Rua das Flores", Number: "123",
			Neighborhood: "Centro", City: "Sao Paulo",
		},
		Items: []domain.OrderItem{
			{Name: "Pizza Margherita", Quantity: 1, UnitPrice: 39.9},
		},
		Subtotal:      39.9,
		DeliveryFee:   8,
		PaymentMethod: "pix",
	}
}

func TestCreateAssignsCodeAndDefaults(t *testing.T) {
	svc, _ := newTestService(t)

	o, err := svc.Create(context.Background(), testOrder())
	require.NoError(t, err)
	assert.NotZero(t, o.ID)
	assert.Len(t, o.Code, 6)
	assert.Equal(t, domain.OrderStatusPending, o.Status)
	assert.Equal(t, 47.9, o.Total, "total defaults to subtotal plus fee")
}

func TestStatusTransitions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	o, err := svc.Create(ctx, testOrder())
	require.NoError(t, err)

	o, err = svc.SetStatus(ctx, o.ID, domain.OrderStatusPreparing)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPreparing, o.Status)

	o, err = svc.SetStatus(ctx, o.ID, domain.OrderStatusOnRoute)
	require.NoError(t, err)

	o, err = svc.SetStatus(ctx, o.ID, domain.OrderStatusDelivered)
	require.NoError(t, err)
	require.NotNil(t, o.DeliveredAt, "delivery stamps delivered_at")
	assert.WithinDuration(t, time.Now(), *o.DeliveredAt, 5*time.Second)
}

func TestStatusSkipAheadRejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	o, err := svc.Create(ctx, testOrder())
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, o.ID, domain.OrderStatusDelivered)
	require.Error(t, err, "pending cannot jump straight to delivered")
}

func TestStatusSameValueIsNoop(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	o, err := svc.Create(ctx, testOrder())
	require.NoError(t, err)

	got, err := svc.SetStatus(ctx, o.ID, domain.OrderStatusPending)
	require.NoError(t, err)
	assert.Equal(t, o.UpdatedAt.Unix(), got.UpdatedAt.Unix())
}

func TestCancelFromAnyNonFinalStatus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, from := range []string{domain.OrderStatusPending, domain.OrderStatusPreparing, domain.OrderStatusOnRoute} {
		o, err := svc.Create(ctx, testOrder())
		require.NoError(t, err)
		if from != domain.OrderStatusPending {
			_, err = svc.SetStatus(ctx, o.ID, domain.OrderStatusPreparing)
			require.NoError(t, err)
		}
		if from == domain.OrderStatusOnRoute {
			_, err = svc.SetStatus(ctx, o.ID, domain.OrderStatusOnRoute)
			require.NoError(t, err)
		}
		got, err := svc.SetStatus(ctx, o.ID, domain.OrderStatusCanceled)
		require.NoError(t, err, "cancel from %s", from)
		assert.Equal(t, domain.OrderStatusCanceled, got.Status)
	}
}

func TestFinalStatusesAreTerminal(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	o, err := svc.Create(ctx, testOrder())
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, o.ID, domain.OrderStatusCanceled)
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, o.ID, domain.OrderStatusPreparing)
	require.Error(t, err, "canceled is final")
}

func TestSetStatusMissingOrder(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.SetStatus(context.Background(), 424242, domain.OrderStatusPreparing)
	require.ErrorIs(t, err, dberr.ErrNotFound)
}

func TestAssignCourier(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	o, err := svc.Create(ctx, testOrder())
	require.NoError(t, err)

	got, err := svc.AssignCourier(ctx, o.ID, 77)
	require.NoError(t, err)
	assert.Equal(t, int64(77), got.CourierID)

	// Re-assigning the same courier is a no-op.
	again, err := svc.AssignCourier(ctx, o.ID, 77)
	require.NoError(t, err)
	assert.Equal(t, got.UpdatedAt.Unix(), again.UpdatedAt.Unix())
}

func TestDriverViewFiltersByCourier(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	mine, err := svc.Create(ctx, testOrder())
	require.NoError(t, err)
	_, err = svc.AssignCourier(ctx, mine.ID, 7)
	require.NoError(t, err)

	other := testOrder()
	other.CustomerName = "Joao Souza"
	created, err := svc.Create(ctx, other)
	require.NoError(t, err)
	_, err = svc.AssignCourier(ctx, created.ID, 8)
	require.NoError(t, err)

	views, err := svc.DriverView(ctx, 7)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, mine.ID, views[0].ID)

	all, err := svc.DriverView(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDriverViewExcludesFinishedOrders(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	o, err := svc.Create(ctx, testOrder())
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, o.ID, domain.OrderStatusPreparing)
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, o.ID, domain.OrderStatusOnRoute)
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, o.ID, domain.OrderStatusDelivered)
	require.NoError(t, err)

	views, err := svc.DriverView(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestOrderViewDerivations(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 45, 0, 0, time.UTC)
	o := testOrder()
	o.Total = 47.9
	o.CreatedAt = now.Add(-45 * time.Minute)

	v := NewOrderView(o, now)
	assert.Equal(t, 45, v.ElapsedMinutes)
	assert.Equal(t, "0h 45min", v.ElapsedLabel)
	assert.True(t, v.Overdue, "45 minutes is past the threshold")
	assert.Equal(t, "Rua das Flores, 123 - Centro - Sao Paulo", v.AddressLine)
	assert.Equal(t, "R$ 47,90", v.TotalLabel)
}

func TestOrderViewFreshOrderNotOverdue(t *testing.T) {
	now := time.Now()
	o := testOrder()
	o.CreatedAt = now.Add(-5 * time.Minute)

	v := NewOrderView(o, now)
	assert.Equal(t, 5, v.ElapsedMinutes)
	assert.Equal(t, "0h 5min", v.ElapsedLabel)
	assert.False(t, v.Overdue)
}

func TestDeliveryStats(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	// Backdate three delivered orders with known durations.
	for _, minutes := range []float64{10, 20, 60} {
		o, err := svc.Create(ctx, testOrder())
		require.NoError(t, err)
		created := time.Now().Add(-2 * time.Hour)
		delivered := created.Add(time.Duration(minutes) * time.Minute)
		require.NoError(t, db.Model(&domain.DeliveryOrder{}).
			Where("id = ?", o.ID).
			Updates(map[string]interface{}{
				"status":       domain.OrderStatusDelivered,
				"created_at":   created,
				"delivered_at": delivered,
			}).Error)
	}

	got, err := svc.DeliveryStats(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Delivered)
	assert.Equal(t, 7, got.WindowDays)
	assert.InDelta(t, 30.0, got.MeanMinutes, 0.5)
	assert.InDelta(t, 20.0, got.MedianMinutes, 0.5)
}

func TestDeliveryStatsEmptyWindow(t *testing.T) {
	svc, _ := newTestService(t)
	got, err := svc.DeliveryStats(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 7, got.WindowDays, "window defaults when unset")
	assert.Zero(t, got.Delivered)
	assert.Zero(t, got.MeanMinutes)
}

func TestDeleteOrder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	o, err := svc.Create(ctx, testOrder())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, o.ID))

	_, err = svc.Get(ctx, o.ID)
	require.ErrorIs(t, err, dberr.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, o.ID), "deleting an absent order is not an error")
}
