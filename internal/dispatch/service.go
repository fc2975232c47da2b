// Package dispatch is the delivery-order façade: order intake, status
// transitions, courier assignment and the overdue sweep. It follows the
// same write-then-publish discipline as the catalog façade.
package dispatch

import (
	"context"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/deliverdesk/deliverdesk/internal/dberr"
	"github.com/deliverdesk/deliverdesk/internal/domain"
	"github.com/deliverdesk/deliverdesk/internal/realtime"
	"github.com/deliverdesk/deliverdesk/pkg/common"
	"github.com/deliverdesk/deliverdesk/pkg/format"
)

// FeedTable is the realtime channel name for order changes.
const FeedTable = "delivery_order"

// allowedTransitions captures the order lifecycle; canceled is reachable
// from any non-final status.
var allowedTransitions = map[string][]string{
	domain.OrderStatusPending:   {domain.OrderStatusPreparing, domain.OrderStatusCanceled},
	domain.OrderStatusPreparing: {domain.OrderStatusOnRoute, domain.OrderStatusCanceled},
	domain.OrderStatusOnRoute:   {domain.OrderStatusDelivered, domain.OrderStatusCanceled},
}

// OrderView is an order decorated with the driver-facing derived state.
type OrderView struct {
	*domain.DeliveryOrder
	ElapsedMinutes int    `json:"elapsed_minutes"`
	ElapsedLabel   string `json:"elapsed_label"`
	Overdue        bool   `json:"overdue"`
	AddressLine    string `json:"address_line"`
	TotalLabel     string `json:"total_label"`
}

// Service exposes order operations to the API layer.
type Service struct {
	repo OrderRepository
	feed *realtime.Feed
}

// NewService creates the order façade.
func NewService(repo OrderRepository, feed *realtime.Feed) *Service {
	return &Service{repo: repo, feed: feed}
}

// Create stores a new order with server-assigned key, code and
// timestamps.
func (s *Service) Create(ctx context.Context, o *domain.DeliveryOrder) (*domain.DeliveryOrder, error) {
	o.ID = common.UUIDint64()
	if o.Code == "" {
		o.Code = common.ShortCode(6)
	}
	if o.Status == "" {
		o.Status = domain.OrderStatusPending
	}
	if !domain.ValidOrderStatus(o.Status) {
		return nil, errors.Errorf("invalid order status %q", o.Status)
	}
	if o.Total == 0 {
		o.Total = o.Subtotal + o.DeliveryFee
	}
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, errors.Wrap(dberr.Translate(err), "create order")
	}
	if o.ID == 0 {
		return nil, dberr.ErrNoKey
	}

	s.publish(realtime.EventInsert, o, nil)
	zap.L().Info("order created", zap.Int64("id", o.ID), zap.String("code", o.Code))
	return o, nil
}

// Get returns one order by key.
func (s *Service) Get(ctx context.Context, id int64) (*domain.DeliveryOrder, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, dberr.Translate(err)
	}
	return o, nil
}

// List returns a page of orders in arrival order.
func (s *Service) List(ctx context.Context, filter ListFilter, page, pageSize int) ([]*domain.DeliveryOrder, int64, error) {
	rows, total, err := s.repo.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, 0, dberr.Translate(err)
	}
	return rows, total, nil
}

// SetStatus moves an order through its lifecycle, stamping delivered_at
// when it reaches delivered.
func (s *Service) SetStatus(ctx context.Context, id int64, status string) (*domain.DeliveryOrder, error) {
	if !domain.ValidOrderStatus(status) {
		return nil, errors.Errorf("invalid order status %q", status)
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, dberr.Translate(err)
	}
	if current.Status == status {
		// Same-status transition: successful no-op.
		return current, nil
	}
	if !transitionAllowed(current.Status, status) {
		return nil, errors.Errorf("cannot move order from %s to %s", current.Status, status)
	}

	patch := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if status == domain.OrderStatusDelivered {
		patch["delivered_at"] = time.Now()
	}
	if _, err := s.repo.Updates(ctx, id, patch); err != nil {
		return nil, errors.Wrap(dberr.Translate(err), "update order status")
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, dberr.Translate(err)
	}
	s.publish(realtime.EventUpdate, updated, current)
	zap.L().Info("order status changed",
		zap.Int64("id", id),
		zap.String("from", current.Status),
		zap.String("to", status))
	return updated, nil
}

// AssignCourier hands the order to a driver.
func (s *Service) AssignCourier(ctx context.Context, id, courierID int64) (*domain.DeliveryOrder, error) {
	if id == 0 {
		return nil, dberr.ErrInvalidKey
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, dberr.Translate(err)
	}
	if current.CourierID == courierID {
		return current, nil
	}
	patch := map[string]interface{}{
		"courier_id": courierID,
		"updated_at": time.Now(),
	}
	if _, err := s.repo.Updates(ctx, id, patch); err != nil {
		return nil, errors.Wrap(dberr.Translate(err), "assign courier")
	}
	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, dberr.Translate(err)
	}
	s.publish(realtime.EventUpdate, updated, current)
	return updated, nil
}

// Delete removes an order. Deleting an absent row is not an error.
func (s *Service) Delete(ctx context.Context, id int64) error {
	old, _ := s.repo.GetByID(ctx, id)
	if err := s.repo.Delete(ctx, id); err != nil {
		return errors.Wrap(dberr.Translate(err), "delete order")
	}
	s.publish(realtime.EventDelete, nil, old)
	zap.L().Info("order deleted", zap.Int64("id", id))
	return nil
}

// DriverView decorates orders with elapsed time, overdue flag and
// display strings for the driver app.
func (s *Service) DriverView(ctx context.Context, courierID int64) ([]OrderView, error) {
	rows, err := s.repo.ListUndelivered(ctx)
	if err != nil {
		return nil, dberr.Translate(err)
	}
	now := time.Now()
	views := make([]OrderView, 0, len(rows))
	for _, o := range rows {
		if courierID != 0 && o.CourierID != courierID {
			continue
		}
		views = append(views, NewOrderView(o, now))
	}
	return views, nil
}

// NewOrderView computes the derived presentation state for one order.
func NewOrderView(o *domain.DeliveryOrder, now time.Time) OrderView {
	return OrderView{
		DeliveryOrder:  o,
		ElapsedMinutes: format.ElapsedMinutes(o.CreatedAt, now),
		ElapsedLabel:   format.ElapsedLabel(o.CreatedAt, now),
		Overdue:        format.Overdue(o.CreatedAt, now),
		AddressLine: format.Address(format.AddressParts{
			Street:       o.Address.Street,
			Number:       o.Address.Number,
			Neighborhood: o.Address.Neighborhood,
			Complement:   o.Address.Complement,
			City:         o.Address.City,
		}),
		TotalLabel: format.Price(o.Total),
	}
}

// Stats summarizes delivery durations over the trailing window.
type Stats struct {
	WindowDays    int     `json:"window_days"`
	Delivered     int     `json:"delivered"`
	MeanMinutes   float64 `json:"mean_minutes"`
	MedianMinutes float64 `json:"median_minutes"`
	P90Minutes    float64 `json:"p90_minutes"`
}

// DeliveryStats computes aggregate delivery-time statistics.
func (s *Service) DeliveryStats(ctx context.Context, windowDays int) (*Stats, error) {
	if windowDays <= 0 {
		windowDays = 7
	}
	durations, err := s.repo.DeliveryDurations(ctx, time.Now().AddDate(0, 0, -windowDays))
	if err != nil {
		return nil, dberr.Translate(err)
	}
	out := &Stats{WindowDays: windowDays, Delivered: len(durations)}
	if len(durations) == 0 {
		return out, nil
	}
	out.MeanMinutes, _ = stats.Mean(durations)
	out.MedianMinutes, _ = stats.Median(durations)
	out.P90Minutes, _ = stats.Percentile(durations, 90)
	return out, nil
}

// SweepOverdue publishes an update event for every in-flight order that
// crossed the overdue threshold since the last sweep. Runs once per
// minute from the job scheduler; the flag itself stays derived state.
func (s *Service) SweepOverdue(ctx context.Context) {
	rows, err := s.repo.ListUndelivered(ctx)
	if err != nil {
		zap.L().Error("overdue sweep failed", zap.Error(err))
		return
	}
	now := time.Now()
	for _, o := range rows {
		// Crossed the threshold within the last sweep interval.
		age := now.Sub(o.CreatedAt)
		if age > format.OverdueThreshold && age <= format.OverdueThreshold+time.Minute {
			s.publish(realtime.EventUpdate, o, o)
			zap.L().Warn("order overdue",
				zap.Int64("id", o.ID),
				zap.String("code", o.Code),
				zap.Duration("age", age))
		}
	}
}

func (s *Service) publish(kind string, newRow, oldRow *domain.DeliveryOrder) {
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

func transitionAllowed(from, to string) bool {
	for _, t := range allowedTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}
