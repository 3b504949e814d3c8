package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bookstore-labs/go-bookstore-backend/internal/aws"
	"github.com/bookstore-labs/go-bookstore-backend/internal/store"
)

// PaymentMethodCOD is the only payment method modeled; invoices are issued
// pre-paid on delivery.
const PaymentMethodCOD = "COD"

// Confirmation notes written by the async verifier.
const (
	noteAmountVerified = "Order amount verified"
	noteAmountInvalid  = "Invalid order amount"
)

// Service drives the order lifecycle against the bookstore table.
type Service struct {
	store        *store.Store
	metrics      *aws.Metrics
	log          *zap.Logger
	nowFunc      func() time.Time
	newInvoiceID func() string
}

// NewService creates the order lifecycle service. metrics may be nil.
func NewService(s *store.Store, metrics *aws.Metrics, log *zap.Logger) *Service {
	return &Service{
		store:   s,
		metrics: metrics,
		log:     log,
		nowFunc: time.Now,
		newInvoiceID: func() string {
			return InvoiceKeyPrefix + uuid.NewString()
		},
	}
}

// CreateInput carries everything needed to create an order. RawBody is the
// original request payload byte-for-byte; it is persisted and compared on
// replays of the same idempotency token.
type CreateInput struct {
	Token    string
	Customer string
	TraceID  string
	RawBody  string
	Items    []LineItem
	Total    float64
}

// CreateResult is returned for both fresh creations and idempotent replays.
type CreateResult struct {
	OrderID string `json:"orderId"`
	Status  Status `json:"status"`
}

// Create creates an order and its line items in one transaction. The order
// id is derived from the idempotency token, so a retry with the same token
// and identical body replays the original result; the same token with a
// different body is rejected.
func (s *Service) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	if in.Token == "" {
		return nil, fmt.Errorf("idempotency token: %w", ErrValidation)
	}
	orderID := OrderID(in.Token)

	existing, err := s.store.GetItem(ctx, orderID, orderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.replay(existing, orderID, in.RawBody)
	}

	var computed int64
	for _, it := range in.Items {
		computed += Cents(it.Price) * int64(it.Quantity)
	}
	if computed != Cents(in.Total) {
		s.log.Warn("order total does not match items",
			zap.String("order_id", orderID),
			zap.Int64("computed_cents", computed),
			zap.Int64("declared_cents", Cents(in.Total)))
		return nil, ErrAmountMismatch
	}

	now := s.nowFunc().UTC().Format(time.RFC3339)
	order := Order{
		PK:         orderID,
		SK:         orderID,
		EntityType: EntityOrder,
		Status:     StatusCreated,
		Customer:   in.Customer,
		Total:      FormatAmount(in.Total),
		Request:    in.RawBody,
		TraceID:    in.TraceID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	orderRow, err := MarshalRow(order)
	if err != nil {
		return nil, err
	}

	puts := []store.Put{
		{
			Item: orderRow,
			Condition: &store.Condition{
				Expression: "attribute_not_exists(PK)",
			},
		},
	}
	for _, it := range in.Items {
		row, err := MarshalRow(OrderItem{
			PK:         orderID,
			SK:         it.BookID,
			EntityType: EntityItem,
			Price:      FormatAmount(it.Price),
			Quantity:   it.Quantity,
		})
		if err != nil {
			return nil, err
		}
		puts = append(puts, store.Put{Item: row})
	}

	// The token doubles as the transaction client token: the store collapses
	// concurrent identical submissions into a single write.
	if err := s.store.TransactPut(ctx, puts, in.Token); err != nil {
		if errors.Is(err, store.ErrConditionFailed) || errors.Is(err, store.ErrTransactionCanceled) {
			return s.resolveCreateRace(ctx, orderID, in.RawBody, err)
		}
		return nil, err
	}

	s.log.Info("created new order", zap.String("order_id", orderID))
	_ = s.metrics.Count(ctx, "OrderCreated")

	return &CreateResult{OrderID: orderID, Status: StatusCreated}, nil
}

// replay resolves a create against an already persisted order row.
func (s *Service) replay(row store.Item, orderID, rawBody string) (*CreateResult, error) {
	o, err := UnmarshalOrder(row)
	if err != nil {
		return nil, err
	}
	if o.Request != rawBody {
		s.log.Warn("idempotency token reused with different payload", zap.String("order_id", orderID))
		return nil, ErrTokenConflict
	}
	s.log.Info("order already created", zap.String("order_id", orderID))
	return &CreateResult{OrderID: o.PK, Status: o.Status}, nil
}

// resolveCreateRace handles a transaction lost to a concurrent duplicate
// submission. Read-after-write is not guaranteed across the race, so when
// the winning row is not yet visible the store failure is surfaced.
func (s *Service) resolveCreateRace(ctx context.Context, orderID, rawBody string, cause error) (*CreateResult, error) {
	row, err := s.store.GetItem(ctx, orderID, orderID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, cause
	}
	return s.replay(row, orderID, rawBody)
}

// Get returns the canonical projection of one order with its items and
// invoice, or ErrNotFound.
func (s *Service) Get(ctx context.Context, orderID string) (*OrderDetail, error) {
	if orderID == "" {
		return nil, fmt.Errorf("order id: %w", ErrValidation)
	}
	rows, err := s.store.Query(ctx, orderID, EntityOrder, EntityItem, EntityInvoice)
	if err != nil {
		return nil, err
	}
	detail, err := DecodeOrderRows(rows)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, ErrNotFound
	}
	return detail, nil
}

// Confirm re-reads the authoritative order state, recomputes the total from
// the line items, and moves CREATED to CONFIRMED when it matches the
// event's declared total, CANCELLED otherwise. Every other situation —
// missing order, already processed, lost conditional race — is a no-op, so
// Confirm is safe under at-least-once and out-of-order event delivery.
func (s *Service) Confirm(ctx context.Context, orderID string, declaredTotal float64) error {
	rows, err := s.store.Query(ctx, orderID, EntityOrder, EntityItem)
	if err != nil {
		return err
	}

	var order *Order
	var itemCents int64
	for _, row := range rows {
		switch entityTypeOf(row) {
		case EntityOrder:
			if order, err = UnmarshalOrder(row); err != nil {
				return err
			}
		case EntityItem:
			it, err := UnmarshalItem(row)
			if err != nil {
				return err
			}
			price, err := ParseAmount(it.Price)
			if err != nil {
				return err
			}
			itemCents += Cents(price) * int64(it.Quantity)
		}
	}

	if order == nil {
		s.log.Info("order not found, ignoring event", zap.String("order_id", orderID))
		return nil
	}
	if order.Status != StatusCreated {
		s.log.Info("order already processed",
			zap.String("order_id", orderID),
			zap.String("status", string(order.Status)))
		return nil
	}

	// The event payload is advisory; the store recomputation is authoritative.
	next := StatusCancelled
	note := noteAmountInvalid
	if itemCents == Cents(declaredTotal) {
		next = StatusConfirmed
		note = noteAmountVerified
	}
	if !order.Status.CanTransitionTo(next) {
		return nil
	}

	updated := *order
	updated.Status = next
	updated.Note = note
	updated.UpdatedAt = s.nowFunc().UTC().Format(time.RFC3339)
	row, err := MarshalRow(updated)
	if err != nil {
		return err
	}

	err = s.store.PutItem(ctx, row, &store.Condition{
		Expression: "#st = :expected",
		Names:      map[string]string{"#st": "Status"},
		Values: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberS{Value: string(StatusCreated)},
		},
	})
	if errors.Is(err, store.ErrConditionFailed) {
		// lost the race to another consumer, outcome already recorded
		s.log.Info("order status changed concurrently", zap.String("order_id", orderID))
		return nil
	}
	if err != nil {
		return err
	}

	s.log.Info("order processed",
		zap.String("order_id", orderID),
		zap.String("status", string(next)))
	if next == StatusConfirmed {
		_ = s.metrics.Count(ctx, "OrderConfirmed")
	} else {
		_ = s.metrics.Count(ctx, "OrderCancelled")
	}
	return nil
}

// Deliver moves a CONFIRMED order to DELIVERED and issues its single COD
// invoice in the same transaction; either both effects land or neither.
func (s *Service) Deliver(ctx context.Context, orderID string) error {
	if orderID == "" {
		return fmt.Errorf("order id: %w", ErrValidation)
	}

	row, err := s.store.GetItem(ctx, orderID, orderID)
	if err != nil {
		return err
	}
	if row == nil {
		return ErrNotFound
	}
	order, err := UnmarshalOrder(row)
	if err != nil {
		return err
	}
	if !order.Status.CanTransitionTo(StatusDelivered) {
		return fmt.Errorf("%w: order is %s", ErrInvalidTransition, order.Status)
	}

	now := s.nowFunc().UTC().Format(time.RFC3339)
	updated := *order
	updated.Status = StatusDelivered
	updated.UpdatedAt = now
	orderRow, err := MarshalRow(updated)
	if err != nil {
		return err
	}
	invoiceRow, err := MarshalRow(Invoice{
		PK:            orderID,
		SK:            s.newInvoiceID(),
		EntityType:    EntityInvoice,
		Customer:      order.Customer,
		InvoiceDate:   now,
		Amount:        order.Total,
		IsPaid:        true,
		PaymentMethod: PaymentMethodCOD,
	})
	if err != nil {
		return err
	}

	err = s.store.TransactPut(ctx, []store.Put{
		{
			Item: orderRow,
			Condition: &store.Condition{
				Expression: "#st = :expected",
				Names:      map[string]string{"#st": "Status"},
				Values: map[string]types.AttributeValue{
					":expected": &types.AttributeValueMemberS{Value: string(StatusConfirmed)},
				},
			},
		},
		{Item: invoiceRow},
	}, "")
	if errors.Is(err, store.ErrConditionFailed) {
		return fmt.Errorf("%w: order status changed concurrently", ErrInvalidTransition)
	}
	if err != nil {
		return err
	}

	s.log.Info("order delivered with invoice created", zap.String("order_id", orderID))
	_ = s.metrics.Count(ctx, "OrderDelivered")
	return nil
}
