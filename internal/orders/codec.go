package orders

import (
	"fmt"
	"math"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/bookstore-labs/go-bookstore-backend/internal/store"
)

// The codec is a pure mapping between flattened table rows and domain
// records. Rows with an unrecognized EntityType are ignored so new entity
// kinds can share the partition without breaking older readers.

// FormatAmount renders a monetary value as the decimal string stored in
// the table, e.g. 20 -> "20", 19.9 -> "19.9".
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseAmount parses a stored decimal string.
func ParseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return v, nil
}

// Cents converts a monetary value to integer cents for exact comparison.
func Cents(v float64) int64 {
	return int64(math.Round(v * 100))
}

// MarshalRow flattens any entity struct into a table row.
func MarshalRow(entity interface{}) (store.Item, error) {
	item, err := attributevalue.MarshalMap(entity)
	if err != nil {
		return nil, fmt.Errorf("marshal row: %w", err)
	}
	return item, nil
}

// UnmarshalOrder reads an order row.
func UnmarshalOrder(item store.Item) (*Order, error) {
	var o Order
	if err := attributevalue.UnmarshalMap(item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// UnmarshalItem reads an order line item row.
func UnmarshalItem(item store.Item) (*OrderItem, error) {
	var it OrderItem
	if err := attributevalue.UnmarshalMap(item, &it); err != nil {
		return nil, fmt.Errorf("unmarshal order item: %w", err)
	}
	return &it, nil
}

// UnmarshalInvoice reads an invoice row.
func UnmarshalInvoice(item store.Item) (*Invoice, error) {
	var inv Invoice
	if err := attributevalue.UnmarshalMap(item, &inv); err != nil {
		return nil, fmt.Errorf("unmarshal invoice: %w", err)
	}
	return &inv, nil
}

func entityTypeOf(item store.Item) string {
	if av, ok := item[store.AttrEntityType].(*types.AttributeValueMemberS); ok {
		return av.Value
	}
	return ""
}

// DecodeOrderRows builds the canonical order projection from every row
// sharing one order partition. Returns nil when no order row is present.
func DecodeOrderRows(rows []store.Item) (*OrderDetail, error) {
	detail := &OrderDetail{Items: []LineItem{}}
	found := false

	for _, row := range rows {
		switch entityTypeOf(row) {
		case EntityOrder:
			o, err := UnmarshalOrder(row)
			if err != nil {
				return nil, err
			}
			total, err := ParseAmount(o.Total)
			if err != nil {
				return nil, err
			}
			detail.ID = o.PK
			detail.Status = o.Status
			detail.Customer = o.Customer
			detail.Total = total
			detail.CreatedAt = o.CreatedAt
			detail.UpdatedAt = o.UpdatedAt
			detail.Note = o.Note
			found = true
		case EntityItem:
			it, err := UnmarshalItem(row)
			if err != nil {
				return nil, err
			}
			price, err := ParseAmount(it.Price)
			if err != nil {
				return nil, err
			}
			detail.Items = append(detail.Items, LineItem{
				BookID:   it.SK,
				Quantity: it.Quantity,
				Price:    price,
			})
		case EntityInvoice:
			inv, err := UnmarshalInvoice(row)
			if err != nil {
				return nil, err
			}
			amount, err := ParseAmount(inv.Amount)
			if err != nil {
				return nil, err
			}
			detail.Invoice = &InvoiceDetail{
				ID:            inv.SK,
				InvoiceDate:   inv.InvoiceDate,
				Amount:        amount,
				IsPaid:        inv.IsPaid,
				PaymentMethod: inv.PaymentMethod,
			}
		default:
			// forward compatible: skip unknown entity kinds
		}
	}

	if !found {
		return nil, nil
	}
	return detail, nil
}
