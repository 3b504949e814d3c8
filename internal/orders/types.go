package orders

// Entity type discriminators sharing the order partition.
const (
	EntityOrder   = "order"
	EntityItem    = "orderitem"
	EntityInvoice = "orderinvoice"
)

// Key prefixes for derived identifiers.
const (
	OrderKeyPrefix   = "o#"
	InvoiceKeyPrefix = "i#"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusDelivered Status = "DELIVERED"
)

// CanTransitionTo reports whether next is a legal transition from s.
// CREATED may move to CONFIRMED or CANCELLED; CONFIRMED may move to
// DELIVERED; CANCELLED and DELIVERED are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusCreated:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusDelivered
	case StatusCancelled, StatusDelivered:
		return false
	default:
		return false
	}
}

// Order is the order row in the bookstore table.
type Order struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	Status     Status `dynamodbav:"Status"`
	Customer   string `dynamodbav:"Customer"`
	Total      string `dynamodbav:"Total"`   // decimal as string
	Request    string `dynamodbav:"Request"` // raw create payload, compared on idempotent replay
	TraceID    string `dynamodbav:"TraceId"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
	Note       string `dynamodbav:"Note,omitempty"`
}

// OrderItem is one line item row; its sort key is the book id.
type OrderItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	Price      string `dynamodbav:"Price"` // decimal as string
	Quantity   int    `dynamodbav:"Quantity"`
}

// Invoice is the single COD invoice row created on delivery.
type Invoice struct {
	PK            string `dynamodbav:"PK"`
	SK            string `dynamodbav:"SK"`
	EntityType    string `dynamodbav:"EntityType"`
	Customer      string `dynamodbav:"Customer"`
	InvoiceDate   string `dynamodbav:"InvoiceDate"`
	Amount        string `dynamodbav:"Amount"`
	IsPaid        bool   `dynamodbav:"IsPaid"`
	PaymentMethod string `dynamodbav:"PaymentMethod"`
}

// LineItem is the wire form of one order line.
type LineItem struct {
	BookID   string  `json:"bookId"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// InvoiceDetail is the wire form of an invoice.
type InvoiceDetail struct {
	ID            string  `json:"id"`
	InvoiceDate   string  `json:"invoiceDate"`
	Amount        float64 `json:"amount"`
	IsPaid        bool    `json:"isPaid"`
	PaymentMethod string  `json:"paymentMethod"`
}

// OrderDetail is the canonical order projection returned by the read path.
type OrderDetail struct {
	ID        string         `json:"id"`
	Status    Status         `json:"status"`
	Customer  string         `json:"customer"`
	Total     float64        `json:"total"`
	CreatedAt string         `json:"createdAt"`
	UpdatedAt string         `json:"updatedAt"`
	Note      string         `json:"note"`
	Items     []LineItem     `json:"items"`
	Invoice   *InvoiceDetail `json:"invoice,omitempty"`
}

// OrderID derives the deterministic order identifier from an idempotency token.
func OrderID(token string) string {
	return OrderKeyPrefix + token
}
