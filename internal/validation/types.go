package validation

// OrderLineItem is a single order line in the create payload.
type OrderLineItem struct {
	BookID   string  `json:"bookId" validate:"required"`     // catalog book id
	Quantity int     `json:"quantity" validate:"required,min=1"` // must be >= 1
	Price    float64 `json:"price" validate:"required,gt=0"` // price per unit
}

// CreateOrderRequest is the payload for POST /orders. The declared total is
// checked against the line items by the order service, not here, so a
// mismatch maps to its own error kind.
type CreateOrderRequest struct {
	Items []OrderLineItem `json:"items" validate:"required,min=1,dive"` // at least one item
	Total float64         `json:"total" validate:"required,gt=0"`       // total amount client claims
}

// SubmitReviewRequest is the payload for POST /books/:bookId/reviews.
type SubmitReviewRequest struct {
	Reviewer string `json:"reviewer" validate:"required"`
	Message  string `json:"message" validate:"required"`
}
