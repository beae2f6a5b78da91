package ledger

import "time"

// MovementType enumerates supported stock movements.
type MovementType string

const (
	// MovementTypeIn represents an inbound movement (receiving stock).
	MovementTypeIn MovementType = "IN"
	// MovementTypeOut represents an outbound movement (consuming stock).
	MovementTypeOut MovementType = "OUT"
	// MovementTypeAdjustment represents a manual correction. Corrections are
	// always new movements; existing rows are never edited or deleted.
	MovementTypeAdjustment MovementType = "ADJUSTMENT"
)

// Valid reports whether t is a known movement type.
func (t MovementType) Valid() bool {
	switch t {
	case MovementTypeIn, MovementTypeOut, MovementTypeAdjustment:
		return true
	}
	return false
}

// Movement is an immutable signed quantity delta applied to a product's
// stock. The signed sum of all movements for a product equals that product's
// current quantity.
type Movement struct {
	ID              int64        `json:"id"`
	ProductID       int64        `json:"product_id"`
	QuantityChanged int64        `json:"quantity_changed"`
	Type            MovementType `json:"type"`
	CreatedAt       time.Time    `json:"created_at"`
}

// AppendInput describes a request to append one movement.
type AppendInput struct {
	ProductID int64
	Delta     int64
	Type      MovementType
}

// ListFilter filters movement listings.
type ListFilter struct {
	ProductID int64
	Limit     int
}
