package products

import "time"

// Product represents a product entity. Quantity is owned by the stock
// ledger: it starts at zero and changes only through movements, never by a
// direct write from this module.
type Product struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	SKU        string    `json:"sku"`
	Price      float64   `json:"price"`
	Quantity   int64     `json:"quantity"`
	CategoryID int64     `json:"category_id"`
	SupplierID int64     `json:"supplier_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
