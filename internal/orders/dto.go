package orders

// PlaceOrderRequest is the payload for creating an order.
type PlaceOrderRequest struct {
	CustomerName    string         `json:"customer_name" validate:"required,max=200"`
	ShippingAddress string         `json:"shipping_address" validate:"required,max=500"`
	BillingAddress  string         `json:"billing_address" validate:"required,max=500"`
	Items           []PlaceItemReq `json:"items" validate:"required,min=1,dive"`
}

// PlaceItemReq is one requested line item.
type PlaceItemReq struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int64 `json:"quantity" validate:"required,gt=0"`
}
