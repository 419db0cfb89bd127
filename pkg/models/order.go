package models

import "time"

// Order is a row of the transactional orders table.
type Order struct {
	ID         int64     `json:"id" db:"id"`
	CustomerID int64     `json:"customer_id" db:"customer_id"`
	ManagerID  int64     `json:"manager_id" db:"manager_id"`
	ProductID  int64     `json:"product_id" db:"product_id"`
	Quantity   int       `json:"quantity" db:"quantity"`
	Status     string    `json:"status" db:"status"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// ExtractedOrder is one denormalized row produced by the extract query: the
// order joined with its customer, manager and product, plus the computed line
// total. Names stand in for the natural keys used during dimension resolution.
type ExtractedOrder struct {
	OrderID      int64   `json:"order_id" db:"order_id"`
	CustomerName string  `json:"customer_name" db:"customer_name"`
	ManagerName  string  `json:"manager_name" db:"manager_name"`
	ProductName  string  `json:"product_name" db:"product_name"`
	Quantity     int     `json:"quantity" db:"quantity"`
	UnitPrice    float64 `json:"unit_price" db:"unit_price"`
	TotalPrice   float64 `json:"total_price" db:"total_price"`
	Status       string  `json:"status" db:"status"`
}

// CreateOrderRequest is the request for creating an order. Customer, manager
// and product are referenced by name and created on first sight.
type CreateOrderRequest struct {
	CustomerName string  `json:"customer_name" validate:"required"`
	ManagerName  string  `json:"manager_name" validate:"required"`
	ProductName  string  `json:"product_name" validate:"required"`
	UnitPrice    float64 `json:"unit_price" validate:"required,gt=0"`
	Quantity     int     `json:"quantity" validate:"required,gt=0"`
	Status       string  `json:"status" validate:"required"`
}

// UpdateOrderStatusRequest is the request for transitioning an order's status.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderListResponse is the response for listing orders in extract form.
type OrderListResponse struct {
	Items      []ExtractedOrder `json:"items"`
	TotalCount int              `json:"total_count"`
}
