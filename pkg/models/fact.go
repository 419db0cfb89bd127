package models

// FactSale is one version of an order's state in the warehouse. Rows are
// append-only; the row with the greatest load_id for an order_id is the
// current version.
type FactSale struct {
	SaleID      int64   `json:"sale_id" db:"sale_id"`
	OrderID     int64   `json:"order_id" db:"order_id"`
	CustomerKey int64   `json:"customer_key" db:"customer_key"`
	ManagerKey  int64   `json:"manager_key" db:"manager_key"`
	ProductKey  int64   `json:"product_key" db:"product_key"`
	Quantity    int     `json:"quantity" db:"quantity"`
	TotalPrice  float64 `json:"total_price" db:"total_price"`
	Status      string  `json:"status" db:"status"`
	LoadID      int64   `json:"load_id" db:"load_id"`
}

// FactVersion is the slice of a fact row the versioner compares against:
// the latest recorded status for an order and the cycle that wrote it.
type FactVersion struct {
	SaleID int64  `json:"sale_id" db:"sale_id"`
	Status string `json:"status" db:"status"`
	LoadID int64  `json:"load_id" db:"load_id"`
}
