package models

import "fmt"

// DimensionType enumerates the closed set of warehouse dimensions. Code that
// needs per-dimension behavior switches on it exhaustively instead of
// dispatching on table-name strings.
type DimensionType int

const (
	DimensionCustomer DimensionType = iota
	DimensionManager
	DimensionProduct
)

// DimensionTypes lists every dimension in resolution order.
var DimensionTypes = []DimensionType{DimensionCustomer, DimensionManager, DimensionProduct}

func (d DimensionType) String() string {
	switch d {
	case DimensionCustomer:
		return "customer"
	case DimensionManager:
		return "manager"
	case DimensionProduct:
		return "product"
	}
	return fmt.Sprintf("DimensionType(%d)", int(d))
}

// Table returns the warehouse table holding this dimension.
func (d DimensionType) Table() string {
	switch d {
	case DimensionCustomer:
		return "dim_customer"
	case DimensionManager:
		return "dim_manager"
	case DimensionProduct:
		return "dim_product"
	}
	return ""
}

// KeyColumn returns the surrogate key column of the dimension table.
func (d DimensionType) KeyColumn() string {
	switch d {
	case DimensionCustomer:
		return "customer_key"
	case DimensionManager:
		return "manager_key"
	case DimensionProduct:
		return "product_key"
	}
	return ""
}

// NameColumn returns the natural name column of the dimension table.
func (d DimensionType) NameColumn() string {
	switch d {
	case DimensionCustomer:
		return "customer_name"
	case DimensionManager:
		return "manager_name"
	case DimensionProduct:
		return "product_name"
	}
	return ""
}

// DimensionRow is one row of a dimension table. The surrogate key is assigned
// by the warehouse on first insertion and never reassigned.
type DimensionRow struct {
	Key    int64  `json:"key" db:"key"`
	Name   string `json:"name" db:"name"`
	LoadID int64  `json:"load_id" db:"load_id"`
}

// DimensionKeys holds the resolved surrogate keys for one extracted order.
type DimensionKeys struct {
	CustomerKey int64 `json:"customer_key"`
	ManagerKey  int64 `json:"manager_key"`
	ProductKey  int64 `json:"product_key"`
}
