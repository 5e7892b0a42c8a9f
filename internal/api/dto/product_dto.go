package dto

import (
	"github.com/shopspring/decimal"
)

// VariantDTO 變體矩陣的一格，multipart 表單裡以 JSON 字串傳遞
type VariantDTO struct {
	Size  string          `json:"size"`
	Color string          `json:"color"`
	Stock uint            `json:"stock"`
	Price decimal.Decimal `json:"price"`
	Cost  decimal.Decimal `json:"costPrice"`
}

type ProductIDDTO struct {
	ProductID uint `json:"productId"`
}

type SearchProductsDTO struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

type RestockProductDTO struct {
	ProductID uint             `json:"productId"`
	Items     []RestockItemDTO `json:"items"`
}

type RestockItemDTO struct {
	Size     string `json:"size"`
	Color    string `json:"color"`
	Quantity int    `json:"quantity"`
}
