package dto

type AddToCartDTO struct {
	ProductID uint   `json:"productId"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

type UpdateCartDTO struct {
	ProductID uint   `json:"productId"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity"`
}
