package dto

type PlaceItemDTO struct {
	ProductID uint   `json:"productId"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity"`
}

type AddressDTO struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Street   string `json:"street"`
	Ward     string `json:"ward"`
	District string `json:"district"`
	City     string `json:"city"`
}

type PlaceOrderDTO struct {
	Items   []PlaceItemDTO `json:"items"`
	Address AddressDTO     `json:"address"`
}

type UpdateStatusDTO struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// OrderActionDTO action 僅接受 cancel 或 return
type OrderActionDTO struct {
	OrderID string `json:"orderId"`
	Action  string `json:"action"`
}

type SearchOrdersDTO struct {
	UserID    uint   `json:"userId"`
	Status    string `json:"status"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}
