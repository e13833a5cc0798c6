package mercadopago

type OrderStatus string

const (
	OrderStatusOpened  OrderStatus = "opened"
	OrderStatusClosed  OrderStatus = "closed"
	OrderStatusExpired OrderStatus = "expired"
)

type Item struct {
	Title       string  `json:"title"`
	Category    string  `json:"category"`
	Quantity    int     `json:"quantity"`
	UnitMeasure string  `json:"unit_measure"`
	UnitPrice   float64 `json:"unit_price"`
	TotalAmount float64 `json:"total_amount"`
}

type CreateOrderRequest struct {
	ExternalReference string  `json:"external_reference"`
	TotalAmount       float64 `json:"total_amount"`
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	ExpirationDate    string  `json:"expiration_date"`
	Items             []Item  `json:"items"`
	NotificationURL   string  `json:"notification_url"`
}

type CreateOrderResponse struct {
	QRData string `json:"qr_data"`
}

type Order struct {
	ID                int64       `json:"id"`
	Status            OrderStatus `json:"status"`
	ExternalReference string      `json:"external_reference"`
}

type PaymentOrderRef struct {
	ID string `json:"id"`
}

type Payment struct {
	Order  PaymentOrderRef `json:"order"`
	Status string          `json:"status"`
}
