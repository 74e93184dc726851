package usecase

import (
	"time"

	"shoporder/internal/domain/model"

	"github.com/shopspring/decimal"
)

type CreateOrderItemInput struct {
	ProductID int64
	Quantity  int64
	Notes     string
	Specs     map[string]any
	// nilは「減らす」扱い
	UpdateStock *bool
}

type CreateOrderInput struct {
	Items           []CreateOrderItemInput
	OrderType       string
	DeliveryAddress string
	TableNumber     string
	ContactName     string
	ContactPhone    string
	Notes           string
	CartItemIDs     []int64
	AddressID       int64
	IdempotencyKey  string
}

type OrderItemOutput struct {
	ID            int64           `json:"id"`
	ProductID     int64           `json:"product_id"`
	ProductName   string          `json:"product_name"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int64           `json:"quantity"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Specs         map[string]any  `json:"specs,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	StockDeducted bool            `json:"stock_deducted"`
}

type OrderOutput struct {
	ID              int64             `json:"id"`
	UserID          int64             `json:"user_id"`
	OrderNumber     string            `json:"order_number"`
	Status          string            `json:"status"`
	PaymentStatus   string            `json:"payment_status"`
	OrderType       string            `json:"order_type"`
	TotalAmount     decimal.Decimal   `json:"total_amount"`
	DeliveryFee     decimal.Decimal   `json:"delivery_fee"`
	PickupCode      *string           `json:"pickup_code"`
	TableNumber     string            `json:"table_number,omitempty"`
	DeliveryAddress string            `json:"delivery_address,omitempty"`
	ContactName     string            `json:"contact_name,omitempty"`
	ContactPhone    string            `json:"contact_phone,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	CancelledAt     *time.Time        `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Items           []OrderItemOutput `json:"items"`
}

type CancelOrderOutput struct {
	Order  OrderOutput `json:"order"`
	Reason string      `json:"reason"`
}

type OrderListOutput struct {
	Items      []OrderOutput `json:"items"`
	Pagination Pagination    `json:"pagination"`
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	out := OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		OrderNumber:     o.OrderNumber,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		OrderType:       string(o.OrderType),
		TotalAmount:     o.TotalAmount,
		DeliveryFee:     o.DeliveryFee,
		PickupCode:      o.PickupCode,
		TableNumber:     o.TableNumber,
		DeliveryAddress: o.DeliveryAddress,
		ContactName:     o.ContactName,
		ContactPhone:    o.ContactPhone,
		Notes:           o.Notes,
		CancelledAt:     o.CancelledAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Items:           make([]OrderItemOutput, 0, len(items)),
	}
	for _, it := range items {
		out.Items = append(out.Items, OrderItemOutput{
			ID:            it.ID,
			ProductID:     it.ProductID,
			ProductName:   it.ProductName,
			UnitPrice:     it.UnitPrice,
			Quantity:      it.Quantity,
			Subtotal:      it.Subtotal(),
			Specs:         map[string]any(it.Specs),
			Notes:         it.Notes,
			StockDeducted: it.StockDeducted,
		})
	}
	return out
}
