package repository

import "time"

// Row types mirror table shapes with plain Go types. Nullable columns
// use pointers; money is integer cents; promotion and address payloads
// travel as raw jsonb bytes.

type CartRow struct {
	ID                   string
	UserID               *string
	GuestToken           *string
	Currency             string
	Email                *string
	ShippingOptionCode   *string
	ShippingAddress      []byte
	BillingAddress       []byte
	ReservationExpiresAt *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type CartItemRow struct {
	CartID         string
	VariantID      string
	Quantity       int32
	UnitPriceCents int64
	Promotions     []byte
	IsGift         bool
	GiftMessage    *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type ReservationRow struct {
	ID         string
	CartID     string
	VariantID  string
	Quantity   int32
	ExpiresAt  time.Time
	NotifiedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type CheckoutRow struct {
	ID               string
	CartID           string
	UserID           *string
	GuestToken       *string
	Status           string
	TotalAmountCents int64
	Currency         string
	ExpiresAt        time.Time
	CompletedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type OrderRow struct {
	ID               string
	OrderNumber      string
	CheckoutID       string
	UserID           *string
	GuestToken       *string
	Email            *string
	Status           string
	SubtotalCents    int64
	DiscountCents    int64
	ShippingCents    int64
	TaxCents         int64
	TotalCents       int64
	Currency         string
	PaymentIntentID  string
	SourceLocationID *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type OrderItemRow struct {
	ID             string
	OrderID        string
	VariantID      string
	ProductID      string
	SKU            string
	DisplayName    string
	UnitPriceCents int64
	Quantity       int32
	TotalCents     int64
	WeightGrams    int32
	Size           *string
	Color          *string
	CreatedAt      time.Time
}

type PaymentRow struct {
	ID              string
	CheckoutID      string
	OrderID         *string
	PaymentIntentID string
	Status          string
	AmountCents     int64
	Currency        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type VariantRow struct {
	ID             string
	ProductID      string
	SKU            string
	Name           string
	UnitPriceCents int64
	WeightGrams    int32
	Size           *string
	Color          *string
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type ProductRow struct {
	ID        string
	Name      string
	Slug      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type LocationRow struct {
	ID        string
	Name      string
	Kind      string
	Priority  int32
	Active    bool
	CreatedAt time.Time
}

// Params structs below follow the query methods one to one.

type CreateCartParams struct {
	ID         string
	UserID     *string
	GuestToken *string
	Currency   string
}

type UpdateCartOwnerParams struct {
	ID         string
	UserID     *string
	GuestToken *string
}

type UpdateCartContactParams struct {
	ID                 string
	Email              *string
	ShippingOptionCode *string
	ShippingAddress    []byte
	BillingAddress     []byte
}

type UpdateCartReservationExpiryParams struct {
	ID                   string
	ReservationExpiresAt *time.Time
}

type UpsertCartItemParams struct {
	CartID         string
	VariantID      string
	Quantity       int32
	UnitPriceCents int64
	Promotions     []byte
	IsGift         bool
	GiftMessage    *string
}

type SetCartItemQuantityParams struct {
	CartID    string
	VariantID string
	Quantity  int32
}

type DeleteCartItemParams struct {
	CartID    string
	VariantID string
}

type CreateReservationParams struct {
	ID        string
	CartID    string
	VariantID string
	Quantity  int32
	ExpiresAt time.Time
}

type GetReservationByCartAndVariantParams struct {
	CartID    string
	VariantID string
}

type SumActiveReservedByVariantParams struct {
	VariantID string
	Now       time.Time
}

type UpdateReservationExpiryParams struct {
	ID         string
	ExpiresAt  time.Time
	NotifiedAt *time.Time
}

type UpdateReservationQuantityParams struct {
	ID       string
	Quantity int32
}

type ListExpiredReservationsParams struct {
	Cutoff time.Time
	Limit  int32
}

type ListReservationsInGraceParams struct {
	Now        time.Time
	GraceStart time.Time
	Limit      int32
}

type ListExpiringReservationsParams struct {
	Now    time.Time
	Until  time.Time
	Limit  int32
}

type MarkReservationNotifiedParams struct {
	ID         string
	NotifiedAt time.Time
}

type CreateCheckoutParams struct {
	ID               string
	CartID           string
	UserID           *string
	GuestToken       *string
	Status           string
	TotalAmountCents int64
	Currency         string
	ExpiresAt        time.Time
}

type UpdatePendingCheckoutParams struct {
	ID               string
	TotalAmountCents int64
	ExpiresAt        time.Time
}

type UpdateCheckoutStatusParams struct {
	ID          string
	Status      string
	CompletedAt *time.Time
}

type ListExpiredPendingCheckoutsParams struct {
	Now   time.Time
	Limit int32
}

type CreateOrderParams struct {
	ID               string
	OrderNumber      string
	CheckoutID       string
	UserID           *string
	GuestToken       *string
	Email            *string
	Status           string
	SubtotalCents    int64
	DiscountCents    int64
	ShippingCents    int64
	TaxCents         int64
	TotalCents       int64
	Currency         string
	PaymentIntentID  string
	SourceLocationID *string
}

type CreateOrderItemParams struct {
	ID             string
	OrderID        string
	VariantID      string
	ProductID      string
	SKU            string
	DisplayName    string
	UnitPriceCents int64
	Quantity       int32
	TotalCents     int64
	WeightGrams    int32
	Size           *string
	Color          *string
}

type CreateOrderAddressParams struct {
	ID      string
	OrderID string
	Kind    string
	Payload []byte
}

type CreateOrderStatusHistoryParams struct {
	ID      string
	OrderID string
	Status  string
	Note    *string
}

type CreateOrderEventParams struct {
	ID      string
	OrderID string
	Kind    string
	Payload []byte
}

type CreatePaymentParams struct {
	ID              string
	CheckoutID      string
	PaymentIntentID string
	Status          string
	AmountCents     int64
	Currency        string
}

type LinkPaymentToOrderParams struct {
	ID      string
	OrderID string
}

type AdjustStockParams struct {
	VariantID  string
	LocationID string
	Delta      int64
	Reason     string
	Reference  *string
}
