package models

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"unique;not null"          json:"email"`
	Username     string `gorm:"not null"                 json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"       json:"id"`
	Token     string `gorm:"unique;not null"  json:"token"`
	UserID    uint   `gorm:"index;not null"   json:"user_id"`
	Role      string `gorm:"not null"         json:"role"`
	ExpiresAt int64  `gorm:"not null"         json:"expires_at"`
	Revoked   bool   `gorm:"default:false"    json:"revoked"`
}

type Product struct {
	ID          uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID     uint           `gorm:"index;not null"           json:"owner_id"`
	Title       string         `gorm:"not null"                 json:"title"`
	Description string         `gorm:"not null"                 json:"description"`
	Price       float64        `gorm:"not null;check:price >= 0" json:"price"`
	Category    string         `gorm:"not null"                 json:"category"`
	Stock       uint           `gorm:"not null"                 json:"stock"`
	Color       string         `gorm:"not null"                 json:"color"`
	IsFeatured  bool           `gorm:"default:false"            json:"is_featured"`
	Images      []ProductImage `json:"images,omitempty"`
}

type ProductImage struct {
	ID          uint   `gorm:"primaryKey"     json:"id"`
	ProductID   uint   `gorm:"index;not null" json:"product_id"`
	Data        []byte `gorm:"not null"       json:"-"`
	ContentType string `gorm:"not null"       json:"content_type"`
}

// Cart is owned by exactly one user. TotalPrice is recomputed from live
// product prices on every mutation, it is not a frozen snapshot.
type Cart struct {
	ID         uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint       `gorm:"uniqueIndex;not null"     json:"user_id"`
	TotalPrice float64    `gorm:"not null;default:0"       json:"total_price"`
	Items      []CartItem `json:"items"`
}

type CartItem struct {
	ID        uint `gorm:"primaryKey"                             json:"id"`
	CartID    uint `gorm:"uniqueIndex:idx_cart_product;not null"  json:"cart_id"`
	ProductID uint `gorm:"uniqueIndex:idx_cart_product;not null"  json:"product_id"`
	Quantity  uint `gorm:"default:1;check:quantity>0"             json:"quantity"`
}

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Order is a frozen record: TotalAmount and Items are fixed at creation and
// never recomputed. PaymentIntentID is the idempotency key for webhook
// materialization, hence the unique index.
type Order struct {
	ID              uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          uint        `gorm:"index;not null"           json:"user_id"`
	TotalAmount     float64     `gorm:"not null"                 json:"total_amount"`
	Address         string      `gorm:"not null"                 json:"address"`
	Email           string      `json:"email"`
	PaymentIntentID string      `gorm:"uniqueIndex;not null"     json:"payment_intent_id"`
	SessionID       string      `json:"session_id"`
	Status          string      `gorm:"not null"                 json:"status"`
	CreatedAt       int64       `json:"created_at"`
	Items           []OrderItem `json:"items"`
}

type OrderItem struct {
	ID        uint `gorm:"primaryKey"     json:"id"`
	OrderID   uint `gorm:"index;not null" json:"order_id"`
	ProductID uint `gorm:"not null"       json:"product_id"`
	Quantity  uint `gorm:"not null"       json:"quantity"`
}

// WebhookFailure keeps a durable trace of every webhook that verified but
// could not be materialized. The handler still acks such deliveries, so this
// table is the only place a paid-but-lost order can be recovered from.
type WebhookFailure struct {
	ID              uint   `gorm:"primaryKey"    json:"id"`
	EventID         string `gorm:"index"         json:"event_id"`
	EventType       string `json:"event_type"`
	PaymentIntentID string `json:"payment_intent_id"`
	Reason          string `gorm:"not null"      json:"reason"`
	Payload         []byte `json:"-"`
	Resolved        bool   `gorm:"default:false" json:"resolved"`
	CreatedAt       int64  `json:"created_at"`
}
