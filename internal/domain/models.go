// Package domain defines the persistence models for conversations, messages,
// and the read-only product/order catalogue. These types are mapped with GORM
// and form the core data layer of the chat backend.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Message senders. Storage enforces the same set with a check constraint.
const (
	SenderUser = "user"
	SenderAI   = "ai"
)

// DefaultConversationTitle is assigned to every new conversation until the
// first exchange completes.
const DefaultConversationTitle = "New Conversation"

// Conversation represents a thread of messages owned by a user. The public
// ConversationID is what callers see; ID is the storage key and never leaves
// the service.
//
// Fields:
//   - ID: storage primary key (UUID, char(36)).
//   - ConversationID: opaque public identifier (UUID), unique.
//   - UserID: owner identifier; "anonymous" for session-scoped callers.
//   - Title: defaults to "New Conversation", derived once from the first message.
//   - Titled: set exactly once when the derived title is written.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Conversation struct {
	ID             string    `json:"-"               gorm:"type:char(36);primaryKey"`
	ConversationID string    `json:"conversation_id" gorm:"type:char(36);not null;uniqueIndex:ux_conversation_public_id"`
	UserID         string    `json:"user_id"         gorm:"type:varchar(64);not null;index:idx_user_conversations,priority:1"`
	Title          string    `json:"title"           gorm:"type:varchar(255);not null;default:'New Conversation'"`
	Titled         bool      `json:"-"               gorm:"not null;default:false"`
	CreatedAt      time.Time `json:"created_at"      gorm:"index:idx_conversations_created"`
	UpdatedAt      time.Time `json:"updated_at"      gorm:"index:idx_user_conversations,priority:2"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// MessageMetadata is attached to generated replies. User messages carry the
// zero value, which serialises as an empty object.
type MessageMetadata struct {
	QueryType         string   `json:"query_type,omitempty"`
	EntitiesExtracted []string `json:"entities_extracted,omitempty"`
	ResponseTime      int64    `json:"response_time,omitempty"` // milliseconds
}

// Message is a single append-only utterance within a conversation.
//
// ConversationID references Conversation.ConversationID (the public id); the
// two are linked by key only, there is no cascading ownership in storage.
type Message struct {
	ID             string                              `json:"id"              gorm:"type:char(36);primaryKey"`
	ConversationID string                              `json:"conversation_id" gorm:"type:char(36);not null;index:idx_conversation_msgs,priority:1"`
	Sender         string                              `json:"sender"          gorm:"type:varchar(8);not null;check:sender IN ('user','ai')"`
	Content        string                              `json:"content"         gorm:"type:text;not null"`
	CreatedAt      time.Time                           `json:"timestamp"       gorm:"index:idx_conversation_msgs,priority:2"`
	Metadata       datatypes.JSONType[MessageMetadata] `json:"metadata"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Product is read-only catalogue data loaded by the ingestion tool.
type Product struct {
	ID                   int64   `json:"id"                     gorm:"primaryKey;autoIncrement:false"`
	Cost                 float64 `json:"cost"                   gorm:"not null"`
	Category             string  `json:"category"               gorm:"type:varchar(128);not null;index"`
	Name                 string  `json:"name"                   gorm:"type:varchar(512);not null;index"`
	Brand                string  `json:"brand"                  gorm:"type:varchar(128);not null;index"`
	RetailPrice          float64 `json:"retail_price"           gorm:"not null;index"`
	Department           string  `json:"department"             gorm:"type:varchar(64);not null"`
	SKU                  string  `json:"sku"                    gorm:"type:varchar(64);not null"`
	DistributionCenterID int64   `json:"distribution_center_id" gorm:"not null"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }

// Order is read-only order history loaded by the ingestion tool. Only
// CreatedAt is mandatory; the lifecycle timestamps are nil until reached.
type Order struct {
	OrderID     int64      `json:"order_id"     gorm:"primaryKey;autoIncrement:false"`
	UserID      int64      `json:"user_id"      gorm:"not null;index"`
	Status      string     `json:"status"       gorm:"type:varchar(32);not null;index"`
	Gender      string     `json:"gender"       gorm:"type:varchar(8);not null"`
	NumOfItem   int        `json:"num_of_item"  gorm:"not null"`
	CreatedAt   time.Time  `json:"created_at"   gorm:"not null;index:idx_orders_created,sort:desc;autoCreateTime:false"`
	ShippedAt   *time.Time `json:"shipped_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
	ReturnedAt  *time.Time `json:"returned_at"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "orders" }
