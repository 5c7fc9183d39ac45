// File: internal/chat/model.go
package chat

import (
	"time"

	"startdrive_backend/internal/car"
	"startdrive_backend/internal/common"
	"startdrive_backend/internal/user"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Chat is a buyer-seller conversation about one car. A buyer has at most one
// chat per car. UpdatedAt doubles as the inbox ordering field: it is bumped
// inside the same transaction that inserts a message.
type Chat struct {
	common.BaseModel
	CarID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_chat_car_buyer"`
	Car      *car.Car   `gorm:"foreignKey:CarID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	BuyerID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_chat_car_buyer;index"`
	Buyer    *user.User `gorm:"foreignKey:BuyerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	SellerID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Seller   *user.User `gorm:"foreignKey:SellerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// TableName specifies the table name for GORM.
func (Chat) TableName() string {
	return "chats"
}

// IsParticipant reports whether userID is the chat's buyer or seller.
func (c *Chat) IsParticipant(userID uuid.UUID) bool {
	return c.BuyerID == userID || c.SellerID == userID
}

// Message is one chat message. Messages are immutable once created.
type Message struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ChatID    uuid.UUID `gorm:"type:uuid;not null;index:idx_message_chat_created" json:"chat_id"`
	SenderID  uuid.UUID `gorm:"type:uuid;not null" json:"sender_id"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"not null;index:idx_message_chat_created" json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Message) TableName() string {
	return "messages"
}

// BeforeCreate assigns a UUID when none was set by the caller.
func (m *Message) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// --- DTOs ---

// StartChatRequest opens (or returns) the caller's chat about a car.
type StartChatRequest struct {
	CarID uuid.UUID `json:"car_id" binding:"required"`
}

// SendMessageRequest carries a new message body. Whitespace-only messages are
// rejected in the service after trimming.
type SendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

// MessageResponse is a chat message as sent to clients.
type MessageResponse struct {
	ID        uuid.UUID `json:"id"`
	ChatID    uuid.UUID `json:"chat_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ParticipantResponse is the trimmed user view embedded in chat responses.
type ParticipantResponse struct {
	ID       uuid.UUID `json:"id"`
	FullName *string   `json:"full_name,omitempty"`
	Location *string   `json:"location,omitempty"`
}

// ChatSummaryResponse is one inbox row: the chat, its car, and the latest
// message if any. LastMessage is null for chats nobody has written in yet.
type ChatSummaryResponse struct {
	ID          uuid.UUID            `json:"id"`
	Car         *car.CarResponse     `json:"car,omitempty"`
	Buyer       *ParticipantResponse `json:"buyer,omitempty"`
	Seller      *ParticipantResponse `json:"seller,omitempty"`
	LastMessage *MessageResponse     `json:"last_message"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// ConversationResponse is a full chat with its history in ascending order.
type ConversationResponse struct {
	ID        uuid.UUID            `json:"id"`
	Car       *car.CarResponse     `json:"car,omitempty"`
	Buyer     *ParticipantResponse `json:"buyer,omitempty"`
	Seller    *ParticipantResponse `json:"seller,omitempty"`
	Messages  []MessageResponse    `json:"messages"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// ToMessageResponse converts a message model to its DTO.
func ToMessageResponse(m *Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		ChatID:    m.ChatID,
		SenderID:  m.SenderID,
		Message:   m.Message,
		CreatedAt: m.CreatedAt,
	}
}

func toParticipant(u *user.User) *ParticipantResponse {
	if u == nil {
		return nil
	}
	return &ParticipantResponse{
		ID:       u.ID,
		FullName: u.FullName,
		Location: u.Location,
	}
}
