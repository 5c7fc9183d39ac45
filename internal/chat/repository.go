// File: internal/chat/repository.go
package chat

import (
	"context"
	"errors"
	"fmt"

	"startdrive_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for chat data operations.
type Repository interface {
	FindOrCreate(ctx context.Context, carID, buyerID, sellerID uuid.UUID) (*Chat, bool, error)
	FindByID(ctx context.Context, chatID uuid.UUID) (*Chat, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Chat, error)
	LatestMessagesByChatIDs(ctx context.Context, chatIDs []uuid.UUID) (map[uuid.UUID]Message, error)
	ListMessages(ctx context.Context, chatID uuid.UUID) ([]Message, error)
	CreateMessage(ctx context.Context, message *Message) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM chat repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) preloader(query *gorm.DB) *gorm.DB {
	return query.Preload("Car").Preload("Buyer").Preload("Seller")
}

// FindOrCreate returns the buyer's chat for a car, creating it on first
// contact. The second return value reports whether it was created.
func (r *gormRepository) FindOrCreate(ctx context.Context, carID, buyerID, sellerID uuid.UUID) (*Chat, bool, error) {
	var chat Chat
	err := r.preloader(r.db.WithContext(ctx)).
		Where("car_id = ? AND buyer_id = ?", carID, buyerID).
		First(&chat).Error
	if err == nil {
		return &chat, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to look up chat: %w", err)
	}

	newChat := &Chat{CarID: carID, BuyerID: buyerID, SellerID: sellerID}
	if err := r.db.WithContext(ctx).Create(newChat).Error; err != nil {
		// Unique (car_id, buyer_id): a concurrent request created it first.
		var existing Chat
		if lookupErr := r.preloader(r.db.WithContext(ctx)).
			Where("car_id = ? AND buyer_id = ?", carID, buyerID).
			First(&existing).Error; lookupErr == nil {
			return &existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create chat: %w", err)
	}

	created, err := r.FindByID(ctx, newChat.ID)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

// FindByID retrieves a chat with its car and participants.
func (r *gormRepository) FindByID(ctx context.Context, chatID uuid.UUID) (*Chat, error) {
	var chat Chat
	err := r.preloader(r.db.WithContext(ctx)).First(&chat, "chats.id = ?", chatID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Chat not found.")
		}
		return nil, err
	}
	return &chat, nil
}

// ListForUser retrieves every chat the user participates in, most recently
// active first.
func (r *gormRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]Chat, error) {
	var chats []Chat
	err := r.preloader(r.db.WithContext(ctx)).
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("updated_at DESC").
		Find(&chats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list chats for user %s: %w", userID, err)
	}
	return chats, nil
}

// LatestMessagesByChatIDs fetches the newest message of each given chat in a
// single query instead of one query per chat. Ties on created_at are broken
// in Go; chats with no messages are simply absent from the result map.
func (r *gormRepository) LatestMessagesByChatIDs(ctx context.Context, chatIDs []uuid.UUID) (map[uuid.UUID]Message, error) {
	latest := make(map[uuid.UUID]Message, len(chatIDs))
	if len(chatIDs) == 0 {
		return latest, nil
	}

	sub := r.db.Model(&Message{}).
		Select("chat_id, MAX(created_at) AS max_created").
		Where("chat_id IN ?", chatIDs).
		Group("chat_id")

	var messages []Message
	err := r.db.WithContext(ctx).
		Table("messages").
		Select("messages.*").
		Joins("JOIN (?) AS newest ON messages.chat_id = newest.chat_id AND messages.created_at = newest.max_created", sub).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest messages: %w", err)
	}

	for _, m := range messages {
		if existing, ok := latest[m.ChatID]; ok {
			// Same timestamp; keep a deterministic winner.
			if m.ID.String() < existing.ID.String() {
				continue
			}
		}
		latest[m.ChatID] = m
	}
	return latest, nil
}

// ListMessages retrieves a chat's full history in ascending order.
func (r *gormRepository) ListMessages(ctx context.Context, chatID uuid.UUID) ([]Message, error) {
	var messages []Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages for chat %s: %w", chatID, err)
	}
	return messages, nil
}

// CreateMessage inserts a message and bumps the chat's updated_at in one
// transaction, so the inbox ordering can never drift from the history.
func (r *gormRepository) CreateMessage(ctx context.Context, message *Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}
		result := tx.Model(&Chat{}).
			Where("id = ?", message.ChatID).
			Update("updated_at", message.CreatedAt)
		if result.Error != nil {
			return fmt.Errorf("failed to bump chat activity: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return common.ErrNotFound.WithDetails("Chat not found.")
		}
		return nil
	})
}
