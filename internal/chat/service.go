// File: internal/chat/service.go
package chat

import (
	"context"
	"fmt"
	"strings"

	"startdrive_backend/internal/car"
	"startdrive_backend/internal/common"
	"startdrive_backend/internal/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines the interface for chat business logic.
type Service interface {
	StartChat(ctx context.Context, buyerID, carID uuid.UUID) (*ChatSummaryResponse, error)
	GetInbox(ctx context.Context, userID uuid.UUID) ([]ChatSummaryResponse, error)
	GetConversation(ctx context.Context, chatID, userID uuid.UUID) (*ConversationResponse, error)
	SendMessage(ctx context.Context, chatID, senderID uuid.UUID, text string) (*ConversationResponse, error)
}

type serviceImpl struct {
	repo                Repository
	carService          car.Service
	notificationService notification.Service
	logger              *zap.Logger
}

// NewService creates a new chat service.
func NewService(
	repo Repository,
	carService car.Service,
	notificationService notification.Service,
	logger *zap.Logger,
) Service {
	return &serviceImpl{
		repo:                repo,
		carService:          carService,
		notificationService: notificationService,
		logger:              logger,
	}
}

// StartChat opens (or returns) the buyer's chat about a car. Sellers cannot
// open chats about their own listings.
func (s *serviceImpl) StartChat(ctx context.Context, buyerID, carID uuid.UUID) (*ChatSummaryResponse, error) {
	listing, err := s.carService.GetCarByID(ctx, carID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID == buyerID {
		return nil, common.ErrBadRequest.WithDetails("You cannot start a chat about your own listing.")
	}

	chat, created, err := s.repo.FindOrCreate(ctx, carID, buyerID, listing.SellerID)
	if err != nil {
		return nil, err
	}

	if created {
		msg := fmt.Sprintf("You have a new inquiry about your %d %s %s.", listing.Year, listing.Make, listing.Model)
		if notifErr := s.notificationService.CreateNotification(ctx, listing.SellerID, notification.ChatStarted, msg, &listing.ID); notifErr != nil {
			s.logger.Warn("Failed to send chat-started notification",
				zap.Error(notifErr),
				zap.String("chatID", chat.ID.String()))
		}
	}

	summary := s.toSummary(chat, nil)
	return &summary, nil
}

// GetInbox assembles the user's chat list: chats ordered by last activity,
// each with its latest message. The latest messages for all chats come from
// one batched query rather than one query per chat, so a failure is a failure
// of the whole inbox, never a silently dropped row.
func (s *serviceImpl) GetInbox(ctx context.Context, userID uuid.UUID) ([]ChatSummaryResponse, error) {
	chats, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	chatIDs := make([]uuid.UUID, 0, len(chats))
	for i := range chats {
		chatIDs = append(chatIDs, chats[i].ID)
	}

	latest, err := s.repo.LatestMessagesByChatIDs(ctx, chatIDs)
	if err != nil {
		return nil, err
	}

	inbox := make([]ChatSummaryResponse, 0, len(chats))
	for i := range chats {
		var lastMessage *MessageResponse
		if m, ok := latest[chats[i].ID]; ok {
			resp := ToMessageResponse(&m)
			lastMessage = &resp
		}
		inbox = append(inbox, s.toSummary(&chats[i], lastMessage))
	}
	return inbox, nil
}

// GetConversation returns a chat with its full ascending history. Only the
// two participants may read it; everyone else gets a 403, distinct from the
// 404 for a chat that does not exist.
func (s *serviceImpl) GetConversation(ctx context.Context, chatID, userID uuid.UUID) (*ConversationResponse, error) {
	chat, err := s.repo.FindByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsParticipant(userID) {
		return nil, common.ErrForbidden.WithDetails("You are not a participant in this chat.")
	}

	messages, err := s.repo.ListMessages(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return s.toConversation(chat, messages), nil
}

// SendMessage trims and stores a message, bumping the chat's activity in the
// same transaction, then returns the refreshed conversation so the client
// renders exactly what was persisted.
func (s *serviceImpl) SendMessage(ctx context.Context, chatID, senderID uuid.UUID, text string) (*ConversationResponse, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, common.ErrBadRequest.WithDetails("Message cannot be empty.")
	}

	chat, err := s.repo.FindByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsParticipant(senderID) {
		return nil, common.ErrForbidden.WithDetails("You are not a participant in this chat.")
	}

	message := &Message{
		ChatID:   chatID,
		SenderID: senderID,
		Message:  trimmed,
	}
	if err := s.repo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	messages, err := s.repo.ListMessages(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return s.toConversation(chat, messages), nil
}

func (s *serviceImpl) toSummary(chat *Chat, lastMessage *MessageResponse) ChatSummaryResponse {
	summary := ChatSummaryResponse{
		ID:          chat.ID,
		Buyer:       toParticipant(chat.Buyer),
		Seller:      toParticipant(chat.Seller),
		LastMessage: lastMessage,
		CreatedAt:   chat.CreatedAt,
		UpdatedAt:   chat.UpdatedAt,
	}
	if chat.Car != nil {
		carResp := s.carService.ToResponse(chat.Car)
		summary.Car = &carResp
	}
	return summary
}

func (s *serviceImpl) toConversation(chat *Chat, messages []Message) *ConversationResponse {
	conv := &ConversationResponse{
		ID:        chat.ID,
		Buyer:     toParticipant(chat.Buyer),
		Seller:    toParticipant(chat.Seller),
		Messages:  make([]MessageResponse, 0, len(messages)),
		CreatedAt: chat.CreatedAt,
		UpdatedAt: chat.UpdatedAt,
	}
	if chat.Car != nil {
		carResp := s.carService.ToResponse(chat.Car)
		conv.Car = &carResp
	}
	for i := range messages {
		conv.Messages = append(conv.Messages, ToMessageResponse(&messages[i]))
	}
	return conv
}
