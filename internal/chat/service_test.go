package chat

import (
	"context"
	"mime/multipart"
	"testing"
	"time"

	"startdrive_backend/internal/car"
	"startdrive_backend/internal/common"
	"startdrive_backend/internal/notification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockChatRepository is a mock type for chat.Repository
type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) FindOrCreate(ctx context.Context, carID, buyerID, sellerID uuid.UUID) (*Chat, bool, error) {
	args := m.Called(ctx, carID, buyerID, sellerID)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*Chat), args.Bool(1), args.Error(2)
}

func (m *MockChatRepository) FindByID(ctx context.Context, chatID uuid.UUID) (*Chat, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Chat), args.Error(1)
}

func (m *MockChatRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]Chat, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Chat), args.Error(1)
}

func (m *MockChatRepository) LatestMessagesByChatIDs(ctx context.Context, chatIDs []uuid.UUID) (map[uuid.UUID]Message, error) {
	args := m.Called(ctx, chatIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]Message), args.Error(1)
}

func (m *MockChatRepository) ListMessages(ctx context.Context, chatID uuid.UUID) ([]Message, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Message), args.Error(1)
}

func (m *MockChatRepository) CreateMessage(ctx context.Context, message *Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

// MockCarService is a mock type for car.Service
type MockCarService struct {
	mock.Mock
}

func (m *MockCarService) CreateCar(ctx context.Context, sellerID uuid.UUID, req car.CreateCarRequest) (*car.Car, error) {
	args := m.Called(ctx, sellerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*car.Car), args.Error(1)
}

func (m *MockCarService) GetCarByID(ctx context.Context, id uuid.UUID) (*car.Car, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*car.Car), args.Error(1)
}

func (m *MockCarService) GetCarBySlug(ctx context.Context, slug string) (*car.Car, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*car.Car), args.Error(1)
}

func (m *MockCarService) UpdateCar(ctx context.Context, id uuid.UUID, sellerID uuid.UUID, req car.UpdateCarRequest) (*car.Car, error) {
	args := m.Called(ctx, id, sellerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*car.Car), args.Error(1)
}

func (m *MockCarService) MarkCarSold(ctx context.Context, id uuid.UUID, sellerID uuid.UUID) (*car.Car, error) {
	args := m.Called(ctx, id, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*car.Car), args.Error(1)
}

func (m *MockCarService) SearchCars(ctx context.Context, query car.CarSearchQuery) ([]car.Car, *common.Pagination, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]car.Car), args.Get(1).(*common.Pagination), args.Error(2)
}

func (m *MockCarService) CompareCars(ctx context.Context, ids []uuid.UUID) ([]car.Car, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]car.Car), args.Error(1)
}

func (m *MockCarService) GetSellerCars(ctx context.Context, sellerID uuid.UUID, page, pageSize int) ([]car.Car, *common.Pagination, error) {
	args := m.Called(ctx, sellerID, page, pageSize)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]car.Car), args.Get(1).(*common.Pagination), args.Error(2)
}

func (m *MockCarService) GetRecentCars(ctx context.Context, limit int) ([]car.Car, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]car.Car), args.Error(1)
}

func (m *MockCarService) AddCarImages(ctx context.Context, id uuid.UUID, sellerID uuid.UUID, files []*multipart.FileHeader) (*car.Car, error) {
	args := m.Called(ctx, id, sellerID, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*car.Car), args.Error(1)
}

func (m *MockCarService) ToResponse(c *car.Car) car.CarResponse {
	args := m.Called(c)
	return args.Get(0).(car.CarResponse)
}

func (m *MockCarService) ToResponses(cars []car.Car) []car.CarResponse {
	args := m.Called(cars)
	return args.Get(0).([]car.CarResponse)
}

// MockNotificationService is a mock type for notification.Service
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) CreateNotification(ctx context.Context, userID uuid.UUID, nType notification.NotificationType, message string, relatedCarID *uuid.UUID) error {
	args := m.Called(ctx, userID, nType, message, relatedCarID)
	return args.Error(0)
}

func (m *MockNotificationService) GetNotificationsForUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]notification.Notification, *common.Pagination, error) {
	args := m.Called(ctx, userID, page, pageSize)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]notification.Notification), args.Get(1).(*common.Pagination), args.Error(2)
}

func (m *MockNotificationService) MarkNotificationAsRead(ctx context.Context, notificationID uuid.UUID, userID uuid.UUID) error {
	args := m.Called(ctx, notificationID, userID)
	return args.Error(0)
}

func (m *MockNotificationService) MarkAllUserNotificationsAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// Test Suite Setup
type ChatServiceTestSuite struct {
	service          Service
	mockRepo         *MockChatRepository
	mockCarService   *MockCarService
	mockNotifService *MockNotificationService
}

func setupChatServiceTestSuite(t *testing.T) *ChatServiceTestSuite {
	ts := &ChatServiceTestSuite{}
	ts.mockRepo = new(MockChatRepository)
	ts.mockCarService = new(MockCarService)
	ts.mockNotifService = new(MockNotificationService)
	ts.service = NewService(ts.mockRepo, ts.mockCarService, ts.mockNotifService, zap.NewNop())
	return ts
}

// --- Test Cases ---

func TestService_StartChat_OwnListingRejected(t *testing.T) {
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()
	sellerID := uuid.New()
	carID := uuid.New()

	ts.mockCarService.On("GetCarByID", ctx, carID).
		Return(&car.Car{BaseModel: common.BaseModel{ID: carID}, SellerID: sellerID}, nil)

	summary, err := ts.service.StartChat(ctx, sellerID, carID)

	assert.Error(t, err)
	assert.Nil(t, summary)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrBadRequest.Code, apiErr.Code)
	ts.mockRepo.AssertNotCalled(t, "FindOrCreate")
}

func TestService_StartChat_NewChatNotifiesSeller(t *testing.T) {
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()
	buyerID, sellerID, carID := uuid.New(), uuid.New(), uuid.New()

	listing := &car.Car{BaseModel: common.BaseModel{ID: carID}, SellerID: sellerID, Make: "VW", Model: "Golf", Year: 2018}
	ts.mockCarService.On("GetCarByID", ctx, carID).Return(listing, nil)

	createdChat := &Chat{
		BaseModel: common.BaseModel{ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()},
		CarID:     carID,
		BuyerID:   buyerID,
		SellerID:  sellerID,
	}
	ts.mockRepo.On("FindOrCreate", ctx, carID, buyerID, sellerID).Return(createdChat, true, nil)

	ts.mockNotifService.On("CreateNotification", ctx, sellerID, notification.ChatStarted,
		"You have a new inquiry about your 2018 VW Golf.", &carID).Return(nil)

	summary, err := ts.service.StartChat(ctx, buyerID, carID)

	assert.NoError(t, err)
	assert.NotNil(t, summary)
	assert.Equal(t, createdChat.ID, summary.ID)
	assert.Nil(t, summary.LastMessage)
	ts.mockNotifService.AssertExpectations(t)
}

func TestService_StartChat_ExistingChatNoNotification(t *testing.T) {
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()
	buyerID, sellerID, carID := uuid.New(), uuid.New(), uuid.New()

	listing := &car.Car{BaseModel: common.BaseModel{ID: carID}, SellerID: sellerID}
	ts.mockCarService.On("GetCarByID", ctx, carID).Return(listing, nil)

	existingChat := &Chat{
		BaseModel: common.BaseModel{ID: uuid.New()},
		CarID:     carID,
		BuyerID:   buyerID,
		SellerID:  sellerID,
	}
	ts.mockRepo.On("FindOrCreate", ctx, carID, buyerID, sellerID).Return(existingChat, false, nil)

	summary, err := ts.service.StartChat(ctx, buyerID, carID)

	assert.NoError(t, err)
	assert.NotNil(t, summary)
	ts.mockNotifService.AssertNotCalled(t, "CreateNotification")
}

func TestService_GetInbox_MergesLatestMessages(t *testing.T) {
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()
	userID := uuid.New()

	// Two chats in activity order; the second has never had a message.
	activeChat := Chat{
		BaseModel: common.BaseModel{ID: uuid.New(), UpdatedAt: time.Now()},
		BuyerID:   userID,
		SellerID:  uuid.New(),
	}
	quietChat := Chat{
		BaseModel: common.BaseModel{ID: uuid.New(), UpdatedAt: time.Now().Add(-time.Hour)},
		BuyerID:   uuid.New(),
		SellerID:  userID,
	}
	chats := []Chat{activeChat, quietChat}

	lastMessage := Message{
		ID:       uuid.New(),
		ChatID:   activeChat.ID,
		SenderID: userID,
		Message:  "Is it still available?",
	}

	ts.mockRepo.On("ListForUser", ctx, userID).Return(chats, nil)
	ts.mockRepo.On("LatestMessagesByChatIDs", ctx, []uuid.UUID{activeChat.ID, quietChat.ID}).
		Return(map[uuid.UUID]Message{activeChat.ID: lastMessage}, nil)

	inbox, err := ts.service.GetInbox(ctx, userID)

	assert.NoError(t, err)
	assert.Len(t, inbox, 2)

	// Order follows the chats query, not the message lookup.
	assert.Equal(t, activeChat.ID, inbox[0].ID)
	assert.Equal(t, quietChat.ID, inbox[1].ID)

	assert.NotNil(t, inbox[0].LastMessage)
	assert.Equal(t, "Is it still available?", inbox[0].LastMessage.Message)
	assert.Nil(t, inbox[1].LastMessage)
	ts.mockRepo.AssertExpectations(t)
}

func TestService_GetInbox_Empty(t *testing.T) {
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()
	userID := uuid.New()

	ts.mockRepo.On("ListForUser", ctx, userID).Return([]Chat{}, nil)
	ts.mockRepo.On("LatestMessagesByChatIDs", ctx, []uuid.UUID{}).Return(map[uuid.UUID]Message{}, nil)

	inbox, err := ts.service.GetInbox(ctx, userID)

	assert.NoError(t, err)
	assert.NotNil(t, inbox)
	assert.Len(t, inbox, 0)
}

func TestService_GetConversation_NonParticipantForbidden(t *testing.T) {
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()
	chatID := uuid.New()

	chat := &Chat{
		BaseModel: common.BaseModel{ID: chatID},
		BuyerID:   uuid.New(),
		SellerID:  uuid.New(),
	}
	ts.mockRepo.On("FindByID", ctx, chatID).Return(chat, nil)

	conversation, err := ts.service.GetConversation(ctx, chatID, uuid.New())

	assert.Error(t, err)
	assert.Nil(t, conversation)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrForbidden.Code, apiErr.Code)
	ts.mockRepo.AssertNotCalled(t, "ListMessages")
}

func TestService_GetConversation_NotFound(t *testing.T) {
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()
	chatID := uuid.New()

	ts.mockRepo.On("FindByID", ctx, chatID).Return(nil, common.ErrNotFound.WithDetails("Chat not found."))

	conversation, err := ts.service.GetConversation(ctx, chatID, uuid.New())

	assert.Error(t, err)
	assert.Nil(t, conversation)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrNotFound.Code, apiErr.Code)
}

func TestService_SendMessage_RejectsWhitespaceOnly(t *testing.T) {
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()

	conversation, err := ts.service.SendMessage(ctx, uuid.New(), uuid.New(), "   \n\t  ")

	assert.Error(t, err)
	assert.Nil(t, conversation)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrBadRequest.Code, apiErr.Code)
	ts.mockRepo.AssertNotCalled(t, "FindByID")
	ts.mockRepo.AssertNotCalled(t, "CreateMessage")
}

func TestService_SendMessage_TrimsAndReturnsHistory(t *testing.T) {
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()
	chatID := uuid.New()
	buyerID := uuid.New()

	chat := &Chat{
		BaseModel: common.BaseModel{ID: chatID},
		BuyerID:   buyerID,
		SellerID:  uuid.New(),
	}
	ts.mockRepo.On("FindByID", ctx, chatID).Return(chat, nil)

	ts.mockRepo.On("CreateMessage", ctx, mock.MatchedBy(func(m *Message) bool {
		return m.ChatID == chatID && m.SenderID == buyerID && m.Message == "Hello there"
	})).Return(nil)

	history := []Message{
		{ID: uuid.New(), ChatID: chatID, SenderID: buyerID, Message: "Hello there", CreatedAt: time.Now()},
	}
	ts.mockRepo.On("ListMessages", ctx, chatID).Return(history, nil)

	conversation, err := ts.service.SendMessage(ctx, chatID, buyerID, "  Hello there  ")

	assert.NoError(t, err)
	assert.NotNil(t, conversation)
	assert.Len(t, conversation.Messages, 1)
	assert.Equal(t, "Hello there", conversation.Messages[0].Message)
	ts.mockRepo.AssertExpectations(t)
}

func TestService_SendMessage_NonParticipantForbidden(t *testing.T) {
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()
	chatID := uuid.New()

	chat := &Chat{
		BaseModel: common.BaseModel{ID: chatID},
		BuyerID:   uuid.New(),
		SellerID:  uuid.New(),
	}
	ts.mockRepo.On("FindByID", ctx, chatID).Return(chat, nil)

	conversation, err := ts.service.SendMessage(ctx, chatID, uuid.New(), "hi")

	assert.Error(t, err)
	assert.Nil(t, conversation)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrForbidden.Code, apiErr.Code)
	ts.mockRepo.AssertNotCalled(t, "CreateMessage")
}
