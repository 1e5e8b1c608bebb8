package database

import (
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockRepository) CreateUser(params CreateUserParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) GetUserById(userId int) (User, error) {
	args := m.Called(userId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) GetUserByEmail(email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) UpdateUserName(userId int, fullName string) (User, error) {
	args := m.Called(userId, fullName)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) CountCompletedOrders(freelancerId int) (int, error) {
	args := m.Called(freelancerId)
	return args.Int(0), args.Error(1)
}
func (m *MockRepository) ListActiveFreelancerIds(limit int) ([]int, error) {
	args := m.Called(limit)
	if ids, ok := args.Get(0).([]int); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockRepository) CreateOrder(params CreateOrderParams) (Order, error) {
	args := m.Called(params)
	return args.Get(0).(Order), args.Error(1)
}
func (m *MockRepository) GetOrderById(orderId int) (Order, error) {
	args := m.Called(orderId)
	return args.Get(0).(Order), args.Error(1)
}
func (m *MockRepository) ListOpenOrders(params ListOrdersParams) ([]Order, error) {
	args := m.Called(params)
	if orders, ok := args.Get(0).([]Order); ok {
		return orders, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockRepository) ListOrdersByClient(params ListOrdersParams) ([]Order, error) {
	args := m.Called(params)
	if orders, ok := args.Get(0).([]Order); ok {
		return orders, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockRepository) ListOrdersForUser(params ListOrdersParams) ([]Order, error) {
	args := m.Called(params)
	if orders, ok := args.Get(0).([]Order); ok {
		return orders, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockRepository) UpdateOrderStatus(orderId int, status string) (Order, error) {
	args := m.Called(orderId, status)
	return args.Get(0).(Order), args.Error(1)
}
func (m *MockRepository) SearchOrders(params SearchOrdersParams) ([]Order, error) {
	args := m.Called(params)
	if orders, ok := args.Get(0).([]Order); ok {
		return orders, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockRepository) ListOrderCategories() ([]string, error) {
	args := m.Called()
	if categories, ok := args.Get(0).([]string); ok {
		return categories, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockRepository) CreateBid(params CreateBidParams) (Bid, error) {
	args := m.Called(params)
	return args.Get(0).(Bid), args.Error(1)
}
func (m *MockRepository) GetBidById(bidId int) (Bid, error) {
	args := m.Called(bidId)
	return args.Get(0).(Bid), args.Error(1)
}
func (m *MockRepository) BidExists(orderId, freelancerId int) bool {
	args := m.Called(orderId, freelancerId)
	return args.Bool(0)
}
func (m *MockRepository) ListBidsByOrder(orderId int) ([]Bid, error) {
	args := m.Called(orderId)
	if bids, ok := args.Get(0).([]Bid); ok {
		return bids, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockRepository) ListBidsByFreelancer(freelancerId int) ([]Bid, error) {
	args := m.Called(freelancerId)
	if bids, ok := args.Get(0).([]Bid); ok {
		return bids, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockRepository) AcceptBid(bidId int) (AcceptBidResult, error) {
	args := m.Called(bidId)
	return args.Get(0).(AcceptBidResult), args.Error(1)
}
func (m *MockRepository) RejectBid(bidId int) (Bid, error) {
	args := m.Called(bidId)
	return args.Get(0).(Bid), args.Error(1)
}
func (m *MockRepository) CreateChatMessage(params CreateChatMessageParams) (ChatMessage, error) {
	args := m.Called(params)
	return args.Get(0).(ChatMessage), args.Error(1)
}
func (m *MockRepository) GetRecentChatMessages(orderId, limit int) ([]ChatMessage, error) {
	args := m.Called(orderId, limit)
	if msgs, ok := args.Get(0).([]ChatMessage); ok {
		return msgs, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockRepository) ListChatMessages(orderId int) ([]ChatMessage, error) {
	args := m.Called(orderId)
	if msgs, ok := args.Get(0).([]ChatMessage); ok {
		return msgs, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockRepository) CreateNotification(params CreateNotificationParams) (Notification, error) {
	args := m.Called(params)
	return args.Get(0).(Notification), args.Error(1)
}
func (m *MockRepository) ListNotifications(userId, limit int) ([]Notification, error) {
	args := m.Called(userId, limit)
	if n, ok := args.Get(0).([]Notification); ok {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockRepository) CountUnreadNotifications(userId int) (int, error) {
	args := m.Called(userId)
	return args.Int(0), args.Error(1)
}
func (m *MockRepository) MarkNotificationRead(notificationId, userId int) error {
	args := m.Called(notificationId, userId)
	return args.Error(0)
}
func (m *MockRepository) MarkAllNotificationsRead(userId int) (int, error) {
	args := m.Called(userId)
	return args.Int(0), args.Error(1)
}
func (m *MockRepository) CreateReview(params CreateReviewParams) (Review, error) {
	args := m.Called(params)
	return args.Get(0).(Review), args.Error(1)
}
func (m *MockRepository) ListReviewsForUser(userId, limit, offset int) ([]Review, error) {
	args := m.Called(userId, limit, offset)
	if r, ok := args.Get(0).([]Review); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockRepository) ReviewExists(orderId, reviewerId int) bool {
	args := m.Called(orderId, reviewerId)
	return args.Bool(0)
}
func (m *MockRepository) GetReviewById(reviewId int) (Review, error) {
	args := m.Called(reviewId)
	return args.Get(0).(Review), args.Error(1)
}
func (m *MockRepository) SetReviewReply(reviewId int, reply string) (Review, error) {
	args := m.Called(reviewId, reply)
	return args.Get(0).(Review), args.Error(1)
}
func (m *MockRepository) GetRatingSummary(userId int) (RatingSummary, error) {
	args := m.Called(userId)
	return args.Get(0).(RatingSummary), args.Error(1)
}
