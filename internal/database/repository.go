package database

type Repository interface {
	Ping() error

	CreateUser(params CreateUserParams) (User, error)
	GetUserById(userId int) (User, error)
	GetUserByEmail(email string) (User, error)
	UpdateUserName(userId int, fullName string) (User, error)
	CountCompletedOrders(freelancerId int) (int, error)
	ListActiveFreelancerIds(limit int) ([]int, error)

	CreateOrder(params CreateOrderParams) (Order, error)
	GetOrderById(orderId int) (Order, error)
	ListOpenOrders(params ListOrdersParams) ([]Order, error)
	ListOrdersByClient(params ListOrdersParams) ([]Order, error)
	ListOrdersForUser(params ListOrdersParams) ([]Order, error)
	UpdateOrderStatus(orderId int, status string) (Order, error)
	SearchOrders(params SearchOrdersParams) ([]Order, error)
	ListOrderCategories() ([]string, error)

	CreateBid(params CreateBidParams) (Bid, error)
	GetBidById(bidId int) (Bid, error)
	BidExists(orderId, freelancerId int) bool
	ListBidsByOrder(orderId int) ([]Bid, error)
	ListBidsByFreelancer(freelancerId int) ([]Bid, error)
	AcceptBid(bidId int) (AcceptBidResult, error)
	RejectBid(bidId int) (Bid, error)

	CreateChatMessage(params CreateChatMessageParams) (ChatMessage, error)
	GetRecentChatMessages(orderId, limit int) ([]ChatMessage, error)
	ListChatMessages(orderId int) ([]ChatMessage, error)

	CreateNotification(params CreateNotificationParams) (Notification, error)
	ListNotifications(userId, limit int) ([]Notification, error)
	CountUnreadNotifications(userId int) (int, error)
	MarkNotificationRead(notificationId, userId int) error
	MarkAllNotificationsRead(userId int) (int, error)

	CreateReview(params CreateReviewParams) (Review, error)
	ListReviewsForUser(userId, limit, offset int) ([]Review, error)
	ReviewExists(orderId, reviewerId int) bool
	GetReviewById(reviewId int) (Review, error)
	SetReviewReply(reviewId int, reply string) (Review, error)
	GetRatingSummary(userId int) (RatingSummary, error)
}
