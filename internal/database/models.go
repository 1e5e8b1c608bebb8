package database

import (
	"database/sql"
	"time"
)

const (
	OrderStatusOpen       = "open"
	OrderStatusInProgress = "in_progress"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"

	BidStatusPending  = "pending"
	BidStatusAccepted = "accepted"
	BidStatusRejected = "rejected"

	DefaultMessageType = "text"
)

type User struct {
	Id           int
	EmailAddress string
	FullName     string
	PasswordHash string
	IsFreelancer bool
	IsActive     bool
	Rating       float64
	ReviewCount  int
	CreatedAt    time.Time
}

type Order struct {
	Id           int
	Title        string
	Description  string
	Requirements string
	Budget       float64
	ClientId     int
	FreelancerId sql.NullInt64
	Status       string
	Category     string
	Deadline     sql.NullTime
	CreatedAt    time.Time
}

// HasParticipant reports whether userId is the order's client or its
// assigned performer.
func (o Order) HasParticipant(userId int) bool {
	if o.ClientId == userId {
		return true
	}

	return o.FreelancerId.Valid && int(o.FreelancerId.Int64) == userId
}

// Counterpart returns the other participant of the order, if there is one.
func (o Order) Counterpart(userId int) (int, bool) {
	switch {
	case o.ClientId == userId && o.FreelancerId.Valid:
		return int(o.FreelancerId.Int64), true
	case o.FreelancerId.Valid && int(o.FreelancerId.Int64) == userId:
		return o.ClientId, true
	default:
		return 0, false
	}
}

type Bid struct {
	Id             int
	OrderId        int
	FreelancerId   int
	Amount         float64
	Proposal       string
	PortfolioLinks string
	Status         string
	FreelancerName string
	OrderTitle     string
	CreatedAt      time.Time
}

type ChatMessage struct {
	Id          int
	OrderId     int
	SenderId    int
	SenderName  string
	Message     string
	MessageType string
	IsRead      bool
	CreatedAt   time.Time
}

type Notification struct {
	Id               int
	UserId           int
	Title            string
	Body             string
	NotificationType string
	RelatedId        sql.NullInt64
	IsRead           bool
	CreatedAt        time.Time
}

type Review struct {
	Id             int
	OrderId        int
	ReviewerId     int
	ReviewedUserId int
	ReviewerName   string
	OrderTitle     string
	Rating         int
	Comment        string
	Reply          string
	CreatedAt      time.Time
	UpdatedAt      sql.NullTime
}

type CreateUserParams struct {
	EmailAddress string
	FullName     string
	PasswordHash string
	IsFreelancer bool
}

type CreateOrderParams struct {
	Title        string
	Description  string
	Requirements string
	Budget       float64
	ClientId     int
	Category     string
	Deadline     sql.NullTime
}

type ListOrdersParams struct {
	UserId int
	Limit  int
	Offset int
}

// SearchOrdersParams filters an order search. Zero values disable the
// corresponding filter. With OpenOnly set the search covers every open
// order, otherwise only the orders ClientId posted.
type SearchOrdersParams struct {
	OpenOnly  bool
	ClientId  int
	Query     string
	MinBudget float64
	MaxBudget float64
	Category  string
	Limit     int
	Offset    int
}

type CreateBidParams struct {
	OrderId        int
	FreelancerId   int
	Amount         float64
	Proposal       string
	PortfolioLinks string
}

type CreateChatMessageParams struct {
	OrderId     int
	SenderId    int
	Message     string
	MessageType string
}

type CreateNotificationParams struct {
	UserId           int
	Title            string
	Body             string
	NotificationType string
	RelatedId        sql.NullInt64
}

type CreateReviewParams struct {
	OrderId        int
	ReviewerId     int
	ReviewedUserId int
	Rating         int
	Comment        string
}

// RatingSummary aggregates the reviews a user received.
type RatingSummary struct {
	Count        int
	Average      float64
	Distribution map[int]int
}

// AcceptBidResult describes the rows touched when a bid is accepted.
type AcceptBidResult struct {
	Accepted Bid
	Order    Order
	Rejected []Bid
}

// NewRatingSummary builds a summary from per-rating review counts. Every
// rating from 1 to 5 is present in the distribution.
func NewRatingSummary(counts map[int]int) RatingSummary {
	s := RatingSummary{Distribution: make(map[int]int, 5)}

	total := 0
	for rating := 1; rating <= 5; rating++ {
		n := counts[rating]
		s.Distribution[rating] = n
		s.Count += n
		total += rating * n
	}

	if s.Count > 0 {
		s.Average = float64(total) / float64(s.Count)
	}

	return s
}
