package types

import (
	"time"
)

type User struct {
	Id              int       `json:"id"`
	EmailAddress    string    `json:"email,omitempty"`
	FullName        string    `json:"full_name"`
	IsFreelancer    bool      `json:"is_freelancer"`
	Rating          float64   `json:"rating"`
	ReviewCount     int       `json:"review_count"`
	CompletedOrders *int      `json:"completed_orders,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
}

type Order struct {
	Id           int        `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Requirements string     `json:"requirements"`
	Budget       float64    `json:"budget"`
	Status       string     `json:"status"`
	Category     string     `json:"category"`
	ClientId     int        `json:"client_id"`
	FreelancerId *int       `json:"freelancer_id"`
	Deadline     *time.Time `json:"deadline"`
	CreatedAt    time.Time  `json:"created_at"`
}

type Bid struct {
	Id             int       `json:"id"`
	OrderId        int       `json:"order_id"`
	FreelancerId   int       `json:"freelancer_id"`
	Amount         float64   `json:"amount"`
	Proposal       string    `json:"proposal"`
	PortfolioLinks string    `json:"portfolio_links,omitempty"`
	Status         string    `json:"status"`
	FreelancerName string    `json:"freelancer_name,omitempty"`
	OrderTitle     string    `json:"order_title,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type ChatMessage struct {
	Id          int       `json:"id"`
	OrderId     int       `json:"order_id"`
	SenderId    int       `json:"sender_id"`
	SenderName  string    `json:"sender_name,omitempty"`
	Message     string    `json:"message"`
	MessageType string    `json:"message_type"`
	IsOwn       bool      `json:"is_own"`
	CreatedAt   time.Time `json:"created_at"`
}

type Notification struct {
	Id               int       `json:"id"`
	Title            string    `json:"title"`
	Body             string    `json:"body"`
	NotificationType string    `json:"notification_type"`
	RelatedId        *int      `json:"related_id"`
	IsRead           bool      `json:"is_read"`
	CreatedAt        time.Time `json:"created_at"`
}

type Review struct {
	Id             int        `json:"id"`
	OrderId        int        `json:"order_id"`
	ReviewerId     int        `json:"reviewer_id"`
	ReviewedUserId int        `json:"reviewed_user_id"`
	ReviewerName   string     `json:"reviewer_name,omitempty"`
	OrderTitle     string     `json:"order_title,omitempty"`
	Rating         int        `json:"rating"`
	Comment        string     `json:"comment"`
	Reply          string     `json:"reply,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

type RecentReview struct {
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type ReviewStats struct {
	TotalReviews       int            `json:"total_reviews"`
	AverageRating      float64        `json:"average_rating"`
	RatingDistribution map[int]int    `json:"rating_distribution"`
	RecentReviews      []RecentReview `json:"recent_reviews"`
}

type UserRating struct {
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
	ProEligible bool    `json:"pro_eligible"`
	Level       string  `json:"level"`
}
