package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const (
	userColumns  = "id, email, full_name, password_hash, is_freelancer, is_active, rating, review_count, created_at"
	orderColumns = "id, title, description, requirements, budget, client_id, freelancer_id, status, category, deadline, created_at"
	bidColumns   = "b.id, b.order_id, b.freelancer_id, b.amount, b.proposal, b.portfolio_links, b.status, b.created_at, u.full_name, o.title"
	bidJoins     = "FROM bids b JOIN users u ON u.id = b.freelancer_id JOIN orders o ON o.id = b.order_id"

	notificationColumns = "id, user_id, title, body, notification_type, related_id, is_read, created_at"

	reviewColumns = "r.id, r.order_id, r.reviewer_id, r.reviewed_user_id, u.full_name, o.title, r.rating, r.comment, r.reply, r.created_at, r.updated_at"
	reviewJoins   = "FROM reviews r JOIN users u ON u.id = r.reviewer_id JOIN orders o ON o.id = r.order_id"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	err := row.Scan(
		&u.Id,
		&u.EmailAddress,
		&u.FullName,
		&u.PasswordHash,
		&u.IsFreelancer,
		&u.IsActive,
		&u.Rating,
		&u.ReviewCount,
		&u.CreatedAt,
	)

	return u, err
}

func scanOrder(row rowScanner) (Order, error) {
	var o Order
	err := row.Scan(
		&o.Id,
		&o.Title,
		&o.Description,
		&o.Requirements,
		&o.Budget,
		&o.ClientId,
		&o.FreelancerId,
		&o.Status,
		&o.Category,
		&o.Deadline,
		&o.CreatedAt,
	)

	return o, err
}

func scanBid(row rowScanner) (Bid, error) {
	var b Bid
	err := row.Scan(
		&b.Id,
		&b.OrderId,
		&b.FreelancerId,
		&b.Amount,
		&b.Proposal,
		&b.PortfolioLinks,
		&b.Status,
		&b.CreatedAt,
		&b.FreelancerName,
		&b.OrderTitle,
	)

	return b, err
}

func scanNotification(row rowScanner) (Notification, error) {
	var n Notification
	err := row.Scan(
		&n.Id,
		&n.UserId,
		&n.Title,
		&n.Body,
		&n.NotificationType,
		&n.RelatedId,
		&n.IsRead,
		&n.CreatedAt,
	)

	return n, err
}

func (db *PgRepository) CreateUser(params CreateUserParams) (User, error) {
	row := db.conn.QueryRow(
		"INSERT INTO users (email, full_name, password_hash, is_freelancer, created_at) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING "+userColumns,
		params.EmailAddress,
		params.FullName,
		params.PasswordHash,
		params.IsFreelancer,
		time.Now().UTC(),
	)

	return scanUser(row)
}

func (db *PgRepository) GetUserById(userId int) (User, error) {
	row := db.conn.QueryRow("SELECT "+userColumns+" FROM users WHERE id = $1 LIMIT 1", userId)

	return scanUser(row)
}

func (db *PgRepository) GetUserByEmail(email string) (User, error) {
	row := db.conn.QueryRow("SELECT "+userColumns+" FROM users WHERE email = $1 LIMIT 1", email)

	return scanUser(row)
}

func (db *PgRepository) UpdateUserName(userId int, fullName string) (User, error) {
	row := db.conn.QueryRow(
		"UPDATE users SET full_name = $2 WHERE id = $1 RETURNING "+userColumns,
		userId,
		fullName,
	)

	return scanUser(row)
}

func (db *PgRepository) CountCompletedOrders(freelancerId int) (int, error) {
	var count int
	err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM orders WHERE freelancer_id = $1 AND status = $2",
		freelancerId,
		OrderStatusCompleted,
	).Scan(&count)

	return count, err
}

func (db *PgRepository) ListActiveFreelancerIds(limit int) ([]int, error) {
	rows, err := db.conn.Query(
		"SELECT id FROM users WHERE is_freelancer AND is_active ORDER BY id LIMIT $1",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int, 0, limit)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (db *PgRepository) CreateOrder(params CreateOrderParams) (Order, error) {
	row := db.conn.QueryRow(
		"INSERT INTO orders (title, description, requirements, budget, client_id, category, deadline, status, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING "+orderColumns,
		params.Title,
		params.Description,
		params.Requirements,
		params.Budget,
		params.ClientId,
		params.Category,
		params.Deadline,
		OrderStatusOpen,
		time.Now().UTC(),
	)

	return scanOrder(row)
}

func (db *PgRepository) GetOrderById(orderId int) (Order, error) {
	row := db.conn.QueryRow("SELECT "+orderColumns+" FROM orders WHERE id = $1 LIMIT 1", orderId)

	return scanOrder(row)
}

func (db *PgRepository) listOrders(query string, args ...any) ([]Order, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

func (db *PgRepository) ListOpenOrders(params ListOrdersParams) ([]Order, error) {
	return db.listOrders(
		"SELECT "+orderColumns+" FROM orders WHERE status = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3",
		OrderStatusOpen,
		params.Limit,
		params.Offset,
	)
}

func (db *PgRepository) ListOrdersByClient(params ListOrdersParams) ([]Order, error) {
	return db.listOrders(
		"SELECT "+orderColumns+" FROM orders WHERE client_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3",
		params.UserId,
		params.Limit,
		params.Offset,
	)
}

func (db *PgRepository) ListOrdersForUser(params ListOrdersParams) ([]Order, error) {
	return db.listOrders(
		"SELECT "+orderColumns+" FROM orders WHERE (client_id = $1 OR freelancer_id = $1) AND status <> $2 "+
			"ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4",
		params.UserId,
		OrderStatusCancelled,
		params.Limit,
		params.Offset,
	)
}

// searchOrdersQuery builds the statement for SearchOrders.
func searchOrdersQuery(params SearchOrdersParams) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if params.OpenOnly {
		where = append(where, "status = "+arg(OrderStatusOpen))
	} else {
		where = append(where, "client_id = "+arg(params.ClientId))
	}

	if q := strings.TrimSpace(params.Query); q != "" {
		p := arg("%" + likeEscaper.Replace(q) + "%")
		where = append(where, "(title ILIKE "+p+" OR description ILIKE "+p+")")
	}
	if params.MinBudget > 0 {
		where = append(where, "budget >= "+arg(params.MinBudget))
	}
	if params.MaxBudget > 0 {
		where = append(where, "budget <= "+arg(params.MaxBudget))
	}
	if params.Category != "" {
		where = append(where, "category = "+arg(params.Category))
	}

	query := "SELECT " + orderColumns + " FROM orders WHERE " + strings.Join(where, " AND ") +
		" ORDER BY created_at DESC, id DESC LIMIT " + arg(params.Limit) + " OFFSET " + arg(params.Offset)

	return query, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func (db *PgRepository) SearchOrders(params SearchOrdersParams) ([]Order, error) {
	query, args := searchOrdersQuery(params)
	return db.listOrders(query, args...)
}

// ListOrderCategories returns the distinct non-empty categories in use.
func (db *PgRepository) ListOrderCategories() ([]string, error) {
	rows, err := db.conn.Query(
		"SELECT DISTINCT category FROM orders WHERE category IS NOT NULL AND category <> '' ORDER BY category",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

func (db *PgRepository) UpdateOrderStatus(orderId int, status string) (Order, error) {
	row := db.conn.QueryRow(
		"UPDATE orders SET status = $2 WHERE id = $1 RETURNING "+orderColumns,
		orderId,
		status,
	)

	return scanOrder(row)
}

func (db *PgRepository) CreateBid(params CreateBidParams) (Bid, error) {
	var id int
	err := db.conn.QueryRow(
		"INSERT INTO bids (order_id, freelancer_id, amount, proposal, portfolio_links, status, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id",
		params.OrderId,
		params.FreelancerId,
		params.Amount,
		params.Proposal,
		params.PortfolioLinks,
		BidStatusPending,
		time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return Bid{}, err
	}

	return db.GetBidById(id)
}

func (db *PgRepository) GetBidById(bidId int) (Bid, error) {
	row := db.conn.QueryRow("SELECT "+bidColumns+" "+bidJoins+" WHERE b.id = $1 LIMIT 1", bidId)

	return scanBid(row)
}

func (db *PgRepository) BidExists(orderId, freelancerId int) bool {
	var id int
	err := db.conn.QueryRow(
		"SELECT id FROM bids WHERE order_id = $1 AND freelancer_id = $2 LIMIT 1",
		orderId,
		freelancerId,
	).Scan(&id)

	return err == nil
}

func (db *PgRepository) listBids(query string, args ...any) ([]Bid, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bids := make([]Bid, 0)
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bid: %w", err)
		}
		bids = append(bids, b)
	}

	return bids, rows.Err()
}

func (db *PgRepository) ListBidsByOrder(orderId int) ([]Bid, error) {
	return db.listBids("SELECT "+bidColumns+" "+bidJoins+" WHERE b.order_id = $1 ORDER BY b.created_at, b.id", orderId)
}

func (db *PgRepository) ListBidsByFreelancer(freelancerId int) ([]Bid, error) {
	return db.listBids("SELECT "+bidColumns+" "+bidJoins+" WHERE b.freelancer_id = $1 ORDER BY b.created_at DESC, b.id DESC", freelancerId)
}

// AcceptBid marks the bid accepted, rejects every other bid on the same
// order and assigns the bidder as the order's performer in one transaction.
func (db *PgRepository) AcceptBid(bidId int) (AcceptBidResult, error) {
	var res AcceptBidResult

	tx, err := db.conn.Begin()
	if err != nil {
		return res, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var orderId, freelancerId int
	err = tx.QueryRow(
		"UPDATE bids SET status = $2 WHERE id = $1 RETURNING order_id, freelancer_id",
		bidId,
		BidStatusAccepted,
	).Scan(&orderId, &freelancerId)
	if err != nil {
		return res, err
	}

	rows, err := tx.Query(
		"UPDATE bids SET status = $3 WHERE order_id = $1 AND id <> $2 AND status <> $3 RETURNING id, freelancer_id",
		orderId,
		bidId,
		BidStatusRejected,
	)
	if err != nil {
		return res, err
	}
	for rows.Next() {
		b := Bid{OrderId: orderId, Status: BidStatusRejected}
		if err = rows.Scan(&b.Id, &b.FreelancerId); err != nil {
			rows.Close()
			return res, err
		}
		res.Rejected = append(res.Rejected, b)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return res, err
	}

	res.Order, err = scanOrder(tx.QueryRow(
		"UPDATE orders SET status = $2, freelancer_id = $3 WHERE id = $1 RETURNING "+orderColumns,
		orderId,
		OrderStatusInProgress,
		freelancerId,
	))
	if err != nil {
		return res, err
	}

	res.Accepted, err = scanBid(tx.QueryRow("SELECT "+bidColumns+" "+bidJoins+" WHERE b.id = $1", bidId))
	if err != nil {
		return res, err
	}

	if err = tx.Commit(); err != nil {
		return res, err
	}

	return res, nil
}

func (db *PgRepository) RejectBid(bidId int) (Bid, error) {
	_, err := db.conn.Exec("UPDATE bids SET status = $2 WHERE id = $1", bidId, BidStatusRejected)
	if err != nil {
		return Bid{}, err
	}

	return db.GetBidById(bidId)
}

func (db *PgRepository) CreateChatMessage(params CreateChatMessageParams) (ChatMessage, error) {
	msg := ChatMessage{
		OrderId:     params.OrderId,
		SenderId:    params.SenderId,
		Message:     params.Message,
		MessageType: params.MessageType,
	}
	if msg.MessageType == "" {
		msg.MessageType = DefaultMessageType
	}

	err := db.conn.QueryRow(
		"INSERT INTO chat_messages (order_id, sender_id, message, message_type, created_at) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at",
		msg.OrderId,
		msg.SenderId,
		msg.Message,
		msg.MessageType,
		time.Now().UTC(),
	).Scan(&msg.Id, &msg.CreatedAt)

	return msg, err
}

func (db *PgRepository) listChatMessages(query string, args ...any) ([]ChatMessage, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]ChatMessage, 0)
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.Id, &m.OrderId, &m.SenderId, &m.SenderName, &m.Message, &m.MessageType, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

// GetRecentChatMessages returns up to limit messages for the order, newest first.
func (db *PgRepository) GetRecentChatMessages(orderId, limit int) ([]ChatMessage, error) {
	return db.listChatMessages(
		"SELECT m.id, m.order_id, m.sender_id, u.full_name, m.message, m.message_type, m.is_read, m.created_at "+
			"FROM chat_messages m JOIN users u ON u.id = m.sender_id "+
			"WHERE m.order_id = $1 ORDER BY m.created_at DESC, m.id DESC LIMIT $2",
		orderId,
		limit,
	)
}

// ListChatMessages returns the full history of the order, oldest first.
func (db *PgRepository) ListChatMessages(orderId int) ([]ChatMessage, error) {
	return db.listChatMessages(
		"SELECT m.id, m.order_id, m.sender_id, u.full_name, m.message, m.message_type, m.is_read, m.created_at "+
			"FROM chat_messages m JOIN users u ON u.id = m.sender_id "+
			"WHERE m.order_id = $1 ORDER BY m.created_at, m.id",
		orderId,
	)
}

func (db *PgRepository) CreateNotification(params CreateNotificationParams) (Notification, error) {
	row := db.conn.QueryRow(
		"INSERT INTO notifications (user_id, title, body, notification_type, related_id, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6) RETURNING "+notificationColumns,
		params.UserId,
		params.Title,
		params.Body,
		params.NotificationType,
		params.RelatedId,
		time.Now().UTC(),
	)

	return scanNotification(row)
}

func (db *PgRepository) ListNotifications(userId, limit int) ([]Notification, error) {
	rows, err := db.conn.Query(
		"SELECT "+notificationColumns+" FROM notifications WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2",
		userId,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]Notification, 0, limit)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

func (db *PgRepository) CountUnreadNotifications(userId int) (int, error) {
	var count int
	err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read",
		userId,
	).Scan(&count)

	return count, err
}

// MarkNotificationRead returns sql.ErrNoRows when the notification does not
// exist or belongs to another user.
func (db *PgRepository) MarkNotificationRead(notificationId, userId int) error {
	res, err := db.conn.Exec(
		"UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2",
		notificationId,
		userId,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (db *PgRepository) MarkAllNotificationsRead(userId int) (int, error) {
	res, err := db.conn.Exec(
		"UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read",
		userId,
	)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	return int(n), err
}

// CreateReview stores the review and recomputes the reviewed user's rating
// in one transaction.
func (db *PgRepository) CreateReview(params CreateReviewParams) (Review, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Review{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	r := Review{
		OrderId:        params.OrderId,
		ReviewerId:     params.ReviewerId,
		ReviewedUserId: params.ReviewedUserId,
		Rating:         params.Rating,
		Comment:        params.Comment,
	}
	err = tx.QueryRow(
		"INSERT INTO reviews (order_id, reviewer_id, reviewed_user_id, rating, comment, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at",
		params.OrderId,
		params.ReviewerId,
		params.ReviewedUserId,
		params.Rating,
		params.Comment,
		time.Now().UTC(),
	).Scan(&r.Id, &r.CreatedAt)
	if err != nil {
		return Review{}, err
	}

	_, err = tx.Exec(
		"UPDATE users SET "+
			"rating = (SELECT AVG(rating) FROM reviews WHERE reviewed_user_id = $1), "+
			"review_count = (SELECT COUNT(*) FROM reviews WHERE reviewed_user_id = $1) "+
			"WHERE id = $1",
		params.ReviewedUserId,
	)
	if err != nil {
		return Review{}, err
	}

	if err = tx.Commit(); err != nil {
		return Review{}, err
	}

	return r, nil
}

func scanReview(row rowScanner) (Review, error) {
	var r Review
	err := row.Scan(
		&r.Id,
		&r.OrderId,
		&r.ReviewerId,
		&r.ReviewedUserId,
		&r.ReviewerName,
		&r.OrderTitle,
		&r.Rating,
		&r.Comment,
		&r.Reply,
		&r.CreatedAt,
		&r.UpdatedAt,
	)

	return r, err
}

func (db *PgRepository) ListReviewsForUser(userId, limit, offset int) ([]Review, error) {
	rows, err := db.conn.Query(
		"SELECT "+reviewColumns+" "+reviewJoins+" "+
			"WHERE r.reviewed_user_id = $1 ORDER BY r.created_at DESC, r.id DESC LIMIT $2 OFFSET $3",
		userId,
		limit,
		offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]Review, 0)
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, r)
	}

	return reviews, rows.Err()
}

func (db *PgRepository) GetReviewById(reviewId int) (Review, error) {
	return scanReview(db.conn.QueryRow(
		"SELECT "+reviewColumns+" "+reviewJoins+" WHERE r.id = $1",
		reviewId,
	))
}

// SetReviewReply stores the reviewed user's reply, replacing any earlier one.
func (db *PgRepository) SetReviewReply(reviewId int, reply string) (Review, error) {
	res, err := db.conn.Exec(
		"UPDATE reviews SET reply = $1, updated_at = $2 WHERE id = $3",
		reply,
		time.Now().UTC(),
		reviewId,
	)
	if err != nil {
		return Review{}, err
	}

	if n, err := res.RowsAffected(); err != nil {
		return Review{}, err
	} else if n == 0 {
		return Review{}, sql.ErrNoRows
	}

	return db.GetReviewById(reviewId)
}

// GetRatingSummary counts the reviews userId received per star rating.
func (db *PgRepository) GetRatingSummary(userId int) (RatingSummary, error) {
	rows, err := db.conn.Query(
		"SELECT rating, COUNT(*) FROM reviews WHERE reviewed_user_id = $1 GROUP BY rating",
		userId,
	)
	if err != nil {
		return RatingSummary{}, err
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var rating, n int
		if err := rows.Scan(&rating, &n); err != nil {
			return RatingSummary{}, fmt.Errorf("scan rating count: %w", err)
		}
		counts[rating] = n
	}
	if err := rows.Err(); err != nil {
		return RatingSummary{}, err
	}

	return NewRatingSummary(counts), nil
}

func (db *PgRepository) ReviewExists(orderId, reviewerId int) bool {
	var id int
	err := db.conn.QueryRow(
		"SELECT id FROM reviews WHERE order_id = $1 AND reviewer_id = $2 LIMIT 1",
		orderId,
		reviewerId,
	).Scan(&id)

	return err == nil
}
