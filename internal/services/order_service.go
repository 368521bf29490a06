package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/utils"
)

const notifyTimeout = 15 * time.Second

// OrderService places orders and drives the order status state machine.
type OrderService struct {
	db        *gorm.DB
	notifier  Notifier
	imageBase string
}

// NewOrderService constructs OrderService. notifier may be nil.
func NewOrderService(db *gorm.DB, notifier Notifier, imageBaseURL string) *OrderService {
	return &OrderService{db: db, notifier: notifier, imageBase: imageBaseURL}
}

// CartLine is one line of the client-submitted cart. Price is the unit price the
// client saw; it is stored as-is and never re-priced against the catalog.
type CartLine struct {
	ProductID uint            `json:"id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// CreateOrderInput is the checkout request.
type CreateOrderInput struct {
	Address     string
	PhoneNumber string
	Items       []CartLine
}

// OrderItemDetail is an order item joined with its product's current name and image.
type OrderItemDetail struct {
	ID           uint            `json:"id"`
	OrderID      uint            `json:"order_id"`
	ProductID    uint            `json:"product_id"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image"`
}

// OrderDetail is an order with its items.
type OrderDetail struct {
	Order models.Order      `json:"order"`
	Items []OrderItemDetail `json:"items"`
}

// MonthlyRevenue aggregates delivered orders of one calendar month.
type MonthlyRevenue struct {
	Year    int             `json:"year"`
	Month   int             `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

// DashboardStats holds the admin dashboard counters.
type DashboardStats struct {
	TotalUsers       int64            `json:"total_users"`
	TotalOrders      int64            `json:"total_orders"`
	ActiveProducts   int64            `json:"active_products"`
	OrdersByStatus   map[string]int64 `json:"orders_by_status"`
	DeliveredRevenue decimal.Decimal  `json:"delivered_revenue"`
}

// Create validates the cart and writes the order and its items in one transaction.
func (s *OrderService) Create(ctx context.Context, actor Actor, in CreateOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, Validation("cart is empty")
	}

	phone := strings.TrimSpace(in.PhoneNumber)
	if phone == "" {
		return nil, Validation("phone number is required")
	}

	items := make([]models.OrderItem, 0, len(in.Items))
	total := decimal.Zero
	for i, line := range in.Items {
		if line.ProductID == 0 {
			return nil, Validation("cart item %d has no product id", i+1)
		}
		if line.Quantity <= 0 {
			return nil, Validation("cart item %d must have a positive quantity", i+1)
		}
		if line.Price.IsNegative() {
			return nil, Validation("cart item %d has a negative price", i+1)
		}
		if !models.FitsMoneyScale(line.Price) {
			return nil, Validation("cart item %d price has more than %d decimal places", i+1, models.MoneyScale)
		}

		item := models.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.Price.Round(models.MoneyScale),
		}
		total = total.Add(item.LineTotal())
		items = append(items, item)
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, actor.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("user not found")
		}
		return nil, Internal(err, "failed to load user")
	}

	address := strings.TrimSpace(in.Address)
	if address == "" {
		address = strings.TrimSpace(user.Address)
	}
	if address == "" {
		return nil, Validation("delivery address is required")
	}

	order := models.Order{
		UserID:      user.ID,
		UserName:    user.Username,
		Address:     address,
		PhoneNumber: phone,
		TotalPrice:  total,
		Status:      models.OrderPending,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": actor.UserID,
			"items":   len(items),
			"error":   err.Error(),
		}).Error("order creation failed")
		return nil, Internal(err, "failed to create order")
	}
	order.Items = items

	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"total":    order.TotalPrice.String(),
		"items":    len(items),
	}).Info("order created")

	placed := OrderNotification{
		OrderID:     order.ID,
		UserName:    order.UserName,
		PhoneNumber: order.PhoneNumber,
		Address:     order.Address,
		TotalPrice:  order.TotalPrice,
	}
	for _, it := range items {
		placed.Items = append(placed.Items, OrderItemNotification{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}
	s.notify(func(ctx context.Context) error {
		return s.notifier.NotifyNewOrder(ctx, placed)
	})

	return &order, nil
}

// List returns every order for admins and only the caller's orders otherwise,
// newest first.
func (s *OrderService) List(ctx context.Context, actor Actor) ([]models.Order, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})
	if !actor.IsAdmin() {
		query = query.Where("user_id = ?", actor.UserID)
	}

	orders := []models.Order{}
	if err := query.Order("created_at desc").Order("id desc").Find(&orders).Error; err != nil {
		return nil, Internal(err, "failed to list orders")
	}
	return orders, nil
}

// Get returns the order with its items. A non-admin asking for another user's
// order gets NotFound so the order's existence is not revealed.
func (s *OrderService) Get(ctx context.Context, actor Actor, id uint) (*OrderDetail, error) {
	order, err := s.findVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	items := []OrderItemDetail{}
	if err := s.db.WithContext(ctx).
		Table("order_items").
		Select("order_items.id, order_items.order_id, order_items.product_id, order_items.quantity, order_items.price, "+
			"COALESCE(products.name, '') AS product_name, COALESCE(products.image, '') AS product_image").
		Joins("LEFT JOIN products ON products.id = order_items.product_id").
		Where("order_items.order_id = ?", order.ID).
		Order("order_items.id").
		Scan(&items).Error; err != nil {
		return nil, Internal(err, "failed to load order items")
	}

	for i := range items {
		items[i].ProductImage = utils.ResolveImageURL(s.imageBase, items[i].ProductImage)
	}

	return &OrderDetail{Order: *order, Items: items}, nil
}

// UpdateStatus applies an admin-requested status change.
func (s *OrderService) UpdateStatus(ctx context.Context, actor Actor, id uint, target models.OrderStatus) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, Forbidden("admin access required")
	}

	order, err := s.findVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := checkAdminTransition(order.Status, target); err != nil {
		return nil, err
	}

	return s.applyStatus(ctx, actor, order, target)
}

// Cancel lets a user cancel their own order while it is still pending.
// Admins cancelling other users' orders go through UpdateStatus.
func (s *OrderService) Cancel(ctx context.Context, actor Actor, id uint) (*models.Order, error) {
	order, err := s.findOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := checkSelfCancel(order.Status); err != nil {
		return nil, err
	}

	return s.applyStatus(ctx, actor, order, models.OrderCancelled)
}

// MonthlyRevenue sums delivered orders by calendar month (UTC) of their creation.
func (s *OrderService) MonthlyRevenue(ctx context.Context) ([]MonthlyRevenue, error) {
	var rows []models.Order
	if err := s.db.WithContext(ctx).
		Select("id", "created_at", "total_price").
		Where("status = ?", models.OrderDelivered).
		Find(&rows).Error; err != nil {
		return nil, Internal(err, "failed to load delivered orders")
	}

	type monthKey struct{ year, month int }
	buckets := make(map[monthKey]*MonthlyRevenue)
	for _, o := range rows {
		created := o.CreatedAt.UTC()
		key := monthKey{created.Year(), int(created.Month())}
		bucket, ok := buckets[key]
		if !ok {
			bucket = &MonthlyRevenue{Year: key.year, Month: key.month, Revenue: decimal.Zero}
			buckets[key] = bucket
		}
		bucket.Revenue = bucket.Revenue.Add(o.TotalPrice)
		bucket.Orders++
	}

	result := make([]MonthlyRevenue, 0, len(buckets))
	for _, b := range buckets {
		result = append(result, *b)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Year != result[j].Year {
			return result[i].Year < result[j].Year
		}
		return result[i].Month < result[j].Month
	})
	return result, nil
}

// Stats returns aggregate counters for the admin dashboard.
func (s *OrderService) Stats(ctx context.Context) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	stats := &DashboardStats{OrdersByStatus: map[string]int64{}}

	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, Internal(err, "failed to count users")
	}
	if err := db.Model(&models.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, Internal(err, "failed to count orders")
	}
	if err := db.Model(&models.Product{}).Where("status = ?", models.ProductActive).
		Count(&stats.ActiveProducts).Error; err != nil {
		return nil, Internal(err, "failed to count products")
	}

	type statusCount struct {
		Status models.OrderStatus
		Count  int64
	}
	var statusCounts []statusCount
	if err := db.Model(&models.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, Internal(err, "failed to group orders")
	}
	for _, sc := range statusCounts {
		stats.OrdersByStatus[sc.Status.String()] = sc.Count
	}

	if err := db.Model(&models.Order{}).
		Select("COALESCE(SUM(total_price), 0)").
		Where("status = ?", models.OrderDelivered).
		Row().Scan(&stats.DeliveredRevenue); err != nil {
		return nil, Internal(err, "failed to sum revenue")
	}

	return stats, nil
}

func (s *OrderService) findVisible(ctx context.Context, actor Actor, id uint) (*models.Order, error) {
	query := s.db.WithContext(ctx).Where("id = ?", id)
	if !actor.IsAdmin() {
		query = query.Where("user_id = ?", actor.UserID)
	}
	return findOrder(query)
}

func (s *OrderService) findOwned(ctx context.Context, actor Actor, id uint) (*models.Order, error) {
	return findOrder(s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, actor.UserID))
}

func findOrder(query *gorm.DB) (*models.Order, error) {
	var order models.Order
	if err := query.First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("order not found")
		}
		return nil, Internal(err, "failed to load order")
	}
	return &order, nil
}

func (s *OrderService) applyStatus(ctx context.Context, actor Actor, order *models.Order, target models.OrderStatus) (*models.Order, error) {
	from := order.Status
	if err := s.db.WithContext(ctx).Model(order).Update("status", target).Error; err != nil {
		return nil, Internal(err, "failed to update order status")
	}
	order.Status = target

	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,
		"from":     from.String(),
		"to":       target.String(),
		"actor_id": actor.UserID,
	}).Info("order status changed")

	change := StatusNotification{
		OrderID: order.ID,
		From:    from.String(),
		To:      target.String(),
		ActorID: actor.UserID,
	}
	s.notify(func(ctx context.Context) error {
		return s.notifier.NotifyStatusChange(ctx, change)
	})

	return order, nil
}

// notify runs fn in the background; failures are logged and never reach the caller.
func (s *OrderService) notify(fn func(ctx context.Context) error) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			logrus.WithError(err).Warn("admin notification failed")
		}
	}()
}
