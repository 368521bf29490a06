package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/testutil"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestCreateOrderComputesTotalAndSnapshots(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewOrderService(db, nil, testImageBase)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice", models.RoleCustomer)
	p1 := testutil.CreateProduct(t, db, "mug", "12.00", nil)
	p2 := testutil.CreateProduct(t, db, "tea", "7.00", nil)

	order, err := svc.Create(ctx, actorFor(alice), CreateOrderInput{
		PhoneNumber: "555-0101",
		Items: []CartLine{
			{ProductID: p1.ID, Quantity: 2, Price: dec("10")},
			{ProductID: p2.ID, Quantity: 1, Price: dec("5")},
		},
	})
	require.NoError(t, err)

	assert.True(t, order.TotalPrice.Equal(dec("25")), "total %s", order.TotalPrice)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, "alice", order.UserName)
	assert.Equal(t, alice.Address, order.Address, "address falls back to the profile")
	assert.EqualValues(t, 1, countRows(t, db, &models.Order{}))
	assert.EqualValues(t, 2, countRows(t, db, &models.OrderItem{}))

	var items []models.OrderItem
	require.NoError(t, db.Where("order_id = ?", order.ID).Order("id").Find(&items).Error)
	require.Len(t, items, 2)
	assert.True(t, items[0].Price.Equal(dec("10")), "client price is stored, not the catalog price")
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, items[1].Price.Equal(dec("5")))
}

func TestCreateOrderValidation(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewOrderService(db, nil, testImageBase)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice", models.RoleCustomer)
	homeless := testutil.CreateUser(t, db, "bob", models.RoleCustomer)
	require.NoError(t, db.Model(homeless).Update("address", "").Error)
	p := testutil.CreateProduct(t, db, "mug", "12.00", nil)
	line := []CartLine{{ProductID: p.ID, Quantity: 1, Price: dec("12")}}

	cases := []struct {
		name  string
		actor Actor
		in    CreateOrderInput
	}{
		{"empty cart", actorFor(alice), CreateOrderInput{PhoneNumber: "1"}},
		{"missing phone", actorFor(alice), CreateOrderInput{Items: line}},
		{"blank phone", actorFor(alice), CreateOrderInput{PhoneNumber: "   ", Items: line}},
		{"no address anywhere", actorFor(homeless), CreateOrderInput{PhoneNumber: "1", Items: line}},
		{"zero quantity", actorFor(alice), CreateOrderInput{PhoneNumber: "1", Items: []CartLine{{ProductID: p.ID, Quantity: 0, Price: dec("1")}}}},
		{"negative price", actorFor(alice), CreateOrderInput{PhoneNumber: "1", Items: []CartLine{{ProductID: p.ID, Quantity: 1, Price: dec("-1")}}}},
		{"missing product id", actorFor(alice), CreateOrderInput{PhoneNumber: "1", Items: []CartLine{{Quantity: 1, Price: dec("1")}}}},
		{"sub-cent price", actorFor(alice), CreateOrderInput{PhoneNumber: "1", Items: []CartLine{{ProductID: p.ID, Quantity: 3, Price: dec("0.333")}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.actor, tc.in)
			assert.True(t, IsKind(err, KindValidation), "got %v", err)
		})
	}

	assert.Zero(t, countRows(t, db, &models.Order{}))
	assert.Zero(t, countRows(t, db, &models.OrderItem{}))
}

func TestCreateOrderTotalMatchesStoredLines(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewOrderService(db, nil, testImageBase)

	alice := testutil.CreateUser(t, db, "alice", models.RoleCustomer)
	mug := testutil.CreateProduct(t, db, "mug", "0.33", nil)
	tea := testutil.CreateProduct(t, db, "tea", "1.10", nil)

	order, err := svc.Create(context.Background(), actorFor(alice), CreateOrderInput{
		PhoneNumber: "555",
		Items: []CartLine{
			{ProductID: mug.ID, Quantity: 3, Price: dec("0.33")},
			{ProductID: tea.ID, Quantity: 7, Price: dec("1.100")},
		},
	})
	require.NoError(t, err)

	var stored models.Order
	require.NoError(t, db.First(&stored, order.ID).Error)
	var items []models.OrderItem
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&items).Error)
	require.Len(t, items, 2)

	sum := decimal.Zero
	for _, item := range items {
		assert.True(t, models.FitsMoneyScale(item.Price), "price %s", item.Price)
		sum = sum.Add(item.LineTotal())
	}
	assert.True(t, stored.TotalPrice.Equal(sum), "total %s, lines %s", stored.TotalPrice, sum)
	assert.True(t, stored.TotalPrice.Equal(dec("8.69")), "total %s", stored.TotalPrice)
}

func TestCreateOrderUsesExplicitAddress(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewOrderService(db, nil, testImageBase)

	alice := testutil.CreateUser(t, db, "alice", models.RoleCustomer)
	p := testutil.CreateProduct(t, db, "mug", "12.00", nil)

	order, err := svc.Create(context.Background(), actorFor(alice), CreateOrderInput{
		Address:     "  42 Office Park  ",
		PhoneNumber: "555",
		Items:       []CartLine{{ProductID: p.ID, Quantity: 1, Price: dec("12")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "42 Office Park", order.Address)
}

func TestCreateOrderRollsBackWhenItemsFail(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewOrderService(db, nil, testImageBase)

	alice := testutil.CreateUser(t, db, "alice", models.RoleCustomer)
	p := testutil.CreateProduct(t, db, "mug", "12.00", nil)

	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_order_items", func(tx *gorm.DB) {
		if tx.Statement.Table == "order_items" {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	_, err := svc.Create(context.Background(), actorFor(alice), CreateOrderInput{
		PhoneNumber: "555",
		Items:       []CartLine{{ProductID: p.ID, Quantity: 1, Price: dec("12")}},
	})
	require.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err))

	assert.Zero(t, countRows(t, db, &models.Order{}), "order row must be rolled back with its items")
	assert.Zero(t, countRows(t, db, &models.OrderItem{}))
}

func TestCreateOrderUnknownUser(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewOrderService(db, nil, testImageBase)
	p := testutil.CreateProduct(t, db, "mug", "12.00", nil)

	_, err := svc.Create(context.Background(), Actor{UserID: 999}, CreateOrderInput{
		PhoneNumber: "555",
		Items:       []CartLine{{ProductID: p.ID, Quantity: 1, Price: dec("12")}},
	})
	assert.True(t, IsKind(err, KindNotFound))
}

func TestCreateOrderNotifiesAdmins(t *testing.T) {
	db := testutil.NewDB(t)
	notifier := newRecordingNotifier()
	svc := NewOrderService(db, notifier, testImageBase)

	alice := testutil.CreateUser(t, db, "alice", models.RoleCustomer)
	p := testutil.CreateProduct(t, db, "mug", "12.00", nil)

	order, err := svc.Create(context.Background(), actorFor(alice), CreateOrderInput{
		PhoneNumber: "555",
		Items:       []CartLine{{ProductID: p.ID, Quantity: 3, Price: dec("2.50")}},
	})
	require.NoError(t, err)

	select {
	case <-notifier.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("notification not sent")
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	require.Len(t, notifier.orders, 1)
	assert.Equal(t, order.ID, notifier.orders[0].OrderID)
	assert.True(t, notifier.orders[0].TotalPrice.Equal(dec("7.50")))
	require.Len(t, notifier.orders[0].Items, 1)
	assert.Equal(t, 3, notifier.orders[0].Items[0].Quantity)
}

func TestListOrdersIsRoleScoped(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewOrderService(db, nil, testImageBase)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice", models.RoleCustomer)
	bob := testutil.CreateUser(t, db, "bob", models.RoleCustomer)
	admin := testutil.CreateUser(t, db, "root", models.RoleAdmin)
	p := testutil.CreateProduct(t, db, "mug", "12.00", nil)

	a1 := testutil.CreateOrder(t, db, alice, models.OrderPending, p)
	testutil.CreateOrder(t, db, bob, models.OrderPending, p)
	a2 := testutil.CreateOrder(t, db, alice, models.OrderDelivered, p)

	orders, err := svc.List(ctx, actorFor(alice))
	require.NoError(t, err)
	require.Len(t, orders, 2)
	for _, o := range orders {
		assert.Equal(t, alice.ID, o.UserID)
	}
	assert.Equal(t, a2.ID, orders[0].ID, "newest first")
	assert.Equal(t, a1.ID, orders[1].ID)

	all, err := svc.List(ctx, actorFor(admin))
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGetOrderDetail(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewOrderService(db, nil, testImageBase)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice", models.RoleCustomer)
	bob := testutil.CreateUser(t, db, "bob", models.RoleCustomer)
	admin := testutil.CreateUser(t, db, "root", models.RoleAdmin)
	p := testutil.CreateProduct(t, db, "mug", "12.00", nil)
	remote := testutil.CreateProduct(t, db, "poster", "3.00", nil)
	require.NoError(t, db.Model(remote).Update("image", "https://cdn.example.com/poster.png").Error)

	order := testutil.CreateOrder(t, db, alice, models.OrderPending, p, remote)

	detail, err := svc.Get(ctx, actorFor(alice), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, detail.Order.ID)
	require.Len(t, detail.Items, 2)
	assert.Equal(t, "mug", detail.Items[0].ProductName)
	assert.Equal(t, testImageBase+"/uploads/mug.jpg", detail.Items[0].ProductImage)
	assert.Equal(t, "https://cdn.example.com/poster.png", detail.Items[1].ProductImage)

	_, err = svc.Get(ctx, actorFor(bob), order.ID)
	assert.True(t, IsKind(err, KindNotFound), "cross-tenant lookups look like missing orders, got %v", err)

	_, err = svc.Get(ctx, actorFor(admin), order.ID)
	assert.NoError(t, err)

	_, err = svc.Get(ctx, actorFor(alice), 9999)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestOrderPricesAreFrozen(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewOrderService(db, nil, testImageBase)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice", models.RoleCustomer)
	p := testutil.CreateProduct(t, db, "mug", "12.00", nil)

	order, err := svc.Create(ctx, actorFor(alice), CreateOrderInput{
		PhoneNumber: "555",
		Items:       []CartLine{{ProductID: p.ID, Quantity: 2, Price: dec("12")}},
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(p).Update("price", dec("99")).Error)

	detail, err := svc.Get(ctx, actorFor(alice), order.ID)
	require.NoError(t, err)
	assert.True(t, detail.Order.TotalPrice.Equal(dec("24")))
	assert.True(t, detail.Items[0].Price.Equal(dec("12")))
}

func TestStatusTransitions(t *testing.T) {
	db := testutil.NewDB(t)
	notifier := newRecordingNotifier()
	svc := NewOrderService(db, notifier, testImageBase)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice", models.RoleCustomer)
	admin := testutil.CreateUser(t, db, "root", models.RoleAdmin)
	p := testutil.CreateProduct(t, db, "mug", "12.00", nil)

	t.Run("pending to shipping to delivered", func(t *testing.T) {
		order := testutil.CreateOrder(t, db, alice, models.OrderPending, p)

		updated, err := svc.UpdateStatus(ctx, actorFor(admin), order.ID, models.OrderShipping)
		require.NoError(t, err)
		assert.Equal(t, models.OrderShipping, updated.Status)

		updated, err = svc.UpdateStatus(ctx, actorFor(admin), order.ID, models.OrderDelivered)
		require.NoError(t, err)
		assert.Equal(t, models.OrderDelivered, updated.Status)

		var stored models.Order
		require.NoError(t, db.First(&stored, order.ID).Error)
		assert.Equal(t, models.OrderDelivered, stored.Status)
	})

	t.Run("delivered only admits cancel", func(t *testing.T) {
		order := testutil.CreateOrder(t, db, alice, models.OrderDelivered, p)

		for _, target := range []models.OrderStatus{models.OrderPending, models.OrderShipping, models.OrderDelivered} {
			_, err := svc.UpdateStatus(ctx, actorFor(admin), order.ID, target)
			assert.True(t, IsKind(err, KindConflict), "target %s: %v", target, err)
		}

		updated, err := svc.UpdateStatus(ctx, actorFor(admin), order.ID, models.OrderCancelled)
		require.NoError(t, err)
		assert.Equal(t, models.OrderCancelled, updated.Status)
	})

	t.Run("cancelled is terminal", func(t *testing.T) {
		order := testutil.CreateOrder(t, db, alice, models.OrderCancelled, p)
		for _, target := range []models.OrderStatus{models.OrderPending, models.OrderShipping, models.OrderDelivered, models.OrderCancelled} {
			_, err := svc.UpdateStatus(ctx, actorFor(admin), order.ID, target)
			assert.True(t, IsKind(err, KindConflict), "target %s: %v", target, err)
		}
		_, err := svc.Cancel(ctx, actorFor(alice), order.ID)
		assert.True(t, IsKind(err, KindConflict))
	})

	t.Run("shipping can be cancelled by admin", func(t *testing.T) {
		order := testutil.CreateOrder(t, db, alice, models.OrderShipping, p)
		updated, err := svc.UpdateStatus(ctx, actorFor(admin), order.ID, models.OrderCancelled)
		require.NoError(t, err)
		assert.Equal(t, models.OrderCancelled, updated.Status)
	})

	t.Run("unknown target", func(t *testing.T) {
		order := testutil.CreateOrder(t, db, alice, models.OrderPending, p)
		_, err := svc.UpdateStatus(ctx, actorFor(admin), order.ID, models.OrderStatus(4))
		assert.True(t, IsKind(err, KindValidation))
	})

	t.Run("customers cannot use the admin transition", func(t *testing.T) {
		order := testutil.CreateOrder(t, db, alice, models.OrderPending, p)
		_, err := svc.UpdateStatus(ctx, actorFor(alice), order.ID, models.OrderShipping)
		assert.True(t, IsKind(err, KindAuthorization))
	})

	t.Run("missing order", func(t *testing.T) {
		_, err := svc.UpdateStatus(ctx, actorFor(admin), 424242, models.OrderShipping)
		assert.True(t, IsKind(err, KindNotFound))
	})
}

func TestSelfCancel(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewOrderService(db, nil, testImageBase)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice", models.RoleCustomer)
	bob := testutil.CreateUser(t, db, "bob", models.RoleCustomer)
	admin := testutil.CreateUser(t, db, "root", models.RoleAdmin)
	p := testutil.CreateProduct(t, db, "mug", "12.00", nil)

	pending := testutil.CreateOrder(t, db, alice, models.OrderPending, p)
	_, err := svc.Cancel(ctx, actorFor(admin), pending.ID)
	assert.True(t, IsKind(err, KindNotFound), "admins cancel other users' orders through UpdateStatus")

	updated, err := svc.Cancel(ctx, actorFor(alice), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, updated.Status)

	own := testutil.CreateOrder(t, db, admin, models.OrderPending, p)
	_, err = svc.Cancel(ctx, actorFor(admin), own.ID)
	require.NoError(t, err)

	shipping := testutil.CreateOrder(t, db, alice, models.OrderShipping, p)
	_, err = svc.Cancel(ctx, actorFor(alice), shipping.ID)
	require.True(t, IsKind(err, KindConflict))
	assert.Contains(t, err.Error(), "already processed")

	delivered := testutil.CreateOrder(t, db, alice, models.OrderDelivered, p)
	_, err = svc.Cancel(ctx, actorFor(alice), delivered.ID)
	assert.True(t, IsKind(err, KindConflict))

	other := testutil.CreateOrder(t, db, alice, models.OrderPending, p)
	_, err = svc.Cancel(ctx, actorFor(bob), other.ID)
	assert.True(t, IsKind(err, KindNotFound))

	var stored models.Order
	require.NoError(t, db.First(&stored, other.ID).Error)
	assert.Equal(t, models.OrderPending, stored.Status)
}

func TestStatusChangeNotifies(t *testing.T) {
	db := testutil.NewDB(t)
	notifier := newRecordingNotifier()
	svc := NewOrderService(db, notifier, testImageBase)

	alice := testutil.CreateUser(t, db, "alice", models.RoleCustomer)
	admin := testutil.CreateUser(t, db, "root", models.RoleAdmin)
	p := testutil.CreateProduct(t, db, "mug", "12.00", nil)
	order := testutil.CreateOrder(t, db, alice, models.OrderPending, p)

	_, err := svc.UpdateStatus(context.Background(), actorFor(admin), order.ID, models.OrderShipping)
	require.NoError(t, err)

	select {
	case <-notifier.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("notification not sent")
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	require.Len(t, notifier.changes, 1)
	assert.Equal(t, StatusNotification{OrderID: order.ID, From: "pending", To: "shipping", ActorID: admin.ID}, notifier.changes[0])
}

func TestMonthlyRevenueCountsDeliveredOnly(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewOrderService(db, nil, testImageBase)
	alice := testutil.CreateUser(t, db, "alice", models.RoleCustomer)

	insert := func(status models.OrderStatus, total string, at time.Time) {
		require.NoError(t, db.Create(&models.Order{
			UserID: alice.ID, UserName: "alice", Address: "a", PhoneNumber: "1",
			TotalPrice: dec(total), Status: status, CreatedAt: at,
		}).Error)
	}

	jan := time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)
	feb := time.Date(2024, time.February, 3, 9, 0, 0, 0, time.UTC)
	dec2023 := time.Date(2023, time.December, 31, 10, 0, 0, 0, time.UTC)

	insert(models.OrderDelivered, "10.50", jan)
	insert(models.OrderDelivered, "4.50", jan.Add(24*time.Hour))
	insert(models.OrderDelivered, "100", feb)
	insert(models.OrderDelivered, "1", dec2023)
	insert(models.OrderPending, "1000", jan)
	insert(models.OrderShipping, "1000", feb)
	insert(models.OrderCancelled, "1000", feb)

	revenue, err := svc.MonthlyRevenue(context.Background())
	require.NoError(t, err)
	require.Len(t, revenue, 3)

	assert.Equal(t, 2023, revenue[0].Year)
	assert.Equal(t, 12, revenue[0].Month)
	assert.True(t, revenue[0].Revenue.Equal(dec("1")))

	assert.Equal(t, 2024, revenue[1].Year)
	assert.Equal(t, 1, revenue[1].Month)
	assert.True(t, revenue[1].Revenue.Equal(dec("15")), "got %s", revenue[1].Revenue)
	assert.Equal(t, 2, revenue[1].Orders)

	assert.Equal(t, 2, revenue[2].Month)
	assert.True(t, revenue[2].Revenue.Equal(dec("100")))
	assert.Equal(t, 1, revenue[2].Orders)
}

func TestDashboardStats(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewOrderService(db, nil, testImageBase)

	alice := testutil.CreateUser(t, db, "alice", models.RoleCustomer)
	testutil.CreateUser(t, db, "root", models.RoleAdmin)
	p := testutil.CreateProduct(t, db, "mug", "12.00", nil)
	hidden := testutil.CreateProduct(t, db, "old", "1.00", nil)
	require.NoError(t, db.Model(hidden).Update("status", models.ProductHidden).Error)

	testutil.CreateOrder(t, db, alice, models.OrderDelivered, p)
	testutil.CreateOrder(t, db, alice, models.OrderDelivered, p)
	testutil.CreateOrder(t, db, alice, models.OrderPending, p)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalUsers)
	assert.EqualValues(t, 3, stats.TotalOrders)
	assert.EqualValues(t, 1, stats.ActiveProducts)
	assert.EqualValues(t, 2, stats.OrdersByStatus["delivered"])
	assert.EqualValues(t, 1, stats.OrdersByStatus["pending"])
	assert.True(t, stats.DeliveredRevenue.Equal(dec("24")), "got %s", stats.DeliveredRevenue)
}
