package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
)

const testImageBase = "https://shop.example.com"

func actorFor(u *models.User) Actor {
	return Actor{UserID: u.ID, Role: u.Role}
}

// insertFirst runs query inside the next insert into table, just before that
// insert, so the row written by query wins the race for any unique index.
func insertFirst(t *testing.T, db *gorm.DB, table, query string, args ...interface{}) {
	t.Helper()

	fired := false
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:insert_first_"+table, func(tx *gorm.DB) {
		if fired || tx.Statement.Table != table {
			return
		}
		fired = true
		if _, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context, query, args...); err != nil {
			_ = tx.AddError(err)
		}
	}))
}

// recordingNotifier collects notifications sent by the order service.
type recordingNotifier struct {
	mu      sync.Mutex
	orders  []OrderNotification
	changes []StatusNotification
	sent    chan struct{}
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{sent: make(chan struct{}, 16)}
}

func (n *recordingNotifier) NotifyNewOrder(_ context.Context, order OrderNotification) error {
	n.mu.Lock()
	n.orders = append(n.orders, order)
	n.mu.Unlock()
	n.sent <- struct{}{}
	return nil
}

func (n *recordingNotifier) NotifyStatusChange(_ context.Context, change StatusNotification) error {
	n.mu.Lock()
	n.changes = append(n.changes, change)
	n.mu.Unlock()
	n.sent <- struct{}{}
	return nil
}
