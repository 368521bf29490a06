package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPrice(t *testing.T) {
	cases := map[string]string{
		"0":        "0.00",
		"12.5":     "12.50",
		"1234.5":   "1,234.50",
		"1234567":  "1,234,567.00",
		"-9876.25": "-9,876.25",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatPrice(dec(in)), in)
	}
}

func TestTelegramNotifyNewOrder(t *testing.T) {
	var got telegramMessage
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tg := NewTelegramService("token", "42").WithAPIBase(srv.URL)
	err := tg.NotifyNewOrder(context.Background(), OrderNotification{
		OrderID:     7,
		UserName:    "alice <admin>",
		PhoneNumber: "555",
		Address:     "Smith & Sons, 1 alice street",
		Items:       []OrderItemNotification{{ProductID: 3, Quantity: 2, Price: dec("1000")}},
		TotalPrice:  dec("2000"),
	})
	require.NoError(t, err)

	assert.Equal(t, "/bottoken/sendMessage", path)
	assert.Equal(t, "42", got.ChatID)
	assert.Equal(t, "HTML", got.ParseMode)
	assert.Contains(t, got.Text, "New order #7")
	assert.Contains(t, got.Text, "2 x 1,000.00 = 2,000.00")
	assert.Contains(t, got.Text, "alice &lt;admin&gt;")
	assert.Contains(t, got.Text, "Smith &amp; Sons, 1 alice street")
	assert.NotContains(t, got.Text, "<admin>")
}

func TestTelegramReportsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tg := NewTelegramService("token", "42").WithAPIBase(srv.URL)
	err := tg.NotifyStatusChange(context.Background(), StatusNotification{OrderID: 1, From: "pending", To: "shipping"})
	assert.Error(t, err)
}

func TestTelegramDisabledIsNoop(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	tg := NewTelegramService("", "").WithAPIBase(srv.URL)
	assert.False(t, tg.Enabled())
	require.NoError(t, tg.NotifyNewOrder(context.Background(), OrderNotification{OrderID: 1}))
	assert.False(t, called)
}
