package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const telegramAPIBase = "https://api.telegram.org"

// Notifier receives order events for the shop admins.
type Notifier interface {
	NotifyNewOrder(ctx context.Context, order OrderNotification) error
	NotifyStatusChange(ctx context.Context, change StatusNotification) error
}

// TelegramService handles sending notifications to Telegram.
type TelegramService struct {
	botToken    string
	adminChatID string
	apiBase     string
	client      *http.Client
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		apiBase:     telegramAPIBase,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// WithAPIBase points the service at a different Bot API host.
func (s *TelegramService) WithAPIBase(base string) *TelegramService {
	s.apiBase = strings.TrimRight(base, "/")
	return s
}

// Enabled reports whether both the bot token and the admin chat are configured.
func (s *TelegramService) Enabled() bool {
	return s.botToken != "" && s.adminChatID != ""
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage posts text to the given chat.
func (s *TelegramService) SendMessage(ctx context.Context, chatID, text string) error {
	if s.botToken == "" {
		logrus.Debug("telegram bot token not configured, skipping message")
		return nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.botToken)

	body, err := json.Marshal(telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(ctx context.Context, text string) error {
	if s.adminChatID == "" {
		logrus.Debug("telegram admin chat not configured, skipping message")
		return nil
	}
	return s.SendMessage(ctx, s.adminChatID, text)
}

// OrderNotification contains order data for a new-order message.
type OrderNotification struct {
	OrderID     uint
	UserName    string
	PhoneNumber string
	Address     string
	Items       []OrderItemNotification
	TotalPrice  decimal.Decimal
}

// OrderItemNotification contains order item data.
type OrderItemNotification struct {
	ProductID uint
	Quantity  int
	Price     decimal.Decimal
}

// StatusNotification describes an applied status transition.
type StatusNotification struct {
	OrderID uint
	From    string
	To      string
	ActorID uint
}

// FormatPrice formats an amount with two decimals and thousand separators.
func FormatPrice(amount decimal.Decimal) string {
	fixed := amount.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var result strings.Builder
	if amount.IsNegative() {
		result.WriteByte('-')
	}
	length := len(intPart)
	for i, digit := range intPart {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}

	return result.String() + "." + frac
}

// NotifyNewOrder sends notification about new order to admin chat.
func (s *TelegramService) NotifyNewOrder(ctx context.Context, order OrderNotification) error {
	if !s.Enabled() {
		return nil
	}

	var itemsList strings.Builder
	for i, item := range order.Items {
		lineTotal := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		itemsList.WriteString(fmt.Sprintf("%d. product #%d\n   %d x %s = %s\n",
			i+1,
			item.ProductID,
			item.Quantity,
			FormatPrice(item.Price),
			FormatPrice(lineTotal),
		))
	}

	message := fmt.Sprintf(`<b>New order #%d</b>
<b>Customer:</b> %s
<b>Phone:</b> %s
<b>Address:</b> %s
<b>Items:</b>
%s
<b>Total:</b> %s`,
		order.OrderID,
		html.EscapeString(order.UserName),
		html.EscapeString(order.PhoneNumber),
		html.EscapeString(order.Address),
		itemsList.String(),
		FormatPrice(order.TotalPrice),
	)

	return s.SendToAdmin(ctx, strings.TrimSpace(message))
}

// NotifyStatusChange sends notification about an order status change.
func (s *TelegramService) NotifyStatusChange(ctx context.Context, change StatusNotification) error {
	if !s.Enabled() {
		return nil
	}

	message := fmt.Sprintf("<b>Order #%d</b>: %s → %s (by user #%d)",
		change.OrderID, change.From, change.To, change.ActorID)
	return s.SendToAdmin(ctx, message)
}
