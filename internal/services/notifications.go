package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/sehaty-api/internal/apperrors"
	"github.com/harentsoaR/sehaty-api/internal/models"
	"github.com/harentsoaR/sehaty-api/internal/store"
)

// NotificationListLimit caps how many notifications a list call returns.
const NotificationListLimit = 20

const textbeltURL = "https://textbelt.com/text"

// SMSSender delivers a text message copy of a notification.
type SMSSender interface {
	Send(phone, message string)
}

// TextbeltSender posts to the Textbelt API. Sending happens in a goroutine
// so it never blocks the API response.
type TextbeltSender struct {
	key      string
	endpoint string
	client   *http.Client
	log      zerolog.Logger
}

func NewTextbeltSender(key string, log zerolog.Logger) *TextbeltSender {
	return &TextbeltSender{
		key:      key,
		endpoint: textbeltURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log.With().Str("component", "sms").Logger(),
	}
}

func (s *TextbeltSender) Send(phone, message string) {
	go func() {
		if err := s.send(phone, message); err != nil {
			s.log.Warn().Err(err).Str("phone", phone).Msg("sms not sent")
		}
	}()
}

func (s *TextbeltSender) send(phone, message string) error {
	postBody, err := json.Marshal(map[string]string{
		"phone":   phone,
		"message": message,
		"key":     s.key,
	})
	if err != nil {
		return err
	}

	resp, err := s.client.Post(s.endpoint, "application/json", bytes.NewReader(postBody))
	if err != nil {
		return fmt.Errorf("textbelt request: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("textbelt response: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("textbelt rejected message: %s", result.Error)
	}
	s.log.Debug().Str("phone", phone).Msg("sms sent")
	return nil
}

// NotificationService persists per-user notifications and, when an SMS
// sender is configured, forwards a text copy to recipients with a phone.
type NotificationService struct {
	repo  store.NotificationRepository
	users store.UserRepository
	sms   SMSSender
	log   zerolog.Logger
	now   func() time.Time
}

func NewNotificationService(st *store.Store, sms SMSSender, log zerolog.Logger) *NotificationService {
	return &NotificationService{
		repo:  st.Notifications,
		users: st.Users,
		sms:   sms,
		log:   log,
		now:   time.Now,
	}
}

// Notify stores a notification for recipient.
func (s *NotificationService) Notify(ctx context.Context, recipient *models.User, kind, title, message string, relatedID primitive.ObjectID) (*models.Notification, error) {
	n := &models.Notification{
		UserID:    recipient.ID,
		Type:      kind,
		Title:     title,
		Message:   message,
		RelatedID: relatedID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	if s.sms != nil && recipient.Phone != "" {
		s.sms.Send(recipient.Phone, title+": "+message)
	}
	return n, nil
}

// NotifyUser is Notify for callers that only hold the recipient id.
func (s *NotificationService) NotifyUser(ctx context.Context, userID primitive.ObjectID, kind, title, message string, relatedID primitive.ObjectID) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("find recipient: %w", err)
	}
	_, err = s.Notify(ctx, u, kind, title, message, relatedID)
	return err
}

func (s *NotificationService) List(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	return s.repo.ListByUser(ctx, userID, NotificationListLimit)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

// MarkRead flips one notification to read. Marking an already read
// notification succeeds and leaves it read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id primitive.ObjectID) (*models.Notification, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, apperrors.ErrForbidden
	}
	if !n.Read {
		if err := s.repo.MarkRead(ctx, id); err != nil {
			return nil, err
		}
		n.Read = true
	}
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}
