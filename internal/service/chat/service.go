package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spark-dating/spark-core/internal/app"
	"github.com/spark-dating/spark-core/internal/db"
	"github.com/spark-dating/spark-core/internal/domain"
	"github.com/spark-dating/spark-core/internal/repository"
	"github.com/spark-dating/spark-core/internal/service/authz"
	"github.com/spark-dating/spark-core/internal/service/vip"
)

// Send rejection reasons.
const (
	ReasonEmpty   = "empty"
	ReasonLink    = "link"
	ReasonPrivacy = "privacy"
)

// Realtime event types published on a match's channel.
const (
	EventMessageNew   = "message_new"
	EventMessagesRead = "messages_read"
)

// Event is one realtime chat event. For EventMessageNew the Message field is
// set; for EventMessagesRead, ReaderID and Count.
type Event struct {
	Type     string      `json:"type"`
	MatchID  string      `json:"match_id"`
	Message  *db.Message `json:"message,omitempty"`
	ReaderID string      `json:"reader_id,omitempty"`
	Count    int64       `json:"count,omitempty"`
}

// SendResult reports one send attempt. Rejections carry a reason; the
// message is set only on success.
type SendResult struct {
	Success bool
	Reason  string
	Message *db.Message
}

// Service handles chat inside matches: sends with content filtering and
// privacy gating, history pages, read sweeps and the realtime event stream.
type Service struct {
	appCtx   *app.AppContext
	profiles *repository.ProfileRepository
	matches  *repository.MatchRepository
	messages *repository.MessageRepository
}

// NewService creates a chat service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		profiles: repository.NewProfileRepository(appCtx.DB),
		matches:  repository.NewMatchRepository(appCtx.DB),
		messages: repository.NewMessageRepository(appCtx.DB),
	}
}

// Send stores a message in the match and fans it out to subscribers.
//
// Rejections happen before anything is written: blank content, the link
// filter, then the recipient's privacy gate. Privacy settings only bind
// while the recipient's VIP is active; lapsed VIP reverts to accepting
// messages from matches.
func (s *Service) Send(ctx context.Context, senderID, matchID, content string) (SendResult, error) {
	if err := authz.RequireActor(senderID); err != nil {
		return SendResult{}, err
	}

	m, err := s.requireMember(ctx, matchID, senderID)
	if err != nil {
		return SendResult{}, err
	}

	content = NormalizeContent(content)
	if content == "" {
		return s.reject(senderID, matchID, ReasonEmpty), nil
	}
	if ContainsLink(content) {
		return s.reject(senderID, matchID, ReasonLink), nil
	}

	lo, hi := m.Members()
	recipientID := lo
	if senderID == lo {
		recipientID = hi
	}
	allowed, err := s.recipientAccepts(ctx, recipientID)
	if err != nil {
		return SendResult{}, err
	}
	if !allowed {
		return s.reject(senderID, matchID, ReasonPrivacy), nil
	}

	msg := &db.Message{
		MatchID:  matchID,
		SenderID: senderID,
		Content:  content,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return SendResult{}, err
	}
	if err := s.matches.TouchLastMessage(ctx, matchID, msg.CreatedAt); err != nil {
		s.appCtx.Logger.Warn("last-message bump failed", "match", matchID, "error", err)
	}

	s.publish(ctx, Event{Type: EventMessageNew, MatchID: matchID, Message: msg})
	s.appCtx.Metrics.MessagesTotal.WithLabelValues("sent").Inc()
	return SendResult{Success: true, Message: msg}, nil
}

// recipientAccepts evaluates the recipient's message privacy. Inside a match
// only the "none" mode blocks; "matched_only" is satisfied by construction.
func (s *Service) recipientAccepts(ctx context.Context, recipientID string) (bool, error) {
	recipient, err := s.profiles.Get(ctx, recipientID)
	if err != nil {
		return false, err
	}
	if !vip.IsActive(recipient, time.Now()) {
		return true, nil
	}
	return recipient.PrivacyMessages != db.PrivacyMessagesNone, nil
}

func (s *Service) reject(senderID, matchID, reason string) SendResult {
	s.appCtx.Metrics.MessagesTotal.WithLabelValues("rejected").Inc()
	s.appCtx.Logger.Info("message rejected", "sender", senderID, "match", matchID, "reason", reason)
	return SendResult{Reason: reason}
}

// History returns a page of the match's messages, newest first. Only match
// members can read it.
func (s *Service) History(ctx context.Context, userID, matchID string, paginationToken *string, limit int) ([]db.Message, *string, error) {
	if err := authz.RequireActor(userID); err != nil {
		return nil, nil, err
	}
	if _, err := s.requireMember(ctx, matchID, userID); err != nil {
		return nil, nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	return s.messages.ListByMatch(ctx, matchID, paginationToken, limit)
}

// Unread returns the match's messages the reader has not read yet, oldest
// first. Reading them here does not flip the flag; MarkRead does.
func (s *Service) Unread(ctx context.Context, readerID, matchID string) ([]db.Message, error) {
	if err := authz.RequireActor(readerID); err != nil {
		return nil, err
	}
	if _, err := s.requireMember(ctx, matchID, readerID); err != nil {
		return nil, err
	}
	return s.messages.ListUnread(ctx, matchID, readerID)
}

// MarkRead sweeps every unread message addressed to the reader in one
// update and notifies subscribers when anything changed.
func (s *Service) MarkRead(ctx context.Context, readerID, matchID string) (int64, error) {
	if err := authz.RequireActor(readerID); err != nil {
		return 0, err
	}
	if _, err := s.requireMember(ctx, matchID, readerID); err != nil {
		return 0, err
	}

	count, err := s.messages.MarkRead(ctx, matchID, readerID)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.publish(ctx, Event{Type: EventMessagesRead, MatchID: matchID, ReaderID: readerID, Count: count})
	}
	return count, nil
}

// Subscribe opens a realtime event stream for the match. The channel closes
// when ctx is canceled. Only match members can subscribe.
func (s *Service) Subscribe(ctx context.Context, userID, matchID string) (<-chan Event, error) {
	if err := authz.RequireActor(userID); err != nil {
		return nil, err
	}
	if _, err := s.requireMember(ctx, matchID, userID); err != nil {
		return nil, err
	}

	sub := s.appCtx.RedisCache.SubscribeChat(ctx, matchID)
	events := make(chan Event, 16)

	go func() {
		defer close(events)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					s.appCtx.Logger.Warn("bad chat event payload", "match", matchID, "error", err)
					continue
				}
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}

func (s *Service) publish(ctx context.Context, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		s.appCtx.Logger.Error("chat event marshal failed", "match", ev.MatchID, "error", err)
		return
	}
	// Delivery is best effort; the message is already durable in the DB.
	if err := s.appCtx.RedisCache.PublishChatEvent(ctx, ev.MatchID, payload); err != nil {
		s.appCtx.Logger.Warn("chat event publish failed", "match", ev.MatchID, "error", err)
	}
}

func (s *Service) requireMember(ctx context.Context, matchID, userID string) (*db.Match, error) {
	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrMatchNotFound
	}
	if !m.Has(userID) {
		return nil, domain.ErrMatchNotFound
	}
	return m, nil
}
