package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/spark-dating/spark-core/internal/db"
	"github.com/spark-dating/spark-core/internal/utils/pagination"
)

// MessageRepository provides data access for the Message model.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new repository bound to the given DB connection.
func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

// Create inserts a message.
func (r *MessageRepository) Create(ctx context.Context, m *db.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// ListByMatch returns a page of a match's messages, newest first, with
// cursor-based pagination over (created_at, id).
//
// Callers rendering a conversation reverse the page; within a page and
// across pages the creation-timestamp order is stable.
func (r *MessageRepository) ListByMatch(
	ctx context.Context,
	matchID string,
	paginationToken *string,
	limit int,
) ([]db.Message, *string, error) {
	var messages []db.Message

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	if cursor.MessageID != "" && cursor.CreatedUnix > 0 {
		ts := time.UnixMilli(cursor.CreatedUnix)
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND id < ?))",
			ts, ts, cursor.MessageID,
		)
	}

	if err := query.Find(&messages).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(messages) > limit {
		last := messages[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			MessageID:   last.ID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		messages = messages[:limit]
	}

	return messages, nextToken, nil
}

// ListUnread returns the messages in a match that readerID has not read and
// did not send, oldest first.
func (r *MessageRepository) ListUnread(ctx context.Context, matchID, readerID string) ([]db.Message, error) {
	var messages []db.Message
	err := r.db.WithContext(ctx).
		Where("match_id = ? AND is_read = ? AND sender_id <> ?", matchID, false, readerID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

// MarkRead flips the read flag in bulk for every unread message in the match
// not sent by readerID. Returns how many rows were updated.
func (r *MessageRepository) MarkRead(ctx context.Context, matchID, readerID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&db.Message{}).
		Where("match_id = ? AND is_read = ? AND sender_id <> ?", matchID, false, readerID).
		UpdateColumn("is_read", true)
	return res.RowsAffected, res.Error
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
