package repository

import (
	"context"
	"fmt"
	"time"

	"teamchat/internal/microservices/http-api/models"
	"teamchat/internal/shared"
	pub "teamchat/pkg/models"

	"gorm.io/gorm"
)

const messageColumns = "m.id, m.channel_id, m.user_id, m.text, m.timestamp, u.name AS sender_name"

// MessageRepository persists channel messages and serves history pages.
type MessageRepository interface {
	Insert(ctx context.Context, channelID, senderID int64, text string) (*pub.MessageRecord, error)
	FetchPage(ctx context.Context, channelID int64, page, limit int) ([]pub.MessageRecord, error)
}

type messageRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

type messageRow struct {
	ID         int64
	ChannelID  int64
	UserID     int64
	Text       string
	Timestamp  time.Time
	SenderName string
}

func (row messageRow) record() pub.MessageRecord {
	return pub.MessageRecord{
		ID:         row.ID,
		ChannelID:  row.ChannelID,
		UserID:     row.UserID,
		Text:       row.Text,
		Timestamp:  row.Timestamp,
		SenderName: row.SenderName,
	}
}

// Insert stores the message with a server-assigned timestamp and returns it
// hydrated with the sender's display name.
func (r *messageRepository) Insert(ctx context.Context, channelID, senderID int64, text string) (*pub.MessageRecord, error) {
	msg := &models.Message{
		ChannelID: channelID,
		UserID:    senderID,
		Text:      text,
		Timestamp: r.now(),
	}
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, fmt.Errorf("%w: insert message: %v", shared.ErrPersistence, err)
	}

	var row messageRow
	err := r.db.WithContext(ctx).
		Table("messages m").
		Select(messageColumns).
		Joins("JOIN users u ON u.id = m.user_id").
		Where("m.id = ?", msg.ID).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("%w: hydrate message: %v", shared.ErrPersistence, err)
	}
	if row.ID == 0 {
		return nil, fmt.Errorf("%w: hydrate message %d: sender missing", shared.ErrPersistence, msg.ID)
	}

	rec := row.record()
	return &rec, nil
}

// FetchPage returns one page of history. Page 1 holds the most recent
// messages; within a page records are oldest first. Persisted receipts are
// attached to each record.
func (r *messageRepository) FetchPage(ctx context.Context, channelID int64, page, limit int) ([]pub.MessageRecord, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}

	var rows []messageRow
	err := r.db.WithContext(ctx).
		Table("messages m").
		Select(messageColumns).
		Joins("JOIN users u ON u.id = m.user_id").
		Where("m.channel_id = ?", channelID).
		Order("m.timestamp DESC, m.id DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: fetch page: %v", shared.ErrPersistence, err)
	}

	records := make([]pub.MessageRecord, 0, len(rows))
	if len(rows) == 0 {
		return records, nil
	}
	ids := make([]int64, 0, len(rows))
	// rows arrive newest first
	for i := len(rows) - 1; i >= 0; i-- {
		records = append(records, rows[i].record())
		ids = append(ids, rows[i].ID)
	}

	var receipts []models.MessageReceipt
	if err := r.db.WithContext(ctx).Where("message_id IN ?", ids).Find(&receipts).Error; err != nil {
		return nil, fmt.Errorf("%w: fetch receipts: %v", shared.ErrPersistence, err)
	}
	attachReceipts(records, receipts)
	return records, nil
}

func attachReceipts(records []pub.MessageRecord, receipts []models.MessageReceipt) {
	index := make(map[int64]int, len(records))
	for i, rec := range records {
		index[rec.ID] = i
	}
	for _, rc := range receipts {
		i, ok := index[rc.MessageID]
		if !ok {
			continue
		}
		rec := &records[i]
		if rc.DeliveredAt != nil {
			if rec.Delivered == nil {
				rec.Delivered = make(map[int64]time.Time)
			}
			rec.Delivered[rc.UserID] = *rc.DeliveredAt
		}
		if rc.ReadAt != nil {
			if rec.Read == nil {
				rec.Read = make(map[int64]time.Time)
			}
			rec.Read[rc.UserID] = *rc.ReadAt
		}
	}
}
