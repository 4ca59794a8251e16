package timeline

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"teamchat/pkg/models"
)

// Entry is one displayed message plus the receipts observed for it so far.
// Receipt maps are keyed by observer user ID.
type Entry struct {
	Message   models.MessageRecord
	Delivered map[int64]time.Time
	Read      map[int64]time.Time
}

// Buffer is the ordered, deduplicated view of one channel's messages at a
// consuming endpoint. History pages and live pushes both land here.
// Safe for concurrent use.
type Buffer struct {
	mu        sync.RWMutex
	channelID int64
	byID      map[int64]*Entry
	ordered   []*Entry
}

// NewBuffer creates an empty timeline for a channel
func NewBuffer(channelID int64) *Buffer {
	return &Buffer{
		channelID: channelID,
		byID:      make(map[int64]*Entry),
	}
}

// ChannelID returns the channel this timeline belongs to
func (b *Buffer) ChannelID() int64 {
	return b.channelID
}

// MergePage unions a history batch into the timeline by message ID. Incoming
// records overwrite the stored record on collision; receipts already attached
// to an entry are kept and receipts carried by the page are folded in, earliest
// timestamp winning. Merging the same batch again changes nothing.
func (b *Buffer) MergePage(batch []models.MessageRecord) []models.MessageRecord {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, msg := range batch {
		if msg.ChannelID != 0 && b.channelID != 0 && msg.ChannelID != b.channelID {
			continue
		}
		if e, ok := b.byID[msg.ID]; ok {
			e.Message = stripReceipts(msg)
			foldReceipts(e.Delivered, msg.Delivered)
			foldReceipts(e.Read, msg.Read)
			continue
		}
		b.byID[msg.ID] = newEntry(msg)
	}
	b.resort()
	return b.snapshot()
}

// ApplyLive inserts a pushed message. It reports false when the message is
// already present (duplicate delivery after a reconnect) or belongs to another channel.
func (b *Buffer) ApplyLive(msg models.MessageRecord) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.channelID != 0 && msg.ChannelID != b.channelID {
		return false
	}
	if _, ok := b.byID[msg.ID]; ok {
		return false
	}
	b.byID[msg.ID] = newEntry(msg)
	b.resort()
	return true
}

// ApplyReceiptUpdate records a delivery or read timestamp for an observer.
// A timestamp never moves later once set. Ordering and identity are untouched.
// It reports false for unknown messages.
func (b *Buffer) ApplyReceiptUpdate(messageID, observerID int64, kind models.ReceiptKind, ts time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.byID[messageID]
	if !ok {
		return false, nil
	}
	switch kind {
	case models.ReceiptDelivered:
		keepEarliest(e.Delivered, observerID, ts)
	case models.ReceiptRead:
		keepEarliest(e.Read, observerID, ts)
	default:
		return false, fmt.Errorf("unknown receipt kind %q", kind)
	}
	return true, nil
}

// Messages returns the timeline oldest first
func (b *Buffer) Messages() []models.MessageRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshot()
}

// Entries returns copies of all entries oldest first, receipts included
func (b *Buffer) Entries() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Entry, 0, len(b.ordered))
	for _, e := range b.ordered {
		out = append(out, copyEntry(e))
	}
	return out
}

// Entry returns a copy of one entry
func (b *Buffer) Entry(messageID int64) (Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.byID[messageID]
	if !ok {
		return Entry{}, false
	}
	return copyEntry(e), true
}

// Len returns the number of messages held
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.ordered)
}

// resort rebuilds the ordered slice; caller holds the write lock.
// ties on timestamp fall back to message ID so the order is total.
func (b *Buffer) resort() {
	b.ordered = b.ordered[:0]
	for _, e := range b.byID {
		b.ordered = append(b.ordered, e)
	}
	sort.SliceStable(b.ordered, func(i, j int) bool {
		ti, tj := b.ordered[i].Message.Timestamp, b.ordered[j].Message.Timestamp
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return b.ordered[i].Message.ID < b.ordered[j].Message.ID
	})
}

func (b *Buffer) snapshot() []models.MessageRecord {
	out := make([]models.MessageRecord, 0, len(b.ordered))
	for _, e := range b.ordered {
		out = append(out, e.Message)
	}
	return out
}

func newEntry(msg models.MessageRecord) *Entry {
	e := &Entry{
		Message:   stripReceipts(msg),
		Delivered: make(map[int64]time.Time),
		Read:      make(map[int64]time.Time),
	}
	foldReceipts(e.Delivered, msg.Delivered)
	foldReceipts(e.Read, msg.Read)
	return e
}

func stripReceipts(msg models.MessageRecord) models.MessageRecord {
	msg.Delivered = nil
	msg.Read = nil
	return msg
}

func foldReceipts(dst, src map[int64]time.Time) {
	for observer, ts := range src {
		keepEarliest(dst, observer, ts)
	}
}

func keepEarliest(m map[int64]time.Time, observer int64, ts time.Time) {
	if cur, ok := m[observer]; !ok || ts.Before(cur) {
		m[observer] = ts
	}
}

func copyEntry(e *Entry) Entry {
	c := Entry{
		Message:   e.Message,
		Delivered: make(map[int64]time.Time, len(e.Delivered)),
		Read:      make(map[int64]time.Time, len(e.Read)),
	}
	for k, v := range e.Delivered {
		c.Delivered[k] = v
	}
	for k, v := range e.Read {
		c.Read[k] = v
	}
	return c
}
