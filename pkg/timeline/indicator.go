package timeline

import "fmt"

// Status is the aggregate acknowledgement state of a sender's own message
type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

// Indicator is a projection over an entry's receipts, recomputed on demand
type Indicator struct {
	Status Status
	Count  int
}

func (i Indicator) String() string {
	switch i.Status {
	case StatusRead:
		return fmt.Sprintf("read by %d", i.Count)
	case StatusDelivered:
		return fmt.Sprintf("delivered to %d", i.Count)
	default:
		return "pending"
	}
}

// IndicatorFor derives the indicator for an entry. Every observer counts,
// including another session of the author.
func IndicatorFor(e Entry) Indicator {
	if n := len(e.Read); n > 0 {
		return Indicator{Status: StatusRead, Count: n}
	}
	if n := len(e.Delivered); n > 0 {
		return Indicator{Status: StatusDelivered, Count: n}
	}
	return Indicator{Status: StatusPending}
}

// Indicator returns the aggregate indicator for a message authored by selfID.
// ok is false when the message is unknown or was written by someone else.
func (b *Buffer) Indicator(messageID, selfID int64) (Indicator, bool) {
	e, ok := b.Entry(messageID)
	if !ok || e.Message.UserID != selfID {
		return Indicator{}, false
	}
	return IndicatorFor(e), true
}
