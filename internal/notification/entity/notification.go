package entity

import (
	"time"

	"github.com/shandysiswandi/fintrack/internal/pkg/valueobject"
)

// Notification is one inbox entry. Data holds what the trigger carried and
// Metadata how it was delivered.
type Notification struct {
	ID         int64               `db:"id"`
	UserID     int64               `db:"user_id"`
	TriggerKey TriggerKey          `db:"trigger_key"`
	Data       valueobject.JSONMap `db:"data"`
	Metadata   valueobject.JSONMap `db:"metadata"`
	ReadAt     *time.Time          `db:"read_at"`
	CreatedAt  time.Time           `db:"created_at"`
}

func (n Notification) Unread() bool { return n.ReadAt == nil }

// Delivery tracks sending a notification over one channel.
type Delivery struct {
	ID               int64
	NotificationID   int64
	Channel          Channel
	Status           DeliveryStatus
	Attempts         int32
	ProviderResponse valueobject.JSONMap
}

// Template bodies are html/template sources; subjects are text/template.
// Both may call t and tn to localize copy.
type Template struct {
	ID         int64
	TriggerKey TriggerKey
	Channel    Channel
	Subject    string
	Body       string
}

// InboxPage is one keyset page, newest first. NextBefore is zero on the
// last page.
type InboxPage struct {
	Items      []Notification
	Unread     int64
	NextBefore int64
}

type InboxQuery struct {
	UserID int64
	Filter InboxFilter
	// Before lists entries with a smaller id; zero starts from the newest.
	Before int64
	Limit  int32
}
