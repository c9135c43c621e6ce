package inbound

import (
	"strconv"
	"time"

	"github.com/shandysiswandi/fintrack/internal/notification/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/valueobject"
)

type NotificationResponse struct {
	ID         int64               `json:"id,string"`
	TriggerKey string              `json:"trigger_key"`
	Data       valueobject.JSONMap `json:"data" swaggertype:"object"`
	Metadata   valueobject.JSONMap `json:"metadata" swaggertype:"object"`
	Unread     bool                `json:"unread"`
	ReadAt     *time.Time          `json:"read_at,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

type InboxResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Unread        int64                  `json:"unread"`
	// NextBefore is passed as ?before= to fetch the next page; empty on the
	// last page.
	NextBefore string `json:"next_before,omitempty"`
}

func newInboxResponse(page *entity.InboxPage) InboxResponse {
	resp := InboxResponse{
		Notifications: make([]NotificationResponse, 0, len(page.Items)),
		Unread:        page.Unread,
	}
	for _, n := range page.Items {
		resp.Notifications = append(resp.Notifications, NotificationResponse{
			ID:         n.ID,
			TriggerKey: n.TriggerKey.String(),
			Data:       n.Data,
			Metadata:   n.Metadata,
			Unread:     n.Unread(),
			ReadAt:     n.ReadAt,
			CreatedAt:  n.CreatedAt,
		})
	}
	if page.NextBefore != 0 {
		resp.NextBefore = strconv.FormatInt(page.NextBefore, 10)
	}
	return resp
}
