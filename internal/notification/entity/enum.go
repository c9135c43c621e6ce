package entity

// Channel is stored as SMALLINT.
type Channel int16

const (
	ChannelUnknown Channel = iota
	ChannelInApp
	ChannelEmail
)

var channelNames = [...]string{"unknown", "in_app", "email"}

func (c Channel) String() string {
	if c < 0 || int(c) >= len(channelNames) {
		return channelNames[ChannelUnknown]
	}
	return channelNames[c]
}

// DeliveryStatus is stored as SMALLINT. A delivery starts queued and ends
// sent or failed.
type DeliveryStatus int16

const (
	DeliveryStatusUnknown DeliveryStatus = iota
	DeliveryStatusQueued
	DeliveryStatusProcessing
	DeliveryStatusSent
	DeliveryStatusFailed
)

var deliveryStatusNames = [...]string{"unknown", "queued", "processing", "sent", "failed"}

func (s DeliveryStatus) String() string {
	if s < 0 || int(s) >= len(deliveryStatusNames) {
		return deliveryStatusNames[DeliveryStatusUnknown]
	}
	return deliveryStatusNames[s]
}

// Final reports whether no further attempt will be made.
func (s DeliveryStatus) Final() bool {
	return s == DeliveryStatusSent || s == DeliveryStatusFailed
}

// TriggerKey names the event a template and an inbox entry belong to.
type TriggerKey string

const TriggerKeyUserWelcome TriggerKey = "user_welcome"

func (tk TriggerKey) String() string { return string(tk) }

// InboxFilter narrows an inbox listing by read state.
type InboxFilter string

const (
	InboxFilterAll    InboxFilter = "all"
	InboxFilterUnread InboxFilter = "unread"
	InboxFilterRead   InboxFilter = "read"
)

// InboxChange is applied to one inbox entry or to all of a user's entries.
type InboxChange int8

const (
	InboxChangeRead InboxChange = iota + 1
	InboxChangeDelete
)
