package event

const AccountVerifiedDestination string = "account_verified"
const AccountVerifiedConsumerNotification string = "account_verified_notification"

type AccountVerifiedMessage struct {
	UserID   int64  `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	// Language is the account's preferred BCP 47 tag, possibly empty.
	Language string `json:"language,omitempty"`
}
