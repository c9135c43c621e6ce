package event

const AccountDeletedDestination string = "account_deleted"
const AccountDeletedConsumerFinance string = "account_deleted_finance"
const AccountDeletedConsumerNotification string = "account_deleted_notification"

type AccountDeletedMessage struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}
