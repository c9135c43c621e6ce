package constant

// RoleMember is granted to every account once its email is verified.
const RoleMember string = "member"

const (
	PermFinanceTransactions string = "finance:transactions"
	PermFinanceAnalytics    string = "finance:analytics"
)

const (
	PermActRead   string = "read"
	PermActCreate string = "create"
	PermActUpdate string = "update"
	PermActDelete string = "delete"
)
