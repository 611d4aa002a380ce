package handler

type ContextKey string

var (
	RoleCtxKey       ContextKey = "role"
	SubCtxKey        ContextKey = "sub"
	MyInfoCtx        ContextKey = "myInfo"
	UserInfoCtx      ContextKey = "userInfo"
	JobCtx           ContextKey = "job"
	InventoryItemCtx ContextKey = "inventoryItem"
	ReportCtx        ContextKey = "report"
	NotificationCtx  ContextKey = "notification"
)
