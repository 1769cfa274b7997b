package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldEntryID    = "entry_id"
	FieldUserID     = "user_id"
	FieldGroupID    = "group_id"
	FieldShareID    = "group_entry_id"
	FieldTotalPrice = "total_price"
	FieldSharePrice = "share_price"
	FieldMembers    = "member_count"
	FieldYear       = "year"
	FieldMonth      = "month"
	FieldWeek       = "week"
	FieldDrinkType  = "drink_type"
	FieldPhotoURL   = "photo_url"
)

// Components defines standard component names.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentEntry   = "entry"
	ComponentSummary = "summary"
	ComponentGroup   = "group"
	ComponentDrink   = "drink"
	ComponentStorage = "storage"
	ComponentBlob    = "blob"
	ComponentCache   = "cache"
	ComponentTrace   = "trace"
)

// Operations defines standard operation names.
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpSplit    = "split"
	OpSeed     = "seed"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
