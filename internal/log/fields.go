package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldOwnerID       = "owner_id"
	FieldTransactionID = "transaction_id"
	FieldKind          = "kind"
	FieldTitle         = "title"
	FieldCategory      = "category"
	FieldAmountCents   = "amount_cents"
	FieldPage          = "page"
	FieldBackend       = "backend"
	FieldQueue         = "queue"
	FieldExchange      = "exchange"
	FieldSheet         = "sheet"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentAuth      = "auth"
	ComponentService   = "service"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentExport    = "export"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
	ComponentCLI       = "cli"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpExport   = "export"
	OpValidate = "validate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// Fields provides a builder for structured log fields.
type Fields map[string]any

func NewFields() Fields {
	return make(Fields)
}

func (f Fields) WithComponent(component string) Fields {
	f[FieldComponent] = component
	return f
}

func (f Fields) WithOwner(ownerID string) Fields {
	f[FieldOwnerID] = ownerID
	return f
}

func (f Fields) WithError(err error) Fields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f Fields) WithOperation(op string) Fields {
	f[FieldOperation] = op
	return f
}

// WithTransaction adds the record identification fields.
func (f Fields) WithTransaction(id, kind, category string, amountCents int64) Fields {
	f[FieldTransactionID] = id
	f[FieldKind] = kind
	f[FieldCategory] = category
	f[FieldAmountCents] = amountCents
	return f
}

// ToSlice converts Fields to the alternating key/value slice slog wants.
func (f Fields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
