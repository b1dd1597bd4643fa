package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldError       = "error"
	FieldErrorType   = "error_type"
	FieldOperation   = "operation"
	FieldDuration    = "duration_ms"
	FieldUserID      = "user_id"
	FieldReportID    = "report_id"
	FieldRequestID   = "request_id"
	FieldSink        = "sink"
	FieldSinkRef     = "sink_ref"
	FieldCategory    = "category"
	FieldZScore      = "z_score"
	FieldAmountCents = "amount_cents"
	FieldBackend     = "backend"
	FieldUsers       = "users"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentAnalytics = "analytics"
	ComponentReport    = "report"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentScheduler = "scheduler"
	ComponentSheets    = "sheets"
	ComponentGCS       = "gcs"
	ComponentBackend   = "backend"
)

// Operations defines standard operation names
const (
	OpRead     = "read"
	OpGenerate = "generate"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpWrite    = "write"
	OpAppend   = "append"
	OpMigrate  = "migrate"
	OpImport   = "import"
	OpValidate = "validate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeTimeout       = "timeout_error"
	ErrorTypeSink          = "sink_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithErrorType adds error type field
func (f LogFields) WithErrorType(errorType string) LogFields {
	f[FieldErrorType] = errorType
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithUser(userID int64) LogFields {
	f[FieldUserID] = userID
	return f
}

func (f LogFields) WithReport(reportID string) LogFields {
	f[FieldReportID] = reportID
	return f
}

func (f LogFields) WithSink(name, ref string) LogFields {
	f[FieldSink] = name
	if ref != "" {
		f[FieldSinkRef] = ref
	}
	return f
}

// WithAnomaly adds the category and score of a flagged category
func (f LogFields) WithAnomaly(category string, z float64) LogFields {
	f[FieldCategory] = category
	f[FieldZScore] = z
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
