package log

import (
	"errors"

	"cassa/internal/core"
)

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldErrorType  = "error_type"
	FieldReason     = "reason_code"
	FieldPoolID     = "pool_id"
	FieldPlanID     = "plan_id"
	FieldIntent     = "intent"
	FieldEntity     = "entity"
	FieldEntityID   = "entity_id"
	FieldMovementID = "movement_id"
	FieldKind       = "kind"
	FieldAmount     = "amount"
	FieldStatus     = "status"
	FieldMarketID   = "market_id"
	FieldSucceeded  = "succeeded"
	FieldFailed     = "failed"
	FieldSkipped    = "skipped"
	FieldBackend    = "backend"
	FieldMessageID  = "message_id"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentCLI     = "cli"
	ComponentLedger  = "ledger"
	ComponentReset   = "reset"
	ComponentMarket  = "market"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentCache   = "cache"
	ComponentBackend = "backend"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpReset    = "reset"
	OpConsume  = "consume"
	OpMigrate  = "migrate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation     = "validation_error"
	ErrorTypeConstraint     = "constraint_violation"
	ErrorTypePartialFailure = "partial_failure"
	ErrorTypeConfiguration  = "configuration_error"
	ErrorTypeInternal       = "internal_error"
)

// ErrorType classifies err along the engine's error taxonomy.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, core.ErrPartialFailure):
		return ErrorTypePartialFailure
	case errors.Is(err, core.ErrValidation):
		return ErrorTypeValidation
	case errors.Is(err, core.ErrConstraint):
		return ErrorTypeConstraint
	default:
		return ErrorTypeInternal
	}
}

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds the error text, its taxonomy class and its reason code.
func (f LogFields) WithError(err error) LogFields {
	if err == nil {
		return f
	}
	f[FieldError] = err.Error()
	f[FieldErrorType] = ErrorType(err)
	if code, ok := core.Code(err); ok {
		f[FieldReason] = string(code)
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithIntent(in core.Intent) LogFields {
	f[FieldIntent] = in.String()
	f[FieldEntity] = string(in.Entity)
	f[FieldEntityID] = in.ID
	return f
}

func (f LogFields) WithPlan(p core.Plan) LogFields {
	f[FieldPlanID] = p.ID
	f[FieldOperation] = p.Summary
	return f
}

func (f LogFields) WithMovement(m core.Movement) LogFields {
	f[FieldMovementID] = m.ID
	f[FieldPoolID] = m.PoolID
	f[FieldKind] = string(m.Kind)
	f[FieldAmount] = m.Amount
	f[FieldStatus] = string(m.Status)
	return f
}

func (f LogFields) WithPool(poolID string) LogFields {
	f[FieldPoolID] = poolID
	return f
}

// WithCounts adds the succeeded, failed and skipped intent counts.
func (f LogFields) WithCounts(succeeded, failed, skipped int) LogFields {
	f[FieldSucceeded] = succeeded
	f[FieldFailed] = failed
	f[FieldSkipped] = skipped
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
