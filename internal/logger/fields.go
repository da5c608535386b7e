package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	FieldProductID   = "product_id"
	FieldProductName = "product_name"
)

// ProductFields returns the fields identifying a product in log entries. Blank
// values are left out so records without a name do not log empty strings.
func ProductFields(id, name string) []zap.Field {
	fields := make([]zap.Field, 0, 2)
	if id = strings.TrimSpace(id); id != "" {
		fields = append(fields, zap.String(FieldProductID, id))
	}
	if name = strings.TrimSpace(name); name != "" {
		fields = append(fields, zap.String(FieldProductName, name))
	}
	return fields
}

// WithProduct returns logger scoped to one product. A nil logger becomes a no-op
// logger.
func WithProduct(logger *zap.Logger, id, name string) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	fields := ProductFields(id, name)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}
