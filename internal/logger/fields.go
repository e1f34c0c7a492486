package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldItemID is the structured log field key for the catalog item identity.
	FieldItemID = "item_id"
	// FieldItemName is the structured log field key for the catalog item name.
	FieldItemName = "item_name"
	// FieldBackend is the structured log field key for the catalog backend.
	FieldBackend = "catalog_backend"
	// FieldTarget is the structured log field key for a store address or file path.
	FieldTarget = "catalog_target"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to logger, falling back to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// ItemFields describes a catalog item. Rows inserted outside the tool may have no id, so it may be omitted.
func ItemFields(id, name string) []zap.Field {
	return StringFields(
		StringField{Key: FieldItemID, Value: id},
		StringField{Key: FieldItemName, Value: name},
	)
}

// StoreFields describes the catalog backend in use.
func StoreFields(backend, target string) []zap.Field {
	return StringFields(
		StringField{Key: FieldBackend, Value: backend},
		StringField{Key: FieldTarget, Value: target},
	)
}
