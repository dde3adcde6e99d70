package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldRequestID is the structured log field key for the per-request transaction id.
	FieldRequestID = "txid"
	// FieldSession is the structured log field key for the browser session id.
	FieldSession = "session"
	// FieldAPI is the structured log field key for the scoring API base URL.
	FieldAPI = "api"
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

// WithFields safely attaches the provided fields to the logger.
// A nil logger becomes a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// WithRequest attaches the request and session ids used by the web form.
func WithRequest(logger *zap.Logger, requestID, sessionID string) *zap.Logger {
	return WithFields(logger, StringFields(
		StringField{Key: FieldRequestID, Value: requestID},
		StringField{Key: FieldSession, Value: sessionID},
	)...)
}
