package logging

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// WithLogger returns a context carrying logger. A nil logger stores the default.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, OrDefault(logger))
}

// FromContext returns the context's logger, or the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok && l != nil {
			return l
		}
	}
	return Default()
}

// WithFields returns a context whose logger carries fields.
func WithFields(ctx context.Context, fields map[string]any) context.Context {
	zc := FromContext(ctx).With()
	for k, v := range fields {
		zc = addField(zc, k, v)
	}
	l := zc.Logger()
	return WithLogger(ctx, &l)
}

// WithField returns a context whose logger carries key=value.
func WithField(ctx context.Context, key string, value any) context.Context {
	l := addField(FromContext(ctx).With(), key, value).Logger()
	return WithLogger(ctx, &l)
}

// WithRecord tags the logger with a golden record id.
func WithRecord(ctx context.Context, recordID string) context.Context {
	return WithField(ctx, "record_id", recordID)
}

// WithRecordType tags the logger with a record type.
func WithRecordType(ctx context.Context, recordType string) context.Context {
	return WithField(ctx, "record_type", recordType)
}

// WithJob tags the logger with a merge job id.
func WithJob(ctx context.Context, jobID string) context.Context {
	return WithField(ctx, "job_id", jobID)
}

// WithOperation tags the logger with the client operation being run.
func WithOperation(ctx context.Context, operation string) context.Context {
	return WithField(ctx, "operation", operation)
}

// WithError tags the logger with err. A nil error leaves ctx unchanged.
func WithError(ctx context.Context, err error) context.Context {
	if err == nil {
		return ctx
	}
	return WithField(ctx, zerolog.ErrorFieldName, err)
}

func addField(zc zerolog.Context, key string, value any) zerolog.Context {
	switch v := value.(type) {
	case string:
		return zc.Str(key, v)
	case []string:
		return zc.Strs(key, v)
	case int:
		return zc.Int(key, v)
	case int64:
		return zc.Int64(key, v)
	case float64:
		return zc.Float64(key, v)
	case bool:
		return zc.Bool(key, v)
	case time.Time:
		return zc.Time(key, v)
	case time.Duration:
		return zc.Dur(key, v)
	case error:
		if key == zerolog.ErrorFieldName {
			return zc.Err(v)
		}
		return zc.Str(key, v.Error())
	}
	return zc.Interface(key, value)
}
