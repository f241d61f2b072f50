package logger

import (
	"time"

	"go.uber.org/zap"
)

// Field is a structured log field.
type Field = zap.Field

func String(key, val string) Field { return zap.String(key, val) }

func Duration(key string, val time.Duration) Field { return zap.Duration(key, val) }

func Error(err error) Field { return zap.Error(err) }

// Component names the subsystem a log line comes from.
func Component(name string) Field { return zap.String("component", name) }

// Operation names a session operation such as login or refresh.
func Operation(name string) Field { return zap.String("operation", name) }

func UserID(id string) Field { return zap.String("user_id", id) }

func NotificationID(id string) Field { return zap.String("notification_id", id) }

// HTTP request fields, used by the dev API request logger.

func RequestID(id string) Field { return zap.String("request_id", id) }

func Method(method string) Field { return zap.String("method", method) }

func Path(path string) Field { return zap.String("path", path) }

func Status(code int) Field { return zap.Int("status", code) }

func Latency(d time.Duration) Field { return zap.Duration("latency", d) }

func ClientIP(ip string) Field { return zap.String("client_ip", ip) }

func UserAgent(ua string) Field { return zap.String("user_agent", ua) }
