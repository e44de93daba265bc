package observability

import (
	"encoding/json"
	"log"
	"os"
	"time"
)

type Fields map[string]any

// Logger emits one JSON object per line on stdout.
type Logger struct {
	base    *log.Logger
	service string
}

func NewLogger(service string) *Logger {
	return &Logger{base: log.New(os.Stdout, "", 0), service: service}
}

func (l *Logger) Info(message string, fields Fields) {
	l.write("info", message, fields)
}

func (l *Logger) Warn(message string, fields Fields) {
	l.write("warn", message, fields)
}

func (l *Logger) Error(message string, fields Fields) {
	l.write("error", message, fields)
}

func (l *Logger) write(level, message string, fields Fields) {
	payload := map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"level":     level,
		"service":   l.service,
		"message":   message,
	}
	for k, v := range fields {
		payload[k] = v
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		l.base.Println(`{"level":"error","message":"failed to encode log"}`)
		return
	}

	l.base.Println(string(encoded))
}
