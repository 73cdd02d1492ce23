package logger

import (
	log_model "deliveroo-backend/models/log"
	"deliveroo-backend/types"

	"gorm.io/gorm"
)

// AsyncLogger persists HTTP request logs off the request path. Entries are
// pushed onto a buffered channel and drained by a single goroutine; a full
// buffer drops the entry rather than blocking a handler.
type AsyncLogger struct {
	db      *gorm.DB
	channel chan types.LogEntry
}

func NewAsyncLogger(db *gorm.DB) *AsyncLogger {
	return &AsyncLogger{
		db:      db,
		channel: make(chan types.LogEntry, 100),
	}
}

// ProcessLog drains the channel into the log table. Run it on its own
// goroutine.
func (l *AsyncLogger) ProcessLog() {
	for entry := range l.channel {
		dbLog := log_model.Log{
			Method:       entry.Method,
			URL:          entry.URL,
			RequestBody:  entry.RequestBody,
			ResponseBody: entry.ResponseBody,
			StatusCode:   entry.StatusCode,
			CreatedAt:    entry.CreatedAt,
		}
		if err := l.db.Create(&dbLog).Error; err != nil {
			Error("Failed to insert request log entry", err)
		}
	}
}

// Log enqueues an entry without blocking the caller.
func (l *AsyncLogger) Log(entry types.LogEntry) {
	select {
	case l.channel <- entry:
	default:
		Warning("Request log buffer full, dropping entry for " + entry.Method + " " + entry.URL)
	}
}
