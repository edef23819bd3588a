package models

import (
	"time"

	"github.com/sirupsen/logrus"
)

// LogEntry is a captured logrus entry as served by the console's /logs
// endpoint.
type LogEntry struct {
	Time    time.Time     `json:"time"`
	Level   string        `json:"level"`
	Message string        `json:"message,omitempty"`
	Fields  logrus.Fields `json:"fields,omitempty"`
}

func NewLogEntry(entry *logrus.Entry) *LogEntry {
	fields := make(logrus.Fields, len(entry.Data))
	for k, v := range entry.Data {
		// errors marshal to {} otherwise
		if err, ok := v.(error); ok {
			fields[k] = err.Error()
			continue
		}
		fields[k] = v
	}

	return &LogEntry{
		Time:    entry.Time,
		Level:   entry.Level.String(),
		Message: entry.Message,
		Fields:  fields,
	}
}
