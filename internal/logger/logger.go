package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

var rotator *lumberjack.Logger

// Setup sends log output to stdout and, when logFilePath is set, to a rotating file too.
func Setup(logFilePath string) {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if logFilePath == "" {
		log.SetOutput(os.Stdout)
		return
	}

	// Lumberjack logger for rotation
	rotator = &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     7,    // days
		Compress:   true, // gzip
	}

	mw := io.MultiWriter(os.Stdout, rotator)
	log.SetOutput(mw)
}

// Close flushes and closes the rotating file, if any.
func Close() error {
	if rotator == nil {
		return nil
	}
	return rotator.Close()
}

// Fields is the free-form payload of a structured event.
type Fields map[string]any

// Event writes one JSON object per line: {"msg": message, ...fields}.
// The stats command finds these by locating the first '{' on a log line.
func Event(message string, fields Fields) {
	emit(message, fields)
}

// Warn is Event with "level":"warn".
func Warn(message string, fields Fields) {
	emit(message, withReserved(fields, Fields{"level": "warn"}))
}

// Error is Event with "level":"error" and the error text under "error".
func Error(message string, err error, fields Fields) {
	emit(message, withReserved(fields, Fields{"level": "error", "error": fmt.Sprint(err)}))
}

// withReserved copies fields and lays reserved on top, so callers cannot overwrite them.
func withReserved(fields, reserved Fields) Fields {
	out := make(Fields, len(fields)+len(reserved))
	for k, v := range fields {
		out[k] = v
	}
	for k, v := range reserved {
		out[k] = v
	}
	return out
}

func emit(message string, fields Fields) {
	payload := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	payload["msg"] = message

	b, err := json.Marshal(payload)
	if err != nil {
		log.Printf("%s (unencodable fields: %v)", message, err)
		return
	}
	// 3: report the file of whoever called Event/Warn/Error.
	log.Output(3, string(b))
}
