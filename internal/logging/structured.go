// Package logging provides structured JSON logging for the job master and its tooling.
package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Event is a structured log event, one JSON object per line.
type Event struct {
	Timestamp string                 `json:"ts"`
	Level     Level                  `json:"level"`
	Component string                 `json:"component"`
	Event     string                 `json:"event"`
	Plan      string                 `json:"plan,omitempty"`
	Worker    string                 `json:"worker,omitempty"`
	Duration  int64                  `json:"duration_ms,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
}

// Logger emits structured events scoped to a component and, optionally, a plan/worker.
type Logger struct {
	component string
	plan      string
	worker    string
}

// New creates a logger for a component (e.g. "jobmaster", "tracker", "lostworker").
func New(component string) *Logger {
	return &Logger{component: component}
}

// WithPlan returns a copy of the logger scoped to a plan id.
func (l *Logger) WithPlan(planID string) *Logger {
	return &Logger{component: l.component, plan: planID, worker: l.worker}
}

// WithWorker returns a copy of the logger scoped to a worker id.
func (l *Logger) WithWorker(workerID string) *Logger {
	return &Logger{component: l.component, plan: l.plan, worker: workerID}
}

func (l *Logger) log(level Level, event string, extra map[string]interface{}, err error) {
	e := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Component: l.component,
		Event:     event,
		Plan:      l.plan,
		Worker:    l.worker,
		Extra:     extra,
	}
	if err != nil {
		e.Error = err.Error()
	}
	data, _ := json.Marshal(e)
	fmt.Fprintln(os.Stderr, string(data))
}

// Debug logs a debug event.
func (l *Logger) Debug(event string, extra map[string]interface{}) {
	l.log(LevelDebug, event, extra, nil)
}

// Info logs an info event.
func (l *Logger) Info(event string, extra map[string]interface{}) {
	l.log(LevelInfo, event, extra, nil)
}

// Warn logs a warning event.
func (l *Logger) Warn(event string, extra map[string]interface{}, err error) {
	l.log(LevelWarn, event, extra, err)
}

// Error logs an error event.
func (l *Logger) Error(event string, extra map[string]interface{}, err error) {
	l.log(LevelError, event, extra, err)
}

// TimedEvent logs an info event carrying the duration since start.
func (l *Logger) TimedEvent(event string, start time.Time, extra map[string]interface{}) {
	e := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     LevelInfo,
		Component: l.component,
		Event:     event,
		Plan:      l.plan,
		Worker:    l.worker,
		Duration:  time.Since(start).Milliseconds(),
		Extra:     extra,
	}
	data, _ := json.Marshal(e)
	fmt.Fprintln(os.Stderr, string(data))
}
