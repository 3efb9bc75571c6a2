package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoggerWithPlan(t *testing.T) {
	logger := New("tracker").WithPlan("7")

	if logger.component != "tracker" {
		t.Errorf("expected component 'tracker', got '%s'", logger.component)
	}
	if logger.plan != "7" {
		t.Errorf("expected plan '7', got '%s'", logger.plan)
	}
}

func TestLoggerWithWorker(t *testing.T) {
	logger := New("jobmaster").WithWorker("worker-5")

	if logger.worker != "worker-5" {
		t.Errorf("expected worker 'worker-5', got '%s'", logger.worker)
	}
}

func TestEventSerialization(t *testing.T) {
	event := Event{
		Timestamp: "2024-01-01T00:00:00Z",
		Level:     LevelInfo,
		Component: "test",
		Event:     "test_event",
		Plan:      "3",
		Worker:    "w1",
		Duration:  100,
		Extra: map[string]interface{}{
			"key": "value",
		},
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("failed to unmarshal event: %v", err)
	}

	if parsed["level"] != "info" {
		t.Errorf("expected level 'info', got '%v'", parsed["level"])
	}
	if parsed["plan"] != "3" {
		t.Errorf("expected plan '3', got '%v'", parsed["plan"])
	}
	if parsed["duration_ms"].(float64) != 100 {
		t.Errorf("expected duration_ms 100, got '%v'", parsed["duration_ms"])
	}
}

func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stderr = w
	fn()
	w.Close()
	os.Stderr = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func TestInfoEvent(t *testing.T) {
	output := captureStderr(t, func() {
		New("jobmaster").WithPlan("1").Info("plan_admitted", map[string]interface{}{"name": "echo"})
	})

	var event Event
	if err := json.Unmarshal([]byte(strings.TrimSpace(output)), &event); err != nil {
		t.Fatalf("failed to parse output as JSON: %v (output: %s)", err, output)
	}
	if event.Level != LevelInfo {
		t.Errorf("expected level 'info', got '%s'", event.Level)
	}
	if event.Plan != "1" {
		t.Errorf("expected plan '1', got '%s'", event.Plan)
	}
	if event.Event != "plan_admitted" {
		t.Errorf("expected event 'plan_admitted', got '%s'", event.Event)
	}
}

func TestErrorEvent(t *testing.T) {
	output := captureStderr(t, func() {
		New("lostworker").WithWorker("w2").Error("sweep_failed", nil, os.ErrDeadlineExceeded)
	})

	var event Event
	if err := json.Unmarshal([]byte(strings.TrimSpace(output)), &event); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if event.Level != LevelError {
		t.Errorf("expected level 'error', got '%s'", event.Level)
	}
	if event.Error == "" {
		t.Error("expected error message to be set")
	}
}

func TestTimedEvent(t *testing.T) {
	start := time.Now().Add(-50 * time.Millisecond)
	output := captureStderr(t, func() {
		New("tracker").TimedEvent("admission", start, nil)
	})

	var event Event
	if err := json.Unmarshal([]byte(strings.TrimSpace(output)), &event); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if event.Duration < 40 {
		t.Errorf("expected duration >= 40ms, got %d", event.Duration)
	}
}
