// misuse_test.go — Unit test for the shared-resource misuse detector.
package control

import "testing"

type recordingLogger struct {
	warnings []string
}

func (r *recordingLogger) Debug(string, ...any) {}
func (r *recordingLogger) Info(string, ...any)  {}
func (r *recordingLogger) Warn(msg string, args ...any) {
	r.warnings = append(r.warnings, msg)
}
func (r *recordingLogger) Error(string, ...any) {}

func TestMisuseDetectorWarnsPastThreshold(t *testing.T) {
	log := &recordingLogger{}
	d := NewMisuseDetector(4, log)

	for i := 0; i < 4; i++ {
		d.Increment("channel")
	}
	if len(log.warnings) != 0 {
		t.Fatalf("expected no warning at threshold, got %v", log.warnings)
	}

	d.Increment("channel")
	if len(log.warnings) != 1 {
		t.Fatalf("expected exactly one warning past threshold, got %v", log.warnings)
	}

	// Further increments without dropping below threshold must not re-warn.
	d.Increment("channel")
	if len(log.warnings) != 1 {
		t.Fatalf("expected warning to stay latched, got %v", log.warnings)
	}

	if got := d.Count("channel"); got != 6 {
		t.Fatalf("Count = %d, want 6", got)
	}
}

func TestMisuseDetectorRearmsAfterDrop(t *testing.T) {
	log := &recordingLogger{}
	d := NewMisuseDetector(2, log)

	d.Increment("future")
	d.Increment("future")
	d.Increment("future")
	if len(log.warnings) != 1 {
		t.Fatalf("expected one warning, got %v", log.warnings)
	}

	d.Decrement("future")
	d.Decrement("future")
	d.Increment("future")
	d.Increment("future")

	if len(log.warnings) != 2 {
		t.Fatalf("expected warning to re-arm after dropping below threshold, got %v", log.warnings)
	}
}

func TestStatsSnapshot(t *testing.T) {
	var s Stats
	s.TasksExecuted.Add(3)
	s.TimersFired.Add(1)

	snap := s.Snapshot()
	if snap.TasksExecuted != 3 || snap.TimersFired != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	reg := NewMetricsRegistry()
	s.PublishTo(reg, "loop")
	got := reg.GetSnapshot()
	if got["loop.tasks_executed"] != int64(3) {
		t.Fatalf("registry missing published stat: %+v", got)
	}
}
