package inmemory

import "testing"

func TestRecorderSnapshot(t *testing.T) {
	r := NewRecorder()
	r.RecordHandled("status")
	r.RecordHandled("cage")
	r.RecordHandled("cage")
	r.RecordBusy()
	r.RecordFailure()

	s := r.Snapshot()
	if s.CommandTotal != 5 {
		t.Fatalf("expected total 5, got %d", s.CommandTotal)
	}
	if s.CommandHandled != 3 {
		t.Fatalf("expected handled 3, got %d", s.CommandHandled)
	}
	if s.CommandBusy != 1 {
		t.Fatalf("expected busy 1, got %d", s.CommandBusy)
	}
	if s.CommandFailure != 1 {
		t.Fatalf("expected failure 1, got %d", s.CommandFailure)
	}
	if s.ByCommand["cage"] != 2 {
		t.Fatalf("expected two cage commands, got %d", s.ByCommand["cage"])
	}
}

func TestSnapshotCopiesTheCommandMap(t *testing.T) {
	r := NewRecorder()
	r.RecordHandled("status")

	s := r.Snapshot()
	s.ByCommand["status"] = 99

	if got := r.Snapshot().ByCommand["status"]; got != 1 {
		t.Fatalf("snapshot must not alias the live map, got %d", got)
	}
}
