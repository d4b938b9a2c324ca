package metrics

import (
	"errors"
	"reflect"
	"testing"
)

// recorder captures every Backend call in order.
type recorder struct {
	events  []event
	flushes int
}

type event struct {
	kind   string // "counter" or "histogram"
	name   string
	value  float64
	labels Labels
}

func (r *recorder) IncCounter(name string, delta float64, labels Labels) {
	r.events = append(r.events, event{"counter", name, delta, labels})
}

func (r *recorder) ObserveHistogram(name string, value float64, labels Labels) {
	r.events = append(r.events, event{"histogram", name, value, labels})
}

func (r *recorder) Flush() error {
	r.flushes++
	return nil
}

// install swaps the global backend for a recorder for one test. These tests
// stay sequential because the backend is package state.
func install(t *testing.T) *recorder {
	t.Helper()
	orig := backend
	t.Cleanup(func() { backend = orig })
	rec := &recorder{}
	backend = rec
	return rec
}

/*
TestStatus verifies the error-to-label mapping.
*/
func TestStatus(t *testing.T) {
	if got := Status(nil); got != "success" {
		t.Fatalf("Status(nil) = %q", got)
	}
	if got := Status(errors.New("boom")); got != "failure" {
		t.Fatalf("Status(err) = %q", got)
	}
}

/*
TestRecordStage verifies each stage records one counter bump and one duration
observation, both labeled with stage and status.
*/
func TestRecordStage(t *testing.T) {
	rec := install(t)

	RecordStage("load", "success", 2.0)
	RecordStage("store", "failure", 1.5)

	want := []event{
		{"counter", "wardrive_stage_total", 1, Labels{"stage": "load", "status": "success"}},
		{"histogram", "wardrive_stage_duration_seconds", 2.0, Labels{"stage": "load", "status": "success"}},
		{"counter", "wardrive_stage_total", 1, Labels{"stage": "store", "status": "failure"}},
		{"histogram", "wardrive_stage_duration_seconds", 1.5, Labels{"stage": "store", "status": "failure"}},
	}
	if !reflect.DeepEqual(rec.events, want) {
		t.Fatalf("events:\n got %v\nwant %v", rec.events, want)
	}
}

/*
TestRecordRows verifies the row counter carries the kind label and that
non-positive deltas are dropped.
*/
func TestRecordRows(t *testing.T) {
	rec := install(t)

	RecordRows("loaded", 3)
	RecordRows("loaded", 0)
	RecordRows("dropped", -1)
	RecordRows("stored", 5)

	want := []event{
		{"counter", "wardrive_rows_total", 3, Labels{"kind": "loaded"}},
		{"counter", "wardrive_rows_total", 5, Labels{"kind": "stored"}},
	}
	if !reflect.DeepEqual(rec.events, want) {
		t.Fatalf("events:\n got %v\nwant %v", rec.events, want)
	}
}

/*
TestRecordFiles verifies the file counter carries the outcome label and that
non-positive counts are dropped.
*/
func TestRecordFiles(t *testing.T) {
	rec := install(t)

	RecordFiles("processed", 2)
	RecordFiles("failed", 0)

	want := []event{
		{"counter", "wardrive_files_total", 2, Labels{"status": "processed"}},
	}
	if !reflect.DeepEqual(rec.events, want) {
		t.Fatalf("events:\n got %v\nwant %v", rec.events, want)
	}
}

/*
TestSetBackend verifies installation, Flush delegation, and that SetBackend
of nil keeps the current backend.
*/
func TestSetBackend(t *testing.T) {
	orig := backend
	t.Cleanup(func() { backend = orig })

	rec := &recorder{}
	SetBackend(rec)
	if backend != rec {
		t.Fatal("SetBackend did not install the recorder")
	}

	if err := Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if rec.flushes != 1 {
		t.Fatalf("flushes = %d, want 1", rec.flushes)
	}

	SetBackend(nil)
	if backend != rec {
		t.Fatal("SetBackend(nil) replaced the backend")
	}
	RecordRows("loaded", 1)
	if len(rec.events) != 1 {
		t.Fatalf("events after SetBackend(nil) = %v, want the recorder to keep receiving", rec.events)
	}
}
