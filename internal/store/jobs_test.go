package store

import (
	"errors"
	"testing"
)

func TestJobStore_Lifecycle(t *testing.T) {
	s := NewJobStore(4)

	id := s.Create()
	job, ok := s.Get(id)
	if !ok {
		t.Fatal("Expected job to exist after Create")
	}
	if job.Status != JobPending {
		t.Errorf("Expected pending, got %s", job.Status)
	}

	s.SetRunning(id)
	if job, _ := s.Get(id); job.Status != JobRunning {
		t.Errorf("Expected running, got %s", job.Status)
	}

	s.Complete(id, map[string]int{"answers": 3})
	job, _ = s.Get(id)
	if job.Status != JobComplete {
		t.Errorf("Expected complete, got %s", job.Status)
	}
	if job.Result == nil {
		t.Error("Expected result stored")
	}
}

func TestJobStore_Fail(t *testing.T) {
	s := NewJobStore(4)
	id := s.Create()
	s.Fail(id, errors.New("exploration timed out"))

	job, _ := s.Get(id)
	if job.Status != JobFailed {
		t.Errorf("Expected failed, got %s", job.Status)
	}
	if job.Error != "exploration timed out" {
		t.Errorf("Expected error message stored, got '%s'", job.Error)
	}
}

func TestJobStore_UnknownID(t *testing.T) {
	s := NewJobStore(4)
	if _, ok := s.Get("nope"); ok {
		t.Error("Expected unknown ID to miss")
	}
}

func TestJobStore_EvictsOldest(t *testing.T) {
	s := NewJobStore(2)
	first := s.Create()
	second := s.Create()
	third := s.Create()

	if _, ok := s.Get(first); ok {
		t.Error("Expected oldest job evicted at capacity")
	}
	for _, id := range []string{second, third} {
		if _, ok := s.Get(id); !ok {
			t.Errorf("Expected job %s retained", id)
		}
	}
	if s.Len() != 2 {
		t.Errorf("Expected store bounded at 2, got %d", s.Len())
	}

	// Late updates to an evicted job are dropped, not resurrected
	s.Complete(first, "stale")
	if _, ok := s.Get(first); ok {
		t.Error("Expected evicted job to stay gone")
	}
}
