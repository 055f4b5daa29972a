package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"portfolio/internal/service"
)

type recordingQueue struct {
	tasks []string
	err   error
}

func (q *recordingQueue) Enqueue(ctx context.Context, task string, payload map[string]any) (string, error) {
	q.tasks = append(q.tasks, task)
	return "1-0", q.err
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(&recordingQueue{}, "every night", zerolog.Nop())
	if err := s.Start(); err == nil {
		t.Fatalf("expected an invalid schedule to fail")
	}
}

func TestStartWithoutQueueIsNoop(t *testing.T) {
	s := NewScheduler(nil, "0 30 3 * * *", zerolog.Nop())
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.Stop()
}

func TestEnqueueReconcile(t *testing.T) {
	q := &recordingQueue{}
	s := NewScheduler(q, "0 30 3 * * *", zerolog.Nop())
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	s.enqueueReconcile()
	if len(q.tasks) != 1 || q.tasks[0] != service.TaskReconcile {
		t.Fatalf("unexpected tasks %v", q.tasks)
	}

	q.err = errors.New("redis down")
	s.enqueueReconcile()
	if len(q.tasks) != 2 {
		t.Fatalf("expected a second attempt, got %v", q.tasks)
	}
}
