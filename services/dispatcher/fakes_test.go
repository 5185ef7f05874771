package dispatcher

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"medminder/models"
	"medminder/services/channels"

	"github.com/hibiken/asynq"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// fakeStore matches rows by exact time-of-day equality like the Mongo query.
type fakeStore struct {
	mu      sync.Mutex
	rows    []models.DueIntake
	err     error
	calls   [][]string
	entered chan struct{}
	release chan struct{}
}

func (s *fakeStore) FindDueIntakes(ctx context.Context, times []string) ([]models.DueIntake, error) {
	s.mu.Lock()
	s.calls = append(s.calls, times)
	err := s.err
	s.mu.Unlock()

	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	if err != nil {
		return nil, err
	}

	var out []models.DueIntake
	for _, r := range s.rows {
		if slices.Contains(times, r.IntakeTime.Time) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) lastCall() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return nil
	}
	return s.calls[len(s.calls)-1]
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []models.Notification
	failFor map[string]error
}

func (r *fakeRecorder) RecordReminder(ctx context.Context, n *models.Notification) (*models.NotificationLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failFor[n.MedicationID]; err != nil {
		return nil, err
	}
	n.ID = fmt.Sprintf("n-%d", len(r.records)+1)
	n.CreatedAt = time.Now()
	r.records = append(r.records, *n)
	return &models.NotificationLog{
		ID:             "log-" + n.ID,
		NotificationID: n.ID,
		Status:         n.Status,
		Timestamp:      n.CreatedAt,
	}, nil
}

func (r *fakeRecorder) ListByMedication(ctx context.Context, medicationID string, limit int64) ([]models.NotificationWithLogs, error) {
	return nil, nil
}

func (r *fakeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

type smsCall struct {
	To   string
	Body string
}

type fakeSMS struct {
	mu     sync.Mutex
	calls  []smsCall
	err    error
	failTo map[string]error
	panic  bool
	block  bool
}

func (f *fakeSMS) SendSMS(ctx context.Context, to, body string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, smsCall{To: to, Body: body})
	n := len(f.calls)
	err := f.err
	if e := f.failTo[to]; e != nil {
		err = e
	}
	f.mu.Unlock()

	if f.panic {
		panic("twilio exploded")
	}
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SM%d", n), nil
}

func (f *fakeSMS) Calls() []smsCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

type fakeEmail struct {
	mu    sync.Mutex
	calls []channels.EmailMessage
	err   error
}

func (f *fakeEmail) SendEmail(ctx context.Context, msg channels.EmailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, msg)
	return f.err
}

func (f *fakeEmail) Calls() []channels.EmailMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

type fakeClaims struct {
	mu       sync.Mutex
	held     map[string]bool
	err      error
	released []string
}

func (c *fakeClaims) Claim(ctx context.Context, intakeTimeID, day string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return false, c.err
	}
	if c.held == nil {
		c.held = map[string]bool{}
	}
	key := intakeTimeID + "/" + day
	if c.held[key] {
		return false, nil
	}
	c.held[key] = true
	return true, nil
}

func (c *fakeClaims) Release(ctx context.Context, intakeTimeID, day string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := intakeTimeID + "/" + day
	delete(c.held, key)
	c.released = append(c.released, key)
	return nil
}

func (c *fakeClaims) isHeld(intakeTimeID, day string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.held[intakeTimeID+"/"+day]
}

type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
	err   error
}

func (e *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	e.tasks = append(e.tasks, task)
	return &asynq.TaskInfo{ID: fmt.Sprintf("task-%d", len(e.tasks)), Type: task.Type()}, nil
}
