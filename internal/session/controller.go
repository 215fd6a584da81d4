package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/jarvis/internal/conversation"
	"github.com/MikeSquared-Agency/jarvis/internal/executor"
	"github.com/MikeSquared-Agency/jarvis/internal/hermes"
)

// ResetCommand is the one reserved input; it clears the conversation.
const ResetCommand = "/reset"

// DefaultStatusClearDelay is how long a finished status stays visible.
const DefaultStatusClearDelay = 3 * time.Second

// Suggestions are starter tasks offered while the conversation is empty.
var Suggestions = []string{
	"Research top AI tools",
	"Check my calendar",
	"Summarize tech news",
}

// Executor runs one task against the remote workflow endpoint.
type Executor interface {
	Execute(ctx context.Context, task string, requestID string) executor.Outcome
}

// Publisher receives session events. *hermes.Client satisfies it.
type Publisher interface {
	Publish(subject string, data any) error
}

// Outcome says what a Submit call did.
type Outcome int

const (
	// Ignored: blank input.
	Ignored Outcome = iota
	// Busy: another submission was in flight.
	Busy
	// Cleared: the reset command ran.
	Cleared
	// Completed: the executor replied and the reply was recorded.
	Completed
	// Errored: the exchange failed and the error text was recorded.
	Errored
)

func (o Outcome) String() string {
	switch o {
	case Ignored:
		return "ignored"
	case Busy:
		return "busy"
	case Cleared:
		return "cleared"
	case Completed:
		return "completed"
	case Errored:
		return "errored"
	}
	return "unknown"
}

// Result reports a Submit call. Reply is set for Completed and Errored.
type Result struct {
	Outcome   Outcome
	RequestID string
	Reply     *conversation.Message
}

// Controller serializes task submissions against one conversation.
type Controller struct {
	store      *conversation.Store
	exec       Executor
	events     Publisher
	logger     *slog.Logger
	clearDelay time.Duration
	onStatus   func(Status)

	inFlight atomic.Bool

	mu         sync.Mutex
	status     Status
	generation uint64
	clearTimer *time.Timer
	input      string
}

// Option configures a Controller.
type Option func(*Controller)

// WithStatusClearDelay overrides DefaultStatusClearDelay.
func WithStatusClearDelay(d time.Duration) Option {
	return func(c *Controller) { c.clearDelay = d }
}

// WithPublisher sends status and conversation events to p.
func WithPublisher(p Publisher) Option {
	return func(c *Controller) { c.events = p }
}

// WithStatusListener calls fn on every status transition, including the
// timed clear back to StatusNone.
func WithStatusListener(fn func(Status)) Option {
	return func(c *Controller) { c.onStatus = fn }
}

func New(store *conversation.Store, exec Executor, logger *slog.Logger, opts ...Option) *Controller {
	c := &Controller{
		store:      store,
		exec:       exec,
		logger:     logger,
		clearDelay: DefaultStatusClearDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetInput replaces the draft input buffer.
func (c *Controller) SetInput(s string) {
	c.mu.Lock()
	c.input = s
	c.mu.Unlock()
}

// Input returns the draft input buffer.
func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// SubmitInput submits the draft input buffer.
func (c *Controller) SubmitInput(ctx context.Context) Result {
	return c.Submit(ctx, c.Input())
}

// Status returns the current status indicator.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Executing reports whether a submission is in flight.
func (c *Controller) Executing() bool {
	return c.inFlight.Load()
}

// Messages returns the conversation in display order.
func (c *Controller) Messages() []conversation.Message {
	return c.store.Messages()
}

// Submit handles one line of user input. Blank input and input arriving
// while another submission is in flight are no-ops. ResetCommand clears the
// conversation without a network call. Anything else is recorded as a user
// message, sent to the executor, and the reply recorded as an assistant
// message before Submit returns.
func (c *Controller) Submit(ctx context.Context, raw string) Result {
	task := strings.TrimSpace(raw)
	if task == "" {
		return Result{Outcome: Ignored}
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		c.logger.Debug("submission ignored, request in flight")
		return Result{Outcome: Busy}
	}
	defer c.inFlight.Store(false)

	if task == ResetCommand {
		c.reset(ctx)
		return Result{Outcome: Cleared}
	}

	requestID := uuid.New().String()
	logger := c.logger.With("request_id", requestID)

	c.record(ctx, requestID, conversation.NewMessage(conversation.RoleUser, task))
	c.SetInput("")
	c.setStatus(requestID, StatusExecuting)
	logger.Info("executing task", "task_len", len(task))

	out := c.exec.Execute(ctx, task, requestID)

	reply := conversation.NewMessage(conversation.RoleAssistant, out.Content)
	c.record(ctx, requestID, reply)

	result := Result{Outcome: Completed, RequestID: requestID, Reply: &reply}
	status := StatusCompleted
	if out.Failed {
		result.Outcome = Errored
		status = StatusError
	}
	gen := c.setStatus(requestID, status)
	c.scheduleClear(gen)

	logger.Info("task finished", "outcome", result.Outcome.String(), "elapsed", out.Elapsed)
	return result
}

// Close stops any pending status-clear timer.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clearTimer != nil {
		c.clearTimer.Stop()
		c.clearTimer = nil
	}
}

func (c *Controller) reset(ctx context.Context) {
	if err := c.store.Reset(ctx); err != nil {
		c.logger.Error("failed to clear conversation history", "error", err)
	}
	c.SetInput("")
	c.logger.Info("conversation reset")
	c.publish(hermes.SubjectReset, hermes.ResetEvent{At: time.Now().UTC()})
}

func (c *Controller) record(ctx context.Context, requestID string, msg conversation.Message) {
	if err := c.store.Append(ctx, msg); err != nil {
		c.logger.Error("failed to persist conversation", "request_id", requestID, "role", msg.Role, "error", err)
	}
	c.publish(hermes.SubjectAppended, hermes.AppendedEvent{
		RequestID: requestID,
		Role:      string(msg.Role),
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
		Size:      c.store.Size(),
	})
}

// setStatus moves to s and cancels any pending clear. Entering
// StatusExecuting starts a new generation; the returned generation scopes
// the clear timer to this request.
func (c *Controller) setStatus(requestID string, s Status) uint64 {
	c.mu.Lock()
	if s == StatusExecuting {
		c.generation++
	}
	if c.clearTimer != nil {
		c.clearTimer.Stop()
		c.clearTimer = nil
	}
	c.status = s
	gen := c.generation
	c.mu.Unlock()

	c.statusChanged(requestID, s)
	return gen
}

func (c *Controller) scheduleClear(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return
	}
	c.clearTimer = time.AfterFunc(c.clearDelay, func() {
		c.mu.Lock()
		if gen != c.generation || c.status == StatusExecuting {
			c.mu.Unlock()
			return
		}
		c.status = StatusNone
		c.clearTimer = nil
		c.mu.Unlock()

		c.statusChanged("", StatusNone)
	})
}

func (c *Controller) statusChanged(requestID string, s Status) {
	if c.onStatus != nil {
		c.onStatus(s)
	}
	c.publish(hermes.SubjectStatus, hermes.StatusEvent{RequestID: requestID, Status: string(s), At: time.Now().UTC()})
}

func (c *Controller) publish(subject string, data any) {
	if c.events == nil {
		return
	}
	if err := c.events.Publish(subject, data); err != nil {
		c.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}
