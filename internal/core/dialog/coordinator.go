// Package dialog serializes alert and confirmation requests into a single
// visible dialog. Callers get a Pending they can wait on; the client renders
// whatever Active returns and answers through Respond.
package dialog

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Action is a user gesture on the visible dialog
type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionCancel   Action = "cancel"
	ActionBackdrop Action = "backdrop"
)

// Event types published to the observer
const (
	EventOpened = "dialog_opened"
	EventClosed = "dialog_closed"
)

var (
	ErrDialogNotActive        = errors.New("dialog is not active")
	ErrInvalidAction          = errors.New("action not allowed for this dialog")
	ErrExplicitChoiceRequired = errors.New("confirmation requires an explicit choice")
)

// Options overrides the defaults of a confirmation. Empty fields keep the default.
type Options struct {
	Title       string `json:"title,omitempty"`
	ConfirmText string `json:"confirm_text,omitempty"`
	CancelText  string `json:"cancel_text,omitempty"`
	Kind        Kind   `json:"type,omitempty"`
}

// View is the render model of one dialog
type View struct {
	ID             string    `json:"id"`
	Message        string    `json:"message"`
	Kind           Kind      `json:"kind"`
	Title          string    `json:"title"`
	ConfirmText    string    `json:"confirm_text"`
	CancelText     string    `json:"cancel_text,omitempty"`
	IsConfirmation bool      `json:"is_confirmation"`
	Style          Style     `json:"style"`
	CreatedAt      time.Time `json:"created_at"`
}

// Event is emitted whenever the visible dialog changes
type Event struct {
	Type   string `json:"type"`
	Dialog View   `json:"dialog"`
	Result *bool  `json:"result,omitempty"`
}

// Observer receives dialog events. It is called with the coordinator lock
// held and must not call back into the coordinator.
type Observer func(Event)

type request struct {
	view     View
	done     chan struct{}
	result   bool
	resolved bool
}

// Pending is the awaitable result of ShowAlert or ShowConfirm
type Pending struct {
	req *request
	c   *Coordinator
}

// ID returns the dialog id used with Respond
func (p *Pending) ID() string {
	return p.req.view.ID
}

// Done is closed once the request is resolved
func (p *Pending) Done() <-chan struct{} {
	return p.req.done
}

// Wait blocks until the user answers. If ctx ends first the request is
// withdrawn, resolved false, and ctx.Err() is returned.
func (p *Pending) Wait(ctx context.Context) (bool, error) {
	select {
	case <-p.req.done:
		return p.req.result, nil
	case <-ctx.Done():
		if !p.c.withdraw(p.req) {
			// answered before the withdrawal got the lock
			return p.req.result, nil
		}
		return false, ctx.Err()
	}
}

// Coordinator owns the single dialog slot and the FIFO of waiting requests
type Coordinator struct {
	mu       sync.Mutex
	active   *request
	queue    []*request
	observer Observer
	closed   bool
	now      func() time.Time
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithObserver registers the event sink
func WithObserver(o Observer) Option {
	return func(c *Coordinator) { c.observer = o }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// New creates a coordinator. One instance is shared by the whole process.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ShowAlert queues a one-button dialog. An empty kind means info.
func (c *Coordinator) ShowAlert(message string, kind Kind) *Pending {
	if kind == "" {
		kind = KindInfo
	}
	return c.enqueue(View{
		Message:     message,
		Kind:        kind,
		Title:       DefaultTitle(kind),
		ConfirmText: DefaultConfirmText,
	})
}

// ShowConfirm queues a two-button dialog. The default kind is warning.
func (c *Coordinator) ShowConfirm(message string, opts Options) *Pending {
	kind := opts.Kind
	if kind == "" {
		kind = KindWarning
	}
	v := View{
		Message:        message,
		Kind:           kind,
		Title:          DefaultTitle(kind),
		ConfirmText:    DefaultConfirmText,
		CancelText:     DefaultCancelText,
		IsConfirmation: true,
	}
	if opts.Title != "" {
		v.Title = opts.Title
	}
	if opts.ConfirmText != "" {
		v.ConfirmText = opts.ConfirmText
	}
	if opts.CancelText != "" {
		v.CancelText = opts.CancelText
	}
	return c.enqueue(v)
}

// Alert shows an alert and waits until it is dismissed
func (c *Coordinator) Alert(ctx context.Context, message string, kind Kind) error {
	_, err := c.ShowAlert(message, kind).Wait(ctx)
	return err
}

// Confirm shows a confirmation and waits for the decision
func (c *Coordinator) Confirm(ctx context.Context, message string, opts Options) (bool, error) {
	return c.ShowConfirm(message, opts).Wait(ctx)
}

func (c *Coordinator) enqueue(v View) *Pending {
	v.ID = uuid.NewString()
	v.Style = StyleFor(v.Kind)
	v.CreatedAt = c.now()

	req := &request{view: v, done: make(chan struct{})}
	p := &Pending{req: req, c: c}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		req.resolve(false)
		return p
	}

	c.queue = append(c.queue, req)
	c.promoteLocked()
	return p
}

// Respond applies a user action to the visible dialog
func (c *Coordinator) Respond(id string, action Action) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil || c.active.view.ID != id {
		return ErrDialogNotActive
	}

	var result bool
	switch action {
	case ActionConfirm:
		result = true
	case ActionCancel:
		if !c.active.view.IsConfirmation {
			return ErrInvalidAction
		}
		result = false
	case ActionBackdrop:
		if c.active.view.IsConfirmation {
			return ErrExplicitChoiceRequired
		}
		result = true
	default:
		return ErrInvalidAction
	}

	c.closeActiveLocked(result)
	return nil
}

// Active returns the visible dialog, if any
func (c *Coordinator) Active() (View, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return View{}, false
	}
	return c.active.view, true
}

// Queued returns the number of requests waiting behind the visible one
func (c *Coordinator) Queued() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Close resolves every outstanding request with false. Later requests
// resolve false immediately.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.active != nil {
		c.closeActiveLocked(false)
	}
	for _, r := range c.queue {
		r.resolve(false)
	}
	c.queue = nil
}

func (c *Coordinator) withdraw(req *request) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if req.resolved {
		return false
	}
	if c.active == req {
		c.closeActiveLocked(false)
		return true
	}
	for i, r := range c.queue {
		if r == req {
			c.queue = append(c.queue[:i], c.queue[i+1:]...)
			break
		}
	}
	req.resolve(false)
	return true
}

func (c *Coordinator) closeActiveLocked(result bool) {
	req := c.active
	c.active = nil
	req.resolve(result)
	c.emit(Event{Type: EventClosed, Dialog: req.view, Result: &result})
	c.promoteLocked()
}

func (c *Coordinator) promoteLocked() {
	if c.active != nil || len(c.queue) == 0 || c.closed {
		return
	}
	c.active = c.queue[0]
	c.queue = c.queue[1:]
	c.emit(Event{Type: EventOpened, Dialog: c.active.view})
}

func (c *Coordinator) emit(e Event) {
	if c.observer != nil {
		c.observer(e)
	}
}

func (r *request) resolve(result bool) {
	if r.resolved {
		return
	}
	r.resolved = true
	r.result = result
	close(r.done)
}
