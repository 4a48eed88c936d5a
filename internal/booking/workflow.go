package booking

import (
	"context"
	"sync"

	"github.com/consultlaw/consultlaw-go/internal/models"
	apperrors "github.com/consultlaw/consultlaw-go/pkg/errors"
	"github.com/consultlaw/consultlaw-go/pkg/logger"
	"github.com/consultlaw/consultlaw-go/pkg/metrics"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// WorkflowState tracks the booking form's lifecycle.
type WorkflowState int

const (
	// Closed means no draft is open
	Closed WorkflowState = iota
	// Drafting means a draft is being edited
	Drafting
	// Submitting means the draft is in flight to the backend
	Submitting
)

func (s WorkflowState) String() string {
	switch s {
	case Drafting:
		return "drafting"
	case Submitting:
		return "submitting"
	default:
		return "closed"
	}
}

// Draft is the booking request under construction. Validation runs
// entirely locally before anything is sent.
type Draft struct {
	Lawyer  int    `json:"lawyer" validate:"required,gt=0"`
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	Time    string `json:"time" validate:"required,datetime=15:04"`
	Message string `json:"message"`
}

// Transport is the slice of the HTTP client the workflow needs.
type Transport interface {
	Post(ctx context.Context, path string, body, out any) error
}

// Workflow drives a single booking draft from open to submitted. A
// failed submit keeps the draft intact so the user can correct and
// resubmit; only a successful submit closes it.
type Workflow struct {
	transport Transport
	validate  *validator.Validate

	mu    sync.Mutex
	state WorkflowState
	draft Draft
}

// NewWorkflow creates a booking workflow
func NewWorkflow(transport Transport) *Workflow {
	return &Workflow{
		transport: transport,
		validate:  validator.New(),
	}
}

// State returns the current workflow state
func (w *Workflow) State() WorkflowState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Draft returns a copy of the current draft
func (w *Workflow) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// Open starts a draft against the given lawyer. Opening while a draft
// already exists replaces it.
func (w *Workflow) Open(lawyerID int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft = Draft{Lawyer: lawyerID}
	w.state = Drafting
}

// SetSchedule records the requested date and time on the draft
func (w *Workflow) SetSchedule(date, timeOfDay string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != Drafting {
		return apperrors.InvalidInputError("schedule", "no draft open")
	}
	w.draft.Date = date
	w.draft.Time = timeOfDay
	return nil
}

// SetMessage records the consultation message on the draft
func (w *Workflow) SetMessage(message string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != Drafting {
		return apperrors.InvalidInputError("message", "no draft open")
	}
	w.draft.Message = message
	return nil
}

// Discard abandons the draft without any network activity
func (w *Workflow) Discard() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft = Draft{}
	w.state = Closed
}

// Submit validates the draft and sends it. Validation failures surface
// before any request is made. A backend rejection or transport failure
// returns the workflow to Drafting with the draft unchanged; success
// closes the draft and returns the created booking.
func (w *Workflow) Submit(ctx context.Context) (*models.Booking, error) {
	w.mu.Lock()
	if w.state != Drafting {
		w.mu.Unlock()
		return nil, apperrors.InvalidInputError("submit", "no draft open")
	}
	draft := w.draft
	w.mu.Unlock()

	if err := w.validate.Struct(draft); err != nil {
		return nil, apperrors.InvalidInputError("booking", err.Error())
	}

	w.mu.Lock()
	w.state = Submitting
	w.mu.Unlock()

	var created models.Booking
	if err := w.transport.Post(ctx, "/bookings/", draft, &created); err != nil {
		w.mu.Lock()
		w.state = Drafting
		w.mu.Unlock()
		metrics.BookingsSubmitted.WithLabelValues("error").Inc()
		logger.LogError(err, "booking submit failed", zap.Int("lawyer", draft.Lawyer))
		return nil, err
	}

	w.mu.Lock()
	w.draft = Draft{}
	w.state = Closed
	w.mu.Unlock()

	metrics.BookingsSubmitted.WithLabelValues("ok").Inc()
	logger.Info("booking submitted",
		zap.Int("lawyer", draft.Lawyer),
		zap.String("date", draft.Date),
		zap.String("time", draft.Time))
	return &created, nil
}
