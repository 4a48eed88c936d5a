package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/consultlaw/consultlaw-go/internal/models"
	apperrors "github.com/consultlaw/consultlaw-go/pkg/errors"
	"github.com/consultlaw/consultlaw-go/pkg/logger"
	"github.com/consultlaw/consultlaw-go/pkg/metrics"
	"go.uber.org/zap"
)

// ErrSuperseded reports that a load's response arrived after a newer
// load had already started, so its result was discarded.
var ErrSuperseded = errors.New("load superseded by a newer request")

// ErrClosed reports an operation against a closed list view.
var ErrClosed = errors.New("list view closed")

// Filter selects which slice of the booking list to fetch.
type Filter string

const (
	FilterAll      Filter = "all"
	FilterUpcoming Filter = "upcoming"
	FilterPast     Filter = "past"
)

// Valid reports whether the filter is one the backend accepts
func (f Filter) Valid() bool {
	switch f {
	case FilterAll, FilterUpcoming, FilterPast:
		return true
	}
	return false
}

// ListTransport is the slice of the HTTP client the list view needs.
type ListTransport interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// ListOption configures a ListView.
type ListOption func(*ListView)

// WithSource points the view at a different listing endpoint. Sources
// other than the default client list do not accept filters.
func WithSource(path string, filterable bool) ListOption {
	return func(v *ListView) {
		v.sourcePath = path
		v.filterable = filterable
	}
}

// WithCancelReconcile reloads the list in the background after a cancel
// succeeds, replacing the optimistic local removal with server truth.
func WithCancelReconcile() ListOption {
	return func(v *ListView) {
		v.reconcileAfterCancel = true
	}
}

// ListView holds the fetched booking list. Loads replace the list
// wholesale; when loads overlap, only the newest one may publish its
// result, and the response of any older in-flight load is discarded
// regardless of arrival order.
type ListView struct {
	transport  ListTransport
	sourcePath string
	filterable bool

	reconcileAfterCancel bool

	mu             sync.Mutex
	seq            uint64
	inflightCancel context.CancelFunc
	filter         Filter
	bookings       []models.Booking
	closed         bool
}

// NewListView creates a view over the client's own bookings unless a
// different source is configured.
func NewListView(transport ListTransport, opts ...ListOption) *ListView {
	v := &ListView{
		transport:  transport,
		sourcePath: "/auth/my-bookings/",
		filterable: true,
		filter:     FilterAll,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Filter returns the filter of the most recent load request
func (v *ListView) Filter() Filter {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filter
}

// Bookings returns a copy of the currently displayed list
func (v *ListView) Bookings() []models.Booking {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]models.Booking, len(v.bookings))
	copy(out, v.bookings)
	return out
}

// Load fetches the list with the given filter and replaces the view's
// contents. Starting a load cancels any load still in flight; a load
// whose response loses the race returns ErrSuperseded and leaves the
// view untouched.
func (v *ListView) Load(ctx context.Context, filter Filter) error {
	if v.filterable && !filter.Valid() {
		return apperrors.InvalidInputError("filter", fmt.Sprintf("unknown filter %q", filter))
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	v.seq++
	mySeq := v.seq
	if v.inflightCancel != nil {
		v.inflightCancel()
	}
	loadCtx, cancel := context.WithCancel(ctx)
	v.inflightCancel = cancel
	if v.filterable {
		v.filter = filter
	}
	v.mu.Unlock()
	defer cancel()

	path := v.sourcePath
	if v.filterable && filter != FilterAll {
		path = fmt.Sprintf("%s?filter=%s", v.sourcePath, filter)
	}

	var fetched []models.Booking
	err := v.transport.Get(loadCtx, path, &fetched)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	if mySeq != v.seq {
		metrics.StaleLoadsDiscarded.Inc()
		logger.Debug("discarding superseded booking load",
			zap.Uint64("seq", mySeq),
			zap.Uint64("current", v.seq))
		return ErrSuperseded
	}
	if err != nil {
		return err
	}
	v.bookings = fetched
	return nil
}

// Reload refetches the list with the current filter
func (v *ListView) Reload(ctx context.Context) error {
	return v.Load(ctx, v.Filter())
}

// Cancel asks the backend to cancel the booking, then removes exactly
// one matching entry from the local list. The request failing leaves
// the list untouched.
func (v *ListView) Cancel(ctx context.Context, bookingID int) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	v.mu.Unlock()

	path := fmt.Sprintf("/bookings/%d/cancel/", bookingID)
	if err := v.transport.Post(ctx, path, nil, nil); err != nil {
		metrics.BookingsCancelled.WithLabelValues("error").Inc()
		return err
	}
	metrics.BookingsCancelled.WithLabelValues("ok").Inc()

	v.mu.Lock()
	for i := range v.bookings {
		if v.bookings[i].ID == bookingID {
			v.bookings = append(v.bookings[:i], v.bookings[i+1:]...)
			break
		}
	}
	v.mu.Unlock()

	if v.reconcileAfterCancel {
		go func() {
			if err := v.Reload(context.WithoutCancel(ctx)); err != nil &&
				!errors.Is(err, ErrSuperseded) && !errors.Is(err, ErrClosed) {
				logger.Warn("post-cancel reconcile failed", zap.Error(err))
			}
		}()
	}
	return nil
}

// Details returns the stored lawyer contact details for a booking
func (v *ListView) Details(bookingID int) (models.LawyerDetails, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.bookings {
		if v.bookings[i].ID == bookingID {
			return v.bookings[i].Details(), nil
		}
	}
	return models.LawyerDetails{}, apperrors.NotFoundError(fmt.Sprintf("booking %d", bookingID))
}

// Close cancels any in-flight load and freezes the view. Responses that
// arrive after Close never mutate the list.
func (v *ListView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	if v.inflightCancel != nil {
		v.inflightCancel()
		v.inflightCancel = nil
	}
}
