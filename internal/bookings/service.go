package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/royalresponse/platform/internal/leads"
	"github.com/royalresponse/platform/internal/observability/metrics"
	"github.com/royalresponse/platform/pkg/logging"
)

var bookingTracer = otel.Tracer("royalresponse/bookings")

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, b *Booking) error
	GetForAgent(ctx context.Context, agentID, id string) (*Booking, error)
	Save(ctx context.Context, b *Booking) error
	List(ctx context.Context, agentID string, f ListFilter) ([]*Booking, error)
	FindOverlapping(ctx context.Context, agentID, propertyID string, start, end time.Time, excludeID string) ([]*Booking, error)
	ListActiveBetween(ctx context.Context, agentID string, from, to time.Time) ([]*Booking, error)
	SoftDelete(ctx context.Context, agentID, id string, now time.Time) error
}

// Locker serializes booking admission per tenant.
type Locker interface {
	Acquire(ctx context.Context, agentID string) (func(), error)
}

// LeadMarker is the slice of the lead service the booking flow needs.
type LeadMarker interface {
	MarkViewingBooked(ctx context.Context, agentID, id string) (*leads.Lead, error)
}

// Options is the scheduling policy the service runs under.
type Options struct {
	Window                 Window
	SlotGranularityMinutes int
	DefaultDurationMinutes int
	// ConflictPerProperty scopes overlap checks to the booked listing
	// instead of the whole tenant diary.
	ConflictPerProperty bool
}

func (o *Options) fillDefaults() {
	if o.Window.Start == "" || o.Window.End == "" {
		o.Window = DefaultWindow
	}
	if o.SlotGranularityMinutes <= 0 {
		o.SlotGranularityMinutes = 30
	}
	if o.DefaultDurationMinutes <= 0 {
		o.DefaultDurationMinutes = 30
	}
}

// Service is the booking lifecycle manager. Admission runs under the
// tenant's lock: the overlap check and the insert happen inside one
// critical section, so concurrent requests for the same slot cannot both
// pass the check.
type Service struct {
	store  Store
	locker Locker
	leads  LeadMarker
	opts   Options
	logger *logging.Logger
	now    func() time.Time
	newID  func() string
}

// NewService creates a booking service. locker and leadSvc may be nil in
// tests; production wiring supplies both.
func NewService(store Store, locker Locker, leadSvc LeadMarker, opts Options, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	opts.fillDefaults()
	return &Service{
		store:  store,
		locker: locker,
		leads:  leadSvc,
		opts:   opts,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.NewString() },
	}
}

func (s *Service) conflictScope(propertyID string) string {
	if s.opts.ConflictPerProperty {
		return propertyID
	}
	return ""
}

func (s *Service) withLock(ctx context.Context, agentID string, fn func() error) error {
	if s.locker == nil {
		return fn()
	}
	release, err := s.locker.Acquire(ctx, agentID)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// Create admits a booking: validate, derive the end time, check for
// overlap under the tenant lock, persist as pending, then move the linked
// lead to viewing-booked. On conflict nothing is written and the lead is
// untouched.
func (s *Service) Create(ctx context.Context, agentID string, req *CreateBookingRequest) (*Booking, error) {
	ctx, span := bookingTracer.Start(ctx, "bookings.create")
	defer span.End()
	span.SetAttributes(attribute.String("agent_id", agentID))

	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	kind := req.Type
	if kind == "" {
		kind = TypeViewing
	}
	duration := req.DurationMinutes
	if duration == 0 {
		duration = s.opts.DefaultDurationMinutes
	}

	b := &Booking{
		ID:              s.newID(),
		AgentID:         agentID,
		LeadID:          req.LeadID,
		PropertyID:      req.PropertyID,
		Type:            kind,
		ScheduledAt:     req.ScheduledAt.UTC(),
		DurationMinutes: duration,
		Customer: Customer{
			Name:  req.CustomerName,
			Phone: req.CustomerPhone,
			Email: req.CustomerEmail,
		},
		Status:    StatusPending,
		Notes:     req.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.DeriveEnd()

	err := s.withLock(ctx, agentID, func() error {
		clashes, err := s.store.FindOverlapping(ctx, agentID, s.conflictScope(b.PropertyID), b.ScheduledAt, b.EndAt, "")
		if err != nil {
			return err
		}
		if len(clashes) > 0 {
			metrics.BookingConflicts.Inc()
			return ErrSlotUnavailable
		}
		return s.store.Insert(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		"booking_id", b.ID,
		"agent_id", agentID,
		"type", b.Type,
		"scheduled_at", b.ScheduledAt,
	)

	if b.LeadID != "" && s.leads != nil {
		if _, err := s.leads.MarkViewingBooked(ctx, agentID, b.LeadID); err != nil {
			// The booking stands even if the lead update fails.
			s.logger.Warn("failed to mark lead viewing-booked",
				"error", err, "booking_id", b.ID, "lead_id", b.LeadID)
		}
	}
	return b, nil
}

// Get returns one booking scoped to the tenant.
func (s *Service) Get(ctx context.Context, agentID, id string) (*Booking, error) {
	return s.store.GetForAgent(ctx, agentID, id)
}

// List returns the tenant's bookings, filtered and in chronological order.
func (s *Service) List(ctx context.Context, agentID string, f ListFilter) ([]*Booking, error) {
	return s.store.List(ctx, agentID, f)
}

// Update applies a merge patch. Moving the booking in time re-derives the
// end and re-runs the conflict check, excluding the booking itself.
func (s *Service) Update(ctx context.Context, agentID, id string, req *UpdateBookingRequest) (*Booking, error) {
	ctx, span := bookingTracer.Start(ctx, "bookings.update")
	defer span.End()

	if req.Type != nil && !validTypes[*req.Type] {
		return nil, ErrInvalidType
	}
	if req.DurationMinutes != nil && *req.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	b, err := s.store.GetForAgent(ctx, agentID, id)
	if err != nil {
		return nil, err
	}
	if !b.Active() {
		return nil, fmt.Errorf("%w: cannot edit a %s booking", ErrInvalidTransition, b.Status)
	}

	if req.Type != nil {
		b.Type = *req.Type
	}
	if req.ScheduledAt != nil {
		b.ScheduledAt = req.ScheduledAt.UTC()
	}
	if req.DurationMinutes != nil {
		b.DurationMinutes = *req.DurationMinutes
	}
	if req.CustomerName != nil {
		b.Customer.Name = *req.CustomerName
	}
	if req.CustomerPhone != nil {
		b.Customer.Phone = *req.CustomerPhone
	}
	if req.CustomerEmail != nil {
		b.Customer.Email = *req.CustomerEmail
	}
	if req.Notes != nil {
		b.Notes = *req.Notes
	}
	b.DeriveEnd()
	b.UpdatedAt = s.now()

	save := func() error { return s.store.Save(ctx, b) }
	if req.MovesTime() {
		err = s.withLock(ctx, agentID, func() error {
			clashes, err := s.store.FindOverlapping(ctx, agentID, s.conflictScope(b.PropertyID), b.ScheduledAt, b.EndAt, b.ID)
			if err != nil {
				return err
			}
			if len(clashes) > 0 {
				metrics.BookingConflicts.Inc()
				return ErrSlotUnavailable
			}
			return save()
		})
	} else {
		err = save()
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) transition(ctx context.Context, agentID, id, to string, mutate func(*Booking)) (*Booking, error) {
	b, err := s.store.GetForAgent(ctx, agentID, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(b.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, to)
	}

	b.Status = to
	b.UpdatedAt = s.now()
	if mutate != nil {
		mutate(b)
	}
	if err := s.store.Save(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("booking status changed", "booking_id", b.ID, "agent_id", agentID, "status", to)
	return b, nil
}

// Confirm moves a pending booking to confirmed.
func (s *Service) Confirm(ctx context.Context, agentID, id string) (*Booking, error) {
	return s.transition(ctx, agentID, id, StatusConfirmed, nil)
}

// Complete closes out a confirmed booking that took place.
func (s *Service) Complete(ctx context.Context, agentID, id string) (*Booking, error) {
	return s.transition(ctx, agentID, id, StatusCompleted, nil)
}

// MarkNoShow records that the customer did not turn up.
func (s *Service) MarkNoShow(ctx context.Context, agentID, id string) (*Booking, error) {
	return s.transition(ctx, agentID, id, StatusNoShow, nil)
}

// Cancel cancels an active booking and records who and why. The linked
// lead's status is left as-is: a cancelled viewing does not un-qualify the
// lead.
func (s *Service) Cancel(ctx context.Context, agentID, id string, req CancelRequest) (*Booking, error) {
	by := req.By
	switch by {
	case CancelledByCustomer, CancelledByAgent, CancelledBySystem:
	default:
		by = CancelledByAgent
	}

	return s.transition(ctx, agentID, id, StatusCancelled, func(b *Booking) {
		b.Cancellation = &Cancellation{At: s.now(), By: by, Reason: req.Reason}
	})
}

// Delete soft-deletes a booking.
func (s *Service) Delete(ctx context.Context, agentID, id string) error {
	return s.store.SoftDelete(ctx, agentID, id, s.now())
}

// Availability is the slot breakdown for one day.
type Availability struct {
	Date      string   `json:"date"`
	Available []string `json:"available"`
	Occupied  []string `json:"occupied"`
}

// AvailabilityFor returns the free and taken slots for a date, considering
// only the tenant's active bookings.
func (s *Service) AvailabilityFor(ctx context.Context, agentID string, date time.Time) (*Availability, error) {
	ctx, span := bookingTracer.Start(ctx, "bookings.availability")
	defer span.End()

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	existing, err := s.store.ListActiveBetween(ctx, agentID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	free, occupied, err := ComputeSlots(dayStart, existing, s.opts.Window, s.opts.SlotGranularityMinutes)
	if err != nil {
		return nil, err
	}
	return &Availability{
		Date:      dayStart.Format("2006-01-02"),
		Available: free,
		Occupied:  occupied,
	}, nil
}
