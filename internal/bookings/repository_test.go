package bookings

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
)

func bookingRows(mock pgxmock.PgxPoolIface, list ...*Booking) *pgxmock.Rows {
	rows := mock.NewRows([]string{
		"id", "agent_id", "lead_id", "property_id", "type",
		"scheduled_at", "duration_minutes", "end_at",
		"customer_name", "customer_phone", "customer_email",
		"property_reference", "property_address",
		"status", "cancelled_at", "cancelled_by", "cancel_reason", "notes",
		"created_at", "updated_at", "deleted_at",
	})
	for _, b := range list {
		var cancelledAt *time.Time
		var cancelledBy, reason *string
		if b.Cancellation != nil {
			cancelledAt = &b.Cancellation.At
			cancelledBy = &b.Cancellation.By
			reason = &b.Cancellation.Reason
		}
		rows.AddRow(
			b.ID, b.AgentID, b.LeadID, b.PropertyID, b.Type,
			b.ScheduledAt, b.DurationMinutes, b.EndAt,
			b.Customer.Name, b.Customer.Phone, b.Customer.Email,
			b.Property.Reference, b.Property.Address,
			b.Status, cancelledAt, cancelledBy, reason, b.Notes,
			b.CreatedAt, b.UpdatedAt, b.DeletedAt,
		)
	}
	return rows
}

func sampleBooking() *Booking {
	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	b := &Booking{
		ID:              "bk-1",
		AgentID:         "agent-1",
		PropertyID:      "prop-1",
		Type:            TypeViewing,
		ScheduledAt:     start,
		DurationMinutes: 30,
		Customer:        Customer{Name: "Sophie Davies", Phone: "07700900123"},
		Status:          StatusPending,
		CreatedAt:       start.Add(-48 * time.Hour),
		UpdatedAt:       start.Add(-48 * time.Hour),
	}
	b.DeriveEnd()
	return b
}

func TestRepository_FindOverlapping(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	existing := sampleBooking()
	start := existing.ScheduledAt.Add(15 * time.Minute)
	end := start.Add(30 * time.Minute)

	mock.ExpectQuery("SELECT(.|\n)*FROM bookings").
		WithArgs("agent-1", end, start).
		WillReturnRows(bookingRows(mock, existing))

	repo := NewRepository(mock)
	got, err := repo.FindOverlapping(context.Background(), "agent-1", "", start, end, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != existing.ID {
		t.Fatalf("expected the overlapping booking back, got %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRepository_FindOverlapping_ExcludesSelfAndScopesProperty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	mock.ExpectQuery("SELECT(.|\n)*FROM bookings").
		WithArgs("agent-1", end, start, "prop-1", "bk-1").
		WillReturnRows(bookingRows(mock))

	repo := NewRepository(mock)
	got, err := repo.FindOverlapping(context.Background(), "agent-1", "prop-1", start, end, "bk-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no overlaps, got %d", len(got))
	}
}

func TestRepository_GetForAgent_ScansCancellation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	want := sampleBooking()
	want.Status = StatusCancelled
	want.Cancellation = &Cancellation{
		At:     time.Date(2026, 3, 13, 9, 0, 0, 0, time.UTC),
		By:     CancelledByCustomer,
		Reason: "found another flat",
	}

	mock.ExpectQuery("SELECT(.|\n)*FROM bookings").
		WithArgs(want.ID, want.AgentID).
		WillReturnRows(bookingRows(mock, want))

	repo := NewRepository(mock)
	got, err := repo.GetForAgent(context.Background(), want.AgentID, want.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cancellation == nil || got.Cancellation.By != CancelledByCustomer {
		t.Fatalf("cancellation block not rehydrated: %+v", got.Cancellation)
	}
}

func TestRepository_SoftDelete_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectExec("UPDATE bookings").
		WithArgs("missing", "agent-1", now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewRepository(mock)
	if err := repo.SoftDelete(context.Background(), "agent-1", "missing", now); err != ErrBookingNotFound {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}
}
