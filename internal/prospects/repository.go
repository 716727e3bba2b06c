package prospects

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
)

const prospectColumns = `id, agency_name, contact_name, contact_title, location, phone, email, website,
	       current_crm, branches, team_size, monthly_enquiries, pain_points, channels_interested,
	       status, lost_reason, demo_date, fit_score, next_action, notes, created_at, updated_at`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func scanProspect(row interface{ Scan(...any) error }) (*Prospect, error) {
	var p Prospect
	err := row.Scan(&p.ID, &p.AgencyName, &p.ContactName, &p.ContactTitle, &p.Location,
		&p.Phone, &p.Email, &p.Website, &p.CurrentCRM, &p.Branches, &p.TeamSize,
		&p.MonthlyEnquiries, pq.Array(&p.PainPoints), pq.Array(&p.ChannelsInterested),
		&p.Status, &p.LostReason, &p.DemoDate, &p.FitScore, &p.NextAction, &p.Notes,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if p.PainPoints == nil {
		p.PainPoints = []string{}
	}
	if p.ChannelsInterested == nil {
		p.ChannelsInterested = []string{}
	}
	return &p, nil
}

func (r *Repository) List(ctx context.Context) ([]Prospect, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+prospectColumns+`
		FROM prospects ORDER BY fit_score DESC, updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Prospect
	for rows.Next() {
		p, err := scanProspect(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if out == nil {
		out = []Prospect{}
	}
	return out, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id string) (*Prospect, error) {
	p, err := scanProspect(r.db.QueryRowContext(ctx, `
		SELECT `+prospectColumns+`
		FROM prospects WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	events, err := r.ListEvents(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Timeline = events
	return p, nil
}

func (r *Repository) Upsert(ctx context.Context, p *Prospect) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO prospects (id, agency_name, contact_name, contact_title, location, phone, email, website,
		    current_crm, branches, team_size, monthly_enquiries, pain_points, channels_interested,
		    status, lost_reason, demo_date, fit_score, next_action, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$21)
		ON CONFLICT (id) DO UPDATE SET
		    agency_name=EXCLUDED.agency_name, contact_name=EXCLUDED.contact_name, contact_title=EXCLUDED.contact_title,
		    location=EXCLUDED.location, phone=EXCLUDED.phone, email=EXCLUDED.email, website=EXCLUDED.website,
		    current_crm=EXCLUDED.current_crm, branches=EXCLUDED.branches, team_size=EXCLUDED.team_size,
		    monthly_enquiries=EXCLUDED.monthly_enquiries, pain_points=EXCLUDED.pain_points,
		    channels_interested=EXCLUDED.channels_interested, status=EXCLUDED.status,
		    lost_reason=EXCLUDED.lost_reason, demo_date=EXCLUDED.demo_date, fit_score=EXCLUDED.fit_score,
		    next_action=EXCLUDED.next_action, notes=EXCLUDED.notes, updated_at=$21`,
		p.ID, p.AgencyName, p.ContactName, p.ContactTitle, p.Location, p.Phone, p.Email, p.Website,
		p.CurrentCRM, p.Branches, p.TeamSize, p.MonthlyEnquiries, pq.Array(p.PainPoints),
		pq.Array(p.ChannelsInterested), p.Status, p.LostReason, p.DemoDate, p.FitScore,
		p.NextAction, p.Notes, now)
	return err
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM prospects WHERE id = $1`, id)
	return err
}

func (r *Repository) AddEvent(ctx context.Context, e *Event) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO prospect_events (prospect_id, event_type, event_date, note)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		e.ProspectID, e.Type, e.Date, e.Note).Scan(&e.ID)
}

func (r *Repository) ListEvents(ctx context.Context, prospectID string) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, prospect_id, event_type, event_date, note
		FROM prospect_events WHERE prospect_id = $1 ORDER BY event_date ASC`, prospectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.ProspectID, &e.Type, &e.Date, &e.Note); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if out == nil {
		out = []Event{}
	}
	return out, rows.Err()
}
