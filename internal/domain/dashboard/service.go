// Package dashboard builds the clinic overview shown on the home screen:
// today's appointments, the next ones, the patient count and the month's
// cash flow.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ehr/odonto/internal/domain/agenda"
	"github.com/ehr/odonto/internal/domain/ledger"
	"github.com/ehr/odonto/internal/domain/patient"
)

// UpcomingLimit is how many future events the overview lists.
const UpcomingLimit = 5

// upcomingHorizon bounds the agenda query for upcoming events.
const upcomingHorizon = 90 * 24 * time.Hour

type Events interface {
	ListRange(ctx context.Context, from, to time.Time) ([]*agenda.Event, error)
}

type Patients interface {
	ListPatients(ctx context.Context, limit, offset int) ([]*patient.Patient, int, error)
}

type Ledger interface {
	Summary(ctx context.Context, f ledger.Filter) (ledger.Summary, error)
}

type Overview struct {
	Date          time.Time       `json:"date"`
	TodayCount    int             `json:"today_count"`
	Today         []*agenda.Event `json:"today"`
	Upcoming      []*agenda.Event `json:"upcoming"`
	PatientsTotal int             `json:"patients_total"`
	MonthStart    time.Time       `json:"month_start"`
	MonthEnd      time.Time       `json:"month_end"`
	Month         ledger.Summary  `json:"month"`
}

type Service struct {
	events   Events
	patients Patients
	ledger   Ledger
	now      func() time.Time
}

func NewService(events Events, patients Patients, ledger Ledger) *Service {
	return &Service{events: events, patients: patients, ledger: ledger, now: time.Now}
}

// Overview summarizes the clinic for the calendar day of at. A zero at means
// now. Upcoming events start after at; cancelled ones are left out.
func (s *Service) Overview(ctx context.Context, at time.Time) (*Overview, error) {
	if at.IsZero() {
		at = s.now()
	}
	at = at.UTC()
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)

	today, err := s.events.ListRange(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("list today's events: %w", err)
	}

	next, err := s.events.ListRange(ctx, at, at.Add(upcomingHorizon))
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	upcoming := make([]*agenda.Event, 0, UpcomingLimit)
	for _, e := range next {
		if e.Start.After(at) && e.Status != agenda.StatusCancelled {
			upcoming = append(upcoming, e)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool { return upcoming[i].Start.Before(upcoming[j].Start) })
	if len(upcoming) > UpcomingLimit {
		upcoming = upcoming[:UpcomingLimit]
	}

	_, total, err := s.patients.ListPatients(ctx, 1, 0)
	if err != nil {
		return nil, fmt.Errorf("count patients: %w", err)
	}

	// ledger dates are inclusive days
	monthStart := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)
	month, err := s.ledger.Summary(ctx, ledger.Filter{From: &monthStart, To: &monthEnd})
	if err != nil {
		return nil, fmt.Errorf("summarize month: %w", err)
	}

	if today == nil {
		today = []*agenda.Event{}
	}
	return &Overview{
		Date:          day,
		TodayCount:    len(today),
		Today:         today,
		Upcoming:      upcoming,
		PatientsTotal: total,
		MonthStart:    monthStart,
		MonthEnd:      monthEnd,
		Month:         month,
	}, nil
}
