package ledger

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/odonto/internal/platform/websocket"
)

type Service struct {
	transactions Repository
	notify       websocket.Notifier
}

func NewService(transactions Repository, notify websocket.Notifier) *Service {
	if notify == nil {
		notify = websocket.Discard
	}
	return &Service{transactions: transactions, notify: notify}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func validate(t *Transaction) error {
	if !t.Direction.Valid() {
		return fmt.Errorf("invalid direction: %s", t.Direction)
	}
	t.Description = strings.TrimSpace(t.Description)
	if t.Description == "" {
		return fmt.Errorf("description is required")
	}
	if math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) || t.Amount <= 0 {
		return fmt.Errorf("amount must be greater than zero")
	}
	t.Amount = roundCents(t.Amount)
	if t.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	t.Date = day(t.Date)
	t.Category = strings.TrimSpace(t.Category)
	if t.Category == "" {
		t.Category = CategoryGeneral
	}

	switch t.Direction {
	case Inflow:
		if t.ExpenseType != nil {
			return fmt.Errorf("expense_type applies to outflows only")
		}
		if t.PaymentMethod != nil && !t.PaymentMethod.Valid() {
			return fmt.Errorf("invalid payment_method: %s", *t.PaymentMethod)
		}
	case Outflow:
		if t.PaymentMethod != nil {
			return fmt.Errorf("payment_method applies to inflows only")
		}
		if t.ExpenseType == nil {
			na := ExpenseNA
			t.ExpenseType = &na
		}
		if !t.ExpenseType.Valid() {
			return fmt.Errorf("invalid expense_type: %s", *t.ExpenseType)
		}
	}
	return nil
}

func (s *Service) CreateTransaction(ctx context.Context, t *Transaction) error {
	if err := validate(t); err != nil {
		return err
	}
	if err := s.transactions.Create(ctx, t); err != nil {
		return err
	}
	s.notify.Notify(ctx, websocket.ResourceLedger, "created", t.ID, t)
	return nil
}

func (s *Service) GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return s.transactions.GetByID(ctx, id)
}

func (s *Service) UpdateTransaction(ctx context.Context, t *Transaction) error {
	if err := validate(t); err != nil {
		return err
	}
	if err := s.transactions.Update(ctx, t); err != nil {
		return err
	}
	s.notify.Notify(ctx, websocket.ResourceLedger, "updated", t.ID, t)
	return nil
}

func (s *Service) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	if err := s.transactions.Delete(ctx, id); err != nil {
		return err
	}
	s.notify.Notify(ctx, websocket.ResourceLedger, "deleted", id, nil)
	return nil
}

func checkFilter(f Filter) error {
	if f.Direction != "" && !f.Direction.Valid() {
		return fmt.Errorf("invalid direction: %s", f.Direction)
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return fmt.Errorf("to must not be before from")
	}
	return nil
}

func (s *Service) ListTransactions(ctx context.Context, f Filter, limit, offset int) ([]*Transaction, int, error) {
	if err := checkFilter(f); err != nil {
		return nil, 0, err
	}
	return s.transactions.List(ctx, f, limit, offset)
}

func (s *Service) ListByTreatment(ctx context.Context, treatmentID uuid.UUID) ([]*Transaction, error) {
	return s.transactions.ListByTreatment(ctx, treatmentID)
}

// Summary totals inflows and outflows for the filter.
func (s *Service) Summary(ctx context.Context, f Filter) (Summary, error) {
	if err := checkFilter(f); err != nil {
		return Summary{}, err
	}
	return s.transactions.Summarize(ctx, f)
}

// Export writes every transaction matching f to w as an XLSX workbook.
func (s *Service) Export(ctx context.Context, f Filter, w io.Writer) error {
	if err := checkFilter(f); err != nil {
		return err
	}
	items, _, err := s.transactions.List(ctx, f, -1, 0)
	if err != nil {
		return err
	}
	return WriteXLSX(w, items)
}
