package ledger

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// -- Mock Repository --

type mockTransactionRepo struct {
	items map[uuid.UUID]*Transaction
}

func newMockTransactionRepo() *mockTransactionRepo {
	return &mockTransactionRepo{items: make(map[uuid.UUID]*Transaction)}
}

func (m *mockTransactionRepo) Create(_ context.Context, t *Transaction) error {
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	t.UpdatedAt = time.Now()
	m.items[t.ID] = t
	return nil
}

func (m *mockTransactionRepo) GetByID(_ context.Context, id uuid.UUID) (*Transaction, error) {
	t, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t, nil
}

func (m *mockTransactionRepo) Update(_ context.Context, t *Transaction) error {
	if _, ok := m.items[t.ID]; !ok {
		return ErrNotFound
	}
	m.items[t.ID] = t
	return nil
}

func (m *mockTransactionRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.items, id)
	return nil
}

func matches(f Filter, t *Transaction) bool {
	if f.From != nil && t.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && t.Date.After(*f.To) {
		return false
	}
	if f.Direction != "" && t.Direction != f.Direction {
		return false
	}
	if f.PatientID != nil && (t.PatientID == nil || *t.PatientID != *f.PatientID) {
		return false
	}
	return true
}

func (m *mockTransactionRepo) List(_ context.Context, f Filter, limit, offset int) ([]*Transaction, int, error) {
	var out []*Transaction
	for _, t := range m.items {
		if matches(f, t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, len(out), nil
}

func (m *mockTransactionRepo) ListByTreatment(_ context.Context, treatmentID uuid.UUID) ([]*Transaction, error) {
	var out []*Transaction
	for _, t := range m.items {
		if t.TreatmentID != nil && *t.TreatmentID == treatmentID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTransactionRepo) Summarize(ctx context.Context, f Filter) (Summary, error) {
	items, _, _ := m.List(ctx, f, -1, 0)
	return Summarize(items), nil
}

func newTestService() (*Service, *mockTransactionRepo) {
	repo := newMockTransactionRepo()
	return NewService(repo, nil), repo
}

var june = time.Date(2024, 6, 10, 15, 45, 0, 0, time.UTC)

func method(m PaymentMethod) *PaymentMethod { return &m }
func expense(e ExpenseType) *ExpenseType    { return &e }

// -- Tests --

func TestService_CreateTransaction_Inflow(t *testing.T) {
	svc, _ := newTestService()
	tx := &Transaction{Direction: Inflow, Date: june, Description: "Consulta", Amount: 150.004, PaymentMethod: method(PaymentPix)}
	if err := svc.CreateTransaction(context.Background(), tx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tx.Date.Equal(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v, want day granularity", tx.Date)
	}
	if tx.Amount != 150 {
		t.Errorf("Amount = %v", tx.Amount)
	}
	if tx.Category != CategoryGeneral {
		t.Errorf("Category = %q", tx.Category)
	}
}

func TestService_CreateTransaction_OutflowDefaultsExpenseType(t *testing.T) {
	svc, _ := newTestService()
	tx := &Transaction{Direction: Outflow, Date: june, Description: "Aluguel", Amount: 2000}
	if err := svc.CreateTransaction(context.Background(), tx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.ExpenseType == nil || *tx.ExpenseType != ExpenseNA {
		t.Errorf("ExpenseType = %v", tx.ExpenseType)
	}
}

func TestService_CreateTransaction_Validation(t *testing.T) {
	svc, repo := newTestService()
	tests := []struct {
		name string
		tx   Transaction
	}{
		{"unknown direction", Transaction{Direction: "sideways", Date: june, Description: "x", Amount: 1}},
		{"missing description", Transaction{Direction: Inflow, Date: june, Amount: 1}},
		{"zero amount", Transaction{Direction: Inflow, Date: june, Description: "x"}},
		{"negative amount", Transaction{Direction: Inflow, Date: june, Description: "x", Amount: -5}},
		{"missing date", Transaction{Direction: Inflow, Description: "x", Amount: 1}},
		{"bad payment method", Transaction{Direction: Inflow, Date: june, Description: "x", Amount: 1, PaymentMethod: method("Cheque")}},
		{"expense type on inflow", Transaction{Direction: Inflow, Date: june, Description: "x", Amount: 1, ExpenseType: expense(ExpenseFixed)}},
		{"payment method on outflow", Transaction{Direction: Outflow, Date: june, Description: "x", Amount: 1, PaymentMethod: method(PaymentCash)}},
		{"bad expense type", Transaction{Direction: Outflow, Date: june, Description: "x", Amount: 1, ExpenseType: expense("Variável")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := tt.tx
			if err := svc.CreateTransaction(context.Background(), &tx); err == nil {
				t.Error("expected error")
			}
		})
	}
	if len(repo.items) != 0 {
		t.Error("invalid transactions must not be stored")
	}
}

func TestService_UpdateTransaction_NotFound(t *testing.T) {
	svc, _ := newTestService()
	err := svc.UpdateTransaction(context.Background(), &Transaction{ID: uuid.New(), Direction: Inflow, Date: june, Description: "x", Amount: 1})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func seed(t *testing.T, svc *Service) {
	t.Helper()
	for _, tx := range []*Transaction{
		{Direction: Inflow, Date: june, Description: "Restauração", Amount: 250, Category: CategoryProcedure, PaymentMethod: method(PaymentCredit)},
		{Direction: Inflow, Date: june.AddDate(0, 0, 1), Description: "Limpeza", Amount: 120.5},
		{Direction: Outflow, Date: june.AddDate(0, 0, 2), Description: "Material", Amount: 80.25, ExpenseType: expense(ExpenseExtra)},
		{Direction: Outflow, Date: june.AddDate(0, 1, 0), Description: "Aluguel", Amount: 2000, ExpenseType: expense(ExpenseFixed)},
	} {
		if err := svc.CreateTransaction(context.Background(), tx); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestService_Summary(t *testing.T) {
	svc, _ := newTestService()
	seed(t, svc)
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	s, err := svc.Summary(context.Background(), Filter{From: &from, To: &to})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Inflow != 370.5 || s.Outflow != 80.25 || s.Balance != 290.25 || s.Count != 3 {
		t.Errorf("unexpected summary %+v", s)
	}
}

func TestService_ListTransactions_Filter(t *testing.T) {
	svc, _ := newTestService()
	seed(t, svc)

	items, total, err := svc.ListTransactions(context.Background(), Filter{Direction: Outflow}, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || items[0].Description != "Aluguel" {
		t.Errorf("got %d items, first %q", total, items[0].Description)
	}
	if _, _, err := svc.ListTransactions(context.Background(), Filter{Direction: "up"}, 20, 0); err == nil {
		t.Error("expected error for unknown direction")
	}
	from, to := june, june.AddDate(0, 0, -1)
	if _, _, err := svc.ListTransactions(context.Background(), Filter{From: &from, To: &to}, 20, 0); err == nil {
		t.Error("expected error for inverted range")
	}
}

func TestService_Export(t *testing.T) {
	svc, _ := newTestService()
	seed(t, svc)

	var buf bytes.Buffer
	if err := svc.Export(context.Background(), Filter{}, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if rows[0][0] != "Data" || rows[0][7] != "Valor" {
		t.Errorf("unexpected header %v", rows[0])
	}
	// header + 4 transactions + blank + 3 totals
	if len(rows) != 9 {
		t.Fatalf("expected 9 rows, got %d", len(rows))
	}
	if rows[1][2] != "Aluguel" || rows[1][1] != "Saída" {
		t.Errorf("expected latest outflow first, got %v", rows[1])
	}
	balance, _ := f.GetCellValue(exportSheet, "H9", excelize.Options{RawCellValue: true})
	label, _ := f.GetCellValue(exportSheet, "G9")
	if label != "Saldo" || balance != "-1709.75" {
		t.Errorf("balance row = %q %q", label, balance)
	}
}

func TestTransaction_Signed(t *testing.T) {
	in := &Transaction{Direction: Inflow, Amount: 10}
	out := &Transaction{Direction: Outflow, Amount: 10}
	if in.Signed() != 10 || out.Signed() != -10 {
		t.Error("unexpected signed amounts")
	}
}
