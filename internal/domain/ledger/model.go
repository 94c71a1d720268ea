package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("transaction not found")

type Direction string

const (
	Inflow  Direction = "inflow"
	Outflow Direction = "outflow"
)

var directionLabels = map[Direction]string{
	Inflow:  "Entrada",
	Outflow: "Saída",
}

func (d Direction) Label() string { return directionLabels[d] }

func (d Direction) Valid() bool {
	_, ok := directionLabels[d]
	return ok
}

// PaymentMethod is how an inflow was paid. The values are the labels shown
// to the clinic.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "Dinheiro"
	PaymentPix    PaymentMethod = "Pix"
	PaymentCredit PaymentMethod = "Cartão de Crédito"
	PaymentDebit  PaymentMethod = "Cartão de Débito"
	PaymentOther  PaymentMethod = "Outro"
)

var validPaymentMethods = map[PaymentMethod]bool{
	PaymentCash:   true,
	PaymentPix:    true,
	PaymentCredit: true,
	PaymentDebit:  true,
	PaymentOther:  true,
}

func (m PaymentMethod) Valid() bool { return validPaymentMethods[m] }

// PaymentMethods lists the accepted payment methods in display order.
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{PaymentCash, PaymentPix, PaymentCredit, PaymentDebit, PaymentOther}
}

// ExpenseType classifies an outflow.
type ExpenseType string

const (
	ExpenseFixed     ExpenseType = "Fixo"
	ExpenseScheduled ExpenseType = "Programado"
	ExpenseExtra     ExpenseType = "Extra"
	ExpenseNA        ExpenseType = "N/A"
)

var validExpenseTypes = map[ExpenseType]bool{
	ExpenseFixed:     true,
	ExpenseScheduled: true,
	ExpenseExtra:     true,
	ExpenseNA:        true,
}

func (t ExpenseType) Valid() bool { return validExpenseTypes[t] }

const (
	// CategoryProcedure is the category of inflows recorded when a treatment
	// is paid.
	CategoryProcedure = "Procedimento Odontológico"
	CategoryGeneral   = "Geral"
)

// Transaction maps to the ledger_transaction table. Date is a calendar day.
type Transaction struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	Direction     Direction      `db:"direction" json:"direction"`
	Date          time.Time      `db:"date" json:"date"`
	Description   string         `db:"description" json:"description"`
	Amount        float64        `db:"amount" json:"amount"`
	Category      string         `db:"category" json:"category"`
	PatientID     *uuid.UUID     `db:"patient_id" json:"patient_id,omitempty"`
	PatientName   *string        `db:"patient_name" json:"patient_name,omitempty"`
	TreatmentID   *uuid.UUID     `db:"treatment_id" json:"treatment_id,omitempty"`
	PaymentMethod *PaymentMethod `db:"payment_method" json:"payment_method,omitempty"`
	ExpenseType   *ExpenseType   `db:"expense_type" json:"expense_type,omitempty"`
	Notes         *string        `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// Signed returns the amount as it affects the balance.
func (t *Transaction) Signed() float64 {
	if t.Direction == Outflow {
		return -t.Amount
	}
	return t.Amount
}

// Filter narrows listings, summaries and exports. Zero fields match all.
type Filter struct {
	From      *time.Time
	To        *time.Time
	Direction Direction
	PatientID *uuid.UUID
}

// Summary totals the transactions matching a filter.
type Summary struct {
	Inflow  float64 `json:"inflow"`
	Outflow float64 `json:"outflow"`
	Balance float64 `json:"balance"`
	Count   int     `json:"count"`
}

// Summarize totals items. Amounts are rounded to cents.
func Summarize(items []*Transaction) Summary {
	var s Summary
	for _, t := range items {
		switch t.Direction {
		case Inflow:
			s.Inflow += t.Amount
		case Outflow:
			s.Outflow += t.Amount
		}
		s.Count++
	}
	s.Inflow = roundCents(s.Inflow)
	s.Outflow = roundCents(s.Outflow)
	s.Balance = roundCents(s.Inflow - s.Outflow)
	return s
}
