package treatment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/odonto/internal/domain/agenda"
	"github.com/ehr/odonto/internal/domain/ledger"
	"github.com/ehr/odonto/internal/domain/odontogram"
	"github.com/ehr/odonto/internal/domain/patient"
	"github.com/ehr/odonto/internal/platform/websocket"
)

// Deps are the collaborators of the workflow. Patients, Scheduler, Recorder
// and Procedures are required.
type Deps struct {
	Patients   Patients
	Scheduler  Scheduler
	Recorder   Recorder
	Procedures Procedures
	Tx         TxRunner
	Events     EventLog
	Pending    PendingStore
	Notify     websocket.Notifier
	Logger     zerolog.Logger
	Now        func() time.Time
}

// Service applies treatment transitions. Every transition that writes to
// more than one collection runs in one transaction with the patient row
// locked.
type Service struct {
	patients   Patients
	scheduler  Scheduler
	recorder   Recorder
	procedures Procedures
	tx         TxRunner
	events     EventLog
	pending    PendingStore
	notify     websocket.Notifier
	logger     zerolog.Logger
	now        func() time.Time
}

type directTx struct{}

func (directTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type discardEvents struct{}

func (discardEvents) Append(context.Context, string, uuid.UUID, interface{}) error { return nil }

func NewService(d Deps) *Service {
	if d.Tx == nil {
		d.Tx = directTx{}
	}
	if d.Events == nil {
		d.Events = discardEvents{}
	}
	if d.Pending == nil {
		d.Pending = NewMemoryPendingStore(DefaultPendingTTL)
	}
	if d.Notify == nil {
		d.Notify = websocket.Discard
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Service{
		patients:   d.Patients,
		scheduler:  d.Scheduler,
		recorder:   d.Recorder,
		procedures: d.Procedures,
		tx:         d.Tx,
		events:     d.Events,
		pending:    d.Pending,
		notify:     d.Notify,
		logger:     d.Logger.With().Str("component", "treatment").Logger(),
		now:        d.Now,
	}
}

func (s *Service) today() time.Time { return odontogram.Day(s.now()) }

// eventPayload is the body of treatment.* outbox events.
type eventPayload struct {
	PatientID     uuid.UUID                  `json:"patient_id"`
	ToothNumber   int                        `json:"tooth_number"`
	ProcedureID   string                     `json:"procedure_id"`
	Status        odontogram.TreatmentStatus `json:"status"`
	Value         float64                    `json:"value"`
	AgendaEvents  []uuid.UUID                `json:"agenda_events,omitempty"`
	TransactionID *uuid.UUID                 `json:"transaction_id,omitempty"`
}

func newPayload(patientID uuid.UUID, tooth int, tr odontogram.Treatment) eventPayload {
	return eventPayload{PatientID: patientID, ToothNumber: tooth, ProcedureID: tr.ProcedureID, Status: tr.Status, Value: tr.Value}
}

// prepare resolves the procedure name from the catalog and applies the
// treatment invariants.
func (s *Service) prepare(tr odontogram.Treatment) (odontogram.Treatment, error) {
	if tr.ProcedureID == "" {
		return tr, fmt.Errorf("%w: procedure_id is required", odontogram.ErrInvalidTreatment)
	}
	proc, err := s.procedures.Resolve(tr.ProcedureID)
	if err != nil {
		return tr, err
	}
	tr.ProcedureName = proc.Name
	tr = tr.Normalize()
	if err := tr.Validate(); err != nil {
		return tr, err
	}
	return tr, nil
}

func (s *Service) tooth(ctx context.Context, patientID uuid.UUID, number int) (*patient.Patient, odontogram.Tooth, error) {
	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, odontogram.Tooth{}, err
	}
	t, err := p.Odontogram.Tooth(number)
	if err != nil {
		return nil, odontogram.Tooth{}, err
	}
	return p, t, nil
}

// mutateTooth locks the patient, applies fn to a copy of one tooth and
// stores the odontogram with that tooth swapped in. Writes fn makes through
// ctx share the transaction.
func (s *Service) mutateTooth(ctx context.Context, patientID uuid.UUID, number int, fn func(ctx context.Context, p *patient.Patient, t *odontogram.Tooth) error) (*patient.Patient, error) {
	var out *patient.Patient
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		p, err := s.patients.GetForUpdate(ctx, patientID)
		if err != nil {
			return err
		}
		t, err := p.Odontogram.Tooth(number)
		if err != nil {
			return err
		}
		if err := fn(ctx, p, &t); err != nil {
			return err
		}
		o, err := p.Odontogram.WithTooth(t)
		if err != nil {
			return err
		}
		if err := s.patients.UpdateOdontogram(ctx, patientID, o); err != nil {
			return err
		}
		p.Odontogram = o
		s.notify.Notify(ctx, websocket.ResourcePatients, "updated", p.ID, map[string]int{"tooth": number})
		out = p
		return nil
	})
	return out, err
}

// hold stores tr as a pending conclusion instead of persisting it.
func (s *Service) hold(ctx context.Context, origin Origin, patientID uuid.UUID, tooth int, tr odontogram.Treatment) (*Pending, error) {
	tr.Status = odontogram.TreatmentConcluded
	pd := &Pending{
		ID:          uuid.New(),
		Origin:      origin,
		PatientID:   patientID,
		ToothNumber: tooth,
		Treatment:   tr,
		Amount:      tr.Value,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.pending.Put(ctx, pd); err != nil {
		return nil, err
	}
	s.logger.Info().Str("pending_id", pd.ID.String()).Str("treatment_id", tr.ID.String()).
		Str("origin", string(origin)).Float64("amount", pd.Amount).Msg("payment confirmation pending")
	return pd, nil
}

func (s *Service) pendingFor(ctx context.Context, patientID uuid.UUID, tooth int, treatmentID uuid.UUID) (*Pending, error) {
	list, err := s.pending.ForTooth(ctx, patientID, tooth)
	if err != nil {
		return nil, err
	}
	for _, pd := range list {
		if pd.Treatment.ID == treatmentID {
			return pd, nil
		}
	}
	return nil, nil
}

// dropPending discards the pending payments of a treatment that no longer
// exists or can no longer be concluded.
func (s *Service) dropPending(ctx context.Context, patientID uuid.UUID, tooth int, treatmentID uuid.UUID) {
	list, err := s.pending.ForTooth(ctx, patientID, tooth)
	if err != nil {
		s.logger.Warn().Err(err).Str("treatment_id", treatmentID.String()).Msg("list pending payments")
		return
	}
	for _, pd := range list {
		if pd.Treatment.ID != treatmentID {
			continue
		}
		if err := s.pending.Delete(ctx, pd.ID); err != nil && !errors.Is(err, ErrPendingNotFound) {
			s.logger.Warn().Err(err).Str("pending_id", pd.ID.String()).Msg("drop pending payment")
		}
	}
}

// conclude stores tr on t as concluded. A missing concluded date becomes
// today. With a payment method and a payable value it also records the
// inflow.
func (s *Service) conclude(ctx context.Context, p *patient.Patient, t *odontogram.Tooth, tr odontogram.Treatment, origin Origin, method *ledger.PaymentMethod) (odontogram.Treatment, *ledger.Transaction, error) {
	tr.Status = odontogram.TreatmentConcluded
	if tr.ConcludedDate == nil {
		today := s.today()
		tr.ConcludedDate = &today
	}

	var stored odontogram.Treatment
	var err error
	if origin == OriginAdd {
		stored, err = t.AddTreatment(tr)
	} else {
		stored, err = t.UpdateTreatment(tr.ID, tr)
	}
	if err != nil {
		return stored, nil, err
	}

	payload := newPayload(p.ID, t.Number, stored)
	var txn *ledger.Transaction
	if method != nil && stored.Payable() {
		m := *method
		txn = &ledger.Transaction{
			Direction:     ledger.Inflow,
			Date:          *stored.ConcludedDate,
			Description:   fmt.Sprintf("Procedimento: %s (Dente %d) - Paciente: %s", stored.ProcedureName, t.Number, p.Name),
			Amount:        stored.Value,
			Category:      ledger.CategoryProcedure,
			PatientID:     &p.ID,
			PatientName:   &p.Name,
			TreatmentID:   &stored.ID,
			PaymentMethod: &m,
		}
		if err := s.recorder.CreateTransaction(ctx, txn); err != nil {
			return stored, nil, fmt.Errorf("record payment: %w", err)
		}
		payload.TransactionID = &txn.ID
		if err := s.events.Append(ctx, EventRecorded, txn.ID, txn); err != nil {
			return stored, nil, err
		}
	}
	if err := s.events.Append(ctx, EventConcluded, stored.ID, payload); err != nil {
		return stored, nil, err
	}
	return stored, txn, nil
}

// cancelLinked cancels the open agenda events of tr.
func (s *Service) cancelLinked(ctx context.Context, patientID uuid.UUID, tooth int, tr odontogram.Treatment) error {
	events, err := s.scheduler.CancelByTreatment(ctx, tr.ID)
	if err != nil {
		return fmt.Errorf("cancel agenda events: %w", err)
	}
	payload := newPayload(patientID, tooth, tr)
	for _, e := range events {
		payload.AgendaEvents = append(payload.AgendaEvents, e.ID)
	}
	return s.events.Append(ctx, EventCancelled, tr.ID, payload)
}

// AddTreatment adds tr to the plan of a tooth. A treatment created as
// concluded with a payable value is not stored: the returned Outcome carries
// the pending payment that stores it once confirmed.
func (s *Service) AddTreatment(ctx context.Context, patientID uuid.UUID, tooth int, tr odontogram.Treatment) (*Outcome, error) {
	tr, err := s.prepare(tr)
	if err != nil {
		return nil, err
	}
	if tr.Status == odontogram.TreatmentCancelled {
		return nil, fmt.Errorf("%w: a treatment cannot be created cancelled", ErrInvalidTransition)
	}
	if tr.ID == uuid.Nil {
		tr.ID = uuid.New()
	}

	if tr.Status == odontogram.TreatmentConcluded && tr.Payable() {
		if _, _, err := s.tooth(ctx, patientID, tooth); err != nil {
			return nil, err
		}
		pd, err := s.hold(ctx, OriginAdd, patientID, tooth, tr)
		if err != nil {
			return nil, err
		}
		return &Outcome{Pending: pd}, nil
	}

	var stored odontogram.Treatment
	_, err = s.mutateTooth(ctx, patientID, tooth, func(ctx context.Context, p *patient.Patient, t *odontogram.Tooth) error {
		var err error
		if tr.Status == odontogram.TreatmentConcluded {
			stored, _, err = s.conclude(ctx, p, t, tr, OriginAdd, nil)
			return err
		}
		stored, err = t.AddTreatment(tr)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Outcome{Treatment: &stored}, nil
}

// Schedule moves a planned treatment to executed at start and books a one
// hour treatment_scheduling event for it.
func (s *Service) Schedule(ctx context.Context, patientID uuid.UUID, tooth int, id uuid.UUID, start time.Time) (*Scheduled, error) {
	if start.IsZero() {
		return nil, fmt.Errorf("%w: start is required", ErrInvalidInput)
	}
	start = start.UTC()

	var out Scheduled
	_, err := s.mutateTooth(ctx, patientID, tooth, func(ctx context.Context, p *patient.Patient, t *odontogram.Tooth) error {
		tr, err := t.Treatment(id)
		if err != nil {
			return err
		}
		if !tr.Status.CanTransition(odontogram.TreatmentExecuted) {
			return fmt.Errorf("%w: cannot schedule a %s treatment", ErrInvalidTransition, tr.Status)
		}
		tr.Status = odontogram.TreatmentExecuted
		tr.ExecutedAt = &start
		if tr, err = t.UpdateTreatment(id, tr); err != nil {
			return err
		}

		number := t.Number
		desc := fmt.Sprintf("Agendamento para %s no dente %d.", tr.ProcedureName, number)
		ev := &agenda.Event{
			Type:        agenda.TypeTreatmentScheduling,
			Title:       fmt.Sprintf("Trat: %s (D%d) - %s", tr.ProcedureName, number, p.Name),
			Start:       start,
			End:         start.Add(agenda.DefaultDuration),
			PatientID:   &p.ID,
			PatientName: &p.Name,
			TreatmentID: &tr.ID,
			ToothNumber: &number,
			Description: &desc,
			Status:      agenda.StatusScheduled,
		}
		if err := s.scheduler.CreateEvent(ctx, ev); err != nil {
			return fmt.Errorf("create agenda event: %w", err)
		}

		payload := newPayload(p.ID, number, tr)
		payload.AgendaEvents = []uuid.UUID{ev.ID}
		if err := s.events.Append(ctx, EventScheduled, tr.ID, payload); err != nil {
			return err
		}
		out = Scheduled{Treatment: tr, Event: ev}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Conclude marks an executed treatment done. A payable treatment is not
// changed: the Outcome carries the pending payment to confirm, reusing one
// already open for the treatment.
func (s *Service) Conclude(ctx context.Context, patientID uuid.UUID, tooth int, id uuid.UUID) (*Outcome, error) {
	_, t, err := s.tooth(ctx, patientID, tooth)
	if err != nil {
		return nil, err
	}
	tr, err := t.Treatment(id)
	if err != nil {
		return nil, err
	}
	if !tr.Status.CanTransition(odontogram.TreatmentConcluded) {
		return nil, fmt.Errorf("%w: cannot conclude a %s treatment", ErrInvalidTransition, tr.Status)
	}

	if tr.Payable() {
		existing, err := s.pendingFor(ctx, patientID, tooth, id)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return &Outcome{Pending: existing}, nil
		}
		pd, err := s.hold(ctx, OriginConclude, patientID, tooth, tr)
		if err != nil {
			return nil, err
		}
		return &Outcome{Pending: pd}, nil
	}

	var stored odontogram.Treatment
	_, err = s.mutateTooth(ctx, patientID, tooth, func(ctx context.Context, p *patient.Patient, t *odontogram.Tooth) error {
		cur, err := t.Treatment(id)
		if err != nil {
			return err
		}
		if !cur.Status.CanTransition(odontogram.TreatmentConcluded) {
			return fmt.Errorf("%w: cannot conclude a %s treatment", ErrInvalidTransition, cur.Status)
		}
		if cur.Payable() {
			return ErrPaymentRequired
		}
		cur.ConcludedDate = nil
		stored, _, err = s.conclude(ctx, p, t, cur, OriginConclude, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Outcome{Treatment: &stored}, nil
}

// ConfirmPayment finalizes a pending conclusion: the treatment is stored as
// concluded today and the inflow is recorded in the same transaction.
func (s *Service) ConfirmPayment(ctx context.Context, pendingID uuid.UUID, method ledger.PaymentMethod) (*Confirmation, error) {
	if !method.Valid() {
		if method == "" {
			return nil, ErrPaymentMethodRequired
		}
		return nil, fmt.Errorf("%w: %q", ErrPaymentMethodRequired, method)
	}
	pd, err := s.pending.Get(ctx, pendingID)
	if err != nil {
		return nil, err
	}

	var out Confirmation
	_, err = s.mutateTooth(ctx, pd.PatientID, pd.ToothNumber, func(ctx context.Context, p *patient.Patient, t *odontogram.Tooth) error {
		tr := pd.Treatment
		switch pd.Origin {
		case OriginConclude:
			cur, err := t.Treatment(tr.ID)
			if err != nil {
				return err
			}
			if !cur.Status.CanTransition(odontogram.TreatmentConcluded) {
				return fmt.Errorf("%w: cannot conclude a %s treatment", ErrInvalidTransition, cur.Status)
			}
			tr = cur
		case OriginEdit:
			cur, err := t.Treatment(tr.ID)
			if err != nil {
				return err
			}
			if cur.Status == odontogram.TreatmentConcluded {
				return fmt.Errorf("%w: treatment already concluded", ErrInvalidTransition)
			}
		}
		tr.ConcludedDate = nil
		stored, txn, err := s.conclude(ctx, p, t, tr, pd.Origin, &method)
		if err != nil {
			return err
		}
		out = Confirmation{Treatment: stored, Transaction: txn}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.pending.Delete(ctx, pendingID); err != nil && !errors.Is(err, ErrPendingNotFound) {
		s.logger.Warn().Err(err).Str("pending_id", pendingID.String()).Msg("delete confirmed payment")
	}
	s.logger.Info().Str("treatment_id", out.Treatment.ID.String()).Str("payment_method", string(method)).Msg("treatment concluded")
	return &out, nil
}

// CancelPayment discards a pending conclusion. Nothing else changes.
func (s *Service) CancelPayment(ctx context.Context, pendingID uuid.UUID) error {
	return s.pending.Delete(ctx, pendingID)
}

func (s *Service) GetPending(ctx context.Context, pendingID uuid.UUID) (*Pending, error) {
	return s.pending.Get(ctx, pendingID)
}

func (s *Service) PendingForTooth(ctx context.Context, patientID uuid.UUID, tooth int) ([]*Pending, error) {
	return s.pending.ForTooth(ctx, patientID, tooth)
}

// EditTreatment replaces treatment id. Moving it to concluded follows the
// same payment rule as Conclude; moving it to cancelled cancels its agenda
// events. Any other edit has no side effects.
func (s *Service) EditTreatment(ctx context.Context, patientID uuid.UUID, tooth int, id uuid.UUID, tr odontogram.Treatment) (*Outcome, error) {
	tr, err := s.prepare(tr)
	if err != nil {
		return nil, err
	}
	tr.ID = id

	_, t, err := s.tooth(ctx, patientID, tooth)
	if err != nil {
		return nil, err
	}
	cur, err := t.Treatment(id)
	if err != nil {
		return nil, err
	}
	if tr.Status == odontogram.TreatmentConcluded && cur.Status != odontogram.TreatmentConcluded && tr.Payable() {
		pd, err := s.hold(ctx, OriginEdit, patientID, tooth, tr)
		if err != nil {
			return nil, err
		}
		return &Outcome{Pending: pd}, nil
	}

	var stored odontogram.Treatment
	_, err = s.mutateTooth(ctx, patientID, tooth, func(ctx context.Context, p *patient.Patient, t *odontogram.Tooth) error {
		cur, err := t.Treatment(id)
		if err != nil {
			return err
		}
		switch {
		case tr.Status == odontogram.TreatmentConcluded && cur.Status != odontogram.TreatmentConcluded:
			if tr.Payable() {
				return ErrPaymentRequired
			}
			stored, _, err = s.conclude(ctx, p, t, tr, OriginEdit, nil)
			return err
		case tr.Status == odontogram.TreatmentCancelled && cur.Status != odontogram.TreatmentCancelled:
			if !cur.Status.CanTransition(odontogram.TreatmentCancelled) {
				return fmt.Errorf("%w: cannot cancel a %s treatment", ErrInvalidTransition, cur.Status)
			}
			if stored, err = t.UpdateTreatment(id, tr); err != nil {
				return err
			}
			return s.cancelLinked(ctx, p.ID, t.Number, stored)
		default:
			stored, err = t.UpdateTreatment(id, tr)
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	if stored.Status == odontogram.TreatmentCancelled {
		s.dropPending(ctx, patientID, tooth, id)
	}
	return &Outcome{Treatment: &stored}, nil
}

// Cancel abandons a planned or executed treatment. The record is kept with
// status cancelled and its open agenda events are cancelled.
func (s *Service) Cancel(ctx context.Context, patientID uuid.UUID, tooth int, id uuid.UUID) (*odontogram.Treatment, error) {
	var stored odontogram.Treatment
	_, err := s.mutateTooth(ctx, patientID, tooth, func(ctx context.Context, p *patient.Patient, t *odontogram.Tooth) error {
		tr, err := t.Treatment(id)
		if err != nil {
			return err
		}
		if !tr.Status.CanTransition(odontogram.TreatmentCancelled) {
			return fmt.Errorf("%w: cannot cancel a %s treatment", ErrInvalidTransition, tr.Status)
		}
		tr.Status = odontogram.TreatmentCancelled
		if stored, err = t.UpdateTreatment(id, tr); err != nil {
			return err
		}
		return s.cancelLinked(ctx, p.ID, t.Number, stored)
	})
	if err != nil {
		return nil, err
	}
	s.dropPending(ctx, patientID, tooth, id)
	return &stored, nil
}

// RemoveTreatment deletes a treatment for good. confirmed must be true.
func (s *Service) RemoveTreatment(ctx context.Context, patientID uuid.UUID, tooth int, id uuid.UUID, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	_, err := s.mutateTooth(ctx, patientID, tooth, func(_ context.Context, _ *patient.Patient, t *odontogram.Tooth) error {
		return t.RemoveTreatment(id)
	})
	if err != nil {
		return err
	}
	s.dropPending(ctx, patientID, tooth, id)
	return nil
}

// SaveTooth replaces the whole record of one tooth. It is rejected while a
// payment confirmation is open for the tooth, and when it would conclude a
// payable treatment without one.
func (s *Service) SaveTooth(ctx context.Context, patientID uuid.UUID, next odontogram.Tooth) (*odontogram.Tooth, error) {
	open, err := s.pending.ForTooth(ctx, patientID, next.Number)
	if err != nil {
		return nil, err
	}
	if len(open) > 0 {
		return nil, ErrPaymentPending
	}

	next = next.Clone()
	next.SetGeneralStatus(next.Status)
	assignIDs(&next)
	seen := make(map[uuid.UUID]bool, len(next.Treatments))
	for i, tr := range next.Treatments {
		if tr, err = s.prepare(tr); err != nil {
			return nil, err
		}
		if tr.ID == uuid.Nil {
			tr.ID = uuid.New()
		}
		if seen[tr.ID] {
			return nil, fmt.Errorf("%w: duplicate treatment %s", ErrInvalidInput, tr.ID)
		}
		seen[tr.ID] = true
		next.Treatments[i] = tr
	}

	p, err := s.mutateTooth(ctx, patientID, next.Number, func(ctx context.Context, p *patient.Patient, t *odontogram.Tooth) error {
		for _, cur := range t.Treatments {
			if !seen[cur.ID] {
				return fmt.Errorf("%w: treatment %s is missing from the tooth", ErrConfirmationRequired, cur.ID)
			}
		}
		for i, tr := range next.Treatments {
			cur, err := t.Treatment(tr.ID)
			known := err == nil
			switch {
			case tr.Status == odontogram.TreatmentCancelled && !known:
				return fmt.Errorf("%w: a treatment cannot be created cancelled", ErrInvalidTransition)
			case tr.Status == odontogram.TreatmentCancelled && cur.Status != odontogram.TreatmentCancelled &&
				!cur.Status.CanTransition(odontogram.TreatmentCancelled):
				return fmt.Errorf("%w: cannot cancel a %s treatment", ErrInvalidTransition, cur.Status)
			case tr.Status == odontogram.TreatmentConcluded && (!known || cur.Status != odontogram.TreatmentConcluded):
				if tr.Payable() {
					return fmt.Errorf("%w: treatment %s", ErrPaymentRequired, tr.ID)
				}
				if tr.ConcludedDate == nil {
					today := s.today()
					tr.ConcludedDate = &today
				}
				next.Treatments[i] = tr
				if err := s.events.Append(ctx, EventConcluded, tr.ID, newPayload(p.ID, t.Number, tr)); err != nil {
					return err
				}
			case tr.Status == odontogram.TreatmentCancelled && cur.Status != odontogram.TreatmentCancelled:
				if err := s.cancelLinked(ctx, p.ID, t.Number, tr); err != nil {
					return err
				}
			}
		}
		*t = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	saved, err := p.Odontogram.Tooth(next.Number)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func assignIDs(t *odontogram.Tooth) {
	for i := range t.Conditions {
		if t.Conditions[i].ID == uuid.Nil {
			t.Conditions[i].ID = uuid.New()
		}
	}
	for i := range t.Restorations {
		if t.Restorations[i].ID == uuid.Nil {
			t.Restorations[i].ID = uuid.New()
		}
	}
	for i := range t.Anomalies {
		if t.Anomalies[i].ID == uuid.Nil {
			t.Anomalies[i].ID = uuid.New()
		}
	}
}
