package patient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/odonto/internal/domain/odontogram"
	"github.com/ehr/odonto/internal/platform/db"
)

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &patientRepoPG{pool: pool} }

func (r *patientRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const patientCols = `id, name, address, phone, email, cpf, birth_date, odontogram,
	anamnesis, extraoral_exam, intraoral_exam, version_id, created_at, updated_at`

func (r *patientRepoPG) scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var odo, anam, extra, intra []byte
	err := row.Scan(&p.ID, &p.Name, &p.Address, &p.Phone, &p.Email, &p.CPF, &p.BirthDate, &odo,
		&anam, &extra, &intra, &p.VersionID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(odo, &p.Odontogram); err != nil {
		return nil, fmt.Errorf("patient %s: decode odontogram: %w", p.ID, err)
	}
	for _, sec := range []struct {
		raw []byte
		dst *Record
	}{{anam, &p.Anamnesis}, {extra, &p.ExtraoralExam}, {intra, &p.IntraoralExam}} {
		if len(sec.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(sec.raw, sec.dst); err != nil {
			return nil, fmt.Errorf("patient %s: decode record: %w", p.ID, err)
		}
	}
	return &p, nil
}

func sectionColumn(s Section) (string, error) {
	switch s {
	case SectionAnamnesis:
		return "anamnesis", nil
	case SectionExtraoral:
		return "extraoral_exam", nil
	case SectionIntraoral:
		return "intraoral_exam", nil
	}
	return "", fmt.Errorf("unknown record section %q", s)
}

func encodeRecord(rec Record) ([]byte, error) {
	if rec == nil {
		return nil, nil
	}
	return json.Marshal(rec)
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.VersionID = 1
	odo, err := json.Marshal(p.Odontogram)
	if err != nil {
		return fmt.Errorf("encode odontogram: %w", err)
	}
	anam, err := encodeRecord(p.Anamnesis)
	if err != nil {
		return err
	}
	extra, err := encodeRecord(p.ExtraoralExam)
	if err != nil {
		return err
	}
	intra, err := encodeRecord(p.IntraoralExam)
	if err != nil {
		return err
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient (id, name, address, phone, email, cpf, birth_date, odontogram,
			anamnesis, extraoral_exam, intraoral_exam, version_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Address, p.Phone, p.Email, p.CPF, p.BirthDate, odo,
		anam, extra, intra, p.VersionID).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return r.scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
}

func (r *patientRepoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return r.scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1 FOR UPDATE`, id))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE patient SET name=$2, address=$3, phone=$4, email=$5, cpf=$6, birth_date=$7,
			version_id=version_id+1, updated_at=NOW()
		WHERE id = $1
		RETURNING version_id, updated_at`,
		p.ID, p.Name, p.Address, p.Phone, p.Email, p.CPF, p.BirthDate).Scan(&p.VersionID, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *patientRepoPG) UpdateOdontogram(ctx context.Context, id uuid.UUID, o odontogram.Odontogram) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encode odontogram: %w", err)
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET odontogram=$2, version_id=version_id+1, updated_at=NOW()
		WHERE id = $1`, id, data)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) UpdateSection(ctx context.Context, id uuid.UUID, s Section, rec Record) error {
	col, err := sectionColumn(s)
	if err != nil {
		return err
	}
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	tag, err := r.conn(ctx).Exec(ctx, fmt.Sprintf(`
		UPDATE patient SET %s=$2, version_id=version_id+1, updated_at=NOW()
		WHERE id = $1`, col), id, data)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	return err
}

func (r *patientRepoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return r.Search(ctx, nil, limit, offset)
}

func (r *patientRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Patient, int, error) {
	query := `SELECT ` + patientCols + ` FROM patient WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM patient WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["name"]; ok {
		query += fmt.Sprintf(` AND name ILIKE $%d`, idx)
		countQuery += fmt.Sprintf(` AND name ILIKE $%d`, idx)
		args = append(args, "%"+p+"%")
		idx++
	}
	if p, ok := params["cpf"]; ok {
		query += fmt.Sprintf(` AND cpf = $%d`, idx)
		countQuery += fmt.Sprintf(` AND cpf = $%d`, idx)
		args = append(args, p)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY name ASC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := r.scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}
