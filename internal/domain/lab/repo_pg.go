package lab

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// =========== Sample Repository ===========

type sampleRepoPG struct{ pool *pgxpool.Pool }

func NewSampleRepoPG(pool *pgxpool.Pool) SampleRepository {
	return &sampleRepoPG{pool: pool}
}

const sampleCols = `id, patient_id, site, collected_at, created_at, updated_at`

func scanSample(row pgx.Row) (*Sample, error) {
	var s Sample
	err := row.Scan(&s.ID, &s.PatientID, &s.Site, &s.CollectedAt, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *sampleRepoPG) Create(ctx context.Context, s *Sample) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO sample (patient_id, site, collected_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		s.PatientID, s.Site, s.CollectedAt).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *sampleRepoPG) GetByID(ctx context.Context, id int64) (*Sample, error) {
	return scanSample(r.pool.QueryRow(ctx, `SELECT `+sampleCols+` FROM sample WHERE id = $1`, id))
}

func (r *sampleRepoPG) Update(ctx context.Context, s *Sample) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE sample SET patient_id=$2, site=$3, collected_at=$4, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.PatientID, s.Site, s.CollectedAt)
	return err
}

func (r *sampleRepoPG) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sample WHERE id = $1`, id)
	return err
}

func (r *sampleRepoPG) List(ctx context.Context, limit, offset int) ([]*Sample, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sample`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+sampleCols+` FROM sample ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectSamples(rows, total)
}

func (r *sampleRepoPG) ListByPatient(ctx context.Context, patientID int64, limit, offset int) ([]*Sample, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sample WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+sampleCols+` FROM sample WHERE patient_id = $1 ORDER BY id LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectSamples(rows, total)
}

func collectSamples(rows pgx.Rows, total int) ([]*Sample, int, error) {
	var items []*Sample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

// =========== LabTest Repository ===========

type testRepoPG struct{ pool *pgxpool.Pool }

func NewTestRepoPG(pool *pgxpool.Pool) TestRepository {
	return &testRepoPG{pool: pool}
}

const testCols = `id, sample_id, result, performed_at, created_at, updated_at`

func scanTest(row pgx.Row) (*LabTest, error) {
	var t LabTest
	err := row.Scan(&t.ID, &t.SampleID, &t.Result, &t.PerformedAt, &t.CreatedAt, &t.UpdatedAt)
	return &t, err
}

func (r *testRepoPG) Create(ctx context.Context, t *LabTest) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO lab_test (sample_id, result, performed_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		t.SampleID, t.Result, t.PerformedAt).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *testRepoPG) GetByID(ctx context.Context, id int64) (*LabTest, error) {
	return scanTest(r.pool.QueryRow(ctx, `SELECT `+testCols+` FROM lab_test WHERE id = $1`, id))
}

func (r *testRepoPG) Update(ctx context.Context, t *LabTest) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE lab_test SET sample_id=$2, result=$3, performed_at=$4, updated_at=NOW()
		WHERE id = $1`,
		t.ID, t.SampleID, t.Result, t.PerformedAt)
	return err
}

func (r *testRepoPG) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM lab_test WHERE id = $1`, id)
	return err
}

func (r *testRepoPG) List(ctx context.Context, limit, offset int) ([]*LabTest, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM lab_test`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+testCols+` FROM lab_test ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectTests(rows, total)
}

func (r *testRepoPG) ListBySample(ctx context.Context, sampleID int64, limit, offset int) ([]*LabTest, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM lab_test WHERE sample_id = $1`, sampleID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+testCols+` FROM lab_test WHERE sample_id = $1 ORDER BY id LIMIT $2 OFFSET $3`,
		sampleID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectTests(rows, total)
}

func (r *testRepoPG) CountNullResults(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM lab_test WHERE result IS NULL`).Scan(&n)
	return n, err
}

func (r *testRepoPG) ListInvalidResults(ctx context.Context) ([]*LabTest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+testCols+` FROM lab_test
		WHERE result IS NULL OR result NOT IN ($1, $2)
		ORDER BY id`,
		ResultPositive, ResultNegative)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*LabTest
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func collectTests(rows pgx.Rows, total int) ([]*LabTest, int, error) {
	var items []*LabTest
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}
