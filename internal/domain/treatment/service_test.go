package treatment

import (
	"context"
	"fmt"
	"testing"
)

type mockRepo struct {
	treatments map[int64]*Treatment
	nextID     int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{treatments: make(map[int64]*Treatment), nextID: 1}
}

func (m *mockRepo) Create(ctx context.Context, t *Treatment) error {
	t.ID = m.nextID
	m.nextID++
	m.treatments[t.ID] = t
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id int64) (*Treatment, error) {
	t, ok := m.treatments[id]
	if !ok {
		return nil, fmt.Errorf("treatment %d not found", id)
	}
	return t, nil
}

func (m *mockRepo) Update(ctx context.Context, t *Treatment) error {
	if _, ok := m.treatments[t.ID]; !ok {
		return fmt.Errorf("treatment %d not found", t.ID)
	}
	m.treatments[t.ID] = t
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, id int64) error {
	delete(m.treatments, id)
	return nil
}

func (m *mockRepo) List(ctx context.Context, limit, offset int) ([]*Treatment, int, error) {
	var items []*Treatment
	for _, t := range m.treatments {
		items = append(items, t)
	}
	return items, len(items), nil
}

func (m *mockRepo) ListByPatient(ctx context.Context, patientID int64, limit, offset int) ([]*Treatment, int, error) {
	var items []*Treatment
	for _, t := range m.treatments {
		if t.PatientID == patientID {
			items = append(items, t)
		}
	}
	return items, len(items), nil
}

func TestCreate_Valid(t *testing.T) {
	svc := NewService(newMockRepo())

	tr := &Treatment{PatientID: 1, Outcome: OutcomeSuccessful}
	if err := svc.Create(context.Background(), tr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.ID == 0 {
		t.Error("expected ID to be assigned")
	}
}

func TestCreate_RequiresPatient(t *testing.T) {
	svc := NewService(newMockRepo())

	if err := svc.Create(context.Background(), &Treatment{Outcome: "Failed"}); err == nil {
		t.Fatal("expected error for missing patient_id")
	}
}

func TestCreate_RequiresOutcome(t *testing.T) {
	svc := NewService(newMockRepo())

	if err := svc.Create(context.Background(), &Treatment{PatientID: 1}); err == nil {
		t.Fatal("expected error for missing outcome")
	}
}

func TestIsSuccessful(t *testing.T) {
	if !(&Treatment{Outcome: OutcomeSuccessful}).IsSuccessful() {
		t.Error("expected Successful outcome to count")
	}
	// Case matters; anything other than the exact value does not count.
	for _, outcome := range []string{"successful", "SUCCESSFUL", "Failed", "Ongoing", ""} {
		if (&Treatment{Outcome: outcome}).IsSuccessful() {
			t.Errorf("outcome %q must not count as successful", outcome)
		}
	}
}

func TestListByPatient(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	repo.treatments[1] = &Treatment{ID: 1, PatientID: 5, Outcome: OutcomeSuccessful}
	repo.treatments[2] = &Treatment{ID: 2, PatientID: 5, Outcome: "Failed"}
	repo.treatments[3] = &Treatment{ID: 3, PatientID: 8, Outcome: OutcomeSuccessful}

	items, total, err := svc.ListByPatient(context.Background(), 5, 20, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(items) != 2 {
		t.Errorf("expected 2 treatments for patient 5, got %d", len(items))
	}
}

func TestUpdate_Validates(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	repo.treatments[1] = &Treatment{ID: 1, PatientID: 5, Outcome: "Ongoing"}

	if err := svc.Update(context.Background(), &Treatment{ID: 1, PatientID: 5}); err == nil {
		t.Fatal("expected error for empty outcome on update")
	}
	if err := svc.Update(context.Background(), &Treatment{ID: 1, PatientID: 5, Outcome: OutcomeSuccessful}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
