// AngelaMos | 2026
// service_test.go

package entitlement

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/gestia-dev/gestia-backend/internal/core"
	"github.com/gestia-dev/gestia-backend/internal/tenant"
)

type fakeOwners struct {
	byID    map[int]*tenant.Owner
	byEmail map[string]*tenant.Owner
	failing bool
}

func (f *fakeOwners) Create(_ context.Context, _ *tenant.Owner) error {
	return errors.New("not implemented")
}

func (f *fakeOwners) GetByID(_ context.Context, id int) (*tenant.Owner, error) {
	if f.failing {
		return nil, errors.New("connection refused")
	}
	if o, ok := f.byID[id]; ok {
		return o, nil
	}
	return nil, fmt.Errorf("get owner: %w", core.ErrNotFound)
}

func (f *fakeOwners) GetByEmail(
	_ context.Context,
	email string,
) (*tenant.Owner, error) {
	if f.failing {
		return nil, errors.New("connection refused")
	}
	if o, ok := f.byEmail[email]; ok {
		return o, nil
	}
	return nil, fmt.Errorf("get owner: %w", core.ErrNotFound)
}

func (f *fakeOwners) ExistsByEmail(
	_ context.Context,
	email string,
) (bool, error) {
	_, ok := f.byEmail[email]
	return ok, nil
}

func (f *fakeOwners) UpdatePasswordHash(_ context.Context, _ int, _ string) error {
	return errors.New("not implemented")
}

func (f *fakeOwners) EndExpiredTrial(_ context.Context, _ int, _ time.Time) error {
	return errors.New("not implemented")
}

type fakeEmployees map[string]*Employee

func (f fakeEmployees) FindEmployee(
	_ context.Context,
	email string,
) (*Employee, error) {
	if e, ok := f[email]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("find employee: %w", core.ErrNotFound)
}

type fakeSubs struct {
	subs    map[int][]Subscription
	failing bool
}

func (f *fakeSubs) HasActive(
	_ context.Context,
	ownerID int,
	today time.Time,
) (bool, error) {
	if f.failing {
		return false, errors.New("connection refused")
	}
	for i := range f.subs[ownerID] {
		if f.subs[ownerID][i].Entitling(today) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSubs) ListForOwner(
	_ context.Context,
	ownerID int,
) ([]Subscription, error) {
	return f.subs[ownerID], nil
}

func (f *fakeSubs) Create(_ context.Context, sub *Subscription) error {
	sub.ID = len(f.subs[sub.OwnerID]) + 1
	f.subs[sub.OwnerID] = append(f.subs[sub.OwnerID], *sub)
	return nil
}

var testNow = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func testEvaluator(
	owners *fakeOwners,
	employees fakeEmployees,
	subs *fakeSubs,
) *Evaluator {
	e := NewEvaluator(owners, employees, subs)
	e.now = fixedClock
	return e
}

func ownerWithTrial(id int, endsAt *time.Time) *tenant.Owner {
	return &tenant.Owner{
		ID:          id,
		Email:       fmt.Sprintf("owner%d@example.com", id),
		InTrial:     endsAt != nil,
		TrialEndsAt: endsAt,
		Active:      true,
	}
}

func TestTrialEntitles(t *testing.T) {
	tomorrow := testNow.Add(24 * time.Hour)
	yesterday := testNow.Add(-24 * time.Hour)

	inTrial := ownerWithTrial(1, &tomorrow)
	expired := ownerWithTrial(2, &yesterday)

	owners := &fakeOwners{
		byID:    map[int]*tenant.Owner{1: inTrial, 2: expired},
		byEmail: map[string]*tenant.Owner{},
	}
	subs := &fakeSubs{subs: map[int][]Subscription{}}
	e := testEvaluator(owners, fakeEmployees{}, subs)
	ctx := context.Background()

	if !e.IsEntitledOwner(ctx, 1) {
		t.Fatalf("owner in trial must be entitled")
	}
	if e.IsEntitledOwner(ctx, 2) {
		t.Fatalf("owner with expired trial and no subscription must not be entitled")
	}
}

func TestSubscriptionEntitles(t *testing.T) {
	owner := ownerWithTrial(1, nil)
	owners := &fakeOwners{
		byID:    map[int]*tenant.Owner{1: owner},
		byEmail: map[string]*tenant.Owner{},
	}

	future := testNow.Add(30 * 24 * time.Hour)
	past := testNow.Add(-24 * time.Hour)

	cases := []struct {
		name string
		sub  Subscription
		want bool
	}{
		{"active open-ended", Subscription{Status: StatusActive, OwnerID: 1}, true},
		{"active future end", Subscription{Status: StatusActive, OwnerID: 1, EndDate: &future}, true},
		{"active ended yesterday", Subscription{Status: StatusActive, OwnerID: 1, EndDate: &past}, false},
		{"cancelled", Subscription{Status: StatusCancelled, OwnerID: 1, EndDate: &future}, false},
		{"suspended", Subscription{Status: StatusSuspended, OwnerID: 1}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			subs := &fakeSubs{subs: map[int][]Subscription{1: {tc.sub}}}
			e := testEvaluator(owners, fakeEmployees{}, subs)

			if got := e.IsEntitledOwner(context.Background(), 1); got != tc.want {
				t.Fatalf("entitled=%v, want %v", got, tc.want)
			}
		})
	}
}

func TestSubscriptionEndingTodayStillEntitles(t *testing.T) {
	owner := ownerWithTrial(1, nil)
	owners := &fakeOwners{
		byID:    map[int]*tenant.Owner{1: owner},
		byEmail: map[string]*tenant.Owner{},
	}

	// End date equals the evaluation day; the boundary is inclusive.
	endToday := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	subs := &fakeSubs{subs: map[int][]Subscription{
		1: {{Status: StatusActive, OwnerID: 1, EndDate: &endToday}},
	}}
	e := testEvaluator(owners, fakeEmployees{}, subs)

	if !e.IsEntitledOwner(context.Background(), 1) {
		t.Fatalf("subscription ending today must still entitle")
	}
}

func TestEmployeeInheritsFromOwner(t *testing.T) {
	tomorrow := testNow.Add(24 * time.Hour)
	owner := ownerWithTrial(1, &tomorrow)

	owners := &fakeOwners{
		byID:    map[int]*tenant.Owner{1: owner},
		byEmail: map[string]*tenant.Owner{owner.Email: owner},
	}

	ownerID := 1
	employees := fakeEmployees{
		"worker@example.com": {OwnerID: &ownerID},
		"orphan@example.com": {OwnerID: nil},
	}
	subs := &fakeSubs{subs: map[int][]Subscription{}}
	e := testEvaluator(owners, employees, subs)
	ctx := context.Background()

	if !e.IsEntitledEmail(ctx, owner.Email) {
		t.Fatalf("owner email must be entitled directly")
	}
	if !e.IsEntitledEmail(ctx, "worker@example.com") {
		t.Fatalf("employee must inherit the owner's entitlement")
	}
	if e.IsEntitledEmail(ctx, "orphan@example.com") {
		t.Fatalf("employee without an owner must not be entitled")
	}
	if e.IsEntitledEmail(ctx, "unknown@example.com") {
		t.Fatalf("unknown email must not be entitled")
	}
}

func TestEvaluatorFailsClosed(t *testing.T) {
	owners := &fakeOwners{failing: true}
	subs := &fakeSubs{subs: map[int][]Subscription{}}
	e := testEvaluator(owners, fakeEmployees{}, subs)
	ctx := context.Background()

	if e.IsEntitledOwner(ctx, 1) {
		t.Fatalf("storage error must read as not entitled")
	}
	if e.IsEntitledEmail(ctx, "owner@example.com") {
		t.Fatalf("storage error must read as not entitled")
	}

	owner := ownerWithTrial(1, nil)
	healthy := &fakeOwners{
		byID:    map[int]*tenant.Owner{1: owner},
		byEmail: map[string]*tenant.Owner{},
	}
	brokenSubs := &fakeSubs{failing: true}
	e = testEvaluator(healthy, fakeEmployees{}, brokenSubs)

	if e.IsEntitledOwner(ctx, 1) {
		t.Fatalf("subscription storage error must read as not entitled")
	}
}

func TestCreateSubscriptionEndsLapsedTrial(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	sdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { _ = sdb.Close() })

	svc := NewService(sdb, NewRepository(sdb), nil)
	svc.now = fixedClock

	start := testNow.AddDate(0, 0, -1)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO subscriptions").
		WithArgs(3, 2, start, nil, StatusActive, PeriodMonthly).
		WillReturnRows(
			sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow(41, testNow, testNow),
		)
	mock.ExpectExec("UPDATE commercial_owners").
		WithArgs(3, testNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	sub, err := svc.Create(context.Background(), 3, CreateSubscriptionRequest{
		PlanID:    2,
		StartDate: start,
		Period:    "MONTHLY",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sub.ID != 41 || sub.OwnerID != 3 {
		t.Fatalf("unexpected subscription: %+v", sub)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateSubscriptionRollsBackOnTrialUpdateFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	sdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { _ = sdb.Close() })

	svc := NewService(sdb, NewRepository(sdb), nil)
	svc.now = fixedClock

	start := testNow.AddDate(0, 0, -1)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO subscriptions").
		WillReturnRows(
			sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow(41, testNow, testNow),
		)
	mock.ExpectExec("UPDATE commercial_owners").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err = svc.Create(context.Background(), 3, CreateSubscriptionRequest{
		PlanID:    2,
		StartDate: start,
		Period:    "MONTHLY",
	})
	if err == nil {
		t.Fatalf("expected failure when the trial update fails")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
