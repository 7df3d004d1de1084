package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGStoreConsumeWithinLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := NewPGStore(db)
	resetsAt := time.Now().UTC().Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT plan, limit_amount, used, resets_at FROM usage").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"plan", "limit_amount", "used", "resets_at"}).
			AddRow("Starter", 10, 2, resetsAt))
	mock.ExpectExec("UPDATE usage SET used").
		WithArgs(3, "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	u, err := store.Consume(context.Background(), "user-1", 1)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if u.Used != 3 {
		t.Fatalf("expected used 3, got %d", u.Used)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreConsumeLimitReachedRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := NewPGStore(db)
	resetsAt := time.Now().UTC().Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT plan, limit_amount, used, resets_at FROM usage").
		WithArgs("guest:abc").
		WillReturnRows(sqlmock.NewRows([]string{"plan", "limit_amount", "used", "resets_at"}).
			AddRow("Guest", 3, 3, resetsAt))
	mock.ExpectRollback()

	_, err = store.Consume(context.Background(), "guest:abc", 1)
	if !errors.Is(err, ErrLimitReached) {
		t.Fatalf("expected ErrLimitReached, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreEnsureInsertsDefaults(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := NewPGStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT plan, limit_amount, used, resets_at FROM usage").
		WithArgs("guest:abc").
		WillReturnRows(sqlmock.NewRows([]string{"plan", "limit_amount", "used", "resets_at"}))
	mock.ExpectExec("INSERT INTO usage").
		WithArgs("guest:abc", "Guest", 3, 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	u, err := store.Get(context.Background(), "guest:abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if u.Plan != "Guest" || u.Limit != 3 || u.Used != 0 {
		t.Fatalf("unexpected defaults: %+v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreExpiredWindowResetsOnRead(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := NewPGStore(db)
	expired := time.Now().UTC().Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT plan, limit_amount, used, resets_at FROM usage").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"plan", "limit_amount", "used", "resets_at"}).
			AddRow("Starter", 10, 9, expired))
	mock.ExpectExec("UPDATE usage SET used").
		WithArgs(0, sqlmock.AnyArg(), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	u, err := store.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if u.Used != 0 {
		t.Fatalf("expected used reset to 0, got %d", u.Used)
	}
	if !u.ResetsAt.After(time.Now().UTC().Add(-time.Minute)) {
		t.Fatalf("expected refreshed resetsAt, got %v", u.ResetsAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
