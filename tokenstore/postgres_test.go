package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newStoreWithMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresStore(db), mock, db
}

func tokenColumns() []string {
	return []string{"id", "token", "subject_id", "expires_at", "revoked", "revoked_at", "created_at"}
}

func TestInsert_Success(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+refresh_tokens\b.*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)\s*$`
	mock.ExpectExec(q).
		WithArgs(sqlmock.AnyArg(), "tok123", "u1", sqlmock.AnyArg(), false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	row := &RefreshToken{Value: "tok123", SubjectID: "u1", ExpiresAt: time.Now().Add(time.Hour)}
	if err := store.Insert(context.Background(), row); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.ID == "" {
		t.Fatal("Insert must assign an ID")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindByValue_Found(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	expires := time.Now().Add(time.Hour)
	created := time.Now().Add(-time.Minute)
	rows := sqlmock.NewRows(tokenColumns()).
		AddRow("id-1", "tok123", "u1", expires, false, nil, created)

	q := `(?s)^\s*SELECT\s+.*FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).WithArgs("tok123").WillReturnRows(rows)

	got, err := store.FindByValue(context.Background(), "tok123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.SubjectID != "u1" || got.Revoked || got.RevokedAt != nil {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestFindByValue_NotFound(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	q := `(?s)^\s*SELECT\s+.*FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	if _, err := store.FindByValue(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMarkRevoked_FiltersAlreadyRevoked(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	q := `(?s)^\s*UPDATE\s+refresh_tokens\s+SET\s+revoked\s*=\s*TRUE.*WHERE\s+token\s*=\s*\$1\s+AND\s+revoked\s*=\s*FALSE\s*$`
	now := time.Now()

	// Second call matches zero rows; both calls must succeed, but only the
	// first reports winning the revocation.
	mock.ExpectExec(q).WithArgs("tok123", now).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("tok123", now).WillReturnResult(sqlmock.NewResult(0, 0))

	won, err := store.MarkRevoked(context.Background(), "tok123", now)
	if err != nil {
		t.Fatalf("first revoke: %v", err)
	}
	if !won {
		t.Fatal("first revoke must win")
	}
	won, err = store.MarkRevoked(context.Background(), "tok123", now)
	if err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	if won {
		t.Fatal("second revoke must not win")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMarkAllRevokedForSubject(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	q := `(?s)^\s*UPDATE\s+refresh_tokens\s+SET\s+revoked\s*=\s*TRUE.*WHERE\s+subject_id\s*=\s*\$1\s+AND\s+revoked\s*=\s*FALSE\s*$`
	now := time.Now()
	mock.ExpectExec(q).WithArgs("u1", now).WillReturnResult(sqlmock.NewResult(0, 3))

	if err := store.MarkAllRevokedForSubject(context.Background(), "u1", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteExpired(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	q := `(?s)^\s*DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+expires_at\s*<\s*\$1\s*$`
	now := time.Now()
	mock.ExpectExec(q).WithArgs(now).WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := store.DeleteExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 7 {
		t.Fatalf("deleted = %d, want 7", n)
	}
}

func TestFindBySubject_DBError(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	q := `(?s)^\s*SELECT\s+.*FROM\s+refresh_tokens\s+WHERE\s+subject_id\s*=\s*\$1`
	mock.ExpectQuery(q).WithArgs("u1").WillReturnError(errors.New("db down"))

	if _, err := store.FindBySubject(context.Background(), "u1"); err == nil {
		t.Fatal("expected error")
	}
}
