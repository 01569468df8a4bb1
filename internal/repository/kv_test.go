package repository

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/atinyakov/AgriVision/internal/db"
	"github.com/atinyakov/AgriVision/internal/kv"
)

const (
	selectQuery = `SELECT value FROM kv WHERE key = ?`
	upsertQuery = `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)`
	deleteQuery = `DELETE FROM kv WHERE key = ?`
)

func setupKVMock(t *testing.T) (*SQLKVRepository, sqlmock.Sqlmock, func()) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewSQLKVRepository(conn)
	repo.now = func() time.Time { return time.UnixMilli(1700000000000) }
	cleanup := func() { conn.Close() }
	return repo, mock, cleanup
}

func TestGet_Found(t *testing.T) {
	repo, mock, cleanup := setupKVMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).
		WithArgs("agrivision_user").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`{"name":"Lakshmi Devi"}`)))

	got, err := repo.Get(context.Background(), "agrivision_user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != `{"name":"Lakshmi Devi"}` {
		t.Errorf("Get = %q", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, cleanup := setupKVMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).
		WithArgs("agrivision_history").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	_, err := repo.Get(context.Background(), "agrivision_history")
	if !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("expected kv.ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGet_Error(t *testing.T) {
	repo, mock, cleanup := setupKVMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(selectQuery)).
		WithArgs("k").
		WillReturnError(errors.New("query failed"))

	_, err := repo.Get(context.Background(), "k")
	if err == nil || errors.Is(err, kv.ErrNotFound) {
		t.Errorf("expected query error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestSet_Success(t *testing.T) {
	repo, mock, cleanup := setupKVMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(upsertQuery)).
		WithArgs("k", []byte("v"), int64(1700000000000)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Set(context.Background(), "k", []byte("v")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestSet_Error(t *testing.T) {
	repo, mock, cleanup := setupKVMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(upsertQuery)).
		WithArgs("k", []byte("v"), sqlmock.AnyArg()).
		WillReturnError(errors.New("disk full"))

	if err := repo.Set(context.Background(), "k", []byte("v")); err == nil {
		t.Errorf("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo, mock, cleanup := setupKVMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(deleteQuery)).
		WithArgs("agrivision_user").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(deleteQuery)).
		WithArgs("agrivision_user").
		WillReturnError(errors.New("locked"))

	if err := repo.Delete(context.Background(), "agrivision_user"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Delete(context.Background(), "agrivision_user"); err == nil {
		t.Errorf("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestSQLKVRepository_SQLite(t *testing.T) {
	conn, err := db.InitSQLite(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("InitSQLite: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	repo := NewSQLKVRepository(conn)

	if _, err := repo.Get(ctx, "k"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected kv.ErrNotFound, got %v", err)
	}
	if err := repo.Set(ctx, "k", []byte("one")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := repo.Set(ctx, "k", []byte("two")); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, err := repo.Get(ctx, "k")
	if err != nil || string(got) != "two" {
		t.Fatalf("Get = %q, %v; want %q", got, err, "two")
	}
	if err := repo.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, "k"); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("expected kv.ErrNotFound after delete, got %v", err)
	}
}
