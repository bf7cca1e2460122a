package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestLoadMigrations_SortedByName(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"0002_groups.sql": "CREATE TABLE g();",
		"0001_init.sql":   "CREATE TABLE t();",
		"README.md":       "ignored",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	files, err := loadMigrations(dir)
	if err != nil {
		t.Fatalf("loadMigrations failed: %v", err)
	}
	if len(files) != 2 || files[0].Version != "0001_init" || files[1].Version != "0002_groups" {
		t.Fatalf("unexpected files: %+v", files)
	}
	if files[0].SQL != "CREATE TABLE t();" {
		t.Fatalf("unexpected sql: %q", files[0].SQL)
	}
}

func TestLoadMigrations_Errors(t *testing.T) {
	if _, err := loadMigrations(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error for missing dir")
	}
	if _, err := loadMigrations(t.TempDir()); err == nil {
		t.Fatalf("expected error for empty dir")
	}
}

func newMockMigrator(t *testing.T) (*migrator, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &migrator{db: db}, mock
}

func TestMigrator_ApplySkipsRecordedVersions(t *testing.T) {
	m, mock := newMockMigrator(t)
	files := []migrationFile{
		{Version: "0001_init", SQL: "CREATE TABLE tickers ();"},
		{Version: "0002_groups", SQL: "CREATE TABLE groups ();"},
	}

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(selectAppliedSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("0001_init"))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE groups ();")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(insertAppliedSQL)).
		WithArgs("0002_groups").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := m.Apply(context.Background(), files)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 applied, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMigrator_ApplyRollsBackFailedFile(t *testing.T) {
	m, mock := newMockMigrator(t)
	files := []migrationFile{{Version: "0001_init", SQL: "CREATE TABLE broken"}}

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(selectAppliedSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE broken")).
		WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()

	n, err := m.Apply(context.Background(), files)
	if err == nil {
		t.Fatalf("expected error")
	}
	if n != 0 {
		t.Fatalf("expected 0 applied, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
