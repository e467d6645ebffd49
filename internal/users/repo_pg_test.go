package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoGet(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	defer mockDB.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"username", "password_hash", "two_factor_enabled", "two_factor_secret", "created_at", "updated_at"}).
		AddRow("alice", "$argon2id$...", true, "JBSWY3DPEHPK3PXP", now, now)
	mock.ExpectQuery(`SELECT username, password_hash, two_factor_enabled, two_factor_secret, created_at, updated_at`).
		WithArgs("alice").
		WillReturnRows(rows)

	repo := &PGRepo{DB: mockDB}
	user, err := repo.Get(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if user.Username != "alice" || !user.TwoFactorEnabled || user.TwoFactorSecret != "JBSWY3DPEHPK3PXP" {
		t.Fatalf("unexpected user: %+v", user)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGRepoGetNullSecret(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	defer mockDB.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"username", "password_hash", "two_factor_enabled", "two_factor_secret", "created_at", "updated_at"}).
		AddRow("bob", "$argon2id$...", false, nil, now, nil)
	mock.ExpectQuery(`SELECT username, password_hash`).
		WithArgs("bob").
		WillReturnRows(rows)

	repo := &PGRepo{DB: mockDB}
	user, err := repo.Get(context.Background(), "bob")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if user.TwoFactorSecret != "" || user.TwoFactorEnabled {
		t.Fatalf("expected empty second factor state, got %+v", user)
	}
}

func TestPGRepoGetNotFound(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT username, password_hash`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	repo := &PGRepo{DB: mockDB}
	_, err = repo.Get(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoCreate(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	defer mockDB.Close()

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("alice", "$argon2id$...", false, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &PGRepo{DB: mockDB}
	err = repo.Create(context.Background(), User{Username: "alice", PasswordHash: "$argon2id$..."})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGRepoCreateDuplicate(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	defer mockDB.Close()

	// ON CONFLICT DO NOTHING reports zero affected rows when the key is taken.
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("alice", "$argon2id$newer", false, nil).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &PGRepo{DB: mockDB}
	err = repo.Create(context.Background(), User{Username: "alice", PasswordHash: "$argon2id$newer"})
	if !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestPGRepoPutUpsert(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	defer mockDB.Close()

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("alice", "$argon2id$...", false, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &PGRepo{DB: mockDB}
	err = repo.Put(context.Background(), User{Username: "alice", PasswordHash: "$argon2id$..."})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGRepoExists(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	repo := &PGRepo{DB: mockDB}
	exists, err := repo.Exists(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Fatal("expected exists true")
	}
}
