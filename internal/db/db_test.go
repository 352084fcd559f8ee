package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/starquake/trivia/internal/db"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(t.Context(), "sqlite", ":memory:", 1, 1, time.Minute)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	t.Cleanup(func() {
		if err := conn.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})

	return conn
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		conn := openMemory(t)

		if err := conn.PingContext(t.Context()); err != nil {
			t.Errorf("failed to ping database: %v", err)
		}
		if got, want := conn.Stats().MaxOpenConnections, 1; got != want {
			t.Errorf("got MaxOpenConnections %d, want %d", got, want)
		}
	})

	t.Run("context canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		cancel() // Cancel immediately

		conn, err := db.Open(ctx, "sqlite", ":memory:", 1, 1, time.Minute)
		if err == nil {
			_ = conn.Close()
			t.Fatal("expected error due to canceled context, got nil")
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Parallel()

		_, err := db.Open(t.Context(), "nosuchdriver", "", 1, 1, time.Minute)
		if err == nil {
			t.Fatal("expected error for unknown driver, got nil")
		}
	})
}

func TestDialect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		driver  string
		want    string
		wantErr error
	}{
		{driver: "sqlite", want: "sqlite3"},
		{driver: "sqlite3", want: "sqlite3"},
		{driver: "postgres", wantErr: db.ErrUnsupportedDriver},
		{driver: "", wantErr: db.ErrUnsupportedDriver},
	}
	for _, tt := range tests {
		got, err := db.Dialect(tt.driver)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("Dialect(%q) error = %v, want %v", tt.driver, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("Dialect(%q) = %q, want %q", tt.driver, got, tt.want)
		}
	}
}

// Migrate touches goose's global state, so these tests do not run in parallel.
func TestMigrate(t *testing.T) {
	t.Run("creates schema and reference categories", func(t *testing.T) {
		conn := openMemory(t)

		if err := db.Migrate(t.Context(), conn, "sqlite"); err != nil {
			t.Fatalf("error migrating: %v", err)
		}

		var count int
		if err := conn.QueryRowContext(t.Context(), "SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
			t.Fatalf("error counting categories: %v", err)
		}
		if got, want := count, 6; got != want {
			t.Errorf("got %d categories, want %d", got, want)
		}

		if _, err := conn.ExecContext(t.Context(), "SELECT id, question, answer, category_id, difficulty FROM questions"); err != nil {
			t.Errorf("questions table missing: %v", err)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		conn := openMemory(t)

		for range 2 {
			if err := db.Migrate(t.Context(), conn, "sqlite3"); err != nil {
				t.Fatalf("error migrating: %v", err)
			}
		}
	})

	t.Run("unsupported driver", func(t *testing.T) {
		conn := openMemory(t)

		err := db.Migrate(t.Context(), conn, "postgres")
		if got, want := err, db.ErrUnsupportedDriver; !errors.Is(got, want) {
			t.Fatalf("got error %v, want %v", got, want)
		}
	})
}

func TestExecTx(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) *sql.DB {
		t.Helper()

		conn := openMemory(t)
		if _, err := conn.ExecContext(t.Context(), "CREATE TABLE things (name TEXT NOT NULL)"); err != nil {
			t.Fatalf("error creating table: %v", err)
		}

		return conn
	}

	count := func(t *testing.T, conn *sql.DB) int {
		t.Helper()

		var n int
		if err := conn.QueryRowContext(t.Context(), "SELECT COUNT(*) FROM things").Scan(&n); err != nil {
			t.Fatalf("error counting: %v", err)
		}

		return n
	}

	t.Run("commit", func(t *testing.T) {
		t.Parallel()

		conn := setup(t)
		err := db.ExecTx(t.Context(), conn, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(t.Context(), "INSERT INTO things (name) VALUES ('a'), ('b')")

			return err
		})
		if err != nil {
			t.Fatalf("ExecTx() error: %v", err)
		}
		if got, want := count(t, conn), 2; got != want {
			t.Errorf("got %d rows, want %d", got, want)
		}
	})

	t.Run("rollback", func(t *testing.T) {
		t.Parallel()

		conn := setup(t)
		testErr := errors.New("forced failure")
		err := db.ExecTx(t.Context(), conn, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(t.Context(), "INSERT INTO things (name) VALUES ('a')"); err != nil {
				return err
			}

			return testErr
		})
		if got, want := err, testErr; !errors.Is(got, want) {
			t.Fatalf("got error %v, want %v", got, want)
		}
		if got, want := count(t, conn), 0; got != want {
			t.Errorf("got %d rows, want %d", got, want)
		}
	})
}
