package postgres

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsNotFound(t *testing.T) {
	if !isNotFound(fmt.Errorf("select season: %w", sql.ErrNoRows)) {
		t.Fatalf("expected wrapped sql.ErrNoRows to be not found")
	}
	if isNotFound(fmt.Errorf("pq: relation seasons does not exist")) {
		t.Fatalf("expected unrelated error to not be not found")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	t.Run("matches 23505", func(t *testing.T) {
		err := fmt.Errorf("insert league member: %w", &pq.Error{Code: "23505"})
		if !isUniqueViolation(err) {
			t.Fatalf("expected true for unique violation")
		}
	})

	t.Run("ignores other codes", func(t *testing.T) {
		if isUniqueViolation(&pq.Error{Code: "23503"}) {
			t.Fatalf("expected false for foreign key violation")
		}
		if isUniqueViolation(fmt.Errorf("plain error")) {
			t.Fatalf("expected false for non pq error")
		}
	})
}

func TestOptionalString(t *testing.T) {
	if optionalString("") != nil {
		t.Fatalf("expected nil for empty string")
	}
	got := optionalString("KC")
	if got == nil || *got != "KC" {
		t.Fatalf("unexpected optional string: %v", got)
	}
	if stringFromPtr(nil) != "" || stringFromPtr(got) != "KC" {
		t.Fatalf("unexpected stringFromPtr result")
	}
}

func TestNullInt64Conversions(t *testing.T) {
	if nullInt64ToIntPtr(sql.NullInt64{}) != nil {
		t.Fatalf("expected nil for invalid null int")
	}
	got := nullInt64ToIntPtr(sql.NullInt64{Int64: 27, Valid: true})
	if got == nil || *got != 27 {
		t.Fatalf("expected 27, got %v", got)
	}
	back := intPtrToNullInt64(got)
	if !back.Valid || back.Int64 != 27 {
		t.Fatalf("unexpected round trip: %+v", back)
	}
	if intPtrToNullInt64(nil).Valid {
		t.Fatalf("expected invalid null int for nil")
	}
}
