package id

import (
	"regexp"
	"testing"

	"github.com/google/uuid"
)

func TestUUIDGenerator(t *testing.T) {
	t.Parallel()

	g := NewUUIDGenerator()
	a, err := g.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	b, _ := g.NewID()
	if a == b {
		t.Fatalf("ids must differ")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Fatalf("id %q is not a uuid: %v", a, err)
	}
}

func TestRandomCodeGenerator(t *testing.T) {
	t.Parallel()

	pattern := regexp.MustCompile(`^[0-9A-Z]{6}$`)
	g := NewRandomCodeGenerator()
	for range 50 {
		code, err := g.NewJoinCode()
		if err != nil {
			t.Fatalf("new join code: %v", err)
		}
		if !pattern.MatchString(code) {
			t.Fatalf("unexpected join code %q", code)
		}
	}
}
