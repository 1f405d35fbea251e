package infra

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestExtractMarker(t *testing.T) {
	query := "--sql 4f55a9b7-4e9f-4e45-a3b3-5a532d21d9db\nselect 1;\n"
	marker, body, err := extractMarker(query)
	if err != nil {
		t.Fatalf("extractMarker error: %v", err)
	}
	if marker != "4f55a9b7-4e9f-4e45-a3b3-5a532d21d9db" {
		t.Fatalf("marker = %q", marker)
	}
	if body != "select 1;" {
		t.Fatalf("body = %q, want %q", body, "select 1;")
	}
}

func TestExtractMarkerRejectsMissingMarker(t *testing.T) {
	tests := []string{
		"select 1;",
		"--sql not-a-uuid\nselect 1;",
		"   ",
	}
	for _, q := range tests {
		if _, _, err := extractMarker(q); err == nil {
			t.Fatalf("expected error for %q", q)
		}
	}
}

func TestIsNoRows(t *testing.T) {
	if !IsNoRows(fmt.Errorf("scan job: %w", pgx.ErrNoRows)) {
		t.Fatalf("wrapped ErrNoRows should be detected")
	}
	if IsNoRows(errors.New("boom")) {
		t.Fatalf("unrelated error must not be treated as no rows")
	}
}
