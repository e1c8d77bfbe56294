package dialect

import (
	"errors"
	"testing"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Kind
	}{
		{"arrow", "Limit\n  ->  Sort", PostgreSQL},
		{"cost", "Seq Scan on orders  (cost=0.00..100.00 rows=5000 width=40)", PostgreSQL},
		{"planning time", "Planning Time: 0.1 ms", PostgreSQL},
		{"mysql vertical", "*************************** 1. row ***************************\n           id: 1\n        table: orders\npossible_keys: PRIMARY", MySQL},
		{"garbage", "hello world", Unknown},
		{"empty", "", Unknown},
	}
	for _, tt := range tests {
		if got := Detect(tt.text); got != tt.want {
			t.Errorf("%s: Detect = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestParseRoutesToPostgres(t *testing.T) {
	plan, err := Parse("Seq Scan on orders  (cost=0.00..100.00 rows=5000 width=40)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if plan.Root.Table != "orders" {
		t.Fatalf("table = %q", plan.Root.Table)
	}
}

func TestParseMySQLUnsupported(t *testing.T) {
	_, err := Parse("        table: orders\npossible_keys: PRIMARY")
	if !errors.Is(err, ErrMySQLNotSupported) {
		t.Fatalf("error = %v, want ErrMySQLNotSupported", err)
	}
}

func TestParseUnknownDialect(t *testing.T) {
	if _, err := Parse("not a plan of any kind"); err == nil {
		t.Fatalf("expected error for unknown dialect")
	}
}
