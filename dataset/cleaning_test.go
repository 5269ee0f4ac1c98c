package dataset

import (
	"testing"
)

func TestTrimSpaceRule(t *testing.T) {
	table := sampleTable(t)
	rule := NewTrimSpaceRule()

	corrected, err := rule.Apply(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if corrected != 3 {
		t.Fatalf("expected 3 corrected cells, got %d", corrected)
	}
	if table.Cell(0, 1) != "Adm-clerical" || table.Cell(1, 1) != "Exec-managerial" || table.Cell(0, 2) != "<=50K" {
		t.Fatalf("text columns not trimmed: %v %v", table.Row(0), table.Row(1))
	}
	if table.Cell(1, 0) != " 50" {
		t.Fatalf("numeric columns must be left alone, got %q", table.Cell(1, 0))
	}
}

func TestTrimSpaceRuleIsIdempotent(t *testing.T) {
	table := sampleTable(t)
	rule := NewTrimSpaceRule()
	if _, err := rule.Apply(table); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	once := table.Clone()

	corrected, err := rule.Apply(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if corrected != 0 {
		t.Fatalf("second pass corrected %d cells", corrected)
	}
	for row := 0; row < table.NumRows(); row++ {
		for col := range table.Columns() {
			if table.Cell(row, col) != once.Cell(row, col) {
				t.Fatalf("cell (%d,%d) changed: %q -> %q", row, col, once.Cell(row, col), table.Cell(row, col))
			}
		}
	}
}

func TestCleanerStats(t *testing.T) {
	cleaner := NewCleaner(NewTrimSpaceRule())
	if _, err := cleaner.Clean(sampleTable(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cleaner.Clean(sampleTable(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats := cleaner.GetStats()
	if stats.TablesProcessed != 2 {
		t.Errorf("expected 2 tables, got %d", stats.TablesProcessed)
	}
	if stats.CellsCorrected != 6 || stats.Corrections["trim_space"] != 6 {
		t.Errorf("unexpected corrections: %+v", stats)
	}
	if stats.LastClean.IsZero() {
		t.Error("LastClean not set")
	}
}
