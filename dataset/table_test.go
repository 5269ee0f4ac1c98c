package dataset

import (
	"errors"
	"testing"
)

func sampleTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable(
		[]string{"age", "occupation", "income"},
		[][]string{
			{"39", " Adm-clerical", " <=50K"},
			{" 50", "Exec-managerial ", ">50K"},
			{"", "Prof-specialty", "<=50K"},
		},
	)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return table
}

func TestNewTableInfersKinds(t *testing.T) {
	table := sampleTable(t)
	if table.Kind(0) != KindNumeric {
		t.Errorf("age: expected numeric, got %s", table.Kind(0))
	}
	if table.Kind(1) != KindText {
		t.Errorf("occupation: expected text, got %s", table.Kind(1))
	}
}

func TestNewTableRejectsRaggedRows(t *testing.T) {
	if _, err := NewTable([]string{"a", "b"}, [][]string{{"1"}}); err == nil {
		t.Fatal("expected error for ragged row")
	}
}

func TestDropColumn(t *testing.T) {
	table := sampleTable(t)

	dropped, ok := table.DropColumn("income")
	if !ok {
		t.Fatal("expected income to be dropped")
	}
	if got := dropped.Columns(); len(got) != 2 || got[0] != "age" || got[1] != "occupation" {
		t.Fatalf("unexpected columns: %v", got)
	}
	if table.Index("income") != 2 {
		t.Fatal("source table must keep its columns")
	}

	same, ok := table.DropColumn("Attrition")
	if ok {
		t.Fatal("dropping an absent column must report false")
	}
	if same.NumRows() != table.NumRows() || len(same.Columns()) != 3 {
		t.Fatalf("absent column drop must be a no-op, got %v", same.Columns())
	}
}

func TestWithColumn(t *testing.T) {
	table := sampleTable(t)

	result, err := table.WithColumn("Prediksi_Income", []string{"<=50K", ">50K", "<=50K"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Columns()) != 4 || result.Cell(1, 3) != ">50K" {
		t.Fatalf("unexpected result: %v", result.Row(1))
	}
	if len(table.Columns()) != 3 || len(table.Row(0)) != 3 {
		t.Fatal("WithColumn must not mutate the source table")
	}

	if _, err := table.WithColumn("income", []string{"a", "b", "c"}); !errors.Is(err, ErrColumnExists) {
		t.Fatalf("expected ErrColumnExists, got %v", err)
	}
	if _, err := table.WithColumn("extra", []string{"a"}); err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func TestHead(t *testing.T) {
	table := sampleTable(t)
	if got := table.Head(2).NumRows(); got != 2 {
		t.Fatalf("expected 2 rows, got %d", got)
	}
	if got := table.Head(0).NumRows(); got != 3 {
		t.Fatalf("Head(0) should return all rows, got %d", got)
	}
	if got := table.Head(50).NumRows(); got != 3 {
		t.Fatalf("Head(50) should clamp to 3, got %d", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	table := sampleTable(t)
	clone := table.Clone()
	clone.rows[0][1] = "changed"
	if table.Cell(0, 1) != " Adm-clerical" {
		t.Fatal("clone shares row storage with source")
	}
}
