package dataset

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adult.csv")
	content := "age,workclass,income\n39, State-gov, <=50K\n50, Self-emp-not-inc, >50K\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	table, err := LoadCSV(path, LoadOptions{Rules: []CleaningRule{NewTrimSpaceRule()}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", table.NumRows())
	}
	if table.Cell(0, 1) != "State-gov" || table.Cell(1, 2) != ">50K" {
		t.Fatalf("expected trimmed values, got %v / %v", table.Row(0), table.Row(1))
	}
	if stats := table.Cleaning(); stats.CellsCorrected != 4 || stats.Corrections["trim_space"] != 4 {
		t.Fatalf("unexpected cleaning stats: %+v", stats)
	}
}

func TestLoadCSVWithoutTrim(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("a,b\n1, x\n"), LoadOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Cell(0, 1) != " x" {
		t.Fatalf("expected untouched padding, got %q", table.Cell(0, 1))
	}
	if table.Cleaning().TablesProcessed != 0 {
		t.Fatal("no cleaning rules were configured")
	}
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "absent.csv"), LoadOptions{})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestReadCSVMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "ragged", input: "a,b\n1,2,3\n"},
		{name: "bare quote", input: "a,b\n\"1,2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input), LoadOptions{})
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestReadCSVEncodings(t *testing.T) {
	latin1, err := charmap.ISO8859_1.NewEncoder().String("name,city\nJosé,Málaga\n")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		encoding string
		input    string
		want     string
	}{
		{name: "utf-8 with bom", encoding: "", input: "\ufeffname,city\nJosé,Málaga\n", want: "name"},
		{name: "utf-8-sig", encoding: EncodingUTF8BOM, input: "\ufeffname,city\nJosé,Málaga\n", want: "name"},
		{name: "latin1", encoding: EncodingLatin1, input: latin1, want: "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ReadCSV(strings.NewReader(tt.input), LoadOptions{Encoding: tt.encoding})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if table.Columns()[0] != tt.want {
				t.Fatalf("expected header %q, got %q", tt.want, table.Columns()[0])
			}
			if table.Cell(0, 0) != "José" || table.Cell(0, 1) != "Málaga" {
				t.Fatalf("unexpected decoded row: %v", table.Row(0))
			}
		})
	}

	if _, err := ReadCSV(strings.NewReader("a\n1\n"), LoadOptions{Encoding: "ebcdic"}); err == nil {
		t.Fatal("expected error for unsupported encoding")
	}
}
