// Package dataset 提供CSV数据集的加载与清洗
package dataset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ColumnKind 列类型
type ColumnKind string

const (
	KindNumeric ColumnKind = "numeric"
	KindText    ColumnKind = "text"
)

// ErrColumnExists 列已存在
var ErrColumnExists = errors.New("column already exists")

// Table 内存中的表格数据，所有单元格保留原始字符串
type Table struct {
	columns []string
	kinds   []ColumnKind
	rows    [][]string

	cleaning CleaningStats
}

// NewTable 创建表格并推断列类型
func NewTable(columns []string, rows [][]string) (*Table, error) {
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d fields, expected %d", i, len(row), len(columns))
		}
	}
	t := &Table{
		columns: append([]string(nil), columns...),
		rows:    rows,
	}
	t.kinds = make([]ColumnKind, len(columns))
	for col := range columns {
		t.kinds[col] = t.inferKind(col)
	}
	return t, nil
}

// inferKind 所有非空单元格均可解析为数字时为数值列
func (t *Table) inferKind(col int) ColumnKind {
	seen := false
	for _, row := range t.rows {
		value := strings.TrimSpace(row[col])
		if value == "" {
			continue
		}
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return KindText
		}
		seen = true
	}
	if !seen {
		return KindText
	}
	return KindNumeric
}

func (t *Table) Columns() []string { return append([]string(nil), t.columns...) }

func (t *Table) NumRows() int { return len(t.rows) }

// Cleaning 加载时清洗规则的修正统计，未清洗时为零值
func (t *Table) Cleaning() CleaningStats { return t.cleaning }

func (t *Table) Cell(row, col int) string { return t.rows[row][col] }

func (t *Table) Row(i int) []string { return append([]string(nil), t.rows[i]...) }

// Kind 返回列类型
func (t *Table) Kind(col int) ColumnKind { return t.kinds[col] }

// Index 返回列下标，不存在时返回-1
func (t *Table) Index(name string) int {
	for i, column := range t.columns {
		if column == name {
			return i
		}
	}
	return -1
}

// Column 返回整列数据的副本
func (t *Table) Column(name string) ([]string, bool) {
	col := t.Index(name)
	if col < 0 {
		return nil, false
	}
	values := make([]string, len(t.rows))
	for i, row := range t.rows {
		values[i] = row[col]
	}
	return values, true
}

// Clone 深拷贝
func (t *Table) Clone() *Table {
	rows := make([][]string, len(t.rows))
	for i, row := range t.rows {
		rows[i] = append([]string(nil), row...)
	}
	return &Table{
		columns: append([]string(nil), t.columns...),
		kinds:   append([]ColumnKind(nil), t.kinds...),
		rows:    rows,
	}
}

// Head 返回前n行的副本，n<=0时返回全部
func (t *Table) Head(n int) *Table {
	if n <= 0 || n > len(t.rows) {
		n = len(t.rows)
	}
	head := &Table{
		columns: append([]string(nil), t.columns...),
		kinds:   append([]ColumnKind(nil), t.kinds...),
		rows:    make([][]string, n),
	}
	for i := 0; i < n; i++ {
		head.rows[i] = append([]string(nil), t.rows[i]...)
	}
	return head
}

// DropColumn 返回去掉指定列的新表；列不存在时返回副本且dropped为false
func (t *Table) DropColumn(name string) (result *Table, dropped bool) {
	col := t.Index(name)
	if col < 0 {
		return t.Clone(), false
	}
	result = &Table{
		columns: make([]string, 0, len(t.columns)-1),
		kinds:   make([]ColumnKind, 0, len(t.kinds)-1),
		rows:    make([][]string, len(t.rows)),
	}
	result.columns = append(append(result.columns, t.columns[:col]...), t.columns[col+1:]...)
	result.kinds = append(append(result.kinds, t.kinds[:col]...), t.kinds[col+1:]...)
	for i, row := range t.rows {
		out := make([]string, 0, len(row)-1)
		out = append(append(out, row[:col]...), row[col+1:]...)
		result.rows[i] = out
	}
	return result, true
}

// WithColumn 返回追加一列后的新表，原表不变
func (t *Table) WithColumn(name string, values []string) (*Table, error) {
	if t.Index(name) >= 0 {
		return nil, fmt.Errorf("%w: %s", ErrColumnExists, name)
	}
	if len(values) != len(t.rows) {
		return nil, fmt.Errorf("column %s has %d values, table has %d rows", name, len(values), len(t.rows))
	}
	result := &Table{
		columns: append(append([]string(nil), t.columns...), name),
		kinds:   append(append([]ColumnKind(nil), t.kinds...), KindText),
		rows:    make([][]string, len(t.rows)),
	}
	for i, row := range t.rows {
		out := make([]string, 0, len(row)+1)
		out = append(append(out, row...), values[i])
		result.rows[i] = out
	}
	return result, nil
}
