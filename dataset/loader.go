package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/transform"
)

// ErrMalformed CSV无法解析
var ErrMalformed = errors.New("malformed csv")

// LoadOptions 加载选项
type LoadOptions struct {
	Encoding string
	Rules    []CleaningRule
}

// LoadCSV 读取CSV文件，首行为表头。文件不存在时返回的错误包装 fs.ErrNotExist
func LoadCSV(path string, opts LoadOptions) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer file.Close()

	table, err := ReadCSV(file, opts)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return table, nil
}

// ReadCSV 从reader解析CSV并应用清洗规则
func ReadCSV(r io.Reader, opts LoadOptions) (*Table, error) {
	decoder, err := decoderFor(opts.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bufio.NewReader(transform.NewReader(r, decoder)))
	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: missing header", ErrMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		rows = append(rows, record)
	}

	table, err := NewTable(header, rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if len(opts.Rules) > 0 {
		cleaner := NewCleaner(opts.Rules...)
		if _, err := cleaner.Clean(table); err != nil {
			return nil, err
		}
		table.cleaning = cleaner.GetStats()
	}
	return table, nil
}
