package dataset

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// CleaningRule 清洗规则，原地修改表格并返回修正的单元格数
type CleaningRule interface {
	Apply(*Table) (int, error)
	Name() string
}

// Cleaner 数据清洗器
type Cleaner struct {
	rules []CleaningRule

	stats     CleaningStats
	statsLock sync.RWMutex
}

// CleaningStats 清洗统计
type CleaningStats struct {
	TablesProcessed int64            `json:"tables_processed"`
	CellsCorrected  int64            `json:"cells_corrected"`
	Corrections     map[string]int64 `json:"corrections"`
	LastClean       time.Time        `json:"last_clean"`
}

// NewCleaner 创建数据清洗器
func NewCleaner(rules ...CleaningRule) *Cleaner {
	return &Cleaner{
		rules: rules,
		stats: CleaningStats{
			Corrections: make(map[string]int64),
		},
	}
}

// Clean 按顺序应用所有规则，返回本次修正的单元格数
func (c *Cleaner) Clean(t *Table) (int, error) {
	c.statsLock.Lock()
	defer c.statsLock.Unlock()

	total := 0
	for _, rule := range c.rules {
		corrected, err := rule.Apply(t)
		if err != nil {
			return total, fmt.Errorf("cleaning rule %s: %w", rule.Name(), err)
		}
		total += corrected
		c.stats.Corrections[rule.Name()] += int64(corrected)
	}

	c.stats.TablesProcessed++
	c.stats.CellsCorrected += int64(total)
	c.stats.LastClean = time.Now()
	return total, nil
}

// GetStats 获取统计信息
func (c *Cleaner) GetStats() CleaningStats {
	c.statsLock.RLock()
	defer c.statsLock.RUnlock()

	stats := c.stats
	stats.Corrections = make(map[string]int64, len(c.stats.Corrections))
	for name, count := range c.stats.Corrections {
		stats.Corrections[name] = count
	}
	return stats
}

// ============ 清洗规则实现 ============

// TrimSpaceRule 去除文本列首尾空白
type TrimSpaceRule struct{}

func NewTrimSpaceRule() *TrimSpaceRule {
	return &TrimSpaceRule{}
}

func (r *TrimSpaceRule) Name() string {
	return "trim_space"
}

func (r *TrimSpaceRule) Apply(t *Table) (int, error) {
	corrected := 0
	for col, kind := range t.kinds {
		if kind != KindText {
			continue
		}
		for _, row := range t.rows {
			trimmed := strings.TrimSpace(row[col])
			if trimmed != row[col] {
				row[col] = trimmed
				corrected++
			}
		}
	}
	return corrected, nil
}
