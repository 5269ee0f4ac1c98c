package monitoring

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"predictdemo/workflow"
)

// MetricType 指标类型
type MetricType string

const (
	MetricTypeCounter   MetricType = "counter"
	MetricTypeGauge     MetricType = "gauge"
	MetricTypeHistogram MetricType = "histogram"
)

const maxMetricHistory = 1000

// Metric 指标
type Metric struct {
	Name      string            `json:"name"`
	Type      MetricType        `json:"type"`
	Value     float64           `json:"value"`
	Labels    map[string]string `json:"labels,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Help      string            `json:"help,omitempty"`
}

// series 同名同标签指标的当前值：计数器累加，仪表取最新，直方图记sum/count
type series struct {
	Type  MetricType
	Help  string
	Value float64
	Sum   float64
	Count int64
}

// MetricsCollector 指标收集器
type MetricsCollector struct {
	metrics     map[string][]*Metric
	series      map[string]map[string]*series
	metricsLock sync.RWMutex

	startTime time.Time
}

// NewMetricsCollector 创建指标收集器
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics:   make(map[string][]*Metric),
		series:    make(map[string]map[string]*series),
		startTime: time.Now(),
	}
}

// RecordMetric 记录指标
func (mc *MetricsCollector) RecordMetric(metric *Metric) {
	mc.metricsLock.Lock()
	defer mc.metricsLock.Unlock()

	metric.Timestamp = time.Now()
	mc.metrics[metric.Name] = append(mc.metrics[metric.Name], metric)

	// 保留最近的记录
	if len(mc.metrics[metric.Name]) > maxMetricHistory {
		mc.metrics[metric.Name] = mc.metrics[metric.Name][100:]
	}
	mc.updateSeries(metric)
}

func (mc *MetricsCollector) updateSeries(metric *Metric) {
	byLabels, ok := mc.series[metric.Name]
	if !ok {
		byLabels = make(map[string]*series)
		mc.series[metric.Name] = byLabels
	}
	key := formatLabels(metric.Labels)
	s, ok := byLabels[key]
	if !ok {
		s = &series{Type: metric.Type}
		byLabels[key] = s
	}
	if metric.Help != "" {
		s.Help = metric.Help
	}
	switch metric.Type {
	case MetricTypeCounter:
		s.Value += metric.Value
	case MetricTypeHistogram:
		s.Sum += metric.Value
		s.Count++
		s.Value = metric.Value
	default:
		s.Value = metric.Value
	}
}

// GetMetric 获取指标
func (mc *MetricsCollector) GetMetric(name string) ([]*Metric, error) {
	mc.metricsLock.RLock()
	defer mc.metricsLock.RUnlock()

	metrics, ok := mc.metrics[name]
	if !ok {
		return nil, fmt.Errorf("metric %s not found", name)
	}

	// 返回副本
	result := make([]*Metric, len(metrics))
	for i, m := range metrics {
		metricCopy := *m
		result[i] = &metricCopy
	}
	return result, nil
}

// MetricSummary 指标摘要
type MetricSummary struct {
	Name    string    `json:"name"`
	Count   int       `json:"count"`
	Sum     float64   `json:"sum"`
	Latest  float64   `json:"latest"`
	Min     float64   `json:"min"`
	Max     float64   `json:"max"`
	Average float64   `json:"average"`
	Updated time.Time `json:"updated"`
}

// GetMetricSummary 获取指标摘要
func (mc *MetricsCollector) GetMetricSummary(name string) (MetricSummary, error) {
	metrics, err := mc.GetMetric(name)
	if err != nil {
		return MetricSummary{}, err
	}
	summary := MetricSummary{Name: name, Count: len(metrics)}
	if len(metrics) == 0 {
		return summary, nil
	}

	latest := metrics[len(metrics)-1]
	summary.Latest = latest.Value
	summary.Updated = latest.Timestamp
	summary.Min = metrics[0].Value
	summary.Max = metrics[0].Value
	for _, m := range metrics {
		summary.Sum += m.Value
		if m.Value < summary.Min {
			summary.Min = m.Value
		}
		if m.Value > summary.Max {
			summary.Max = m.Value
		}
	}
	summary.Average = summary.Sum / float64(len(metrics))
	return summary, nil
}

// IncrCounter 增加计数器
func (mc *MetricsCollector) IncrCounter(name string, value float64, labels map[string]string) {
	mc.RecordMetric(&Metric{Name: name, Type: MetricTypeCounter, Value: value, Labels: labels})
}

// SetGauge 设置仪表
func (mc *MetricsCollector) SetGauge(name string, value float64, labels map[string]string) {
	mc.RecordMetric(&Metric{Name: name, Type: MetricTypeGauge, Value: value, Labels: labels})
}

// RecordHistogram 记录直方图
func (mc *MetricsCollector) RecordHistogram(name string, value float64, labels map[string]string) {
	mc.RecordMetric(&Metric{Name: name, Type: MetricTypeHistogram, Value: value, Labels: labels})
}

// Run 定期采集运行时指标，直到ctx结束
func (mc *MetricsCollector) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mc.collectRuntimeMetrics()
		}
	}
}

// collectRuntimeMetrics 收集内存和协程指标
func (mc *MetricsCollector) collectRuntimeMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	mc.SetGauge("memory_heap_alloc", float64(m.HeapAlloc), nil)
	mc.SetGauge("system_goroutines", float64(runtime.NumGoroutine()), nil)
}

// ExportPrometheus 导出Prometheus文本格式，每个标签组合一行；直方图按summary导出_sum和_count
func (mc *MetricsCollector) ExportPrometheus() string {
	mc.metricsLock.RLock()
	defer mc.metricsLock.RUnlock()

	names := make([]string, 0, len(mc.series))
	for name := range mc.series {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		byLabels := mc.series[name]
		keys := make([]string, 0, len(byLabels))
		for key := range byLabels {
			keys = append(keys, key)
		}
		if len(keys) == 0 {
			continue
		}
		sort.Strings(keys)

		first := byLabels[keys[0]]
		help := first.Help
		if help == "" {
			help = fmt.Sprintf("Metric %s", name)
		}
		typ := first.Type
		if typ == MetricTypeHistogram {
			typ = "summary"
		}
		fmt.Fprintf(&b, "# HELP %s %s\n", name, help)
		fmt.Fprintf(&b, "# TYPE %s %s\n", name, typ)
		for _, key := range keys {
			s := byLabels[key]
			if s.Type == MetricTypeHistogram {
				fmt.Fprintf(&b, "%s_sum%s %g\n", name, key, s.Sum)
				fmt.Fprintf(&b, "%s_count%s %d\n", name, key, s.Count)
				continue
			}
			fmt.Fprintf(&b, "%s%s %g\n", name, key, s.Value)
		}
	}
	return b.String()
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("%s=%q", k, labels[k])
	}
	return "{" + strings.Join(pairs, ",") + "}"
}

// GetUptime 获取运行时间
func (mc *MetricsCollector) GetUptime() time.Duration {
	return time.Since(mc.startTime)
}

// GetSystemStats 获取系统统计
func (mc *MetricsCollector) GetSystemStats() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]interface{}{
		"uptime":     mc.GetUptime().String(),
		"goroutines": runtime.NumGoroutine(),
		"memory": map[string]interface{}{
			"alloc":      m.Alloc,
			"heap_alloc": m.HeapAlloc,
			"heap_inuse": m.HeapInuse,
			"gc_count":   m.NumGC,
		},
		"num_cpu": runtime.NumCPU(),
	}
}

// RunStat 单个变体的预测统计
type RunStat struct {
	Variant       string         `json:"variant"`
	Runs          int64          `json:"runs"`
	Failures      int64          `json:"failures"`
	Rows          int64          `json:"rows"`
	FailureByKind map[string]int `json:"failure_by_kind,omitempty"`
	LastRun       time.Time      `json:"last_run"`
}

// RunMetrics 预测业务指标
type RunMetrics struct {
	collector *MetricsCollector

	statsLock sync.RWMutex
	stats     map[string]*RunStat
}

// NewRunMetrics 创建预测业务指标
func NewRunMetrics(collector *MetricsCollector) *RunMetrics {
	if collector == nil {
		collector = NewMetricsCollector()
	}
	return &RunMetrics{
		collector: collector,
		stats:     make(map[string]*RunStat),
	}
}

func (rm *RunMetrics) Collector() *MetricsCollector { return rm.collector }

// ObserveRun 实现 workflow.Observer
func (rm *RunMetrics) ObserveRun(e workflow.RunEvent) {
	labels := map[string]string{"variant": e.Variant, "algorithm": string(e.Algorithm)}
	rm.collector.IncrCounter("prediction_runs_total", 1, labels)
	rm.collector.RecordHistogram("prediction_duration_seconds", e.Duration.Seconds(), labels)
	if e.Failed() {
		rm.collector.IncrCounter("prediction_failures_total", 1, map[string]string{
			"variant": e.Variant,
			"kind":    e.Kind.String(),
		})
	} else {
		rm.collector.SetGauge("prediction_rows", float64(e.Rows), labels)
	}

	rm.statsLock.Lock()
	defer rm.statsLock.Unlock()

	stat, ok := rm.stats[e.Variant]
	if !ok {
		stat = &RunStat{Variant: e.Variant, FailureByKind: make(map[string]int)}
		rm.stats[e.Variant] = stat
	}
	stat.Runs++
	stat.LastRun = e.At
	if e.Failed() {
		stat.Failures++
		stat.FailureByKind[e.Kind.String()]++
	} else {
		stat.Rows += int64(e.Rows)
	}
}

// Stats 返回各变体统计（按名称排序）
func (rm *RunMetrics) Stats() []RunStat {
	rm.statsLock.RLock()
	defer rm.statsLock.RUnlock()

	stats := make([]RunStat, 0, len(rm.stats))
	for _, stat := range rm.stats {
		statCopy := *stat
		statCopy.FailureByKind = make(map[string]int, len(stat.FailureByKind))
		for k, v := range stat.FailureByKind {
			statCopy.FailureByKind[k] = v
		}
		stats = append(stats, statCopy)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Variant < stats[j].Variant })
	return stats
}
