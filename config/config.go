package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"predictdemo/workflow"
)

type Config struct {
	Http struct {
		Port    int           `yaml:"port"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"http"`
	DataDir string `yaml:"data_dir"`
	Log     Log    `yaml:"log"`
	Cache   struct {
		Size  int  `yaml:"size"`
		Watch bool `yaml:"watch"`
	} `yaml:"cache"`
	History struct {
		Path string `yaml:"path"`
	} `yaml:"history"`
	Variants []Variant `yaml:"variants"`
}

type Log struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Variant is the YAML form of workflow.Variant. A variant whose name matches a
// built-in one replaces it; other names are appended.
type Variant struct {
	Name             string            `yaml:"name"`
	Title            string            `yaml:"title"`
	Description      string            `yaml:"description"`
	Topic            string            `yaml:"topic"`
	Dataset          string            `yaml:"dataset"`
	Encoding         string            `yaml:"encoding"`
	Models           map[string]string `yaml:"models"`
	LabelColumn      string            `yaml:"label_column"`
	PredictionColumn string            `yaml:"prediction_column"`
	Classes          []string          `yaml:"classes"`
	TrimWhitespace   bool              `yaml:"trim_whitespace"`
	PreviewRows      int               `yaml:"preview_rows"`
	ResultRows       *int              `yaml:"result_rows"`
}

const (
	DefaultPort        = 8080
	DefaultTimeout     = 30 * time.Second
	DefaultPreviewRows = 5
	DefaultResultRows  = 20
)

func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the YAML file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var cfg Config
	if err := yaml.NewDecoder(file).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Http.Port == 0 {
		c.Http.Port = DefaultPort
	}
	if c.Http.Timeout == 0 {
		c.Http.Timeout = DefaultTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 100
	}
	if c.Cache.Size == 0 {
		c.Cache.Size = workflow.DefaultCacheSize
	}
}

func (c *Config) Validate() error {
	if c.Http.Port < 0 || c.Http.Port > 65535 {
		return fmt.Errorf("invalid http port %d", c.Http.Port)
	}
	if c.Http.Timeout < 0 {
		return errors.New("http timeout must not be negative")
	}
	if c.Cache.Size < 0 {
		return errors.New("cache size must not be negative")
	}
	_, err := c.Catalogue()
	return err
}

// Catalogue merges the configured variants into the built-in ones.
func (c *Config) Catalogue() (*workflow.Catalogue, error) {
	variants := workflow.DefaultVariants()
	index := make(map[string]int, len(variants))
	for i, v := range variants {
		index[v.Name] = i
	}
	for _, vc := range c.Variants {
		v, err := vc.toWorkflow()
		if err != nil {
			return nil, err
		}
		if i, ok := index[v.Name]; ok {
			variants[i] = v
			continue
		}
		index[v.Name] = len(variants)
		variants = append(variants, v)
	}
	return workflow.NewCatalogue(variants)
}

func (vc Variant) toWorkflow() (workflow.Variant, error) {
	v := workflow.Variant{
		Name:             vc.Name,
		Title:            vc.Title,
		Description:      vc.Description,
		Topic:            vc.Topic,
		DatasetPath:      vc.Dataset,
		DatasetEncoding:  vc.Encoding,
		ModelPaths:       make(map[workflow.Algorithm]string, len(vc.Models)),
		LabelColumn:      vc.LabelColumn,
		PredictionColumn: vc.PredictionColumn,
		Classes:          vc.Classes,
		TrimWhitespace:   vc.TrimWhitespace,
		PreviewRows:      vc.PreviewRows,
		ResultRows:       DefaultResultRows,
	}
	if v.Title == "" {
		v.Title = v.Name
	}
	if v.PreviewRows == 0 {
		v.PreviewRows = DefaultPreviewRows
	}
	if vc.ResultRows != nil {
		v.ResultRows = *vc.ResultRows
	}
	for name, path := range vc.Models {
		alg, err := workflow.ParseAlgorithm(name)
		if err != nil {
			return workflow.Variant{}, fmt.Errorf("variant %s: %w", vc.Name, err)
		}
		v.ModelPaths[alg] = path
	}
	return v, v.Validate()
}
