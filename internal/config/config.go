// Package config loads and validates ucibridge configuration files.
//
// A config file is YAML:
//
//	engine:
//	  path: /usr/local/bin/stockfish
//	  args: []
//	options:
//	  - {name: Threads, value: "4"}
//	analysis:
//	  movetime_ms: 1500
//	transcript:
//	  db: ucibridge.db
//	log:
//	  level: info
//
// Decoding rejects unknown fields. The decoded value, with defaults applied,
// is then checked against an embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/ucibridge/internal/uci"
)

//go:embed schema.cue
var schemaSource string

// Defaults applied to fields left empty.
const (
	DefaultMoveTime = 1500 * time.Millisecond
	DefaultLogLevel = "info"
)

// Validation error codes (E200-E299).
const (
	ErrCodeParse    = "E200" // file is not valid YAML or has unknown fields
	ErrCodeSchema   = "E201" // value violates the schema
	ErrCodeNotFound = "E202" // config file does not exist
)

// Config is the full configuration.
type Config struct {
	Engine     Engine       `yaml:"engine" json:"engine"`
	Options    []uci.Option `yaml:"options,omitempty" json:"options,omitempty"`
	Analysis   Analysis     `yaml:"analysis" json:"analysis"`
	Transcript Transcript   `yaml:"transcript" json:"transcript"`
	Log        Log          `yaml:"log" json:"log"`
}

// Engine locates the engine binary.
type Engine struct {
	Path string   `yaml:"path" json:"path"`
	Args []string `yaml:"args,omitempty" json:"args,omitempty"`
}

// Analysis holds search defaults.
type Analysis struct {
	MoveTimeMS int `yaml:"movetime_ms" json:"movetime_ms"`
	Depth      int `yaml:"depth,omitempty" json:"depth,omitempty"`
}

// MoveTime returns the configured search time.
func (a Analysis) MoveTime() time.Duration {
	return time.Duration(a.MoveTimeMS) * time.Millisecond
}

// Transcript configures the transcript store. An empty DB disables it.
type Transcript struct {
	DB string `yaml:"db,omitempty" json:"db,omitempty"`
}

// Log configures logging.
type Log struct {
	Level string `yaml:"level" json:"level"`
}

// SlogLevel maps Level onto a slog.Level.
func (l Log) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// EngineOptions returns the setoption list. A config that never mentions
// options gets uci.DefaultOptions; an explicit empty list sends none.
func (c *Config) EngineOptions() []uci.Option {
	if c.Options == nil {
		return uci.DefaultOptions()
	}
	return c.Options
}

// ValidationError describes one problem with a config.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Errors is a non-empty list of validation errors.
type Errors []ValidationError

// Error joins the messages one per line.
func (es Errors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// Default returns a config for an engine at path with every default applied.
func Default(path string) *Config {
	c := &Config{Engine: Engine{Path: path}}
	c.applyDefaults()
	return c
}

// Load reads, decodes and validates the config at path.
// The returned error is an Errors value on validation failure.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, Errors{{Code: ErrCodeNotFound, Message: fmt.Sprintf("config file not found: %s", path)}}
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a config document.
func Parse(data []byte) (*Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, Errors{{Code: ErrCodeParse, Message: err.Error()}}
	}

	c.applyDefaults()
	if errs := Validate(&c); len(errs) > 0 {
		return nil, errs
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Analysis.MoveTimeMS == 0 {
		c.Analysis.MoveTimeMS = int(DefaultMoveTime / time.Millisecond)
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// Validate checks c against the schema.
// Returns all errors found (does not fail-fast).
func Validate(c *Config) Errors {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return Errors{{Code: ErrCodeSchema, Message: fmt.Sprintf("compile schema: %v", err)}}
	}

	v := schema.Unify(ctx.Encode(c))
	err := v.Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var errs Errors
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		errs = append(errs, ValidationError{
			Field:   strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
			Code:    ErrCodeSchema,
		})
	}
	return errs
}
