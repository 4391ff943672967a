package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ziadkadry99/mcporch/internal/analyzers"
	"github.com/ziadkadry99/mcporch/internal/config"
	"github.com/ziadkadry99/mcporch/internal/db"
	"github.com/ziadkadry99/mcporch/internal/flow"
	"github.com/ziadkadry99/mcporch/internal/history"
	"github.com/ziadkadry99/mcporch/internal/pipeline"
	"github.com/ziadkadry99/mcporch/internal/prompt"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `mcporch init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// runtime is the wired pipeline plus its optional history store.
type runtime struct {
	service *pipeline.Service
	history *history.Store
	db      *db.DB
}

func (r *runtime) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// newRuntime builds the analyzer registry and pipeline service from cfg and
// opens run history when it is enabled.
func newRuntime(cfg *config.Config, logger *slog.Logger) (*runtime, error) {
	reg, err := analyzers.NewRegistry(cfg)
	if err != nil {
		return nil, err
	}

	rt := &runtime{}
	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithCacheCapacity(cfg.CacheCapacity),
	}
	if cfg.History.Enabled {
		database, err := db.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("opening history database: %w", err)
		}
		rt.db = database
		rt.history = history.NewStore(database)
		opts = append(opts, pipeline.WithRecorder(rt.history))
	}

	rt.service = pipeline.New(reg, flow.New(cfg.Thresholds), prompt.NewBuilder(), opts...)
	return rt, nil
}

// readSource reads path, or in when path is empty or "-".
func readSource(path string, in io.Reader) (string, error) {
	if path != "" && path != "-" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}
