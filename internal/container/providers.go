package container

import (
	"context"
	"fmt"
	"io"

	"github.com/garyjia/travel-expense-portal/internal/application/port"
	"github.com/garyjia/travel-expense-portal/internal/config"
	"github.com/garyjia/travel-expense-portal/internal/infrastructure/document"
	"github.com/garyjia/travel-expense-portal/internal/infrastructure/external/lark"
	"github.com/garyjia/travel-expense-portal/internal/infrastructure/external/openai"
	"github.com/garyjia/travel-expense-portal/internal/infrastructure/persistence/memory"
	"github.com/garyjia/travel-expense-portal/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/travel-expense-portal/internal/infrastructure/storage"
	"go.uber.org/zap"
)

// Provider functions build individual components from configuration.
// Each provider is a pure function that takes dependencies and returns a component.

// StoreBundle is the key/value store together with its release hook
type StoreBundle struct {
	Store  port.KVStore
	Closer io.Closer
}

// ProvideStore opens the driver selected in cfg
func ProvideStore(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (*StoreBundle, error) {
	switch cfg.Driver {
	case config.StorageSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return &StoreBundle{Store: store, Closer: store}, nil
	case config.StorageFile:
		store, err := storage.NewFileStore(cfg.FileDir, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create file store: %w", err)
		}
		return &StoreBundle{Store: store, Closer: nopCloser{}}, nil
	case config.StorageMemory:
		store := memory.NewStore()
		return &StoreBundle{Store: store, Closer: store}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// ProvidePrompts loads the prompt catalogue and applies the sampling
// overrides from cfg
func ProvidePrompts(cfg *config.OpenAIConfig) (*openai.PromptConfig, error) {
	prompts, err := openai.LoadPrompts(cfg.PromptsPath)
	if err != nil {
		return nil, err
	}
	for _, p := range []*openai.Prompt{&prompts.TripExtraction, &prompts.ReceiptExtraction, &prompts.ExpenseSummary} {
		if cfg.Temperature > 0 {
			p.Temperature = cfg.Temperature
		}
		if cfg.MaxTokens > 0 {
			p.MaxTokens = cfg.MaxTokens
		}
	}
	return prompts, nil
}

// ProvideExtractor creates the OpenAI extractor with PDF support. recorder may be nil.
func ProvideExtractor(cfg *config.OpenAIConfig, recorder openai.OutcomeRecorder, logger *zap.Logger) (*openai.Extractor, error) {
	prompts, err := ProvidePrompts(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}

	opts := []openai.Option{openai.WithRasterizer(document.NewRasterizer(logger))}
	if recorder != nil {
		opts = append(opts, openai.WithOutcomeRecorder(recorder))
	}

	return openai.NewExtractor(openai.Config{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		VisionModel: cfg.VisionModel,
		Timeout:     cfg.Timeout,
	}, prompts, logger, opts...), nil
}

// ProvideNotifier creates the Lark approver notifier, or nil when Lark is not configured
func ProvideNotifier(cfg *config.LarkConfig, logger *zap.Logger) port.SubmissionNotifier {
	larkCfg := lark.Config{
		AppID:          cfg.AppID,
		AppSecret:      cfg.AppSecret,
		ApproverOpenID: cfg.ApproverOpenID,
	}
	if !larkCfg.Enabled() {
		logger.Info("Lark not configured, submission notifications disabled")
		return nil
	}
	client := lark.NewSDKClient(larkCfg)
	return lark.NewNotifier(client.Im.Message, larkCfg.ApproverOpenID, logger)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
