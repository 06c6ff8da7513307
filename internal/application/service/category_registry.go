package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/garyjia/travel-expense-portal/internal/application/port"
	"github.com/garyjia/travel-expense-portal/internal/domain/entity"
	"github.com/garyjia/travel-expense-portal/pkg/utils"
)

// CategoryRegistry is the open set of expense category labels. It always
// contains the built-in seed set and only ever grows.
type CategoryRegistry struct {
	store  port.KVStore
	logger port.Logger

	mu     sync.RWMutex
	labels []string
}

// NewCategoryRegistry creates a registry holding the built-in categories
func NewCategoryRegistry(store port.KVStore, logger port.Logger) *CategoryRegistry {
	if logger == nil {
		logger = port.NopLogger{}
	}
	return &CategoryRegistry{
		store:  store,
		logger: logger,
		labels: append([]string{}, entity.BuiltinCategories...),
	}
}

// Load replaces the registry with the persisted labels plus any missing seed
// labels. A malformed persisted value is ignored.
func (r *CategoryRegistry) Load(ctx context.Context) error {
	raw, ok, err := r.store.Load(ctx, entity.CategoriesKey)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	if !ok {
		return nil
	}

	var saved []string
	if err := json.Unmarshal(raw, &saved); err != nil {
		r.logger.Error("Ignoring malformed category registry", "error", err)
		return nil
	}

	merged := make([]string, 0, len(saved)+len(entity.BuiltinCategories))
	seen := make(map[string]bool)
	for _, label := range append(saved, entity.BuiltinCategories...) {
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		merged = append(merged, label)
	}

	r.mu.Lock()
	r.labels = merged
	r.mu.Unlock()
	return nil
}

// Labels returns the registered categories in insertion order
func (r *CategoryRegistry) Labels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.labels...)
}

// Contains reports an exact, case-sensitive match
func (r *CategoryRegistry) Contains(label string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.containsLocked(label)
}

func (r *CategoryRegistry) containsLocked(label string) bool {
	for _, l := range r.labels {
		if l == label {
			return true
		}
	}
	return false
}

// Register appends label if it is not already present and persists the whole
// registry. It reports whether the label was new.
func (r *CategoryRegistry) Register(ctx context.Context, label string) (bool, error) {
	label = utils.SanitizeString(label)
	if label == "" {
		return false, fmt.Errorf("%w: empty category", ErrInvalidValue)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.containsLocked(label) {
		return false, nil
	}
	r.labels = append(r.labels, label)

	payload, err := json.Marshal(r.labels)
	if err != nil {
		return true, fmt.Errorf("encode categories: %w", err)
	}
	if err := r.store.Save(ctx, entity.CategoriesKey, payload); err != nil {
		r.logger.Error("Failed to persist categories", "label", label, "error", err)
		return true, fmt.Errorf("save categories: %w", err)
	}
	r.logger.Info("Category registered", "label", label)
	return true, nil
}
