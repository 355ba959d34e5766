package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/MatthewTaormina/Gemini-Web-UI/pkg/metrics"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

// Fragment is a settings value stored at a path.
type Fragment struct {
	Path      string    `json:"key"`
	Value     Value     `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FragmentStore persists settings fragments keyed by ltree path.
type FragmentStore interface {
	// GetMany returns the fragments that exist among paths; missing paths are absent from the map.
	GetMany(ctx context.Context, paths []string) (map[string]Value, error)
	Get(ctx context.Context, path string) (Value, bool, error)
	// Upsert atomically creates or replaces the fragment at path.
	Upsert(ctx context.Context, path string, value Value) error
	// Delete removes the fragment at path. Deleting a missing path is not an error.
	Delete(ctx context.Context, path string) error
	// ListSubtree returns prefix and every fragment below it, ordered by path.
	ListSubtree(ctx context.Context, prefix string) ([]Fragment, error)
}

// Resolver computes merged settings from the fragment hierarchy.
type Resolver struct {
	store FragmentStore
}

func NewResolver(store FragmentStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve merges every fragment in the precedence chain of scope. Fragments
// are fetched in a single call and missing ones are skipped.
func (r *Resolver) Resolve(ctx context.Context, scope Scope) (Value, error) {
	start := time.Now()
	defer func() { metrics.SettingsResolveDuration.Observe(time.Since(start).Seconds()) }()

	if err := ValidateScope(scope); err != nil {
		metrics.SettingsResolutions.WithLabelValues(resultError).Inc()
		return Value{}, err
	}

	chain := Chain(scope)
	found, err := r.store.GetMany(ctx, chain)
	if err != nil {
		metrics.SettingsResolutions.WithLabelValues(resultError).Inc()
		return Value{}, fmt.Errorf(errFetchFragmentsFmt, err)
	}

	result := EmptyObject()
	for _, path := range chain {
		if fragment, ok := found[path]; ok {
			result = Merge(result, fragment)
		}
	}

	metrics.SettingsResolutions.WithLabelValues(resultOK).Inc()
	return result, nil
}

func (r *Resolver) Get(ctx context.Context, path string) (Value, bool, error) {
	if err := ValidatePath(path); err != nil {
		return Value{}, false, err
	}

	v, ok, err := r.store.Get(ctx, path)
	if err != nil {
		return Value{}, false, fmt.Errorf(errFetchFragmentFmt, path, err)
	}
	return v, ok, nil
}

func (r *Resolver) Set(ctx context.Context, path string, value Value) error {
	if err := ValidatePath(path); err != nil {
		return err
	}

	if err := r.store.Upsert(ctx, path, value); err != nil {
		return fmt.Errorf(errStoreFragmentFmt, path, err)
	}
	return nil
}

func (r *Resolver) Delete(ctx context.Context, path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}

	if err := r.store.Delete(ctx, path); err != nil {
		return fmt.Errorf(errDeleteFragmentFmt, path, err)
	}
	return nil
}

func (r *Resolver) List(ctx context.Context, prefix string) ([]Fragment, error) {
	if prefix == "" {
		prefix = RootLabel
	}
	if err := ValidatePath(prefix); err != nil {
		return nil, err
	}

	fragments, err := r.store.ListSubtree(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf(errListFragmentsFmt, prefix, err)
	}
	return fragments, nil
}
