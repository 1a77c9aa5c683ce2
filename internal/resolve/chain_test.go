package resolve_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"lacquer/internal/badge"
	"lacquer/internal/logging"
	"lacquer/internal/mediaserver"
	"lacquer/internal/resolve"
)

type fakeProvider struct {
	name  string
	data  badge.Data
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Fetch(context.Context, *mediaserver.Item) (badge.Data, error) {
	f.calls++
	if f.err != nil {
		return badge.Data{}, f.err
	}
	return f.data, nil
}

func testItem() *mediaserver.Item {
	return &mediaserver.Item{ID: "item-1", Name: "Some Movie", Type: "Movie"}
}

func TestResolveFirstProviderWins(t *testing.T) {
	first := &fakeProvider{name: "first", data: badge.Data{Value: "2160p"}}
	second := &fakeProvider{name: "second", data: badge.Data{Value: "1080p"}}
	chain := resolve.NewChain(badge.TypeResolution, resolve.NewCache(time.Hour), logging.NewNop(), nil, first, second)

	res, err := chain.Resolve(context.Background(), testItem())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Source != badge.SourcePrimary || res.Data.Value != "2160p" {
		t.Fatalf("unexpected resolution: %+v", res)
	}
	if second.calls != 0 {
		t.Error("second provider should not be called when first succeeds")
	}
}

func TestResolveFailingPrimaryFallsThroughToDemo(t *testing.T) {
	failing := &fakeProvider{name: "primary", err: errors.New("connection timed out")}
	chain := resolve.NewChain(badge.TypeReview, resolve.NewCache(time.Hour), logging.NewNop(),
		resolve.NewDemoProvider(badge.TypeReview), failing)

	first, err := chain.Resolve(context.Background(), testItem())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if first.Source != badge.SourceFallback {
		t.Fatalf("expected fallback source, got %s", first.Source)
	}

	// Demo values stay consistent across repeated calls.
	second, err := chain.Resolve(context.Background(), testItem())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if second.Data.Score != first.Data.Score {
		t.Fatalf("demo value changed between calls: %v vs %v", second.Data.Score, first.Data.Score)
	}
}

func TestResolveCachedValueServesWhenProvidersFail(t *testing.T) {
	provider := &fakeProvider{name: "primary", data: badge.Data{Value: "truehd"}}
	cache := resolve.NewCache(time.Hour)
	chain := resolve.NewChain(badge.TypeAudio, cache, logging.NewNop(), nil, provider)

	item := testItem()
	first, err := chain.Resolve(context.Background(), item)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if first.Source != badge.SourcePrimary {
		t.Fatalf("expected primary source, got %s", first.Source)
	}

	// Provider goes dark; the cached value from the first resolve steps in.
	provider.err = errors.New("connection refused")
	second, err := chain.Resolve(context.Background(), item)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if second.Source != badge.SourceCached {
		t.Fatalf("expected cached source, got %s", second.Source)
	}
	if second.Data.Value != "truehd" {
		t.Fatalf("cached value drifted: %q", second.Data.Value)
	}
}

func TestResolveHealthyProviderBeatsCache(t *testing.T) {
	provider := &fakeProvider{name: "primary", data: badge.Data{Value: "2160p"}}
	cache := resolve.NewCache(time.Hour)
	cache.Put("item-1", badge.TypeResolution, badge.Data{Value: "1080p"})
	chain := resolve.NewChain(badge.TypeResolution, cache, logging.NewNop(), nil, provider)

	res, err := chain.Resolve(context.Background(), testItem())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Source != badge.SourcePrimary || res.Data.Value != "2160p" {
		t.Fatalf("expected fresh primary data, got %+v", res)
	}
}

func TestResolveExhaustedWithoutDemoTier(t *testing.T) {
	failing := &fakeProvider{name: "primary", err: errors.New("boom")}
	chain := resolve.NewChain(badge.TypeAwards, resolve.NewCache(time.Hour), logging.NewNop(), nil, failing)

	if _, err := chain.Resolve(context.Background(), testItem()); !errors.Is(err, resolve.ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
}

func TestResolveNotAvailableAdvancesTier(t *testing.T) {
	empty := &fakeProvider{name: "empty", err: resolve.ErrNotAvailable}
	backup := &fakeProvider{name: "backup", data: badge.Data{Value: "wins"}}
	chain := resolve.NewChain(badge.TypeAwards, resolve.NewCache(time.Hour), logging.NewNop(), nil, empty, backup)

	res, err := chain.Resolve(context.Background(), testItem())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Provider != "backup" {
		t.Fatalf("expected backup provider, got %s", res.Provider)
	}
}
