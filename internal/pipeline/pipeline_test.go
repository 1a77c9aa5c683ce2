package pipeline_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"lacquer/internal/badge"
	"lacquer/internal/config"
	"lacquer/internal/logging"
	"lacquer/internal/mediaserver"
	"lacquer/internal/pipeline"
	"lacquer/internal/resolve"
	"lacquer/internal/testsupport"
)

type fakeServer struct {
	mu          sync.Mutex
	items       map[string]*mediaserver.Item
	poster      []byte
	uploads     map[string]string
	panicOn     string
	posterDelay time.Duration

	inFlight int32
	maxSeen  int32
}

func newFakeServer(t *testing.T, itemIDs ...string) *fakeServer {
	t.Helper()
	server := &fakeServer{
		items:   make(map[string]*mediaserver.Item),
		poster:  testsupport.PosterPNG(t, 600, 900),
		uploads: make(map[string]string),
	}
	for _, id := range itemIDs {
		server.items[id] = &mediaserver.Item{
			ID:   id,
			Name: "Movie " + id,
			Type: "Movie",
			MediaStreams: []mediaserver.MediaStream{
				{Type: "Video", Codec: "hevc", Width: 3840, Height: 2160},
				{Type: "Audio", Codec: "truehd", Channels: 8},
			},
		}
	}
	return server
}

func (f *fakeServer) Item(_ context.Context, id string) (*mediaserver.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return nil, mediaserver.ErrNotFound
	}
	return item, nil
}

func (f *fakeServer) Poster(_ context.Context, id string) ([]byte, error) {
	if id == f.panicOn {
		panic("poster fetch exploded")
	}
	current := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		max := atomic.LoadInt32(&f.maxSeen)
		if current <= max || atomic.CompareAndSwapInt32(&f.maxSeen, max, current) {
			break
		}
	}
	if f.posterDelay > 0 {
		time.Sleep(f.posterDelay)
	}
	return f.poster, nil
}

func (f *fakeServer) UploadPoster(_ context.Context, id, contentType string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(data) == 0 {
		return fmt.Errorf("empty upload for %s", id)
	}
	f.uploads[id] = contentType
	return nil
}

func newController(cfg *config.Config, server pipeline.MediaServer) *pipeline.Controller {
	set := resolve.NewSet(cfg, logging.NewNop(), nil, nil)
	return pipeline.New(cfg, logging.NewNop(), server, set)
}

func TestProcessItemBadgeAccounting(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	server := newFakeServer(t, "item-1")
	controller := newController(cfg, server)

	requested := badge.AllTypes()
	result, err := controller.ProcessItem(context.Background(), "item-1", requested)
	if err != nil {
		t.Fatalf("ProcessItem failed: %v", err)
	}

	if len(result.Applied)+len(result.Failed) != len(requested) {
		t.Fatalf("badge accounting broken: applied=%v failed=%v requested=%v",
			result.Applied, result.Failed, requested)
	}
	// Stream-backed plus demo tiers cover every type; nothing should fail.
	if len(result.Failed) != 0 {
		t.Fatalf("unexpected failed badges: %v", result.Failed)
	}
	if result.OutputPath == "" {
		t.Fatal("expected output path")
	}
	if _, err := os.Stat(result.OutputPath); err != nil {
		t.Fatalf("composite not written: %v", err)
	}
	if result.Elapsed <= 0 {
		t.Fatal("expected elapsed to be recorded")
	}
	if len(server.uploads) != 0 {
		t.Fatal("upload should be disabled in test config")
	}
}

func TestProcessItemUploadsWhenConfigured(t *testing.T) {
	cfg := testsupport.NewConfig(t, func(cfg *config.Config) {
		cfg.Jellyfin.URL = "http://localhost:8096"
		cfg.Jellyfin.APIKey = "key"
		cfg.Jellyfin.UploadPosters = true
	})
	server := newFakeServer(t, "item-1")
	controller := newController(cfg, server)

	if _, err := controller.ProcessItem(context.Background(), "item-1", []badge.Type{badge.TypeResolution}); err != nil {
		t.Fatalf("ProcessItem failed: %v", err)
	}
	if server.uploads["item-1"] != "image/png" {
		t.Fatalf("expected png upload, got %q", server.uploads["item-1"])
	}
}

func TestProcessItemMissingItemIsItemLevelFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	server := newFakeServer(t)
	controller := newController(cfg, server)

	if _, err := controller.ProcessItem(context.Background(), "ghost", nil); err == nil {
		t.Fatal("expected error for unknown item")
	}
}

func TestProcessBatchAutoRunsSequentiallyBelowThreshold(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAutoThreshold(10), testsupport.WithWorkerCount(4))
	ids := []string{"a", "b", "c", "d", "e", "f"}
	server := newFakeServer(t, ids...)
	server.posterDelay = 5 * time.Millisecond
	controller := newController(cfg, server)

	outcomes := controller.ProcessBatch(context.Background(), ids, nil, pipeline.ModeAuto)
	if len(outcomes) != len(ids) {
		t.Fatalf("expected %d outcomes, got %d", len(ids), len(outcomes))
	}
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			t.Fatalf("item %s failed: %v", outcome.ItemID, outcome.Err)
		}
	}
	if max := atomic.LoadInt32(&server.maxSeen); max != 1 {
		t.Fatalf("expected sequential processing, saw %d concurrent fetches", max)
	}
}

func TestProcessBatchFansOutPastThreshold(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAutoThreshold(2), testsupport.WithWorkerCount(4))
	ids := make([]string, 12)
	for i := range ids {
		ids[i] = fmt.Sprintf("item-%02d", i)
	}
	server := newFakeServer(t, ids...)
	server.posterDelay = 5 * time.Millisecond
	controller := newController(cfg, server)

	outcomes := controller.ProcessBatch(context.Background(), ids, nil, pipeline.ModeAuto)
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			t.Fatalf("item %s failed: %v", outcome.ItemID, outcome.Err)
		}
		if outcome.Result.OutputPath == "" {
			t.Fatalf("item %s has no output", outcome.ItemID)
		}
	}
	if max := atomic.LoadInt32(&server.maxSeen); max < 2 {
		t.Fatalf("expected pooled processing, saw %d concurrent fetches", max)
	}
	if max := atomic.LoadInt32(&server.maxSeen); max > 4 {
		t.Fatalf("pool exceeded configured width: %d", max)
	}
}

func TestProcessBatchConfinesPanicToOneItem(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ids := []string{"good-1", "boom", "good-2"}
	server := newFakeServer(t, ids...)
	server.panicOn = "boom"
	controller := newController(cfg, server)

	outcomes := controller.ProcessBatch(context.Background(), ids, nil, pipeline.ModeImmediate)
	if outcomes[0].Err != nil || outcomes[2].Err != nil {
		t.Fatalf("healthy items failed: %v, %v", outcomes[0].Err, outcomes[2].Err)
	}
	if outcomes[1].Err == nil {
		t.Fatal("expected panic to surface as item failure")
	}
}
