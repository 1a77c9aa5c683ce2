package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"lacquer/internal/badge"
	"lacquer/internal/compose"
	"lacquer/internal/config"
	"lacquer/internal/logging"
	"lacquer/internal/mediaserver"
	"lacquer/internal/render"
	"lacquer/internal/resolve"
)

// MediaServer is the slice of the media-server client the pipeline needs.
type MediaServer interface {
	Item(ctx context.Context, id string) (*mediaserver.Item, error)
	Poster(ctx context.Context, id string) ([]byte, error)
	UploadPoster(ctx context.Context, id, contentType string, data []byte) error
}

// Mode selects how a batch of items is scheduled.
type Mode string

const (
	// ModeImmediate processes items one at a time on the caller's goroutine.
	ModeImmediate Mode = "immediate"
	// ModeBatch always fans out to the configured worker pool.
	ModeBatch Mode = "batch"
	// ModeAuto runs sequentially for small batches and fans out past the
	// configured threshold.
	ModeAuto Mode = "auto"
)

// Outcome pairs one item with its processing result.
type Outcome struct {
	ItemID string
	Result badge.CompositeResult
	Err    error
}

// Controller drives one item through resolve, render, compose, write, and
// optional upload. It is safe for concurrent use.
type Controller struct {
	cfg      *config.Config
	server   MediaServer
	set      *resolve.Set
	renderer *render.Renderer
	policy   compose.LayoutPolicy
	logger   *slog.Logger
}

// New constructs a pipeline controller.
func New(cfg *config.Config, logger *slog.Logger, server MediaServer, set *resolve.Set) *Controller {
	return &Controller{
		cfg:      cfg,
		server:   server,
		set:      set,
		renderer: render.New(render.Options{
			TextSize:          cfg.Badges.TextSize,
			MaxWidth:          cfg.Badges.Size,
			BackgroundOpacity: cfg.Badges.BackgroundOpacity,
		}),
		policy:   compose.DefaultPolicy(cfg.Badges.EdgeMargin, cfg.Badges.StackPadding),
		logger:   logging.NewComponentLogger(logger, "pipeline"),
	}
}

// DefaultTypes returns the badge types configured for jobs that do not name
// their own, in stacking priority order.
func (c *Controller) DefaultTypes() []badge.Type {
	types := make([]badge.Type, 0, len(c.cfg.Badges.Types))
	for _, value := range c.cfg.Badges.Types {
		if parsed, ok := badge.ParseType(value); ok {
			types = append(types, parsed)
		}
	}
	if len(types) == 0 {
		types = badge.AllTypes()
	}
	badge.SortByPriority(types)
	return types
}

// ProcessItem badges one poster end to end. Badge-level problems are recorded
// on the result; the returned error is reserved for item-level failures
// (item lookup, poster fetch/decode, write, upload).
func (c *Controller) ProcessItem(ctx context.Context, itemID string, types []badge.Type) (badge.CompositeResult, error) {
	start := time.Now()
	result := badge.CompositeResult{ItemID: itemID}

	if len(types) == 0 {
		types = c.DefaultTypes()
	}

	item, err := c.server.Item(ctx, itemID)
	if err != nil {
		return result, fmt.Errorf("fetch item %s: %w", itemID, err)
	}

	posterBytes, err := c.server.Poster(ctx, itemID)
	if err != nil {
		return result, fmt.Errorf("fetch poster for %s: %w", itemID, err)
	}
	original, err := compose.DecodePoster(posterBytes)
	if err != nil {
		return result, fmt.Errorf("poster for %s: %w", itemID, err)
	}

	badgeResults := c.resolveBadges(ctx, item, types)

	overlays := make([]compose.Overlay, 0, len(badgeResults))
	for _, br := range badgeResults {
		if br.Status == badge.StatusApplied {
			overlays = append(overlays, compose.Overlay{Type: br.Type, Image: br.Overlay})
		} else {
			result.Failed = append(result.Failed, br.Type)
		}
	}

	composed, err := compose.Compose(original, overlays, c.policy)
	if err != nil {
		return result, fmt.Errorf("composite %s: %w", itemID, err)
	}
	result.Applied = composed.Applied
	result.Failed = append(result.Failed, composed.Failed...)

	encoded, err := compose.EncodePNG(composed.Image)
	if err != nil {
		return result, fmt.Errorf("encode composite for %s: %w", itemID, err)
	}

	outputPath := filepath.Join(c.cfg.Paths.OutputDir, itemID+".png")
	if err := os.WriteFile(outputPath, encoded, 0o644); err != nil {
		return result, fmt.Errorf("write composite for %s: %w", itemID, err)
	}
	result.OutputPath = outputPath

	if c.cfg.Jellyfin.UploadPosters {
		if err := c.server.UploadPoster(ctx, itemID, "image/png", encoded); err != nil {
			result.Elapsed = time.Since(start)
			return result, fmt.Errorf("upload poster for %s: %w", itemID, err)
		}
	}

	result.Elapsed = time.Since(start)
	c.logger.Info("item badged",
		logging.String(logging.FieldItemID, itemID),
		logging.Int("applied", len(result.Applied)),
		logging.Int("failed", len(result.Failed)),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// resolveBadges resolves and renders each requested type independently; one
// badge's failure never blocks the others.
func (c *Controller) resolveBadges(ctx context.Context, item *mediaserver.Item, types []badge.Type) []badge.Result {
	results := make([]badge.Result, 0, len(types))
	for _, badgeType := range types {
		results = append(results, c.resolveBadge(ctx, item, badgeType))
	}
	return results
}

func (c *Controller) resolveBadge(ctx context.Context, item *mediaserver.Item, badgeType badge.Type) badge.Result {
	chain, ok := c.set.Chain(badgeType)
	if !ok {
		return badge.Result{Type: badgeType, Status: badge.StatusFailed, Err: fmt.Errorf("no resolve chain for badge type %q", badgeType)}
	}

	resolution, err := chain.Resolve(ctx, item)
	if err != nil {
		c.logger.Warn("badge resolution failed",
			logging.String(logging.FieldItemID, item.ID),
			logging.String(logging.FieldBadge, string(badgeType)),
			logging.Error(err),
		)
		return badge.Result{Type: badgeType, Status: badge.StatusFailed, Err: err}
	}

	overlay, err := c.renderer.Render(badgeType, resolution.Data)
	if err != nil {
		status := badge.StatusFailed
		if errors.Is(err, render.ErrNoMapping) {
			status = badge.StatusSkipped
			c.logger.Debug("badge skipped, no visual mapping",
				logging.String(logging.FieldItemID, item.ID),
				logging.String(logging.FieldBadge, string(badgeType)),
				logging.String("value", resolution.Data.Value),
			)
		}
		return badge.Result{Type: badgeType, Status: status, Source: resolution.Source, Err: err}
	}

	return badge.Result{Type: badgeType, Status: badge.StatusApplied, Source: resolution.Source, Overlay: overlay}
}

// ProcessBatch runs a set of items under the given mode and returns one
// outcome per item in input order. A panic while processing an item is
// converted into that item's failure; the batch continues.
func (c *Controller) ProcessBatch(ctx context.Context, itemIDs []string, types []badge.Type, mode Mode) []Outcome {
	outcomes := make([]Outcome, len(itemIDs))
	width := c.concurrency(mode, len(itemIDs))

	if width <= 1 {
		for i, itemID := range itemIDs {
			outcomes[i] = c.processSafe(ctx, itemID, types)
		}
		return outcomes
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, width)
	for i, itemID := range itemIDs {
		wg.Add(1)
		go func(i int, itemID string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = c.processSafe(ctx, itemID, types)
		}(i, itemID)
	}
	wg.Wait()
	return outcomes
}

func (c *Controller) concurrency(mode Mode, batchSize int) int {
	switch mode {
	case ModeImmediate:
		return 1
	case ModeBatch:
		return c.cfg.Workflow.WorkerCount
	default: // ModeAuto
		if batchSize <= c.cfg.Workflow.AutoThreshold {
			return 1
		}
		return c.cfg.Workflow.WorkerCount
	}
}

// processSafe confines a panic to the item that raised it.
func (c *Controller) processSafe(ctx context.Context, itemID string, types []badge.Type) (outcome Outcome) {
	outcome.ItemID = itemID
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic while processing item",
				logging.String(logging.FieldItemID, itemID),
				logging.Any("panic", r),
			)
			outcome.Err = fmt.Errorf("panic processing item %s: %v", itemID, r)
		}
	}()
	outcome.Result, outcome.Err = c.ProcessItem(ctx, itemID, types)
	return outcome
}
