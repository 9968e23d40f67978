// Package mock produces placeholder generation results when the backend
// cannot serve a generate request.
package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/upb/sketch-gateway/models"
	"go.uber.org/zap"
)

// TimestampLayout formats result timestamps as YYYYMMDD_HHMMSS
const TimestampLayout = "20060102_150405"

const (
	defaultDelay     = 1500 * time.Millisecond
	defaultWidth     = 1024
	defaultHeight    = 1024
	defaultModelName = "nano-banana"
	defaultOutputDir = "mock_outputs"
)

// Delayer waits for a duration or until ctx is done
type Delayer interface {
	Delay(ctx context.Context, d time.Duration) error
}

// TimerDelayer waits on a real timer
type TimerDelayer struct{}

// Delay implements Delayer
func (TimerDelayer) Delay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Config holds mock generator settings
type Config struct {
	Delay            time.Duration
	Width            int
	Height           int
	ModelName        string
	OutputDir        string
	DefaultNumImages int
}

// Option customizes a Generator
type Option func(*Generator)

// WithDelayer replaces the timer-based delay
func WithDelayer(d Delayer) Option {
	return func(g *Generator) {
		g.delayer = d
	}
}

// WithClock replaces the wall clock used for timestamps
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// Generator builds synthetic generation results
type Generator struct {
	config  Config
	delayer Delayer
	now     func() time.Time
	logger  *zap.Logger
}

// NewGenerator creates a new mock generator
func NewGenerator(config Config, logger *zap.Logger, opts ...Option) *Generator {
	if config.Delay < 0 {
		config.Delay = defaultDelay
	}
	if config.Width <= 0 {
		config.Width = defaultWidth
	}
	if config.Height <= 0 {
		config.Height = defaultHeight
	}
	if config.ModelName == "" {
		config.ModelName = defaultModelName
	}
	if config.OutputDir == "" {
		config.OutputDir = defaultOutputDir
	}
	if config.DefaultNumImages <= 0 {
		config.DefaultNumImages = models.DefaultNumImages
	}

	g := &Generator{
		config:  config,
		delayer: TimerDelayer{},
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate waits for the simulated latency and then returns one sketch per
// requested image. The only error is ctx ending during the wait.
func (g *Generator) Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error) {
	count := req.NumImages
	if count <= 0 {
		count = g.config.DefaultNumImages
	}

	if err := g.delayer.Delay(ctx, g.config.Delay); err != nil {
		return nil, fmt.Errorf("mock generation interrupted: %w", err)
	}

	timestamp := g.now().UTC().Format(TimestampLayout)
	resolution := [2]int{g.config.Width, g.config.Height}

	sketches := make([]models.Sketch, 0, count)
	for i := 0; i < count; i++ {
		imagePath := fmt.Sprintf("/generated/%s/sketch_%d.png", timestamp, i)
		sketches = append(sketches, models.Sketch{
			ID:         fmt.Sprintf("%s_sketch_%d", timestamp, i),
			ImagePath:  &imagePath,
			Resolution: resolution,
			Metadata: models.SketchMetadata{
				PromptSpec: models.PromptSpec{
					Intent:              req.Input,
					RefinedIntent:       req.Input,
					NegativeConstraints: []string{},
				},
				ReferenceImages: []string{},
				RetrievalScores: []float64{},
			},
		})
	}

	g.logger.Debug("mock generation produced",
		zap.String("timestamp", timestamp),
		zap.String("style_id", req.StyleID),
		zap.Int("num_images", count))

	return &models.GenerationResult{
		Timestamp: timestamp,
		Sketches:  sketches,
		GenerationMetadata: models.GenerationMetadata{
			StyleID: req.StyleID,
			ConfigUsed: models.ConfigUsed{
				NumImages:  count,
				Resolution: resolution,
				OutputDir:  g.config.OutputDir,
				ModelName:  g.config.ModelName,
				Seed:       req.Seed,
			},
		},
	}, nil
}
