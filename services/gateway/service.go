// Package gateway orchestrates each client request: it probes the backend,
// asks the fallback policy for a path and serves the request along it.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/upb/sketch-gateway/internal/observability"
	"github.com/upb/sketch-gateway/models"
	"github.com/upb/sketch-gateway/services"
	"github.com/upb/sketch-gateway/services/audit"
	"github.com/upb/sketch-gateway/services/backend"
	"github.com/upb/sketch-gateway/services/fallback"
	"github.com/upb/sketch-gateway/utils"
	"go.uber.org/zap"
)

// BackendClient is the subset of the backend client the gateway needs
type BackendClient interface {
	Probe(ctx context.Context) backend.HealthStatus
	ListGenerations(ctx context.Context, rawQuery string) (*models.HistoryResponse, error)
	ListStyles(ctx context.Context) (*models.StylesResponse, error)
	Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error)
	SubmitFeedback(ctx context.Context, req models.FeedbackRequest) (*models.FeedbackResponse, error)
	SummarizeFeedback(ctx context.Context, req models.SummarizeRequest) (*models.SummarizeResponse, error)
	Refine(ctx context.Context, req models.RefineRequest) (*models.GenerationResult, error)
	GenerateStream(ctx context.Context, req models.GenerationRequest) (io.ReadCloser, error)
}

// MockGenerator produces placeholder results
type MockGenerator interface {
	Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error)
}

// Dispatch describes how one request was served
type Dispatch struct {
	Operation fallback.Operation `json:"operation"`
	Path      fallback.Path      `json:"path"`
	Health    backend.Outcome    `json:"health"`
}

// Service serves gateway operations
type Service struct {
	backend  BackendClient
	mock     MockGenerator
	policy   *fallback.Policy
	recorder audit.Recorder
	metrics  observability.Metrics
	logger   *zap.Logger
}

// NewService creates a new gateway service. A nil recorder or metrics is replaced by a no-op.
func NewService(
	backendClient BackendClient,
	mockGenerator MockGenerator,
	policy *fallback.Policy,
	recorder audit.Recorder,
	metrics observability.Metrics,
	logger *zap.Logger,
) *Service {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	if metrics == nil {
		metrics = observability.NopMetrics{}
	}
	return &Service{
		backend:  backendClient,
		mock:     mockGenerator,
		policy:   policy,
		recorder: recorder,
		metrics:  metrics,
		logger:   logger,
	}
}

// History lists past generations, degrading to an empty list whenever the backend cannot answer
func (s *Service) History(ctx context.Context, rawQuery string) (*models.HistoryResponse, Dispatch, error) {
	start := time.Now()
	d := Dispatch{Operation: fallback.OperationHistoryRead}

	if err := utils.ValidateQuery(rawQuery); err != nil {
		d.Path = fallback.PathError
		err = services.NewDomainError(services.ErrorTypeValidation, "invalid query string", err)
		s.finish(ctx, d, start, err)
		return nil, d, err
	}

	history, err := serveRead(ctx, s, &d, func(ctx context.Context) (*models.HistoryResponse, error) {
		return s.backend.ListGenerations(ctx, rawQuery)
	}, models.EmptyHistory)

	s.finish(ctx, d, start, err)
	return history, d, err
}

// Styles lists the available styles, degrading to an empty list whenever the backend cannot answer
func (s *Service) Styles(ctx context.Context) (*models.StylesResponse, Dispatch, error) {
	start := time.Now()
	d := Dispatch{Operation: fallback.OperationStylesRead}

	styles, err := serveRead(ctx, s, &d, s.backend.ListStyles, models.EmptyStyles)

	s.finish(ctx, d, start, err)
	return styles, d, err
}

// Generate produces sketches live when the backend is healthy and falls back to the mock generator otherwise.
// A falsy numImages is sent to the backend as its default; the mock applies its own configured default.
func (s *Service) Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, Dispatch, error) {
	start := time.Now()
	d := Dispatch{Operation: fallback.OperationGenerate}
	logger := observability.ForRequest(ctx, s.logger)

	logger.Info("starting generation",
		zap.String("style_id", req.StyleID),
		zap.Int("num_images", req.NumImages))

	health := s.backend.Probe(ctx)
	d.Health = health.Outcome
	d.Path = s.policy.Select(d.Operation, health.Healthy)

	logger.Debug("generation path selected",
		zap.String("path", string(d.Path)),
		zap.String("health", string(d.Health)))

	if d.Path == fallback.PathLive {
		result, err := s.backend.Generate(ctx, req.Normalized(models.DefaultNumImages))
		if err == nil {
			s.finish(ctx, d, start, nil)
			return result, d, nil
		}

		d.Path = s.policy.OnLiveFailure(d.Operation, backend.IsUnavailable(err))
		if d.Path == fallback.PathError {
			err = classifyBackendError(err)
			s.finish(ctx, d, start, err)
			return nil, d, err
		}
		logger.Warn("live generation unreachable, using mock generator", zap.Error(err))
	}

	result, err := s.mock.Generate(ctx, req)
	if err != nil {
		d.Path = fallback.PathError
		err = services.WrapInternal("mock generation failed", err)
		s.finish(ctx, d, start, err)
		return nil, d, err
	}

	s.finish(ctx, d, start, nil)
	return result, d, nil
}

// Refine reworks selected sketches. It needs the live pipeline and has no placeholder form.
func (s *Service) Refine(ctx context.Context, req models.RefineRequest) (*models.GenerationResult, Dispatch, error) {
	start := time.Now()
	d := Dispatch{Operation: fallback.OperationRefine}

	result, err := serveLive(ctx, s, &d, func(ctx context.Context) (*models.GenerationResult, error) {
		return s.backend.Refine(ctx, req)
	})

	s.finish(ctx, d, start, err)
	return result, d, err
}

// GenerateStream opens a live event stream for a generation. The caller owns
// the returned body. Latency is recorded up to the point the stream opens.
func (s *Service) GenerateStream(ctx context.Context, req models.GenerationRequest) (io.ReadCloser, Dispatch, error) {
	start := time.Now()
	d := Dispatch{Operation: fallback.OperationStream}
	req = req.Normalized(models.DefaultNumImages)

	stream, err := serveLive(ctx, s, &d, func(ctx context.Context) (io.ReadCloser, error) {
		return s.backend.GenerateStream(ctx, req)
	})

	s.finish(ctx, d, start, err)
	return stream, d, err
}

// SubmitFeedback forwards designer feedback. It has no degraded form.
func (s *Service) SubmitFeedback(ctx context.Context, req models.FeedbackRequest) (*models.FeedbackResponse, Dispatch, error) {
	start := time.Now()
	d := Dispatch{Operation: fallback.OperationFeedback}

	resp, err := serveLive(ctx, s, &d, func(ctx context.Context) (*models.FeedbackResponse, error) {
		return s.backend.SubmitFeedback(ctx, req)
	})

	s.finish(ctx, d, start, err)
	return resp, d, err
}

// SummarizeFeedback asks the backend to fold session feedback into the style
func (s *Service) SummarizeFeedback(ctx context.Context, req models.SummarizeRequest) (*models.SummarizeResponse, Dispatch, error) {
	start := time.Now()
	d := Dispatch{Operation: fallback.OperationFeedback}

	resp, err := serveLive(ctx, s, &d, func(ctx context.Context) (*models.SummarizeResponse, error) {
		return s.backend.SummarizeFeedback(ctx, req)
	})

	s.finish(ctx, d, start, err)
	return resp, d, err
}

// BackendHealth runs a single probe
func (s *Service) BackendHealth(ctx context.Context) backend.HealthStatus {
	return s.backend.Probe(ctx)
}

// serveRead runs a read operation: live when healthy, empty when not or when the live call fails
func serveRead[T any](ctx context.Context, s *Service, d *Dispatch, live func(context.Context) (T, error), empty func() T) (T, error) {
	health := s.backend.Probe(ctx)
	d.Health = health.Outcome
	d.Path = s.policy.Select(d.Operation, health.Healthy)

	if d.Path == fallback.PathLive {
		result, err := live(ctx)
		if err == nil {
			return result, nil
		}
		d.Path = s.policy.OnLiveFailure(d.Operation, backend.IsUnavailable(err))
		observability.ForRequest(ctx, s.logger).Warn("live read failed, degrading",
			zap.String("operation", string(d.Operation)),
			zap.Error(err))
	}

	if d.Path == fallback.PathDegradedEmpty {
		return empty(), nil
	}

	var zero T
	return zero, services.WrapInternal(fmt.Sprintf("no path serves %s", d.Operation), nil)
}

// serveLive runs an operation that only has a live form
func serveLive[T any](ctx context.Context, s *Service, d *Dispatch, live func(context.Context) (T, error)) (T, error) {
	var zero T

	health := s.backend.Probe(ctx)
	d.Health = health.Outcome
	d.Path = s.policy.Select(d.Operation, health.Healthy)

	if d.Path != fallback.PathLive {
		d.Path = fallback.PathError
		return zero, services.WrapUnavailable(fmt.Sprintf("generation backend unavailable (%s)", health.Outcome), nil)
	}

	result, err := live(ctx)
	if err != nil {
		d.Path = s.policy.OnLiveFailure(d.Operation, backend.IsUnavailable(err))
		return zero, classifyBackendError(err)
	}
	return result, nil
}

// finish logs, counts and records a served request
func (s *Service) finish(ctx context.Context, d Dispatch, start time.Time, err error) {
	latency := time.Since(start)
	status := http.StatusOK
	if err != nil {
		status = http.StatusInternalServerError
	}

	s.metrics.RecordDispatch(observability.DispatchLabels{
		Operation: string(d.Operation),
		Path:      string(d.Path),
		Status:    status,
	}, latency)

	s.recorder.Record(models.NewDispatchLog(middleware.GetReqID(ctx), string(d.Operation)).
		WithDecision(string(d.Path), string(d.Health)).
		WithResult(status, latency).
		WithError(err))

	fields := []zap.Field{
		zap.String("operation", string(d.Operation)),
		zap.String("path", string(d.Path)),
		zap.String("health", string(d.Health)),
		zap.Duration("latency", latency),
	}
	logger := observability.ForRequest(ctx, s.logger)
	if err != nil {
		logger.Error("request failed", append(fields, zap.Error(err))...)
		return
	}
	logger.Info("request dispatched", fields...)
}

// classifyBackendError maps backend client failures onto the domain error taxonomy
func classifyBackendError(err error) error {
	if backendErr, ok := backend.AsBackendError(err); ok {
		msg := fmt.Sprintf("backend returned HTTP %d: %s", backendErr.Status, backendErr.Body)
		if backendErr.Code != "" {
			msg = backendErr.Body
		}
		domainErr := services.NewDomainError(services.ErrorTypeExternal, msg, err).
			WithDetail("status", backendErr.Status)
		if backendErr.Code != "" {
			domainErr.WithDetail("code", backendErr.Code)
		}
		return domainErr
	}

	var unavailable *backend.UnavailableError
	if errors.As(err, &unavailable) {
		return services.NewDomainError(services.ErrorTypeUnavailable,
			fmt.Sprintf("generation backend unavailable (%s)", unavailable.Reason), err)
	}

	if errors.Is(err, backend.ErrMalformedResponse) {
		return services.WrapExternal("backend returned a malformed response", err)
	}

	return services.WrapInternal("backend call failed", err)
}
