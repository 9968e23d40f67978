package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationRequest_ImageCount(t *testing.T) {
	tests := []struct {
		name      string
		numImages int
		want      int
	}{
		{name: "absent", numImages: 0, want: DefaultNumImages},
		{name: "negative", numImages: -3, want: DefaultNumImages},
		{name: "explicit", numImages: 2, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := GenerationRequest{NumImages: tt.numImages}
			assert.Equal(t, tt.want, req.ImageCount())
		})
	}
}

func TestGenerationRequest_Normalized(t *testing.T) {
	req := GenerationRequest{Input: "flamingo", StyleID: "bold"}

	normalized := req.Normalized(0)

	assert.Equal(t, 4, normalized.NumImages)
	assert.Equal(t, 0, req.NumImages, "original must not change")
}

func TestGenerationRequest_CountOr(t *testing.T) {
	tests := []struct {
		name      string
		numImages int
		fallback  int
		want      int
	}{
		{name: "configured default", numImages: 0, fallback: 2, want: 2},
		{name: "explicit wins", numImages: 3, fallback: 2, want: 3},
		{name: "unset default", numImages: 0, fallback: 0, want: DefaultNumImages},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := GenerationRequest{NumImages: tt.numImages}
			assert.Equal(t, tt.want, req.CountOr(tt.fallback))
			assert.Equal(t, tt.want, req.Normalized(tt.fallback).NumImages)
		})
	}
}

func TestGenerationRequest_JSON(t *testing.T) {
	seed := int64(42)
	req := GenerationRequest{Input: "flamingo", StyleID: "bold", NumImages: 2, Seed: &seed}

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"input":"flamingo","styleId":"bold","numImages":2,"seed":42}`, string(data))
}

func TestEmptyPayloads(t *testing.T) {
	t.Run("history", func(t *testing.T) {
		data, err := json.Marshal(EmptyHistory())
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":true,"total":0,"generations":[]}`, string(data))
	})

	t.Run("styles", func(t *testing.T) {
		data, err := json.Marshal(EmptyStyles())
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":true,"styles":[]}`, string(data))
	})
}

func TestSketch_NullImagePath(t *testing.T) {
	sketch := Sketch{ID: "x_sketch_0", Resolution: [2]int{1024, 1024}, Error: "generation failed"}

	data, err := json.Marshal(sketch)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "imagePath")
	assert.Nil(t, decoded["imagePath"])
	assert.Equal(t, "generation failed", decoded["error"])
}

func TestSummarizeResponse_NullSummary(t *testing.T) {
	data, err := json.Marshal(SummarizeResponse{Success: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"summary":null}`, string(data))
}

func TestNewDispatchLog(t *testing.T) {
	log := NewDispatchLog("req-1", "generate").
		WithDecision("mock", "connection_refused").
		WithResult(200, 1500*time.Millisecond).
		WithError(nil)

	assert.NotEqual(t, uuid.Nil, log.ID)
	assert.Equal(t, "req-1", log.RequestID)
	assert.Equal(t, "generate", log.Operation)
	assert.Equal(t, "mock", log.Path)
	assert.Equal(t, "connection_refused", log.HealthOutcome)
	assert.Equal(t, 200, log.StatusCode)
	assert.Equal(t, 1500, log.LatencyMs)
	assert.Nil(t, log.ErrorMessage)
	assert.False(t, log.Timestamp.IsZero())
	assert.Equal(t, "gateway_dispatch_logs", log.TableName())
}

func TestDispatchLog_WithError(t *testing.T) {
	log := NewDispatchLog("", "history-read").WithError(errors.New("backend returned HTTP 503"))

	require.NotNil(t, log.ErrorMessage)
	assert.Equal(t, "backend returned HTTP 503", *log.ErrorMessage)
}
