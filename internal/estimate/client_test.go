package estimate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUpstream(t *testing.T, status int, content string) (*httptest.Server, *chatRequest) {
	t.Helper()
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		if status != http.StatusOK {
			http.Error(w, "upstream broke", status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestEstimateUsesHeavierWeight(t *testing.T) {
	reply := "```json\n" + `{"actualWeightGrams": 1450.4, "volumetricWeightGrams": 1820.6, "dimensions": "35x25x13 cm", "confidence": "high", "reasoning": "Shoe box."}` + "\n```"
	srv, got := newUpstream(t, http.StatusOK, reply)
	c := &Client{APIKey: "test-key", BaseURL: srv.URL}

	res, err := c.Estimate(context.Background(), Request{Name: "Runner", Type: "shoes", Link: "https://weidian.com/x"})
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, 0.3, got.Temperature)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "Item name: Runner")
	assert.Contains(t, got.Messages[0].Content, "Item type: shoes")
	assert.Contains(t, got.Messages[0].Content, "Item link: https://weidian.com/x")

	assert.Equal(t, 1821.0, res.WeightGrams)
	assert.Equal(t, 1450.0, res.ActualWeightGrams)
	require.NotNil(t, res.VolumetricWeightGrams)
	assert.Equal(t, 1821.0, *res.VolumetricWeightGrams)
	require.NotNil(t, res.Dimensions)
	assert.Equal(t, "35x25x13 cm", *res.Dimensions)
	assert.True(t, res.UsedVolumetric)
	assert.Equal(t, "high", res.Confidence)
}

func TestEstimateActualOnly(t *testing.T) {
	srv, got := newUpstream(t, http.StatusOK, `Sure: {"actualWeightGrams": 300}`)
	c := &Client{APIKey: "test-key", BaseURL: srv.URL, Model: "sonar"}

	res, err := c.Estimate(context.Background(), Request{Name: "Cap"})
	require.NoError(t, err)

	assert.Equal(t, "sonar", got.Model)
	assert.Contains(t, got.Messages[0].Content, "Item type: unknown")
	assert.NotContains(t, got.Messages[0].Content, "Item link:")
	assert.Equal(t, 300.0, res.WeightGrams)
	assert.Nil(t, res.VolumetricWeightGrams)
	assert.Nil(t, res.Dimensions)
	assert.False(t, res.UsedVolumetric)
	assert.Equal(t, "medium", res.Confidence)
}

func TestEstimateErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		content string
		want    error
	}{
		{"upstream status", http.StatusTooManyRequests, "", ErrUpstream},
		{"no json", http.StatusOK, "I cannot help with that.", ErrUnparseable},
		{"bad json", http.StatusOK, `{"actualWeightGrams": }`, ErrUnparseable},
		{"missing actual", http.StatusOK, `{"volumetricWeightGrams": 500}`, ErrInvalidEstimate},
		{"zero actual", http.StatusOK, `{"actualWeightGrams": 0}`, ErrInvalidEstimate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newUpstream(t, tt.status, tt.content)
			c := &Client{APIKey: "test-key", BaseURL: srv.URL}
			_, err := c.Estimate(context.Background(), Request{Name: "Thing"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEstimateNotConfigured(t *testing.T) {
	var c *Client
	assert.False(t, c.Configured())

	_, err := (&Client{}).Estimate(context.Background(), Request{Name: "Thing"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestEstimateContextCanceled(t *testing.T) {
	srv, _ := newUpstream(t, http.StatusOK, `{"actualWeightGrams": 1}`)
	c := &Client{APIKey: "test-key", BaseURL: srv.URL}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Estimate(ctx, Request{Name: "Thing"})
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, context.Canceled)
}
