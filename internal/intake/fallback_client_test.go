package intake

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedLLM struct {
	resp  LLMResponse
	err   error
	calls int
}

func (s *scriptedLLM) Complete(context.Context, LLMRequest) (LLMResponse, error) {
	s.calls++
	return s.resp, s.err
}

func TestFallbackLLMClientPrimarySucceeds(t *testing.T) {
	primary := &scriptedLLM{resp: LLMResponse{Text: "primary answer"}}
	fallback := &scriptedLLM{resp: LLMResponse{Text: "fallback answer"}}
	client := NewFallbackLLMClient(primary, fallback, nil)

	resp, err := client.Complete(context.Background(), LLMRequest{})
	require.NoError(t, err)
	assert.Equal(t, "primary answer", resp.Text)
	assert.Zero(t, fallback.calls)
}

func TestFallbackLLMClientFallsBack(t *testing.T) {
	primary := &scriptedLLM{err: errors.New("throttled")}
	fallback := &scriptedLLM{resp: LLMResponse{Text: "fallback answer"}}
	client := NewFallbackLLMClient(primary, fallback, nil)

	resp, err := client.Complete(context.Background(), LLMRequest{})
	require.NoError(t, err)
	assert.Equal(t, "fallback answer", resp.Text)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestFallbackLLMClientBothFail(t *testing.T) {
	primary := &scriptedLLM{err: errors.New("throttled")}
	fallback := &scriptedLLM{err: errors.New("quota exceeded")}
	client := NewFallbackLLMClient(primary, fallback, nil)

	_, err := client.Complete(context.Background(), LLMRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota")
}

func TestFallbackLLMClientNoFallbackConfigured(t *testing.T) {
	primary := &scriptedLLM{err: errors.New("down")}
	client := NewFallbackLLMClient(primary, nil, nil)

	_, err := client.Complete(context.Background(), LLMRequest{})
	require.Error(t, err)
	assert.Equal(t, 1, primary.calls)
}
