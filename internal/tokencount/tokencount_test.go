package tokencount

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubTokenizer struct {
	n   int
	err error
}

func (s stubTokenizer) CountTokens(ctx context.Context, text string) (int, error) {
	return s.n, s.err
}

func TestCount_FallsBackOnNilTokenizer(t *testing.T) {
	c := Counter{}
	assert.Equal(t, Estimate("hello world"), c.Count(context.Background(), "hello world"))
}

func TestCount_FallsBackOnTokenizerError(t *testing.T) {
	c := Counter{Tokenizer: stubTokenizer{err: errors.New("down")}}
	assert.Equal(t, Estimate("hello world"), c.Count(context.Background(), "hello world"))
}

func TestCount_UsesAccurateTokenizer(t *testing.T) {
	c := Counter{Tokenizer: stubTokenizer{n: 42}}
	assert.Equal(t, 42, c.Count(context.Background(), "anything"))
}

func TestLimitByTokens_NoopUnderBudget(t *testing.T) {
	c := Counter{}
	text := "short"
	assert.Equal(t, text, c.LimitByTokens(context.Background(), text, 1000))
}

func TestLimitByTokens_TrimsOverBudget(t *testing.T) {
	c := Counter{}
	text := ""
	for i := 0; i < 500; i++ {
		text += "word "
	}
	limited := c.LimitByTokens(context.Background(), text, 10)
	assert.Less(t, len(limited), len(text))
}
