package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannelFunc(t *testing.T) {
	var got []string
	ch := ChannelFunc{
		SessionKey: "main",
		SendFunc: func(_ context.Context, text string) error {
			got = append(got, text)
			return nil
		},
	}

	assert.Equal(t, "main", ch.Key())
	assert.NoError(t, ch.Send(context.Background(), "1 + 1"))
	assert.Equal(t, []string{"1 + 1"}, got)
}

func TestTmuxChannelTarget(t *testing.T) {
	ch := NewTmuxChannel("main", "blockeval-", "")
	assert.Equal(t, "main", ch.Key())
	assert.Equal(t, "blockeval-main", ch.Target())
}
