package carpool_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelshare/wheelshare-api/pkg/domain"
)

func TestMessageSend(t *testing.T) {
	f := newFixture(t)
	c := f.newCarpool(t, f.alice, "C1")

	tests := []struct {
		name      string
		carpoolID int64
		content   string
		wantErr   error
	}{
		{"ok", c.ID, "  leaving now  ", nil},
		{"blank", c.ID, "   ", domain.ErrInvalidRequest},
		{"too long", c.ID, strings.Repeat("a", 2001), domain.ErrInvalidRequest},
		{"missing carpool", 9999, "hi", domain.ErrCarpoolNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := f.messages.Send(f.ctx, f.alice.ID, tt.carpoolID, tt.content)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, m.ID)
			assert.Equal(t, "leaving now", m.Content)
			assert.Equal(t, f.alice.ID, m.UserID)
		})
	}
}

func TestMessageSend_LengthCountsCharacters(t *testing.T) {
	f := newFixture(t)
	c := f.newCarpool(t, f.alice, "C1")

	// Two bytes per rune: the limit is on characters, not bytes.
	m, err := f.messages.Send(f.ctx, f.alice.ID, c.ID, strings.Repeat("é", 2000))
	require.NoError(t, err)
	assert.Len(t, []rune(m.Content), 2000)

	_, err = f.messages.Send(f.ctx, f.alice.ID, c.ID, strings.Repeat("é", 2001))
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestMessageListAndRemove(t *testing.T) {
	f := newFixture(t)
	c := f.newCarpool(t, f.alice, "C1")

	first, err := f.messages.Send(f.ctx, f.alice.ID, c.ID, "first")
	require.NoError(t, err)
	_, err = f.messages.Send(f.ctx, f.alice.ID, c.ID, "second")
	require.NoError(t, err)

	require.NoError(t, f.messages.Remove(f.ctx, first.ID))

	msgs, err := f.messages.List(f.ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].Removed)
	assert.Empty(t, msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)

	err = f.messages.Remove(f.ctx, first.ID)
	assert.ErrorIs(t, err, domain.ErrMessageNotFound)

	_, err = f.messages.List(f.ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrCarpoolNotFound)
}
