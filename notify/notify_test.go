package notify

import (
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/octabyte/taskdesk/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationsAutoDismiss(t *testing.T) {
	mock := clock.NewMock()
	n := New(mock, 3*time.Second)

	first := n.Success("Registration completed successfully!")
	mock.Add(time.Second)
	second := n.Error("Invalid OTP. Please try again.")

	latest, ok := n.Latest()
	require.True(t, ok)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, enums.NotificationError, latest.Kind)
	assert.Len(t, n.Active(), 2)

	mock.Add(2 * time.Second)
	active := n.Active()
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)
	assert.NotEqual(t, first.ID, second.ID)

	mock.Add(time.Second)
	assert.Empty(t, n.Active())
	_, ok = n.Latest()
	assert.False(t, ok)
}

func TestDismissAndOnChange(t *testing.T) {
	mock := clock.NewMock()
	n := New(mock, 0)

	var sizes []int
	n.OnChange(func(active []Notification) { sizes = append(sizes, len(active)) })

	note := n.Info("Saving")
	n.Dismiss(note.ID)
	n.Dismiss(note.ID)
	mock.Add(DefaultTTL)

	assert.Equal(t, []int{1, 0}, sizes)
}

func TestCloseCancelsDismissals(t *testing.T) {
	mock := clock.NewMock()
	n := New(mock, time.Second)
	n.Success("Login successful!")

	n.Close()
	mock.Add(time.Minute)
	assert.Empty(t, n.Active())
}
