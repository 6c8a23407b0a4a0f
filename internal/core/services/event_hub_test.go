package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pustaka-desk/internal/core/dialog"
)

func TestEventHub_TopicFiltering(t *testing.T) {
	hub := NewEventHub()
	all := NewHubClient("all", 1)
	dialogs := NewHubClient("dialogs", 1, TopicDialog)
	hub.Register(all)
	hub.Register(dialogs)
	defer hub.Unregister("all")
	defer hub.Unregister("dialogs")

	hub.Publish(HubEvent{Topic: TopicCirculation, Event: EventLoanBorrowed})

	require.Len(t, all.Channel, 1)
	assert.Len(t, dialogs.Channel, 0)
}

func TestEventHub_DialogObserver(t *testing.T) {
	hub := NewEventHub()
	client := NewHubClient("c", 1, TopicDialog)
	hub.Register(client)

	c := dialog.New(dialog.WithObserver(hub.DialogObserver()))
	p := c.ShowAlert("Peminjaman berhasil diproses!", dialog.KindSuccess)

	ev := <-client.Channel
	assert.Equal(t, dialog.EventOpened, ev.Event)
	payload, ok := ev.Data.(dialog.Event)
	require.True(t, ok)
	assert.Equal(t, p.ID(), payload.Dialog.ID)

	hub.Unregister("c")
	assert.Equal(t, 0, hub.ClientCount())
	_, open := <-client.Channel
	assert.False(t, open)
}

func TestEventHub_FullChannelDoesNotBlock(t *testing.T) {
	hub := NewEventHub()
	client := NewHubClient("slow", 0)
	hub.Register(client)

	for i := 0; i < cap(client.Channel)+5; i++ {
		hub.Publish(HubEvent{Topic: TopicCirculation, Event: EventLoanReturned})
	}

	assert.Len(t, client.Channel, cap(client.Channel))
}
