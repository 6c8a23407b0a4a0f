package dialog_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pustaka-desk/internal/core/dialog"
)

const waitTimeout = time.Second

func waitResult(t *testing.T, p *dialog.Pending) bool {
	t.Helper()

	select {
	case <-p.Done():
	case <-time.After(waitTimeout):
		t.Fatalf("dialog %s was not resolved", p.ID())
	}

	ok, err := p.Wait(context.Background())
	require.NoError(t, err)
	return ok
}

func assertPending(t *testing.T, p *dialog.Pending) {
	t.Helper()

	select {
	case <-p.Done():
		t.Fatalf("dialog %s resolved unexpectedly", p.ID())
	default:
	}
}

func Test_ShowAlert_OnlyOneDialogIsVisible(t *testing.T) {
	// arrange
	c := dialog.New()

	// act
	first := c.ShowAlert("pertama", "")
	second := c.ShowAlert("kedua", dialog.KindError)

	// assert
	active, ok := c.Active()
	require.True(t, ok)
	assert.Equal(t, first.ID(), active.ID)
	assert.Equal(t, "pertama", active.Message)
	assert.Equal(t, 1, c.Queued())
	assertPending(t, second)
}

func Test_ShowAlert_ResolvesOnButton(t *testing.T) {
	c := dialog.New()
	p := c.ShowAlert("Buku berhasil dikembalikan!", dialog.KindSuccess)

	require.NoError(t, c.Respond(p.ID(), dialog.ActionConfirm))

	assert.True(t, waitResult(t, p))
	_, ok := c.Active()
	assert.False(t, ok)
}

func Test_ShowAlert_ResolvesOnBackdrop(t *testing.T) {
	c := dialog.New()
	p := c.ShowAlert("x", dialog.KindInfo)

	require.NoError(t, c.Respond(p.ID(), dialog.ActionBackdrop))

	assert.True(t, waitResult(t, p))
}

func Test_ShowAlert_RejectsCancel(t *testing.T) {
	c := dialog.New()
	p := c.ShowAlert("x", dialog.KindInfo)

	err := c.Respond(p.ID(), dialog.ActionCancel)

	assert.ErrorIs(t, err, dialog.ErrInvalidAction)
	assertPending(t, p)
}

func Test_ShowConfirm_ConfirmAndCancel(t *testing.T) {
	c := dialog.New()

	yes := c.ShowConfirm("y", dialog.Options{})
	require.NoError(t, c.Respond(yes.ID(), dialog.ActionConfirm))
	assert.True(t, waitResult(t, yes))

	no := c.ShowConfirm("y", dialog.Options{})
	require.NoError(t, c.Respond(no.ID(), dialog.ActionCancel))
	assert.False(t, waitResult(t, no))
}

func Test_ShowConfirm_BackdropDoesNotResolve(t *testing.T) {
	// arrange
	c := dialog.New()
	p := c.ShowConfirm("Hapus anggota?", dialog.Options{})

	// act
	err := c.Respond(p.ID(), dialog.ActionBackdrop)

	// assert - still visible and still waiting
	assert.ErrorIs(t, err, dialog.ErrExplicitChoiceRequired)
	assertPending(t, p)
	active, ok := c.Active()
	require.True(t, ok)
	assert.Equal(t, p.ID(), active.ID)
}

func Test_ShowConfirm_DefaultLabels(t *testing.T) {
	c := dialog.New()
	c.ShowConfirm("y", dialog.Options{})

	active, ok := c.Active()
	require.True(t, ok)

	assert.Equal(t, "Konfirmasi", active.Title)
	assert.Equal(t, "OK", active.ConfirmText)
	assert.Equal(t, "Batal", active.CancelText)
	assert.Equal(t, dialog.KindWarning, active.Kind)
	assert.True(t, active.IsConfirmation)
}

func Test_ShowConfirm_OverridesAreIndependent(t *testing.T) {
	tests := []struct {
		name        string
		opts        dialog.Options
		wantTitle   string
		wantConfirm string
		wantCancel  string
		wantKind    dialog.Kind
	}{
		{"title only", dialog.Options{Title: "Hapus Buku"}, "Hapus Buku", "OK", "Batal", dialog.KindWarning},
		{"confirm only", dialog.Options{ConfirmText: "Ya, Hapus"}, "Konfirmasi", "Ya, Hapus", "Batal", dialog.KindWarning},
		{"cancel only", dialog.Options{CancelText: "Tidak"}, "Konfirmasi", "OK", "Tidak", dialog.KindWarning},
		{"kind only", dialog.Options{Kind: dialog.KindError}, "Terjadi Kesalahan", "OK", "Batal", dialog.KindError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := dialog.New()
			c.ShowConfirm("y", tt.opts)

			active, ok := c.Active()
			require.True(t, ok)
			assert.Equal(t, tt.wantTitle, active.Title)
			assert.Equal(t, tt.wantConfirm, active.ConfirmText)
			assert.Equal(t, tt.wantCancel, active.CancelText)
			assert.Equal(t, tt.wantKind, active.Kind)
		})
	}
}

func Test_Queue_IsFIFO_AndEveryRequestResolvesOnce(t *testing.T) {
	// arrange
	c := dialog.New()
	a := c.ShowAlert("a", dialog.KindInfo)
	b := c.ShowConfirm("b", dialog.Options{})
	d := c.ShowAlert("d", dialog.KindSuccess)

	// act + assert
	active, _ := c.Active()
	assert.Equal(t, a.ID(), active.ID)
	require.NoError(t, c.Respond(a.ID(), dialog.ActionConfirm))

	active, _ = c.Active()
	assert.Equal(t, b.ID(), active.ID)
	require.NoError(t, c.Respond(b.ID(), dialog.ActionCancel))

	active, _ = c.Active()
	assert.Equal(t, d.ID(), active.ID)
	require.NoError(t, c.Respond(d.ID(), dialog.ActionBackdrop))

	assert.True(t, waitResult(t, a))
	assert.False(t, waitResult(t, b))
	assert.True(t, waitResult(t, d))

	// a resolved dialog cannot be answered again
	assert.ErrorIs(t, c.Respond(a.ID(), dialog.ActionConfirm), dialog.ErrDialogNotActive)
}

func Test_Respond_QueuedDialogIsNotActive(t *testing.T) {
	c := dialog.New()
	c.ShowAlert("a", dialog.KindInfo)
	queued := c.ShowAlert("b", dialog.KindInfo)

	err := c.Respond(queued.ID(), dialog.ActionConfirm)

	assert.ErrorIs(t, err, dialog.ErrDialogNotActive)
}

func Test_Wait_CancelledContextWithdrawsActiveDialog(t *testing.T) {
	// arrange
	c := dialog.New()
	first := c.ShowConfirm("a", dialog.Options{})
	next := c.ShowAlert("b", dialog.KindInfo)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// act
	ok, err := first.Wait(ctx)

	// assert
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
	active, visible := c.Active()
	require.True(t, visible)
	assert.Equal(t, next.ID(), active.ID)
}

func Test_Wait_CancelledContextWithdrawsQueuedDialog(t *testing.T) {
	c := dialog.New()
	first := c.ShowAlert("a", dialog.KindInfo)
	queued := c.ShowConfirm("b", dialog.Options{})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	ok, err := queued.Wait(ctx)

	assert.False(t, ok)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, c.Queued())
	active, _ := c.Active()
	assert.Equal(t, first.ID(), active.ID)
}

func Test_Observer_ReceivesOpenAndClose(t *testing.T) {
	// arrange
	var mu sync.Mutex
	var events []dialog.Event
	c := dialog.New(dialog.WithObserver(func(e dialog.Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	}))

	// act
	a := c.ShowAlert("a", dialog.KindInfo)
	b := c.ShowAlert("b", dialog.KindInfo)
	require.NoError(t, c.Respond(a.ID(), dialog.ActionConfirm))

	// assert
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 3)
	assert.Equal(t, dialog.EventOpened, events[0].Type)
	assert.Equal(t, a.ID(), events[0].Dialog.ID)
	assert.Equal(t, dialog.EventClosed, events[1].Type)
	require.NotNil(t, events[1].Result)
	assert.True(t, *events[1].Result)
	assert.Equal(t, dialog.EventOpened, events[2].Type)
	assert.Equal(t, b.ID(), events[2].Dialog.ID)
}

func Test_Close_ResolvesEverythingFalse(t *testing.T) {
	c := dialog.New()
	a := c.ShowConfirm("a", dialog.Options{})
	b := c.ShowConfirm("b", dialog.Options{})

	c.Close()

	assert.False(t, waitResult(t, a))
	assert.False(t, waitResult(t, b))
	assert.False(t, waitResult(t, c.ShowAlert("late", dialog.KindInfo)))
}

func Test_Confirm_ConcurrentCallersAreSerialized(t *testing.T) {
	// arrange
	c := dialog.New()
	const callers = 20
	var wg sync.WaitGroup
	results := make(chan bool, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := c.Confirm(context.Background(), "?", dialog.Options{})
			assert.NoError(t, err)
			results <- ok
		}()
	}

	// act - answer each dialog as it becomes visible
	deadline := time.Now().Add(5 * time.Second)
	answered := 0
	for answered < callers && time.Now().Before(deadline) {
		active, ok := c.Active()
		if !ok {
			time.Sleep(time.Millisecond)
			continue
		}
		require.NoError(t, c.Respond(active.ID, dialog.ActionConfirm))
		answered++
	}
	wg.Wait()
	close(results)

	// assert
	assert.Equal(t, callers, answered)
	count := 0
	for ok := range results {
		assert.True(t, ok)
		count++
	}
	assert.Equal(t, callers, count)
}
