package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pustaka-desk/internal/adapters/persistence/models"
	"pustaka-desk/internal/config"
	"pustaka-desk/internal/core/domain"
)

func Test_Cron_ScanOverduePublishesReport(t *testing.T) {
	// arrange
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	store, loans := newLoanFixture(start)
	hub := NewEventHub()
	loans.hub = hub
	client := NewHubClient("desk", 1, TopicCirculation)
	hub.Register(client)
	defer hub.Unregister(client.ID)

	book := store.addBook("Ronggeng Dukuh Paruk", 2, 2)
	member := store.addMember("MBR-2024-0001", "Budi", domain.MemberActive)
	id, err := loans.Borrow(context.Background(), book.ID, member.ID, 7)
	require.NoError(t, err)
	<-client.Channel // loan_borrowed

	loans.now = func() time.Time { return start.AddDate(0, 0, 10) }
	cron := NewCronService(loans, &fakeTokens{store}, hub, config.CronConfig{})

	// act
	require.NoError(t, cron.ScanOverdue(context.Background()))

	// assert
	select {
	case event := <-client.Channel:
		assert.Equal(t, EventOverdueReport, event.Event)
		report := event.Data.(OverdueReport)
		assert.Equal(t, 1, report.Count)
		assert.Equal(t, []uint{id}, report.LoanIDs)
		assert.Equal(t, int64(3000), report.TotalFines)
	case <-time.After(time.Second):
		t.Fatal("no overdue report published")
	}
}

func Test_Cron_CleanupTokens(t *testing.T) {
	store := newMemStore()
	tokens := &fakeTokens{store}
	ctx := context.Background()
	require.NoError(t, tokens.Create(ctx, &models.RefreshToken{UserID: 1, TokenHash: "old", ExpiresAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, tokens.Create(ctx, &models.RefreshToken{UserID: 1, TokenHash: "live", ExpiresAt: time.Now().Add(time.Hour)}))
	cron := NewCronService(NewLoanService(store, store.repos(), testRules, nil), tokens, nil, config.CronConfig{})

	require.NoError(t, cron.CleanupTokens(ctx))

	_, err := tokens.GetByTokenHash(ctx, "old")
	assert.Error(t, err)
	_, err = tokens.GetByTokenHash(ctx, "live")
	assert.NoError(t, err)
}

func Test_Cron_StartRejectsBadSchedule(t *testing.T) {
	store := newMemStore()
	cron := NewCronService(NewLoanService(store, store.repos(), testRules, nil), &fakeTokens{store}, nil,
		config.CronConfig{OverdueSpec: "every tuesday"})

	assert.Error(t, cron.Start())
}
