package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"pustaka-desk/internal/adapters/persistence/models"
	"pustaka-desk/internal/adapters/persistence/repositories"
)

const (
	recentActivityLimit   = 10
	popularCategoryLimit  = 5
	mostBorrowedLimit     = 3
	memberActivityLimit   = 10
	memberActiveWithinDay = 30
)

// weekdayNames are the circulation chart labels, Sunday first
var weekdayNames = [7]string{"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}

// DashboardService handles dashboard operations
type DashboardService struct {
	books   repositories.BookRepository
	members repositories.MemberRepository
	loans   repositories.LoanRepository
	now     func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(repos repositories.Repos) *DashboardService {
	return &DashboardService{
		books:   repos.Books,
		members: repos.Members,
		loans:   repos.Loans,
		now:     time.Now,
	}
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// ============================================================
// Counters
// ============================================================

// GetStats returns the dashboard counters
func (s *DashboardService) GetStats(ctx context.Context) (*models.Stats, error) {
	now := s.now()
	stats := &models.Stats{}
	var err error

	if stats.TotalBooks, err = s.books.Count(ctx); err != nil {
		return nil, err
	}
	if stats.TotalMembers, err = s.members.CountActive(ctx); err != nil {
		return nil, err
	}
	if stats.ActiveLoans, err = s.loans.CountActive(ctx); err != nil {
		return nil, err
	}
	if stats.OverdueLoans, err = s.loans.CountOverdue(ctx, now); err != nil {
		return nil, err
	}
	if stats.MonthlyNewMembers, err = s.members.CountJoinedSince(ctx, startOfMonth(now)); err != nil {
		return nil, err
	}
	if stats.TotalLoansCount, err = s.loans.Count(ctx); err != nil {
		return nil, err
	}
	return stats, nil
}

// MonthlyNewMembers counts members who joined this calendar month
func (s *DashboardService) MonthlyNewMembers(ctx context.Context) (int64, error) {
	return s.members.CountJoinedSince(ctx, startOfMonth(s.now()))
}

// ============================================================
// Feeds & charts
// ============================================================

// RecentActivity merges the latest loans and new members, newest first
func (s *DashboardService) RecentActivity(ctx context.Context) ([]*models.RecentActivity, error) {
	loans, err := s.loans.RecentLoans(ctx, recentActivityLimit)
	if err != nil {
		return nil, err
	}
	members, err := s.members.RecentJoined(ctx, recentActivityLimit)
	if err != nil {
		return nil, err
	}

	feed := make([]*models.RecentActivity, 0, len(loans)+len(members))
	for _, l := range loans {
		feed = append(feed, &models.RecentActivity{
			ID:          fmt.Sprintf("L-%d", l.ID),
			Title:       l.MemberName,
			Description: fmt.Sprintf("meminjam %q", l.BookTitle),
			Time:        l.LoanDate,
			TypeName:    "loan",
		})
	}
	for _, m := range members {
		feed = append(feed, &models.RecentActivity{
			ID:          fmt.Sprintf("M-%d", m.ID),
			Title:       m.Name,
			Description: "Bergabung sebagai anggota baru",
			Time:        m.JoinedAt,
			TypeName:    "member",
		})
	}

	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].Time.After(feed[j].Time)
	})
	if len(feed) > recentActivityLimit {
		feed = feed[:recentActivityLimit]
	}
	return feed, nil
}

// WeeklyCirculation counts loans of the last seven days per weekday,
// Minggu first
func (s *DashboardService) WeeklyCirculation(ctx context.Context) ([]*models.DailyStats, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dates, err := s.loans.LoanDatesSince(ctx, today.AddDate(0, 0, -6))
	if err != nil {
		return nil, err
	}

	var counts [7]int64
	for _, d := range dates {
		counts[d.In(now.Location()).Weekday()]++
	}

	out := make([]*models.DailyStats, 7)
	for i, name := range weekdayNames {
		out[i] = &models.DailyStats{Day: name, Count: counts[i]}
	}
	return out, nil
}

// PopularCategories returns the most borrowed categories
func (s *DashboardService) PopularCategories(ctx context.Context) ([]*models.CategoryStat, error) {
	return s.loans.PopularCategories(ctx, popularCategoryLimit)
}

// MostBorrowed returns the most borrowed books
func (s *DashboardService) MostBorrowed(ctx context.Context) ([]*models.BookStat, error) {
	return s.loans.MostBorrowed(ctx, mostBorrowedLimit)
}

// MemberActivity ranks members by recent borrowing. A member is Active
// when their last loan is at most 30 days old.
func (s *DashboardService) MemberActivity(ctx context.Context) ([]*models.MemberActivity, error) {
	rows, err := s.loans.MemberActivity(ctx, memberActivityLimit)
	if err != nil {
		return nil, err
	}

	cutoff := s.now().AddDate(0, 0, -memberActiveWithinDay)
	for _, row := range rows {
		row.Status = "Inactive"
		if row.LastActivity != nil && !row.LastActivity.Before(cutoff) {
			row.Status = "Active"
		}
	}
	return rows, nil
}
