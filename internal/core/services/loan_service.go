package services

import (
	"context"
	"errors"
	"log"
	"time"

	"pustaka-desk/internal/adapters/persistence/models"
	"pustaka-desk/internal/adapters/persistence/repositories"
	"pustaka-desk/internal/core/domain"

	"gorm.io/gorm"
)

// LoanService owns the loan lifecycle: borrowing, returning, fines and
// the circulation read models.
type LoanService struct {
	uow      repositories.UnitOfWork
	repos    repositories.Repos
	defaults LoanRules
	hub      *EventHub
	now      func() time.Time
}

// NewLoanService creates a new loan service. hub may be nil.
func NewLoanService(uow repositories.UnitOfWork, repos repositories.Repos, defaults LoanRules, hub *EventHub) *LoanService {
	return &LoanService{
		uow:      uow,
		repos:    repos,
		defaults: defaults,
		hub:      hub,
		now:      time.Now,
	}
}

// BorrowInput represents borrow_book arguments
type BorrowInput struct {
	BookID   uint `json:"book_id" validate:"required"`
	MemberID uint `json:"member_id" validate:"required"`
	Days     int  `json:"days" validate:"gte=0,lte=365"`
}

// ReturnReceipt describes a completed return
type ReturnReceipt struct {
	LoanID      uint      `json:"loan_id"`
	BookID      uint      `json:"book_id"`
	ReturnDate  time.Time `json:"return_date"`
	OverdueDays int64     `json:"overdue_days"`
	FineAmount  int64     `json:"fine_amount"`
}

// Rules returns the effective rules
func (s *LoanService) Rules(ctx context.Context) (LoanRules, error) {
	return loadRules(ctx, s.repos.Settings, s.defaults)
}

// Borrow lends one copy of a book. The member is checked first, so an
// inactive member is refused whatever the stock. An empty shelf is reported
// before the member's loan cap.
func (s *LoanService) Borrow(ctx context.Context, bookID, memberID uint, days int) (uint, error) {
	var loan *models.Loan

	err := s.uow.Do(ctx, func(tx repositories.Repos) error {
		member, err := tx.Members.GetByIDForUpdate(ctx, memberID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrMemberNotFound
			}
			return err
		}
		if member.Status == string(domain.MemberInactive) {
			return domain.ErrMemberInactive
		}

		book, err := tx.Books.GetByIDForUpdate(ctx, bookID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrBookNotFound
			}
			return err
		}
		if book.AvailableCopy <= 0 {
			return domain.ErrNoCopiesAvailable
		}
		if book.Status == string(domain.BookUnavailable) {
			return domain.ErrBookUnavailable
		}

		rules, err := loadRules(ctx, tx.Settings, s.defaults)
		if err != nil {
			return err
		}
		if rules.MaxActiveLoans > 0 {
			active, err := tx.Loans.CountActiveByMember(ctx, memberID)
			if err != nil {
				return err
			}
			if active >= int64(rules.MaxActiveLoans) {
				return domain.ErrLoanLimitReached
			}
		}

		if days <= 0 {
			days = rules.LoanDays
		}
		now := s.now()
		loan = &models.Loan{
			BookID:   bookID,
			MemberID: memberID,
			LoanDate: now,
			DueDate:  now.AddDate(0, 0, days),
			Status:   string(domain.LoanBorrowed),
		}
		if err := tx.Loans.Create(ctx, loan); err != nil {
			return err
		}

		available := book.AvailableCopy - 1
		status := book.Status
		if available == 0 {
			status = string(domain.BookBorrowedOut)
		}
		if err := tx.Books.UpdateStock(ctx, bookID, available, status); err != nil {
			return err
		}

		return writeAudit(ctx, tx.Audit, domain.AuditEntityLoan, loan.ID, domain.AuditActionBorrow, map[string]interface{}{
			"book_id":        bookID,
			"member_id":      memberID,
			"due_date":       loan.DueDate,
			"available_copy": available,
		})
	})
	if err != nil {
		return 0, err
	}

	log.Printf("📚 Loan #%d created: book=%d member=%d due=%s", loan.ID, bookID, memberID, loan.DueDate.Format("2006-01-02"))
	s.publish(EventLoanBorrowed, loan)
	return loan.ID, nil
}

// ReturnLoan closes a loan, books the fine and puts the copy back on the shelf
func (s *LoanService) ReturnLoan(ctx context.Context, loanID uint) (*ReturnReceipt, error) {
	var receipt *ReturnReceipt

	err := s.uow.Do(ctx, func(tx repositories.Repos) error {
		loan, err := tx.Loans.GetByIDForUpdate(ctx, loanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrLoanNotFound
			}
			return err
		}
		if loan.Status == string(domain.LoanReturned) {
			return domain.ErrAlreadyReturned
		}

		rules, err := loadRules(ctx, tx.Settings, s.defaults)
		if err != nil {
			return err
		}

		now := s.now()
		receipt = &ReturnReceipt{
			LoanID:      loan.ID,
			BookID:      loan.BookID,
			ReturnDate:  now,
			OverdueDays: OverdueDays(loan.DueDate, now),
			FineAmount:  Fine(loan.DueDate, now, rules.FinePerDay),
		}
		if err := tx.Loans.MarkReturned(ctx, loan.ID, now, receipt.FineAmount); err != nil {
			return err
		}

		book, err := tx.Books.GetByIDForUpdate(ctx, loan.BookID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			log.Printf("⚠️ Loan #%d returned for a missing book #%d", loan.ID, loan.BookID)
		case err != nil:
			return err
		default:
			available := book.AvailableCopy + 1
			if available > book.TotalCopy {
				available = book.TotalCopy
			}
			status := book.Status
			if status != string(domain.BookUnavailable) {
				status = string(domain.BookAvailable)
			}
			if err := tx.Books.UpdateStock(ctx, book.ID, available, status); err != nil {
				return err
			}
		}

		return writeAudit(ctx, tx.Audit, domain.AuditEntityLoan, loan.ID, domain.AuditActionReturn, receipt)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("📚 Loan #%d returned, fine=%d", receipt.LoanID, receipt.FineAmount)
	s.publish(EventLoanReturned, receipt)
	return receipt, nil
}

func (s *LoanService) publish(event string, data interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(HubEvent{Topic: TopicCirculation, Event: event, Data: data})
}

// withFines loads the fine rate and fills live fines into rows
func (s *LoanService) withFines(ctx context.Context, rows []*models.LoanDetail, err error) ([]*models.LoanDetail, error) {
	if err != nil {
		return nil, err
	}
	rules, err := s.Rules(ctx)
	if err != nil {
		return nil, err
	}
	return withLiveFines(rows, s.now(), rules.FinePerDay), nil
}

// FindActive returns borrowed loans matching an ISBN, barcode, member code,
// member name or loan id, earliest due first
func (s *LoanService) FindActive(ctx context.Context, query string) ([]*models.LoanDetail, error) {
	rows, err := s.repos.Loans.FindActive(ctx, query)
	return s.withFines(ctx, rows, err)
}

// ListActive returns every borrowed loan
func (s *LoanService) ListActive(ctx context.Context) ([]*models.LoanDetail, error) {
	rows, err := s.repos.Loans.ListActive(ctx)
	return s.withFines(ctx, rows, err)
}

// ListOverdue returns borrowed loans past their due date
func (s *LoanService) ListOverdue(ctx context.Context) ([]*models.LoanDetail, error) {
	rows, err := s.repos.Loans.ListOverdue(ctx, s.now())
	return s.withFines(ctx, rows, err)
}

// RecentReturns returns the latest returns, newest first
func (s *LoanService) RecentReturns(ctx context.Context, limit int) ([]*models.LoanDetail, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.repos.Loans.RecentReturns(ctx, limit)
}

// MemberLoans returns the member's borrowed loans
func (s *LoanService) MemberLoans(ctx context.Context, memberID uint) ([]*models.LoanDetail, error) {
	rows, err := s.repos.Loans.ActiveByMember(ctx, memberID)
	return s.withFines(ctx, rows, err)
}

// MemberHistory returns every loan of the member, newest first
func (s *LoanService) MemberHistory(ctx context.Context, memberID uint) ([]*models.LoanDetail, error) {
	rows, err := s.repos.Loans.HistoryByMember(ctx, memberID)
	return s.withFines(ctx, rows, err)
}

// BookBorrowers returns who currently holds copies of the book
func (s *LoanService) BookBorrowers(ctx context.Context, bookID uint) ([]*models.LoanDetail, error) {
	rows, err := s.repos.Loans.ActiveByBook(ctx, bookID)
	return s.withFines(ctx, rows, err)
}

// MemberActiveCount counts the member's borrowed loans
func (s *LoanService) MemberActiveCount(ctx context.Context, memberID uint) (int64, error) {
	return s.repos.Loans.CountActiveByMember(ctx, memberID)
}

// BookLoanCountYear counts loans of the book in the last year
func (s *LoanService) BookLoanCountYear(ctx context.Context, bookID uint) (int64, error) {
	return s.repos.Loans.CountByBookSince(ctx, bookID, s.now().AddDate(-1, 0, 0))
}

// MemberStats summarises a member's borrowing and outstanding fines
func (s *LoanService) MemberStats(ctx context.Context, memberID uint) (*models.MemberStats, error) {
	if _, err := s.repos.Members.GetByID(ctx, memberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}

	now := s.now()
	stats := &models.MemberStats{}
	var err error

	if stats.TotalLoans30Days, err = s.repos.Loans.CountByMemberSince(ctx, memberID, now.AddDate(0, 0, -30)); err != nil {
		return nil, err
	}
	if stats.TotalLoans1Year, err = s.repos.Loans.CountByMemberSince(ctx, memberID, now.AddDate(-1, 0, 0)); err != nil {
		return nil, err
	}

	active, err := s.MemberLoans(ctx, memberID)
	if err != nil {
		return nil, err
	}
	stats.ActiveLoans = int64(len(active))
	for _, loan := range active {
		if now.After(loan.DueDate) {
			stats.OverdueLoans++
		}
		stats.TotalFines += loan.FineAmount
	}
	return stats, nil
}
