package repositories

import (
	"context"
	"strconv"
	"strings"
	"time"

	"pustaka-desk/internal/adapters/persistence/models"
	"pustaka-desk/internal/core/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const loanDetailColumns = `l.id, l.book_id, l.member_id,
	b.title AS book_title, b.isbn AS book_isbn, b.cover AS book_cover,
	m.name AS member_name, m.member_code, m.kelas AS member_kelas, m.status AS member_status,
	l.loan_date, l.due_date, l.return_date, l.status, l.fine_amount,
	(SELECT COUNT(*) FROM loans al WHERE al.member_id = m.id AND al.status = ?) AS member_active_loans`

type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

func borrowed() string {
	return string(domain.LoanBorrowed)
}

// details starts a loan ⋈ book ⋈ member query
func (r *loanRepository) details(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("loans AS l").
		Select(loanDetailColumns, borrowed()).
		Joins("JOIN books b ON l.book_id = b.id").
		Joins("JOIN members m ON l.member_id = m.id").
		Where("b.deleted_at IS NULL")
}

func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(loan).Error
}

func (r *loanRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) MarkReturned(ctx context.Context, id uint, returnedAt time.Time, fine int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("id = ? AND status = ?", id, borrowed()).
		Updates(map[string]interface{}{
			"status":      string(domain.LoanReturned),
			"return_date": returnedAt,
			"fine_amount": fine,
		}).Error
}

func (r *loanRepository) CountActiveByMember(ctx context.Context, memberID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("member_id = ? AND status = ?", memberID, borrowed()).
		Count(&count).Error
	return count, err
}

func (r *loanRepository) CountActiveByBook(ctx context.Context, bookID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("book_id = ? AND status = ?", bookID, borrowed()).
		Count(&count).Error
	return count, err
}

func (r *loanRepository) CountByMemberSince(ctx context.Context, memberID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("member_id = ? AND loan_date >= ?", memberID, since).
		Count(&count).Error
	return count, err
}

func (r *loanRepository) CountByBookSince(ctx context.Context, bookID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("book_id = ? AND loan_date >= ?", bookID, since).
		Count(&count).Error
	return count, err
}

// FindActive matches borrowed loans by ISBN, barcode, member code, member
// name substring or loan id
func (r *loanRepository) FindActive(ctx context.Context, query string) ([]*models.LoanDetail, error) {
	query = strings.TrimSpace(query)
	rows := []*models.LoanDetail{}
	if query == "" {
		return rows, nil
	}

	match := r.db.Where("b.isbn = ?", query).
		Or("b.barcode = ?", query).
		Or("m.member_code = ?", query).
		Or("LOWER(m.name) LIKE ?", "%"+strings.ToLower(query)+"%")
	if id, err := strconv.ParseUint(query, 10, 64); err == nil {
		match = match.Or("l.id = ?", id)
	}

	err := r.details(ctx).
		Where("l.status = ?", borrowed()).
		Where(match).
		Order("l.due_date ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *loanRepository) ListActive(ctx context.Context) ([]*models.LoanDetail, error) {
	rows := []*models.LoanDetail{}
	err := r.details(ctx).
		Where("l.status = ?", borrowed()).
		Order("l.due_date ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *loanRepository) ListOverdue(ctx context.Context, now time.Time) ([]*models.LoanDetail, error) {
	rows := []*models.LoanDetail{}
	err := r.details(ctx).
		Where("l.status = ? AND l.due_date < ?", borrowed(), now).
		Order("l.due_date ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *loanRepository) RecentReturns(ctx context.Context, limit int) ([]*models.LoanDetail, error) {
	rows := []*models.LoanDetail{}
	err := r.details(ctx).
		Where("l.status = ?", string(domain.LoanReturned)).
		Order("l.return_date DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *loanRepository) ActiveByMember(ctx context.Context, memberID uint) ([]*models.LoanDetail, error) {
	rows := []*models.LoanDetail{}
	err := r.details(ctx).
		Where("l.member_id = ? AND l.status = ?", memberID, borrowed()).
		Order("l.loan_date DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *loanRepository) HistoryByMember(ctx context.Context, memberID uint) ([]*models.LoanDetail, error) {
	rows := []*models.LoanDetail{}
	err := r.details(ctx).
		Where("l.member_id = ?", memberID).
		Order("l.loan_date DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *loanRepository) ActiveByBook(ctx context.Context, bookID uint) ([]*models.LoanDetail, error) {
	rows := []*models.LoanDetail{}
	err := r.details(ctx).
		Where("l.book_id = ? AND l.status = ?", bookID, borrowed()).
		Order("l.loan_date DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *loanRepository) RecentLoans(ctx context.Context, limit int) ([]*models.LoanDetail, error) {
	rows := []*models.LoanDetail{}
	err := r.details(ctx).
		Order("l.loan_date DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *loanRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Loan{}).Count(&count).Error
	return count, err
}

func (r *loanRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("loans AS l").
		Joins("JOIN books b ON l.book_id = b.id").
		Where("l.status = ? AND b.deleted_at IS NULL", borrowed()).
		Count(&count).Error
	return count, err
}

func (r *loanRepository) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("loans AS l").
		Joins("JOIN books b ON l.book_id = b.id").
		Where("l.status = ? AND b.deleted_at IS NULL AND l.due_date < ?", borrowed(), now).
		Count(&count).Error
	return count, err
}

func (r *loanRepository) LoanDatesSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	var dates []time.Time
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("loan_date >= ?", since).
		Pluck("loan_date", &dates).Error
	return dates, err
}

func (r *loanRepository) PopularCategories(ctx context.Context, limit int) ([]*models.CategoryStat, error) {
	rows := []*models.CategoryStat{}
	err := r.db.WithContext(ctx).
		Table("loans AS l").
		Select("b.category AS category, COUNT(l.id) AS count").
		Joins("JOIN books b ON l.book_id = b.id").
		Group("b.category").
		Order("count DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if strings.TrimSpace(row.Category) == "" {
			row.Category = "Uncategorized"
		}
	}
	return rows, nil
}

func (r *loanRepository) MostBorrowed(ctx context.Context, limit int) ([]*models.BookStat, error) {
	rows := []*models.BookStat{}
	err := r.db.WithContext(ctx).
		Table("loans AS l").
		Select("b.title, b.author, b.category, b.cover, COUNT(l.id) AS loan_count").
		Joins("JOIN books b ON l.book_id = b.id").
		Group("b.id").
		Order("loan_count DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// MemberActivity leaves Status empty; it depends on the caller's clock
func (r *loanRepository) MemberActivity(ctx context.Context, limit int) ([]*models.MemberActivity, error) {
	rows := []*models.MemberActivity{}
	err := r.db.WithContext(ctx).
		Table("members AS m").
		Select(`m.name, m.joined_at,
			(SELECT COUNT(*) FROM loans tl WHERE tl.member_id = m.id) AS total_loans,
			(SELECT MAX(ll.loan_date) FROM loans ll WHERE ll.member_id = m.id) AS last_activity`).
		Order("last_activity IS NULL, last_activity DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *loanRepository) ListAll(ctx context.Context) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).Order("id ASC").Find(&loans).Error
	return loans, err
}

func (r *loanRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.Loan{}).Error
}
