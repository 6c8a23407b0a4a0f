package repositories

import (
	"context"
	"time"

	"pustaka-desk/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePasswordByUsername(ctx context.Context, username, hashed string) error
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// BookRepository defines catalog persistence. Soft-deleted books are
// invisible to every read.
type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	Save(ctx context.Context, book *models.Book) error
	GetByID(ctx context.Context, id uint) (*models.Book, error)
	// GetByIDForUpdate reads the row with a write lock held until the transaction ends
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Book, error)
	GetByCode(ctx context.Context, code string) (*models.Book, error)
	List(ctx context.Context) ([]*models.Book, error)
	UpdateStock(ctx context.Context, id uint, available int, status string) error
	SetBarcode(ctx context.Context, id uint, barcode string) error
	SoftDelete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) error
}

// MemberRepository defines member persistence
type MemberRepository interface {
	Create(ctx context.Context, member *models.Member) error
	Save(ctx context.Context, member *models.Member) error
	GetByID(ctx context.Context, id uint) (*models.Member, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Member, error)
	GetByCode(ctx context.Context, code string) (*models.Member, error)
	List(ctx context.Context) ([]*models.Member, error)
	SetStatus(ctx context.Context, id uint, status string) error
	// LastCodeWithPrefix returns the greatest member code starting with prefix, or "" if none
	LastCodeWithPrefix(ctx context.Context, prefix string) (string, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	CountActive(ctx context.Context) (int64, error)
	CountJoinedSince(ctx context.Context, since time.Time) (int64, error)
	RecentJoined(ctx context.Context, limit int) ([]*models.Member, error)
	DeleteAll(ctx context.Context) error
}

// LoanRepository defines circulation persistence. Detail reads skip loans
// of soft-deleted books and leave FineAmount of active loans for the caller
// to compute.
type LoanRepository interface {
	Create(ctx context.Context, loan *models.Loan) error
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Loan, error)
	MarkReturned(ctx context.Context, id uint, returnedAt time.Time, fine int64) error

	CountActiveByMember(ctx context.Context, memberID uint) (int64, error)
	CountActiveByBook(ctx context.Context, bookID uint) (int64, error)
	CountByMemberSince(ctx context.Context, memberID uint, since time.Time) (int64, error)
	CountByBookSince(ctx context.Context, bookID uint, since time.Time) (int64, error)

	FindActive(ctx context.Context, query string) ([]*models.LoanDetail, error)
	ListActive(ctx context.Context) ([]*models.LoanDetail, error)
	ListOverdue(ctx context.Context, now time.Time) ([]*models.LoanDetail, error)
	RecentReturns(ctx context.Context, limit int) ([]*models.LoanDetail, error)
	ActiveByMember(ctx context.Context, memberID uint) ([]*models.LoanDetail, error)
	HistoryByMember(ctx context.Context, memberID uint) ([]*models.LoanDetail, error)
	ActiveByBook(ctx context.Context, bookID uint) ([]*models.LoanDetail, error)
	RecentLoans(ctx context.Context, limit int) ([]*models.LoanDetail, error)

	Count(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
	CountOverdue(ctx context.Context, now time.Time) (int64, error)
	LoanDatesSince(ctx context.Context, since time.Time) ([]time.Time, error)
	PopularCategories(ctx context.Context, limit int) ([]*models.CategoryStat, error)
	MostBorrowed(ctx context.Context, limit int) ([]*models.BookStat, error)
	MemberActivity(ctx context.Context, limit int) ([]*models.MemberActivity, error)

	// ListAll returns raw loan rows for backups
	ListAll(ctx context.Context) ([]*models.Loan, error)
	DeleteAll(ctx context.Context) error
}

// SettingRepository defines key/value settings persistence
type SettingRepository interface {
	GetAll(ctx context.Context) ([]*models.Setting, error)
	Get(ctx context.Context, key string) (*models.Setting, error)
	Set(ctx context.Context, key, value string) error
}

// AuditRepository defines audit log persistence
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, entity string, offset, limit int) ([]*models.AuditLog, int64, error)
}
