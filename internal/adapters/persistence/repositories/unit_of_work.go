package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Repos bundles the repositories that circulation writes touch together
type Repos struct {
	Books    BookRepository
	Members  MemberRepository
	Loans    LoanRepository
	Settings SettingRepository
	Audit    AuditRepository
	Users    UserRepository
}

// NewRepos builds every repository on the same handle
func NewRepos(db *gorm.DB) Repos {
	return Repos{
		Books:    NewBookRepository(db),
		Members:  NewMemberRepository(db),
		Loans:    NewLoanRepository(db),
		Settings: NewSettingRepository(db),
		Audit:    NewAuditRepository(db),
		Users:    NewUserRepository(db),
	}
}

// UnitOfWork runs fn in one transaction. Repos passed to fn are bound to
// it; returning an error rolls everything back.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(tx Repos) error) error
}

type gormUnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork creates a gorm backed unit of work
func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &gormUnitOfWork{db: db}
}

func (u *gormUnitOfWork) Do(ctx context.Context, fn func(tx Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepos(tx))
	})
}
