package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"pustaka-desk/internal/adapters/persistence/models"
	"pustaka-desk/internal/adapters/persistence/repositories"
	"pustaka-desk/internal/core/domain"
	"pustaka-desk/internal/pkg/cover"
	"pustaka-desk/internal/pkg/validation"

	"gorm.io/gorm"
)

// BookInput is the editable part of a catalog entry
type BookInput struct {
	Title         string `json:"title" validate:"required,max=255"`
	Author        string `json:"author" validate:"required,max=255"`
	ISBN          string `json:"isbn" validate:"max=32"`
	Category      string `json:"category" validate:"max=100"`
	Publisher     string `json:"publisher" validate:"max=150"`
	PublishedYear *int   `json:"published_year" validate:"omitempty,gte=0,lte=9999"`
	RackLocation  string `json:"rack_location" validate:"max=50"`
	Barcode       string `json:"barcode" validate:"max=32"`
	TotalCopy     int    `json:"total_copy" validate:"gte=0"`
	AvailableCopy *int   `json:"available_copy" validate:"omitempty,gte=0"`
	Cover         string `json:"cover"`
	Status        string `json:"status" validate:"omitempty,oneof=Tersedia Dipinjam 'Tidak Tersedia'"`
}

// BookService manages the catalog
type BookService struct {
	uow   repositories.UnitOfWork
	books repositories.BookRepository
	now   func() time.Time
}

// NewBookService creates a new book service
func NewBookService(uow repositories.UnitOfWork, repos repositories.Repos) *BookService {
	return &BookService{
		uow:   uow,
		books: repos.Books,
		now:   time.Now,
	}
}

// List returns the catalog ordered by title
func (s *BookService) List(ctx context.Context) ([]*models.Book, error) {
	return s.books.List(ctx)
}

// Get returns one book
func (s *BookService) Get(ctx context.Context, id uint) (*models.Book, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}
	return book, nil
}

// Add creates a book with every copy on the shelf. A book without a
// barcode gets B-<year>-<id> in the same transaction.
func (s *BookService) Add(ctx context.Context, input BookInput) (*models.Book, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	coverData, err := cover.Normalize(input.Cover)
	if err != nil {
		return nil, err
	}

	book := &models.Book{
		Title:         strings.TrimSpace(input.Title),
		Author:        strings.TrimSpace(input.Author),
		ISBN:          strings.TrimSpace(input.ISBN),
		Category:      input.Category,
		Publisher:     input.Publisher,
		PublishedYear: input.PublishedYear,
		RackLocation:  input.RackLocation,
		TotalCopy:     input.TotalCopy,
		AvailableCopy: input.TotalCopy,
		Cover:         coverData,
		Status:        input.Status,
	}
	if book.Status == "" {
		book.Status = string(domain.BookAvailable)
	}
	if code := strings.TrimSpace(input.Barcode); code != "" {
		book.Barcode = &code
	}

	err = s.uow.Do(ctx, func(tx repositories.Repos) error {
		if err := tx.Books.Create(ctx, book); err != nil {
			return err
		}
		if book.Barcode == nil {
			code := fmt.Sprintf("B-%d-%04d", s.now().Year(), book.ID)
			if err := tx.Books.SetBarcode(ctx, book.ID, code); err != nil {
				return err
			}
			book.Barcode = &code
		}
		return writeAudit(ctx, tx.Audit, domain.AuditEntityBook, book.ID, domain.AuditActionCreate, map[string]interface{}{
			"title":      book.Title,
			"total_copy": book.TotalCopy,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Book #%d added: %s", book.ID, book.Title)
	return book, nil
}

// Update rewrites a catalog entry under the row lock, so a borrow or return
// committing meanwhile is never overwritten. Stock must stay within
// 0..total_copy and total_copy may not drop below the copies out on loan.
func (s *BookService) Update(ctx context.Context, id uint, input BookInput) (*models.Book, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	var book *models.Book
	err := s.uow.Do(ctx, func(tx repositories.Repos) error {
		var err error
		book, err = tx.Books.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrBookNotFound
			}
			return err
		}

		active, err := tx.Loans.CountActiveByBook(ctx, id)
		if err != nil {
			return err
		}
		if int64(input.TotalCopy) < active {
			return domain.ErrInvalidStock
		}

		available := book.AvailableCopy
		if input.AvailableCopy != nil {
			available = *input.AvailableCopy
		}
		if available < 0 || available > input.TotalCopy {
			return domain.ErrInvalidStock
		}

		if input.Cover != book.Cover {
			if book.Cover, err = cover.Normalize(input.Cover); err != nil {
				return err
			}
		}

		book.Title = strings.TrimSpace(input.Title)
		book.Author = strings.TrimSpace(input.Author)
		book.ISBN = strings.TrimSpace(input.ISBN)
		book.Category = input.Category
		book.Publisher = input.Publisher
		book.PublishedYear = input.PublishedYear
		book.RackLocation = input.RackLocation
		book.TotalCopy = input.TotalCopy
		book.AvailableCopy = available
		if input.Status != "" {
			book.Status = input.Status
		}
		if code := strings.TrimSpace(input.Barcode); code != "" {
			book.Barcode = &code
		}
		return tx.Books.Save(ctx, book)
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// Delete soft-deletes a book that has no copy out on loan
func (s *BookService) Delete(ctx context.Context, id uint) error {
	return s.uow.Do(ctx, func(tx repositories.Repos) error {
		book, err := tx.Books.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrBookNotFound
			}
			return err
		}
		active, err := tx.Loans.CountActiveByBook(ctx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return domain.ErrBookHasActiveLoans
		}
		if err := tx.Books.SoftDelete(ctx, id); err != nil {
			return err
		}
		return writeAudit(ctx, tx.Audit, domain.AuditEntityBook, id, domain.AuditActionDelete, map[string]string{
			"title": book.Title,
		})
	})
}

// FindByCode looks a book up by ISBN or barcode for the borrow desk. Books
// that cannot be lent right now are reported as errors.
func (s *BookService) FindByCode(ctx context.Context, code string) (*models.Book, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.ErrBookNotFound
	}
	book, err := s.books.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}
	if book.AvailableCopy <= 0 {
		return nil, domain.ErrNoCopiesAvailable
	}
	if book.Status == string(domain.BookUnavailable) {
		return nil, domain.ErrBookUnavailable
	}
	return book, nil
}
