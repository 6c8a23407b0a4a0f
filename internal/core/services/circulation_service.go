package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"pustaka-desk/internal/adapters/persistence/models"
	"pustaka-desk/internal/core/dialog"
	"pustaka-desk/internal/core/domain"
)

// CheckoutInput is a desk checkout: one member and a cart of book codes
type CheckoutInput struct {
	MemberCode string   `json:"member_code" validate:"required"`
	BookCodes  []string `json:"book_codes"`
	Days       int      `json:"days" validate:"gte=0,lte=365"`
}

// CheckoutResult lists the loans created by a checkout
type CheckoutResult struct {
	MemberID uint   `json:"member_id"`
	LoanIDs  []uint `json:"loan_ids"`
}

// CirculationService runs the desk flows that ask the librarian before
// acting. Confirmations block until answered; result alerts are posted
// without waiting.
type CirculationService struct {
	loans   *LoanService
	books   *BookService
	members *MemberService
	admin   *SettingsService
	dialogs *dialog.Coordinator
	timeout time.Duration
}

// NewCirculationService creates a new circulation service. A zero timeout
// waits for answers as long as the request context lives.
func NewCirculationService(
	loans *LoanService,
	books *BookService,
	members *MemberService,
	admin *SettingsService,
	dialogs *dialog.Coordinator,
	timeout time.Duration,
) *CirculationService {
	return &CirculationService{
		loans:   loans,
		books:   books,
		members: members,
		admin:   admin,
		dialogs: dialogs,
		timeout: timeout,
	}
}

// confirm asks and waits. A refusal becomes ErrCancelledByUser.
func (s *CirculationService) confirm(ctx context.Context, message string, opts dialog.Options) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	ok, err := s.dialogs.Confirm(ctx, message, opts)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrCancelledByUser
	}
	return nil
}

func (s *CirculationService) notify(message string, kind dialog.Kind) {
	s.dialogs.ShowAlert(message, kind)
}

// Checkout lends every book in the cart to the member after confirmation.
// Books are borrowed one by one; on failure the loans already created
// are kept and reported.
func (s *CirculationService) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	member, err := s.members.FindByCode(ctx, input.MemberCode)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			s.notify("Silakan scan kartu anggota terlebih dahulu!", dialog.KindWarning)
		}
		return nil, err
	}

	codes := make([]string, 0, len(input.BookCodes))
	for _, code := range input.BookCodes {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}
	if len(codes) == 0 {
		s.notify(domain.ErrEmptyCart.Error(), dialog.KindWarning)
		return nil, domain.ErrEmptyCart
	}

	cart := make([]*models.Book, 0, len(codes))
	for _, code := range codes {
		book, err := s.books.FindByCode(ctx, code)
		if err != nil {
			s.notify(fmt.Sprintf("Error: %s (%s)", err, code), dialog.KindError)
			return nil, err
		}
		cart = append(cart, book)
	}

	msg := fmt.Sprintf("Proses peminjaman %d buku untuk %s?", len(cart), member.Name)
	if err := s.confirm(ctx, msg, dialog.Options{}); err != nil {
		return nil, err
	}

	result := &CheckoutResult{MemberID: member.ID}
	for _, book := range cart {
		id, err := s.loans.Borrow(ctx, book.ID, member.ID, input.Days)
		if err != nil {
			s.notify("Gagal memproses peminjaman: "+err.Error(), dialog.KindError)
			return result, err
		}
		result.LoanIDs = append(result.LoanIDs, id)
	}

	log.Printf("📚 Checkout for %s: %d loan(s)", member.MemberCode, len(result.LoanIDs))
	s.notify("Peminjaman berhasil diproses!", dialog.KindSuccess)
	return result, nil
}

// CheckIn returns the loan after confirmation
func (s *CirculationService) CheckIn(ctx context.Context, loanID uint) (*ReturnReceipt, error) {
	title := fmt.Sprintf("#%d", loanID)
	if rows, err := s.loans.FindActive(ctx, fmt.Sprint(loanID)); err == nil {
		for _, row := range rows {
			if row.ID == loanID {
				title = row.BookTitle
				break
			}
		}
	}

	if err := s.confirm(ctx, fmt.Sprintf("Selesaikan pengembalian buku %q?", title), dialog.Options{}); err != nil {
		return nil, err
	}

	receipt, err := s.loans.ReturnLoan(ctx, loanID)
	if err != nil {
		s.notify("Gagal mengembalikan buku: "+err.Error(), dialog.KindError)
		return nil, err
	}

	s.notify("Buku berhasil dikembalikan!", dialog.KindSuccess)
	return receipt, nil
}

// RemoveMember deactivates a member after confirmation
func (s *CirculationService) RemoveMember(ctx context.Context, memberID uint) error {
	member, err := s.members.Get(ctx, memberID)
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("Apakah Anda yakin ingin menghapus anggota %q?", member.Name)
	if err := s.confirm(ctx, msg, dialog.Options{}); err != nil {
		return err
	}

	if err := s.members.Delete(ctx, memberID); err != nil {
		s.notify("Gagal menghapus anggota: "+err.Error(), dialog.KindError)
		return err
	}

	s.notify("Anggota berhasil dihapus!", dialog.KindSuccess)
	return nil
}

// ResetDatabase wipes circulation data after an explicit confirmation
func (s *CirculationService) ResetDatabase(ctx context.Context) error {
	opts := dialog.Options{
		Title:       "Reset Database",
		ConfirmText: "Ya, Hapus Semua",
		Kind:        dialog.KindError,
	}
	msg := "Semua data peminjaman, buku, dan anggota akan dihapus permanen. Lanjutkan?"
	if err := s.confirm(ctx, msg, opts); err != nil {
		return err
	}

	if err := s.admin.ResetDatabase(ctx); err != nil {
		s.notify("Gagal mereset database: "+err.Error(), dialog.KindError)
		return err
	}

	s.notify("Database berhasil direset", dialog.KindSuccess)
	return nil
}
