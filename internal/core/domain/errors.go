package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("Username atau password salah")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
)

// User errors
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserInactive     = errors.New("user account is inactive")
	ErrOldPasswordWrong = errors.New("Kata sandi lama salah")
)

// Catalog errors
var (
	ErrBookNotFound       = errors.New("Buku tidak ditemukan")
	ErrBookUnavailable    = errors.New("Buku sedang tidak tersedia (Non-Aktif)")
	ErrBookHasActiveLoans = errors.New("Buku masih sedang dipinjam")
	ErrInvalidStock       = errors.New("available_copy must be between 0 and total_copy")
)

// Member errors
var (
	ErrMemberNotFound   = errors.New("Anggota tidak ditemukan")
	ErrMemberCodeExists = errors.New("member code already exists")
)

// Loan errors
var (
	ErrMemberInactive    = errors.New("Anggota berstatus Nonaktif tidak dapat meminjam buku")
	ErrNoCopiesAvailable = errors.New("Stok buku habis")
	ErrLoanLimitReached  = errors.New("Anggota telah mencapai batas maksimal peminjaman")
	ErrLoanNotFound      = errors.New("Loan record not found")
	ErrAlreadyReturned   = errors.New("Book already returned")
)

// Workflow errors
var (
	ErrCancelledByUser = errors.New("cancelled by user")
	ErrEmptyCart       = errors.New("Belum ada buku yang dipilih!")
)
