package domain

// Role represents user role in the system
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleLibrarian Role = "librarian"
)

// BookStatus is the shelf status shown in the catalog
type BookStatus string

const (
	BookAvailable   BookStatus = "Tersedia"
	BookBorrowedOut BookStatus = "Dipinjam"
	BookUnavailable BookStatus = "Tidak Tersedia"
)

// MemberStatus represents member eligibility
type MemberStatus string

const (
	MemberActive   MemberStatus = "Aktif"
	MemberInactive MemberStatus = "Nonaktif"
)

// LoanStatus represents loan lifecycle state
type LoanStatus string

const (
	LoanBorrowed LoanStatus = "borrowed"
	LoanReturned LoanStatus = "returned"
)

// Setting keys understood by the loan rules
const (
	SettingFinePerDay     = "fine_per_day"
	SettingLoanDays       = "loan_days"
	SettingMaxActiveLoans = "max_active_loans"
)

// Audit entities and actions
const (
	AuditEntityLoan   = "loan"
	AuditEntityBook   = "book"
	AuditEntityMember = "member"

	AuditActionBorrow = "borrow"
	AuditActionReturn = "return"
	AuditActionDelete = "delete"
	AuditActionCreate = "create"
)
