package bridge

import (
	"pustaka-desk/internal/core/services"
)

// Command names one operation the desk UI can invoke
type Command string

const (
	CmdLogin Command = "login"

	CmdGetBooks       Command = "get_books"
	CmdAddBook        Command = "add_book"
	CmdUpdateBook     Command = "update_book"
	CmdDeleteBook     Command = "delete_book"
	CmdFindBookByISBN Command = "find_book_by_isbn"

	CmdGetMembers         Command = "get_members"
	CmdAddMember          Command = "add_member"
	CmdUpdateMember       Command = "update_member"
	CmdDeleteMember       Command = "delete_member"
	CmdFindMemberByCode   Command = "find_member_by_code"
	CmdGenerateMemberCode Command = "generate_member_code"

	CmdBorrowBook       Command = "borrow_book"
	CmdReturnBook       Command = "return_book"
	CmdFindActiveLoan   Command = "find_active_loan"
	CmdGetActiveLoans   Command = "get_active_loans"
	CmdGetOverdueLoans  Command = "get_overdue_loans"
	CmdGetRecentReturns Command = "get_recent_returns"

	CmdGetStats               Command = "get_stats"
	CmdGetRecentActivity      Command = "get_recent_activity"
	CmdGetWeeklyCirculation   Command = "get_weekly_circulation"
	CmdGetPopularCategories   Command = "get_popular_categories"
	CmdGetMostBorrowedBooks   Command = "get_most_borrowed_books"
	CmdGetMemberActivityStats Command = "get_member_activity_stats"
	CmdGetMonthlyNewMembers   Command = "get_monthly_new_members"
	CmdGetMemberStats         Command = "get_member_stats"
	CmdGetMemberLoans         Command = "get_member_loans"
	CmdGetMemberHistory       Command = "get_member_borrowing_history"
	CmdGetMemberActiveCount   Command = "get_member_active_loan_count"
	CmdGetBookLoanCountYear   Command = "get_book_loan_count_year"
	CmdGetBookBorrowers       Command = "get_book_borrowers"

	CmdGetSettings    Command = "get_settings"
	CmdUpdateSetting  Command = "update_setting"
	CmdUpdateProfile  Command = "update_profile"
	CmdChangePassword Command = "change_password"
	CmdBackupDatabase Command = "backup_database"
	CmdResetDatabase  Command = "reset_database"
	CmdGetAppVersion  Command = "get_app_version"
)

// IDArgs addresses a book or member by id
type IDArgs struct {
	ID uint `json:"id" validate:"required"`
}

// CodeArgs carries a scanned ISBN, barcode or member code
type CodeArgs struct {
	Code string `json:"code" validate:"required"`
}

// LoanArgs addresses a loan
type LoanArgs struct {
	LoanID uint `json:"loan_id" validate:"required"`
}

// MemberArgs addresses a member in loan queries
type MemberArgs struct {
	MemberID uint `json:"member_id" validate:"required"`
}

// BookArgs addresses a book in loan queries
type BookArgs struct {
	BookID uint `json:"book_id" validate:"required"`
}

// QueryArgs carries a free-text loan search
type QueryArgs struct {
	Query string `json:"query" validate:"required"`
}

// LimitArgs caps a list
type LimitArgs struct {
	Limit int `json:"limit" validate:"gte=0,lte=100"`
}

// UpdateBookArgs is a book id plus the new fields
type UpdateBookArgs struct {
	ID uint `json:"id" validate:"required"`
	services.BookInput
}

// UpdateMemberArgs is a member id plus the new fields
type UpdateMemberArgs struct {
	ID uint `json:"id" validate:"required"`
	services.MemberInput
}
