package models

import (
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Catalog & Circulation Tables
// ============================================================

// Book represents books table
type Book struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Title         string         `gorm:"size:255;not null;index" json:"title" validate:"required,max=255"`
	Author        string         `gorm:"size:255;not null" json:"author" validate:"required,max=255"`
	ISBN          string         `gorm:"column:isbn;size:32;index" json:"isbn" validate:"max=32"`
	Category      string         `gorm:"size:100;index" json:"category,omitempty" validate:"max=100"`
	Publisher     string         `gorm:"size:150" json:"publisher,omitempty" validate:"max=150"`
	PublishedYear *int           `json:"published_year,omitempty" validate:"omitempty,gte=0,lte=9999"`
	RackLocation  string         `gorm:"size:50" json:"rack_location,omitempty" validate:"max=50"`
	Barcode       *string        `gorm:"size:32;uniqueIndex" json:"barcode,omitempty"`
	TotalCopy     int            `gorm:"not null;default:1" json:"total_copy" validate:"gte=0"`
	AvailableCopy int            `gorm:"not null;default:1" json:"available_copy" validate:"gte=0"`
	Cover         string         `gorm:"size:16777215" json:"cover,omitempty"`
	Status        string         `gorm:"size:20;default:'Tersedia'" json:"status,omitempty"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Book) TableName() string {
	return "books"
}

// Member represents members table
type Member struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	MemberCode   string    `gorm:"size:32;uniqueIndex;not null" json:"member_code"`
	Name         string    `gorm:"size:150;not null;index" json:"name" validate:"required,max=150"`
	Email        string    `gorm:"size:100" json:"email,omitempty" validate:"omitempty,email,max=100"`
	Phone        string    `gorm:"size:30" json:"phone,omitempty" validate:"max=30"`
	Kelas        string    `gorm:"size:30" json:"kelas,omitempty" validate:"max=30"`
	JenisKelamin string    `gorm:"size:20" json:"jenis_kelamin,omitempty" validate:"max=20"`
	Status       string    `gorm:"size:20;default:'Aktif';index" json:"status,omitempty"`
	JoinedAt     time.Time `gorm:"autoCreateTime;index" json:"joined_at"`
}

func (Member) TableName() string {
	return "members"
}

// Loan represents loans table
type Loan struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	BookID     uint       `gorm:"index;not null" json:"book_id"`
	MemberID   uint       `gorm:"index;not null" json:"member_id"`
	LoanDate   time.Time  `gorm:"not null;index" json:"loan_date"`
	DueDate    time.Time  `gorm:"not null;index" json:"due_date"`
	ReturnDate *time.Time `json:"return_date"`
	FineAmount int64      `gorm:"not null;default:0" json:"fine_amount"`
	Status     string     `gorm:"size:20;not null;index" json:"status"`
	Book       Book       `gorm:"foreignKey:BookID" json:"-"`
	Member     Member     `gorm:"foreignKey:MemberID" json:"-"`
}

func (Loan) TableName() string {
	return "loans"
}

// ============================================================
// Read models
// ============================================================

// LoanDetail is a loan joined with its book and member
type LoanDetail struct {
	ID                uint       `json:"id"`
	BookID            uint       `json:"book_id"`
	MemberID          uint       `json:"member_id"`
	BookTitle         string     `json:"book_title"`
	BookISBN          string     `gorm:"column:book_isbn" json:"book_isbn"`
	BookCover         string     `json:"book_cover,omitempty"`
	MemberName        string     `json:"member_name"`
	MemberCode        string     `json:"member_code"`
	MemberKelas       string     `json:"member_kelas,omitempty"`
	MemberStatus      string     `json:"member_status,omitempty"`
	LoanDate          time.Time  `json:"loan_date"`
	DueDate           time.Time  `json:"due_date"`
	ReturnDate        *time.Time `json:"return_date,omitempty"`
	Status            string     `json:"status"`
	FineAmount        int64      `json:"fine_amount"`
	MemberActiveLoans int64      `json:"member_active_loans"`
}

// MemberStats summarises a member's borrowing
type MemberStats struct {
	TotalLoans30Days int64 `json:"total_loans_30_days"`
	TotalLoans1Year  int64 `json:"total_loans_1_year"`
	ActiveLoans      int64 `json:"active_loans"`
	OverdueLoans     int64 `json:"overdue_loans"`
	TotalFines       int64 `json:"total_fines"`
}

// Stats are the dashboard counters
type Stats struct {
	TotalBooks        int64 `json:"total_books"`
	TotalMembers      int64 `json:"total_members"`
	ActiveLoans       int64 `json:"active_loans"`
	OverdueLoans      int64 `json:"overdue_loans"`
	MonthlyNewMembers int64 `json:"monthly_new_members"`
	TotalLoansCount   int64 `json:"total_loans_count"`
}

// RecentActivity is one row of the dashboard activity feed
type RecentActivity struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Time        time.Time `json:"time"`
	TypeName    string    `json:"type_name"`
}

// DailyStats counts loans for one weekday
type DailyStats struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// CategoryStat counts loans per book category
type CategoryStat struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// BookStat is a book with its loan count
type BookStat struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	Category  string `json:"category,omitempty"`
	Cover     string `json:"cover,omitempty"`
	LoanCount int64  `json:"loan_count"`
}

// MemberActivity ranks members by number of loans
type MemberActivity struct {
	Name         string     `json:"name"`
	JoinedAt     *time.Time `json:"joined_at"`
	TotalLoans   int64      `json:"total_loans"`
	Status       string     `json:"status"`
	LastActivity *time.Time `json:"last_activity"`
}
