// Package bridge maps the desk UI's named commands onto typed service
// calls. Every command decodes its arguments into a struct and validates
// it before any service runs.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"pustaka-desk/internal/adapters/persistence/models"
	"pustaka-desk/internal/core/dialog"
	"pustaka-desk/internal/core/domain"
	"pustaka-desk/internal/core/services"
	"pustaka-desk/internal/pkg/validation"
)

// ErrUnknownCommand is returned for a name outside the command set
var ErrUnknownCommand = errors.New("unknown command")

// ErrBadArguments wraps a payload that is not valid JSON for the command
var ErrBadArguments = errors.New("invalid command arguments")

// Catalog is the book side of the desk
type Catalog interface {
	List(ctx context.Context) ([]*models.Book, error)
	Add(ctx context.Context, input services.BookInput) (*models.Book, error)
	Update(ctx context.Context, id uint, input services.BookInput) (*models.Book, error)
	Delete(ctx context.Context, id uint) error
	FindByCode(ctx context.Context, code string) (*models.Book, error)
}

// Members is the member register
type Members interface {
	List(ctx context.Context) ([]*models.Member, error)
	Add(ctx context.Context, input services.MemberInput) (*models.Member, error)
	Update(ctx context.Context, id uint, input services.MemberInput) (*models.Member, error)
	Delete(ctx context.Context, id uint) error
	FindByCode(ctx context.Context, code string) (*models.Member, error)
	GenerateCode(ctx context.Context) (string, error)
}

// Loans covers borrowing, returning and loan queries
type Loans interface {
	Borrow(ctx context.Context, bookID, memberID uint, days int) (uint, error)
	ReturnLoan(ctx context.Context, loanID uint) (*services.ReturnReceipt, error)
	FindActive(ctx context.Context, query string) ([]*models.LoanDetail, error)
	ListActive(ctx context.Context) ([]*models.LoanDetail, error)
	ListOverdue(ctx context.Context) ([]*models.LoanDetail, error)
	RecentReturns(ctx context.Context, limit int) ([]*models.LoanDetail, error)
	MemberStats(ctx context.Context, memberID uint) (*models.MemberStats, error)
	MemberLoans(ctx context.Context, memberID uint) ([]*models.LoanDetail, error)
	MemberHistory(ctx context.Context, memberID uint) ([]*models.LoanDetail, error)
	MemberActiveCount(ctx context.Context, memberID uint) (int64, error)
	BookLoanCountYear(ctx context.Context, bookID uint) (int64, error)
	BookBorrowers(ctx context.Context, bookID uint) ([]*models.LoanDetail, error)
}

// Dashboard serves the home screen widgets
type Dashboard interface {
	GetStats(ctx context.Context) (*models.Stats, error)
	RecentActivity(ctx context.Context) ([]*models.RecentActivity, error)
	WeeklyCirculation(ctx context.Context) ([]*models.DailyStats, error)
	PopularCategories(ctx context.Context) ([]*models.CategoryStat, error)
	MostBorrowed(ctx context.Context) ([]*models.BookStat, error)
	MemberActivity(ctx context.Context) ([]*models.MemberActivity, error)
	MonthlyNewMembers(ctx context.Context) (int64, error)
}

// Settings covers key/value settings and maintenance
type Settings interface {
	GetSettings(ctx context.Context) (map[string]string, error)
	UpdateSetting(ctx context.Context, key, value string) error
	BackupDatabase(ctx context.Context) (string, error)
	AppVersion() string
}

// Accounts covers login and the signed-in profile
type Accounts interface {
	Login(ctx context.Context, input *services.LoginInput) (*services.AuthResponse, error)
	UpdateProfile(ctx context.Context, userID uint, input *services.UpdateProfileInput) (*models.UserResponse, error)
	ChangePassword(ctx context.Context, userID uint, input *services.ChangePasswordInput) error
}

// Resetter wipes circulation data. The desk implementation asks for
// confirmation first.
type Resetter interface {
	ResetDatabase(ctx context.Context) error
}

// Deps are the services behind the commands
type Deps struct {
	Catalog   Catalog
	Members   Members
	Loans     Loans
	Dashboard Dashboard
	Settings  Settings
	Accounts  Accounts
	Resetter  Resetter
}

type handlerFunc func(ctx context.Context, raw json.RawMessage) (interface{}, error)

type route struct {
	handle    handlerFunc
	public    bool
	adminOnly bool
}

// Dispatcher routes commands to services
type Dispatcher struct {
	routes map[Command]route
	alerts *dialog.Coordinator
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithErrorAlerts posts every failed command to the coordinator as a
// non-blocking error alert.
func WithErrorAlerts(c *dialog.Coordinator) Option {
	return func(d *Dispatcher) { d.alerts = c }
}

// New builds the dispatcher for the full command set
func New(deps Deps, opts ...Option) *Dispatcher {
	d := &Dispatcher{routes: make(map[Command]route)}
	for _, opt := range opts {
		opt(d)
	}
	d.register(deps)
	return d
}

// Commands lists every registered command
func (d *Dispatcher) Commands() []Command {
	out := make([]Command, 0, len(d.routes))
	for cmd := range d.routes {
		out = append(out, cmd)
	}
	return out
}

// IsPublic reports whether cmd runs without a signed-in user
func (d *Dispatcher) IsPublic(cmd Command) bool {
	return d.routes[cmd].public
}

// IsAdminOnly reports whether cmd needs the admin role
func (d *Dispatcher) IsAdminOnly(cmd Command) bool {
	return d.routes[cmd].adminOnly
}

// Invoke decodes raw into the command's arguments and runs it
func (d *Dispatcher) Invoke(ctx context.Context, cmd Command, raw json.RawMessage) (interface{}, error) {
	r, ok := d.routes[cmd]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
	if !r.public && services.ActorFrom(ctx) == nil {
		return nil, domain.ErrUnauthorized
	}

	result, err := r.handle(ctx, raw)
	if err != nil {
		d.report(cmd, err)
		return nil, err
	}
	return result, nil
}

func (d *Dispatcher) report(cmd Command, err error) {
	if d.alerts == nil || errors.Is(err, domain.ErrCancelledByUser) {
		return
	}
	log.Printf("⚠️ command %s failed: %v", cmd, err)
	message := err.Error()
	if validation.IsValidationError(err) {
		message = "Data yang dikirim tidak valid"
	}
	d.alerts.ShowAlert(message, dialog.KindError)
}

// bind decodes raw into T and validates it. An empty payload decodes as
// the zero value so commands without required fields accept no body.
func bind[T any](raw json.RawMessage) (T, error) {
	var args T
	if len(bytes.TrimSpace(raw)) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		if err := json.Unmarshal(raw, &args); err != nil {
			return args, fmt.Errorf("%w: %v", ErrBadArguments, err)
		}
	}
	if err := validation.Struct(args); err != nil {
		return args, err
	}
	return args, nil
}

// call adapts a typed command body to the dispatcher's handler shape
func call[T any, R any](fn func(context.Context, T) (R, error)) handlerFunc {
	return func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		args, err := bind[T](raw)
		if err != nil {
			return nil, err
		}
		return fn(ctx, args)
	}
}

// query adapts a command that takes no arguments
func query[R any](fn func(context.Context) (R, error)) handlerFunc {
	return func(ctx context.Context, _ json.RawMessage) (interface{}, error) {
		return fn(ctx)
	}
}

func done(err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

func actor(ctx context.Context) (uint, error) {
	id := services.ActorFrom(ctx)
	if id == nil {
		return 0, domain.ErrUnauthorized
	}
	return *id, nil
}

func (d *Dispatcher) add(cmd Command, h handlerFunc) {
	d.routes[cmd] = route{handle: h}
}

func (d *Dispatcher) register(deps Deps) {
	d.routes[CmdLogin] = route{public: true, handle: call(func(ctx context.Context, in services.LoginInput) (*services.AuthResponse, error) {
		return deps.Accounts.Login(ctx, &in)
	})}
	d.routes[CmdGetAppVersion] = route{public: true, handle: query(func(context.Context) (map[string]string, error) {
		return map[string]string{"version": deps.Settings.AppVersion()}, nil
	})}

	// catalog
	d.add(CmdGetBooks, query(deps.Catalog.List))
	d.add(CmdAddBook, call(deps.Catalog.Add))
	d.add(CmdUpdateBook, call(func(ctx context.Context, in UpdateBookArgs) (*models.Book, error) {
		return deps.Catalog.Update(ctx, in.ID, in.BookInput)
	}))
	d.add(CmdDeleteBook, call(func(ctx context.Context, in IDArgs) (interface{}, error) {
		return done(deps.Catalog.Delete(ctx, in.ID))
	}))
	d.add(CmdFindBookByISBN, call(func(ctx context.Context, in CodeArgs) (*models.Book, error) {
		return deps.Catalog.FindByCode(ctx, in.Code)
	}))

	// members
	d.add(CmdGetMembers, query(deps.Members.List))
	d.add(CmdAddMember, call(deps.Members.Add))
	d.add(CmdUpdateMember, call(func(ctx context.Context, in UpdateMemberArgs) (*models.Member, error) {
		return deps.Members.Update(ctx, in.ID, in.MemberInput)
	}))
	d.add(CmdDeleteMember, call(func(ctx context.Context, in IDArgs) (interface{}, error) {
		return done(deps.Members.Delete(ctx, in.ID))
	}))
	d.add(CmdFindMemberByCode, call(func(ctx context.Context, in CodeArgs) (*models.Member, error) {
		return deps.Members.FindByCode(ctx, in.Code)
	}))
	d.add(CmdGenerateMemberCode, query(func(ctx context.Context) (map[string]string, error) {
		code, err := deps.Members.GenerateCode(ctx)
		return map[string]string{"member_code": code}, err
	}))

	// loans
	d.add(CmdBorrowBook, call(func(ctx context.Context, in services.BorrowInput) (map[string]uint, error) {
		id, err := deps.Loans.Borrow(ctx, in.BookID, in.MemberID, in.Days)
		return map[string]uint{"loan_id": id}, err
	}))
	d.add(CmdReturnBook, call(func(ctx context.Context, in LoanArgs) (*services.ReturnReceipt, error) {
		return deps.Loans.ReturnLoan(ctx, in.LoanID)
	}))
	d.add(CmdFindActiveLoan, call(func(ctx context.Context, in QueryArgs) ([]*models.LoanDetail, error) {
		return deps.Loans.FindActive(ctx, in.Query)
	}))
	d.add(CmdGetActiveLoans, query(deps.Loans.ListActive))
	d.add(CmdGetOverdueLoans, query(deps.Loans.ListOverdue))
	d.add(CmdGetRecentReturns, call(func(ctx context.Context, in LimitArgs) ([]*models.LoanDetail, error) {
		return deps.Loans.RecentReturns(ctx, in.Limit)
	}))
	d.add(CmdGetMemberStats, call(func(ctx context.Context, in MemberArgs) (*models.MemberStats, error) {
		return deps.Loans.MemberStats(ctx, in.MemberID)
	}))
	d.add(CmdGetMemberLoans, call(func(ctx context.Context, in MemberArgs) ([]*models.LoanDetail, error) {
		return deps.Loans.MemberLoans(ctx, in.MemberID)
	}))
	d.add(CmdGetMemberHistory, call(func(ctx context.Context, in MemberArgs) ([]*models.LoanDetail, error) {
		return deps.Loans.MemberHistory(ctx, in.MemberID)
	}))
	d.add(CmdGetMemberActiveCount, call(func(ctx context.Context, in MemberArgs) (int64, error) {
		return deps.Loans.MemberActiveCount(ctx, in.MemberID)
	}))
	d.add(CmdGetBookLoanCountYear, call(func(ctx context.Context, in BookArgs) (int64, error) {
		return deps.Loans.BookLoanCountYear(ctx, in.BookID)
	}))
	d.add(CmdGetBookBorrowers, call(func(ctx context.Context, in BookArgs) ([]*models.LoanDetail, error) {
		return deps.Loans.BookBorrowers(ctx, in.BookID)
	}))

	// dashboard
	d.add(CmdGetStats, query(deps.Dashboard.GetStats))
	d.add(CmdGetRecentActivity, query(deps.Dashboard.RecentActivity))
	d.add(CmdGetWeeklyCirculation, query(deps.Dashboard.WeeklyCirculation))
	d.add(CmdGetPopularCategories, query(deps.Dashboard.PopularCategories))
	d.add(CmdGetMostBorrowedBooks, query(deps.Dashboard.MostBorrowed))
	d.add(CmdGetMemberActivityStats, query(deps.Dashboard.MemberActivity))
	d.add(CmdGetMonthlyNewMembers, query(deps.Dashboard.MonthlyNewMembers))

	// settings and account
	d.add(CmdGetSettings, query(deps.Settings.GetSettings))
	d.routes[CmdUpdateSetting] = route{adminOnly: true, handle: call(func(ctx context.Context, in services.SettingInput) (interface{}, error) {
		return done(deps.Settings.UpdateSetting(ctx, in.Key, in.Value))
	})}
	d.routes[CmdBackupDatabase] = route{adminOnly: true, handle: query(func(ctx context.Context) (map[string]string, error) {
		path, err := deps.Settings.BackupDatabase(ctx)
		return map[string]string{"path": path}, err
	})}
	d.routes[CmdResetDatabase] = route{adminOnly: true, handle: query(func(ctx context.Context) (interface{}, error) {
		return done(deps.Resetter.ResetDatabase(ctx))
	})}
	d.add(CmdUpdateProfile, call(func(ctx context.Context, in services.UpdateProfileInput) (*models.UserResponse, error) {
		userID, err := actor(ctx)
		if err != nil {
			return nil, err
		}
		return deps.Accounts.UpdateProfile(ctx, userID, &in)
	}))
	d.add(CmdChangePassword, call(func(ctx context.Context, in services.ChangePasswordInput) (interface{}, error) {
		userID, err := actor(ctx)
		if err != nil {
			return nil, err
		}
		return done(deps.Accounts.ChangePassword(ctx, userID, &in))
	}))
}
