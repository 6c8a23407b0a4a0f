package bridge

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pustaka-desk/internal/adapters/persistence/models"
	"pustaka-desk/internal/core/dialog"
	"pustaka-desk/internal/core/domain"
	"pustaka-desk/internal/core/services"
	"pustaka-desk/internal/pkg/validation"
)

type fakeCatalog struct {
	Catalog
	deleted []uint
}

func (f *fakeCatalog) FindByCode(_ context.Context, code string) (*models.Book, error) {
	if code != "978-1" {
		return nil, domain.ErrBookNotFound
	}
	return &models.Book{ID: 1, Title: "Laskar Pelangi", ISBN: code}, nil
}

func (f *fakeCatalog) Delete(_ context.Context, id uint) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeLoans struct {
	Loans
	borrowed [][3]int
}

func (f *fakeLoans) Borrow(_ context.Context, bookID, memberID uint, days int) (uint, error) {
	f.borrowed = append(f.borrowed, [3]int{int(bookID), int(memberID), days})
	return 42, nil
}

type fakeSettings struct{ Settings }

func (fakeSettings) AppVersion() string { return "9.9.9" }

type fakeAccounts struct {
	Accounts
	profileFor uint
}

func (f *fakeAccounts) UpdateProfile(_ context.Context, userID uint, in *services.UpdateProfileInput) (*models.UserResponse, error) {
	f.profileFor = userID
	return &models.UserResponse{ID: userID, Name: in.Name}, nil
}

func newDispatcher(opts ...Option) (*Dispatcher, *fakeCatalog, *fakeLoans, *fakeAccounts) {
	catalog := &fakeCatalog{}
	loans := &fakeLoans{}
	accounts := &fakeAccounts{}
	d := New(Deps{
		Catalog:   catalog,
		Members:   struct{ Members }{},
		Loans:     loans,
		Dashboard: struct{ Dashboard }{},
		Settings:  fakeSettings{},
		Accounts:  accounts,
		Resetter:  struct{ Resetter }{},
	}, opts...)
	return d, catalog, loans, accounts
}

func signedIn() context.Context {
	return services.WithActor(context.Background(), 7)
}

func Test_Dispatcher_RegistersEveryCommand(t *testing.T) {
	d, _, _, _ := newDispatcher()

	assert.Len(t, d.Commands(), 38)
	assert.True(t, d.IsPublic(CmdLogin))
	assert.True(t, d.IsAdminOnly(CmdResetDatabase))
	assert.False(t, d.IsAdminOnly(CmdBorrowBook))
}

func Test_Dispatcher_UnknownCommand(t *testing.T) {
	d, _, _, _ := newDispatcher()

	_, err := d.Invoke(signedIn(), Command("drop_tables"), nil)

	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func Test_Dispatcher_RequiresActor(t *testing.T) {
	d, _, _, _ := newDispatcher()

	_, err := d.Invoke(context.Background(), CmdDeleteBook, json.RawMessage(`{"id":1}`))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	got, err := d.Invoke(context.Background(), CmdGetAppVersion, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"version": "9.9.9"}, got)
}

func Test_Dispatcher_DecodesTypedArgs(t *testing.T) {
	d, catalog, loans, _ := newDispatcher()

	got, err := d.Invoke(signedIn(), CmdBorrowBook, json.RawMessage(`{"book_id":3,"member_id":5,"days":14}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]uint{"loan_id": 42}, got)
	assert.Equal(t, [][3]int{{3, 5, 14}}, loans.borrowed)

	book, err := d.Invoke(signedIn(), CmdFindBookByISBN, json.RawMessage(`{"code":"978-1"}`))
	require.NoError(t, err)
	assert.Equal(t, "Laskar Pelangi", book.(*models.Book).Title)

	_, err = d.Invoke(signedIn(), CmdDeleteBook, json.RawMessage(`{"id":9}`))
	require.NoError(t, err)
	assert.Equal(t, []uint{9}, catalog.deleted)
}

func Test_Dispatcher_RejectsBadArgs(t *testing.T) {
	d, _, loans, _ := newDispatcher()

	_, err := d.Invoke(signedIn(), CmdBorrowBook, json.RawMessage(`{"book_id":"tiga"}`))
	assert.ErrorIs(t, err, ErrBadArguments)

	_, err = d.Invoke(signedIn(), CmdBorrowBook, json.RawMessage(`{"member_id":5}`))
	require.Error(t, err)
	assert.Equal(t, "required", validation.Fields(err)["book_id"])

	_, err = d.Invoke(signedIn(), CmdDeleteBook, nil)
	assert.Equal(t, "required", validation.Fields(err)["id"])
	assert.Empty(t, loans.borrowed)
}

func Test_Dispatcher_ProfileUsesActor(t *testing.T) {
	d, _, _, accounts := newDispatcher()

	got, err := d.Invoke(signedIn(), CmdUpdateProfile, json.RawMessage(`{"name":"Bu Ani"}`))

	require.NoError(t, err)
	assert.Equal(t, uint(7), accounts.profileFor)
	assert.Equal(t, "Bu Ani", got.(*models.UserResponse).Name)
}

func Test_Dispatcher_ReportsFailuresAsAlerts(t *testing.T) {
	// arrange
	opened := make(chan dialog.View, 4)
	coord := dialog.New(dialog.WithObserver(func(e dialog.Event) {
		if e.Type == dialog.EventOpened {
			opened <- e.Dialog
		}
	}))
	defer coord.Close()
	d, _, _, _ := newDispatcher(WithErrorAlerts(coord))

	// act
	_, err := d.Invoke(signedIn(), CmdFindBookByISBN, json.RawMessage(`{"code":"000"}`))

	// assert
	assert.ErrorIs(t, err, domain.ErrBookNotFound)
	select {
	case view := <-opened:
		assert.Equal(t, dialog.KindError, view.Kind)
		assert.Equal(t, domain.ErrBookNotFound.Error(), view.Message)
		assert.False(t, view.IsConfirmation)
	case <-time.After(time.Second):
		t.Fatal("no alert posted")
	}
}
