package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pustaka-desk/internal/adapters/bridge"
	"pustaka-desk/internal/core/dialog"
	"pustaka-desk/internal/core/domain"
	"pustaka-desk/internal/core/services"
	"pustaka-desk/internal/pkg/response"
)

func decode(t *testing.T, res *http.Response) response.Response {
	t.Helper()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	var out response.Response
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func Test_StatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrBookNotFound, fiber.StatusNotFound},
		{fmt.Errorf("borrow: %w", domain.ErrMemberInactive), fiber.StatusConflict},
		{domain.ErrLoanLimitReached, fiber.StatusConflict},
		{domain.ErrCancelledByUser, fiber.StatusConflict},
		{domain.ErrInvalidCredentials, fiber.StatusUnauthorized},
		{services.ErrTokenRevoked, fiber.StatusUnauthorized},
		{domain.ErrUserInactive, fiber.StatusForbidden},
		{domain.ErrInvalidStock, fiber.StatusBadRequest},
		{dialog.ErrExplicitChoiceRequired, fiber.StatusBadRequest},
		{errors.New("dial tcp: refused"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			assert.Equal(t, tc.want, StatusOf(tc.err))
		})
	}
}

func newDialogApp() (*fiber.App, *dialog.Coordinator) {
	coord := dialog.New()
	h := NewDialogHandler(coord, services.NewEventHub())
	app := fiber.New()
	app.Get("/dialogs/current", h.Current)
	app.Post("/dialogs/:id/respond", h.Respond)
	return app, coord
}

func respond(t *testing.T, app *fiber.App, id, action string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/dialogs/"+id+"/respond", strings.NewReader(`{"action":"`+action+`"}`))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	require.NoError(t, err)
	return res
}

func Test_DialogHandler_CurrentAndConfirm(t *testing.T) {
	// arrange
	app, coord := newDialogApp()
	defer coord.Close()
	pending := coord.ShowConfirm("Hapus buku?", dialog.Options{})

	// act
	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/dialogs/current", nil))
	require.NoError(t, err)
	body := decode(t, res)

	// assert
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	data := body.Data.(map[string]interface{})
	assert.Equal(t, true, data["visible"])
	view := data["dialog"].(map[string]interface{})
	assert.Equal(t, pending.ID(), view["id"])
	assert.Equal(t, "Batal", view["cancel_text"])

	res = respond(t, app, pending.ID(), "confirm")
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	select {
	case <-pending.Done():
	default:
		t.Fatal("confirmation not resolved")
	}
}

func Test_DialogHandler_RejectsBackdropOnConfirmation(t *testing.T) {
	app, coord := newDialogApp()
	defer coord.Close()
	pending := coord.ShowConfirm("Reset?", dialog.Options{Kind: dialog.KindError})

	res := respond(t, app, pending.ID(), "backdrop")

	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
	view, ok := coord.Active()
	require.True(t, ok)
	assert.Equal(t, pending.ID(), view.ID)
}

func Test_DialogHandler_StaleID(t *testing.T) {
	app, coord := newDialogApp()
	defer coord.Close()

	res := respond(t, app, "tidak-ada", "confirm")
	assert.Equal(t, fiber.StatusConflict, res.StatusCode)
	body := decode(t, res)
	assert.False(t, body.Success)
	assert.Equal(t, dialog.ErrDialogNotActive.Error(), body.Error)

	res = respond(t, app, "tidak-ada", "explode")
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}

func Test_DialogHandler_SubscribeSeesEveryOpenedDialog(t *testing.T) {
	// arrange
	hub := services.NewEventHub()
	coord := dialog.New(dialog.WithObserver(hub.DialogObserver()))
	defer coord.Close()
	h := NewDialogHandler(coord, hub)
	first := coord.ShowAlert("Buku berhasil dipinjam", dialog.KindSuccess)
	client := services.NewHubClient("meja-1", 1, services.TopicDialog)

	// act
	current, visible := h.subscribe(client)
	defer hub.Unregister(client.ID)
	require.NoError(t, coord.Respond(first.ID(), dialog.ActionConfirm))
	second := coord.ShowAlert("Stok habis", dialog.KindError)

	// assert
	require.True(t, visible)
	assert.Equal(t, first.ID(), current.ID)
	assert.Equal(t, 1, hub.ClientCount())

	deadline := time.After(time.Second)
	for {
		select {
		case event := <-client.Channel:
			if e, ok := event.Data.(dialog.Event); ok && e.Type == dialog.EventOpened && e.Dialog.ID == second.ID() {
				return
			}
		case <-deadline:
			t.Fatal("opened event for the next dialog never reached the client")
		}
	}
}

type versionOnly struct{ bridge.Settings }

func (versionOnly) AppVersion() string { return "1.2.3" }

func newInvokeApp(role string) *fiber.App {
	d := bridge.New(bridge.Deps{
		Catalog:   struct{ bridge.Catalog }{},
		Members:   struct{ bridge.Members }{},
		Loans:     struct{ bridge.Loans }{},
		Dashboard: struct{ bridge.Dashboard }{},
		Settings:  versionOnly{},
		Accounts:  struct{ bridge.Accounts }{},
		Resetter:  struct{ bridge.Resetter }{},
	})
	h := NewInvokeHandler(d)
	app := fiber.New()
	app.Post("/invoke/:command", func(c *fiber.Ctx) error {
		if role != "" {
			c.Locals("role", role)
			c.SetUserContext(services.WithActor(c.UserContext(), 1))
		}
		return c.Next()
	}, h.Invoke)
	return app
}

func invoke(t *testing.T, app *fiber.App, cmd, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/invoke/"+cmd, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	require.NoError(t, err)
	return res
}

func Test_InvokeHandler(t *testing.T) {
	t.Run("public command runs anonymously", func(t *testing.T) {
		res := invoke(t, newInvokeApp(""), "get_app_version", "")
		require.Equal(t, fiber.StatusOK, res.StatusCode)
		body := decode(t, res)
		assert.Equal(t, "1.2.3", body.Data.(map[string]interface{})["version"])
	})

	t.Run("unknown command", func(t *testing.T) {
		res := invoke(t, newInvokeApp(string(domain.RoleAdmin)), "format_disk", "{}")
		assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
	})

	t.Run("anonymous caller", func(t *testing.T) {
		res := invoke(t, newInvokeApp(""), "get_books", "")
		assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
	})

	t.Run("librarian cannot reset", func(t *testing.T) {
		res := invoke(t, newInvokeApp(string(domain.RoleLibrarian)), "reset_database", "")
		assert.Equal(t, fiber.StatusForbidden, res.StatusCode)
	})

	t.Run("validation failure", func(t *testing.T) {
		res := invoke(t, newInvokeApp(string(domain.RoleLibrarian)), "return_book", `{}`)
		assert.Equal(t, fiber.StatusUnprocessableEntity, res.StatusCode)
		body := decode(t, res)
		assert.Equal(t, "required", body.Fields["loan_id"])
	})

	t.Run("malformed arguments", func(t *testing.T) {
		res := invoke(t, newInvokeApp(string(domain.RoleLibrarian)), "return_book", `{"loan_id":`)
		assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
	})
}
