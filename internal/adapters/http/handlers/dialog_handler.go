package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"pustaka-desk/internal/core/dialog"
	"pustaka-desk/internal/core/services"
	"pustaka-desk/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

const sseHeartbeat = 30 * time.Second

// DialogHandler lets the desk UI render and answer coordinator dialogs
type DialogHandler struct {
	coordinator *dialog.Coordinator
	hub         *services.EventHub
}

// NewDialogHandler creates a new dialog handler
func NewDialogHandler(coordinator *dialog.Coordinator, hub *services.EventHub) *DialogHandler {
	return &DialogHandler{coordinator: coordinator, hub: hub}
}

// RespondRequest is the librarian's answer to the visible dialog
type RespondRequest struct {
	Action dialog.Action `json:"action"`
}

// Current returns the visible dialog, if any
// @Summary Current dialog
// @Tags Dialogs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /dialogs/current [get]
func (h *DialogHandler) Current(c *fiber.Ctx) error {
	view, ok := h.coordinator.Active()
	data := fiber.Map{
		"visible": ok,
		"queued":  h.coordinator.Queued(),
	}
	if ok {
		data["dialog"] = view
	}
	return response.Success(c, "Dialog state retrieved", data)
}

// Respond answers the visible dialog
// @Summary Answer dialog
// @Description action is confirm, cancel or backdrop
// @Tags Dialogs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Dialog ID"
// @Param body body RespondRequest true "Answer"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /dialogs/{id}/respond [post]
func (h *DialogHandler) Respond(c *fiber.Ctx) error {
	var req RespondRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	switch req.Action {
	case dialog.ActionConfirm, dialog.ActionCancel, dialog.ActionBackdrop:
	default:
		return response.BadRequest(c, "action must be confirm, cancel or backdrop")
	}

	if err := h.coordinator.Respond(c.Params("id"), req.Action); err != nil {
		return fail(c, err, "Failed to answer dialog")
	}
	return response.Success(c, "Dialog answered", nil)
}

// Stream pushes dialog and circulation events as server-sent events
// @Summary Dialog event stream (SSE)
// @Description Pass the access token as ?access_token= since EventSource cannot set headers
// @Tags Dialogs
// @Produce text/event-stream
// @Param topics query string false "Comma separated: dialog,circulation"
// @Router /dialogs/stream [get]
func (h *DialogHandler) Stream(c *fiber.Ctx) error {
	userID, _ := userIDFrom(c)
	topics := []string{services.TopicDialog}
	if raw := c.Query("topics"); raw != "" {
		topics = strings.Split(raw, ",")
	}
	client := services.NewHubClient(uuid.NewString(), userID, topics...)
	current, visible := h.subscribe(client)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set(fiber.HeaderTransferEncoding, "chunked")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer h.hub.Unregister(client.ID)

		fmt.Fprintf(w, "event: connected\ndata: {\"client_id\":%q}\n\n", client.ID)
		if visible {
			writeSSE(w, services.HubEvent{Event: dialog.EventOpened, Data: dialog.Event{Type: dialog.EventOpened, Dialog: current}})
		}
		if err := w.Flush(); err != nil {
			return
		}

		heartbeat := time.NewTicker(sseHeartbeat)
		defer heartbeat.Stop()

		for {
			select {
			case event, ok := <-client.Channel:
				if !ok {
					return
				}
				writeSSE(w, event)
				if err := w.Flush(); err != nil {
					log.Printf("📡 SSE client disconnected: %s", client.ID)
					return
				}
			case <-heartbeat.C:
				fmt.Fprint(w, ": heartbeat\n\n")
				if err := w.Flush(); err != nil {
					log.Printf("📡 SSE client disconnected: %s", client.ID)
					return
				}
			}
		}
	}))

	return nil
}

// subscribe registers the client before taking the snapshot. A dialog opened
// in between may arrive twice but is never lost.
func (h *DialogHandler) subscribe(client *services.HubClient) (dialog.View, bool) {
	h.hub.Register(client)
	return h.coordinator.Active()
}

func writeSSE(w *bufio.Writer, event services.HubEvent) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		log.Printf("⚠️ SSE encode %s: %v", event.Event, err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
}
