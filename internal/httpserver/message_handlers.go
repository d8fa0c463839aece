package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"chatbackend/internal/service"
)

// @Summary      List messages
// @Description  All active messages
// @Tags         message
// @Produce      json
// @Success      200  {array}  domain.Message
// @Router       /message [get]
func handleListMessages(msgSvc *service.MessageService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msgs, err := msgSvc.List(r.Context())
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, msgs)
	}
}

// @Summary      Get message
// @Description  An active message by id
// @Tags         message
// @Produce      json
// @Param        id  path  string  true  "Message ID"
// @Success      200  {object}  domain.Message
// @Failure      404  {object}  map[string]string
// @Router       /message/{id} [get]
func handleGetMessage(msgSvc *service.MessageService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msg, err := msgSvc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, msg)
	}
}
