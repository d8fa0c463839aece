package httpserver

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"chatbackend/internal/service"
)

// @Summary      Create chat
// @Description  Create a chat owned by the path user. The owner is not added to members implicitly.
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        id     path  string                     true  "Owner user ID"
// @Param        input  body  service.CreateChatInput    true  "Chat input"
// @Success      200  {object}  domain.Chat
// @Failure      400  {object}  map[string]string
// @Router       /chat/{id} [post]
func handleCreateChat(chatSvc *service.ChatService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req service.CreateChatInput
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, log, err)
			return
		}
		chat, err := chatSvc.Create(r.Context(), chi.URLParam(r, "id"), req)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, chat)
	}
}

// @Summary      Get chat
// @Description  An active chat by id
// @Tags         chat
// @Produce      json
// @Param        id  path  string  true  "Chat ID"
// @Success      200  {object}  domain.Chat
// @Failure      404  {object}  map[string]string
// @Router       /chat/{id} [get]
func handleGetChat(chatSvc *service.ChatService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chat, err := chatSvc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, chat)
	}
}

// @Summary      List user chats
// @Description  Active chats the user is a member of
// @Tags         chat
// @Produce      json
// @Param        userId  path  string  true  "User ID"
// @Success      200  {array}  domain.Chat
// @Router       /chat/user/{userId} [get]
func handleListUserChats(chatSvc *service.ChatService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chats, err := chatSvc.ListForUser(r.Context(), chi.URLParam(r, "userId"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, chats)
	}
}

// @Summary      Chat history
// @Description  One page of messages, oldest first within the page. Pages count back from the newest message.
// @Tags         chat
// @Produce      json
// @Param        id     path   string  true   "Chat ID"
// @Param        page   query  int     false  "Page (default 1)"
// @Param        limit  query  int     false  "Page size (default 20)"
// @Success      200  {object}  domain.MessagePage
// @Router       /chat/{id}/messages [get]
func handleChatMessages(chatSvc *service.ChatService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Unparsable values fall back to the defaults.
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		res, err := chatSvc.Messages(r.Context(), chi.URLParam(r, "id"), page, limit)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// @Summary      Toggle strict mode
// @Description  Flip the strict flag of a chat
// @Tags         chat
// @Produce      json
// @Param        id  path  string  true  "Chat ID"
// @Success      200  {object}  domain.Chat
// @Failure      404  {object}  map[string]string
// @Router       /chat/{id} [patch]
func handleToggleStrict(chatSvc *service.ChatService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chat, err := chatSvc.ToggleStrict(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, chat)
	}
}

// @Summary      Delete chat
// @Description  Soft-delete a chat and its messages
// @Tags         chat
// @Produce      json
// @Param        id  path  string  true  "Chat ID"
// @Success      200  {object}  service.DeleteResult
// @Router       /chat/{id} [delete]
func handleDeleteChat(chatSvc *service.ChatService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := chatSvc.Delete(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// @Summary      Add member
// @Description  Append a user to the chat members
// @Tags         chat
// @Produce      json
// @Param        id  path  string  true  "Chat ID"
// @Param        memberId  query  string  true  "Member user ID"
// @Success      200  {object}  domain.Chat
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /chat/{id}/add-member [post]
func handleAddMember(chatSvc *service.ChatService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chat, err := chatSvc.AddMember(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("memberId"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, chat)
	}
}

// @Summary      Remove member
// @Description  Remove a user from the chat members
// @Tags         chat
// @Produce      json
// @Param        id  path  string  true  "Chat ID"
// @Param        memberId  query  string  true  "Member user ID"
// @Success      200  {object}  domain.Chat
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /chat/{id}/remove-member [post]
func handleRemoveMember(chatSvc *service.ChatService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chat, err := chatSvc.RemoveMember(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("memberId"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, chat)
	}
}

// @Summary      Rename chat
// @Description  Change the group name of a chat
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        id  path  string  true  "Chat ID"
// @Param        input  body  service.RenameChatInput  true  "New name"
// @Success      200  {object}  domain.Chat
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /chat/{id}/update-name [patch]
func handleRenameChat(chatSvc *service.ChatService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req service.RenameChatInput
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, log, err)
			return
		}
		chat, err := chatSvc.Rename(r.Context(), chi.URLParam(r, "id"), req)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, chat)
	}
}
