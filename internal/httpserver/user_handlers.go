package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"chatbackend/internal/service"
)

// @Summary      List users
// @Description  All active users
// @Tags         user
// @Produce      json
// @Success      200  {array}  domain.User
// @Router       /user [get]
func handleListUsers(userSvc *service.UserService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := userSvc.List(r.Context())
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}

// @Summary      Get user
// @Description  An active user by id
// @Tags         user
// @Produce      json
// @Param        id  path  string  true  "User ID"
// @Success      200  {object}  domain.User
// @Failure      404  {object}  map[string]string
// @Router       /user/{id} [get]
func handleGetUser(userSvc *service.UserService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := userSvc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

// @Summary      List friends
// @Description  Active friends of a user, optionally filtered by email substring
// @Tags         user
// @Produce      json
// @Param        id          path   string  true   "User ID"
// @Param        searchText  query  string  false  "Email filter"
// @Success      200  {array}   domain.Friend
// @Failure      404  {object}  map[string]string
// @Router       /user/{id}/friends [get]
func handleListFriends(userSvc *service.UserService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		friends, err := userSvc.Friends(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("searchText"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, friends)
	}
}

// @Summary      Rename user
// @Description  Update the display name of a user
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        id  path  string  true  "User ID"
// @Param        input  body  service.UpdateUserInput  true  "New name"
// @Success      200  {object}  domain.User
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /user/{id}/update [patch]
func handleUpdateUser(userSvc *service.UserService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req service.UpdateUserInput
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, log, err)
			return
		}
		user, err := userSvc.UpdateName(r.Context(), chi.URLParam(r, "id"), req)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

// @Summary      Toggle online status
// @Description  Flip the online flag of a user
// @Tags         user
// @Produce      json
// @Param        id  path  string  true  "User ID"
// @Success      200  {object}  domain.User
// @Failure      404  {object}  map[string]string
// @Router       /user/{id}/status [post]
func handleToggleStatus(userSvc *service.UserService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := userSvc.ToggleStatus(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

// @Summary      Add friend
// @Description  Link two active users as friends
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        id  path  string  true  "User ID"
// @Param        input  body  service.FriendInput  true  "Friend"
// @Success      200  {object}  service.FriendResult
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /user/{id}/friend [patch]
func handleAddFriend(userSvc *service.UserService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req service.FriendInput
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, log, err)
			return
		}
		res, err := userSvc.AddFriend(r.Context(), chi.URLParam(r, "id"), req)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// @Summary      Remove friend
// @Description  Unlink two users
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        id  path  string  true  "User ID"
// @Param        input  body  service.FriendInput  true  "Friend"
// @Success      200  {object}  service.FriendResult
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /user/{id}/friend [delete]
func handleRemoveFriend(userSvc *service.UserService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req service.FriendInput
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, log, err)
			return
		}
		res, err := userSvc.RemoveFriend(r.Context(), chi.URLParam(r, "id"), req)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// @Summary      Delete user
// @Description  Soft-delete a user
// @Tags         user
// @Produce      json
// @Param        id  path  string  true  "User ID"
// @Success      200  {object}  domain.User
// @Failure      404  {object}  map[string]string
// @Router       /user/{id}/delete [delete]
func handleDeleteUser(userSvc *service.UserService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := userSvc.Delete(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}
