package httpserver

import (
	"log/slog"
	"net/http"

	"chatbackend/internal/service"
)

// @Summary      Register a new user
// @Description  Create a user. An existing active user with the same email is returned instead.
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        input body service.CreateUserInput true "User input"
// @Success      200  {object}  domain.User
// @Failure      400  {object}  map[string]string
// @Router       /user [post]
func handleCreateUser(userSvc *service.UserService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req service.CreateUserInput
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, log, err)
			return
		}

		user, err := userSvc.Create(r.Context(), req)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

// @Summary      Login
// @Description  Login with email and password
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        input body service.LoginInput true "Login input"
// @Success      200  {object}  service.LoginResult
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /user/login [post]
func handleLogin(authSvc *service.AuthService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req service.LoginInput
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, log, err)
			return
		}

		resp, err := authSvc.Login(r.Context(), req)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
