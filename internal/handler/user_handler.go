package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/grenier-labs/marketplace/internal/user/usecase"
)

// UserHandler serves account signup and login.
type UserHandler struct {
	users  *usecase.UserUsecase
	logger *zap.Logger
}

func NewUserHandler(users *usecase.UserUsecase, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleSignup serves POST /user/signup (multipart, optional avatar
// picture).
func (h *UserHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		RespondError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	newsletter, _ := strconv.ParseBool(r.FormValue("newsletter"))

	var avatar []byte
	if fhs := r.MultipartForm.File["picture"]; len(fhs) > 0 {
		f, err := fhs[0].Open()
		if err != nil {
			RespondError(w, http.StatusBadRequest, "failed to read uploaded file: "+err.Error())
			return
		}
		avatar, err = io.ReadAll(f)
		f.Close()
		if err != nil {
			RespondError(w, http.StatusBadRequest, "failed to read uploaded file: "+err.Error())
			return
		}
	}

	registered, err := h.users.Register(r.Context(),
		r.FormValue("username"),
		r.FormValue("email"),
		r.FormValue("password"),
		newsletter,
		avatar,
	)
	if err != nil {
		respondUsecaseError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, registered)
}

// HandleLogin serves POST /user/login (JSON body).
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	logged, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondUsecaseError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, logged)
}
