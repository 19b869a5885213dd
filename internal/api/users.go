package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gatekeeper/internal/auth"
	"github.com/nerrad567/gatekeeper/internal/events"
)

// minPasswordLength is the shortest password accepted on create and update.
const minPasswordLength = 8

// ─── Request/Response Types ────────────────────────────────────────

type permissionItem struct {
	Code string `json:"code"`
}

type userResponse struct {
	ID          int64            `json:"id"`
	Email       string           `json:"email"`
	Name        string           `json:"name"`
	Permissions []permissionItem `json:"permissions"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

type userListResponse struct {
	Code  string         `json:"code"`
	Users []userResponse `json:"users"`
}

type userMutationResponse struct {
	Code string       `json:"code"`
	User userResponse `json:"user"`
}

// permissionList accepts ["A","B"] as well as [{"code":"A"},{"code":"B"}].
type permissionList []string

func (p *permissionList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("permissions must be an array: %w", err)
	}

	codes := make([]string, 0, len(raw))
	for _, item := range raw {
		var code string
		if err := json.Unmarshal(item, &code); err != nil {
			var obj permissionItem
			if err := json.Unmarshal(item, &obj); err != nil {
				return fmt.Errorf("invalid permission entry %s", item)
			}
			code = obj.Code
		}
		if strings.TrimSpace(code) == "" {
			return errors.New("empty permission code")
		}
		codes = append(codes, code)
	}
	*p = codes
	return nil
}

type createUserRequest struct {
	Name        string         `json:"name"`
	Email       string         `json:"email"`
	Password    string         `json:"password"`
	Permissions permissionList `json:"permissions"`
}

func (req *createUserRequest) validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.New("name is required")
	}
	if !auth.IsValidEmail(strings.TrimSpace(req.Email)) {
		return errors.New("email is invalid")
	}
	if len(req.Password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

type updateUserRequest struct {
	Name        *string         `json:"name"`
	Email       *string         `json:"email"`
	Password    *string         `json:"password"`
	Permissions *permissionList `json:"permissions"`
}

func (req *updateUserRequest) validate() error {
	if req.Name == nil && req.Email == nil && req.Password == nil && req.Permissions == nil {
		return errors.New("no fields to update")
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return errors.New("name must not be empty")
	}
	if req.Email != nil && !auth.IsValidEmail(strings.TrimSpace(*req.Email)) {
		return errors.New("email is invalid")
	}
	if req.Password != nil && len(*req.Password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

func toUserResponse(u *auth.User) userResponse {
	perms := make([]permissionItem, 0, len(u.Permissions))
	for _, code := range u.Permissions {
		perms = append(perms, permissionItem{Code: code})
	}
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Permissions: perms,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// ─── Handlers ──────────────────────────────────────────────────────

// handleListUsers returns every account except root, newest first.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context(), auth.RootUserID)
	if err != nil {
		s.logger.Error("list users failed", "error", err, "request_id", requestID(r.Context()))
		writeCode(w, http.StatusInternalServerError, CodeServerError)
		return
	}

	out := make([]userResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	writeJSON(w, http.StatusOK, userListResponse{Code: CodeUsersFound, Users: out})
}

// handleCreateUser creates a new account.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if !isJSON(r) {
		writeCode(w, http.StatusUnsupportedMediaType, CodeInvalidContentType)
		return
	}

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCode(w, http.StatusBadRequest, CodeInvalidPayload)
		return
	}
	if err := req.validate(); err != nil {
		s.logger.Debug("create user payload rejected", "reason", err.Error())
		writeCode(w, http.StatusBadRequest, CodeInvalidPayload)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("hash password failed", "error", err)
		writeCode(w, http.StatusInternalServerError, CodeUserCreateFailed)
		return
	}

	user := &auth.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        auth.NormalizeEmail(req.Email),
		PasswordHash: hash,
		Permissions:  []string(req.Permissions),
	}
	if err := s.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, auth.ErrEmailExists) {
			writeCode(w, http.StatusConflict, CodeEmailExists)
			return
		}
		s.logger.Error("create user failed", "error", err, "request_id", requestID(r.Context()))
		writeCode(w, http.StatusInternalServerError, CodeUserCreateFailed)
		return
	}

	s.logger.Info("user created",
		"user_id", user.ID,
		"permissions", user.Permissions,
		"created_by", callerID(r),
	)
	s.events.Publish(events.NewUserEvent(events.UserCreated, user))

	writeJSON(w, http.StatusCreated, userMutationResponse{Code: CodeUserCreated, User: toUserResponse(user)})
}

// handleUpdateUser applies a partial update. Root cannot be modified. When
// callers update their own account the session cookie is re-issued.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) { //nolint:gocognit,gocyclo // validation + root guard + self re-issue
	id, ok := parseUserID(r)
	if !ok {
		writeCode(w, http.StatusBadRequest, CodeInvalidUserID)
		return
	}
	if id == auth.RootUserID {
		writeCode(w, http.StatusForbidden, CodeCannotUpdateRootUser)
		return
	}
	if !isJSON(r) {
		writeCode(w, http.StatusUnsupportedMediaType, CodeInvalidContentType)
		return
	}

	var req updateUserRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeCode(w, http.StatusBadRequest, CodeInvalidPayload)
		return
	}
	if err := req.validate(); err != nil {
		s.logger.Debug("update user payload rejected", "reason", err.Error())
		writeCode(w, http.StatusBadRequest, CodeInvalidPayload)
		return
	}

	var upd auth.UserUpdate
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		upd.Name = &name
	}
	if req.Email != nil {
		email := auth.NormalizeEmail(*req.Email)
		upd.Email = &email
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			s.logger.Error("hash password failed", "error", err)
			writeCode(w, http.StatusInternalServerError, CodeUserUpdateFailed)
			return
		}
		upd.PasswordHash = &hash
	}
	if req.Permissions != nil {
		upd.Permissions = make([]string, len(*req.Permissions))
		copy(upd.Permissions, *req.Permissions)
	}

	user, err := s.users.Update(r.Context(), id, upd)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			writeCode(w, http.StatusNotFound, CodeUserNotFound)
		case errors.Is(err, auth.ErrEmailExists):
			writeCode(w, http.StatusConflict, CodeEmailExists)
		default:
			s.logger.Error("update user failed", "error", err, "user_id", id, "request_id", requestID(r.Context()))
			writeCode(w, http.StatusInternalServerError, CodeUserUpdateFailed)
		}
		return
	}

	if caller := userFromContext(r.Context()); caller != nil && caller.ID == user.ID {
		if err := s.sessions.Write(w, auth.SessionFor(user)); err != nil {
			s.logger.Error("re-issuing session failed", "error", err, "user_id", user.ID)
		}
	}

	s.logger.Info("user updated", "user_id", id, "updated_by", callerID(r))
	s.events.Publish(events.NewUserEvent(events.UserUpdated, user))

	writeJSON(w, http.StatusOK, userMutationResponse{Code: CodeUserUpdated, User: toUserResponse(user)})
}

// handleDeleteUser removes an account. Root cannot be deleted.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(r)
	if !ok {
		writeCode(w, http.StatusBadRequest, CodeInvalidUserID)
		return
	}
	if id == auth.RootUserID {
		writeCode(w, http.StatusForbidden, CodeCannotDeleteRootUser)
		return
	}

	if err := s.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeCode(w, http.StatusNotFound, CodeUserNotFound)
			return
		}
		s.logger.Error("delete user failed", "error", err, "user_id", id, "request_id", requestID(r.Context()))
		writeCode(w, http.StatusInternalServerError, CodeUserDeleteFailed)
		return
	}

	s.logger.Info("user deleted", "user_id", id, "deleted_by", callerID(r))
	s.events.Publish(events.NewUserEvent(events.UserDeleted, &auth.User{ID: id}))

	writeCode(w, http.StatusOK, CodeUserDeleted)
}

// parseUserID reads a positive integer {id} URL parameter.
func parseUserID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// isJSON reports whether the request declares a JSON body.
func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func callerID(r *http.Request) int64 {
	if u := userFromContext(r.Context()); u != nil {
		return u.ID
	}
	return 0
}
