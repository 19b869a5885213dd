package api

import (
	"encoding/json"
	"net/http"
)

// Response codes. Every JSON body carries exactly one of these.
const (
	// Session lifecycle
	CodeLoginSuccess       = "LOGIN_SUCCESS"
	CodeLogoutSuccess      = "LOGOUT_SUCCESS"
	CodeSessionRefreshed   = "SESSION_REFRESHED"
	CodeUserFound          = "USER_FOUND"
	CodeMissingCredentials = "MISSING_CREDENTIALS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"

	// Authorization (shared with auth.DecisionCode values)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeUserNotFound = "USER_NOT_FOUND"

	// User management
	CodeUsersFound           = "USERS_FOUND"
	CodeUserCreated          = "USER_CREATED_SUCCESS"
	CodeUserUpdated          = "USER_UPDATED_SUCCESS"
	CodeUserDeleted          = "USER_DELETED_SUCCESS"
	CodeUserCreateFailed     = "USER_CREATE_FAILED"
	CodeUserUpdateFailed     = "USER_UPDATE_FAILED"
	CodeUserDeleteFailed     = "USER_DELETE_FAILED"
	CodeInvalidUserID        = "INVALID_USER_ID"
	CodeCannotUpdateRootUser = "CANNOT_UPDATE_ROOT_USER"
	CodeCannotDeleteRootUser = "CANNOT_DELETE_ROOT_USER"
	CodeEmailExists          = "EMAIL_ALREADY_EXISTS"

	// Validation and infrastructure
	CodeInvalidContentType = "INVALID_CONTENT_TYPE"
	CodeInvalidPayload     = "INVALID_PAYLOAD"
	CodeNotFound           = "NOT_FOUND"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodeServerError        = "SERVER_ERROR"
)

// codeResponse is the body of every response that carries nothing else.
type codeResponse struct {
	Code string `json:"code"`
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeCode writes a {"code": ...} response.
func writeCode(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, codeResponse{Code: code})
}
