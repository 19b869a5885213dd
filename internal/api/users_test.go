package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nerrad567/gatekeeper/internal/auth"
	"github.com/nerrad567/gatekeeper/internal/events"
)

// recordingPublisher captures published events.
type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(e events.Event) {
	p.events = append(p.events, e)
}

func decodeMutation(t *testing.T, w *httptest.ResponseRecorder) userMutationResponse {
	t.Helper()

	var resp userMutationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestListUsers(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "first@x.com")
	env.createUser(t, "second@x.com", auth.PermViewDashboard)
	admin := env.login(t, "root@example.com")

	w := env.do(t, http.MethodGet, "/api/users", "", admin)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp userListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Users) != 2 {
		t.Fatalf("users = %d, want 2 (root excluded)", len(resp.Users))
	}
	if resp.Users[0].Email != "second@x.com" {
		t.Errorf("first listed = %q, want newest second@x.com", resp.Users[0].Email)
	}
	if len(resp.Users[0].Permissions) != 1 || resp.Users[0].Permissions[0].Code != auth.PermViewDashboard {
		t.Errorf("permissions = %+v, want [{VIEW_DASHBOARD}]", resp.Users[0].Permissions)
	}
	if resp.Users[1].Permissions == nil {
		t.Error("permissions must encode as [] rather than null")
	}
}

func TestUsersAPI_Authorization(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "viewer@x.com", auth.PermViewUsers)
	victim := env.createUser(t, "victim@x.com")
	viewerCookie := env.login(t, "viewer@x.com")

	gone := env.createUser(t, "gone@x.com", auth.AllPermissionCodes()...)
	goneCookie := env.login(t, "gone@x.com")
	if err := env.users.Delete(context.Background(), gone.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	victimPath := fmt.Sprintf("/api/users/%d", victim.ID)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		cookie     *http.Cookie
		wantStatus int
		wantCode   string
	}{
		{name: "list without session", method: http.MethodGet, path: "/api/users", wantStatus: http.StatusUnauthorized, wantCode: CodeUnauthorized},
		{name: "delete lacking DELETE_USER", method: http.MethodDelete, path: victimPath, cookie: viewerCookie, wantStatus: http.StatusForbidden, wantCode: CodeForbidden},
		{name: "create lacking CREATE_USER", method: http.MethodPost, path: "/api/users", body: `{}`, cookie: viewerCookie, wantStatus: http.StatusForbidden, wantCode: CodeForbidden},
		{name: "update lacking UPDATE_USER", method: http.MethodPut, path: victimPath, body: `{"name":"x"}`, cookie: viewerCookie, wantStatus: http.StatusForbidden, wantCode: CodeForbidden},
		{name: "deleted caller", method: http.MethodGet, path: "/api/users", cookie: goneCookie, wantStatus: http.StatusForbidden, wantCode: CodeUserNotFound},
		{name: "authorization precedes id parsing", method: http.MethodDelete, path: "/api/users/abc", wantStatus: http.StatusUnauthorized, wantCode: CodeUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cookies []*http.Cookie
			if tt.cookie != nil {
				cookies = append(cookies, tt.cookie)
			}
			w := env.do(t, tt.method, tt.path, tt.body, cookies...)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if code := decodeCode(t, w); code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
		})
	}

	if _, err := env.users.GetByID(context.Background(), victim.ID); err != nil {
		t.Errorf("victim must survive rejected delete: %v", err)
	}
}

func TestUsersAPI_StaleCookieCannotEscalate(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "demoted@x.com", auth.PermViewUsers, auth.PermDeleteUser)
	target := env.createUser(t, "target@x.com")
	cookie := env.login(t, "demoted@x.com")

	// Permission revoked after the cookie was issued.
	if _, err := env.users.Update(context.Background(), user.ID, auth.UserUpdate{
		Permissions: []string{auth.PermViewUsers},
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	w := env.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", target.ID), "", cookie)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestCreateUser(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "taken@x.com")
	admin := env.login(t, "root@example.com")

	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
		wantCode    string
	}{
		{name: "created", body: `{"name":"New","email":"New@X.com","password":"long-enough","permissions":["VIEW_DASHBOARD"]}`, wantStatus: http.StatusCreated, wantCode: CodeUserCreated},
		{name: "object permissions", body: `{"name":"Obj","email":"obj@x.com","password":"long-enough","permissions":[{"code":"VIEW_USERS"}]}`, wantStatus: http.StatusCreated, wantCode: CodeUserCreated},
		{name: "form content type", contentType: "application/x-www-form-urlencoded", body: `name=x`, wantStatus: http.StatusUnsupportedMediaType, wantCode: CodeInvalidContentType},
		{name: "empty name", body: `{"name":"","email":"e@x.com","password":"long-enough"}`, wantStatus: http.StatusBadRequest, wantCode: CodeInvalidPayload},
		{name: "bad email", body: `{"name":"n","email":"not-an-email","password":"long-enough"}`, wantStatus: http.StatusBadRequest, wantCode: CodeInvalidPayload},
		{name: "short password", body: `{"name":"n","email":"s@x.com","password":"short"}`, wantStatus: http.StatusBadRequest, wantCode: CodeInvalidPayload},
		{name: "malformed json", body: `{"name":`, wantStatus: http.StatusBadRequest, wantCode: CodeInvalidPayload},
		{name: "duplicate email", body: `{"name":"n","email":"TAKEN@x.com","password":"long-enough"}`, wantStatus: http.StatusConflict, wantCode: CodeEmailExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(tt.body))
			ct := tt.contentType
			if ct == "" {
				ct = "application/json; charset=utf-8"
			}
			req.Header.Set("Content-Type", ct)
			req.AddCookie(admin)
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if code := decodeCode(t, w); code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
		})
	}

	created, err := env.users.GetByEmail(context.Background(), "new@x.com")
	if err != nil {
		t.Fatalf("created user not stored: %v", err)
	}
	if !created.HasPermission(auth.PermViewDashboard) {
		t.Errorf("created permissions = %v", created.Permissions)
	}
	if ok, err := auth.VerifyPassword("long-enough", created.PasswordHash); err != nil || !ok {
		t.Errorf("stored password does not verify: ok=%v err=%v", ok, err)
	}
}

func TestUpdateUser(t *testing.T) {
	env := newTestEnv(t)
	target := env.createUser(t, "target@x.com", auth.PermViewDashboard)
	env.createUser(t, "taken@x.com")
	admin := env.login(t, "root@example.com")
	targetPath := fmt.Sprintf("/api/users/%d", target.ID)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{name: "invalid id", path: "/api/users/abc", body: `{"name":"x"}`, wantStatus: http.StatusBadRequest, wantCode: CodeInvalidUserID},
		{name: "zero id", path: "/api/users/0", body: `{"name":"x"}`, wantStatus: http.StatusBadRequest, wantCode: CodeInvalidUserID},
		{name: "root", path: "/api/users/1", body: `{"name":"x"}`, wantStatus: http.StatusForbidden, wantCode: CodeCannotUpdateRootUser},
		{name: "empty object", path: targetPath, body: `{}`, wantStatus: http.StatusBadRequest, wantCode: CodeInvalidPayload},
		{name: "unknown field", path: targetPath, body: `{"role":"admin"}`, wantStatus: http.StatusBadRequest, wantCode: CodeInvalidPayload},
		{name: "blank name", path: targetPath, body: `{"name":"  "}`, wantStatus: http.StatusBadRequest, wantCode: CodeInvalidPayload},
		{name: "short password", path: targetPath, body: `{"password":"short"}`, wantStatus: http.StatusBadRequest, wantCode: CodeInvalidPayload},
		{name: "bad permission entry", path: targetPath, body: `{"permissions":[42]}`, wantStatus: http.StatusBadRequest, wantCode: CodeInvalidPayload},
		{name: "missing user", path: "/api/users/9999", body: `{"name":"x"}`, wantStatus: http.StatusNotFound, wantCode: CodeUserNotFound},
		{name: "duplicate email", path: targetPath, body: `{"email":"taken@x.com"}`, wantStatus: http.StatusConflict, wantCode: CodeEmailExists},
		{name: "rename", path: targetPath, body: `{"name":"Renamed"}`, wantStatus: http.StatusOK, wantCode: CodeUserUpdated},
		{name: "replace permissions", path: targetPath, body: `{"permissions":[{"code":"VIEW_USERS"},"CREATE_USER"]}`, wantStatus: http.StatusOK, wantCode: CodeUserUpdated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPut, tt.path, tt.body, admin)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if code := decodeCode(t, w); code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
		})
	}

	got, err := env.users.GetByID(context.Background(), target.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Renamed" {
		t.Errorf("name = %q, want Renamed", got.Name)
	}
	if !auth.HasAll(got.Permissions, []string{auth.PermViewUsers, auth.PermCreateUser}) || got.HasPermission(auth.PermViewDashboard) {
		t.Errorf("permissions = %v, want exactly VIEW_USERS and CREATE_USER", got.Permissions)
	}
}

func TestUpdateUser_WrongContentType(t *testing.T) {
	env := newTestEnv(t)
	target := env.createUser(t, "target@x.com")
	admin := env.login(t, "root@example.com")

	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/users/%d", target.ID), strings.NewReader(`{"name":"x"}`))
	req.Header.Set("Content-Type", "text/plain")
	req.AddCookie(admin)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnsupportedMediaType)
	}
	if code := decodeCode(t, w); code != CodeInvalidContentType {
		t.Errorf("code = %q, want %q", code, CodeInvalidContentType)
	}
}

func TestUpdateUser_SelfReissuesCookie(t *testing.T) {
	env := newTestEnv(t)
	self := env.createUser(t, "self@x.com", auth.PermUpdateUser)
	cookie := env.login(t, "self@x.com")

	w := env.do(t, http.MethodPut, fmt.Sprintf("/api/users/%d", self.ID), `{"name":"Me Again"}`, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, http.StatusOK, w.Body.String())
	}
	fresh := findCookie(w, "session")
	if fresh == nil || fresh.Value == "" {
		t.Fatal("self update did not re-issue the session cookie")
	}

	me := decodeSession(t, env.do(t, http.MethodGet, "/api/auth/me", "", fresh))
	if me.User.Name != "Me Again" {
		t.Errorf("me name = %q, want %q", me.User.Name, "Me Again")
	}
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	target := env.createUser(t, "target@x.com")
	admin := env.login(t, "root@example.com")
	targetPath := fmt.Sprintf("/api/users/%d", target.ID)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCode   string
	}{
		{name: "invalid id", path: "/api/users/-3", wantStatus: http.StatusBadRequest, wantCode: CodeInvalidUserID},
		{name: "root", path: "/api/users/1", wantStatus: http.StatusForbidden, wantCode: CodeCannotDeleteRootUser},
		{name: "deleted", path: targetPath, wantStatus: http.StatusOK, wantCode: CodeUserDeleted},
		{name: "already gone", path: targetPath, wantStatus: http.StatusNotFound, wantCode: CodeUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodDelete, tt.path, "", admin)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if code := decodeCode(t, w); code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
		})
	}

	if _, err := env.users.GetByID(context.Background(), auth.RootUserID); err != nil {
		t.Errorf("root must survive: %v", err)
	}
	if _, err := env.users.GetByID(context.Background(), target.ID); !errors.Is(err, auth.ErrUserNotFound) {
		t.Errorf("target lookup err = %v, want ErrUserNotFound", err)
	}
}

func TestUserMutations_PublishEvents(t *testing.T) {
	env := newTestEnv(t)
	pub := &recordingPublisher{}
	env.srv.events = pub
	env.router = env.srv.Handler()
	admin := env.login(t, "root@example.com")

	w := env.do(t, http.MethodPost, "/api/users",
		`{"name":"Evt","email":"evt@x.com","password":"long-enough","permissions":["VIEW_DASHBOARD"]}`, admin)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d", w.Code, http.StatusCreated)
	}
	id := decodeMutation(t, w).User.ID
	path := fmt.Sprintf("/api/users/%d", id)

	if w := env.do(t, http.MethodPut, path, `{"permissions":[]}`, admin); w.Code != http.StatusOK {
		t.Fatalf("update status = %d, want %d", w.Code, http.StatusOK)
	}
	if w := env.do(t, http.MethodDelete, path, "", admin); w.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want %d", w.Code, http.StatusOK)
	}

	want := []events.Type{events.UserCreated, events.UserUpdated, events.UserDeleted}
	if len(pub.events) != len(want) {
		t.Fatalf("published %d events, want %d", len(pub.events), len(want))
	}
	for i, e := range pub.events {
		if e.Type != want[i] || e.UserID != id {
			t.Errorf("event %d = %s/%d, want %s/%d", i, e.Type, e.UserID, want[i], id)
		}
	}
	if len(pub.events[1].Permissions) != 0 {
		t.Errorf("update event permissions = %v, want none", pub.events[1].Permissions)
	}
}
