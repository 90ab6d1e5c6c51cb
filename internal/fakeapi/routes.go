package fakeapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

const collections = "users|projects|roles|permissions|user-roles|role-permissions|groups"

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/auth/login/", s.login).Methods(http.MethodPost)
	r.HandleFunc("/api/token/refresh/", s.refresh).Methods(http.MethodPost)
	r.HandleFunc("/api/token/blacklist/", s.blacklistToken).Methods(http.MethodPost)
	r.HandleFunc("/api/health/", s.health).Methods(http.MethodGet)

	r.HandleFunc("/api/users/me/", s.requireAccess(s.me)).Methods(http.MethodGet)
	r.HandleFunc("/api/users/{id:[0-9]+}/assign_role/", s.requireAccess(s.assignRole)).Methods(http.MethodPost)
	r.HandleFunc("/api/users/{id:[0-9]+}/remove_role/", s.requireAccess(s.removeRole)).Methods(http.MethodPost)
	r.HandleFunc("/api/roles/{id:[0-9]+}/users/", s.requireAccess(s.roleUsers)).Methods(http.MethodGet)
	r.HandleFunc("/api/roles/{id:[0-9]+}/permissions/", s.requireAccess(s.rolePermissions)).Methods(http.MethodGet)
	r.HandleFunc("/api/roles/{id:[0-9]+}/assign_permission/", s.requireAccess(s.assignPermission)).Methods(http.MethodPost)
	r.HandleFunc("/api/roles/{id:[0-9]+}/remove_permission/", s.requireAccess(s.removePermission)).Methods(http.MethodPost)
	r.HandleFunc("/api/permissions/categories/", s.requireAccess(s.permissionCategories)).Methods(http.MethodGet)
	r.HandleFunc("/api/user-roles/my_roles/", s.requireAccess(s.myRoles)).Methods(http.MethodGet)

	r.HandleFunc("/api/{collection:"+collections+"}/", s.requireAccess(s.list)).Methods(http.MethodGet)
	r.HandleFunc("/api/{collection:"+collections+"}/", s.requireAccess(s.create)).Methods(http.MethodPost)
	r.HandleFunc("/api/{collection:"+collections+"}/{id:[0-9]+}/", s.requireAccess(s.detail)).
		Methods(http.MethodGet, http.MethodPatch, http.MethodPut, http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": `Method "` + req.Method + `" not allowed.`})
	})
	return r
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	s.loginCalls.Add(1)
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}

	s.mu.Lock()
	expected, ok := s.passwords[body.Username]
	s.mu.Unlock()
	if !ok || expected != body.Password || body.Password == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "No active account found with the given credentials",
		})
		return
	}

	user, ok := s.findUser(body.Username)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "No active account found with the given credentials",
		})
		return
	}
	id := user["id"].(int64)
	access, _, err := s.issue(tokenTypeAccess, id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
		return
	}
	refresh, _, err := s.issue(tokenTypeRefresh, id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
		return
	}

	summary := map[string]any{}
	for _, k := range []string{"id", "username", "email", "first_name", "last_name", "employee_id",
		"position", "department", "is_staff", "is_superuser", "date_joined"} {
		summary[k] = user[k]
	}
	writeJSON(w, http.StatusOK, map[string]any{"access": access, "refresh": refresh, "user": summary})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)
	if s.RefreshDelay > 0 {
		time.Sleep(s.RefreshDelay)
	}

	var body struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Refresh == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"refresh": {"This field is required."}})
		return
	}
	if s.FailRefresh.Load() {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is blacklisted", "code": "token_not_valid"})
		return
	}
	claims, err := s.verify(body.Refresh, tokenTypeRefresh)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired", "code": "token_not_valid"})
		return
	}

	access, _, err := s.issue(tokenTypeAccess, claims.UserID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
		return
	}
	resp := map[string]string{"access": access}
	if s.RotateRefresh {
		rotated, _, err := s.issue(tokenTypeRefresh, claims.UserID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
			return
		}
		s.blacklist(claims.ID)
		resp["refresh"] = rotated
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) blacklistToken(w http.ResponseWriter, r *http.Request) {
	s.blacklistCalls.Add(1)
	var body struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Refresh == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"refresh": {"This field is required."}})
		return
	}
	claims, err := s.verify(body.Refresh, tokenTypeRefresh)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is blacklisted", "code": "token_not_valid"})
		return
	}
	s.blacklist(claims.ID)
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"message":   "AAMS API is running",
		"timestamp": s.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	user, ok := s.store.get("users", userIDFrom(r.Context()))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	records := s.store.list(mux.Vars(r)["collection"])
	if r.URL.Query().Get("page") != "" {
		writeJSON(w, http.StatusOK, map[string]any{
			"count":    len(records),
			"next":     nil,
			"previous": nil,
			"results":  records,
		})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	collection := mux.Vars(r)["collection"]
	if collection == "groups" {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": `Method "POST" not allowed.`})
		return
	}
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}
	if name, _ := fields["name"].(string); requiresName(collection) && name == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"name": {"This field is required."}})
		return
	}
	if collection == "users" {
		if !s.acceptUser(w, fields, true, true) {
			return
		}
	}
	now := s.Now().UTC().Format(time.RFC3339)
	fields["created_at"] = now
	fields["updated_at"] = now
	if _, set := fields["is_active"]; !set {
		fields["is_active"] = true
	}
	id := s.store.create(collection, fields)
	rec, _ := s.store.get(collection, id)
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) detail(w http.ResponseWriter, r *http.Request) {
	collection := mux.Vars(r)["collection"]
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	switch r.Method {
	case http.MethodGet:
		rec, ok := s.store.get(collection, id)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
			return
		}
		writeJSON(w, http.StatusOK, rec)
	case http.MethodDelete:
		if collection == "groups" || !s.store.delete(collection, id) {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		if collection == "groups" {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": `Method "` + r.Method + `" not allowed.`})
			return
		}
		fields, ok := decodeFields(w, r)
		if !ok {
			return
		}
		if collection == "users" && !s.acceptUser(w, fields, false, r.Method == http.MethodPut) {
			return
		}
		fields["updated_at"] = s.Now().UTC().Format(time.RFC3339)
		rec, ok := s.store.update(collection, id, fields, r.Method == http.MethodPut)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// acceptUser validates a user payload and moves the password out of the record
func (s *Server) acceptUser(w http.ResponseWriter, fields map[string]any, creating, requireUsername bool) bool {
	username, _ := fields["username"].(string)
	if requireUsername && username == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"username": {"This field is required."}})
		return false
	}
	if _, exists := s.findUser(username); creating && exists {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"username": {"A user with that username already exists."}})
		return false
	}
	if password, _ := fields["password"].(string); password != "" && username != "" {
		s.mu.Lock()
		s.passwords[username] = password
		s.mu.Unlock()
	}
	delete(fields, "password")
	return true
}

func (s *Server) findUser(username string) (map[string]any, bool) {
	for _, u := range s.store.list("users") {
		if u["username"] == username {
			return u, true
		}
	}
	return nil, false
}

func requiresName(collection string) bool {
	return collection == "projects" || collection == "roles" || collection == "permissions"
}

func decodeFields(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	fields := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return nil, false
	}
	delete(fields, "id")
	return fields, true
}
