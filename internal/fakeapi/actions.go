package fakeapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func parseRef(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case string:
		id, _ := strconv.ParseInt(n, 10, 64)
		return id
	default:
		return 0
	}
}

// findLink returns the link record joining left and right in a link collection
func (s *Server) findLink(collection, leftField string, left int64, rightField string, right int64) (map[string]any, bool) {
	for _, rec := range s.store.list(collection) {
		if parseRef(rec[leftField]) == left && parseRef(rec[rightField]) == right {
			return rec, true
		}
	}
	return nil, false
}

func (s *Server) assignRole(w http.ResponseWriter, r *http.Request) {
	userID := pathID(r)
	user, ok := s.store.get("users", userID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	var body struct {
		RoleID int64 `json:"role_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	role, ok := s.store.get("roles", body.RoleID)
	if !ok || role["is_active"] == false {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Role not found"})
		return
	}

	assigner, _ := s.store.get("users", userIDFrom(r.Context()))
	fields := map[string]any{
		"user":                 userID,
		"user_username":        user["username"],
		"role":                 body.RoleID,
		"role_name":            role["name"],
		"role_color":           role["color"],
		"assigned_by":          assigner["id"],
		"assigned_by_username": assigner["username"],
		"is_active":            true,
		"is_expired":           false,
	}
	if existing, found := s.findLink("user-roles", "user", userID, "role", body.RoleID); found {
		rec, _ := s.store.update("user-roles", parseRef(existing["id"]), fields, false)
		writeJSON(w, http.StatusOK, rec)
		return
	}
	fields["assigned_at"] = s.Now().UTC().Format(time.RFC3339)
	fields["expires_at"] = nil
	id := s.store.create("user-roles", fields)
	rec, _ := s.store.get("user-roles", id)
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) removeRole(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RoleID int64 `json:"role_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	existing, found := s.findLink("user-roles", "user", pathID(r), "role", body.RoleID)
	if !found || existing["is_active"] != true {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "User role not found"})
		return
	}
	s.store.update("user-roles", parseRef(existing["id"]), map[string]any{"is_active": false}, false)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Role removed successfully"})
}

func (s *Server) roleUsers(w http.ResponseWriter, r *http.Request) {
	roleID := pathID(r)
	out := []map[string]any{}
	for _, link := range s.store.list("user-roles") {
		if parseRef(link["role"]) != roleID || link["is_active"] != true {
			continue
		}
		if user, ok := s.store.get("users", parseRef(link["user"])); ok {
			out = append(out, user)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) rolePermissions(w http.ResponseWriter, r *http.Request) {
	roleID := pathID(r)
	out := []map[string]any{}
	for _, link := range s.store.list("role-permissions") {
		if parseRef(link["role"]) != roleID || link["is_active"] != true {
			continue
		}
		if perm, ok := s.store.get("permissions", parseRef(link["permission"])); ok {
			out = append(out, perm)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) assignPermission(w http.ResponseWriter, r *http.Request) {
	roleID := pathID(r)
	role, ok := s.store.get("roles", roleID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	var body struct {
		PermissionID int64 `json:"permission_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	perm, ok := s.store.get("permissions", body.PermissionID)
	if !ok || perm["is_active"] == false {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Permission not found"})
		return
	}

	granter, _ := s.store.get("users", userIDFrom(r.Context()))
	fields := map[string]any{
		"role":                role["id"],
		"role_name":           role["name"],
		"permission":          body.PermissionID,
		"permission_name":     perm["name"],
		"permission_category": perm["category"],
		"granted_by":          granter["id"],
		"granted_by_username": granter["username"],
		"is_active":           true,
	}
	if existing, found := s.findLink("role-permissions", "role", roleID, "permission", body.PermissionID); found {
		rec, _ := s.store.update("role-permissions", parseRef(existing["id"]), fields, false)
		writeJSON(w, http.StatusOK, rec)
		return
	}
	fields["granted_at"] = s.Now().UTC().Format(time.RFC3339)
	id := s.store.create("role-permissions", fields)
	rec, _ := s.store.get("role-permissions", id)
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) removePermission(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PermissionID int64 `json:"permission_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	existing, found := s.findLink("role-permissions", "role", pathID(r), "permission", body.PermissionID)
	if !found || existing["is_active"] != true {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Role permission not found"})
		return
	}
	s.store.update("role-permissions", parseRef(existing["id"]), map[string]any{"is_active": false}, false)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Permission removed successfully"})
}

func (s *Server) permissionCategories(w http.ResponseWriter, _ *http.Request) {
	seen := map[string]bool{}
	out := []string{}
	for _, perm := range s.store.list("permissions") {
		category, _ := perm["category"].(string)
		if category == "" || seen[category] {
			continue
		}
		seen[category] = true
		out = append(out, category)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) myRoles(w http.ResponseWriter, r *http.Request) {
	me := userIDFrom(r.Context())
	out := []map[string]any{}
	for _, link := range s.store.list("user-roles") {
		if parseRef(link["user"]) == me && link["is_active"] == true {
			out = append(out, link)
		}
	}
	writeJSON(w, http.StatusOK, out)
}
