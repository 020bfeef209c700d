package controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/mitodev/mito/controllers"
	"github.com/mitodev/mito/models"
)

func TestTagCRUD(t *testing.T) {
	db := setupDB(t)
	r := setupRouter(t, db, nil)
	auth := bearerToken(t, createUser(t, db, "toby"))

	w, env := doJSON(t, r, "POST", "/api/v1/tags", auth, map[string]string{"name": "go"})
	if w.Code != http.StatusCreated || env.Message != "Tag created successfully" {
		t.Fatalf("create: status = %d message = %q", w.Code, env.Message)
	}
	var created controllers.TagData
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if created.Name != "go" || created.ID == 0 {
		t.Fatalf("created = %+v", created)
	}

	// creating the same name again returns the existing row
	_, env = doJSON(t, r, "POST", "/api/v1/tags", auth, map[string]string{"name": "go"})
	var dup controllers.TagData
	if err := json.Unmarshal(env.Data, &dup); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if dup.ID != created.ID {
		t.Errorf("duplicate create gave id %d, want %d", dup.ID, created.ID)
	}

	w, env = doJSON(t, r, "GET", "/api/v1/tags", auth, nil)
	if w.Code != http.StatusOK || env.Message != "Tags retrieved successfully" {
		t.Fatalf("list: status = %d message = %q", w.Code, env.Message)
	}
	var list []controllers.TagData
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len(list) = %d, want 1", len(list))
	}

	target := fmt.Sprintf("/api/v1/tags/%d", created.ID)
	w, env = doJSON(t, r, "PUT", target, auth, map[string]string{"name": "golang"})
	if w.Code != http.StatusOK {
		t.Fatalf("update: status = %d", w.Code)
	}
	var renamed controllers.TagData
	if err := json.Unmarshal(env.Data, &renamed); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if renamed.Name != "golang" {
		t.Errorf("renamed = %+v", renamed)
	}

	w, _ = doJSON(t, r, "DELETE", target, auth, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", w.Code)
	}
	w, _ = doJSON(t, r, "GET", target, auth, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete: status = %d, want 404", w.Code)
	}
}

func TestTagNotFound(t *testing.T) {
	db := setupDB(t)
	r := setupRouter(t, db, nil)
	auth := bearerToken(t, createUser(t, db, "toby"))

	w, env := doJSON(t, r, "GET", "/api/v1/tags/42", auth, nil)
	if w.Code != http.StatusNotFound || env.Message != "Tag not found" {
		t.Fatalf("status = %d message = %q", w.Code, env.Message)
	}
}

func TestTagNonNumericID(t *testing.T) {
	db := setupDB(t)
	r := setupRouter(t, db, nil)
	auth := bearerToken(t, createUser(t, db, "toby"))

	_, env := doJSON(t, r, "POST", "/api/v1/tags", auth, map[string]string{"name": "secret"})
	var created controllers.TagData
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode data: %v", err)
	}

	// non-numeric ids are lookup misses, never SQL and never a 500
	for _, target := range []string{
		"/api/v1/tags/abc",
		"/api/v1/tags/1%20OR%201=1",
		"/api/v1/tags/0",
	} {
		w, env := doJSON(t, r, "GET", target, auth, nil)
		if w.Code != http.StatusNotFound || env.Message != "Tag not found" {
			t.Errorf("GET %s: status = %d message = %q, want 404", target, w.Code, env.Message)
		}
	}
	w, _ := doJSON(t, r, "PUT", "/api/v1/tags/abc", auth, map[string]string{"name": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("PUT: status = %d, want 404", w.Code)
	}
	w, _ = doJSON(t, r, "DELETE", "/api/v1/tags/abc", auth, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("DELETE: status = %d, want 404", w.Code)
	}
}

func TestUpdateTagDuplicateName(t *testing.T) {
	db := setupDB(t)
	r := setupRouter(t, db, nil)
	auth := bearerToken(t, createUser(t, db, "toby"))

	_, _ = doJSON(t, r, "POST", "/api/v1/tags", auth, map[string]string{"name": "go"})
	_, env := doJSON(t, r, "POST", "/api/v1/tags", auth, map[string]string{"name": "rust"})
	var rust controllers.TagData
	if err := json.Unmarshal(env.Data, &rust); err != nil {
		t.Fatalf("decode data: %v", err)
	}

	w, env := doJSON(t, r, "PUT", fmt.Sprintf("/api/v1/tags/%d", rust.ID), auth,
		map[string]string{"name": "go"})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409, body = %s", w.Code, w.Body.String())
	}
	var fields map[string][]string
	if err := json.Unmarshal(env.Data, &fields); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(fields["name"]) == 0 {
		t.Errorf("expected name conflict detail, got %v", fields)
	}

	// renaming to its own current name is not a conflict
	w, _ = doJSON(t, r, "PUT", fmt.Sprintf("/api/v1/tags/%d", rust.ID), auth,
		map[string]string{"name": "rust"})
	if w.Code != http.StatusOK {
		t.Errorf("self rename: status = %d, want 200", w.Code)
	}
}

func TestUpdateTagBlankName(t *testing.T) {
	db := setupDB(t)
	r := setupRouter(t, db, nil)
	auth := bearerToken(t, createUser(t, db, "toby"))

	_, env := doJSON(t, r, "POST", "/api/v1/tags", auth, map[string]string{"name": "go"})
	var created controllers.TagData
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode data: %v", err)
	}

	w, _ := doJSON(t, r, "PUT", fmt.Sprintf("/api/v1/tags/%d", created.ID), auth,
		map[string]string{"name": "   "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var tag models.Tag
	if err := db.First(&tag, created.ID).Error; err != nil {
		t.Fatalf("reload tag: %v", err)
	}
	if tag.Name != "go" {
		t.Errorf("name = %q, blank rename must not persist", tag.Name)
	}
}

func TestDeleteTagDetachesPosts(t *testing.T) {
	db := setupDB(t)
	r := setupRouter(t, db, nil)
	auth := bearerToken(t, createUser(t, db, "toby"))

	_, env := doJSON(t, r, "POST", "/api/v1/posts", auth, map[string]interface{}{
		"title":   "tagged",
		"content": "body",
		"tags":    []string{"ephemeral", "kept"},
	})
	var post controllers.PostData
	if err := json.Unmarshal(env.Data, &post); err != nil {
		t.Fatalf("decode data: %v", err)
	}

	var tag models.Tag
	if err := db.Where("name = ?", "ephemeral").First(&tag).Error; err != nil {
		t.Fatalf("find tag: %v", err)
	}

	w, _ := doJSON(t, r, "DELETE", fmt.Sprintf("/api/v1/tags/%d", tag.ID), auth, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete tag: status = %d", w.Code)
	}

	_, env = doJSON(t, r, "GET", fmt.Sprintf("/api/v1/posts/%d", post.ID), auth, nil)
	var after controllers.PostData
	if err := json.Unmarshal(env.Data, &after); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(after.Tags) != 1 || after.Tags[0] != "kept" {
		t.Errorf("tags after delete = %v, want [kept]", after.Tags)
	}
}
