package controllers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/mitodev/mito/models"
	"github.com/mitodev/mito/utils"
)

// stubExchanger satisfies utils.SessionExchanger without talking to WeChat.
type stubExchanger struct {
	session *utils.WeChatSession
	err     error
}

func (s *stubExchanger) Code2Session(ctx context.Context, code string) (*utils.WeChatSession, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

type loginPayload struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    bool   `json:"user"`
}

func TestWeChatLoginCreatesThenReuses(t *testing.T) {
	db := setupDB(t)
	r := setupRouter(t, db, &stubExchanger{
		session: &utils.WeChatSession{OpenID: "openid-123", UnionID: "union-1"},
	})

	w, env := doJSON(t, r, "POST", "/api/v1/auth/wechat/login", "", map[string]string{"code": "wxcode"})
	if w.Code != http.StatusOK || env.Code != 0 {
		t.Fatalf("status = %d code = %d body = %s", w.Code, env.Code, w.Body.String())
	}
	var first loginPayload
	if err := json.Unmarshal(env.Data, &first); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if !first.User {
		t.Error("first login must report a created account")
	}
	if first.Access == "" || first.Refresh == "" {
		t.Fatal("login must issue both tokens")
	}

	claims, err := utils.ParseToken(first.Access)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Username != "wx_openid-123" {
		t.Errorf("username = %q, want wx_openid-123", claims.Username)
	}

	_, env = doJSON(t, r, "POST", "/api/v1/auth/wechat/login", "", map[string]string{"code": "wxcode"})
	var second loginPayload
	if err := json.Unmarshal(env.Data, &second); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if second.User {
		t.Error("second login must not report a created account")
	}

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 1 {
		t.Errorf("user rows = %d, want 1", count)
	}

	var profile models.Profile
	if err := db.First(&profile).Error; err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if profile.OpenID != "openid-123" || profile.UnionID != "union-1" {
		t.Errorf("profile = %+v", profile)
	}
}

func TestWeChatLoginMissingCode(t *testing.T) {
	db := setupDB(t)
	r := setupRouter(t, db, &stubExchanger{})

	w, env := doJSON(t, r, "POST", "/api/v1/auth/wechat/login", "", map[string]string{})
	if w.Code != http.StatusBadRequest || env.Message != "Code is required" {
		t.Fatalf("status = %d message = %q", w.Code, env.Message)
	}
}

func TestWeChatLoginUpstreamDown(t *testing.T) {
	db := setupDB(t)
	r := setupRouter(t, db, &stubExchanger{err: utils.ErrWeChatUnavailable})

	w, _ := doJSON(t, r, "POST", "/api/v1/auth/wechat/login", "", map[string]string{"code": "wxcode"})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestWeChatLoginBadCode(t *testing.T) {
	db := setupDB(t)
	r := setupRouter(t, db, &stubExchanger{
		session: &utils.WeChatSession{ErrCode: 40029, ErrMsg: "invalid code"},
	})

	w, env := doJSON(t, r, "POST", "/api/v1/auth/wechat/login", "", map[string]string{"code": "bad"})
	if w.Code != http.StatusBadRequest || env.Message != "Failed to get openid" {
		t.Fatalf("status = %d message = %q", w.Code, env.Message)
	}
}

func TestRegisterLoginRefreshFlow(t *testing.T) {
	db := setupDB(t)
	r := setupRouter(t, db, &stubExchanger{})

	w, env := doJSON(t, r, "POST", "/api/v1/auth/register", "", map[string]string{
		"username": "alice",
		"password": "s3cretpw",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status = %d body = %s", w.Code, w.Body.String())
	}

	w, _ = doJSON(t, r, "POST", "/api/v1/auth/register", "", map[string]string{
		"username": "alice",
		"password": "otherpw1",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate register: status = %d, want 409", w.Code)
	}

	w, _ = doJSON(t, r, "POST", "/api/v1/auth/login", "", map[string]string{
		"username": "alice",
		"password": "wrongpw1",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: status = %d, want 401", w.Code)
	}

	w, env = doJSON(t, r, "POST", "/api/v1/auth/login", "", map[string]string{
		"username": "alice",
		"password": "s3cretpw",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status = %d body = %s", w.Code, w.Body.String())
	}
	var session struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := json.Unmarshal(env.Data, &session); err != nil {
		t.Fatalf("decode data: %v", err)
	}

	// an access token must not pass for a refresh token
	w, _ = doJSON(t, r, "POST", "/api/v1/auth/refresh", "", map[string]string{
		"refresh": session.Access,
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("refresh with access token: status = %d, want 401", w.Code)
	}

	w, env = doJSON(t, r, "POST", "/api/v1/auth/refresh", "", map[string]string{
		"refresh": session.Refresh,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("refresh: status = %d body = %s", w.Code, w.Body.String())
	}
	var renewed struct {
		Access string `json:"access"`
	}
	if err := json.Unmarshal(env.Data, &renewed); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if renewed.Access == "" {
		t.Fatal("refresh must issue a new access token")
	}
}

func TestRegisterConflictsWithExistingAccount(t *testing.T) {
	db := setupDB(t)
	r := setupRouter(t, db, &stubExchanger{})

	// account provisioned outside the register endpoint, e.g. WeChat login
	createUser(t, db, "wx_taken")

	w, _ := doJSON(t, r, "POST", "/api/v1/auth/register", "", map[string]string{
		"username": "wx_taken",
		"password": "s3cretpw",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}

	var count int64
	if err := db.Model(&models.User{}).Where("username = ?", "wx_taken").Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 1 {
		t.Errorf("user rows = %d, want 1", count)
	}
}

func TestMeAndLogout(t *testing.T) {
	db := setupDB(t)
	r := setupRouter(t, db, &stubExchanger{})
	user := createUser(t, db, "alice")
	auth := bearerToken(t, user)

	w, env := doJSON(t, r, "GET", "/api/v1/auth/me", auth, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: status = %d body = %s", w.Code, w.Body.String())
	}
	var me struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(env.Data, &me); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if me.ID != user.ID || me.Username != "alice" {
		t.Errorf("me = %+v", me)
	}

	w, _ = doJSON(t, r, "POST", "/api/v1/auth/logout", auth, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: status = %d", w.Code)
	}

	w, _ = doJSON(t, r, "GET", "/api/v1/auth/me", auth, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("me after logout: status = %d, want 401", w.Code)
	}
}
