package openapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerateCoversRoutes(t *testing.T) {
	doc := Generate("/")

	for _, path := range []string{
		"/api/v1/auth/login",
		"/api/v1/members/me",
		"/api/v1/members",
		"/api/v1/eformsign/token",
		"/api/v1/eformsign/templates",
		"/api/v1/eformsign/templates/{templateID}",
		"/api/v1/eformsign/documents",
		"/api/v1/eformsign/documents/{documentID}",
		"/api/v1/eformsign/company/members",
		"/api/v1/eformsign/company/groups",
	} {
		if doc.Paths.Find(path) == nil {
			t.Errorf("spec missing path %s", path)
		}
	}

	if _, ok := doc.Components.SecuritySchemes["bearerAuth"]; !ok {
		t.Error("spec missing bearerAuth security scheme")
	}
}

func TestLoginIsUnauthenticated(t *testing.T) {
	doc := Generate("/")

	login := doc.Paths.Find("/api/v1/auth/login")
	if login == nil || login.Post == nil {
		t.Fatal("missing POST /api/v1/auth/login")
	}
	if login.Post.Security == nil || len(*login.Post.Security) != 0 {
		t.Error("expected login to clear the global security requirement")
	}
}

func TestHandlerServesJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var doc map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal spec: %v", err)
	}
	if doc["openapi"] != "3.1.0" {
		t.Errorf("openapi version = %v", doc["openapi"])
	}
}
