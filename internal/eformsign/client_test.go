package eformsign

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeProvider is a minimal stand-in for the provider API. The token
// endpoint is always served; other routes are added per test.
type fakeProvider struct {
	mux       *http.ServeMux
	tokenReqs []*http.Request
	tokenBody map[string]string
}

func newFakeProvider(t *testing.T) (*fakeProvider, *httptest.Server) {
	t.Helper()
	f := &fakeProvider{mux: http.NewServeMux()}
	f.mux.HandleFunc("POST /v2.0/api_auth/access_token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenReqs = append(f.tokenReqs, r.Clone(r.Context()))
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode token request body: %v", err)
		}
		f.tokenBody = body
		writeProviderJSON(w, http.StatusOK, map[string]any{
			"oauth_token": map[string]any{
				"access_token": "tok-123",
				"token_type":   "Bearer",
				"expires_in":   3600,
			},
		})
	})
	srv := httptest.NewServer(f.mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func writeProviderJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func newTestClient(baseURL string) *Client {
	return New(Config{
		BaseURL:   baseURL,
		APIKey:    "api-key",
		SecretKey: "secret-key",
		CompanyID: "company-1",
	}, testLogger(), nil)
}

func TestAccessTokenSendsCredentials(t *testing.T) {
	f, srv := newFakeProvider(t)
	c := newTestClient(srv.URL)

	cred, err := c.AccessToken(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	if cred.AccessToken != "tok-123" {
		t.Errorf("expected access token tok-123, got %q", cred.AccessToken)
	}

	if len(f.tokenReqs) != 1 {
		t.Fatalf("expected 1 token request, got %d", len(f.tokenReqs))
	}
	req := f.tokenReqs[0]
	wantAuth := "Bearer " + base64.StdEncoding.EncodeToString([]byte("api-key"))
	if got := req.Header.Get("Authorization"); got != wantAuth {
		t.Errorf("Authorization header = %q, want %q", got, wantAuth)
	}
	if got := req.Header.Get("eformsign_signature"); got != "Bearer secret-key" {
		t.Errorf("signature header = %q", got)
	}
	if f.tokenBody["member_id"] != "user@example.com" {
		t.Errorf("member_id = %q", f.tokenBody["member_id"])
	}
	if f.tokenBody["execution_time"] == "" {
		t.Error("expected execution_time in token request body")
	}
}

func TestAccessTokenRejected(t *testing.T) {
	_, srv := newFakeProvider(t)
	srv.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeProviderJSON(w, http.StatusForbidden, map[string]any{"error": "invalid_client"})
	})
	c := newTestClient(srv.URL)

	_, err := c.AccessToken(context.Background(), "user@example.com")
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError, got %v", err)
	}
	if authErr.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d", authErr.StatusCode)
	}
}

func TestAccessTokenMissingEnvelope(t *testing.T) {
	_, srv := newFakeProvider(t)
	srv.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeProviderJSON(w, http.StatusOK, map[string]any{"unexpected": true})
	})
	c := newTestClient(srv.URL)

	_, err := c.AccessToken(context.Background(), "user@example.com")
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError, got %v", err)
	}
}

func TestAccessTokenUnreachable(t *testing.T) {
	_, srv := newFakeProvider(t)
	srv.Close()
	c := newTestClient(srv.URL)

	_, err := c.AccessToken(context.Background(), "user@example.com")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestEmbedToken(t *testing.T) {
	_, srv := newFakeProvider(t)
	c := newTestClient(srv.URL)

	out, err := c.EmbedToken(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("EmbedToken: %v", err)
	}

	oauth, ok := out["oauth_token"].(map[string]any)
	if !ok {
		t.Fatal("expected oauth_token block")
	}
	if oauth["access_token"] != "tok-123" {
		t.Errorf("access_token = %v", oauth["access_token"])
	}
	if oauth["id"] != "user@example.com" {
		t.Errorf("expected subject id injected, got %v", oauth["id"])
	}
	company := out["api_key"].(map[string]any)["company"].(map[string]any)
	if company["company_id"] != "company-1" || company["user_key"] != "api-key" {
		t.Errorf("unexpected company block: %v", company)
	}
}

func TestTemplatesPaginated(t *testing.T) {
	f, srv := newFakeProvider(t)
	f.mux.HandleFunc("GET /v2.0/api/forms", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "1000" {
			t.Errorf("limit = %q", got)
		}
		forms := make([]any, 5)
		for i := range forms {
			forms[i] = map[string]any{"form_id": string(rune('a' + i))}
		}
		writeProviderJSON(w, http.StatusOK, map[string]any{"forms": forms})
	})
	c := newTestClient(srv.URL)

	out, err := c.Templates(context.Background(), "user@example.com", Page{Number: 2, Limit: 2})
	if err != nil {
		t.Fatalf("Templates: %v", err)
	}
	forms := out["forms"].([]any)
	if len(forms) != 2 {
		t.Fatalf("expected 2 forms on page, got %d", len(forms))
	}
	if forms[0].(map[string]any)["form_id"] != "c" {
		t.Errorf("expected page 2 to start at form c, got %v", forms[0])
	}
	if out["total_count"] != 5 {
		t.Errorf("total_count = %v", out["total_count"])
	}
}

func TestDocumentsNameFilterUsesTemplateIDs(t *testing.T) {
	f, srv := newFakeProvider(t)
	f.mux.HandleFunc("GET /v2.0/api/forms", func(w http.ResponseWriter, r *http.Request) {
		writeProviderJSON(w, http.StatusOK, map[string]any{"forms": []any{
			map[string]any{"form_id": "tpl-1", "form_name": "Lease"},
			map[string]any{"form_id": "tpl-2", "form_name": "NDA"},
			map[string]any{"form_id": "tpl-3", "form_name": "Lease"},
		}})
	})
	var docReq map[string]any
	f.mux.HandleFunc("GET /v2.0/api/documents", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&docReq); err != nil {
			t.Errorf("decode document request: %v", err)
		}
		writeProviderJSON(w, http.StatusOK, map[string]any{"documents": []any{}})
	})
	c := newTestClient(srv.URL)

	_, err := c.Documents(context.Background(), "user@example.com", DocumentFilter{Name: "Lease"}, Page{})
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}

	ids, _ := docReq["template_ids"].([]any)
	if len(ids) != 2 || ids[0] != "tpl-1" || ids[1] != "tpl-3" {
		t.Errorf("template_ids = %v", ids)
	}
	if docReq["title"] != "" {
		t.Errorf("expected empty title when templates matched, got %v", docReq["title"])
	}
	if docReq["type"] != "01" {
		t.Errorf("expected default type 01, got %v", docReq["type"])
	}
}

func TestDocumentsNameFilterDegradesToTitle(t *testing.T) {
	f, srv := newFakeProvider(t)
	f.mux.HandleFunc("GET /v2.0/api/forms", func(w http.ResponseWriter, r *http.Request) {
		writeProviderJSON(w, http.StatusInternalServerError, map[string]any{"error": "boom"})
	})
	var docReq map[string]any
	f.mux.HandleFunc("GET /v2.0/api/documents", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&docReq)
		writeProviderJSON(w, http.StatusOK, map[string]any{"documents": []any{}})
	})
	c := newTestClient(srv.URL)

	_, err := c.Documents(context.Background(), "user@example.com", DocumentFilter{Name: "Lease"}, Page{})
	if err != nil {
		t.Fatalf("Documents should survive a failed template scan: %v", err)
	}
	ids, _ := docReq["template_ids"].([]any)
	if len(ids) != 0 {
		t.Errorf("expected no template_ids, got %v", ids)
	}
	if docReq["title"] != "Lease" {
		t.Errorf("expected title fallback to name, got %v", docReq["title"])
	}
}

func TestDocumentDetailQuery(t *testing.T) {
	f, srv := newFakeProvider(t)
	f.mux.HandleFunc("GET /v2.0/api/documents/doc-1", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		for _, k := range []string{"include_fields", "include_histories", "include_previous_status", "include_next_status"} {
			if q.Get(k) != "true" {
				t.Errorf("expected %s=true, got %q", k, q.Get(k))
			}
		}
		writeProviderJSON(w, http.StatusOK, map[string]any{"document_id": "doc-1"})
	})
	c := newTestClient(srv.URL)

	out, err := c.Document(context.Background(), "user@example.com", "doc-1")
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if out["document_id"] != "doc-1" {
		t.Errorf("document_id = %v", out["document_id"])
	}
}

func TestCreateDocumentFromTemplate(t *testing.T) {
	f, srv := newFakeProvider(t)
	var body map[string]any
	f.mux.HandleFunc("POST /v2.0/api/documents", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("template_id"); got != "tpl-1" {
			t.Errorf("template_id = %q", got)
		}
		json.NewDecoder(r.Body).Decode(&body)
		writeProviderJSON(w, http.StatusOK, map[string]any{"document": map[string]any{"id": "doc-9"}})
	})
	c := newTestClient(srv.URL)

	_, err := c.CreateDocument(context.Background(), "user@example.com", "tpl-1", "Quarterly lease")
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	doc, _ := body["document"].(map[string]any)
	if doc["document_name"] != "Quarterly lease" {
		t.Errorf("document_name = %v", doc["document_name"])
	}
}

func TestDeleteGroupSendsBulkBody(t *testing.T) {
	f, srv := newFakeProvider(t)
	var body map[string]any
	f.mux.HandleFunc("DELETE /v2.0/api/groups", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusNoContent)
	})
	c := newTestClient(srv.URL)

	if err := c.DeleteGroup(context.Background(), "user@example.com", "grp-1"); err != nil {
		t.Fatalf("DeleteGroup: %v", err)
	}
	ids, _ := body["group_ids"].([]any)
	if len(ids) != 1 || ids[0] != "grp-1" {
		t.Errorf("group_ids = %v", ids)
	}
}

func TestResourceFailureReturnsAPIError(t *testing.T) {
	f, srv := newFakeProvider(t)
	f.mux.HandleFunc("GET /v2.0/api/forms", func(w http.ResponseWriter, r *http.Request) {
		writeProviderJSON(w, http.StatusBadGateway, map[string]any{"error": "upstream down"})
	})
	c := newTestClient(srv.URL)

	_, err := c.Templates(context.Background(), "user@example.com", Page{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d", apiErr.StatusCode)
	}
}
