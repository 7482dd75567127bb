package eformsign

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const httpTimeout = 15 * time.Second

// Config holds the long-lived provider credentials and endpoint, loaded
// once at startup.
type Config struct {
	BaseURL   string
	APIKey    string
	SecretKey string
	CompanyID string
}

// Recorder receives one observation per outbound provider call. A zero
// status means the call failed at the transport level.
type Recorder interface {
	RecordUpstream(op string, status int, duration time.Duration)
}

// Client brokers short-lived provider credentials and executes proxy
// operations against the eformsign API. Every operation re-acquires a
// credential; nothing is cached between calls.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
	rec    Recorder
}

// New creates a Client. rec may be nil to disable call recording.
func New(cfg Config, logger *slog.Logger, rec Recorder) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: httpTimeout},
		logger: logger,
		rec:    rec,
	}
}

// Credential is a short-lived bearer token obtained from the provider for
// a single call. Raw preserves the full provider envelope.
type Credential struct {
	AccessToken string
	Raw         map[string]any
}

// AccessToken exchanges the acting subject for a provider credential. The
// request is signed with the raw secret key in one header and the
// base64-encoded API key in the other, plus an epoch-millis timestamp.
func (c *Client) AccessToken(ctx context.Context, memberID string) (*Credential, error) {
	body, err := json.Marshal(map[string]string{
		"execution_time": strconv.FormatInt(time.Now().UnixMilli(), 10),
		"member_id":      memberID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint("/v2.0/api_auth/access_token", nil), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+base64.StdEncoding.EncodeToString([]byte(c.cfg.APIKey)))
	req.Header.Set("eformsign_signature", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.record("access_token", 0, start)
		return nil, fmt.Errorf("token exchange: %w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	c.record("access_token", resp.StatusCode, start)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &AuthError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var envelope map[string]any
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &AuthError{Reason: "malformed token response"}
	}
	oauth, ok := envelope["oauth_token"].(map[string]any)
	if !ok {
		return nil, &AuthError{Reason: "missing oauth_token envelope"}
	}
	token, _ := oauth["access_token"].(string)
	if token == "" {
		return nil, &AuthError{Reason: "missing access_token"}
	}
	return &Credential{AccessToken: token, Raw: oauth}, nil
}

// EmbedToken builds the payload the frontend needs to initialize the
// provider's embedded iframe: the full oauth envelope plus the company
// API-key block.
func (c *Client) EmbedToken(ctx context.Context, memberID string) (map[string]any, error) {
	cred, err := c.AccessToken(ctx, memberID)
	if err != nil {
		return nil, err
	}

	oauth := make(map[string]any, len(cred.Raw)+1)
	for k, v := range cred.Raw {
		oauth[k] = v
	}
	if _, ok := oauth["id"]; !ok {
		oauth["id"] = memberID
	}

	return map[string]any{
		"oauth_token": oauth,
		"api_key": map[string]any{
			"company": map[string]any{
				"company_id": c.cfg.CompanyID,
				"user_key":   c.cfg.APIKey,
			},
		},
	}, nil
}

// ---------------------------------------------------------------------------
// Templates
// ---------------------------------------------------------------------------

// Templates lists the subject's form templates with local pagination.
func (c *Client) Templates(ctx context.Context, memberID string, p Page) (map[string]any, error) {
	resp, err := c.templatesAll(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return paginateList(resp, "forms", p), nil
}

// templatesAll fetches the unbounded template list. Used both by Templates
// and by the document name-filter scan.
func (c *Client) templatesAll(ctx context.Context, memberID string) (map[string]any, error) {
	cred, err := c.AccessToken(ctx, memberID)
	if err != nil {
		return nil, err
	}
	q := url.Values{
		"member_id": {memberID},
		"limit":     {strconv.Itoa(FetchLimit)},
	}
	return c.call(ctx, "templates", http.MethodGet, "/v2.0/api/forms", q, nil, cred.AccessToken)
}

// DuplicateTemplate copies an existing template.
func (c *Client) DuplicateTemplate(ctx context.Context, memberID, templateID string) (map[string]any, error) {
	cred, err := c.AccessToken(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return c.call(ctx, "duplicate_template", http.MethodPost,
		"/v2.0/api/forms/"+url.PathEscape(templateID)+"/copy", nil, nil, cred.AccessToken)
}

// DeleteTemplate removes a template.
func (c *Client) DeleteTemplate(ctx context.Context, memberID, templateID string) error {
	cred, err := c.AccessToken(ctx, memberID)
	if err != nil {
		return err
	}
	_, err = c.call(ctx, "delete_template", http.MethodDelete,
		"/v2.0/api/forms/"+url.PathEscape(templateID), nil, nil, cred.AccessToken)
	return err
}

// ---------------------------------------------------------------------------
// Documents
// ---------------------------------------------------------------------------

// DocumentFilter narrows a document listing. Name is only consulted when
// TemplateID is empty.
type DocumentFilter struct {
	Type       string // provider type code; defaults to "01"
	Name       string
	TemplateID string
}

// Documents lists documents with local pagination. When a name filter is
// given without an explicit template id, the gateway scans the full
// template list for exact name matches and constrains the query to those
// ids; a failed scan is logged and treated as "no matching templates".
func (c *Client) Documents(ctx context.Context, memberID string, f DocumentFilter, p Page) (map[string]any, error) {
	cred, err := c.AccessToken(ctx, memberID)
	if err != nil {
		return nil, err
	}

	typeCode := f.Type
	if typeCode == "" {
		typeCode = "01"
	}

	templateIDs := []string{}
	if f.TemplateID != "" {
		templateIDs = append(templateIDs, f.TemplateID)
	} else if f.Name != "" {
		templateIDs = c.lookupTemplateIDs(ctx, memberID, f.Name)
	}

	title := ""
	if f.Name != "" && len(templateIDs) == 0 {
		title = f.Name
	}

	body := map[string]any{
		"type":              typeCode,
		"limit":             strconv.Itoa(FetchLimit),
		"skip":              "0",
		"template_ids":      templateIDs,
		"title":             title,
		"content":           "",
		"title_and_content": "",
		"return_fields":     []string{"신청자명", "신청일", "일간"},
	}

	resp, err := c.call(ctx, "documents", http.MethodGet, "/v2.0/api/documents", nil, body, cred.AccessToken)
	if err != nil {
		return nil, err
	}
	return paginateList(resp, "documents", p), nil
}

// lookupTemplateIDs scans all templates for exact name matches. Scan
// failures degrade to an empty result rather than failing the document
// query.
func (c *Client) lookupTemplateIDs(ctx context.Context, memberID, name string) []string {
	resp, err := c.templatesAll(ctx, memberID)
	if err != nil {
		c.logger.Warn("template lookup failed, treating as no match",
			"name", name, "error", err)
		return nil
	}

	var ids []string
	forms, _ := resp["forms"].([]any)
	for _, raw := range forms {
		form, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if formName, _ := form["form_name"].(string); formName == name {
			if id, _ := form["form_id"].(string); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// Document fetches one document with its fields, histories, and
// surrounding status.
func (c *Client) Document(ctx context.Context, memberID, documentID string) (map[string]any, error) {
	cred, err := c.AccessToken(ctx, memberID)
	if err != nil {
		return nil, err
	}
	q := url.Values{
		"include_fields":          {"true"},
		"include_histories":       {"true"},
		"include_previous_status": {"true"},
		"include_next_status":     {"true"},
	}
	return c.call(ctx, "document", http.MethodGet,
		"/v2.0/api/documents/"+url.PathEscape(documentID), q, nil, cred.AccessToken)
}

// CreateDocument starts a new document from a template.
func (c *Client) CreateDocument(ctx context.Context, memberID, templateID, documentName string) (map[string]any, error) {
	cred, err := c.AccessToken(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if documentName == "" {
		documentName = "Untitled document"
	}
	body := map[string]any{
		"document": map[string]any{
			"document_name": documentName,
		},
	}
	q := url.Values{"template_id": {templateID}}
	return c.call(ctx, "create_document", http.MethodPost, "/v2.0/api/documents", q, body, cred.AccessToken)
}

// ---------------------------------------------------------------------------
// Company members
// ---------------------------------------------------------------------------

// CompanyMembers lists the provider-side company roster with local
// pagination.
func (c *Client) CompanyMembers(ctx context.Context, memberID string, p Page) (map[string]any, error) {
	cred, err := c.AccessToken(ctx, memberID)
	if err != nil {
		return nil, err
	}
	q := url.Values{
		"include_fields": {"true"},
		"limit":          {strconv.Itoa(FetchLimit)},
	}
	resp, err := c.call(ctx, "company_members", http.MethodGet, "/v2.0/api/members", q, nil, cred.AccessToken)
	if err != nil {
		return nil, err
	}
	return paginateList(resp, "members", p), nil
}

// CreateCompanyMember registers a member on the provider side. The payload
// is passed through unvalidated.
func (c *Client) CreateCompanyMember(ctx context.Context, memberID string, data map[string]any) (map[string]any, error) {
	cred, err := c.AccessToken(ctx, memberID)
	if err != nil {
		return nil, err
	}
	q := url.Values{"mailOption": {"false"}}
	return c.call(ctx, "create_company_member", http.MethodPost, "/v2.0/api/members", q, data, cred.AccessToken)
}

// UpdateCompanyMember patches a provider-side member.
func (c *Client) UpdateCompanyMember(ctx context.Context, memberID, targetID string, data map[string]any) (map[string]any, error) {
	cred, err := c.AccessToken(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return c.call(ctx, "update_company_member", http.MethodPatch,
		"/v2.0/api/members/"+url.PathEscape(targetID), nil, data, cred.AccessToken)
}

// DeleteCompanyMember removes a provider-side member.
func (c *Client) DeleteCompanyMember(ctx context.Context, memberID, targetID string) error {
	cred, err := c.AccessToken(ctx, memberID)
	if err != nil {
		return err
	}
	_, err = c.call(ctx, "delete_company_member", http.MethodDelete,
		"/v2.0/api/members/"+url.PathEscape(targetID), nil, nil, cred.AccessToken)
	return err
}

// ---------------------------------------------------------------------------
// Groups
// ---------------------------------------------------------------------------

// Groups lists provider-side groups with members and fields, locally
// paginated.
func (c *Client) Groups(ctx context.Context, memberID string, p Page) (map[string]any, error) {
	cred, err := c.AccessToken(ctx, memberID)
	if err != nil {
		return nil, err
	}
	q := url.Values{
		"include_member": {"true"},
		"include_field":  {"true"},
		"limit":          {strconv.Itoa(FetchLimit)},
	}
	resp, err := c.call(ctx, "groups", http.MethodGet, "/v2.0/api/groups", q, nil, cred.AccessToken)
	if err != nil {
		return nil, err
	}
	return paginateList(resp, "groups", p), nil
}

// CreateGroup creates a provider-side group.
func (c *Client) CreateGroup(ctx context.Context, memberID string, data map[string]any) (map[string]any, error) {
	cred, err := c.AccessToken(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return c.call(ctx, "create_group", http.MethodPost, "/v2.0/api/groups", nil, data, cred.AccessToken)
}

// UpdateGroup patches a provider-side group.
func (c *Client) UpdateGroup(ctx context.Context, memberID, groupID string, data map[string]any) (map[string]any, error) {
	cred, err := c.AccessToken(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return c.call(ctx, "update_group", http.MethodPatch,
		"/v2.0/api/groups/"+url.PathEscape(groupID), nil, data, cred.AccessToken)
}

// DeleteGroup removes a provider-side group via the bulk delete endpoint.
func (c *Client) DeleteGroup(ctx context.Context, memberID, groupID string) error {
	cred, err := c.AccessToken(ctx, memberID)
	if err != nil {
		return err
	}
	body := map[string]any{"group_ids": []string{groupID}}
	_, err = c.call(ctx, "delete_group", http.MethodDelete, "/v2.0/api/groups", nil, body, cred.AccessToken)
	return err
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

// call executes one bearer-authorized provider request and decodes the
// JSON response. Non-2xx responses become *APIError with the raw body
// preserved.
func (c *Client) call(ctx context.Context, op, method, path string, query url.Values, body any, bearer string) (map[string]any, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal body: %w", op, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.record(op, 0, start)
		return nil, fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
	defer resp.Body.Close()
	c.record(op, resp.StatusCode, start)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if len(raw) == 0 {
		return map[string]any{}, nil
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	return out, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := strings.TrimRight(c.cfg.BaseURL, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) record(op string, status int, start time.Time) {
	if c.rec != nil {
		c.rec.RecordUpstream(op, status, time.Since(start))
	}
}
