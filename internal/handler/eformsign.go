package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/signgate/signgate/internal/eformsign"
	"github.com/signgate/signgate/internal/server/middleware"
)

// EformsignHandler translates inbound REST calls into provider API calls.
// The authenticated subject is always the acting member on the provider
// side; clients never supply provider credentials.
type EformsignHandler struct {
	client *eformsign.Client
}

// NewEformsignHandler creates a new EformsignHandler.
func NewEformsignHandler(client *eformsign.Client) *EformsignHandler {
	return &EformsignHandler{client: client}
}

// subject resolves the acting member for the request. The Authenticate
// middleware guarantees a principal on every route below.
func subject(r *http.Request) string {
	if p := middleware.GetPrincipal(r.Context()); p != nil {
		return p.LoginID
	}
	return ""
}

// EmbedToken issues the credential payload the frontend embeds in the
// provider's iframe.
// GET /api/v1/eformsign/token
func (h *EformsignHandler) EmbedToken(w http.ResponseWriter, r *http.Request) {
	out, err := h.client.EmbedToken(r.Context(), subject(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

// ---------------------------------------------------------------------------
// Templates
// ---------------------------------------------------------------------------

// ListTemplates returns the subject's templates, paginated.
// GET /api/v1/eformsign/templates?page=&limit=
func (h *EformsignHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	out, err := h.client.Templates(r.Context(), subject(r), pageFromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

// DuplicateTemplate copies a template.
// POST /api/v1/eformsign/templates/{templateID}/duplicate
func (h *EformsignHandler) DuplicateTemplate(w http.ResponseWriter, r *http.Request) {
	out, err := h.client.DuplicateTemplate(r.Context(), subject(r), chi.URLParam(r, "templateID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

// DeleteTemplate removes a template.
// DELETE /api/v1/eformsign/templates/{templateID}
func (h *EformsignHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.client.DeleteTemplate(r.Context(), subject(r), chi.URLParam(r, "templateID")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil)
}

// ---------------------------------------------------------------------------
// Documents
// ---------------------------------------------------------------------------

// ListDocuments returns the subject's documents, paginated. The optional
// name filter is resolved to template ids before querying.
// GET /api/v1/eformsign/documents?page=&limit=&type=&name=&templateId=
func (h *EformsignHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	filter := eformsign.DocumentFilter{
		Type:       queryString(r, "type"),
		Name:       queryString(r, "name"),
		TemplateID: queryString(r, "templateId"),
	}
	out, err := h.client.Documents(r.Context(), subject(r), filter, pageFromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

// GetDocument returns one document with fields, histories, and status.
// GET /api/v1/eformsign/documents/{documentID}
func (h *EformsignHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	out, err := h.client.Document(r.Context(), subject(r), chi.URLParam(r, "documentID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

// createDocumentRequest is the expected payload for document creation.
type createDocumentRequest struct {
	TemplateID   string `json:"templateId"`
	DocumentName string `json:"documentName"`
}

// CreateDocument starts a new document from a template.
// POST /api/v1/eformsign/documents
func (h *EformsignHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TemplateID == "" {
		writeError(w, http.StatusBadRequest, "templateId is required")
		return
	}

	out, err := h.client.CreateDocument(r.Context(), subject(r), req.TemplateID, req.DocumentName)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusCreated, out)
}

// ---------------------------------------------------------------------------
// Company members
// ---------------------------------------------------------------------------

// ListCompanyMembers returns the provider-side roster, paginated.
// GET /api/v1/eformsign/company/members?page=&limit=
func (h *EformsignHandler) ListCompanyMembers(w http.ResponseWriter, r *http.Request) {
	out, err := h.client.CompanyMembers(r.Context(), subject(r), pageFromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

// CreateCompanyMember registers a member on the provider side. The body is
// forwarded to the provider as-is.
// POST /api/v1/eformsign/company/members
func (h *EformsignHandler) CreateCompanyMember(w http.ResponseWriter, r *http.Request) {
	var data map[string]any
	if err := readJSON(r, &data); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	out, err := h.client.CreateCompanyMember(r.Context(), subject(r), data)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusCreated, out)
}

// UpdateCompanyMember patches a provider-side member.
// PATCH /api/v1/eformsign/company/members/{memberID}
func (h *EformsignHandler) UpdateCompanyMember(w http.ResponseWriter, r *http.Request) {
	var data map[string]any
	if err := readJSON(r, &data); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	out, err := h.client.UpdateCompanyMember(r.Context(), subject(r), chi.URLParam(r, "memberID"), data)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

// DeleteCompanyMember removes a provider-side member.
// DELETE /api/v1/eformsign/company/members/{memberID}
func (h *EformsignHandler) DeleteCompanyMember(w http.ResponseWriter, r *http.Request) {
	if err := h.client.DeleteCompanyMember(r.Context(), subject(r), chi.URLParam(r, "memberID")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil)
}

// ---------------------------------------------------------------------------
// Groups
// ---------------------------------------------------------------------------

// ListGroups returns provider-side groups, paginated.
// GET /api/v1/eformsign/company/groups?page=&limit=
func (h *EformsignHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	out, err := h.client.Groups(r.Context(), subject(r), pageFromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

// CreateGroup creates a provider-side group.
// POST /api/v1/eformsign/company/groups
func (h *EformsignHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var data map[string]any
	if err := readJSON(r, &data); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	out, err := h.client.CreateGroup(r.Context(), subject(r), data)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusCreated, out)
}

// UpdateGroup patches a provider-side group.
// PATCH /api/v1/eformsign/company/groups/{groupID}
func (h *EformsignHandler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	var data map[string]any
	if err := readJSON(r, &data); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	out, err := h.client.UpdateGroup(r.Context(), subject(r), chi.URLParam(r, "groupID"), data)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

// DeleteGroup removes a provider-side group.
// DELETE /api/v1/eformsign/company/groups/{groupID}
func (h *EformsignHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.client.DeleteGroup(r.Context(), subject(r), chi.URLParam(r, "groupID")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil)
}
