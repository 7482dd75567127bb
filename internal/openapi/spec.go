// Package openapi generates the OpenAPI description of the gateway's
// inbound REST surface.
package openapi

import (
	"encoding/json"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
)

// Generate builds the OpenAPI 3.1 spec for the gateway API.
func Generate(baseURL string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "signgate API",
			Description: "Authentication and eformsign proxy gateway.",
			Version:     "1.0.0",
		},
		Servers: openapi3.Servers{
			{URL: baseURL},
		},
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	doc.Components.SecuritySchemes["bearerAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	doc.Security = openapi3.SecurityRequirements{
		{"bearerAuth": {}},
	}

	doc.Components.Schemas["APIResponse"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"success": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}},
				"message": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
				"data":    &openapi3.SchemaRef{Value: &openapi3.Schema{}},
			},
		},
	}

	doc.Paths = openapi3.NewPaths()

	addPath(doc, "/api/v1/auth/login", &openapi3.PathItem{
		Post: operation("login", "Authenticate and receive a session token", false),
	})
	addPath(doc, "/api/v1/members/me", &openapi3.PathItem{
		Get: operation("getMyProfile", "Profile of the authenticated member", true),
	})
	addPath(doc, "/api/v1/members", &openapi3.PathItem{
		Get:  operation("listMembers", "List registered members (manager only)", true),
		Post: operation("createMember", "Register a member (manager only)", true),
	})
	addPath(doc, "/api/v1/eformsign/token", &openapi3.PathItem{
		Get: operation("issueEmbedToken", "Issue an embedded-signing credential", true),
	})
	addPath(doc, "/api/v1/eformsign/templates", &openapi3.PathItem{
		Get: withPaging(operation("listTemplates", "List templates", true)),
	})
	addPath(doc, "/api/v1/eformsign/templates/{templateID}/duplicate", &openapi3.PathItem{
		Post:       operation("duplicateTemplate", "Duplicate a template", true),
		Parameters: pathParam("templateID"),
	})
	addPath(doc, "/api/v1/eformsign/templates/{templateID}", &openapi3.PathItem{
		Delete:     operation("deleteTemplate", "Delete a template", true),
		Parameters: pathParam("templateID"),
	})
	addPath(doc, "/api/v1/eformsign/documents", &openapi3.PathItem{
		Get:  withPaging(operation("listDocuments", "List documents", true)),
		Post: operation("createDocument", "Create a document from a template", true),
	})
	addPath(doc, "/api/v1/eformsign/documents/{documentID}", &openapi3.PathItem{
		Get:        operation("getDocument", "Fetch one document with fields and history", true),
		Parameters: pathParam("documentID"),
	})
	addPath(doc, "/api/v1/eformsign/company/members", &openapi3.PathItem{
		Get:  withPaging(operation("listCompanyMembers", "List provider-side company members", true)),
		Post: operation("createCompanyMember", "Register a provider-side member", true),
	})
	addPath(doc, "/api/v1/eformsign/company/members/{memberID}", &openapi3.PathItem{
		Patch:      operation("updateCompanyMember", "Update a provider-side member", true),
		Delete:     operation("deleteCompanyMember", "Remove a provider-side member", true),
		Parameters: pathParam("memberID"),
	})
	addPath(doc, "/api/v1/eformsign/company/groups", &openapi3.PathItem{
		Get:  withPaging(operation("listGroups", "List provider-side groups", true)),
		Post: operation("createGroup", "Create a provider-side group", true),
	})
	addPath(doc, "/api/v1/eformsign/company/groups/{groupID}", &openapi3.PathItem{
		Patch:      operation("updateGroup", "Update a provider-side group", true),
		Delete:     operation("deleteGroup", "Remove a provider-side group", true),
		Parameters: pathParam("groupID"),
	})

	return doc
}

// Handler serves the generated spec as JSON.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Generate("/"))
	}
}

func addPath(doc *openapi3.T, path string, item *openapi3.PathItem) {
	doc.Paths.Set(path, item)
}

func operation(id, summary string, authed bool) *openapi3.Operation {
	op := &openapi3.Operation{
		OperationID: id,
		Summary:     summary,
		Responses:   openapi3.NewResponses(),
	}
	op.Responses.Set("200", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: ptr("Standard response envelope"),
			Content: openapi3.Content{
				"application/json": &openapi3.MediaType{
					Schema: openapi3.NewSchemaRef("#/components/schemas/APIResponse", nil),
				},
			},
		},
	})
	if !authed {
		op.Security = &openapi3.SecurityRequirements{}
	}
	return op
}

func withPaging(op *openapi3.Operation) *openapi3.Operation {
	for _, name := range []string{"page", "limit"} {
		op.Parameters = append(op.Parameters, &openapi3.ParameterRef{
			Value: &openapi3.Parameter{
				Name:   name,
				In:     "query",
				Schema: &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}}},
			},
		})
	}
	return op
}

func pathParam(name string) openapi3.Parameters {
	return openapi3.Parameters{
		&openapi3.ParameterRef{
			Value: &openapi3.Parameter{
				Name:     name,
				In:       "path",
				Required: true,
				Schema:   &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
			},
		},
	}
}

func ptr(s string) *string { return &s }
