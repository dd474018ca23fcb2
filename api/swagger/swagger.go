package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "DocumentCloud Annotation API",
        "description": "Annotations, comments and note counts for DocumentCloud documents",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "tags": [
        {"name": "Authentication", "description": "Account login and identity"},
        {"name": "Annotations", "description": "Notes attached to document pages"},
        {"name": "Aggregation", "description": "Note counts"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Get current account",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/documents/{documentId}/annotations": {
            "get": {
                "tags": ["Annotations"],
                "summary": "List a document's annotations",
                "parameters": [
                    {"name": "documentId", "in": "path", "required": true, "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "include_comments", "in": "query", "type": "boolean"},
                    {"name": "include_image_url", "in": "query", "type": "boolean"},
                    {"name": "include_document_url", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Document not found"}
                }
            },
            "post": {
                "tags": ["Annotations"],
                "summary": "Annotate a document",
                "parameters": [
                    {"name": "documentId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAnnotationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed"},
                    "401": {"description": "Sign in required"}
                }
            }
        },
        "/documents/{documentId}/annotations/{annotationId}": {
            "get": {
                "tags": ["Annotations"],
                "summary": "Fetch a single annotation",
                "parameters": [
                    {"name": "documentId", "in": "path", "required": true, "type": "string"},
                    {"name": "annotationId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Annotation not found"}
                }
            },
            "put": {
                "tags": ["Annotations"],
                "summary": "Edit an annotation",
                "parameters": [
                    {"name": "documentId", "in": "path", "required": true, "type": "string"},
                    {"name": "annotationId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateAnnotationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not the author or a privileged colleague"},
                    "404": {"description": "Annotation not found"}
                }
            },
            "delete": {
                "tags": ["Annotations"],
                "summary": "Delete an annotation",
                "parameters": [
                    {"name": "documentId", "in": "path", "required": true, "type": "string"},
                    {"name": "annotationId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Not the author or a privileged colleague"},
                    "404": {"description": "Annotation not found"}
                }
            }
        },
        "/documents/{documentId}/annotations/export": {
            "get": {
                "tags": ["Annotations"],
                "summary": "Export a document's annotations",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "documentId", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"},
                    "400": {"description": "Unknown format"}
                }
            }
        },
        "/annotations/counts": {
            "get": {
                "tags": ["Aggregation"],
                "summary": "Visible note counts per document",
                "parameters": [
                    {"name": "document_ids", "in": "query", "required": true, "type": "string", "description": "Comma-separated document IDs"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing document_ids"}
                }
            }
        },
        "/organizations/public-note-counts": {
            "get": {
                "tags": ["Aggregation"],
                "summary": "Public note counts per organization",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Annotation": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "page": {"type": "integer"},
                "title": {"type": "string"},
                "content": {"type": "string"},
                "access": {"type": "string", "enum": ["public", "private", "exclusive"]},
                "comment_access": {"type": "string", "enum": ["public", "private", "exclusive", "organization"]},
                "location": {"type": "object"},
                "image_url": {"type": "string"},
                "published_url": {"type": "string"},
                "author_name": {"type": "string"},
                "organization_name": {"type": "string"},
                "owns_note": {"type": "boolean"},
                "comments": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/Comment"}
                }
            }
        },
        "Comment": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "account_id": {"type": "string"},
                "content": {"type": "string"},
                "draft": {"type": "boolean"}
            }
        },
        "CreateAnnotationRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "content": {"type": "string"},
                "page_number": {"type": "integer"},
                "location": {"type": "string"},
                "access": {"type": "string"},
                "comment_access": {"type": "string"},
                "organization_id": {"type": "string"},
                "account_id": {"type": "string"}
            },
            "required": ["page_number"]
        },
        "UpdateAnnotationRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "content": {"type": "string"},
                "page_number": {"type": "integer"},
                "location": {"type": "string"},
                "access": {"type": "string"},
                "comment_access": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "LoginResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "expires_in": {"type": "integer"},
                "issued_at": {"type": "string"},
                "account": {"$ref": "#/definitions/AccountInfo"}
            }
        },
        "AccountInfo": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "organization_id": {"type": "string"},
                "role": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
