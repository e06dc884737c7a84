package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SIKAP PKL API",
        "description": "Final report scoring and certificate issuance for internship placements",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Competencies", "description": "Assessable competency catalog"},
        {"name": "FinalReports", "description": "Draft composition, scoring and certificate finalization"}
    ],
    "paths": {
        "/competency-templates": {
            "get": {
                "tags": ["Competencies"],
                "summary": "List assessable competencies for a track",
                "parameters": [
                    {"name": "track", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/placements/{id}/final-report/draft": {
            "get": {
                "tags": ["FinalReports"],
                "summary": "Compose the pre-filled report draft for a placement",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Placement not found"}
                }
            }
        },
        "/placements/{id}/final-report/scores": {
            "put": {
                "tags": ["FinalReports"],
                "summary": "Replace the full score set for a placement's report",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Report already issued"}
                }
            }
        },
        "/placements/{id}/final-report/wizard": {
            "post": {
                "tags": ["FinalReports"],
                "summary": "Persist a wizard step and navigate",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/final-reports": {
            "get": {
                "tags": ["FinalReports"],
                "summary": "List final reports",
                "parameters": [
                    {"name": "cohort", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/final-reports/{id}": {
            "get": {
                "tags": ["FinalReports"],
                "summary": "Get a final report with grouped scores",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Report not found"}
                }
            }
        },
        "/final-reports/{id}/finalize": {
            "post": {
                "tags": ["FinalReports"],
                "summary": "Issue the certificate for a drafted report",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Empty score set"},
                    "409": {"description": "Already issued or number conflict"}
                }
            }
        },
        "/final-reports/{id}/certificate.pdf": {
            "get": {
                "tags": ["FinalReports"],
                "summary": "Download the issued certificate as PDF",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "produces": ["application/pdf"],
                "responses": {
                    "200": {"description": "PDF document"},
                    "400": {"description": "Certificate not issued"}
                }
            }
        }
    },
    "definitions": {
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
