package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Timetable Generator API",
        "description": "Genetic algorithm weekly timetable generation for school classes",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Generator", "description": "Timetable runs, progress and results"}
    ],
    "paths": {
        "/generator/preflight": {
            "get": {
                "tags": ["Generator"],
                "summary": "Check whether a timetable run can start",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/generator/runs": {
            "get": {
                "tags": ["Generator"],
                "summary": "List generator runs",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Generator"],
                "summary": "Start a genetic timetable run",
                "description": "The run executes in the background. Poll the progress endpoint until status is completed or failed.",
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/StartRunRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid parameters", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Teachers, classes, subjects or rooms missing", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Generator queue full", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/generator/runs/latest": {
            "get": {
                "tags": ["Generator"],
                "summary": "Latest completed run with its timetable",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No completed run", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/generator/runs/{id}": {
            "get": {
                "tags": ["Generator"],
                "summary": "Get a generator run",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Generator"],
                "summary": "Delete a finished run and its slots",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "409": {"description": "Run still in progress", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/generator/runs/{id}/progress": {
            "get": {
                "tags": ["Generator"],
                "summary": "Latest progress of a run",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/RunProgress"}}
                }
            }
        },
        "/generator/runs/{id}/slots": {
            "get": {
                "tags": ["Generator"],
                "summary": "Timetable slots of a run",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "classId", "in": "query", "type": "string"},
                    {"name": "teacherId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/generator/runs/{id}/validate": {
            "post": {
                "tags": ["Generator"],
                "summary": "Re-check a run against current teachers, classes, subjects and rooms",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Run still in progress", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/generator/runs/{id}/export": {
            "get": {
                "tags": ["Generator"],
                "summary": "Download a run's timetable",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "classId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        }
    },
    "definitions": {
        "StartRunRequest": {
            "type": "object",
            "properties": {
                "maxGenerations": {"type": "integer", "minimum": 1},
                "populationSize": {"type": "integer", "minimum": 2},
                "eliteSize": {"type": "integer", "minimum": 0},
                "mutationRate": {"type": "number", "minimum": 0, "maximum": 1},
                "crossoverRate": {"type": "number", "minimum": 0, "maximum": 1},
                "seed": {"type": "integer", "format": "int64"}
            }
        },
        "RunProgress": {
            "type": "object",
            "properties": {
                "runId": {"type": "string"},
                "generation": {"type": "integer"},
                "maxGenerations": {"type": "integer"},
                "fitness": {"type": "number"},
                "status": {"type": "string", "enum": ["initializing", "running", "completed", "failed"]},
                "error": {"type": "string"}
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
