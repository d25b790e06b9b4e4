// Package docs holds the Swagger spec for the HTTP API. Regenerate with
// `swag init -g cmd/locallm/docs.go` after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {"name": "MIT", "url": "https://opensource.org/licenses/MIT"},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/ask": {
            "post": {
                "description": "Answers a question, optionally grounded on a document. Failures are reported in the envelope's outcome, not as HTTP errors.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["generation"],
                "summary": "Answer a question",
                "parameters": [{
                    "description": "Question and optional document",
                    "name": "request",
                    "in": "body",
                    "required": true,
                    "schema": {"$ref": "#/definitions/types.AskRequest"}
                }],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/setup": {
            "post": {
                "description": "Starts or adopts the engine, ensures a model and warms it up. With wait=false the run continues in the background and 202 is returned.",
                "produces": ["application/json"],
                "tags": ["lifecycle"],
                "summary": "Prepare the engine",
                "parameters": [{"type": "boolean", "description": "Wait for completion (default true)", "name": "wait", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SetupResponse"}},
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/types.SetupResponse"}}
                }
            }
        },
        "/stop": {
            "post": {
                "description": "Terminates the engine process if this server started it.",
                "produces": ["application/json"],
                "tags": ["lifecycle"],
                "summary": "Stop the engine",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "boolean"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/diag": {
            "get": {
                "produces": ["application/json"],
                "tags": ["lifecycle"],
                "summary": "Diagnose the engine",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.DiagnosticResponse"}}}
            }
        },
        "/models": {
            "get": {
                "produces": ["application/json"],
                "tags": ["models"],
                "summary": "List models",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}}}
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["lifecycle"],
                "summary": "Orchestrator status",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}}
            }
        }
    },
    "definitions": {
        "types.AskRequest": {
            "type": "object",
            "properties": {
                "prompt": {"type": "string", "example": "Summarize chapter two."},
                "context": {"type": "string"}
            }
        },
        "types.ResponseEnvelope": {
            "type": "object",
            "properties": {
                "text": {"type": "string"},
                "was_truncated": {"type": "boolean", "example": false},
                "elapsed_ms": {"type": "integer", "example": 5230},
                "model": {"type": "string", "example": "phi3.5:latest"},
                "outcome": {"type": "string", "enum": ["ok", "empty", "unreachable", "timeout", "error"], "example": "ok"}
            }
        },
        "types.SetupResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean", "example": true},
                "model": {"type": "string", "example": "phi3.5:latest"}
            }
        },
        "types.DiagnosticResponse": {
            "type": "object",
            "properties": {"message": {"type": "string", "example": "[OK] System working correctly"}}
        },
        "types.ModelDescriptor": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "phi3.5:latest"},
                "description": {"type": "string"},
                "size_gb": {"type": "number", "example": 2.2},
                "recommended": {"type": "boolean"},
                "downloaded": {"type": "boolean"}
            }
        },
        "types.ModelsResponse": {
            "type": "object",
            "properties": {
                "models": {"type": "array", "items": {"$ref": "#/definitions/types.ModelDescriptor"}},
                "selected": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "types.HardwareStatus": {
            "type": "object",
            "properties": {
                "cores": {"type": "integer", "example": 8},
                "ram_gb": {"type": "integer", "example": 16}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "example": "ready"},
                "engine_state": {"type": "string", "example": "running"},
                "engine_pid": {"type": "integer"},
                "engine_url": {"type": "string", "example": "http://localhost:11434"},
                "model": {"type": "string"},
                "warmed_up": {"type": "boolean"},
                "hardware": {"$ref": "#/definitions/types.HardwareStatus"},
                "threads": {"type": "integer"},
                "last_error": {"type": "string"},
                "uptime_seconds": {"type": "integer"},
                "server_time_unix": {"type": "integer"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "invalid JSON body"},
                "code": {"type": "integer", "example": 400}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "locallm API",
	Description:      "HTTP API for managing a local inference engine and answering questions with it.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
