//go:build swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

// swaggerTemplate documents the public routes. Shared schemas are kept
// short; the Go types in pkg/types are the source of truth.
const swaggerTemplate = `{
  "swagger": "2.0",
  "info": {"title": "{{.Title}}", "description": "{{escape .Description}}", "version": "{{.Version}}"},
  "basePath": "{{.BasePath}}",
  "schemes": {{ marshal .Schemes }},
  "paths": {
    "/health": {"get": {"summary": "Liveness", "produces": ["text/plain"], "responses": {"200": {"description": "OK"}}}},
    "/hardware": {"get": {"summary": "Detected hardware and tier", "responses": {"200": {"description": "tier and profile"}}}},
    "/chat": {"post": {"summary": "Route a message to a local model", "consumes": ["application/json"],
      "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/ChatRequest"}}],
      "responses": {"200": {"description": "reply", "schema": {"$ref": "#/definitions/ChatResponse"}},
        "400": {"description": "invalid request"}, "415": {"description": "not JSON"},
        "429": {"description": "model busy"}, "500": {"description": "inference failed"}}}},
    "/memory": {
      "get": {"summary": "List conversation records, newest first",
        "parameters": [{"in": "query", "name": "limit", "type": "integer"}, {"in": "query", "name": "offset", "type": "integer"}],
        "responses": {"200": {"description": "records"}, "400": {"description": "bad paging"}}},
      "post": {"summary": "Upsert a conversation record", "responses": {"200": {"description": "stored record"}}}},
    "/memory/search": {"get": {"summary": "Substring search over records",
      "parameters": [{"in": "query", "name": "q", "type": "string", "required": true}, {"in": "query", "name": "limit", "type": "integer"}],
      "responses": {"200": {"description": "records"}}}},
    "/memory/{id}": {"get": {"summary": "Get one record",
      "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
      "responses": {"200": {"description": "record"}, "404": {"description": "not found"}}}},
    "/search": {"post": {"summary": "Semantic search (always empty)", "responses": {"200": {"description": "empty result"}}}},
    "/models": {"get": {"summary": "Models installed on the inference server", "responses": {"200": {"description": "names"}}}},
    "/status": {"get": {"summary": "Provisioning and gateway status", "responses": {"200": {"description": "status"}}}}
  },
  "definitions": {
    "ChatRequest": {"type": "object", "required": ["message"], "properties": {
      "message": {"type": "string"}, "message_type": {"type": "string", "enum": ["chat", "code", "reasoning"]},
      "context": {"type": "array", "items": {"type": "object", "properties": {"role": {"type": "string"}, "content": {"type": "string"}}}},
      "model_override": {"type": "string"}}},
    "ChatResponse": {"type": "object", "properties": {"response": {"type": "string"}, "model_used": {"type": "string"}}}
  }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "assistd API",
	Description:      "Local assistant gateway: hardware-aware model routing and conversation memory.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  swaggerTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// MountSwagger serves the UI under /swagger/.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
