package main

// General API documentation for swaggo. The spec served under -tags=swagger
// is registered in internal/httpapi/swagger.go.
//
// @title           assistd API
// @version         1.0
// @description     Local-first assistant gateway: hardware-aware model routing over Ollama and conversation memory.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
