package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers Swagger UI + OpenAPI JSON for the exam service.
// - GET /swagger/index.html  -> HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>exam-service - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "exam-service", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } },
    "schemas": {
      "ExamInput": {
        "type": "object",
        "required": ["title", "description", "date", "duration"],
        "properties": {
          "title": { "type": "string" },
          "description": { "type": "string" },
          "date": { "type": "string", "format": "date-time" },
          "duration": { "type": "integer", "minimum": 1, "description": "minutes" }
        }
      },
      "Exam": {
        "allOf": [
          { "$ref": "#/components/schemas/ExamInput" },
          { "type": "object", "properties": {
              "id": { "type": "string" },
              "ownerId": { "type": "string" },
              "createdAt": { "type": "string", "format": "date-time" },
              "updatedAt": { "type": "string", "format": "date-time" } } }
        ]
      },
      "Error": { "type": "object", "properties": { "error": { "type": "string" } } }
    }
  },
  "security": [ { "bearer": [] } ],
  "paths": {
    "/exams": {
      "get": { "summary": "List the caller's exams", "responses": { "200": { "description": "array of exams" }, "401": { "description": "unauthenticated" }, "500": { "description": "server error" } } },
      "post": { "summary": "Create an exam", "requestBody": { "content": { "application/json": { "schema": { "$ref": "#/components/schemas/ExamInput" } } } },
        "responses": { "201": { "description": "created exam" }, "400": { "description": "All fields are required" }, "401": { "description": "unauthenticated" }, "500": { "description": "server error" } } }
    },
    "/exams/{id}": {
      "put": { "summary": "Replace an exam's fields", "requestBody": { "content": { "application/json": { "schema": { "$ref": "#/components/schemas/ExamInput" } } } },
        "responses": { "200": { "description": "updated exam" }, "400": { "description": "All fields are required" }, "401": { "description": "unauthenticated" }, "404": { "description": "Exam not found or unauthorized" }, "500": { "description": "server error" } } },
      "delete": { "summary": "Delete an exam", "responses": { "204": { "description": "deleted" }, "401": { "description": "unauthenticated" }, "404": { "description": "Exam not found or unauthorized" }, "500": { "description": "server error" } } }
    },
    "/api/v1/me": {
      "get": { "summary": "Caller profile", "responses": { "200": { "description": "user or claims" }, "401": { "description": "unauthenticated" } } }
    },
    "/api/v1/auth/logout": {
      "post": { "summary": "Revoke the presented bearer token", "responses": { "204": { "description": "revoked" }, "401": { "description": "unauthenticated" }, "501": { "description": "revocation not configured" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "security": [], "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "security": [], "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
