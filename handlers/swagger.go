package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger serves the API description.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
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
    <title>reviewer - Swagger</title>
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
  "info": { "title": "reviewer", "version": "v0.1.0" },
  "components": {
    "schemas": {
      "Address": { "type": "object", "properties": { "line1": {"type":"string"}, "line2": {"type":"string"}, "city": {"type":"string"}, "state": {"type":"string"}, "zip": {"type":"string"} } },
      "Business": { "type": "object", "properties": { "id": {"type":"string"}, "name": {"type":"string"}, "address": {"$ref":"#/components/schemas/Address"}, "phone": {"type":"string"}, "hours": {"type":"string"}, "type": {"type":"string"}, "photo": {"type":"string"} } },
      "Video": { "type": "object", "properties": { "hlsUrl": {"type":"string"}, "thumbnailUrl": {"type":"string"}, "objectKey": {"type":"string"} } },
      "Review": { "type": "object", "properties": { "id": {"type":"string"}, "businessId": {"type":"string"}, "businessName": {"type":"string"}, "authorId": {"type":"string"}, "author": {"type":"string"}, "reviewText": {"type":"string"}, "rating": {"type":"integer"}, "date": {"type":"string","format":"date-time"}, "photos": {"type":"array","items":{"type":"string"}}, "videos": {"type":"array","items":{"$ref":"#/components/schemas/Video"}} } }
    }
  },
  "paths": {
    "/api/businesses": {
      "get": { "summary": "List all businesses", "responses": { "200": { "description": "businesses" } } },
      "post": { "summary": "Create a business", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Business"} } } }, "responses": { "201": { "description": "created" }, "409": { "description": "id already exists" } } }
    },
    "/api/businesses/{id}": {
      "get": { "summary": "Get a business", "responses": { "200": { "description": "business" }, "404": { "description": "not found" } } },
      "put": { "summary": "Replace a business", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Business"} } } }, "responses": { "200": { "description": "replaced" }, "404": { "description": "not found" } } }
    },
    "/api/businesses/{id}/reviews": {
      "get": { "summary": "Reviews for a business", "responses": { "200": { "description": "reviews" } } }
    },
    "/api/authors/{id}/reviews": {
      "get": { "summary": "Reviews written by an author", "responses": { "200": { "description": "reviews" } } }
    },
    "/api/reviews": {
      "post": { "summary": "Create a review", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Review"} } } }, "responses": { "201": { "description": "created" }, "409": { "description": "id already exists" } } }
    },
    "/api/reviews/{id}": {
      "get": { "summary": "Get a review", "responses": { "200": { "description": "review" }, "404": { "description": "not found" } } },
      "put": { "summary": "Update a review; stored videos are kept", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Review"} } } }, "responses": { "200": { "description": "stored review" }, "404": { "description": "not found" }, "409": { "description": "concurrent video change" } } }
    },
    "/api/reviews/{id}/videos": {
      "get": { "summary": "Videos of a review with playback links", "responses": { "200": { "description": "videos" }, "404": { "description": "not found" } } },
      "post": { "summary": "Attach a processed video", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Video"} } } }, "responses": { "204": { "description": "attached" }, "404": { "description": "not found" } } }
    },
    "/api/v1/me/reviews": {
      "get": { "summary": "Reviews of the authenticated user", "responses": { "200": { "description": "reviews" }, "401": { "description": "unauthenticated" }, "501": { "description": "authentication not configured" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
