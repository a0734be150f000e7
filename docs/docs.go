// Package docs registers the OpenAPI description served under /swagger.
// Regenerate with: swag init -g cmd/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/exports": {
            "get": {
                "produces": ["application/json"],
                "tags": ["exports"],
                "summary": "List exported archives",
                "responses": {"200": {"description": "All exports, newest first"}}
            },
            "post": {
                "consumes": ["application/json", "application/msgpack"],
                "produces": ["application/json"],
                "tags": ["exports"],
                "summary": "Convert a room scan into a CamIO archive",
                "parameters": [{"description": "Scan and export options", "name": "request", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "201": {"description": "Archive created"},
                    "400": {"description": "Invalid scan, profile or language"},
                    "500": {"description": "Conversion failed"}
                }
            }
        },
        "/exports/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["exports"],
                "summary": "Get an export by ID",
                "parameters": [{"type": "string", "description": "Export ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Export found"}, "400": {"description": "Invalid UUID"}, "404": {"description": "Export not found"}}
            },
            "delete": {
                "tags": ["exports"],
                "summary": "Delete an export and its archive",
                "parameters": [{"type": "string", "description": "Export ID", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "Deleted"}, "404": {"description": "Export not found"}}
            }
        },
        "/exports/{id}/download": {
            "get": {
                "produces": ["application/zip"],
                "tags": ["exports"],
                "summary": "Download a .camio archive",
                "parameters": [{"type": "string", "description": "Export ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "CamIO archive"}, "404": {"description": "Export or archive not found"}}
            }
        },
        "/preview": {
            "post": {
                "consumes": ["application/json", "application/msgpack"],
                "produces": ["image/png"],
                "tags": ["preview"],
                "summary": "Render a rotation preview",
                "parameters": [{"description": "Scan and rotation", "name": "request", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {"200": {"description": "Preview PNG"}, "400": {"description": "Invalid request"}}
            }
        },
        "/preview/cache": {
            "get": {
                "produces": ["application/json"],
                "tags": ["cache"],
                "summary": "Get preview cache statistics",
                "responses": {"200": {"description": "Cache statistics"}}
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["cache"],
                "summary": "Clear the preview cache",
                "responses": {"200": {"description": "Cache cleared"}}
            }
        },
        "/preview/cache/{key}": {
            "delete": {
                "tags": ["cache"],
                "summary": "Invalidate a cached preview",
                "parameters": [{"type": "string", "description": "Preview key", "name": "key", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}, "400": {"description": "Invalid UUID"}}
            }
        },
        "/render-config/default": {
            "get": {
                "produces": ["application/json"],
                "tags": ["render-config"],
                "summary": "Default render configuration",
                "responses": {"200": {"description": "Every category, highest priority first"}}
            }
        },
        "/render-config/profiles": {
            "get": {
                "produces": ["application/json"],
                "tags": ["render-config"],
                "summary": "Names of the configured render profiles",
                "responses": {"200": {"description": "Profile names"}}
            }
        },
        "/render-config/profiles/{name}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["render-config"],
                "summary": "One render profile",
                "parameters": [{"type": "string", "description": "Profile name", "name": "name", "in": "path", "required": true}],
                "responses": {"200": {"description": "Profile entries"}, "404": {"description": "Unknown profile"}}
            }
        },
        "/render-config/detected": {
            "post": {
                "consumes": ["application/json", "application/msgpack"],
                "produces": ["application/json"],
                "tags": ["render-config"],
                "summary": "Render configuration for the categories found in a scan",
                "parameters": [{"description": "Room scan", "name": "scan", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {"200": {"description": "Detected categories"}, "400": {"description": "Invalid scan"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/camio",
	Schemes:          []string{},
	Title:            "CamIO Converter API",
	Description:      "Converts RoomPlan room scans into CamIO tactile map archives.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
