// Package docs holds the generated OpenAPI document for the swagger build.
// Regenerate with: swag init -g cmd/boosterd/main.go -o docs
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
        "/v1/generate": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json", "application/x-ndjson"],
                "summary": "Submit a generation request",
                "responses": {
                    "202": {"description": "Accepted"},
                    "400": {"description": "Bad Request"},
                    "404": {"description": "Not Found"},
                    "422": {"description": "Unprocessable Entity"},
                    "429": {"description": "Too Many Requests"},
                    "503": {"description": "Service Unavailable"}
                }
            }
        },
        "/v1/requests/{id}": {
            "get": {
                "produces": ["application/json"],
                "summary": "Poll a request by id",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/models": {
            "get": {
                "produces": ["application/json"],
                "summary": "List configured models",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/pods": {
            "get": {
                "produces": ["application/json"],
                "summary": "List configured pods",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "summary": "Server status snapshot",
                "responses": {"200": {"description": "OK"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "boosterd API",
	Description:      "LLM request routing and sampling daemon.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
