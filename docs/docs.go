// Package docs registra el documento OpenAPI que sirve /swagger/*.
// Regenerar con: swag init -g cmd/api/main.go -o docs
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
        "/health": {
            "get": {"tags": ["system"], "summary": "Liveness", "responses": {"200": {"description": "ok"}}}
        },
        "/reviews": {
            "get": {
                "tags": ["reviews"],
                "summary": "Reviews recientes",
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "per_page", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "503": {"description": "record store unavailable"}}
            }
        },
        "/reviews/{reviewID}": {
            "get": {
                "tags": ["reviews"],
                "summary": "Obtener review",
                "parameters": [{"type": "string", "name": "reviewID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "review not found"}}
            }
        },
        "/respond/{token}": {
            "get": {
                "tags": ["reviews"],
                "summary": "Formulario de respuesta",
                "parameters": [{"type": "string", "name": "token", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "not found"}}
            },
            "post": {
                "tags": ["reviews"],
                "summary": "Enviar respuesta (formulario)",
                "consumes": ["application/x-www-form-urlencoded"],
                "parameters": [
                    {"type": "string", "name": "token", "in": "path", "required": true},
                    {"type": "string", "name": "response", "in": "formData", "required": true}
                ],
                "responses": {"303": {"description": "redirect"}}
            }
        },
        "/api/reviews/response": {
            "post": {
                "tags": ["reviews"],
                "summary": "Enviar respuesta (API)",
                "consumes": ["application/json"],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "invalid input"},
                    "401": {"description": "invalid_token / expired / identity_mismatch"},
                    "404": {"description": "review not found"},
                    "409": {"description": "already responded"}
                }
            }
        },
        "/deals/{dealID}": {
            "get": {
                "tags": ["deals"],
                "summary": "Página de deal",
                "parameters": [{"type": "string", "name": "dealID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "deal not found"}}
            }
        },
        "/user/{handle}": {
            "get": {
                "tags": ["profiles"],
                "summary": "Perfil por Telegram ID o username",
                "parameters": [{"type": "string", "name": "handle", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "308": {"description": "redirect a /user/{telegram_id}"}, "404": {"description": "not found"}}
            }
        },
        "/api/admin/login": {
            "post": {
                "tags": ["admin"],
                "summary": "Login admin",
                "consumes": ["application/x-www-form-urlencoded"],
                "parameters": [
                    {"type": "string", "name": "password", "in": "formData", "required": true},
                    {"type": "string", "name": "next", "in": "formData"}
                ],
                "responses": {"303": {"description": "redirect"}}
            }
        },
        "/api/admin/logout": {
            "post": {"tags": ["admin"], "summary": "Logout admin", "responses": {"303": {"description": "redirect"}}}
        },
        "/api/admin/deals": {
            "get": {"tags": ["admin"], "summary": "Listar deals", "responses": {"200": {"description": "OK"}, "401": {"description": "unauthorized"}}}
        },
        "/api/admin/deals/{dealID}": {
            "patch": {"tags": ["admin"], "summary": "Editar deal", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["admin"], "summary": "Borrar deal", "responses": {"204": {"description": "No Content"}}}
        },
        "/api/admin/reviews/{reviewID}": {
            "delete": {"tags": ["admin"], "summary": "Borrar review", "responses": {"204": {"description": "No Content"}}}
        },
        "/api/admin/reviews/{reviewID}/response-link": {
            "post": {"tags": ["admin"], "summary": "Emitir link de respuesta", "responses": {"200": {"description": "OK"}, "409": {"description": "already responded"}}}
        },
        "/api/admin/members": {
            "get": {"tags": ["admin"], "summary": "Buscar member", "responses": {"200": {"description": "OK"}}}
        },
        "/api/admin/members/{memberID}/verified": {
            "post": {"tags": ["admin"], "summary": "Marcar verificado", "responses": {"200": {"description": "OK"}}}
        },
        "/api/admin/members/{memberID}/scammer": {
            "post": {"tags": ["admin"], "summary": "Marcar scammer", "responses": {"200": {"description": "OK"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "CommonTrust Web API",
	Description:      "Reviews públicas, perfiles, respuestas de reviewee y panel admin.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
