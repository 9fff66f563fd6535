// Package docs holds the OpenAPI document served at /swagger/.
// Regenerate with `swag init -g cmd/server/main.go`.
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
        "/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register account",
                "parameters": [
                    {"description": "Credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.authRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/api.authResponse"}},
                    "400": {"description": "invalid body or email taken", "schema": {"$ref": "#/definitions/apperr.AppError"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log in",
                "parameters": [
                    {"description": "Credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.authRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.authResponse"}},
                    "401": {"description": "invalid credentials", "schema": {"$ref": "#/definitions/apperr.AppError"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current account",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/user.User"}},
                    "401": {"description": "unauthorized", "schema": {"$ref": "#/definitions/apperr.AppError"}}
                }
            }
        },
        "/csrf": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the token the next state-changing request must send in X-CSRF-Token.",
                "produces": ["application/json"],
                "tags": ["csrf"],
                "summary": "Issue anti-forgery token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.tokenResponse"}}
                }
            }
        },
        "/polls": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["polls"],
                "summary": "Create poll",
                "parameters": [
                    {"type": "string", "description": "Anti-forgery token", "name": "X-CSRF-Token", "in": "header", "required": true},
                    {"description": "Poll", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.pollRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/poll.Poll"}},
                    "400": {"description": "invalid poll", "schema": {"$ref": "#/definitions/apperr.AppError"}},
                    "401": {"description": "unauthorized", "schema": {"$ref": "#/definitions/apperr.AppError"}},
                    "403": {"description": "anti-forgery token rejected", "schema": {"$ref": "#/definitions/apperr.AppError"}}
                }
            }
        },
        "/polls/mine": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["polls"],
                "summary": "List own polls",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/poll.Poll"}}},
                    "401": {"description": "unauthorized", "schema": {"$ref": "#/definitions/apperr.AppError"}}
                }
            }
        },
        "/polls/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["polls"],
                "summary": "Get poll",
                "parameters": [
                    {"type": "string", "description": "Poll ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/poll.Poll"}},
                    "400": {"description": "malformed id", "schema": {"$ref": "#/definitions/apperr.AppError"}},
                    "404": {"description": "not found", "schema": {"$ref": "#/definitions/apperr.AppError"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Replaces question and option texts. The number of options cannot change.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["polls"],
                "summary": "Update poll",
                "parameters": [
                    {"type": "string", "description": "Poll ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Anti-forgery token", "name": "X-CSRF-Token", "in": "header", "required": true},
                    {"description": "Poll", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.pollRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/poll.Poll"}},
                    "400": {"description": "invalid poll", "schema": {"$ref": "#/definitions/apperr.AppError"}},
                    "403": {"description": "anti-forgery token rejected", "schema": {"$ref": "#/definitions/apperr.AppError"}},
                    "404": {"description": "not found", "schema": {"$ref": "#/definitions/apperr.AppError"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["polls"],
                "summary": "Delete poll",
                "parameters": [
                    {"type": "string", "description": "Poll ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Anti-forgery token", "name": "X-CSRF-Token", "in": "header", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "anti-forgery token rejected", "schema": {"$ref": "#/definitions/apperr.AppError"}},
                    "404": {"description": "not found", "schema": {"$ref": "#/definitions/apperr.AppError"}}
                }
            }
        },
        "/polls/{id}/votes": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["votes"],
                "summary": "Vote for an option",
                "parameters": [
                    {"type": "string", "description": "Poll ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Anti-forgery token", "name": "X-CSRF-Token", "in": "header", "required": true},
                    {"description": "Vote payload", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.voteRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/vote.Vote"}},
                    "400": {"description": "invalid option", "schema": {"$ref": "#/definitions/apperr.AppError"}},
                    "401": {"description": "unauthorized", "schema": {"$ref": "#/definitions/apperr.AppError"}},
                    "403": {"description": "anti-forgery token rejected", "schema": {"$ref": "#/definitions/apperr.AppError"}},
                    "404": {"description": "not found", "schema": {"$ref": "#/definitions/apperr.AppError"}},
                    "409": {"description": "already voted", "schema": {"$ref": "#/definitions/apperr.AppError"}},
                    "429": {"description": "rate limited", "schema": {"$ref": "#/definitions/apperr.AppError"}}
                }
            }
        },
        "/polls/{id}/results": {
            "get": {
                "description": "Counts are recomputed from recorded votes on every request.",
                "produces": ["application/json"],
                "tags": ["votes"],
                "summary": "Poll results",
                "parameters": [
                    {"type": "string", "description": "Poll ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/vote.Tally"}},
                    "400": {"description": "malformed id", "schema": {"$ref": "#/definitions/apperr.AppError"}},
                    "404": {"description": "not found", "schema": {"$ref": "#/definitions/apperr.AppError"}}
                }
            }
        }
    },
    "definitions": {
        "api.authRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "api.authResponse": {
            "type": "object",
            "properties": {"token": {"type": "string"}, "user": {"$ref": "#/definitions/user.User"}}
        },
        "api.pollRequest": {
            "type": "object",
            "properties": {"question": {"type": "string"}, "options": {"type": "array", "items": {"type": "string"}}}
        },
        "api.tokenResponse": {
            "type": "object",
            "properties": {"csrf_token": {"type": "string"}}
        },
        "api.voteRequest": {
            "type": "object",
            "properties": {"option_index": {"type": "integer"}}
        },
        "apperr.AppError": {
            "type": "object",
            "properties": {"error": {"type": "string"}, "message": {"type": "string"}}
        },
        "poll.Poll": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "owner_id": {"type": "string"},
                "question": {"type": "string"},
                "options": {"type": "array", "items": {"type": "string"}},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "user.User": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "role": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "vote.Result": {
            "type": "object",
            "properties": {
                "option_index": {"type": "integer"},
                "text": {"type": "string"},
                "votes": {"type": "integer"},
                "percentage": {"type": "number"}
            }
        },
        "vote.Tally": {
            "type": "object",
            "properties": {
                "poll_id": {"type": "string"},
                "total_votes": {"type": "integer"},
                "options": {"type": "array", "items": {"$ref": "#/definitions/vote.Result"}}
            }
        },
        "vote.Vote": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "poll_id": {"type": "string"},
                "voter_id": {"type": "string"},
                "option_index": {"type": "integer"},
                "created_at": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "pollguard API",
	Description:      "Polls with owner-only mutation, one vote per identity and single-use anti-forgery tokens",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
