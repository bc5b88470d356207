package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Secret Santa API",
        "description": "Gift exchange draws with invite links, scheduled execution and email notifications",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Authentication", "description": "Account registration, login and password reset"},
        {"name": "Draws", "description": "Organizer draw management"},
        {"name": "Public", "description": "Invite-link join flow"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Create an account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Account created, tokens issued"},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate with email and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Tokens issued"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Exchange a refresh token for a new token pair",
                "responses": {
                    "200": {"description": "Tokens issued"},
                    "401": {"description": "Invalid or expired refresh token"}
                }
            }
        },
        "/auth/forgot-password": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Request a password reset email",
                "responses": {
                    "202": {"description": "Reset email queued when the account exists"}
                }
            }
        },
        "/auth/reset-password": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Set a new password using a reset token",
                "responses": {
                    "200": {"description": "Password updated"},
                    "401": {"description": "Invalid or expired reset token"}
                }
            }
        },
        "/draws": {
            "get": {
                "tags": ["Draws"],
                "summary": "List the caller's draws",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Draw listing with pagination"}
                }
            }
        },
        "/draws/manual": {
            "post": {
                "tags": ["Draws"],
                "summary": "Create a manual draw and execute it immediately",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Draw created and queued for execution"},
                    "400": {"description": "Fewer than three participants or missing required contact fields"}
                }
            }
        },
        "/draws/dynamic": {
            "post": {
                "tags": ["Draws"],
                "summary": "Create an invite-link draw",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Draw created with its invite code"},
                    "400": {"description": "Invalid draw date"}
                }
            }
        },
        "/draws/{id}": {
            "get": {
                "tags": ["Draws"],
                "summary": "Fetch one draw with its participants",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Draw detail"},
                    "404": {"description": "Draw not found"}
                }
            },
            "delete": {
                "tags": ["Draws"],
                "summary": "Cancel a non-terminal draw",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Draw cancelled"},
                    "409": {"description": "Draw already completed or cancelled"}
                }
            }
        },
        "/draws/{id}/schedule": {
            "patch": {
                "tags": ["Draws"],
                "summary": "Change or clear the scheduled execution time",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Updated draw detail"},
                    "400": {"description": "Invalid draw date"}
                }
            }
        },
        "/draws/{id}/trigger": {
            "post": {
                "tags": ["Draws"],
                "summary": "Queue a draw for immediate execution",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "202": {"description": "Execution queued"},
                    "409": {"description": "Draw already completed"},
                    "412": {"description": "Fewer than three participants"}
                }
            }
        },
        "/draws/{id}/exports": {
            "post": {
                "tags": ["Draws"],
                "summary": "Export the participant roster as CSV or PDF",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "201": {"description": "Signed download link"}
                }
            }
        },
        "/join/{code}": {
            "get": {
                "tags": ["Public"],
                "summary": "View a draw through its invite code",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Public draw info"},
                    "404": {"description": "Unknown invite code"}
                }
            },
            "post": {
                "tags": ["Public"],
                "summary": "Join a draw through its invite code",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Participant added"},
                    "409": {"description": "Draw no longer joinable or email already present"}
                }
            }
        },
        "/exports/download": {
            "get": {
                "tags": ["Public"],
                "summary": "Download a roster export via its signed token",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Export file"},
                    "401": {"description": "Invalid or expired link"}
                }
            }
        }
    },
    "definitions": {
        "RegisterRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 8}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
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
