// Package docs registers the OpenAPI description served by the Swagger UI.
// Regenerate with: swag init -g cmd/api/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "email": "support@example.com"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "tags": ["health"],
                "summary": "Health check",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/auth/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Register a new user",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/auth.RegisterInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/user.Response"}},
                    "400": {"description": "Invalid request or validation error", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "409": {"description": "User already exists", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            }
        },
        "/api/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "User login",
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "formData", "name": "username", "type": "string", "required": true},
                    {"in": "formData", "name": "password", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.AccessToken"}},
                    "401": {"description": "Wrong credentials or email not confirmed", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "429": {"description": "Too many requests", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            }
        },
        "/api/auth/confirmed_email/{token}": {
            "get": {
                "tags": ["auth"],
                "summary": "Confirm email address",
                "produces": ["application/json"],
                "parameters": [{"in": "path", "name": "token", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httputil.MessageResponse"}},
                    "400": {"description": "Verification error", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            }
        },
        "/api/auth/request_email": {
            "post": {
                "tags": ["auth"],
                "summary": "Request confirmation email",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/auth.EmailRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httputil.MessageResponse"}}}
            }
        },
        "/api/auth/request_reset_password": {
            "post": {
                "tags": ["auth"],
                "summary": "Request password reset",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/auth.EmailRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httputil.MessageResponse"}},
                    "429": {"description": "Too many requests", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            }
        },
        "/api/auth/password_reset/{token}": {
            "get": {
                "tags": ["auth"],
                "summary": "Password reset form",
                "produces": ["text/html"],
                "parameters": [{"in": "path", "name": "token", "type": "string", "required": true}],
                "responses": {"200": {"description": "HTML page"}}
            },
            "post": {
                "tags": ["auth"],
                "summary": "Reset password",
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "token", "type": "string", "required": true},
                    {"in": "formData", "name": "new_password", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httputil.MessageResponse"}},
                    "400": {"description": "Missing password, invalid token or unknown user", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            }
        },
        "/api/users/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Current user",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/user.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            }
        },
        "/api/users/avatar": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Update avatar",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [{"in": "formData", "name": "file", "type": "file", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/user.Response"}},
                    "400": {"description": "Missing or invalid file", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            }
        },
        "/api/contacts": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["contacts"],
                "summary": "List contacts",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "query", "name": "skip", "type": "integer", "default": 0},
                    {"in": "query", "name": "limit", "type": "integer", "default": 10}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/contact.Contact"}}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["contacts"],
                "summary": "Create contact",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/contact.Input"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/contact.Contact"}}}
            }
        },
        "/api/contacts/search": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["contacts"],
                "summary": "Search contacts",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "query", "name": "first_name", "type": "string"},
                    {"in": "query", "name": "last_name", "type": "string"},
                    {"in": "query", "name": "email", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/contact.Contact"}}}}
            }
        },
        "/api/contacts/birthdays": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["contacts"],
                "summary": "Upcoming birthdays",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/contact.Contact"}}}}
            }
        },
        "/api/contacts/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["contacts"],
                "summary": "Get contact",
                "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/contact.Contact"}},
                    "404": {"description": "Contact not found", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["contacts"],
                "summary": "Update contact",
                "parameters": [
                    {"in": "path", "name": "id", "type": "integer", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/contact.Input"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/contact.Contact"}},
                    "404": {"description": "Contact not found", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["contacts"],
                "summary": "Delete contact",
                "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/contact.Contact"}},
                    "404": {"description": "Contact not found", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            }
        },
        "/api/admin/dashboard": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["admin"],
                "summary": "Admin dashboard",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/admin.DashboardResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "admin.DashboardResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "users": {"type": "integer"},
                "contacts": {"type": "integer"}
            }
        },
        "auth.AccessToken": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "token_type": {"type": "string"},
                "expires_in": {"type": "integer"}
            }
        },
        "auth.EmailRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}}
        },
        "auth.RegisterInput": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "contact.Contact": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "date_of_birth": {"type": "string", "format": "date"},
                "info": {"type": "string"},
                "created_at": {"type": "string", "format": "date-time"}
            }
        },
        "contact.Input": {
            "type": "object",
            "properties": {
                "first_name": {"type": "string", "maxLength": 50},
                "last_name": {"type": "string", "maxLength": 50},
                "email": {"type": "string", "maxLength": 100},
                "phone": {"type": "string", "maxLength": 20},
                "date_of_birth": {"type": "string", "format": "date"},
                "info": {"type": "string", "maxLength": 200}
            }
        },
        "httputil.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "string"}
            }
        },
        "httputil.MessageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "user.Response": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "email": {"type": "string"},
                "avatar": {"type": "string"},
                "role": {"type": "string"},
                "created_at": {"type": "string", "format": "date-time"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the access token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Contacts API",
	Description:      "Address-book REST API with email confirmation, password reset and per-user contacts.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
