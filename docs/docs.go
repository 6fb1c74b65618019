// Package docs registers the OpenAPI description served at /swagger. Regenerate with `swag init -g server/main.go`.
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
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Create an account", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Exchange credentials for tokens", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/auth/refresh": {"post": {"tags": ["auth"], "summary": "Rotate a refresh token", "responses": {"200": {"description": "OK"}}}},
        "/auth/me": {"get": {"tags": ["auth"], "security": [{"BearerAuth": []}], "summary": "Current user profile", "responses": {"200": {"description": "OK"}}}},
        "/users/profile": {"get": {"tags": ["users"], "security": [{"BearerAuth": []}], "summary": "Current user's profile with interests", "responses": {"200": {"description": "OK"}}}, "put": {"tags": ["users"], "security": [{"BearerAuth": []}], "summary": "Update name, email, password or interests", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}},
        "/events/recommendations": {"get": {"tags": ["events"], "security": [{"BearerAuth": []}], "summary": "Events picked from the caller's interests", "responses": {"200": {"description": "OK"}}}},
        "/events": {"get": {"tags": ["events"], "summary": "List events with filters", "responses": {"200": {"description": "OK"}}}},
        "/events/{eventId}": {"get": {"tags": ["events"], "summary": "Get an event", "parameters": [{"type": "string", "name": "eventId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/events/{eventId}/stream": {"get": {"tags": ["events"], "summary": "Subscribe to live updates for an event", "produces": ["text/event-stream"], "parameters": [{"type": "string", "name": "eventId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/payments/order": {"post": {"tags": ["payments"], "security": [{"BearerAuth": []}], "summary": "Open a payment order for a reservation", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}},
        "/payments/verify": {"post": {"tags": ["payments"], "security": [{"BearerAuth": []}], "summary": "Verify a payment and confirm the booking", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/payments/webhook": {"post": {"tags": ["payments"], "summary": "Gateway webhook", "responses": {"200": {"description": "OK"}}}},
        "/bookings/mine": {"get": {"tags": ["bookings"], "security": [{"BearerAuth": []}], "summary": "Caller's bookings", "responses": {"200": {"description": "OK"}}}},
        "/bookings/{id}/cancel": {"put": {"tags": ["bookings"], "security": [{"BearerAuth": []}], "summary": "Cancel a booking", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/comments/{eventId}": {"get": {"tags": ["comments"], "summary": "Comments on an event, newest first", "parameters": [{"type": "string", "name": "eventId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/admin/analytics": {"get": {"tags": ["analytics"], "security": [{"BearerAuth": []}], "summary": "Platform dashboard", "responses": {"200": {"description": "OK"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "EventHub API",
	Description:      "Ticketed event marketplace: events, payments, bookings and live availability.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
