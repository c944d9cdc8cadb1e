// Package docs holds the OpenAPI description served under /swagger. Regenerate it from the handler
// annotations with `swag init -g cmd/api/main.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/locations": {
            "get": {
                "tags": ["locations"],
                "summary": "List franchise locations",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "franchisee_id", "in": "query"},
                    {"type": "string", "name": "q", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.LocationPage"}},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/map/sessions": {
            "post": {
                "tags": ["map"],
                "summary": "Open a map session",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.openMapRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/service.MapView"}},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/map/sessions/{id}": {
            "get": {
                "tags": ["map"],
                "summary": "Current map state",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.MapView"}},
                    "404": {"description": "Not Found"}
                }
            },
            "delete": {
                "tags": ["map"],
                "summary": "Close a map session",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/map/sessions/{id}/environment": {
            "put": {
                "description": "The environment is validated once per pipeline run, right after the settle delay. Send it in the POST /map/sessions body; a later report only takes effect after POST /map/sessions/{id}/retry.",
                "tags": ["map"],
                "summary": "Report mapping library environment",
                "consumes": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/session.EnvironmentReport"}}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/map/sessions/{id}/retry": {
            "post": {
                "tags": ["map"],
                "summary": "Retry loading the map",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"202": {"description": "Accepted", "schema": {"$ref": "#/definitions/service.MapView"}}}
            }
        },
        "/geocode/backfill": {
            "get": {
                "tags": ["geocode"],
                "summary": "Backfill status",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["geocode"],
                "summary": "Start geocoding locations without coordinates",
                "parameters": [{"type": "integer", "name": "limit", "in": "query"}],
                "responses": {"202": {"description": "Accepted"}, "409": {"description": "Conflict"}}
            }
        }
    },
    "definitions": {
        "models.LocationRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "address": {"type": "string"},
                "city": {"type": "string"},
                "state": {"type": "string"},
                "zip": {"type": "string"},
                "latitude": {"type": "number"},
                "longitude": {"type": "number"}
            }
        },
        "mapstate.Rect": {
            "type": "object",
            "properties": {"width": {"type": "number"}, "height": {"type": "number"}}
        },
        "session.EnvironmentReport": {
            "type": "object",
            "properties": {
                "stylesheets": {"type": "array", "items": {"type": "object", "properties": {"href": {"type": "string"}, "rules": {"type": "array", "items": {"type": "string"}}}}},
                "hasLibrary": {"type": "boolean"},
                "readyState": {"type": "string"}
            }
        },
        "handler.openMapRequest": {
            "type": "object",
            "properties": {
                "franchisee_id": {"type": "string"},
                "locations": {"type": "array", "items": {"$ref": "#/definitions/models.LocationRecord"}},
                "environment": {"$ref": "#/definitions/session.EnvironmentReport"},
                "container": {"$ref": "#/definitions/mapstate.Rect"}
            }
        },
        "service.LocationPage": {
            "type": "object",
            "properties": {
                "locations": {"type": "array", "items": {"$ref": "#/definitions/models.LocationRecord"}},
                "total": {"type": "integer"},
                "page": {"type": "integer"},
                "page_size": {"type": "integer"}
            }
        },
        "service.MapView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "franchisee_id": {"type": "string"},
                "shouldRenderMap": {"type": "boolean"},
                "initializationStep": {"type": "string"},
                "isLoading": {"type": "boolean"},
                "error": {"type": "string"},
                "mapError": {"type": "string"},
                "containerReady": {"type": "boolean"},
                "containerSoftFail": {"type": "boolean"},
                "containerRetries": {"type": "integer"},
                "leafletValid": {"type": "boolean"},
                "mapInitialized": {"type": "boolean"},
                "useFallbackMap": {"type": "boolean"},
                "validationIssues": {"type": "array", "items": {"type": "string"}},
                "validLocations": {"type": "array", "items": {"$ref": "#/definitions/models.LocationRecord"}},
                "debugLogs": {"type": "array", "items": {"type": "string"}},
                "browserLogs": {"type": "array", "items": {"type": "string"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Franchise Map API",
	Description:      "Location listing, map readiness sessions and geocoding backfill for the franchise portal.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
