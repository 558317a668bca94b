package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "KineticFit Booking API",
        "description": "Session scheduling and conflict resolution core for personal training studios",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Sessions", "description": "Booking, rescheduling and lifecycle"},
        {"name": "Cancellations", "description": "Cancellation workflow and review"},
        {"name": "Attendance", "description": "Check-in, check-out and no-show"},
        {"name": "Availability", "description": "Trainer availability blocks"},
        {"name": "SessionTypes", "description": "Session type catalog"},
        {"name": "Credits", "description": "Client session credits"},
        {"name": "Exports", "description": "Schedule exports"}
    ],
    "paths": {
        "/sessions": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List sessions",
                "parameters": [
                    {"name": "trainerId", "in": "query", "type": "string"},
                    {"name": "userId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"},
                    {"name": "groupId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Sessions"],
                "summary": "Book a session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Get session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/recurring": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Book a recurring series",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecurringBookingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created with per-occurrence results", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/open-slots": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Publish open slots for client self-booking",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OpenSlotsRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created with per-slot results", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/claim": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Claim a published open slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot already claimed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/reschedule": {
            "put": {
                "tags": ["Sessions"],
                "summary": "Reschedule a session or its series",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RescheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Target slot conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/status": {
            "put": {
                "tags": ["Sessions"],
                "summary": "Transition session status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Illegal transition", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/cancel": {
            "post": {
                "tags": ["Cancellations"],
                "summary": "Cancel a session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CancelSessionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/cancellation/review": {
            "put": {
                "tags": ["Cancellations"],
                "summary": "Adjudicate a pending cancellation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewCancellationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/cancellations/pending": {
            "get": {
                "tags": ["Cancellations"],
                "summary": "List cancellations awaiting review",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/check-in": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Record a client check-in",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already checked in", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/check-out": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Record a client check-out",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/no-show": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark a session as a no-show",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NoShowRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/trainers/{trainerId}/availability": {
            "get": {
                "tags": ["Availability"],
                "summary": "List availability blocks touching a window",
                "parameters": [
                    {"name": "trainerId", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "required": true, "type": "string"},
                    {"name": "to", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Availability"],
                "summary": "Add an availability block",
                "parameters": [
                    {"name": "trainerId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertAvailabilityBlockRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Overlapping available block", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/trainers/{trainerId}/availability/{blockId}": {
            "delete": {
                "tags": ["Availability"],
                "summary": "Remove an availability block",
                "parameters": [
                    {"name": "trainerId", "in": "path", "required": true, "type": "string"},
                    {"name": "blockId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/trainers/{trainerId}/availability/resolved": {
            "get": {
                "tags": ["Availability"],
                "summary": "Resolve open intervals over a window",
                "parameters": [
                    {"name": "trainerId", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "required": true, "type": "string"},
                    {"name": "to", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/session-types": {
            "get": {
                "tags": ["SessionTypes"],
                "summary": "List session types",
                "parameters": [
                    {"name": "includeInactive", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["SessionTypes"],
                "summary": "Create session type",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSessionTypeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/session-types/{id}": {
            "get": {
                "tags": ["SessionTypes"],
                "summary": "Get session type",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["SessionTypes"],
                "summary": "Update session type",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSessionTypeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["SessionTypes"],
                "summary": "Deactivate session type",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/clients/{userId}/credits": {
            "get": {
                "tags": ["Credits"],
                "summary": "Get credit balance",
                "parameters": [
                    {"name": "userId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Credits"],
                "summary": "Grant purchased credits",
                "parameters": [
                    {"name": "userId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GrantCreditsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/schedule": {
            "post": {
                "tags": ["Exports"],
                "summary": "Render a trainer schedule to CSV or PDF",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateExportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a generated export",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File stream"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "Session": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "trainer_id": {"type": "string"},
                "user_id": {"type": "string"},
                "session_type_id": {"type": "string"},
                "session_date": {"type": "string"},
                "duration": {"type": "integer"},
                "buffer_before": {"type": "integer"},
                "buffer_after": {"type": "integer"},
                "status": {"type": "string"},
                "is_blocked": {"type": "boolean"},
                "recurring_group_id": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "CreateSessionRequest": {
            "type": "object",
            "properties": {
                "trainer_id": {"type": "string"},
                "user_id": {"type": "string"},
                "session_type_id": {"type": "string"},
                "session_date": {"type": "string"},
                "is_blocked": {"type": "boolean"}
            },
            "required": ["trainer_id", "session_type_id", "session_date"]
        },
        "RecurrenceRule": {
            "type": "object",
            "properties": {
                "frequency": {"type": "string"},
                "weekdays": {"type": "array", "items": {"type": "integer"}},
                "interval": {"type": "integer"},
                "count": {"type": "integer"},
                "until": {"type": "string"}
            }
        },
        "RecurringBookingRequest": {
            "type": "object",
            "properties": {
                "seed": {"$ref": "#/definitions/CreateSessionRequest"},
                "rule": {"$ref": "#/definitions/RecurrenceRule"}
            },
            "required": ["seed", "rule"]
        },
        "OpenSlotsRequest": {
            "type": "object",
            "properties": {
                "trainer_id": {"type": "string"},
                "session_type_id": {"type": "string"},
                "slots": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["trainer_id", "session_type_id", "slots"]
        },
        "RescheduleRequest": {
            "type": "object",
            "properties": {
                "session_date": {"type": "string"},
                "apply_to_series": {"type": "boolean"}
            },
            "required": ["session_date"]
        },
        "UpdateStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string"}
            },
            "required": ["status"]
        },
        "CancelSessionRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            }
        },
        "ReviewCancellationRequest": {
            "type": "object",
            "properties": {
                "decision": {"type": "string", "enum": ["charged", "waived"]},
                "reason": {"type": "string"},
                "charge_amount": {"type": "number"}
            },
            "required": ["decision"]
        },
        "NoShowRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"},
                "time": {"type": "string"}
            },
            "required": ["reason"]
        },
        "UpsertAvailabilityBlockRequest": {
            "type": "object",
            "properties": {
                "day_of_week": {"type": "integer"},
                "effective_from": {"type": "string"},
                "effective_to": {"type": "string"},
                "start_minute": {"type": "integer"},
                "end_minute": {"type": "integer"},
                "kind": {"type": "string", "enum": ["available", "blocked", "vacation"]},
                "is_recurring": {"type": "boolean"}
            },
            "required": ["start_minute", "end_minute", "kind"]
        },
        "CreateSessionTypeRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "duration": {"type": "integer"},
                "buffer_before": {"type": "integer"},
                "buffer_after": {"type": "integer"},
                "color": {"type": "string"},
                "price": {"type": "number"}
            },
            "required": ["name", "duration"]
        },
        "UpdateSessionTypeRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "duration": {"type": "integer"},
                "buffer_before": {"type": "integer"},
                "buffer_after": {"type": "integer"},
                "color": {"type": "string"},
                "price": {"type": "number"}
            }
        },
        "GrantCreditsRequest": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"}
            },
            "required": ["count"]
        },
        "GenerateExportRequest": {
            "type": "object",
            "properties": {
                "trainer_id": {"type": "string"},
                "from": {"type": "string"},
                "to": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            },
            "required": ["trainer_id", "from", "to", "format"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
