package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Accessibility Monitoring Platform API",
        "description": "Case management core for public sector website accessibility monitoring",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {
            "name": "Audits"
        },
        {
            "name": "Audit pages"
        },
        {
            "name": "Check results"
        },
        {
            "name": "Statement"
        },
        {
            "name": "Reports"
        },
        {
            "name": "Cases"
        },
        {
            "name": "Contacts"
        },
        {
            "name": "Equality body"
        },
        {
            "name": "Catalogue"
        },
        {
            "name": "Events"
        },
        {
            "name": "Exports"
        },
        {
            "name": "Health"
        },
        {
            "name": "Registry"
        },
        {
            "name": "Tasks"
        }
    ],
    "paths": {
        "/cases/{id}/audit": {
            "post": {
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Open the audit of a case",
                "tags": [
                    "Audits"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Case ID",
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": false,
                        "description": "Test date",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "get": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Get the audit of a case",
                "tags": [
                    "Audits"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Case ID",
                        "type": "integer"
                    }
                ]
            }
        },
        "/audits/{id}": {
            "get": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Get an audit with every live child row",
                "tags": [
                    "Audits"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Audit ID",
                        "type": "integer"
                    }
                ]
            },
            "patch": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Edit audit metadata and statement fields",
                "tags": [
                    "Audits"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Audit ID",
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "description": "Versioned audit",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/audits/{id}/sections/{section}": {
            "put": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Set or clear the completion date of an audit section",
                "tags": [
                    "Audits"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Audit ID",
                        "type": "integer"
                    },
                    {
                        "name": "section",
                        "in": "path",
                        "required": true,
                        "description": "Section key",
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "description": "Completion date",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/audits/{id}/retest": {
            "post": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Start the 12-week retest",
                "tags": [
                    "Audits"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Audit ID",
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "description": "Retest date",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/audits/{id}/pages": {
            "post": {
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Add a page to an audit",
                "tags": [
                    "Audit pages"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Audit ID",
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "description": "Page",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/audits/{id}/pages/{pageId}": {
            "patch": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Edit a page",
                "tags": [
                    "Audit pages"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Audit ID",
                        "type": "integer"
                    },
                    {
                        "name": "pageId",
                        "in": "path",
                        "required": true,
                        "description": "Page ID",
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "description": "Versioned page",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "delete": {
                "responses": {
                    "204": {
                        "description": "OK"
                    }
                },
                "summary": "Soft delete a page and its check results",
                "tags": [
                    "Audit pages"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Audit ID",
                        "type": "integer"
                    },
                    {
                        "name": "pageId",
                        "in": "path",
                        "required": true,
                        "description": "Page ID",
                        "type": "integer"
                    },
                    {
                        "name": "version",
                        "in": "query",
                        "required": true,
                        "description": "Expected version",
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/audits/{id}/check-results": {
            "put": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Record the initial verdict of a WCAG test on a page",
                "tags": [
                    "Check results"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Audit ID",
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "description": "Verdict",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/audits/{id}/retest-results": {
            "put": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "422": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Record the 12-week verdict of a WCAG test on a page",
                "tags": [
                    "Check results"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Audit ID",
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "description": "Retest verdict",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/audits/{id}/statement-pages": {
            "post": {
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Add a link to the accessibility statement",
                "tags": [
                    "Statement"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Audit ID",
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "description": "Statement link",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/audits/{id}/statement-check-results/{resultId}": {
            "patch": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Answer a statement question",
                "tags": [
                    "Statement"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Audit ID",
                        "type": "integer"
                    },
                    {
                        "name": "resultId",
                        "in": "path",
                        "required": true,
                        "description": "Statement check result ID",
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "description": "Answer",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/audits/{id}/retest-statement-check-results/{resultId}": {
            "patch": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Answer an equality body retest statement question",
                "tags": [
                    "Statement"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Audit ID",
                        "type": "integer"
                    },
                    {
                        "name": "resultId",
                        "in": "path",
                        "required": true,
                        "description": "Retest statement check result ID",
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "description": "Answer",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/audits/{id}/report-content": {
            "get": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Derive the report buckets of an audit",
                "tags": [
                    "Reports"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Audit ID",
                        "type": "integer"
                    }
                ]
            }
        },
        "/audits/{id}/compliance-suggestions": {
            "get": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Suggested website and statement verdicts",
                "tags": [
                    "Reports"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Audit ID",
                        "type": "integer"
                    }
                ]
            }
        },
        "/check-results/{id}/notes-history": {
            "get": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Revisions of the notes of a check result",
                "tags": [
                    "Check results"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Check result ID",
                        "type": "integer"
                    },
                    {
                        "name": "retest",
                        "in": "query",
                        "required": false,
                        "description": "Retest notes instead of initial notes",
                        "type": "boolean"
                    }
                ]
            }
        },
        "/cases": {
            "get": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "List cases",
                "tags": [
                    "Cases"
                ],
                "parameters": [
                    {
                        "name": "auditorId",
                        "in": "query",
                        "required": false,
                        "description": "Auditor filter",
                        "type": "string"
                    },
                    {
                        "name": "status",
                        "in": "query",
                        "required": false,
                        "description": "Status filter",
                        "type": "array",
                        "items": {
                            "type": "string"
                        },
                        "collectionFormat": "multi"
                    },
                    {
                        "name": "search",
                        "in": "query",
                        "required": false,
                        "description": "Organisation, domain or website search",
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "required": false,
                        "description": "Page",
                        "type": "integer"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "description": "Page size",
                        "type": "integer"
                    }
                ]
            },
            "post": {
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Open a case",
                "tags": [
                    "Cases"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "description": "Case payload",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/cases/overdue": {
            "get": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "List cases with an overdue chaser",
                "tags": [
                    "Cases"
                ]
            }
        },
        "/cases/{id}": {
            "get": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Get a case with its derived values",
                "tags": [
                    "Cases"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Case ID",
                        "type": "integer"
                    }
                ]
            },
            "patch": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Patch the case details section",
                "tags": [
                    "Cases"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Case ID",
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "description": "Versioned patch",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "delete": {
                "responses": {
                    "204": {
                        "description": "OK"
                    }
                },
                "summary": "Soft delete a case",
                "tags": [
                    "Cases"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Case ID",
                        "type": "integer"
                    },
                    {
                        "name": "version",
                        "in": "query",
                        "required": true,
                        "description": "Expected version",
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/cases/{id}/sections/{section}": {
            "patch": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Patch one case section",
                "tags": [
                    "Cases"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Case ID",
                        "type": "integer"
                    },
                    {
                        "name": "section",
                        "in": "path",
                        "required": true,
                        "description": "Section key",
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "description": "Versioned patch",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/cases/{id}/sections/{section}/complete": {
            "put": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Set or clear the completion date of a case section",
                "tags": [
                    "Cases"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Case ID",
                        "type": "integer"
                    },
                    {
                        "name": "section",
                        "in": "path",
                        "required": true,
                        "description": "Section key",
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "description": "Completion date",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/cases/{id}/correspondence": {
            "post": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "422": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Record one correspondence step",
                "tags": [
                    "Cases"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Case ID",
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "description": "Step and date",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/cases/{id}/compliance": {
            "patch": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Replace the stored compliance verdicts of a case",
                "tags": [
                    "Cases"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Case ID",
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "description": "Verdicts",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/cases/{id}/report": {
            "post": {
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Start the report of a case",
                "tags": [
                    "Cases"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Case ID",
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/cases/{id}/contacts": {
            "get": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "List the contacts of a case",
                "tags": [
                    "Contacts"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Case ID",
                        "type": "integer"
                    }
                ]
            },
            "post": {
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Add a contact to a case",
                "tags": [
                    "Contacts"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Case ID",
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "description": "Contact",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/cases/{id}/contacts/{contactId}": {
            "patch": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Edit a contact",
                "tags": [
                    "Contacts"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Case ID",
                        "type": "integer"
                    },
                    {
                        "name": "contactId",
                        "in": "path",
                        "required": true,
                        "description": "Contact ID",
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "description": "Versioned contact",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "delete": {
                "responses": {
                    "204": {
                        "description": "OK"
                    }
                },
                "summary": "Soft delete a contact",
                "tags": [
                    "Contacts"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Case ID",
                        "type": "integer"
                    },
                    {
                        "name": "contactId",
                        "in": "path",
                        "required": true,
                        "description": "Contact ID",
                        "type": "integer"
                    },
                    {
                        "name": "version",
                        "in": "query",
                        "required": true,
                        "description": "Expected version",
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/cases/{id}/equality-body-correspondence": {
            "get": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "List correspondence with the enforcement body",
                "tags": [
                    "Equality body"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Case ID",
                        "type": "integer"
                    },
                    {
                        "name": "outstanding",
                        "in": "query",
                        "required": false,
                        "description": "Only rows still open",
                        "type": "boolean"
                    }
                ]
            },
            "post": {
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Record a message from the enforcement body",
                "tags": [
                    "Equality body"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Case ID",
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "description": "Message",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/cases/{id}/equality-body-correspondence/{itemId}": {
            "patch": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Edit or resolve a message from the enforcement body",
                "tags": [
                    "Equality body"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Case ID",
                        "type": "integer"
                    },
                    {
                        "name": "itemId",
                        "in": "path",
                        "required": true,
                        "description": "Correspondence ID",
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "description": "Versioned message",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/catalogue/wcag": {
            "get": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "List WCAG definitions",
                "description": "With date set, only definitions active on that day are returned.",
                "tags": [
                    "Catalogue"
                ],
                "parameters": [
                    {
                        "name": "date",
                        "in": "query",
                        "required": false,
                        "description": "Active on (YYYY-MM-DD)",
                        "type": "string"
                    }
                ]
            }
        },
        "/catalogue/wcag/{id}": {
            "get": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Get a WCAG definition",
                "tags": [
                    "Catalogue"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Definition ID",
                        "type": "integer"
                    }
                ]
            },
            "delete": {
                "responses": {
                    "204": {
                        "description": "OK"
                    },
                    "412": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Delete a WCAG definition no check result references",
                "tags": [
                    "Catalogue"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Definition ID",
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/catalogue/wcag/seed": {
            "post": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Upsert WCAG definitions from CSV",
                "tags": [
                    "Catalogue"
                ],
                "parameters": [
                    {
                        "name": "file",
                        "in": "formData",
                        "required": false,
                        "description": "CSV file",
                        "type": "file"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/catalogue/wcag/export": {
            "get": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "file"
                        }
                    }
                },
                "summary": "Export WCAG definitions as CSV",
                "tags": [
                    "Catalogue"
                ]
            }
        },
        "/catalogue/wcag/{id}/deprecate": {
            "post": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Close the active window of a WCAG definition",
                "tags": [
                    "Catalogue"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Definition ID",
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "description": "End date",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/catalogue/statement-checks": {
            "get": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "List statement questions",
                "tags": [
                    "Catalogue"
                ],
                "parameters": [
                    {
                        "name": "includeDeleted",
                        "in": "query",
                        "required": false,
                        "description": "Include deleted questions",
                        "type": "boolean"
                    }
                ]
            }
        },
        "/catalogue/statement-checks/seed": {
            "post": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Upsert statement questions from CSV",
                "tags": [
                    "Catalogue"
                ],
                "parameters": [
                    {
                        "name": "file",
                        "in": "formData",
                        "required": false,
                        "description": "CSV file",
                        "type": "file"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/catalogue/statement-checks/export": {
            "get": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "file"
                        }
                    }
                },
                "summary": "Export statement questions as CSV",
                "tags": [
                    "Catalogue"
                ]
            }
        },
        "/catalogue/statement-checks/{id}": {
            "patch": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Edit a statement question",
                "tags": [
                    "Catalogue"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Question ID",
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "description": "Question",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "delete": {
                "responses": {
                    "204": {
                        "description": "OK"
                    }
                },
                "summary": "Soft delete a statement question",
                "tags": [
                    "Catalogue"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Question ID",
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/events": {
            "get": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Query journal entries",
                "tags": [
                    "Events"
                ],
                "parameters": [
                    {
                        "name": "contentType",
                        "in": "query",
                        "required": false,
                        "description": "Content type, e.g. cases.case",
                        "type": "string"
                    },
                    {
                        "name": "objectId",
                        "in": "query",
                        "required": false,
                        "description": "Object ID",
                        "type": "integer"
                    },
                    {
                        "name": "type",
                        "in": "query",
                        "required": false,
                        "description": "model_create, model_update or model_delete",
                        "type": "string"
                    },
                    {
                        "name": "since",
                        "in": "query",
                        "required": false,
                        "description": "Created on or after (YYYY-MM-DD)",
                        "type": "string"
                    },
                    {
                        "name": "contains",
                        "in": "query",
                        "required": false,
                        "description": "Substring of the value",
                        "type": "array",
                        "items": {
                            "type": "string"
                        },
                        "collectionFormat": "multi"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "required": false,
                        "description": "Page",
                        "type": "integer"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "description": "Page size",
                        "type": "integer"
                    }
                ]
            }
        },
        "/cases/{id}/events": {
            "get": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Journal entries of a case",
                "tags": [
                    "Events"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Case ID",
                        "type": "integer"
                    }
                ]
            }
        },
        "/exports": {
            "get": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "List export batches",
                "tags": [
                    "Exports"
                ],
                "parameters": [
                    {
                        "name": "enforcementBody",
                        "in": "query",
                        "required": false,
                        "description": "ehrc or ecni",
                        "type": "string"
                    },
                    {
                        "name": "status",
                        "in": "query",
                        "required": false,
                        "description": "Export status",
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "required": false,
                        "description": "Page",
                        "type": "integer"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "description": "Page size",
                        "type": "integer"
                    }
                ]
            },
            "post": {
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Open an export batch of closed cases",
                "tags": [
                    "Exports"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "description": "Cutoff date and enforcement body",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/exports/{id}": {
            "get": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Get an export batch and its cases",
                "tags": [
                    "Exports"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Export ID",
                        "type": "integer"
                    }
                ]
            },
            "delete": {
                "responses": {
                    "204": {
                        "description": "OK"
                    }
                },
                "summary": "Soft delete an export batch",
                "tags": [
                    "Exports"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Export ID",
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/exports/{id}/cases/{caseId}": {
            "put": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Tag a case within a batch",
                "tags": [
                    "Exports"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Export ID",
                        "type": "integer"
                    },
                    {
                        "name": "caseId",
                        "in": "path",
                        "required": true,
                        "description": "Case ID",
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "description": "Status",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/exports/{id}/mark-exported": {
            "post": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Mark a batch exported",
                "description": "Every ready case of the batch is moved to sent to equality body.",
                "tags": [
                    "Exports"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Export ID",
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": false,
                        "description": "Export date",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/exports/{id}/render": {
            "post": {
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Render the ready cases of a batch to a file",
                "tags": [
                    "Exports"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Export ID",
                        "type": "integer"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "description": "Format",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/exports/{id}/download": {
            "get": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "file"
                        }
                    }
                },
                "summary": "Download a rendered batch via signed token",
                "tags": [
                    "Exports"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Export ID",
                        "type": "integer"
                    },
                    {
                        "name": "token",
                        "in": "query",
                        "required": true,
                        "description": "Signed token",
                        "type": "string"
                    }
                ]
            }
        },
        "/metrics/summary": {
            "get": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Aggregated platform counters",
                "tags": [
                    "Health"
                ]
            }
        },
        "/health": {
            "get": {
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "503": {
                        "description": "Error"
                    }
                },
                "summary": "Liveness and dependency status",
                "tags": [
                    "Health"
                ]
            }
        },
        "/registry/axe-rules": {
            "get": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "List axe rules",
                "tags": [
                    "Registry"
                ],
                "parameters": [
                    {
                        "name": "page",
                        "in": "query",
                        "required": false,
                        "description": "Page",
                        "type": "integer"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "description": "Page size",
                        "type": "integer"
                    }
                ]
            }
        },
        "/registry/axe-rules/{id}": {
            "get": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Get an axe rule with its WCAG mappings",
                "tags": [
                    "Registry"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Rule ID",
                        "type": "integer"
                    }
                ]
            }
        },
        "/registry/tests": {
            "get": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "List automated test runs",
                "tags": [
                    "Registry"
                ],
                "parameters": [
                    {
                        "name": "domain",
                        "in": "query",
                        "required": false,
                        "description": "Domain name",
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "required": false,
                        "description": "Page",
                        "type": "integer"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "description": "Page size",
                        "type": "integer"
                    }
                ]
            }
        },
        "/registry/tests/{id}": {
            "get": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Get an automated test run with its rule outcomes",
                "tags": [
                    "Registry"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Test ID",
                        "type": "integer"
                    }
                ]
            }
        },
        "/tasks": {
            "get": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "List tasks of a user",
                "description": "Defaults to the unread tasks of the caller.",
                "tags": [
                    "Tasks"
                ],
                "parameters": [
                    {
                        "name": "user",
                        "in": "query",
                        "required": false,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "caseId",
                        "in": "query",
                        "required": false,
                        "description": "Case ID",
                        "type": "integer"
                    },
                    {
                        "name": "type",
                        "in": "query",
                        "required": false,
                        "description": "Task type",
                        "type": "string"
                    },
                    {
                        "name": "includeRead",
                        "in": "query",
                        "required": false,
                        "description": "Include read tasks",
                        "type": "boolean"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "required": false,
                        "description": "Page",
                        "type": "integer"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "description": "Page size",
                        "type": "integer"
                    }
                ]
            },
            "post": {
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Create a task for a user",
                "tags": [
                    "Tasks"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "description": "Task",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/tasks/due": {
            "get": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Unread tasks of the caller dated today or earlier",
                "tags": [
                    "Tasks"
                ]
            }
        },
        "/tasks/{id}/read": {
            "post": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Mark a task read",
                "tags": [
                    "Tasks"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Task ID",
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/reminders": {
            "put": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "summary": "Set the reminder of the caller on a case",
                "tags": [
                    "Tasks"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "description": "Reminder",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/reminders/{caseId}": {
            "delete": {
                "responses": {
                    "204": {
                        "description": "OK"
                    }
                },
                "summary": "Remove the reminder of the caller on a case",
                "tags": [
                    "Tasks"
                ],
                "parameters": [
                    {
                        "name": "caseId",
                        "in": "path",
                        "required": true,
                        "description": "Case ID",
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total_count": {
                    "type": "integer"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                },
                "details": {
                    "type": "object"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "pagination": {
                    "$ref": "#/definitions/Pagination"
                },
                "meta": {
                    "type": "object"
                }
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
