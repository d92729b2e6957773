package openapi

// Components holds reusable schema and response definitions.
type Components struct {
	Schemas   map[string]*Schema   `json:"schemas,omitempty"`
	Responses map[string]*Response `json:"responses,omitempty"`
}

// NewComponents returns the schemas and responses shared by every domain.
func NewComponents() *Components {
	errorSchema := SchemaRef("Error")

	return &Components{
		Schemas: map[string]*Schema{
			"Error": {
				Type: "object",
				Properties: map[string]*Schema{
					"error": {Type: "string"},
					"kind": {
						Type: "string",
						Enum: []string{
							"ValidationError",
							"InvalidRequest",
							"NotFound",
							"LinkError",
							"Forbidden",
							"Conflict",
							"Unauthorized",
							"StorageFailure",
							"IntegrityError",
							"Timeout",
							"InternalError",
						},
					},
				},
				Required: []string{"error"},
			},
			"PageRequest": {
				Type: "object",
				Properties: map[string]*Schema{
					"page":      {Type: "integer", Description: "Page number (1-based)"},
					"page_size": {Type: "integer", Description: "Items per page"},
					"search":    {Type: "string", Description: "Search query"},
					"sort": {
						Type:  "array",
						Items: &Schema{Type: "object"},
					},
				},
			},
		},
		Responses: map[string]*Response{
			"BadRequest":   errorResponse("Invalid request", errorSchema),
			"Unauthorized": errorResponse("Invalid bearer token", errorSchema),
			"Forbidden":    errorResponse("Requester does not own the resource", errorSchema),
			"NotFound":     errorResponse("Resource not found", errorSchema),
			"Conflict":     errorResponse("Resource conflict", errorSchema),
			"Gone":         errorResponse("Share link no longer redeemable", errorSchema),
			"TooLarge":     errorResponse("Payload exceeds the upload limit", errorSchema),
		},
	}
}

// AddSchemas registers schemas, replacing any with the same name.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	for name, schema := range schemas {
		c.Schemas[name] = schema
	}
}

// AddResponses registers responses, replacing any with the same name.
func (c *Components) AddResponses(responses map[string]*Response) {
	for name, resp := range responses {
		c.Responses[name] = resp
	}
}

func errorResponse(description string, schema *Schema) *Response {
	return &Response{
		Description: description,
		Content: map[string]*MediaType{
			"application/json": {Schema: schema},
		},
	}
}
