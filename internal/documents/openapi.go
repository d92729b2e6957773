package documents

import "github.com/JaimeStill/pdf-lab/pkg/openapi"

type spec struct {
	List       *openapi.Operation
	Find       *openapi.Operation
	Upload     *openapi.Operation
	Batch      *openapi.Operation
	Delete     *openapi.Operation
	Download   *openapi.Operation
	View       *openapi.Operation
	Metadata   *openapi.Operation
	Merge      *openapi.Operation
	Split      *openapi.Operation
	InsertText *openapi.Operation
}

var Spec = spec{
	List: &openapi.Operation{
		Summary:     "List documents",
		Description: "List live documents with pagination and optional filters",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("page", "integer", "Page number", false),
			openapi.QueryParam("page_size", "integer", "Items per page", false),
			openapi.QueryParam("search", "string", "Search in name, filename and title", false),
			openapi.QueryParam("sort", "string", "Comma-separated fields, '-' prefix for descending", false),
			openapi.QueryParam("name", "string", "Filter by name (contains)", false),
			openapi.QueryParam("owner_id", "string", "Filter by owner", false),
			openapi.QueryParam("provenance", "string", "Filter by provenance", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Documents list", "DocumentPageResult"),
		},
	},
	Find: &openapi.Operation{
		Summary:     "Find document",
		Description: "Find a live document by ID",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Document ID"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Document details", "Document"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Upload: &openapi.Operation{
		Summary:     "Upload document",
		Description: "Upload a PDF. The file is validated and its metadata extracted before it is stored.",
		RequestBody: &openapi.RequestBody{
			Required: true,
			Content: map[string]*openapi.MediaType{
				"multipart/form-data": {
					Schema: &openapi.Schema{
						Type: "object",
						Properties: map[string]*openapi.Schema{
							"file": {Type: "string", Format: "binary", Description: "PDF file to upload"},
							"name": {Type: "string", Description: "Optional display name (defaults to filename)"},
						},
						Required: []string{"file"},
					},
				},
			},
		},
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Document uploaded", "Document"),
			400: openapi.ResponseRef("BadRequest"),
			413: openapi.ResponseRef("TooLarge"),
		},
	},
	Batch: &openapi.Operation{
		Summary:     "Upload documents",
		Description: "Upload up to 10 PDFs. Each file is processed independently and failures are reported per file.",
		RequestBody: &openapi.RequestBody{
			Required: true,
			Content: map[string]*openapi.MediaType{
				"multipart/form-data": {
					Schema: &openapi.Schema{
						Type: "object",
						Properties: map[string]*openapi.Schema{
							"files": {
								Type:        "array",
								Items:       &openapi.Schema{Type: "string", Format: "binary"},
								Description: "PDF files to upload",
							},
						},
						Required: []string{"files"},
					},
				},
			},
		},
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Created documents and per-file errors", "BatchResult"),
			400: openapi.ResponseRef("BadRequest"),
			413: openapi.ResponseRef("TooLarge"),
		},
	},
	Delete: &openapi.Operation{
		Summary:     "Delete document",
		Description: "Soft delete the document and purge its bytes. With purge=true the record is removed as well.",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Document ID"),
			openapi.QueryParam("purge", "boolean", "Remove the record permanently", false),
		},
		Responses: map[int]*openapi.Response{
			204: {Description: "Document deleted"},
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Download: &openapi.Operation{
		Summary: "Download document",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Document ID"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseBinary("PDF attachment", "application/pdf"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	View: &openapi.Operation{
		Summary: "View document inline",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Document ID"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseBinary("Inline PDF", "application/pdf"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Metadata: &openapi.Operation{
		Summary:     "Document metadata",
		Description: "Re-extract metadata from the stored bytes and check it against the record",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Document ID"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Extracted metadata", "Metadata"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Merge: &openapi.Operation{
		Summary:     "Merge documents",
		Description: "Concatenate two or more documents in the given order into a new document",
		RequestBody: openapi.RequestBodyJSON("MergeCommand", true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Merged document", "Document"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Split: &openapi.Operation{
		Summary:     "Split document",
		Description: "Produce one new document per page range. Ranges may overlap.",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Document ID"),
		},
		RequestBody: openapi.RequestBodyJSON("SplitRequest", true),
		Responses: map[int]*openapi.Response{
			201: {
				Description: "Split documents in range order",
				Content: map[string]*openapi.MediaType{
					"application/json": {Schema: &openapi.Schema{Type: "array", Items: openapi.SchemaRef("Document")}},
				},
			},
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	InsertText: &openapi.Operation{
		Summary:     "Insert text",
		Description: "Stamp text onto one page, producing a new document",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Document ID"),
		},
		RequestBody: openapi.RequestBodyJSON("InsertTextCommand", true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Edited document", "Document"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
}

func (spec) Schemas() map[string]*openapi.Schema {
	pageRange := &openapi.Schema{
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"start": {Type: "integer", Description: "First page (1-based, inclusive)"},
			"end":   {Type: "integer", Description: "Last page (inclusive)"},
		},
		Required: []string{"start", "end"},
	}

	return map[string]*openapi.Schema{
		"BatchResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"documents": {Type: "array", Items: openapi.SchemaRef("Document")},
				"errors": {
					Type: "array",
					Items: &openapi.Schema{
						Type: "object",
						Properties: map[string]*openapi.Schema{
							"filename": {Type: "string"},
							"kind":     {Type: "string"},
							"message":  {Type: "string"},
						},
					},
				},
			},
		},
		"Document": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":                {Type: "string", Format: "uuid"},
				"name":              {Type: "string", Description: "Display name"},
				"filename":          {Type: "string"},
				"storage_key":       {Type: "string", Description: "Artifact location"},
				"checksum":          {Type: "string", Description: "BLAKE3 hex digest of the bytes"},
				"size_bytes":        {Type: "integer", Format: "int64"},
				"page_count":        {Type: "integer"},
				"title":             {Type: "string"},
				"author":            {Type: "string"},
				"subject":           {Type: "string"},
				"creator":           {Type: "string"},
				"producer":          {Type: "string"},
				"creation_date":     {Type: "string", Format: "date-time"},
				"modification_date": {Type: "string", Format: "date-time"},
				"encrypted":         {Type: "boolean"},
				"provenance":        {Type: "string", Enum: []string{"original", "merged", "split", "edited"}},
				"sources":           {Type: "array", Items: &openapi.Schema{Type: "string", Format: "uuid"}},
				"owner_id":          {Type: "string"},
				"created_at":        {Type: "string", Format: "date-time"},
			},
		},
		"Metadata": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"page_count":        {Type: "integer"},
				"title":             {Type: "string"},
				"author":            {Type: "string"},
				"subject":           {Type: "string"},
				"creator":           {Type: "string"},
				"producer":          {Type: "string"},
				"creation_date":     {Type: "string", Format: "date-time"},
				"modification_date": {Type: "string", Format: "date-time"},
				"encrypted":         {Type: "boolean"},
			},
		},
		"MergeCommand": {
			Type:     "object",
			Required: []string{"source_ids"},
			Properties: map[string]*openapi.Schema{
				"source_ids":  {Type: "array", Items: &openapi.Schema{Type: "string", Format: "uuid"}},
				"output_name": {Type: "string"},
			},
		},
		"SplitRequest": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"ranges":       {Type: "array", Items: pageRange},
				"pages":        {Type: "string", Description: "Page expression such as \"1-2,3\"; alternative to ranges"},
				"output_names": {Type: "array", Items: &openapi.Schema{Type: "string"}},
			},
		},
		"InsertTextCommand": {
			Type:     "object",
			Required: []string{"page", "text"},
			Properties: map[string]*openapi.Schema{
				"page":      {Type: "integer"},
				"text":      {Type: "string"},
				"x":         {Type: "number", Description: "Points from the left edge (default 50)"},
				"y":         {Type: "number", Description: "Points from the bottom edge (default page height - 50)"},
				"font_size": {Type: "number", Description: "Default 12"},
				"color": {
					Description: "RGB channels in [0,1] as an object, or a \"#RRGGBB\" string (default black)",
					Properties: map[string]*openapi.Schema{
						"r": {Type: "number"},
						"g": {Type: "number"},
						"b": {Type: "number"},
					},
				},
			},
		},
		"DocumentPageResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data":        {Type: "array", Items: openapi.SchemaRef("Document")},
				"total":       {Type: "integer"},
				"page":        {Type: "integer"},
				"page_size":   {Type: "integer"},
				"total_pages": {Type: "integer"},
			},
		},
	}
}
