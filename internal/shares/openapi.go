package shares

import "github.com/JaimeStill/pdf-lab/pkg/openapi"

type spec struct {
	List       *openapi.Operation
	Issue      *openapi.Operation
	Inspect    *openapi.Operation
	Redeem     *openapi.Operation
	Deactivate *openapi.Operation
}

var Spec = spec{
	List: &openapi.Operation{
		Summary:     "List share links",
		Description: "List the requester's share links",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("page", "integer", "Page number", false),
			openapi.QueryParam("page_size", "integer", "Items per page", false),
			openapi.QueryParam("document_id", "string", "Filter by document", false),
			openapi.QueryParam("active", "boolean", "Filter by active flag", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Share links", "ShareLinkPageResult"),
			403: openapi.ResponseRef("Forbidden"),
		},
	},
	Issue: &openapi.Operation{
		Summary:     "Issue share link",
		Description: "Mint a token bound to a live document, optionally bounded by expiry and download count",
		RequestBody: openapi.RequestBodyJSON("IssueShareCommand", true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Issued link", "ShareLink"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Inspect: &openapi.Operation{
		Summary:     "Inspect share link",
		Description: "Apply the redemption checks without consuming a download",
		Parameters: []*openapi.Parameter{
			openapi.PathParamOf("token", "string", "Share token"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Link and document", "ShareRedemption"),
			404: openapi.ResponseRef("NotFound"),
			410: openapi.ResponseRef("Gone"),
		},
	},
	Redeem: &openapi.Operation{
		Summary:     "Download through share link",
		Description: "Consume one download and stream the shared document. View-only links are refused.",
		Parameters: []*openapi.Parameter{
			openapi.PathParamOf("token", "string", "Share token"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseBinary("PDF attachment", "application/pdf"),
			403: openapi.ResponseRef("Forbidden"),
			404: openapi.ResponseRef("NotFound"),
			410: openapi.ResponseRef("Gone"),
		},
	},
	Deactivate: &openapi.Operation{
		Summary:     "Deactivate share link",
		Description: "Permanently deactivate a link. Deactivating an inactive link succeeds.",
		Parameters: []*openapi.Parameter{
			openapi.PathParamOf("token", "string", "Share token"),
		},
		Responses: map[int]*openapi.Response{
			204: {Description: "Link deactivated"},
			403: openapi.ResponseRef("Forbidden"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
}

func (spec) Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"ShareLink": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":             {Type: "string", Format: "uuid"},
				"token":          {Type: "string"},
				"document_id":    {Type: "string", Format: "uuid"},
				"owner_id":       {Type: "string"},
				"created_at":     {Type: "string", Format: "date-time"},
				"expires_at":     {Type: "string", Format: "date-time"},
				"max_downloads":  {Type: "integer"},
				"download_count": {Type: "integer"},
				"active":         {Type: "boolean"},
				"allow_download": {Type: "boolean"},
				"deactivated_at": {Type: "string", Format: "date-time"},
				"url":            {Type: "string", Description: "Download URL, returned on issue"},
			},
		},
		"IssueShareCommand": {
			Type:     "object",
			Required: []string{"document_id"},
			Properties: map[string]*openapi.Schema{
				"document_id":    {Type: "string", Format: "uuid"},
				"expires_at":     {Type: "string", Format: "date-time"},
				"ttl":            {Type: "string", Description: "Lifetime such as \"24h\"; ignored when expires_at is set"},
				"max_downloads":  {Type: "integer", Description: "Must be at least 1"},
				"allow_download": {Type: "boolean", Description: "False issues a view-only link; defaults to true"},
			},
		},
		"ShareRedemption": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"link":                openapi.SchemaRef("ShareLink"),
				"document":            openapi.SchemaRef("Document"),
				"remaining_downloads": {Type: "integer", Description: "Omitted for unlimited links"},
			},
		},
		"ShareLinkPageResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data":        {Type: "array", Items: openapi.SchemaRef("ShareLink")},
				"total":       {Type: "integer"},
				"page":        {Type: "integer"},
				"page_size":   {Type: "integer"},
				"total_pages": {Type: "integer"},
			},
		},
	}
}
