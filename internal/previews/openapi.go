package previews

import "github.com/JaimeStill/pdf-lab/pkg/openapi"

type spec struct {
	Preview *openapi.Operation
}

var Spec = spec{
	Preview: &openapi.Operation{
		Summary:     "Render page preview",
		Description: "Rasterise one page of a live document. Results are cached per document content and options.",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Document ID"),
			openapi.PathParamOf("page", "integer", "Page number (1-based)"),
			openapi.QueryParam("format", "string", "png (default) or jpg", false),
			openapi.QueryParam("dpi", "integer", "Resolution, 36-600 (default 150)", false),
			openapi.QueryParam("quality", "integer", "JPEG quality, 1-100", false),
			openapi.QueryParam("brightness", "integer", "0-200", false),
			openapi.QueryParam("contrast", "integer", "-100 to 100", false),
			openapi.QueryParam("saturation", "integer", "0-200", false),
			openapi.QueryParam("rotation", "integer", "Degrees, 0-360", false),
			openapi.QueryParam("background", "string", "Background colour (default white)", false),
		},
		Responses: map[int]*openapi.Response{
			200: {
				Description: "Rendered page",
				Content: map[string]*openapi.MediaType{
					"image/png":  {Schema: &openapi.Schema{Type: "string", Format: "binary"}},
					"image/jpeg": {Schema: &openapi.Schema{Type: "string", Format: "binary"}},
				},
			},
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
}
