package routes_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/pdf-lab/pkg/openapi"
	"github.com/JaimeStill/pdf-lab/pkg/routes"
)

func writeBody(s string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(s))
	}
}

func testGroup() routes.Group {
	return routes.Group{
		Prefix: "/documents",
		Tags:   []string{"Documents"},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: writeBody("list"), OpenAPI: &openapi.Operation{Summary: "List"}},
			{Method: "GET", Pattern: "/{id}", Handler: writeBody("find"), OpenAPI: &openapi.Operation{Summary: "Find", Tags: []string{"Admin"}}},
			{Method: "GET", Pattern: "/{id}/raw", Handler: writeBody("raw")},
		},
		Children: []routes.Group{
			{
				Prefix: "/merge",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "", Handler: writeBody("merge"), OpenAPI: &openapi.Operation{Summary: "Merge"}},
				},
			},
		},
		Schemas: map[string]*openapi.Schema{
			"Document": {Type: "object"},
		},
	}
}

func TestGroup_AddToSpec(t *testing.T) {
	spec := openapi.NewSpec("Test API", "1.0.0")
	group := testGroup()
	group.AddToSpec("/api", spec)

	list := spec.Paths["/api/documents"]
	if list == nil || list.Get == nil {
		t.Fatal("GET /api/documents not added")
	}
	if len(list.Get.Tags) != 1 || list.Get.Tags[0] != "Documents" {
		t.Errorf("inherited tags = %v, want [Documents]", list.Get.Tags)
	}

	if tags := spec.Paths["/api/documents/{id}"].Get.Tags; len(tags) != 1 || tags[0] != "Admin" {
		t.Errorf("explicit tags = %v, want [Admin]", tags)
	}

	if spec.Paths["/api/documents/{id}/raw"] != nil {
		t.Error("route without OpenAPI should not be documented")
	}

	if merge := spec.Paths["/api/documents/merge"]; merge == nil || merge.Post == nil {
		t.Error("child route not added")
	}

	if spec.Components.Schemas["Document"] == nil {
		t.Error("group schema not added")
	}
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()
	spec := openapi.NewSpec("Test API", "1.0.0")

	routes.Register(mux, "/api", spec, testGroup())

	tests := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodGet, "/documents", "list"},
		{http.MethodGet, "/documents/123", "find"},
		{http.MethodGet, "/documents/123/raw", "raw"},
		{http.MethodPost, "/documents/merge", "merge"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			body, _ := io.ReadAll(w.Result().Body)
			if string(body) != tt.want {
				t.Errorf("body = %q, want %q", string(body), tt.want)
			}
		})
	}
}
