package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestEmbeddedFiles(t *testing.T) {
	entries, err := fs.ReadDir(files, "sql")
	if err != nil {
		t.Fatalf("ReadDir() failed: %v", err)
	}

	ups, downs := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file %s", name)
		}
	}

	if len(ups) < 3 {
		t.Errorf("found %d up migrations, want at least 3", len(ups))
	}
	for version := range ups {
		if !downs[version] {
			t.Errorf("migration %s has no down file", version)
		}
	}
}

func TestSchemaColumns(t *testing.T) {
	tests := []struct {
		file    string
		columns []string
	}{
		{
			"sql/000001_documents.up.sql",
			[]string{"storage_key", "checksum", "page_count", "provenance", "sources", "owner_id", "deleted_at"},
		},
		{
			"sql/000002_share_links.up.sql",
			[]string{"token", "document_id", "expires_at", "max_downloads", "download_count", "active", "deactivated_at"},
		},
		{
			"sql/000003_share_links_allow_download.up.sql",
			[]string{"allow_download"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			data, err := fs.ReadFile(files, tt.file)
			if err != nil {
				t.Fatalf("ReadFile() failed: %v", err)
			}
			for _, col := range tt.columns {
				if !strings.Contains(string(data), col) {
					t.Errorf("%s missing column %s", tt.file, col)
				}
			}
		})
	}
}
