// Package testutil provides shared test helpers for setting up content trees.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/odshub/internal/storage"
)

// SampleContent is a small content repository with two collections, a
// landing config and a file the pipeline must ignore.
var SampleContent = map[string]string{
	"pages/about/team.md": "---\ntitle: '\"Our Team\"'\n---\n## People\n\nWe share data.\n\n### Leads\n\nNames here.\n",
	"pages/examples/genomic-data.md": "---\ntitle: Genomic Data\n---\n## Overview\n\nSharing genomic data across agencies.\n\n" +
		"```go\nfmt.Println(\"hi\")\n```\n",
	"pages/examples/imaging.md": "Medical imaging data sharing.\n",
	"pages/examples/notes.txt":  "not markdown",

	"config/home.json": `{
  "hero": {"title": "Data Sharing Hub", "subtitle": "Share safely"},
  "gallery": {"title": "Updates", "updates": [{"title": "Examples", "link": "/post/examples/imaging"}]},
  "guidance": {"title": "Guidance", "leftColumnLinks": [{"text": "Team", "href": "/post/about/team"}]},
  "dataSharing": {"title": "Process", "processList": ["Plan", "Share"]}
}`,
}

// ContentTree writes files (relative slash paths to contents) under a
// temporary directory and returns the directory with an FS store over it.
func ContentTree(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, store
}
