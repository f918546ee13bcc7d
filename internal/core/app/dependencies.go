// # internal/core/app/dependencies.go
package app

import (
	"encoding/json"
	"os"
	"path/filepath"
)

type packageManifest struct {
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
}

// DetectDependencies unions every dependency section of package.json in cwd.
// A missing or malformed manifest yields an empty set; detection never fails
// the analysis.
func DetectDependencies(cwd string) map[string]bool {
	deps := make(map[string]bool)

	content, err := os.ReadFile(filepath.Join(cwd, "package.json"))
	if err != nil {
		return deps
	}

	var manifest packageManifest
	if err := json.Unmarshal(content, &manifest); err != nil {
		return deps
	}

	for _, section := range []map[string]string{
		manifest.Dependencies,
		manifest.DevDependencies,
		manifest.PeerDependencies,
		manifest.OptionalDependencies,
	} {
		for name := range section {
			deps[name] = true
		}
	}
	return deps
}
