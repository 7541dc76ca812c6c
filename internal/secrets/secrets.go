// Package secrets loads API keys from a directory of plain-text files.
// Each file holds one secret: the filename is the key name and the trimmed
// contents are the value, e.g. .secrets/openai-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvNames maps secret file names onto the environment variables the
// providers read, so a .secrets entry behaves like an exported key.
var EnvNames = map[string]string{
	"openai-api-key":    "OPENAI_API_KEY",
	"kimi-api-key":      "KIMI_API_KEY",
	"moonshot-api-key":  "MOONSHOT_API_KEY",
	"deepseek-api-key":  "DEEPSEEK_API_KEY",
	"anthropic-api-key": "ANTHROPIC_API_KEY",
	"gemini-api-key":    "GEMINI_API_KEY",
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory is not an error. Unreadable files are reported on stderr and skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		name := entry.Name()

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Export sets the mapped environment variables for loaded secrets.
// Variables already present in the environment win.
func Export(secrets map[string]string) []string {
	var set []string
	for name, value := range secrets {
		env, ok := EnvNames[name]
		if !ok || os.Getenv(env) != "" {
			continue
		}
		if err := os.Setenv(env, value); err == nil {
			set = append(set, env)
		}
	}
	return set
}
