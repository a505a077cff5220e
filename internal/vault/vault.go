// Package vault manages the attachment store backing file and image
// fields. Attachments live under <dataDir>/vault/files as uuid-named
// copies; records store vault-relative references with forward slashes,
// so a database plus its vault directory moves between machines intact.
package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const filesDir = "files"

// Vault is an attachment store rooted in one directory.
type Vault struct {
	root string
}

// Open ensures the vault directory layout exists under dataDir and
// returns a handle to it.
func Open(dataDir string) (*Vault, error) {
	root := filepath.Join(dataDir, "vault")
	if err := os.MkdirAll(filepath.Join(root, filesDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating vault directory: %w", err)
	}
	return &Vault{root: root}, nil
}

// Root returns the vault's base directory.
func (v *Vault) Root() string { return v.root }

// Store copies a file into the vault under a fresh uuid name, keeping the
// original extension, and returns the vault-relative reference.
func (v *Vault) Store(src string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating attachment UUID v7: %w", err)
	}
	name := id.String() + filepath.Ext(src)
	rel := filesDir + "/" + name

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("opening attachment source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(filepath.Join(v.root, filesDir, name))
	if err != nil {
		return "", fmt.Errorf("creating vault file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", fmt.Errorf("copying attachment into vault: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("closing vault file: %w", err)
	}
	return rel, nil
}

// Normalize turns user input into a stored attachment reference. An
// absolute path to an existing file is copied into the vault; a reference
// to a file already in the vault passes through cleaned. Anything else,
// including paths that escape the vault, normalizes to the empty
// reference rather than erroring.
func (v *Vault) Normalize(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", nil
	}
	if filepath.IsAbs(s) {
		if _, err := os.Stat(s); err != nil {
			return "", nil
		}
		return v.Store(s)
	}
	rel, ok := cleanRel(s)
	if !ok {
		return "", nil
	}
	if _, err := os.Stat(filepath.Join(v.root, filepath.FromSlash(rel))); err != nil {
		return "", nil
	}
	return rel, nil
}

// Resolve maps a stored reference to an absolute path inside the vault.
// References that escape the vault resolve to "".
func (v *Vault) Resolve(ref string) string {
	rel, ok := cleanRel(ref)
	if !ok {
		return ""
	}
	return filepath.Join(v.root, filepath.FromSlash(rel))
}

// cleanRel normalizes a vault-relative reference to forward slashes and
// rejects empty or escaping paths.
func cleanRel(ref string) (string, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(ref, "\\", "/"))
	if s == "" {
		return "", false
	}
	cleaned := filepath.ToSlash(filepath.Clean(filepath.FromSlash(s)))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") || strings.HasPrefix(cleaned, "/") {
		return "", false
	}
	return cleaned, true
}
