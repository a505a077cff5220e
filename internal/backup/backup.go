// Package backup zips a data directory's database and vault into a single
// portable snapshot and restores such snapshots in place. The store must
// be flushed before a snapshot and closed before a restore; the functions
// here only move bytes.
package backup

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/trestle/internal/store"
)

// Zip entry prefixes. The database sits under data/ and attachments keep
// their vault-relative layout under vault/.
const (
	dbEntryDir    = "data"
	vaultEntryDir = "vault"
)

// Snapshot writes a zip archive of the data directory's database file and
// vault directory. A missing vault is fine; a missing database is not.
func Snapshot(dataDir, outPath string) error {
	dbPath := filepath.Join(dataDir, store.DBFileName)
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("locating database: %w", err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}
	zw := zip.NewWriter(out)

	fail := func(err error) error {
		zw.Close()
		out.Close()
		os.Remove(outPath)
		return err
	}

	if err := addFile(zw, dbPath, dbEntryDir+"/"+store.DBFileName); err != nil {
		return fail(err)
	}

	vaultDir := filepath.Join(dataDir, vaultEntryDir)
	if info, err := os.Stat(vaultDir); err == nil && info.IsDir() {
		err := filepath.WalkDir(vaultDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			rel, err := filepath.Rel(vaultDir, path)
			if err != nil {
				return err
			}
			return addFile(zw, path, vaultEntryDir+"/"+filepath.ToSlash(rel))
		})
		if err != nil {
			return fail(fmt.Errorf("archiving vault: %w", err))
		}
	}

	if err := zw.Close(); err != nil {
		out.Close()
		os.Remove(outPath)
		return fmt.Errorf("finishing snapshot: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing snapshot file: %w", err)
	}
	return nil
}

func addFile(zw *zip.Writer, path, entry string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	w, err := zw.Create(entry)
	if err != nil {
		return fmt.Errorf("creating archive entry %s: %w", entry, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("archiving %s: %w", entry, err)
	}
	return nil
}

// Restore replaces the data directory's database, and vault when the
// archive carries one, with the snapshot's contents. Stale WAL sidecar
// files are removed so the restored database is read as-is on next open.
func Restore(dataDir, srcPath string) error {
	zr, err := zip.OpenReader(srcPath)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer zr.Close()

	dbFile := findDBEntry(&zr.Reader)
	if dbFile == nil {
		return errors.New("snapshot contains no database")
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, store.DBFileName)
	if err := extractFile(dbFile, dbPath); err != nil {
		return err
	}
	for _, sidecar := range []string{dbPath + "-wal", dbPath + "-shm"} {
		if err := os.Remove(sidecar); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", sidecar, err)
		}
	}

	if !hasVaultEntries(&zr.Reader) {
		return nil
	}
	vaultDir := filepath.Join(dataDir, vaultEntryDir)
	if err := os.RemoveAll(vaultDir); err != nil {
		return fmt.Errorf("clearing vault: %w", err)
	}
	for _, f := range zr.File {
		rel, ok := entryRel(f.Name, vaultEntryDir)
		if !ok || strings.HasSuffix(f.Name, "/") {
			continue
		}
		dst := filepath.Join(vaultDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("creating vault subdirectory: %w", err)
		}
		if err := extractFile(f, dst); err != nil {
			return err
		}
	}
	return nil
}

// findDBEntry picks the database file out of the archive: the canonical
// data/ entry when present, otherwise any .db or .sqlite3 file.
func findDBEntry(zr *zip.Reader) *zip.File {
	canonical := dbEntryDir + "/" + store.DBFileName
	for _, f := range zr.File {
		if f.Name == canonical {
			return f
		}
	}
	for _, f := range zr.File {
		ext := strings.ToLower(filepath.Ext(f.Name))
		if ext == ".db" || ext == ".sqlite3" {
			return f
		}
	}
	return nil
}

func hasVaultEntries(zr *zip.Reader) bool {
	for _, f := range zr.File {
		if _, ok := entryRel(f.Name, vaultEntryDir); ok {
			return true
		}
	}
	return false
}

// entryRel returns an archive entry's path relative to the given top-level
// directory, rejecting entries that sit elsewhere or escape it.
func entryRel(name, dir string) (string, bool) {
	rel, ok := strings.CutPrefix(name, dir+"/")
	if !ok || rel == "" {
		return "", false
	}
	clean := filepath.ToSlash(filepath.Clean(filepath.FromSlash(rel)))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") || strings.HasPrefix(clean, "/") {
		return "", false
	}
	return clean, true
}

// extractFile writes one archive entry to dst via a temp file and rename,
// so an interrupted restore never leaves a half-written target.
func extractFile(f *zip.File, dst string) error {
	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening archive entry %s: %w", f.Name, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".restore-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("extracting %s: %w", f.Name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing %s: %w", f.Name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", dst, err)
	}
	return nil
}
