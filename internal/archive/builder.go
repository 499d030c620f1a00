package archive

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// errNotDirectory indicates the source path exists but is not a directory.
var errNotDirectory = errors.New("source is not a directory")

// Result describes a successfully built deployment archive.
type Result struct {
	// Path is the location of the tar.gz file in private temporary storage.
	// The caller owns the file and must remove it on every exit path.
	Path string
	// RootName is the archive's single top-level entry, always equal to the
	// base name of the source directory.
	RootName string
	// Digest is the hex-encoded SHA-512 checksum of the archive bytes.
	Digest string
}

// Build packages sourceDir into a gzip-compressed tar archive in a private
// temporary file, applying rules to every entry. The top-level entry is
// named after the source directory's base name so remote extraction
// reproduces the same directory name. On any failure the partial archive
// is removed and an error is returned.
func Build(ctx context.Context, sourceDir string, rules *Rules) (*Result, error) {
	absSource, err := filepath.Abs(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("resolve source path: %w", err)
	}

	info, err := os.Stat(absSource)
	if err != nil {
		return nil, fmt.Errorf("source directory %s: %w", sourceDir, err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", sourceDir, errNotDirectory)
	}

	out, err := os.CreateTemp("", "venus-deploy-*.tar.gz")
	if err != nil {
		return nil, fmt.Errorf("create temporary archive: %w", err)
	}

	rootName := filepath.Base(absSource)

	hasher := sha512.New()

	if err = writeArchive(ctx, out, hasher, absSource, rootName, rules); err != nil {
		// The partial file is not a valid archive; discard it.
		_ = out.Close()
		_ = os.Remove(out.Name())

		return nil, err
	}

	if err = out.Close(); err != nil {
		_ = os.Remove(out.Name())
		return nil, fmt.Errorf("close archive: %w", err)
	}

	return &Result{
		Path:     out.Name(),
		RootName: rootName,
		Digest:   hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// writeArchive streams the filtered source tree as tar entries into out,
// feeding the same bytes through the digest hasher.
func writeArchive(
	ctx context.Context,
	out io.Writer,
	hasher hash.Hash,
	absSource, rootName string,
	rules *Rules,
) error {
	gzWriter := gzip.NewWriter(io.MultiWriter(out, hasher))
	tarWriter := tar.NewWriter(gzWriter)

	err := filepath.WalkDir(absSource, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("walk %s: %w", path, walkErr)
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(absSource, path)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", path, err)
		}

		if rel != "." && rules.Excludes(rel) {
			if entry.IsDir() {
				// Prune the whole subtree.
				return fs.SkipDir
			}

			return nil
		}

		return addEntry(tarWriter, path, archiveName(rootName, rel), entry)
	})
	if err != nil {
		return err
	}

	if err = tarWriter.Close(); err != nil {
		return fmt.Errorf("finalize tar stream: %w", err)
	}

	if err = gzWriter.Close(); err != nil {
		return fmt.Errorf("finalize gzip stream: %w", err)
	}

	return nil
}

// archiveName maps a source-relative path to its name inside the archive.
func archiveName(rootName, rel string) string {
	if rel == "." {
		return rootName
	}

	return rootName + "/" + filepath.ToSlash(rel)
}

// addEntry writes one tar header (and, for regular files, the contents).
func addEntry(tarWriter *tar.Writer, path, name string, entry fs.DirEntry) error {
	info, err := entry.Info()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	var link string

	if info.Mode()&fs.ModeSymlink != 0 {
		if link, err = os.Readlink(path); err != nil {
			return fmt.Errorf("read symlink %s: %w", path, err)
		}
	}

	header, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return fmt.Errorf("tar header for %s: %w", path, err)
	}

	header.Name = name
	if info.IsDir() {
		header.Name += "/"
	}

	if err = tarWriter.WriteHeader(header); err != nil {
		return fmt.Errorf("write tar header for %s: %w", name, err)
	}

	if !info.Mode().IsRegular() {
		return nil
	}

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	_, err = io.Copy(tarWriter, file)

	if closeErr := file.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("archive %s: %w", path, err)
	}

	return nil
}
