// Package archive builds the gzip-compressed tar archive that venus-deploy
// uploads to the target device.
//
// Rules filters out version-control metadata, caches and compiled artifacts;
// Build walks the source tree, applies the rules and produces a temporary
// tar.gz whose single top-level entry carries the source directory's base
// name, together with a SHA-512 digest of the archive bytes.
package archive
