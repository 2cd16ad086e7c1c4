package provision

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"discompressor/internal/services"
)

var (
	zipMagic  = []byte("PK\x03\x04")
	gzipMagic = []byte{0x1f, 0x8b}
)

// extractArchive unpacks a zip or gzip-compressed tar archive into dest. The
// format is detected from the file contents.
func extractArchive(archivePath, dest string) error {
	head, err := readHeader(archivePath, 4)
	if err != nil {
		return services.Wrap(services.ErrProvision, "extract", "open archive", "", err)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return services.Wrap(services.ErrProvision, "extract", "create staging dir", "", err)
	}
	switch {
	case bytes.HasPrefix(head, zipMagic):
		err = extractZip(archivePath, dest)
	case bytes.HasPrefix(head, gzipMagic):
		err = extractTarGz(archivePath, dest)
	default:
		return services.Wrap(services.ErrProvision, "extract", "detect format", "unsupported archive format", nil)
	}
	if err != nil {
		return services.Wrap(services.ErrProvision, "extract", "unpack", "", err)
	}
	return nil
}

func readHeader(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:read], nil
}

func extractZip(archivePath, dest string) error {
	zr, err := zip.OpenReader(archivePath)
	if errors.Is(err, zip.ErrInsecurePath) {
		zr.Close()
		return fmt.Errorf("archive entry escapes the staging directory: %w", err)
	}
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, file := range zr.File {
		target, err := stagedPath(dest, file.Name)
		if err != nil {
			return err
		}
		mode := file.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case mode.IsRegular():
			rc, err := file.Open()
			if err != nil {
				return fmt.Errorf("open %s: %w", file.Name, err)
			}
			err = writeFile(target, rc, mode.Perm())
			rc.Close()
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func extractTarGz(archivePath, dest string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()
	gz, err := gzip.NewReader(bufio.NewReader(f))
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, tar.ErrInsecurePath) {
			return fmt.Errorf("archive entry %q escapes the staging directory: %w", hdr.Name, err)
		}
		if err != nil {
			return err
		}
		target, err := stagedPath(dest, hdr.Name)
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, os.FileMode(hdr.Mode).Perm()); err != nil {
				return err
			}
		}
	}
}

// stagedPath joins name onto root and rejects entries that would land
// outside it.
func stagedPath(root, name string) (string, error) {
	cleanName := strings.ReplaceAll(name, `\`, "/")
	if strings.HasPrefix(cleanName, "/") || filepath.IsAbs(cleanName) || filepath.VolumeName(cleanName) != "" {
		return "", fmt.Errorf("archive entry %q is an absolute path", name)
	}
	target := filepath.Join(root, filepath.FromSlash(cleanName))
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry %q escapes the staging directory", name)
	}
	return target, nil
}

func writeFile(target string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(target), err)
	}
	return out.Close()
}

// releaseBinDir returns <root>/<single top-level dir>/bin.
func releaseBinDir(root string) (string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", services.Wrap(services.ErrProvision, "extract", "inspect", "", err)
	}
	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		}
	}
	if len(dirs) != 1 {
		return "", services.Wrap(services.ErrProvision, "extract", "inspect",
			fmt.Sprintf("expected one top-level directory in archive, found %d", len(dirs)), nil)
	}
	binDir := filepath.Join(root, dirs[0], "bin")
	info, err := os.Stat(binDir)
	if err != nil || !info.IsDir() {
		return "", services.Wrap(services.ErrProvision, "extract", "inspect", "archive has no bin directory under "+dirs[0], nil)
	}
	return binDir, nil
}
