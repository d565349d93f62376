package feed

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
	"github.com/xyproto/unzip"
)

// openBars opens a bar file for reading, transparently decompressing
// .xz payloads.
func openBars(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(path, ".xz") {
		r, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open xz %s: %w", path, err)
		}
		return &xzFile{f: f, r: r}, nil
	}
	return f, nil
}

type xzFile struct {
	f *os.File
	r *xz.Reader
}

func (x *xzFile) Read(p []byte) (int, error) { return x.r.Read(p) }
func (x *xzFile) Close() error               { return x.f.Close() }

// extractArchives unpacks every .zip under dir into cacheDir so the
// loader can treat archived history like plain files. Already
// extracted archives are skipped by member presence.
func extractArchives(dir, cacheDir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".zip") {
			continue
		}
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			return err
		}
		src := filepath.Join(dir, e.Name())
		if err := unzip.Extract(src, cacheDir); err != nil {
			return fmt.Errorf("extract %s: %w", src, err)
		}
	}
	return nil
}

// symbolFromPath derives the instrument symbol from a bar file name:
// "ethusdt.csv.xz" -> "ETHUSDT".
func symbolFromPath(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, ".xz")
	name = strings.TrimSuffix(name, ".csv")
	return strings.ToUpper(name)
}

// listBarFiles returns the bar files directly under dir, sorted.
func listBarFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		if strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".csv.xz") {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}
