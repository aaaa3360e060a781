package tools

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"github.com/ulikunitz/xz"

	"github.com/kabirmdasraful/wrapdisc/pkg"
)

const (
	stateDir   = ".devtask"
	stampsName = "tools.stamps"
)

// Fetch downloads and unpacks every manifest tool that declares an archive
// URL. A tool is skipped when its URL and checksum match the stamps from a
// previous run and the destination still exists.
func Fetch(ctx context.Context, projectRoot string, manifest Manifest) error {
	client := &http.Client{Timeout: time.Minute * 30}

	stamps, err := readStamps(projectRoot)
	if err != nil {
		return err
	}

	for _, name := range manifest.Names() {
		spec := manifest.Tools[name]
		if spec.URL == "" {
			continue
		}

		url := spec.ExpandURL()
		if spec.Sha256 == "" {
			return eris.Errorf("Tool %s doesn't have a checksum", name)
		}

		dest := filepath.Join(projectRoot, spec.destDir(name))
		_, err := os.Stat(dest)
		destExists := err == nil
		if err != nil && !eris.Is(err, os.ErrNotExist) {
			return eris.Wrapf(err, "Failed to check %s", dest)
		}

		stampToken := url + "#" + spec.Sha256
		if stamps[name] == stampToken && destExists {
			continue
		}

		pkg.PrintSubtask(name + ":  " + url)
		if err := fetchOne(ctx, client, url, dest, spec); err != nil {
			return err
		}

		// Stamps are written after every tool so an aborted run doesn't
		// lose the finished ones.
		stamps[name] = stampToken
		if err := writeStamps(projectRoot, stamps); err != nil {
			return err
		}
	}

	return nil
}

func fetchOne(ctx context.Context, client *http.Client, url, dest string, spec Spec) error {
	archive, err := os.CreateTemp("", "devtask-dl-*")
	if err != nil {
		return eris.Wrap(err, "Failed to create the download file")
	}
	defer func() {
		archive.Close()
		os.Remove(archive.Name())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return eris.Wrapf(err, "Invalid URL %s", url)
	}

	resp, err := client.Do(req)
	if err != nil {
		return eris.Wrapf(err, "Failed to start download for %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("Download of %s failed with status %s", url, resp.Status)
	}

	hash := sha256.New()
	bar := fetchBar(resp.ContentLength, "     download")
	_, err = io.Copy(io.MultiWriter(archive, hash, bar), resp.Body)
	bar.Finish()
	if err != nil {
		return eris.Wrapf(err, "Failed during download of %s", url)
	}

	digest := hex.EncodeToString(hash.Sum(nil))
	if digest != spec.Sha256 {
		return eris.Errorf("Checksum mismatch for %s: expected %s, got %s", url, spec.Sha256, digest)
	}

	if err := os.RemoveAll(dest); err != nil {
		return eris.Wrapf(err, "Failed to remove the previous %s", dest)
	}

	extract, err := extractorFor(url)
	if err != nil {
		return err
	}

	if _, err := archive.Seek(0, io.SeekStart); err != nil {
		return eris.Wrap(err, "Failed to rewind the downloaded archive")
	}

	bar = fetchBar(resp.ContentLength, "      extract")
	err = extract(archive, bar, dest, spec)
	bar.Finish()
	if err != nil {
		return err
	}

	if runtime.GOOS != "windows" {
		// .zip files don't carry permissions which means binaries have to
		// be fixed up manually.
		for _, binPath := range spec.MarkExec {
			binPath = filepath.Join(dest, binPath)
			info, err := os.Stat(binPath)
			if err != nil {
				return eris.Wrapf(err, "Failed to read permissions for %s", binPath)
			}

			if err := os.Chmod(binPath, info.Mode()|0700); err != nil {
				return eris.Wrapf(err, "Failed to mark %s as executable", binPath)
			}
		}
	}

	return nil
}

type extractor func(archive *os.File, bar *progressbar.ProgressBar, dest string, spec Spec) error

func extractorFor(url string) (extractor, error) {
	switch {
	case strings.HasSuffix(url, ".zip"):
		return extractZip, nil
	case strings.HasSuffix(url, ".tar.gz"), strings.HasSuffix(url, ".tgz"):
		return tarExtractor(func(f io.Reader) (io.Reader, error) {
			return gzip.NewReader(f)
		}), nil
	case strings.HasSuffix(url, ".tar.bz2"):
		return tarExtractor(func(f io.Reader) (io.Reader, error) {
			return bzip2.NewReader(f), nil
		}), nil
	case strings.HasSuffix(url, ".tar.xz"):
		return tarExtractor(func(f io.Reader) (io.Reader, error) {
			return xz.NewReader(f)
		}), nil
	}

	return nil, eris.Errorf("Archive format of %s is not supported", url)
}

func tarExtractor(decompress func(io.Reader) (io.Reader, error)) extractor {
	return func(archive *os.File, bar *progressbar.ProgressBar, dest string, spec Spec) error {
		reader, err := decompress(archive)
		if err != nil {
			return eris.Wrap(err, "Failed to open the archive")
		}

		return extractTar(reader, archive, bar, dest, spec)
	}
}

func extractTar(r io.Reader, archive *os.File, bar *progressbar.ProgressBar, dest string, spec Spec) error {
	reader := tar.NewReader(r)

	for {
		item, err := reader.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return eris.Wrap(err, "Failed to read the next archive entry")
		}

		info := item.FileInfo()
		if info.IsDir() {
			continue
		}

		target, ok, err := entryDest(dest, item.Name, spec.Strip)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		if item.Typeflag == tar.TypeSymlink {
			if err := os.Symlink(item.Linkname, target); err != nil {
				return eris.Wrapf(err, "Failed to create symlink %s", target)
			}
			continue
		}

		if err := writeEntry(target, reader, info.Mode()); err != nil {
			return eris.Wrapf(err, "Failed to extract %s", item.Name)
		}

		if pos, err := archive.Seek(0, io.SeekCurrent); err == nil {
			bar.Set64(pos)
		}
	}

	return nil
}

func extractZip(archive *os.File, bar *progressbar.ProgressBar, dest string, spec Spec) error {
	stat, err := archive.Stat()
	if err != nil {
		return eris.Wrap(err, "Failed to stat the downloaded archive")
	}

	reader, err := zip.NewReader(archive, stat.Size())
	if err != nil {
		return eris.Wrap(err, "Failed to open the archive")
	}

	for _, item := range reader.File {
		if strings.HasSuffix(item.Name, "/") {
			continue
		}

		target, ok, err := entryDest(dest, item.Name, spec.Strip)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		content, err := item.Open()
		if err != nil {
			return eris.Wrapf(err, "Failed to open archive entry %s", item.Name)
		}

		err = writeEntry(target, content, item.Mode())
		content.Close()
		if err != nil {
			return eris.Wrapf(err, "Failed to extract %s", item.Name)
		}

		bar.Add64(int64(item.CompressedSize64))
	}

	return nil
}

// entryDest resolves an archive entry to its extraction path, stripping the
// configured number of leading path elements. Entries that would land
// outside dest are rejected.
func entryDest(dest, name string, strip int) (string, bool, error) {
	parts := strings.Split(path.Clean(filepath.ToSlash(name)), "/")
	if len(parts) <= strip {
		return "", false, nil
	}

	parts = parts[strip:]
	for _, part := range parts {
		if part == ".." {
			return "", false, eris.Errorf("Archive entry %s escapes the destination directory", name)
		}
	}

	target := filepath.Join(dest, filepath.Join(parts...))
	if err := os.MkdirAll(filepath.Dir(target), 0770); err != nil {
		return "", false, eris.Wrapf(err, "Failed to create the directory for %s", name)
	}

	return target, true, nil
}

func writeEntry(target string, content io.Reader, mode os.FileMode) error {
	perm := mode.Perm()
	if perm == 0 {
		perm = 0660
	}

	handle, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	_, err = io.Copy(handle, content)
	if closeErr := handle.Close(); err == nil {
		err = closeErr
	}

	return err
}

func stampsPath(projectRoot string) string {
	return filepath.Join(projectRoot, stateDir, stampsName)
}

func readStamps(projectRoot string) (map[string]string, error) {
	stamps := map[string]string{}

	content, err := os.ReadFile(stampsPath(projectRoot))
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return stamps, nil
		}
		return nil, eris.Wrap(err, "Failed to read the tool stamps")
	}

	if err := json.Unmarshal(content, &stamps); err != nil {
		return nil, eris.Wrap(err, "Failed to parse the tool stamps")
	}

	return stamps, nil
}

func writeStamps(projectRoot string, stamps map[string]string) error {
	target := stampsPath(projectRoot)
	if err := os.MkdirAll(filepath.Dir(target), 0770); err != nil {
		return eris.Wrapf(err, "Failed to create %s", filepath.Dir(target))
	}

	content, err := json.Marshal(stamps)
	if err != nil {
		return eris.Wrap(err, "Failed to serialize the tool stamps")
	}

	if err := os.WriteFile(target, content, 0660); err != nil {
		return eris.Wrap(err, "Failed to write the tool stamps")
	}

	return nil
}

func fetchBar(length int64, desc string) *progressbar.ProgressBar {
	if os.Getenv("CI") == "true" {
		return progressbar.NewOptions64(length, progressbar.OptionSetVisibility(false))
	}

	return progressbar.DefaultBytes(length, desc)
}
