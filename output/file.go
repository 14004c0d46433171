package output

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var reNumberSuffix = regexp.MustCompile(`\.(\d+)$`)

const defaultDownloadName = "index.html"

type FileWriter struct {
	fullPath string
}

// NewFileWriter decides where a download goes: the --output path when given,
// else a name taken from Content-Disposition or the URL path.
func NewFileWriter(u *url.URL, header http.Header, options *Options) *FileWriter {
	var fullPath string

	if options.OutputFile == "" {
		fullPath = "./" + guessFileName(u, header)
	} else {
		fullPath = options.OutputFile
	}

	if !options.Overwrite && options.OutputFile == "" {
		fullPath = makeNonOverlappingFilename(fullPath)
	}

	return &FileWriter{
		fullPath: fullPath,
	}
}

func guessFileName(u *url.URL, header http.Header) string {
	if _, params, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil {
		if name := filepath.Base(params["filename"]); params["filename"] != "" && name != "." && name != "/" {
			return name
		}
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." || name == "" {
		return defaultDownloadName
	}
	return name
}

func makeNonOverlappingFilename(path string) string {
	_, err := os.Stat(path)
	if err == nil {
		newPath := reNumberSuffix.ReplaceAllStringFunc(path, func(index string) string {
			i, err := strconv.Atoi(strings.TrimPrefix(index, "."))
			if err != nil {
				panic(err)
			}
			i++
			return fmt.Sprintf(".%d", i)
		})
		if path == newPath {
			path = fmt.Sprintf("%s.%d", path, 1)
		} else {
			path = newPath
		}
		path = makeNonOverlappingFilename(path)
	}
	return path
}

// Download writes the response body to the file and reports the size on
// the printer before the transfer starts.
func (f *FileWriter) Download(resp *http.Response, printer Printer) (int64, error) {
	file, err := os.Create(f.fullPath)
	if err != nil {
		return 0, errors.Wrapf(err, "creating '%s'", f.fullPath)
	}
	defer file.Close()

	if err := printer.PrintDownload(resp.ContentLength, f.fullPath); err != nil {
		return 0, err
	}

	n, err := io.Copy(file, resp.Body)
	if err != nil {
		return n, errors.Wrapf(err, "writing '%s'", f.fullPath)
	}
	return n, nil
}

func (f *FileWriter) Filename() string {
	return filepath.Base(f.fullPath)
}

func (f *FileWriter) Path() string {
	return f.fullPath
}
