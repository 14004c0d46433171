package output

import (
	"io"
	"net/http"
)

type Printer interface {
	PrintStatusLine(proto string, status string, statusCode int) error
	PrintRequestLine(req *http.Request) error
	PrintHeader(header http.Header) error
	PrintBody(body io.Reader, contentType string) error
	PrintDownload(length int64, filename string) error
}

// NewPrinter picks the printer matching the formatting options.
func NewPrinter(w io.Writer, options *Options) Printer {
	if options.EnableFormat || options.EnableColor {
		return NewPrettyPrinter(PrettyPrinterConfig{
			Writer:       w,
			EnableColor:  options.EnableColor,
			EnableFormat: options.EnableFormat,
		})
	}
	return NewPlainPrinter(w)
}
