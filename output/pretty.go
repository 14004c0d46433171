package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"mime"
	"net/http"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/pkg/errors"
)

type PrettyPrinter struct {
	writer        io.Writer
	plain         Printer
	aurora        aurora.Aurora
	enableFormat  bool
	headerPalette *HeaderPalette
}

type PrettyPrinterConfig struct {
	Writer       io.Writer
	EnableColor  bool
	EnableFormat bool
}

type HeaderPalette struct {
	Method         aurora.Color
	URL            aurora.Color
	Proto          aurora.Color
	SuccessStatus  aurora.Color
	RedirectStatus aurora.Color
	ErrorStatus    aurora.Color
	FieldName      aurora.Color
	FieldValue     aurora.Color
	FieldSeparator aurora.Color
}

const grayFg = aurora.BrightFg | aurora.BlackFg

var defaultHeaderPalette = HeaderPalette{
	Method:         aurora.WhiteFg | aurora.BoldFm,
	URL:            aurora.CyanFg | aurora.UnderlineFm,
	Proto:          aurora.BlueFg,
	SuccessStatus:  aurora.GreenFg | aurora.BoldFm,
	RedirectStatus: aurora.YellowFg | aurora.BoldFm,
	ErrorStatus:    aurora.RedFg | aurora.BoldFm,
	FieldName:      grayFg,
	FieldValue:     aurora.CyanFg,
	FieldSeparator: grayFg,
}

func NewPrettyPrinter(config PrettyPrinterConfig) Printer {
	return &PrettyPrinter{
		writer:        config.Writer,
		plain:         NewPlainPrinter(config.Writer),
		aurora:        aurora.NewAurora(config.EnableColor),
		enableFormat:  config.EnableFormat,
		headerPalette: &defaultHeaderPalette,
	}
}

func (p *PrettyPrinter) PrintStatusLine(proto string, status string, statusCode int) error {
	fmt.Fprintf(p.writer, "%s %s\n",
		p.aurora.Colorize(proto, p.headerPalette.Proto),
		p.aurora.Colorize(status, p.statusColor(statusCode)))
	return nil
}

func (p *PrettyPrinter) statusColor(statusCode int) aurora.Color {
	switch {
	case statusCode >= 400:
		return p.headerPalette.ErrorStatus
	case statusCode >= 300:
		return p.headerPalette.RedirectStatus
	default:
		return p.headerPalette.SuccessStatus
	}
}

func (p *PrettyPrinter) PrintRequestLine(req *http.Request) error {
	fmt.Fprintf(p.writer, "%s %s %s\n",
		p.aurora.Colorize(req.Method, p.headerPalette.Method),
		p.aurora.Colorize(req.URL.RequestURI(), p.headerPalette.URL),
		p.aurora.Colorize(req.Proto, p.headerPalette.Proto))
	return nil
}

func (p *PrettyPrinter) PrintHeader(header http.Header) error {
	for _, name := range sortedNames(header) {
		for _, value := range header[name] {
			fmt.Fprintf(p.writer, "%s%s %s\n",
				p.aurora.Colorize(name, p.headerPalette.FieldName),
				p.aurora.Colorize(":", p.headerPalette.FieldSeparator),
				p.aurora.Colorize(value, p.headerPalette.FieldValue))
		}
	}
	fmt.Fprintln(p.writer)
	return nil
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(contentType))
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// PrintBody indents JSON bodies, keeping key order. Anything that does not
// parse as JSON is printed unchanged.
func (p *PrettyPrinter) PrintBody(body io.Reader, contentType string) error {
	if !p.enableFormat || !isJSON(contentType) {
		return p.plain.PrintBody(body, contentType)
	}

	b, err := ioutil.ReadAll(body)
	if err != nil {
		return errors.Wrap(err, "reading body")
	}

	var indented bytes.Buffer
	if err := json.Indent(&indented, b, "", "    "); err != nil {
		_, err := p.writer.Write(b)
		return errors.Wrap(err, "printing body")
	}
	indented.WriteByte('\n')
	if _, err := indented.WriteTo(p.writer); err != nil {
		return errors.Wrap(err, "printing body")
	}
	return nil
}

func (p *PrettyPrinter) PrintDownload(length int64, filename string) error {
	fmt.Fprintf(p.writer, "Downloading %s to \"%s\"\n",
		p.aurora.Colorize(formatLength(length), aurora.BoldFm),
		p.aurora.Colorize(filename, aurora.CyanFg))
	return nil
}
