package httpie

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/sthagen/ducaale-xh/config"
	"github.com/sthagen/ducaale-xh/curl"
	"github.com/sthagen/ducaale-xh/exchange"
	"github.com/sthagen/ducaale-xh/flags"
	"github.com/sthagen/ducaale-xh/input"
	"github.com/sthagen/ducaale-xh/logging"
	"github.com/sthagen/ducaale-xh/output"
	"github.com/sthagen/ducaale-xh/version"
)

type Options struct {
	// DefaultScheme is used when neither the URL nor the flags name one.
	DefaultScheme string

	// Defaults to os.Args and the process's standard streams.
	Args   []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// StatusError is returned with --check-status when the response status is
// 3xx, 4xx or 5xx.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %s", e.Status)
}

// ExitCode maps the status class to the process exit code.
func (e *StatusError) ExitCode() int {
	switch {
	case e.StatusCode >= 500:
		return 5
	case e.StatusCode >= 400:
		return 4
	default:
		return 3
	}
}

func (o *Options) withDefaults() Options {
	opts := *o
	if opts.Args == nil {
		opts.Args = os.Args
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return opts
}

func Main(options *Options) error {
	opts := options.withDefaults()

	// Prepend default options from the config file
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Parse flags
	args, usage, optionSet, err := flags.Parse(cfg.Apply(opts.Args))
	if err != nil {
		return err
	}
	switch {
	case optionSet.PrintHelp:
		usage.PrintUsage(opts.Stdout)
		return nil
	case optionSet.PrintVersion:
		fmt.Fprintf(opts.Stdout, "xh %s\n", version.Current())
		return nil
	case optionSet.PrintLicenses:
		version.PrintLicenses(opts.Stdout)
		return nil
	}

	logger := logging.New(opts.Stderr, optionSet.Debug, isTerminal(opts.Stderr))
	defer logger.Sync()

	inputOptions := &optionSet.InputOptions
	if inputOptions.DefaultScheme == "" {
		inputOptions.DefaultScheme = opts.DefaultScheme
	}
	if optionSet.CurlOptions.Enabled {
		inputOptions.ReadStdin = false
	}

	// Parse positional arguments
	in, err := input.ParseArgs(args, opts.Stdin, inputOptions)
	if _, ok := errors.Cause(err).(*input.UsageError); ok {
		usage.PrintUsage(opts.Stderr)
		return err
	}
	if err != nil {
		return err
	}

	if optionSet.CurlOptions.Enabled {
		dialect, err := curl.ParseDialect(optionSet.CurlOptions.Dialect)
		if err != nil {
			return err
		}
		cmd, err := curl.Translate(in, optionSet)
		if err != nil {
			return err
		}
		return curl.Print(opts.Stdout, opts.Stderr, cmd, dialect)
	}

	exchangeOptions := &optionSet.ExchangeOptions
	outputOptions := &optionSet.OutputOptions
	if !exchangeOptions.Offline {
		if err := optionSet.ResolvePassword(); err != nil {
			return err
		}
	}

	req, err := exchange.BuildHTTPRequest(in, exchangeOptions)
	if err != nil {
		return err
	}
	if req.Body != nil {
		defer req.Body.Close()
	}

	var writer io.Writer = opts.Stdout
	if !outputOptions.Stream {
		bufferedWriter := bufio.NewWriter(opts.Stdout)
		defer bufferedWriter.Flush()
		writer = bufferedWriter
	}
	printer := output.NewPrinter(writer, outputOptions)

	if err := printRequest(req, printer, writer, outputOptions); err != nil {
		return err
	}
	if exchangeOptions.Offline {
		return nil
	}

	// Send request and receive response
	ctx := context.Background()
	if exchangeOptions.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, exchangeOptions.Timeout)
		defer cancel()
	}
	resp, err := exchange.SendRequest(ctx, req, exchangeOptions, logger)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := printResponse(resp, printer, opts.Stderr, outputOptions); err != nil {
		return err
	}

	if outputOptions.CheckStatus && resp.StatusCode >= 300 {
		return errors.WithStack(&StatusError{StatusCode: resp.StatusCode, Status: resp.Status})
	}
	return nil
}

func printRequest(req *http.Request, printer output.Printer, w io.Writer, options *output.Options) error {
	if options.PrintRequestHeader {
		if err := printer.PrintRequestLine(req); err != nil {
			return err
		}
		header := req.Header.Clone()
		if header.Get("Host") == "" {
			header.Set("Host", req.URL.Host)
		}
		if err := printer.PrintHeader(header); err != nil {
			return err
		}
	}
	if options.PrintRequestBody && req.Body != nil {
		body, err := ioutil.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return errors.Wrap(err, "reading request body")
		}
		req.Body = ioutil.NopCloser(bytes.NewReader(body))
		if err := printer.PrintBody(bytes.NewReader(body), req.Header.Get("Content-Type")); err != nil {
			return err
		}
		fmt.Fprint(w, "\n\n")
	}
	return nil
}

func printResponse(resp *http.Response, printer output.Printer, stderr io.Writer, options *output.Options) error {
	if options.Download {
		// The body goes to a file, so headers and progress go to stderr.
		errPrinter := output.NewPrinter(stderr, &output.Options{EnableColor: options.EnableColor && isTerminal(stderr)})
		if options.PrintResponseHeader {
			if err := printHeader(resp, errPrinter); err != nil {
				return err
			}
		}
		_, err := output.NewFileWriter(resp.Request.URL, resp.Header, options).Download(resp, errPrinter)
		return err
	}

	if options.PrintResponseHeader {
		if err := printHeader(resp, printer); err != nil {
			return err
		}
	}
	if options.OutputFile != "" {
		file, err := os.Create(options.OutputFile)
		if err != nil {
			return errors.Wrapf(err, "creating '%s'", options.OutputFile)
		}
		defer file.Close()
		if _, err := io.Copy(file, resp.Body); err != nil {
			return errors.Wrapf(err, "writing '%s'", options.OutputFile)
		}
		return nil
	}
	if options.PrintResponseBody {
		return printer.PrintBody(resp.Body, resp.Header.Get("Content-Type"))
	}
	return nil
}

func printHeader(resp *http.Response, printer output.Printer) error {
	if err := printer.PrintStatusLine(resp.Proto, resp.Status, resp.StatusCode); err != nil {
		return err
	}
	return printer.PrintHeader(resp.Header)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
