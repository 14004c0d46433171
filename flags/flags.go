package flags

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pborman/getopt"
	"github.com/pkg/errors"
	"github.com/sthagen/ducaale-xh/exchange"
	"github.com/sthagen/ducaale-xh/input"
	"github.com/sthagen/ducaale-xh/output"
)

var reNumber = regexp.MustCompile(`^[0-9.]+$`)

type FlagSet interface {
	PrintUsage(w io.Writer)
}

type OptionSet struct {
	InputOptions    input.Options
	ExchangeOptions exchange.Options
	OutputOptions   output.Options
	CurlOptions     CurlOptions

	Debug         bool
	PrintVersion  bool
	PrintLicenses bool
	PrintHelp     bool
}

// CurlOptions control printing an equivalent curl command instead of
// sending the request.
type CurlOptions struct {
	Enabled bool
	Long    bool
	Dialect string
}

type terminalInfo struct {
	stdinIsTerminal  bool
	stdoutIsTerminal bool
}

func Parse(args []string) ([]string, FlagSet, *OptionSet, error) {
	return parse(args, terminalInfo{
		stdinIsTerminal:  isatty.IsTerminal(os.Stdin.Fd()),
		stdoutIsTerminal: isatty.IsTerminal(os.Stdout.Fd()),
	})
}

func parse(args []string, terminalInfo terminalInfo) ([]string, FlagSet, *OptionSet, error) {
	inputOptions := input.Options{}
	outputOptions := output.Options{}
	exchangeOptions := exchange.Options{}
	optionSet := &OptionSet{}

	var (
		ignoreStdin   bool
		https         bool
		printFlag     string
		pretty        string
		verify        = "yes"
		auth          string
		maxRedirects  int
		proxies       []string
		timeout       = "30s"
		curlDialect   string
		defaultScheme string
	)

	flagSet := getopt.New()
	flagSet.SetParameters("[METHOD] URL [REQUEST_ITEM [REQUEST_ITEM ...]]")
	flagSet.BoolVarLong(&inputOptions.JSON, "json", 'j', "serialize data items as a JSON object (default)")
	flagSet.BoolVarLong(&inputOptions.Form, "form", 'f', "serialize data items as application/x-www-form-urlencoded")
	flagSet.BoolVarLong(&inputOptions.Multipart, "multipart", 0, "serialize data items as multipart/form-data")
	flagSet.BoolVarLong(&outputOptions.Verbose, "verbose", 'v', "print the whole request as well as the response")
	flagSet.BoolVarLong(&outputOptions.Stream, "stream", 'S', "print the response body as it arrives")
	flagSet.BoolVarLong(&outputOptions.CheckStatus, "check-status", 0, "exit with an error status on 3xx, 4xx and 5xx responses")
	flagSet.BoolVarLong(&exchangeOptions.FollowRedirects, "follow", 'F', "follow redirects")
	maxRedirectsOption := flagSet.IntVarLong(&maxRedirects, "max-redirects", 0, "maximum number of redirects to follow", "NUM")
	flagSet.StringVarLong(&outputOptions.OutputFile, "output", 'o', "save the response body to FILE", "FILE")
	flagSet.BoolVarLong(&outputOptions.Download, "download", 'd', "download the response body to a file")
	flagSet.BoolVarLong(&outputOptions.Resume, "continue", 'c', "resume an interrupted download")
	flagSet.StringVarLong(&verify, "verify", 0, "verify the server certificate: yes, no or a CA bundle path", "VERIFY")
	flagSet.StringVarLong(&exchangeOptions.CertFile, "cert", 0, "client certificate file", "FILE")
	flagSet.StringVarLong(&exchangeOptions.CertKeyFile, "cert-key", 0, "private key of the client certificate", "FILE")
	flagSet.ListVarLong(&proxies, "proxy", 0, "use a proxy for a protocol (http, https or all)", "PROTOCOL:URL")
	flagSet.BoolVarLong(&outputOptions.HeadersOnly, "headers", 'h', "print only the response headers")
	flagSet.BoolVarLong(&outputOptions.BodyOnly, "body", 'b', "print only the response body")
	printOption := flagSet.StringVarLong(&printFlag, "print", 'p', "specifies what the output should contain (HBhb)", "WHAT")
	flagSet.BoolVarLong(&outputOptions.Quiet, "quiet", 'q', "do not print to stdout or stderr")
	prettyOption := flagSet.StringVarLong(&pretty, "pretty", 0, "output processing: all, colors, format or none", "STYLE")
	styleOption := flagSet.StringVarLong(&outputOptions.Style, "style", 's', "color theme", "THEME")
	flagSet.BoolVarLong(&exchangeOptions.Offline, "offline", 0, "build the request and print it without sending it")
	authOption := flagSet.StringVarLong(&auth, "auth", 'a', "basic authentication credentials", "USER[:PASS]")
	flagSet.StringVarLong(&exchangeOptions.Auth.BearerToken, "bearer", 0, "bearer token for authentication", "TOKEN")
	flagSet.BoolVarLong(&https, "https", 0, "make HTTPS requests if the URL has no scheme")
	flagSet.StringVarLong(&defaultScheme, "default-scheme", 0, "scheme to use when the URL has none", "SCHEME")
	flagSet.BoolVarLong(&optionSet.CurlOptions.Enabled, "curl", 0, "print the equivalent curl command")
	flagSet.BoolVarLong(&optionSet.CurlOptions.Long, "curl-long", 0, "print the equivalent curl command using long options")
	flagSet.StringVarLong(&curlDialect, "curl-dialect", 0, "quoting of the curl command: posix or windows", "DIALECT")
	flagSet.BoolVarLong(&exchangeOptions.ForceHTTP1, "http1", 0, "force HTTP/1.1")
	flagSet.BoolVarLong(&ignoreStdin, "ignore-stdin", 'I', "do not attempt to read stdin")
	flagSet.StringVarLong(&timeout, "timeout", 0, "Timeout seconds that you allow the whole operation to take", "SECONDS")
	flagSet.BoolVarLong(&optionSet.Debug, "debug", 0, "log debugging information to stderr")
	flagSet.BoolVarLong(&optionSet.PrintLicenses, "licenses", 0, "print licenses of the dependencies")
	flagSet.BoolVarLong(&optionSet.PrintVersion, "version", 0, "print version and exit")
	flagSet.BoolVarLong(&optionSet.PrintHelp, "help", 0, "print this help message")
	if err := flagSet.Getopt(args, nil); err != nil {
		return nil, nil, nil, errors.WithStack(err)
	}

	// Check stdin
	if !ignoreStdin && !terminalInfo.stdinIsTerminal {
		inputOptions.ReadStdin = true
	}

	// Scheme
	if https {
		inputOptions.DefaultScheme = "https"
	}
	if defaultScheme != "" {
		inputOptions.DefaultScheme = defaultScheme
	}

	// Parse --print and friends
	if printOption.Seen() {
		outputOptions.PrintFlag = printFlag
	}
	if err := parsePrintFlag(printOption.Seen(), terminalInfo, exchangeOptions.Offline, &outputOptions); err != nil {
		return nil, nil, nil, err
	}

	// Parse --pretty
	if styleOption.Seen() && outputOptions.Style == "" {
		return nil, nil, nil, errors.New("Value of --style must not be empty")
	}
	if prettyOption.Seen() {
		outputOptions.Pretty = pretty
	}
	if err := parsePretty(prettyOption.Seen(), pretty, terminalInfo, &outputOptions); err != nil {
		return nil, nil, nil, err
	}

	// Downloads follow redirects
	if outputOptions.Download {
		exchangeOptions.FollowRedirects = true
	}
	if maxRedirectsOption.Seen() {
		if maxRedirects < 0 {
			return nil, nil, nil, errors.Errorf("Value of --max-redirects must not be negative: %d", maxRedirects)
		}
		exchangeOptions.MaxRedirects = &maxRedirects
	}

	// Parse --verify
	if err := parseVerify(verify, &exchangeOptions); err != nil {
		return nil, nil, nil, err
	}

	// Parse --proxy
	for _, proxy := range proxies {
		p, err := parseProxy(proxy)
		if err != nil {
			return nil, nil, nil, err
		}
		exchangeOptions.Proxies = append(exchangeOptions.Proxies, p)
	}

	// Parse --auth
	if authOption.Seen() {
		exchangeOptions.Auth = parseAuth(auth, exchangeOptions.Auth.BearerToken)
	}

	// Parse --timeout
	d, err := parseDurationOrSeconds(timeout)
	if err != nil {
		return nil, nil, nil, err
	}
	exchangeOptions.Timeout = d

	// Curl
	if optionSet.CurlOptions.Long {
		optionSet.CurlOptions.Enabled = true
	}
	optionSet.CurlOptions.Dialect = curlDialect

	optionSet.InputOptions = inputOptions
	optionSet.ExchangeOptions = exchangeOptions
	optionSet.OutputOptions = outputOptions
	return flagSet.Args(), flagSet, optionSet, nil
}

func parsePrintFlag(printFlagSeen bool, terminalInfo terminalInfo, offline bool, outputOptions *output.Options) error {
	var what string
	switch {
	case printFlagSeen:
		what = outputOptions.PrintFlag
	case outputOptions.Verbose:
		what = "HBhb"
	case outputOptions.Quiet:
		what = ""
	case offline:
		what = "HB"
	case outputOptions.HeadersOnly:
		what = "h"
	case outputOptions.BodyOnly:
		what = "b"
	case terminalInfo.stdoutIsTerminal:
		what = "hb"
	default:
		what = "b"
	}

	for _, c := range what {
		switch c {
		case 'H':
			outputOptions.PrintRequestHeader = true
		case 'B':
			outputOptions.PrintRequestBody = true
		case 'h':
			outputOptions.PrintResponseHeader = true
		case 'b':
			outputOptions.PrintResponseBody = true
		default:
			return errors.Errorf("Invalid char in --print value (must be consist of HBhb): %c", c)
		}
	}
	return nil
}

func parsePretty(seen bool, pretty string, terminalInfo terminalInfo, outputOptions *output.Options) error {
	if !seen {
		outputOptions.EnableColor = terminalInfo.stdoutIsTerminal
		outputOptions.EnableFormat = terminalInfo.stdoutIsTerminal
		return nil
	}
	switch pretty {
	case "all":
		outputOptions.EnableColor = true
		outputOptions.EnableFormat = true
	case "colors":
		outputOptions.EnableColor = true
	case "format":
		outputOptions.EnableFormat = true
	case "none":
	default:
		return errors.Errorf("Value of --pretty must be one of all, colors, format or none: %s", pretty)
	}
	return nil
}

func parseVerify(verify string, options *exchange.Options) error {
	switch strings.ToLower(verify) {
	case "yes", "true":
	case "no", "false":
		options.SkipVerify = true
	case "":
		return errors.New("Value of --verify must not be empty")
	default:
		options.CABundle = verify
	}
	return nil
}

func parseProxy(s string) (exchange.Proxy, error) {
	colon := strings.Index(s, ":")
	if colon < 0 {
		return exchange.Proxy{}, errors.Errorf("Value of --proxy must be PROTOCOL:URL: %s", s)
	}
	scope := exchange.ProxyScope(strings.ToLower(s[:colon]))
	switch scope {
	case exchange.ProxyHTTP, exchange.ProxyHTTPS, exchange.ProxyAll:
	default:
		return exchange.Proxy{}, errors.Errorf("Unknown protocol to set a proxy for: %s", s[:colon])
	}
	u := s[colon+1:]
	if u == "" {
		return exchange.Proxy{}, errors.Errorf("Missing URL in --proxy: %s", s)
	}
	return exchange.Proxy{Scope: scope, URL: u}, nil
}

func parseAuth(auth string, bearerToken string) exchange.AuthOptions {
	options := exchange.AuthOptions{Enabled: true, BearerToken: bearerToken}
	if colon := strings.Index(auth, ":"); colon >= 0 {
		options.UserName = auth[:colon]
		options.Password = auth[colon+1:]
		options.HasPassword = true
	} else {
		options.UserName = auth
	}
	return options
}

func parseDurationOrSeconds(timeout string) (time.Duration, error) {
	if reNumber.MatchString(timeout) {
		timeout += "s"
	}
	d, err := time.ParseDuration(timeout)
	if err != nil {
		return time.Duration(0), errors.Errorf("Value of --timeout must be a number or duration string: %v", timeout)
	}
	return d, nil
}

// ResolvePassword prompts on the terminal for a basic auth password that was
// not given on the command line.
func (o *OptionSet) ResolvePassword() error {
	auth := &o.ExchangeOptions.Auth
	if !auth.Enabled || auth.HasPassword {
		return nil
	}
	password, err := askPassword(fmt.Sprintf("Password for user %s: ", auth.UserName))
	if err != nil {
		return err
	}
	auth.Password = password
	auth.HasPassword = true
	return nil
}
