package input

import (
	"io"
	"io/ioutil"
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var (
	reMethod    = regexp.MustCompile(`^[a-zA-Z]+$`)
	reScheme    = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+-.]*://`)
	emptyMethod = Method("")
)

func ParseArgs(args []string, stdin io.Reader, options *Options) (*Input, error) {
	var argMethod string
	var argURL string
	var argItems []string
	switch len(args) {
	case 0:
		return nil, newUsageError("URL is required")
	case 1:
		argURL = args[0]
	default:
		if reMethod.MatchString(args[0]) {
			argMethod = args[0]
			argURL = args[1]
			argItems = args[2:]
		} else {
			argURL = args[0]
			argItems = args[1:]
		}
	}

	in := Input{}

	u, err := parseURL(argURL, options.DefaultScheme)
	if err != nil {
		return nil, err
	}
	in.URL = u

	in.RequestType, err = determineRequestType(options)
	if err != nil {
		return nil, err
	}

	for _, arg := range argItems {
		item, err := ParseItem(arg)
		if err != nil {
			return nil, err
		}
		in.Items = append(in.Items, item)
	}

	if options.ReadStdin {
		if in.Items.HasBodyItems() || in.RequestType == MultipartRequest {
			return nil, errors.New("request body (from stdin) and request item (key=value) cannot be mixed")
		}
		in.Stdin, err = ioutil.ReadAll(stdin)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read stdin")
		}
	}

	if argMethod != "" {
		method, err := parseMethod(argMethod)
		if err != nil {
			return nil, err
		}
		in.Method = method
	}

	return &in, nil
}

func determineRequestType(options *Options) (RequestType, error) {
	count := 0
	for _, b := range []bool{options.JSON, options.Form, options.Multipart} {
		if b {
			count++
		}
	}
	if count > 1 {
		return UnspecifiedRequest, errors.New("You cannot specify more than one of --json, --form and --multipart")
	}
	switch {
	case options.JSON:
		return JSONRequest, nil
	case options.Form:
		return FormRequest, nil
	case options.Multipart:
		return MultipartRequest, nil
	default:
		return UnspecifiedRequest, nil
	}
}

func parseMethod(s string) (Method, error) {
	if !reMethod.MatchString(s) {
		return emptyMethod, errors.Errorf("METHOD must consist of alphabets: %s", s)
	}

	method := Method(strings.ToUpper(s))
	return method, nil
}

func parseURL(s string, defaultScheme string) (*url.URL, error) {
	if defaultScheme == "" {
		defaultScheme = "http"
	}
	defaultHost := "localhost"

	// ex) :8080/hello or /hello
	if strings.HasPrefix(s, ":") || strings.HasPrefix(s, "/") {
		s = defaultHost + s
	}

	// ex) example.com/hello
	if !reScheme.MatchString(s) {
		s = defaultScheme + "://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, newUsageError("Invalid URL: " + s)
	}
	u.Host = strings.TrimSuffix(u.Host, ":")
	if u.Path == "" {
		u.Path = "/"
	}
	return u, nil
}
