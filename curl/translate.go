package curl

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/sthagen/ducaale-xh/exchange"
	"github.com/sthagen/ducaale-xh/flags"
	"github.com/sthagen/ducaale-xh/input"
)

// Translate converts a parsed invocation into an equivalent curl command.
// Flags curl has no counterpart for are reported as warnings.
func Translate(in *input.Input, options *flags.OptionSet) (*Command, error) {
	header, unset, err := in.Items.Headers()
	if err != nil {
		return nil, err
	}
	u := exchange.BuildURL(in.URL, in.Items.Query())

	outputOptions := &options.OutputOptions
	exchangeOptions := &options.ExchangeOptions
	cmd := newCommand(options.CurlOptions.Long)

	ignored := []struct {
		present bool
		flag    string
	}{
		{exchangeOptions.Offline, "--offline"},
		{outputOptions.BodyOnly, "-b/--body"},
		{outputOptions.PrintFlag != "", "-p/--print"},
		{outputOptions.Quiet, "-q/--quiet"},
		{outputOptions.Pretty != "", "--pretty"},
		{outputOptions.Style != "", "-s/--style"},
	}
	for _, ig := range ignored {
		if ig.present {
			cmd.warn(fmt.Sprintf("Ignored %s", ig.flag))
		}
	}

	if outputOptions.Verbose {
		cmd.flag("-v", "--verbose")
	}
	if outputOptions.Stream {
		cmd.flag("-N", "--no-buffer")
	}
	if outputOptions.CheckStatus {
		cmd.flag("-f", "--fail")
	}

	if exchangeOptions.FollowRedirects {
		cmd.flag("-L", "--location")
	}
	if exchangeOptions.MaxRedirects != nil {
		cmd.push("--max-redirects", fmt.Sprint(*exchangeOptions.MaxRedirects))
	}
	if outputOptions.OutputFile != "" {
		cmd.flag("-o", "--output")
		cmd.push(outputOptions.OutputFile)
	} else if outputOptions.Download {
		cmd.flag("-O", "--remote-name")
	}
	if outputOptions.Resume {
		cmd.flag("-C", "--continue-at")
		cmd.push("-")
	}
	if exchangeOptions.CABundle != "" {
		cmd.push("--cacert", exchangeOptions.CABundle)
	} else if exchangeOptions.SkipVerify {
		cmd.flag("-k", "--insecure")
	}
	if exchangeOptions.CertFile != "" {
		cmd.flag("-E", "--cert")
		cmd.push(exchangeOptions.CertFile)
	}
	if exchangeOptions.CertKeyFile != "" {
		cmd.push("--key", exchangeOptions.CertKeyFile)
	}
	if exchangeOptions.ForceHTTP1 {
		cmd.push("--http1.1")
	}
	for _, proxy := range exchangeOptions.Proxies {
		switch proxy.Scope {
		case exchange.ProxyAll:
			cmd.flag("-x", "--proxy")
			cmd.push(proxy.URL)
		case exchange.ProxyHTTP:
			cmd.env("http_proxy", proxy.URL)
		case exchange.ProxyHTTPS:
			cmd.env("https_proxy", proxy.URL)
		}
	}

	switch {
	case in.Method == "HEAD":
		cmd.flag("-I", "--head")
	case in.Method == "OPTIONS":
		cmd.flag("-i", "--include")
		cmd.flag("-X", "--request")
		cmd.push("OPTIONS")
	case outputOptions.HeadersOnly:
		method := in.Method
		if method == "" {
			method = in.Items.PickMethod(in.RequestType)
		}
		cmd.flag("-I", "--head")
		cmd.flag("-X", "--request")
		cmd.push(string(method))
		if method != "GET" {
			cmd.warn("-I/--head is incompatible with sending data. Consider omitting -h/--headers.")
		}
	case in.Method != "":
		cmd.flag("-X", "--request")
		cmd.push(string(in.Method))
	}

	cmd.push(u.String())

	for _, field := range header.Fields {
		cmd.flag("-H", "--header")
		name := strings.ToLower(field.Name)
		if field.Value == "" {
			cmd.push(name + ";")
		} else {
			cmd.push(name + ": " + field.Value)
		}
	}
	for _, name := range unset {
		cmd.flag("-H", "--header")
		cmd.push(strings.ToLower(name) + ":")
	}
	if auth := exchangeOptions.Auth; auth.Enabled {
		cmd.flag("-u", "--user")
		if auth.HasPassword {
			cmd.push(auth.UserName + ":" + auth.Password)
		} else {
			cmd.push(auth.UserName)
		}
	}
	if token := exchangeOptions.Auth.BearerToken; token != "" {
		cmd.push("--oauth2-bearer", token)
	}

	if err := translateBody(cmd, in); err != nil {
		return nil, err
	}
	return cmd, nil
}

func translateBody(cmd *Command, in *input.Input) error {
	// Files are referenced by path; they are never opened here.
	if in.RequestType == input.MultipartRequest || in.Items.HasFormFiles() {
		for _, item := range in.Items {
			switch item := item.(type) {
			case input.JSONField:
				return errors.WithStack(&exchange.ConflictError{Message: "JSON values are not supported in multipart fields"})
			case input.DataField:
				cmd.flag("-F", "--form")
				cmd.push(item.Name + "=" + item.Value)
			case input.FormFile:
				cmd.flag("-F", "--form")
				if item.MIMEType != "" {
					cmd.push(fmt.Sprintf("%s=@%s;type=%s", item.Name, item.Path, item.MIMEType))
				} else {
					cmd.push(fmt.Sprintf("%s=@%s", item.Name, item.Path))
				}
			}
		}
		return nil
	}

	body, err := exchange.BuildBody(in.Items, in.RequestType)
	if err != nil {
		return err
	}
	switch body := body.(type) {
	case *exchange.FormBody:
		if body.IsEmpty() {
			cmd.header("content-type", exchange.FormContentType)
		}
		for _, field := range body.Fields {
			// curl expects the name encoded and the value raw.
			cmd.push("--data-urlencode", exchange.FormEscape(field.Name)+"="+field.Value)
		}
	case *exchange.JSONBody:
		if body.IsEmpty() {
			if in.RequestType == input.JSONRequest {
				cmd.header("content-type", exchange.JSONContentType)
				cmd.header("accept", exchange.JSONAccept)
			}
			return nil
		}
		b, err := body.MarshalJSON()
		if err != nil {
			return err
		}
		cmd.header("content-type", exchange.JSONContentType)
		cmd.header("accept", exchange.JSONAccept)
		cmd.flag("-d", "--data")
		cmd.push(string(b))
	default:
		return errors.Errorf("unexpected body type for curl: %T", body)
	}
	return nil
}
