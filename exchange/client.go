package exchange

import (
	"crypto/tls"
	"crypto/x509"
	"io/ioutil"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/publicsuffix"
)

const defaultMaxRedirects = 10

func BuildHTTPClient(options *Options) (*http.Client, error) {
	checkRedirect := func(req *http.Request, via []*http.Request) error {
		// Do not follow redirects
		return http.ErrUseLastResponse
	}
	if options.FollowRedirects {
		maxRedirects := defaultMaxRedirects
		if options.MaxRedirects != nil {
			maxRedirects = *options.MaxRedirects
		}
		checkRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return errors.Errorf("too many redirects (> %d)", maxRedirects)
			}
			return nil
		}
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, errors.Wrap(err, "creating cookie jar")
	}

	client := http.Client{
		CheckRedirect: checkRedirect,
		Timeout:       options.Timeout,
		Jar:           jar,
	}

	var transp http.RoundTripper
	if options.Transport == nil {
		transp = http.DefaultTransport.(*http.Transport).Clone()
	} else {
		transp = options.Transport
	}
	if httpTransport, ok := transp.(*http.Transport); ok {
		if err := configureTransport(httpTransport, options); err != nil {
			return nil, err
		}
	}
	client.Transport = transp

	return &client, nil
}

func configureTransport(transport *http.Transport, options *Options) error {
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	}
	tlsConfig := transport.TLSClientConfig
	tlsConfig.InsecureSkipVerify = options.SkipVerify

	if options.CABundle != "" {
		pem, err := ioutil.ReadFile(options.CABundle)
		if err != nil {
			return errors.Wrapf(err, "reading CA bundle '%s'", options.CABundle)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return errors.Errorf("no certificates found in CA bundle '%s'", options.CABundle)
		}
		tlsConfig.RootCAs = pool
	}

	if options.CertFile != "" {
		keyFile := options.CertKeyFile
		if keyFile == "" {
			keyFile = options.CertFile
		}
		cert, err := tls.LoadX509KeyPair(options.CertFile, keyFile)
		if err != nil {
			return errors.Wrap(err, "loading client certificate")
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	if options.ForceHTTP1 {
		tlsConfig.NextProtos = []string{"http/1.1", "http/1.0"}
		transport.TLSNextProto = make(map[string]func(string, *tls.Conn) http.RoundTripper)
		transport.ForceAttemptHTTP2 = false
	}

	if len(options.Proxies) > 0 {
		proxy, err := buildProxyFunc(options.Proxies)
		if err != nil {
			return err
		}
		transport.Proxy = proxy
	}
	return nil
}

func buildProxyFunc(proxies []Proxy) (func(*http.Request) (*url.URL, error), error) {
	byScope := map[ProxyScope]*url.URL{}
	for _, proxy := range proxies {
		raw := proxy.URL
		if !strings.Contains(raw, "://") {
			raw = "http://" + raw
		}
		u, err := url.Parse(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing proxy URL '%s'", proxy.URL)
		}
		byScope[proxy.Scope] = u
	}
	return func(req *http.Request) (*url.URL, error) {
		if u, ok := byScope[ProxyScope(req.URL.Scheme)]; ok {
			return u, nil
		}
		if u, ok := byScope[ProxyAll]; ok {
			return u, nil
		}
		return http.ProxyFromEnvironment(req)
	}, nil
}
