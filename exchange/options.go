package exchange

import (
	"net/http"
	"time"
)

type Options struct {
	Timeout         time.Duration
	FollowRedirects bool
	MaxRedirects    *int
	Auth            AuthOptions
	SkipVerify      bool
	CABundle        string
	CertFile        string
	CertKeyFile     string
	Proxies         []Proxy
	ForceHTTP1      bool
	Offline         bool
	Transport       http.RoundTripper
}

type AuthOptions struct {
	Enabled     bool
	UserName    string
	Password    string
	HasPassword bool
	BearerToken string
}

// ProxyScope selects the requests a proxy applies to.
type ProxyScope string

const (
	ProxyHTTP  ProxyScope = "http"
	ProxyHTTPS ProxyScope = "https"
	ProxyAll   ProxyScope = "all"
)

type Proxy struct {
	Scope ProxyScope
	URL   string
}
