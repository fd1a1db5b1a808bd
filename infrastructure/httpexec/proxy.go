package httpexec

import (
	"fmt"
	"net/url"
	"strings"
)

// Proxy is a parsed lane proxy binding.
type Proxy struct {
	Host     string
	Port     string
	Username string
	Password string
}

// ParseProxy parses the colon-delimited wire format host:port or
// host:port:username:password. The first two segments are mandatory.
func ParseProxy(s string) (*Proxy, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 2:
		// ok
	case 4:
		// ok
	default:
		return nil, fmt.Errorf("proxy string %q: want host:port or host:port:user:pass", s)
	}
	if parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("proxy string %q: host and port are mandatory", s)
	}
	p := &Proxy{Host: parts[0], Port: parts[1]}
	if len(parts) == 4 {
		p.Username = parts[2]
		p.Password = parts[3]
	}
	return p, nil
}

// URL renders the proxy as an http URL suitable for http.Transport.
func (p *Proxy) URL() *url.URL {
	u := &url.URL{Scheme: "http", Host: p.Host + ":" + p.Port}
	if p.Username != "" {
		u.User = url.UserPassword(p.Username, p.Password)
	}
	return u
}
