package photos

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"
)

var (
	ErrHostNotAllowed   = errors.New("photo host is not allowed")
	ErrPrivateAddress   = errors.New("photo address is not public")
	errTooManyRedirects = errors.New("too many redirects")
)

const maxRedirects = 3

// NewHTTPClient returns a client that refuses to connect to loopback,
// private, link-local and other non-public addresses. The check runs on the
// resolved address, so a public name pointing inward is refused too.
func NewHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout: 10 * time.Second,
		Control: func(_, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return err
			}
			ip, err := netip.ParseAddr(host)
			if err != nil {
				return err
			}
			if !publicAddr(ip) {
				return fmt.Errorf("%w: %s", ErrPrivateAddress, ip)
			}
			return nil
		},
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext

	return &http.Client{Timeout: timeout, Transport: transport}
}

func publicAddr(ip netip.Addr) bool {
	ip = ip.Unmap()
	return ip.IsValid() &&
		!ip.IsLoopback() &&
		!ip.IsPrivate() &&
		!ip.IsLinkLocalUnicast() &&
		!ip.IsLinkLocalMulticast() &&
		!ip.IsInterfaceLocalMulticast() &&
		!ip.IsMulticast() &&
		!ip.IsUnspecified()
}

// hostAllowed reports whether u points at one of hosts or a subdomain of
// one. An empty list allows every host.
func hostAllowed(hosts []string, u *url.URL) bool {
	if len(hosts) == 0 {
		return true
	}
	h := strings.ToLower(u.Hostname())
	for _, allowed := range hosts {
		allowed = strings.ToLower(strings.TrimPrefix(allowed, "."))
		if h == allowed || strings.HasSuffix(h, "."+allowed) {
			return true
		}
	}
	return false
}

// withRedirectCheck returns a copy of c that applies the host allowlist to
// every redirect hop.
func withRedirectCheck(c *http.Client, hosts []string) *http.Client {
	cp := *c
	cp.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return errTooManyRedirects
		}
		if !isRemote(req.URL.String()) || !hostAllowed(hosts, req.URL) {
			return fmt.Errorf("%w: %s", ErrHostNotAllowed, req.URL.Hostname())
		}
		return nil
	}
	return &cp
}
