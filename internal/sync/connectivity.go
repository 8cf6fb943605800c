package sync

import (
	"net"
	"net/url"
	"time"
)

// AlwaysOnline is a ConnectivityFunc for environments without a meaningful
// offline signal, and for tests.
func AlwaysOnline() bool { return true }

// DialProbe returns a ConnectivityFunc that reports online when a TCP
// connection to the authority's host can be opened within the timeout.
// This mirrors the browser's navigator.onLine signal: it tells the engine
// whether attempting network I/O is worthwhile, not whether the authority
// will answer.
func DialProbe(baseURL string, timeout time.Duration) ConnectivityFunc {
	u, err := url.Parse(baseURL)
	if err != nil {
		return AlwaysOnline
	}
	host := u.Host
	if u.Port() == "" {
		switch u.Scheme {
		case "https":
			host = net.JoinHostPort(u.Hostname(), "443")
		default:
			host = net.JoinHostPort(u.Hostname(), "80")
		}
	}
	return func() bool {
		conn, err := net.DialTimeout("tcp", host, timeout)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}
}
