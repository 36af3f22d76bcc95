package httpx

import (
	"net"
	"strconv"
)

// buildAddress joins the host of the first param with the port the
// listener actually bound, prefixing the host with the zone when set.
//
// As an example, address host.com:8080 and listener 1.2.3.4:8888 are
// merged into host.com:8888.
func buildAddress(address string, zone string, l Listener) string {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		host = address
	}
	if host == "" {
		host = "localhost"
	}
	if zone != "" {
		host = zone + "." + host
	}
	port := l.GetPort()
	if port > 0 && port != 80 && port != 443 {
		host += ":" + strconv.Itoa(port)
	}
	return host
}
