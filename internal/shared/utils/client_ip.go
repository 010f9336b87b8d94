package utils

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// UnknownIP được log khi không xác định được địa chỉ client
const UnknownIP = "unknown"

// proxy headers, theo thứ tự tin cậy
var clientIPHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// ClientIP trả về IP client cho request log.
// X-Forwarded-For lấy hop hợp lệ đầu tiên; hop có thể kèm port ("1.2.3.4:80", "[::1]:80").
// Chỉ dùng cho log, không dùng cho quyết định bảo mật vì header do client tự gửi.
func ClientIP(r *http.Request) string {
	for _, h := range clientIPHeaders {
		for _, hop := range strings.Split(r.Header.Get(h), ",") {
			if addr, ok := parseAddr(hop); ok {
				return addr.String()
			}
		}
	}

	if addr, ok := parseAddr(r.RemoteAddr); ok {
		return addr.String()
	}
	return UnknownIP
}

func parseAddr(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}, false
	}
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	addr, err := netip.ParseAddr(strings.Trim(s, "[]"))
	if err != nil {
		return netip.Addr{}, false
	}
	// ::ffff:1.2.3.4 -> 1.2.3.4
	return addr.Unmap(), true
}
