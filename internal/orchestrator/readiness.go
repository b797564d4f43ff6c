package orchestrator

import (
	"net"
	"time"
)

const (
	readinessTimeout = 3 * time.Minute
	readinessPoll    = 10 * time.Second
)

// awaitReady polls resolve (an IP lookup) and a TCP/22 dial until both
// succeed or readinessTimeout elapses, per §4.J step 7.
func awaitReady(resolve func() (string, error)) (string, bool) {
	deadline := time.Now().Add(readinessTimeout)

	for {
		if ip, err := resolve(); err == nil && ip != "" {
			if tcpOpen(ip, "22", 3*time.Second) {
				return ip, true
			}
		}

		if time.Now().After(deadline) {
			return "", false
		}
		time.Sleep(readinessPoll)
	}
}

func tcpOpen(host, port string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, port), timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
