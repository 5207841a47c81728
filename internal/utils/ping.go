package utils

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"
)

// MailRelayPingTimeout bounds a single mail relay reachability probe
const MailRelayPingTimeout = 1500 * time.Millisecond

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
	"amqp":  "5672",
	"amqps": "5671",
	"redis": "6379",
}

// ServiceAddress turns a service URL into a dialable host:port
func ServiceAddress(serviceURL string) (string, error) {
	parsedURL, err := url.Parse(serviceURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		return "", fmt.Errorf("invalid URL: missing host in %q", serviceURL)
	}

	port := parsedURL.Port()
	if port == "" {
		var ok bool
		if port, ok = defaultPorts[parsedURL.Scheme]; !ok {
			return "", fmt.Errorf("invalid URL: no port and unknown scheme %q", parsedURL.Scheme)
		}
	}

	return net.JoinHostPort(host, port), nil
}

// PingService checks that a TCP connection to the service can be opened
func PingService(ctx context.Context, serviceURL string, timeout time.Duration) error {
	address, err := ServiceAddress(serviceURL)
	if err != nil {
		return err
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	return conn.Close()
}

// PingMailRelay checks if the mail relay (webhook host or broker) is reachable
func PingMailRelay(ctx context.Context, relayURL string) error {
	return PingService(ctx, relayURL, MailRelayPingTimeout)
}
