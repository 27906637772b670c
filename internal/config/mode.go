package config

import (
	"net"
	"strconv"

	"github.com/ssrkit/ssrkit/internal/errors"
)

// Mode is the runtime mode of the server.
type Mode string

const (
	// ModeBrowserDev serves the browser bundle from the dev asset paths.
	ModeBrowserDev Mode = "browser-dev"

	// ModeServerDev is the development server with live reload.
	ModeServerDev Mode = "server-dev"

	// ModeServerProd serves the built bundle resolved through the manifests.
	ModeServerProd Mode = "server-prod"
)

// Modes lists the valid modes.
var Modes = []Mode{ModeBrowserDev, ModeServerDev, ModeServerProd}

type modeEnv struct {
	host        string
	port        string
	defaultPort int
}

var modeEnvs = map[Mode]modeEnv{
	ModeBrowserDev: {host: "BROWSER_HOST", port: "BROWSER_PORT", defaultPort: 8080},
	ModeServerDev:  {host: "SERVER_DEV_HOST", port: "SERVER_DEV_PORT", defaultPort: 8081},
	ModeServerProd: {host: "HOST", port: "PORT", defaultPort: 4000},
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m, nil
}

// Validate returns an E102 error for unknown modes.
func (m Mode) Validate() error {
	if _, ok := modeEnvs[m]; ok {
		return nil
	}
	return errors.New("E102").
		WithDetail(strconv.Quote(string(m)) + " is not a mode. Valid modes are browser-dev, server-dev and server-prod.").
		WithSuggestion("Pass --mode server-prod in production")
}

// IsDev reports whether m is a development mode.
func (m Mode) IsDev() bool {
	return m != ModeServerProd
}

// HostEnv returns the environment variable holding the host for m.
func (m Mode) HostEnv() string { return modeEnvs[m].host }

// PortEnv returns the environment variable holding the port for m.
func (m Mode) PortEnv() string { return modeEnvs[m].port }

// DefaultPort returns the port m binds to when nothing overrides it.
func (m Mode) DefaultPort() int { return modeEnvs[m].defaultPort }

func (m Mode) env() modeEnv {
	return modeEnvs[m]
}

// ServerURL returns the protocol://host:port the server is reachable on.
// With allowSSL and an SSL port the HTTPS URL is returned. Default ports
// (80 and 443) are omitted.
func ServerURL(host string, port, sslPort int, allowSSL bool) string {
	if allowSSL && sslPort > 0 {
		stub := "https://" + host
		if sslPort == 443 {
			return stub
		}
		return stub + ":" + strconv.Itoa(sslPort)
	}

	stub := "http://" + host
	if port == 80 {
		return stub
	}
	return stub + ":" + strconv.Itoa(port)
}

// NetworkHost returns the first non-loopback IPv4 address of this machine,
// or "" when there is none.
func NetworkHost() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipnet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return ""
}
