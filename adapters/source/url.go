package source

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"path"
	"strings"
	"syscall"
	"time"

	"sheetview/domain/core"
	"sheetview/domain/load"
	"sheetview/domain/sheet"
	"sheetview/internal"
)

// errHostNotAllowed marks a request or redirect to a host outside the allowlist
var errHostNotAllowed = errors.New("host not allowed")

// errPrivateAddress marks a connection to an address on a local or internal network
var errPrivateAddress = errors.New("private network address")

// URLConfig controls remote fetches
type URLConfig struct {
	Timeout time.Duration
	// AllowedHosts restricts fetches to these hosts; empty allows any host.
	AllowedHosts []string
	MaxBytes     int64
	// AllowPrivateNetworks lets fetches reach loopback, private, link-local
	// and unspecified addresses. Off by default.
	AllowPrivateNetworks bool
}

// DefaultURLConfig returns defaults for remote fetches
func DefaultURLConfig() URLConfig {
	return URLConfig{
		Timeout:  30 * time.Second,
		MaxBytes: DefaultMaxBytes,
	}
}

// URLLoader fetches a document with a single HTTP GET
type URLLoader struct {
	URL    string
	config URLConfig
	client *http.Client
	logger *internal.Logger
}

// NewURLLoader creates a loader for rawURL
func NewURLLoader(rawURL string, config URLConfig) *URLLoader {
	if config.Timeout <= 0 {
		config.Timeout = DefaultURLConfig().Timeout
	}
	l := &URLLoader{
		URL:    strings.TrimSpace(rawURL),
		config: config,
		logger: internal.NewDefaultLogger(),
	}
	l.client = &http.Client{
		Timeout:       config.Timeout,
		CheckRedirect: l.checkRedirect,
		Transport:     newTransport(config),
	}
	return l
}

// newTransport checks every dialed address after DNS resolution, so
// redirects and rebinding names are covered as well as the first request
func newTransport(config URLConfig) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if config.AllowPrivateNetworks {
		return transport
	}
	dialer := &net.Dialer{
		Timeout:   config.Timeout,
		KeepAlive: 30 * time.Second,
		Control:   guardDial,
	}
	transport.DialContext = dialer.DialContext
	// a proxy would be the dialed address, hiding the real target
	transport.Proxy = nil
	return transport
}

func guardDial(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("%w: unresolved %s", errPrivateAddress, host)
	}
	if blockedAddr(ip) {
		return fmt.Errorf("%w: %s", errPrivateAddress, ip)
	}
	return nil
}

// blockedAddr covers loopback, RFC 1918 and fc00::/7, link-local (including
// the 169.254.169.254 metadata endpoint) and unspecified addresses
func blockedAddr(ip netip.Addr) bool {
	ip = ip.Unmap()
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}

func (l *URLLoader) Kind() load.SourceKind { return load.SourceURL }
func (l *URLLoader) Describe() string      { return l.URL }

func (l *URLLoader) Load(ctx context.Context) (*sheet.Document, error) {
	u, err := url.Parse(l.URL)
	if err != nil {
		return nil, core.NewLoadError(core.NetworkFailure, l.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, core.NewLoadError(core.NetworkFailure, l.URL, fmt.Errorf("unsupported scheme %q", u.Scheme))
	}
	if u.Host == "" {
		return nil, core.NewLoadError(core.NetworkFailure, l.URL, errors.New("missing host"))
	}
	if !l.hostAllowed(u) {
		return nil, core.NewLoadError(core.CrossOriginBlocked, l.URL, fmt.Errorf("%w: %s", errHostNotAllowed, u.Hostname()))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, core.NewLoadError(core.NetworkFailure, l.URL, err)
	}

	start := time.Now()
	resp, err := l.client.Do(req)
	if err != nil {
		if errors.Is(err, errHostNotAllowed) || errors.Is(err, errPrivateAddress) {
			return nil, core.NewLoadError(core.CrossOriginBlocked, l.URL, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, core.NewLoadError(core.NetworkFailure, l.URL, ctxErr)
		}
		return nil, core.NewLoadError(core.NetworkFailure, l.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, core.NewLoadError(core.NetworkFailure, l.URL, fmt.Errorf("unexpected status %s", resp.Status))
	}

	data, err := readLimited(resp.Body, l.config.MaxBytes)
	if err != nil {
		return nil, core.NewLoadError(core.NetworkFailure, l.URL, err)
	}

	l.logger.Debug("[URLLoader] fetched %s (%d bytes) in %.2fms", l.URL, len(data), float64(time.Since(start).Nanoseconds())/1e6)
	return &sheet.Document{
		Name:        documentName(resp),
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (l *URLLoader) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return errors.New("stopped after 10 redirects")
	}
	if !l.hostAllowed(req.URL) {
		return fmt.Errorf("%w: redirect to %s", errHostNotAllowed, req.URL.Hostname())
	}
	return nil
}

func (l *URLLoader) hostAllowed(u *url.URL) bool {
	if len(l.config.AllowedHosts) == 0 {
		return true
	}
	host := strings.ToLower(u.Hostname())
	for _, allowed := range l.config.AllowedHosts {
		allowed = strings.ToLower(strings.TrimSpace(allowed))
		if allowed == "" {
			continue
		}
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}

// documentName prefers the Content-Disposition filename, then the last
// segment of the final request path
func documentName(resp *http.Response) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			return path.Base(params["filename"])
		}
	}
	if resp.Request != nil && resp.Request.URL != nil {
		if base := path.Base(resp.Request.URL.Path); base != "/" && base != "." {
			if unescaped, err := url.PathUnescape(base); err == nil {
				return unescaped
			}
			return base
		}
	}
	return ""
}
