// Package fetch downloads remote resources over HTTP with bounded size and
// retries on transient failures.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/jpillora/backoff"
	"github.com/rs/zerolog"
)

var (
	// ErrUnsupportedScheme is returned for URLs that are not http or https.
	ErrUnsupportedScheme = errors.New("unsupported url scheme")
	// ErrTooLarge is returned when the response body exceeds MaxBytes.
	ErrTooLarge = errors.New("response body too large")
	// ErrForbiddenAddress is returned when a host resolves to a loopback,
	// private, link-local or unspecified address and AllowPrivate is off.
	ErrForbiddenAddress = errors.New("address not allowed")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Temporary reports whether the request may succeed when retried.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

// Resource is a downloaded document.
type Resource struct {
	URL         string
	ContentType string
	// Name is the file name from Content-Disposition or the URL path.
	Name string
	Body []byte
}

// Fetcher downloads resources.
type Fetcher struct {
	Client    *http.Client
	Retries   int
	MaxBytes  int64
	UserAgent string
	// MinBackoff and MaxBackoff bound the delay between attempts.
	MinBackoff time.Duration
	MaxBackoff time.Duration
	// AllowPrivate lets the Client built by New connect to loopback,
	// private and link-local addresses.
	AllowPrivate bool
	Logger       zerolog.Logger
}

// New returns a Fetcher with the given per-request timeout. Its client
// refuses connections to internal addresses, checked after DNS resolution
// and on every redirect, unless AllowPrivate is set.
func New(timeout time.Duration, retries int, maxBytes int64) *Fetcher {
	f := &Fetcher{
		Retries:    retries,
		MaxBytes:   maxBytes,
		UserAgent:  "xlsxflow/1.0",
		MinBackoff: 200 * time.Millisecond,
		MaxBackoff: 5 * time.Second,
		Logger:     zerolog.Nop(),
	}
	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
		Control:   f.checkAddress,
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	// A proxy would hide the real destination from the address check.
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	f.Client = &http.Client{Timeout: timeout, Transport: transport}
	return f
}

// checkAddress runs on every dial with the resolved ip:port.
func (f *Fetcher) checkAddress(network, address string, _ syscall.RawConn) error {
	if f.AllowPrivate {
		return nil
	}
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrForbiddenAddress, address)
	}
	if !Public(ap.Addr()) {
		return fmt.Errorf("%w: %s", ErrForbiddenAddress, ap.Addr())
	}
	return nil
}

// Public reports whether ip is a globally routable unicast address.
func Public(ip netip.Addr) bool {
	ip = ip.Unmap()
	switch {
	case !ip.IsValid(),
		ip.IsLoopback(),
		ip.IsPrivate(),
		ip.IsLinkLocalUnicast(),
		ip.IsLinkLocalMulticast(),
		ip.IsInterfaceLocalMulticast(),
		ip.IsMulticast(),
		ip.IsUnspecified():
		return false
	}
	return !sharedAddressSpace.Contains(ip)
}

// RFC 6598 carrier-grade NAT space, routed internally by many providers.
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// Fetch downloads rawURL. Transport errors, 5xx and 429 responses are retried
// up to Retries times; other failures return immediately.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Resource, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	b := &backoff.Backoff{Min: f.MinBackoff, Max: f.MaxBackoff, Factor: 2, Jitter: true}
	for {
		res, err := f.do(ctx, u)
		if err == nil {
			return res, nil
		}
		if !retryable(ctx, err) || int(b.Attempt()) >= f.Retries {
			return nil, err
		}
		wait := b.Duration()
		f.Logger.Warn().Err(err).
			Str("url", u.Redacted()).
			Float64("attempt", b.Attempt()).
			Dur("wait", wait).
			Msg("fetch failed, retrying")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, ErrTooLarge) || errors.Is(err, ErrForbiddenAddress) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}

func (f *Fetcher) do(ctx context.Context, u *url.URL) (*Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: u.Redacted(), Code: resp.StatusCode}
	}
	if f.MaxBytes > 0 && resp.ContentLength > f.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}

	body := io.Reader(resp.Body)
	if f.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, f.MaxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if f.MaxBytes > 0 && int64(len(data)) > f.MaxBytes {
		return nil, fmt.Errorf("%w: over %d bytes", ErrTooLarge, f.MaxBytes)
	}

	return &Resource{
		URL:         u.String(),
		ContentType: resp.Header.Get("Content-Type"),
		Name:        resourceName(resp.Header.Get("Content-Disposition"), u),
		Body:        data,
	}, nil
}

func resourceName(disposition string, u *url.URL) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil && params["filename"] != "" {
			return path.Base(params["filename"])
		}
	}
	if base := path.Base(u.Path); base != "." && base != "/" {
		return base
	}
	return u.Hostname()
}
