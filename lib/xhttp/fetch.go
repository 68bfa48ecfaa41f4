// Package xhttp downloads files over HTTP with bounded I/O.
package xhttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"time"

	"cdr.dev/slog"
	"go.uber.org/multierr"

	"oss.terrastruct.com/xdefer"

	"oss.terrastruct.com/pumldoc/lib/env"
	"oss.terrastruct.com/pumldoc/lib/log"
)

const DefaultTimeout = 5 * time.Second

// Fetcher performs single GET requests without retries. A zero timeout disables that
// bound.
type Fetcher struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	// Transport replaces the dialing transport when set.
	Transport http.RoundTripper
}

// NewFetcher returns a Fetcher using DefaultTimeout for every bound, or
// $PUMLDOC_TIMEOUT if set.
func NewFetcher() *Fetcher {
	t := DefaultTimeout
	if d, has := env.Timeout(); has {
		t = d
	}
	return &Fetcher{
		ConnectTimeout: t,
		ReadTimeout:    t,
		WriteTimeout:   t,
	}
}

// Save removes anything at dst and then downloads url into it.
func (f *Fetcher) Save(ctx context.Context, url, dst string) error {
	_ = os.Remove(dst)
	return f.Download(ctx, url, dst)
}

// Download streams url into a newly created dst. If dst already exists, ErrExists is
// returned and dst is left alone. On any later failure dst is removed.
func (f *Fetcher) Download(ctx context.Context, url, dst string) (err error) {
	defer xdefer.Errorf(&err, "failed to download %s", url)

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s: %w", dst, ErrExists)
		}
		return fmt.Errorf("failed to open %s for writing: %w", dst, err)
	}
	defer func() {
		err = multierr.Append(err, out.Close())
		if err != nil {
			err = multierr.Append(err, os.Remove(dst))
		}
	}()

	n, err := f.fetch(ctx, url, out)
	if err != nil {
		return err
	}
	log.Debug(ctx, "downloaded", slog.F("url", url), slog.F("path", dst), slog.F("bytes", n))
	return nil
}

func (f *Fetcher) fetch(ctx context.Context, url string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := f.client().Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &StatusError{Code: resp.StatusCode, URL: url}
	}
	return io.Copy(w, resp.Body)
}

func (f *Fetcher) client() *http.Client {
	transport := f.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         f.dial,
			TLSHandshakeTimeout: f.ConnectTimeout,
			DisableKeepAlives:   true,
		}
	}
	return &http.Client{Transport: transport}
}

func (f *Fetcher) dial(ctx context.Context, network, addr string) (net.Conn, error) {
	d := &net.Dialer{Timeout: f.ConnectTimeout}
	c, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	return &deadlineConn{
		Conn:         c,
		readTimeout:  f.ReadTimeout,
		writeTimeout: f.WriteTimeout,
	}, nil
}

// deadlineConn bounds every individual Read and Write.
type deadlineConn struct {
	net.Conn
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func (c *deadlineConn) Read(p []byte) (int, error) {
	if c.readTimeout > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Read(p)
}

func (c *deadlineConn) Write(p []byte) (int, error) {
	if c.writeTimeout > 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Write(p)
}
