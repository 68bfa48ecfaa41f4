package xhttp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cdr.dev/slog/sloggers/slogtest"
	tassert "github.com/stretchr/testify/assert"

	"oss.terrastruct.com/pumldoc/lib/log"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nnot really a png")

func TestDownload(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		handler http.HandlerFunc
		expErr  func(t *testing.T, err error)
	}{
		{
			name: "ok",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "image/png")
				_, _ = w.Write(pngBytes)
			},
		},
		{
			name: "not_found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", http.StatusNotFound)
			},
			expErr: func(t *testing.T, err error) {
				var serr *StatusError
				tassert.True(t, errors.As(err, &serr), "%v", err)
				tassert.Equal(t, http.StatusNotFound, serr.Code)
			},
		},
		{
			name: "server_error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			expErr: func(t *testing.T, err error) {
				tassert.Contains(t, err.Error(), "unexpected status 500")
			},
		},
		{
			name: "truncated_body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Length", "1000")
				_, _ = w.Write(pngBytes)
			},
			expErr: func(t *testing.T, err error) {
				tassert.Error(t, err)
			},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx := log.WithTB(context.Background(), t, nil)
			s := httptest.NewServer(tc.handler)
			defer s.Close()

			dst := filepath.Join(t.TempDir(), "out.png")
			err := NewFetcher().Download(ctx, s.URL+"/png/x", dst)
			if tc.expErr != nil {
				tassert.Error(t, err)
				tc.expErr(t, err)
				tassert.NoFileExists(t, dst)
				return
			}
			tassert.Nil(t, err)

			got, err := os.ReadFile(dst)
			tassert.Nil(t, err)
			tassert.Equal(t, pngBytes, got)
		})
	}
}

func TestDownloadExists(t *testing.T) {
	t.Parallel()

	ctx := log.WithTB(context.Background(), t, nil)
	requested := false
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = true
		_, _ = w.Write(pngBytes)
	}))
	defer s.Close()

	dst := filepath.Join(t.TempDir(), "out.png")
	err := os.WriteFile(dst, []byte("X"), 0644)
	tassert.Nil(t, err)

	err = NewFetcher().Download(ctx, s.URL, dst)
	tassert.True(t, errors.Is(err, ErrExists), "%v", err)
	tassert.False(t, requested)

	got, err := os.ReadFile(dst)
	tassert.Nil(t, err)
	tassert.Equal(t, "X", string(got))
}

func TestSaveReplacesPartial(t *testing.T) {
	t.Parallel()

	ctx := log.WithTB(context.Background(), t, nil)
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(pngBytes)
	}))
	defer s.Close()

	dst := filepath.Join(t.TempDir(), "out.png")
	err := os.WriteFile(dst, []byte("partial"), 0644)
	tassert.Nil(t, err)

	err = NewFetcher().Save(ctx, s.URL, dst)
	tassert.Nil(t, err)

	got, err := os.ReadFile(dst)
	tassert.Nil(t, err)
	tassert.Equal(t, pngBytes, got)
}

func TestDownloadConnectionRefused(t *testing.T) {
	t.Parallel()

	ctx := log.WithTB(context.Background(), t, nil)
	s := httptest.NewServer(http.NotFoundHandler())
	url := s.URL
	s.Close()

	dst := filepath.Join(t.TempDir(), "out.png")
	err := NewFetcher().Download(ctx, url, dst)
	tassert.Error(t, err)
	tassert.NoFileExists(t, dst)
}

func TestDownloadReadTimeout(t *testing.T) {
	t.Parallel()

	ctx := log.WithTB(context.Background(), t, &slogtest.Options{IgnoreErrors: true})
	release := make(chan struct{})
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer s.Close()
	defer close(release)

	f := &Fetcher{
		ConnectTimeout: time.Second,
		ReadTimeout:    50 * time.Millisecond,
		WriteTimeout:   time.Second,
	}

	dst := filepath.Join(t.TempDir(), "out.png")
	start := time.Now()
	err := f.Download(ctx, s.URL, dst)
	tassert.Error(t, err)
	tassert.True(t, time.Since(start) < 5*time.Second)
	tassert.NoFileExists(t, dst)
}

func TestDownloadMissingDir(t *testing.T) {
	t.Parallel()

	ctx := log.WithTB(context.Background(), t, nil)
	dst := filepath.Join(t.TempDir(), "missing", "out.png")
	err := NewFetcher().Download(ctx, "http://127.0.0.1:1", dst)
	tassert.Error(t, err)
	tassert.False(t, errors.Is(err, ErrExists))
	tassert.Contains(t, err.Error(), "failed to open")
}
