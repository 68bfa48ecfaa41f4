// Package pumlrender turns PlantUML sources into markup for generated documentation.
//
// A source is rendered to a PNG by the PlantUML server once and cached under the
// documentation root by content hash. If the server can't be reached, the returned
// markup renders the diagram in the reader's browser instead, so a build never fails
// because of the network.
package pumlrender

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cdr.dev/slog"
	"go.uber.org/multierr"

	"oss.terrastruct.com/xdefer"

	"oss.terrastruct.com/pumldoc/lib/log"
	"oss.terrastruct.com/pumldoc/lib/urlenc"
	"oss.terrastruct.com/pumldoc/lib/xhttp"
	"oss.terrastruct.com/pumldoc/pumlcache"
)

const (
	DefaultRoot   = "target/doc"
	DefaultServer = "http://www.plantuml.com/plantuml"
)

type Opts struct {
	// Root is the documentation output directory. Defaults to DefaultRoot.
	Root string
	// Server is the PlantUML server base URL. Defaults to DefaultServer.
	Server string
	// Fetcher defaults to xhttp.NewFetcher().
	Fetcher *xhttp.Fetcher
}

type Renderer struct {
	cache   *pumlcache.Cache
	server  string
	fetcher *xhttp.Fetcher
}

func New(opts *Opts) *Renderer {
	if opts == nil {
		opts = &Opts{}
	}
	r := &Renderer{
		cache:   pumlcache.New(opts.Root),
		server:  strings.TrimSuffix(opts.Server, "/"),
		fetcher: opts.Fetcher,
	}
	if r.cache.Root == "" {
		r.cache.Root = DefaultRoot
	}
	if r.server == "" {
		r.server = DefaultServer
	}
	if r.fetcher == nil {
		r.fetcher = xhttp.NewFetcher()
	}
	return r
}

func (r *Renderer) Cache() *pumlcache.Cache {
	return r.cache
}

// URL returns the address of src rendered as a PNG by the configured server.
func (r *Renderer) URL(src string) (string, error) {
	encoded, err := urlenc.Encode(src)
	if err != nil {
		return "", err
	}
	return r.server + "/png/" + encoded, nil
}

// Render returns an image tag for src, fetching the image if it isn't cached yet.
// If the fetch fails the browser side Fallback markup is returned instead. The only
// errors returned are local environment failures such as an uncreatable cache
// directory.
func (r *Renderer) Render(ctx context.Context, src string) (_ string, err error) {
	defer xdefer.Errorf(&err, "failed to render plantuml diagram")

	key := pumlcache.Key(src)
	fp := r.cache.Path(key)
	if r.cache.Has(fp) {
		log.Debug(ctx, "plantuml diagram cached", slog.F("path", fp))
		return imgTag(r.cache.Ref(key)), nil
	}

	err = r.cache.EnsureDir(fp)
	if err != nil {
		return "", err
	}

	url, err := r.URL(src)
	if err != nil {
		return "", err
	}

	err = r.fetcher.Save(ctx, url, fp)
	if err != nil {
		log.Warn(ctx, "failed to download the plantuml picture, using dynamic hyperlink instead", slog.Error(err))
		return Fallback(src), nil
	}
	log.Info(ctx, "rendered plantuml diagram", slog.F("path", fp))
	return imgTag(r.cache.Ref(key)), nil
}

// RenderLines renders the source formed by terminating each line with a newline, the
// shape in which doc comment lines arrive.
func (r *Renderer) RenderLines(ctx context.Context, lines []string) (string, error) {
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	return r.Render(ctx, sb.String())
}

// RenderFile renders the PlantUML source stored at fp. An unreadable file renders to
// nothing.
func (r *Renderer) RenderFile(ctx context.Context, fp string) (string, error) {
	b, err := os.ReadFile(fp)
	if err != nil {
		log.Warn(ctx, "failed to read plantuml file", slog.F("path", fp), slog.Error(err))
		return "", nil
	}
	return r.Render(ctx, string(b))
}

// Image copies the image at fp into the documentation images directory and returns
// a tag referencing the copy. Copy failures are logged and the tag is still returned.
func (r *Renderer) Image(ctx context.Context, fp string) string {
	rel := filepath.ToSlash(filepath.Clean(fp))
	dst := filepath.Join(r.cache.Root, "images", filepath.FromSlash(rel))
	err := copyFile(fp, dst)
	if err != nil {
		log.Warn(ctx, "failed to copy image", slog.F("path", fp), slog.Error(err))
	}
	return fmt.Sprintf(`</p><img src="%s"/>`, path.Join("..", "images", rel))
}

func imgTag(ref string) string {
	return fmt.Sprintf("</p><img src = \"%s\" />\n", ref)
}

func copyFile(src, dst string) (err error) {
	defer xdefer.Errorf(&err, "failed to copy %s to %s", src, dst)

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	err = os.MkdirAll(filepath.Dir(dst), 0755)
	if err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, out.Close())
	}()

	_, err = io.Copy(out, in)
	return err
}
