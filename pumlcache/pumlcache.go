// Package pumlcache maps PlantUML sources to rendered images on disk.
//
// An artifact's name is the SHA-1 of the source that produced it, so an existing file is
// taken as proof that the source hasn't changed. Artifacts are created once and never
// rewritten or removed here.
package pumlcache

import (
	"crypto/sha1"
	"encoding/hex"
	"os"
	"path"
	"path/filepath"

	"oss.terrastruct.com/xdefer"
)

// Dir is where rendered diagrams live, relative to the documentation root.
const Dir = "images/puml_files"

const Ext = ".png"

// Key returns the hex encoded SHA-1 of src.
func Key(src string) string {
	sum := sha1.Sum([]byte(src))
	return hex.EncodeToString(sum[:])
}

type Cache struct {
	// Root is the documentation output directory, e.g. target/doc.
	Root string
}

func New(root string) *Cache {
	return &Cache{Root: root}
}

// Path returns the artifact path for key. It does no I/O.
func (c *Cache) Path(key string) string {
	return filepath.Join(c.Root, filepath.FromSlash(Dir), key+Ext)
}

// Ref returns the reference to key's artifact from a page one level below Root.
func (c *Cache) Ref(key string) string {
	return path.Join("..", Dir, key+Ext)
}

// Has reports whether something exists at fp. Content is not validated.
func (c *Cache) Has(fp string) bool {
	_, err := os.Stat(fp)
	return err == nil
}

// EnsureDir creates every missing parent directory of fp.
func (c *Cache) EnsureDir(fp string) (err error) {
	defer xdefer.Errorf(&err, "failed to create cache directory for %s", fp)
	return os.MkdirAll(filepath.Dir(fp), 0755)
}
