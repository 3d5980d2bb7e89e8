package bundle

import (
	"bytes"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"
)

// FS returns a read-only fs.FS over the bundle's entries. Directories are
// synthesized from path prefixes. Files are decompressed when opened.
func (r *Reader) FS() fs.FS {
	return &bundleFS{r: r}
}

// bundleFS implements a filesystem interface over one bundle
type bundleFS struct {
	r *Reader
}

var (
	_ fs.FS         = (*bundleFS)(nil)
	_ fs.ReadFileFS = (*bundleFS)(nil)
	_ fs.StatFS     = (*bundleFS)(nil)
)

func (b *bundleFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	if name == "." {
		return &bundleDir{fs: b, prefix: "", name: ".", offset: 0}, nil
	}

	if e, ok := b.r.index.lookup(name); ok {
		data, err := b.r.readEntry(&e)
		if err != nil {
			return nil, err
		}
		return &bundleFile{info: fileInfo{entry: e}, Reader: bytes.NewReader(data)}, nil
	}

	// check for a directory separately
	dirName := name + "/"
	idx := b.r.index.search(dirName)
	if idx < len(b.r.index.sorted) && strings.HasPrefix(b.r.index.at(idx).Path, dirName) {
		return &bundleDir{fs: b, prefix: dirName, name: path.Base(name), offset: idx}, nil
	}

	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

func (b *bundleFS) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrInvalid}
	}
	data, ok, err := b.r.Read(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		// might be a directory; let Open decide which error applies
		f, err := b.Open(name)
		if err != nil {
			return nil, err
		}
		f.Close()
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: errIsDir}
	}
	return data, nil
}

func (b *bundleFS) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}
	if e, ok := b.r.index.lookup(name); ok {
		return fileInfo{entry: e}, nil
	}
	f, err := b.Open(name)
	if err != nil {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	defer f.Close()
	return f.Stat()
}

var errIsDir = &dirError{}

type dirError struct{}

func (*dirError) Error() string { return "is a directory" }

// bundleFile implements fs.File for entries; content is fully decompressed.
type bundleFile struct {
	*bytes.Reader
	info fileInfo
}

func (f *bundleFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *bundleFile) Close() error               { return nil }

// fileInfo implements fs.FileInfo and fs.DirEntry for bundle entries
type fileInfo struct {
	entry Entry
}

func (fi fileInfo) Name() string               { return path.Base(fi.entry.Path) }
func (fi fileInfo) Size() int64                { return int64(fi.entry.RawSize) }
func (fi fileInfo) Mode() fs.FileMode          { return 0o444 }
func (fi fileInfo) ModTime() time.Time         { return time.Unix(0, 0) }
func (fi fileInfo) IsDir() bool                { return false }
func (fi fileInfo) Sys() any                   { return nil }
func (fi fileInfo) Type() fs.FileMode          { return 0 }
func (fi fileInfo) Info() (fs.FileInfo, error) { return fi, nil }

// dirInfo implements fs.FileInfo and fs.DirEntry for synthesized directories
type dirInfo struct {
	name string
}

func (di dirInfo) Name() string               { return di.name }
func (di dirInfo) Size() int64                { return 0 }
func (di dirInfo) Mode() fs.FileMode          { return fs.ModeDir | 0o555 }
func (di dirInfo) ModTime() time.Time         { return time.Unix(0, 0) }
func (di dirInfo) IsDir() bool                { return true }
func (di dirInfo) Sys() any                   { return nil }
func (di dirInfo) Type() fs.FileMode          { return fs.ModeDir }
func (di dirInfo) Info() (fs.FileInfo, error) { return di, nil }

// bundleDir implements fs.ReadDirFile for directories in bundles
type bundleDir struct {
	fs     *bundleFS
	prefix string
	name   string
	offset int // next position in sorted order
}

func (d *bundleDir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: errIsDir}
}

func (d *bundleDir) Close() error { return nil }

func (d *bundleDir) Stat() (fs.FileInfo, error) {
	return dirInfo{name: d.name}, nil
}

func (d *bundleDir) ReadDir(n int) ([]fs.DirEntry, error) {
	idx := d.fs.r.index
	total := len(idx.sorted)
	prefixLen := len(d.prefix)

	dirents := []fs.DirEntry{}
	for d.offset < total {
		if n > 0 && len(dirents) >= n {
			break
		}

		e := idx.at(d.offset)
		if !strings.HasPrefix(e.Path, d.prefix) {
			d.offset = total
			break
		}

		slashIdx := strings.IndexByte(e.Path[prefixLen:], '/')
		if slashIdx == -1 {
			dirents = append(dirents, fileInfo{entry: *e})
			d.offset++
			continue
		}

		// skip every entry under the child directory
		dir := e.Path[:prefixLen+slashIdx]
		dirents = append(dirents, dirInfo{name: path.Base(dir)})
		d.offset = idx.search(dir + "0") // '0' sorts right after '/'
	}

	if n > 0 && len(dirents) == 0 {
		return nil, io.EOF
	}
	return dirents, nil
}
