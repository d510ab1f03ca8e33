package storage

import (
	"path"

	"github.com/spf13/afero"
)

// Ext is appended to every key to form a file name.
const Ext = ".sol"

// Disk stores each blob as a file below a base directory.
type Disk struct {
	fs   afero.Fs
	base string
}

// NewDisk creates a store rooted at base on fs. The directory is created
// lazily on the first write.
func NewDisk(fs afero.Fs, base string) *Disk {
	return &Disk{fs: fs, base: base}
}

// NewOSDisk creates a store on the local filesystem.
func NewOSDisk(base string) *Disk {
	return NewDisk(afero.NewOsFs(), base)
}

func (d *Disk) file(name string) string {
	return path.Join(d.base, name+Ext)
}

func (d *Disk) Get(name string) ([]byte, bool) {
	if !ValidKey(name) {
		return nil, false
	}
	data, err := afero.ReadFile(d.fs, d.file(name))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (d *Disk) Put(name string, data []byte) bool {
	if !ValidKey(name) {
		log.Warningf("refusing to store invalid key %q", name)
		return false
	}
	file := d.file(name)
	if err := d.fs.MkdirAll(path.Dir(file), 0o755); err != nil {
		log.Errorf("creating directory for %q: %s", name, err)
		return false
	}
	if err := afero.WriteFile(d.fs, file, data, 0o644); err != nil {
		log.Errorf("writing %q: %s", name, err)
		return false
	}
	return true
}

func (d *Disk) Remove(name string) {
	if !ValidKey(name) {
		return
	}
	file := d.file(name)
	if ok, _ := afero.Exists(d.fs, file); !ok {
		return
	}
	if err := d.fs.Remove(file); err != nil {
		log.Warningf("removing %q: %s", name, err)
	}
}
