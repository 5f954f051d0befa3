package pwm

import (
	"errors"
	"io/fs"
	"os"
)

// FS is the file access the package needs from a sysfs-style tree.
type FS interface {
	ReadFile(name string) ([]byte, error)
	// WriteFile replaces the contents of an existing file. It must not
	// create the file: sysfs attributes only exist while exported.
	WriteFile(name string, data []byte) error
	Stat(name string) (fs.FileInfo, error)
}

// OSFS is the FS backed by the operating system.
type OSFS struct{}

func (OSFS) ReadFile(name string) ([]byte, error) { return os.ReadFile(name) }

func (OSFS) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }

func (OSFS) WriteFile(name string, data []byte) error {
	// No O_CREATE: a missing attribute must fail with ENOENT.
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	_, werr := f.Write(data)
	cerr := f.Close()
	if werr != nil && cerr != nil {
		return errors.Join(werr, cerr)
	}
	if werr != nil {
		return werr
	}
	// sysfs store() errors can surface on close.
	return cerr
}
