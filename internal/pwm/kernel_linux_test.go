package pwm

import (
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// fakeKernel behaves like the PWM core behind export and unexport: it
// creates the channel directory (optionally only after some sleeps) and
// removes it again.
type fakeKernel struct {
	OSFS

	// delay is the number of poll sleeps before an exported channel appears.
	delay int
	// busy makes every export fail with EBUSY.
	busy bool
	// raced simulates another process exporting the channel between our
	// stat and our write: the directory appears and the write gets EBUSY.
	raced bool

	pending map[string]int
	exports int
	sleeps  int
}

func newFakeKernel() *fakeKernel {
	return &fakeKernel{pending: make(map[string]int)}
}

func (k *fakeKernel) WriteFile(name string, data []byte) error {
	dir, base := filepath.Split(name)
	switch base {
	case attrExport, attrUnexport:
		n, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 32)
		if err != nil {
			return &fs.PathError{Op: "write", Path: name, Err: syscall.EINVAL}
		}
		chDir := filepath.Join(dir, "pwm"+strconv.FormatUint(n, 10))
		if base == attrExport {
			return k.export(name, chDir)
		}
		if _, err := os.Stat(chDir); err != nil {
			return &fs.PathError{Op: "write", Path: name, Err: syscall.ENODEV}
		}
		return os.RemoveAll(chDir)
	}
	return k.OSFS.WriteFile(name, data)
}

func (k *fakeKernel) export(name, chDir string) error {
	k.exports++
	if k.busy {
		return &fs.PathError{Op: "write", Path: name, Err: syscall.EBUSY}
	}
	if k.raced {
		if err := makeChannelDir(chDir); err != nil {
			return err
		}
		return &fs.PathError{Op: "write", Path: name, Err: syscall.EBUSY}
	}
	if _, err := os.Stat(chDir); err == nil {
		return &fs.PathError{Op: "write", Path: name, Err: syscall.EBUSY}
	}
	if k.delay == 0 {
		return makeChannelDir(chDir)
	}
	k.pending[chDir] = k.delay
	return nil
}

func (k *fakeKernel) sleep() {
	k.sleeps++
	for dir, left := range k.pending {
		left--
		if left > 0 {
			k.pending[dir] = left
			continue
		}
		delete(k.pending, dir)
		_ = makeChannelDir(dir)
	}
}
