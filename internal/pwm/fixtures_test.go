package pwm

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

func withSleep(fn func(time.Duration)) Option {
	return func(o *options) { o.sleep = fn }
}

// makeChip lays out pwmchipN with its control files under root.
func makeChip(t *testing.T, root string, chip uint32, npwm int) string {
	t.Helper()
	dir := chipPath(root, chip)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	files := map[string]string{
		attrExport:   "",
		attrUnexport: "",
		attrNPWM:     strconv.Itoa(npwm) + "\n",
	}
	for name, contents := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
			t.Fatalf("WriteFile %s: %v", name, err)
		}
	}
	return dir
}

// makeChannelDir creates the attribute files the kernel provides for an
// exported channel.
func makeChannelDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	files := map[string]string{
		attrEnable:    "0\n",
		attrPeriod:    "0\n",
		attrDutyCycle: "0\n",
		attrPolarity:  "normal\n",
	}
	for name, contents := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// exportedChannel returns a handle for an already exported channel in a
// fresh fixture tree.
func exportedChannel(t *testing.T, opts ...Option) *Channel {
	t.Helper()
	root := t.TempDir()
	makeChip(t, root, 0, 2)
	ch := New(0, 1, append([]Option{WithRoot(root)}, opts...)...)
	if err := makeChannelDir(ch.Path()); err != nil {
		t.Fatalf("makeChannelDir: %v", err)
	}
	return ch
}

func writeAttrFile(t *testing.T, ch *Channel, name, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(ch.Path(), name), []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile %s: %v", name, err)
	}
}

// countingFS counts writes that reach the underlying FS.
type countingFS struct {
	FS
	writes int
}

func (c *countingFS) WriteFile(name string, data []byte) error {
	c.writes++
	return c.FS.WriteFile(name, data)
}
