package pwm

import (
	"path/filepath"
	"strconv"
	"strings"
)

// attrIO reads and writes attribute files below dir. It holds no state
// besides where to look; every call goes to the filesystem.
type attrIO struct {
	fs  FS
	dir string
}

func (a attrIO) path(name string) string { return filepath.Join(a.dir, name) }

func (a attrIO) read(name string) (string, error) {
	p := a.path(name)
	b, err := a.fs.ReadFile(p)
	if err != nil {
		return "", &IOError{Op: "read", Path: p, Err: err}
	}
	return strings.TrimRight(string(b), " \t\r\n\x00"), nil
}

func (a attrIO) write(name, value string) error {
	p := a.path(name)
	if err := a.fs.WriteFile(p, []byte(value)); err != nil {
		return &IOError{Op: "write", Path: p, Err: err}
	}
	return nil
}

func (a attrIO) readUint(name string) (uint64, error) {
	s, err := a.read(name)
	if err != nil {
		return 0, err
	}
	return parseUint(a.path(name), s)
}

func (a attrIO) writeUint(name string, v uint64) error {
	return a.write(name, strconv.FormatUint(v, 10))
}

func (a attrIO) readBool(name string) (bool, error) {
	s, err := a.read(name)
	if err != nil {
		return false, err
	}
	switch s {
	case "1":
		return true, nil
	case "0":
		return false, nil
	}
	return false, &ParseError{Path: a.path(name), Value: s, Want: `"0" or "1"`}
}

func (a attrIO) writeBool(name string, v bool) error {
	val := "0"
	if v {
		val = "1"
	}
	return a.write(name, val)
}

func (a attrIO) readPolarity(name string) (Polarity, error) {
	s, err := a.read(name)
	if err != nil {
		return "", err
	}
	p, perr := ParsePolarity(s)
	if perr != nil {
		return "", &ParseError{Path: a.path(name), Value: s, Want: "a polarity", Err: perr}
	}
	return p, nil
}

// readUintPair parses attributes such as capture that hold two integers.
func (a attrIO) readUintPair(name string) (uint64, uint64, error) {
	s, err := a.read(name)
	if err != nil {
		return 0, 0, err
	}
	p := a.path(name)
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0, 0, &ParseError{Path: p, Value: s, Want: "two integers"}
	}
	x, err := parseUint(p, fields[0])
	if err != nil {
		return 0, 0, err
	}
	y, err := parseUint(p, fields[1])
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func parseUint(path, s string) (uint64, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, &ParseError{Path: path, Value: s, Want: "a decimal integer", Err: err}
	}
	return n, nil
}
