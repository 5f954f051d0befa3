package pwm

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func ptr[T any](v T) *T { return &v }

// orderFS records the attribute names written, in order.
type orderFS struct {
	FS
	names []string
}

func (o *orderFS) WriteFile(name string, data []byte) error {
	o.names = append(o.names, filepath.Base(name)+"="+string(data))
	return o.FS.WriteFile(name, data)
}

func TestApply_FullSettings(t *testing.T) {
	ch := exportedChannel(t)

	err := ch.Apply(Settings{
		PeriodNS:  ptr(uint64(40_000)),
		DutyCycle: ptr(0.25),
		Polarity:  PolarityInversed,
		Enable:    ptr(true),
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if p, _ := ch.PeriodNS(); p != 40_000 {
		t.Fatalf("period=%d", p)
	}
	if d, _ := ch.DutyCycleNS(); d != 10_000 {
		t.Fatalf("duty=%d", d)
	}
	if pol, _ := ch.Polarity(); pol != PolarityInversed {
		t.Fatalf("polarity=%q", pol)
	}
	if on, _ := ch.Enabled(); !on {
		t.Fatalf("not enabled")
	}
}

func TestApply_ShrinksDutyBeforePeriod(t *testing.T) {
	ofs := &orderFS{FS: OSFS{}}
	ch := exportedChannel(t, WithFS(ofs))
	writeAttrFile(t, ch, attrPeriod, "100000\n")
	writeAttrFile(t, ch, attrDutyCycle, "50000\n")

	err := ch.Apply(Settings{PeriodNS: ptr(uint64(20_000)), DutyCycleNS: ptr(uint64(10_000)), Enable: ptr(false)})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := []string{"enable=0", "duty_cycle=10000", "period=20000", "duty_cycle=10000"}
	if len(ofs.names) != len(want) {
		t.Fatalf("writes=%v want %v", ofs.names, want)
	}
	for i := range want {
		if ofs.names[i] != want[i] {
			t.Fatalf("writes=%v want %v", ofs.names, want)
		}
	}
}

func TestApply_RejectsBeforeWriting(t *testing.T) {
	cfs := &countingFS{FS: OSFS{}}
	ch := exportedChannel(t, WithFS(cfs))

	cases := []Settings{
		{DutyCycle: ptr(0.5), DutyCycleNS: ptr(uint64(1))},
		{DutyCycle: ptr(2.0), Enable: ptr(false)},
		{Polarity: "upside-down", Enable: ptr(false)},
		{PeriodNS: ptr(uint64(100)), DutyCycleNS: ptr(uint64(101)), Enable: ptr(false)},
	}
	for _, s := range cases {
		if err := ch.Apply(s); err == nil {
			t.Fatalf("Apply(%+v): expected error", s)
		}
	}
	if cfs.writes != 0 {
		t.Fatalf("writes=%d want 0", cfs.writes)
	}
}

func TestApply_StopsAtFirstFailure(t *testing.T) {
	ch := exportedChannel(t)
	if err := os.Remove(filepath.Join(ch.Path(), attrPolarity)); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	err := ch.Apply(Settings{Polarity: PolarityNormal, Enable: ptr(true)})
	var ioe *IOError
	if !errors.As(err, &ioe) {
		t.Fatalf("err=%v want *IOError", err)
	}
	if on, _ := ch.Enabled(); on {
		t.Fatalf("enabled after failed apply")
	}
}
