// Package fancontrol runs a temperature-driven fan on a PWM output.
package fancontrol

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var afterFn = time.After

var startupFullDutyDuration = 5 * time.Second
var startupMinDutyDuration = 10 * time.Second

// Output is the PWM control the service needs. *pwm.Channel implements it.
type Output interface {
	SetDutyCycle(f float64) error
	SetEnabled(on bool) error
}

type Config struct {
	// TempTargetC is the temperature the loop holds, in degrees C.
	TempTargetC float64
	// DutyMin is the lowest duty fraction that keeps the fan spinning.
	DutyMin float64
	// UpdateInterval controls how often duty is recomputed.
	UpdateInterval time.Duration
	// ReadTemp returns the current temperature. Defaults to DefaultTempPath.
	ReadTemp func() (float64, error)
}

type Snapshot struct {
	TempValid bool    `json:"temp_valid"`
	TempC     float64 `json:"temp_c"`
	Duty      float64 `json:"duty"`

	LastUpdateAt time.Time `json:"last_update_utc,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
}

type Service struct {
	cfg Config
	out Output
	log *zap.Logger

	mu   sync.RWMutex
	snap Snapshot

	wg sync.WaitGroup

	stopOnce sync.Once
	stopCh   chan struct{}
	closed   sync.Once
}

func New(cfg Config, out Output, log *zap.Logger) *Service {
	if cfg.TempTargetC == 0 {
		cfg.TempTargetC = 50.0
	}
	if cfg.UpdateInterval <= 0 {
		cfg.UpdateInterval = 5 * time.Second
	}
	cfg.DutyMin = clamp(cfg.DutyMin, 0, 1)
	if cfg.ReadTemp == nil {
		cfg.ReadTemp = TempReader(DefaultTempPath)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{cfg: cfg, out: out, log: log, stopCh: make(chan struct{})}
}

func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Start enables the output and runs the startup test and control loop in
// the background until ctx is done or Close is called.
func (s *Service) Start(ctx context.Context) error {
	if s.out == nil {
		return fmt.Errorf("fancontrol: no output")
	}
	if err := s.out.SetEnabled(true); err != nil {
		s.setErr(err)
		return fmt.Errorf("fancontrol: enable output: %w", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.startupAndRun(ctx)
	}()
	return nil
}

// Close stops the loop and disables the output. Safe to call more than once.
func (s *Service) Close() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()

	var err error
	s.closed.Do(func() {
		if s.out != nil {
			err = s.out.SetEnabled(false)
		}
	})
	return err
}

func (s *Service) setErr(err error) {
	s.setState(func(sn *Snapshot) { sn.LastError = err.Error() })
}

func (s *Service) setState(update func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	update(&s.snap)
	s.snap.LastUpdateAt = time.Now().UTC()
}

func (s *Service) setDuty(f float64) bool {
	if err := s.out.SetDutyCycle(f); err != nil {
		s.log.Warn("fan duty update failed", zap.Float64("duty", f), zap.Error(err))
		s.setErr(err)
		return false
	}
	s.setState(func(sn *Snapshot) { sn.Duty = f })
	return true
}

// wait returns false when the service should stop.
func (s *Service) wait(ctx context.Context, d time.Duration) bool {
	select {
	case <-afterFn(d):
		return true
	case <-ctx.Done():
		return false
	case <-s.stopCh:
		return false
	}
}

func (s *Service) startupAndRun(ctx context.Context) {
	// Spin-up test: full duty, then minimum duty.
	if !s.setDuty(1) || !s.wait(ctx, startupFullDutyDuration) {
		return
	}
	if !s.setDuty(s.cfg.DutyMin) || !s.wait(ctx, startupMinDutyDuration) {
		return
	}
	s.runLoop(ctx)
}

func (s *Service) runLoop(ctx context.Context) {
	ctl := newPID(0.2, 0.2, 0.1, -100, 0)
	ctl.reset(s.cfg.TempTargetC)

	t := time.NewTicker(s.cfg.UpdateInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-t.C:
			s.step(ctl)
		}
	}
}

// step reads the temperature once and applies the resulting duty.
func (s *Service) step(ctl *pid) {
	tempC, err := s.cfg.ReadTemp()
	if err != nil {
		s.log.Warn("fan temperature read failed, running full duty", zap.Error(err))
		s.setState(func(sn *Snapshot) {
			sn.TempValid = false
			sn.LastError = err.Error()
		})
		s.setDuty(1)
		return
	}

	duty := dutyFor(-ctl.update(tempC, s.cfg.UpdateInterval), s.cfg.DutyMin)
	if !s.setDuty(duty) {
		return
	}
	s.log.Debug("fan duty updated", zap.Float64("temp_c", tempC), zap.Float64("duty", duty))
	s.setState(func(sn *Snapshot) {
		sn.TempValid = true
		sn.TempC = tempC
		sn.LastError = ""
	})
}

// dutyFor maps a PID demand in percent (0..100) onto [min, 1]. Demand at
// or below the 5% deadband keeps the fan at min.
func dutyFor(demand, min float64) float64 {
	demand = clamp(demand, 0, 100)
	if demand <= 5 {
		return min
	}
	return clamp(min+(demand/100)*(1-min), 0, 1)
}
