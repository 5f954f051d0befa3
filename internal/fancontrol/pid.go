package fancontrol

import "time"

// pid is a minimal PID controller with output clamping. Not safe for
// concurrent use.
//
// The service runs it with limits [-100, 0] and a setpoint in degrees C, so
// a hotter-than-target reading yields a negative output whose magnitude is
// the fan duty demand in percent; dutyFor maps that onto [DutyMin, 1].
type pid struct {
	kp, ki, kd float64
	setpoint   float64
	lo, hi     float64

	integral float64
	prevErr  float64
	havePrev bool
}

func newPID(kp, ki, kd, lo, hi float64) *pid {
	return &pid{kp: kp, ki: ki, kd: kd, lo: lo, hi: hi}
}

// reset changes the setpoint and clears accumulated state.
func (p *pid) reset(setpoint float64) {
	p.setpoint = setpoint
	p.integral = 0
	p.prevErr = 0
	p.havePrev = false
}

// update returns the clamped control output for a measurement taken dt
// after the previous one. A non-positive dt yields 0 and leaves the state alone.
func (p *pid) update(measurement float64, dt time.Duration) float64 {
	if dt <= 0 {
		return 0
	}
	sec := dt.Seconds()
	e := p.setpoint - measurement
	p.integral += e * sec

	var d float64
	if p.havePrev {
		d = (e - p.prevErr) / sec
	}
	p.prevErr = e
	p.havePrev = true

	return clamp(p.kp*e+p.ki*p.integral+p.kd*d, p.lo, p.hi)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
