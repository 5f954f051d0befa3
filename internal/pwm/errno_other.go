//go:build !unix

package pwm

func isBusy(err error) bool { return false }
