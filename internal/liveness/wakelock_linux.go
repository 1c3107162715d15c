//go:build linux

package liveness

import (
	"errors"
	"fmt"
	"os"

	"github.com/godbus/dbus/v5"
)

const (
	logindDest      = "org.freedesktop.login1"
	logindPath      = "/org/freedesktop/login1"
	logindInterface = "org.freedesktop.login1.Manager"
)

// logindLock holds a systemd-logind "sleep:idle" inhibitor. The inhibitor
// lasts as long as the returned file descriptor stays open.
type logindLock struct {
	who, why string
	conn     *dbus.Conn
	fd       *os.File
}

// NewWakeLock returns a wake lock backed by systemd-logind. The system bus is
// only contacted on the first Acquire.
func NewWakeLock(who, why string) WakeLock {
	return &logindLock{who: who, why: why}
}

func (l *logindLock) Acquire() error {
	if l.fd != nil {
		return nil
	}
	if l.conn == nil {
		conn, err := dbus.ConnectSystemBus()
		if err != nil {
			return fmt.Errorf("connect system bus: %w", err)
		}
		l.conn = conn
	}

	var fd dbus.UnixFD
	call := l.conn.Object(logindDest, logindPath).Call(
		logindInterface+".Inhibit",
		0,
		"sleep:idle", // what
		l.who,        // who
		l.why,        // why
		"block",      // mode
	)
	if call.Err != nil {
		return fmt.Errorf("inhibit: %w", call.Err)
	}
	if err := call.Store(&fd); err != nil {
		return fmt.Errorf("inhibit: %w", err)
	}
	l.fd = os.NewFile(uintptr(fd), "logind-inhibitor")
	return nil
}

func (l *logindLock) Release() error {
	if l.fd == nil {
		return nil
	}
	err := l.fd.Close()
	l.fd = nil
	return err
}

func (l *logindLock) Close() error {
	err := l.Release()
	if l.conn != nil {
		err = errors.Join(err, l.conn.Close())
		l.conn = nil
	}
	return err
}
