// Package reboot supplements the core with an opt-in reboot trigger. The
// core itself only ever queries NeedsReboot and reports the answer in its
// outcome (spec'd as query-only); acting on that answer is left to the
// surrounding daemon in the system this core was distilled from. The CLI
// here offers the same "act on it" step as an explicit -reboot flag,
// because a standalone tool with no daemon wrapping it has nowhere else to
// put that step.
package reboot

import (
	"os"
	"strconv"

	systemd "github.com/coreos/go-systemd/v22/dbus"
	dbus "github.com/godbus/dbus/v5"
	"github.com/pkg/errors"

	"github.com/amazonlinux/bottlerocket/standalone-update/pkg/logging"
)

// Coordinator schedules a reboot through the host's systemd, the way the
// bottlerocket mitigation package talks to systemd over D-Bus rather than
// shelling out to a bare reboot(8).
type Coordinator struct {
	log logging.Logger
}

// NewSystemdCoordinator builds a Coordinator that reaches the host's systemd
// over a private connection to the D-Bus system bus.
func NewSystemdCoordinator() *Coordinator {
	return &Coordinator{log: logging.New("reboot")}
}

func (c *Coordinator) connect() (*systemd.Conn, error) {
	dialer := func() (*dbus.Conn, error) {
		conn, err := dbus.SystemBusPrivate()
		if err != nil {
			return nil, errors.Wrap(err, "unable to connect to systemd bus")
		}
		methods := []dbus.Auth{dbus.AuthExternal(strconv.Itoa(os.Getuid()))}
		if err := conn.Auth(methods); err != nil {
			conn.Close()
			return nil, errors.Wrap(err, "unable to authenticate with systemd")
		}
		return conn, nil
	}
	return systemd.NewConnection(dialer)
}

// Reboot starts reboot.target, the systemd-native equivalent of invoking
// `systemctl reboot`.
func (c *Coordinator) Reboot() error {
	conn, err := c.connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	done := make(chan string, 1)
	if _, err := conn.StartUnit("reboot.target", "replace", done); err != nil {
		return errors.Wrap(err, "unable to start reboot.target")
	}
	result := <-done
	if result != "done" {
		return errors.Errorf("reboot.target job finished with result %q", result)
	}
	c.log.Warn("reboot scheduled")
	return nil
}
