package ops

import (
	"sort"
	"strings"

	"github.com/aledsdavies/fora/core/types"
	"github.com/aledsdavies/fora/pkgs/ferrors"
	"github.com/aledsdavies/fora/runtime/connection"
	"github.com/aledsdavies/fora/runtime/operation"
)

// packageManager is the per-distribution backend a Package call
// dispatches to, grounded on operations/pacman.py, apt.py and
// portage.py (each a thin `install`/`uninstall`/`is_installed` trio
// around its native tool).
type packageManager interface {
	name() string
	isInstalled(conn *connection.Connection, pkg string, opts []string) (bool, error)
	install(conn *connection.Connection, pkgs, opts []string) error
	uninstall(conn *connection.Connection, pkgs, opts []string) error
}

type pacmanManager struct{}

func (pacmanManager) name() string { return "pacman" }
func (pacmanManager) isInstalled(conn *connection.Connection, pkg string, opts []string) (bool, error) {
	cmd := append([]string{"pacman", "-Ql"}, opts...)
	cmd = append(cmd, "--", pkg)
	res, err := conn.Run(cmd, connection.RunOpts{})
	if err != nil {
		return false, err
	}
	return res.ReturnCode == 0, nil
}
func (pacmanManager) install(conn *connection.Connection, pkgs, opts []string) error {
	cmd := append([]string{"pacman", "--color", "always", "--noconfirm", "-S"}, opts...)
	cmd = append(cmd, "--")
	cmd = append(cmd, pkgs...)
	_, err := conn.Run(cmd, connection.RunOpts{})
	return err
}
func (pacmanManager) uninstall(conn *connection.Connection, pkgs, opts []string) error {
	cmd := append([]string{"pacman", "--color", "always", "--noconfirm", "-Rns"}, opts...)
	cmd = append(cmd, "--")
	cmd = append(cmd, pkgs...)
	_, err := conn.Run(cmd, connection.RunOpts{})
	return err
}

type aptManager struct{}

func (aptManager) name() string { return "apt" }
func (aptManager) isInstalled(conn *connection.Connection, pkg string, opts []string) (bool, error) {
	cmd := append([]string{"dpkg-query", "--show", "--showformat=${Status}"}, opts...)
	cmd = append(cmd, "--", pkg)
	res, err := conn.Run(cmd, connection.RunOpts{CaptureOutput: true})
	if err != nil {
		return false, err
	}
	return res.ReturnCode == 0 && strings.Contains(string(res.Stdout), "install ok installed"), nil
}
func (aptManager) install(conn *connection.Connection, pkgs, opts []string) error {
	cmd := append([]string{"apt-get", "install", "-y"}, opts...)
	cmd = append(cmd, "--")
	cmd = append(cmd, pkgs...)
	_, err := conn.Run(cmd, connection.RunOpts{})
	return err
}
func (aptManager) uninstall(conn *connection.Connection, pkgs, opts []string) error {
	cmd := append([]string{"apt-get", "remove", "-y"}, opts...)
	cmd = append(cmd, "--")
	cmd = append(cmd, pkgs...)
	_, err := conn.Run(cmd, connection.RunOpts{})
	return err
}

type portageManager struct{}

func (portageManager) name() string { return "portage" }
func (portageManager) isInstalled(conn *connection.Connection, pkg string, opts []string) (bool, error) {
	res, err := conn.Run([]string{"qlist", "-I", "--", pkg}, connection.RunOpts{})
	if err != nil {
		return false, err
	}
	return res.ReturnCode == 0, nil
}
func (portageManager) install(conn *connection.Connection, pkgs, opts []string) error {
	cmd := append([]string{"emerge", "--ask=n"}, opts...)
	cmd = append(cmd, "--")
	cmd = append(cmd, pkgs...)
	_, err := conn.Run(cmd, connection.RunOpts{})
	return err
}
func (portageManager) uninstall(conn *connection.Connection, pkgs, opts []string) error {
	cmd := append([]string{"emerge", "--ask=n", "--depclean"}, opts...)
	cmd = append(cmd, "--")
	cmd = append(cmd, pkgs...)
	_, err := conn.Run(cmd, connection.RunOpts{})
	return err
}

var packageManagers = []packageManager{pacmanManager{}, aptManager{}, portageManager{}}

// detectPackageManager probes for each backend's native command in
// preference order, grounded on the teacher's own `command -v`
// availability check done before dialing a transport.
func detectPackageManager(conn *connection.Connection) (packageManager, error) {
	probes := map[string]string{"pacman": "pacman", "apt": "apt-get", "portage": "emerge"}
	for _, mgr := range packageManagers {
		res, err := conn.Run([]string{"command", "-v", probes[mgr.name()]}, connection.RunOpts{})
		if err != nil {
			return nil, err
		}
		if res.ReturnCode == 0 {
			return mgr, nil
		}
	}
	return nil, ferrors.InvalidField("package", "no supported package manager (pacman, apt, portage) found on host")
}

// PackageOpts are the optional parameters of Package.
type PackageOpts struct {
	Present bool
	Opts    []string
	Name    string
	NoCheck bool
}

func NewPackageOpts() PackageOpts { return PackageOpts{Present: true} }

// Package installs or removes system packages using whichever of
// pacman, apt or portage is available on the remote host.
func (c *Context) Package(packages []string, opts PackageOpts) (*types.OperationResult, error) {
	mgr, err := detectPackageManager(c.Conn)
	if err != nil {
		return nil, err
	}

	o := c.newOp("package")
	o.Desc(opts.Name, strings.Join(packages, ", "))

	var installed []string
	for _, pkg := range packages {
		ok, err := mgr.isInstalled(c.Conn, pkg, opts.Opts)
		if err != nil {
			return nil, err
		}
		if ok {
			installed = append(installed, pkg)
		}
	}
	sort.Strings(installed)
	o.InitialState(operation.State{"installed": installed})

	var wantInstalled []string
	if opts.Present {
		wantInstalled = append([]string(nil), packages...)
		sort.Strings(wantInstalled)
	}
	o.FinalState(operation.State{"installed": wantInstalled})

	if o.Unchanged(false) {
		return c.checkResult(o.Success(), opts.NoCheck)
	}

	if !c.DryRun {
		installedSet := make(map[string]bool, len(installed))
		for _, p := range installed {
			installedSet[p] = true
		}
		if opts.Present {
			var toInstall []string
			for _, p := range packages {
				if !installedSet[p] {
					toInstall = append(toInstall, p)
				}
			}
			if len(toInstall) > 0 {
				if err := mgr.install(c.Conn, toInstall, opts.Opts); err != nil {
					return nil, err
				}
			}
		} else {
			var toRemove []string
			for _, p := range packages {
				if installedSet[p] {
					toRemove = append(toRemove, p)
				}
			}
			if len(toRemove) > 0 {
				if err := mgr.uninstall(c.Conn, toRemove, opts.Opts); err != nil {
					return nil, err
				}
			}
		}
	}

	return c.checkResult(o.Success(), opts.NoCheck)
}
