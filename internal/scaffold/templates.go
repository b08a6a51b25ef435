package scaffold

const mainGoTemplate = `// Command deploy is this project's controller binary: it imports the
// scripts package below for its init-time registrations, then hands
// the populated global registry to fora's CLI. Build your own scripts
// package; this file rarely needs to change.
package main

import (
	"os"

	"github.com/aledsdavies/fora/cli"
	"github.com/aledsdavies/fora/runtime/script"

	// Update this import path to match your module once you run
	// ` + "`go mod init`" + ` for this deploy project -- it must point at the
	// ` + "`scripts`" + ` directory next to this file.
	_ "yourmodule/scripts"
)

func main() {
	os.Exit(cli.Execute(script.Global()))
}
`

const mustHelper = `
func must(err error) {
	if err != nil {
		panic(err)
	}
}
`

var minimalInventory = `hosts:
  - name: local
    url: "local:"
`

var minimalDeployGo = `// Package scripts holds this deployment's registered scripts. Run it
// with:
//
//	go run ./cmd/deploy inventory.yaml deploy
package scripts

import (
	"github.com/aledsdavies/fora/runtime/ops"
	"github.com/aledsdavies/fora/runtime/script"
)

func init() {
	must(script.Register("deploy", script.Spec{Func: deploy}))
}

func deploy(inv *script.Invocation) error {
	_, err := inv.Ops.UploadContent(
		[]byte("hello from fora!\n"),
		"/tmp/hello_world",
		ops.UploadOpts{Name: "a temporary example file"},
	)
	return err
}
` + mustHelper

func writeMinimal(dir string) error {
	if err := writeFile(dir, "inventory.yaml", minimalInventory); err != nil {
		return err
	}
	if err := writeFile(dir, "scripts/deploy.go", minimalDeployGo); err != nil {
		return err
	}
	return writeFile(dir, "cmd/deploy/main.go", mainGoTemplate)
}

var flatInventory = `hosts:
  - name: local
    url: "local:"
    groups: ["all"]

groups:
  - name: all
    vars:
      somevariable: "defined fallback in 'all' group"
`

var flatStaticfile = `Hello, I am static content!
`

var flatExampleTaskGo = `package scripts

import (
	"github.com/aledsdavies/fora/runtime/ops"
	"github.com/aledsdavies/fora/runtime/script"
)

func init() {
	must(script.Register("example_task", script.Spec{Func: exampleTask}))
}

func exampleTask(inv *script.Invocation) error {
	_, err := inv.Ops.Upload("files/staticfile", "/tmp/hello_world", ops.UploadOpts{
		Name: "a temporary example file",
	})
	return err
}
`

var flatExampleParamsGo = `package scripts

import (
	"fmt"

	"github.com/aledsdavies/fora/runtime/ops"
	"github.com/aledsdavies/fora/runtime/script"
)

func init() {
	must(script.Register("example_params", script.Spec{
		Params: []script.ParamSpec{{Name: "filename", Required: true}},
		Func:   exampleParams,
	}))
}

// exampleParams writes its required "filename" parameter's own value
// into that same file, standing in for the original's Jinja2-rendered
// template example (no templating library is wired into this
// generated project; see DESIGN.md's runtime/ops entry).
func exampleParams(inv *script.Invocation) error {
	filename := inv.Params["filename"].(string)
	content := fmt.Sprintf("this file was requested as %q via script parameters\n", filename)
	_, err := inv.Ops.UploadContent([]byte(content), filename, ops.UploadOpts{
		Name: "render the parameter example file",
	})
	return err
}
`

var flatDeployGo = `// Package scripts holds this deployment's registered scripts. Run it
// with:
//
//	go run ./cmd/deploy inventory.yaml deploy
package scripts

import "github.com/aledsdavies/fora/runtime/script"

func init() {
	must(script.Register("deploy", script.Spec{Func: deploy}))
}

func deploy(inv *script.Invocation) error {
	if err := script.Run(inv.Ops, script.Global(), inv.Stack, "example_task", nil); err != nil {
		return err
	}
	return script.Run(inv.Ops, script.Global(), inv.Stack, "example_params", map[string]any{
		"filename": "/tmp/paramtest.txt",
	})
}
` + mustHelper

func writeFlat(dir string) error {
	if err := mkdirs(dir, "files"); err != nil {
		return err
	}
	for path, content := range map[string]string{
		"inventory.yaml":            flatInventory,
		"files/staticfile":          flatStaticfile,
		"scripts/tasks_example.go":  flatExampleTaskGo,
		"scripts/params_example.go": flatExampleParamsGo,
		"scripts/deploy.go":         flatDeployGo,
		"cmd/deploy/main.go":        mainGoTemplate,
	} {
		if err := writeFile(dir, path, content); err != nil {
			return err
		}
	}
	return nil
}

var dotfilesZshrc = `# managed by fora
export EDITOR=nvim
`

var dotfilesKittyConf = `# managed by fora
font_size 11.0
`

var dotfilesInitLua = `-- managed by fora
vim.opt.number = true
`

var dotfilesDeployGo = `// Package scripts holds this deployment's registered scripts. It
// assumes an inventory already exists next to this project (the
// dotfiles layout deliberately doesn't write one). Run it with:
//
//	go run ./cmd/deploy inventory.yaml deploy
package scripts

import (
	"fmt"

	"github.com/aledsdavies/fora/runtime/ops"
	"github.com/aledsdavies/fora/runtime/script"
)

func init() {
	must(script.Register("deploy", script.Spec{Func: deploy}))
}

func deploy(inv *script.Invocation) error {
	user, err := inv.Ops.Conn.ResolveUser(nil)
	if err != nil {
		return err
	}
	homeDir := fmt.Sprintf("/home/%s", user)

	if _, err := inv.Ops.Upload("files/zshrc", homeDir+"/.zshrc", ops.UploadOpts{}); err != nil {
		return err
	}

	if _, err := inv.Ops.Directory(homeDir+"/.config/kitty", ops.NewDirectoryOpts()); err != nil {
		return err
	}
	if _, err := inv.Ops.Upload("files/kitty.conf", homeDir+"/.config/kitty/kitty.conf", ops.UploadOpts{}); err != nil {
		return err
	}

	if _, err := inv.Ops.Directory(homeDir+"/.config/nvim", ops.NewDirectoryOpts()); err != nil {
		return err
	}
	_, err = inv.Ops.Upload("files/init.lua", homeDir+"/.config/nvim/init.lua", ops.UploadOpts{})
	return err
}
` + mustHelper

func writeDotfiles(dir string) error {
	for path, content := range map[string]string{
		"files/zshrc":        dotfilesZshrc,
		"files/kitty.conf":   dotfilesKittyConf,
		"files/init.lua":     dotfilesInitLua,
		"scripts/deploy.go":  dotfilesDeployGo,
		"cmd/deploy/main.go": mainGoTemplate,
	} {
		if err := writeFile(dir, path, content); err != nil {
			return err
		}
	}
	return nil
}

var modularInventory = `hosts:
  - name: local
    url: "local:"
    groups: ["all"]

groups:
  - name: all
    vars:
      somevariable: "defined fallback in 'all' group"
`

var modularInstallGo = `package scripts

import (
	"github.com/aledsdavies/fora/runtime/ops"
	"github.com/aledsdavies/fora/runtime/script"
)

func init() {
	must(script.Register("example_task/install", script.Spec{Func: exampleTaskInstall}))
}

func exampleTaskInstall(inv *script.Invocation) error {
	if _, err := inv.Ops.Package([]string{"nginx"}, ops.NewPackageOpts()); err != nil {
		return err
	}
	started := ops.ServiceRestarted
	enabled := true
	_, err := inv.Ops.Service("nginx", ops.ServiceOpts{State: &started, Enabled: &enabled})
	return err
}
`

var modularAddSiteGo = `package scripts

import (
	"fmt"

	"github.com/aledsdavies/fora/runtime/ops"
	"github.com/aledsdavies/fora/runtime/script"
)

func init() {
	must(script.Register("example_task/add_site", script.Spec{
		Params: []script.ParamSpec{{Name: "site", Required: true}},
		Func:   exampleTaskAddSite,
	}))
}

func exampleTaskAddSite(inv *script.Invocation) error {
	site := inv.Params["site"].(string)
	content := fmt.Sprintf("server {\n    server_name %s;\n    # ...\n}\n", site)
	_, err := inv.Ops.UploadContent([]byte(content), fmt.Sprintf("/etc/nginx/sites/%s", site), ops.UploadOpts{
		Name: fmt.Sprintf("create the %s site definition", site),
	})
	return err
}
`

var modularDeployGo = `// Package scripts holds this deployment's registered scripts. Run it
// with:
//
//	go run ./cmd/deploy inventory.yaml deploy
package scripts

import "github.com/aledsdavies/fora/runtime/script"

func init() {
	must(script.Register("deploy", script.Spec{Func: deploy}))
}

func deploy(inv *script.Invocation) error {
	reg := script.Global()
	if err := script.Run(inv.Ops, reg, inv.Stack, "example_task/install", nil); err != nil {
		return err
	}
	if err := script.Run(inv.Ops, reg, inv.Stack, "example_task/add_site", map[string]any{"site": "site1.example.com"}); err != nil {
		return err
	}
	return script.Run(inv.Ops, reg, inv.Stack, "example_task/add_site", map[string]any{"site": "site2.example.com"})
}
` + mustHelper

func writeModular(dir string) error {
	for path, content := range map[string]string{
		"inventory.yaml":            modularInventory,
		"scripts/tasks_install.go":  modularInstallGo,
		"scripts/tasks_add_site.go": modularAddSiteGo,
		"scripts/deploy.go":         modularDeployGo,
		"cmd/deploy/main.go":        mainGoTemplate,
	} {
		if err := writeFile(dir, path, content); err != nil {
			return err
		}
	}
	return nil
}

var stagingInventory = `hosts:
  - name: staging1
    url: "ssh://staging1.example.com"
    groups: ["staging"]
  - name: staging2
    url: "ssh://staging2.example.com"
    groups: ["staging"]

groups:
  - name: all
    vars:
      somevariable: "defined fallback in 'all' group"
  - name: staging
    after: ["all"]
`

var prodInventory = `hosts:
  - name: prod1
    url: "ssh://prod1.example.com"
    groups: ["prod"]
  - name: prod2
    url: "ssh://prod2.example.com"
    groups: ["prod"]
  - name: prod3
    url: "ssh://prod3.example.com"
    groups: ["prod"]
  - name: prod4
    url: "ssh://prod4.example.com"
    groups: ["prod"]

groups:
  - name: all
    vars:
      somevariable: "defined fallback in 'all' group"
  - name: prod
    after: ["all"]
`

func writeStagingProd(dir string) error {
	for path, content := range map[string]string{
		"inventories/staging.yaml":  stagingInventory,
		"inventories/prod.yaml":     prodInventory,
		"scripts/tasks_install.go":  modularInstallGo,
		"scripts/tasks_add_site.go": modularAddSiteGo,
		"scripts/deploy.go":         modularDeployGo,
		"cmd/deploy/main.go":        mainGoTemplate,
	} {
		if err := writeFile(dir, path, content); err != nil {
			return err
		}
	}
	return nil
}
