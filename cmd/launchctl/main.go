// Command launchctl is a headless CLI wrapper around the launcher core,
// for scripting instance launches and diagnostics without the TUI.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/quasar/launchcore/internal/config"
	"github.com/quasar/launchcore/internal/core"
	"github.com/quasar/launchcore/internal/java"
	"github.com/quasar/launchcore/internal/launch"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = cmdList()
	case "launch":
		err = cmdLaunch(os.Args[2:])
	case "accounts":
		err = cmdAccounts(os.Args[2:])
	case "java":
		err = cmdJava(os.Args[2:])
	case "help", "-h", "--help":
		usage()
		return
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "launchctl:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `launchctl - headless launcher core CLI

Usage:
  launchctl list                        list instances
  launchctl launch [-offline] <id>      launch an instance
  launchctl accounts [-active <id>]     list or switch accounts
  launchctl java probe [-version N]     download and unpack a JRE into a temp dir removed on exit
  launchctl java detect                 list detected local Java installations`)
}

func loadConfigAndInstances() (*config.Config, *core.InstanceManager, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return nil, nil, err
	}
	instances := core.NewInstanceManager(cfg.Paths.DataDir)
	if err := instances.Load(); err != nil {
		return nil, nil, err
	}
	return cfg, instances, nil
}

func cmdList() error {
	_, instances, err := loadConfigAndInstances()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tVERSION\tLOADER\tLAST PLAYED")
	for _, inst := range instances.List() {
		last := "never"
		if !inst.LastPlayed.IsZero() {
			last = inst.LastPlayed.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", inst.ID, inst.Name, inst.Version, inst.Loader, last)
	}
	return w.Flush()
}

func cmdLaunch(args []string) error {
	fs := flag.NewFlagSet("launch", flag.ExitOnError)
	offline := fs.Bool("offline", false, "launch without refreshing credentials")
	accountID := fs.String("account", "", "account ID to launch as (defaults to the active account)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: launchctl launch [-offline] <instance-id>")
	}
	id := fs.Arg(0)

	cfg, instances, err := loadConfigAndInstances()
	if err != nil {
		return err
	}
	inst, ok := instances.Get(id)
	if !ok {
		return fmt.Errorf("instance not found: %s", id)
	}

	accounts := core.NewAccountManager(cfg.Paths.DataDir)
	if err := accounts.Load(); err != nil {
		return err
	}
	acc := accounts.GetActive()
	if *accountID != "" {
		for _, a := range accounts.Accounts {
			if a.ID == *accountID {
				acc = a
			}
		}
	}
	if acc == nil {
		acc = core.NewOfflineAccount("Player")
	}

	statusChan := make(chan launch.Status, 16)
	opts := &launch.Options{
		Instance:         inst,
		Account:          acc,
		Offline:          *offline,
		Config:           cfg,
		UpdateInstance:   instances.Update,
		UpdateLastPlayed: instances.UpdateLastPlayed,
		AddPlaytime:      instances.AddPlaytime,
		SaveAccount: func(a *core.Account) error {
			accounts.Add(a)
			return accounts.Save()
		},
	}
	launcher := launch.NewLauncher(opts, statusChan)

	done := make(chan error, 1)
	go func() { done <- launcher.Launch(context.Background()) }()

	for status := range statusChan {
		if status.LogLine != nil {
			fmt.Println(status.LogLine.Text)
			continue
		}
		fmt.Printf("[%5.1f%%] %s: %s\n", status.Progress*100, status.Step, status.Message)
	}
	return <-done
}

func cmdAccounts(args []string) error {
	fs := flag.NewFlagSet("accounts", flag.ExitOnError)
	active := fs.String("active", "", "set the active account by ID")
	fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	accounts := core.NewAccountManager(cfg.Paths.DataDir)
	if err := accounts.Load(); err != nil {
		return err
	}

	if *active != "" {
		if err := accounts.SetActive(*active); err != nil {
			return err
		}
		return accounts.Save()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tKIND\tACTIVE")
	for _, a := range accounts.Accounts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", a.ID, a.PlayerName, a.Kind, a.Active)
	}
	return w.Flush()
}

func cmdJava(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: launchctl java <probe|detect>")
	}
	switch args[0] {
	case "detect":
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		for _, inst := range java.NewDetector(cfg.Paths.JavaDir).FindAll() {
			fmt.Println(java.FormatInstallation(&inst))
		}
		return nil
	case "probe":
		fs := flag.NewFlagSet("probe", flag.ExitOnError)
		version := fs.Int("version", 21, "Java major version to query Adoptium for")
		fs.Parse(args[1:])

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		dir, err := os.MkdirTemp("", "launchctl-probe")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)

		inst, err := java.NewDownloader().DownloadRuntime(ctx, *version, dir, func(msg string) {
			fmt.Println(msg)
		})
		if err != nil {
			return err
		}
		fmt.Println("installed at", inst.Path)
		return nil
	default:
		return fmt.Errorf("unknown java subcommand: %s", args[0])
	}
}
