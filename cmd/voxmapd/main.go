package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/voxmap/voxmap/internal/config"
	"github.com/voxmap/voxmap/internal/daemon"
	"github.com/voxmap/voxmap/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "start":
		cmdStart(os.Args[2:])
	case "stop":
		cmdStop()
	case "status":
		cmdStatus()
	case "init-config":
		cmdInitConfig()
	case "config-export":
		cmdConfigExport(os.Args[2:])
	case "config-import":
		cmdConfigImport(os.Args[2:])
	case "version":
		fmt.Println(version.String())
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func cmdStart(args []string) {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	foreground := fs.Bool("foreground", false, "run in the foreground with console logging")
	configPath := fs.String("config", "", "path to a config file")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	if err := daemon.Run(cfg, daemon.Options{Foreground: *foreground}); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func cmdStop() {
	mustLoadConfig()
	if err := daemon.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func cmdStatus() {
	mustLoadConfig()
	if err := daemon.Status(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func cmdInitConfig() {
	if err := config.InitConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func cmdConfigExport(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: voxmapd config-export <path>")
		os.Exit(1)
	}
	mustLoadConfig()
	if err := config.ExportConfig(args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Config exported to %s\n", args[0])
}

func cmdConfigImport(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: voxmapd config-import <path>")
		os.Exit(1)
	}
	mustLoadConfig()
	if err := config.ImportConfig(args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Config imported from %s\n", args[0])
}

func mustLoadConfig() {
	if _, err := config.Load(""); err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: voxmapd <command> [options]

Commands:
  start            Start the voxmap engine daemon
  stop             Stop the running daemon
  status           Show daemon status
  init-config      Generate the default config file
  config-export    Export current config to a TOML file
  config-import    Import config from a TOML file
  version          Print version information
  help             Show this help message

Options:
  --foreground     Run in foreground (with 'start')
  --config <path>  Use an explicit config file (with 'start')`)
}
