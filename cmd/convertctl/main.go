// convertctl is the control CLI for convertd.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"convertd/internal/config"
	"convertd/internal/ipc"
)

var (
	socketPath = flag.String("socket", "", "path to the convertd control socket")
	asJSON     = flag.Bool("json", false, "print status as JSON")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	socket := *socketPath
	if socket == "" {
		socket = config.DefaultSocketPath()
	}
	client := ipc.NewClient(socket)

	switch cmd := flag.Arg(0); cmd {
	case "ping":
		cmdPing(client)
	case "status":
		cmdStatus(client)
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `convertctl - Control utility for convertd

Usage: convertctl [options] <command>

Commands:
  ping      Check that the daemon is alive
  status    Show daemon mode, event counters and watcher exits
  help      Show this help message

Options:
  -socket <path>  Path to the control socket
  -json           Print status as JSON`)
}

func cmdPing(client *ipc.Client) {
	if err := client.Ping(); err != nil {
		fmt.Fprintf(os.Stderr, "convertd is not responding: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("convertd is running")
}

func cmdStatus(client *ipc.Client) {
	status, err := client.Status()
	if err != nil {
		fmt.Fprintf(os.Stderr, "status query failed: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "encode status: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("pid:     %d\n", status.PID)
	fmt.Printf("uptime:  %s\n", time.Since(status.StartedAt).Round(time.Second))
	fmt.Printf("mode:    %s\n", status.Mode)
	fmt.Println("events:")
	for _, kind := range []string{"mode-change", "rotate", "stylus-event", "watcher-exit"} {
		fmt.Printf("  %-13s %d\n", kind, status.Counts[kind])
	}
	if len(status.Exits) > 0 {
		fmt.Println("watcher exits:")
		for _, exit := range status.Exits {
			line := fmt.Sprintf("  %s  %s (%s)", exit.Time.Format(time.RFC3339), exit.Watcher, exit.Reason)
			if exit.Error != "" {
				line += ": " + exit.Error
			}
			fmt.Println(line)
		}
	}
}
