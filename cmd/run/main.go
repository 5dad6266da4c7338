package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/worker-runtime/engine"
	"github.com/wippyai/worker-runtime/worker"
)

// config holds WORKER_RUN_* environment defaults for the flags.
type config struct {
	Script  string        `envconfig:"SCRIPT"`
	Name    string        `envconfig:"NAME" default:"script.js"`
	Msg     string        `envconfig:"MSG"`
	Sync    bool          `envconfig:"SYNC"`
	Timeout time.Duration `envconfig:"TIMEOUT"`
}

func main() {
	var cfg config
	if err := envconfig.Process("worker_run", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var (
		script      = flag.String("script", cfg.Script, "Path to guest script file")
		name        = flag.String("name", cfg.Name, "Resource name used in diagnostics")
		msg         = flag.String("msg", cfg.Msg, "Message to deliver after load (optional)")
		syncMode    = flag.Bool("sync", cfg.Sync, "Deliver the message with SendSync instead of Send")
		timeout     = flag.Duration("timeout", cfg.Timeout, "Terminate guest execution after this duration (0 = none)")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		worker.SetLogger(logger)
		engine.SetLogger(logger)
	}

	if *script == "" {
		fmt.Fprintln(os.Stderr, "Usage: run -script <file.js> [-name res.js] [-msg text] [-sync] [-timeout 5s]")
		fmt.Fprintln(os.Stderr, "       run -script <file.js> -i  (interactive mode)")
		os.Exit(1)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: -i requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*script, *name); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*script, *name, *msg, *syncMode, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(script, name, msg string, syncMode bool, timeout time.Duration) error {
	source, err := os.ReadFile(script)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	w := worker.New(nil)
	defer w.Close()

	// Guest-to-host traffic goes straight to stdout.
	recv := func(_ context.Context, msg string, _ any) {
		fmt.Printf("guest -> host: %s\n", msg)
	}
	recvSync := func(_ context.Context, msg string, _ any) string {
		fmt.Printf("guest -> host (sync): %s\n", msg)
		return msg
	}

	c, err := w.CreateContext(recv, recvSync, nil)
	if err != nil {
		return fmt.Errorf("create context: %w", err)
	}

	fmt.Printf("Runtime: v%s\n", worker.Version())
	fmt.Printf("Context: %d\n", c.ID())

	if timeout > 0 {
		watchdog := time.AfterFunc(timeout, w.Terminate)
		defer watchdog.Stop()
	}

	fmt.Printf("\nLoading %s...\n", name)
	if err := w.Load(context.Background(), c, name, string(source)); err != nil {
		fmt.Print(w.LastException())
		return fmt.Errorf("load failed with status %d", worker.StatusOf(err))
	}
	fmt.Println("Loaded.")

	if msg == "" {
		return nil
	}

	if syncMode {
		fmt.Printf("\nSendSync(%q)...\n", msg)
		fmt.Printf("Result: %s\n", w.SendSync(context.Background(), c, msg))
		return nil
	}

	fmt.Printf("\nSend(%q)...\n", msg)
	if err := w.Send(context.Background(), c, msg); err != nil {
		fmt.Print(w.LastException())
		return fmt.Errorf("send failed with status %d", worker.StatusOf(err))
	}
	fmt.Println("Delivered.")
	return nil
}
