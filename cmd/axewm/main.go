// Command axewm runs the window manager, or, given positional arguments,
// acts as its own CLI client and forwards them as a command to whatever
// instance is already running (i3-msg's bare-argument behavior).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/phsym/console-slog"
	"github.com/thejerf/suture/v4"
	"rsc.io/getopt"

	"github.com/axewm/axewm/internal/command"
	"github.com/axewm/axewm/internal/config"
	"github.com/axewm/axewm/internal/world"
)

const version = "axewm 1.0.0 (compatible with i3 IPC)"

var (
	flagConfig        = flag.String("c", "", "path to the configuration file")
	flagValidate      = flag.Bool("C", false, "validate the configuration file and exit")
	flagNoAutostart   = flag.Bool("a", false, "disable autostart of exec_always/startup commands")
	flagRestoreLayout = flag.String("L", "", "restore a layout snapshot before managing windows")
	flagVersion       = flag.Bool("v", false, "print the version and exit")
	flagGetSocketPath = flag.Bool("get-socketpath", false, "print the running instance's IPC socket path and exit")
	flagRestart       = flag.String("restart", "", "internal: re-exec taking over from a restart, reading the snapshot at this path")
)

func init() {
	getopt.CommandLine.Init("axewm", flag.ContinueOnError)
	getopt.Alias("c", "config")
	getopt.Alias("C", "validate")
	getopt.Alias("a", "no-autostart")
	getopt.Alias("L", "restore-layout")
	getopt.Alias("v", "version")
}

func main() {
	os.Exit(run())
}

func run() int {
	getopt.Parse()
	args := flag.Args()

	switch {
	case *flagVersion:
		fmt.Println(version)
		return 0
	case *flagGetSocketPath:
		return printSocketPath()
	case len(args) > 0:
		return sendToRunningInstance(args)
	case *flagValidate:
		return validateConfig(*flagConfig)
	default:
		return runDaemon()
	}
}

func printSocketPath() int {
	path, err := discoverSocketPath()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(path)
	return 0
}

func sendToRunningInstance(args []string) int {
	path, err := discoverSocketPath()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	ok, err := sendCommand(path, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if !ok {
		return 1
	}
	return 0
}

func validateConfig(path string) int {
	if _, err := loadConfig(path); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	fmt.Println("configuration file ok")
	return 0
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func initLogger() *slog.Logger {
	h := console.NewHandler(os.Stderr, &console.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

func defaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, fmt.Sprintf("axewm-ipc.%d.sock", os.Getpid()))
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("axewm-ipc.%d.sock", os.Getpid()))
}

// reactorService adapts World.Run to suture.Service, so a crash in the
// X11 event loop gets logged and retried by the supervisor instead of
// silently killing the process (ItsNotGoodName-x-ipcviewer's sutureext
// pattern, generalized without pulling in its humacli dependency).
type reactorService struct {
	w *world.World
}

func (s reactorService) String() string { return "x11-reactor" }

func (s reactorService) Serve(ctx context.Context) error {
	err := s.w.Run(ctx)
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runDaemon() int {
	log := initLogger()

	cfg, err := loadConfig(*flagConfig)
	if err != nil {
		log.Error("failed to load configuration", "err", err)
		return 2
	}
	if cfg.IPCSocketPath == "" {
		cfg.IPCSocketPath = defaultSocketPath()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var w *world.World
	w, err = world.New(cfg, world.Options{
		SocketPath: cfg.IPCSocketPath,
		ConfigPath: *flagConfig,
		Parser:     unsupportedCommandParser,
		Restart:    func() { doRestart(log, w) },
		Reload:     func() { doReload(log, w) },
		Exit:       cancel,
	}, log)
	if err != nil {
		log.Error("failed to start", "err", err)
		return 1
	}
	defer w.Close()

	if !*flagNoAutostart {
		runAutostart(log)
	}

	restorePath := *flagRestoreLayout
	if restorePath == "" {
		restorePath = *flagRestart
	}
	if restorePath != "" {
		if err := restoreSnapshot(restorePath, w.Store.Root, w.Workspace); err != nil {
			log.Warn("failed to restore layout snapshot", "path", restorePath, "err", err)
		}
	}

	supervisor := suture.New("axewm", suture.Spec{EventHook: supervisorEventHook(log)})
	supervisor.Add(reactorService{w: w})

	if err := supervisor.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("supervisor exited", "err", err)
		return 1
	}
	return 0
}

// doRestart snapshots the live layout to a temp file and re-execs the
// current binary with --restart pointing at it, so the new process
// manages the same windows onto the same workspace/output assignment,
// restarting in place the way i3's "restart" command does.
func doRestart(log *slog.Logger, w *world.World) {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("axewm-restart-%d.json", os.Getpid()))
	if err := saveSnapshot(path, w.Store.Root, w.Workspace); err != nil {
		log.Error("restart: failed to save layout snapshot", "err", err)
		return
	}

	exe, err := os.Executable()
	if err != nil {
		log.Error("restart: cannot find own executable", "err", err)
		return
	}
	argv := []string{exe, "--restart", path, "-a"}
	if *flagConfig != "" {
		argv = append(argv, "-c", *flagConfig)
	}
	env := os.Environ()
	w.Close()
	if err := syscall.Exec(exe, argv, env); err != nil {
		log.Error("restart: exec failed", "err", err)
	}
}

func doReload(log *slog.Logger, w *world.World) {
	cfg, err := loadConfig(*flagConfig)
	if err != nil {
		log.Error("reload: failed to load configuration", "err", err)
		return
	}
	w.Config = cfg
}

func supervisorEventHook(log *slog.Logger) suture.EventHook {
	return func(ei suture.Event) {
		switch e := ei.(type) {
		case suture.EventServiceTerminate:
			log.Error("service terminated", "service", e.ServiceName, "err", e.Err)
		case suture.EventServicePanic:
			log.Error("service panicked", "panic", e.PanicMsg)
		case suture.EventBackoff:
			log.Warn("supervisor entering backoff", "supervisor", e.SupervisorName)
		case suture.EventResume:
			log.Info("supervisor resumed", "supervisor", e.SupervisorName)
		}
	}
}

// unsupportedCommandParser is the command-grammar parser hook: parsing
// i3's command language into command.Records is genuinely out of scope,
// so every IPC COMMAND request reports a clear error instead of silently
// no-oping.
func unsupportedCommandParser(payload string) ([]command.Record, error) {
	return nil, fmt.Errorf("axewm: command grammar parsing is not implemented")
}

// runAutostart is a placeholder seam: a real deployment wires exec_always
// style startup commands here via config.Config, generalizing taowm's
// hardcoded Caps-Lock launchers into data instead of code.
func runAutostart(log *slog.Logger) {
	_ = log
}
