package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"scorewatch/src/archive"
	"scorewatch/src/catalog"
	"scorewatch/src/config"
	"scorewatch/src/eventloop"
	"scorewatch/src/history"
	"scorewatch/src/instance"
	"scorewatch/src/logutil"
	"scorewatch/src/messages"
	"scorewatch/src/notify"
	"scorewatch/src/overlay"
	"scorewatch/src/pipeline"
	"scorewatch/src/router"
	"scorewatch/src/screenshot"
	"scorewatch/src/sched"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "scorewatch",
		Short:         "Watch for result screens and publish scores to the archive",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newRunCmd(), newUploadCmd(), newVersionCmd())
	return cmd
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Watch the screen and upload recognized results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch()
		},
	}
}

func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <capture.png>",
		Short: "Submit a saved capture manually (the archive classifies it)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runManualUpload(args[0])
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("scorewatch %s\n", version)
		},
	}
}

// app wires the long-lived collaborators. Both commands share the setup; the
// watch command additionally runs the loop and the settings watcher.
type app struct {
	cfg        *config.Settings
	store      *history.Store
	rtr        *router.Router
	queue      *sched.Queue
	dispatcher *notify.Dispatcher
	pipe       *pipeline.Pipeline
}

func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logutil.Setup(cfg.EnableFileLogging)

	cat, err := catalog.Load()
	if err != nil {
		return nil, err
	}
	if !cat.Known(cfg.Game) {
		return nil, fmt.Errorf("unknown game code %q", cfg.Game)
	}
	if !cfg.Session.SignedIn() {
		return nil, fmt.Errorf("no archive credentials configured")
	}

	store, err := history.Open(cfg.HistoryDBPath)
	if err != nil {
		return nil, err
	}

	client := archive.New(cfg.ArchiveURL)
	rtr := router.New()
	queue := sched.NewQueue()
	dispatcher := notify.New(rtr.Send, queue, cat, store.Best, client.TopScore)
	pipe := pipeline.New(cat, client, dispatcher, history.Recorder{Store: store}, cfg.PicturesRoot)

	return &app{
		cfg:        cfg,
		store:      store,
		rtr:        rtr,
		queue:      queue,
		dispatcher: dispatcher,
		pipe:       pipe,
	}, nil
}

func (a *app) close() {
	a.queue.CancelAll()
	for _, surface := range []string{messages.SurfaceMain, messages.SurfaceOverlay} {
		_ = a.rtr.Send(messages.Envelope{From: "app", To: surface, Message: messages.Shutdown{}})
	}
	a.rtr.Shutdown()
	_ = a.store.Close()
}

// startSurfaces registers both surfaces and spawns their consumers.
func (a *app) startSurfaces() error {
	overlayCh, err := a.rtr.Register(messages.SurfaceOverlay, 16)
	if err != nil {
		return err
	}
	mainCh, err := a.rtr.Register(messages.SurfaceMain, 16)
	if err != nil {
		return err
	}
	go overlay.Consume(overlayCh)
	go overlay.Consume(mainCh)
	return nil
}

func runWatch() error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.startSurfaces(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// one daemon per machine; a second instance would run its own upload
	// gate and upload the same result screen twice
	srv := instance.NewServer()
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("another instance appears to be running: %w", err)
	}
	defer srv.Close()
	go a.serveDelegated(ctx, srv)

	loop := eventloop.New(a.pipe, a.cfg)
	go func() {
		_ = config.Watch(ctx, func(cfg *config.Settings) {
			loop.UpdateSettings(cfg)
			for _, surface := range []string{messages.SurfaceMain, messages.SurfaceOverlay} {
				_ = a.rtr.Send(messages.Envelope{From: "watcher", To: surface, Message: messages.SettingsChanged{}})
			}
		})
	}()

	if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// serveDelegated answers upload requests from other invocations for as long
// as the daemon runs.
func (a *app) serveDelegated(ctx context.Context, srv instance.Server) {
	for {
		conn, err := srv.Next(ctx)
		if err != nil {
			return
		}
		a.handleDelegated(ctx, conn)
	}
}

func (a *app) handleDelegated(ctx context.Context, conn instance.Conn) {
	defer conn.Close()
	img, err := screenshot.LoadPNG(conn.Request().Path)
	if err != nil {
		_ = conn.RespondError(err.Error())
		return
	}
	out := a.processManual(ctx, img)
	switch out.Status {
	case pipeline.StatusAccepted:
		_ = conn.RespondSuccess(fmt.Sprintf("Accepted: %s %.2f%%", out.Result.Song.Title, out.Result.Score))
	case pipeline.StatusRejected:
		_ = conn.RespondError(out.Err)
	default:
		_ = conn.RespondError("archive did not recognize the capture")
	}
}

func (a *app) processManual(ctx context.Context, img image.Image) pipeline.Outcome {
	return a.pipe.ProcessCapture(ctx, pipeline.Request{
		Image:   img,
		Game:    a.cfg.Game,
		Session: a.cfg.Session,
		Options: pipeline.CaptureOptions{
			Manual:    true,
			SaveImage: a.cfg.SaveImages,
			Policy:    a.cfg.Privacy,
		},
	})
}

func runManualUpload(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	// a running daemon handles the upload with its live session and settings
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if delegated, text, err := instance.NewClient().TryUpload(ctx, abs); delegated {
		if err != nil {
			return fmt.Errorf("upload rejected: %w", err)
		}
		fmt.Println(text)
		return nil
	}

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.startSurfaces(); err != nil {
		return err
	}

	img, err := screenshot.LoadPNG(abs)
	if err != nil {
		return err
	}

	out := a.processManual(context.Background(), img)
	switch out.Status {
	case pipeline.StatusAccepted:
		fmt.Printf("Accepted: %s %.2f%%\n", out.Result.Song.Title, out.Result.Score)
		return nil
	case pipeline.StatusRejected:
		return fmt.Errorf("upload rejected: %s", out.Err)
	default:
		return fmt.Errorf("archive did not recognize the capture")
	}
}
