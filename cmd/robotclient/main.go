// Command robotclient runs on the robot: it records a spoken question, sends
// it to the server, prints the answer, and plays the synthesized speech while
// cycling the jaw servo in time with playback.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/internal/config"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/internal/robot"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	inputPath := flag.String("input", "", "answer one question from a WAV or raw PCM file instead of the microphone")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg = config.Default()
		err = config.Validate(cfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "robotclient: %v\n", err)
		return 1
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Server ────────────────────────────────────────────────────────────────
	client := robot.NewClient(cfg.Robot.ServerURL)
	if err := waitForServer(ctx, client); err != nil {
		fmt.Fprintf(os.Stderr, "robotclient: server at %s not available: %v\n", cfg.Robot.ServerURL, err)
		return 1
	}
	fmt.Println("Server is up, models loaded.")

	// ── Playback ──────────────────────────────────────────────────────────────
	playback, err := robot.NewPlayback(cfg.Robot.PlaybackBackend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "robotclient: %v\n", err)
		return 1
	}
	slog.Info("playback ready", "backends", playback.Backends())

	// ── Jaw actuator ──────────────────────────────────────────────────────────
	// The client stays usable without the servo; answers just play without
	// mouth movement.
	link, portName, err := robot.OpenLink(cfg.Robot.SerialPort, cfg.Robot.BaudRate)
	if err != nil {
		slog.Warn("jaw actuator unavailable", "err", err)
		link = nil
	} else {
		defer link.Close()
		slog.Info("jaw actuator connected", "port", portName)
	}

	session := &session{
		client:      client,
		playback:    playback,
		link:        link,
		jawInterval: cfg.Robot.JawInterval,
	}

	// ── Greeting ──────────────────────────────────────────────────────────────
	if answer, err := client.Greet(ctx); err == nil {
		fmt.Println(answer.Response)
		session.speak(ctx, answer.Audio)
	}

	// ── Single-file mode ──────────────────────────────────────────────────────
	if *inputPath != "" {
		pcm, err := robot.ReadClip(*inputPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "robotclient: %v\n", err)
			return 1
		}
		if err := session.ask(ctx, pcm); err != nil {
			fmt.Fprintf(os.Stderr, "robotclient: %v\n", err)
			return 1
		}
		return 0
	}

	// ── Interactive loop ──────────────────────────────────────────────────────
	recorder := robot.NewRecorder(cfg.Audio.SampleRate, cfg.Audio.Channels,
		robot.WithRecordDuration(time.Duration(cfg.Robot.RecordSeconds)*time.Second))

	fmt.Println("Press ENTER to ask a question, or type 'quit' to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() || ctx.Err() != nil {
			break
		}
		switch strings.TrimSpace(strings.ToLower(scanner.Text())) {
		case "quit", "exit", "q":
			fmt.Println("Om Shanti!")
			return 0
		case "":
			fmt.Printf("Recording for %ds — speak now.\n", cfg.Robot.RecordSeconds)
			pcm, err := recorder.Record(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "recording failed: %v\n", err)
				continue
			}
			if err := session.ask(ctx, pcm); err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
			}
		default:
			fmt.Println("Press ENTER to record, or type 'quit'.")
		}
	}
	return 0
}

// session holds the per-run collaborators for asking and speaking.
type session struct {
	client      *robot.Client
	playback    *robot.Playback
	link        robot.Link
	jawInterval time.Duration
}

// ask sends one question and renders the answer.
func (s *session) ask(ctx context.Context, pcm []byte) error {
	answer, err := s.client.Ask(ctx, pcm)
	if err != nil {
		return err
	}

	fmt.Printf("You asked: %s\n", answer.Transcription)
	if answer.FormattedResponse != "" {
		fmt.Println(answer.FormattedResponse)
	} else {
		fmt.Println(answer.Response)
	}

	if answer.Audio == nil {
		fmt.Println("(No audio in response.)")
		return nil
	}
	s.speak(ctx, answer.Audio)
	return nil
}

// speak plays wav while cycling the jaw. The two run concurrently and share
// one cancellation: when playback returns, the jaw cycle is cancelled and
// issues its neutral command before speak returns.
func (s *session) speak(ctx context.Context, wav []byte) {
	if len(wav) == 0 {
		return
	}

	playCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(playCtx)
	if s.link != nil {
		jaw := robot.NewJawController(s.link, robot.WithJawInterval(s.jawInterval))
		g.Go(func() error { return jaw.Run(gctx) })
	}
	g.Go(func() error {
		defer cancel()
		return s.playback.Play(gctx, wav)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("playback failed", "err", err)
	}
}

// waitForServer polls /health until the server reports ready or the
// attempts run out.
func waitForServer(ctx context.Context, client *robot.Client) error {
	const attempts = 30

	var lastErr error
	for i := 0; i < attempts; i++ {
		ok, err := client.Healthy(ctx)
		if ok {
			return nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if lastErr != nil {
		return lastErr
	}
	return errors.New("server never became ready")
}
