package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/visiona/colmix/internal/display"
	"github.com/visiona/colmix/internal/session"
)

// controlLoop reads line commands from stdin and maps them onto the
// session operations, mirroring the keyboard shortcuts of the original
// desktop shell:
//
//	1 <path>   set source 1 (odd columns)
//	2 <path>   set source 2 (even columns)
//	3 | start  start mixing
//	stop       stop mixing
//	esc | f    toggle fullscreen
//	stats      print counters
//	q | quit   exit
func controlLoop(ctx context.Context, cancel context.CancelFunc, ctrl *session.Controller, sink display.Sink) {
	fullscreen := false
	scanner := bufio.NewScanner(os.Stdin)

	printUsage()

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch strings.ToLower(cmd) {
		case "1", "2":
			slot := int(cmd[0] - '0')
			if arg == "" {
				fmt.Printf("usage: %s <path>\n", cmd)
				continue
			}
			if err := ctrl.SetSource(slot, arg); err != nil {
				slog.Error("set source failed", "slot", slot, "error", err)
			}

		case "3", "start":
			if err := ctrl.Start(ctx); err != nil {
				slog.Error("start failed", "error", err)
			}

		case "stop":
			if err := ctrl.Stop(); err != nil {
				slog.Error("stop failed", "error", err)
			}

		case "esc", "f", "fullscreen":
			fullscreen = !fullscreen
			sink.SetFullscreen(fullscreen)

		case "stats":
			printStats(ctrl.Stats())

		case "q", "quit", "exit":
			cancel()
			return

		case "h", "help", "?":
			printUsage()

		default:
			fmt.Printf("unknown command %q (h for help)\n", cmd)
		}
	}

	// stdin closed (EOF): keep running, signals still stop the process.
	slog.Debug("control: stdin closed")
}

func printUsage() {
	fmt.Println("commands: 1 <path> | 2 <path> | 3/start | stop | f (fullscreen) | stats | q")
}

func printStats(s session.Stats) {
	if !s.Running {
		fmt.Println("session idle")
		return
	}
	fmt.Printf("source 1: frames=%d restarts=%d fps=%.2f\n",
		s.SourceA.Frames, s.SourceA.Restarts, s.SourceA.FPSNative)
	fmt.Printf("source 2: frames=%d restarts=%d fps=%.2f\n",
		s.SourceB.Frames, s.SourceB.Restarts, s.SourceB.FPSNative)
	fmt.Printf("queue 1:  buffered=%d dropped=%d\n", s.ChannelA.Pushed-s.ChannelA.Popped, s.ChannelA.Dropped)
	fmt.Printf("queue 2:  buffered=%d dropped=%d\n", s.ChannelB.Pushed-s.ChannelB.Popped, s.ChannelB.Dropped)
	fmt.Printf("mixer:    pairs=%d mismatches=%d timeouts=%d/%d\n",
		s.Mixer.Pairs, s.Mixer.Mismatches, s.Mixer.TimeoutsA, s.Mixer.TimeoutsB)
}
