package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sarchlab/playline/player"
	"github.com/sarchlab/playline/session"
	"github.com/sarchlab/playline/timeline"
)

var (
	playUnit    string
	playMonitor bool
	playRecord  bool
)

// scheduleEntry is one line of a JSON schedule file.
type scheduleEntry struct {
	Time    int64  `json:"time"`
	Message string `json:"message"`
}

// messageEvent prints a message when triggered.
type messageEvent struct {
	msg string
}

func (e *messageEvent) Trigger() error {
	fmt.Println(e.msg)
	return nil
}

func (e *messageEvent) String() string {
	return "Print " + strconv.Quote(e.msg)
}

var playCmd = &cobra.Command{
	Use:   "play <schedule.json>",
	Short: "Play a JSON schedule of timed messages.",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return playSchedule(args[0])
	},
}

func init() {
	playCmd.Flags().StringVar(&playUnit, "unit", "ms",
		"timeline unit, one of ns, us, ms, s")
	playCmd.Flags().BoolVar(&playMonitor, "monitor", false,
		"start the monitoring server during playback")
	playCmd.Flags().BoolVar(&playRecord, "record", false,
		"record the playback trace into a SQLite file")

	rootCmd.AddCommand(playCmd)
}

func playSchedule(path string) error {
	entries, err := readSchedule(path)
	if err != nil {
		return err
	}

	unit, err := parseUnit(playUnit)
	if err != nil {
		return err
	}

	tl := timeline.NewTimeline(unit)
	for _, entry := range entries {
		err := tl.AddEvent(entry.Time, &messageEvent{msg: entry.Message})
		if err != nil {
			return err
		}
	}

	s := buildSession()
	defer s.Terminate()

	p := player.NewPlayer(tl)
	s.RegisterTimeline("schedule", tl)
	s.RegisterPlayer("schedule", p)

	finished := make(chan struct{})
	p.AcceptHook(timeline.NewHookFunc(func(ctx timeline.HookCtx) error {
		if ctx.Pos == player.HookPosPlaybackFinished {
			close(finished)
		}
		return nil
	}))

	if err := p.Start(); err != nil {
		return err
	}

	<-finished

	return nil
}

func readSchedule(path string) ([]scheduleEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries []scheduleEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("cannot parse schedule %s: %w", path, err)
	}

	return entries, nil
}

func parseUnit(name string) (timeline.Unit, error) {
	switch name {
	case "ns":
		return timeline.Nanosecond, nil
	case "us":
		return timeline.Microsecond, nil
	case "ms":
		return timeline.Millisecond, nil
	case "s":
		return timeline.Second, nil
	default:
		return 0, fmt.Errorf("unknown unit %q", name)
	}
}

func buildSession() *session.Session {
	builder := session.MakeBuilder()

	if !playMonitor {
		builder = builder.WithoutMonitoring()
	} else if port := os.Getenv("PLAYLINE_MONITOR_PORT"); port != "" {
		portNumber, err := strconv.Atoi(port)
		if err == nil {
			builder = builder.WithMonitorPort(portNumber)
		}
	}

	if playRecord {
		builder = builder.WithRecording()
	}

	return builder.Build()
}
