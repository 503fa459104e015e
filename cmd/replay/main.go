// Command replay plays back a game export (.jsonl or .jsonl.gz) turn by turn.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"wordwatch/internal/replay"
)

func main() {
	file := pflag.StringP("file", "f", "", "replay file to play back (.jsonl or .jsonl.gz)")
	delay := pflag.Duration("delay", 500*time.Millisecond, "pause between turns")
	pflag.Parse()

	path := *file
	if path == "" && pflag.NArg() > 0 {
		path = pflag.Arg(0)
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --file game_<id>.jsonl [--delay 500ms]")
		os.Exit(2)
	}

	if err := run(os.Stdout, path, *delay); err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
}

func run(w io.Writer, path string, delay time.Duration) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	records, err := replay.ReadJSONL(f)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\n[Agent Simulator]\nLoading replay: %s\n\n", path)
	play(w, records, func() { time.Sleep(delay) })
	fmt.Fprintln(w, "\n[Simulation Complete]")
	return nil
}

func play(w io.Writer, records []replay.Record, pause func()) {
	for i, rec := range records {
		fmt.Fprintf(w, "--- TURN %d ---\n", rec.Turn)
		for _, line := range rec.TurnLines {
			fmt.Fprintf(w, "%s: %s\n", line.Sender, line.Text)
		}
		fmt.Fprintln(w)

		names := make([]string, 0, len(rec.Agents))
		for name := range rec.Agents {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			a := rec.Agents[name]
			fmt.Fprintf(w, "[%s]\n", name)
			fmt.Fprintf(w, "  Note: %s\n", a.Note)
			fmt.Fprintf(w, "  Reply: %s\n", a.Reply)
			fmt.Fprintf(w, "  Guess: %s\n\n", a.Guess)
		}

		fmt.Fprintf(w, "Outcome after turn: %s\n", rec.Outcome)
		fmt.Fprintf(w, "\n%s\n\n", strings.Repeat("-", 50))
		if i < len(records)-1 {
			pause()
		}
	}
}
