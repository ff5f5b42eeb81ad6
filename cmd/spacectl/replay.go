package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/spacekit/space/replay"
)

var replayLimit int

func init() {
	cmd := &cobra.Command{
		Use:   "replay <dir>",
		Short: "Dump the events of a replay store",
		Long: `The replay command prints the allocation and copy events recorded by
"spacectl demo --replay <dir>" in sequence order.

Example:
  spacectl replay /tmp/run1
  spacectl replay /tmp/run1 --limit 10 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(args[0])
		},
	}
	cmd.Flags().IntVar(&replayLimit, "limit", 0, "Print at most this many events (0 = all)")
	rootCmd.AddCommand(cmd)
}

func runReplay(dir string) error {
	store, err := replay.OpenStore(dir, replay.StoreOptions{})
	if err != nil {
		return err
	}
	defer store.Close()

	events, err := store.Events(replayLimit)
	if err != nil {
		return fmt.Errorf("failed to read replay store: %w", err)
	}
	if jsonOut {
		if events == nil {
			events = []replay.Event{}
		}
		return printJSON(events)
	}

	printInfo("%s\n", heading(fmt.Sprintf("Replay (%d events)", len(events))))
	for _, ev := range events {
		printInfo("%s\n", formatEvent(ev))
	}
	return nil
}

func formatEvent(ev replay.Event) string {
	seq := styled(dimStyle, fmt.Sprintf("%6d", ev.Seq))
	switch ev.Kind {
	case replay.KindCopy:
		return fmt.Sprintf("%s copy       %s[0x%x + %d] -> %s[0x%x + %d] %d bytes",
			seq, ev.SrcStrategy, ev.Src, ev.SrcOffset, ev.DstStrategy, ev.Dst, ev.DstOffset, ev.Size)
	default:
		return fmt.Sprintf("%s %-10s %s[0x%x] %d bytes %q",
			seq, ev.Kind, ev.DstStrategy, ev.Dst, ev.Size, ev.Label)
	}
}
