package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/spacekit/internal/buf"
	"github.com/joshuapare/spacekit/space"
	"github.com/joshuapare/spacekit/space/exec"
	"github.com/joshuapare/spacekit/space/record"
	"github.com/joshuapare/spacekit/space/replay"
	"github.com/joshuapare/spacekit/space/resource"
)

var (
	demoReplayDir string
	demoLeak      bool
	demoCount     int
	demoSpace     string
)

func init() {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a tracked host/device round trip",
		Long: `The demo command allocates a labelled array v1 in HOST memory and a
labelled array v2 in the chosen space, copies 0..count-1 into both,
doubles each array in its own space and checks both results on the host.
The v1 kernel runs inline; the v2 kernel runs on an execution stream.

With --replay every allocation and copy is also written to a replay store.
With --leak v2 is left allocated and the live records of its space are
printed.

Example:
  spacectl demo
  spacectl demo --space UM --count 4096
  spacectl demo --replay /tmp/run1 --leak`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo()
		},
	}
	cmd.Flags().StringVar(&demoReplayDir, "replay", "", "Record replay events into this directory")
	cmd.Flags().BoolVar(&demoLeak, "leak", false, "Keep v2 allocated and print live records")
	cmd.Flags().IntVar(&demoCount, "count", 100, "Number of float64 elements per array")
	cmd.Flags().StringVar(&demoSpace, "space", resource.Device, "Strategy to allocate v2 from")
	rootCmd.AddCommand(cmd)
}

type demoResult struct {
	HostSpace string `json:"host_space"`
	Space     string `json:"space"`
	Elements  int    `json:"elements"`
	Verified  bool   `json:"verified"`
	Leaked    bool   `json:"leaked"`
	Live      int    `json:"live_records"`
	Events    int    `json:"replay_events,omitempty"`
}

func runDemo() (err error) {
	if demoCount <= 0 {
		return fmt.Errorf("--count must be positive, got %d", demoCount)
	}
	bytesN, ok := buf.MulOverflowSafe(demoCount, 8)
	if !ok {
		return fmt.Errorf("--count %d overflows the array size", demoCount)
	}

	m, err := resource.NewDefaultManager(managerOptions())
	if err != nil {
		return err
	}
	defer m.Close()

	var rec replay.Recorder = replay.LogRecorder{}
	var store *replay.Store
	if demoReplayDir != "" {
		store, err = replay.OpenStore(demoReplayDir, replay.StoreOptions{})
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, store.Close()) }()
		rec = replay.Multi(rec, store)
	}

	host, err := space.Host(space.WithManager(m))
	if err != nil {
		return err
	}
	sp, err := space.New(demoSpace, space.WithManager(m))
	if err != nil {
		return err
	}
	reg := record.NewRegistry(record.Options{Recorder: rec})
	eng := reg.Engine(sp)

	printVerbose("Allocating %d bytes in %s and %d bytes in %s\n", bytesN, host.Name(), bytesN, sp.Name())
	v1, err := reg.AllocateTracked(host, "v1", bytesN)
	if err != nil {
		return err
	}
	v2, err := reg.AllocateTracked(sp, "v2", bytesN)
	if err != nil {
		return errors.Join(err, reg.DeallocateTracked(host, v1))
	}

	src := make([]byte, bytesN)
	for i := range demoCount {
		binary.LittleEndian.PutUint64(src[i*8:], math.Float64bits(float64(i)))
	}

	stream := exec.NewStream(0)
	defer stream.Close()

	if err := eng.FromHostExec(exec.Host{}, v1, src); err != nil {
		return err
	}
	if err := eng.FromHostExec(stream, v2, src); err != nil {
		return err
	}
	if err := (exec.Host{}).Submit(func() error { return doubleKernel(host, v1, demoCount) }); err != nil {
		return err
	}
	if err := stream.Submit(func() error { return doubleKernel(sp, v2, demoCount) }); err != nil {
		return err
	}
	if err := stream.Fence(); err != nil {
		return err
	}

	verified := true
	out := make([]byte, bytesN)
	for _, arr := range []struct {
		name string
		p    space.Ptr
	}{{"v1", v1}, {"v2", v2}} {
		if err := eng.ToHost(out, arr.p); err != nil {
			return err
		}
		if i, got, ok := checkDoubled(out, demoCount); !ok {
			verified = false
			printVerbose("%s element %d: got %g want %g\n", arr.name, i, got, 2*float64(i))
		}
	}

	if err := reg.DeallocateTracked(host, v1); err != nil {
		return err
	}
	if !demoLeak {
		if err := reg.DeallocateTracked(sp, v2); err != nil {
			return err
		}
	}

	res := demoResult{
		HostSpace: host.Name(),
		Space:     sp.Name(),
		Elements:  demoCount,
		Verified:  verified,
		Leaked:    demoLeak,
		Live:      reg.Live(sp),
	}
	if store != nil {
		if res.Events, err = store.Len(); err != nil {
			return err
		}
	}

	if jsonOut {
		if err := printJSON(res); err != nil {
			return err
		}
	} else {
		printInfo("%s\n", heading("Demo"))
		printInfo("  v1 space: %s\n", res.HostSpace)
		printInfo("  v2 space: %s\n", res.Space)
		printInfo("  Elements: %d\n", res.Elements)
		if verified {
			printInfo("  Result:   %s\n", styled(okStyle, "✓ v1 == v2 == 2 * i"))
		} else {
			printInfo("  Result:   %s\n", styled(failStyle, "✗ mismatch"))
		}
		if store != nil {
			printInfo("  Replay:   %d events in %s\n", res.Events, demoReplayDir)
		}
	}

	if demoLeak && !quiet && !jsonOut {
		printInfo("\n%s\n", heading("Live records"))
		if err := reg.PrintRecords(os.Stdout, sp, verbose); err != nil {
			return err
		}
	}
	if demoLeak {
		if err := reg.DeallocateTracked(sp, v2); err != nil {
			return err
		}
	}
	if !verified {
		return errors.New("demo: result mismatch")
	}
	return nil
}

// doubleKernel doubles n float64 values in place at p.
func doubleKernel(sp space.Space, p space.Ptr, n int) error {
	return sp.Access(p, n*8, func(b []byte) {
		for i := range n {
			x := math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
			binary.LittleEndian.PutUint64(b[i*8:], math.Float64bits(2*x))
		}
	})
}

// checkDoubled reports the first element of b that is not 2*i.
func checkDoubled(b []byte, n int) (int, float64, bool) {
	for i := range n {
		if got := math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:])); got != 2*float64(i) {
			return i, got, false
		}
	}
	return 0, 0, true
}
