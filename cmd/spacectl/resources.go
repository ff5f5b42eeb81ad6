package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/spacekit/space/resource"
)

func init() {
	rootCmd.AddCommand(newResourcesCmd())
}

func newResourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "List the built-in allocation strategies",
		Long: `The resources command maps the built-in arenas and reports each
strategy's platform, host accessibility, capacity and guard mode.

Example:
  spacectl resources
  spacectl resources --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResources()
		},
	}
}

type resourceInfo struct {
	Name           string `json:"name"`
	Platform       string `json:"platform"`
	HostAccessible bool   `json:"host_accessible"`
	Capacity       int    `json:"capacity"`
	Guarded        bool   `json:"guarded"`
}

func managerOptions() resource.Options {
	opts := resource.DefaultOptions()
	opts.HostCapacity = capacity
	opts.DeviceCapacity = capacity
	opts.UnifiedCapacity = capacity
	opts.PinnedCapacity = capacity
	return opts
}

func runResources() error {
	m, err := resource.NewDefaultManager(managerOptions())
	if err != nil {
		return err
	}
	defer m.Close()

	var infos []resourceInfo
	for _, name := range m.Names() {
		r, err := m.Resource(name)
		if err != nil {
			return err
		}
		info := resourceInfo{
			Name:           name,
			Platform:       r.Platform().String(),
			HostAccessible: r.Platform().HostAccessible(),
		}
		if a, ok := r.(*resource.Arena); ok {
			info.Capacity = a.Capacity()
			info.Guarded = a.Guarded()
		}
		infos = append(infos, info)
	}

	if jsonOut {
		return printJSON(infos)
	}

	printInfo("%s\n", heading("Resources"))
	for _, info := range infos {
		access := "host-accessible"
		if !info.HostAccessible {
			access = "device-only"
		}
		guard := ""
		if info.Guarded {
			guard = styled(dimStyle, " (guarded)")
		}
		printInfo("  %-11s %-8s %-16s %d bytes%s\n", info.Name, info.Platform, access, info.Capacity, guard)
	}
	return nil
}
