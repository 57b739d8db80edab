package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/expendi/expendi-cli/internal/config"
	"github.com/expendi/expendi-cli/internal/resolver"
	"github.com/expendi/expendi-cli/internal/ui"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <name-or-address>",
	Short: "Resolve a basename or reverse-resolve an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		defer a.close()

		res := resolver.New(a.client, config.Base)
		input := args[0]

		switch resolver.Classify(input) {
		case resolver.KindAddress:
			spin := ui.NewSpinner("Looking up reverse record...")
			spin.Start()
			name, err := res.ReverseLookup(cmd.Context(), input)
			if err != nil {
				spin.Stop()
				return err
			}
			pairs := [][2]string{
				{"Address", ui.Addr(input)},
				{"Name", ui.Val(name)},
			}
			// Verify the name resolves back to the queried address.
			if addr, err := res.Resolve(cmd.Context(), name); err == nil {
				if strings.EqualFold(addr, input) {
					pairs = append(pairs, [2]string{"Verified", ui.Success("forward record matches")})
				} else {
					pairs = append(pairs, [2]string{"Verified", ui.Warn("forward record points at " + addr)})
				}
			}
			spin.Stop()
			fmt.Println(ui.KeyValueBlock("Reverse Lookup", pairs))

		case resolver.KindName:
			spin := ui.NewSpinner("Resolving " + resolver.FullName(input) + "...")
			spin.Start()
			addr, err := res.Resolve(cmd.Context(), input)
			if err != nil {
				spin.Stop()
				return err
			}
			pairs := [][2]string{
				{"Name", ui.Val(resolver.FullName(input))},
				{"Address", ui.Addr(addr)},
			}
			if primary, err := res.ReverseLookup(cmd.Context(), addr); err == nil {
				pairs = append(pairs, [2]string{"Primary", ui.Meta(primary)})
			}
			if avatar, err := res.Text(cmd.Context(), input, "avatar"); err == nil && avatar != "" {
				pairs = append(pairs, [2]string{"Avatar", ui.Meta(avatar)})
			}
			spin.Stop()
			fmt.Println(ui.KeyValueBlock("Name Resolution", pairs))

		default:
			return fmt.Errorf("%q is neither a resolvable name nor an address", input)
		}
		return nil
	},
}
