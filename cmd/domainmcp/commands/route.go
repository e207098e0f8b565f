package commands

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/powerautomation/domainmcp/logger"
)

var routeMaxDomains int

// RouteCmd routes a request text against the registered domains without
// executing any handlers. Useful for tuning keywords and thresholds.
var RouteCmd = &cobra.Command{
	Use:   "route <request text>",
	Short: "Show which domains would handle a request",
	Long: `Route a request through the relevance engines and print the matching
domains with their confidence scores, without calling any handlers.

Example:
  domainmcp route "保單核保流程分析"
  domainmcp route --max-domains 5 "policy underwriting review"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRoute,
}

func init() {
	RouteCmd.Flags().IntVar(&routeMaxDomains, "max-domains", 0, "Maximum domains to return (0 uses the configured default)")
}

func runRoute(cmd *cobra.Command, args []string) error {
	log := logger.Logger
	requestText := strings.Join(args, " ")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reg, err := assembleRegistry(cmd.Context(), cfg, nil, log)
	if err != nil {
		return err
	}
	defer reg.Close()

	matches := reg.Route(requestText, routeMaxDomains)
	if len(matches) == 0 {
		pterm.Warning.Println("No domains matched the request")
		pterm.Printf("  %s\n", pterm.Gray("Register domain manifests under: "+strings.Join(cfg.Discovery.Paths, ", ")))
		return nil
	}

	pterm.Info.Printf("%d domain(s) matched\n", len(matches))
	for i, m := range matches {
		pterm.Printf("  %s %s %s\n",
			pterm.Gray(fmt.Sprintf("%d.", i+1)),
			pterm.LightGreen(m.DomainID),
			pterm.Yellow(fmt.Sprintf("(confidence %.3f)", m.Confidence)))
		for _, reason := range m.MatchReasons {
			pterm.Printf("     %s %s\n", pterm.Gray("→"), reason)
		}
	}
	return nil
}
