package commands

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/powerautomation/domainmcp/discovery"
	"github.com/powerautomation/domainmcp/logger"
)

// DomainsCmd lists the domain manifests found on the discovery paths
var DomainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "List domain manifests on the discovery paths",
	Long: `Scan the configured discovery paths for *.domain.toml manifests and
print what a server would register on startup.

Example:
  domainmcp domains
  domainmcp -v domains   # include keywords and handler details`,
	RunE: runDomains,
}

func runDomains(cmd *cobra.Command, args []string) error {
	log := logger.Logger
	verbosity, _ := cmd.Flags().GetCount("verbose")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	manifests := discovery.Scan(cfg.Discovery.Paths, log)
	if len(manifests) == 0 {
		pterm.Warning.Println("No domain manifests found")
		pterm.Printf("  %s\n", pterm.Gray("Searched: "+strings.Join(cfg.Discovery.Paths, ", ")))
		pterm.Printf("  %s\n", pterm.Gray("Manifests are TOML files named *"+discovery.ManifestSuffix))
		return nil
	}

	pterm.Info.Printf("%d domain manifest(s) found\n", len(manifests))
	for _, m := range manifests {
		pterm.Printf("  %s %s %s\n",
			pterm.LightGreen(m.DomainID),
			pterm.White(m.DomainName),
			pterm.Yellow(fmt.Sprintf("(threshold %.2f)", m.ConfidenceThreshold)))
		pterm.Printf("     %s %s\n", pterm.Gray("manifest:"), m.Path)
		if verbosity > 0 {
			pterm.Printf("     %s %s\n", pterm.Gray("capabilities:"), strings.Join(m.Capabilities, ", "))
			pterm.Printf("     %s %s\n", pterm.Gray("keywords:"), strings.Join(m.Keywords, ", "))
			pterm.Printf("     %s %s\n", pterm.Gray("handler:"), m.Handler.Command)
		}
	}
	return nil
}
