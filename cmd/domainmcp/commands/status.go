package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/powerautomation/domainmcp/errors"
	"github.com/powerautomation/domainmcp/registry"
)

var statusPort int

// StatusCmd queries a running server's registry status endpoint
var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show status of a running domainmcp server",
	Long: `Query a running server's /api/status endpoint and print each domain's
health and rolling performance.

Example:
  domainmcp status
  domainmcp status --port 9000`,
	RunE: runStatus,
}

func init() {
	StatusCmd.Flags().IntVar(&statusPort, "port", 0, "Server port (0 uses the configured port)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	port := cfg.GetServerPort()
	if statusPort != 0 {
		port = statusPort
	}

	url := fmt.Sprintf("http://localhost:%d/api/status", port)
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		pterm.Error.Printf("Server not reachable on port %d\n", port)
		pterm.Printf("  %s\n", pterm.Gray("Start one with: domainmcp serve"))
		return errors.Wrap(err, "status request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Newf("server returned %s for %s", resp.Status, url)
	}

	var st registry.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return errors.Wrap(err, "failed to decode status response")
	}

	pterm.Info.Printf("Registry on port %d\n", port)
	pterm.Printf("  Domains:        %d\n", st.TotalDomains)
	pterm.Printf("  Router trained: %v\n", st.RoutingEngineTrained)
	pterm.Printf("  Auto-discovery: %v\n", st.AutoDiscovery)

	ids := make([]string, 0, len(st.Domains))
	for id := range st.Domains {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		d := st.Domains[id]
		health := pterm.Green("healthy")
		if !d.IsHealthy {
			health = pterm.Red("unhealthy")
		}
		pterm.Printf("\n  %s %s [%s]\n", pterm.LightGreen(id), pterm.White(d.Name), health)
		pterm.Printf("     %s %d requests, %.1f%% success, avg %.3fs\n",
			pterm.Gray("performance:"),
			d.Performance.TotalRequests,
			d.Performance.SuccessRate*100,
			d.Performance.AvgProcessingTime)
	}
	return nil
}
