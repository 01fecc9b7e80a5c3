package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/parley/internal/config"
	"github.com/zjrosen/parley/internal/discovery"
)

var sessionsLimit int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List resumable sessions",
	Long:  `List sessions discovered under the transcript root, most recent first. Resume one with 'parley --resume <id>'.`,
	RunE:  runSessions,
}

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 50,
		"maximum number of sessions to list")
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	rootDir := cfg.Transcripts.RootDir
	if rootDir == "" {
		rootDir = config.DefaultTranscriptsRootDir()
	}

	// One-shot listing; no cache needed.
	scanner := discovery.NewScanner(rootDir, 0)
	sessions, err := scanner.ListSessions(cmd.Context(), sessionsLimit)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions found.")
		return nil
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-38s %-12s %-20s %s\n", "SESSION", "LAST ACTIVE", "PROJECT", "NAME")
	for _, info := range sessions {
		name := info.Name
		if name == "" {
			name = info.Description
		}
		fmt.Fprintf(w, "%-38s %-12s %-20s %s\n",
			info.SessionID,
			relativeAge(info.ModTime),
			info.Project,
			name,
		)
	}
	return nil
}

// relativeAge renders a modification time as a short age like "3h ago".
func relativeAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
