package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hardhat-labs/girder-cli/internal/core/domain"
)

var (
	sessionSearchOnly bool
	sessionJSON       bool

	resumeAction     string
	resumeKeywords   []string
	resumePartitions []string
	resumeSelect     string
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage analyst sessions",
	Long: `Commands for long-lived analyst sessions.

A session suspends when it needs a feedback decision and no terminal is
attached. Suspended sessions survive restarts and are driven forward
with 'session resume'.`,
}

var sessionStartCmd = &cobra.Command{
	Use:   "start [query]",
	Short: "Start a new session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionStart,
}

var sessionResumeCmd = &cobra.Command{
	Use:   "resume [session-id]",
	Short: "Apply a feedback decision to a suspended session",
	Long: `Applies one feedback decision to a suspended session and continues it.

Actions:
  accept_all        keep the presented set and finish the loop
  select_partial    keep only the documents named with --select
  requery_keyword   retrieve again with --keywords added to the query
  requery_partition retrieve again restricted to --partitions
  escalate_web      augment the set with open-web guidance
  cancel            cancel the session, keeping committed documents`,
	Args: cobra.ExactArgs(1),
	RunE: runSessionResume,
}

var sessionCancelCmd = &cobra.Command{
	Use:   "cancel [session-id]",
	Short: "Cancel a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionCancel,
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List suspended sessions",
	RunE:  runSessionList,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Show a session without advancing it",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionShow,
}

func init() {
	sessionStartCmd.Flags().BoolVar(&sessionSearchOnly, "search-only", false, "skip report composition")
	sessionStartCmd.Flags().BoolVar(&sessionJSON, "json", false, "output final state as JSON")

	sessionResumeCmd.Flags().StringVar(&resumeAction, "action", "accept_all", "feedback action")
	sessionResumeCmd.Flags().StringSliceVar(&resumeKeywords, "keywords", nil, "keywords for requery_keyword")
	sessionResumeCmd.Flags().StringSliceVar(&resumePartitions, "partitions", nil, "partitions for requery_partition")
	sessionResumeCmd.Flags().StringVar(&resumeSelect, "select", "", "document positions for select_partial (e.g. 1-3,5)")
	sessionResumeCmd.Flags().BoolVar(&sessionJSON, "json", false, "output final state as JSON")

	sessionCmd.AddCommand(sessionStartCmd)
	sessionCmd.AddCommand(sessionResumeCmd)
	sessionCmd.AddCommand(sessionCancelCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionStart(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	intent := domain.IntentReport
	if sessionSearchOnly {
		intent = domain.IntentSearchOnly
	}

	state, err := sessionService.Start(cmd.Context(), args[0], intent)
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}

	return printSessionOutcome(cmd, state)
}

func runSessionResume(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	decision, err := buildDecision()
	if err != nil {
		return err
	}

	state, err := sessionService.Resume(cmd.Context(), args[0], decision)
	if err != nil {
		if errors.Is(err, domain.ErrCancelled) && state != nil {
			cmd.Printf("Session %s cancelled. %d documents retained.\n", state.ID, len(state.Documents))
			return nil
		}
		return fmt.Errorf("resuming session: %w", err)
	}

	return printSessionOutcome(cmd, state)
}

func runSessionCancel(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	state, err := sessionService.Cancel(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("cancelling session: %w", err)
	}

	cmd.Printf("Session %s cancelled. %d documents retained.\n", state.ID, len(state.Documents))
	return nil
}

func runSessionList(cmd *cobra.Command, _ []string) error {
	if sessionStore == nil {
		return errors.New("session store not configured")
	}

	ids, err := sessionStore.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}

	if len(ids) == 0 {
		cmd.Println("No suspended sessions.")
		return nil
	}

	for _, id := range ids {
		cmd.Println(id)
	}
	return nil
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	state, err := sessionService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}

	return outputJSON(cmd, state)
}

// buildDecision validates the resume flags into a feedback decision.
func buildDecision() (domain.FeedbackDecision, error) {
	action := domain.FeedbackAction(strings.TrimSpace(resumeAction))
	if !action.Valid() {
		return domain.FeedbackDecision{}, fmt.Errorf("unknown action %q", resumeAction)
	}

	decision := domain.FeedbackDecision{
		Action:     action,
		Keywords:   resumeKeywords,
		Partitions: resumePartitions,
	}

	if action == domain.FeedbackSelectPartial {
		indices, err := parseIndexRanges(resumeSelect)
		if err != nil {
			return domain.FeedbackDecision{}, err
		}
		decision.Indices = indices
	}

	return decision, nil
}

// parseIndexRanges expands "1-3,5" into [1 2 3 5]. Positions are
// 1-based; order and duplicates are preserved for the core to resolve.
func parseIndexRanges(spec string) ([]int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, errors.New("select_partial requires --select")
	}

	var indices []int
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err := strconv.Atoi(strings.TrimSpace(lo))
			if err != nil {
				return nil, fmt.Errorf("invalid selection %q", part)
			}
			end, err := strconv.Atoi(strings.TrimSpace(hi))
			if err != nil || end < start {
				return nil, fmt.Errorf("invalid selection %q", part)
			}
			for i := start; i <= end; i++ {
				indices = append(indices, i)
			}
			continue
		}

		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid selection %q", part)
		}
		indices = append(indices, n)
	}

	if len(indices) == 0 {
		return nil, errors.New("empty selection")
	}
	return indices, nil
}

func printSessionOutcome(cmd *cobra.Command, state *domain.SessionState) error {
	if state.Suspended {
		printSuspended(cmd, state)
		return nil
	}

	if sessionJSON {
		return outputJSON(cmd, state)
	}

	outputDocumentTable(cmd, state.Documents)
	if state.ReportText != "" {
		cmd.Println("Findings:")
		cmd.Println()
		cmd.Println(state.ReportText)
	}
	return nil
}
