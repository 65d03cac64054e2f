// Command ask sends one question to the chat service, polls the job and
// prints the answer.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"school-assistant/internal/client"
	"school-assistant/internal/domain/model"
)

var (
	serverURL string
	password  string
	token     string
	modelName string
	interval  time.Duration
	maxPolls  int
	raw       bool
	quiet     bool
)

var rootCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the school assistant a question",
	Long: `Submits the question as a chat job, polls its status until it finishes
and prints the assistant's answer. Chart blocks are rendered as text unless --raw is set.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runAsk,
}

func init() {
	rootCmd.Flags().StringVarP(&serverURL, "server", "s", envOr("ASK_SERVER", "http://localhost:8080"), "Base URL of the chat service")
	rootCmd.Flags().StringVar(&password, "admin-password", os.Getenv("ADMIN_PASSWORD"), "Admin password used to obtain a session")
	rootCmd.Flags().StringVar(&token, "token", os.Getenv("ASK_TOKEN"), "Existing session token (skips login)")
	rootCmd.Flags().StringVarP(&modelName, "model", "m", "", "Model to use (server default when empty)")
	rootCmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Delay between status polls")
	rootCmd.Flags().IntVar(&maxPolls, "max-polls", 90, "Give up after this many unfinished polls")
	rootCmd.Flags().BoolVar(&raw, "raw", false, "Print the answer exactly as stored")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print progress messages")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := client.New(serverURL, nil)
	switch {
	case token != "":
		c.SetToken(token)
	case password != "":
		if err := c.LoginAdmin(ctx, password); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	default:
		return errors.New("either --token or --admin-password (ADMIN_PASSWORD) is required")
	}

	question := strings.Join(args, " ")
	jobID, err := c.Submit(ctx, []model.ChatMessage{{Role: model.RoleUser, Text: question}}, modelName)
	if err != nil {
		return err
	}
	progress(cmd, "job %s submitted", jobID)

	last := ""
	poller := client.NewPoller(c, client.PollerConfig{
		Interval: interval,
		MaxPolls: maxPolls,
		OnProgress: func(s model.JobSnapshot) {
			if s.StatusMessage != last {
				last = s.StatusMessage
				progress(cmd, "%s", s.StatusMessage)
			}
		},
	})
	snap, err := poller.Wait(ctx, jobID)
	if err != nil {
		return err
	}

	answer := client.Reply(snap)
	if !raw {
		answer = renderAnswer(answer)
	}
	fmt.Fprintln(cmd.OutOrStdout(), answer)
	if snap.Status == model.JobStatusFailed {
		return errors.New("job failed")
	}
	return nil
}

func progress(cmd *cobra.Command, format string, args ...any) {
	if quiet {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "… "+format+"\n", args...)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
