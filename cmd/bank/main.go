package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	cl "banktycoon/internal/cli"
	"banktycoon/internal/config"
	"banktycoon/internal/game"
	"banktycoon/internal/runner"
	"banktycoon/internal/syncq"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// target is the server the CLI talks to.
type target struct {
	base  string
	token string
}

func main() {
	cfg := config.LoadCLIFromEnv()
	t := &target{base: cfg.APIBaseURL, token: cfg.APIToken}
	if saved, err := cl.LoadSettings(); err == nil {
		if os.Getenv("BANK_API_BASE_URL") == "" && saved.APIBaseURL != "" {
			t.base = saved.APIBaseURL
		}
		if t.token == "" {
			t.token = saved.APIToken
		}
	}

	root := &cobra.Command{
		Use:          "bank",
		Short:        "Bank tycoon client",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&t.base, "api", t.base, "API base URL")

	root.AddCommand(
		newLoginCmd(t),
		newLogoutCmd(),
		newStatusCmd(t),
		newPlayCmd(t),
		newQueueCmd(t),
		newDecisionCmd(t, true),
		newDecisionCmd(t, false),
		newStaffCmd(t),
		newUpgradeCmd(t),
		newInvestCmd(t),
		newTechCmd(t),
		newRatesCmd(t),
		newAutomationCmd(t),
		newEventCmd(t),
		newObjectivesCmd(t),
		newAnalyticsCmd(t),
		newClockCmd(t),
		newSaveCmd(t),
		newSyncCmd(t),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(t *target) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(t.base), "/"), t.token)
}

func newLoginCmd(t *target) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Remember the server URL and API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := promptDefault("API base URL", t.base)
			if err != nil {
				return err
			}
			token, err := promptOptional("API token (optional)")
			if err != nil {
				return err
			}
			t.base, t.token = strings.TrimRight(base, "/"), token

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			st, err := newClient(t).State(ctx)
			if err != nil {
				return err
			}
			if err := cl.SaveSettings(cl.Settings{APIBaseURL: t.base, APIToken: t.token}); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Connected. %s, cash %s.", st.Date, money(st.Cash)))
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved server settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cl.ClearSettings(); err != nil {
				return err
			}
			printSuccess("Settings cleared.")
			return nil
		},
	}
}

func newStatusCmd(t *target) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"dash"},
		Short:   "Show the bank dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			st, err := newClient(t).State(ctx)
			if err != nil {
				return err
			}
			renderDashboard(st)
			return nil
		},
	}
}

func newQueueCmd(t *target) *cobra.Command {
	return &cobra.Command{
		Use:   "queue [customers|loans]",
		Short: "List pending customer and loan requests",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			st, err := newClient(t).State(ctx)
			if err != nil {
				return err
			}
			which := "all"
			if len(args) > 0 {
				which = strings.ToLower(strings.TrimSpace(args[0]))
			}
			switch which {
			case "customers":
				renderCustomerQueue(st)
			case "loans":
				renderLoanQueue(st)
			case "all":
				renderCustomerQueue(st)
				renderLoanQueue(st)
			default:
				return fmt.Errorf("unknown queue %q", which)
			}
			return nil
		},
	}
}

func newDecisionCmd(t *target, approve bool) *cobra.Command {
	verb := "deny"
	if approve {
		verb = "approve"
	}
	return &cobra.Command{
		Use:   verb + " [customer|loan] [id]",
		Short: strings.ToUpper(verb[:1]) + verb[1:] + " a pending request",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			queue, err := argOrChoice(args, 0, "Queue", []string{"customer", "loan"}, "customer")
			if err != nil {
				return err
			}
			id, err := argOrPrompt(args, 1, "Request ID")
			if err != nil {
				return err
			}
			queue = map[string]string{"customer": "customers", "loan": "loans"}[queue]
			if queue == "" {
				return fmt.Errorf("queue must be customer or loan")
			}
			return runWrite(cmd, t, http.MethodPost, cl.DecidePath(queue, id, approve), nil,
				fmt.Sprintf("Request %s %s.", id, pastTense(verb)))
		},
	}
}

func newStaffCmd(t *target) *cobra.Command {
	staff := &cobra.Command{
		Use:   "staff",
		Short: "Hire and fire staff",
	}
	for _, hire := range []bool{true, false} {
		verb := "fire"
		if hire {
			verb = "hire"
		}
		staff.AddCommand(&cobra.Command{
			Use:   verb + " [role]",
			Short: strings.ToUpper(verb[:1]) + verb[1:] + " one employee",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				roles := make([]string, 0, len(game.Roles))
				for _, r := range game.Roles {
					roles = append(roles, string(r))
				}
				raw, err := argOrChoice(args, 0, "Role", roles, string(game.RoleTellers))
				if err != nil {
					return err
				}
				role, err := game.ParseRole(raw)
				if err != nil {
					return err
				}
				return runWrite(cmd, t, http.MethodPost, cl.StaffPath(role, hire), nil,
					fmt.Sprintf("%s: %s one.", role, pastTense(verb)))
			},
		})
	}
	return staff
}

func newUpgradeCmd(t *target) *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade the bank to the next level",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(cmd, t, http.MethodPost, "/v1/bank/upgrade", nil, "Bank upgraded.")
		},
	}
}

func newInvestCmd(t *target) *cobra.Command {
	return &cobra.Command{
		Use:   "invest [bonds|stocks|speculative] [amount]",
		Short: "Move cash into an investment bucket",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := argOrChoice(args, 0, "Bucket",
				[]string{string(game.BucketBonds), string(game.BucketStocks), string(game.BucketSpeculative)}, string(game.BucketBonds))
			if err != nil {
				return err
			}
			bucket, err := game.ParseBucket(raw)
			if err != nil {
				return err
			}
			amount, err := floatArgOrPrompt(args, 1, "Amount", 0)
			if err != nil {
				return err
			}
			body := map[string]any{"bucket": string(bucket), "amount": amount}
			return runWrite(cmd, t, http.MethodPost, "/v1/investments", body,
				fmt.Sprintf("Invested %s in %s.", money(amount), bucket))
		},
	}
}

func newTechCmd(t *target) *cobra.Command {
	tech := &cobra.Command{
		Use:   "tech",
		Short: "Technology tree",
	}
	tech.AddCommand(&cobra.Command{
		Use:   "list [category]",
		Short: "Show technologies and their next cost",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			st, err := newClient(t).State(ctx)
			if err != nil {
				return err
			}
			cats := game.TechCategories
			if len(args) > 0 {
				cat, err := game.ParseTechCategory(strings.ToLower(strings.TrimSpace(args[0])))
				if err != nil {
					return err
				}
				cats = []game.TechCategory{cat}
			}
			renderTech(st, cats)
			return nil
		},
	})
	tech.AddCommand(&cobra.Command{
		Use:   "research [category] [id]",
		Short: "Research the next level of a technology",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cats := make([]string, 0, len(game.TechCategories))
			for _, c := range game.TechCategories {
				cats = append(cats, string(c))
			}
			raw, err := argOrChoice(args, 0, "Category", cats, string(game.TechSecurity))
			if err != nil {
				return err
			}
			cat, err := game.ParseTechCategory(raw)
			if err != nil {
				return err
			}
			id, err := argOrPrompt(args, 1, "Technology ID")
			if err != nil {
				return err
			}
			return runWrite(cmd, t, http.MethodPost, cl.ResearchPath(cat, id), nil,
				fmt.Sprintf("Researched %s/%s.", cat, id))
		},
	})
	return tech
}

func newRatesCmd(t *target) *cobra.Command {
	return &cobra.Command{
		Use:   "rates [deposit] [loan]",
		Short: "Set deposit and loan base rates (0 to 0.25)",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			deposit, err := floatArgOrPrompt(args, 0, "Deposit rate", -1)
			if err != nil {
				return err
			}
			loan, err := floatArgOrPrompt(args, 1, "Loan base rate", -1)
			if err != nil {
				return err
			}
			body := map[string]any{"deposit": deposit, "loan": loan}
			return runWrite(cmd, t, http.MethodPost, "/v1/rates", body,
				fmt.Sprintf("Rates set: deposit %s, loan %s.", pct(deposit*100), pct(loan*100)))
		},
	}
}

func newAutomationCmd(t *target) *cobra.Command {
	auto := &cobra.Command{
		Use:   "automation",
		Short: "Show or replace the staff automation policies",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			st, err := newClient(t).State(ctx)
			if err != nil {
				return err
			}
			renderAutomation(st.Automation)
			return nil
		},
	}
	auto.AddCommand(&cobra.Command{
		Use:   "set [file.json]",
		Short: "Replace the automation policies from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			cfg, err := decodeInto[game.AutomationConfig](data)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			st, err := newClient(t).Command(ctx, http.MethodPut, "/v1/automation", cfg, uuid.NewString())
			if err != nil {
				return err
			}
			renderAutomation(st.Automation)
			printSuccess("Automation updated.")
			return nil
		},
	})
	return auto
}

func newEventCmd(t *target) *cobra.Command {
	event := &cobra.Command{
		Use:   "event",
		Short: "Show the active event",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			st, err := newClient(t).State(ctx)
			if err != nil {
				return err
			}
			renderEvent(st)
			return nil
		},
	}
	event.AddCommand(&cobra.Command{
		Use:   "resolve [choice]",
		Short: "Answer the active event",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			client := newClient(t)
			var choice int
			if len(args) > 0 {
				v, err := strconv.Atoi(strings.TrimSpace(args[0]))
				if err != nil {
					return fmt.Errorf("invalid choice")
				}
				choice = v
			} else {
				st, err := client.State(ctx)
				if err != nil {
					return err
				}
				if st.ActiveEvent == nil {
					printInfo("No active event.")
					return nil
				}
				renderEvent(st)
				v, err := promptInt("Choice", 1, len(st.ActiveEvent.Choices))
				if err != nil {
					return err
				}
				choice = v - 1
			}
			rec, err := client.ResolveEvent(ctx, choice, uuid.NewString())
			if err != nil {
				return err
			}
			accent.Printf("\n== %s ==\n", rec.Title)
			fmt.Printf("Choice:  %s\n", rec.Choice)
			fmt.Printf("Outcome: %s\n\n", rec.Outcome)
			return nil
		},
	})
	return event
}

func newObjectivesCmd(t *target) *cobra.Command {
	return &cobra.Command{
		Use:   "objectives",
		Short: "Show visible objectives and progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(t).Objectives(ctx)
			if err != nil {
				return err
			}
			renderObjectives(out)
			return nil
		},
	}
}

func newAnalyticsCmd(t *target) *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Show financial ratios and the last monthly statement",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			client := newClient(t)
			a, err := client.Analytics(ctx)
			if err != nil {
				return err
			}
			st, err := client.State(ctx)
			if err != nil {
				return err
			}
			renderAnalytics(a, st)
			return nil
		},
	}
}

func newClockCmd(t *target) *cobra.Command {
	clock := &cobra.Command{
		Use:   "clock",
		Short: "Show the game clock",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			s, err := newClient(t).Clock(ctx)
			if err != nil {
				return err
			}
			renderClock(s)
			return nil
		},
	}
	clock.AddCommand(&cobra.Command{
		Use:   "toggle",
		Short: "Pause or resume auto-advance",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			s, err := newClient(t).ToggleClock(ctx)
			if err != nil {
				return err
			}
			renderClock(s)
			return nil
		},
	})
	clock.AddCommand(&cobra.Command{
		Use:   "speed [fast|normal|slow]",
		Short: "Change the tick interval",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := argOrChoice(args, 0, "Speed",
				[]string{string(runner.SpeedFast), string(runner.SpeedNormal), string(runner.SpeedSlow)}, string(runner.SpeedNormal))
			if err != nil {
				return err
			}
			speed, err := runner.ParseSpeed(raw)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			s, err := newClient(t).SetSpeed(ctx, speed)
			if err != nil {
				return err
			}
			renderClock(s)
			return nil
		},
	})
	clock.AddCommand(&cobra.Command{
		Use:   "advance [days]",
		Short: "Run days immediately",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			days := game.DaysPerMonth
			if len(args) > 0 {
				v, err := strconv.Atoi(strings.TrimSpace(args[0]))
				if err != nil || v <= 0 {
					return fmt.Errorf("days must be a positive whole number")
				}
				days = v
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()
			rep, err := newClient(t).Advance(ctx, days)
			if err != nil {
				return err
			}
			renderTickReport(rep)
			return nil
		},
	})
	return clock
}

func newSaveCmd(t *target) *cobra.Command {
	save := &cobra.Command{
		Use:   "save",
		Short: "Save the game",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := newClient(t).Save(ctx); err != nil {
				return err
			}
			printSuccess("Game saved.")
			return nil
		},
	}
	save.AddCommand(&cobra.Command{
		Use:   "load",
		Short: "Reload the last save",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			st, err := newClient(t).Command(ctx, http.MethodPost, "/v1/load", nil, "")
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Loaded %s.", st.Date))
			return nil
		},
	})
	save.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Delete the stored save",
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := promptConfirm("Delete the stored save?")
			if err != nil || !ok {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := newClient(t).DeleteSave(ctx); err != nil {
				return err
			}
			printSuccess("Save deleted.")
			return nil
		},
	})
	save.AddCommand(&cobra.Command{
		Use:   "export [file]",
		Short: "Write a checksummed export of the save",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			data, err := newClient(t).Export(ctx)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				_, err := os.Stdout.Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(args[0], data, 0o600); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Exported to %s.", args[0]))
			return nil
		},
	})
	save.AddCommand(&cobra.Command{
		Use:   "import [file]",
		Short: "Replace the game with an export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			st, err := newClient(t).Import(ctx, data)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Imported %s, cash %s.", st.Date, money(st.Cash)))
			return nil
		},
	})
	save.AddCommand(&cobra.Command{
		Use:   "new-game",
		Short: "Start over and drop the stored save",
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := promptConfirm("Start a new game? The current save is lost.")
			if err != nil || !ok {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			st, err := newClient(t).Command(ctx, http.MethodPost, "/v1/new-game", nil, "")
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("New game: %s, cash %s.", st.Date, money(st.Cash)))
			return nil
		},
	})
	return save
}

func newSyncCmd(t *target) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay commands queued while the server was unreachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			queue, err := syncq.Open()
			if err != nil {
				return err
			}
			pending, err := queue.Load()
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				printInfo("Sync queue is empty.")
				return nil
			}
			client := newClient(t)
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			res, err := queue.Replay(ctx, func(ctx context.Context, c syncq.Command) error {
				_, err := client.Do(ctx, c.Method, c.Path, c.Body, c.IdempotencyKey)
				return err
			}, func(err error) bool { return !cl.IsAPIError(err) })
			for _, r := range res.Rejected {
				printError(fmt.Sprintf("Dropped %s %s: %v", r.Command.Method, r.Command.Path, r.Err))
			}
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Sync complete: replayed=%d dropped=%d remaining=%d", res.Replayed, len(res.Rejected), res.Remaining))
			return nil
		},
	}
}

// runWrite sends one state-changing command. When the server cannot be
// reached the command is queued for `bank sync` under the same idempotency
// key.
func runWrite(cmd *cobra.Command, t *target, method, path string, body map[string]any, okMsg string) error {
	idem := uuid.NewString()
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	var payload any
	if body != nil {
		payload = body
	}
	st, err := newClient(t).Command(ctx, method, path, payload, idem)
	if err != nil {
		return queueOnNetworkError(err, syncq.Command{
			Method:         method,
			Path:           path,
			Body:           body,
			IdempotencyKey: idem,
		})
	}
	printSuccess(okMsg)
	renderSummary(st)
	return nil
}

func queueOnNetworkError(err error, c syncq.Command) error {
	if err == nil || cl.IsAPIError(err) {
		return err
	}
	queue, qerr := syncq.Open()
	if qerr != nil {
		return fmt.Errorf("request failed: %w (queue unavailable: %v)", err, qerr)
	}
	if qerr := queue.Push(c); qerr != nil {
		return fmt.Errorf("request failed: %w (queue write failed: %v)", err, qerr)
	}
	printWarn("Server unreachable. Command queued; run `bank sync` later.")
	return nil
}

func argOrPrompt(args []string, idx int, label string) (string, error) {
	if len(args) > idx {
		return strings.TrimSpace(args[idx]), nil
	}
	return promptRequired(label)
}

func argOrChoice(args []string, idx int, label string, options []string, def string) (string, error) {
	if len(args) > idx {
		return strings.TrimSpace(args[idx]), nil
	}
	return promptChoice(label, options, def)
}

func floatArgOrPrompt(args []string, idx int, label string, min float64) (float64, error) {
	if len(args) > idx {
		v, err := strconv.ParseFloat(strings.TrimSpace(args[idx]), 64)
		if err != nil || v <= min {
			return 0, fmt.Errorf("invalid %s", strings.ToLower(label))
		}
		return v, nil
	}
	return promptFloat(label, min)
}

func pastTense(verb string) string {
	switch {
	case strings.HasSuffix(verb, "e"):
		return verb + "d"
	case strings.HasSuffix(verb, "y"):
		return strings.TrimSuffix(verb, "y") + "ied"
	}
	return verb + "ed"
}
