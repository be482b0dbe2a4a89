package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	cl "tycoon/internal/cli"
	"tycoon/internal/config"
	"tycoon/internal/game"
	"tycoon/internal/syncq"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "tycoon",
		Short:        "Business tycoon game client",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&apiBase, "api", apiBase, "API base URL")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("api") || strings.TrimSpace(os.Getenv("TYCOON_API_BASE_URL")) != "" {
			return
		}
		// Follow the server the active game lives on.
		if sess, err := cl.LoadSession(); err == nil {
			apiBase = sess.BaseURL(apiBase)
		}
	}

	root.AddCommand(
		newNewGameCmd(&apiBase),
		newSessionsCmd(&apiBase),
		newUseCmd(&apiBase),
		newQuitCmd(&apiBase),
		newStatusCmd(&apiBase),
		newNextCmd(&apiBase),
		newPricesCmd(&apiBase),
		newBuyCmd(&apiBase),
		newPriceCmd(&apiBase),
		newStoreCmd(&apiBase),
		newFactoryCmd(&apiBase),
		newLoanCmd(&apiBase),
		newStockCmd(&apiBase),
		newCompetitorsCmd(&apiBase),
		newHistoryCmd(&apiBase),
		newSyncCmd(&apiBase),
		newWatchCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func newNewGameCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Start a new game and make it the active one",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			info, err := newClient(apiBase).CreateSession(ctx)
			if err != nil {
				return err
			}
			if err := cl.SaveSession(cl.Session{SessionID: info.ID, APIBaseURL: *apiBase, StartedAt: info.CreatedAt}); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("New game %s started with %s.", info.ID, formatMoney(info.Status.Cash)))
			renderStatus(info.Status)
			return nil
		},
	}
}

func newSessionsCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List games running on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			list, err := newClient(apiBase).ListSessions(ctx)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				printInfo("No games running. Start one with `tycoon new`.")
				return nil
			}
			active := ""
			if sess, err := cl.LoadSession(); err == nil {
				active = sess.SessionID
			}
			fmt.Printf("  %-36s %-5s %14s %-11s %s\n", "ID", "DAY", "CASH", "ECONOMY", "STARTED")
			for _, s := range list {
				marker := " "
				if s.ID == active {
					marker = "*"
				}
				fmt.Printf("%s %-36s %-5d %14s %-11s %s\n", marker, s.ID, s.Status.Day,
					formatMoney(s.Status.Cash), s.Status.Economy, s.CreatedAt.Local().Format(time.DateTime))
			}
			return nil
		},
	}
}

func newUseCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "use <session-id>",
		Short: "Switch the active game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			id := strings.TrimSpace(args[0])
			if _, err := newClient(apiBase).Status(ctx, id); err != nil {
				return err
			}
			if err := cl.SaveSession(cl.Session{SessionID: id, APIBaseURL: *apiBase, StartedAt: time.Now().UTC()}); err != nil {
				return err
			}
			printSuccess("Active game is now " + id)
			return nil
		},
	}
}

func newQuitCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "quit",
		Short: "End the active game on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			var se *cl.StatusError
			if err := newClient(apiBase).DeleteSession(ctx, sess.SessionID); err != nil && !(errors.As(err, &se) && se.Code == 404) {
				return err
			}
			if err := cl.ClearSession(); err != nil {
				return err
			}
			printSuccess("Game over. Thanks for playing.")
			return nil
		},
	}
}

func newStatusCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Short:   "Show cash, debt, economy and market share",
		Aliases: []string{"dash"},
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			st, err := newClient(apiBase).Status(ctx, sess.SessionID)
			if err != nil {
				return err
			}
			renderStatus(st)
			return nil
		},
	}
}

func newNextCmd(apiBase *string) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:     "next",
		Short:   "Advance the game by one or more days",
		Aliases: []string{"day"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return fmt.Errorf("--days must be > 0")
			}
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			client := newClient(apiBase)
			for i := 0; i < days; i++ {
				ctx, cancel := requestContext(cmd)
				idem := uuid.NewString()
				report, err := client.AdvanceDay(ctx, sess.SessionID, idem)
				cancel()
				if err != nil {
					return queueOnNetworkError(err, sess.SessionID, game.Command{Action: game.ActionAdvanceDay}, idem)
				}
				renderDayReport(report)
				if report.Bankrupt {
					break
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&days, "days", "n", 1, "number of days to simulate")
	return cmd
}

func newPricesCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "prices",
		Short: "Show today's wholesale prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			economy, prices, err := newClient(apiBase).Prices(ctx, sess.SessionID)
			if err != nil {
				return err
			}
			renderPrices(economy, prices)
			return nil
		},
	}
}

func newBuyCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "buy [product] [quantity]",
		Short: "Buy inventory for the current store",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			client := newClient(apiBase)
			productID, err := productFromArgOrPrompt(ctx, client, sess.SessionID, args, 0)
			if err != nil {
				return err
			}
			qty, err := intFromArgOrPrompt(args, 1, "Quantity", 1)
			if err != nil {
				return err
			}
			return applyCommand(ctx, client, sess, game.Command{Action: game.ActionBuyInventory, ProductID: productID, Quantity: qty})
		},
	}
}

func newPriceCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "price [product] [retail-price]",
		Short: "Set the retail price of a product in the current store",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			client := newClient(apiBase)
			productID, err := productFromArgOrPrompt(ctx, client, sess.SessionID, args, 0)
			if err != nil {
				return err
			}
			price, err := floatFromArgOrPrompt(args, 1, "Retail price")
			if err != nil {
				return err
			}
			return applyCommand(ctx, client, sess, game.Command{Action: game.ActionSetPrice, ProductID: productID, Price: price})
		},
	}
}

func newCompetitorsCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "competitors",
		Short: "Show rival chains and market share",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			comps, share, err := newClient(apiBase).Competitors(ctx, sess.SessionID)
			if err != nil {
				return err
			}
			renderCompetitors(comps, share)
			return nil
		},
	}
}

func newHistoryCmd(apiBase *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show archived day reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			rows, err := newClient(apiBase).History(ctx, sess.SessionID, limit)
			if err != nil {
				return err
			}
			renderHistory(rows)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 30, "most recent days to show")
	return cmd
}

func newSyncCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay commands queued while the server was unreachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			queue, err := syncq.Load()
			if err != nil {
				return err
			}
			mine, rest := syncq.ForSession(queue, sess.SessionID)
			if len(mine) == 0 {
				printInfo("Sync queue is empty.")
				return nil
			}
			items := make([]game.ReplayItem, 0, len(mine))
			for _, e := range mine {
				items = append(items, game.ReplayItem{Command: e.Command, IdempotencyKey: e.IdempotencyKey})
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()
			results, err := newClient(apiBase).SyncReplay(ctx, sess.SessionID, items)
			if err != nil {
				return err
			}
			applied := 0
			for _, r := range results {
				switch r.Status {
				case "applied":
					applied++
					if r.Receipt != nil {
						printSuccess(fmt.Sprintf("%s: %s", r.Action, r.Receipt.Message))
					} else {
						printSuccess(r.Action + ": applied")
					}
				case "duplicate":
					printInfo(r.Action + ": already applied")
				default:
					printError(fmt.Sprintf("%s: %s", r.Action, r.Error))
				}
			}
			if err := syncq.Save(rest); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Sync complete: applied=%d skipped=%d", applied, len(results)-applied))
			return nil
		},
	}
}

func applyCommand(ctx context.Context, client *cl.Client, sess cl.Session, c game.Command) error {
	idem := uuid.NewString()
	receipt, err := client.Apply(ctx, sess.SessionID, c, idem)
	if err != nil {
		return queueOnNetworkError(err, sess.SessionID, c, idem)
	}
	renderReceipt(receipt)
	return nil
}

func renderReceipt(r game.Receipt) {
	printSuccess(r.Message)
	if r.Cost > 0 {
		printInfo("Cost: " + formatMoney(r.Cost))
	}
	if r.Proceeds > 0 {
		printInfo("Proceeds: " + formatMoney(r.Proceeds))
	}
	for _, e := range r.Events {
		printWarn(e)
	}
}

func queueOnNetworkError(err error, sessionID string, c game.Command, idem string) error {
	if !cl.IsUnreachable(err) {
		return err
	}
	if qErr := syncq.Push(syncq.Entry{SessionID: sessionID, Command: c, IdempotencyKey: idem}); qErr != nil {
		return fmt.Errorf("%w (queue failed: %v)", err, qErr)
	}
	printWarn("Server unreachable. Command queued; run `tycoon sync` once it is back.")
	return nil
}

func intFromArgOrPrompt(args []string, pos int, label string, min int) (int, error) {
	if len(args) > pos {
		v, err := strconv.Atoi(strings.TrimSpace(args[pos]))
		if err != nil {
			return 0, fmt.Errorf("%s must be a whole number", strings.ToLower(label))
		}
		if v < min {
			return 0, fmt.Errorf("%s must be >= %d", strings.ToLower(label), min)
		}
		return v, nil
	}
	return promptInt(label, min)
}

func floatFromArgOrPrompt(args []string, pos int, label string) (float64, error) {
	if len(args) > pos {
		v, err := strconv.ParseFloat(strings.TrimPrefix(strings.TrimSpace(args[pos]), "$"), 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number", strings.ToLower(label))
		}
		return v, nil
	}
	return promptFloat(label, 0)
}

func stringFromArgOrPrompt(args []string, pos int, label string) (string, error) {
	if len(args) > pos {
		if v := strings.TrimSpace(strings.Join(args[pos:], " ")); v != "" {
			return v, nil
		}
	}
	return promptRequired(label)
}

// productFromArgOrPrompt accepts a product id or a case-insensitive name.
func productFromArgOrPrompt(ctx context.Context, client *cl.Client, sessionID string, args []string, pos int) (int, error) {
	var raw string
	if len(args) > pos {
		raw = strings.TrimSpace(args[pos])
	} else {
		v, err := promptRequired("Product (id or name)")
		if err != nil {
			return 0, err
		}
		raw = v
	}
	if id, err := strconv.Atoi(raw); err == nil {
		return id, nil
	}
	_, prices, err := client.Prices(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return matchProduct(prices, raw)
}

func matchProduct(prices []game.PriceQuote, name string) (int, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	var partial []game.PriceQuote
	for _, p := range prices {
		lower := strings.ToLower(p.Name)
		if lower == name {
			return p.ProductID, nil
		}
		if strings.Contains(lower, name) {
			partial = append(partial, p)
		}
	}
	switch len(partial) {
	case 1:
		return partial[0].ProductID, nil
	case 0:
		return 0, fmt.Errorf("no product matches %q", name)
	default:
		names := make([]string, 0, len(partial))
		for _, p := range partial {
			names = append(names, p.Name)
		}
		return 0, fmt.Errorf("%q is ambiguous: %s", name, strings.Join(names, ", "))
	}
}
