package main

import (
	"context"
	"fmt"

	cl "tycoon/internal/cli"
	"tycoon/internal/game"

	"github.com/spf13/cobra"
)

// sessionAction builds a subcommand that turns its args into one game command.
func sessionAction(apiBase *string, use, short string, maxArgs int, build func(ctx context.Context, client *cl.Client, sessionID string, args []string) (game.Command, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MaximumNArgs(maxArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			client := newClient(apiBase)
			c, err := build(ctx, client, sess.SessionID, args)
			if err != nil {
				return err
			}
			return applyCommand(ctx, client, sess, c)
		},
	}
}

func newStoreCmd(apiBase *string) *cobra.Command {
	store := &cobra.Command{
		Use:     "store",
		Short:   "Store commands",
		Aliases: []string{"stores"},
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			stores, err := newClient(apiBase).Stores(ctx, sess.SessionID)
			if err != nil {
				return err
			}
			renderStores(stores)
			return nil
		},
	}

	store.AddCommand(
		sessionAction(apiBase, "buy [name]", fmt.Sprintf("Open a new store for %s", formatMoney(game.NewStoreCost)), 8,
			func(_ context.Context, _ *cl.Client, _ string, args []string) (game.Command, error) {
				name, err := stringFromArgOrPrompt(args, 0, "Store name")
				return game.Command{Action: game.ActionBuyStore, Name: name}, err
			}),
		sessionAction(apiBase, "switch [index]", "Make another store current", 1,
			func(_ context.Context, _ *cl.Client, _ string, args []string) (game.Command, error) {
				idx, err := intFromArgOrPrompt(args, 0, "Store index", 0)
				return game.Command{Action: game.ActionSwitchStore, Index: idx}, err
			}),
		sessionAction(apiBase, "hire [name]", "Hire an employee at the current store", 8,
			func(_ context.Context, _ *cl.Client, _ string, args []string) (game.Command, error) {
				name, err := stringFromArgOrPrompt(args, 0, "Employee name")
				return game.Command{Action: game.ActionHireEmployee, Name: name}, err
			}),
		sessionAction(apiBase, "fire [index]", "Fire an employee at the current store", 1,
			func(_ context.Context, _ *cl.Client, _ string, args []string) (game.Command, error) {
				idx, err := intFromArgOrPrompt(args, 0, "Employee index", 0)
				return game.Command{Action: game.ActionFireEmployee, Index: idx}, err
			}),
	)
	return store
}

func newFactoryCmd(apiBase *string) *cobra.Command {
	factory := &cobra.Command{
		Use:     "factory",
		Short:   "Factory and production commands",
		Aliases: []string{"factories"},
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			factories, err := newClient(apiBase).Factories(ctx, sess.SessionID)
			if err != nil {
				return err
			}
			renderFactories(factories)
			return nil
		},
	}

	factory.AddCommand(
		newRecipesCmd(apiBase),
		sessionAction(apiBase, "buy [name]", "Build a new factory", 8,
			func(_ context.Context, _ *cl.Client, _ string, args []string) (game.Command, error) {
				name, err := stringFromArgOrPrompt(args, 0, "Factory name")
				return game.Command{Action: game.ActionBuyFactory, Name: name}, err
			}),
		sessionAction(apiBase, "switch [index]", "Make another factory current", 1,
			func(_ context.Context, _ *cl.Client, _ string, args []string) (game.Command, error) {
				idx, err := intFromArgOrPrompt(args, 0, "Factory index", 0)
				return game.Command{Action: game.ActionSwitchFactory, Index: idx}, err
			}),
		sessionAction(apiBase, "materials [product] [quantity]", "Buy raw materials for the current factory", 2,
			func(ctx context.Context, client *cl.Client, id string, args []string) (game.Command, error) {
				productID, err := productFromArgOrPrompt(ctx, client, id, args, 0)
				if err != nil {
					return game.Command{}, err
				}
				qty, err := intFromArgOrPrompt(args, 1, "Quantity", 1)
				return game.Command{Action: game.ActionBuyRawMaterials, ProductID: productID, Quantity: qty}, err
			}),
		sessionAction(apiBase, "produce [recipe] [batches]", "Start production runs", 2,
			func(_ context.Context, _ *cl.Client, _ string, args []string) (game.Command, error) {
				recipeID, err := intFromArgOrPrompt(args, 0, "Recipe ID", 1)
				if err != nil {
					return game.Command{}, err
				}
				qty := 1
				if len(args) > 1 {
					qty, err = intFromArgOrPrompt(args, 1, "Batches", 1)
				}
				return game.Command{Action: game.ActionStartProduction, RecipeID: recipeID, Quantity: qty}, err
			}),
		sessionAction(apiBase, "transfer [product] [quantity] [store-index]", "Ship finished goods to a store", 3,
			func(ctx context.Context, client *cl.Client, id string, args []string) (game.Command, error) {
				productID, err := productFromArgOrPrompt(ctx, client, id, args, 0)
				if err != nil {
					return game.Command{}, err
				}
				qty, err := intFromArgOrPrompt(args, 1, "Quantity", 1)
				if err != nil {
					return game.Command{}, err
				}
				idx, err := intFromArgOrPrompt(args, 2, "Store index", 0)
				return game.Command{Action: game.ActionTransferToStore, ProductID: productID, Quantity: qty, Index: idx}, err
			}),
		sessionAction(apiBase, "connect [store-index]", "Connect a store to the current factory", 1,
			func(_ context.Context, _ *cl.Client, _ string, args []string) (game.Command, error) {
				idx, err := intFromArgOrPrompt(args, 0, "Store index", 0)
				return game.Command{Action: game.ActionConnectStore, Index: idx}, err
			}),
		sessionAction(apiBase, "disconnect [store-index]", "Disconnect a store from the current factory", 1,
			func(_ context.Context, _ *cl.Client, _ string, args []string) (game.Command, error) {
				idx, err := intFromArgOrPrompt(args, 0, "Store index", 0)
				return game.Command{Action: game.ActionDisconnectStore, Index: idx}, err
			}),
		sessionAction(apiBase, "auto", "Toggle automatic transfer of finished goods", 0,
			func(context.Context, *cl.Client, string, []string) (game.Command, error) {
				return game.Command{Action: game.ActionToggleAutoTransfer}, nil
			}),
		sessionAction(apiBase, "hire [name]", "Hire a worker at the current factory", 8,
			func(_ context.Context, _ *cl.Client, _ string, args []string) (game.Command, error) {
				name, err := stringFromArgOrPrompt(args, 0, "Worker name")
				return game.Command{Action: game.ActionHireWorker, Name: name}, err
			}),
		sessionAction(apiBase, "fire [index]", "Fire a worker at the current factory", 1,
			func(_ context.Context, _ *cl.Client, _ string, args []string) (game.Command, error) {
				idx, err := intFromArgOrPrompt(args, 0, "Worker index", 0)
				return game.Command{Action: game.ActionFireWorker, Index: idx}, err
			}),
	)
	return factory
}

func newRecipesCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "recipes",
		Short: "List recipes and what the current factory can make",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			client := newClient(apiBase)
			plans, err := client.Recipes(ctx, sess.SessionID)
			if err != nil {
				return err
			}
			_, prices, err := client.Prices(ctx, sess.SessionID)
			if err != nil {
				return err
			}
			names := make(map[int]string, len(prices))
			for _, p := range prices {
				names[p.ProductID] = p.Name
			}
			renderRecipes(plans, names)
			return nil
		},
	}
}

func newLoanCmd(apiBase *string) *cobra.Command {
	loan := &cobra.Command{
		Use:     "loan",
		Short:   "Borrowing commands",
		Aliases: []string{"loans"},
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			client := newClient(apiBase)
			loans, err := client.Loans(ctx, sess.SessionID)
			if err != nil {
				return err
			}
			rates, err := client.LoanRates(ctx, sess.SessionID)
			if err != nil {
				return err
			}
			renderLoans(loans, rates)
			return nil
		},
	}

	loan.AddCommand(
		sessionAction(apiBase, "flexible [amount]", "Take a flexible loan", 1,
			func(_ context.Context, _ *cl.Client, _ string, args []string) (game.Command, error) {
				amount, err := floatFromArgOrPrompt(args, 0, "Amount")
				return game.Command{Action: game.ActionTakeFlexibleLoan, Amount: amount}, err
			}),
		sessionAction(apiBase, "credit [amount]", "Draw on a line of credit", 1,
			func(_ context.Context, _ *cl.Client, _ string, args []string) (game.Command, error) {
				amount, err := floatFromArgOrPrompt(args, 0, "Amount")
				return game.Command{Action: game.ActionTakeLineOfCredit, Amount: amount}, err
			}),
		sessionAction(apiBase, "term [amount] [days]", "Take a term loan (7, 14 or 30 days)", 2,
			func(_ context.Context, _ *cl.Client, _ string, args []string) (game.Command, error) {
				amount, err := floatFromArgOrPrompt(args, 0, "Amount")
				if err != nil {
					return game.Command{}, err
				}
				days, err := intFromArgOrPrompt(args, 1, "Term in days", 1)
				return game.Command{Action: game.ActionTakeTermLoan, Amount: amount, Days: days}, err
			}),
		sessionAction(apiBase, "pay [loan-id] [amount]", "Pay down a loan", 2,
			func(_ context.Context, _ *cl.Client, _ string, args []string) (game.Command, error) {
				loanID, err := intFromArgOrPrompt(args, 0, "Loan ID", 1)
				if err != nil {
					return game.Command{}, err
				}
				amount, err := floatFromArgOrPrompt(args, 1, "Amount")
				return game.Command{Action: game.ActionPayLoan, LoanID: loanID, Amount: amount}, err
			}),
	)
	return loan
}

func newStockCmd(apiBase *string) *cobra.Command {
	stock := &cobra.Command{
		Use:     "stock",
		Short:   "Stock market commands",
		Aliases: []string{"stocks"},
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			quotes, err := newClient(apiBase).Stocks(ctx, sess.SessionID)
			if err != nil {
				return err
			}
			renderStocks(quotes)
			return nil
		},
	}

	stock.AddCommand(
		&cobra.Command{
			Use:   "portfolio",
			Short: "Show your holdings",
			RunE: func(cmd *cobra.Command, args []string) error {
				sess, err := cl.LoadSession()
				if err != nil {
					return err
				}
				ctx, cancel := requestContext(cmd)
				defer cancel()
				lines, value, err := newClient(apiBase).Portfolio(ctx, sess.SessionID)
				if err != nil {
					return err
				}
				renderPortfolio(lines, value)
				return nil
			},
		},
		sessionAction(apiBase, "buy [stock-id] [shares]", "Buy shares", 2,
			func(_ context.Context, _ *cl.Client, _ string, args []string) (game.Command, error) {
				stockID, err := intFromArgOrPrompt(args, 0, "Stock ID", 1)
				if err != nil {
					return game.Command{}, err
				}
				shares, err := intFromArgOrPrompt(args, 1, "Shares", 1)
				return game.Command{Action: game.ActionBuyStock, StockID: stockID, Quantity: shares}, err
			}),
		sessionAction(apiBase, "sell [stock-id] [shares]", "Sell shares", 2,
			func(_ context.Context, _ *cl.Client, _ string, args []string) (game.Command, error) {
				stockID, err := intFromArgOrPrompt(args, 0, "Stock ID", 1)
				if err != nil {
					return game.Command{}, err
				}
				shares, err := intFromArgOrPrompt(args, 1, "Shares", 1)
				return game.Command{Action: game.ActionSellStock, StockID: stockID, Quantity: shares}, err
			}),
	)
	return stock
}
