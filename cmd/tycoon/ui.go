package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"tycoon/internal/archive"
	"tycoon/internal/game"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)
	panelTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Width(18)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func promptFloat(label string, min float64) (float64, error) {
	for {
		text, err := promptRequired(label)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(strings.TrimPrefix(text, "$"), 64)
		if err != nil {
			printWarn("Enter a valid number.")
			continue
		}
		if v <= min {
			printWarn(fmt.Sprintf("Value must be > %.2f", min))
			continue
		}
		return v, nil
	}
}

func promptInt(label string, min int) (int, error) {
	for {
		text, err := promptRequired(label)
		if err != nil {
			return 0, err
		}
		v, err := strconv.Atoi(text)
		if err != nil {
			printWarn("Enter a whole number.")
			continue
		}
		if v < min {
			printWarn(fmt.Sprintf("Value must be >= %d", min))
			continue
		}
		return v, nil
	}
}

// formatMoney renders dollars to the cent with thousands separators.
func formatMoney(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	whole := d.IntPart()
	cents := d.Sub(decimal.NewFromInt(whole)).Shift(2).IntPart()
	return fmt.Sprintf("%s$%s.%02d", sign, comma(whole), cents)
}

func colorizeMoney(v float64) string {
	text := formatMoney(v)
	if v > 0 {
		text = "+" + text
	}
	switch {
	case v > 0.004:
		return success.Sprint(text)
	case v < -0.004:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func colorizePercent(v float64) string {
	text := fmt.Sprintf("%+.2f%%", v)
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func comma(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
		if len(s) > pre {
			b.WriteByte(',')
		}
	}
	for i := pre; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func panel(title string, rows [][2]string) string {
	lines := []string{panelTitle.Render(title)}
	for _, r := range rows {
		lines = append(lines, labelStyle.Render(r[0])+r[1])
	}
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func renderStatus(st game.Status) {
	factory := "none"
	if st.CurrentFactory != nil {
		factory = fmt.Sprintf("#%d of %d", *st.CurrentFactory, st.FactoryCount)
	}
	rows := [][2]string{
		{"Cash", formatMoney(st.Cash)},
		{"Net worth", formatMoney(st.NetWorth)},
		{"Debt", formatMoney(st.TotalDebt)},
		{"Can borrow", formatMoney(st.MaxBorrowable)},
		{"Daily expenses", formatMoney(st.DailyExpenses)},
		{"Portfolio", formatMoney(st.PortfolioValue)},
		{"Economy", fmt.Sprintf("%s (%s)", st.Economy, st.EconomyDescription)},
		{"Market share", fmt.Sprintf("%.1f%%", st.MarketShare*100)},
		{"Store", fmt.Sprintf("#%d of %d", st.CurrentStore, st.StoreCount)},
		{"Factory", factory},
		{"Loans", strconv.Itoa(st.LoanCount)},
	}
	fmt.Println(panel(fmt.Sprintf("Day %d", st.Day), rows))
	if st.Bankrupt {
		printError("BANKRUPT: cash went negative at the end of a day.")
	}
}

func dayReportPanel(r game.DayResult) string {
	rows := [][2]string{
		{"Revenue", fmt.Sprintf("%s (%d items)", formatMoney(r.TotalRevenue), r.TotalItemsSold)},
		{"Expenses", formatMoney(r.TotalExpenses)},
		{"Interest", formatMoney(r.LoanInterestAccrued)},
		{"Net profit", colorizeMoney(r.NetProfit)},
		{"Cash", formatMoney(r.CashAfter)},
		{"Economy", r.EconomicState.String()},
		{"Market share", fmt.Sprintf("%.1f%%", r.PlayerMarketShare*100)},
	}
	if r.DividendsEarned > 0 {
		rows = append(rows, [2]string{"Dividends", formatMoney(r.DividendsEarned)})
	}
	if r.TermLoanPenalties > 0 {
		rows = append(rows, [2]string{"Loan penalties", danger.Sprint(formatMoney(r.TermLoanPenalties))})
	}
	return panel(fmt.Sprintf("Day %d report", r.Day), rows)
}

func renderDayReport(r game.DayResult) {
	fmt.Println(dayReportPanel(r))
	if r.EconomicChange != "" {
		printWarn("Economy: " + r.EconomicChange)
	}
	for _, s := range r.SalesByProduct {
		fmt.Printf("  sold %3d x %-22s %12s\n", s.Quantity, truncate(s.Name, 22), formatMoney(s.Revenue))
	}
	for _, p := range r.ProductionCompleted {
		printSuccess(fmt.Sprintf("  %s finished %d x %s", p.Factory, p.Quantity, p.RecipeName))
	}
	for _, t := range r.AutoTransfers {
		printInfo(fmt.Sprintf("  shipped %d x %s from %s to %s", t.Quantity, t.Product, t.Factory, t.Store))
	}
	for _, p := range r.LoanPayments {
		printInfo(fmt.Sprintf("  loan #%d payment %s", p.LoanID, formatMoney(p.Amount)))
	}
	for _, d := range r.LoansDue {
		printError(fmt.Sprintf("  loan #%d due with %s outstanding", d.LoanID, formatMoney(d.Balance)))
	}
	for _, d := range r.LoansDueSoon {
		printWarn(fmt.Sprintf("  loan #%d due in %d days (%s)", d.LoanID, d.DaysRemaining, formatMoney(d.Balance)))
	}
	for _, e := range r.CompetitorEvents {
		printWarn("  " + e)
	}
	if r.Bankrupt {
		printError("BANKRUPT")
	}
}

func renderPrices(economy game.EconomicState, prices []game.PriceQuote) {
	accent.Printf("\n== WHOLESALE PRICES (%s economy) ==\n", economy)
	fmt.Printf("%-4s %-22s %-14s %-18s %10s %10s\n", "ID", "NAME", "CATEGORY", "TYPE", "WHOLESALE", "SUGGESTED")
	for _, p := range prices {
		fmt.Printf("%-4d %-22s %-14s %-18s %10s %10s\n",
			p.ProductID, truncate(p.Name, 22), p.Category, p.Type,
			formatMoney(p.Wholesale), formatMoney(p.SuggestedRetail))
	}
	fmt.Println()
}

func renderStores(stores []game.StoreView) {
	for _, s := range stores {
		marker := " "
		if s.Current {
			marker = "*"
		}
		accent.Printf("\n%s [%d] %s\n", marker, s.Index, s.Name)
		fmt.Printf("Customers/day: %d  Staff: %d/%d  Daily cost: %s  Stock value: %s\n",
			s.Customers, len(s.Employees), game.MaxEmployees, formatMoney(s.DailyExpenses), formatMoney(s.InventoryValue))
		if len(s.Inventory) == 0 {
			printInfo("No inventory.")
			continue
		}
		fmt.Printf("%-4s %-22s %6s %10s %10s %8s\n", "ID", "PRODUCT", "QTY", "PRICE", "WHOLESALE", "MARKUP")
		for _, l := range s.Inventory {
			fmt.Printf("%-4d %-22s %6d %10s %10s %7.1f%%\n",
				l.ProductID, truncate(l.Name, 22), l.Quantity, formatMoney(l.RetailPrice), formatMoney(l.Wholesale), l.Markup)
		}
	}
	fmt.Println()
}

func renderFactories(factories []game.FactoryView) {
	if len(factories) == 0 {
		printInfo("No factories yet. Buy one with `tycoon factory buy <name>`.")
		return
	}
	for _, f := range factories {
		marker := " "
		if f.Current {
			marker = "*"
		}
		accent.Printf("\n%s [%d] %s\n", marker, f.Index, f.Name)
		auto := "off"
		if f.AutoTransfer {
			auto = "on"
		}
		fmt.Printf("Workers: %d/%d  Slots: %d free of %d  Auto-transfer: %s  Daily cost: %s\n",
			len(f.Workers), game.MaxWorkers, f.AvailableSlots, f.Slots, auto, formatMoney(f.DailyExpenses))
		fmt.Printf("Connected stores: %v\n", f.ConnectedStores)
		for _, j := range f.Queue {
			fmt.Printf("  building %d x %-20s %d days left\n", j.OutputQuantity, j.RecipeName, j.DaysRemaining)
		}
		for _, m := range f.RawMaterials {
			fmt.Printf("  raw      %4d x %s\n", m.Quantity, m.Name)
		}
		for _, g := range f.FinishedGoods {
			fmt.Printf("  finished %4d x %s\n", g.Quantity, g.Name)
		}
	}
	fmt.Println()
}

func renderRecipes(plans []game.RecipePlan, names map[int]string) {
	accent.Println("\n== RECIPES ==")
	fmt.Printf("%-4s %-18s %5s %10s %10s %6s  %s\n", "ID", "OUTPUT", "DAYS", "MATERIALS", "VALUE", "CAN", "NEEDS")
	for _, p := range plans {
		var needs []string
		for _, ing := range p.Ingredients {
			needs = append(needs, fmt.Sprintf("%dx %s", ing.Quantity, names[ing.ProductID]))
		}
		fmt.Printf("%-4d %-18s %5d %10s %10s %6d  %s\n",
			p.RecipeID, truncate(p.Output, 18), p.Days, formatMoney(p.MaterialCost), formatMoney(p.OutputValue),
			p.MaxProducible, strings.Join(needs, ", "))
		for _, m := range p.Missing {
			fmt.Printf("       short %d x %s\n", m.Missing, names[m.ProductID])
		}
	}
	fmt.Println()
}

func renderLoans(loans []game.LoanView, rates []game.LoanRate) {
	accent.Println("\n== LOANS ==")
	if len(loans) == 0 {
		printInfo("No open loans.")
	} else {
		fmt.Printf("%-4s %-16s %12s %12s %-10s %6s\n", "ID", "TYPE", "PRINCIPAL", "BALANCE", "RATE", "DAYS")
		for _, l := range loans {
			days := "-"
			if l.DaysRemaining > 0 || l.Due {
				days = strconv.Itoa(l.DaysRemaining)
			}
			line := fmt.Sprintf("%-4d %-16s %12s %12s %-10s %6s", l.ID, l.Name, formatMoney(l.Principal), formatMoney(l.Balance), l.Rate, days)
			if l.Due {
				printError(line + "  DUE")
				continue
			}
			fmt.Println(line)
		}
	}
	if len(rates) > 0 {
		fmt.Println()
		accent.Println("Today's rates")
		for _, r := range rates {
			name := r.Name
			if r.Days > 0 {
				name = fmt.Sprintf("%s (%d days)", r.Name, r.Days)
			}
			fmt.Printf("  %-22s %6.2f%%  %s\n", name, r.Rate*100, r.Description)
		}
	}
	fmt.Println()
}

func renderStocks(quotes []game.StockQuote) {
	accent.Println("\n== STOCK MARKET ==")
	fmt.Printf("%-4s %-6s %-24s %-12s %10s %9s %3s %10s\n", "ID", "SYMBOL", "NAME", "TYPE", "PRICE", "TREND", "", "DIV/DAY")
	for _, q := range quotes {
		fmt.Printf("%-4d %-6s %-24s %-12s %10s %9s %3s %10s\n",
			q.ID, q.Symbol, truncate(q.Name, 24), q.Type, formatMoney(q.Price),
			colorizePercent(q.TrendPercent), q.Indicator, formatMoney(q.DailyDividend))
	}
	fmt.Println()
}

func renderPortfolio(lines []game.PortfolioLine, total float64) {
	accent.Println("\n== PORTFOLIO ==")
	if len(lines) == 0 {
		printInfo("No holdings.")
		return
	}
	fmt.Printf("%-6s %7s %10s %10s %12s %12s %9s %10s\n", "SYMBOL", "SHARES", "AVG", "PRICE", "VALUE", "GAIN", "GAIN%", "DIVIDENDS")
	for _, l := range lines {
		fmt.Printf("%-6s %7d %10s %10s %12s %12s %9s %10s\n",
			l.Symbol, l.Shares, formatMoney(l.AvgPrice), formatMoney(l.Price), formatMoney(l.Value),
			colorizeMoney(l.GainLoss), colorizePercent(l.GainLossPercent), formatMoney(l.Dividends))
	}
	fmt.Printf("Total value: %s\n\n", formatMoney(total))
}

func renderCompetitors(comps []game.CompetitorView, share float64) {
	accent.Println("\n== COMPETITION ==")
	fmt.Printf("Your share: %.1f%%\n", share*100)
	fmt.Printf("%-18s %6s %8s %-11s %8s\n", "NAME", "STORES", "QUALITY", "STRATEGY", "POWER")
	for _, c := range comps {
		name := truncate(c.Name, 18)
		if c.MarketLeader {
			name = truncate(c.Name, 16) + " *"
		}
		fmt.Printf("%-18s %6d %8.2f %-11s %8.1f\n", name, c.Stores, c.Quality, c.Strategy, c.Power)
	}
	fmt.Println()
}

func renderHistory(rows []archive.Row) {
	accent.Println("\n== HISTORY ==")
	if len(rows) == 0 {
		printInfo("No archived days yet.")
		return
	}
	fmt.Printf("%-5s %12s %12s %12s %12s %-11s %7s\n", "DAY", "REVENUE", "EXPENSES", "NET", "CASH", "ECONOMY", "SHARE")
	for _, r := range rows {
		net, _ := r.NetProfit.Float64()
		fmt.Printf("%-5d %12s %12s %12s %12s %-11s %6.1f%%\n",
			r.Day, "$"+r.Revenue.StringFixed(2), "$"+r.Expenses.StringFixed(2), colorizeMoney(net),
			"$"+r.Cash.StringFixed(2), r.Economy, r.MarketShare*100)
	}
	fmt.Println()
}
