package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	cl "banktycoon/internal/cli"
	"banktycoon/internal/game"
	"banktycoon/internal/runner"

	"github.com/fatih/color"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
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

func promptOptional(label string) (string, error) {
	fmt.Printf("%s: ", label)
	text, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func promptDefault(label, def string) (string, error) {
	fmt.Printf("%s [%s]: ", label, def)
	text, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", err
	}
	if text = strings.TrimSpace(text); text == "" {
		return def, nil
	}
	return text, nil
}

func promptConfirm(label string) (bool, error) {
	choice, err := promptChoice(label, []string{"y", "n"}, "n")
	if err != nil {
		return false, err
	}
	return choice == "y", nil
}

func promptChoice(label string, options []string, defaultValue string) (string, error) {
	normalized := make(map[string]string, len(options))
	for _, opt := range options {
		normalized[strings.ToLower(strings.TrimSpace(opt))] = opt
	}
	for {
		fmt.Printf("%s (%s) [%s]: ", label, strings.Join(options, "/"), defaultValue)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.ToLower(strings.TrimSpace(text))
		if text == "" {
			text = strings.ToLower(strings.TrimSpace(defaultValue))
		}
		if opt, ok := normalized[text]; ok {
			return opt, nil
		}
		printWarn("Invalid option. Please pick one of the listed values.")
	}
}

func promptFloat(label string, min float64) (float64, error) {
	for {
		text, err := promptRequired(label)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			printWarn("Enter a valid number.")
			continue
		}
		if v <= min {
			printWarn(fmt.Sprintf("Value must be > %.4f", min))
			continue
		}
		return v, nil
	}
}

func promptInt(label string, min, max int) (int, error) {
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
		if v < min || v > max {
			printWarn(fmt.Sprintf("Value must be between %d and %d", min, max))
			continue
		}
		return v, nil
	}
}

func renderDashboard(st *game.BankState) {
	accent.Printf("\n== %s (%s, day %d) ==\n", strings.ToUpper(st.Date.String()), st.Era, st.Date.Day)
	fmt.Printf("Cash:            %s\n", money(st.Cash))
	fmt.Printf("Deposits:        %s\n", money(st.Deposits))
	fmt.Printf("Reserve ratio:   %s\n", colorizeReserve(st.ReserveRatio()))
	fmt.Printf("Investments:     %s (bonds %s, stocks %s, spec %s)\n",
		money(st.Investments.Total()), money(st.Investments.Bonds), money(st.Investments.Stocks), money(st.Investments.Speculative))
	fmt.Printf("Total profit:    %s\n", colorizeMoney(st.TotalProfit))
	fmt.Printf("Trust:           %.1f\n", st.Trust)
	fmt.Printf("Accounts:        %d\n", st.ActiveAccounts)
	fmt.Printf("Market share:    %s\n", pct(st.MarketShare))
	fmt.Printf("Rates:           deposit %s, loan %s (market %s / %s)\n",
		pct(st.DepositRate*100), pct(st.LoanBaseRate*100), pct(st.MarketRates.Deposit*100), pct(st.MarketRates.Loan*100))
	fmt.Printf("Bank level:      %d\n", st.BankLevel)
	fmt.Printf("Security:        %s (%.0f)\n", st.SecurityLevel, st.SecurityProtection)
	fmt.Printf("Staff:           tellers %d/%d, guards %d/%d, managers %d/%d, loan officers %d/%d\n",
		st.Staff.Tellers, st.MaxStaff.Tellers, st.Staff.Guards, st.MaxStaff.Guards,
		st.Staff.Managers, st.MaxStaff.Managers, st.Staff.LoanOfficers, st.MaxStaff.LoanOfficers)
	fmt.Printf("Queues:          %d customers, %d loan requests, %d active loans\n",
		len(st.CustomerQueue), len(st.LoanQueue), len(st.Loans))
	if st.ActiveEvent != nil {
		warn.Printf("Event:           %s (run `bank event`)\n", st.ActiveEvent.Title)
	}

	fmt.Println()
	accent.Println("Recent")
	renderLog(st.Log, 8)
	fmt.Println()
}

func renderSummary(st *game.BankState) {
	if st == nil {
		return
	}
	neutral.Printf("%s  cash %s  deposits %s  trust %.1f\n", st.Date, money(st.Cash), money(st.Deposits), st.Trust)
}

func renderLog(entries []game.LogEntry, n int) {
	if len(entries) == 0 {
		printInfo("Nothing yet.")
		return
	}
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	for _, e := range entries {
		line := fmt.Sprintf("%-10s %s", e.Date, e.Message)
		switch e.Kind {
		case game.LogSuccess:
			success.Println(line)
		case game.LogWarning:
			warn.Println(line)
		case game.LogDanger:
			danger.Println(line)
		default:
			fmt.Println(line)
		}
	}
}

func renderCustomerQueue(st *game.BankState) {
	accent.Println("\n== CUSTOMERS ==")
	if len(st.CustomerQueue) == 0 {
		printInfo("No customers waiting.")
		return
	}
	fmt.Printf("%-12s %-10s %-9s %12s %6s  %-30s\n", "ID", "KIND", "SEGMENT", "AMOUNT", "WAIT", "REASON")
	for _, r := range st.CustomerQueue {
		fmt.Printf("%-12s %-10s %-9s %12s %6d  %-30s\n",
			truncate(r.ID, 12),
			r.Kind,
			r.Segment,
			money(r.Amount),
			st.Tick-r.CreatedAtTick,
			truncate(r.Reason, 30),
		)
	}
	fmt.Println()
}

func renderLoanQueue(st *game.BankState) {
	accent.Println("\n== LOAN REQUESTS ==")
	if len(st.LoanQueue) == 0 {
		printInfo("No loan requests.")
		return
	}
	fmt.Printf("%-12s %-22s %-7s %12s %8s %6s %8s\n", "ID", "PURPOSE", "RISK", "AMOUNT", "RATE", "TERM", "DEFAULT")
	for _, l := range st.LoanQueue {
		fmt.Printf("%-12s %-22s %-7s %12s %8s %6d %8s\n",
			truncate(l.ID, 12),
			truncate(l.Purpose, 22),
			colorizeRisk(l.Risk),
			money(l.Amount),
			pct(l.Rate*100),
			l.TermMonths,
			pct(l.DefaultProbability*100),
		)
	}
	fmt.Println()
}

func renderTech(st *game.BankState, cats []game.TechCategory) {
	for _, cat := range cats {
		accent.Printf("\n== %s ==\n", strings.ToUpper(string(cat)))
		fmt.Printf("%-18s %-26s %7s %12s  %s\n", "ID", "NAME", "LEVEL", "NEXT COST", "STATUS")
		for _, n := range st.Tech[cat] {
			status := neutral.Sprint("available")
			next := money(n.NextCost())
			switch {
			case n.Maxed():
				status, next = success.Sprint("maxed"), "-"
			case !n.Available(st.Date.Year):
				status = warn.Sprintf("from %d", n.MinYear)
			case n.NextCost() > st.Cash:
				status = danger.Sprint("too expensive")
			}
			fmt.Printf("%-18s %-26s %3d/%-3d %12s  %s\n", n.ID, truncate(n.Name, 26), n.Level, n.MaxLevel, next, status)
		}
	}
	fmt.Println()
}

func renderAutomation(a game.AutomationConfig) {
	accent.Println("\n== AUTOMATION ==")
	raw, _ := json.MarshalIndent(a, "", "  ")
	fmt.Println(string(raw))
	fmt.Println()
}

func renderEvent(st *game.BankState) {
	ev := st.ActiveEvent
	if ev == nil {
		printInfo("No active event.")
		return
	}
	if ev.Crisis {
		danger.Printf("\n== CRISIS: %s ==\n", ev.Title)
	} else {
		accent.Printf("\n== %s ==\n", ev.Title)
	}
	fmt.Println(ev.Description)
	for i, c := range ev.Choices {
		marker := " "
		if i == ev.DefaultChoice {
			marker = "*"
		}
		fmt.Printf(" %s%d. %s\n", marker, i+1, c)
	}
	fmt.Println()
}

func renderObjectives(objs []cl.Objective) {
	accent.Println("\n== OBJECTIVES ==")
	if len(objs) == 0 {
		printInfo("No objectives.")
		return
	}
	for _, o := range objs {
		mark := neutral.Sprint("[ ]")
		if o.Completed {
			mark = success.Sprint("[x]")
		}
		fmt.Printf("%s %-28s %s %s  reward %s\n", mark, truncate(o.Name, 28), bar(o.Progress, 20), pct(o.Progress*100), money(o.Reward))
		if o.Description != "" && !o.Completed {
			neutral.Printf("    %s\n", o.Description)
		}
	}
	fmt.Println()
}

func renderAnalytics(a game.Analytics, st *game.BankState) {
	accent.Println("\n== ANALYTICS ==")
	fmt.Printf("Total assets:          %s\n", money(a.TotalAssets))
	fmt.Printf("Equity:                %s\n", colorizeMoney(a.Equity))
	fmt.Printf("Return on assets:      %s\n", pct(a.ReturnOnAssets))
	fmt.Printf("Return on equity:      %s\n", pct(a.ReturnOnEquity))
	fmt.Printf("Net interest margin:   %s\n", pct(a.NetInterestMargin))
	fmt.Printf("Efficiency ratio:      %s\n", pct(a.EfficiencyRatio))
	fmt.Printf("Revenue per employee:  %s\n", money(a.RevenuePerEmployee))
	fmt.Printf("Profit per customer:   %s\n", money(a.ProfitPerCustomer))
	fmt.Printf("Average deposit:       %s\n", money(a.AverageDepositSize))
	fmt.Printf("Average loan:          %s\n", money(a.AverageLoanSize))
	fmt.Printf("Loan default rate:     %s\n", pct(a.LoanDefaultRate))

	if st.Statistics.Monthly == nil {
		return
	}
	last := st.Statistics.Monthly.Last(1)
	if len(last) == 0 {
		fmt.Println()
		return
	}
	p := last[0]
	accent.Printf("\n== %s %d STATEMENT ==\n", strings.ToUpper(game.MonthName(p.Month)), p.Year)
	for _, k := range slices.Sorted(maps.Keys(p.Revenue)) {
		fmt.Printf("  + %-20s %12s\n", k, money(p.Revenue[k]))
	}
	for _, k := range slices.Sorted(maps.Keys(p.Expenses)) {
		fmt.Printf("  - %-20s %12s\n", k, money(p.Expenses[k]))
	}
	fmt.Printf("  = %-20s %12s\n\n", "net income", colorizeMoney(p.NetIncome))
}

func renderClock(s runner.Status) {
	state := warn.Sprint("paused")
	if s.AutoAdvance {
		state = success.Sprint("running")
	}
	fmt.Printf("Clock: %s, speed %s (one day every %s)\n", state, s.Speed, s.Every.Round(time.Millisecond))
}

func renderTickReport(rep game.TickReport) {
	accent.Printf("\n== ADVANCED TO %s (tick %d) ==\n", strings.ToUpper(rep.Date.String()), rep.Tick)
	if rep.MonthClosed != nil {
		fmt.Printf("Last month net income: %s\n", colorizeMoney(rep.MonthClosed.NetIncome))
	}
	if rep.ExpiredCustomers > 0 || rep.ExpiredLoans > 0 {
		warn.Printf("Expired: %d customers, %d loan requests\n", rep.ExpiredCustomers, rep.ExpiredLoans)
	}
	for _, e := range rep.EventsResolved {
		fmt.Printf("Event: %s -> %s\n", e.Title, e.Outcome)
	}
	for _, o := range rep.ObjectivesCompleted {
		success.Printf("Objective complete: %s (+%s)\n", o.Name, money(o.Reward))
	}
	if rep.EventTriggered != nil {
		warn.Printf("New event: %s (run `bank event`)\n", rep.EventTriggered.Title)
	}
	fmt.Println()
}

func decodeInto[T any](raw []byte) (T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}

func colorizeMoney(v float64) string {
	text := money(v)
	switch {
	case v > 0:
		return success.Sprint("+" + text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func colorizeReserve(ratio float64) string {
	text := pct(ratio)
	switch {
	case ratio < 10:
		return danger.Sprint(text)
	case ratio < 20:
		return warn.Sprint(text)
	default:
		return success.Sprint(text)
	}
}

func colorizeRisk(r game.Risk) string {
	text := fmt.Sprintf("%-7s", r)
	switch r {
	case game.RiskHigh:
		return danger.Sprint(text)
	case game.RiskMedium:
		return warn.Sprint(text)
	default:
		return success.Sprint(text)
	}
}

func money(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	cents := int64(v*100 + 0.5)
	return fmt.Sprintf("%s$%s.%02d", sign, comma(cents/100), cents%100)
}

func pct(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

func bar(progress float64, width int) string {
	filled := int(progress*float64(width) + 0.5)
	filled = max(0, min(filled, width))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
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
		b.WriteByte(',')
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
