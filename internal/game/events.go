package game

import (
	"fmt"
	"math"
)

const (
	eventCooldownMonths = 6
	randomEventChance   = 0.15
	eventHistoryCap     = 100
)

// EventChoice is one option of an event: a label and the mutation it makes.
// Apply returns the outcome text shown to the player.
type EventChoice interface {
	Describe() string
	Apply(st *BankState, rng Rand) string
}

type choice struct {
	text  string
	apply func(st *BankState, rng Rand) string
}

func (c choice) Describe() string { return c.text }

func (c choice) Apply(st *BankState, rng Rand) string { return c.apply(st, rng) }

type eventDef struct {
	id          string
	title       string
	description string
	minYear     int
	// crisis events fire exactly once at year/month.
	crisis        bool
	year, month   int
	defaultChoice int
	choices       []EventChoice
}

func (d *eventDef) activate(tick int) *ActiveEvent {
	texts := make([]string, len(d.choices))
	for i, c := range d.choices {
		texts[i] = c.Describe()
	}
	return &ActiveEvent{
		ID:            d.id,
		Title:         d.title,
		Description:   d.description,
		Choices:       texts,
		DefaultChoice: d.defaultChoice,
		Crisis:        d.crisis,
		TriggeredTick: tick,
	}
}

var crisisEvents = []*eventDef{
	{
		id:          "crash1929",
		title:       "BLACK TUESDAY - 1929 Stock Market Crash",
		description: "The stock market has collapsed. Stock values are down 50% and customers are rushing to withdraw their deposits.",
		crisis:      true, year: 1929, month: 10, defaultChoice: 2,
		choices: []EventChoice{
			choice{"Sell investments at a massive loss to meet withdrawals", crashSell},
			choice{"Hold investments and limit withdrawals", crashHold},
			choice{"Raise deposit rates to keep customers", crashRaiseRates},
		},
	},
	{
		id:          "bankHoliday1933",
		title:       "BANK HOLIDAY - Government Shuts Down All Banks",
		description: "All banks must close for a week while the government inspects them. No revenue, but expenses are still due.",
		crisis:      true, year: 1933, month: 3, defaultChoice: 0,
		choices: []EventChoice{
			choice{"Comply fully with government orders", holidayComply},
			choice{"Operate secretly", holidaySecret},
			choice{"Use the closure to restructure operations", holidayRestructure},
		},
	},
	{
		id:          "oilCrisis1973",
		title:       "OIL CRISIS - Energy Prices Skyrocket",
		description: "An oil embargo quadruples fuel prices. Inflation spikes to 12% and the economy slides into stagflation.",
		crisis:      true, year: 1973, month: 10, defaultChoice: 2,
		choices: []EventChoice{
			choice{"Raise all interest rates aggressively", oilRaise},
			choice{"Keep rates low", oilKeepLow},
			choice{"Focus on short-term variable-rate loans", oilVariable},
		},
	},
	{
		id:          "financialCrisis2008",
		title:       "2008 FINANCIAL CRISIS - Housing Market Collapse",
		description: "The housing bubble has burst. Mortgage-backed securities are worthless and loan defaults are spiking. A bailout is on offer.",
		crisis:      true, year: 2008, month: 9, defaultChoice: 2,
		choices: []EventChoice{
			choice{"Accept the government bailout", housingBailout},
			choice{"Refuse the bailout and handle it alone", housingRefuse},
			choice{"Liquidate assets and fortify", housingLiquidate},
		},
	},
	{
		id:          "covidPandemic2020",
		title:       "COVID-19 PANDEMIC - Global Lockdown",
		description: "Lockdowns have emptied the branches. Unemployment is spiking, online banking is surging and emergency loan programs are open.",
		crisis:      true, year: 2020, month: 3, defaultChoice: 1,
		choices: []EventChoice{
			choice{"Pivot to digital-first banking", covidDigital},
			choice{"Issue government-backed stimulus loans", covidStimulus},
			choice{"Reduce operations and weather the storm", covidReduce},
		},
	},
}

var randomEvents = []*eventDef{
	{
		id: "market_boom", title: "Market Boom", minYear: 1920, defaultChoice: 1,
		description: "The economy is booming and investment returns are soaring.",
		choices: []EventChoice{
			choice{"Invest heavily in the market", boomInvest},
			choice{"Play it safe", boomSafe},
		},
	},
	{
		id: "recession", title: "Economic Downturn", minYear: 1920, defaultChoice: 1,
		description: "A recession is hitting hard. Customers are nervous.",
		choices: []EventChoice{
			choice{"Raise deposit rates to attract deposits", recessionRates},
			choice{"Tighten lending standards", recessionTighten},
		},
	},
	{
		id: "tech_breakthrough", title: "Technology Breakthrough", minYear: 1950, defaultChoice: 1,
		description: "A new banking technology is available at a discount.",
		choices: []EventChoice{
			choice{"Invest in the technology", techAccept},
			choice{"Decline the offer", techDecline},
		},
	},
	{
		id: "vip_opportunity", title: "VIP Client Opportunity", minYear: 1930, defaultChoice: 1,
		description: "A wealthy individual wants to bank with you exclusively.",
		choices: []EventChoice{
			choice{"Accept (requires premium service)", vipAccept},
			choice{"Decline", vipDecline},
		},
	},
	{
		id: "regulatory_audit", title: "Regulatory Audit", minYear: 1933, defaultChoice: 0,
		description: "Government auditors are reviewing your operations.",
		choices: []EventChoice{
			choice{"Full cooperation", auditCooperate},
			choice{"Minimal compliance", auditMinimal},
		},
	},
	{
		id: "cyber_attack", title: "Cybersecurity Threat", minYear: 2000, defaultChoice: 0,
		description: "Hackers are targeting banks in your area.",
		choices: []EventChoice{
			choice{"Emergency security upgrade", cyberUpgrade},
			choice{"Trust existing security", cyberTrust},
		},
	},
}

var eventCatalog = func() map[string]*eventDef {
	m := make(map[string]*eventDef, len(crisisEvents)+len(randomEvents))
	for _, d := range crisisEvents {
		m[d.id] = d
	}
	for _, d := range randomEvents {
		m[d.id] = d
	}
	return m
}()

func dueCrisis(st *BankState) *eventDef {
	for _, d := range crisisEvents {
		if d.year == st.Date.Year && d.month == st.Date.Month && !st.HistoricalCrises[d.id] {
			return d
		}
	}
	return nil
}

// processEvents runs the monthly event check. A due historical crisis fires
// regardless of cooldown; an event still open at that point is closed with
// its default choice first and returned.
func (e *Engine) processEvents(st *BankState) (EventRecord, bool) {
	var (
		preempted EventRecord
		did       bool
	)
	if d := dueCrisis(st); d != nil {
		if st.ActiveEvent != nil {
			if rec, err := e.resolveEvent(st, st.ActiveEvent.DefaultChoice, true); err == nil {
				preempted, did = rec, true
			}
		}
		st.HistoricalCrises[d.id] = true
		e.trigger(st, d)
		e.logf(st, LogDanger, "MAJOR EVENT: %s", d.title)
		return preempted, did
	}

	if st.ActiveEvent != nil {
		return preempted, did
	}
	if monthIndex(st.Date.Year, st.Date.Month)-st.LastEventMonth < eventCooldownMonths {
		return preempted, did
	}
	if e.rng.Float64() >= randomEventChance {
		return preempted, did
	}
	var pool []*eventDef
	for _, d := range randomEvents {
		if st.Date.Year >= d.minYear {
			pool = append(pool, d)
		}
	}
	if len(pool) == 0 {
		return preempted, did
	}
	d := pool[e.rng.Intn(len(pool))]
	e.trigger(st, d)
	e.logf(st, LogWarning, "EVENT: %s", d.title)
	return preempted, did
}

func (e *Engine) trigger(st *BankState, d *eventDef) {
	st.ActiveEvent = d.activate(st.Tick)
	st.LastEventMonth = monthIndex(st.Date.Year, st.Date.Month)
}

func (e *Engine) resolveEvent(st *BankState, idx int, timedOut bool) (EventRecord, error) {
	ev := st.ActiveEvent
	if ev == nil {
		return EventRecord{}, ErrNoActiveEvent
	}
	def, ok := eventCatalog[ev.ID]
	if !ok {
		st.ActiveEvent = nil
		return EventRecord{}, fmt.Errorf("%w: unknown event %q", ErrNoActiveEvent, ev.ID)
	}
	if idx < 0 || idx >= len(def.choices) {
		return EventRecord{}, fmt.Errorf("%w: %d", ErrInvalidChoice, idx)
	}

	c := def.choices[idx]
	outcome := c.Apply(st, e.rng)
	st.clampInvariants()
	recalcDerived(st)
	updateMarketShare(st)

	rec := EventRecord{
		ID:       def.id,
		Title:    def.title,
		Choice:   c.Describe(),
		Outcome:  outcome,
		Date:     st.Date.String(),
		TimedOut: timedOut,
	}
	st.EventHistory = append(st.EventHistory, rec)
	if over := len(st.EventHistory) - eventHistoryCap; over > 0 {
		st.EventHistory = append([]EventRecord(nil), st.EventHistory[over:]...)
	}
	st.EventsResolved++
	st.ActiveEvent = nil

	if timedOut {
		e.logf(st, LogWarning, "Event: %s - no decision, defaulted to %q. %s", def.title, c.Describe(), outcome)
	} else {
		e.logf(st, LogInfo, "Event: %s - %s", def.title, outcome)
	}
	return rec, nil
}

func raiseTrust(st *BankState, by float64) { st.Trust = math.Min(MaxTrust, st.Trust+by) }

// dropTrust lowers trust by by but never below floor.
func dropTrust(st *BankState, by, floor float64) { st.Trust = math.Max(floor, st.Trust-by) }

func scaleAccounts(st *BankState, f float64) {
	st.ActiveAccounts = int(math.Floor(float64(st.ActiveAccounts) * f))
}

// payOut meets up to demand in withdrawals from cash.
func payOut(st *BankState, demand float64) float64 {
	paid := math.Min(demand, st.Cash)
	st.Cash -= paid
	st.Deposits -= paid
	return paid
}

// writeOffNewest defaults the n most recently issued loans, charging their
// remaining principal to cash.
func writeOffNewest(st *BankState, n int) (float64, int) {
	loss := 0.0
	count := 0
	for ; count < n && len(st.Loans) > 0; count++ {
		last := st.Loans[len(st.Loans)-1]
		st.Loans = st.Loans[:len(st.Loans)-1]
		loss += last.PrincipalRemaining
		st.Statistics.Totals.LoanDefaults++
		st.Statistics.Current.LoanDefaults++
	}
	st.Cash -= loss
	trackExpense(st, "housingCrisis", loss)
	return loss, count
}

func crashSell(st *BankState, _ Rand) string {
	loss := math.Floor(st.Investments.Stocks*0.5) + math.Floor(st.Investments.Speculative*0.75)
	st.Investments.Stocks = math.Floor(st.Investments.Stocks * 0.5)
	st.Investments.Speculative = math.Floor(st.Investments.Speculative * 0.25)
	trackExpense(st, "marketCrash", loss)
	paid := payOut(st, math.Floor(st.Deposits*0.4))
	scaleAccounts(st, 0.6)
	dropTrust(st, 30, 20)
	return fmt.Sprintf("Lost $%.0f in investments and paid out $%.0f in withdrawals. Trust -30, 40%% of customers left.", loss, paid)
}

func crashHold(st *BankState, _ Rand) string {
	loss := math.Floor(st.Investments.Stocks * 0.3)
	st.Investments.Stocks = math.Floor(st.Investments.Stocks * 0.7)
	st.Investments.Speculative = math.Floor(st.Investments.Speculative * 0.4)
	trackExpense(st, "marketCrash", loss)
	paid := payOut(st, math.Floor(st.Deposits*0.4)*0.5)
	dropTrust(st, 50, 10)
	scaleAccounts(st, 0.5)
	return fmt.Sprintf("Bank run: denied half of withdrawals, paid $%.0f and lost $%.0f. Trust -50, half the customers left.", paid, loss)
}

func crashRaiseRates(st *BankState, _ Rand) string {
	loss := math.Floor(st.Investments.Stocks * 0.4)
	st.Investments.Stocks = math.Floor(st.Investments.Stocks * 0.6)
	st.Investments.Speculative = math.Floor(st.Investments.Speculative * 0.5)
	trackExpense(st, "marketCrash", loss)
	st.DepositRate = math.Min(0.15, st.DepositRate*2)
	paid := payOut(st, math.Floor(st.Deposits*0.25))
	scaleAccounts(st, 0.75)
	dropTrust(st, 20, 30)
	return fmt.Sprintf("Lost $%.0f in investments, deposit rate now %.2f%%, paid $%.0f. Trust -20, 25%% of customers left.", loss, st.DepositRate*100, paid)
}

func holidayComply(st *BankState, _ Rand) string {
	wages := st.Staff.MonthlyWages()
	st.Cash -= wages
	trackExpense(st, ExpStaffWages, wages)
	raiseTrust(st, 25)
	aid := math.Floor(wages * 1.5)
	st.Cash += aid
	trackRevenue(st, "governmentAid", aid)
	return fmt.Sprintf("Paid $%.0f in expenses with no revenue and received $%.0f in aid. Trust +25.", wages, aid)
}

func holidaySecret(st *BankState, rng Rand) string {
	if rng.Float64() < 0.6 {
		fine := math.Floor(st.Cash * 0.3)
		st.Cash -= fine
		trackExpense(st, "regulatoryFines", fine)
		dropTrust(st, 40, 0)
		return fmt.Sprintf("Caught operating illegally: fined $%.0f. Trust -40.", fine)
	}
	profit := math.Floor(st.Deposits * 0.02)
	st.Cash += profit
	trackRevenue(st, "secretOperations", profit)
	dropTrust(st, 10, 0)
	return fmt.Sprintf("Earned $%.0f during the closure. Trust -10 from rumors.", profit)
}

func holidayRestructure(st *BankState, _ Rand) string {
	wages := st.Staff.MonthlyWages()
	st.Cash -= wages
	trackExpense(st, ExpStaffWages, wages)
	upgraded := "nothing left to upgrade"
	if n := cheapestUpgrade(st); n != nil {
		n.Level++
		upgraded = n.Name
	}
	raiseTrust(st, 10)
	return fmt.Sprintf("Paid $%.0f and restructured: upgraded %s. Trust +10.", wages, upgraded)
}

func oilRaise(st *BankState, _ Rand) string {
	st.DepositRate = math.Min(0.12, st.DepositRate+0.06)
	st.LoanBaseRate = math.Min(0.18, st.LoanBaseRate+0.08)
	st.Economy.Inflation = 0.12
	dropTrust(st, 10, 40)
	cost := math.Floor(st.Cash * 0.08)
	st.Cash -= cost
	trackExpense(st, "inflationLosses", cost)
	return fmt.Sprintf("Deposit rate now %.1f%%, loan rate %.1f%%. Lost $%.0f to inflation. Trust -10.", st.DepositRate*100, st.LoanBaseRate*100, cost)
}

func oilKeepLow(st *BankState, _ Rand) string {
	st.Economy.Inflation = 0.12
	loss := math.Floor(math.Floor((st.Cash+st.Deposits)*0.12) * 0.6)
	st.Cash -= loss
	trackExpense(st, "inflationLosses", loss)
	st.Deposits = math.Floor(st.Deposits * 0.7)
	scaleAccounts(st, 0.7)
	dropTrust(st, 35, 20)
	return fmt.Sprintf("Lost $%.0f to inflation and 30%% of customers to better rates. Trust -35.", loss)
}

func oilVariable(st *BankState, _ Rand) string {
	st.DepositRate = math.Min(0.10, st.DepositRate+0.04)
	st.LoanBaseRate = math.Min(0.15, st.LoanBaseRate+0.06)
	st.Economy.Inflation = 0.12
	profit := math.Floor(st.Deposits * 0.05)
	st.Cash += profit
	trackRevenue(st, "oilCrisisLoans", profit)
	st.Deposits = math.Floor(st.Deposits * 0.85)
	scaleAccounts(st, 0.85)
	return fmt.Sprintf("Earned $%.0f on variable-rate loans, lost 15%% of depositors. Rates at %.1f/%.1f%%.", profit, st.DepositRate*100, st.LoanBaseRate*100)
}

func housingBailout(st *BankState, _ Rand) string {
	bailout := math.Floor(st.Deposits * 0.5)
	st.Cash += bailout
	trackRevenue(st, "bailout", bailout)
	dropTrust(st, 35, 30)
	_, n := writeOffNewest(st, int(math.Floor(float64(len(st.Loans))*0.35)))
	return fmt.Sprintf("Received $%.0f from the government. Trust -35. %d loans defaulted.", bailout, n)
}

func housingRefuse(st *BankState, _ Rand) string {
	loss, _ := writeOffNewest(st, int(math.Floor(float64(len(st.Loans))*0.4)))
	if st.Cash < 0 {
		st.Cash = 100
		st.Trust = 20
		return fmt.Sprintf("Lost $%.0f on defaults and nearly went bankrupt, but stayed independent.", loss)
	}
	raiseTrust(st, 20)
	return fmt.Sprintf("Lost $%.0f but stayed solvent. Trust +20 for refusing the bailout.", loss)
}

func housingLiquidate(st *BankState, _ Rand) string {
	total := st.Investments.Total()
	funds := math.Floor(total * 0.7)
	st.Cash += funds
	trackExpense(st, "liquidationLosses", total-funds)
	st.Investments = Investments{}
	loss, n := writeOffNewest(st, int(math.Floor(float64(len(st.Loans))*0.25)))
	raiseTrust(st, 10)
	return fmt.Sprintf("Liquidated investments for $%.0f. Lost $%.0f on %d defaults. Trust +10.", funds, loss, n)
}

// hasDigitalChannel reports whether any online channel tech is researched.
func hasDigitalChannel(st *BankState) bool {
	for _, n := range st.Tech[TechCustomer] {
		if n.ID == "mobile" && n.Level > 0 {
			return true
		}
	}
	for _, n := range st.Tech[TechProfit] {
		if n.ID == "digital" && n.Level > 0 {
			return true
		}
	}
	return false
}

func covidDigital(st *BankState, _ Rand) string {
	if hasDigitalChannel(st) {
		bonus := math.Floor(st.Deposits * 0.15)
		st.Cash += bonus
		trackRevenue(st, "covidDigital", bonus)
		scaleAccounts(st, 1.2)
		raiseTrust(st, 25)
		return fmt.Sprintf("Online banking pays off: gained $%.0f and 20%% more customers. Trust +25.", bonus)
	}
	const adaptCost = 5000
	st.Cash -= adaptCost
	trackExpense(st, "covidAdapt", adaptCost)
	scaleAccounts(st, 0.9)
	return fmt.Sprintf("Spent $%d on emergency digital infrastructure and lost 10%% of customers.", adaptCost)
}

func covidStimulus(st *BankState, _ Rand) string {
	loans := math.Floor(st.Deposits * 0.3)
	interest := math.Floor(loans * 0.05)
	st.Cash += loans + interest
	trackRevenue(st, "stimulusLoans", loans+interest)
	raiseTrust(st, 15)
	return fmt.Sprintf("Issued $%.0f in stimulus loans and earned $%.0f in fees. Trust +15.", loans, interest)
}

func covidReduce(st *BankState, _ Rand) string {
	layoffs := int(math.Floor(float64(st.Staff.Tellers+st.Staff.LoanOfficers) * 0.3))
	st.Staff.Tellers = int(math.Floor(float64(st.Staff.Tellers) * 0.7))
	st.Staff.LoanOfficers = int(math.Floor(float64(st.Staff.LoanOfficers) * 0.7))
	scaleAccounts(st, 0.75)
	st.Deposits = math.Floor(st.Deposits * 0.75)
	dropTrust(st, 20, 30)
	return fmt.Sprintf("Laid off %d staff, lost 25%% of customers. Trust -20.", layoffs)
}

func boomInvest(st *BankState, _ Rand) string {
	amount := math.Floor(st.Cash * 0.3)
	if amount <= 0 {
		return "Not enough cash to invest."
	}
	st.Cash -= amount
	st.Investments.Stocks += amount
	return fmt.Sprintf("Invested $%.0f in stocks.", amount)
}

func boomSafe(st *BankState, _ Rand) string {
	raiseTrust(st, 5)
	return "Customers appreciate the conservative approach. Trust +5."
}

func recessionRates(st *BankState, _ Rand) string {
	st.DepositRate *= 1.5
	raiseTrust(st, 10)
	return "Deposit rate increased. Trust +10, but costs are higher."
}

func recessionTighten(st *BankState, _ Rand) string {
	st.Automation.LoanOfficers.AutoApproveMediumRisk = false
	st.Automation.LoanOfficers.AutoApproveHighRisk = false
	return "Stricter lending reduces risk during tough times."
}

func techAccept(st *BankState, _ Rand) string {
	for _, cat := range TechCategories {
		nodes := st.Tech[cat]
		for i := range nodes {
			if !nodes[i].Maxed() {
				nodes[i].Level++
				return fmt.Sprintf("Upgraded %s for free.", nodes[i].Name)
			}
		}
	}
	return "All technology is already maxed."
}

func techDecline(st *BankState, _ Rand) string {
	st.Cash += 1000
	trackRevenue(st, RevFees, 1000)
	return "Received a $1000 consultation fee instead."
}

func vipAccept(st *BankState, _ Rand) string {
	if st.Staff.Managers < 1 {
		return "Need at least one manager for VIP service."
	}
	st.Segments.VIP.Count += 3
	st.Cash += 20000
	trackRevenue(st, "vipClient", 20000)
	return "VIP client secured: +$20,000 and 3 VIP customers."
}

func vipDecline(*BankState, Rand) string {
	return "Passed on the opportunity."
}

func auditCooperate(st *BankState, _ Rand) string {
	cost := math.Floor(st.Cash * 0.05)
	st.Cash -= cost
	trackExpense(st, "auditCosts", cost)
	raiseTrust(st, 15)
	return fmt.Sprintf("Audit cost $%.0f, trust increased significantly.", cost)
}

func auditMinimal(st *BankState, rng Rand) string {
	if rng.Float64() < 0.3 {
		fine := math.Floor(st.Cash * 0.15)
		st.Cash -= fine
		trackExpense(st, "regulatoryFines", fine)
		return fmt.Sprintf("Fined $%.0f for non-compliance.", fine)
	}
	return "Passed the audit with minimal effort."
}

func cyberUpgrade(st *BankState, _ Rand) string {
	const cost = 5000
	if st.Cash >= cost {
		st.Cash -= cost
		trackExpense(st, "cyberDefense", cost)
		return fmt.Sprintf("Spent $%d on security. Attack prevented.", cost)
	}
	loss := math.Floor(st.Cash * 0.2)
	st.Cash -= loss
	trackExpense(st, "cyberLosses", loss)
	return fmt.Sprintf("Couldn't afford security. Lost $%.0f to the breach.", loss)
}

func cyberTrust(st *BankState, _ Rand) string {
	if Protection(st) > 150 {
		return "Your security systems held strong."
	}
	loss := math.Floor(st.Cash * 0.1)
	st.Cash -= loss
	trackExpense(st, "cyberLosses", loss)
	dropTrust(st, 10, 0)
	return fmt.Sprintf("Security breach: lost $%.0f and trust decreased.", loss)
}
