package game

import "math"

const (
	RevLoanInterest      = "loanInterest"
	RevInvestmentReturns = "investmentReturns"
	RevProductRevenue    = "productRevenue"
	RevFees              = "fees"
	RevObjectiveRewards  = "objectiveRewards"

	ExpDepositInterest  = "depositInterest"
	ExpStaffWages       = "staffWages"
	ExpLoanDefaults     = "loanDefaults"
	ExpRobberyLosses    = "robberyLosses"
	ExpTechUpgrades     = "techUpgrades"
	ExpOperationalCosts = "operationalCosts"
)

const (
	wageCrisisTrustLoss     = 15
	interestCrisisTrustLoss = 20
)

// trackRevenue books amount against the open month. Non-positive amounts
// are ignored.
func trackRevenue(st *BankState, key string, amount float64) {
	if amount <= 0 {
		return
	}
	acc := &st.Statistics.Current
	if acc.Revenue == nil {
		acc.Revenue = map[string]float64{}
	}
	acc.Revenue[key] += amount
	acc.RevenueTotal += amount
	st.Statistics.Totals.RevenueAllTime += amount
}

func trackExpense(st *BankState, key string, amount float64) {
	if amount <= 0 {
		return
	}
	acc := &st.Statistics.Current
	if acc.Expenses == nil {
		acc.Expenses = map[string]float64{}
	}
	acc.Expenses[key] += amount
	acc.ExpenseTotal += amount
	st.Statistics.Totals.ExpensesAllTime += amount
}

func recordHistory(st *BankState, at Date) {
	st.Statistics.History.Push(HistoryPoint{
		Year:         at.Year,
		Month:        at.Month,
		Cash:         st.Cash,
		Deposits:     st.Deposits,
		Profit:       st.TotalProfit,
		Accounts:     st.ActiveAccounts,
		Trust:        st.Trust,
		MarketShare:  st.MarketShare,
		ReserveRatio: st.ReserveRatio(),
	})
}

// closeMonth moves the open accumulator into the monthly ring and resets it.
func closeMonth(st *BankState, at Date) MonthlyPnL {
	acc := st.Statistics.Current
	pnl := MonthlyPnL{
		Year:         at.Year,
		Month:        at.Month,
		Revenue:      acc.Revenue,
		Expenses:     acc.Expenses,
		RevenueTotal: acc.RevenueTotal,
		ExpenseTotal: acc.ExpenseTotal,
		NetIncome:    acc.RevenueTotal - acc.ExpenseTotal,
		LoansIssued:  acc.LoansIssued,
		LoanDefaults: acc.LoanDefaults,
	}
	if pnl.Revenue == nil {
		pnl.Revenue = map[string]float64{}
	}
	if pnl.Expenses == nil {
		pnl.Expenses = map[string]float64{}
	}
	st.Statistics.Monthly.Push(pnl)
	st.Statistics.Totals.ProfitAllTime += pnl.NetIncome
	st.Statistics.Current = newMonthAccumulator()
	return pnl
}

func (e *Engine) payDepositInterest(st *BankState) {
	if st.Deposits <= 0 {
		return
	}
	payment := st.Deposits * st.DepositRate / 12
	if st.Cash >= payment {
		st.Cash -= payment
		trackExpense(st, ExpDepositInterest, payment)
		e.logf(st, LogInfo, "Paid $%.0f interest on deposits", payment)
		return
	}
	st.Trust = clamp(st.Trust-interestCrisisTrustLoss, 0, MaxTrust)
	e.logf(st, LogDanger, "CRISIS: can't pay $%.0f deposit interest, trust plummeted", payment)
}

// serviceLoans runs each loan's default check, then its payment. A loan that
// defaults does not pay that month.
func (e *Engine) serviceLoans(st *BankState) {
	kept := st.Loans[:0]
	for _, loan := range st.Loans {
		if e.rng.Float64() < loan.DefaultProbability {
			st.Statistics.Totals.LoanDefaults++
			st.Statistics.Current.LoanDefaults++
			trackExpense(st, ExpLoanDefaults, loan.PrincipalRemaining)
			st.Trust = clamp(st.Trust-5, 0, MaxTrust)
			e.logf(st, LogDanger, "LOAN DEFAULT: %s ($%.0f lost)", loan.Purpose, loan.PrincipalRemaining)
			continue
		}

		interest := loan.PrincipalRemaining * loan.Rate / 12
		principal := loan.MonthlyPayment - interest
		st.Cash += loan.MonthlyPayment
		loan.TotalPaid += loan.MonthlyPayment
		loan.TermRemaining--
		loan.PrincipalRemaining -= principal
		if math.Abs(loan.PrincipalRemaining) < 1e-6 {
			loan.PrincipalRemaining = 0
		}
		st.TotalProfit += interest
		trackRevenue(st, RevLoanInterest, interest)

		if loan.TermRemaining <= 0 {
			e.logf(st, LogSuccess, "Loan paid off: %s (+$%.0f interest)", loan.Purpose, loan.TotalPaid-loan.Amount)
			continue
		}
		kept = append(kept, loan)
	}
	st.Loans = kept
}

func (e *Engine) collectInvestments(st *BankState) {
	total := 0.0
	for _, b := range Buckets {
		balance := *st.Investments.bucket(b)
		if balance <= 0 {
			continue
		}
		gain := balance * annualReturns[b] / 12 * st.ProfitMultiplier
		if b == BucketSpeculative {
			gain *= 1 + e.noise(0.4)
		}
		st.Cash += gain
		st.TotalProfit += gain
		total += gain
	}
	if total > 0 {
		trackRevenue(st, RevInvestmentReturns, total)
		if total > 10 {
			e.logf(st, LogSuccess, "Investment returns: +$%.0f", total)
		}
	}
}

// payWages pays the whole payroll or, failing that, empties the till and
// loses one employee.
func (e *Engine) payWages(st *BankState) {
	wages := st.Staff.MonthlyWages()
	if wages <= 0 {
		return
	}
	if st.Cash >= wages {
		st.Cash -= wages
		trackExpense(st, ExpStaffWages, wages)
		if wages > 100 {
			e.logf(st, LogInfo, "Paid staff wages: -$%.0f", wages)
		}
		return
	}

	shortage := wages - st.Cash
	trackExpense(st, ExpStaffWages, st.Cash)
	st.Cash = 0
	st.Trust = clamp(st.Trust-wageCrisisTrustLoss, 0, MaxTrust)
	for _, role := range layoffOrder {
		if p := st.Staff.ptr(role); *p > 0 {
			*p--
			break
		}
	}
	e.logf(st, LogDanger, "WAGE CRISIS: couldn't pay $%.0f, staff quit and trust plummeted", shortage)
}

// issueLoan disburses principal and adds the loan to the book.
func (e *Engine) issueLoan(st *BankState, req LoanRequest) ActiveLoan {
	st.Cash -= req.Amount
	loan := ActiveLoan{
		LoanRequest:        req,
		MonthlyPayment:     MonthlyPayment(req.Amount, req.Rate, req.TermMonths),
		PrincipalRemaining: req.Amount,
		TermRemaining:      req.TermMonths,
		IssueDate:          st.Date.String(),
	}
	st.Loans = append(st.Loans, loan)
	st.Statistics.Totals.LoansIssued++
	st.Statistics.Current.LoansIssued++
	return loan
}

type Analytics struct {
	ReturnOnAssets     float64 `json:"return_on_assets"`
	ReturnOnEquity     float64 `json:"return_on_equity"`
	NetInterestMargin  float64 `json:"net_interest_margin"`
	EfficiencyRatio    float64 `json:"efficiency_ratio"`
	RevenuePerEmployee float64 `json:"revenue_per_employee"`
	ProfitPerCustomer  float64 `json:"profit_per_customer"`
	AverageDepositSize float64 `json:"average_deposit_size"`
	AverageLoanSize    float64 `json:"average_loan_size"`
	LoanDefaultRate    float64 `json:"loan_default_rate"`
	TotalAssets        float64 `json:"total_assets"`
	Equity             float64 `json:"equity"`
}

// Analyze derives the ratios shown on the statistics screen. Percentages
// are in 0..100; trailing sums cover the last 12 closed months.
func Analyze(st *BankState) Analytics {
	var a Analytics
	a.TotalAssets = st.Cash + st.Investments.Total()
	a.Equity = a.TotalAssets - st.Deposits

	var interestIn, interestOut, revenue, expenses, net float64
	var issued, defaulted int
	for _, m := range st.Statistics.Monthly.Last(12) {
		issued += m.LoansIssued
		defaulted += m.LoanDefaults
		interestIn += m.Revenue[RevLoanInterest]
		interestOut += m.Expenses[ExpDepositInterest]
		revenue += m.RevenueTotal
		expenses += m.ExpenseTotal
		net += m.NetIncome
	}

	if a.TotalAssets > 0 {
		a.ReturnOnAssets = st.TotalProfit / a.TotalAssets * 100
		a.NetInterestMargin = (interestIn - interestOut) / a.TotalAssets * 100
	}
	if a.Equity > 0 {
		a.ReturnOnEquity = st.TotalProfit / a.Equity * 100
	}
	if revenue > 0 {
		a.EfficiencyRatio = expenses / revenue * 100
	}
	if n := st.Staff.Total(); n > 0 {
		a.RevenuePerEmployee = math.Floor(revenue / float64(n))
	}
	if st.ActiveAccounts > 0 {
		a.ProfitPerCustomer = math.Floor(net / float64(st.ActiveAccounts))
		a.AverageDepositSize = math.Floor(st.Deposits / float64(st.ActiveAccounts))
	}
	if len(st.Loans) > 0 {
		sum := 0.0
		for _, l := range st.Loans {
			sum += l.Amount
		}
		a.AverageLoanSize = math.Floor(sum / float64(len(st.Loans)))
	}
	if issued > 0 {
		a.LoanDefaultRate = float64(defaulted) / float64(issued) * 100
	}
	return a
}
