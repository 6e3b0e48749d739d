package game

import "math"

const (
	reasonNoCapacity = "No teller capacity"
	reasonManual     = "Manual approval required"
	reasonRisky      = "Large/risky withdrawal"
)

// Competitive reports whether the bank's rates sit within half a point of
// the market on both sides.
func Competitive(st *BankState) bool {
	return st.DepositRate >= st.MarketRates.Deposit-0.005 &&
		st.LoanBaseRate <= st.MarketRates.Loan+0.005
}

func (e *Engine) generateCustomers(st *BankState) {
	n := 2 + e.rng.Intn(5) + int(math.Floor(customerBonus(st)))
	for i := 0; i < n; i++ {
		e.generateCustomer(st)
	}
}

func (e *Engine) drawSegment() Segment {
	roll := e.rng.Float64()
	switch {
	case roll < 0.70:
		return SegmentRetail
	case roll < 0.95:
		return SegmentBusiness
	default:
		return SegmentVIP
	}
}

// generateCustomer draws one walk-in and either settles it under the teller
// policy or queues it. The competitiveness gate runs before any other draw.
func (e *Engine) generateCustomer(st *BankState) {
	if !Competitive(st) && e.rng.Float64() < 0.3 {
		return
	}
	seg := e.drawSegment()
	kind := KindDeposit
	if e.rng.Intn(4) == 3 {
		kind = KindWithdrawal
	}

	hasCapacity := st.TellerUsed < st.TellerCapacity
	policy := st.Automation.Tellers
	band := segmentRanges[seg]

	var amount float64
	if kind == KindDeposit {
		amount = math.Floor(e.rng.Float64()*band.depositSpread + band.depositMin)
		if policy.AutoApproveDeposits && hasCapacity {
			st.TellerUsed++
			acceptDeposit(st, seg, amount)
			return
		}
	} else {
		if st.Deposits <= 0 {
			return
		}
		amount = math.Floor(e.rng.Float64() * math.Min(band.withdrawalCap, st.Deposits))
		if amount <= 0 {
			return
		}
		reserveAfter := (st.Cash - amount) / st.Deposits * 100
		if policy.AutoApproveWithdrawals &&
			amount <= policy.MaxWithdrawalAmount &&
			reserveAfter >= policy.MinReserveRatio &&
			st.Cash >= amount &&
			hasCapacity {
			st.TellerUsed++
			payWithdrawal(st, seg, amount)
			return
		}
	}

	reason := reasonManual
	switch {
	case !hasCapacity:
		reason = reasonNoCapacity
	case kind == KindWithdrawal:
		reason = reasonRisky
	}
	st.CustomerQueue = append(st.CustomerQueue, PendingRequest{
		ID:            e.newID(),
		Kind:          kind,
		Amount:        amount,
		Segment:       seg,
		Reason:        reason,
		CreatedAtTick: st.Tick,
	})
}

func acceptDeposit(st *BankState, seg Segment, amount float64) {
	st.Cash += amount
	st.Deposits += amount
	s := st.Segments.get(seg)
	s.Deposits += amount
	s.Count++
	st.ActiveAccounts++
	st.Statistics.Totals.CustomersServed++
	st.Statistics.Totals.DepositsProcessed++
}

func payWithdrawal(st *BankState, seg Segment, amount float64) {
	st.Cash -= amount
	st.Deposits -= amount
	s := st.Segments.get(seg)
	s.Deposits = math.Max(0, s.Deposits-amount)
	st.Statistics.Totals.CustomersServed++
	st.Statistics.Totals.WithdrawalsProcessed++
}

func (e *Engine) generateLoans(st *BankState) {
	if e.rng.Float64() >= 0.1 {
		return
	}
	n := 1 + e.rng.Intn(2)
	for i := 0; i < n; i++ {
		e.generateLoanRequest(st)
	}
}

func (e *Engine) generateLoanRequest(st *BankState) {
	kind := loanPurposes[e.rng.Intn(len(loanPurposes))]
	req := LoanRequest{
		ID:                 e.newID(),
		Purpose:            kind.purpose,
		Risk:               kind.risk,
		Amount:             math.Floor(kind.baseAmount * e.uniform(0.7, 1.3)),
		Rate:               kind.rate,
		TermMonths:         loanTerms[e.rng.Intn(len(loanTerms))],
		DefaultProbability: annualDefault[kind.risk] / 12,
		CreatedAtTick:      st.Tick,
		RequestDate:        st.Date.String(),
	}

	policy := st.Automation.LoanOfficers
	if st.Staff.LoanOfficers > 0 &&
		st.Cash >= req.Amount &&
		st.Cash >= req.Amount*policy.MinCashBuffer &&
		req.Amount <= policy.MaxLoanAmount &&
		policy.allows(req.Risk) {
		e.issueLoan(st, req)
		st.Trust = clamp(st.Trust+1, 0, MaxTrust)
		return
	}
	st.LoanQueue = append(st.LoanQueue, req)
}

// dailyCustomerEvents runs the depression bank-run check and the daily
// trust recovery.
func (e *Engine) dailyCustomerEvents(st *BankState) {
	if st.Era == EraDepression && e.rng.Float64() < 0.15 && st.Deposits > 0 {
		run := math.Floor(st.Deposits * 0.2)
		if st.Cash >= run {
			st.Cash -= run
			st.Deposits -= run
			e.logf(st, LogDanger, "Bank run! Customers withdrawing $%.0f on depression fears", run)
		} else {
			st.Trust = clamp(st.Trust-20, 0, MaxTrust)
			e.logf(st, LogDanger, "Failed to cover a bank run, trust severely damaged")
		}
	}
	if st.Trust < MaxTrust {
		st.Trust = clamp(st.Trust+trustRecovery(st), 0, MaxTrust)
	}
}
