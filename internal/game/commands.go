package game

import (
	"fmt"
	"math"
)

const maxPlayerRate = 0.25

// ApproveCustomer settles a queued deposit or withdrawal. A withdrawal the
// till cannot cover is a modeled failure: the customer leaves angry and the
// call still succeeds.
func (e *Engine) ApproveCustomer(st *BankState, id string) error {
	i := st.findCustomer(id)
	if i < 0 {
		return fmt.Errorf("%w: customer %s", ErrRequestNotFound, id)
	}
	req := st.CustomerQueue[i]
	st.TellerUsed++

	switch req.Kind {
	case KindDeposit:
		acceptDeposit(st, req.Segment, req.Amount)
		e.logf(st, LogSuccess, "Accepted %s deposit of $%.0f", req.Segment, req.Amount)
	default:
		if st.Cash >= req.Amount {
			payWithdrawal(st, req.Segment, req.Amount)
			e.logf(st, LogSuccess, "Processed %s withdrawal of $%.0f", req.Segment, req.Amount)
		} else {
			st.Trust = clamp(st.Trust-10, 0, MaxTrust)
			s := st.Segments.get(req.Segment)
			s.Satisfaction = math.Max(0, s.Satisfaction-15)
			e.logf(st, LogDanger, "Failed withdrawal of $%.0f: insufficient reserves, trust decreased", req.Amount)
		}
	}
	st.CustomerQueue = append(st.CustomerQueue[:i], st.CustomerQueue[i+1:]...)
	return nil
}

func (e *Engine) DenyCustomer(st *BankState, id string) error {
	return e.denyCustomer(st, id, false)
}

func (e *Engine) denyCustomer(st *BankState, id string, timedOut bool) error {
	i := st.findCustomer(id)
	if i < 0 {
		return fmt.Errorf("%w: customer %s", ErrRequestNotFound, id)
	}
	req := st.CustomerQueue[i]
	if req.Kind == KindWithdrawal {
		st.Trust = clamp(st.Trust-5, 0, MaxTrust)
		s := st.Segments.get(req.Segment)
		s.Satisfaction = math.Max(0, s.Satisfaction-8)
	}
	st.Statistics.Totals.CustomersServed++
	if timedOut {
		e.logf(st, LogWarning, "%s customer gave up waiting ($%.0f %s)", req.Segment, req.Amount, req.Kind)
	} else {
		e.logf(st, LogWarning, "Denied %s customer request for $%.0f", req.Segment, req.Amount)
	}
	st.CustomerQueue = append(st.CustomerQueue[:i], st.CustomerQueue[i+1:]...)
	return nil
}

// ApproveLoan issues a queued loan. Without the cash to fund it the request
// stays queued and nothing changes.
func (e *Engine) ApproveLoan(st *BankState, id string) error {
	i := st.findLoanRequest(id)
	if i < 0 {
		return fmt.Errorf("%w: loan %s", ErrRequestNotFound, id)
	}
	req := st.LoanQueue[i]
	if st.Cash < req.Amount {
		e.logf(st, LogDanger, "Cannot approve %s loan: insufficient cash reserves", req.Purpose)
		return fmt.Errorf("approve loan $%.0f: %w", req.Amount, ErrInsufficientFunds)
	}
	e.issueLoan(st, req)
	st.Trust = clamp(st.Trust+2, 0, MaxTrust)
	st.LoanQueue = append(st.LoanQueue[:i], st.LoanQueue[i+1:]...)
	e.logf(st, LogSuccess, "Approved %s loan: $%.0f @ %.1f%%", req.Purpose, req.Amount, req.Rate*100)
	return nil
}

func (e *Engine) DenyLoan(st *BankState, id string) error {
	return e.denyLoan(st, id, false)
}

func (e *Engine) denyLoan(st *BankState, id string, timedOut bool) error {
	i := st.findLoanRequest(id)
	if i < 0 {
		return fmt.Errorf("%w: loan %s", ErrRequestNotFound, id)
	}
	req := st.LoanQueue[i]
	st.LoanQueue = append(st.LoanQueue[:i], st.LoanQueue[i+1:]...)
	if timedOut {
		e.logf(st, LogInfo, "Loan applicant for %s went elsewhere", req.Purpose)
	} else {
		e.logf(st, LogInfo, "Denied loan request for %s", req.Purpose)
	}
	return nil
}

func (e *Engine) Hire(st *BankState, role Role) error {
	if _, err := ParseRole(string(role)); err != nil {
		return err
	}
	if st.Staff.Count(role) >= st.MaxStaff.Count(role) {
		e.logf(st, LogWarning, "Cannot hire more %s: upgrade bank first", role)
		return fmt.Errorf("hire %s: %w", role, ErrStaffCapacity)
	}
	cost := HireCost(role)
	if st.Cash < cost {
		e.logf(st, LogDanger, "Need $%.0f to hire %s (3 months wages)", cost, role)
		return fmt.Errorf("hire %s: %w", role, ErrInsufficientFunds)
	}
	e.hire(st, role)
	e.logf(st, LogSuccess, "Hired one of %s: +$%.0f/month wage", role, Wage(role))
	return nil
}

// Fire lets one employee go. Morale suffers.
func (e *Engine) Fire(st *BankState, role Role) error {
	if _, err := ParseRole(string(role)); err != nil {
		return err
	}
	p := st.Staff.ptr(role)
	if *p <= 0 {
		e.logf(st, LogWarning, "No %s to fire", role)
		return fmt.Errorf("fire %s: %w", role, ErrNoStaff)
	}
	*p--
	st.Trust = clamp(st.Trust-3, 0, MaxTrust)
	recalcDerived(st)
	e.logf(st, LogWarning, "Fired one of %s, trust decreased", role)
	return nil
}

func (e *Engine) UpgradeBank(st *BankState) error {
	next := st.BankLevel + 1
	if next > MaxLevel {
		e.logf(st, LogWarning, "Bank is already at maximum level")
		return fmt.Errorf("upgrade bank: %w", ErrMaxLevel)
	}
	cost := UpgradeCost(next)
	if st.Cash < cost {
		e.logf(st, LogDanger, "Need $%.0f to upgrade to level %d", cost, next)
		return fmt.Errorf("upgrade bank to %d: %w", next, ErrInsufficientFunds)
	}
	st.Cash -= cost
	trackExpense(st, ExpOperationalCosts, cost)
	st.BankLevel = next
	st.MaxStaff = StaffCapacity(next)
	e.logf(st, LogSuccess, "Bank upgraded to level %d, staff capacity increased", next)
	return nil
}

// Invest moves cash into a bucket. It is a transfer, not an expense.
func (e *Engine) Invest(st *BankState, bucket Bucket, amount float64) error {
	slot := st.Investments.bucket(bucket)
	if slot == nil {
		return fmt.Errorf("%w: %q", ErrUnknownBucket, bucket)
	}
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		e.logf(st, LogWarning, "Invalid investment amount")
		return ErrInvalidAmount
	}
	if amount > st.Cash {
		e.logf(st, LogDanger, "Insufficient cash reserves for investment")
		return fmt.Errorf("invest $%.0f: %w", amount, ErrInsufficientFunds)
	}
	st.Cash -= amount
	*slot += amount
	e.logf(st, LogSuccess, "Invested $%.0f in %s", amount, bucket)
	return nil
}

func (e *Engine) ResearchTech(st *BankState, cat TechCategory, id string) error {
	node, err := st.FindTech(cat, id)
	if err != nil {
		return err
	}
	if !node.Available(st.Date.Year) {
		e.logf(st, LogWarning, "%s is not available until %d", node.Name, node.MinYear)
		return fmt.Errorf("research %s: %w", node.Name, ErrTechLocked)
	}
	if node.Maxed() {
		e.logf(st, LogWarning, "%s is already at max level", node.Name)
		return fmt.Errorf("research %s: %w", node.Name, ErrMaxLevel)
	}
	if st.Cash < node.NextCost() {
		e.logf(st, LogDanger, "Not enough funds to research %s", node.Name)
		return fmt.Errorf("research %s: %w", node.Name, ErrInsufficientFunds)
	}
	e.buyTech(st, cat, node)
	return nil
}

// ResolveEvent applies the player's choice to the active event.
func (e *Engine) ResolveEvent(st *BankState, choice int) (EventRecord, error) {
	rec, err := e.resolveEvent(st, choice, false)
	if err != nil {
		return EventRecord{}, err
	}
	st.clampInvariants()
	return rec, nil
}

func (e *Engine) SetRates(st *BankState, deposit, loan float64) error {
	for _, r := range []float64{deposit, loan} {
		if r < 0 || r > maxPlayerRate || math.IsNaN(r) {
			e.logf(st, LogWarning, "Rates must be between 0%% and %.0f%%", maxPlayerRate*100)
			return fmt.Errorf("%w: %v", ErrInvalidRate, r)
		}
	}
	st.DepositRate = deposit
	st.LoanBaseRate = loan
	e.logf(st, LogInfo, "Rates set: deposits %.2f%%, loans %.2f%%", deposit*100, loan*100)
	return nil
}

func (e *Engine) SetAutomation(st *BankState, cfg AutomationConfig) error {
	if err := validateAutomation(cfg); err != nil {
		e.logf(st, LogWarning, "Automation settings rejected: %v", err)
		return err
	}
	st.Automation = cfg
	e.logf(st, LogInfo, "Automation settings updated")
	return nil
}

func validateAutomation(cfg AutomationConfig) error {
	if _, err := ParseBucket(string(cfg.Managers.PreferredInvestment)); err != nil {
		return err
	}
	if cfg.Tellers.MaxWithdrawalAmount < 0 || cfg.LoanOfficers.MaxLoanAmount < 0 ||
		cfg.LoanOfficers.MinCashBuffer < 0 || cfg.Managers.AutoInvestThreshold < 0 {
		return fmt.Errorf("automation thresholds: %w", ErrInvalidAmount)
	}
	if p := cfg.Managers.AutoInvestPercentage; p < 0 || p > 100 {
		return fmt.Errorf("auto invest percentage %v: %w", p, ErrInvalidAmount)
	}
	return nil
}
