package game

import (
	"errors"
	"testing"
)

func queueCustomer(st *BankState, id string, kind RequestKind, amount float64) {
	st.CustomerQueue = append(st.CustomerQueue, PendingRequest{
		ID: id, Kind: kind, Amount: amount, Segment: SegmentRetail, CreatedAtTick: st.Tick,
	})
}

func TestApproveDepositScenario(t *testing.T) {
	e := quietEngine()
	st := e.NewState()
	queueCustomer(st, "c1", KindDeposit, 500)

	if err := e.ApproveCustomer(st, "c1"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if st.Cash != 1500 || st.Deposits != 500 || st.ActiveAccounts != 1 {
		t.Fatalf("cash=%v deposits=%v accounts=%d", st.Cash, st.Deposits, st.ActiveAccounts)
	}
	if len(st.CustomerQueue) != 0 {
		t.Fatalf("request still queued")
	}

	// A late expiry must find nothing to do.
	before := *st
	if err := e.denyCustomer(st, "c1", true); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
	if st.Cash != before.Cash || st.Trust != before.Trust || st.Statistics.Totals.CustomersServed != before.Statistics.Totals.CustomersServed {
		t.Fatalf("expiry after approval mutated state")
	}
}

func TestWithdrawalOutcomes(t *testing.T) {
	tests := []struct {
		name      string
		cash      float64
		approve   bool
		wantCash  float64
		wantTrust float64
		wantSat   float64
	}{
		{name: "approved and covered", cash: 1000, approve: true, wantCash: 700, wantTrust: MaxTrust, wantSat: 100},
		{name: "approved but short", cash: 100, approve: true, wantCash: 100, wantTrust: MaxTrust - 10, wantSat: 85},
		{name: "denied", cash: 1000, approve: false, wantCash: 1000, wantTrust: MaxTrust - 5, wantSat: 92},
	}
	for _, tc := range tests {
		e := quietEngine()
		st := e.NewState()
		st.Cash = tc.cash
		st.Deposits = 2000
		queueCustomer(st, "w1", KindWithdrawal, 300)

		var err error
		if tc.approve {
			err = e.ApproveCustomer(st, "w1")
		} else {
			err = e.DenyCustomer(st, "w1")
		}
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if st.Cash != tc.wantCash || st.Trust != tc.wantTrust || st.Segments.Retail.Satisfaction != tc.wantSat {
			t.Fatalf("%s: cash=%v trust=%v satisfaction=%v", tc.name, st.Cash, st.Trust, st.Segments.Retail.Satisfaction)
		}
		if len(st.CustomerQueue) != 0 {
			t.Fatalf("%s: request still queued", tc.name)
		}
	}
}

func TestApproveLoanWithoutCashChangesNothing(t *testing.T) {
	e := quietEngine()
	st := e.NewState()
	st.LoanQueue = append(st.LoanQueue, LoanRequest{ID: "l1", Purpose: "Home Purchase", Risk: RiskLow, Amount: 4000, Rate: 0.05, TermMonths: 12})

	err := e.ApproveLoan(st, "l1")
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if st.Cash != StartCash || st.Trust != MaxTrust || len(st.LoanQueue) != 1 || len(st.Loans) != 0 {
		t.Fatalf("rejected approval mutated state: cash=%v trust=%v queue=%d loans=%d", st.Cash, st.Trust, len(st.LoanQueue), len(st.Loans))
	}
	if last := st.Log[len(st.Log)-1]; last.Kind != LogDanger {
		t.Fatalf("rejection not logged as danger: %+v", last)
	}

	st.Cash = 5000
	if err := e.ApproveLoan(st, "l1"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if st.Cash != 1000 || len(st.Loans) != 1 || st.Statistics.Totals.LoansIssued != 1 {
		t.Fatalf("cash=%v loans=%d issued=%d", st.Cash, len(st.Loans), st.Statistics.Totals.LoansIssued)
	}
}

func TestHireAndFire(t *testing.T) {
	e := quietEngine()
	st := e.NewState()

	if err := e.Hire(st, RoleManagers); !errors.Is(err, ErrStaffCapacity) {
		t.Fatalf("level 1 has no manager slots, got %v", err)
	}
	if err := e.Hire(st, RoleGuards); err != nil {
		t.Fatalf("hire guard: %v", err)
	}
	if st.Cash != StartCash-240 || st.SecurityProtection != guardProtection {
		t.Fatalf("cash=%v protection=%v", st.Cash, st.SecurityProtection)
	}
	if err := e.Hire(st, RoleGuards); !errors.Is(err, ErrStaffCapacity) {
		t.Fatalf("second guard should exceed capacity, got %v", err)
	}
	if err := e.Fire(st, RoleTellers); !errors.Is(err, ErrNoStaff) {
		t.Fatalf("expected ErrNoStaff, got %v", err)
	}
	if err := e.Fire(st, RoleGuards); err != nil {
		t.Fatalf("fire: %v", err)
	}
	if st.Trust != MaxTrust-3 || st.Staff.Guards != 0 {
		t.Fatalf("trust=%v guards=%d", st.Trust, st.Staff.Guards)
	}

	st.Cash = 100
	if err := e.Hire(st, RoleTellers); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if st.Cash != 100 || st.Staff.Tellers != 0 {
		t.Fatalf("failed hire mutated state")
	}
}

func TestUpgradeBank(t *testing.T) {
	e := quietEngine()
	st := e.NewState()
	if err := e.UpgradeBank(st); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	st.Cash = 100000
	for level := 2; level <= MaxLevel; level++ {
		if err := e.UpgradeBank(st); err != nil {
			t.Fatalf("upgrade to %d: %v", level, err)
		}
	}
	if st.Cash != 100000-37000 || st.MaxStaff != StaffCapacity(MaxLevel) {
		t.Fatalf("cash=%v maxStaff=%+v", st.Cash, st.MaxStaff)
	}
	if err := e.UpgradeBank(st); !errors.Is(err, ErrMaxLevel) {
		t.Fatalf("expected ErrMaxLevel, got %v", err)
	}
}

func TestInvest(t *testing.T) {
	e := quietEngine()
	st := e.NewState()
	tests := []struct {
		bucket Bucket
		amount float64
		want   error
	}{
		{bucket: BucketBonds, amount: 0, want: ErrInvalidAmount},
		{bucket: BucketStocks, amount: 5000, want: ErrInsufficientFunds},
		{bucket: "gold", amount: 10, want: ErrUnknownBucket},
		{bucket: BucketSpeculative, amount: 400, want: nil},
	}
	for _, tc := range tests {
		err := e.Invest(st, tc.bucket, tc.amount)
		if !errors.Is(err, tc.want) {
			t.Fatalf("invest %s %v: got %v want %v", tc.bucket, tc.amount, err, tc.want)
		}
	}
	if st.Cash != 600 || st.Investments.Speculative != 400 {
		t.Fatalf("cash=%v speculative=%v", st.Cash, st.Investments.Speculative)
	}
}

func TestResearchTech(t *testing.T) {
	e := quietEngine()
	st := e.NewState()

	if err := e.ResearchTech(st, TechSecurity, "cameras"); !errors.Is(err, ErrTechLocked) {
		t.Fatalf("cameras need 1950, got %v", err)
	}
	if err := e.ResearchTech(st, TechSecurity, "laser"); !errors.Is(err, ErrTechNotFound) {
		t.Fatalf("expected ErrTechNotFound, got %v", err)
	}
	if err := e.ResearchTech(st, TechSecurity, "vault1"); err != nil {
		t.Fatalf("research vault1: %v", err)
	}
	if st.Cash != 500 || st.SecurityLevel != "Low" || st.SecurityProtection != 20 {
		t.Fatalf("cash=%v level=%s protection=%v", st.Cash, st.SecurityLevel, st.SecurityProtection)
	}
	// level 2 costs 1000
	if err := e.ResearchTech(st, TechSecurity, "vault1"); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	st.Cash = 1e6
	for i := 0; i < 2; i++ {
		if err := e.ResearchTech(st, TechSecurity, "vault1"); err != nil {
			t.Fatalf("research: %v", err)
		}
	}
	if err := e.ResearchTech(st, TechSecurity, "vault1"); !errors.Is(err, ErrMaxLevel) {
		t.Fatalf("expected ErrMaxLevel, got %v", err)
	}
}

func TestSetRatesBounds(t *testing.T) {
	e := quietEngine()
	st := e.NewState()
	if err := e.SetRates(st, 0.03, 0.26); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
	if st.DepositRate != 0.02 || st.LoanBaseRate != 0.06 {
		t.Fatalf("rejected rates applied")
	}
	if err := e.SetRates(st, 0.025, 0.07); err != nil {
		t.Fatalf("set rates: %v", err)
	}
	if st.DepositRate != 0.025 || st.LoanBaseRate != 0.07 {
		t.Fatalf("rates=%v/%v", st.DepositRate, st.LoanBaseRate)
	}
}

func TestSetAutomationValidates(t *testing.T) {
	e := quietEngine()
	st := e.NewState()
	cfg := DefaultAutomation()
	cfg.Managers.PreferredInvestment = "tulips"
	if err := e.SetAutomation(st, cfg); !errors.Is(err, ErrUnknownBucket) {
		t.Fatalf("expected ErrUnknownBucket, got %v", err)
	}
	cfg = DefaultAutomation()
	cfg.Managers.AutoInvest = true
	cfg.Managers.AutoInvestPercentage = 50
	if err := e.SetAutomation(st, cfg); err != nil {
		t.Fatalf("set automation: %v", err)
	}
	if !st.Automation.Managers.AutoInvest {
		t.Fatalf("automation not applied")
	}
}
