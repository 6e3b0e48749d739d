package game

import "testing"

func TestLoanAmortizesToZero(t *testing.T) {
	e := quietEngine()
	st := e.NewState()
	st.Cash = 10000

	e.issueLoan(st, LoanRequest{ID: "l1", Purpose: "Home Purchase", Risk: RiskLow, Amount: 5000, Rate: 0.05, TermMonths: 12, DefaultProbability: 0.02 / 12})
	if st.Cash != 5000 {
		t.Fatalf("cash after disbursal=%v want 5000", st.Cash)
	}

	for month := 1; month <= 11; month++ {
		e.serviceLoans(st)
	}
	if len(st.Loans) != 1 {
		t.Fatalf("loan closed early: %d left", len(st.Loans))
	}
	if l := st.Loans[0]; l.TermRemaining != 1 || !near(l.PrincipalRemaining, 426.26, 0.01) {
		t.Fatalf("before last payment: term=%d principal=%.4f", l.TermRemaining, l.PrincipalRemaining)
	}

	e.serviceLoans(st)
	if len(st.Loans) != 0 {
		t.Fatalf("loan should be paid off, %d left", len(st.Loans))
	}
	paid := st.Cash - 5000
	if !near(paid, 5136.48, 0.05) {
		t.Fatalf("total paid=%.2f want ~5136.48", paid)
	}
	if interest := st.Statistics.Current.Revenue[RevLoanInterest]; !near(interest, paid-5000, 1e-6) {
		t.Fatalf("interest revenue=%.4f want %.4f", interest, paid-5000)
	}
}

func TestLoanDefaultSkipsPayment(t *testing.T) {
	e := NewEngine(fixedRand{f: 0}, DefaultBalance())
	st := e.NewState()
	e.issueLoan(st, LoanRequest{ID: "l1", Purpose: "Business Startup", Risk: RiskHigh, Amount: 800, Rate: 0.12, TermMonths: 12, DefaultProbability: 0.1 / 12})
	cash := st.Cash

	e.serviceLoans(st)
	if len(st.Loans) != 0 {
		t.Fatalf("defaulted loan still on the book")
	}
	if st.Cash != cash {
		t.Fatalf("defaulted loan paid: cash %v -> %v", cash, st.Cash)
	}
	if st.Trust != MaxTrust-5 {
		t.Fatalf("trust=%v want %v", st.Trust, MaxTrust-5)
	}
	if st.Statistics.Current.Expenses[ExpLoanDefaults] != 800 || st.Statistics.Current.LoanDefaults != 1 {
		t.Fatalf("default not booked: %+v", st.Statistics.Current)
	}
}

func TestPayWages(t *testing.T) {
	tests := []struct {
		name      string
		staff     Staff
		cash      float64
		wantCash  float64
		wantTrust float64
		wantStaff Staff
	}{
		{
			name:      "affordable",
			staff:     Staff{Tellers: 2, Guards: 1},
			cash:      1000,
			wantCash:  820,
			wantTrust: MaxTrust,
			wantStaff: Staff{Tellers: 2, Guards: 1},
		},
		{
			name:      "short lays off a loan officer",
			staff:     Staff{Tellers: 2, Guards: 1, Managers: 1, LoanOfficers: 2},
			cash:      300,
			wantTrust: MaxTrust - 15,
			wantStaff: Staff{Tellers: 2, Guards: 1, Managers: 1, LoanOfficers: 1},
		},
		{
			name:      "short without officers lays off a manager",
			staff:     Staff{Tellers: 4, Guards: 1, Managers: 3},
			cash:      300,
			wantTrust: MaxTrust - 15,
			wantStaff: Staff{Tellers: 4, Guards: 1, Managers: 2},
		},
		{
			name:      "guards are never laid off",
			staff:     Staff{Guards: 2},
			cash:      10,
			wantTrust: MaxTrust - 15,
			wantStaff: Staff{Guards: 2},
		},
	}
	for _, tc := range tests {
		e := quietEngine()
		st := e.NewState()
		st.Staff = tc.staff
		st.Cash = tc.cash

		e.payWages(st)
		if st.Cash != tc.wantCash || st.Trust != tc.wantTrust || st.Staff != tc.wantStaff {
			t.Fatalf("%s: cash=%v trust=%v staff=%+v", tc.name, st.Cash, st.Trust, st.Staff)
		}
		paid := st.Statistics.Current.Expenses[ExpStaffWages]
		if paid != tc.cash-tc.wantCash {
			t.Fatalf("%s: booked wages=%v want %v", tc.name, paid, tc.cash-tc.wantCash)
		}
	}
}

func TestDepositInterest(t *testing.T) {
	e := quietEngine()
	st := e.NewState()
	st.Deposits = 12000
	st.Cash = 500
	e.payDepositInterest(st)
	if st.Cash != 480 || st.Statistics.Current.Expenses[ExpDepositInterest] != 20 {
		t.Fatalf("cash=%v expense=%v", st.Cash, st.Statistics.Current.Expenses[ExpDepositInterest])
	}

	st.Cash = 10
	e.payDepositInterest(st)
	if st.Cash != 10 || st.Trust != MaxTrust-20 {
		t.Fatalf("unpaid interest: cash=%v trust=%v", st.Cash, st.Trust)
	}
}

func TestTrackIgnoresNonPositive(t *testing.T) {
	st := quietEngine().NewState()
	trackRevenue(st, RevFees, 0)
	trackExpense(st, ExpTechUpgrades, -5)
	if len(st.Statistics.Current.Revenue) != 0 || st.Statistics.Current.ExpenseTotal != 0 {
		t.Fatalf("non-positive amounts were booked: %+v", st.Statistics.Current)
	}
}

func TestCloseMonthResetsAccumulator(t *testing.T) {
	st := quietEngine().NewState()
	trackRevenue(st, RevFees, 300)
	trackExpense(st, ExpStaffWages, 100)

	pnl := closeMonth(st, Date{Year: 1920, Month: 1})
	if pnl.NetIncome != 200 || pnl.Month != 1 {
		t.Fatalf("pnl=%+v", pnl)
	}
	if st.Statistics.Current.RevenueTotal != 0 || len(st.Statistics.Current.Revenue) != 0 {
		t.Fatalf("accumulator not reset: %+v", st.Statistics.Current)
	}
	if st.Statistics.Monthly.Len() != 1 || st.Statistics.Totals.ProfitAllTime != 200 {
		t.Fatalf("monthly=%d profit=%v", st.Statistics.Monthly.Len(), st.Statistics.Totals.ProfitAllTime)
	}
}

func TestAnalyzeDefaultRate(t *testing.T) {
	st := quietEngine().NewState()
	st.Statistics.Monthly.Push(MonthlyPnL{LoansIssued: 8, LoanDefaults: 1})
	st.Statistics.Monthly.Push(MonthlyPnL{LoansIssued: 2, LoanDefaults: 1})
	if got := Analyze(st).LoanDefaultRate; got != 20 {
		t.Fatalf("default rate=%v want 20", got)
	}
}
