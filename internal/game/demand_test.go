package game

import "testing"

func TestWithdrawalAutoApprovalGates(t *testing.T) {
	tests := []struct {
		name       string
		cash       float64
		policy     TellerPolicy
		tellerUsed int
		approved   bool
		reason     string
	}{
		{name: "approved", cash: 1000, policy: TellerPolicy{AutoApproveWithdrawals: true, MaxWithdrawalAmount: 200, MinReserveRatio: 30}, approved: true},
		{name: "over max amount", cash: 1000, policy: TellerPolicy{AutoApproveWithdrawals: true, MaxWithdrawalAmount: 100, MinReserveRatio: 30}, reason: reasonRisky},
		{name: "reserve after below minimum", cash: 400, policy: TellerPolicy{AutoApproveWithdrawals: true, MaxWithdrawalAmount: 200, MinReserveRatio: 30}, reason: reasonRisky},
		{name: "cash short of amount", cash: 100, policy: TellerPolicy{AutoApproveWithdrawals: true, MaxWithdrawalAmount: 200, MinReserveRatio: -100}, reason: reasonRisky},
		{name: "no teller capacity", cash: 1000, policy: TellerPolicy{AutoApproveWithdrawals: true, MaxWithdrawalAmount: 200, MinReserveRatio: 30}, tellerUsed: 10, reason: reasonNoCapacity},
		{name: "auto approval off", cash: 1000, policy: TellerPolicy{MaxWithdrawalAmount: 200, MinReserveRatio: 30}, reason: reasonRisky},
	}
	for _, tc := range tests {
		// Retail walk-in asking for half of min(300, deposits) = 150.
		e := NewEngine(fixedRand{f: 0.5, n: 3}, DefaultBalance())
		st := e.NewState()
		st.Cash = tc.cash
		st.Deposits = 1000
		st.TellerCapacity = 10
		st.TellerUsed = tc.tellerUsed
		st.Automation.Tellers = tc.policy
		st.CustomerQueue = nil

		e.generateCustomer(st)

		if tc.approved {
			if st.Cash != tc.cash-150 || st.Deposits != 850 || len(st.CustomerQueue) != 0 || st.TellerUsed != 1 {
				t.Fatalf("%s: cash=%v deposits=%v queue=%d used=%d", tc.name, st.Cash, st.Deposits, len(st.CustomerQueue), st.TellerUsed)
			}
			continue
		}
		if st.Cash != tc.cash || st.Deposits != 1000 || len(st.CustomerQueue) != 1 {
			t.Fatalf("%s: settled anyway, cash=%v deposits=%v queue=%d", tc.name, st.Cash, st.Deposits, len(st.CustomerQueue))
		}
		req := st.CustomerQueue[0]
		if req.Kind != KindWithdrawal || req.Amount != 150 || req.Segment != SegmentRetail || req.Reason != tc.reason {
			t.Fatalf("%s: queued %+v", tc.name, req)
		}
	}
}

func TestLoanAutoApprovalGates(t *testing.T) {
	allRisks := LoanOfficerPolicy{AutoApproveLowRisk: true, AutoApproveMediumRisk: true, AutoApproveHighRisk: true, MaxLoanAmount: 6000, MinCashBuffer: 1.5}
	noLow := allRisks
	noLow.AutoApproveLowRisk = false
	noHigh := allRisks
	noHigh.AutoApproveHighRisk = false
	lowMax := allRisks
	lowMax.MaxLoanAmount = 3000
	thinBuffer := allRisks
	thinBuffer.MinCashBuffer = 0.5

	tests := []struct {
		name     string
		purpose  int
		officers int
		cash     float64
		policy   LoanOfficerPolicy
		issued   bool
		amount   float64
	}{
		{name: "low risk approved", purpose: 0, officers: 1, cash: 10000, policy: allRisks, issued: true, amount: 3500},
		{name: "no loan officers", purpose: 0, officers: 0, cash: 10000, policy: allRisks, amount: 3500},
		{name: "cash under buffer", purpose: 0, officers: 1, cash: 5000, policy: allRisks, amount: 3500},
		{name: "over max amount", purpose: 0, officers: 1, cash: 10000, policy: lowMax, amount: 3500},
		{name: "low risk flag off", purpose: 0, officers: 1, cash: 10000, policy: noLow, amount: 3500},
		{name: "high risk flag off", purpose: 1, officers: 1, cash: 10000, policy: noHigh, amount: 2100},
		{name: "high risk approved", purpose: 1, officers: 1, cash: 10000, policy: allRisks, issued: true, amount: 2100},
		{name: "buffer below one with short cash", purpose: 0, officers: 1, cash: 3000, policy: thinBuffer, amount: 3500},
		{name: "buffer below one with exact cash", purpose: 0, officers: 1, cash: 3500, policy: thinBuffer, issued: true, amount: 3500},
	}
	for _, tc := range tests {
		// Float64 of 0 draws the low end of the amount band, 0.7 of base.
		e := NewEngine(fixedRand{f: 0, n: tc.purpose}, DefaultBalance())
		st := e.NewState()
		st.Cash = tc.cash
		st.Staff.LoanOfficers = tc.officers
		st.Automation.LoanOfficers = tc.policy
		st.LoanQueue = nil
		st.Loans = nil

		e.generateLoanRequest(st)

		if st.Cash < 0 {
			t.Fatalf("%s: cash went negative: %v", tc.name, st.Cash)
		}
		if tc.issued {
			if len(st.Loans) != 1 || len(st.LoanQueue) != 0 || st.Cash != tc.cash-tc.amount {
				t.Fatalf("%s: loans=%d queue=%d cash=%v", tc.name, len(st.Loans), len(st.LoanQueue), st.Cash)
			}
			if st.Loans[0].Amount != tc.amount || st.Loans[0].PrincipalRemaining != tc.amount {
				t.Fatalf("%s: issued %+v", tc.name, st.Loans[0])
			}
			continue
		}
		if len(st.Loans) != 0 || len(st.LoanQueue) != 1 || st.Cash != tc.cash {
			t.Fatalf("%s: loans=%d queue=%d cash=%v", tc.name, len(st.Loans), len(st.LoanQueue), st.Cash)
		}
		if st.LoanQueue[0].Amount != tc.amount {
			t.Fatalf("%s: queued amount %v", tc.name, st.LoanQueue[0].Amount)
		}
	}
}
