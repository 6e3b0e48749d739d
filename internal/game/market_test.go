package game

import "testing"

func TestMarketShare(t *testing.T) {
	st := quietEngine().NewState()
	tests := []struct {
		name        string
		bank        float64
		competitors []float64
		want        float64
	}{
		{name: "empty market", bank: 0, competitors: []float64{0, 0}, want: 100},
		{name: "even split", bank: 1000, competitors: []float64{500, 500}, want: 50},
		{name: "no deposits yet", bank: 0, competitors: []float64{2000, 3000}, want: 0},
	}
	for _, tc := range tests {
		st.Deposits = tc.bank
		st.Competitors = st.Competitors[:0]
		for _, d := range tc.competitors {
			st.Competitors = append(st.Competitors, Competitor{Deposits: d})
		}
		updateMarketShare(st)
		if st.MarketShare != tc.want {
			t.Fatalf("%s: share=%v want %v", tc.name, st.MarketShare, tc.want)
		}
	}
}

func TestEconomyStaysInBounds(t *testing.T) {
	e := NewEngine(fixedRand{f: 0.999}, DefaultBalance())
	st := e.NewState()
	st.Era = EraDepression
	for i := 0; i < 240; i++ {
		e.updateMarketRates(st)
		e.updateEconomy(st)
		e.updateCompetitors(st)
	}
	ec := st.Economy
	if ec.Inflation < -0.10 || ec.Inflation > 0.15 || ec.Unemployment < 0.02 || ec.Unemployment > 0.25 {
		t.Fatalf("economy out of bounds: %+v", ec)
	}
	if ec.StockIndex < 100 || ec.ConsumerConfidence < 20 || ec.ConsumerConfidence > 100 {
		t.Fatalf("index=%v confidence=%v", ec.StockIndex, ec.ConsumerConfidence)
	}
	for _, c := range st.Competitors {
		if c.DepositRate < 0.005 || c.DepositRate > 0.10 || c.Trust < 50 || c.Trust > 100 {
			t.Fatalf("competitor out of bounds: %+v", c)
		}
	}
}

func TestProductsFollowSegments(t *testing.T) {
	e := quietEngine()
	st := e.NewState()
	st.Date.Year = 1960
	e.unlockProducts(st)
	st.Segments.Retail.Count = 10
	st.Segments.Business.Count = 10
	assignProducts(st)

	byID := map[string]Product{}
	for _, p := range st.Products {
		byID[p.ID] = p
	}
	// retail .6 + business .9 of checking
	if got := byID["checking"].Customers; got != 15 {
		t.Fatalf("checking customers=%d want 15", got)
	}
	if got := byID["onlineBanking"].Customers; got != 0 {
		t.Fatalf("locked product got customers: %d", got)
	}

	cash := st.Cash
	e.collectProductRevenue(st)
	if st.Cash <= cash || st.Statistics.Current.Revenue[RevProductRevenue] != st.Cash-cash {
		t.Fatalf("product revenue not booked")
	}
}

func TestManagersInvestThenHire(t *testing.T) {
	e := quietEngine()
	st := e.NewState()
	st.BankLevel = 3
	st.MaxStaff = StaffCapacity(3)
	st.Staff.Managers = 1
	st.Cash = 12000
	st.Automation.Managers.AutoInvest = true
	st.Automation.Managers.AutoHireStaff = true

	e.runManagers(st)
	// 10% of the 10000 above threshold goes to bonds, then one teller.
	if st.Investments.Bonds != 1000 || st.Staff.Tellers != 1 || st.Cash != 12000-1000-150 {
		t.Fatalf("bonds=%v tellers=%d cash=%v", st.Investments.Bonds, st.Staff.Tellers, st.Cash)
	}
}
