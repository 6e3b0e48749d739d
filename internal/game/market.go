package game

import "math"

func (e *Engine) initCompetitors(st *BankState) {
	st.Competitors = st.Competitors[:0]
	for i := 0; i < 2; i++ {
		st.Competitors = append(st.Competitors, Competitor{
			Name:        competitorNames[i],
			Deposits:    math.Floor(e.uniform(2000, 5000)),
			DepositRate: 0.02 + e.noise(0.005),
			LoanRate:    0.06 + e.noise(0.01),
			Customers:   20 + e.rng.Intn(30),
			Trust:       float64(70 + e.rng.Intn(20)),
		})
	}
	updateMarketShare(st)
}

// updateMarketShare recomputes the bank's and every competitor's share of
// total deposits. An empty market belongs entirely to the bank.
func updateMarketShare(st *BankState) {
	total := st.Deposits
	for _, c := range st.Competitors {
		total += c.Deposits
	}
	if total <= 0 {
		st.MarketShare = 100
		for i := range st.Competitors {
			st.Competitors[i].MarketShare = 0
		}
		return
	}
	st.MarketShare = st.Deposits / total * 100
	for i := range st.Competitors {
		st.Competitors[i].MarketShare = st.Competitors[i].Deposits / total * 100
	}
}

func (e *Engine) updateMarketRates(st *BankState) {
	base, ok := eraRates[st.Era]
	if !ok {
		base = Rates{Deposit: 0.02, Loan: 0.06}
	}
	st.MarketRates.Deposit = base.Deposit + e.noise(0.005)
	st.MarketRates.Loan = base.Loan + e.noise(0.005)
}

// updateEconomy drifts each indicator 5% toward the era target, then feeds
// inflation into market rates.
func (e *Engine) updateEconomy(st *BankState) {
	target, ok := eraTargets[st.Era]
	if !ok {
		target = Economy{Inflation: 0.02, Unemployment: 0.05, GDPGrowth: 0.03}
	}
	ec := &st.Economy

	ec.Inflation += (target.Inflation-ec.Inflation)*0.05 + e.noise(0.01)
	ec.Unemployment += (target.Unemployment-ec.Unemployment)*0.05 + e.noise(0.005)
	ec.GDPGrowth += (target.GDPGrowth-ec.GDPGrowth)*0.05 + e.noise(0.01)

	ec.Inflation = clamp(ec.Inflation, -0.10, 0.15)
	ec.Unemployment = clamp(ec.Unemployment, 0.02, 0.25)
	ec.GDPGrowth = clamp(ec.GDPGrowth, -0.10, 0.10)

	ec.StockIndex *= 1 + ec.GDPGrowth/12 + e.noise(0.05)
	ec.StockIndex = math.Max(100, ec.StockIndex)

	confidence := 70 + ec.GDPGrowth*500 - ec.Unemployment*200
	ec.ConsumerConfidence += (confidence - ec.ConsumerConfidence) * 0.1
	ec.ConsumerConfidence = clamp(ec.ConsumerConfidence, 20, 100)

	st.MarketRates.Deposit += ec.Inflation * 0.5
	st.MarketRates.Loan += ec.Inflation * 0.3
}

func (e *Engine) updateCompetitors(st *BankState) {
	for i := range st.Competitors {
		c := &st.Competitors[i]
		c.DepositRate += (st.MarketRates.Deposit-c.DepositRate)*0.1 + e.noise(0.002)
		c.LoanRate += (st.MarketRates.Loan-c.LoanRate)*0.1 + e.noise(0.002)
		c.DepositRate = clamp(c.DepositRate, 0.005, 0.10)
		c.LoanRate = clamp(c.LoanRate, 0.03, 0.15)

		growth := 1 + st.Economy.GDPGrowth + e.noise(0.02)
		c.Deposits *= growth
		c.Customers = int(math.Floor(float64(c.Customers) * growth))

		c.Trust = clamp(c.Trust+e.noise(3), 50, 100)
	}
	updateMarketShare(st)
}

func (e *Engine) unlockProducts(st *BankState) {
	for i := range st.Products {
		p := &st.Products[i]
		if !p.Unlocked && st.Date.Year >= p.MinYear {
			p.Unlocked = true
			e.logf(st, LogSuccess, "NEW PRODUCT: %s now available", p.Name)
		}
	}
}

// assignProducts rebuilds product membership from the segment head counts.
func assignProducts(st *BankState) {
	index := make(map[string]*Product, len(st.Products))
	for i := range st.Products {
		st.Products[i].Customers = 0
		index[st.Products[i].ID] = &st.Products[i]
	}
	for _, seg := range []Segment{SegmentRetail, SegmentBusiness, SegmentVIP} {
		count := float64(st.Segments.get(seg).Count)
		for _, up := range productUptake[seg] {
			if p, ok := index[up.product]; ok && p.Unlocked {
				p.Customers += int(math.Floor(count * up.share))
			}
		}
	}
}

func (e *Engine) collectProductRevenue(st *BankState) {
	total := 0.0
	for _, p := range st.Products {
		if p.Unlocked && p.Customers > 0 {
			total += float64(p.Customers) * p.Margin * 100
		}
	}
	if total <= 0 {
		return
	}
	st.Cash += total
	st.TotalProfit += total
	trackRevenue(st, RevProductRevenue, total)
	e.logf(st, LogSuccess, "Product revenue: +$%.0f", total)
}

func UnlockedProducts(st *BankState) int {
	n := 0
	for _, p := range st.Products {
		if p.Unlocked {
			n++
		}
	}
	return n
}
