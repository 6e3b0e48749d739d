package game

import "math"

const guardProtection = 25

func techProtection(st *BankState) float64 {
	total := 0.0
	for _, t := range st.Tech[TechSecurity] {
		total += float64(t.Level) * t.Effect
	}
	return total
}

// Protection is the thief-deterrence score: security tech plus guards.
func Protection(st *BankState) float64 {
	return techProtection(st) + float64(st.Staff.Guards*guardProtection)
}

func securityLabel(techPoints float64) string {
	switch {
	case techPoints == 0:
		return "Basic"
	case techPoints < 50:
		return "Low"
	case techPoints < 100:
		return "Medium"
	case techPoints < 200:
		return "High"
	default:
		return "Maximum"
	}
}

func profitMultiplier(st *BankState) float64 {
	m := 1.0
	for _, t := range st.Tech[TechProfit] {
		m += float64(t.Level) * t.Effect
	}
	return m
}

// customerBonus is the extra walk-ins per day from customer tech and tellers.
func customerBonus(st *BankState) float64 {
	bonus := 0.0
	for _, t := range st.Tech[TechCustomer] {
		bonus += float64(t.Level) * t.Effect
	}
	return bonus + float64(st.Staff.Tellers)*0.5
}

func trustRecovery(st *BankState) float64 {
	for _, t := range st.Tech[TechCustomer] {
		if t.ID == "service" {
			return 1 + float64(t.Level)*t.Effect/100
		}
	}
	return 1
}

// recalcDerived refreshes every field computed from tech and staff. Derived
// fields are never trusted from a snapshot.
func recalcDerived(st *BankState) {
	tech := techProtection(st)
	st.SecurityLevel = securityLabel(tech)
	st.SecurityProtection = tech + float64(st.Staff.Guards*guardProtection)
	st.ProfitMultiplier = profitMultiplier(st)
}

func (e *Engine) processThieves(st *BankState) {
	sinceLast := (st.Date.Year - st.LastThiefAttemptYear) * MonthsPerYear
	chance := math.Max(0.01, 0.05-Protection(st)/500)
	if e.rng.Float64() >= chance || sinceLast <= 6 {
		return
	}

	st.LastThiefAttemptYear = st.Date.Year
	skill := e.uniform(50, 150)
	if Protection(st) > skill {
		st.Statistics.Totals.RobberiesPrevented++
		e.logf(st, LogSuccess, "Thieves attempted a robbery but were stopped by security")
		return
	}
	stolen := math.Floor(st.Cash * e.uniform(0.05, 0.20))
	st.Cash = math.Max(0, st.Cash-stolen)
	st.Trust = clamp(st.Trust-15, 0, MaxTrust)
	st.Statistics.Totals.RobberiesSucceeded++
	trackExpense(st, ExpRobberyLosses, stolen)
	e.logf(st, LogDanger, "ROBBERY! Thieves stole $%.0f, customer trust decreased", stolen)
}
