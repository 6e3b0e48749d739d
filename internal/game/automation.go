package game

import "math"

// runManagers is the monthly manager pass. It needs at least one manager and
// runs invest, then tech, then hiring, each at most once.
func (e *Engine) runManagers(st *BankState) {
	if st.Staff.Managers <= 0 {
		return
	}
	policy := st.Automation.Managers

	if policy.AutoInvest && st.Cash > policy.AutoInvestThreshold {
		amount := math.Floor((st.Cash - policy.AutoInvestThreshold) * policy.AutoInvestPercentage / 100)
		if slot := st.Investments.bucket(policy.PreferredInvestment); slot != nil && amount > 0 {
			st.Cash -= amount
			*slot += amount
			e.logf(st, LogInfo, "Managers auto-invested $%.0f in %s", amount, policy.PreferredInvestment)
		}
	}

	if policy.AutoUpgradeTech {
		if cat, node := cheapestAffordableTech(st); node != nil && st.Cash >= node.NextCost()*2 {
			e.buyTech(st, cat, node)
		}
	}

	if policy.AutoHireStaff {
		for _, role := range Roles {
			if st.Staff.Count(role) >= st.MaxStaff.Count(role) {
				continue
			}
			if st.Cash >= HireCost(role)*5 {
				e.hire(st, role)
				e.logf(st, LogInfo, "Managers auto-hired one of %s", role)
				break
			}
		}
	}
}

// cheapestAffordableTech scans categories in declaration order; ties keep
// the first node found.
func cheapestAffordableTech(st *BankState) (TechCategory, *TechNode) {
	var (
		bestCat  TechCategory
		best     *TechNode
		bestCost = math.Inf(1)
	)
	for _, cat := range TechCategories {
		nodes := st.Tech[cat]
		for i := range nodes {
			n := &nodes[i]
			if !n.Available(st.Date.Year) || n.Maxed() {
				continue
			}
			cost := n.NextCost()
			if cost < bestCost && st.Cash >= cost {
				bestCat, best, bestCost = cat, n, cost
			}
		}
	}
	return bestCat, best
}

// cheapestUpgrade ignores affordability and era; crisis choices use it.
func cheapestUpgrade(st *BankState) *TechNode {
	var best *TechNode
	for _, cat := range TechCategories {
		nodes := st.Tech[cat]
		for i := range nodes {
			n := &nodes[i]
			if n.Maxed() {
				continue
			}
			if best == nil || n.Cost < best.Cost {
				best = n
			}
		}
	}
	return best
}

func (e *Engine) buyTech(st *BankState, cat TechCategory, node *TechNode) {
	cost := node.NextCost()
	st.Cash -= cost
	node.Level++
	trackExpense(st, ExpTechUpgrades, cost)
	recalcDerived(st)
	e.logf(st, LogSuccess, "Researched %s (%s, level %d)", node.Name, cat, node.Level)
}

func (e *Engine) hire(st *BankState, role Role) {
	cost := HireCost(role)
	st.Cash -= cost
	*st.Staff.ptr(role)++
	trackExpense(st, ExpOperationalCosts, cost)
	recalcDerived(st)
}
