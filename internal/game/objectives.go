package game

import "math"

// evaluateObjectives advances the streak counters once for the month and
// pays out every objective reached for the first time.
func (e *Engine) evaluateObjectives(st *BankState) []Objective {
	if Competitive(st) {
		st.CompetitiveStreak++
	} else {
		st.CompetitiveStreak = 0
	}

	var done []Objective
	for i := range st.Objectives {
		o := &st.Objectives[i]
		if o.Completed {
			continue
		}
		if o.Kind == ObjTrustStreak {
			if st.Trust >= MaxTrust {
				o.Counter++
			} else {
				o.Counter = 0
			}
		}
		if ObjectiveProgress(st, *o) < 1 {
			continue
		}
		o.Completed = true
		st.Cash += o.Reward
		trackRevenue(st, RevObjectiveRewards, o.Reward)
		e.logf(st, LogSuccess, "OBJECTIVE COMPLETE: %s (+$%.0f)", o.Name, o.Reward)
		done = append(done, *o)
	}
	return done
}

// ObjectiveProgress is how far along o is, in [0, 1].
func ObjectiveProgress(st *BankState, o Objective) float64 {
	if o.Completed {
		return 1
	}
	var current float64
	switch o.Kind {
	case ObjCash:
		current = st.Cash
	case ObjYear:
		current = float64(st.Date.Year)
	case ObjProfit:
		current = st.TotalProfit
	case ObjAccounts:
		current = float64(st.ActiveAccounts)
	case ObjSecurityMax:
		current = boolProgress(allMaxed(st, TechSecurity))
	case ObjProfitTechMax:
		current = boolProgress(allMaxed(st, TechProfit))
	case ObjAllTechMax:
		ok := true
		for _, cat := range TechCategories {
			ok = ok && allMaxed(st, cat)
		}
		current = boolProgress(ok)
	case ObjNoDefaults:
		if st.Statistics.Totals.LoanDefaults > 0 {
			return 0
		}
		current = float64(st.Statistics.Totals.LoansIssued)
	case ObjTrustStreak:
		current = float64(o.Counter)
	case ObjMarketShare:
		current = st.MarketShare
	case ObjEvents:
		current = float64(st.EventsResolved)
	case ObjVIPCustomers:
		current = float64(st.Segments.VIP.Count)
	case ObjBranches:
		n, err := st.FindTech(TechCustomer, "branches")
		current = boolProgress(err == nil && n.Maxed())
	case ObjProducts:
		current = float64(UnlockedProducts(st))
	case ObjCompetitiveRates:
		current = float64(st.CompetitiveStreak)
	case ObjAutomation:
		current = boolProgress(st.Automation.AllEnabled())
	}
	if o.Target <= 0 {
		return 1
	}
	return clamp(current/o.Target, 0, 1)
}

func allMaxed(st *BankState, cat TechCategory) bool {
	nodes := st.Tech[cat]
	if len(nodes) == 0 {
		return false
	}
	for _, n := range nodes {
		if !n.Maxed() {
			return false
		}
	}
	return true
}

func boolProgress(ok bool) float64 {
	if ok {
		return 1
	}
	return 0
}

// VisibleObjectives hides locked secret objectives until they complete.
func VisibleObjectives(st *BankState) []Objective {
	out := make([]Objective, 0, len(st.Objectives))
	for _, o := range st.Objectives {
		if o.Hidden && !o.Completed {
			continue
		}
		out = append(out, o)
	}
	return out
}

// NextObjective is the incomplete visible objective closest to done.
func NextObjective(st *BankState) (Objective, bool) {
	best, found := Objective{}, false
	bestProgress := math.Inf(-1)
	for _, o := range VisibleObjectives(st) {
		if o.Completed {
			continue
		}
		if p := ObjectiveProgress(st, o); p > bestProgress {
			best, bestProgress, found = o, p, true
		}
	}
	return best, found
}
