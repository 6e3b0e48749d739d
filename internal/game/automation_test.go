package game

import "testing"

func techLevels(st *BankState) (map[string]int, int) {
	levels := make(map[string]int)
	total := 0
	for _, cat := range TechCategories {
		for _, n := range st.Tech[cat] {
			levels[n.ID] = n.Level
			total += n.Level
		}
	}
	return levels, total
}

// maxAllExcept leaves only the named nodes open for research.
func maxAllExcept(st *BankState, open ...string) {
	keep := make(map[string]bool, len(open))
	for _, id := range open {
		keep[id] = true
	}
	for _, cat := range TechCategories {
		nodes := st.Tech[cat]
		for i := range nodes {
			if !keep[nodes[i].ID] {
				nodes[i].Level = nodes[i].MaxLevel
			}
		}
	}
}

func TestManagerTechAutoUpgrade(t *testing.T) {
	tests := []struct {
		name     string
		managers int
		enabled  bool
		year     int
		cash     float64
		open     []string
		want     string
		wantCash float64
	}{
		{name: "cheapest node", managers: 1, enabled: true, year: 1920, cash: 5000, want: "service", wantCash: 4700},
		{name: "exactly twice the cost", managers: 1, enabled: true, year: 1920, cash: 600, want: "service", wantCash: 300},
		{name: "under twice the cost", managers: 1, enabled: true, year: 1920, cash: 500},
		{name: "one upgrade per pass", managers: 1, enabled: true, year: 2020, cash: 1_000_000, want: "service", wantCash: 999_700},
		{name: "next cheapest once maxed", managers: 1, enabled: true, year: 1920, cash: 800, open: []string{"accounting", "vault1"}, want: "accounting", wantCash: 400},
		{name: "node before its year", managers: 1, enabled: true, year: 1949, cash: 100_000, open: []string{"cameras"}},
		{name: "node in its year", managers: 1, enabled: true, year: 1950, cash: 100_000, open: []string{"cameras"}, want: "cameras", wantCash: 97_000},
		{name: "no managers", managers: 0, enabled: true, year: 1920, cash: 5000},
		{name: "auto upgrade off", managers: 1, enabled: false, year: 1920, cash: 5000},
	}
	for _, tc := range tests {
		e := quietEngine()
		st := e.NewState()
		st.Date.Year = tc.year
		st.Cash = tc.cash
		st.Staff.Managers = tc.managers
		st.Automation.Managers = ManagerPolicy{AutoUpgradeTech: tc.enabled, PreferredInvestment: BucketBonds}
		if tc.open != nil {
			maxAllExcept(st, tc.open...)
		}
		before, beforeTotal := techLevels(st)

		e.runManagers(st)

		after, afterTotal := techLevels(st)
		if tc.want == "" {
			if afterTotal != beforeTotal || st.Cash != tc.cash {
				t.Fatalf("%s: upgraded anyway, levels %d->%d cash=%v", tc.name, beforeTotal, afterTotal, st.Cash)
			}
			continue
		}
		if afterTotal != beforeTotal+1 || after[tc.want] != before[tc.want]+1 {
			t.Fatalf("%s: want one level on %s, levels %d->%d %s=%d", tc.name, tc.want, beforeTotal, afterTotal, tc.want, after[tc.want])
		}
		if st.Cash != tc.wantCash {
			t.Fatalf("%s: cash=%v want %v", tc.name, st.Cash, tc.wantCash)
		}
	}
}
