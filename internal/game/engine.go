package game

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Rand is the randomness the engine draws from. *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Balance holds the tunables that are not part of the game rules proper.
type Balance struct {
	StartYear            int     `yaml:"start_year" json:"start_year"`
	StartCash            float64 `yaml:"start_cash" json:"start_cash"`
	CustomerTimeoutTicks int     `yaml:"customer_timeout_ticks" json:"customer_timeout_ticks"`
	LoanTimeoutTicks     int     `yaml:"loan_timeout_ticks" json:"loan_timeout_ticks"`
	EventTimeoutTicks    int     `yaml:"event_timeout_ticks" json:"event_timeout_ticks"`
	LogSize              int     `yaml:"log_size" json:"log_size"`
	HistoryCap           int     `yaml:"history_cap" json:"history_cap"`
}

func DefaultBalance() Balance {
	return Balance{
		StartYear:            StartYear,
		StartCash:            StartCash,
		CustomerTimeoutTicks: 1,
		LoanTimeoutTicks:     2,
		EventTimeoutTicks:    DaysPerMonth,
		LogSize:              50,
		HistoryCap:           HistoryCap,
	}
}

// Normalized fills zero fields from DefaultBalance.
func (b Balance) Normalized() Balance {
	def := DefaultBalance()
	if b.StartYear <= 0 {
		b.StartYear = def.StartYear
	}
	if b.StartCash <= 0 {
		b.StartCash = def.StartCash
	}
	if b.CustomerTimeoutTicks <= 0 {
		b.CustomerTimeoutTicks = def.CustomerTimeoutTicks
	}
	if b.LoanTimeoutTicks <= 0 {
		b.LoanTimeoutTicks = def.LoanTimeoutTicks
	}
	if b.EventTimeoutTicks <= 0 {
		b.EventTimeoutTicks = def.EventTimeoutTicks
	}
	if b.LogSize <= 0 {
		b.LogSize = def.LogSize
	}
	if b.HistoryCap <= 0 {
		b.HistoryCap = def.HistoryCap
	}
	return b
}

// Engine runs the simulation rules against a BankState it does not own.
// It is not safe for concurrent use; Service serializes access.
type Engine struct {
	rng   Rand
	bal   Balance
	newID func() string
}

func NewEngine(rng Rand, bal Balance) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{rng: rng, bal: bal.Normalized(), newID: uuid.NewString}
}

func (e *Engine) Balance() Balance { return e.bal }

func (e *Engine) NewState() *BankState {
	bal := e.bal
	st := &BankState{
		Date:         Date{Year: bal.StartYear, Month: 1, Day: 1},
		Era:          EraFor(bal.StartYear),
		Cash:         bal.StartCash,
		Trust:        MaxTrust,
		DepositRate:  0.02,
		LoanBaseRate: 0.06,
		MarketRates:  Rates{Deposit: 0.02, Loan: 0.06},
		MaxStaff:     StaffCapacity(1),
		BankLevel:    1,
		Tech:         defaultTech(),
		Automation:   DefaultAutomation(),
		Statistics: Statistics{
			Current: newMonthAccumulator(),
			Monthly: NewRing[MonthlyPnL](bal.HistoryCap),
			History: NewRing[HistoryPoint](bal.HistoryCap),
		},
		Economy: Economy{
			Inflation:          0.02,
			Unemployment:       0.05,
			GDPGrowth:          0.03,
			StockIndex:         1000,
			ConsumerConfidence: 70,
		},
		MarketShare:      100,
		Products:         defaultProducts(),
		HistoricalCrises: map[string]bool{},
		Objectives:       defaultObjectives(),
	}
	st.Segments.Retail.Satisfaction = 100
	st.Segments.Business.Satisfaction = 100
	st.Segments.VIP.Satisfaction = 100
	for _, def := range crisisEvents {
		st.HistoricalCrises[def.id] = false
	}
	e.initCompetitors(st)
	e.unlockProducts(st)
	recalcDerived(st)
	return st
}

// TickReport summarizes what one tick did, for callers that persist,
// record or notify.
type TickReport struct {
	Tick                int           `json:"tick"`
	Date                Date          `json:"date"`
	MonthRolled         bool          `json:"month_rolled"`
	YearRolled          bool          `json:"year_rolled"`
	MonthClosed         *MonthlyPnL   `json:"month_closed,omitempty"`
	EventTriggered      *ActiveEvent  `json:"event_triggered,omitempty"`
	EventsResolved      []EventRecord `json:"events_resolved,omitempty"`
	ObjectivesCompleted []Objective   `json:"objectives_completed,omitempty"`
	ExpiredCustomers    int           `json:"expired_customers"`
	ExpiredLoans        int           `json:"expired_loans"`
}

// Tick advances the simulation by one day. The order of the steps below is
// part of the game rules.
func (e *Engine) Tick(st *BankState) TickReport {
	st.Tick++
	rep := TickReport{Tick: st.Tick}

	rep.ExpiredCustomers, rep.ExpiredLoans = e.expireRequests(st)
	if rec, ok := e.expireEvent(st); ok {
		rep.EventsResolved = append(rep.EventsResolved, rec)
	}

	rep.MonthRolled, rep.YearRolled = e.advanceDay(st)
	if rep.MonthRolled {
		e.runMonth(st, &rep)
	}

	e.generateCustomers(st)
	e.generateLoans(st)
	e.dailyCustomerEvents(st)

	st.clampInvariants()
	recalcDerived(st)
	rep.Date = st.Date
	return rep
}

func (e *Engine) advanceDay(st *BankState) (monthRolled, yearRolled bool) {
	st.Date.Day++
	st.TellerUsed = 0
	st.TellerCapacity = st.Staff.Tellers * 10

	if st.Date.Day <= DaysPerMonth {
		return false, false
	}
	st.Date.Day = 1
	st.Date.Month++
	if st.Date.Month > MonthsPerYear {
		st.Date.Month = 1
		st.Date.Year++
		st.Era = EraFor(st.Date.Year)
		yearRolled = true
	}
	return true, yearRolled
}

// closingDate is the month that just ended when the calendar rolls.
func closingDate(d Date) Date {
	if d.Month == 1 {
		return Date{Year: d.Year - 1, Month: MonthsPerYear, Day: DaysPerMonth}
	}
	return Date{Year: d.Year, Month: d.Month - 1, Day: DaysPerMonth}
}

func (e *Engine) runMonth(st *BankState, rep *TickReport) {
	closing := closingDate(st.Date)

	recordHistory(st, closing)
	e.payDepositInterest(st)
	e.serviceLoans(st)
	e.collectInvestments(st)
	e.runManagers(st)
	e.processThieves(st)
	e.payWages(st)
	e.updateMarketRates(st)
	e.updateEconomy(st)
	e.updateCompetitors(st)
	e.unlockProducts(st)
	assignProducts(st)
	e.collectProductRevenue(st)

	pnl := closeMonth(st, closing)
	rep.MonthClosed = &pnl

	if preempted, ok := e.processEvents(st); ok {
		rep.EventsResolved = append(rep.EventsResolved, preempted)
	}
	if st.ActiveEvent != nil && st.ActiveEvent.TriggeredTick == st.Tick {
		ev := *st.ActiveEvent
		rep.EventTriggered = &ev
	}
	rep.ObjectivesCompleted = e.evaluateObjectives(st)
	st.clampInvariants()
}

// expireRequests routes every request older than its timeout through the
// normal deny path.
func (e *Engine) expireRequests(st *BankState) (customers, loans int) {
	var stale []string
	for _, req := range st.CustomerQueue {
		if st.Tick-req.CreatedAtTick >= e.bal.CustomerTimeoutTicks {
			stale = append(stale, req.ID)
		}
	}
	for _, id := range stale {
		if e.denyCustomer(st, id, true) == nil {
			customers++
		}
	}

	stale = stale[:0]
	for _, req := range st.LoanQueue {
		if st.Tick-req.CreatedAtTick >= e.bal.LoanTimeoutTicks {
			stale = append(stale, req.ID)
		}
	}
	for _, id := range stale {
		if e.denyLoan(st, id, true) == nil {
			loans++
		}
	}
	return customers, loans
}

func (e *Engine) expireEvent(st *BankState) (EventRecord, bool) {
	ev := st.ActiveEvent
	if ev == nil || st.Tick-ev.TriggeredTick < e.bal.EventTimeoutTicks {
		return EventRecord{}, false
	}
	rec, err := e.resolveEvent(st, ev.DefaultChoice, true)
	if err != nil {
		return EventRecord{}, false
	}
	return rec, true
}

func (e *Engine) logf(st *BankState, kind LogKind, format string, args ...any) {
	st.Log = append(st.Log, LogEntry{
		Tick:    st.Tick,
		Date:    st.Date.String(),
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	})
	if over := len(st.Log) - e.bal.LogSize; over > 0 {
		st.Log = append([]LogEntry(nil), st.Log[over:]...)
	}
}

// uniform returns a draw in [lo, hi).
func (e *Engine) uniform(lo, hi float64) float64 {
	return lo + e.rng.Float64()*(hi-lo)
}

// noise returns a draw in [-width/2, width/2).
func (e *Engine) noise(width float64) float64 {
	return (e.rng.Float64() - 0.5) * width
}
