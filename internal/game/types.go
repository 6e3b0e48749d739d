package game

import "fmt"

var monthNames = [...]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

func (d Date) String() string {
	if d.Month < 1 || d.Month > MonthsPerYear {
		return fmt.Sprintf("%d", d.Year)
	}
	return fmt.Sprintf("%s %d", monthNames[d.Month-1], d.Year)
}

func MonthName(month int) string {
	if month < 1 || month > MonthsPerYear {
		return ""
	}
	return monthNames[month-1]
}

type Investments struct {
	Bonds       float64 `json:"bonds"`
	Stocks      float64 `json:"stocks"`
	Speculative float64 `json:"speculative"`
}

func (i Investments) Total() float64 {
	return i.Bonds + i.Stocks + i.Speculative
}

func (i *Investments) bucket(b Bucket) *float64 {
	switch b {
	case BucketBonds:
		return &i.Bonds
	case BucketStocks:
		return &i.Stocks
	case BucketSpeculative:
		return &i.Speculative
	}
	return nil
}

type SegmentStats struct {
	Count        int     `json:"count"`
	Deposits     float64 `json:"deposits"`
	Satisfaction float64 `json:"satisfaction"`
}

type Segments struct {
	Retail   SegmentStats `json:"retail"`
	Business SegmentStats `json:"business"`
	VIP      SegmentStats `json:"vip"`
}

func (s *Segments) get(seg Segment) *SegmentStats {
	switch seg {
	case SegmentBusiness:
		return &s.Business
	case SegmentVIP:
		return &s.VIP
	default:
		return &s.Retail
	}
}

type Staff struct {
	Tellers      int `json:"tellers"`
	Guards       int `json:"guards"`
	Managers     int `json:"managers"`
	LoanOfficers int `json:"loan_officers"`
}

func (s Staff) Count(role Role) int {
	if p := s.ptr(role); p != nil {
		return *p
	}
	return 0
}

func (s Staff) Total() int {
	return s.Tellers + s.Guards + s.Managers + s.LoanOfficers
}

// MonthlyWages is the payroll owed at month end.
func (s Staff) MonthlyWages() float64 {
	total := 0.0
	for _, r := range Roles {
		total += float64(s.Count(r)) * Wage(r)
	}
	return total
}

func (s *Staff) ptr(role Role) *int {
	switch role {
	case RoleTellers:
		return &s.Tellers
	case RoleGuards:
		return &s.Guards
	case RoleManagers:
		return &s.Managers
	case RoleLoanOfficers:
		return &s.LoanOfficers
	}
	return nil
}

type Rates struct {
	Deposit float64 `json:"deposit"`
	Loan    float64 `json:"loan"`
}

type TechCategory string

const (
	TechSecurity   TechCategory = "security"
	TechProfit     TechCategory = "profit"
	TechCustomer   TechCategory = "customer"
	TechEfficiency TechCategory = "efficiency"
)

var TechCategories = []TechCategory{TechSecurity, TechProfit, TechCustomer, TechEfficiency}

func ParseTechCategory(s string) (TechCategory, error) {
	for _, c := range TechCategories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: category %q", ErrTechNotFound, s)
}

// TechNode effect is protection points for security, a multiplier bonus for
// profit and a benefit magnitude for customer and efficiency.
type TechNode struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Cost     float64 `json:"cost"`
	Level    int     `json:"level"`
	MaxLevel int     `json:"max_level"`
	MinYear  int     `json:"min_year,omitempty"`
	Effect   float64 `json:"effect"`
}

func (t TechNode) Maxed() bool { return t.Level >= t.MaxLevel }

// NextCost is the price of the next level.
func (t TechNode) NextCost() float64 { return t.Cost * float64(t.Level+1) }

func (t TechNode) Available(year int) bool { return year >= t.MinYear }

type PendingRequest struct {
	ID            string      `json:"id"`
	Kind          RequestKind `json:"kind"`
	Amount        float64     `json:"amount"`
	Segment       Segment     `json:"segment"`
	Reason        string      `json:"reason"`
	CreatedAtTick int         `json:"created_at_tick"`
}

type LoanRequest struct {
	ID                 string  `json:"id"`
	Purpose            string  `json:"purpose"`
	Risk               Risk    `json:"risk"`
	Amount             float64 `json:"amount"`
	Rate               float64 `json:"rate"`
	TermMonths         int     `json:"term_months"`
	DefaultProbability float64 `json:"default_probability"`
	CreatedAtTick      int     `json:"created_at_tick"`
	RequestDate        string  `json:"request_date"`
}

type ActiveLoan struct {
	LoanRequest
	MonthlyPayment     float64 `json:"monthly_payment"`
	PrincipalRemaining float64 `json:"principal_remaining"`
	TotalPaid          float64 `json:"total_paid"`
	TermRemaining      int     `json:"term_remaining"`
	IssueDate          string  `json:"issue_date"`
}

type TellerPolicy struct {
	AutoApproveDeposits    bool    `json:"auto_approve_deposits"`
	AutoApproveWithdrawals bool    `json:"auto_approve_withdrawals"`
	MaxWithdrawalAmount    float64 `json:"max_withdrawal_amount"`
	MinReserveRatio        float64 `json:"min_reserve_ratio"`
}

type LoanOfficerPolicy struct {
	AutoApproveLowRisk    bool    `json:"auto_approve_low_risk"`
	AutoApproveMediumRisk bool    `json:"auto_approve_medium_risk"`
	AutoApproveHighRisk   bool    `json:"auto_approve_high_risk"`
	MaxLoanAmount         float64 `json:"max_loan_amount"`
	MinCashBuffer         float64 `json:"min_cash_buffer"`
}

func (p LoanOfficerPolicy) allows(r Risk) bool {
	switch r {
	case RiskLow:
		return p.AutoApproveLowRisk
	case RiskMedium:
		return p.AutoApproveMediumRisk
	case RiskHigh:
		return p.AutoApproveHighRisk
	}
	return false
}

type ManagerPolicy struct {
	AutoInvest           bool    `json:"auto_invest"`
	AutoInvestThreshold  float64 `json:"auto_invest_threshold"`
	AutoInvestPercentage float64 `json:"auto_invest_percentage"`
	PreferredInvestment  Bucket  `json:"preferred_investment"`
	AutoUpgradeTech      bool    `json:"auto_upgrade_tech"`
	AutoHireStaff        bool    `json:"auto_hire_staff"`
}

type AutomationConfig struct {
	Tellers      TellerPolicy      `json:"tellers"`
	LoanOfficers LoanOfficerPolicy `json:"loan_officers"`
	Managers     ManagerPolicy     `json:"managers"`
}

func DefaultAutomation() AutomationConfig {
	return AutomationConfig{
		Tellers: TellerPolicy{
			AutoApproveDeposits:    true,
			AutoApproveWithdrawals: true,
			MaxWithdrawalAmount:    200,
			MinReserveRatio:        30,
		},
		LoanOfficers: LoanOfficerPolicy{
			AutoApproveLowRisk: true,
			MaxLoanAmount:      5000,
			MinCashBuffer:      1.5,
		},
		Managers: ManagerPolicy{
			AutoInvestThreshold:  2000,
			AutoInvestPercentage: 10,
			PreferredInvestment:  BucketBonds,
		},
	}
}

// AllEnabled reports whether every boolean switch is on.
func (a AutomationConfig) AllEnabled() bool {
	return a.Tellers.AutoApproveDeposits && a.Tellers.AutoApproveWithdrawals &&
		a.LoanOfficers.AutoApproveLowRisk && a.LoanOfficers.AutoApproveMediumRisk && a.LoanOfficers.AutoApproveHighRisk &&
		a.Managers.AutoInvest && a.Managers.AutoUpgradeTech && a.Managers.AutoHireStaff
}

type Economy struct {
	Inflation          float64 `json:"inflation"`
	Unemployment       float64 `json:"unemployment"`
	GDPGrowth          float64 `json:"gdp_growth"`
	StockIndex         float64 `json:"stock_index"`
	ConsumerConfidence float64 `json:"consumer_confidence"`
}

type Competitor struct {
	Name        string  `json:"name"`
	Deposits    float64 `json:"deposits"`
	DepositRate float64 `json:"deposit_rate"`
	LoanRate    float64 `json:"loan_rate"`
	Customers   int     `json:"customers"`
	Trust       float64 `json:"trust"`
	MarketShare float64 `json:"market_share"`
}

type Product struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	MinYear   int     `json:"min_year"`
	Margin    float64 `json:"margin"`
	Unlocked  bool    `json:"unlocked"`
	Customers int     `json:"customers"`
}

type ActiveEvent struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Choices       []string `json:"choices"`
	DefaultChoice int      `json:"default_choice"`
	Crisis        bool     `json:"crisis"`
	TriggeredTick int      `json:"triggered_tick"`
}

type EventRecord struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Choice   string `json:"choice"`
	Outcome  string `json:"outcome"`
	Date     string `json:"date"`
	TimedOut bool   `json:"timed_out,omitempty"`
}

type ObjectiveKind string

const (
	ObjCash             ObjectiveKind = "cash"
	ObjYear             ObjectiveKind = "year"
	ObjProfit           ObjectiveKind = "profit"
	ObjAccounts         ObjectiveKind = "accounts"
	ObjSecurityMax      ObjectiveKind = "security"
	ObjProfitTechMax    ObjectiveKind = "profit_tech"
	ObjAllTechMax       ObjectiveKind = "all_tech"
	ObjNoDefaults       ObjectiveKind = "no_defaults"
	ObjTrustStreak      ObjectiveKind = "trust"
	ObjMarketShare      ObjectiveKind = "market_share"
	ObjEvents           ObjectiveKind = "events"
	ObjVIPCustomers     ObjectiveKind = "vip_customers"
	ObjBranches         ObjectiveKind = "branches"
	ObjProducts         ObjectiveKind = "products"
	ObjCompetitiveRates ObjectiveKind = "competitive_rates"
	ObjAutomation       ObjectiveKind = "automation"
)

type Objective struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Kind        ObjectiveKind `json:"kind"`
	Target      float64       `json:"target"`
	Reward      float64       `json:"reward"`
	Hidden      bool          `json:"hidden"`
	Completed   bool          `json:"completed"`
	Counter     int           `json:"counter,omitempty"`
}

type LogKind string

const (
	LogInfo    LogKind = "info"
	LogSuccess LogKind = "success"
	LogWarning LogKind = "warning"
	LogDanger  LogKind = "danger"
)

type LogEntry struct {
	Tick    int     `json:"tick"`
	Date    string  `json:"date"`
	Kind    LogKind `json:"kind"`
	Message string  `json:"message"`
}

type MonthAccumulator struct {
	Revenue      map[string]float64 `json:"revenue"`
	Expenses     map[string]float64 `json:"expenses"`
	RevenueTotal float64            `json:"revenue_total"`
	ExpenseTotal float64            `json:"expense_total"`
	LoansIssued  int                `json:"loans_issued"`
	LoanDefaults int                `json:"loan_defaults"`
}

func newMonthAccumulator() MonthAccumulator {
	return MonthAccumulator{Revenue: map[string]float64{}, Expenses: map[string]float64{}}
}

type MonthlyPnL struct {
	Year         int                `json:"year"`
	Month        int                `json:"month"`
	Revenue      map[string]float64 `json:"revenue"`
	Expenses     map[string]float64 `json:"expenses"`
	RevenueTotal float64            `json:"revenue_total"`
	ExpenseTotal float64            `json:"expense_total"`
	NetIncome    float64            `json:"net_income"`
	LoansIssued  int                `json:"loans_issued"`
	LoanDefaults int                `json:"loan_defaults"`
}

type HistoryPoint struct {
	Year         int     `json:"year"`
	Month        int     `json:"month"`
	Cash         float64 `json:"cash"`
	Deposits     float64 `json:"deposits"`
	Profit       float64 `json:"profit"`
	Accounts     int     `json:"accounts"`
	Trust        float64 `json:"trust"`
	MarketShare  float64 `json:"market_share"`
	ReserveRatio float64 `json:"reserve_ratio"`
}

type Totals struct {
	CustomersServed      int     `json:"customers_served"`
	DepositsProcessed    int     `json:"deposits_processed"`
	WithdrawalsProcessed int     `json:"withdrawals_processed"`
	LoansIssued          int     `json:"loans_issued"`
	LoanDefaults         int     `json:"loan_defaults"`
	RobberiesPrevented   int     `json:"robberies_prevented"`
	RobberiesSucceeded   int     `json:"robberies_succeeded"`
	RevenueAllTime       float64 `json:"revenue_all_time"`
	ExpensesAllTime      float64 `json:"expenses_all_time"`
	ProfitAllTime        float64 `json:"profit_all_time"`
}

type Statistics struct {
	Current MonthAccumulator    `json:"current"`
	Monthly *Ring[MonthlyPnL]   `json:"monthly"`
	History *Ring[HistoryPoint] `json:"history"`
	Totals  Totals              `json:"totals"`
}

// BankState is the whole game. The engine mutates it in place; nothing else
// holds references into it.
type BankState struct {
	Tick int  `json:"tick"`
	Date Date `json:"date"`
	Era  Era  `json:"era"`

	Cash           float64     `json:"cash"`
	Deposits       float64     `json:"deposits"`
	Investments    Investments `json:"investments"`
	TotalProfit    float64     `json:"total_profit"`
	ActiveAccounts int         `json:"active_accounts"`
	Trust          float64     `json:"trust"`
	Segments       Segments    `json:"segments"`

	DepositRate  float64 `json:"deposit_rate"`
	LoanBaseRate float64 `json:"loan_base_rate"`
	MarketRates  Rates   `json:"market_rates"`

	Staff     Staff `json:"staff"`
	MaxStaff  Staff `json:"max_staff"`
	BankLevel int   `json:"bank_level"`

	Tech               map[TechCategory][]TechNode `json:"tech"`
	SecurityLevel      string                      `json:"security_level"`
	SecurityProtection float64                     `json:"security_protection"`
	ProfitMultiplier   float64                     `json:"profit_multiplier"`

	CustomerQueue []PendingRequest `json:"customer_queue"`
	LoanQueue     []LoanRequest    `json:"loan_queue"`
	Loans         []ActiveLoan     `json:"loans"`

	Automation     AutomationConfig `json:"automation"`
	TellerCapacity int              `json:"teller_capacity"`
	TellerUsed     int              `json:"teller_used"`

	Statistics Statistics `json:"statistics"`

	Economy     Economy      `json:"economy"`
	Competitors []Competitor `json:"competitors"`
	MarketShare float64      `json:"market_share"`
	Products    []Product    `json:"products"`

	ActiveEvent          *ActiveEvent    `json:"active_event,omitempty"`
	EventHistory         []EventRecord   `json:"event_history"`
	HistoricalCrises     map[string]bool `json:"historical_crises"`
	LastEventMonth       int             `json:"last_event_month"`
	EventsResolved       int             `json:"events_resolved"`
	LastThiefAttemptYear int             `json:"last_thief_attempt_year"`

	Objectives        []Objective `json:"objectives"`
	CompetitiveStreak int         `json:"competitive_streak"`

	Log []LogEntry `json:"log"`
}

// ReserveRatio is cash over deposits as a percentage; 100 with no deposits.
func (st *BankState) ReserveRatio() float64 {
	if st.Deposits <= 0 {
		return 100
	}
	return st.Cash / st.Deposits * 100
}

func (st *BankState) FindTech(cat TechCategory, id string) (*TechNode, error) {
	nodes, ok := st.Tech[cat]
	if !ok {
		return nil, fmt.Errorf("%w: category %q", ErrTechNotFound, cat)
	}
	for i := range nodes {
		if nodes[i].ID == id {
			return &nodes[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrTechNotFound, cat, id)
}

func (st *BankState) findCustomer(id string) int {
	for i := range st.CustomerQueue {
		if st.CustomerQueue[i].ID == id {
			return i
		}
	}
	return -1
}

func (st *BankState) findLoanRequest(id string) int {
	for i := range st.LoanQueue {
		if st.LoanQueue[i].ID == id {
			return i
		}
	}
	return -1
}

// clampInvariants keeps trust in range and cash and deposits non-negative.
func (st *BankState) clampInvariants() {
	st.Trust = clamp(st.Trust, 0, MaxTrust)
	if st.Cash < 0 {
		st.Cash = 0
	}
	if st.Deposits < 0 {
		st.Deposits = 0
	}
	if st.ActiveAccounts < 0 {
		st.ActiveAccounts = 0
	}
}
