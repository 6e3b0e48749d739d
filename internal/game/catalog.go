package game

type Era string

const (
	EraRoaring20s Era = "roaring20s"
	EraDepression Era = "depression"
	EraWartime    Era = "wartime"
	EraPostwar    Era = "postwar"
	EraModern     Era = "modern"
	EraDigital    Era = "digital"
	EraFintech    Era = "fintech"
	EraFuture     Era = "future"
)

func EraFor(year int) Era {
	switch {
	case year < 1930:
		return EraRoaring20s
	case year < 1940:
		return EraDepression
	case year < 1950:
		return EraWartime
	case year < 1970:
		return EraPostwar
	case year < 1990:
		return EraModern
	case year < 2010:
		return EraDigital
	case year < 2030:
		return EraFintech
	default:
		return EraFuture
	}
}

var eraNames = map[Era]string{
	EraRoaring20s: "1920s - The Roaring Twenties",
	EraDepression: "1930s - The Great Depression",
	EraWartime:    "1940s - War Economy",
	EraPostwar:    "1950s-60s - Post-War Boom",
	EraModern:     "1970s-80s - Modern Banking",
	EraDigital:    "1990s-2000s - Digital Revolution",
	EraFintech:    "2010s-20s - FinTech Era",
	EraFuture:     "2030s+ - Future Banking",
}

func (e Era) DisplayName() string {
	if n, ok := eraNames[e]; ok {
		return n
	}
	return string(e)
}

var eraRates = map[Era]Rates{
	EraRoaring20s: {Deposit: 0.02, Loan: 0.06},
	EraDepression: {Deposit: 0.01, Loan: 0.08},
	EraWartime:    {Deposit: 0.015, Loan: 0.05},
	EraPostwar:    {Deposit: 0.025, Loan: 0.06},
	EraModern:     {Deposit: 0.03, Loan: 0.07},
	EraDigital:    {Deposit: 0.02, Loan: 0.05},
	EraFintech:    {Deposit: 0.015, Loan: 0.04},
	EraFuture:     {Deposit: 0.01, Loan: 0.03},
}

// eraTargets are the values the economy drifts toward.
var eraTargets = map[Era]Economy{
	EraRoaring20s: {Inflation: 0.00, Unemployment: -0.02, GDPGrowth: 0.04},
	EraDepression: {Inflation: -0.05, Unemployment: 0.15, GDPGrowth: -0.08},
	EraWartime:    {Inflation: 0.03, Unemployment: -0.05, GDPGrowth: 0.06},
	EraPostwar:    {Inflation: 0.02, Unemployment: 0.00, GDPGrowth: 0.05},
	EraModern:     {Inflation: 0.04, Unemployment: 0.01, GDPGrowth: 0.03},
	EraDigital:    {Inflation: 0.02, Unemployment: 0.00, GDPGrowth: 0.04},
	EraFintech:    {Inflation: 0.015, Unemployment: -0.01, GDPGrowth: 0.035},
	EraFuture:     {Inflation: 0.01, Unemployment: -0.02, GDPGrowth: 0.04},
}

func defaultTech() map[TechCategory][]TechNode {
	return map[TechCategory][]TechNode{
		TechSecurity: {
			{ID: "vault1", Name: "Reinforced Vault", Cost: 500, MaxLevel: 3, Effect: 20},
			{ID: "guards", Name: "Security Guards", Cost: 800, MaxLevel: 3, Effect: 30},
			{ID: "alarm", Name: "Alarm System", Cost: 1500, MaxLevel: 2, Effect: 40},
			{ID: "cameras", Name: "Security Cameras", Cost: 3000, MaxLevel: 2, MinYear: 1950, Effect: 50},
			{ID: "biometric", Name: "Biometric Access", Cost: 8000, MaxLevel: 2, MinYear: 1990, Effect: 70},
			{ID: "cyber", Name: "Cybersecurity", Cost: 12000, MaxLevel: 3, MinYear: 2000, Effect: 80},
		},
		TechProfit: {
			{ID: "accounting", Name: "Better Accounting", Cost: 400, MaxLevel: 3, Effect: 0.05},
			{ID: "marketing", Name: "Marketing Campaign", Cost: 600, MaxLevel: 3, Effect: 0.08},
			{ID: "automation", Name: "Office Automation", Cost: 2000, MaxLevel: 2, MinYear: 1960, Effect: 0.15},
			{ID: "digital", Name: "Digital Banking", Cost: 5000, MaxLevel: 2, MinYear: 1990, Effect: 0.25},
			{ID: "trading", Name: "Algorithmic Trading", Cost: 8000, MaxLevel: 2, MinYear: 2000, Effect: 0.20},
			{ID: "blockchain", Name: "Blockchain Integration", Cost: 15000, MaxLevel: 2, MinYear: 2010, Effect: 0.30},
		},
		TechCustomer: {
			{ID: "service", Name: "Customer Service", Cost: 300, MaxLevel: 5, Effect: 2},
			{ID: "rewards", Name: "Rewards Program", Cost: 800, MaxLevel: 3, Effect: 0.5},
			{ID: "branches", Name: "New Branches", Cost: 2000, MaxLevel: 3, MinYear: 1940, Effect: 1},
			{ID: "atm", Name: "ATM Network", Cost: 4000, MaxLevel: 2, MinYear: 1970, Effect: 2},
			{ID: "mobile", Name: "Mobile Banking", Cost: 7000, MaxLevel: 2, MinYear: 2000, Effect: 3},
			{ID: "social", Name: "Social Media Presence", Cost: 5000, MaxLevel: 2, MinYear: 2010, Effect: 5},
		},
		TechEfficiency: {
			{ID: "training", Name: "Staff Training", Cost: 500, MaxLevel: 3, Effect: 0.02},
			{ID: "systems", Name: "Better Systems", Cost: 1200, MaxLevel: 3, MinYear: 1950, Effect: 0.03},
			{ID: "ai", Name: "AI Assistant", Cost: 6000, MaxLevel: 2, MinYear: 2000, Effect: 0.05},
			{ID: "cloud", Name: "Cloud Infrastructure", Cost: 10000, MaxLevel: 2, MinYear: 2010, Effect: 0.04},
			{ID: "ml", Name: "Machine Learning", Cost: 18000, MaxLevel: 2, MinYear: 2015, Effect: 0.06},
		},
	}
}

type loanPurpose struct {
	purpose    string
	risk       Risk
	baseAmount float64
	rate       float64
}

var loanPurposes = []loanPurpose{
	{"Home Purchase", RiskLow, 5000, 0.05},
	{"Business Startup", RiskHigh, 3000, 0.12},
	{"Education", RiskLow, 2000, 0.04},
	{"Car Purchase", RiskMedium, 1500, 0.07},
	{"Home Renovation", RiskMedium, 2500, 0.06},
	{"Business Expansion", RiskMedium, 4000, 0.08},
	{"Debt Consolidation", RiskHigh, 3500, 0.10},
	{"Medical Expenses", RiskMedium, 1000, 0.07},
	{"Speculative Investment", RiskHigh, 2000, 0.15},
}

var loanTerms = []int{12, 24, 36, 48, 60}

// annualDefault is the yearly write-off chance per risk tier.
var annualDefault = map[Risk]float64{
	RiskLow:    0.02,
	RiskMedium: 0.05,
	RiskHigh:   0.10,
}

type segmentRange struct {
	depositMin    float64
	depositSpread float64
	withdrawalCap float64
}

var segmentRanges = map[Segment]segmentRange{
	SegmentRetail:   {depositMin: 100, depositSpread: 500, withdrawalCap: 300},
	SegmentBusiness: {depositMin: 1000, depositSpread: 3000, withdrawalCap: 2000},
	SegmentVIP:      {depositMin: 5000, depositSpread: 10000, withdrawalCap: 8000},
}

func defaultProducts() []Product {
	return []Product{
		{ID: "savings", Name: "Savings Accounts", MinYear: 1920, Margin: 0.01},
		{ID: "checking", Name: "Checking Accounts", MinYear: 1950, Margin: 0.005},
		{ID: "creditCards", Name: "Credit Cards", MinYear: 1958, Margin: 0.15},
		{ID: "autoLoans", Name: "Auto Loans", MinYear: 1950, Margin: 0.03},
		{ID: "mortgages", Name: "Mortgages", MinYear: 1930, Margin: 0.025},
		{ID: "moneyMarket", Name: "Money Market Accounts", MinYear: 1971, Margin: 0.02},
		{ID: "mutualFunds", Name: "Mutual Funds", MinYear: 1990, Margin: 0.08},
		{ID: "onlineBanking", Name: "Online Banking", MinYear: 1995, Margin: 0.01},
		{ID: "mobileBanking", Name: "Mobile Banking", MinYear: 2007, Margin: 0.015},
		{ID: "cryptocurrency", Name: "Cryptocurrency Services", MinYear: 2015, Margin: 0.20},
	}
}

// productUptake is the share of each segment that signs up per product.
var productUptake = map[Segment][]struct {
	product string
	share   float64
}{
	SegmentRetail: {
		{"savings", 0.8}, {"checking", 0.6}, {"creditCards", 0.3}, {"mobileBanking", 0.4},
	},
	SegmentBusiness: {
		{"checking", 0.9}, {"autoLoans", 0.4}, {"mortgages", 0.3}, {"onlineBanking", 0.7},
	},
	SegmentVIP: {
		{"moneyMarket", 0.8}, {"mutualFunds", 0.6}, {"cryptocurrency", 0.4}, {"mortgages", 0.5},
	},
}

var competitorNames = []string{
	"First National Bank", "Citizens Bank", "Metro Bank", "Trust & Savings",
	"Community Bank", "United Bank", "Federal Reserve Bank",
}

func defaultObjectives() []Objective {
	return []Objective{
		{ID: "cash_5k", Name: "First Milestone", Description: "Reach $5,000 cash", Kind: ObjCash, Target: 5000, Reward: 500},
		{ID: "cash_10k", Name: "Growing Business", Description: "Reach $10,000 cash", Kind: ObjCash, Target: 10000, Reward: 1000},
		{ID: "cash_50k", Name: "Major Player", Description: "Reach $50,000 cash", Kind: ObjCash, Target: 50000, Reward: 5000},
		{ID: "cash_250k", Name: "Banking Empire", Description: "Reach $250,000 cash", Kind: ObjCash, Target: 250000, Reward: 25000},

		{ID: "year_1930", Name: "Survived the Twenties", Description: "Reach 1930", Kind: ObjYear, Target: 1930, Reward: 2000},
		{ID: "year_1950", Name: "Post-War Prosperity", Description: "Reach 1950", Kind: ObjYear, Target: 1950, Reward: 5000},
		{ID: "year_1970", Name: "Modern Banking", Description: "Reach 1970", Kind: ObjYear, Target: 1970, Reward: 10000},
		{ID: "year_2000", Name: "New Millennium", Description: "Reach 2000", Kind: ObjYear, Target: 2000, Reward: 20000},

		{ID: "profit_10k", Name: "Profitable", Description: "Earn $10,000 total profit", Kind: ObjProfit, Target: 10000, Reward: 2000},
		{ID: "profit_50k", Name: "Profit Machine", Description: "Earn $50,000 total profit", Kind: ObjProfit, Target: 50000, Reward: 10000},
		{ID: "profit_250k", Name: "Wealth Generator", Description: "Earn $250,000 total profit", Kind: ObjProfit, Target: 250000, Reward: 25000},

		{ID: "accounts_50", Name: "Growing Clientele", Description: "Reach 50 active accounts", Kind: ObjAccounts, Target: 50, Reward: 1000},
		{ID: "accounts_100", Name: "Established Bank", Description: "Reach 100 active accounts", Kind: ObjAccounts, Target: 100, Reward: 3000},
		{ID: "accounts_500", Name: "Customer Magnet", Description: "Reach 500 active accounts", Kind: ObjAccounts, Target: 500, Reward: 15000},

		{ID: "security_max", Name: "Fort Knox", Description: "Max out all security tech", Kind: ObjSecurityMax, Target: 1, Reward: 5000},
		{ID: "profit_max", Name: "Optimization Master", Description: "Max out all profit tech", Kind: ObjProfitTechMax, Target: 1, Reward: 5000},
		{ID: "all_tech_max", Name: "Tech Pioneer", Description: "Max out all technologies", Kind: ObjAllTechMax, Target: 1, Reward: 20000},

		{ID: "no_defaults", Name: "Perfect Record", Description: "Issue 50 loans with zero defaults", Kind: ObjNoDefaults, Target: 50, Reward: 10000, Hidden: true},
		{ID: "trust_perfect", Name: "Trusted Institution", Description: "Hold 100% trust for a year", Kind: ObjTrustStreak, Target: 12, Reward: 5000, Hidden: true},
		{ID: "market_leader", Name: "Market Domination", Description: "Reach 50% market share", Kind: ObjMarketShare, Target: 50, Reward: 15000, Hidden: true},
		{ID: "crisis_survivor", Name: "Crisis Manager", Description: "Resolve 5 major events", Kind: ObjEvents, Target: 5, Reward: 10000, Hidden: true},
		{ID: "vip_collector", Name: "VIP Magnet", Description: "Have 20 VIP customers", Kind: ObjVIPCustomers, Target: 20, Reward: 8000, Hidden: true},
		{ID: "expansion_master", Name: "Branch Network", Description: "Max out the branch network", Kind: ObjBranches, Target: 1, Reward: 20000, Hidden: true},
		{ID: "product_portfolio", Name: "Full Service Bank", Description: "Unlock all financial products", Kind: ObjProducts, Target: 10, Reward: 15000, Hidden: true},
		{ID: "rate_master", Name: "Rate Strategist", Description: "Stay rate-competitive for 12 months straight", Kind: ObjCompetitiveRates, Target: 12, Reward: 5000, Hidden: true},
		{ID: "automation_king", Name: "Hands-Off Manager", Description: "Enable every automation option", Kind: ObjAutomation, Target: 1, Reward: 10000, Hidden: true},
	}
}
