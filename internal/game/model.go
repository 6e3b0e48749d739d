package game

import (
	"errors"
	"fmt"
	"math"
)

const (
	StartYear     = 1920
	StartCash     = 1000.0
	DaysPerMonth  = 30
	MonthsPerYear = 12

	MaxTrust   = 100.0
	MaxLevel   = 5
	HistoryCap = 120

	SnapshotVersion = "2.0"
)

var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrRequestNotFound      = errors.New("request not found")
	ErrStaffCapacity        = errors.New("staff capacity reached: upgrade bank first")
	ErrNoStaff              = errors.New("no staff in that role")
	ErrMaxLevel             = errors.New("already at max level")
	ErrTechLocked           = errors.New("technology not available yet")
	ErrTechNotFound         = errors.New("technology not found")
	ErrUnknownRole          = errors.New("unknown staff role")
	ErrUnknownBucket        = errors.New("unknown investment bucket")
	ErrInvalidAmount        = errors.New("amount must be > 0")
	ErrInvalidRate          = errors.New("rate must be between 0 and 0.25")
	ErrNoActiveEvent        = errors.New("no active event")
	ErrInvalidChoice        = errors.New("invalid event choice")
	ErrNoSnapshot           = errors.New("no saved game found")
	ErrInvalidSnapshot      = errors.New("invalid save data")
	ErrDuplicateIdempotency = errors.New("duplicate idempotency key")
)

type Segment string

const (
	SegmentRetail   Segment = "retail"
	SegmentBusiness Segment = "business"
	SegmentVIP      Segment = "vip"
)

type RequestKind string

const (
	KindDeposit    RequestKind = "deposit"
	KindWithdrawal RequestKind = "withdrawal"
)

type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// Role order is declaration order; auto-hire walks it front to back.
type Role string

const (
	RoleTellers      Role = "tellers"
	RoleGuards       Role = "guards"
	RoleManagers     Role = "managers"
	RoleLoanOfficers Role = "loanOfficers"
)

var Roles = []Role{RoleTellers, RoleGuards, RoleManagers, RoleLoanOfficers}

// layoffOrder is who walks out first when payroll bounces.
var layoffOrder = []Role{RoleLoanOfficers, RoleManagers, RoleTellers}

var monthlyWages = map[Role]float64{
	RoleTellers:      50,
	RoleGuards:       80,
	RoleManagers:     120,
	RoleLoanOfficers: 100,
}

func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// Wage is the monthly wage for one member of role.
func Wage(role Role) float64 {
	return monthlyWages[role]
}

// HireCost is three months of wages, paid up front.
func HireCost(role Role) float64 {
	return monthlyWages[role] * 3
}

type Bucket string

const (
	BucketBonds       Bucket = "bonds"
	BucketStocks      Bucket = "stocks"
	BucketSpeculative Bucket = "speculative"
)

var Buckets = []Bucket{BucketBonds, BucketStocks, BucketSpeculative}

var annualReturns = map[Bucket]float64{
	BucketBonds:       0.03,
	BucketStocks:      0.08,
	BucketSpeculative: 0.15,
}

func ParseBucket(s string) (Bucket, error) {
	for _, b := range Buckets {
		if string(b) == s {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBucket, s)
}

var bankUpgradeCosts = []float64{0, 0, 2000, 5000, 10000, 20000}

// UpgradeCost is the price of moving to level; zero when level is out of range.
func UpgradeCost(level int) float64 {
	if level < 0 || level >= len(bankUpgradeCosts) {
		return 0
	}
	return bankUpgradeCosts[level]
}

// StaffCapacity is the per-role ceiling at a bank level.
func StaffCapacity(level int) Staff {
	if level < 1 {
		level = 1
	}
	return Staff{
		Tellers:      2 + (level-1)*2,
		Guards:       1 + (level-1)/2,
		Managers:     max(0, level-2),
		LoanOfficers: max(0, level-2),
	}
}

// MonthlyPayment is the level payment that retires principal over months
// at annualRate.
func MonthlyPayment(principal, annualRate float64, months int) float64 {
	if months <= 0 {
		return principal
	}
	r := annualRate / 12
	if r == 0 {
		return principal / float64(months)
	}
	f := math.Pow(1+r, float64(months))
	return principal * r * f / (f - 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// monthIndex orders months across years for cooldown arithmetic.
func monthIndex(year, month int) int {
	return year*MonthsPerYear + month
}
