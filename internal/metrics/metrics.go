package metrics

import (
	"net/http"

	"banktycoon/internal/game"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector turns ticks and commands into Prometheus series. It implements
// game.TickObserver.
type Collector struct {
	reg *prometheus.Registry

	ticks          prometheus.Counter
	monthsClosed   prometheus.Counter
	eventsResolved *prometheus.CounterVec
	objectives     prometheus.Counter
	expired        *prometheus.CounterVec
	commands       *prometheus.CounterVec

	cash         prometheus.Gauge
	deposits     prometheus.Gauge
	trust        prometheus.Gauge
	reserveRatio prometheus.Gauge
	marketShare  prometheus.Gauge
	netIncome    prometheus.Gauge
	queue        *prometheus.GaugeVec
	year         prometheus.Gauge
}

func New() *Collector {
	c := &Collector{
		reg: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bank_ticks_total", Help: "Simulated days advanced.",
		}),
		monthsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bank_months_closed_total", Help: "Months whose P&L was closed.",
		}),
		eventsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bank_events_resolved_total", Help: "Events resolved, by how.",
		}, []string{"how"}),
		objectives: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bank_objectives_completed_total", Help: "Objectives completed.",
		}),
		expired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bank_requests_expired_total", Help: "Queued requests that timed out.",
		}, []string{"kind"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bank_commands_total", Help: "Player commands, by name and result.",
		}, []string{"command", "result"}),
		cash:         prometheus.NewGauge(prometheus.GaugeOpts{Name: "bank_cash", Help: "Cash on hand."}),
		deposits:     prometheus.NewGauge(prometheus.GaugeOpts{Name: "bank_deposits", Help: "Customer deposits."}),
		trust:        prometheus.NewGauge(prometheus.GaugeOpts{Name: "bank_trust", Help: "Customer trust, 0 to 100."}),
		reserveRatio: prometheus.NewGauge(prometheus.GaugeOpts{Name: "bank_reserve_ratio", Help: "Cash over deposits, percent."}),
		marketShare:  prometheus.NewGauge(prometheus.GaugeOpts{Name: "bank_market_share", Help: "Share of market deposits, percent."}),
		netIncome:    prometheus.NewGauge(prometheus.GaugeOpts{Name: "bank_last_month_net_income", Help: "Net income of the last closed month."}),
		queue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bank_queue_length", Help: "Requests waiting for a decision.",
		}, []string{"kind"}),
		year: prometheus.NewGauge(prometheus.GaugeOpts{Name: "bank_game_year", Help: "Current in-game year."}),
	}
	c.reg.MustRegister(
		c.ticks, c.monthsClosed, c.eventsResolved, c.objectives, c.expired, c.commands,
		c.cash, c.deposits, c.trust, c.reserveRatio, c.marketShare, c.netIncome, c.queue, c.year,
	)
	return c
}

func (c *Collector) ObserveTick(rep game.TickReport, st *game.BankState) {
	c.ticks.Inc()
	if rep.MonthClosed != nil {
		c.monthsClosed.Inc()
		c.netIncome.Set(rep.MonthClosed.NetIncome)
	}
	for _, ev := range rep.EventsResolved {
		how := "player"
		if ev.TimedOut {
			how = "timeout"
		}
		c.eventsResolved.WithLabelValues(how).Inc()
	}
	c.objectives.Add(float64(len(rep.ObjectivesCompleted)))
	c.expired.WithLabelValues("customer").Add(float64(rep.ExpiredCustomers))
	c.expired.WithLabelValues("loan").Add(float64(rep.ExpiredLoans))

	c.cash.Set(st.Cash)
	c.deposits.Set(st.Deposits)
	c.trust.Set(st.Trust)
	c.reserveRatio.Set(st.ReserveRatio())
	c.marketShare.Set(st.MarketShare)
	c.queue.WithLabelValues("customer").Set(float64(len(st.CustomerQueue)))
	c.queue.WithLabelValues("loan").Set(float64(len(st.LoanQueue)))
	c.year.Set(float64(st.Date.Year))
}

// ObserveCommand counts one player command.
func (c *Collector) ObserveCommand(name string, err error) {
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	c.commands.WithLabelValues(name, result).Inc()
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
