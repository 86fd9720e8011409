package suggestions

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts vote, status and command activity. A nil *Metrics is a no-op.
type Metrics struct {
	votes         *prometheus.CounterVec
	voteConflicts prometheus.Counter
	statusChanges *prometheus.CounterVec
	commands      *prometheus.CounterVec
}

// NewMetrics registers the suggestion collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "suggestions_votes_total",
			Help: "Votes that changed a suggestion ledger, by desired vote.",
		}, []string{"vote"}),
		voteConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "suggestions_vote_conflicts_total",
			Help: "Optimistic vote updates that lost a race and were retried.",
		}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "suggestions_status_changes_total",
			Help: "Status changes applied, by new status.",
		}, []string{"status"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "suggestions_commands_total",
			Help: "Suggestion commands handled, by command and result.",
		}, []string{"command", "result"}),
	}
	if reg != nil {
		reg.MustRegister(m.votes, m.voteConflicts, m.statusChanges, m.commands)
	}
	return m
}

func (m *Metrics) observeVote(d Desire, attempts int) {
	if m == nil {
		return
	}
	m.votes.WithLabelValues(d.String()).Inc()
	if attempts > 1 {
		m.voteConflicts.Add(float64(attempts - 1))
	}
}

func (m *Metrics) observeStatus(s Status) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(s.String()).Inc()
}

// ObserveCommand counts a handled command with its outcome.
func (m *Metrics) ObserveCommand(command, result string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, result).Inc()
}
