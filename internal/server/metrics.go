package server

import "github.com/prometheus/client_golang/prometheus"

var (
	solvesStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scree_solves_started_total",
		Help: "Number of solve jobs started.",
	})
	solvesFinished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scree_solves_finished_total",
		Help: "Number of solve jobs finished, by terminal status.",
	}, []string{"status"})
	innerIterations = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scree_solve_inner_iterations",
		Help:    "Inner (subproblem) iterations per finished solve.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})
)

func init() {
	prometheus.MustRegister(solvesStarted, solvesFinished, innerIterations)
}
