package sim

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/episim/internal/metrics"
	"github.com/san-kum/episim/internal/seird"
)

func testConfig() seird.Config {
	return seird.Config{
		N:          400,
		I0:         5,
		Dt:         1,
		Beta:       0.35,
		Gamma:      0.1,
		Mu:         0.01,
		Topology:   seird.FourNeighbor,
		Stochastic: true,
		AutoStop:   true,
		Seed:       42,
	}
}

func stepN(s *Simulator, n int) {
	for i := 0; i < n; i++ {
		s.Step()
	}
}

var _ = Describe("Simulator", func() {
	var s *Simulator

	BeforeEach(func() {
		s = New(testConfig())
	})

	Describe("Step", func() {
		It("is reproducible for a fixed seed", func() {
			other := New(testConfig())
			stepN(s, 40)
			stepN(other, 40)
			Expect(s.ExportRows()).To(Equal(other.ExportRows()))
		})

		It("advances the clock by dt and records one row per step", func() {
			stepN(s, 3)
			Expect(s.History().Len()).To(Equal(3))
			Expect(s.Time()).To(BeNumerically("~", 3, 1e-12))

			row, ok := s.History().Last()
			Expect(ok).To(BeTrue())
			Expect(row.T).To(BeNumerically("~", 3, 1e-12))
			Expect(row.S + row.E + row.I + row.R + row.D).To(Equal(400))
			Expect(row.Prevalence).To(BeNumerically("~", float64(row.I)/400, 1e-12))
		})

		It("never decreases the ever-infected count", func() {
			prev := 0
			for i := 0; i < 60; i++ {
				row, _ := s.Step()
				Expect(row.EverInfected).To(BeNumerically(">=", prev))
				prev = row.EverInfected
			}
		})

		It("keeps S constant without transmission or infection", func() {
			cfg := testConfig()
			cfg.Beta = 0
			cfg.I0 = 0
			s.Initialize(cfg)
			for i := 0; i < 20; i++ {
				row, _ := s.Step()
				Expect(row.S).To(Equal(cfg.N))
			}
		})
	})

	Describe("auto-stop", func() {
		It("halts after ten quiet steps", func() {
			cfg := testConfig()
			cfg.N = 50
			cfg.I0 = 0
			cfg.R0Init = 50
			s.Initialize(cfg)

			res, err := s.Run(context.Background(), 1000)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Halted).To(BeTrue())
			Expect(res.StepsTaken).To(Equal(StableSteps))
		})

		It("runs to the step limit when disabled", func() {
			cfg := testConfig()
			cfg.I0 = 0
			cfg.AutoStop = false
			s.Initialize(cfg)

			res, err := s.Run(context.Background(), 25)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Halted).To(BeFalse())
			Expect(res.StepsTaken).To(Equal(25))
		})
	})

	Describe("viewing", func() {
		It("does not touch the live population", func() {
			stepN(s, 10)
			live := s.Population().Snapshot()

			s.SetView(3)
			snap, ok := s.History().Snapshot(3)
			Expect(ok).To(BeTrue())
			Expect(s.ViewedSnapshot()).To(Equal(snap))
			Expect(s.Population().Snapshot()).To(Equal(live))

			s.ViewLive()
			Expect(s.ViewedSnapshot()).To(Equal(live))
		})

		It("hands out copies of recorded steps", func() {
			stepN(s, 5)
			s.SetView(2)
			want, _ := s.History().Snapshot(2)

			viewed := s.ViewedSnapshot()
			viewed[0].State = seird.Dead
			if want[0].State == seird.Dead {
				viewed[0].State = seird.Susceptible
			}

			got, _ := s.History().Snapshot(2)
			Expect(got).To(Equal(want))

			Expect(s.Branch(false)).To(BeTrue())
			Expect(s.Population().Snapshot()).To(Equal(want))
		})
	})

	Describe("Branch", func() {
		It("forks at the viewed step", func() {
			stepN(s, 20)
			s.SetView(5)
			want, _ := s.History().Snapshot(5)

			Expect(s.Branch(false)).To(BeTrue())
			Expect(s.History().Len()).To(Equal(6))
			Expect(s.Population().Snapshot()).To(Equal(want))
			Expect(s.Time()).To(BeNumerically("~", 6, 1e-12))

			_, viewing := s.History().View()
			Expect(viewing).To(BeFalse())

			row, _ := s.Step()
			Expect(row.T).To(BeNumerically("~", 7, 1e-12))
			Expect(s.History().Len()).To(Equal(7))
		})

		It("clamps a view past the last step", func() {
			stepN(s, 5)
			want, _ := s.History().Snapshot(4)
			s.SetView(100)

			Expect(s.Branch(false)).To(BeTrue())
			Expect(s.History().Len()).To(Equal(5))
			Expect(s.Population().Snapshot()).To(Equal(want))
		})

		It("keeps everything when live", func() {
			stepN(s, 8)
			Expect(s.Branch(false)).To(BeTrue())
			Expect(s.History().Len()).To(Equal(8))
		})

		It("does nothing without history unless reassigning vaccination", func() {
			Expect(s.Branch(false)).To(BeFalse())

			cfg := testConfig()
			cfg.VaxCoverage = 0.5
			cfg.VaccineEfficacy = 1
			s.cfg = cfg.Clamped()
			Expect(s.Branch(true)).To(BeTrue())
			Expect(s.Population().Counts().Vaccinated).To(Equal(200))
			Expect(s.History().Len()).To(Equal(0))
		})

		It("reports a rate edit without history as an in-place update", func() {
			cfg := testConfig()
			cfg.Beta = 0.6
			Expect(s.UpdateParams(cfg)).To(Equal(Updated))
			Expect(s.Config().Beta).To(Equal(0.6))
			Expect(s.History().Len()).To(Equal(0))
		})

		It("rejects an index with no snapshot", func() {
			Expect(s.Fork(0, false)).To(MatchError(seird.ErrNoHistory))
			stepN(s, 4)
			Expect(s.Fork(9, false)).To(MatchError(ContainSubstring("out of range")))
			Expect(s.History().Len()).To(Equal(4))
		})

		It("resumes a frozen view by branching", func() {
			stepN(s, 10)
			Expect(s.Resume()).To(BeFalse())

			s.SetView(2)
			Expect(s.Resume()).To(BeTrue())
			Expect(s.History().Len()).To(Equal(3))
		})
	})

	Describe("UpdateParams", func() {
		BeforeEach(func() {
			stepN(s, 10)
		})

		It("reports no change for identical values", func() {
			Expect(s.UpdateParams(testConfig())).To(Equal(NoChange))
			Expect(s.History().Len()).To(Equal(10))
		})

		It("reinitializes on structural changes", func() {
			cfg := testConfig()
			cfg.N = 200
			Expect(s.UpdateParams(cfg)).To(Equal(Reinitialized))
			Expect(s.History().Len()).To(Equal(0))
			Expect(s.Population().Len()).To(Equal(200))
		})

		It("branches on rate changes", func() {
			cfg := testConfig()
			cfg.Beta = 0.6
			s.SetView(4)
			Expect(s.UpdateParams(cfg)).To(Equal(Branched))
			Expect(s.History().Len()).To(Equal(5))
			Expect(s.Config().Beta).To(Equal(0.6))
		})

		It("reassigns vaccination on coverage changes", func() {
			cfg := testConfig()
			cfg.VaxCoverage = 1
			cfg.VaccineEfficacy = 1
			Expect(s.UpdateParams(cfg)).To(Equal(BranchedWithVaccination))
			Expect(s.Population().Counts().Vaccinated).To(Equal(400))
		})

		It("applies auto-stop toggles in place", func() {
			cfg := testConfig()
			cfg.AutoStop = false
			Expect(s.UpdateParams(cfg)).To(Equal(Updated))
			Expect(s.History().Len()).To(Equal(10))
		})
	})

	Describe("Run", func() {
		It("stops on cancellation", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			res, err := s.Run(ctx, 100)
			Expect(err).To(MatchError(context.Canceled))
			Expect(res.StepsTaken).To(Equal(0))
		})

		It("rejects a non-positive step limit", func() {
			_, err := s.Run(context.Background(), 0)
			Expect(err).To(HaveOccurred())
		})

		It("collects registered metrics", func() {
			for _, m := range metrics.Defaults() {
				s.AddMetric(m)
			}
			res, err := s.Run(context.Background(), 30)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Metrics).To(HaveKey("peak_prevalence"))
			Expect(res.Metrics["attack_rate"]).To(BeNumerically(">=", 0))
		})
	})

	Describe("Metrics", func() {
		It("only offers R0 and Rt before the first step", func() {
			m := s.Metrics()
			Expect(m.Index).To(Equal(-1))
			Expect(m.R0).To(BeNumerically("~", 3.5, 1e-9))
			Expect(m.Rt).To(BeNumerically("~", 3.5*395/400, 1e-9))
		})

		It("follows the view", func() {
			stepN(s, 12)
			Expect(s.Metrics().Index).To(Equal(11))
			s.SetView(4)
			Expect(s.Metrics().Index).To(Equal(4))
			Expect(s.MetricsAt(2).Index).To(Equal(2))
		})
	})
})
