package system_test

import (
	"bytes"
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/sarchlab/dramperf/config"
	"github.com/sarchlab/dramperf/stats"
	"github.com/sarchlab/dramperf/system"
	"github.com/sarchlab/dramperf/timing/shmem"
	"github.com/sarchlab/dramperf/timing/simtime"
	"github.com/sarchlab/dramperf/trace"
)

const ns = simtime.Nanosecond

const twoCores = `
general:
  total_cores: 2
  application_cores: 1
perf_model:
  dram:
    access_cost: 100ns
    bandwidth: 16
    frequency: 1
    queue_model:
      enabled: false
`

func mustParse(doc string) *config.Tree {
	tree, err := config.Parse([]byte(doc))
	Expect(err).NotTo(HaveOccurred())
	return tree
}

var _ = Describe("System", func() {
	var (
		log     *logrus.Logger
		logHook *test.Hook
	)

	BeforeEach(func() {
		log, logHook = test.NewNullLogger()
		log.SetLevel(logrus.TraceLevel)
	})

	It("should build one model pair per core", func() {
		registry := stats.NewRegistry()
		s, err := system.Build(mustParse(twoCores),
			system.WithStats(registry), system.WithLogger(log))

		Expect(err).NotTo(HaveOccurred())
		Expect(s.Cores).To(HaveLen(2))
		Expect(s.ApplicationCores()).To(Equal(1))
		Expect(s.Cores[1].ID).To(Equal(1))
		Expect(s.Cores[0].LLC()).To(BeNil())

		_, ok := registry.Lookup("shmem", 1, "num-memory-accesses")
		Expect(ok).To(BeTrue())
		_, ok = registry.Lookup("dram", 0, "num-accesses")
		Expect(ok).To(BeTrue())
	})

	It("should default to a single core", func() {
		s, err := system.Build(config.New(), system.WithLogger(log))

		Expect(err).NotTo(HaveOccurred())
		Expect(s.Cores).To(HaveLen(1))
		Expect(s.ApplicationCores()).To(Equal(1))
	})

	It("should reject more application cores than cores", func() {
		tree := mustParse(twoCores)
		tree.Set(system.ApplicationCoresPath, 3)

		_, err := system.Build(tree, system.WithLogger(log))
		Expect(err).To(MatchError(system.ErrInvalidTopology))
	})

	It("should reject a malformed last-level cache", func() {
		tree := mustParse(twoCores)
		tree.Set(system.LLCEnabledPath, true)
		tree.Set("perf_model/llc/size", 100)

		_, err := system.Build(tree, system.WithLogger(log))
		Expect(err).To(HaveOccurred())
	})

	Context("when replaying a trace", func() {
		var (
			s *system.System
			t trace.Trace
		)

		BeforeEach(func() {
			var err error
			s, err = system.Build(mustParse(twoCores),
				system.WithLogger(log),
				system.WithAccessHook(system.NewAccessLogger(log)))
			Expect(err).NotTo(HaveOccurred())

			t = trace.Trace{
				{Arrival: 0, Requester: 0, Addr: 0x0, Size: 64},
				{Arrival: 10 * ns, Requester: 1, Addr: 0x40, Size: 64},
				{Arrival: 20 * ns, Requester: 0, Addr: 0x80, Size: 64},
				{Arrival: 30 * ns, Requester: 5, Addr: 0xc0, Size: 64},
				{Arrival: 40 * ns, Requester: 0, Addr: 0x100, Size: 64},
			}
		})

		It("should time each core's accesses", func() {
			s.Enable()
			Expect(s.Run(context.Background(), t)).To(Succeed())

			c0 := s.Cores[0]
			Expect(c0.Dram.Stats().NumAccesses).To(Equal(uint64(3)))
			Expect(c0.Shmem.GetElapsedTime(shmem.RoleUser)).To(Equal(40 * ns))
			Expect(c0.Shmem.GetElapsedTime(shmem.RoleSim)).To(Equal(172 * ns))

			c1 := s.Cores[1]
			Expect(c1.Dram.Stats().NumAccesses).To(BeZero())
			Expect(c1.Shmem.GetElapsedTime(shmem.RoleUser)).To(Equal(10 * ns))
		})

		It("should log dropped records and every access", func() {
			s.Enable()
			Expect(s.Run(context.Background(), t)).To(Succeed())

			var accesses, warnings int
			for _, e := range logHook.AllEntries() {
				switch {
				case e.Message == "dram access":
					accesses++
					Expect(e.Data["dram"]).To(Equal("DRAM[0]"))
				case e.Level == logrus.WarnLevel:
					warnings++
					Expect(e.Data["records"]).To(Equal(1))
				}
			}
			Expect(accesses).To(Equal(3))
			Expect(warnings).To(Equal(1))
		})

		It("should sort an unordered trace", func() {
			t[0], t[4] = t[4], t[0]

			s.Enable()
			Expect(s.Run(context.Background(), t)).To(Succeed())
			Expect(s.Cores[0].Shmem.GetElapsedTime(shmem.RoleUser)).To(Equal(40 * ns))
		})

		It("should print NA summaries when never enabled", func() {
			Expect(s.Run(context.Background(), t)).To(Succeed())

			buf := new(bytes.Buffer)
			Expect(s.OutputSummary(buf)).To(Succeed())
			Expect(buf.String()).To(ContainSubstring("Core 0:\n"))
			Expect(buf.String()).To(ContainSubstring("Core 1:\n"))
			Expect(buf.String()).To(ContainSubstring("num dram accesses: NA"))
		})
	})

	It("should filter accesses through the last-level cache", func() {
		tree := mustParse(twoCores)
		tree.Set(system.LLCEnabledPath, true)
		tree.Set("perf_model/llc/size", 4096)
		tree.Set("perf_model/llc/associativity", 4)

		s, err := system.Build(tree, system.WithLogger(log))
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Cores[0].LLC()).NotTo(BeNil())
		Expect(s.Cores[0].LLC().Config().BlockSize).To(Equal(64))

		s.Enable()
		Expect(s.Run(context.Background(), trace.Trace{
			{Arrival: 0, Addr: 0x1000, Size: 8},
			{Arrival: 5 * ns, Addr: 0x1008, Size: 8},
		})).To(Succeed())

		Expect(s.Cores[0].Stats().LLCHits).To(Equal(uint64(1)))
		Expect(s.Cores[0].Dram.Stats().NumAccesses).To(Equal(uint64(1)))
	})
})
