package shmem_test

import (
	"bytes"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dramperf/stats"
	"github.com/sarchlab/dramperf/timing/shmem"
	"github.com/sarchlab/dramperf/timing/simtime"
)

const ns = simtime.Nanosecond

var _ = Describe("PerfModel", func() {
	var m *shmem.PerfModel

	BeforeEach(func() {
		m = shmem.NewPerfModel(0, nil)
	})

	It("should start both roles at zero", func() {
		Expect(m.GetElapsedTime(shmem.RoleUser)).To(Equal(simtime.Zero))
		Expect(m.GetElapsedTime(shmem.RoleSim)).To(Equal(simtime.Zero))
	})

	It("should keep set, update and increment distinct", func() {
		m.SetElapsedTime(shmem.RoleUser, 500*ns)
		Expect(m.GetElapsedTime(shmem.RoleUser)).To(Equal(500 * ns))

		m.UpdateElapsedTime(shmem.RoleUser, 300*ns)
		Expect(m.GetElapsedTime(shmem.RoleUser)).To(Equal(500 * ns))

		m.IncrElapsedTime(shmem.RoleUser, 200*ns)
		Expect(m.GetElapsedTime(shmem.RoleUser)).To(Equal(700 * ns))

		m.SetElapsedTime(shmem.RoleUser, 100*ns)
		Expect(m.GetElapsedTime(shmem.RoleUser)).To(Equal(100 * ns))

		Expect(m.GetElapsedTime(shmem.RoleSim)).To(Equal(simtime.Zero))
	})

	It("should ratchet to the maximum of all updates", func() {
		times := []simtime.Time{40 * ns, 10 * ns, 90 * ns, 20 * ns, 90 * ns, 5 * ns}
		m.SetElapsedTime(shmem.RoleSim, 30*ns)

		for _, t := range times {
			m.UpdateElapsedTime(shmem.RoleSim, t)
			Expect(m.GetElapsedTime(shmem.RoleSim)).To(BeNumerically(">=", 30*ns))
		}

		Expect(m.GetElapsedTime(shmem.RoleSim)).To(Equal(90 * ns))
	})

	It("should add increments", func() {
		deltas := []simtime.Time{3 * ns, 0, 11 * ns, 7 * ns}
		other := shmem.NewPerfModel(1, nil)

		var sum simtime.Time
		for _, d := range deltas {
			m.IncrElapsedTime(shmem.RoleSim, d)
			sum += d
		}
		other.IncrElapsedTime(shmem.RoleSim, sum)

		Expect(m.GetElapsedTime(shmem.RoleSim)).
			To(Equal(other.GetElapsedTime(shmem.RoleSim)))
	})

	It("should panic on an unknown role", func() {
		Expect(func() { m.GetElapsedTime(shmem.NumRoles) }).To(Panic())
		Expect(func() { m.SetElapsedTime(shmem.Role(-1), 0) }).To(Panic())
	})

	It("should track the enabled flag without enforcing it", func() {
		Expect(m.IsEnabled()).To(BeFalse())
		m.SetElapsedTime(shmem.RoleUser, 5*ns)
		Expect(m.GetElapsedTime(shmem.RoleUser)).To(Equal(5 * ns))

		m.Enable()
		Expect(m.IsEnabled()).To(BeTrue())
		m.Disable()
		Expect(m.IsEnabled()).To(BeFalse())
	})

	It("should record memory access latency", func() {
		r := stats.NewRegistry()
		m = shmem.NewPerfModel(3, r)

		m.IncrTotalMemoryAccessLatency(100 * ns)
		m.IncrTotalMemoryAccessLatency(50 * ns)

		s := m.Stats()
		Expect(s.NumMemoryAccesses).To(Equal(uint64(2)))
		Expect(s.TotalMemoryAccessLatency).To(Equal(150 * ns))
		Expect(s.AverageMemoryAccessLatency()).To(Equal(75 * ns))

		v, ok := r.Lookup("shmem", 3, "num-memory-accesses")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(2.0))
	})

	Context("summary", func() {
		var buf *bytes.Buffer

		BeforeEach(func() {
			buf = new(bytes.Buffer)
		})

		It("should print NA when never enabled", func() {
			Expect(m.OutputSummary(buf)).To(Succeed())
			Expect(buf.String()).To(Equal(
				"Shmem Perf Model summary: \n" +
					"    num memory accesses: NA\n" +
					"    average memory access latency: NA\n"))
		})

		It("should print zero means without accesses", func() {
			m.Enable()
			Expect(m.OutputSummary(buf)).To(Succeed())
			Expect(buf.String()).To(Equal(
				"Shmem Perf Model summary: \n" +
					"    num memory accesses: 0\n" +
					"    average memory access latency: 0s\n"))
		})

		It("should print the mean latency", func() {
			m.Enable()
			m.IncrTotalMemoryAccessLatency(100 * ns)
			m.IncrTotalMemoryAccessLatency(200 * ns)
			m.Disable()

			Expect(m.OutputSummary(buf)).To(Succeed())
			Expect(buf.String()).To(ContainSubstring("num memory accesses: 2\n"))
			Expect(buf.String()).To(ContainSubstring("average memory access latency: 150ns\n"))
		})
	})

	It("should never expose a value no writer stored", func() {
		const (
			writes  = 2000
			readers = 4
		)

		// The user role only ever holds multiples of 1000ns, the sim role
		// only multiples of 7ns plus 3ns.
		validUser := func(t simtime.Time) bool { return t%(1000*ns) == 0 }
		validSim := func(t simtime.Time) bool { return t == 0 || (t-3*ns)%(7*ns) == 0 }

		var wg sync.WaitGroup
		stop := make(chan struct{})
		failures := make(chan simtime.Time, readers*2)

		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 1; i <= writes; i++ {
				m.SetElapsedTime(shmem.RoleUser, simtime.Time(i)*1000*ns)
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < writes; i++ {
				m.UpdateElapsedTime(shmem.RoleSim, simtime.Time(i)*7*ns+3*ns)
			}
		}()

		var rg sync.WaitGroup
		for r := 0; r < readers; r++ {
			rg.Add(1)
			go func() {
				defer rg.Done()
				lastSim := simtime.Zero
				for {
					select {
					case <-stop:
						return
					default:
					}

					u := m.GetElapsedTime(shmem.RoleUser)
					s := m.GetElapsedTime(shmem.RoleSim)
					if !validUser(u) {
						failures <- u
						return
					}
					if !validSim(s) || s < lastSim {
						failures <- s
						return
					}
					lastSim = s
				}
			}()
		}

		wg.Wait()
		close(stop)
		rg.Wait()
		close(failures)

		Expect(failures).To(BeEmpty())
		Expect(m.GetElapsedTime(shmem.RoleUser)).To(Equal(simtime.Time(writes) * 1000 * ns))
		Expect(m.GetElapsedTime(shmem.RoleSim)).To(Equal(simtime.Time(writes-1)*7*ns + 3*ns))
	})
})
