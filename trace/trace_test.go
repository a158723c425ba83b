package trace_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dramperf/timing/simtime"
	"github.com/sarchlab/dramperf/trace"
)

const ns = simtime.Nanosecond

var _ = Describe("CSV", func() {
	It("should parse and sort records", func() {
		in := `arrival,requester,addr,size,op
# comment
120ns, 1, 0x2000, 64, W
100ns, 0, 4096, 64, r
`
		t, err := trace.ReadCSV(strings.NewReader(in))
		Expect(err).NotTo(HaveOccurred())
		Expect(t).To(Equal(trace.Trace{
			{Arrival: 100 * ns, Requester: 0, Addr: 0x1000, Size: 64},
			{Arrival: 120 * ns, Requester: 1, Addr: 0x2000, Size: 64, Write: true},
		}))
	})

	It("should accept traces without a header", func() {
		t, err := trace.ReadCSV(strings.NewReader("1us,0,0,8,R\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(t).To(HaveLen(1))
		Expect(t[0].Arrival).To(Equal(1000 * ns))
	})

	It("should reject malformed lines", func() {
		for _, in := range []string{
			"soon,0,0,64,R\n",
			"1ns,x,0,64,R\n",
			"1ns,0,zz,64,R\n",
			"1ns,0,0,0,R\n",
			"1ns,0,0,64,X\n",
			"1ns,0,0,64\n",
		} {
			_, err := trace.ReadCSV(strings.NewReader(in))
			Expect(err).To(HaveOccurred(), in)
		}
	})

	It("should read back what it writes", func() {
		t := trace.Trace{
			{Arrival: 5 * ns, Requester: 2, Addr: 0x40, Size: 64, Write: true},
			{Arrival: 1500 * ns, Requester: 0, Addr: 0x80, Size: 32},
		}

		buf := new(bytes.Buffer)
		Expect(trace.WriteCSV(buf, t)).To(Succeed())

		back, err := trace.ReadCSV(buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(back).To(Equal(t))
	})
})

var _ = Describe("Trace", func() {
	It("should split by requester", func() {
		t := trace.Trace{
			{Arrival: 1, Requester: 0},
			{Arrival: 2, Requester: 1},
			{Arrival: 3, Requester: 5},
			{Arrival: 4, Requester: 0},
		}

		streams, leftover := t.ByRequester(2)
		Expect(streams).To(HaveLen(2))
		Expect(streams[0]).To(HaveLen(2))
		Expect(streams[1]).To(HaveLen(1))
		Expect(leftover).To(ConsistOf(trace.Record{Arrival: 3, Requester: 5}))
	})
})

var _ = Describe("Generator", func() {
	It("should produce ordered traffic for every core", func() {
		g := trace.DefaultGenerator()
		g.Cores = 3
		g.AccessesPerCore = 500

		t := g.Generate()
		Expect(t).To(HaveLen(1500))
		Expect(t.IsSorted()).To(BeTrue())

		streams, leftover := t.ByRequester(3)
		Expect(leftover).To(BeEmpty())
		for core, s := range streams {
			Expect(s).To(HaveLen(500))
			for _, r := range s {
				Expect(r.Size).To(Equal(uint64(64)))
				Expect(r.Addr % 64).To(BeZero())
				Expect(r.Addr / g.Footprint).To(Equal(uint64(core)))
			}
		}
	})

	It("should roughly honour the mean interarrival time", func() {
		g := trace.DefaultGenerator()
		g.Cores = 1
		g.AccessesPerCore = 5000

		t := g.Generate()
		mean := float64(t[len(t)-1].Arrival) / float64(len(t))
		Expect(mean).To(BeNumerically("~", float64(g.MeanInterarrival), 0.1*float64(g.MeanInterarrival)))
	})
})
