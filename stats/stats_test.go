package stats_test

import (
	"database/sql"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dramperf/stats"
	"github.com/sarchlab/dramperf/timing/simtime"
)

var _ = Describe("Registry", func() {
	var r *stats.Registry

	BeforeEach(func() {
		r = stats.NewRegistry()
	})

	It("should read metrics at snapshot time", func() {
		var count uint64
		var total simtime.Time

		r.RegisterMetric("dram", 0, "num-accesses", stats.Uint64(&count))
		r.RegisterMetric("dram", 0, "total-access-latency", stats.Time(&total))

		count = 3
		total = 450 * simtime.Nanosecond

		v, ok := r.Lookup("dram", 0, "num-accesses")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(3.0))

		v, ok = r.Lookup("dram", 0, "total-access-latency")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(float64(450 * simtime.Nanosecond)))
	})

	It("should report missing metrics", func() {
		_, ok := r.Lookup("dram", 1, "num-accesses")
		Expect(ok).To(BeFalse())
	})

	It("should sort snapshots by object, index and name", func() {
		one := stats.MetricFunc(func() float64 { return 1 })
		r.RegisterMetric("shmem", 0, "b", one)
		r.RegisterMetric("dram", 1, "a", one)
		r.RegisterMetric("dram", 0, "z", one)
		r.RegisterMetric("dram", 0, "a", one)

		samples := r.Snapshot()
		Expect(samples).To(HaveLen(4))
		Expect(samples[0]).To(Equal(stats.Sample{Object: "dram", Index: 0, Name: "a", Value: 1}))
		Expect(samples[1].Name).To(Equal("z"))
		Expect(samples[2].Index).To(Equal(1))
		Expect(samples[3].Object).To(Equal("shmem"))
	})

	It("should replace a metric registered twice", func() {
		r.RegisterMetric("dram", 0, "a", stats.MetricFunc(func() float64 { return 1 }))
		r.RegisterMetric("dram", 0, "a", stats.MetricFunc(func() float64 { return 2 }))

		Expect(r.Len()).To(Equal(1))
		v, _ := r.Lookup("dram", 0, "a")
		Expect(v).To(Equal(2.0))
	})
})

var _ = Describe("SQLiteExporter", func() {
	It("should write a snapshot tagged with the run id", func() {
		path := filepath.Join(GinkgoT().TempDir(), "stats.sqlite3")

		r := stats.NewRegistry()
		var count uint64 = 7
		r.RegisterMetric("dram", 2, "num-accesses", stats.Uint64(&count))

		e, err := stats.NewSQLiteExporter(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(e.RunID()).NotTo(BeEmpty())
		Expect(e.Export(r)).To(Succeed())
		Expect(e.Close()).To(Succeed())

		db, err := sql.Open("sqlite3", path)
		Expect(err).NotTo(HaveOccurred())
		defer db.Close()

		var runID, object, name string
		var idx int
		var value float64
		err = db.QueryRow("SELECT run_id, object, idx, name, value FROM metrics").
			Scan(&runID, &object, &idx, &name, &value)
		Expect(err).NotTo(HaveOccurred())
		Expect(runID).To(Equal(e.RunID()))
		Expect(object).To(Equal("dram"))
		Expect(idx).To(Equal(2))
		Expect(name).To(Equal("num-accesses"))
		Expect(value).To(Equal(7.0))
	})
})
