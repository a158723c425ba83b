package benchmarks

import (
	"github.com/sarchlab/dramperf/timing/simtime"
	"github.com/sarchlab/dramperf/trace"
)

// With the default controller a 64B access takes 8ns of bandwidth time, so a
// single core saturates its controller at one access every 8ns.

// GetMicrobenchmarks returns the standard set of workloads. Each one targets a
// specific behavior of the queue models or the cache filter.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		lightLoad(),
		moderateLoad(),
		saturated("history_list"),
		saturated("basic"),
		saturated("windowed_mg1"),
		noQueue(),
		llcFiltered(),
		multiCore(),
	}
}

// GetCoreBenchmarks returns a minimal set of 3 workloads for quick validation.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		lightLoad(),
		saturated("history_list"),
		llcFiltered(),
	}
}

func workload(accesses int, interarrival simtime.Time) trace.Generator {
	return trace.Generator{
		Cores:            1,
		AccessesPerCore:  accesses,
		MeanInterarrival: interarrival,
		Size:             64,
		WriteFraction:    0.3,
		Footprint:        64 * 1024 * 1024,
	}
}

// 1. Light Load - Queue rarely builds up
func lightLoad() Benchmark {
	return Benchmark{
		Name:        "light_load",
		Description: "Poisson traffic at 20% controller utilization",
		Workload:    workload(2000, 40*simtime.Nanosecond),
	}
}

// 2. Moderate Load - Queueing delay becomes visible
func moderateLoad() Benchmark {
	return Benchmark{
		Name:        "moderate_load",
		Description: "Poisson traffic at 50% controller utilization",
		Workload:    workload(2000, 16*simtime.Nanosecond),
	}
}

// 3. Saturated - Offered load equals controller bandwidth
func saturated(kind string) Benchmark {
	return Benchmark{
		Name:        "saturated_" + kind,
		Description: "Poisson traffic at full utilization, " + kind + " estimator",
		Overrides:   []string{"perf_model/dram/queue_model/type=" + kind},
		Workload:    workload(2000, 8*simtime.Nanosecond),
	}
}

// 4. No Queue - Latency is bandwidth time plus access cost only
func noQueue() Benchmark {
	return Benchmark{
		Name:        "no_queue",
		Description: "Saturating traffic with the queue model disabled",
		Overrides:   []string{"perf_model/dram/queue_model/enabled=false"},
		Workload:    workload(2000, 8*simtime.Nanosecond),
	}
}

// 5. LLC Filtered - A footprint that fits the last-level cache
func llcFiltered() Benchmark {
	w := workload(20000, 8*simtime.Nanosecond)
	w.Footprint = 64 * 1024

	return Benchmark{
		Name:        "llc_filtered",
		Description: "64KB footprint per core behind a 2MB last-level cache",
		Overrides: []string{
			"general/total_cores=2",
			"perf_model/llc/enabled=true",
		},
		Workload: w,
	}
}

// 6. Multi Core - Independent controllers under moderate load
func multiCore() Benchmark {
	return Benchmark{
		Name:        "multi_core",
		Description: "Four cores, each at 50% utilization of its own controller",
		Overrides:   []string{"general/total_cores=4"},
		Workload:    workload(2000, 16*simtime.Nanosecond),
	}
}
