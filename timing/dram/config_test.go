package dram_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/dramperf/config"
	"github.com/sarchlab/dramperf/timing/dram"
	"github.com/sarchlab/dramperf/timing/queuemodel"
)

var _ = Describe("Config", func() {
	It("should have valid defaults", func() {
		c := dram.DefaultConfig()
		Expect(c.Validate()).To(Succeed())
		Expect(c.AccessCost).To(Equal(100 * ns))
		Expect(c.Freq()).To(Equal(1 * sim.GHz))
		Expect(c.QueueModel.Type).To(Equal(queuemodel.KindHistoryList))
	})

	It("should reject invalid values", func() {
		c := dram.DefaultConfig()
		c.BlockSize = 0
		Expect(c.Validate()).NotTo(Succeed())

		c = dram.DefaultConfig()
		c.FrequencyGHz = 0
		Expect(c.Validate()).NotTo(Succeed())

		c = dram.DefaultConfig()
		c.QueueModel.Type = "history_tree"
		Expect(c.Validate()).To(MatchError(queuemodel.ErrUnknownKind))

		c.QueueModel.Enabled = false
		Expect(c.Validate()).To(Succeed())
	})

	It("should clone independently", func() {
		c := dram.DefaultConfig()
		clone := c.Clone()
		clone.QueueModel.Type = queuemodel.KindBasic

		Expect(c.QueueModel.Type).To(Equal(queuemodel.KindHistoryList))
	})

	It("should overlay a config tree on the defaults", func() {
		tree, err := config.Parse([]byte(`
perf_model:
  dram:
    access_cost: 80ns
    queue_model:
      type: basic
`))
		Expect(err).NotTo(HaveOccurred())

		c, err := dram.ConfigFromTree(tree)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.AccessCost).To(Equal(80 * ns))
		Expect(c.QueueModel.Type).To(Equal(queuemodel.KindBasic))
		Expect(c.QueueModel.Enabled).To(BeTrue())
		Expect(c.Bandwidth).To(Equal(64.0))
	})

	It("should save and load", func() {
		path := filepath.Join(GinkgoT().TempDir(), "dram.json")

		c := dram.DefaultConfig()
		c.AccessCost = 45 * ns
		c.QueueModel.Window = 2 * 1000 * ns
		Expect(c.SaveConfig(path)).To(Succeed())

		loaded, err := dram.LoadConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(Equal(c))
	})

	It("should report unreadable files", func() {
		path := filepath.Join(GinkgoT().TempDir(), "bad.yaml")
		Expect(os.WriteFile(path, []byte("perf_model: ["), 0o644)).To(Succeed())

		_, err := dram.LoadConfig(path)
		Expect(err).To(HaveOccurred())
	})
})
