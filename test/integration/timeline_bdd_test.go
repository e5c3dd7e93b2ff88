//go:build integration

package integration

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/eliteGoblin/focusd/tracklog/internal/config"
	"github.com/eliteGoblin/focusd/tracklog/internal/domain"
	"github.com/eliteGoblin/focusd/tracklog/internal/infra"
	"github.com/eliteGoblin/focusd/tracklog/internal/usecase"
	"github.com/eliteGoblin/focusd/tracklog/test/fixtures"
)

var day = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

var _ = Describe("Timeline", func() {
	var (
		tmpDir  string
		install *fixtures.TrackerInstall
		logs    *observer.ObservedLogs
		builder *usecase.TimelineBuilder
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "tracklog-integration-*")
		Expect(err).NotTo(HaveOccurred())

		install = fixtures.NewTrackerInstall(tmpDir)
		Expect(install.Create(day)).To(Succeed())

		var core zapcore.Core
		core, logs = observer.New(zapcore.DebugLevel)
		diag := infra.NewZapDiagnostics(zap.New(core))
		builder = usecase.NewTimelineBuilder(config.Default().ReconcilerOptions(), diag)
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("Build", func() {
		Context("when the pair is well formed", func() {
			It("should produce the visible timeline", func() {
				res, err := builder.Build(install.Base())
				Expect(err).NotTo(HaveOccurred())

				Expect(res.Events).To(Equal(11))
				Expect(res.Intervals).To(HaveLen(12))
				Expect(res.Hidden).To(Equal(2))
				Expect(res.Dropped).To(Equal(1))

				for _, iv := range res.Intervals {
					Expect(iv.Domain).NotTo(Equal(domain.KindRuntime))
					Expect(iv.Domain).NotTo(Equal(domain.KindActivity))
					Expect(iv.End).NotTo(BeTemporally("<", iv.Start))
				}
				Expect(logs.FilterMessage("reconciled timeline").Len()).To(Equal(1))
			})

			It("should be repeatable", func() {
				first, err := builder.Build(install.Base())
				Expect(err).NotTo(HaveOccurred())
				second, err := builder.Build(install.Base())
				Expect(err).NotTo(HaveOccurred())
				Expect(second.Intervals).To(Equal(first.Intervals))
			})
		})

		Context("when the registry is missing", func() {
			It("should report an IO error", func() {
				Expect(install.RemoveRegistry()).To(Succeed())

				_, err := builder.Build(install.Base())
				Expect(errors.Is(err, domain.ErrIO)).To(BeTrue())
				Expect(logs.FilterMessage("file not found").Len()).To(Equal(1))
			})
		})

		Context("when the trace is corrupted", func() {
			It("should report a format error", func() {
				Expect(install.CorruptTrace()).To(Succeed())

				_, err := builder.Build(install.Base())
				Expect(errors.Is(err, domain.ErrFormat)).To(BeTrue())
				Expect(logs.FilterMessage("failed to parse trace").Len()).To(Equal(1))
			})
		})
	})

	Describe("Export and archive", func() {
		It("should round-trip the timeline through JSON", func() {
			res, err := builder.Build(install.Base())
			Expect(err).NotTo(HaveOccurred())

			out := filepath.Join(tmpDir, "timeline.json")
			Expect(infra.NewJSONExporter(out).Export(install.Base(), res.Intervals)).To(Succeed())

			doc, err := infra.ReadTimelineDocument(out)
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Source).To(Equal(install.Base()))
			Expect(doc.Intervals).To(HaveLen(len(res.Intervals)))
			Expect(doc.Intervals[1].Label).To(BeNil())
		})

		It("should persist the timeline in the encrypted archive", func() {
			res, err := builder.Build(install.Base())
			Expect(err).NotTo(HaveOccurred())

			archive, err := infra.OpenArchive(filepath.Join(tmpDir, "archive"))
			Expect(err).NotTo(HaveOccurred())
			defer archive.Close()

			ctx := context.Background()
			Expect(archive.Save(ctx, install.Base(), res.Intervals)).To(Succeed())

			loaded, err := archive.Load(ctx, install.Base())
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(HaveLen(len(res.Intervals)))
			for i := range loaded {
				Expect(loaded[i].Domain).To(Equal(res.Intervals[i].Domain))
				Expect(loaded[i].Label).To(Equal(res.Intervals[i].Label))
				Expect(loaded[i].Start).To(BeTemporally("==", res.Intervals[i].Start))
			}

			sources, err := archive.Sources(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(sources).To(ConsistOf(install.Base()))
		})
	})

	Describe("Options", func() {
		It("should keep hidden domains when configured", func() {
			cfg, err := config.Parse([]byte("include_hidden: true\nflush_open_slots: true\n"))
			Expect(err).NotTo(HaveOccurred())

			res, err := usecase.NewTimelineBuilder(cfg.ReconcilerOptions(), nil).Build(install.Base())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Hidden).To(BeZero())
			Expect(res.Dropped).To(BeZero())

			last := res.Intervals[len(res.Intervals)-1]
			Expect(last.Domain).To(Equal(domain.KindRuntime))
			Expect(last.LabelOr("")).To(Equal(domain.ShutdownEntity))
		})
	})
})
