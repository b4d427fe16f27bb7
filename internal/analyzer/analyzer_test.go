package analyzer_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/vsmkit/internal/analyzer"
	"github.com/san-kum/vsmkit/internal/fit"
	"github.com/san-kum/vsmkit/internal/loop"
)

// measuredTrace sweeps -20 -> 20 -> -20 Oe in 0.5 Oe steps. Each sweep follows
// the switching model with switching field +-hsw, and the instrument adds a
// constant field offset.
func measuredTrace(ms, hsw, hk, offset float64) loop.Trace {
	var t loop.Trace
	for i := -40; i <= 40; i++ {
		h := float64(i) * 0.5
		t = append(t, loop.Point{H: h, M: fit.Eval(h-offset, fit.Params{Ms: ms, Hsw: hsw, Hk: hk})})
	}
	for i := 39; i >= -40; i-- {
		h := float64(i) * 0.5
		t = append(t, loop.Point{H: h, M: fit.Eval(h-offset, fit.Params{Ms: ms, Hsw: -hsw, Hk: hk})})
	}
	return t
}

func rampLoop() loop.Loop {
	return loop.NewLoop(
		loop.Trace{{H: -10, M: -1}, {H: -5, M: -1}, {H: 0, M: 0}, {H: 5, M: 1}, {H: 10, M: 1}},
		loop.Trace{{H: 10, M: 1}, {H: 5, M: 1}, {H: 0, M: 0}, {H: -5, M: -1}, {H: -10, M: -1}},
	)
}

var _ = Describe("Analyzer", func() {
	var (
		ctx context.Context
		a   *analyzer.Analyzer
	)

	BeforeEach(func() {
		ctx = context.Background()
		a = analyzer.New(analyzer.DefaultOptions())
	})

	Describe("a five-point ramp loop", func() {
		It("reports Ms and Hk for the hard axis", func() {
			res, err := a.Analyze(ctx, rampLoop(), loop.Hard)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Ms).To(BeNumerically("~", 1, 1e-9))
			Expect(res.Hk).To(BeNumerically("~", 5, 1e-9))
			Expect(res.Offset).To(BeZero())
		})

		It("reports Ms, Hc, Mr and squareness for the easy axis", func() {
			res, err := a.Analyze(ctx, rampLoop(), loop.Easy)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Ms).To(BeNumerically("~", 1, 1e-9))
			Expect(res.Hc).To(BeNumerically("~", 0, 1e-9))
			Expect(res.Mr).To(BeNumerically("~", 0, 1e-12))
			Expect(res.Squareness).To(BeNumerically("~", 0, 1e-12))

			names := []string{}
			for _, v := range res.Values() {
				names = append(names, v.Name)
				Expect(v.OK).To(BeTrue())
			}
			Expect(names).To(Equal([]string{"ms", "hc", "mr", "sqr"}))
		})

		It("aligns fitted curves with the branch samples", func() {
			res, err := a.Analyze(ctx, rampLoop(), loop.Hard)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Fit.Up.Curve).To(HaveLen(res.Loop.Up.Len()))
			Expect(res.Fit.Down.Curve).To(HaveLen(res.Loop.Down.Len()))
			Expect(res.Fit.Up.Curve[2]).To(BeNumerically("~", 0, 1e-12))
		})
	})

	Describe("a raw trace with a field offset", func() {
		var trace loop.Trace

		BeforeEach(func() {
			trace = measuredTrace(1.2, 2, 3.3, 0.45)
		})

		It("removes the offset and recovers the switching parameters", func() {
			res, err := a.AnalyzeRaw(ctx, trace, loop.Easy)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Offset).To(BeNumerically("~", 0.45, 1e-9))
			Expect(res.Ms).To(BeNumerically("~", 1.2, 1e-6))
			Expect(res.Hc).To(BeNumerically("~", 2, 1e-6))
			Expect(res.Mr).To(BeNumerically("~", 1.2*2/3.3, 1e-6))
			Expect(res.Squareness).To(BeNumerically("~", 2/3.3, 1e-6))
			Expect(res.Estimates.Hc).To(BeNumerically("~", 2, 1e-9))
			Expect(res.Estimates.Slope).To(BeNumerically("~", 1.2/3.3, 1e-9))
		})

		It("fits Hk on the hard axis", func() {
			res, err := a.AnalyzeRaw(ctx, trace, loop.Hard)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Hk).To(BeNumerically("~", 3.3, 1e-6))
			Expect(res.Scalars()).To(HaveKey("hk"))
			Expect(res.Scalars()).NotTo(HaveKey("hc"))
		})

		It("gives the same magnitudes when the moment sign is inverted", func() {
			neg := analyzer.DefaultOptions()
			neg.Negate = true
			res, err := analyzer.New(neg).AnalyzeRaw(ctx, trace.Negate(), loop.Easy)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Ms).To(BeNumerically("~", 1.2, 1e-6))
			Expect(res.Hc).To(BeNumerically("~", 2, 1e-6))
		})
	})

	Describe("failure isolation", func() {
		It("keeps the easy axis when the hard-axis data is corrupted", func() {
			hard := measuredTrace(1, 0, 4, 0)
			hard[10].M = math.NaN()

			out := a.AnalyzeSample(ctx, loop.Sample{
				Name: "film-7",
				Easy: measuredTrace(1.2, 2, 3.3, 0.45),
				Hard: hard,
			})

			Expect(out.Name).To(Equal("film-7"))
			Expect(out.Easy.OK()).To(BeTrue())
			Expect(out.Easy.Hc).To(BeNumerically("~", 2, 1e-6))
			Expect(out.Hard.Err).To(MatchError(loop.ErrInvalidTrace))
			for _, v := range out.Hard.Values() {
				Expect(v.OK).To(BeFalse())
			}
			Expect(out.Hard.Scalars()).To(HaveKeyWithValue("hk", BeNil()))
		})

		It("matches sequential analysis", func() {
			easy := measuredTrace(1.2, 2, 3.3, 0.45)
			hard := measuredTrace(0.8, 0.1, 6, -0.2)
			out := a.AnalyzeSample(ctx, loop.Sample{Easy: easy, Hard: hard})

			seqEasy, err := a.AnalyzeRaw(ctx, easy, loop.Easy)
			Expect(err).NotTo(HaveOccurred())
			seqHard, err := a.AnalyzeRaw(ctx, hard, loop.Hard)
			Expect(err).NotTo(HaveOccurred())

			Expect(out.Easy.Values()).To(Equal(seqEasy.Values()))
			Expect(out.Hard.Values()).To(Equal(seqHard.Values()))
		})

		It("leaves an unmeasured axis empty", func() {
			out := a.AnalyzeSample(ctx, loop.Sample{Easy: measuredTrace(1, 1, 2, 0.15)})
			Expect(out.Hard).To(BeNil())
			Expect(out.Axis(loop.Easy)).NotTo(BeNil())
		})

		It("reports a trace that never reverses as insufficient data", func() {
			var up loop.Trace
			for i := 0; i < 10; i++ {
				up = append(up, loop.Point{H: float64(i), M: float64(i) - 5})
			}
			res, err := a.AnalyzeRaw(ctx, up, loop.Easy)
			Expect(err).To(MatchError(loop.ErrInsufficientData))
			Expect(res.OK()).To(BeFalse())
		})
	})

	Describe("batch analysis", func() {
		It("keeps job order and records failures per job", func() {
			jobs := []analyzer.Job{
				{Name: "a", Trace: measuredTrace(1, 1, 2, 0.15)},
				{Name: "b", Trace: loop.Trace{{H: 0, M: 0}}},
				{Name: "c", Trace: measuredTrace(2, 1.5, 3, 0.1)},
			}
			results, err := a.AnalyzeBatch(ctx, jobs, loop.Easy, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			Expect(results[0].Name).To(Equal("a"))
			Expect(results[0].Result.OK()).To(BeTrue())
			Expect(results[1].Result.Err).To(MatchError(loop.ErrInsufficientData))
			Expect(results[2].Result.Ms).To(BeNumerically("~", 2, 1e-6))
		})

		It("stops on a canceled context", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := a.AnalyzeBatch(cctx, []analyzer.Job{{Name: "a", Trace: measuredTrace(1, 1, 2, 0.15)}}, loop.Easy, 1)
			Expect(err).To(MatchError(context.Canceled))
		})
	})
})
