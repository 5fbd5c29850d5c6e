package plot

import (
	"fmt"
	"math"
	"strconv"

	chart "github.com/wcharczuk/go-chart/v2"
)

// niceStep rounds span/target up to 1, 2 or 5 times a power of ten.
func niceStep(span float64, target int) float64 {
	if span <= 0 || target <= 0 {
		return 1
	}
	raw := span / float64(target)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	for _, m := range []float64{1, 2, 5, 10} {
		if raw <= m*mag {
			return m * mag
		}
	}
	return 10 * mag
}

// linearTicks returns evenly spaced ticks covering [min, max] with about target intervals.
func linearTicks(min, max float64, target int) []chart.Tick {
	step := niceStep(max-min, target)
	var ticks []chart.Tick
	for k := math.Ceil(min / step); k*step <= max+step*1e-9; k++ {
		v := k * step
		ticks = append(ticks, chart.Tick{Value: v, Label: formatTick(v)})
	}
	return ticks
}

// decadeTicks labels integer log10 values as powers of ten, thinning to at most 8 labels.
func decadeTicks(lo, hi float64) []chart.Tick {
	every := int(math.Ceil((hi - lo) / 8))
	if every < 1 {
		every = 1
	}
	var ticks []chart.Tick
	for e := int(lo); e <= int(hi); e += every {
		ticks = append(ticks, chart.Tick{Value: float64(e), Label: fmt.Sprintf("1e%d", e)})
	}
	return ticks
}

func formatTick(v float64) string {
	v = math.Round(v*1e6) / 1e6
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
