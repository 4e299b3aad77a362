package meter

import (
	"strconv"
	"strings"
)

// formatDuration renders ns in the smallest unit that keeps roughly three
// significant figures: plain integer nanoseconds below 1000ns, else one
// decimal place in microseconds, milliseconds, or seconds.
func formatDuration(ns uint64) string {
	switch {
	case ns < 1_000:
		return strconv.FormatUint(ns, 10) + "ns"
	case ns < 1_000_000:
		return formatOneDecimal(float64(ns)/1_000) + "us"
	case ns < 1_000_000_000:
		return formatOneDecimal(float64(ns)/1_000_000) + "ms"
	default:
		return formatOneDecimal(float64(ns)/1_000_000_000) + "s"
	}
}

// formatRate renders a throughput (events per second) with an SI suffix.
func formatRate(perSecond float64) string {
	switch {
	case perSecond >= 1_000_000:
		return formatOneDecimal(perSecond/1_000_000) + "M/s"
	case perSecond >= 1_000:
		return formatOneDecimal(perSecond/1_000) + "k/s"
	default:
		return formatOneDecimal(perSecond) + "/s"
	}
}

func formatOneDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// formatIterFragment renders "n/N" when expected is set, "n" when only
// the count is non-zero, or "" when both are zero.
func formatIterFragment(current uint64, expected uint64, hasExpected bool) string {
	switch {
	case hasExpected:
		return strconv.FormatUint(current, 10) + "/" + strconv.FormatUint(expected, 10)
	case current != 0:
		return strconv.FormatUint(current, 10)
	default:
		return ""
	}
}

// formatContext renders the ordered context as a comma-separated
// key=value list, in insertion order.
func formatContext(ctx *orderedContext) string {
	if ctx == nil || ctx.Len() == 0 {
		return ""
	}
	var b strings.Builder
	first := true
	ctx.Range(func(k, v string) {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
	})
	return b.String()
}
