package contract

import (
	"strconv"
	"strings"
)

// RoundHalfUp rounds value to the given number of decimal places,
// rounding exact halves away from zero. The shortest decimal
// representation of the float is rounded as text so that values like
// 112.555 become 112.56 rather than falling on the binary midpoint.
func RoundHalfUp(value float64, places int) float64 {
	text := strconv.FormatFloat(value, 'f', -1, 64)
	if strings.ContainsAny(text, "eE") {
		// Magnitudes outside the 'f' shortest form carry no
		// meaningful decimals at snapshot precision.
		return value
	}
	neg := strings.HasPrefix(text, "-")
	if neg {
		text = text[1:]
	}
	intPart, fracPart, _ := strings.Cut(text, ".")
	if len(fracPart) <= places {
		return value
	}

	keep := fracPart[:places]
	roundUp := fracPart[places] >= '5'
	digits := intPart + keep
	if roundUp {
		digits = incrementDecimal(digits)
	}
	if len(digits) < places {
		digits = strings.Repeat("0", places-len(digits)) + digits
	}
	var rebuilt string
	if places == 0 {
		rebuilt = digits
	} else {
		rebuilt = digits[:len(digits)-places] + "." + digits[len(digits)-places:]
		if strings.HasPrefix(rebuilt, ".") {
			rebuilt = "0" + rebuilt
		}
	}
	if neg {
		rebuilt = "-" + rebuilt
	}
	out, err := strconv.ParseFloat(rebuilt, 64)
	if err != nil {
		return value
	}
	return out
}

func incrementDecimal(digits string) string {
	buf := []byte(digits)
	for i := len(buf) - 1; i >= 0; i-- {
		if buf[i] < '9' {
			buf[i]++
			return string(buf)
		}
		buf[i] = '0'
	}
	return "1" + string(buf)
}
