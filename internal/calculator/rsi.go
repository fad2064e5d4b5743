package calculator

// RSI computes the relative strength index from simple rolling means of
// gains and losses over `period` close-to-close deltas. The first delta is
// undefined, so the first defined value sits at index `period`.
//
// When the average loss is zero the ratio is undefined: RSI is 100 if
// there were gains and 50 if prices did not move at all.
func RSI(closes []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	out := nanSeries(len(closes))
	for i := period; i < len(closes); i++ {
		var avgGain, avgLoss float64
		for j := i - period + 1; j <= i; j++ {
			change := closes[j] - closes[j-1]
			if change > 0 {
				avgGain += change
			} else {
				avgLoss -= change // make positive
			}
		}
		avgGain /= float64(period)
		avgLoss /= float64(period)
		out[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return out, nil
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50.0
		}
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
