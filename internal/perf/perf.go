package perf

import "math"

// 退化输入不返回 NaN/Inf，而是按约定回落到固定值，
// 下游（排序、阈值比较、前端展示）依赖这一行为。

// Volatility 返回样本标准差（n-1 分母），样本数不足 2 时返回 0。
func Volatility(returns []float64) float64 {
	n := len(returns)
	if n < 2 {
		return 0
	}
	mean := Mean(returns)
	sum := 0.0
	for _, r := range returns {
		d := r - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(n-1))
}

// Sharpe 返回 avgReturn/volatility，波动率为 0 时返回 0。
func Sharpe(avgReturn, volatility float64) float64 {
	if volatility == 0 {
		return 0
	}
	return avgReturn / volatility
}

// Sortino 只惩罚下行波动：均值收益 ÷ 下行偏差。
// 无负收益时，均值为正返回 10，否则返回 0。
func Sortino(returns []float64) float64 {
	avg := Mean(returns)
	sumSq := 0.0
	negatives := 0
	for _, r := range returns {
		if r < 0 {
			sumSq += r * r
			negatives++
		}
	}
	if negatives == 0 {
		if avg > 0 {
			return 10
		}
		return 0
	}
	downside := math.Sqrt(sumSq / float64(negatives))
	if downside == 0 {
		return 0
	}
	return avg / downside
}

// Calmar 返回 totalReturn/maxDrawdown，最大回撤为 0 时返回 0。
func Calmar(totalReturn, maxDrawdown float64) float64 {
	if maxDrawdown == 0 {
		return 0
	}
	return totalReturn / maxDrawdown
}

// ProfitFactor 返回毛利 ÷ |毛损|。无亏损时：有盈利返回 10，否则返回 1。
func ProfitFactor(returns []float64) float64 {
	profits := 0.0
	losses := 0.0
	for _, r := range returns {
		if r > 0 {
			profits += r
		} else if r < 0 {
			losses += r
		}
	}
	if losses == 0 {
		if profits > 0 {
			return 10
		}
		return 1
	}
	return profits / math.Abs(losses)
}

// Mean 返回算术平均，空序列返回 0。
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
