// Package visualiser renders planning cycles for offline inspection: a
// PNG plot of the road matrix, cost and trajectory (gonum/plot), and an
// interactive HTML cost heatmap (go-echarts).
package visualiser
