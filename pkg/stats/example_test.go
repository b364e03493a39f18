package stats_test

import (
	"fmt"

	"github.com/matzehuels/overlay3d/pkg/stats"
)

func ExampleSummarize() {
	s := stats.Empty()
	s.TotalVideos = 4
	s.Names = map[string]int64{"Zeynep": 1, "Ali": 2, "Can": 1}
	s.HourlyStats = map[string]int64{"9": 1, "10": 3}

	sum := stats.Summarize(s, 2, 0)
	for _, n := range sum.TopNames {
		fmt.Println(n.Name, n.Count)
	}
	for _, b := range sum.HourlyStats {
		fmt.Println(b.Key, b.Count)
	}
	// Output:
	// Ali 2
	// Can 1
	// 9 1
	// 10 3
}
