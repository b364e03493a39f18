package layout_test

import (
	"fmt"
	"math"

	"github.com/matzehuels/overlay3d/pkg/layout"
)

func ExampleStep() {
	// Four glyphs without spacing split the circle into quarters.
	fmt.Printf("%.4f\n", layout.Step(4, 0))
	fmt.Println(layout.Step(4, 0) == math.Pi/2)
	// Output:
	// 1.5708
	// true
}
