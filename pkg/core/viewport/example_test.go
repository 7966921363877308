package viewport_test

import (
	"fmt"

	"github.com/matzehuels/kintree/pkg/core/hierarchy"
	"github.com/matzehuels/kintree/pkg/core/kin"
	"github.com/matzehuels/kintree/pkg/core/layout"
	"github.com/matzehuels/kintree/pkg/core/viewport"
	"github.com/matzehuels/kintree/pkg/family/familytest"
)

func ExampleController() {
	people := familytest.New("A", "B", "C").
		Parent("A", "B").Parent("A", "C").People()
	root, _ := hierarchy.FromGraph(kin.Build(people))

	c := viewport.New(layout.Compute(root))
	c.OnActivate(func(id string) { fmt.Println("open editor for", id) })

	fmt.Println(c.Initialize(800, 600))
	c.OnPanZoomInput(viewport.Event{Seq: 1, Kind: viewport.ScaleTo, Scale: 5})
	fmt.Println(c.Transform().K)

	p, _ := c.ScreenPosition("C")
	c.OnNodeActivated(p)
	// Output:
	// translate(400,100) scale(0.8)
	// 2
	// open editor for C
}
