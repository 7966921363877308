package sink

import "github.com/matzehuels/kintree/pkg/core/layout"

// RenderJSON writes the layout as indented JSON.
func RenderJSON(l layout.Layout) ([]byte, error) {
	return layout.Marshal(l)
}
