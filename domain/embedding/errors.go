package embedding

import "fmt"

// DimensionError reports model output wider than the configured target
// dimension. This is a deployment problem, not a request problem: the
// target dimension must be raised to at least the model's native width.
type DimensionError struct {
	Got  int
	Want int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("embedding: model produced %d dimensions, target is %d (refusing to truncate)", e.Got, e.Want)
}
