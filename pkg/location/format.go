package location

import (
	"fmt"
	"math"
)

// FormatDistance renders meters as "850m" below a kilometer and "1.2km" above.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%dm", int(math.Round(meters)))
	}
	return fmt.Sprintf("%.1fkm", meters/1000)
}
