package main

import (
	"fmt"
	"math/rand"
)

// runWorkload drives n randomized allocate/deallocate cycles against
// the demo's List, holding a rolling window of outstanding blocks and
// occasionally freeing one to exercise pair-based release.
func runWorkload(d *demo, n int) error {
	var live [][]byte
	for i := 0; i < n; i++ {
		size := 16 + rand.Intn(512)
		b, ok := d.list.Allocate(size)
		if !ok {
			return fmt.Errorf("allocate(%d) failed at iteration %d", size, i)
		}
		printVerbose("allocate(%d) -> %d bytes\n", size, len(b))
		live = append(live, b)

		if len(live) > 4 && rand.Intn(3) == 0 {
			idx := rand.Intn(len(live))
			victim := live[idx]
			live = append(live[:idx], live[idx+1:]...)
			d.list.Deallocate(victim)
			printVerbose("deallocate(%d bytes)\n", len(victim))
		}
	}
	for _, b := range live {
		d.list.Deallocate(b)
	}
	return nil
}
