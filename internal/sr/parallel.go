// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package sr

import (
	"math"
	"sync/atomic"
)

// Runs fn for all indices 0..n-1 with at most threads goroutines at a time.
// Returns the error of the lowest failing index. After a failure, higher
// indices are skipped, lower ones still run so the result is deterministic
func parallelFor(n, threads int, fn func(i int) error) error {
	if threads < 1 {
		threads = 1
	}
	errs := make([]error, n)
	var lowestFailed atomic.Int64
	lowestFailed.Store(math.MaxInt64)

	limiter := make(chan bool, threads)
	for i := 0; i < n; i++ {
		if int64(i) > lowestFailed.Load() {
			break
		}
		limiter <- true
		go func(i int) {
			defer func() { <-limiter }()
			if int64(i) > lowestFailed.Load() {
				return
			}
			if errs[i] = fn(i); errs[i] != nil {
				for {
					cur := lowestFailed.Load()
					if int64(i) >= cur || lowestFailed.CompareAndSwap(cur, int64(i)) {
						break
					}
				}
			}
		}(i)
	}
	for i := 0; i < cap(limiter); i++ { // wait for goroutines to finish
		limiter <- true
	}

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
