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

package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mlnoga/slantrange/internal/sr"
)

func TestResultLabel(t *testing.T) {
	tests := []struct {
		res  *sr.Result
		err  error
		want string
	}{
		{&sr.Result{}, nil, "ok"},
		{&sr.Result{Copied: true}, nil, "copied"},
		{&sr.Result{Warnings: []string{"w"}}, nil, "warning"},
		{nil, fmt.Errorf("3: %w", sr.ErrEmptyImage), "empty_image"},
		{nil, fmt.Errorf("3: %w", sr.ErrUnsupportedGeometry), "unsupported_geometry"},
		{nil, fmt.Errorf("grid: %w", sr.ErrUnresolvableGeometry), "unresolvable_geometry"},
		{nil, sr.ErrGridFitInconsistency, "grid_fit_inconsistency"},
		{nil, sr.ErrAccuracyExceeded, "accuracy_exceeded"},
		{nil, sr.ErrInsufficientMemory, "insufficient_memory"},
		{nil, errors.New("disk full"), "error"},
	}
	for _, tt := range tests {
		if got := resultLabel(tt.res, tt.err); got != tt.want {
			t.Errorf("resultLabel(%v, %v) = %q, want %q", tt.res, tt.err, got, tt.want)
		}
	}
}

func TestObserveConversion(t *testing.T) {
	before := testutil.ToFloat64(conversionsTotal.WithLabelValues("ok"))
	pixelsBefore := testutil.ToFloat64(outputPixels)

	res := &sr.Result{Plan: sr.Plan{OutLines: 10, OutSamples: 20}, Report: sr.Report{MaxSquaredError: 0.01}}
	ObserveConversion(res, nil, time.Second)
	ObserveConversion(nil, sr.ErrEmptyImage, time.Millisecond)

	if got := testutil.ToFloat64(conversionsTotal.WithLabelValues("ok")) - before; got != 1 {
		t.Errorf("ok conversions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(outputPixels) - pixelsBefore; got != 200 {
		t.Errorf("output pixels = %v, want 200", got)
	}
}
