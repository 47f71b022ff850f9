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
	"errors"
	"testing"
)

func TestThresholdsAssess(t *testing.T) {
	cfg := DefaultConfig()
	th := cfg.Thresholds()
	base := cfg.Threshold

	tcs := []struct {
		name     string
		report   Report
		warnings int
		fatal    bool
	}{
		{"clean", Report{MaxSquaredError: 0.01, AverageSquaredError: 0.001}, 0, false},
		{"average at threshold", Report{MaxSquaredError: 0.5, AverageSquaredError: base}, 1, false},
		{"average at twice the outer multiple", Report{MaxSquaredError: 0.5, AverageSquaredError: 2 * cfg.FailAvg * base}, 0, true},
		{"max at inner multiple", Report{MaxSquaredError: cfg.WarnMax * base, AverageSquaredError: 0.001}, 0, false},
		{"max above inner multiple", Report{MaxSquaredError: 1.01 * cfg.WarnMax * base, AverageSquaredError: 0.001}, 1, false},
		{"max above outer multiple", Report{MaxSquaredError: 1.01 * cfg.FailMax * base, AverageSquaredError: 0.001}, 0, true},
		{"both inner", Report{MaxSquaredError: 2 * cfg.WarnMax * base, AverageSquaredError: 2 * base}, 2, false},
	}
	for _, tc := range tcs {
		warnings, err := th.Assess(tc.report)
		if tc.fatal {
			if !errors.Is(err, ErrAccuracyExceeded) {
				t.Errorf("%s: err=%v; want %v", tc.name, err, ErrAccuracyExceeded)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: err=%v; want nil", tc.name, err)
		}
		if len(warnings) != tc.warnings {
			t.Errorf("%s: warnings=%v; want %d", tc.name, warnings, tc.warnings)
		}
	}
}

func TestMeasureAccuracyIdentity(t *testing.T) {
	plan := Plan{OutLines: 50, OutSamples: 40, TimeStart: 10, TimeIncrement: -0.1, SlantStart: 3, SlantIncrement: 0.5}
	g, err := BuildGrid(identityModel{}, plan, 10, 4)
	if err != nil {
		t.Fatal(err)
	}
	if err := VerifyGrid(g, identityModel{}, 0.002, 4); err != nil {
		t.Fatal(err)
	}
	r, err := MeasureAccuracy(g, identityModel{}, 4)
	if err != nil {
		t.Fatal(err)
	}
	if r.Count != 81 || r.Failed != 0 {
		t.Errorf("report %v; want 81 points, none failed", r)
	}
	if r.MaxSquaredError > 1e-20 {
		t.Errorf("report %v; want no error", r)
	}

	// knots cover the first and last output pixel exactly
	if g.Times[0] != 10 || g.Times[9] != plan.TimeAt(49) || g.Slants[0] != 3 || g.Slants[9] != plan.SlantAt(39) {
		t.Errorf("knots time %v..%v slant %v..%v", g.Times[0], g.Times[9], g.Slants[0], g.Slants[9])
	}
}

// Identity geometry without solutions for slant ranges above a limit
type clippedModel struct {
	identityModel
	maxSlant float64
}

func (m clippedModel) ToLatLon(time, slant float64) (float64, float64, error) {
	if slant > m.maxSlant {
		return 0, 0, ErrUnresolvableGeometry
	}
	return time, slant, nil
}

func TestMeasureAccuracyCountsFailures(t *testing.T) {
	plan := Plan{OutLines: 10, OutSamples: 10, TimeStart: 0, TimeIncrement: 1, SlantStart: 0, SlantIncrement: 1}
	g, err := BuildGrid(identityModel{}, plan, 4, 2)
	if err != nil {
		t.Fatal(err)
	}
	// knots at 0, 3, 6, 9; cell centres at 1.5, 4.5, 7.5
	r, err := MeasureAccuracy(g, clippedModel{maxSlant: 5}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if r.Count != 6 || r.Failed != 3 {
		t.Errorf("report %v; want 6 points, 3 failed", r)
	}

	if err := VerifyGrid(g, clippedModel{maxSlant: 5}, 0.002, 2); !errors.Is(err, ErrUnresolvableGeometry) {
		t.Errorf("verify err=%v; want %v", err, ErrUnresolvableGeometry)
	}
	if _, err := BuildGrid(clippedModel{maxSlant: 5}, plan, 4, 2); !errors.Is(err, ErrUnresolvableGeometry) {
		t.Errorf("build err=%v; want %v", err, ErrUnresolvableGeometry)
	}
}

func TestParallelForLowestError(t *testing.T) {
	errA, errB := errors.New("a"), errors.New("b")
	for threads := 1; threads <= 8; threads++ {
		err := parallelFor(100, threads, func(i int) error {
			switch i {
			case 37:
				return errA
			case 60:
				return errB
			}
			return nil
		})
		if err != errA {
			t.Errorf("threads %d: err=%v; want %v", threads, err, errA)
		}
	}
}
