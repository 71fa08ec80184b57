package testerr_test

import (
	"errors"
	"testing"

	"github.com/willemschots/mailinglist/internal/errorz/testerr"
)

func Test_Calltracker(t *testing.T) {
	tests := map[string]struct {
		tracker *testerr.Calltracker
		want    []bool
	}{
		"ok, zero value never fails": {
			tracker: &testerr.Calltracker{},
			want:    []bool{false, false, false, false},
		},
		"ok, single failure": {
			tracker: &testerr.Calltracker{Err: testerr.Err, FailAt: 1},
			want:    []bool{false, true, false, false},
		},
		"ok, sticky failure": {
			tracker: &testerr.Calltracker{Err: testerr.Err, FailAt: 2, Sticky: true},
			want:    []bool{false, false, true, true},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			for i, wantFail := range tc.want {
				called := false
				got, err := testerr.CallValue(tc.tracker, func() (int, error) {
					called = true
					return i, nil
				})

				if wantFail {
					if !errors.Is(err, testerr.Err) || called || got != 0 {
						t.Errorf("call %d: expected failure without calling through, got %d, %v", i, got, err)
					}
					continue
				}

				if err != nil || !called || got != i {
					t.Errorf("call %d: expected call through, got %d, %v", i, got, err)
				}
			}

			if tc.tracker.Calls() != len(tc.want) {
				t.Errorf("got %d calls, want %d", tc.tracker.Calls(), len(tc.want))
			}
		})
	}

	t.Run("ok, failing trackers cover every call", func(t *testing.T) {
		trackers := testerr.FailingTrackers(testerr.Err, 3)
		if len(trackers) != 6 {
			t.Fatalf("got %d trackers, want 6", len(trackers))
		}

		names := map[string]bool{}
		for _, tr := range trackers {
			names[tr.String()] = true
		}

		if len(names) != 6 {
			t.Errorf("expected unique descriptions, got %v", names)
		}
	})
}
