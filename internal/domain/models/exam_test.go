package models

import (
	"testing"
	"time"
)

func TestExamTransitionForwardOnly(t *testing.T) {
	exam := &Exam{State: ExamStateNew}

	steps := []ExamState{ExamStateDataLoaded, ExamStateDataPushed, ExamStateReady, ExamStateFinished}
	for _, next := range steps {
		if err := exam.Transition(next); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}
	if !exam.IsFinished {
		t.Errorf("finishing must set IsFinished")
	}
}

func TestExamTransitionRejectsSkips(t *testing.T) {
	exam := &Exam{State: ExamStateNew}
	if err := exam.Transition(ExamStateDataPushed); err == nil {
		t.Errorf("skipping data_loaded must fail")
	}
	if exam.State != ExamStateNew {
		t.Errorf("failed transition must not change state, got %s", exam.State)
	}
}

func TestExamTransitionRejectsBackwards(t *testing.T) {
	exam := &Exam{State: ExamStateReady}
	if err := exam.Transition(ExamStateDataLoaded); err == nil {
		t.Errorf("backwards transition must fail")
	}
	if err := exam.Transition(ExamStateReady); err == nil {
		t.Errorf("self transition must fail")
	}
}

func TestExamShiftContainsInclusiveBounds(t *testing.T) {
	window := &ExamShift{AccessTime: "06:00:00", ExpireTime: "10:00:00"}

	at := func(h, m, s int) time.Time {
		return time.Date(2026, 5, 20, h, m, s, 0, time.Local)
	}

	if window.Contains(at(5, 59, 59)) {
		t.Errorf("05:59:59 is outside the window")
	}
	if !window.Contains(at(6, 0, 0)) {
		t.Errorf("06:00:00 opens the window")
	}
	if !window.Contains(at(8, 30, 0)) {
		t.Errorf("08:30:00 is inside the window")
	}
	if !window.Contains(at(10, 0, 0)) {
		t.Errorf("10:00:00 closes the window, still inside")
	}
	if window.Contains(at(10, 0, 1)) {
		t.Errorf("10:00:01 is outside the window")
	}
}

func TestDirectionFromDoor(t *testing.T) {
	if DirectionFromDoor(1) != DirectionEntry {
		t.Errorf("door 1 is entry")
	}
	if DirectionFromDoor(2) != DirectionExit {
		t.Errorf("door 2 is exit")
	}
	if DirectionFromDoor(3) != DirectionUnknown {
		t.Errorf("door 3 is unknown")
	}
}

func TestExamTurnstileRecomputeReady(t *testing.T) {
	b := &ExamTurnstile{ExpectedCount: 10, PushedPersonCount: 10, PushedImageCount: 9}
	b.RecomputeReady()
	if b.Ready {
		t.Errorf("missing image must keep the door not ready")
	}

	b.PushedImageCount = 10
	b.RecomputeReady()
	if !b.Ready {
		t.Errorf("all counters matching must mark the door ready")
	}

	empty := &ExamTurnstile{}
	empty.RecomputeReady()
	if empty.Ready {
		t.Errorf("a door expecting nobody is never ready")
	}
}
