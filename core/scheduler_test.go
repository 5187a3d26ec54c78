package core

import "testing"

func recordingTimer(wake Timestamp, log *[]Timestamp) *Timer {
	return &Timer{
		WakeTime: wake,
		Handler: func(t *Timer, now Timestamp) uint8 {
			*log = append(*log, t.WakeTime)
			return SF_DONE
		},
	}
}

func TestTimerListDispatchOrder(t *testing.T) {
	var list TimerList
	var fired []Timestamp

	list.Schedule(recordingTimer(300, &fired))
	list.Schedule(recordingTimer(100, &fired))
	list.Schedule(recordingTimer(200, &fired))

	if next, ok := list.Next(); !ok || next != 100 {
		t.Errorf("Expected next wake 100, got %d (ok=%v)", next, ok)
	}

	if n := list.Dispatch(50); n != 0 {
		t.Errorf("Expected no timers due at 50, %d fired", n)
	}

	if n := list.Dispatch(250); n != 2 {
		t.Errorf("Expected 2 timers due at 250, %d fired", n)
	}
	if len(fired) != 2 || fired[0] != 100 || fired[1] != 200 {
		t.Errorf("Expected [100 200], got %v", fired)
	}

	list.Dispatch(1000)
	if len(fired) != 3 || fired[2] != 300 {
		t.Errorf("Expected 300 to fire last, got %v", fired)
	}
	if list.Len() != 0 {
		t.Errorf("Expected empty list, got %d", list.Len())
	}
}

func TestTimerListEqualWakeTimesKeepOrder(t *testing.T) {
	var list TimerList
	var order []int

	for i := 0; i < 3; i++ {
		id := i
		list.Schedule(&Timer{
			WakeTime: 100,
			Handler: func(t *Timer, now Timestamp) uint8 {
				order = append(order, id)
				return SF_DONE
			},
		})
	}

	list.Dispatch(100)
	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Errorf("Expected FIFO order for equal wake times, got %v", order)
	}
}

func TestTimerListCancel(t *testing.T) {
	var list TimerList
	var fired []Timestamp

	a := recordingTimer(100, &fired)
	b := recordingTimer(200, &fired)
	list.Schedule(a)
	list.Schedule(b)

	if !list.Cancel(b) {
		t.Error("Cancel of a scheduled timer should succeed")
	}
	if list.Cancel(b) {
		t.Error("Second cancel should report the timer as not scheduled")
	}

	list.Dispatch(500)
	if len(fired) != 1 || fired[0] != 100 {
		t.Errorf("Expected only 100 to fire, got %v", fired)
	}
	if list.Cancel(a) {
		t.Error("Cancel after firing should report false")
	}
}

func TestTimerListRescheduleSameTimer(t *testing.T) {
	var list TimerList
	var fired []Timestamp

	tm := recordingTimer(100, &fired)
	list.Schedule(tm)

	// Scheduling again moves it instead of linking it twice
	tm.WakeTime = 400
	list.Schedule(tm)
	if list.Len() != 1 {
		t.Fatalf("Expected 1 timer, got %d", list.Len())
	}

	list.Dispatch(300)
	if len(fired) != 0 {
		t.Errorf("Timer should have moved to 400, fired %v", fired)
	}
	list.Dispatch(400)
	if len(fired) != 1 {
		t.Errorf("Expected timer to fire at 400, fired %v", fired)
	}
}

func TestTimerListHandlerReschedule(t *testing.T) {
	var list TimerList
	count := 0

	list.Schedule(&Timer{
		WakeTime: 10,
		Handler: func(t *Timer, now Timestamp) uint8 {
			count++
			if count < 3 {
				t.WakeTime += 10
				return SF_RESCHEDULE
			}
			return SF_DONE
		},
	})

	list.Dispatch(15)
	if count != 1 {
		t.Errorf("Expected 1 run by 15, got %d", count)
	}
	list.Dispatch(100)
	if count != 3 {
		t.Errorf("Expected 3 runs by 100, got %d", count)
	}
	if list.Len() != 0 {
		t.Error("Timer returning SF_DONE should leave the list")
	}
}
