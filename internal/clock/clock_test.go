package clock

import "testing"

func TestPackUnpack(t *testing.T) {
	tests := []struct {
		name string
		time Time
	}{
		{"zero", Time{}},
		{"day one midnight", Time{Day: 1}},
		{"mid morning", Time{Day: 1, Hour: 9, Minute: 30}},
		{"end of day", Time{Day: 3, Hour: 23, Minute: 59}},
		{"large day", Time{Day: 10000, Hour: 12, Minute: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Unpack(Pack(tt.time))
			if got != tt.time {
				t.Errorf("Unpack(Pack(%v)) = %v", tt.time, got)
			}
		})
	}
}

func TestTime_Next(t *testing.T) {
	tests := []struct {
		name string
		in   Time
		want Time
	}{
		{"plain minute", Time{Day: 1, Hour: 9, Minute: 10}, Time{Day: 1, Hour: 9, Minute: 11}},
		{"minute rolls into hour", Time{Day: 1, Hour: 9, Minute: 59}, Time{Day: 1, Hour: 10, Minute: 0}},
		{"hour rolls into day", Time{Day: 1, Hour: 23, Minute: 59}, Time{Day: 2, Hour: 0, Minute: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Next(); got != tt.want {
				t.Errorf("%v.Next() = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTime_NextCoversWholeDay(t *testing.T) {
	cur := StartOfDay(1)
	for i := 0; i < TicksPerDay; i++ {
		cur = cur.Next()
	}
	want := StartOfDay(2)
	if cur != want {
		t.Errorf("after %d ticks got %v, want %v", TicksPerDay, cur, want)
	}
}

func TestTime_MinuteOfDay(t *testing.T) {
	if got := (Time{Day: 1, Hour: 0, Minute: 0}).MinuteOfDay(); got != 0 {
		t.Errorf("midnight MinuteOfDay() = %d, want 0", got)
	}
	if got := (Time{Day: 1, Hour: 8, Minute: 15}).MinuteOfDay(); got != 495 {
		t.Errorf("08:15 MinuteOfDay() = %d, want 495", got)
	}
	if got := (Time{Day: 1, Hour: 23, Minute: 59}).MinuteOfDay(); got != TicksPerDay-1 {
		t.Errorf("23:59 MinuteOfDay() = %d, want %d", got, TicksPerDay-1)
	}
}

func TestTime_Before(t *testing.T) {
	tests := []struct {
		name string
		a, b Time
		want bool
	}{
		{"earlier day", Time{Day: 1, Hour: 23}, Time{Day: 2}, true},
		{"same day earlier hour", Time{Day: 2, Hour: 8}, Time{Day: 2, Hour: 9}, true},
		{"same instant", Time{Day: 2, Hour: 8, Minute: 5}, Time{Day: 2, Hour: 8, Minute: 5}, false},
		{"later minute", Time{Day: 2, Hour: 8, Minute: 6}, Time{Day: 2, Hour: 8, Minute: 5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Before(tt.b); got != tt.want {
				t.Errorf("%v.Before(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestTime_WithinHours(t *testing.T) {
	tests := []struct {
		name string
		time Time
		want bool
	}{
		{"before opening", Time{Day: 1, Hour: 7, Minute: 59}, false},
		{"at opening", Time{Day: 1, Hour: 8}, true},
		{"mid day", Time{Day: 1, Hour: 12, Minute: 30}, true},
		{"last open minute", Time{Day: 1, Hour: 18, Minute: 59}, true},
		{"at closing", Time{Day: 1, Hour: 19}, false},
		{"late evening", Time{Day: 1, Hour: 22}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.time.WithinHours(8, 19); got != tt.want {
				t.Errorf("%v.WithinHours(8, 19) = %v, want %v", tt.time, got, tt.want)
			}
		})
	}
}

func TestTime_String(t *testing.T) {
	got := Time{Day: 2, Hour: 9, Minute: 5}.String()
	if got != "day 2 09:05" {
		t.Errorf("String() = %q, want %q", got, "day 2 09:05")
	}
}
