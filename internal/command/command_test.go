package command

import "testing"

func TestLevel(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want uint8
	}{
		{"nil", nil, 0},
		{"byte", Byte(200), 200},
		{"word uses high byte", Word(0x80FF), 0x80},
		{"rgb brightest component", RGB{R: 10, G: 240, B: 30}, 240},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Level(tt.cmd); got != tt.want {
				t.Errorf("Level() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestColor(t *testing.T) {
	if got := Color(Byte(9)); got != (RGB{9, 9, 9}) {
		t.Errorf("Color(Byte) = %v, want grey", got)
	}
	if got := Color(RGB{1, 2, 3}); got != (RGB{1, 2, 3}) {
		t.Errorf("Color(RGB) = %v", got)
	}
	if got := Color(nil); got != (RGB{}) {
		t.Errorf("Color(nil) = %v, want black", got)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{nil, "none"},
		{Byte(7), "byte(7)"},
		{Word(300), "word(300)"},
		{RGB{1, 2, 3}, "rgb(1,2,3)"},
	}
	for _, tt := range tests {
		if got := Describe(tt.cmd); got != tt.want {
			t.Errorf("Describe(%v) = %q, want %q", tt.cmd, got, tt.want)
		}
	}
}
