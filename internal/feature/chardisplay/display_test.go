package chardisplay

import (
	"testing"

	"github.com/dshills/tagsource/internal/config"
)

func TestDisplayText(t *testing.T) {
	tests := []struct {
		name     string
		notation Notation
		unicode  bool
		r        rune
		want     string
		shown    bool
	}{
		{"nul caret", NotationCaret, true, 0x00, "^@", true},
		{"escape caret", NotationCaret, true, 0x1b, "^[", true},
		{"del caret", NotationCaret, true, 0x7f, "^?", true},
		{"tab", NotationCaret, true, '\t', "", false},
		{"newline", NotationCaret, true, '\n', "", false},
		{"carriage return", NotationCaret, true, '\r', "", false},
		{"letter", NotationCaret, true, 'a', "", false},
		{"escape hex", NotationHex, true, 0x1b, "<1b>", true},
		{"del hex", NotationHex, true, 0x7f, "<7f>", true},
		{"escape name", NotationName, true, 0x1b, "<ESC>", true},
		{"del name", NotationName, true, 0x7f, "<DEL>", true},
		{"zwsp caret falls back to hex", NotationCaret, true, 0x200b, "<200b>", true},
		{"zwsp name", NotationName, true, 0x200b, "<ZERO WIDTH SPACE>", true},
		{"soft hyphen name", NotationName, true, 0x00ad, "<SOFT HYPHEN>", true},
		{"bom hex", NotationHex, true, 0xfeff, "<feff>", true},
		{"c1 hex", NotationHex, true, 0x85, "<85>", true},
		{"line separator", NotationHex, true, 0x2028, "<2028>", true},
		{"zwsp unicode off", NotationCaret, false, 0x200b, "", false},
		{"c1 unicode off", NotationHex, false, 0x85, "", false},
		{"escape unicode off", NotationCaret, false, 0x1b, "^[", true},
		{"visible unicode", NotationHex, true, 'é', "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDisplay()
			d.SetNotation(tt.notation)
			d.SetUnicode(tt.unicode)

			got, shown := d.Text(tt.r)
			if shown != tt.shown || got != tt.want {
				t.Errorf("Text(%U) = %q, %v; want %q, %v", tt.r, got, shown, tt.want, tt.shown)
			}
		})
	}
}

func TestDisplaySettersNotifyOnChange(t *testing.T) {
	d := NewDisplay()
	calls := 0
	d.OnChanged(func() { calls++ })

	d.SetEnabled(true)
	d.SetNotation(NotationCaret)
	d.SetUnicode(true)
	if calls != 0 {
		t.Fatalf("unchanged settings notified %d times", calls)
	}

	d.SetEnabled(false)
	d.SetNotation(NotationHex)
	d.SetUnicode(false)
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDisplayApply(t *testing.T) {
	d := NewDisplay()
	calls := 0
	d.OnChanged(func() { calls++ })

	d.Apply(config.CharDisplayConfig{Enabled: false, Notation: "hex", Unicode: false})
	if calls != 1 {
		t.Fatalf("Apply notified %d times, want 1", calls)
	}
	if d.Enabled() || d.Notation() != NotationHex || d.Unicode() {
		t.Errorf("settings not applied: %v %v %v", d.Enabled(), d.Notation(), d.Unicode())
	}

	d.Apply(config.CharDisplayConfig{Enabled: false, Notation: "bogus", Unicode: false})
	if calls != 1 {
		t.Errorf("no-op Apply notified")
	}
	if d.Notation() != NotationHex {
		t.Errorf("unknown notation replaced %q", d.Notation())
	}
}

func TestParseNotation(t *testing.T) {
	for _, s := range []string{"caret", "HEX", "Name"} {
		if _, err := ParseNotation(s); err != nil {
			t.Errorf("ParseNotation(%q) error = %v", s, err)
		}
	}
	if _, err := ParseNotation("octal"); err == nil {
		t.Error("ParseNotation(octal) succeeded")
	}
}
