package validate

import (
	"strings"
	"testing"

	"github.com/ashureev/peerbot/internal/domain"
)

func TestSchool21Nick(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		valid bool
	}{
		{"valid", "validnick", "validnick", true},
		{"minimum length", "abcd", "abcd", true},
		{"maximum length", "abcdefghijklmnop", "abcdefghijklmnop", true},
		{"too short", "abc", "", false},
		{"too long", "abcdefghijklmnopq", "", false},
		{"digits rejected", "nick1234", "", false},
		{"cyrillic rejected", "никнейм", "", false},
		{"surrounding spaces trimmed", "  validnick  ", "validnick", true},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := School21Nick(tt.input)
			if tt.valid != (err == nil) {
				t.Fatalf("School21Nick(%q) err = %v, want valid=%v", tt.input, err, tt.valid)
			}
			if err != nil && !domain.IsValidation(err) {
				t.Errorf("School21Nick(%q) returned a non-validation error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("School21Nick(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSberchatNick(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"latin", "ivanov", true},
		{"cyrillic", "Иванов", true},
		{"digits", "ivanov2", true},
		{"single char", "a", true},
		{"spaces rejected", "ivan ov", false},
		{"punctuation rejected", "ivanov!", false},
		{"empty", "", false},
		{"too long", strings.Repeat("a", 257), false},
		{"max length", strings.Repeat("я", 256), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SberchatNick(tt.input); tt.valid != (err == nil) {
				t.Errorf("SberchatNick(%q) err = %v, want valid=%v", tt.input, err, tt.valid)
			}
		})
	}
}

func TestTelegramNick(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		valid bool
	}{
		{"plain", "ivanov_tg", "ivanov_tg", true},
		{"leading at stripped", "@ivanov_tg", "ivanov_tg", true},
		{"cyrillic", "Иванов", "Иванов", true},
		{"too long", strings.Repeat("a", 33), "", false},
		{"spaces rejected", "ivan ov", "", false},
		{"only at", "@", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TelegramNick(tt.input)
			if tt.valid != (err == nil) {
				t.Fatalf("TelegramNick(%q) err = %v, want valid=%v", tt.input, err, tt.valid)
			}
			if got != tt.want {
				t.Errorf("TelegramNick(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTeamName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"latin with digits", "Team 21", true},
		{"cyrillic", "Платежный счет", true},
		{"dots rejected", "Lab.SberPay.NFC", false},
		{"too long", strings.Repeat("a", 257), false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := TeamName(tt.input); tt.valid != (err == nil) {
				t.Errorf("TeamName(%q) err = %v, want valid=%v", tt.input, err, tt.valid)
			}
		})
	}
}

func TestRoleName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"latin", "Backend developer", true},
		{"cyrillic", "Владелец продукта", true},
		{"digits rejected", "Senior 1", false},
		{"too long", strings.Repeat("a", 129), false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := RoleName(tt.input); tt.valid != (err == nil) {
				t.Errorf("RoleName(%q) err = %v, want valid=%v", tt.input, err, tt.valid)
			}
		})
	}
}

func TestProjectDescription(t *testing.T) {
	if _, err := ProjectDescription(strings.Repeat("x", 1025)); err == nil {
		t.Error("expected error for description over 1024 chars")
	}
	got, err := ProjectDescription("Платежи, NFC, и все такое — без ограничений на символы!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == "" {
		t.Error("normalized value should not be empty")
	}
}

// A value accepted once must be accepted again with the same result.
func TestValidatorsDeterministic(t *testing.T) {
	inputs := []struct {
		fn    func(string) (string, error)
		input string
	}{
		{School21Nick, "validnick"},
		{SberchatNick, "ivanov"},
		{TelegramNick, "@ivanov_tg"},
		{TeamName, "TeamX"},
		{RoleName, "Engineer"},
		{ProjectDescription, "платежный шлюз"},
	}
	for _, in := range inputs {
		first, err1 := in.fn(in.input)
		second, err2 := in.fn(in.input)
		if err1 != nil || err2 != nil {
			t.Fatalf("validator rejected %q: %v, %v", in.input, err1, err2)
		}
		if first != second {
			t.Errorf("validator not deterministic for %q: %q != %q", in.input, first, second)
		}
	}
}
