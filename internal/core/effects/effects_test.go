package effects

import "testing"

func TestCommandEffect_String(t *testing.T) {
	tests := []struct {
		name     string
		eff      CommandEffect
		expected string
	}{
		{
			name:     "plain args",
			eff:      CommandEffect{Tool: "dotnet", Args: []string{"new", "sln", "-n", "Shop"}},
			expected: "dotnet new sln -n Shop",
		},
		{
			name:     "arg with space is quoted",
			eff:      CommandEffect{Tool: "dotnet", Args: []string{"sln", "/tmp/My Shop/Shop.sln", "add"}},
			expected: `dotnet sln "/tmp/My Shop/Shop.sln" add`,
		},
		{
			name:     "empty arg is visible",
			eff:      CommandEffect{Tool: "git", Args: []string{"commit", "-m", ""}},
			expected: `git commit -m ""`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eff.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestEffectTypes(t *testing.T) {
	effs := []Effect{
		FileEffect{Operation: "mkdir"},
		CommandEffect{Tool: "dotnet"},
		CompositeEffect{},
	}
	want := []string{"file", "command", "composite"}
	for i, e := range effs {
		if e.EffectType() != want[i] {
			t.Errorf("EffectType() = %s, want %s", e.EffectType(), want[i])
		}
	}
}
