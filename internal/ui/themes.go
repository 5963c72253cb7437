package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Theme represents a color theme for the explorer
type Theme struct {
	Name string

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor

	// Lean colors
	Female  lipgloss.AdaptiveColor
	Male    lipgloss.AdaptiveColor
	Neutral lipgloss.AdaptiveColor

	Error  lipgloss.AdaptiveColor
	Border lipgloss.AdaptiveColor
	Muted  lipgloss.AdaptiveColor
}

func buildTheme(name string, primary, secondary, female, male, neutral, errorColor, border, muted [2]string) Theme {
	return Theme{
		Name:      name,
		Primary:   lipgloss.AdaptiveColor{Light: primary[0], Dark: primary[1]},
		Secondary: lipgloss.AdaptiveColor{Light: secondary[0], Dark: secondary[1]},
		Female:    lipgloss.AdaptiveColor{Light: female[0], Dark: female[1]},
		Male:      lipgloss.AdaptiveColor{Light: male[0], Dark: male[1]},
		Neutral:   lipgloss.AdaptiveColor{Light: neutral[0], Dark: neutral[1]},
		Error:     lipgloss.AdaptiveColor{Light: errorColor[0], Dark: errorColor[1]},
		Border:    lipgloss.AdaptiveColor{Light: border[0], Dark: border[1]},
		Muted:     lipgloss.AdaptiveColor{Light: muted[0], Dark: muted[1]},
	}
}

// Available themes
var (
	DefaultTheme = buildTheme("default",
		[2]string{"#1E40AF", "#3B82F6"}, [2]string{"#6B7280", "#9CA3AF"},
		[2]string{"#BE185D", "#F472B6"}, [2]string{"#1D4ED8", "#60A5FA"}, [2]string{"#4B5563", "#D1D5DB"},
		[2]string{"#DC2626", "#EF4444"}, [2]string{"#D1D5DB", "#374151"}, [2]string{"#6B7280", "#9CA3AF"})

	HighContrastTheme = buildTheme("high-contrast",
		[2]string{"#000000", "#FFFFFF"}, [2]string{"#666666", "#BBBBBB"},
		[2]string{"#990066", "#FF66CC"}, [2]string{"#000099", "#6699FF"}, [2]string{"#000000", "#FFFFFF"},
		[2]string{"#CC0000", "#FF4444"}, [2]string{"#000000", "#FFFFFF"}, [2]string{"#666666", "#BBBBBB"})

	MinimalTheme = buildTheme("minimal",
		[2]string{"#2D3748", "#E2E8F0"}, [2]string{"#718096", "#A0AEC0"},
		[2]string{"#97266D", "#FBB6CE"}, [2]string{"#2B6CB0", "#90CDF4"}, [2]string{"#4A5568", "#CBD5E0"},
		[2]string{"#C53030", "#FC8181"}, [2]string{"#E2E8F0", "#2D3748"}, [2]string{"#A0AEC0", "#718096"})
)

var currentTheme = DefaultTheme

// GetTheme returns the current active theme
func GetTheme() Theme {
	return currentTheme
}

// SetThemeByName sets the theme by name
func SetThemeByName(name string) bool {
	switch name {
	case "default":
		currentTheme = DefaultTheme
	case "high-contrast":
		currentTheme = HighContrastTheme
	case "minimal":
		currentTheme = MinimalTheme
	default:
		return false
	}
	return true
}

// GetAvailableThemes returns list of available theme names
func GetAvailableThemes() []string {
	return []string{"default", "high-contrast", "minimal"}
}

// IsColorDisabled checks if colors should be disabled
func IsColorDisabled() bool {
	return os.Getenv("NO_COLOR") != ""
}

// leanColor picks the theme color for a projection
func (t Theme) leanColor(score float32, band float32) lipgloss.AdaptiveColor {
	switch {
	case score > band:
		return t.Female
	case score < -band:
		return t.Male
	default:
		return t.Neutral
	}
}
