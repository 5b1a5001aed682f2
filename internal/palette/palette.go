package palette

import (
	"fmt"
	"strings"

	"github.com/username/vacation-calendar/pkg/random"
)

const (
	// MaxAttempts bounds the search for an unused random color
	MaxAttempts = 10

	// ChannelMin and ChannelMax keep generated colors light enough for dark text
	ChannelMin = 180
	ChannelMax = 255
)

// Colors is the fixed pastel palette, handed out in order
var Colors = []string{
	"#AEC6CF", // blue
	"#FFB3BA", // red
	"#BAFFC9", // green
	"#FFDFBA", // orange
	"#BAE1FF", // sky
	"#FFFFBA", // yellow
	"#E0BBE4", // lilac
	"#C9C9FF", // periwinkle
	"#FFC8DD", // pink
	"#B5EAD7", // mint
	"#F1E3C6", // sand
	"#D4F0F0", // ice
}

// Assign picks a color for a new employee.
// The first palette entry not in existing wins; once the palette is used up
// random light colors are tried and the last one is accepted even if taken.
func Assign(existing []string, src random.Source) string {
	used := make(map[string]bool, len(existing))
	for _, c := range existing {
		used[strings.ToUpper(c)] = true
	}

	for _, c := range Colors {
		if !used[c] {
			return c
		}
	}

	var color string
	for i := 0; i < MaxAttempts; i++ {
		color = randomColor(src)
		if !used[color] {
			break
		}
	}
	return color
}

func randomColor(src random.Source) string {
	r := random.IntInRange(src, ChannelMin, ChannelMax)
	g := random.IntInRange(src, ChannelMin, ChannelMax)
	b := random.IntInRange(src, ChannelMin, ChannelMax)
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

// Channels parses a "#RRGGBB" color
func Channels(color string) (r, g, b int, err error) {
	if len(color) != 7 || color[0] != '#' {
		return 0, 0, 0, fmt.Errorf("invalid color %q", color)
	}
	if _, err := fmt.Sscanf(color[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid color %q: %w", color, err)
	}
	return r, g, b, nil
}
