package blueprint

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the app
// automatically matches any color scheme. A negative index means no color.
type Theme struct {
	Header  int // Report header and stage names
	Running int // In-flight stage indicator
	Error   int // Failed stage and error lines
	Success int // Finished stage indicator
	Muted   int // Rules, pending stages, previews
	Accent  int // Totals row, titles
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		Header:  4,
		Running: 3,
		Error:   1,
		Success: 2,
		Muted:   8,
		Accent:  5,
	}
}
