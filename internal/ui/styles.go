package ui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	ColorSuccess   = lipgloss.Color("#00D26A") // green  — funded, success
	ColorWarning   = lipgloss.Color("#FFB800") // yellow — nearing limit, warning
	ColorError     = lipgloss.Color("#FF4444") // red    — over limit, error
	ColorAddress   = lipgloss.Color("#00B4D8") // cyan   — addresses, hashes
	ColorValue     = lipgloss.Color("#FFFFFF") // white bold — USDC amounts
	ColorMeta      = lipgloss.Color("#555555") // dim gray  — timestamps, metadata
	ColorBorder    = lipgloss.Color("#1E3A5F") // dark blue — UI chrome
	ColorBucket    = lipgloss.Color("#9B5DE5") // purple    — bucket names
	ColorHighlight = lipgloss.Color("#F15BB5") // pink      — selected rows
)

// Base styles.
var (
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	StyleAddress = lipgloss.NewStyle().Foreground(ColorAddress)
	StyleValue   = lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	StyleMeta    = lipgloss.NewStyle().Foreground(ColorMeta)
	StyleBucket  = lipgloss.NewStyle().Foreground(ColorBucket).Bold(true)
	StyleInfo    = lipgloss.NewStyle().Foreground(ColorAddress).Bold(true)

	StyleBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	StyleSelected = lipgloss.NewStyle().
			Background(ColorHighlight).
			Foreground(lipgloss.Color("#000000")).
			Bold(true)

	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorBucket).
			Bold(true).
			MarginBottom(1)

	StyleDim = lipgloss.NewStyle().Foreground(ColorMeta)
)

// Banner returns the expendi ASCII banner.
func Banner() string {
	art := `
  ███████╗██╗  ██╗██████╗ ███████╗███╗   ██╗██████╗ ██╗
  ██╔════╝╚██╗██╔╝██╔══██╗██╔════╝████╗  ██║██╔══██╗██║
  █████╗   ╚███╔╝ ██████╔╝█████╗  ██╔██╗ ██║██║  ██║██║
  ██╔══╝   ██╔██╗ ██╔═══╝ ██╔══╝  ██║╚██╗██║██║  ██║██║
  ███████╗██╔╝ ██╗██║     ███████╗██║ ╚████║██████╔╝██║
  ╚══════╝╚═╝  ╚═╝╚═╝     ╚══════╝╚═╝  ╚═══╝╚═════╝ ╚═╝`

	tagline := StyleMeta.Render("     Budget wallet CLI  ·  Base")
	features := StyleMeta.Render("  ✦ Buckets  ✦ Gasless ops  ✦ Mobile payouts")

	return StyleBucket.Render(art) + "\n" + tagline + "\n" + features + "\n"
}

// Success formats a success message.
func Success(msg string) string { return StyleSuccess.Render("✓ " + msg) }

// Warn formats a warning message.
func Warn(msg string) string { return StyleWarning.Render("⚠ " + msg) }

// Err formats an error message.
func Err(msg string) string { return StyleError.Render("✗ " + msg) }

// Addr formats an address.
func Addr(a string) string { return StyleAddress.Render(a) }

// Val formats a USDC amount.
func Val(v string) string { return StyleValue.Render(v) }

// Meta formats metadata text.
func Meta(m string) string { return StyleMeta.Render(m) }

// BucketName formats a bucket name.
func BucketName(b string) string { return StyleBucket.Render(b) }

// TruncateAddr shortens an address for display: 0x1234…5678.
func TruncateAddr(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}
