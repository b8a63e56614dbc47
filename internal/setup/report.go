package setup

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	ruleWidth     = 60
	nameWidth     = 15
	statusPassed  = "✅ PASSED"
	statusFailed  = "❌ FAILED"
	statusWarning = "⚠️  "
	titleText     = "  TORTOISE TTS - VOICE CLONING SETUP VERIFICATION"
)

var (
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	stylePassed = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	styleFailed = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	styleAdvisory = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

func (v *Verifier) printLine(line string) {
	_, _ = fmt.Fprintln(v.out, line)
}

func (v *Verifier) printRule() {
	v.printLine(strings.Repeat("=", ruleWidth))
}

func (v *Verifier) printTitle() {
	v.printLine("")
	v.printRule()
	v.printLine(styleTitle.Render(titleText))
	v.printRule()
}

func (v *Verifier) printSection(title string) {
	v.printLine("")
	v.printRule()
	v.printLine(styleTitle.Render(title))
	v.printRule()
}

// printResult prints the outcome of one check.
func (v *Verifier) printResult(result CheckResult) {
	for _, detail := range result.Details {
		v.printLine(detail)
	}

	for _, warning := range result.Warnings {
		v.printLine(styleAdvisory.Render(statusWarning + "Warning: " + warning))
	}

	if result.Passed {
		return
	}

	style := styleFailed
	symbol := "❌ "

	if !result.Required {
		style = styleAdvisory
		symbol = statusWarning
	}

	v.printLine(style.Render(symbol + result.Err.Error()))

	for _, hint := range result.Hints {
		v.printLine("   " + hint)
	}
}

// printSummary prints one status line per check followed by next steps or
// quick fixes.
func (v *Verifier) printSummary(report *Report) {
	v.printSection("SUMMARY")

	for _, result := range report.Results {
		status := stylePassed.Render(statusPassed)
		if !result.Passed {
			status = styleFailed.Render(statusFailed)
		}

		v.printLine(fmt.Sprintf("%-*s : %s", nameWidth, result.Name, status))
	}

	v.printLine("")
	v.printRule()

	if report.Passed() {
		v.printLine(stylePassed.Render("🎉 ALL CHECKS PASSED! You're ready to generate speech!"))
		v.printLine("\nNext steps:")
		v.printLine("1. Run: marathi-tts")
		v.printLine("   OR")
		v.printLine(fmt.Sprintf(
			"2. Run: marathi-tts say --voice %s --preset fast \"Your Marathi text\"", v.cfg.Voices.Default))
	} else {
		v.printLine(styleFailed.Render(statusWarning + "SOME CHECKS FAILED. Please fix the issues above."))
		v.printLine("\nQuick fixes:")
		v.printLine("1. Voice files missing: copy WAV samples into " + v.voices.Path(v.cfg.Voices.Default))
		v.printLine("2. Dependencies missing: Run pip install -r requirements.txt")
		v.printLine("3. Install Tortoise: Run python setup.py install")
	}

	v.printRule()
}
