package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mimosa",
	Short: "📝 Mimosa - personal AI diary assistant",
	Long: `# 📝 Mimosa

**A personal AI diary: daily reflections, photos, and a caring AI companion.**

## ✨ Features

- 💬 **Chat** with a warm, emotionally attentive AI about your day
- 📷 **Photos** attached to any reflection
- 📔 **Diary entries** saved locally as plain JSON you own
- 🗓️  **Browsing** by day, week, or month, plus keyword search
- 🌏 **Bilingual** replies in Traditional Chinese or English

## 🚀 Getting Started

Set **GOOGLE_API_KEY** in your environment or a .env file, then run
**mimosa serve** and open the diary page in your browser or desktop shell.`,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderMarkdownHelp(cmd)
	})
}

// renderMarkdownHelp renders command help with glamour.
func renderMarkdownHelp(cmd *cobra.Command) {
	var helpContent strings.Builder

	if cmd.Long != "" {
		helpContent.WriteString(cmd.Long)
		helpContent.WriteString("\n\n")
	} else if cmd.Short != "" {
		helpContent.WriteString("# " + cmd.Short)
		helpContent.WriteString("\n\n")
	}

	helpContent.WriteString("## 📖 Usage\n\n")
	helpContent.WriteString("```bash\n")
	helpContent.WriteString(cmd.UseLine())
	helpContent.WriteString("\n```\n\n")

	if cmd.HasAvailableSubCommands() {
		helpContent.WriteString("## 🔧 Available Commands\n\n")
		for _, subCmd := range cmd.Commands() {
			if subCmd.IsAvailableCommand() {
				helpContent.WriteString(fmt.Sprintf("- **%s** - %s\n", subCmd.Name(), subCmd.Short))
			}
		}
		helpContent.WriteString("\n")
	}

	if cmd.HasAvailableFlags() {
		helpContent.WriteString("## ⚙️  Flags\n\n")
		flagUsages := cmd.Flags().FlagUsages()
		if flagUsages != "" {
			helpContent.WriteString("```\n")
			helpContent.WriteString(flagUsages)
			helpContent.WriteString("```\n\n")
		}
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Print(helpContent.String())
		return
	}

	rendered, err := renderer.Render(helpContent.String())
	if err != nil {
		fmt.Print(helpContent.String())
		return
	}

	fmt.Print(rendered)
}
