package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/guiabbehusen/participa-df-fullstack-sub001/internal/speech"
)

var voicesFilter string

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List the voices the configured engine exposes",
	Long: paragraph(
		fmt.Sprintf("\nList the voices of the configured speech engine, in the order the %s would consider them.", keyword("voice selector")),
	),
	Example: paragraph("voz voices\nvoz voices --filter brasil\nvoz -e piper voices"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		engine, err := buildEngine()
		if err != nil {
			return err
		}
		defer engine.Close() //nolint:errcheck

		reader := newReader(engine)
		defer reader.Close()

		if !reader.Supported() {
			fmt.Println("Leitura em voz alta indisponível neste sistema.")
			return nil
		}

		voices := reader.Voices()
		if voicesFilter != "" {
			voices = filterVoices(voices, voicesFilter)
		}
		if len(voices) == 0 {
			fmt.Println("No voices available yet. Engines may discover voices asynchronously; try again in a moment.")
			return nil
		}

		current, hasCurrent := reader.CurrentVoice()
		styled := term.IsTerminal(int(os.Stdout.Fd()))
		for _, v := range voices {
			printVoice(v, hasCurrent && v.ID == current.ID, styled)
		}
		return nil
	},
}

// filterVoices narrows the list with a fuzzy match over name and language.
func filterVoices(voices []speech.Voice, filter string) []speech.Voice {
	haystack := make([]string, len(voices))
	for i, v := range voices {
		haystack[i] = v.Name + " " + v.Language
	}

	matches := fuzzy.Find(filter, haystack)
	out := make([]speech.Voice, 0, len(matches))
	for _, m := range matches {
		out = append(out, voices[m.Index])
	}
	return out
}

// printVoice writes one catalog row. For file-backed voices (piper models)
// the model size is appended.
func printVoice(v speech.Voice, isCurrent, styled bool) {
	marker := "  "
	if isCurrent {
		marker = "* "
	}

	name := v.Name
	detail := v.Language
	if info, err := os.Stat(v.ID); err == nil && !info.IsDir() {
		detail += ", " + humanize.Bytes(uint64(info.Size())) //nolint:gosec
	}

	if styled {
		fmt.Println(marker + voiceStyle.Render(name) + " " + subtle("("+detail+")"))
		return
	}
	fmt.Println(strings.TrimRight(marker+name+" ("+detail+")", " "))
}

func init() {
	voicesCmd.Flags().StringVarP(&voicesFilter, "filter", "f", "", "fuzzy-filter voices by name or language")
}
