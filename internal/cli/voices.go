// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// voices.go - The "voices" command: installed voices and the choice made
// for each language.

package cli

import (
	"context"
	"fmt"

	"github.com/sarathi-ai/sarathi-tui/internal/model"
	"github.com/sarathi-ai/sarathi-tui/internal/speech"
)

// VoicesData is the JSON form of the voices command.
type VoicesData struct {
	Command  string            `json:"command"`
	Voices   []speech.Voice    `json:"voices"`
	Selected map[string]string `json:"selected"`
}

// HandleVoicesCommand lists the voices of the configured synthesizer.
func HandleVoicesCommand(args Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	synth := speech.NewExecSynthesizer(speech.ExecConfig{
		Command:   cfg.Speech.Command,
		VoiceDirs: cfg.Speech.VoiceDirs,
	})
	defer synth.Close()

	return OutputJSON(args.JSON, "voices", func() (interface{}, error) {
		if !synth.Available() {
			return nil, &NotFoundError{Resource: "speech synthesizer", ID: "espeak-ng, espeak, say"}
		}

		ctx, cancel := context.WithTimeout(context.Background(), voiceProbeTimeout)
		defer cancel()
		voices, err := synth.Voices(ctx)
		if err != nil {
			return nil, NewCommandError("voices", "list", "voice listing failed", err)
		}

		data := VoicesData{
			Command:  synth.Path(),
			Voices:   voices,
			Selected: make(map[string]string),
		}
		for _, lang := range []model.Language{model.LanguageEnglish, model.LanguageHindi} {
			if v, ok := speech.SelectVoice(voices, lang); ok {
				data.Selected[string(lang)] = v.ID
			}
		}

		if !args.JSON {
			printVoices(data)
		}
		return data, nil
	})
}

func printVoices(data VoicesData) {
	fmt.Println(TitleStyle.Render("Voices"))
	fmt.Println(RenderLabel("Command", data.Command))
	for _, lang := range []model.Language{model.LanguageEnglish, model.LanguageHindi} {
		chosen := data.Selected[string(lang)]
		if chosen == "" {
			chosen = "(backend default)"
		}
		fmt.Println(RenderLabel(lang.DisplayName(), chosen))
	}
	fmt.Println(RenderSeparator())

	for _, v := range data.Voices {
		fmt.Printf("  %-24s %-8s %-9s %s\n", v.ID, v.Locale, v.Quality, DimStyle.Render(v.Name))
	}
}
