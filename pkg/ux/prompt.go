// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"github.com/charmbracelet/huh"
)

// AleutianTheme returns a huh form theme using the Aleutian color palette.
//
// # Description
//
// Builds a form theme on top of huh's base theme with the Aleutian
// deep-ocean palette applied to titles, selectors, buttons, and text
// input. Use it with any interactive form so prompts match the rest
// of the CLI output.
//
// # Outputs
//
//   - *huh.Theme: Theme ready to pass to Form.WithTheme()
//
// # Examples
//
//	form := huh.NewForm(
//	    huh.NewGroup(
//	        huh.NewInput().Title("Title").Value(&title),
//	    ),
//	).WithTheme(ux.AleutianTheme())
//
// # Limitations
//
//   - Colors require a terminal with at least 256-color support
//
// # Assumptions
//
//   - Caller checks IsInteractive() before running a form
func AleutianTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Base = t.Focused.Base.BorderForeground(ColorTealDeep)
	t.Focused.Title = t.Focused.Title.Foreground(ColorTealBright).Bold(true)
	t.Focused.Description = t.Focused.Description.Foreground(ColorSlate)
	t.Focused.ErrorIndicator = t.Focused.ErrorIndicator.Foreground(ColorError)
	t.Focused.ErrorMessage = t.Focused.ErrorMessage.Foreground(ColorError)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(ColorTealBright)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(ColorTealBright)
	t.Focused.FocusedButton = t.Focused.FocusedButton.Foreground(ColorDarkest).Background(ColorTealPrimary)
	t.Focused.BlurredButton = t.Focused.BlurredButton.Foreground(ColorSlate)
	t.Focused.TextInput.Cursor = t.Focused.TextInput.Cursor.Foreground(ColorTealBright)
	t.Focused.TextInput.Prompt = t.Focused.TextInput.Prompt.Foreground(ColorTealPrimary)

	t.Blurred.Title = t.Blurred.Title.Foreground(ColorTealOcean)
	t.Blurred.Description = t.Blurred.Description.Foreground(ColorSlate)

	return t
}

// truncate shortens a string to maxLen characters, appending "..." when
// the string is cut. Strings of maxLen or fewer characters are returned
// unchanged.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}
