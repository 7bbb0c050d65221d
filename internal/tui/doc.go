// Package tui hosts the terra globe viewer in the terminal.
//
// It is built with Charmbracelet's BubbleTea and Lipgloss. A tick message
// drives each display frame: the motion sequencer advances, the scene
// spins and the renderer redraws the globe. Key presses and mouse input
// are routed to the panel controller and the orbit controls.
//
// Component architecture:
//
//	model.go   root model, message routing, Init/Update/View
//	theme.go   centralized color and style definitions
//	header.go  top bar and footer status line with key hints
//	panels.go  left content panel and right call-to-action panel
//	content.go panel copy
//	helpers.go text wrapping, truncation and layout math
package tui
