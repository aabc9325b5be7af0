package main

import (
	"fmt"
	"io"
	"math"
	"math/cmplx"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ──────────────────────────── Circuit diagram ────────────────────────────

// gateDisplayName returns the label drawn on a gate's target wire.
func gateDisplayName(g Gate) string {
	switch g.Type {
	case GateCP:
		return "P(" + formatParam(g.Angle()) + ")"
	case GateCX:
		return "⊕"
	case GateCZ:
		return "●"
	case GateSwap:
		return "×"
	case GateSDG:
		return "S†"
	case GateTDG:
		return "T†"
	}
	if len(g.Params) > 0 {
		return g.Type + "(" + formatParam(g.Angle()) + ")"
	}
	return g.Type
}

// controlSymbol returns the wire symbol for the control qubit of a two-qubit gate.
func controlSymbol(gateType string) string {
	if gateType == GateSwap {
		return "×"
	}
	return "●"
}

// padWire centres s within width, filling both sides with wire.
func padWire(s string, width int) string {
	fill := max(width-lipgloss.Width(s), 0)
	left := fill / 2
	return strings.Repeat("─", left) + s + strings.Repeat("─", fill-left)
}

// drawColumn returns the styled cell of every qubit for one time step, plus
// the column's visual width.
func drawColumn(c *Circuit, layer []int) ([]string, int) {
	labels := make([]string, c.NumQubits)
	styles := make([]lipgloss.Style, c.NumQubits)
	for _, idx := range layer {
		g := c.Gates[idx]
		for _, q := range g.span() {
			labels[q] = "┼"
			styles[q] = dimStyle
		}
		labels[g.Target] = gateDisplayName(g)
		styles[g.Target] = gateStyle
		if g.Control >= 0 {
			labels[g.Control] = controlSymbol(g.Type)
			styles[g.Control] = controlStyle
		}
	}

	width := 3
	for _, l := range labels {
		width = max(width, lipgloss.Width(l)+2)
	}

	cells := make([]string, c.NumQubits)
	for q, l := range labels {
		if l == "" {
			cells[q] = padWire("", width)
			continue
		}
		cells[q] = padWire(styles[q].Render(l), width)
	}
	return cells, width
}

// renderCircuit draws the circuit one wire per qubit. Columns stop once the
// drawing would exceed maxWidth visual characters; maxWidth <= 0 draws all.
func renderCircuit(c *Circuit, maxWidth int) string {
	if c.NumQubits == 0 {
		return dimStyle.Render("(empty register)")
	}

	rows := make([]strings.Builder, c.NumQubits)
	for q := range c.NumQubits {
		rows[q].WriteString(qubitLabelStyle.Render(fmt.Sprintf("%-5s", fmt.Sprintf("q[%d]", q))))
		rows[q].WriteString("──")
	}

	layers := c.drawLayers()
	used := labelVisualW
	shown := 0
	for _, layer := range layers {
		cells, width := drawColumn(c, layer)
		if maxWidth > 0 && used+width > maxWidth && shown > 0 {
			break
		}
		for q, cell := range cells {
			rows[q].WriteString(cell)
		}
		used += width
		shown++
	}

	lines := make([]string, 0, c.NumQubits+1)
	for q := range rows {
		lines = append(lines, rows[q].String())
	}
	if shown < len(layers) {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("… %d more steps", len(layers)-shown)))
	}
	return strings.Join(lines, "\n")
}

// ──────────────────────────── State vector ────────────────────────────

// basisLabel renders basis index i as a ket, highest qubit first.
func basisLabel(i, numQubits int) string {
	if numQubits == 0 {
		return "|⟩"
	}
	return fmt.Sprintf("|%0*b⟩", numQubits, i)
}

// formatAmplitude renders a as "re+imi" with the given decimals; negative
// decimals fall back to six.
func formatAmplitude(a Complex, decimals int) string {
	if decimals < 0 {
		decimals = 6
	}
	return fmt.Sprintf("%.*f%+.*fi", decimals, real(a), decimals, imag(a))
}

// writeStateVector prints one basis state and amplitude per line.
func writeStateVector(w io.Writer, amps []Complex, numQubits, decimals int) error {
	for i, a := range amps {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", basisLabel(i, numQubits), formatAmplitude(a, decimals)); err != nil {
			return err
		}
	}
	return nil
}

// plotState renders probability bars and phases for the first limit basis
// states, with bars scaled to the largest probability shown.
func plotState(amps []Complex, numQubits, decimals, limit int) string {
	if limit <= 0 || limit > len(amps) {
		limit = len(amps)
	}

	maxProb := 0.0
	for _, a := range amps[:limit] {
		maxProb = max(maxProb, real(a*cmplx.Conj(a)))
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("State Vector"))
	sb.WriteString("\n")
	for i, a := range amps[:limit] {
		prob := real(a * cmplx.Conj(a))
		filled := 0
		if maxProb > 0 {
			filled = int(math.Round(prob / maxProb * barW))
		}
		bar := barStyle.Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", barW-filled))

		phase := 0.0
		if prob > 1e-12 {
			phase = cmplx.Phase(a)
		}
		fmt.Fprintf(&sb, "%s %s %s p=%.4f φ=%+.3f\n",
			qubitLabelStyle.Render(basisLabel(i, numQubits)),
			formatAmplitude(a, decimals),
			bar, prob, phase)
	}
	if limit < len(amps) {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("… %d more basis states", len(amps)-limit)))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
