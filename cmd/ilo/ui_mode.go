package main

import (
	"fmt"
	"os"
	"strings"
)

// batchUI selects how batch progress is rendered: a live terminal
// view, plain line output, or autodetection.
type batchUI int

const (
	batchUIAuto batchUI = iota
	batchUILive
	batchUIPlain
)

func parseBatchUI(value string) (batchUI, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return batchUIAuto, nil
	case "on":
		return batchUILive, nil
	case "off":
		return batchUIPlain, nil
	}
	return batchUIAuto, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
}

// wantLive reports whether the live view should run. Auto picks it
// only for an interactive stdout outside CI.
func (m batchUI) wantLive() bool {
	switch m {
	case batchUILive:
		return true
	case batchUIPlain:
		return false
	}
	return os.Getenv("CI") == "" && isTerminal(os.Stdout)
}
