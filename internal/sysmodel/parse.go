package sysmodel

import (
	"strconv"
	"strings"
)

// splitFields tokenizes a calibration/pedestal file line the way the
// original's stringstream extraction does: on any run of whitespace.
func splitFields(line string) []string {
	return strings.Fields(line)
}

func scanInt(s string, out *int) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*out = v
	return nil
}

func scanFloat(s string, out *float32) error {
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return err
	}
	*out = float32(v)
	return nil
}

// scanBool parses the use-crystal column, which is written as the
// stream-extracted form of a C++ bool: "0" or "1".
func scanBool(s string, out *bool) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*out = v != 0
	return nil
}
