package docking

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// VinaResultMarker prefixes the score line Vina writes per pose.
const VinaResultMarker = "REMARK VINA RESULT:"

// ParseVinaLog returns the affinity from the first VINA RESULT line whose
// score field parses as a number.  It reports false when the file is missing
// or carries no usable marker.
func ParseVinaLog(path string) (float64, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return parseVinaResult(sc)
}

func parseVinaResult(sc *bufio.Scanner) (float64, bool) {
	for sc.Scan() {
		line := sc.Text()
		if !strings.Contains(line, VinaResultMarker) {
			continue
		}
		// REMARK VINA RESULT: <affinity> <rmsd lb> <rmsd ub>
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		v, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			continue
		}
		return v, true
	}
	return 0, false
}

//Personal.AI order the ending
