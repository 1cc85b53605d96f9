//go:build !windows

package debug

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"strconv"
)

var errNoRSS = errors.New("debug: rss unavailable")

// processRSS reads VmRSS from /proc. Platforms without procfs report errNoRSS.
func processRSS() (uint64, error) {
	data, err := os.ReadFile("/proc/self/status")
	if err != nil {
		return 0, errNoRSS
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Bytes()
		if !bytes.HasPrefix(line, []byte("VmRSS:")) {
			continue
		}
		fields := bytes.Fields(line[len("VmRSS:"):])
		if len(fields) == 0 {
			break
		}
		kb, err := strconv.ParseUint(string(fields[0]), 10, 64)
		if err != nil {
			return 0, err
		}
		return kb * 1024, nil
	}
	return 0, errNoRSS
}
