package w1

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"testing"
)

const validReport = "6a 01 4b 46 7f ff 0c 10 3a : crc=3a YES\n6a 01 4b 46 7f ff 0c 10 3a t=22625\n"

func TestParseReport(t *testing.T) {
	got, err := ParseReport(validReport)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != 22625 {
		t.Fatalf("expected 22625, got %d", got)
	}
}

func TestParseReportFullInt32Range(t *testing.T) {
	for _, n := range []int64{math.MinInt32, -22625, -1, 0, 1, 22625, 85000, math.MaxInt32} {
		report := fmt.Sprintf("aa bb : crc=3a YES\naa bb t=%d\n", n)
		got, err := ParseReport(report)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if int64(got) != n {
			t.Fatalf("expected %d, got %d", n, got)
		}
	}
}

func TestParseReportChecksumGate(t *testing.T) {
	cases := []string{
		"6a 01 4b 46 7f ff 0c 10 3a : crc=3a NO\n6a 01 4b 46 7f ff 0c 10 3a t=22625\n",
		"6a 01 4b 46 7f ff 0c 10 3a : crc=3a NO\n",
		"t=22625",
		"",
		// checksum failure wins over a broken value
		"crc=3a NO\nt=garbage\n",
	}
	for _, report := range cases {
		_, err := ParseReport(report)
		if !errors.Is(err, ErrChecksum) {
			t.Fatalf("report %q: expected ErrChecksum, got %v", report, err)
		}
		if err.Error() != "CRC check failed" {
			t.Fatalf("unexpected message %q", err.Error())
		}
	}
}

func TestParseReportParseErrors(t *testing.T) {
	cases := []string{
		"crc=3a YES\n",
		"crc=3a YES\nt=\n",
		"crc=3a YES\nt=abc\n",
		"crc=3a YES\nt=22.625\n",
		"crc=3a YES\nt=" + strconv.FormatInt(math.MaxInt32+1, 10) + "\n",
	}
	for _, report := range cases {
		_, err := ParseReport(report)
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("report %q: expected ParseError, got %v", report, err)
		}
		if errors.Is(err, ErrChecksum) {
			t.Fatalf("report %q: parse error must not be a checksum error", report)
		}
	}
}

func TestParseSampleKeepsDeviceName(t *testing.T) {
	sample, err := ParseSample("28-000000000000", validReport)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sample.DeviceName != "28-000000000000" || sample.RawMilliunits != 22625 {
		t.Fatalf("unexpected sample %+v", sample)
	}
}
