package cvocgen

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"strings"

	"github.com/edsrzf/mmap-go"
)

// corpusScanBufSz bounds a single corpus line. Sequence strings can run
// very long, so the scanner buffer is grown well past the bufio default
// instead of silently truncating.
const corpusScanBufSz = 8 * 1024 * 1024

// ReadCorpusReader reads newline-delimited sequence lines from r. Blank
// lines are dropped; a trailing carriage return is stripped.
func ReadCorpusReader(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), corpusScanBufSz)
	lines := make([]string, 0, 4096)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if len(line) == 0 {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// ReadCorpus loads a corpus file. Plain files are mapped read-only and
// scanned in place; gzipped corpora are decompressed on the fly.
func ReadCorpus(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if strings.HasSuffix(path, ".gz") {
		zr, gzErr := gzip.NewReader(file)
		if gzErr != nil {
			return nil, gzErr
		}
		defer zr.Close()
		return ReadCorpusReader(zr)
	}

	if m, mmapErr := mmap.Map(file, mmap.RDONLY, 0); mmapErr == nil {
		defer m.Unmap()
		return ReadCorpusReader(bytes.NewReader(m))
	}
	// Empty files and exotic filesystems refuse to map.
	return ReadCorpusReader(file)
}
