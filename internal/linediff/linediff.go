// Package linediff compares two scan captures line by line and reports
// which candidate lines are absent from the baseline. Lines are matched
// as a set by 48-bit content hashes, so a reordered capture diffs clean;
// the candidate is scanned in newline-aligned byte ranges by parallel
// workers and line numbers are reassembled from the per-range counts.
//
// The usual pairings are a capture against its repaired twin, where the
// changed count equals the rewritten lines, and yesterday's capture
// against today's, where the changed lines are the new observations.
package linediff

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"slices"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

const (
	// hashMask48 keeps 6 bytes of the hash: top 16 bits pick the index
	// bin, low 32 are the sorted tail.
	hashMask48 = 0xFFFFFFFFFFFF

	readBufBytes  = 256 << 10
	alignBufBytes = 32 << 10

	// ChangedListCap bounds the changed line numbers carried in a
	// Result; the count stays exact.
	ChangedListCap = 20
)

// minRange keeps per-worker ranges big enough to amortize the alignment
// scans. Tests shrink it to force multi-range scans on small fixtures.
var minRange int64 = 2 << 20

// Result is the outcome of one comparison.
type Result struct {
	BaselinePath  string
	CandidatePath string

	// CandidateLines counts the physical lines scanned.
	CandidateLines int

	// Changed counts candidate lines whose content never occurs in the
	// baseline. ChangedLines lists the first few 1-based line numbers.
	Changed      int
	ChangedLines []int
}

func hash48(b []byte) uint64 { return xxh3.Hash(b) & hashMask48 }

// index16 is a compact two-level set over 48-bit line hashes: off bounds
// 65536 bins, data holds each bin's sorted low-32 tails. Footprint is
// about 4 bytes per baseline line.
type index16 struct {
	off  []int
	data []uint32
}

func (idx *index16) contains(h uint64) bool {
	bin := int(h >> 32)
	lo, hi := idx.off[bin], idx.off[bin+1]
	end := hi
	tail := uint32(h)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if idx.data[mid] < tail {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo < end && idx.data[lo] == tail
}

// buildIndex hashes every non-empty baseline line into the two-level
// set. One streaming pass collects the hashes; the bins are then filled
// by prefix sums and sorted in place.
func buildIndex(path string) (*index16, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	adviseSequential(f)

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, readBufBytes), 4<<20)

	var hashes []uint64
	first := true
	for sc.Scan() {
		line := stripCR(sc.Bytes())
		if first {
			line = stripBOM(line)
			first = false
		}
		if len(line) == 0 {
			continue
		}
		hashes = append(hashes, hash48(line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("index %s: %w", path, err)
	}

	counts := make([]int, 1<<16)
	for _, h := range hashes {
		counts[h>>32]++
	}
	off := make([]int, (1<<16)+1)
	total := 0
	for i, c := range counts {
		off[i] = total
		total += c
	}
	off[1<<16] = total

	data := make([]uint32, total)
	cursor := make([]int, 1<<16)
	copy(cursor, off[:1<<16])
	for _, h := range hashes {
		bin := h >> 32
		data[cursor[bin]] = uint32(h)
		cursor[bin]++
	}
	for i := 0; i < 1<<16; i++ {
		if off[i+1]-off[i] > 1 {
			slices.Sort(data[off[i]:off[i+1]])
		}
	}
	return &index16{off: off, data: data}, nil
}

// Compare indexes the baseline and scans the candidate with up to
// workers goroutines. workers <= 0 means one per CPU.
func Compare(baseline, candidate string, workers int) (*Result, error) {
	idx, err := buildIndex(baseline)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(candidate)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	adviseSequential(f)

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", candidate, err)
	}
	size := st.Size()

	res := &Result{BaselinePath: baseline, CandidatePath: candidate}
	if size == 0 {
		return res, nil
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	ranges := splitRanges(size, workers, minRange)
	parts := make([]rangeResult, len(ranges))

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(workers)
	for i, rg := range ranges {
		i, rg := i, rg
		g.Go(func() error {
			part, err := scanRange(ctx, f, size, rg, idx)
			if err != nil {
				return fmt.Errorf("scan %s: %w", candidate, err)
			}
			parts[i] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Reassemble global line numbers from the per-range counts.
	base := 0
	for _, part := range parts {
		res.Changed += part.changed
		for _, local := range part.first {
			if len(res.ChangedLines) == ChangedListCap {
				break
			}
			res.ChangedLines = append(res.ChangedLines, base+local+1)
		}
		base += part.lines
	}
	res.CandidateLines = base
	return res, nil
}

// fileRange is a half-open byte interval of the candidate.
type fileRange struct{ start, end int64 }

// splitRanges tiles [0, size) into byte ranges of at least minBlk bytes,
// one per worker where the file is big enough. Workers align the edges
// to newlines before scanning.
func splitRanges(size int64, parts int, minBlk int64) []fileRange {
	if parts < 1 {
		parts = 1
	}
	chunk := size / int64(parts)
	if chunk < minBlk {
		chunk = minBlk
	}
	var ranges []fileRange
	for off := int64(0); off < size; {
		end := off + chunk
		if end > size {
			end = size
		}
		ranges = append(ranges, fileRange{start: off, end: end})
		off = end
	}
	return ranges
}

type rangeResult struct {
	lines   int
	changed int
	first   []int // 0-based ordinals within the range, capped
}

// scanRange counts and matches the lines whose first byte falls in rg.
// Range edges snap forward to the next newline, so consecutive ranges
// tile the file without splitting a line.
func scanRange(ctx context.Context, r io.ReaderAt, size int64, rg fileRange, idx *index16) (rangeResult, error) {
	var res rangeResult
	if rg.start > 0 {
		if err := alignForward(r, &rg.start, size); err != nil {
			return res, err
		}
	}
	if rg.end < size {
		if err := alignForward(r, &rg.end, size); err != nil {
			return res, err
		}
	}
	if rg.start >= rg.end {
		return res, nil
	}

	buf := make([]byte, readBufBytes)
	var carry []byte
	firstLine := rg.start == 0

	take := func(line []byte) {
		line = stripCR(line)
		if firstLine {
			line = stripBOM(line)
			firstLine = false
		}
		if len(line) > 0 && !idx.contains(hash48(line)) {
			if len(res.first) < ChangedListCap {
				res.first = append(res.first, res.lines)
			}
			res.changed++
		}
		res.lines++
	}

	for pos := rg.start; pos < rg.end; {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		toRead := len(buf)
		if rem := int(rg.end - pos); rem < toRead {
			toRead = rem
		}
		n, err := r.ReadAt(buf[:toRead], pos)
		if n > 0 {
			data := buf[:n]
			if len(carry) > 0 {
				carry = append(carry, data...)
				data = carry
			}
			start := 0
			for i, c := range data {
				if c == '\n' {
					take(data[start:i])
					start = i + 1
				}
			}
			if start < len(data) {
				carry = append(carry[:0], data[start:]...)
			} else {
				carry = carry[:0]
			}
			pos += int64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, err
		}
	}

	// Only the last range can end mid-line: an unterminated final line.
	if len(carry) > 0 {
		take(carry)
	}
	return res, nil
}

// alignForward moves *pos to just past the next newline, or to the file
// end when none remains.
func alignForward(r io.ReaderAt, pos *int64, size int64) error {
	buf := make([]byte, alignBufBytes)
	p := *pos
	for p < size {
		n, err := r.ReadAt(buf, p)
		if n > 0 {
			if i := bytes.IndexByte(buf[:n], '\n'); i >= 0 {
				*pos = p + int64(i) + 1
				return nil
			}
			p += int64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}
	*pos = size
	return nil
}

func stripCR(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		return b[:n-1]
	}
	return b
}

// stripBOM drops a UTF-8 byte order mark from the first line so a
// BOM-prefixed capture still matches its plain twin.
func stripBOM(b []byte) []byte {
	return bytes.TrimPrefix(b, []byte("\ufeff"))
}

// adviseSequential hints the kernel that a large sequential scan is
// coming. Best effort.
func adviseSequential(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_WILLNEED)
}
