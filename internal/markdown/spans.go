package markdown

import "strings"

// SpanKind classifies where a destination span was found.
type SpanKind string

const (
	SpanInline       SpanKind = "inline"
	SpanImage        SpanKind = "image"
	SpanReferenceDef SpanKind = "reference_definition"
)

// Span is the byte range of one link destination in the source. Start and End
// cover exactly the URL, excluding any angle brackets or title, so replacing
// source[Start:End] swaps the target and nothing else.
type Span struct {
	Kind        SpanKind
	Start       int
	End         int
	Destination string
}

// LinkSpans scans the body line by line and returns destination spans in
// document order. Fenced code blocks, indented code, and inline code spans are
// skipped so URLs quoted in examples are never rewritten.
func LinkSpans(source []byte) []Span {
	var spans []Span

	inFence := false
	activeFence := ""
	offset := 0

	for _, raw := range strings.SplitAfter(string(source), "\n") {
		lineStart := offset
		offset += len(raw)
		line := strings.TrimRight(raw, "\r\n")
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			inFence, activeFence = toggleFence(inFence, activeFence, "```")
			continue
		}
		if strings.HasPrefix(trimmed, "~~~") {
			inFence, activeFence = toggleFence(inFence, activeFence, "~~~")
			continue
		}
		if inFence || strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
			continue
		}

		code := codeSpanRanges(line)
		spans = append(spans, inlineSpans(line, lineStart, code)...)
		if s, ok := referenceDefSpan(line, lineStart); ok {
			spans = append(spans, s)
		}
	}
	return spans
}

func toggleFence(inFence bool, active, fence string) (bool, string) {
	if !inFence {
		return true, fence
	}
	if active == fence {
		return false, ""
	}
	return inFence, active
}

// codeSpanRanges returns the half-open ranges of inline code spans in the
// line, delimiters included.
func codeSpanRanges(line string) [][2]int {
	if !strings.Contains(line, "`") {
		return nil
	}
	var ranges [][2]int
	for i := 0; i < len(line); {
		if line[i] != '`' {
			i++
			continue
		}
		run := 1
		for i+run < len(line) && line[i+run] == '`' {
			run++
		}
		marker := strings.Repeat("`", run)
		closeRel := strings.Index(line[i+run:], marker)
		if closeRel == -1 {
			i += run
			continue
		}
		end := i + run + closeRel + run
		ranges = append(ranges, [2]int{i, end})
		i = end
	}
	return ranges
}

func inCode(ranges [][2]int, pos int) bool {
	for _, r := range ranges {
		if pos >= r[0] && pos < r[1] {
			return true
		}
	}
	return false
}

// inlineSpans finds "](dest)" constructs on the line, covering both links and
// images. The returned span is narrowed to the URL: a leading "<...>" wrapper
// and a trailing title are left outside the range.
func inlineSpans(line string, lineStart int, code [][2]int) []Span {
	var spans []Span
	for i := 0; i+1 < len(line); i++ {
		if line[i] != ']' || line[i+1] != '(' || inCode(code, i) {
			continue
		}
		open := textStart(line, i)
		if open == -1 {
			continue
		}
		closeRel := strings.Index(line[i+2:], ")")
		if closeRel == -1 {
			continue
		}
		destStart := i + 2
		destEnd := destStart + closeRel

		kind := SpanInline
		if open > 0 && line[open-1] == '!' {
			kind = SpanImage
		}

		start, end := narrowDestination(line, destStart, destEnd)
		if start >= end {
			continue
		}
		spans = append(spans, Span{
			Kind:        kind,
			Start:       lineStart + start,
			End:         lineStart + end,
			Destination: line[start:end],
		})
	}
	return spans
}

// textStart walks back from the closing bracket to the matching opener.
func textStart(line string, closeBracket int) int {
	for j := closeBracket - 1; j >= 0; j-- {
		if line[j] == '[' {
			return j
		}
	}
	return -1
}

// narrowDestination trims an angle-bracket wrapper and a quoted title from the
// raw destination range.
func narrowDestination(line string, start, end int) (int, int) {
	for start < end && (line[start] == ' ' || line[start] == '\t') {
		start++
	}
	if start < end && line[start] == '<' {
		if gt := strings.IndexByte(line[start:end], '>'); gt != -1 {
			return start + 1, start + gt
		}
	}
	for j := start; j < end; j++ {
		if line[j] == ' ' || line[j] == '\t' {
			return start, j
		}
	}
	return start, end
}

// referenceDefSpan handles "[label]: url" lines. Footnote definitions are not
// reference links and are ignored.
func referenceDefSpan(line string, lineStart int) (Span, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "[^") {
		return Span{}, false
	}
	sep := strings.Index(line, "]:")
	if sep == -1 {
		return Span{}, false
	}
	start := sep + 2
	for start < len(line) && (line[start] == ' ' || line[start] == '\t') {
		start++
	}
	if start >= len(line) {
		return Span{}, false
	}
	end := len(line)
	for j := start; j < len(line); j++ {
		if line[j] == ' ' || line[j] == '\t' {
			end = j
			break
		}
	}
	return Span{
		Kind:        SpanReferenceDef,
		Start:       lineStart + start,
		End:         lineStart + end,
		Destination: line[start:end],
	}, true
}
